package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearSourceEnv removes VERIQA_* variables that would interfere with a test.
func clearSourceEnv() {
	for _, key := range []string{
		"VERIQA_DB_KIND", "VERIQA_DB_HOST", "VERIQA_DB_PORT", "VERIQA_DB_USER",
		"VERIQA_DB_PASSWORD", "VERIQA_DB_NAME", "VERIQA_DB_SCHEMA", "VERIQA_DB_SSLMODE",
		"VERIQA_DB_MAX_OPEN_CONNS", "VERIQA_DB_CONNECT_TIMEOUT_SECONDS",
		"VERIQA_SAMPLE_LIMIT", "VERIQA_QUERY_TIMEOUT_SECONDS",
		"VERIQA_LOG_LEVEL", "VERIQA_LOG_FORMAT",
	} {
		os.Unsetenv(key)
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
source:
  kind: "postgres"
  host: "db.example.com"
  port: 5432
  user: "profiler"
  database: "warehouse"
  schema: "public"
checks:
  sample_limit: 50
log:
  level: "debug"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	clearSourceEnv()

	// Set env vars to override YAML values
	t.Setenv("VERIQA_DB_HOST", "override.example.com")
	t.Setenv("VERIQA_SAMPLE_LIMIT", "25")

	cfg, err := LoadFile(configPath, "test-version")
	if err != nil {
		t.Fatalf("LoadFile() failed: %v", err)
	}

	// Verify env vars override YAML
	if cfg.Source.Host != "override.example.com" {
		t.Errorf("expected Source.Host=override.example.com (from env), got %s", cfg.Source.Host)
	}
	if cfg.Checks.SampleLimit != 25 {
		t.Errorf("expected Checks.SampleLimit=25 (from env), got %d", cfg.Checks.SampleLimit)
	}

	// Verify version was set
	if cfg.Version != "test-version" {
		t.Errorf("expected Version=test-version, got %s", cfg.Version)
	}

	// Verify YAML value used for database name (proves YAML was read)
	if cfg.Source.Database != "warehouse" {
		t.Errorf("expected Source.Database=warehouse (from yaml), got %s", cfg.Source.Database)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected Log.Level=debug (from yaml), got %s", cfg.Log.Level)
	}
}

func TestLoad_PasswordOnlyFromEnv(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// A password key in YAML must be ignored: the field is yaml:"-".
	yamlContent := `
source:
  kind: "mysql"
  host: "localhost"
  password: "yaml-should-not-work"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	clearSourceEnv()
	t.Setenv("VERIQA_DB_PASSWORD", "env-secret")

	cfg, err := LoadFile(configPath, "test-version")
	if err != nil {
		t.Fatalf("LoadFile() failed: %v", err)
	}

	if cfg.Source.Password != "env-secret" {
		t.Errorf("expected Source.Password from env, got %q", cfg.Source.Password)
	}
}

func TestLoad_MissingConfigFileFallsBackToEnv(t *testing.T) {
	tmpDir := t.TempDir()
	missingPath := filepath.Join(tmpDir, "config.yaml")

	clearSourceEnv()
	t.Setenv("VERIQA_DB_KIND", "mssql")
	t.Setenv("VERIQA_DB_HOST", "sqlhost")
	t.Setenv("VERIQA_DB_PORT", "1433")

	cfg, err := LoadFile(missingPath, "test-version")
	if err != nil {
		t.Fatalf("LoadFile() failed without config file: %v", err)
	}

	if cfg.Source.Kind != "mssql" {
		t.Errorf("expected Source.Kind=mssql (from env), got %s", cfg.Source.Kind)
	}
	if cfg.Source.Host != "sqlhost" {
		t.Errorf("expected Source.Host=sqlhost (from env), got %s", cfg.Source.Host)
	}
	if cfg.Source.Port != 1433 {
		t.Errorf("expected Source.Port=1433 (from env), got %d", cfg.Source.Port)
	}
}

func TestLoad_Defaults(t *testing.T) {
	tmpDir := t.TempDir()
	missingPath := filepath.Join(tmpDir, "config.yaml")

	clearSourceEnv()

	cfg, err := LoadFile(missingPath, "test-version")
	if err != nil {
		t.Fatalf("LoadFile() failed: %v", err)
	}

	if cfg.Source.Kind != "postgres" {
		t.Errorf("expected Source.Kind=postgres (default), got %s", cfg.Source.Kind)
	}
	if cfg.Source.Host != "localhost" {
		t.Errorf("expected Source.Host=localhost (default), got %s", cfg.Source.Host)
	}
	if cfg.Source.Port != 0 {
		t.Errorf("expected Source.Port=0 (default, backend decides), got %d", cfg.Source.Port)
	}
	if cfg.Source.MaxOpenConns != 5 {
		t.Errorf("expected Source.MaxOpenConns=5 (default), got %d", cfg.Source.MaxOpenConns)
	}
	if cfg.Checks.SampleLimit != 100 {
		t.Errorf("expected Checks.SampleLimit=100 (default), got %d", cfg.Checks.SampleLimit)
	}
	if cfg.Checks.QueryTimeoutSeconds != 30 {
		t.Errorf("expected Checks.QueryTimeoutSeconds=30 (default), got %d", cfg.Checks.QueryTimeoutSeconds)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected Log.Level=info (default), got %s", cfg.Log.Level)
	}
	if cfg.Log.Format != "console" {
		t.Errorf("expected Log.Format=console (default), got %s", cfg.Log.Format)
	}
}

func TestLoad_RejectsInvalidSampleLimit(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
checks:
  sample_limit: 0
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	clearSourceEnv()

	_, err := LoadFile(configPath, "test-version")
	if err == nil {
		t.Fatal("expected error for sample_limit=0, got nil")
	}
	if !strings.Contains(err.Error(), "sample_limit") {
		t.Errorf("expected error to mention sample_limit, got: %v", err)
	}
}

func TestLoad_RejectsInvalidQueryTimeout(t *testing.T) {
	tmpDir := t.TempDir()
	missingPath := filepath.Join(tmpDir, "config.yaml")

	clearSourceEnv()
	t.Setenv("VERIQA_QUERY_TIMEOUT_SECONDS", "0")

	_, err := LoadFile(missingPath, "test-version")
	if err == nil {
		t.Fatal("expected error for query_timeout_seconds=0, got nil")
	}
	if !strings.Contains(err.Error(), "query_timeout_seconds") {
		t.Errorf("expected error to mention query_timeout_seconds, got: %v", err)
	}
}

func TestDurationHelpers(t *testing.T) {
	checks := ChecksConfig{QueryTimeoutSeconds: 45}
	if got := checks.QueryTimeout(); got != 45*time.Second {
		t.Errorf("expected QueryTimeout=45s, got %v", got)
	}

	source := SourceConfig{ConnectTimeoutSeconds: 7}
	if got := source.ConnectTimeout(); got != 7*time.Second {
		t.Errorf("expected ConnectTimeout=7s, got %v", got)
	}
}
