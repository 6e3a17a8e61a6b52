package mysql

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/veriqa-inc/veriqa-engine/pkg/apperrors"
	"github.com/veriqa-inc/veriqa-engine/pkg/connector"
	"github.com/veriqa-inc/veriqa-engine/pkg/dialect"
)

func TestDSN(t *testing.T) {
	c := &Connector{profile: connector.Profile{
		Host:           "db.internal",
		Port:           3307,
		User:           "veriqa",
		Password:       "s3cret#pass",
		Database:       "sales",
		ConnectTimeout: 5 * time.Second,
	}}

	dsn := c.dsn()
	for _, want := range []string{
		"veriqa:s3cret#pass@tcp(db.internal:3307)/sales",
		"parseTime=true",
		"timeout=5s",
	} {
		if !strings.Contains(dsn, want) {
			t.Errorf("dsn %q missing %q", dsn, want)
		}
	}
	if strings.Contains(dsn, "tls=") {
		t.Errorf("dsn %q should not configure tls by default", dsn)
	}
}

func TestDSNDefaultPort(t *testing.T) {
	c := &Connector{profile: connector.Profile{Host: "localhost", User: "u", Database: "d"}}
	if dsn := c.dsn(); !strings.Contains(dsn, "tcp(localhost:3306)") {
		t.Errorf("dsn %q missing default port", dsn)
	}
}

func TestDSNTLSModes(t *testing.T) {
	cases := []struct {
		sslMode string
		want    string
	}{
		{"disable", ""},
		{"prefer", "tls=preferred"},
		{"require", "tls=skip-verify"},
		{"verify-ca", "tls=true"},
		{"verify-full", "tls=true"},
	}
	for _, tc := range cases {
		c := &Connector{profile: connector.Profile{
			Host: "localhost", User: "u", Database: "d", SSLMode: tc.sslMode,
		}}
		dsn := c.dsn()
		if tc.want == "" {
			if strings.Contains(dsn, "tls=") {
				t.Errorf("ssl_mode %s: dsn %q should not configure tls", tc.sslMode, dsn)
			}
			continue
		}
		if !strings.Contains(dsn, tc.want) {
			t.Errorf("ssl_mode %s: dsn %q missing %q", tc.sslMode, dsn, tc.want)
		}
	}
}

func TestKind(t *testing.T) {
	c, err := New(connector.Profile{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.Kind() != dialect.MySQL {
		t.Errorf("expected kind mysql, got %s", c.Kind())
	}
}

func TestRegistered(t *testing.T) {
	if !connector.IsRegistered(dialect.MySQL) {
		t.Error("mysql backend not registered")
	}
}

func TestOperationsBeforeConnect(t *testing.T) {
	c, err := New(connector.Profile{Host: "localhost"}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	if _, err := c.Columns(ctx, "sales", "orders"); !errors.Is(err, apperrors.ErrConnectionFailed) {
		t.Errorf("Columns before Connect: expected ErrConnectionFailed, got %v", err)
	}
	if _, err := c.SampleRows(ctx, "sales", "orders", 10); !errors.Is(err, apperrors.ErrConnectionFailed) {
		t.Errorf("SampleRows before Connect: expected ErrConnectionFailed, got %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close on unconnected session: %v", err)
	}
}
