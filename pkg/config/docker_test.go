package config

import (
	"testing"
)

func TestResolveHostForDocker_NotInDocker(t *testing.T) {
	// Hosts that are not localhost variants are never rewritten, regardless
	// of whether the test itself runs inside Docker.

	tests := []struct {
		input    string
		expected string
	}{
		{"warehouse.internal", "warehouse.internal"},
		{"10.20.30.40", "10.20.30.40"},
		{"host.docker.internal", "host.docker.internal"},
	}

	for _, tt := range tests {
		result := ResolveHostForDocker(tt.input)
		if result != tt.expected {
			t.Errorf("ResolveHostForDocker(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestResolveHostForDocker_LocalhostVariants(t *testing.T) {
	// The replacement only happens when IsRunningInDocker() returns true,
	// which depends on the test environment.

	localhostVariants := []string{"localhost", "127.0.0.1"}

	for _, host := range localhostVariants {
		result := ResolveHostForDocker(host)
		if IsRunningInDocker() {
			if result != "host.docker.internal" {
				t.Errorf("ResolveHostForDocker(%q) in Docker = %q, want %q", host, result, "host.docker.internal")
			}
		} else {
			if result != host {
				t.Errorf("ResolveHostForDocker(%q) not in Docker = %q, want %q", host, result, host)
			}
		}
	}
}

func TestSourceConfig_ResolvedHost(t *testing.T) {
	src := SourceConfig{Host: "warehouse.internal"}
	if got := src.ResolvedHost(); got != "warehouse.internal" {
		t.Errorf("ResolvedHost() = %q, want %q", got, "warehouse.internal")
	}
}
