package config

import (
	"os"
	"sync"
)

var (
	isDockerOnce   sync.Once
	isDockerResult bool
)

// IsRunningInDocker returns true if the engine is running inside a Docker
// container. Detection is based on the presence of the /.dockerenv file which
// exists in all Docker containers. The result is cached after the first call.
func IsRunningInDocker() bool {
	isDockerOnce.Do(func() {
		_, err := os.Stat("/.dockerenv")
		isDockerResult = err == nil
	})
	return isDockerResult
}

// ResolveHostForDocker returns the host address to dial for the database
// under inspection. If the engine runs in Docker and the configured host is
// "localhost" or "127.0.0.1", it returns "host.docker.internal" so the
// connection reaches the database on the host machine. Otherwise the host is
// returned unchanged.
func ResolveHostForDocker(host string) string {
	if !IsRunningInDocker() {
		return host
	}

	if host == "localhost" || host == "127.0.0.1" {
		return "host.docker.internal"
	}

	return host
}
