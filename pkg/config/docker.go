package config

import (
	"os"
	"sync"
)

// loopbackHosts cannot reach the host machine from inside a container
// network namespace.
var loopbackHosts = map[string]bool{
	"localhost": true,
	"127.0.0.1": true,
}

var (
	inContainerOnce sync.Once
	inContainer     bool
)

// IsRunningInDocker reports whether the engine runs inside a Docker
// container. Docker creates /.dockerenv in every container it starts; the
// probe result is cached for the process lifetime.
func IsRunningInDocker() bool {
	inContainerOnce.Do(func() {
		_, err := os.Stat("/.dockerenv")
		inContainer = err == nil
	})
	return inContainer
}

// ResolveHostForDocker rewrites loopback store addresses to
// host.docker.internal when the engine itself runs containerized, so a
// config pointing at host-local Postgres or Redis still resolves. Every
// other host passes through unchanged.
func ResolveHostForDocker(host string) string {
	return resolveHost(host, IsRunningInDocker())
}

func resolveHost(host string, containerized bool) string {
	if containerized && loopbackHosts[host] {
		return "host.docker.internal"
	}
	return host
}
