package services

import (
	"errors"
	"fmt"
	"net"
	"strconv"
)

// Default range searched by "cmdbridge serve --auto-port".
const (
	DefaultPortRangeStart = 8080
	DefaultPortRangeEnd   = 8099
)

// FindAvailablePort returns the first port in [startPort, endPort] that
// can be bound on host. The port is released before returning, so a
// caller racing another process may still lose it.
func FindAvailablePort(host string, startPort, endPort int) (int, error) {
	if startPort < 1 || endPort > 65535 || startPort > endPort {
		return 0, errors.New("invalid port range")
	}

	for port := startPort; port <= endPort; port++ {
		listener, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
		if err == nil {
			listener.Close()
			return port, nil
		}
	}
	return 0, fmt.Errorf("no available port in range %d-%d", startPort, endPort)
}
