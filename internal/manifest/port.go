package manifest

import (
	"fmt"
	"strconv"
	"strings"
)

// Default protocol for port bindings that do not name one.
const defaultProto = "tcp"

// A parsed port binding.
type PortBinding struct {
	HostIP        string // Host interface; empty binds all interfaces.
	HostPort      string // Host port; empty lets the daemon choose.
	ContainerPort string // Container port number.
	Proto         string // "tcp" or "udp".
}

// Returns the daemon's port key, e.g. "8080/tcp".
func (p PortBinding) Key() string {
	return p.ContainerPort + "/" + p.Proto
}

// Parses "[ip:][host:]container[/proto]".
func ParsePort(s string) (PortBinding, error) {
	spec, proto, _ := strings.Cut(strings.TrimSpace(s), "/")
	if proto == "" {
		proto = defaultProto
	}
	if proto != "tcp" && proto != "udp" {
		return PortBinding{}, fmt.Errorf("%w: %q: unknown protocol %q", ErrInvalidPort, s, proto)
	}

	var b PortBinding
	parts := strings.Split(spec, ":")
	switch len(parts) {
	case 1:
		b.ContainerPort = parts[0]
	case 2:
		b.HostPort, b.ContainerPort = parts[0], parts[1]
	case 3:
		b.HostIP, b.HostPort, b.ContainerPort = parts[0], parts[1], parts[2]
	default:
		return PortBinding{}, fmt.Errorf("%w: %q", ErrInvalidPort, s)
	}
	b.Proto = proto

	if !isPort(b.ContainerPort) {
		return PortBinding{}, fmt.Errorf("%w: %q: bad container port", ErrInvalidPort, s)
	}
	if b.HostPort != "" && !isPort(b.HostPort) {
		return PortBinding{}, fmt.Errorf("%w: %q: bad host port", ErrInvalidPort, s)
	}
	return b, nil
}

func isPort(s string) bool {
	n, err := strconv.Atoi(s)
	return err == nil && n > 0 && n < 65536
}
