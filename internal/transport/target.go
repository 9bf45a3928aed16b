package transport

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

var ErrInvalidTarget = errors.New("transport: invalid target")

// Target is the remote endpoint a Conn dials. It is fixed at construction.
type Target struct {
	Host string
	Port int
}

// NewTarget validates host and port.
func NewTarget(host string, port int) (Target, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return Target{}, fmt.Errorf("%w: missing host", ErrInvalidTarget)
	}
	if port < 1 || port > 65535 {
		return Target{}, fmt.Errorf("%w: port %d out of range", ErrInvalidTarget, port)
	}
	return Target{Host: host, Port: port}, nil
}

// Addr returns the dialable host:port form.
func (t Target) Addr() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

func (t Target) String() string {
	return t.Addr()
}
