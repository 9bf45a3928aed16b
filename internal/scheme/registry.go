// Package scheme maps URI schemes to transport constructors.
//
// The registry is populated once at process start; transports themselves
// never consult it.
package scheme

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/danmuck/tcpwire/internal/transport"
)

const (
	TCP      = "tcp"
	TCPLines = "tcp-lines"
)

var (
	ErrSchemeExists  = errors.New("scheme: already registered")
	ErrUnknownScheme = errors.New("scheme: unknown scheme")
	ErrInvalidURI    = errors.New("scheme: invalid uri")
	ErrNilFactory    = errors.New("scheme: nil constructor")
)

// Constructor builds a disconnected transport for one target.
type Constructor func(target transport.Target, cfg transport.Config) transport.Transport

// Registry stores constructors by scheme name.
type Registry struct {
	items map[string]Constructor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[string]Constructor)}
}

// Default returns a registry holding the raw and line-hex TCP framings.
func Default() *Registry {
	r := NewRegistry()
	_ = r.Register(TCP, func(target transport.Target, cfg transport.Config) transport.Transport {
		return transport.NewRaw(target, cfg)
	})
	_ = r.Register(TCPLines, func(target transport.Target, cfg transport.Config) transport.Transport {
		return transport.NewLineHex(target, cfg)
	})
	return r
}

// Register adds a constructor under name.
func (r *Registry) Register(name string, ctor Constructor) error {
	if ctor == nil {
		return ErrNilFactory
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return fmt.Errorf("%w: empty scheme", ErrInvalidURI)
	}
	if _, ok := r.items[name]; ok {
		return fmt.Errorf("%w: %q", ErrSchemeExists, name)
	}
	r.items[name] = ctor
	return nil
}

// Schemes returns registered names in sorted order.
func (r *Registry) Schemes() []string {
	out := make([]string, 0, len(r.items))
	for name := range r.items {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// New builds a disconnected transport for uri.
func (r *Registry) New(uri string, cfg transport.Config) (transport.Transport, error) {
	name, target, err := ParseTarget(uri)
	if err != nil {
		return nil, err
	}
	ctor, ok := r.items[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownScheme, name, strings.Join(r.Schemes(), ", "))
	}
	return ctor(target, cfg), nil
}

// Connect builds a transport for uri and connects it.
func (r *Registry) Connect(ctx context.Context, uri string, cfg transport.Config) (transport.Transport, error) {
	t, err := r.New(uri, cfg)
	if err != nil {
		return nil, err
	}
	if err := t.Connect(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

// ParseTarget splits "scheme://host:port" into a lowercase scheme and target.
func ParseTarget(uri string) (string, transport.Target, error) {
	u, err := url.Parse(strings.TrimSpace(uri))
	if err != nil {
		return "", transport.Target{}, fmt.Errorf("%w: %w", ErrInvalidURI, err)
	}
	name := strings.ToLower(u.Scheme)
	if name == "" {
		return "", transport.Target{}, fmt.Errorf("%w: %q missing scheme", ErrInvalidURI, uri)
	}
	portStr := u.Port()
	if portStr == "" {
		return "", transport.Target{}, fmt.Errorf("%w: %q missing port", ErrInvalidURI, uri)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", transport.Target{}, fmt.Errorf("%w: %q bad port: %w", ErrInvalidURI, uri, err)
	}
	target, err := transport.NewTarget(u.Hostname(), port)
	if err != nil {
		return "", transport.Target{}, fmt.Errorf("%w: %w", ErrInvalidURI, err)
	}
	return name, target, nil
}
