package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"
)

// Endpoint is a resolved address, ready to be bound or dialed.
type Endpoint struct {
	Network string
	Address string
}

func (e Endpoint) String() string {
	return e.Network + "://" + e.Address
}

// Resolver turns a name into endpoints.
type Resolver interface {
	// Resolve starts an asynchronous resolution. Exactly one of the callbacks is called,
	// unless the resolution is cancelled before it completes.
	Resolve(onResolved func([]Endpoint), onError func(error))
	// Cancel abandons the resolution in progress, if any.
	Cancel()
	// Lookup resolves synchronously.
	Lookup(ctx context.Context) ([]Endpoint, error)
}

var (
	_ Resolver = new(TCPResolver)
	_ Resolver = new(StreamResolver)
)

// TCPResolver resolves a host and a port (either a number or a service name) into
// TCP endpoints. Wildcard hosts resolve immediately to every local address.
type TCPResolver struct {
	host, port string
	timeout    time.Duration
	resolver   *net.Resolver

	mu      sync.Mutex
	cancel  context.CancelFunc
	attempt uint64
}

func NewTCPResolver(host, port string, timeout time.Duration) *TCPResolver {
	return &TCPResolver{
		host:     host,
		port:     port,
		timeout:  timeout,
		resolver: net.DefaultResolver,
	}
}

func (r *TCPResolver) Lookup(ctx context.Context) ([]Endpoint, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	eps, err := r.lookup(ctx)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w: %s", ErrResolveTimeout, net.JoinHostPort(r.host, r.port))
	}

	return eps, err
}

func (r *TCPResolver) lookup(ctx context.Context) ([]Endpoint, error) {
	port, err := r.resolver.LookupPort(ctx, "tcp", r.port)
	if err != nil {
		return nil, fmt.Errorf("resolve port %q: %w", r.port, err)
	}

	if isWildcard(r.host) {
		return []Endpoint{{Network: "tcp", Address: fmt.Sprintf(":%d", port)}}, nil
	}

	addrs, err := r.resolver.LookupHost(ctx, r.host)
	if err != nil {
		return nil, fmt.Errorf("resolve host %q: %w", r.host, err)
	}

	eps := make([]Endpoint, 0, len(addrs))
	for _, addr := range addrs {
		eps = append(eps, Endpoint{
			Network: "tcp",
			Address: net.JoinHostPort(addr, fmt.Sprint(port)),
		})
	}

	return eps, nil
}

func (r *TCPResolver) Resolve(onResolved func([]Endpoint), onError func(error)) {
	ctx, cancel := context.WithCancel(context.Background())

	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.cancel = cancel
	r.attempt++
	attempt := r.attempt
	r.mu.Unlock()

	go func() {
		eps, err := r.Lookup(ctx)

		r.mu.Lock()
		current := r.attempt == attempt && ctx.Err() == nil
		if current {
			r.cancel = nil
		}
		r.mu.Unlock()
		cancel()

		switch {
		case !current:
		case err != nil:
			onError(err)
		default:
			onResolved(eps)
		}
	}()
}

func (r *TCPResolver) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

func isWildcard(host string) bool {
	switch host {
	case "", "0.0.0.0", "::", "[::]":
		return true
	default:
		return false
	}
}

// StreamResolver resolves a filesystem path of a unix stream socket. There is nothing
// to look up, so it always completes immediately.
type StreamResolver struct {
	path string
}

func NewStreamResolver(path string) *StreamResolver {
	return &StreamResolver{path: path}
}

func (s *StreamResolver) Lookup(context.Context) ([]Endpoint, error) {
	if len(s.path) == 0 {
		return nil, errors.New("resolve: empty socket path")
	}

	return []Endpoint{{Network: "unix", Address: s.path}}, nil
}

func (s *StreamResolver) Resolve(onResolved func([]Endpoint), onError func(error)) {
	eps, err := s.Lookup(context.Background())
	if err != nil {
		onError(err)
		return
	}

	onResolved(eps)
}

func (*StreamResolver) Cancel() {}
