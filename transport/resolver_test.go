package transport

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// stalled never answers a DNS query.
var stalled = &net.Resolver{
	PreferGo: true,
	Dial: func(ctx context.Context, _, _ string) (net.Conn, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	},
}

func TestTCPResolver(t *testing.T) {
	t.Run("ip literal", func(t *testing.T) {
		eps, err := NewTCPResolver("127.0.0.1", "8080", time.Second).Lookup(context.Background())
		require.NoError(t, err)
		require.Equal(t, []Endpoint{{Network: "tcp", Address: "127.0.0.1:8080"}}, eps)
	})

	t.Run("ipv6 literal", func(t *testing.T) {
		eps, err := NewTCPResolver("::1", "443", time.Second).Lookup(context.Background())
		require.NoError(t, err)
		require.Equal(t, []Endpoint{{Network: "tcp", Address: "[::1]:443"}}, eps)
	})

	t.Run("wildcard", func(t *testing.T) {
		for _, host := range []string{"", "0.0.0.0", "::", "[::]"} {
			r := NewTCPResolver(host, "9090", time.Second)
			r.resolver = stalled
			eps, err := r.Lookup(context.Background())
			require.NoError(t, err, host)
			require.Equal(t, []Endpoint{{Network: "tcp", Address: ":9090"}}, eps, host)
		}
	})

	t.Run("bad port", func(t *testing.T) {
		_, err := NewTCPResolver("127.0.0.1", "99999", time.Second).Lookup(context.Background())
		require.Error(t, err)
	})

	t.Run("timeout", func(t *testing.T) {
		r := NewTCPResolver("duplex.test", "80", 50*time.Millisecond)
		r.resolver = stalled
		_, err := r.Lookup(context.Background())
		require.ErrorIs(t, err, ErrResolveTimeout)
	})

	t.Run("async", func(t *testing.T) {
		resolved := make(chan []Endpoint, 1)
		r := NewTCPResolver("127.0.0.1", "80", time.Second)
		r.Resolve(func(eps []Endpoint) {
			resolved <- eps
		}, func(err error) {
			require.Fail(t, "unexpected error", err)
		})

		select {
		case eps := <-resolved:
			require.Equal(t, "127.0.0.1:80", eps[0].Address)
			require.Equal(t, "tcp://127.0.0.1:80", eps[0].String())
		case <-time.After(time.Second):
			require.Fail(t, "resolver didn't call back")
		}
	})

	t.Run("async timeout", func(t *testing.T) {
		errs := make(chan error, 1)
		r := NewTCPResolver("duplex.test", "80", 50*time.Millisecond)
		r.resolver = stalled
		r.Resolve(func([]Endpoint) {
			require.Fail(t, "must not resolve")
		}, func(err error) {
			errs <- err
		})

		select {
		case err := <-errs:
			require.ErrorIs(t, err, ErrResolveTimeout)
		case <-time.After(time.Second):
			require.Fail(t, "resolver didn't call back")
		}
	})

	t.Run("cancel", func(t *testing.T) {
		called := make(chan struct{}, 2)
		r := NewTCPResolver("duplex.test", "80", time.Second)
		r.resolver = stalled
		r.Resolve(func([]Endpoint) {
			called <- struct{}{}
		}, func(error) {
			called <- struct{}{}
		})
		r.Cancel()

		select {
		case <-called:
			require.Fail(t, "cancelled resolution must stay silent")
		case <-time.After(100 * time.Millisecond):
		}
	})
}

func TestStreamResolver(t *testing.T) {
	var got []Endpoint
	NewStreamResolver("/tmp/duplex.sock").Resolve(func(eps []Endpoint) {
		got = eps
	}, func(err error) {
		require.Fail(t, "unexpected error", err)
	})
	require.Equal(t, []Endpoint{{Network: "unix", Address: "/tmp/duplex.sock"}}, got)

	_, err := NewStreamResolver("").Lookup(context.Background())
	require.Error(t, err)
}
