package transport

import (
	"errors"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/indigo-web/duplex/config"
	"github.com/indigo-web/duplex/transport/dummy"
	"github.com/stretchr/testify/require"
)

func listenConfig() config.NET {
	cfg := config.Default().NET
	cfg.AcceptLoopInterruptPeriod = 20 * time.Millisecond
	cfg.AcceptErrorsLimit = 3
	return cfg
}

func TestAcceptor(t *testing.T) {
	errAccept := errors.New("accept failed")

	t.Run("error limit", func(t *testing.T) {
		l := dummy.NewListener().Fail(errAccept, 3)
		a := newAcceptor(l, nil)

		err := a.Listen(listenConfig(), func(net.Conn) {
			require.Fail(t, "nothing must be accepted")
		})
		require.ErrorIs(t, err, ErrTooManyAcceptErrors)
		require.ErrorIs(t, err, errAccept)
	})

	t.Run("errors in between accepts", func(t *testing.T) {
		l := dummy.NewListener().
			Fail(errAccept, 2).
			Conn(new(net.TCPConn)).
			Fail(errAccept, 2).
			Conn(new(net.TCPConn))
		a := newAcceptor(l, nil)

		accepted := 0
		done := make(chan error)
		go func() {
			done <- a.Listen(listenConfig(), func(net.Conn) {
				accepted++
			})
		}()

		require.Eventually(t, func() bool {
			return l.Pending() == 0
		}, time.Second, time.Millisecond)

		a.Stop()
		a.Wait()
		require.NoError(t, <-done)
		require.Equal(t, 2, accepted)
	})
}

func TestTCP(t *testing.T) {
	tcp := NewTCP(nil)
	require.Nil(t, tcp.Addr())
	require.NoError(t, tcp.Bind("127.0.0.1:0"))

	conns := make(chan net.Conn, 1)
	done := make(chan error)
	go func() {
		done <- tcp.Listen(listenConfig(), func(conn net.Conn) {
			conns <- conn
		})
	}()

	client, err := net.Dial("tcp", tcp.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	select {
	case conn := <-conns:
		require.Equal(t, client.LocalAddr().String(), conn.RemoteAddr().String())
		require.NoError(t, conn.Close())
	case <-time.After(time.Second):
		require.Fail(t, "connection wasn't accepted")
	}

	tcp.Stop()
	tcp.Wait()
	tcp.Close()
	require.NoError(t, <-done)
}

func TestUnix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "duplex.sock")
	unix := NewUnix(nil)
	require.NoError(t, unix.Bind(path))

	conns := make(chan net.Conn, 1)
	done := make(chan error)
	go func() {
		done <- unix.Listen(listenConfig(), func(conn net.Conn) {
			conns <- conn
		})
	}()

	client, err := net.Dial("unix", path)
	require.NoError(t, err)
	defer client.Close()

	select {
	case conn := <-conns:
		require.NoError(t, conn.Close())
	case <-time.After(time.Second):
		require.Fail(t, "connection wasn't accepted")
	}

	unix.Stop()
	unix.Wait()
	unix.Close()
	require.NoError(t, <-done)
}
