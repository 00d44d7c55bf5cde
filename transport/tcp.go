package transport

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/indigo-web/duplex/config"
	"github.com/indigo-web/duplex/internal/metrics"
	"github.com/indigo-web/duplex/internal/timer"
	"go.uber.org/zap"
)

var (
	_ Transport = new(TCP)
	_ Transport = new(Unix)
)

type listener interface {
	net.Listener
	SetDeadline(t time.Time) error
}

// acceptor is the accept loop shared by the stream listeners.
type acceptor struct {
	l    listener
	wg   *sync.WaitGroup
	stop *atomic.Bool
	log  *zap.Logger
}

func newAcceptor(l listener, log *zap.Logger) acceptor {
	if log == nil {
		log = zap.NewNop()
	}

	return acceptor{
		l:    l,
		wg:   new(sync.WaitGroup),
		stop: new(atomic.Bool),
		log:  log,
	}
}

// Listen accepts connections until stopped. Accept errors are tolerated until
// AcceptErrorsLimit of them happen in a row.
func (a *acceptor) Listen(cfg config.NET, cb func(conn net.Conn)) error {
	a.wg.Add(1)
	defer a.wg.Done()

	failures := 0

	for !a.stop.Load() {
		err := a.l.SetDeadline(timer.Now().Add(cfg.AcceptLoopInterruptPeriod))
		if err != nil {
			return err
		}

		conn, err := a.l.Accept()
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}

			if a.stop.Load() {
				break
			}

			failures++
			metrics.AcceptErrors.Inc()
			a.log.Warn("accept failed", zap.Error(err), zap.Int("consecutive", failures))

			if failures >= cfg.AcceptErrorsLimit {
				return fmt.Errorf("%w: %w", ErrTooManyAcceptErrors, err)
			}

			continue
		}

		failures = 0
		cb(conn)
	}

	return nil
}

func (a *acceptor) Stop() {
	a.stop.Store(true)
}

func (a *acceptor) Close() {
	if a.l != nil {
		_ = a.l.Close()
	}
}

func (a *acceptor) Wait() {
	a.wg.Wait()
}

// Addr returns the bound address, or nil if not bound yet.
func (a *acceptor) Addr() net.Addr {
	if a.l == nil {
		return nil
	}

	return a.l.Addr()
}

// TCP listens on a TCP address.
type TCP struct {
	acceptor
}

func NewTCP(log *zap.Logger) *TCP {
	return &TCP{newAcceptor(nil, log)}
}

func (t *TCP) Bind(addr string) error {
	tcpaddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return err
	}

	l, err := net.ListenTCP("tcp", tcpaddr)
	if err != nil {
		return err
	}

	t.l = l
	return nil
}

// Unix listens on a filesystem path. The socket file is removed once closed.
type Unix struct {
	acceptor
}

func NewUnix(log *zap.Logger) *Unix {
	return &Unix{newAcceptor(nil, log)}
}

func (u *Unix) Bind(path string) error {
	l, err := net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		return err
	}

	u.l = l
	return nil
}
