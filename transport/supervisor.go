package transport

import (
	"net"
	"sync/atomic"

	"github.com/indigo-web/duplex/config"
	"go.uber.org/zap"
)

// Supervisor runs a set of bound transports and tears all of them down as soon as one
// fails or Stop is called.
type Supervisor struct {
	stopped *atomic.Bool
	bound   []bound
	stopch  chan struct{}
	log     *zap.Logger
}

func NewSupervisor(log *zap.Logger) Supervisor {
	if log == nil {
		log = zap.NewNop()
	}

	return Supervisor{
		stopped: new(atomic.Bool),
		stopch:  make(chan struct{}),
		log:     log,
	}
}

// Add binds the transport. On failure every transport bound so far is closed.
func (s *Supervisor) Add(addr string, t Transport, cb func(net.Conn)) error {
	if err := t.Bind(addr); err != nil {
		s.close()
		return err
	}

	s.bound = append(s.bound, bound{t: t, cb: cb})
	return nil
}

// Addrs returns the addresses of the bound transports able to report them.
func (s *Supervisor) Addrs() (addrs []net.Addr) {
	for _, b := range s.bound {
		if a, ok := b.t.(interface{ Addr() net.Addr }); ok && a.Addr() != nil {
			addrs = append(addrs, a.Addr())
		}
	}

	return addrs
}

// Run blocks until either one of the transports returns or Stop is called. The first
// error returned by a transport is returned.
func (s *Supervisor) Run(cfg config.NET) error {
	if len(s.bound) == 0 {
		return nil
	}

	errch := make(chan error)

	for _, b := range s.bound {
		go func(b bound) {
			errch <- b.t.Listen(cfg, b.cb)
		}(b)
	}

	select {
	case err := <-errch:
		if err != nil {
			s.log.Error("transport failed, stopping the rest", zap.Error(err))
		}

		s.stop()
		drain(errch, len(s.bound)-1)

		return err
	case <-s.stopch:
		s.stop()
		drain(errch, len(s.bound))
		s.stopch <- struct{}{}

		return nil
	}
}

// Stop interrupts Run and waits until every transport is closed. Must be called only
// while Run is running.
func (s *Supervisor) Stop() {
	if !s.stopped.Load() {
		s.stopch <- struct{}{}
		<-s.stopch
	}
}

func (s *Supervisor) stop() {
	if !s.stopped.CompareAndSwap(false, true) {
		return
	}

	for _, b := range s.bound {
		b.t.Stop()
	}

	for _, b := range s.bound {
		b.t.Wait()
		b.t.Close()
	}
}

func (s *Supervisor) close() {
	for _, b := range s.bound {
		b.t.Close()
	}
}

type bound struct {
	t  Transport
	cb func(conn net.Conn)
}

func drain(ch <-chan error, n int) {
	for range n {
		<-ch
	}
}
