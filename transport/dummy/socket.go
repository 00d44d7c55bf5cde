package dummy

import (
	"net"
	"sync"

	"github.com/panjf2000/gnet/v2"
)

// Socket is an in-memory stand-in for a gnet connection. Inbound data is fed by the test
// and every write is journaled. Completions are delivered synchronously, unless the
// socket is set to hold them, in which case they are delivered by Complete.
type Socket struct {
	mu       sync.Mutex
	inbound  []byte
	written  []byte
	writes   int
	held     []func()
	hold     bool
	closed   bool
	writeErr error
	onClose  func(err error)
	local    net.Addr
	remote   net.Addr
}

func NewSocket() *Socket {
	return &Socket{
		local:  &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 8080},
		remote: &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 54321},
	}
}

// Hold makes write completions wait for Complete.
func (s *Socket) Hold() *Socket {
	s.hold = true
	return s
}

// FailWrites makes every following write complete with the error.
func (s *Socket) FailWrites(err error) *Socket {
	s.mu.Lock()
	s.writeErr = err
	s.mu.Unlock()
	return s
}

// OnClose is called once the socket was closed, the same way an engine reports it.
func (s *Socket) OnClose(cb func(err error)) *Socket {
	s.onClose = cb
	return s
}

// Feed appends data to the inbound buffer.
func (s *Socket) Feed(data []byte) {
	s.mu.Lock()
	s.inbound = append(s.inbound, data...)
	s.mu.Unlock()
}

func (s *Socket) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, net.ErrClosed
	}

	n := copy(p, s.inbound)
	s.inbound = s.inbound[n:]
	return n, nil
}

func (s *Socket) InboundBuffered() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.inbound)
}

func (s *Socket) AsyncWrite(buf []byte, callback gnet.AsyncCallback) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return net.ErrClosed
	}

	err := s.writeErr
	if err == nil {
		s.written = append(s.written, buf...)
		s.writes++
	}

	complete := func() {
		if callback != nil {
			_ = callback(nil, err)
		}
	}

	if s.hold {
		s.held = append(s.held, complete)
		s.mu.Unlock()
		return nil
	}

	s.mu.Unlock()
	complete()

	return nil
}

// Complete delivers all the held write completions.
func (s *Socket) Complete() {
	s.mu.Lock()
	held := s.held
	s.held = nil
	s.mu.Unlock()

	for _, complete := range held {
		complete()
	}
}

// Pending returns the number of held write completions.
func (s *Socket) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.held)
}

func (s *Socket) Wake(callback gnet.AsyncCallback) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()

	if closed {
		return net.ErrClosed
	}

	if callback != nil {
		_ = callback(nil, nil)
	}

	return nil
}

func (s *Socket) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}

	s.closed = true
	s.mu.Unlock()

	if s.onClose != nil {
		s.onClose(nil)
	}

	return nil
}

// Closed reports whether Close was called.
func (s *Socket) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}

// Written returns everything written so far.
func (s *Socket) Written() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]byte(nil), s.written...)
}

// Writes returns the number of successful writes.
func (s *Socket) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.writes
}

func (s *Socket) LocalAddr() net.Addr {
	return s.local
}

func (s *Socket) RemoteAddr() net.Addr {
	return s.remote
}
