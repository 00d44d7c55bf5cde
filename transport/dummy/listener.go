package dummy

import (
	"net"
	"os"
	"sync"
	"time"
)

// Listener replays a script of accept results. Once the script is exhausted, every
// Accept behaves like an expired deadline.
type Listener struct {
	mu     sync.Mutex
	script []accepted
	closed bool
}

type accepted struct {
	conn net.Conn
	err  error
}

func NewListener() *Listener {
	return new(Listener)
}

// Conn appends a successful accept of the connection to the script.
func (l *Listener) Conn(conn net.Conn) *Listener {
	l.script = append(l.script, accepted{conn: conn})
	return l
}

// Fail appends n failed accepts to the script.
func (l *Listener) Fail(err error, n int) *Listener {
	for range n {
		l.script = append(l.script, accepted{err: err})
	}

	return l
}

// Pending returns how many scripted results weren't consumed yet.
func (l *Listener) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.script)
}

func (l *Listener) Accept() (net.Conn, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, net.ErrClosed
	}

	if len(l.script) == 0 {
		return nil, os.ErrDeadlineExceeded
	}

	next := l.script[0]
	l.script = l.script[1:]
	return next.conn, next.err
}

func (l *Listener) SetDeadline(time.Time) error {
	return nil
}

func (l *Listener) Close() error {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	return nil
}

func (l *Listener) Addr() net.Addr {
	return &net.UnixAddr{Name: "dummy", Net: "unix"}
}
