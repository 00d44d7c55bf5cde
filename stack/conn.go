package stack

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dchest/uniuri"
	"github.com/indigo-web/duplex/config"
	"github.com/indigo-web/duplex/internal/metrics"
	"github.com/panjf2000/gnet/v2"
	"go.uber.org/zap"
)

var ErrClosed = errors.New("connection is closed")

var (
	bytesRead    = metrics.Bytes.WithLabelValues(metrics.Read)
	bytesWritten = metrics.Bytes.WithLabelValues(metrics.Write)
	flowRead     = metrics.FlowSamples.WithLabelValues(metrics.Read)
	flowWrite    = metrics.FlowSamples.WithLabelValues(metrics.Write)
)

// Conn is the bottom of a connection stack. It owns the socket together with a pair of
// fixed-size buffers, drives reads and writes on behalf of its Layer and monitors the
// throughput.
//
// Every callback of a Conn runs through its strand, so the Layer never observes two of
// them at once. Methods documented as callback-only must be called from within a Layer
// callback or a function passed to Do.
//
// A Conn is reference counted. The engine holds a reference from Attach until Detach,
// every outstanding write, wake-up and timer holds one as well. Once the count drops to
// zero after closing, the Layer is finalized.
type Conn struct {
	strand strand
	sock   Socket
	layer  Layer
	poller Poller
	cfg    config.Flow
	log    *zap.Logger
	id     string
	desc   string

	readBuf, writeBuf []byte
	writeSize         int

	readArmed, readWaiting bool
	writeWaiting           bool
	started, closed        bool
	isClosed               atomic.Bool

	read, written uint64
	flow          Flow
	timer         *time.Timer

	refs     atomic.Int32
	finalize sync.Once
}

func New(layer Layer, cfg *config.Config, log *zap.Logger) *Conn {
	c := &Conn{
		layer:    layer,
		cfg:      cfg.Flow,
		log:      log,
		id:       uniuri.NewLen(8),
		readBuf:  make([]byte, cfg.NET.BufferSize),
		writeBuf: make([]byte, cfg.NET.BufferSize),
		flow:     NewFlow(cfg.Flow),
	}
	c.poller, _ = layer.(Poller)
	c.desc = "{id:" + c.id + "}"
	c.refs.Store(1)

	return c
}

// Attach binds the connection to its socket. It must be called once, before Start, on
// the socket's event loop.
func (c *Conn) Attach(sock Socket) {
	c.sock = sock
	c.desc = fmt.Sprintf(
		"{local:%s, remote:%s, id:%s}", addrString(sock.LocalAddr()), addrString(sock.RemoteAddr()), c.id,
	)
	c.log = c.log.With(zap.String("conn", c.desc))
}

// Start begins the read/write cycle.
func (c *Conn) Start() {
	c.post(c.start)
}

// Close shuts the connection down. It may be called from any goroutine any number of
// times; the connection is closed on its event loop.
func (c *Conn) Close() {
	if c.isClosed.Load() {
		return
	}

	_ = c.dispatch(c.close, true)
}

// Do runs fn on the connection's event loop, serialized with the Layer callbacks. It
// is the way to touch the connection from other goroutines. If the socket is already
// gone, fn is dropped and ErrClosed is returned.
func (c *Conn) Do(fn func()) error {
	return c.dispatch(fn, false)
}

// Traffic notifies the connection about inbound data. Called by the engine on the
// event loop.
func (c *Conn) Traffic() {
	c.post(c.tryRead)
}

// Detach is called by the engine once the socket was closed, with the error that
// caused it, if any. It drops the engine's reference.
func (c *Conn) Detach(err error) {
	c.post(func() {
		if err != nil && !c.closed {
			c.readFailed(err)
		} else {
			c.close()
		}

		c.release()
	})
}

// Discard drops a connection that never got a socket, for instance because dialing
// failed. The layer is finalized without being started or stopped.
func (c *Conn) Discard() {
	c.post(func() {
		if c.sock != nil || c.closed {
			return
		}

		c.closed = true
		c.isClosed.Store(true)
		c.release()
	})
}

// ArmRead requests another read. Callback-only.
func (c *Conn) ArmRead() {
	c.readArmed = true
}

// Write copies as much of p as fits into the write buffer and returns how many bytes
// were taken. The data is flushed once the current callback returns. Nothing is taken
// while the previous write is still in flight. Callback-only.
func (c *Conn) Write(p []byte) int {
	if c.writeWaiting || c.closed {
		return 0
	}

	n := copy(c.writeBuf[c.writeSize:], p)
	c.writeSize += n
	return n
}

// WriteIdle reports whether the write buffer is empty and no write is in flight.
// Callback-only.
func (c *Conn) WriteIdle() bool {
	return !c.writeWaiting && c.writeSize == 0
}

// Closed may be called from any goroutine.
func (c *Conn) Closed() bool {
	return c.isClosed.Load()
}

// Description returns a human-readable description of the connection endpoints.
func (c *Conn) Description() string {
	return c.desc
}

// Logger returns the logger annotated with the connection description.
func (c *Conn) Logger() *zap.Logger {
	return c.log
}

// Stats returns the total number of bytes read and written. Callback-only.
func (c *Conn) Stats() (read, written uint64) {
	return c.read, c.written
}

// Flow returns the current throughput averages. Callback-only.
func (c *Conn) Flow() Flow {
	return c.flow
}

// Acquire registers an external holder of the connection.
func (c *Conn) Acquire() {
	c.refs.Add(1)
}

// Release drops a reference obtained by Acquire.
func (c *Conn) Release() {
	c.release()
}

func (c *Conn) post(fn func()) {
	c.strand.post(func() {
		defer c.rescue()
		fn()
		c.cycle()
	})
}

func (c *Conn) dispatch(fn func(), always bool) error {
	if c.sock == nil {
		c.post(fn)
		return nil
	}

	c.Acquire()
	err := c.sock.Wake(func(gnet.Conn, error) error {
		c.post(fn)
		c.release()
		return nil
	})
	if err != nil {
		if always {
			c.post(fn)
		}

		c.release()
		return ErrClosed
	}

	return nil
}

func (c *Conn) rescue() {
	if r := recover(); r != nil {
		c.log.Error("recovered from a panic in a connection callback", zap.Any("panic", r), zap.StackSkip("stack", 2))
		c.close()
	}
}

func (c *Conn) start() {
	if c.started || c.closed {
		return
	}

	c.started = true
	metrics.OpenConnections.Inc()
	c.scheduleFlow()
	c.layer.OnStart(c)
}

// cycle issues a read and a write if they're wanted and aren't outstanding yet.
func (c *Conn) cycle() {
	if c.closed || !c.started {
		return
	}

	c.armRead()
	c.tryRead()

	if c.closed {
		return
	}

	if c.poller != nil && c.WriteIdle() && c.poller.WantWrite() {
		c.layer.OnWrite(c, 0)
	}

	c.tryWrite()
}

func (c *Conn) armRead() {
	if c.readWaiting || c.closed {
		return
	}

	if c.readArmed || (c.poller != nil && c.poller.WantRead()) {
		c.readArmed = false
		c.readWaiting = true
	}
}

// tryRead completes the outstanding read for as long as there are buffered bytes.
// Without them the read stays outstanding until the next traffic notification.
func (c *Conn) tryRead() {
	for c.readWaiting && !c.closed && c.sock.InboundBuffered() > 0 {
		n, err := c.sock.Read(c.readBuf)
		c.readWaiting = false
		if err != nil {
			c.readFailed(err)
			return
		}

		c.read += uint64(n)
		bytesRead.Add(float64(n))
		c.layer.OnRead(c, c.readBuf[:n])
		c.armRead()
	}
}

func (c *Conn) tryWrite() {
	if c.writeWaiting || c.writeSize == 0 || c.closed {
		return
	}

	size := c.writeSize
	c.writeWaiting = true
	c.Acquire()

	err := c.sock.AsyncWrite(c.writeBuf[:size], func(_ gnet.Conn, err error) error {
		c.post(func() {
			c.onWritten(size, err)
		})
		c.release()
		return nil
	})
	if err != nil {
		c.writeWaiting = false
		c.release()
		c.writeFailed(err)
	}
}

func (c *Conn) onWritten(size int, err error) {
	c.writeWaiting = false
	if c.closed {
		return
	}

	if err != nil {
		c.writeFailed(err)
		return
	}

	c.writeSize = 0
	c.written += uint64(size)
	bytesWritten.Add(float64(size))
	c.layer.OnWrite(c, size)
}

func (c *Conn) readFailed(err error) {
	if c.closed {
		return
	}

	if h, ok := c.layer.(ReadErrorHandler); ok {
		h.OnReadError(c, err)
	}

	c.log.Warn("read failed", zap.Error(err))
	c.close()
}

func (c *Conn) writeFailed(err error) {
	if c.closed {
		return
	}

	if h, ok := c.layer.(WriteErrorHandler); ok {
		h.OnWriteError(c, err)
	}

	c.log.Error("write failed", zap.Error(err))
	c.close()
}

func (c *Conn) close() {
	if c.closed {
		return
	}

	c.closed = true
	c.isClosed.Store(true)

	if c.timer != nil && c.timer.Stop() {
		c.release()
	}

	if c.sock != nil {
		_ = c.sock.Close()
	}

	if c.started {
		metrics.OpenConnections.Dec()
	}

	c.layer.OnStop(c)
}

func (c *Conn) release() {
	if c.refs.Add(-1) != 0 {
		return
	}

	c.finalize.Do(func() {
		if f, ok := c.layer.(Finalizer); ok {
			f.OnFinalize(c)
		}
	})
}

func (c *Conn) scheduleFlow() {
	if c.closed || c.cfg.Bucket <= 0 {
		return
	}

	c.Acquire()
	c.timer = time.AfterFunc(c.cfg.Bucket, func() {
		_ = c.dispatch(c.checkFlow, false)
		c.release()
	})
}

func (c *Conn) checkFlow() {
	if c.closed {
		return
	}

	c.flow.Sample(c.read, c.written)
	flowRead.Observe(c.flow.Read)
	flowWrite.Observe(c.flow.Write)

	if directions := c.flow.Violations(c.cfg.MinRead, c.cfg.MinWrite); len(directions) > 0 {
		for _, direction := range directions {
			c.log.Warn(
				"throughput fell below the minimum",
				zap.String("direction", direction),
				zap.Float64("read", c.flow.Read),
				zap.Float64("write", c.flow.Write),
			)
			metrics.FlowEvictions.WithLabelValues(direction).Inc()
		}

		c.close()
		return
	}

	c.scheduleFlow()
}

func addrString(addr net.Addr) string {
	if addr == nil {
		return "-"
	}

	return addr.String()
}
