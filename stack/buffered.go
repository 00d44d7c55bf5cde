package stack

import (
	"github.com/indigo-web/duplex/internal/metrics"
	"go.uber.org/zap"
)

// Stream is a protocol working on top of the accumulators of a Buffered layer. All the
// callbacks are serialized by the underlying Conn.
type Stream interface {
	OnStart(b *Buffered)
	// OnData is called once new bytes were appended to the inbound accumulator.
	OnData(b *Buffered)
	// OnFlushed is called once a part of the outbound accumulator was written out.
	OnFlushed(b *Buffered)
	OnStop(b *Buffered)
}

// Buffered bridges the fixed buffers of a Conn and two growable accumulators. Inbound
// bytes are appended to In. Whatever is appended to Out gets flushed piece by piece and
// is erased from it only once actually written.
type Buffered struct {
	conn            *Conn
	upper           Stream
	in, out         *Accumulator
	reading         bool
	closeAfterWrite bool
}

var (
	_ Layer     = new(Buffered)
	_ Poller    = new(Buffered)
	_ Finalizer = new(Buffered)
)

func NewBuffered(upper Stream, accumulatorSize int) *Buffered {
	return &Buffered{
		upper: upper,
		in:    NewAccumulator(accumulatorSize),
		out:   NewAccumulator(accumulatorSize),
	}
}

// Conn returns the underlying connection. It is nil until the layer was started.
func (b *Buffered) Conn() *Conn {
	return b.conn
}

// In is the inbound accumulator. Callback-only.
func (b *Buffered) In() *Accumulator {
	return b.in
}

// Out is the outbound accumulator. Callback-only.
func (b *Buffered) Out() *Accumulator {
	return b.out
}

// ArmRead asks for more inbound bytes. Callback-only.
func (b *Buffered) ArmRead() {
	b.reading = true
}

// CloseAfterWrite closes the connection as soon as the outbound accumulator is drained.
// Callback-only.
func (b *Buffered) CloseAfterWrite() {
	if b.out.Len() == 0 {
		b.conn.close()
		return
	}

	b.closeAfterWrite = true
}

// Close closes the connection immediately. Callback-only.
func (b *Buffered) Close() {
	b.conn.close()
}

func (b *Buffered) WantRead() bool {
	return b.reading
}

func (b *Buffered) WantWrite() bool {
	return b.out.Len() > 0
}

func (b *Buffered) OnStart(c *Conn) {
	b.conn = c
	b.upper.OnStart(b)
}

func (b *Buffered) OnRead(c *Conn, data []byte) {
	b.reading = false

	if !b.in.Append(data) {
		c.log.Warn("inbound accumulator overflow", zap.Int("size", b.in.Len()))
		metrics.Violations.WithLabelValues(metrics.Read).Inc()
		c.close()
		return
	}

	b.upper.OnData(b)
}

func (b *Buffered) OnWrite(c *Conn, n int) {
	if n > 0 {
		b.out.Discard(n)
		b.upper.OnFlushed(b)
	}

	if c.closed || !c.WriteIdle() {
		return
	}

	if b.out.Len() > 0 {
		c.Write(b.out.Bytes())
	} else if b.closeAfterWrite {
		c.close()
	}
}

func (b *Buffered) OnStop(*Conn) {
	b.upper.OnStop(b)
}

func (b *Buffered) OnFinalize(*Conn) {
	b.in.Release()
	b.out.Release()
}
