package stack

import (
	"bytes"

	"github.com/indigo-web/utils/uf"
	"github.com/valyala/bytebufferpool"
)

// Accumulator is a growable byte buffer with a hard capacity. Bytes are appended at the
// back and consumed from the front. The memory is borrowed from a pool and must be
// returned via Release once the owner is done.
type Accumulator struct {
	buf     *bytebufferpool.ByteBuffer
	maxSize int
}

func NewAccumulator(maxSize int) *Accumulator {
	return &Accumulator{
		buf:     bytebufferpool.Get(),
		maxSize: maxSize,
	}
}

// Append writes data, checking whether the new amount of bytes doesn't exceed the limit,
// otherwise discarding the data and returning false.
func (a *Accumulator) Append(data []byte) (ok bool) {
	if len(a.buf.B)+len(data) > a.maxSize {
		return false
	}

	a.buf.B = append(a.buf.B, data...)
	return true
}

// AppendString is Append for strings.
func (a *Accumulator) AppendString(data string) (ok bool) {
	if len(a.buf.B)+len(data) > a.maxSize {
		return false
	}

	a.buf.B = append(a.buf.B, data...)
	return true
}

// Bytes returns the accumulated data. The slice is valid until the next mutation.
func (a *Accumulator) Bytes() []byte {
	return a.buf.B
}

// String is Bytes without copying.
func (a *Accumulator) String() string {
	return uf.B2S(a.buf.B)
}

func (a *Accumulator) Len() int {
	return len(a.buf.B)
}

// Free returns how many bytes can still be appended.
func (a *Accumulator) Free() int {
	return a.maxSize - len(a.buf.B)
}

func (a *Accumulator) Index(sep []byte) int {
	return bytes.Index(a.buf.B, sep)
}

func (a *Accumulator) IndexByte(c byte) int {
	return bytes.IndexByte(a.buf.B, c)
}

// Discard erases n bytes from the front.
func (a *Accumulator) Discard(n int) {
	if n >= len(a.buf.B) {
		a.buf.B = a.buf.B[:0]
		return
	}

	a.buf.B = a.buf.B[:copy(a.buf.B, a.buf.B[n:])]
}

// Reset empties the accumulator, keeping its memory.
func (a *Accumulator) Reset() {
	a.buf.Reset()
}

// Release returns the memory to the pool. The accumulator must not be used afterwards.
func (a *Accumulator) Release() {
	if a.buf != nil {
		bytebufferpool.Put(a.buf)
		a.buf = nil
	}
}
