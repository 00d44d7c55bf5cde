package stack

import (
	"net"

	"github.com/panjf2000/gnet/v2"
)

// Socket is the transport handle a connection is driven over. gnet.Conn satisfies it.
//
// Read and InboundBuffered are called on the owning event loop only. AsyncWrite, Wake
// and Close may be called from any goroutine; their callbacks are expected to run on
// the event loop.
type Socket interface {
	Read(p []byte) (int, error)
	InboundBuffered() int
	AsyncWrite(buf []byte, callback gnet.AsyncCallback) error
	Wake(callback gnet.AsyncCallback) error
	Close() error
	LocalAddr() net.Addr
	RemoteAddr() net.Addr
}

var _ Socket = gnet.Conn(nil)
