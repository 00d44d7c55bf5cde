package transport

import (
	"errors"
	"net"

	"github.com/indigo-web/duplex/config"
)

var (
	// ErrUnsupportedSocket is returned when adopting a descriptor that isn't a stream
	// socket of the inet, inet6 or unix family.
	ErrUnsupportedSocket = errors.New("unsupported socket")
	// ErrResolveTimeout is returned when the name resolution didn't complete in time.
	ErrResolveTimeout = errors.New("name resolution timed out")
	// ErrTooManyAcceptErrors is returned by a listener giving up after too many
	// consecutive accept errors.
	ErrTooManyAcceptErrors = errors.New("too many consecutive accept errors")
)

// Transport is a listening socket handing accepted connections over to a callback.
// The callback must not block, as it runs on the accept loop.
type Transport interface {
	Bind(addr string) error
	Listen(cfg config.NET, cb func(conn net.Conn)) error
	Stop()
	Close()
	Wait()
}
