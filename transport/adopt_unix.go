//go:build unix

package transport

import (
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// AdoptFD wraps an already connected descriptor into a net.Conn, so that it can be
// enrolled into the engine. Only stream sockets of the inet, inet6 and unix families
// are accepted. On success the descriptor is owned by the returned connection, otherwise
// it's left untouched.
func AdoptFD(fd int) (net.Conn, error) {
	typ, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_TYPE)
	if err != nil {
		return nil, fmt.Errorf("adopt fd %d: %w", fd, err)
	}

	if typ != unix.SOCK_STREAM {
		return nil, fmt.Errorf("%w: fd %d has socket type %d", ErrUnsupportedSocket, fd, typ)
	}

	sa, err := unix.Getsockname(fd)
	if err != nil {
		return nil, fmt.Errorf("adopt fd %d: %w", fd, err)
	}

	switch sa.(type) {
	case *unix.SockaddrInet4, *unix.SockaddrInet6, *unix.SockaddrUnix:
	default:
		return nil, fmt.Errorf("%w: fd %d has unsupported address family", ErrUnsupportedSocket, fd)
	}

	// the os.File closes its descriptor on failure as well, so give it a duplicate
	dup, err := unix.Dup(fd)
	if err != nil {
		return nil, fmt.Errorf("adopt fd %d: %w", fd, err)
	}

	f := os.NewFile(uintptr(dup), fmt.Sprintf("adopted-%d", fd))
	conn, err := net.FileConn(f)
	_ = f.Close()
	if err != nil {
		return nil, fmt.Errorf("adopt fd %d: %w", fd, err)
	}

	_ = unix.Close(fd)
	return conn, nil
}
