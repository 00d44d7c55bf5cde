//go:build unix

package duplex

import (
	"github.com/indigo-web/duplex/stack"
	"github.com/indigo-web/duplex/transport"
)

// Adopt runs the layer over an inherited connected socket descriptor, for instance one
// passed down by a supervising process.
func (a *App) Adopt(fd int, layer stack.Layer) (*stack.Conn, error) {
	nc, err := transport.AdoptFD(fd)
	if err != nil {
		return nil, err
	}

	return a.Enroll(nc, layer)
}
