package transport

import (
	"fmt"
	"net"

	"github.com/indigo-web/duplex/config"
	"github.com/indigo-web/duplex/stack"
	"github.com/panjf2000/gnet/v2"
	"go.uber.org/zap"
)

// Engine runs the event loops every connection is pinned to. Connections come in
// either by enrolling an already established net.Conn or by dialing.
type Engine struct {
	gnet.BuiltinEventEngine
	client *gnet.Client
	cfg    *config.Config
	log    *zap.Logger
}

func NewEngine(cfg *config.Config, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}

	e := &Engine{cfg: cfg, log: log}
	opts := []gnet.Option{
		gnet.WithMulticore(cfg.NET.Multicore),
		gnet.WithTCPNoDelay(gnet.TCPNoDelay),
		gnet.WithReadBufferCap(cfg.NET.BufferSize),
		gnet.WithLogger(log.Sugar()),
	}
	if cfg.NET.NumEventLoop > 0 {
		opts = append(opts, gnet.WithNumEventLoop(cfg.NET.NumEventLoop))
	}

	client, err := gnet.NewClient(e, opts...)
	if err != nil {
		return nil, fmt.Errorf("event engine: %w", err)
	}

	e.client = client
	return e, nil
}

func (e *Engine) Start() error {
	return e.client.Start()
}

// Stop shuts the event loops down, closing every connection still open.
func (e *Engine) Stop() error {
	return e.client.Stop()
}

// Enroll hands an established connection over to the event loops. The passed net.Conn
// is released by the engine in any case, the returned Conn must be used instead. On
// failure the layer is finalized right away.
func (e *Engine) Enroll(nc net.Conn, layer stack.Layer) (*stack.Conn, error) {
	conn := stack.New(layer, e.cfg, e.log)
	if _, err := e.client.EnrollContext(nc, conn); err != nil {
		conn.Discard()
		return nil, fmt.Errorf("enroll %s: %w", nc.RemoteAddr(), err)
	}

	return conn, nil
}

// Dial connects to the address and runs the layer over the connection.
func (e *Engine) Dial(network, address string, layer stack.Layer) (*stack.Conn, error) {
	conn := stack.New(layer, e.cfg, e.log)
	if _, err := e.client.DialContext(network, address, conn); err != nil {
		conn.Discard()
		return nil, fmt.Errorf("dial %s %s: %w", network, address, err)
	}

	return conn, nil
}

func (e *Engine) OnOpen(c gnet.Conn) ([]byte, gnet.Action) {
	conn, ok := c.Context().(*stack.Conn)
	if !ok {
		e.log.Error("connection without a stack", zap.Stringer("remote", c.RemoteAddr()))
		return nil, gnet.Close
	}

	conn.Attach(c)
	conn.Start()
	return nil, gnet.None
}

func (e *Engine) OnTraffic(c gnet.Conn) gnet.Action {
	if conn, ok := c.Context().(*stack.Conn); ok {
		conn.Traffic()
	}

	return gnet.None
}

func (e *Engine) OnClose(c gnet.Conn, err error) gnet.Action {
	if conn, ok := c.Context().(*stack.Conn); ok {
		conn.Detach(err)
	}

	return gnet.None
}
