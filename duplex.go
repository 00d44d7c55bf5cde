// Package duplex wires the connection stack together: the event engine connections
// run on, the listeners accepting them and the resolvers turning names into addresses.
package duplex

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/indigo-web/duplex/config"
	"github.com/indigo-web/duplex/http/http1"
	"github.com/indigo-web/duplex/stack"
	"github.com/indigo-web/duplex/transport"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var ErrNoListeners = errors.New("nothing to serve: no listeners were added")

// Factory builds the layer for every accepted connection.
type Factory func() stack.Layer

// HTTP returns a factory of HTTP server sessions. hooks is called once per connection,
// so it may hand out per-connection state.
func HTTP(cfg *config.Config, tables http1.Tables, hooks func() http1.Hooks) Factory {
	return func() stack.Layer {
		return http1.NewServer(hooks(), cfg, tables).Layer()
	}
}

// App holds the engine, the listeners and everything they share.
type App struct {
	cfg    *config.Config
	log    *zap.Logger
	tables http1.Tables
	engine *transport.Engine
	sup    transport.Supervisor
	hooks  struct {
		OnStart, OnStop func()
	}

	mu      sync.Mutex
	started bool
	serving atomic.Bool
}

// New returns an App. Nil config means config.Default() and nil logger discards
// everything.
func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	if log == nil {
		log = zap.NewNop()
	}

	engine, err := transport.NewEngine(cfg, log)
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:    cfg,
		log:    log,
		tables: http1.NewTables(cfg),
		engine: engine,
		sup:    transport.NewSupervisor(log),
	}, nil
}

func (a *App) Config() *config.Config {
	return a.cfg
}

// Tables returns the header policy and status tables built from the config. They are
// shared by every session of the App.
func (a *App) Tables() http1.Tables {
	return a.tables
}

// HTTP is a shorthand for the package-level HTTP with the App's config and tables.
func (a *App) HTTP(hooks func() http1.Hooks) Factory {
	return HTTP(a.cfg, a.tables, hooks)
}

// NotifyOnStart calls the callback once all the listeners are bound and the engine
// is running.
func (a *App) NotifyOnStart(cb func()) *App {
	a.hooks.OnStart = cb
	return a
}

// NotifyOnStop calls the callback once the listeners are closed and the engine is
// stopped.
func (a *App) NotifyOnStop(cb func()) *App {
	a.hooks.OnStop = cb
	return a
}

// Listen binds a TCP listener to every address the host resolves to.
func (a *App) Listen(host, port string, factory Factory) error {
	eps, err := transport.NewTCPResolver(host, port, a.cfg.NET.ResolveTimeout).Lookup(context.Background())
	if err != nil {
		return err
	}

	for _, ep := range eps {
		if err = a.sup.Add(ep.Address, transport.NewTCP(a.log), a.accept(factory)); err != nil {
			return fmt.Errorf("listen %s: %w", ep, err)
		}
	}

	return nil
}

// ListenUnix binds a listener to the unix socket path.
func (a *App) ListenUnix(path string, factory Factory) error {
	eps, err := transport.NewStreamResolver(path).Lookup(context.Background())
	if err != nil {
		return err
	}

	if err = a.sup.Add(eps[0].Address, transport.NewUnix(a.log), a.accept(factory)); err != nil {
		return fmt.Errorf("listen %s: %w", eps[0], err)
	}

	return nil
}

// Addrs returns the addresses of the bound listeners.
func (a *App) Addrs() []net.Addr {
	return a.sup.Addrs()
}

func (a *App) accept(factory Factory) func(net.Conn) {
	return func(nc net.Conn) {
		if _, err := a.engine.Enroll(nc, factory()); err != nil {
			a.log.Warn("can't enroll an accepted connection", zap.Error(err))
		}
	}
}

// Dial connects to the first address of the host that accepts the connection. The
// engine is started if it isn't yet.
func (a *App) Dial(ctx context.Context, host, port string, layer stack.Layer) (*stack.Conn, error) {
	if err := a.start(); err != nil {
		return nil, err
	}

	eps, err := transport.NewTCPResolver(host, port, a.cfg.NET.ResolveTimeout).Lookup(ctx)
	if err != nil {
		return nil, err
	}

	var errs error
	for _, ep := range eps {
		conn, err := a.engine.Dial(ep.Network, ep.Address, layer)
		if err == nil {
			return conn, nil
		}

		errs = multierr.Append(errs, err)
	}

	return nil, errs
}

// DialUnix connects to the unix socket path.
func (a *App) DialUnix(path string, layer stack.Layer) (*stack.Conn, error) {
	if err := a.start(); err != nil {
		return nil, err
	}

	eps, err := transport.NewStreamResolver(path).Lookup(context.Background())
	if err != nil {
		return nil, err
	}

	return a.engine.Dial(eps[0].Network, eps[0].Address, layer)
}

// Enroll runs the layer over an already established connection.
func (a *App) Enroll(nc net.Conn, layer stack.Layer) (*stack.Conn, error) {
	if err := a.start(); err != nil {
		return nil, err
	}

	return a.engine.Enroll(nc, layer)
}

// Serve runs the listeners until either of them fails or Stop is called.
func (a *App) Serve() error {
	if len(a.sup.Addrs()) == 0 {
		return ErrNoListeners
	}

	if err := a.start(); err != nil {
		return err
	}

	a.serving.Store(true)
	callIfNotNil(a.hooks.OnStart)
	err := a.sup.Run(a.cfg.NET)
	a.serving.Store(false)

	err = multierr.Append(err, a.stop())
	callIfNotNil(a.hooks.OnStop)

	return err
}

// Stop closes the listeners and shuts the engine down, closing every connection. When
// serving, the engine's error is returned by Serve instead.
func (a *App) Stop() error {
	if a.serving.Load() {
		a.sup.Stop()
		return nil
	}

	return a.stop()
}

func (a *App) start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.started {
		return nil
	}

	if err := a.engine.Start(); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}

	a.started = true
	return nil
}

func (a *App) stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.started {
		return nil
	}

	a.started = false
	return a.engine.Stop()
}

func callIfNotNil(f func()) {
	if f != nil {
		f()
	}
}
