package stack

// Layer is the protocol side of a connection. All the callbacks of a single connection
// are serialized, and none of them fires after OnStop.
type Layer interface {
	// OnStart is called once the connection was started.
	OnStart(c *Conn)
	// OnRead receives the bytes of a completed read. The slice is the connection's
	// read buffer and is only valid during the call. Another read must be armed
	// explicitly, unless the layer is a Poller.
	OnRead(c *Conn, data []byte)
	// OnWrite is called after n bytes of the previous write were flushed. Poller layers
	// are also called with n equal to zero whenever they want to write and the write
	// buffer is idle. Data passed to Conn.Write within the call is flushed next.
	OnWrite(c *Conn, n int)
	// OnStop is called exactly once, when the connection is closed.
	OnStop(c *Conn)
}

// Poller is implemented by layers which decide on every cycle whether they want
// to read or write, instead of arming each operation.
type Poller interface {
	WantRead() bool
	WantWrite() bool
}

// ReadErrorHandler is notified about transport errors on the read side before the
// connection is closed.
type ReadErrorHandler interface {
	OnReadError(c *Conn, err error)
}

// WriteErrorHandler is notified about failed writes before the connection is closed.
type WriteErrorHandler interface {
	OnWriteError(c *Conn, err error)
}

// Finalizer is called once the connection is closed and nothing references it
// anymore. This is the point where pooled resources may be given back.
type Finalizer interface {
	OnFinalize(c *Conn)
}
