package proto

// Protocol versions as they appear in start lines.
const (
	HTTP10 = "HTTP/1.0"
	HTTP11 = "HTTP/1.1"
)

// Connection header tokens.
const (
	Close     = "close"
	KeepAlive = "keep-alive"
)
