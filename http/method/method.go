package method

// Request methods as they appear on the wire.
const (
	GET     = "GET"
	HEAD    = "HEAD"
	POST    = "POST"
	PUT     = "PUT"
	DELETE  = "DELETE"
	CONNECT = "CONNECT"
	OPTIONS = "OPTIONS"
	TRACE   = "TRACE"
	PATCH   = "PATCH"
)

// List contains all the methods defined by RFC 9110 and RFC 5789.
var List = []string{GET, HEAD, POST, PUT, DELETE, CONNECT, OPTIONS, TRACE, PATCH}

// Known reports whether the method is one of List. Methods are case-sensitive.
func Known(m string) bool {
	switch m {
	case GET, HEAD, POST, PUT, DELETE, CONNECT, OPTIONS, TRACE, PATCH:
		return true
	default:
		return false
	}
}
