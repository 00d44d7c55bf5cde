package http

import (
	"github.com/indigo-web/duplex/http/cookie"
	"github.com/indigo-web/duplex/http/headers"
	"github.com/indigo-web/duplex/http/proto"
	"github.com/indigo-web/duplex/http/status"
	"github.com/indigo-web/utils/uf"
)

// Request represents an HTTP request, both the one being parsed by a server and the one
// being serialized by a client.
type Request struct {
	// Method is the raw method token. It isn't validated against the list of known methods.
	Method string
	// URI is the raw request target.
	URI string
	// Version is the protocol token, e.g. HTTP/1.1. An empty one on the wire is stored as "_".
	Version string
	Headers *headers.Headers
	Body    []byte
	// ContentLength holds the value of the Content-Length header, or 0 if it's absent or
	// malformed.
	ContentLength int
}

func NewRequest() *Request {
	return &Request{
		Headers: headers.New(),
	}
}

// Cookies parses every cookie header into a single jar.
func (r *Request) Cookies() cookie.Jar {
	jar := make(cookie.Jar)
	for _, value := range r.Headers.Values("cookie") {
		for k, v := range cookie.ParseAttributes(value) {
			jar[k] = v
		}
	}

	return jar
}

// Header adds a header value. Chainable.
func (r *Request) Header(name, value string) *Request {
	r.Headers.Add(name, value)
	return r
}

// String sets the body without copying.
func (r *Request) String(body string) *Request {
	r.Body = uf.S2B(body)
	return r
}

// Bytes sets the body without copying.
func (r *Request) Bytes(body []byte) *Request {
	r.Body = body
	return r
}

// ResetHead clears the start line and the headers.
func (r *Request) ResetHead() {
	r.Method, r.URI, r.Version = "", "", ""
	r.Headers.Clear()
}

// ResetBody clears the body and its length.
func (r *Request) ResetBody() {
	r.Body = nil
	r.ContentLength = 0
}

// Reset the request
func (r *Request) Reset() {
	r.ResetHead()
	r.ResetBody()
}

// Response represents an HTTP response. Code and Message are kept as they appear on the
// wire, so a client can observe codes and phrases unknown to the status table.
type Response struct {
	Version string
	Code    string
	Message string
	Headers *headers.Headers
	Body    []byte
	// ContentLength holds the value of the Content-Length header, or 0 if it's absent or
	// malformed.
	ContentLength int
}

func NewResponse() *Response {
	return &Response{
		Headers: headers.New(),
	}
}

// Header adds a header value. Chainable.
func (r *Response) Header(name, value string) *Response {
	r.Headers.Add(name, value)
	return r
}

// ContentType sets the Content-Type header value.
func (r *Response) ContentType(value string) *Response {
	r.Headers.Set("content-type", value)
	return r
}

// SetCookie appends a Set-Cookie header.
func (r *Response) SetCookie(c cookie.Cookie) *Response {
	r.Headers.Add("set-cookie", c.String())
	return r
}

// String sets the body without copying.
func (r *Response) String(body string) *Response {
	r.Body = uf.S2B(body)
	return r
}

// Bytes sets the body without copying. Changing the passed slice later will affect the
// response by itself.
func (r *Response) Bytes(body []byte) *Response {
	r.Body = body
	return r
}

// StatusCode returns the numeric code, or 0 if it isn't a valid 3-digit code.
func (r *Response) StatusCode() status.Code {
	if len(r.Code) != 3 {
		return 0
	}

	var code status.Code
	for i := 0; i < len(r.Code); i++ {
		c := r.Code[i]
		if c < '0' || c > '9' {
			return 0
		}

		code = code*10 + status.Code(c-'0')
	}

	return code
}

// ResetHead clears the status line and the headers.
func (r *Response) ResetHead() {
	r.Version, r.Code, r.Message = "", "", ""
	r.Headers.Clear()
}

// ResetBody clears the body and its length.
func (r *Response) ResetBody() {
	r.Body = nil
	r.ContentLength = 0
}

// Reset the response
func (r *Response) Reset() {
	r.ResetHead()
	r.ResetBody()
}

// Exchange is the state of a single request/response pair. It is reused across the
// keep-alive exchanges of a connection.
type Exchange struct {
	Request  *Request
	Response *Response
	// KeepAlive is decided once the message of the opposite side was read.
	KeepAlive bool
}

func NewExchange() *Exchange {
	return &Exchange{
		Request:   NewRequest(),
		Response:  NewResponse(),
		KeepAlive: true,
	}
}

// Version returns the protocol version the connection works on. It is the response's
// one if known, otherwise the request's one.
func (e *Exchange) Version() string {
	switch {
	case len(e.Response.Version) > 0:
		return e.Response.Version
	case len(e.Request.Version) > 0:
		return e.Request.Version
	default:
		return proto.HTTP11
	}
}
