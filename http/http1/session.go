package http1

import (
	"github.com/indigo-web/chunkedbody"
	"github.com/indigo-web/duplex/config"
	"github.com/indigo-web/duplex/http"
	"github.com/indigo-web/duplex/http/headers"
	"github.com/indigo-web/duplex/http/proto"
	"github.com/indigo-web/duplex/http/status"
	"github.com/indigo-web/duplex/internal/metrics"
	"github.com/indigo-web/duplex/stack"
	"github.com/indigo-web/utils/strcomp"
	"go.uber.org/zap"
)

const (
	roleServer = "server"
	roleClient = "client"
)

// Session is the HTTP/1.x engine of a single connection. It runs two independent phase
// machines, one reading and one writing messages, over the accumulators of a
// stack.Buffered layer. A server reads requests and writes responses; a client does
// the opposite.
//
// All the methods must be called from within a hook, unless documented otherwise.
type Session struct {
	hooks    Hooks
	cfg      *config.Config
	tables   Tables
	server   bool
	role     string
	layer    *stack.Buffered
	exchange *http.Exchange

	reading, writing Phase
	// transitions counts phase changes, so the driver knows whether another round
	// could make progress.
	transitions uint64
	stopped     bool
	// readParked and writeParked are set once a hook suspended the machine. A parked
	// machine is left alone until its phase changes or the session is resumed.
	readParked, writeParked bool

	parser *chunkedbody.Parser
	w      writeState
}

// writeState tracks the progress of serializing the outbound message.
type writeState struct {
	line       bool
	names      []string
	next       int
	terminated bool
	body       int
	pieces     []string
}

var _ stack.Stream = new(Session)

// NewServer returns a session reading requests and writing responses. The server is
// idle on the writing side until StartWrite is called, usually from AfterRequest.
func NewServer(hooks Hooks, cfg *config.Config, tables Tables) *Session {
	return newSession(true, hooks, cfg, tables)
}

// NewClient returns a session writing requests and reading responses. The request is
// written right away, so it must be filled in BeforeRequest at the latest.
func NewClient(hooks Hooks, cfg *config.Config, tables Tables) *Session {
	return newSession(false, hooks, cfg, tables)
}

func newSession(server bool, hooks Hooks, cfg *config.Config, tables Tables) *Session {
	s := &Session{
		hooks:    hooks,
		cfg:      cfg,
		tables:   tables,
		server:   server,
		role:     roleClient,
		exchange: http.NewExchange(),
		reading:  End,
		writing:  Before,
	}

	if server {
		s.role = roleServer
		s.reading, s.writing = Before, End
	}

	s.layer = stack.NewBuffered(s, cfg.NET.AccumulatorSize)
	return s
}

// Layer returns the layer to build the connection upon.
func (s *Session) Layer() stack.Layer {
	return s.layer
}

// Server tells whether the session reads requests. May be called from any goroutine.
func (s *Session) Server() bool {
	return s.server
}

func (s *Session) Exchange() *http.Exchange {
	return s.exchange
}

func (s *Session) Request() *http.Request {
	return s.exchange.Request
}

func (s *Session) Response() *http.Response {
	return s.exchange.Response
}

// KeepAlive tells whether the connection will be reused. It is decided once the inbound
// message was read.
func (s *Session) KeepAlive() bool {
	return s.exchange.KeepAlive
}

// Reading returns the current phase of the reading machine.
func (s *Session) Reading() Phase {
	return s.reading
}

// Writing returns the current phase of the writing machine.
func (s *Session) Writing() Phase {
	return s.writing
}

// Conn returns the underlying connection. It's nil until the session was started.
func (s *Session) Conn() *stack.Conn {
	return s.layer.Conn()
}

// SetCode sets the response code together with its reason phrase. Codes outside of
// [100, 999] become 500.
func (s *Session) SetCode(code int) {
	c := status.Normalize(code)
	s.exchange.Response.Code = status.StringCode(c)
	s.exchange.Response.Message = string(s.tables.Status.Text(c))
}

// StartWrite starts writing the outbound message, unless one is being written already.
func (s *Session) StartWrite() {
	if s.writing != End {
		return
	}

	s.w = writeState{pieces: s.w.pieces[:0]}
	s.setWriting(Before)
}

// Resume re-drives both phase machines. It is the way to continue after a hook returned
// Pending, and may be called from any goroutine. Returns stack.ErrClosed if the
// connection is gone.
func (s *Session) Resume() error {
	conn := s.layer.Conn()
	if conn == nil {
		return stack.ErrClosed
	}

	return conn.Do(s.resume)
}

// Do runs fn serialized with the hooks, and drives the phase machines afterwards. May be
// called from any goroutine.
func (s *Session) Do(fn func(s *Session)) error {
	conn := s.layer.Conn()
	if conn == nil {
		return stack.ErrClosed
	}

	return conn.Do(func() {
		if s.stopped {
			return
		}

		fn(s)
		s.resume()
	})
}

// resume unparks both machines, so the suspended hooks run again.
func (s *Session) resume() {
	s.readParked, s.writeParked = false, false
	s.drive()
}

func (s *Session) OnStart(*stack.Buffered) {
	s.drive()
}

func (s *Session) OnData(*stack.Buffered) {
	s.drive()
}

func (s *Session) OnFlushed(*stack.Buffered) {
	s.drive()
}

func (s *Session) OnStop(*stack.Buffered) {
	s.stopped = true
	if h, ok := s.hooks.(StopHook); ok {
		h.OnStop(s)
	}
}

// drive runs both machines for as long as they make progress. It is the only place
// turning a Failed outcome into a close.
func (s *Session) drive() {
	for !s.stopped {
		transitions := s.transitions

		if s.readStep() == Failed {
			s.abort(metrics.Read)
			return
		}

		if s.writeStep() == Failed {
			s.abort(metrics.Write)
			return
		}

		if s.transitions == transitions {
			break
		}
	}

	if !s.stopped && s.reading != End {
		s.layer.ArmRead()
	}
}

func (s *Session) abort(direction string) {
	metrics.Violations.WithLabelValues(direction).Inc()
	s.layer.Close()
}

func (s *Session) readStep() Outcome {
	for {
		if s.readParked {
			return Pending
		}

		var outcome Outcome
		phase := s.reading

		switch phase {
		case Before:
			outcome = s.beforeRead()
		case Headers:
			outcome = s.readHead()
		case Between:
			outcome = s.betweenRead()
		case Body:
			outcome = s.readBody()
		case After:
			outcome = s.afterRead()
		default:
			return Done
		}

		if outcome == Pending && s.reading == phase && isHookPhase(phase) {
			s.readParked = true
		}

		if outcome != Done || s.stopped {
			return outcome
		}

		if s.reading == phase {
			s.setReading(phase + 1)
		}
	}
}

func (s *Session) writeStep() Outcome {
	for {
		if s.writeParked {
			return Pending
		}

		var outcome Outcome
		phase := s.writing

		switch phase {
		case Before:
			outcome = s.beforeWrite()
		case Headers:
			outcome = s.writeHead()
		case Between:
		case Body:
			outcome = s.writeBody()
		case After:
			outcome = s.afterWrite()
		default:
			return Done
		}

		if outcome == Pending && s.writing == phase && isHookPhase(phase) {
			s.writeParked = true
		}

		if outcome != Done || s.stopped {
			return outcome
		}

		// afterWrite moves on by itself
		if s.writing == phase {
			s.setWriting(phase + 1)
		}
	}
}

func (s *Session) setReading(p Phase) {
	s.reading = p
	s.readParked = false
	s.transitions++
}

func (s *Session) setWriting(p Phase) {
	s.writing = p
	s.writeParked = false
	s.transitions++
}

// isHookPhase tells whether the phase runs an application hook.
func isHookPhase(p Phase) bool {
	return p == Before || p == After
}

func (s *Session) beforeRead() Outcome {
	if s.server {
		return s.hooks.BeforeRequest(s)
	}

	return s.hooks.BeforeResponse(s)
}

func (s *Session) readHead() Outcome {
	if s.server {
		if o := s.readRequestLine(); o != Done {
			return o
		}

		return s.readHeaders(s.exchange.Request.Headers)
	}

	if o := s.readStatusLine(); o != Done {
		return o
	}

	return s.readHeaders(s.exchange.Response.Headers)
}

// afterRead decides on keep-alive. The server mirrors the request version.
func (s *Session) afterRead() Outcome {
	if s.server {
		req := s.exchange.Request
		s.exchange.KeepAlive = KeepAlive(req.Version, req.Headers.Values("connection"))
		if req.Version == proto.HTTP11 {
			s.exchange.Response.Version = proto.HTTP11
		} else {
			s.exchange.Response.Version = proto.HTTP10
		}

		return s.hooks.AfterRequest(s)
	}

	resp := s.exchange.Response
	s.exchange.KeepAlive = KeepAlive(resp.Version, resp.Headers.Values("connection"))
	if o := s.hooks.AfterResponse(s); o != Done {
		return o
	}

	metrics.Exchanges.WithLabelValues(s.role).Inc()
	if !s.exchange.KeepAlive {
		s.layer.CloseAfterWrite()
	}

	return Done
}

func (s *Session) beforeWrite() Outcome {
	if s.server {
		resp := s.exchange.Response
		if o := s.hooks.BeforeResponse(s); o != Done {
			return o
		}

		if len(resp.Version) == 0 {
			resp.Version = proto.HTTP11
		}

		s.setContentLength(resp.Headers, len(resp.Body))
		return Done
	}

	req := s.exchange.Request
	req.Version = proto.HTTP11
	if o := s.hooks.BeforeRequest(s); o != Done {
		return o
	}

	s.setContentLength(req.Headers, len(req.Body))
	return Done
}

func (s *Session) writeHead() Outcome {
	if o := s.writeStartLine(); o != Done {
		return o
	}

	if s.server {
		return s.writeHeaders(s.exchange.Response.Headers)
	}

	return s.writeHeaders(s.exchange.Request.Headers)
}

// afterWrite runs the hook and clears the outbound message. A server then either reads
// the next request or closes once the response is flushed. A client reads the response.
func (s *Session) afterWrite() Outcome {
	if s.server {
		if o := s.hooks.AfterResponse(s); o != Done {
			return o
		}

		metrics.Exchanges.WithLabelValues(s.role).Inc()
		s.exchange.Response.Reset()
		s.setWriting(End)

		switch {
		case !s.exchange.KeepAlive:
			s.layer.CloseAfterWrite()
		case s.reading == End:
			s.startRead()
		}

		return Done
	}

	if o := s.hooks.AfterRequest(s); o != Done {
		return o
	}

	s.exchange.Request.Reset()
	s.setWriting(End)
	s.startRead()
	return Done
}

// startRead clears the inbound message and restarts the reading machine.
func (s *Session) startRead() {
	if s.server {
		s.exchange.Request.Reset()
	} else {
		s.exchange.Response.Reset()
	}

	s.setReading(Before)
}

// inbound returns the fields of the message being read.
func (s *Session) inbound() (hdrs *headers.Headers, body *[]byte, length *int) {
	if s.server {
		req := s.exchange.Request
		return req.Headers, &req.Body, &req.ContentLength
	}

	resp := s.exchange.Response
	return resp.Headers, &resp.Body, &resp.ContentLength
}

func (s *Session) outboundBody() []byte {
	if s.server {
		return s.exchange.Response.Body
	}

	return s.exchange.Request.Body
}

func (s *Session) readViolation(reason string, fields ...zap.Field) Outcome {
	s.logger().Warn(reason, append(fields, zap.String("role", s.role))...)
	return Failed
}

func (s *Session) writeViolation(reason string, fields ...zap.Field) Outcome {
	s.logger().Error(reason, append(fields, zap.String("role", s.role))...)
	return Failed
}

func (s *Session) logger() *zap.Logger {
	if conn := s.layer.Conn(); conn != nil {
		return conn.Logger()
	}

	return zap.NewNop()
}

// KeepAlive decides whether a connection may be reused after a message of the version
// carrying the given Connection header values. HTTP/1.1 connections persist unless
// closed explicitly, older ones only when asked to.
func KeepAlive(version string, connection []string) bool {
	if version == proto.HTTP11 {
		return !hasToken(connection, proto.Close)
	}

	return hasToken(connection, proto.KeepAlive)
}

func hasToken(values []string, token string) bool {
	for _, value := range values {
		if strcomp.EqualFold(value, token) {
			return true
		}
	}

	return false
}
