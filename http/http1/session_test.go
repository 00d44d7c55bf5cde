package http1

import (
	"strings"
	"testing"

	"github.com/indigo-web/duplex/config"
	"github.com/indigo-web/duplex/http/method"
	"github.com/indigo-web/duplex/stack"
	"github.com/indigo-web/duplex/transport/dummy"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Flow.Bucket = 0
	return cfg
}

type pipe struct {
	session *Session
	conn    *stack.Conn
	sock    *dummy.Socket
}

func start(session *Session, cfg *config.Config) pipe {
	conn := stack.New(session.Layer(), cfg, zap.NewNop())
	sock := dummy.NewSocket().OnClose(conn.Detach)
	conn.Attach(sock)
	conn.Start()

	return pipe{session: session, conn: conn, sock: sock}
}

func startServer(hooks Hooks, cfg *config.Config) pipe {
	return start(NewServer(hooks, cfg, NewTables(cfg)), cfg)
}

func (p pipe) feed(data string) {
	p.sock.Feed([]byte(data))
	p.conn.Traffic()
}

func (p pipe) written() string {
	return string(p.sock.Written())
}

// czesc answers GET with a fixed body, echoes POST and refuses everything else.
type czesc struct {
	NopHooks
	requests []string
}

func (c *czesc) AfterRequest(s *Session) Outcome {
	req, resp := s.Request(), s.Response()
	c.requests = append(c.requests, req.Method+" "+req.URI+" "+req.Version)

	s.SetCode(200)
	switch req.Method {
	case method.GET:
		resp.String("Czesc!!!").ContentType("text/text")
	case method.POST:
		resp.Bytes(req.Body).ContentType("text/text")
	default:
		resp.Code, resp.Message = "405", "Method not allowed"
	}

	s.StartWrite()
	return Done
}

const (
	getRequest  = "GET /x HTTP/1.1\r\nHost: a\r\n\r\n"
	getResponse = "HTTP/1.1 200 OK\r\ncontent-length: 8\r\ncontent-type: text/text\r\n\r\nCzesc!!!"
)

func TestServer(t *testing.T) {
	t.Run("czesc", func(t *testing.T) {
		hooks := new(czesc)
		p := startServer(hooks, testConfig())
		p.feed(getRequest)

		require.Equal(t, getResponse, p.written())
		require.Equal(t, []string{"GET /x HTTP/1.1"}, hooks.requests)
		require.False(t, p.conn.Closed())
		require.Equal(t, Headers, p.session.Reading())
		require.Equal(t, End, p.session.Writing())
	})

	t.Run("czesc at every split", func(t *testing.T) {
		for i := range len(getRequest) + 1 {
			p := startServer(new(czesc), testConfig())
			p.feed(getRequest[:i])
			p.feed(getRequest[i:])
			require.Equal(t, getResponse, p.written(), "split at %d", i)
		}
	})

	t.Run("echo at every split", func(t *testing.T) {
		const (
			request  = "POST /echo HTTP/1.1\r\nContent-Length: 11\r\n\r\nhello world"
			response = "HTTP/1.1 200 OK\r\ncontent-length: 11\r\ncontent-type: text/text\r\n\r\nhello world"
		)

		for i := range len(request) + 1 {
			p := startServer(new(czesc), testConfig())
			p.feed(request[:i])
			p.feed(request[i:])
			require.Equal(t, response, p.written(), "split at %d", i)
		}
	})

	t.Run("chunked request", func(t *testing.T) {
		p := startServer(new(czesc), testConfig())
		p.feed("POST / HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n5\r\nhello\r\n6\r\n world\r\n0\r\n\r\n")

		want := "HTTP/1.1 200 OK\r\ncontent-length: 11\r\ncontent-type: text/text\r\n\r\nhello world"
		require.Equal(t, want, p.written())
		require.False(t, p.conn.Closed())
	})

	t.Run("pipelined", func(t *testing.T) {
		hooks := new(czesc)
		p := startServer(hooks, testConfig())
		p.feed(getRequest + "POST /y HTTP/1.1\r\ncontent-length: 2\r\n\r\nhi" + "DELETE /z HTTP/1.1\r\n\r\n")

		want := getResponse +
			"HTTP/1.1 200 OK\r\ncontent-length: 2\r\ncontent-type: text/text\r\n\r\nhi" +
			"HTTP/1.1 405 Method not allowed\r\n\r\n"
		require.Equal(t, want, p.written())
		require.Equal(t, []string{"GET /x HTTP/1.1", "POST /y HTTP/1.1", "DELETE /z HTTP/1.1"}, hooks.requests)
	})

	t.Run("options", func(t *testing.T) {
		p := startServer(new(czesc), testConfig())
		p.feed("OPTIONS * HTTP/1.1\r\n\r\n")
		require.Equal(t, "HTTP/1.1 405 Method not allowed\r\ncontent-length: 0\r\n\r\n", p.written())
	})

	t.Run("HTTP/1.0 closes", func(t *testing.T) {
		p := startServer(new(czesc), testConfig())
		p.feed("GET / HTTP/1.0\r\n\r\n")

		want := "HTTP/1.0 200 OK\r\ncontent-length: 8\r\ncontent-type: text/text\r\n\r\nCzesc!!!"
		require.Equal(t, want, p.written())
		require.True(t, p.conn.Closed())
	})

	t.Run("HTTP/1.0 keep-alive", func(t *testing.T) {
		p := startServer(new(czesc), testConfig())
		p.feed("GET / HTTP/1.0\r\nConnection: Keep-Alive\r\n\r\n")
		require.True(t, strings.HasPrefix(p.written(), "HTTP/1.0 200 OK\r\n"))
		require.False(t, p.conn.Closed())
	})

	t.Run("connection close", func(t *testing.T) {
		p := startServer(new(czesc), testConfig())
		p.feed("GET / HTTP/1.1\r\nConnection: close\r\n\r\n" + getRequest)
		require.Equal(t, getResponse, p.written())
		require.True(t, p.conn.Closed())
	})

	t.Run("close after the last byte is flushed", func(t *testing.T) {
		cfg := testConfig()
		cfg.NET.BufferSize = 16
		p := startServer(new(czesc), cfg)
		p.sock.Hold()
		p.feed("GET / HTTP/1.0\r\n\r\n")

		for p.sock.Pending() > 0 {
			require.False(t, p.conn.Closed())
			p.sock.Complete()
		}

		want := "HTTP/1.0 200 OK\r\ncontent-length: 8\r\ncontent-type: text/text\r\n\r\nCzesc!!!"
		require.Equal(t, want, p.written())
		require.True(t, p.conn.Closed())
	})

	t.Run("backpressure", func(t *testing.T) {
		cfg := testConfig()
		cfg.NET.BufferSize = 16
		cfg.NET.AccumulatorSize = 64
		body := strings.Repeat("0123456789", 20)
		hooks := &responder{respond: func(s *Session) {
			s.SetCode(200)
			s.Response().String(body)
		}}
		p := startServer(hooks, cfg)
		p.sock.Hold()
		p.feed("GET / HTTP/1.1\r\n\r\n")

		for p.sock.Pending() > 0 {
			p.sock.Complete()
		}

		require.Equal(t, "HTTP/1.1 200 OK\r\ncontent-length: 200\r\n\r\n"+body, p.written())
		require.False(t, p.conn.Closed())
	})

	t.Run("deferred response", func(t *testing.T) {
		hooks := &deferred{}
		p := startServer(hooks, testConfig())
		p.feed(getRequest)
		require.Empty(t, p.written())
		require.Equal(t, After, p.session.Reading())
		require.Equal(t, 1, hooks.calls)

		// more traffic doesn't retry the suspended hook
		p.feed("GET /y")
		require.Equal(t, 1, hooks.calls)

		hooks.ready = true
		require.NoError(t, p.session.Resume())
		require.Equal(t, "HTTP/1.1 202 Accepted\r\n\r\n", p.written())
		require.Equal(t, 2, hooks.calls)
		require.Equal(t, Headers, p.session.Reading())

		p.feed(" HTTP/1.1\r\n\r\n")
		require.Equal(t, 3, hooks.calls)
		require.Equal(t, strings.Repeat("HTTP/1.1 202 Accepted\r\n\r\n", 2), p.written())
	})

	t.Run("do", func(t *testing.T) {
		hooks := &responder{}
		p := startServer(hooks, testConfig())
		p.feed(getRequest)
		require.Empty(t, p.written())

		err := p.session.Do(func(s *Session) {
			s.SetCode(204)
			s.StartWrite()
		})
		require.NoError(t, err)
		require.Equal(t, "HTTP/1.1 204 No Content\r\n\r\n", p.written())

		p.conn.Close()
		require.ErrorIs(t, p.session.Resume(), stack.ErrClosed)
	})

	t.Run("stop hook", func(t *testing.T) {
		hooks := &deferred{}
		p := startServer(hooks, testConfig())
		p.conn.Close()
		require.Equal(t, 1, hooks.stops)
	})

	t.Run("panicking hook", func(t *testing.T) {
		hooks := &responder{respond: func(*Session) {
			panic("oops")
		}}
		p := startServer(hooks, testConfig())
		p.feed(getRequest)
		require.True(t, p.conn.Closed())
		require.Empty(t, p.written())
	})
}

func TestServerViolations(t *testing.T) {
	for _, tc := range []struct {
		Name    string
		Request string
	}{
		{"short method", "GE / HTTP/1.1\r\n\r\n"},
		{"long method", "ABCDEFGHIJK / HTTP/1.1\r\n\r\n"},
		{"long method without a space yet", "ABCDEFGHIJK"},
		{"missing URI", "GET\r\n\r\n"},
		{"missing colon", "GET / HTTP/1.1\r\nHost\r\n\r\n"},
		{"short header name", "GET / HTTP/1.1\r\nab: c\r\n\r\n"},
		{"long header name", "GET / HTTP/1.1\r\n" + strings.Repeat("a", 101) + ": b\r\n\r\n"},
		{"long header line", "GET / HTTP/1.1\r\nhost: " + strings.Repeat("a", 10000) + "\r\n\r\n"},
		{"long version", "GET / HTTP/1.1.1.1.1\r\n\r\n"},
		{"body too large", "POST / HTTP/1.1\r\ncontent-length: 67108865\r\n\r\n"},
		{"malformed chunked body", "POST / HTTP/1.1\r\ntransfer-encoding: chunked\r\n\r\nzz\r\n"},
	} {
		t.Run(tc.Name, func(t *testing.T) {
			hooks := new(czesc)
			p := startServer(hooks, testConfig())
			p.feed(tc.Request)
			require.True(t, p.conn.Closed())
			require.Empty(t, p.written())
			require.Empty(t, hooks.requests)
		})
	}

	t.Run("malformed response", func(t *testing.T) {
		hooks := &responder{respond: func(s *Session) {
			s.Response().Code = "20"
		}}
		p := startServer(hooks, testConfig())
		p.feed(getRequest)
		require.True(t, p.conn.Closed())
		require.Empty(t, p.written())
	})

	t.Run("failing hook", func(t *testing.T) {
		p := startServer(failing{}, testConfig())
		p.feed(getRequest)
		require.True(t, p.conn.Closed())
	})
}

func TestClient(t *testing.T) {
	newClient := func(cfg *config.Config) (*fetcher, pipe) {
		hooks := new(fetcher)
		return hooks, start(NewClient(hooks, cfg, NewTables(cfg)), cfg)
	}

	t.Run("single exchange", func(t *testing.T) {
		hooks, p := newClient(testConfig())
		require.Equal(t, "GET /1 HTTP/1.1\r\nhost: a\r\n\r\n", p.written())
		require.Equal(t, Headers, p.session.Reading())

		p.feed("HTTP/1.1 200 OK\r\nContent-Length: 3\r\nConnection: close\r\n\r\nabc")
		require.Equal(t, []string{"200 OK abc"}, hooks.responses)
		require.False(t, p.session.KeepAlive())
		require.True(t, p.conn.Closed())
	})

	t.Run("keep-alive", func(t *testing.T) {
		hooks, p := newClient(testConfig())
		p.feed("HTTP/1.1 204 \r\n\r\n")
		require.Equal(t, []string{"204 _ "}, hooks.responses)
		require.True(t, p.session.KeepAlive())
		require.False(t, p.conn.Closed())
		require.Equal(t, End, p.session.Reading())

		err := p.session.Do(func(s *Session) {
			s.Request().String("body")
			s.StartWrite()
		})
		require.NoError(t, err)
		require.Equal(t,
			"GET /1 HTTP/1.1\r\nhost: a\r\n\r\n"+
				"POST /2 HTTP/1.1\r\ncontent-length: 4\r\nhost: a\r\n\r\nbody",
			p.written(),
		)

		p.feed("HTTP/1.0 200 OK\r\n\r\n")
		require.Equal(t, []string{"204 _ ", "200 OK "}, hooks.responses)
		require.True(t, p.conn.Closed())
	})

	t.Run("malformed code", func(t *testing.T) {
		for _, code := range []string{"abc", "2x0", "-200"} {
			hooks, p := newClient(testConfig())
			p.feed("HTTP/1.1 " + code + " OK\r\n\r\n")
			require.Empty(t, hooks.responses, code)
			require.True(t, p.conn.Closed(), code)
		}
	})
}

func TestSetCode(t *testing.T) {
	s := NewServer(NopHooks{}, testConfig(), NewTables(testConfig()))

	for _, tc := range []struct {
		Code              int
		WantCode, WantMsg string
	}{
		{200, "200", "OK"},
		{404, "404", "Not Found"},
		{599, "599", "Network connect timeout error"},
		{299, "299", ""},
		{99, "500", "Internal Server Error"},
		{1000, "500", "Internal Server Error"},
		{-1, "500", "Internal Server Error"},
	} {
		s.SetCode(tc.Code)
		require.Equal(t, tc.WantCode, s.Response().Code)
		require.Equal(t, tc.WantMsg, s.Response().Message)
	}
}

func TestKeepAlive(t *testing.T) {
	for _, tc := range []struct {
		Version    string
		Connection []string
		Want       bool
	}{
		{"HTTP/1.1", nil, true},
		{"HTTP/1.1", []string{"close"}, false},
		{"HTTP/1.1", []string{"Close"}, false},
		{"HTTP/1.1", []string{"keep-alive"}, true},
		{"HTTP/1.1", []string{"upgrade", "close"}, false},
		{"HTTP/1.0", nil, false},
		{"HTTP/1.0", []string{"close"}, false},
		{"HTTP/1.0", []string{"keep-alive"}, true},
		{"HTTP/1.0", []string{"Keep-Alive"}, true},
		{"_", nil, false},
	} {
		require.Equal(t, tc.Want, KeepAlive(tc.Version, tc.Connection), "%s %v", tc.Version, tc.Connection)
	}
}

type responder struct {
	NopHooks
	respond func(s *Session)
}

func (r *responder) AfterRequest(s *Session) Outcome {
	if r.respond != nil {
		r.respond(s)
		s.StartWrite()
	}

	return Done
}

type deferred struct {
	NopHooks
	ready bool
	calls int
	stops int
}

func (d *deferred) AfterRequest(s *Session) Outcome {
	d.calls++
	if !d.ready {
		return Pending
	}

	s.SetCode(202)
	s.StartWrite()
	return Done
}

func (d *deferred) OnStop(*Session) {
	d.stops++
}

type failing struct {
	NopHooks
}

func (failing) AfterRequest(*Session) Outcome {
	return Failed
}

// fetcher issues GET /1 first and POST /n afterwards, recording every response.
type fetcher struct {
	NopHooks
	sent      int
	responses []string
}

func (f *fetcher) BeforeRequest(s *Session) Outcome {
	f.sent++
	req := s.Request()
	req.Method, req.URI = method.GET, "/1"
	if f.sent > 1 {
		req.Method, req.URI = method.POST, "/"+string(rune('0'+f.sent))
	}

	req.Headers.Set("Host", "a")
	return Done
}

func (f *fetcher) AfterResponse(s *Session) Outcome {
	resp := s.Response()
	f.responses = append(f.responses, resp.Code+" "+resp.Message+" "+string(resp.Body))
	return Done
}
