package http

import (
	"testing"

	"github.com/indigo-web/duplex/http/cookie"
	"github.com/indigo-web/duplex/http/proto"
	"github.com/indigo-web/duplex/http/status"
	"github.com/stretchr/testify/require"
)

func TestRequest(t *testing.T) {
	t.Run("cookies", func(t *testing.T) {
		req := NewRequest().
			Header("Cookie", `session=abc; theme="dark"`).
			Header("Cookie", "lang=pl")

		require.Equal(t, cookie.Jar{
			"session": "abc",
			"theme":   "dark",
			"lang":    "pl",
		}, req.Cookies())
	})

	t.Run("reset", func(t *testing.T) {
		req := NewRequest().Header("Host", "a").String("body")
		req.Method, req.URI, req.Version, req.ContentLength = "GET", "/", proto.HTTP11, 4

		req.ResetBody()
		require.Nil(t, req.Body)
		require.Zero(t, req.ContentLength)
		require.Equal(t, "GET", req.Method)

		req.Reset()
		require.Empty(t, req.Method+req.URI+req.Version)
		require.Zero(t, req.Headers.Len())
	})
}

func TestResponse(t *testing.T) {
	t.Run("status code", func(t *testing.T) {
		resp := NewResponse()
		for code, want := range map[string]status.Code{
			"200": status.OK,
			"999": 999,
			"20":  0,
			"2x0": 0,
			"":    0,
		} {
			resp.Code = code
			require.Equal(t, want, resp.StatusCode(), code)
		}
	})

	t.Run("set cookie", func(t *testing.T) {
		resp := NewResponse().
			SetCookie(cookie.Build("a", "1").Path("/").Cookie()).
			SetCookie(cookie.New("b", "2"))

		require.Equal(t, []string{"a=1; Path=/", "b=2"}, resp.Headers.Values("Set-Cookie"))
	})

	t.Run("content type", func(t *testing.T) {
		resp := NewResponse().ContentType("text/html").ContentType("text/plain")
		require.Equal(t, []string{"text/plain"}, resp.Headers.Values("content-type"))
	})
}

func TestExchange(t *testing.T) {
	e := NewExchange()
	require.True(t, e.KeepAlive)
	require.Equal(t, proto.HTTP11, e.Version())

	e.Request.Version = proto.HTTP10
	require.Equal(t, proto.HTTP10, e.Version())

	e.Response.Version = proto.HTTP11
	require.Equal(t, proto.HTTP11, e.Version())
}
