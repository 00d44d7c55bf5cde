package http1

import (
	"io"
	"strconv"

	"github.com/indigo-web/chunkedbody"
	"github.com/indigo-web/duplex/http/headers"
	"github.com/indigo-web/duplex/http/method"
	"github.com/indigo-web/utils/strcomp"
	"go.uber.org/zap"
)

// ContentLength returns the declared body length. Absent, malformed and negative
// values are all 0.
func ContentLength(hdrs *headers.Headers) int {
	value := hdrs.Value("content-length")
	if len(value) == 0 {
		return 0
	}

	length, err := strconv.Atoi(value)
	if err != nil || length < 0 {
		return 0
	}

	return length
}

// chunked reports whether chunked is the final transfer coding.
func chunked(hdrs *headers.Headers) bool {
	codings := hdrs.Values("transfer-encoding")
	return len(codings) > 0 && strcomp.EqualFold(codings[len(codings)-1], "chunked")
}

// setContentLength declares the size of the outbound body. A zero size omits the
// header, unless the server is answering an OPTIONS request.
func (s *Session) setContentLength(hdrs *headers.Headers, size int) {
	hdrs.Del("transfer-encoding")

	switch {
	case size > 0:
		hdrs.Set("content-length", strconv.Itoa(size))
	case s.server && s.exchange.Request.Method == method.OPTIONS:
		hdrs.Set("content-length", "0")
	default:
		hdrs.Del("content-length")
	}
}

// betweenRead settles the body framing of the inbound message.
func (s *Session) betweenRead() Outcome {
	hdrs, body, length := s.inbound()
	*body = nil
	s.parser = nil

	if chunked(hdrs) {
		s.parser = chunkedbody.NewParser(chunkedbody.DefaultSettings())
		*length = 0
		return Done
	}

	*length = ContentLength(hdrs)
	if *length > s.cfg.HTTP.MaxBodySize {
		return s.readViolation("body is too large", zap.Int("length", *length))
	}

	return Done
}

func (s *Session) readBody() Outcome {
	if s.parser != nil {
		return s.readChunkedBody()
	}

	_, body, length := s.inbound()
	in := s.layer.In()

	if need := *length - len(*body); need > 0 {
		n := min(need, in.Len())
		*body = append(*body, in.Bytes()[:n]...)
		in.Discard(n)
	}

	if len(*body) == *length {
		return Done
	}

	return Pending
}

func (s *Session) readChunkedBody() Outcome {
	_, body, length := s.inbound()
	in := s.layer.In()

	for in.Len() > 0 {
		data := in.Bytes()
		chunk, extra, err := s.parser.Parse(data, false)
		*body = append(*body, chunk...)
		in.Discard(len(data) - len(extra))

		if len(*body) > s.cfg.HTTP.MaxBodySize {
			return s.readViolation("body is too large", zap.Int("length", len(*body)))
		}

		switch err {
		case nil:
		case io.EOF:
			*length = len(*body)
			s.parser = nil
			return Done
		default:
			return s.readViolation("malformed chunked body", zap.Error(err))
		}

		if len(extra) == len(data) {
			break
		}
	}

	return Pending
}

// writeBody moves as much of the outbound body into the accumulator as fits.
func (s *Session) writeBody() Outcome {
	body := s.outboundBody()
	out := s.layer.Out()

	if rest := body[s.w.body:]; len(rest) > 0 {
		n := min(len(rest), out.Free())
		out.Append(rest[:n])
		s.w.body += n
	}

	if s.w.body == len(body) {
		return Done
	}

	return Pending
}
