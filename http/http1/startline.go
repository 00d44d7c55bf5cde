package http1

import (
	"bytes"

	"github.com/indigo-web/duplex/config"
	"github.com/indigo-web/duplex/http/headers"
	"go.uber.org/zap"
)

var crlf = []byte("\r\n")

// emptyElement marks an empty last start-line element, so it can be told apart from a
// one not read yet.
const emptyElement = "_"

// readStartElement reads a space-terminated start-line token into dst, unless it was
// already read.
func (s *Session) readStartElement(dst *string, bounds config.Bounds, what string) Outcome {
	if len(*dst) > 0 {
		return Done
	}

	in := s.layer.In()
	data := in.Bytes()
	eol := bytes.Index(data, crlf)
	sp := bytes.IndexByte(data, ' ')

	switch {
	case sp == -1 && eol == -1:
		if len(data) > bounds.Max {
			return s.readViolation(what+" is too long", zap.Int("max", bounds.Max))
		}

		return Pending
	case sp == -1 || (eol != -1 && eol < sp):
		return s.readViolation(what + " is missing")
	case sp > bounds.Max:
		return s.readViolation(what+" is too long", zap.Int("max", bounds.Max))
	case sp < bounds.Min:
		return s.readViolation(what+" is too short", zap.Int("min", bounds.Min))
	}

	value := headers.NormalizeValue(string(data[:sp]))
	if len(value) == 0 {
		return s.readViolation(what + " is empty")
	}

	*dst = value
	in.Discard(sp + 1)
	return Done
}

// readStartLast reads the CRLF-terminated last start-line token into dst, unless it was
// already read. An empty token is stored as emptyElement.
func (s *Session) readStartLast(dst *string, max int, what string) Outcome {
	if len(*dst) > 0 {
		return Done
	}

	in := s.layer.In()
	data := in.Bytes()
	eol := bytes.Index(data, crlf)

	switch {
	case eol == -1:
		// the CR might already be there, waiting for its LF
		if len(data) > max+1 {
			return s.readViolation(what+" is too long", zap.Int("max", max))
		}

		return Pending
	case eol > max:
		return s.readViolation(what+" is too long", zap.Int("max", max))
	}

	*dst = headers.NormalizeValue(string(data[:eol]))
	if len(*dst) == 0 {
		*dst = emptyElement
	}

	in.Discard(eol + len(crlf))
	return Done
}

func (s *Session) readRequestLine() Outcome {
	req, bounds := s.exchange.Request, s.cfg.HTTP.RequestLine

	if o := s.readStartElement(&req.Method, bounds.Method, "request method"); o != Done {
		return o
	}

	if o := s.readStartElement(&req.URI, bounds.URI, "request URI"); o != Done {
		return o
	}

	return s.readStartLast(&req.Version, bounds.Version.Max, "request version")
}

func (s *Session) readStatusLine() Outcome {
	resp, bounds := s.exchange.Response, s.cfg.HTTP.StatusLine

	if o := s.readStartElement(&resp.Version, bounds.Version, "response version"); o != Done {
		return o
	}

	if o := s.readStartElement(&resp.Code, bounds.Code, "response code"); o != Done {
		return o
	}

	for i := 0; i < len(resp.Code); i++ {
		if resp.Code[i] < '0' || resp.Code[i] > '9' {
			return s.readViolation("response code is malformed", zap.String("code", resp.Code))
		}
	}

	return s.readStartLast(&resp.Message, bounds.Message.Max, "response message")
}

// writeStartLine appends the whole start line at once, or nothing.
func (s *Session) writeStartLine() Outcome {
	if s.w.line {
		return Done
	}

	var (
		first, second, last string
		a, b                config.Bounds
		maxLast             int
		what                [3]string
	)

	if s.server {
		resp, bounds := s.exchange.Response, s.cfg.HTTP.StatusLine
		first, second, last = resp.Version, resp.Code, resp.Message
		a, b, maxLast = bounds.Version, bounds.Code, bounds.Message.Max
		what = [3]string{"response version", "response code", "response message"}
	} else {
		req, bounds := s.exchange.Request, s.cfg.HTTP.RequestLine
		first, second, last = req.Method, req.URI, req.Version
		a, b, maxLast = bounds.Method, bounds.URI, bounds.Version.Max
		what = [3]string{"request method", "request URI", "request version"}
	}

	switch {
	case len(first) < a.Min || len(first) > a.Max:
		return s.writeViolation(what[0]+" is out of bounds", zap.Int("length", len(first)))
	case len(second) < b.Min || len(second) > b.Max:
		return s.writeViolation(what[1]+" is out of bounds", zap.Int("length", len(second)))
	case len(last) > maxLast:
		return s.writeViolation(what[2]+" is too long", zap.Int("length", len(last)))
	}

	if o := s.appendOut(first, " ", second, " ", last, "\r\n"); o != Done {
		return o
	}

	s.w.line = true
	return Done
}

// appendOut appends all the pieces to the outbound accumulator, or nothing at all if
// they don't fit.
func (s *Session) appendOut(pieces ...string) Outcome {
	size := 0
	for _, piece := range pieces {
		size += len(piece)
	}

	out := s.layer.Out()
	if size > out.Free() {
		if out.Len() == 0 {
			return s.writeViolation("line exceeds the outbound accumulator", zap.Int("length", size))
		}

		return Pending
	}

	for _, piece := range pieces {
		out.AppendString(piece)
	}

	return Done
}
