package http1

import (
	"bytes"
	"strings"

	"github.com/indigo-web/duplex/http/headers"
	"go.uber.org/zap"
)

// readHeaders consumes header lines until the empty one. Lines are consumed one by one,
// so a Pending outcome never loses the headers read so far.
func (s *Session) readHeaders(hdrs *headers.Headers) Outcome {
	in := s.layer.In()
	maxLine, nameBounds := s.cfg.HTTP.HeaderLine, s.cfg.HTTP.HeaderName

	for {
		data := in.Bytes()
		eol := bytes.Index(data, crlf)

		switch {
		case eol == -1:
			if len(data) > maxLine+1 {
				return s.readViolation("header line is too long", zap.Int("max", maxLine))
			}

			return Pending
		case eol == 0:
			in.Discard(len(crlf))
			return Done
		case eol > maxLine:
			return s.readViolation("header line is too long", zap.Int("max", maxLine))
		}

		line := data[:eol]
		colon := bytes.IndexByte(line, ':')

		switch {
		case colon == -1:
			return s.readViolation("header name is missing")
		case colon > nameBounds.Max:
			return s.readViolation("header name is too long", zap.Int("max", nameBounds.Max))
		case colon < nameBounds.Min:
			return s.readViolation("header name is too short", zap.Int("min", nameBounds.Min))
		}

		name := headers.NormalizeName(string(line[:colon]))
		value := string(line[colon+1:])

		switch policy := s.tables.Policies.Lookup(name); {
		case policy.Multiple && policy.Split:
			for {
				comma := strings.IndexByte(value, ',')
				if comma == -1 {
					break
				}

				hdrs.Add(name, value[:comma])
				value = value[comma+1:]
			}

			hdrs.Add(name, value)
		case policy.Multiple, !hdrs.Has(name):
			hdrs.Add(name, value)
		}

		in.Discard(eol + len(crlf))
	}
}

// writeHeaders drains the header names in lexical order, one entry per call of
// appendHeader. An entry that doesn't fit is retried as a whole, and so is the blank
// line terminating the block.
func (s *Session) writeHeaders(hdrs *headers.Headers) Outcome {
	if s.w.names == nil {
		s.w.names = hdrs.Sorted()
	}

	for ; s.w.next < len(s.w.names); s.w.next++ {
		if o := s.appendHeader(s.w.names[s.w.next], hdrs.Values(s.w.names[s.w.next])); o != Done {
			return o
		}
	}

	if !s.w.terminated {
		if o := s.appendOut("\r\n"); o != Done {
			return o
		}

		s.w.terminated = true
	}

	return Done
}

func (s *Session) appendHeader(name string, values []string) Outcome {
	if len(values) == 0 {
		return Done
	}

	bounds, maxLine := s.cfg.HTTP.HeaderName, s.cfg.HTTP.HeaderLine
	if len(name) < bounds.Min || len(name) > bounds.Max {
		return s.writeViolation("header name is out of bounds", zap.String("name", name))
	}

	policy := s.tables.Policies.Lookup(name)
	if !policy.Multiple {
		values = values[:1]
	}

	pieces := s.w.pieces[:0]
	if policy.MultiLine {
		for _, value := range values {
			if len(name)+len(": ")+len(value) > maxLine {
				return s.writeViolation("header line is too long", zap.String("name", name))
			}

			pieces = append(pieces, name, ": ", value, "\r\n")
		}
	} else {
		length := len(name) + len(": ")
		pieces = append(pieces, name, ": ")
		for i, value := range values {
			if i > 0 {
				pieces = append(pieces, ",")
				length++
			}

			pieces = append(pieces, value)
			length += len(value)
		}

		if length > maxLine {
			return s.writeViolation("header line is too long", zap.String("name", name))
		}

		pieces = append(pieces, "\r\n")
	}

	s.w.pieces = pieces
	return s.appendOut(pieces...)
}
