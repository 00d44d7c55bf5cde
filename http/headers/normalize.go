package headers

import (
	"github.com/indigo-web/utils/uf"
)

// NormalizeName lower-cases ASCII letters and replaces every non-ASCII byte by an
// underscore. The input is returned as is if it is already normalized.
func NormalizeName(name string) string {
	for i := 0; i < len(name); i++ {
		if c := name[i]; c >= 0x80 || ('A' <= c && c <= 'Z') {
			return normalizeName(name, i)
		}
	}

	return name
}

func normalizeName(name string, from int) string {
	buff := make([]byte, len(name))
	copy(buff, name[:from])

	for i := from; i < len(name); i++ {
		switch c := name[i]; {
		case c >= 0x80:
			buff[i] = '_'
		case 'A' <= c && c <= 'Z':
			buff[i] = c | 0x20
		default:
			buff[i] = c
		}
	}

	return uf.B2S(buff)
}

// NormalizeValue replaces every non-ASCII byte by an underscore and trims leading and
// trailing whitespace.
func NormalizeValue(value string) string {
	value = trim(value)

	for i := 0; i < len(value); i++ {
		if value[i] >= 0x80 {
			buff := []byte(value)
			for j := i; j < len(buff); j++ {
				if buff[j] >= 0x80 {
					buff[j] = '_'
				}
			}

			return uf.B2S(buff)
		}
	}

	return value
}

func trim(s string) string {
	for len(s) > 0 && isSpace(s[0]) {
		s = s[1:]
	}

	for len(s) > 0 && isSpace(s[len(s)-1]) {
		s = s[:len(s)-1]
	}

	return s
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	default:
		return false
	}
}
