package cookie

import "strings"

// Jar holds key-value pairs of a Cookie header, or the attributes of a Set-Cookie one.
type Jar map[string]string

// ParseAttributes splits a semicolon-delimited list of key=value pairs. Keys without a value (like
// Secure) are stored with an empty one, values wrapped in double quotes are unquoted.
// Later duplicates override earlier ones.
func ParseAttributes(data string) Jar {
	jar := make(Jar)

	for len(data) > 0 {
		var pair string
		if semicolon := strings.IndexByte(data, ';'); semicolon != -1 {
			pair, data = data[:semicolon], data[semicolon+1:]
		} else {
			pair, data = data, ""
		}

		key, value, _ := strings.Cut(pair, "=")
		if key = strings.TrimSpace(key); len(key) == 0 {
			continue
		}

		jar[key] = unquote(strings.TrimSpace(value))
	}

	return jar
}

func unquote(value string) string {
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		return value[1 : len(value)-1]
	}

	return value
}
