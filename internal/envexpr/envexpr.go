// Package envexpr expands ${env.KEY} references in configuration values.
package envexpr

import (
	"os"
	"strings"
	"unicode"
)

const prefix = "${env."

// Expand replaces every ${env.KEY} in the input with the value of the
// environment variable KEY, or "" when unset. A reference with an invalid
// key keeps its prefix as literal text; the remainder is still scanned.
func Expand(value string) string {
	if !strings.Contains(value, prefix) {
		return value
	}
	var out strings.Builder
	rest := value
	for {
		idx := strings.Index(rest, prefix)
		if idx < 0 {
			out.WriteString(rest)
			return out.String()
		}
		out.WriteString(rest[:idx])
		tail := rest[idx+len(prefix):]
		end := strings.IndexByte(tail, '}')
		if end < 0 {
			out.WriteString(rest[idx:])
			return out.String()
		}
		key := tail[:end]
		if !validKey(key) {
			out.WriteString(rest[idx : idx+len(prefix)])
			rest = tail
			continue
		}
		out.WriteString(os.Getenv(key))
		rest = tail[end+1:]
	}
}

// validKey accepts letters, digits and '_'; the empty key is allowed and
// expands to nothing.
func validKey(key string) bool {
	for _, r := range key {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}
