package launcher

import "strings"

// Escape quotes a single word for transport through a remote shell command
// line. Alphanumerics plus '_', '-', '/' and '.' pass through untouched;
// every other byte is backslash-escaped so the remote shell reads it
// literally. An empty word becomes '' so it survives as a distinct argument.
func Escape(word string) string {
	if word == "" {
		return "''"
	}
	var b strings.Builder
	b.Grow(len(word))
	for i := 0; i < len(word); i++ {
		c := word[i]
		if isSafeByte(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('\\')
		b.WriteByte(c)
	}
	return b.String()
}

func isSafeByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '_' || c == '-' || c == '/' || c == '.':
		return true
	}
	return false
}
