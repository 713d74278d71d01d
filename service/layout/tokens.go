package layout

import (
	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

// Token codes (arbitrary but unique; start at 1 to avoid clash with parsly.EOF).
const (
	countCode = iota + 1
	hostCode
	colonCode
	workdirCode
)

// Token definitions
var (
	countToken   = parsly.NewToken(countCode, "Count", newCountMatcher())
	hostToken    = parsly.NewToken(hostCode, "Host", newHostMatcher())
	colonToken   = parsly.NewToken(colonCode, ":", matcher.NewByte(':'))
	workdirToken = parsly.NewToken(workdirCode, "WorkingDir", newWorkdirMatcher())
)

// Custom matchers
func newCountMatcher() parsly.Matcher {
	return &countMatcher{}
}

func newHostMatcher() parsly.Matcher {
	return &hostMatcher{}
}

func newWorkdirMatcher() parsly.Matcher {
	return &workdirMatcher{}
}

// countMatcher matches a slot multiplier: digits immediately followed by '*',
// consumed as one token so no backtracking is needed when the digits turn out
// to be a host or a bare count instead.
type countMatcher struct{}

func (m *countMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize

	if pos >= size {
		return 0
	}

	matched := 0
	for i := pos; i < size; i++ {
		if !isDigit(input[i]) {
			break
		}
		matched++
	}
	if matched == 0 {
		return 0
	}
	if pos+matched >= size || input[pos+matched] != '*' {
		return 0
	}
	return matched + 1
}

// hostMatcher matches a host name: alphanumeric plus '-', '.' and '@'
type hostMatcher struct{}

func (m *hostMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize

	if pos >= size {
		return 0
	}

	matched := 0
	for i := pos; i < size; i++ {
		c := input[i]
		if isLetter(c) || isDigit(c) || c == '-' || c == '.' || c == '@' {
			matched++
			continue
		}
		break
	}
	return matched
}

// workdirMatcher matches a working directory: everything to end of entry
type workdirMatcher struct{}

func (m *workdirMatcher) Match(cursor *parsly.Cursor) int {
	return cursor.InputSize - cursor.Pos
}

// Helper functions
func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
