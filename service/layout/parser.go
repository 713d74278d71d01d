// Package layout parses the slot layout text that sizes and places a run's
// execution slots, e.g. "4" or "2*alpha:/srv/work,beta,:/tmp".
package layout

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/viant/forkly/model/slot"
	"github.com/viant/parsly"
)

// ParseError describes a malformed layout entry. It is raised before any job
// is dispatched and maps to the usage exit status.
type ParseError struct {
	Entry   string
	Ordinal int
	Offset  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid slot layout entry %q (#%d): %s at offset %d", e.Entry, e.Ordinal+1, e.Message, e.Offset)
}

// userHomeFunc resolves the invoking user's home directory. Override in tests.
var userHomeFunc = os.UserHomeDir

// Parse expands a slot layout into ordered slot descriptors. Entry order is
// preserved into descriptor order, which is the dispatch priority. An empty
// layout yields Default().
func Parse(text string) ([]slot.Descriptor, error) {
	if strings.TrimSpace(text) == "" {
		return Default(), nil
	}
	var descriptors []slot.Descriptor
	entries := strings.Split(text, ",")
	for ordinal, raw := range entries {
		entry := strings.TrimSpace(raw)
		count, desc, err := parseEntry(entry, ordinal)
		if err != nil {
			return nil, err
		}
		for i := 0; i < count; i++ {
			descriptors = append(descriptors, desc)
		}
	}
	return descriptors, nil
}

// Default returns one local slot per available processing unit, minimum one.
func Default() []slot.Descriptor {
	n := runtime.NumCPU()
	if n < 1 {
		n = 1
	}
	descriptors := make([]slot.Descriptor, n)
	for i := range descriptors {
		descriptors[i] = slot.Descriptor{Kind: slot.KindLocal}
	}
	return descriptors
}

// parseEntry parses a single entry of the form [count '*'] [host][':'workdir].
func parseEntry(entry string, ordinal int) (int, slot.Descriptor, error) {
	var desc slot.Descriptor
	if entry == "" {
		return 0, desc, &ParseError{Entry: entry, Ordinal: ordinal, Message: "empty entry"}
	}
	cursor := parsly.NewCursor("", []byte(entry), 0)
	count := 1

	// Optional multiplier: digits immediately followed by '*'.
	matched := cursor.MatchOne(countToken)
	hasStar := matched.Code == countToken.Code
	if hasStar {
		text := matched.Text(cursor)
		value, err := strconv.Atoi(strings.TrimSuffix(text, "*"))
		if err != nil || value < 1 {
			return 0, desc, &ParseError{Entry: entry, Ordinal: ordinal, Message: "count must be a positive integer"}
		}
		count = value
	}

	// Host name, possibly absent.
	host := ""
	matched = cursor.MatchOne(hostToken)
	if matched.Code == hostToken.Code {
		host = matched.Text(cursor)
	}

	// A bare integer with no '*' and nothing after it is a count of local
	// slots, not a host.
	if !hasStar && host != "" && allDigits(host) && !cursor.HasMore() {
		value, err := strconv.Atoi(host)
		if err != nil || value < 1 {
			return 0, desc, &ParseError{Entry: entry, Ordinal: ordinal, Message: "count must be a positive integer"}
		}
		desc.Kind = slot.KindLocal
		return value, desc, nil
	}

	// Optional working directory.
	workdir := ""
	matched = cursor.MatchOne(colonToken)
	if matched.Code == colonToken.Code {
		matched = cursor.MatchOne(workdirToken)
		if matched.Code != workdirToken.Code {
			return 0, desc, &ParseError{Entry: entry, Ordinal: ordinal, Offset: cursor.Pos, Message: "unterminated entry: missing working directory after ':'"}
		}
		workdir = matched.Text(cursor)
	}

	if cursor.HasMore() {
		return 0, desc, &ParseError{Entry: entry, Ordinal: ordinal, Offset: cursor.Pos, Message: fmt.Sprintf("unexpected character %q", entry[cursor.Pos])}
	}

	switch host {
	case "", "localhost", "-":
		desc.Kind = slot.KindLocal
		desc.Host = ""
	default:
		desc.Kind = slot.KindRemote
		desc.Host = host
	}
	if desc.Kind == slot.KindLocal && workdir != "" {
		expanded, err := expandHome(workdir)
		if err != nil {
			return 0, desc, &ParseError{Entry: entry, Ordinal: ordinal, Message: fmt.Sprintf("cannot expand %q: %v", workdir, err)}
		}
		workdir = expanded
	}
	desc.WorkingDir = workdir
	return count, desc, nil
}

// expandHome resolves a leading "~" against the invoking user's home
// directory. "~user" forms are left as given.
func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := userHomeFunc()
	if err != nil {
		return "", err
	}
	if path == "~" {
		return home, nil
	}
	return home + path[1:], nil
}

func allDigits(text string) bool {
	for i := 0; i < len(text); i++ {
		if !isDigit(text[i]) {
			return false
		}
	}
	return len(text) > 0
}
