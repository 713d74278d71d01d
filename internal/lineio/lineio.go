// Package lineio reads newline-delimited job input one line at a time. It
// lives under internal because callers should treat it as an iteration
// detail of the dispatcher, not a public streaming API.
package lineio

import (
	"bufio"
	"io"
	"strings"
)

// Reader yields input lines with terminators stripped. Lines grow as needed;
// there is no fixed length limit.
type Reader struct {
	in  *bufio.Reader
	err error
}

// New returns a reader over the given stream.
func New(in io.Reader) *Reader {
	return &Reader{in: bufio.NewReader(in)}
}

// Next returns the next line and true, or "" and false once the stream is
// exhausted. The trailing newline is stripped, as is a carriage return
// preceding it. A final line without a terminator is still returned.
func (r *Reader) Next() (string, bool) {
	if r.err != nil {
		return "", false
	}
	line, err := r.in.ReadString('\n')
	if err != nil {
		r.err = err
		if err == io.EOF && line != "" {
			return line, true
		}
		return "", false
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, true
}

// Err reports the first non-EOF read error, if any.
func (r *Reader) Err() error {
	if r.err == io.EOF {
		return nil
	}
	return r.err
}
