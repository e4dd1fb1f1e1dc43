package executor

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// captureBuffer accumulates everything a snippet writes through print and
// console bindings. The snippet never touches the real process streams, so
// there is nothing to restore after a run.
type captureBuffer struct {
	buf bytes.Buffer
}

func (b *captureBuffer) Write(p []byte) (int, error) {
	return b.buf.Write(p)
}

func (b *captureBuffer) WriteString(s string) (int, error) {
	return b.buf.WriteString(s)
}

// writeLine joins the parts with single spaces and appends a newline,
// matching the conventional print contract snippets code against.
func (b *captureBuffer) writeLine(parts ...string) {
	b.buf.WriteString(strings.Join(parts, " "))
	b.buf.WriteByte('\n')
}

// String returns the captured text normalized to valid UTF-8. Snippet output
// must never be able to break the reporting path downstream.
func (b *captureBuffer) String() string {
	return sanitizeUTF8(b.buf.String())
}

func (b *captureBuffer) Len() int {
	return b.buf.Len()
}

// sanitizeUTF8 replaces ill-formed byte sequences with U+FFFD.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	out, _, err := transform.String(runes.ReplaceIllFormed(), s)
	if err != nil {
		return strings.ToValidUTF8(s, string(utf8.RuneError))
	}
	return out
}
