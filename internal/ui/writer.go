package ui

import (
	"io"

	"github.com/a-h/templ"
)

// Writer emits markup and keeps the first write error, so components can
// write a sequence of fragments and check once at the end.
type Writer struct {
	w   io.Writer
	err error
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Raw writes s unescaped.
func (h *Writer) Raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

// Text writes s escaped for use in element content or a quoted attribute.
func (h *Writer) Text(s string) {
	h.Raw(templ.EscapeString(s))
}

// Err returns the first error seen.
func (h *Writer) Err() error {
	return h.err
}
