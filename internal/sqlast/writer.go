package sqlast

import (
	"strings"

	"github.com/roach88/liftsql/internal/meta"
)

// Default newline and indent strings.
const (
	DefaultNewline = "\n"
	DefaultIndent  = "\t"
)

// Writer accumulates SQL text. The zero value is not usable; call NewWriter.
type Writer struct {
	sb      strings.Builder
	dialect meta.Dialect
	newline string
	indent  string
	depth   int
}

// Option configures a Writer.
type Option func(*Writer)

// WithNewline sets the line separator.
func WithNewline(s string) Option {
	return func(w *Writer) { w.newline = s }
}

// WithIndent sets the string written once per indent level.
func WithIndent(s string) Option {
	return func(w *Writer) { w.indent = s }
}

// NewWriter creates a writer that formats through d. A nil dialect
// selects meta.Plain.
func NewWriter(d meta.Dialect, opts ...Option) *Writer {
	if d == nil {
		d = meta.Plain
	}
	w := &Writer{
		dialect: d,
		newline: DefaultNewline,
		indent:  DefaultIndent,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Dialect returns the dialect nodes format through.
func (w *Writer) Dialect() meta.Dialect {
	return w.dialect
}

// Append writes s verbatim.
func (w *Writer) Append(s string) *Writer {
	w.sb.WriteString(s)
	return w
}

// AppendRune writes a single character.
func (w *Writer) AppendRune(r rune) *Writer {
	w.sb.WriteRune(r)
	return w
}

// Indent increases the depth used by subsequent NewLine calls.
func (w *Writer) Indent() *Writer {
	w.depth++
	return w
}

// Outdent decreases the depth. It is not clamped at zero.
func (w *Writer) Outdent() *Writer {
	w.depth--
	return w
}

// Depth returns the current indent depth.
func (w *Writer) Depth() int {
	return w.depth
}

// NewLine writes the newline followed by one indent string per level.
func (w *Writer) NewLine() *Writer {
	w.sb.WriteString(w.newline)
	for i := 0; i < w.depth; i++ {
		w.sb.WriteString(w.indent)
	}
	return w
}

// NewLineAppend is NewLine followed by Append(s).
func (w *Writer) NewLineAppend(s string) *Writer {
	return w.NewLine().Append(s)
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return w.sb.Len()
}

// String returns the accumulated text.
func (w *Writer) String() string {
	return w.sb.String()
}
