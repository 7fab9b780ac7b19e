// reader.go provides byte-at-a-time input with line/column tracking and a
// one-byte pushback, used by the parser to scan False source one character
// at a time the way the reference lexer's l_getchar did.

package frontend

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// reader scans a False source string byte by byte, tracking the current
// line and column for diagnostics.
type reader struct {
	src    string // Full source text.
	pos    int    // Byte offset of the next unread byte.
	line   int    // Current line, starts at 1.
	column int    // Current column, starts at 0, reset on newline.

	pending  byte // Pushed-back byte, valid when hasPending is true.
	hasPending bool
}

// ---------------------
// ----- Constants -----
// ---------------------

// eof is returned by next once the reader has consumed the whole
// source string.
const eof = -1

// ---------------------
// ----- functions -----
// ---------------------

// newReader returns a reader positioned at the start of src, at line 1,
// column 0.
func newReader(src string) *reader {
	return &reader{src: src, line: 1, column: 0}
}

// next consumes and returns the next byte of source as an int, or eof once
// the source is exhausted. Line/column bookkeeping mirrors l_getchar:
// column increments per byte, and resets to 0 while line increments on '\n'.
func (r *reader) next() int {
	var b byte
	if r.hasPending {
		b = r.pending
		r.hasPending = false
	} else {
		if r.pos >= len(r.src) {
			return eof
		}
		b = r.src[r.pos]
		r.pos++
	}

	if b == '\n' {
		r.line++
		r.column = 0
	} else {
		r.column++
	}
	return int(b)
}

// unget pushes back a single byte so the next call to next returns it
// again. It must only be called once between calls to next. The parser does
// not call it: its numeric-literal lookahead re-dispatches the byte it has
// already read instead of pushing it back.
func (r *reader) unget(b int) {
	r.pending = byte(b)
	r.hasPending = true
	if b == '\n' {
		r.line--
	} else {
		r.column--
	}
}

// position returns the reader's current line and column, for attaching to
// diagnostics and to a freshly allocated child Lambda.
func (r *reader) position() (line, column int) {
	return r.line, r.column
}

// uncountByte folds a byte that was read but should not count as its own
// column back into the previous one. Used for the UTF-8 lead-byte dispatch
// (spec §4.5), where a 2-byte sequence must advance the column once, not
// twice, before the second byte is reparsed as its translated primitive.
func (r *reader) uncountByte() {
	r.column--
}
