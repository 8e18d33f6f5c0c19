// Package textscan provides a position cursor over in-memory text for
// hand-written recursive-descent parsers.
//
// The cursor never consumes input speculatively: lookahead methods such as
// [Cursor.PeekAfterLineBreak] inspect the text without moving, and explicit
// backtracking uses [Cursor.Mark] and [Cursor.Reset].
//
// Both "\n" and "\r\n" count as a single line break. A lone "\r" is an
// ordinary character.
package textscan

import "strings"

// Cursor is a read position in a string. The zero value is not usable; call New.
type Cursor struct {
	src  string
	pos  int
	line int
}

// Mark is a saved cursor position.
type Mark struct {
	pos  int
	line int
}

// New returns a cursor at the start of src.
func New(src string) *Cursor {
	return &Cursor{src: src, line: 1}
}

// Pos returns the byte offset of the cursor.
func (c *Cursor) Pos() int { return c.pos }

// Line returns the 1-based line number of the cursor.
func (c *Cursor) Line() int { return c.line }

// EOF reports whether the cursor is at the end of input.
func (c *Cursor) EOF() bool { return c.pos >= len(c.src) }

// Peek returns the byte under the cursor.
func (c *Cursor) Peek() (byte, bool) {
	if c.EOF() {
		return 0, false
	}
	return c.src[c.pos], true
}

// Rest returns the unconsumed input.
func (c *Cursor) Rest() string { return c.src[c.pos:] }

// Mark saves the current position.
func (c *Cursor) Mark() Mark { return Mark{pos: c.pos, line: c.line} }

// Reset returns the cursor to a saved position.
func (c *Cursor) Reset(m Mark) {
	c.pos = m.pos
	c.line = m.line
}

// lineBreakAt returns the length of the line break starting at i (0, 1 or 2).
func (c *Cursor) lineBreakAt(i int) int {
	switch {
	case i >= len(c.src):
		return 0
	case c.src[i] == '\n':
		return 1
	case c.src[i] == '\r' && i+1 < len(c.src) && c.src[i+1] == '\n':
		return 2
	}
	return 0
}

// AtLineBreak reports whether a line break starts at the cursor.
func (c *Cursor) AtLineBreak() bool { return c.lineBreakAt(c.pos) > 0 }

// SkipLineBreak consumes one line break and reports whether there was one.
func (c *Cursor) SkipLineBreak() bool {
	n := c.lineBreakAt(c.pos)
	if n == 0 {
		return false
	}
	c.pos += n
	c.line++
	return true
}

// PeekAfterLineBreak looks past the line break at the cursor and returns the
// first byte of the next line without consuming anything. It returns false if
// the cursor is not at a line break or the break is the last thing in the input.
func (c *Cursor) PeekAfterLineBreak() (byte, bool) {
	n := c.lineBreakAt(c.pos)
	if n == 0 || c.pos+n >= len(c.src) {
		return 0, false
	}
	return c.src[c.pos+n], true
}

// lineEnd returns the offset of the next line break or end of input.
func (c *Cursor) lineEnd() int {
	for i := c.pos; i < len(c.src); i++ {
		if c.lineBreakAt(i) > 0 {
			return i
		}
	}
	return len(c.src)
}

// IndexOnLine returns the offset from the cursor of the first b before the
// next line break, or -1.
func (c *Cursor) IndexOnLine(b byte) int {
	return strings.IndexByte(c.src[c.pos:c.lineEnd()], b)
}

// RestOfLine returns the text up to the next line break without consuming it.
func (c *Cursor) RestOfLine() string { return c.src[c.pos:c.lineEnd()] }

// TakeUntilLineBreak consumes and returns the text up to, not including, the
// next line break.
func (c *Cursor) TakeUntilLineBreak() string {
	end := c.lineEnd()
	s := c.src[c.pos:end]
	c.pos = end
	return s
}

// Take consumes n bytes on the current line and returns them. It never moves
// past a line break.
func (c *Cursor) Take(n int) string {
	end := min(c.pos+n, c.lineEnd())
	s := c.src[c.pos:end]
	c.pos = end
	return s
}

// Skip consumes n bytes on the current line.
func (c *Cursor) Skip(n int) { c.Take(n) }

// SkipSpaceTab consumes spaces and tabs. Line breaks are not skipped.
func (c *Cursor) SkipSpaceTab() {
	for c.pos < len(c.src) && (c.src[c.pos] == ' ' || c.src[c.pos] == '\t') {
		c.pos++
	}
}

// OnlyLineBreaksRemain reports whether the rest of the input consists of line
// breaks alone.
func (c *Cursor) OnlyLineBreaksRemain() bool {
	for i := c.pos; i < len(c.src); {
		n := c.lineBreakAt(i)
		if n == 0 {
			return false
		}
		i += n
	}
	return true
}

// SkipAll consumes the rest of the input, counting line breaks.
func (c *Cursor) SkipAll() {
	for !c.EOF() {
		if !c.SkipLineBreak() {
			c.pos++
		}
	}
}
