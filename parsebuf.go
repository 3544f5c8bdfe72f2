package sqleval

import (
	"strings"
)

// parsebuf is a string reader with helpers for the hand-written SQL
// tokenizer.
type parsebuf struct {
	pos int
	str string
}

func newParsebuf(s string) *parsebuf {
	return &parsebuf{0, s}
}

// more returns true if there are more characters to read.
func (b *parsebuf) more() bool {
	return b.pos < len(b.str)
}

// get reads one byte. Returns empty string at the end.
func (b *parsebuf) get() string {
	if !b.more() {
		return ""
	}
	s := b.str[b.pos : b.pos+1]
	b.pos++
	return s
}

// peek returns what get would return, without reading it.
func (b *parsebuf) peek() string {
	return b.peekAt(0)
}

// peekAt returns the byte n positions ahead.
func (b *parsebuf) peekAt(n int) string {
	if b.pos+n >= len(b.str) {
		return ""
	}
	return b.str[b.pos+n : b.pos+n+1]
}

// set reads a sequence of characters from the given set.
func (b *parsebuf) set(allowed string) string {
	start := b.pos
	for b.more() && strings.Contains(allowed, b.peek()) {
		b.pos++
	}
	return b.str[start:b.pos]
}

func (b *parsebuf) space() string {
	return b.set(" \n\r\t")
}

// literal reads the given string and returns true if it was there.
func (b *parsebuf) literal(s string) bool {
	if !strings.HasPrefix(b.str[b.pos:], s) {
		return false
	}
	b.pos += len(s)
	return true
}

// position returns the 1-based line and column of the read cursor.
func (b *parsebuf) position() (line, col int) {
	done := b.str[:b.pos]
	line = strings.Count(done, "\n") + 1
	col = b.pos - strings.LastIndex(done, "\n")
	return line, col
}
