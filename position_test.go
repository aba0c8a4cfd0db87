package lxml

import (
	"io"
	"strings"
	"testing"

	"github.com/tdewolff/test"
)

func TestPosition(t *testing.T) {
	positionTests := []struct {
		input  string
		offset uint64
		line   int
		col    int
	}{
		{"x", 0, 1, 1},
		{"xx", 1, 1, 2},
		{"hello\nworld", 6, 2, 1},
		{"hello\nworld", 8, 2, 3},
		{"one\r\ntwo\r\nthree", 10, 3, 1},
		{"a\rb", 2, 2, 1},
		{"日本語x", 9, 1, 4}, // columns count scalars
	}
	for _, tt := range positionTests {
		line, col, context, err := Position(strings.NewReader(tt.input), tt.offset)
		test.Error(t, err, nil, "in", tt.input)
		test.That(t, line == tt.line, "line must match for offset", tt.offset, "in", tt.input)
		test.That(t, col == tt.col, "column must match for offset", tt.offset, "in", tt.input)
		test.That(t, len(context) > 0, "context is produced")
	}
}

func TestPositionContext(t *testing.T) {
	line, col, context, err := Position(strings.NewReader("hello\nworld\n"), 8)
	test.Error(t, err, nil)
	test.That(t, line == 2 && col == 3, "position of 'r' in world")
	test.That(t, strings.Contains(context, "world"), "context holds the offending line")
	test.That(t, strings.Contains(context, "^"), "context carries the caret")
}

func TestPositionPastEOF(t *testing.T) {
	_, _, _, err := Position(strings.NewReader("short"), 100)
	test.That(t, err == io.EOF, "offset past the end reports io.EOF")
}
