package buffer

import (
	"strings"
	"testing"
	"testing/iotest"

	"github.com/tdewolff/test"
)

func TestNewStreamErrors(t *testing.T) {
	_, err := NewStream(strings.NewReader(""), 0)
	test.That(t, err == ErrZeroBufferSize, "zero size is rejected")

	_, err = NewStream(strings.NewReader(""), 3)
	test.That(t, err == ErrBufferTooSmall, "size below the minimum is rejected")

	_, err = NewStream(strings.NewReader(""), MaxBufferSize+1)
	test.That(t, err == ErrOutOfMemory, "size above the cap is rejected")

	_, err = NewStream(strings.NewReader(""), MinBufferSize)
	test.Error(t, err, nil)
}

func TestEmptyInput(t *testing.T) {
	s, _ := NewStream(strings.NewReader(""), 16)
	test.That(t, s.PeekRune() == EOF, "peek at end of input")
	test.That(t, s.NextRune() == EOF, "next at end of input")
	test.That(t, s.EOF(), "stream is exhausted")
	test.Error(t, s.Err(), nil)
}

func TestBOM(t *testing.T) {
	s, _ := NewStream(strings.NewReader("\xEF\xBB\xBFhi"), 16)
	test.That(t, s.TotalBytesRead() == 0, "BOM does not count toward bytes read")
	test.That(t, s.Line() == 1 && s.Column() == 1, "BOM does not advance the position")
	test.That(t, s.NextRune() == 'h', "first scalar after BOM")
	test.That(t, s.NextRune() == 'i', "second scalar")
	test.That(t, s.TotalBytesRead() == 2, "bytes read exclude the BOM")
}

func TestPeekIdempotent(t *testing.T) {
	s, _ := NewStream(strings.NewReader("ab"), 16)
	cp1 := s.PeekRune()
	line, col, off := s.Line(), s.Column(), s.TotalBytesRead()
	cp2 := s.PeekRune()
	test.That(t, cp1 == 'a' && cp2 == 'a', "repeated peeks return the same scalar")
	test.That(t, s.Line() == line && s.Column() == col && s.TotalBytesRead() == off,
		"peek does not move the position")
	test.That(t, s.NextRune() == 'a', "next consumes the peeked scalar")
	test.That(t, s.TotalBytesRead() == 1, "next advances by the encoded width")
}

func TestLineColumn(t *testing.T) {
	lineColumnTests := []struct {
		input string
		line  uint32
		col   uint32
	}{
		{"", 1, 1},
		{"abc", 1, 4},
		{"a\nb", 2, 2},
		{"a\r\nb", 2, 2},
		{"a\rb", 2, 2},
		{"\r\n\r\n", 3, 1},
		{"a\r\nb\rc\nd", 4, 2},
		{"日本語", 1, 4}, // columns count scalars, not bytes
	}
	for _, tt := range lineColumnTests {
		s, _ := NewStream(strings.NewReader(tt.input), 16)
		for s.NextRune() >= 0 {
		}
		test.That(t, s.Line() == tt.line, "line must match in", tt.input)
		test.That(t, s.Column() == tt.col, "column must match in", tt.input)
	}
}

func TestCRLFCountsOnce(t *testing.T) {
	input := "one\r\ntwo\r\nthree\r\n"
	s, _ := NewStream(strings.NewReader(input), 8)
	for s.NextRune() >= 0 {
	}
	test.That(t, s.Line() == 4, "each CRLF increments the line exactly once")
	test.That(t, s.Column() == 1, "column resets after a newline")
}

func TestSmallBufferStraddle(t *testing.T) {
	// a four-byte window with one byte arriving per read forces every
	// multi-byte scalar through the compaction path
	input := "a世\U0001F30Db"
	s, err := NewStream(iotest.OneByteReader(strings.NewReader(input)), 4)
	test.Error(t, err, nil)
	test.That(t, s.NextRune() == 'a', "ascii before the straddle")
	test.That(t, s.NextRune() == '世', "three-byte scalar across refills")
	test.That(t, s.NextRune() == '\U0001F30D', "four-byte scalar across refills")
	test.That(t, s.NextRune() == 'b', "ascii after the straddle")
	test.That(t, s.NextRune() == EOF, "end of input")
	test.That(t, s.TotalBytesRead() == uint64(len(input)), "every byte consumed")
}

func TestReadWhileReadUntil(t *testing.T) {
	s, _ := NewStream(strings.NewReader("hello world"), 8)
	out := s.ReadUntil(nil, ' ')
	test.String(t, string(out), "hello")
	test.That(t, s.PeekRune() == ' ', "delimiter is left unconsumed")
	s.SkipWhitespace()
	out = s.ReadWhile(out[:0], func(cp rune) bool { return cp != EOF })
	test.String(t, string(out), "world")
}

func TestReadWhileMultibyte(t *testing.T) {
	input := "x¢世\U0001F30D<"
	s, _ := NewStream(iotest.OneByteReader(strings.NewReader(input)), 4)
	out := s.ReadUntil(nil, '<')
	test.String(t, string(out), "x¢世\U0001F30D", "raw bytes survive refill boundaries")
	test.That(t, s.NextRune() == '<', "delimiter still available")
}

func TestSkipWhitespace(t *testing.T) {
	s, _ := NewStream(strings.NewReader(" \t\r\n x"), 16)
	s.SkipWhitespace()
	test.That(t, s.NextRune() == 'x', "all four whitespace scalars skipped")
}

func TestInvalidUTF8ReadsAsEOF(t *testing.T) {
	s, _ := NewStream(strings.NewReader("ab\xFFcd"), 16)
	test.That(t, s.NextRune() == 'a', "valid prefix")
	test.That(t, s.NextRune() == 'b', "valid prefix")
	test.That(t, s.NextRune() == EOF, "invalid sequence reads as end of input")
}

func TestTruncatedScalarAtEOF(t *testing.T) {
	s, _ := NewStream(strings.NewReader("a\xE4\xB8"), 16)
	test.That(t, s.NextRune() == 'a', "valid prefix")
	test.That(t, s.NextRune() == EOF, "truncated scalar reads as end of input")
}
