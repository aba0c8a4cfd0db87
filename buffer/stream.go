// Package buffer provides a buffered UTF-8 input stream over an io.Reader,
// with line and column tracking for streaming tokenizers. The window is a
// single contiguous allocation; unread bytes are compacted to the front on
// refill so a multi-byte scalar is never split across a boundary.
package buffer

import (
	"errors"
	"io"

	"github.com/shahin-you/lxml/utf8x"
)

// Factory errors returned by NewStream.
var (
	ErrZeroBufferSize = errors.New("buffer size is zero")
	ErrBufferTooSmall = errors.New("buffer size below minimum of 4 bytes")
	ErrOutOfMemory    = errors.New("buffer size exceeds maximum")
)

const (
	// MinBufferSize is the smallest allowed window: one full UTF-8 scalar
	// must fit contiguously.
	MinBufferSize = 4
	// MaxBufferSize is the hard cap on the window size.
	MaxBufferSize = 1 << 30
	// DefaultBufferSize is a reasonable window for file input.
	DefaultBufferSize = 64 << 10
)

// EOF is returned by PeekRune and NextRune at end of input. Invalid UTF-8 is
// reported the same way at this layer; the tokenizer above may raise a finer
// diagnostic.
const EOF rune = -1

// XML whitespace scalars.
const (
	space = 0x20
	tab   = 0x09
	lf    = 0x0A
	cr    = 0x0D
)

// Stream presents an io.Reader as a stream of Unicode scalars. A single-slot
// peek cache makes PeekRune idempotent and lets NextRune reuse the decode.
type Stream struct {
	r   io.Reader
	buf []byte
	pos int
	end int

	line      uint32
	column    uint32
	totalRead uint64

	pendingCR bool
	srcErr    error

	havePeek  bool
	peekCP    rune
	peekWidth int
}

// NewStream returns a Stream with a window of the given size. It performs the
// initial refill and skips a UTF-8 byte order mark when present; the BOM does
// not count toward TotalBytesRead and does not advance line or column.
func NewStream(r io.Reader, size int) (*Stream, error) {
	if size == 0 {
		return nil, ErrZeroBufferSize
	}
	if size < MinBufferSize {
		return nil, ErrBufferTooSmall
	}
	if size > MaxBufferSize {
		return nil, ErrOutOfMemory
	}
	s := &Stream{
		r:      r,
		buf:    make([]byte, size),
		line:   1,
		column: 1,
	}
	s.ensureAtLeast(len(s.buf))
	s.skipBOM()
	return s, nil
}

func (s *Stream) available() int { return s.end - s.pos }

// ensureAtLeast compacts unread bytes to the front and refills until at least
// n bytes are available or the source yields nothing. A live peek cache is
// invalidated when compaction moves bytes.
func (s *Stream) ensureAtLeast(n int) bool {
	if s.available() >= n {
		return true
	}
	if s.pos > 0 {
		if s.pos < s.end {
			copy(s.buf, s.buf[s.pos:s.end])
			s.end -= s.pos
		} else {
			s.end = 0
		}
		s.pos = 0
		s.havePeek = false
	}
	for s.available() < n && s.srcErr == nil && s.end < len(s.buf) {
		m, err := s.r.Read(s.buf[s.end:])
		s.end += m
		if err != nil {
			s.srcErr = err
		} else if m == 0 {
			break
		}
	}
	return s.available() >= n
}

func (s *Stream) skipBOM() {
	if s.available() >= 3 && s.buf[s.pos] == 0xEF && s.buf[s.pos+1] == 0xBB && s.buf[s.pos+2] == 0xBF {
		s.pos += 3
		s.havePeek = false
	}
}

// decodeAt decodes the scalar at the cursor, refilling once if the first byte
// promises more bytes than are buffered.
func (s *Stream) decodeAt() (rune, int, bool) {
	if !s.ensureAtLeast(1) {
		return EOF, 0, false
	}
	cp, w, st := utf8x.Decode(s.buf[s.pos:s.end])
	if st == utf8x.NeedMore {
		if !s.ensureAtLeast(w) {
			return EOF, 0, false // premature end of input
		}
		cp, w, st = utf8x.Decode(s.buf[s.pos:s.end])
	}
	if st != utf8x.OK {
		return EOF, 0, false // invalid sequences read as end of input here
	}
	return cp, w, true
}

// PeekRune returns the next scalar without consuming it, or EOF at end of
// input. Repeated peeks return the same scalar and do not advance the
// position.
func (s *Stream) PeekRune() rune {
	if s.havePeek {
		return s.peekCP
	}
	cp, w, ok := s.decodeAt()
	if !ok {
		return EOF
	}
	s.peekCP, s.peekWidth, s.havePeek = cp, w, true
	return cp
}

// NextRune consumes and returns the next scalar, advancing the position by
// its encoded width, or EOF at end of input.
func (s *Stream) NextRune() rune {
	if s.havePeek {
		s.havePeek = false
		cp := s.peekCP
		s.advance(s.peekWidth)
		return cp
	}
	cp, w, ok := s.decodeAt()
	if !ok {
		return EOF
	}
	s.advance(w)
	return cp
}

// advance consumes width bytes while maintaining line, column, and the
// carried CR state. CRLF counts as one newline; the column advances per
// scalar, so continuation bytes do not move it.
func (s *Stream) advance(width int) {
	for i := 0; i < width && s.pos < s.end; i++ {
		b := s.buf[s.pos]
		s.pos++
		s.totalRead++
		switch {
		case b == cr:
			s.line++
			s.column = 1
			s.pendingCR = true
		case b == lf:
			if s.pendingCR {
				s.pendingCR = false
			} else {
				s.line++
				s.column = 1
			}
		default:
			if b&0xC0 != 0x80 {
				s.column++
			}
			s.pendingCR = false
		}
	}
}

// ReadWhile consumes scalars for as long as pred accepts them, appending
// their raw UTF-8 bytes to dst. It stops at end of input, on invalid UTF-8,
// or at the first rejected scalar, which is left unconsumed.
func (s *Stream) ReadWhile(dst []byte, pred func(rune) bool) []byte {
	for {
		cp := s.PeekRune()
		if cp < 0 || !pred(cp) {
			return dst
		}
		start := s.pos
		s.NextRune()
		dst = append(dst, s.buf[start:s.pos]...)
	}
}

// ReadUntil reads up to the delimiter, which is left unconsumed.
func (s *Stream) ReadUntil(dst []byte, delim rune) []byte {
	return s.ReadWhile(dst, func(cp rune) bool { return cp != delim })
}

// SkipWhitespace consumes XML whitespace: space, tab, LF, and CR.
func (s *Stream) SkipWhitespace() {
	for {
		cp := s.PeekRune()
		if cp != space && cp != tab && cp != lf && cp != cr {
			return
		}
		s.NextRune()
	}
}

// Line returns the 1-based line of the next unread scalar.
func (s *Stream) Line() uint32 { return s.line }

// Column returns the 1-based column of the next unread scalar, counted per
// scalar rather than per byte.
func (s *Stream) Column() uint32 { return s.column }

// TotalBytesRead returns the number of bytes consumed so far, excluding a
// leading byte order mark.
func (s *Stream) TotalBytesRead() uint64 { return s.totalRead }

// EOF reports whether the stream is exhausted.
func (s *Stream) EOF() bool {
	return s.available() == 0 && s.srcErr != nil
}

// Err returns the sticky read error. A clean end of input reads as nil.
func (s *Stream) Err() error {
	if s.srcErr == io.EOF {
		return nil
	}
	return s.srcErr
}
