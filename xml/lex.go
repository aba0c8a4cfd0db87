// Package xml is a streaming XML tokenizer for documents larger than memory.
// It consumes Unicode scalars from a buffer.Stream and emits one token per
// call to Next: document boundaries, start/end/empty tags, attribute names
// and values, text runs, and errors, each carrying the byte offset, line,
// and column where it began.
package xml

import (
	"github.com/shahin-you/lxml"
	"github.com/shahin-you/lxml/buffer"
	"github.com/shahin-you/lxml/utf8x"
)

// Tokenizer is the tokenizer state machine. It is driven synchronously by
// its caller and is not safe for concurrent use.
type Tokenizer struct {
	in   *buffer.Stream
	opts Options
	lims Limits

	state   State
	started bool
	ended   bool

	// open-element stack; the top frame's buffer receives all name and
	// attribute bytes of the element currently being scanned
	stack []tagFrame

	// text arena, cleared at the start of each text scan
	text []byte

	// error arena and recorded diagnostics
	errArena []byte
	errs     []ErrorRecord

	// reusable tag buffers, all of length freelistBlock
	freelist      [][]byte
	freelistBlock uint32
	freelistBytes uint64

	// position captured before the first byte of the token being scanned
	pending    Position
	hasPending bool
}

// NewTokenizer returns a tokenizer reading from in. Limits are clamped to
// their absolute caps; the input stream is not owned and is left untouched
// until the first call to Next.
func NewTokenizer(in *buffer.Stream, opts Options, lims Limits) *Tokenizer {
	z := &Tokenizer{
		in:    in,
		opts:  opts,
		lims:  lims.clamped(),
		state: StateContent,
	}
	z.freelistBlock = z.lims.MaxPerTagBytes
	return z
}

// Options returns the options the tokenizer was built with.
func (z *Tokenizer) Options() Options { return z.opts }

// Limits returns the clamped limits in effect.
func (z *Tokenizer) Limits() Limits { return z.lims }

// State returns the current lexical state.
func (z *Tokenizer) State() State { return z.state }

// NestingDepth returns the number of open elements.
func (z *Tokenizer) NestingDepth() int { return len(z.stack) }

// Errors returns the diagnostics recorded so far. Records alias the error
// arena and stay valid until Reset.
func (z *Tokenizer) Errors() []ErrorRecord { return z.errs }

// ClearErrors empties the error list. It does not revive an ended stream.
func (z *Tokenizer) ClearErrors() { z.errs = z.errs[:0] }

// CurrentPosition reports the position of the next unread scalar.
func (z *Tokenizer) CurrentPosition() Position {
	return Position{
		ByteOffset: z.in.TotalBytesRead(),
		Line:       z.in.Line(),
		Column:     z.in.Column(),
	}
}

// Reset returns the tokenizer to its pre-DocumentStart state, keeping the
// same input stream, options, and limits. Buffers of still-open elements
// move to the freelist.
func (z *Tokenizer) Reset() {
	for i := range z.stack {
		z.parkBuffer(z.stack[i].buf.mem)
		z.stack[i] = tagFrame{}
	}
	z.stack = z.stack[:0]
	if z.freelistBlock != z.lims.MaxPerTagBytes {
		z.freelist = nil
		z.freelistBytes = 0
		z.freelistBlock = z.lims.MaxPerTagBytes
	}
	z.text = z.text[:0]
	z.errArena = z.errArena[:0]
	z.errs = z.errs[:0]
	z.state = StateContent
	z.started = false
	z.ended = false
	z.pending = Position{}
	z.hasPending = false
}

// Next produces the next token into t. It returns false once a DocumentEnd
// token or a fatal Error token has been emitted, until Reset.
func (z *Tokenizer) Next(t *Token) bool {
	if z.ended {
		return false
	}
	if !z.started {
		z.started = true
		z.emitAt(t, DocumentStartToken, nil, z.CurrentPosition())
		return true
	}
	for {
		switch z.state {
		case StateContent:
			if z.scanText(t) {
				return true
			}
			if z.state != StateContent {
				continue
			}
			// end of input in content
			if len(z.stack) == 0 {
				z.ended = true
				z.emitAt(t, DocumentEndToken, nil, z.CurrentPosition())
				return true
			}
			return z.emitError(t, ErrUnexpectedEOF, Fatal, "Unclosed tag at end of document")
		case StateTagOpen:
			if z.scanTagOpen(t) {
				return true
			}
		case StateStartTagName:
			return z.scanStartTagName(t)
		case StateEndTagName:
			return z.scanEndTagName(t)
		case StateInTag:
			if z.scanInTag(t) {
				return true
			}
		case StateAttrName:
			return z.scanAttrName(t)
		case StateAfterAttrName:
			if z.scanAfterAttrName(t) {
				return true
			}
		case StateBeforeAttrValue:
			if z.scanBeforeAttrValue(t) {
				return true
			}
		case StateAttrValueQuoted:
			return z.scanAttrValue(t)
		default:
			// reserved states; nothing transitions into them yet
			return z.emitError(t, ErrInvalidCharAfterLT, Fatal, "Invalid character after '<'")
		}
	}
}

////////////////////////////////////////////////////////////////

// markTokenStart captures the position of the token about to be scanned.
func (z *Tokenizer) markTokenStart() {
	z.pending = z.CurrentPosition()
	z.hasPending = true
}

func (z *Tokenizer) emitAt(t *Token, tt TokenType, data []byte, pos Position) {
	t.Type = tt
	t.Data = data
	t.ByteOffset = pos.ByteOffset
	t.Line = pos.Line
	t.Column = pos.Column
}

// emit fills t using the pending start position when one is marked, clearing
// the slot so it cannot leak into the next token.
func (z *Tokenizer) emit(t *Token, tt TokenType, data []byte) {
	pos := z.CurrentPosition()
	if z.hasPending {
		pos = z.pending
		z.hasPending = false
	}
	z.emitAt(t, tt, data, pos)
}

// emitError records the diagnostic, emits the Error token, and for Fatal
// severity terminates the stream. It always reports a token emitted.
func (z *Tokenizer) emitError(t *Token, code ErrorCode, sev Severity, msg string) bool {
	if msg == "" {
		msg = "Tokenizer error"
	}
	pos := z.CurrentPosition()
	if z.hasPending {
		pos = z.pending
		z.hasPending = false
	}
	data := z.internError(msg)
	z.errs = append(z.errs, ErrorRecord{Code: code, Severity: sev, Position: pos, Message: data})
	if sev == Fatal {
		z.ended = true
	}
	z.emitAt(t, ErrorToken, data, pos)
	return true
}

////////////////////////////////////////////////////////////////

// scanText gathers a text run up to the next '<' or end of input. On '<' it
// marks the tag start and switches state without emitting.
func (z *Tokenizer) scanText(t *Token) bool {
	cp := z.in.PeekRune()
	if cp == '<' {
		z.markTokenStart()
		z.state = StateTagOpen
		return false
	}
	if cp < 0 {
		return false
	}

	z.text = z.text[:0]
	z.markTokenStart()
	var enc [utf8x.UTFMax]byte
	for {
		cp = z.in.PeekRune()
		if cp == '<' || cp < 0 {
			break
		}
		z.in.NextRune()
		if z.opts&NormalizeLineEndings != 0 && cp == '\r' {
			// \r\n and lone \r both become a single \n
			if z.in.PeekRune() == '\n' {
				z.in.NextRune()
			}
			z.text = append(z.text, '\n')
		} else {
			w, _ := utf8x.Encode(cp, enc[:])
			z.text = append(z.text, enc[:w]...)
		}
		if uint32(len(z.text)) >= z.lims.MaxTextRunBytes {
			return z.emitError(t, ErrLimitExceeded, Fatal, "Text run exceeds limit")
		}
	}
	z.emit(t, TextToken, z.text)
	return true
}

// scanTagOpen consumes '<' and dispatches on what follows. Only an error
// token can be emitted in this state.
func (z *Tokenizer) scanTagOpen(t *Token) bool {
	z.in.NextRune() // '<'
	cp := z.in.PeekRune()
	switch {
	case cp == '/':
		z.in.NextRune()
		z.state = StateEndTagName
		return false
	case isNameStart(cp):
		z.state = StateStartTagName
		return false
	case cp < 0:
		return z.emitError(t, ErrUnexpectedEOF, Fatal, "Unexpected EOF after '<'")
	default:
		// '!' and '?' land here too: comments, CDATA, PIs, and DOCTYPE
		// are rejected until their states are wired up
		return z.emitError(t, ErrInvalidCharAfterLT, Fatal, "Invalid character after '<'")
	}
}

// scanStartTagName opens a frame for the element and reads its name.
func (z *Tokenizer) scanStartTagName(t *Token) bool {
	start := z.pending
	if !z.hasPending {
		start = z.CurrentPosition()
	}
	if !z.pushTagFrame(start) {
		return z.emitError(t, ErrLimitExceeded, Fatal, "Element nesting exceeds limit")
	}
	f := z.topFrame()
	off, n, ok := z.readName(t, f)
	if !ok {
		return true
	}
	f.ctx.nameOff, f.ctx.nameLen = off, n
	z.state = StateInTag
	z.emit(t, StartTagToken, f.buf.mem[off:off+n])
	return true
}

// scanInTag handles the region between a tag's name and its closing '>'.
func (z *Tokenizer) scanInTag(t *Token) bool {
	z.in.SkipWhitespace()
	cp := z.in.PeekRune()
	switch {
	case cp == '>':
		z.in.NextRune()
		z.state = StateContent
		return false
	case cp == '/':
		z.in.NextRune()
		if z.in.PeekRune() != '>' {
			return z.emitError(t, ErrUnterminatedTag, Fatal, "Expected '>' after '/'")
		}
		z.in.NextRune()
		f := z.topFrame()
		name := f.buf.mem[f.ctx.nameOff : f.ctx.nameOff+f.ctx.nameLen]
		z.emitAt(t, EmptyTagToken, name, f.start)
		z.popTagFrame()
		z.state = StateContent
		return true
	case isNameStart(cp):
		z.state = StateAttrName
		return false
	case cp < 0:
		return z.emitError(t, ErrUnterminatedTag, Fatal, "Unexpected EOF inside tag")
	default:
		return z.emitError(t, ErrUnterminatedTag, Fatal, "Invalid character inside tag")
	}
}

// scanAttrName reads one attribute name into the element's tag buffer.
func (z *Tokenizer) scanAttrName(t *Token) bool {
	f := z.topFrame()
	if f.ctx.attrCount >= z.lims.MaxAttrsPerElement {
		return z.emitError(t, ErrLimitExceeded, Fatal, "Attribute count exceeds limit")
	}
	f.ctx.attrCount++
	z.markTokenStart()
	off, n, ok := z.readName(t, f)
	if !ok {
		return true
	}
	z.state = StateAfterAttrName
	z.emit(t, AttributeNameToken, f.buf.mem[off:off+n])
	return true
}

func (z *Tokenizer) scanAfterAttrName(t *Token) bool {
	z.in.SkipWhitespace()
	cp := z.in.PeekRune()
	if cp != '=' {
		if cp < 0 {
			return z.emitError(t, ErrUnexpectedEOF, Fatal, "Unexpected EOF inside tag")
		}
		return z.emitError(t, ErrExpectedEqualsAfterAttrName, Fatal, "Expected '=' after attribute name")
	}
	z.in.NextRune()
	z.state = StateBeforeAttrValue
	return false
}

func (z *Tokenizer) scanBeforeAttrValue(t *Token) bool {
	z.in.SkipWhitespace()
	cp := z.in.PeekRune()
	if cp != '"' {
		if cp < 0 {
			return z.emitError(t, ErrUnexpectedEOF, Fatal, "Unexpected EOF inside tag")
		}
		// single-quoted values are rejected until a later phase
		return z.emitError(t, ErrExpectedQuoteForAttrValue, Fatal, "Expected '\"' before attribute value")
	}
	z.in.NextRune()
	z.state = StateAttrValueQuoted
	return false
}

// scanAttrValue gathers the bytes of a double-quoted attribute value into
// the element's tag buffer and emits AttributeValue without the quotes.
func (z *Tokenizer) scanAttrValue(t *Token) bool {
	f := z.topFrame()
	z.markTokenStart()
	var enc [utf8x.UTFMax]byte
	off := badOff
	var n uint32
	for {
		cp := z.in.PeekRune()
		if cp < 0 {
			return z.emitError(t, ErrUnterminatedTag, Fatal, "Unexpected EOF in attribute value")
		}
		if cp == '"' {
			z.in.NextRune()
			break
		}
		z.in.NextRune()
		w, _ := utf8x.Encode(cp, enc[:])
		o := z.appendTagBytes(f, enc[:w])
		if o == badOff {
			return z.emitError(t, ErrLimitExceeded, Fatal, "Tag buffer exceeds limit")
		}
		if off == badOff {
			off = o
		}
		n += uint32(w)
		if n > z.lims.MaxAttrValueBytes {
			return z.emitError(t, ErrLimitExceeded, Fatal, "Attribute value exceeds limit")
		}
	}
	z.state = StateInTag
	var data []byte
	if n > 0 {
		data = f.buf.mem[off : off+n]
	}
	z.emit(t, AttributeValueToken, data)
	return true
}

// scanEndTagName reads the name after '</', requires '>', and matches the
// name byte for byte against the open element.
func (z *Tokenizer) scanEndTagName(t *Token) bool {
	f := z.topFrame()
	if f == nil {
		return z.emitError(t, ErrUnterminatedTag, Fatal, "End tag without open element")
	}
	off, n, ok := z.readName(t, f)
	if !ok {
		return true
	}
	z.in.SkipWhitespace()
	cp := z.in.PeekRune()
	if cp != '>' {
		if cp < 0 {
			return z.emitError(t, ErrUnexpectedEOF, Fatal, "Unexpected EOF in end tag")
		}
		return z.emitError(t, ErrUnterminatedTag, Fatal, "Invalid character in end tag")
	}
	z.in.NextRune()
	name := f.buf.mem[f.ctx.nameOff : f.ctx.nameOff+f.ctx.nameLen]
	endName := f.buf.mem[off : off+n]
	if !lxml.Equal(endName, name) {
		return z.emitError(t, ErrUnterminatedTag, Fatal, "End tag mismatch")
	}
	z.emit(t, EndTagToken, endName)
	z.popTagFrame()
	z.state = StateContent
	return true
}

// readName scans one Name into f's buffer, returning its offset and length.
// On failure the diagnostic is already emitted and ok is false.
func (z *Tokenizer) readName(t *Token, f *tagFrame) (off, n uint32, ok bool) {
	cp := z.in.PeekRune()
	if !isNameStart(cp) {
		if cp < 0 {
			z.emitError(t, ErrUnexpectedEOF, Fatal, "Unexpected EOF in name")
		} else {
			z.emitError(t, ErrInvalidCharInName, Fatal, "Invalid character in name")
		}
		return 0, 0, false
	}
	var enc [utf8x.UTFMax]byte
	off = badOff
	for {
		cp = z.in.PeekRune()
		if !isNameChar(cp) {
			break
		}
		z.in.NextRune()
		w, _ := utf8x.Encode(cp, enc[:])
		o := z.appendTagBytes(f, enc[:w])
		if o == badOff {
			z.emitError(t, ErrLimitExceeded, Fatal, "Tag buffer exceeds limit")
			return 0, 0, false
		}
		if off == badOff {
			off = o
		}
		n += uint32(w)
		if n > z.lims.MaxNameBytes {
			z.emitError(t, ErrLimitExceeded, Fatal, "Name exceeds limit")
			return 0, 0, false
		}
	}
	return off, n, true
}

////////////////////////////////////////////////////////////////

// isNameStart reports whether cp may start a Name: ':', '_', ASCII letters,
// and any non-ASCII scalar. The non-ASCII acceptance is a placeholder for
// the full XML 1.0 ranges.
func isNameStart(cp rune) bool {
	if cp < 0 {
		return false
	}
	if cp >= 0x80 {
		return true
	}
	return cp == ':' || cp == '_' ||
		('A' <= cp && cp <= 'Z') || ('a' <= cp && cp <= 'z')
}

// isNameChar reports whether cp may continue a Name: the name-start set plus
// '-', '.', and digits.
func isNameChar(cp rune) bool {
	return isNameStart(cp) || cp == '-' || cp == '.' ||
		('0' <= cp && cp <= '9')
}
