package xml

import "strconv"

// TokenType determines the kind of token. The numbering is stable:
// DocumentStart is 0 and DocumentEnd is 11.
type TokenType uint8

// TokenType values.
const (
	DocumentStartToken TokenType = iota
	StartTagToken
	EndTagToken
	EmptyTagToken
	AttributeNameToken
	AttributeValueToken
	TextToken
	CommentToken // reserved
	PIToken      // reserved
	CDATAToken   // reserved
	DOCTYPEToken // reserved
	DocumentEndToken
	ErrorToken
)

// String returns the string representation of a TokenType.
func (tt TokenType) String() string {
	switch tt {
	case DocumentStartToken:
		return "DocumentStart"
	case StartTagToken:
		return "StartTag"
	case EndTagToken:
		return "EndTag"
	case EmptyTagToken:
		return "EmptyTag"
	case AttributeNameToken:
		return "AttributeName"
	case AttributeValueToken:
		return "AttributeValue"
	case TextToken:
		return "Text"
	case CommentToken:
		return "Comment"
	case PIToken:
		return "PI"
	case CDATAToken:
		return "CDATA"
	case DOCTYPEToken:
		return "DOCTYPE"
	case DocumentEndToken:
		return "DocumentEnd"
	case ErrorToken:
		return "Error"
	}
	return "Invalid(" + strconv.Itoa(int(tt)) + ")"
}

// Position is a location in the source: absolute byte offset and 1-based
// line and column, the column counted per scalar.
type Position struct {
	ByteOffset uint64
	Line       uint32
	Column     uint32
}

// Token is a single lexical unit. Data aliases tokenizer-owned storage:
//
//   - a Text token stays valid until the next call to Next;
//   - an Error token's message stays valid until Reset;
//   - StartTag, EndTag, EmptyTag, AttributeName, and AttributeValue tokens
//     stay valid until their element closes and one more token is fetched.
//
// Callers keeping bytes beyond those windows must copy them out.
type Token struct {
	Data       []byte
	ByteOffset uint64
	Line       uint32
	Column     uint32
	Type       TokenType
}

// ErrorCode identifies a diagnostic. Codes are grouped by kind in disjoint
// numeric blocks so later phases can add codes without renumbering.
type ErrorCode uint16

// ErrorCode values.
const (
	ErrNone ErrorCode = 0

	// end of input / stream
	ErrUnexpectedEOF ErrorCode = 0x10
	ErrIO            ErrorCode = 0x11

	// structural / syntax
	ErrInvalidCharAfterLT          ErrorCode = 0x20
	ErrInvalidCharInName           ErrorCode = 0x21
	ErrUnterminatedTag             ErrorCode = 0x22
	ErrExpectedEqualsAfterAttrName ErrorCode = 0x23
	ErrExpectedQuoteForAttrValue   ErrorCode = 0x24
	ErrDuplicateDocumentBoundary   ErrorCode = 0x25

	// entities / encoding
	ErrInvalidUTF8     ErrorCode = 0x40
	ErrMalformedEntity ErrorCode = 0x41

	// comment / CDATA / PI, reserved
	ErrUnterminatedComment  ErrorCode = 0x50
	ErrBadCommentDoubleDash ErrorCode = 0x51
	ErrUnterminatedCData    ErrorCode = 0x52
	ErrUnterminatedPI       ErrorCode = 0x53

	// limits
	ErrLimitExceeded ErrorCode = 0x60
)

// Severity grades a diagnostic. Phase 1 emits Fatal exclusively; Warning and
// Recoverable are carried in the data model for later phases.
type Severity uint8

// Severity values.
const (
	Warning Severity = iota
	Recoverable
	Fatal
)

// ErrorRecord is one recorded diagnostic. Message aliases the error arena
// and stays valid until Reset.
type ErrorRecord struct {
	Code     ErrorCode
	Severity Severity
	Position Position
	Message  []byte
}

// Options is a bitmask of tokenizer behavior flags.
type Options uint32

// Option bits.
const (
	CoalesceText Options = 1 << iota
	Strict
	NormalizeLineEndings
	ExpandInternalEntities   // reserved, no-op
	ReportXmlDecl            // reserved
	ReportIntertagWhitespace // reserved
)

// DefaultOptions has every flag set.
const DefaultOptions = CoalesceText | Strict | NormalizeLineEndings |
	ExpandInternalEntities | ReportXmlDecl | ReportIntertagWhitespace

// Limits bounds the memory any single document construct may claim. Values
// above the absolute caps are clamped at construction.
type Limits struct {
	MaxNameBytes       uint32
	MaxAttrValueBytes  uint32
	MaxTextRunBytes    uint32
	MaxCommentBytes    uint32 // reserved
	MaxCDATABytes      uint32 // reserved
	MaxDoctypeBytes    uint32 // reserved
	MaxAttrsPerElement uint16
	MaxPerTagBytes     uint32
	MaxOpenDepth       uint16
}

// DefaultLimits returns the default limits.
func DefaultLimits() Limits {
	return Limits{
		MaxNameBytes:       4 << 10,
		MaxAttrValueBytes:  1 << 20,
		MaxTextRunBytes:    8 << 20,
		MaxCommentBytes:    1 << 20,
		MaxCDATABytes:      8 << 20,
		MaxDoctypeBytes:    128 << 10,
		MaxAttrsPerElement: 1024,
		MaxPerTagBytes:     8 << 20,
		MaxOpenDepth:       1024,
	}
}

// Absolute caps; soft limits never exceed these.
const (
	absMaxNameBytes      = 64 << 10
	absMaxAttrValueBytes = 64 << 20
	absMaxTextRunBytes   = 64 << 20
	absMaxCommentBytes   = 16 << 20
	absMaxCDATABytes     = 64 << 20
	absMaxDoctypeBytes   = 8 << 20
	absMaxPerTagBytes    = 16 << 20
)

func clampU32(v, hi uint32) uint32 {
	if v > hi {
		return hi
	}
	return v
}

// clamped returns a copy of l with every field held to its absolute cap.
func (l Limits) clamped() Limits {
	l.MaxNameBytes = clampU32(l.MaxNameBytes, absMaxNameBytes)
	l.MaxAttrValueBytes = clampU32(l.MaxAttrValueBytes, absMaxAttrValueBytes)
	l.MaxTextRunBytes = clampU32(l.MaxTextRunBytes, absMaxTextRunBytes)
	l.MaxCommentBytes = clampU32(l.MaxCommentBytes, absMaxCommentBytes)
	l.MaxCDATABytes = clampU32(l.MaxCDATABytes, absMaxCDATABytes)
	l.MaxDoctypeBytes = clampU32(l.MaxDoctypeBytes, absMaxDoctypeBytes)
	l.MaxPerTagBytes = clampU32(l.MaxPerTagBytes, absMaxPerTagBytes)
	return l
}

// State is the lexical state of the tokenizer's automaton.
type State uint8

// State values. The states from StateAfterBang on (comment, CDATA, PI, and
// resync) are reserved for later phases; no Phase-1 transition enters them.
const (
	StateContent State = iota
	StateTagOpen
	StateStartTagName
	StateEndTagName
	StateInTag
	StateAttrName
	StateAfterAttrName
	StateBeforeAttrValue
	StateAttrValueQuoted
	StateAfterBang
	StateCommentStart1
	StateCommentStart2
	StateInComment
	StateCommentEnd1
	StateCommentEnd2
	StateCDataStart
	StateInCData
	StateCDataEnd1
	StateCDataEnd2
	StatePITarget
	StatePIContent
	StateResyncing
)

// String returns the string representation of a State.
func (st State) String() string {
	switch st {
	case StateContent:
		return "Content"
	case StateTagOpen:
		return "TagOpen"
	case StateStartTagName:
		return "StartTagName"
	case StateEndTagName:
		return "EndTagName"
	case StateInTag:
		return "InTag"
	case StateAttrName:
		return "AttrName"
	case StateAfterAttrName:
		return "AfterAttrName"
	case StateBeforeAttrValue:
		return "BeforeAttrValue"
	case StateAttrValueQuoted:
		return "AttrValueQuoted"
	case StateAfterBang:
		return "AfterBang"
	case StateCommentStart1:
		return "CommentStart1"
	case StateCommentStart2:
		return "CommentStart2"
	case StateInComment:
		return "InComment"
	case StateCommentEnd1:
		return "CommentEnd1"
	case StateCommentEnd2:
		return "CommentEnd2"
	case StateCDataStart:
		return "CDataStart"
	case StateInCData:
		return "InCData"
	case StateCDataEnd1:
		return "CDataEnd1"
	case StateCDataEnd2:
		return "CDataEnd2"
	case StatePITarget:
		return "PITarget"
	case StatePIContent:
		return "PIContent"
	case StateResyncing:
		return "Resyncing"
	}
	return "Invalid(" + strconv.Itoa(int(st)) + ")"
}
