// Package fmtxml pretty-prints XML by driving the streaming tokenizer and
// re-emitting the document with consistent indentation. It never builds a
// tree, so documents larger than memory format in bounded space.
package fmtxml

import (
	"bufio"
	"fmt"
	"io"

	"github.com/shahin-you/lxml/buffer"
	"github.com/shahin-you/lxml/xml"
)

// TokenizeError is returned by Format when the tokenizer reports a fatal
// diagnostic. It carries the recorded position so callers with a re-readable
// source can recover a context excerpt.
type TokenizeError struct {
	Record xml.ErrorRecord
}

func (e *TokenizeError) Error() string {
	return fmt.Sprintf("%s on line %d and column %d",
		string(e.Record.Message), e.Record.Position.Line, e.Record.Position.Column)
}

// Printer formats token streams according to its configuration. A Printer is
// stateless between Format calls and may be reused.
type Printer struct {
	cfg Config
}

// NewPrinter returns a Printer for the given configuration. An empty Indent
// and a BufferSize below the minimum are replaced with defaults; the other
// fields are used as given.
func NewPrinter(cfg Config) *Printer {
	return &Printer{cfg: cfg.withDefaults()}
}

// Format tokenizes r and writes the re-indented document to w. Token bytes
// are written out before the next token is requested, respecting the
// tokenizer's slice lifetime contract.
func (p *Printer) Format(w io.Writer, r io.Reader) error {
	s, err := buffer.NewStream(r, p.cfg.BufferSize)
	if err != nil {
		return err
	}

	opts := xml.DefaultOptions
	if !p.cfg.NormalizeNewlines {
		opts &^= xml.NormalizeLineEndings
	}
	lims := xml.DefaultLimits()
	if p.cfg.MaxDepth > 0 {
		lims.MaxOpenDepth = uint16(p.cfg.MaxDepth)
	}
	z := xml.NewTokenizer(s, opts, lims)

	bw := bufio.NewWriter(w)
	var (
		t        xml.Token
		depth    int
		open     bool // start tag written but not yet closed with '>'
		inline   bool // cursor sits after text or a start tag close
		wroteAny bool
	)

	// closeOpen finishes a pending start tag and descends into the element.
	closeOpen := func() {
		if open {
			bw.WriteByte('>')
			open = false
			depth++
			inline = true
		}
	}
	indent := func(n int) {
		for i := 0; i < n; i++ {
			bw.WriteString(p.cfg.Indent)
		}
	}

	for z.Next(&t) {
		switch t.Type {
		case xml.DocumentStartToken:
		case xml.StartTagToken:
			closeOpen()
			if wroteAny {
				bw.WriteByte('\n')
			}
			indent(depth)
			bw.WriteByte('<')
			bw.Write(t.Data)
			open = true
			inline = false
			wroteAny = true
		case xml.AttributeNameToken:
			bw.WriteByte(' ')
			bw.Write(t.Data)
		case xml.AttributeValueToken:
			bw.WriteString(`="`)
			bw.Write(t.Data)
			bw.WriteByte('"')
		case xml.EmptyTagToken:
			bw.WriteString("/>")
			open = false
			inline = false
		case xml.TextToken:
			closeOpen()
			data := t.Data
			if p.cfg.TrimText {
				data = trimSpace(data)
			}
			if len(data) > 0 {
				bw.Write(data)
				inline = true
				wroteAny = true
			}
		case xml.EndTagToken:
			depth--
			if !inline {
				bw.WriteByte('\n')
				indent(depth)
			}
			bw.WriteString("</")
			bw.Write(t.Data)
			bw.WriteByte('>')
			inline = false
			wroteAny = true
		case xml.DocumentEndToken:
			if wroteAny {
				bw.WriteByte('\n')
			}
		case xml.ErrorToken:
			recs := z.Errors()
			rec := recs[len(recs)-1]
			rec.Message = append([]byte(nil), rec.Message...)
			return &TokenizeError{Record: rec}
		}
	}
	return bw.Flush()
}

// trimSpace strips leading and trailing XML whitespace.
func trimSpace(b []byte) []byte {
	for len(b) > 0 && isSpace(b[0]) {
		b = b[1:]
	}
	for len(b) > 0 && isSpace(b[len(b)-1]) {
		b = b[:len(b)-1]
	}
	return b
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
