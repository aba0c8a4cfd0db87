package lxml

import (
	"fmt"
	"io"
	"strings"

	"github.com/shahin-you/lxml/buffer"
	"github.com/shahin-you/lxml/utf8x"
)

// Position returns the line and column number for a certain byte offset in a
// file, together with a caret context line. It is useful for recovering the
// position in a file that caused an error. It only treats \n, \r, and \r\n
// as newlines.
func Position(r io.Reader, offset uint64) (line, col int, context string, err error) {
	s, err := buffer.NewStream(r, buffer.DefaultBufferSize)
	if err != nil {
		return 0, 0, "", err
	}

	var lineBuf []byte
	var enc [utf8x.UTFMax]byte
	for s.TotalBytesRead() < offset {
		cp := s.NextRune()
		if cp < 0 {
			break
		}
		if cp == '\n' || cp == '\r' {
			if cp == '\r' && s.PeekRune() == '\n' {
				s.NextRune()
			}
			lineBuf = lineBuf[:0]
		} else {
			w, _ := utf8x.Encode(cp, enc[:])
			lineBuf = append(lineBuf, enc[:w]...)
		}
	}
	line = int(s.Line())
	col = int(s.Column())

	short := s.TotalBytesRead() < offset

	// complete the offending line for the context excerpt
	lineBuf = s.ReadUntil(lineBuf, '\n')
	if n := len(lineBuf); n > 0 && lineBuf[n-1] == '\r' {
		lineBuf = lineBuf[:n-1]
	}

	context = fmt.Sprintf("%5d: %s\n", line, string(lineBuf))
	context += fmt.Sprintf("%s^", strings.Repeat(" ", col+6))
	if short {
		err = s.Err()
		if err == nil {
			err = io.EOF
		}
		return line, col, context, err
	}
	return line, col, context, nil
}
