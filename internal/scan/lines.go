package scan

import (
	"bufio"
	"io"
	"strings"
)

// Line is a logical line: one or more physical lines joined at trailing
// backslashes.
type Line struct {
	Text   string
	Number int // 1-based physical line on which the logical line starts
}

// LineReader yields logical lines lazily from r.
type LineReader struct {
	r      *bufio.Reader
	lineNo int
	done   bool
}

func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{r: bufio.NewReader(r)}
}

// Next returns the next logical line; ok is false once the input is
// exhausted. A continuation on the last physical line yields whatever was
// accumulated rather than dropping it.
func (lr *LineReader) Next() (line Line, ok bool, err error) {
	if lr.done {
		return Line{}, false, nil
	}
	var b strings.Builder
	pending := false
	for {
		s, err := lr.r.ReadString('\n')
		if err != nil && err != io.EOF {
			return Line{}, false, err
		}
		atEOF := err == io.EOF
		if s == "" && atEOF {
			lr.done = true
			if pending {
				return line, true, nil
			}
			return Line{}, false, nil
		}

		lr.lineNo++
		if !pending {
			line.Number = lr.lineNo
			pending = true
		}
		s = strings.TrimRight(s, "\n")
		s = strings.TrimRight(s, "\r")

		if strings.HasSuffix(s, `\`) {
			b.WriteString(s[:len(s)-1])
			line.Text = b.String()
			if atEOF {
				lr.done = true
				return line, true, nil
			}
			continue
		}

		b.WriteString(s)
		line.Text = b.String()
		if atEOF {
			lr.done = true
		}
		return line, true, nil
	}
}
