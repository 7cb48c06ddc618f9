package scan

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"qstrgen/internal/model"
)

// Scanner feeds source files through the conditional tracker and records
// every tagged symbol reference into a shared table.
type Scanner struct {
	table   *model.Table
	tags    TagStyle
	tracker Tracker
	log     zerolog.Logger
	files   []string
}

// NewScanner creates a Scanner recording into table. The table may already
// hold uses from earlier scans; state accumulates across files.
func NewScanner(table *model.Table, tags TagStyle, log zerolog.Logger) *Scanner {
	return &Scanner{
		table: table,
		tags:  tags,
		log:   log,
	}
}

// Scan reads one file's content from r. name is used in sites and errors.
func (s *Scanner) Scan(name string, r io.Reader) error {
	s.tracker.Reset()
	s.files = append(s.files, name)

	lr := NewLineReader(r)
	for {
		line, ok, err := lr.Next()
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if !ok {
			break
		}
		text := strings.TrimRightFunc(line.Text, unicode.IsSpace)

		if d := ParseDirective(text); d.Kind != NotDirective {
			if err := s.tracker.Apply(d, name, line.Number); err != nil {
				return err
			}
			s.log.Debug().Msg(text)
			continue
		}

		syms := s.tags.Find(text)
		if len(syms) == 0 {
			continue
		}
		nest := s.tracker.Nest()
		s.log.Debug().Msgf("@@ %s", nest)
		site := model.Site{File: name, Line: line.Number}
		for _, sym := range syms {
			outcome := s.table.Record(sym, nest, site)
			s.log.Debug().Str("use", outcome.String()).Msgf("Q(%s)", sym)
		}
	}
	return s.tracker.Finish(name)
}

// Files lists the names scanned so far, in order.
func (s *Scanner) Files() []string {
	return s.files
}

func (s *Scanner) Table() *model.Table {
	return s.table
}
