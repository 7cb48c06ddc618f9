package scan

import (
	"regexp"

	"qstrgen/internal/model"
)

// TagStyle finds tagged symbol references in a line.
type TagStyle interface {
	// Find returns the bare identifiers referenced on line, left to right.
	Find(line string) []string
	Name() string
}

// QstrPrefix is the marker in front of every symbol reference in C source.
const QstrPrefix = "MP_QSTR_"

// PrefixStyle matches a fixed prefix followed by word characters anywhere in
// the line. The identifier may be empty.
type PrefixStyle struct {
	prefix string
	re     *regexp.Regexp
}

func NewPrefixStyle(prefix string) *PrefixStyle {
	return &PrefixStyle{
		prefix: prefix,
		re:     regexp.MustCompile(`\b` + regexp.QuoteMeta(prefix) + `\w*`),
	}
}

func (s *PrefixStyle) Find(line string) []string {
	matches := s.re.FindAllString(line, -1)
	if len(matches) == 0 {
		return nil
	}
	syms := make([]string, len(matches))
	for i, m := range matches {
		syms[i] = m[len(s.prefix):]
	}
	return syms
}

func (s *PrefixStyle) Name() string {
	return s.prefix + "<ident>"
}

// WrapperStyle matches a whole line of the form NAME(<ident>). The content
// between the parentheses is taken verbatim.
type WrapperStyle struct {
	name string
	re   *regexp.Regexp
}

func NewWrapperStyle(name string) *WrapperStyle {
	return &WrapperStyle{
		name: name,
		re:   regexp.MustCompile(`^` + regexp.QuoteMeta(name) + `\((.*)\)$`),
	}
}

func (s *WrapperStyle) Find(line string) []string {
	m := s.re.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	return []string{m[1]}
}

func (s *WrapperStyle) Name() string {
	return s.name + "(<ident>)"
}

// FirstMatch tries each style in order and returns the matches of the first
// style that finds anything.
type FirstMatch []TagStyle

func (f FirstMatch) Find(line string) []string {
	for _, s := range f {
		if syms := s.Find(line); len(syms) > 0 {
			return syms
		}
	}
	return nil
}

func (f FirstMatch) Name() string {
	name := ""
	for i, s := range f {
		if i > 0 {
			name += " | "
		}
		name += s.Name()
	}
	return name
}

// TagsFor returns the tagging convention used by a variant.
func TagsFor(v model.Variant) TagStyle {
	if v == model.VariantBare {
		return NewPrefixStyle(QstrPrefix)
	}
	return FirstMatch{NewWrapperStyle("Q"), NewPrefixStyle(QstrPrefix)}
}
