package scan

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	ifRe    = regexp.MustCompile(`^\s*#\s*(if|ifdef|ifndef)\s+(.*)$`)
	elifRe  = regexp.MustCompile(`^\s*#\s*elif\s+(.*)`)
	endifRe = regexp.MustCompile(`^\s*#\s*endif\b`)
)

// DirectiveKind classifies a logical line.
type DirectiveKind int

const (
	NotDirective DirectiveKind = iota
	DirIf
	DirElif
	DirEndif
)

func (k DirectiveKind) String() string {
	switch k {
	case DirIf:
		return "#if"
	case DirElif:
		return "#elif"
	case DirEndif:
		return "#endif"
	}
	return "text"
}

// Directive is a recognised conditional directive with its condition
// normalised: #ifdef X becomes defined(X) and #ifndef X becomes !defined(X).
type Directive struct {
	Kind DirectiveKind
	Cond string
}

// ParseDirective recognises #if, #ifdef, #ifndef, #elif and #endif. Anything
// else, #else and #define included, is reported as NotDirective.
func ParseDirective(line string) Directive {
	if m := ifRe.FindStringSubmatch(line); m != nil {
		cond := strings.TrimRightFunc(m[2], unicode.IsSpace)
		switch m[1] {
		case "ifdef":
			cond = "defined(" + cond + ")"
		case "ifndef":
			cond = "!defined(" + cond + ")"
		}
		return Directive{Kind: DirIf, Cond: cond}
	}
	if m := elifRe.FindStringSubmatch(line); m != nil {
		return Directive{Kind: DirElif, Cond: strings.TrimRightFunc(m[1], unicode.IsSpace)}
	}
	if endifRe.MatchString(line) {
		return Directive{Kind: DirEndif}
	}
	return Directive{}
}
