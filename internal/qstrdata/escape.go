package qstrdata

import (
	"fmt"
	"strings"
)

var charNames = map[rune]string{
	'-':  "hyphen",
	' ':  "space",
	'\'': "squot",
	',':  "comma",
	'.':  "dot",
	':':  "colon",
	';':  "semicolon",
	'/':  "slash",
	'%':  "percent",
	'#':  "hash",
	'(':  "paren_open",
	')':  "paren_close",
	'[':  "bracket_open",
	']':  "bracket_close",
	'{':  "brace_open",
	'}':  "brace_close",
	'*':  "star",
	'!':  "bang",
	'\\': "backslash",
	'+':  "plus",
	'$':  "dollar",
	'=':  "equals",
	'?':  "question",
	'@':  "at_sign",
	'^':  "caret",
	'|':  "pipe",
	'~':  "tilde",
	'&':  "amp",
	'<':  "lt",
	'>':  "gt",
	'"':  "quot",
}

// Escape turns a string into a valid C identifier suffix for MP_QSTR_.
// Every character outside [A-Za-z0-9_] becomes _name_, using a readable name
// where one is defined and the hex code point otherwise.
func Escape(s string) string {
	var b strings.Builder
	for _, r := range s {
		if isIdentChar(r) {
			b.WriteRune(r)
			continue
		}
		name, ok := charNames[r]
		if !ok {
			name = fmt.Sprintf("0x%02x", r)
		}
		b.WriteByte('_')
		b.WriteString(name)
		b.WriteByte('_')
	}
	return b.String()
}

func isIdentChar(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}
