package model

import (
	"strconv"
	"strings"
)

// Group is one #if together with the #elif siblings collected after it, in
// the order they were seen. The last member is the branch being traversed.
type Group []string

// Nest is the stack of open groups at a scan position, outermost first.
type Nest []Group

// Clone returns a deep copy of the nest. Snapshots must never share backing
// arrays with the live stack, which keeps growing and shrinking.
func (n Nest) Clone() Nest {
	if len(n) == 0 {
		return nil
	}
	c := make(Nest, len(n))
	for i, g := range n {
		c[i] = append(Group(nil), g...)
	}
	return c
}

// String renders the nest as [["A || B", "C"], ["D"]] for trace output.
func (n Nest) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, g := range n {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(g.String())
	}
	b.WriteByte(']')
	return b.String()
}

func (g Group) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, c := range g {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Quote(c))
	}
	b.WriteByte(']')
	return b.String()
}

// Site locates a symbol reference in the input.
type Site struct {
	File string `json:"file"`
	Line int    `json:"line"`
}

func (s Site) String() string {
	return s.File + ":" + strconv.Itoa(s.Line)
}

// Snapshot is the nesting in force at one conditional reference.
type Snapshot struct {
	Nest Nest `json:"nest"`
	Site Site `json:"site"`
}
