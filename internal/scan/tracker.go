package scan

import "qstrgen/internal/model"

// Tracker maintains the stack of open condition groups.
type Tracker struct {
	nest   model.Nest
	opened []int // line of the #if that opened each group
}

// Apply updates the stack for a directive found at file:line.
func (t *Tracker) Apply(d Directive, file string, line int) error {
	switch d.Kind {
	case DirIf:
		t.nest = append(t.nest, model.Group{d.Cond})
		t.opened = append(t.opened, line)
	case DirElif:
		if len(t.nest) == 0 {
			return &NestingError{File: file, Line: line, Directive: DirElif}
		}
		top := len(t.nest) - 1
		t.nest[top] = append(t.nest[top], d.Cond)
	case DirEndif:
		if len(t.nest) == 0 {
			return &NestingError{File: file, Line: line, Directive: DirEndif}
		}
		top := len(t.nest) - 1
		t.nest[top] = nil
		t.nest = t.nest[:top]
		t.opened = t.opened[:top]
	}
	return nil
}

// Nest returns the live stack. It is only valid until the next Apply; use
// Clone to keep it.
func (t *Tracker) Nest() model.Nest {
	return t.nest
}

func (t *Tracker) Depth() int {
	return len(t.nest)
}

// Finish checks that every group opened in file was closed and resets the
// tracker for the next file.
func (t *Tracker) Finish(file string) error {
	defer t.Reset()
	if len(t.nest) != 0 {
		return &NestingError{
			File:      file,
			Line:      t.opened[len(t.opened)-1],
			Directive: DirIf,
			Unclosed:  true,
		}
	}
	return nil
}

func (t *Tracker) Reset() {
	t.nest = nil
	t.opened = nil
}
