package model

import "sort"

// Use is everything recorded about one symbol.
type Use struct {
	// Unconditional is set once the symbol has been seen outside any
	// conditional. It never reverts and makes Snapshots irrelevant.
	Unconditional bool
	Snapshots     []Snapshot
	// Sites lists every sighting, conditional or not, in scan order.
	Sites []Site
}

// Outcome reports what Record did with a sighting.
type Outcome int

const (
	// OutcomeUnconditional: the symbol is (now) unconditional.
	OutcomeUnconditional Outcome = iota
	// OutcomeIgnored: conditional sighting of an unconditional symbol.
	OutcomeIgnored
	// OutcomeSnapshot: a copy of the nest was appended.
	OutcomeSnapshot
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUnconditional:
		return "unconditional"
	case OutcomeIgnored:
		return "ignored"
	case OutcomeSnapshot:
		return "snapshot"
	}
	return "unknown"
}

// Table accumulates symbol uses across every scanned file of one run.
type Table struct {
	uses map[string]*Use
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{uses: make(map[string]*Use)}
}

// Record notes one reference to sym made while nest was open. The live nest
// is copied here; callers pass the tracker's stack as is.
func (t *Table) Record(sym string, nest Nest, site Site) Outcome {
	u, ok := t.uses[sym]
	if !ok {
		u = &Use{}
		t.uses[sym] = u
	}
	u.Sites = append(u.Sites, site)

	if len(nest) == 0 {
		u.Unconditional = true
		u.Snapshots = nil
		return OutcomeUnconditional
	}
	if u.Unconditional {
		return OutcomeIgnored
	}
	u.Snapshots = append(u.Snapshots, Snapshot{Nest: nest.Clone(), Site: site})
	return OutcomeSnapshot
}

// Lookup returns the recorded use of sym.
func (t *Table) Lookup(sym string) (*Use, bool) {
	u, ok := t.uses[sym]
	return u, ok
}

// Symbols returns every recorded symbol in ascending byte order.
func (t *Table) Symbols() []string {
	syms := make([]string, 0, len(t.uses))
	for s := range t.uses {
		syms = append(syms, s)
	}
	sort.Strings(syms)
	return syms
}

func (t *Table) Len() int {
	return len(t.uses)
}
