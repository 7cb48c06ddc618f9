package model

// Entry is the synthesized output for one symbol.
type Entry struct {
	Name          string   `json:"name"`  // raw identifier as found in the source
	Ident         string   `json:"ident"` // identifier used in the output (and for ordering)
	Unconditional bool     `json:"unconditional"`
	Guards        []string `json:"guards,omitempty"` // one per snapshot, #if first then #elif
	Sites         []Site   `json:"sites"`
}

// AnalysisResult is the whole synthesized table.
type AnalysisResult struct {
	Variant     string   `json:"variant"`
	Files       []string `json:"files"`
	Entries     []Entry  `json:"entries"`
	Diagnostics []string `json:"diagnostics,omitempty"`
}

// Find returns the entry for the raw symbol name.
func (r AnalysisResult) Find(name string) (Entry, bool) {
	for _, e := range r.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}
