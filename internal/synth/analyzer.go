package synth

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"qstrgen/internal/model"
	"qstrgen/internal/qstrdata"
)

// NullName is the symbol of the fixed first record in the schema variant.
const NullName = "NULL"

// Analyzer turns the accumulated table into per-symbol guard chains.
type Analyzer struct {
	variant model.Variant
	log     zerolog.Logger
}

func NewAnalyzer(variant model.Variant, log zerolog.Logger) *Analyzer {
	return &Analyzer{variant: variant, log: log}
}

// Analyze synthesizes one entry per symbol, ordered by output identifier.
func (a *Analyzer) Analyze(table *model.Table, files []string) model.AnalysisResult {
	result := model.AnalysisResult{
		Variant: a.variant.String(),
		Files:   append([]string(nil), files...),
	}

	// Output identifier -> raw symbol.
	idents := make(map[string]string, table.Len())
	for _, sym := range table.Symbols() {
		ident := sym
		if a.variant == model.VariantSchema {
			if sym == NullName {
				result.Diagnostics = append(result.Diagnostics,
					"NULL is always emitted first; input references were folded into it")
				continue
			}
			ident = qstrdata.Escape(sym)
		}
		if prev, ok := idents[ident]; ok {
			result.Diagnostics = append(result.Diagnostics, fmt.Sprintf(
				"%q and %q both escape to MP_QSTR_%s; keeping %q", prev, sym, ident, prev))
			continue
		}
		idents[ident] = sym
	}

	keys := make([]string, 0, len(idents))
	for ident := range idents {
		keys = append(keys, ident)
	}
	sort.Strings(keys)

	a.log.Debug().Msg("// ---------------------")
	for _, ident := range keys {
		sym := idents[ident]
		use, _ := table.Lookup(sym)
		entry := model.Entry{
			Name:          sym,
			Ident:         ident,
			Unconditional: use.Unconditional,
			Sites:         append([]model.Site(nil), use.Sites...),
		}
		if !use.Unconditional {
			a.log.Debug().Msgf("// uses: %s", sym)
			for _, snap := range use.Snapshots {
				a.log.Debug().Msgf("//     nest: %s", snap.Nest)
				entry.Guards = append(entry.Guards, Guard(snap.Nest))
			}
		}
		result.Entries = append(result.Entries, entry)
	}
	return result
}

// Guard builds the flat condition for one snapshot. Within each group the
// last condition is the branch that was being traversed and every earlier
// one must have failed: !(c1) && ... && (cn). Groups are conjoined outermost
// first.
func Guard(nest model.Nest) string {
	var conds []string
	for _, g := range nest {
		if len(g) == 0 {
			continue
		}
		for _, c := range g[:len(g)-1] {
			conds = append(conds, "!("+c+")")
		}
		conds = append(conds, "("+g[len(g)-1]+")")
	}
	return strings.Join(conds, " && ")
}
