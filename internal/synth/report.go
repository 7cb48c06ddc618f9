package synth

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"qstrgen/internal/model"
)

// GenerateReport renders a human-readable summary of the table. verbose adds
// the source sites of every symbol.
func GenerateReport(result model.AnalysisResult, verbose, colored bool) string {
	heading := color.New(color.Bold, color.FgCyan)
	guard := color.New(color.FgYellow)
	dim := color.New(color.Faint)
	for _, c := range []*color.Color{heading, guard, dim} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	var b strings.Builder
	b.WriteString(heading.Sprintf("qstr table report (%s variant)", result.Variant))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Files scanned: %d\n", len(result.Files))
	for _, f := range result.Files {
		fmt.Fprintf(&b, "  - %s\n", f)
	}

	var uncond, guarded, multi int
	for _, e := range result.Entries {
		switch {
		case e.Unconditional:
			uncond++
		case len(e.Guards) > 1:
			multi++
			guarded++
		default:
			guarded++
		}
	}
	fmt.Fprintf(&b, "Symbols: %d (%d unconditional, %d guarded, %d with several branches)\n\n",
		len(result.Entries), uncond, guarded, multi)

	width := 0
	for _, e := range result.Entries {
		if len(e.Name) > width {
			width = len(e.Name)
		}
	}

	for i, e := range result.Entries {
		fmt.Fprintf(&b, "%4d. %s %-*s  ", i+1, Icon(e), width, e.Name)
		switch {
		case e.Unconditional:
			b.WriteString(dim.Sprint("unconditional"))
			b.WriteByte('\n')
		case len(e.Guards) == 1:
			b.WriteString(guard.Sprintf("#if %s", e.Guards[0]))
			b.WriteByte('\n')
		default:
			fmt.Fprintf(&b, "%d branches\n", len(e.Guards))
			for j, g := range e.Guards {
				d := "#elif"
				if j == 0 {
					d = "#if"
				}
				fmt.Fprintf(&b, "        %s\n", guard.Sprintf("%s %s", d, g))
			}
		}
		if verbose {
			if e.Ident != e.Name {
				fmt.Fprintf(&b, "        ident: MP_QSTR_%s\n", e.Ident)
			}
			for _, s := range e.Sites {
				fmt.Fprintf(&b, "        %s %s\n", model.IconSite, dim.Sprint(s.String()))
			}
		}
	}

	if len(result.Diagnostics) > 0 {
		b.WriteString("\n")
		b.WriteString(heading.Sprint("Diagnostics"))
		b.WriteString("\n")
		for _, d := range result.Diagnostics {
			fmt.Fprintf(&b, "  - %s\n", d)
		}
	}
	return b.String()
}

// Icon classifies an entry for list displays.
func Icon(e model.Entry) string {
	switch {
	case e.Unconditional:
		return model.IconUnconditional
	case len(e.Guards) > 1:
		return model.IconMultiGuard
	default:
		return model.IconGuarded
	}
}
