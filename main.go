package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"qstrgen/internal/model"
	"qstrgen/internal/qstrdata"
	"qstrgen/internal/scan"
	"qstrgen/internal/synth"
	"qstrgen/internal/tui"
	"qstrgen/internal/web"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/tcnksm/go-latest"
)

func checkUpdate(w io.Writer, currentVer string, explicit bool) {
	githubTag := &latest.GithubTag{
		Owner:      "qstrgen",
		Repository: "qstrgen",
	}

	res, err := latest.Check(githubTag, currentVer)
	if err != nil {
		return // Silently fail
	}

	if res.Outdated {
		fmt.Fprintf(w, "\n✨ A new version is available: %s (you have %s)\n", res.Current, currentVer)
		fmt.Fprintln(w, "👉 Download it from https://github.com/qstrgen/qstrgen/releases")
	} else if explicit {
		fmt.Fprintf(w, "✅ You are using the latest version: %s\n", currentVer)
	}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	bare      bool
	name      string
	bytesHash int
	bytesLen  int
	output    string
	verbose   bool
	report    bool
	json      bool
	tui       bool
	web       bool
	port      int
}

// run is main without the process exit. It returns the exit status.
func run(args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("qstrgen", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: qstrgen [options] FILE...\n\n")
		fmt.Fprintf(stderr, "qstrgen collects the interned-string symbols referenced by C sources\n")
		fmt.Fprintf(stderr, "and writes a symbol table in which each symbol is guarded by the\n")
		fmt.Fprintf(stderr, "preprocessor conditions it was referenced under. Use - for stdin.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  qstrgen py/*.c > qstrdefs.generated.h   # QDEF table with hashes\n")
		fmt.Fprintf(stderr, "  qstrgen -b -o qstr.h a.c b.c           # Q(sym) table\n")
		fmt.Fprintf(stderr, "  qstrgen --report port/*.c              # Which symbol is guarded by what\n")
		fmt.Fprintf(stderr, "  qstrgen --tui port/*.c                 # Browse interactively\n")
	}

	var o options
	fs.BoolVarP(&o.bare, "bare", "b", false, "Bare-marker variant: Q(sym) output, MP_QSTR_ tags only")
	fs.StringVarP(&o.name, "name", "n", "makeqstrcond", "Generator name for the header comment")
	fs.IntVar(&o.bytesHash, "bytes-hash", qstrdata.DefaultBytesInHash, "Hash field width in bytes")
	fs.IntVar(&o.bytesLen, "bytes-len", qstrdata.DefaultBytesInLen, "Length field width in bytes")
	fs.StringVarP(&o.output, "output", "o", "", "Write the table (or report) to the specified file")
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "Trace nesting and recording decisions on stdout")
	fs.BoolVarP(&o.report, "report", "r", false, "Print a per-symbol report instead of the table")
	fs.BoolVarP(&o.json, "json", "j", false, "Output the analysis as JSON")
	fs.BoolVarP(&o.tui, "tui", "t", false, "Browse the symbol table interactively")
	fs.BoolVarP(&o.web, "web", "w", false, "Serve the symbol table on http://localhost:<port>")
	fs.IntVarP(&o.port, "port", "p", 8080, "Web Mode port")
	versionFlag := fs.BoolP("version", "V", false, "Print version information")
	updateFlag := fs.BoolP("update", "u", false, "Check for the latest version")
	helpFlag := fs.BoolP("help", "h", false, "Show this help message")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *helpFlag {
		fs.Usage()
		return 0
	}

	if *versionFlag {
		fmt.Fprintf(stdout, "qstrgen version %s\n", model.Version)
		return 0
	}

	if *updateFlag {
		checkUpdate(stdout, model.Version, true)
		return 0
	}

	files := fs.Args()
	if len(files) == 0 {
		fmt.Fprintln(stderr, "qstrgen: no input files")
		fs.Usage()
		return 2
	}

	variant := model.VariantSchema
	if o.bare {
		variant = model.VariantBare
	}

	var enc *qstrdata.Encoder
	if variant == model.VariantSchema {
		var err error
		enc, err = qstrdata.NewEncoder(o.bytesHash, o.bytesLen)
		if err != nil {
			fmt.Fprintf(stderr, "qstrgen: %v\n", err)
			return 2
		}
	}
	emitter := &synth.Emitter{Variant: variant, Name: o.name, Encoder: enc}

	if o.tui {
		return runTuiMode(stderr, variant, files, emitter)
	}

	log := zerolog.Nop()
	if o.verbose {
		log = zerolog.New(zerolog.ConsoleWriter{
			Out:          stdout,
			NoColor:      true,
			PartsExclude: []string{zerolog.TimestampFieldName, zerolog.LevelFieldName},
		}).Level(zerolog.DebugLevel)
	}

	result, err := synth.Build(variant, files, log)
	if err != nil {
		return fail(stderr, err)
	}

	switch {
	case o.web:
		return runWebMode(stderr, o.port, result, emitter)
	case o.json:
		je := json.NewEncoder(stdout)
		je.SetIndent("", "  ")
		if err := je.Encode(result); err != nil {
			return fail(stderr, err)
		}
		return 0
	case o.report:
		colored := o.output == "" && isTerminal(stdout)
		report := synth.GenerateReport(result, o.verbose, colored)
		return write(stdout, stderr, o.output, []byte(report))
	}

	var buf bytes.Buffer
	if err := emitter.Emit(&buf, result); err != nil {
		return fail(stderr, err)
	}
	return write(stdout, stderr, o.output, buf.Bytes())
}

// fail reports err on stderr and returns the failure status.
func fail(stderr io.Writer, err error) int {
	var nestErr *scan.NestingError
	if errors.As(err, &nestErr) {
		// Already carries file:line.
		fmt.Fprintln(stderr, nestErr.Error())
		return 1
	}
	fmt.Fprintf(stderr, "qstrgen: %v\n", err)
	return 1
}

func write(stdout, stderr io.Writer, path string, data []byte) int {
	if path == "" {
		stdout.Write(data)
		return 0
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fail(stderr, fmt.Errorf("writing %s: %w", path, err))
	}
	return 0
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

func render(emitter *synth.Emitter, result model.AnalysisResult) (string, error) {
	var buf bytes.Buffer
	if err := emitter.Emit(&buf, result); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func runWebMode(stderr io.Writer, port int, result model.AnalysisResult, emitter *synth.Emitter) int {
	output, err := render(emitter, result)
	if err != nil {
		return fail(stderr, err)
	}
	err = web.StartServer(port, web.Payload{
		Result:        result,
		Output:        output,
		Report:        synth.GenerateReport(result, false, false),
		VerboseReport: synth.GenerateReport(result, true, false),
	})
	if err != nil {
		return fail(stderr, err)
	}
	return 0
}

func runTuiMode(stderr io.Writer, variant model.Variant, files []string, emitter *synth.Emitter) int {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		fmt.Fprintln(stderr, "qstrgen: --tui needs a terminal")
		return 2
	}
	load := func() (model.AnalysisResult, string, error) {
		result, err := synth.Build(variant, files, zerolog.Nop())
		if err != nil {
			return result, "", err
		}
		output, err := render(emitter, result)
		return result, output, err
	}
	m := tui.InitialModel(load)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(stderr, "Alas, there's been an error: %v\n", err)
		return 1
	}
	return 0
}
