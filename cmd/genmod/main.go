// Command genmod generates MicroPython module boilerplate for wrapping C++
// classes from a YAML description.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"qstrgen/internal/genmod"
	"qstrgen/internal/model"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("genmod", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: genmod [-a|-H|-m|-i] [-o DIR] FILE.yaml\n\n")
		fmt.Fprintf(stderr, "genmod writes the C header, C module and C++ glue that expose C++\n")
		fmt.Fprintf(stderr, "classes and functions as a MicroPython module.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
	}

	all := fs.BoolP("all", "a", false, "Write mod<name>_i.h, mod<name>_i.cpp and mod<name>.c into the output directory")
	header := fs.BoolP("header", "H", false, "Print the header to stdout")
	module := fs.BoolP("module", "m", false, "Print the C module to stdout")
	impl := fs.BoolP("implementation", "i", false, "Print the C++ implementation to stdout")
	dir := fs.StringP("output", "o", ".", "Output directory for --all")
	quiet := fs.BoolP("quiet", "q", false, "Suppress warnings")
	versionFlag := fs.BoolP("version", "V", false, "Print version information")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *versionFlag {
		fmt.Fprintf(stdout, "genmod version %s\n", model.Version)
		return 0
	}

	modes := 0
	for _, set := range []bool{*all, *header, *module, *impl} {
		if set {
			modes++
		}
	}
	if fs.NArg() != 1 || modes != 1 {
		fs.Usage()
		return 2
	}
	path := fs.Arg(0)

	log := zerolog.New(zerolog.ConsoleWriter{Out: stderr, NoColor: true, PartsExclude: []string{zerolog.TimestampFieldName}}).
		Level(zerolog.InfoLevel)
	if *quiet {
		log = log.Level(zerolog.ErrorLevel)
	}

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(stderr, "genmod: %v\n", err)
		return 1
	}
	defer f.Close()

	m, err := genmod.Load(f)
	if err != nil {
		fmt.Fprintf(stderr, "genmod: %s: %v\n", path, err)
		return 1
	}

	g := &genmod.Gen{Source: path, Log: log}
	switch {
	case *all:
		err = g.WriteAll(*dir, m)
	case *header:
		err = g.Header(stdout, m)
	case *module:
		err = g.CModule(stdout, m)
	case *impl:
		err = g.Implementation(stdout, m)
	}
	if err != nil {
		fmt.Fprintf(stderr, "genmod: %v\n", err)
		return 1
	}
	return 0
}
