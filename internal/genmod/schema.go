// Package genmod generates the boilerplate that exposes C++ classes and
// functions as a MicroPython module: a C header, the C module definition
// and the C++ glue that converts arguments and results.
package genmod

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Module is the root of a module description file.
type Module struct {
	Name     string    `yaml:"name"`
	Include  []string  `yaml:"include"` // C++ includes, e.g. '"mbed.h"'
	Sections []Section `yaml:"sections"`
}

// Section groups functions and classes under one optional condition.
type Section struct {
	Condition string            `yaml:"condition"`
	CInclude  []string          `yaml:"cinclude"`
	Functions map[string]Method `yaml:"functions"`
	Classes   map[string]Class  `yaml:"classes"`
	Constants map[string]string `yaml:"constants"` // name -> type
}

type Class struct {
	Condition string            `yaml:"condition"`
	Args      []Arg             `yaml:"args"` // constructor
	Methods   map[string]Method `yaml:"methods"`
	Constants map[string]string `yaml:"constants"`
}

// Method is a module function or a class method.
type Method struct {
	Condition string   `yaml:"condition"`
	Args      []Arg    `yaml:"args"`
	Ret       string   `yaml:"ret"`
	Code      []string `yaml:"code"` // verbatim body, replaces the generated call
}

// Arg is one argument. It is written either as "name type?opt=val;opt=val"
// or as a mapping with the keys name, type, default, cast and cpparg.
type Arg struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Default string `yaml:"default"`
	Cast    string `yaml:"cast"`
	CppArg  string `yaml:"cpparg"` // expression passed to C++, overrides Cast
}

// ArgSpecError reports an argument string that is not "name type[?opts]".
type ArgSpecError struct {
	Spec string
}

func (e *ArgSpecError) Error() string {
	return fmt.Sprintf("malformed argument %q: want \"name type[?opt=val;...]\"", e.Spec)
}

// ParseArg parses the compact argument form.
func ParseArg(spec string) (Arg, error) {
	fields := strings.Fields(spec)
	if len(fields) != 2 {
		return Arg{}, &ArgSpecError{Spec: spec}
	}
	typ, opts, _ := strings.Cut(fields[1], "?")
	a := Arg{Name: fields[0], Type: typ}
	if typ == "" {
		return Arg{}, &ArgSpecError{Spec: spec}
	}
	for _, opt := range strings.Split(opts, ";") {
		k, v, _ := strings.Cut(opt, "=")
		switch k {
		case "default":
			a.Default = v
		case "cast":
			a.Cast = v
		case "cpparg":
			a.CppArg = v
		}
	}
	return a, nil
}

func (a *Arg) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		parsed, err := ParseArg(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*a = parsed
		return nil
	}
	type plain Arg
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	if p.Name == "" || p.Type == "" {
		return fmt.Errorf("line %d: argument needs name and type", node.Line)
	}
	*a = Arg(p)
	return nil
}

// Optional reports whether the argument may be omitted by the caller.
func (a Arg) Optional() bool {
	return a.Default != ""
}

// Expr is the expression handed to the C++ call.
func (a Arg) Expr() string {
	switch {
	case a.CppArg != "":
		return a.CppArg
	case a.Type == "buffer":
		return a.Name + ".buf, " + a.Name + ".len"
	case a.Cast != "":
		return "(" + a.Cast + ")" + a.Name
	}
	return a.Name
}

// Load decodes and validates a module description.
func Load(r io.Reader) (*Module, error) {
	var m Module
	if err := yaml.NewDecoder(r).Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty module description")
		}
		return nil, err
	}
	if m.Name == "" {
		return nil, errors.New("module description has no name")
	}
	return &m, nil
}

func sortedKeys[V any](m map[string]V) []string {
	var keys []string
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
