// Package reposync keeps a port's files in step between its git working
// tree and the separate Mercurial repositories that publish them.
package reposync

import (
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
)

// Dirs locates the three trees being synchronized.
type Dirs struct {
	Git  string // git working tree (the reference side)
	Lib  string // hg library repository
	Repl string // hg REPL application repository
}

// Pair maps one git file to its hg counterpart.
type Pair struct {
	Git string
	Hg  string
	// GitMaster marks files generated in the git tree. They are never
	// pulled back from hg.
	GitMaster bool
}

var (
	extmodFiles = []string{
		"machine_mem.h",
		"machine_mem.c",
	}

	libFiles = []string{
		"utils/pyexec.h",
		"utils/pyexec.c",
		"utils/pyhelp.h",
		"utils/pyhelp.c",
		"utils/printf.c",
		"mp-readline/readline.h",
		"mp-readline/readline.c",
	}

	portLibFiles = []string{
		"modmachine.c",
		"modmbed.c",
		"modmbed_i.cpp",
		"modmbed_i.h",
		"modpins.c",
		"modk64f.c",
		"mreg.h",
		"mreg.c",
		"mpconfigport.h",
		"mphalport.c",
		"mphalport.h",
		"qstrdefsport.h",
		"unistd.h",
	}

	portReplFiles = []string{
		"main.cpp",
		"help.c",
	}

	// git name -> hg name
	renamedLibFiles = [][2]string{
		{"README-mbed.md", "README.md"},
	}

	generatedFiles = [][2]string{
		{"mbedpins.h", "mbedpins.h"},
		{"qstrdefscond.h", "genhdr/qstrdefs.generated.h"},
		{"build/genhdr/mpversion.h", "genhdr/mpversion.h"},
	}
)

// join builds a clean path from slash-separated parts.
func join(root string, parts ...string) string {
	elems := []string{root}
	for _, p := range parts {
		elems = append(elems, strings.Split(p, "/")...)
	}
	return filepath.Clean(filepath.Join(elems...))
}

// SourceFiles lists the regular files in dir, skipping editor backups
// ending in ~. Names are sorted.
func SourceFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasSuffix(e.Name(), "~") {
			continue
		}
		names = append(names, e.Name())
	}
	slices.Sort(names)
	return names, nil
}

// Pairs returns every file mapped between the trees: the portable core
// (.c and .h in py/, assembler sources are port specific), extmod and lib
// files, the port's library and REPL files, and the generated headers.
func Pairs(d Dirs) ([]Pair, error) {
	var pairs []Pair

	core, err := SourceFiles(join(d.Git, "py"))
	if err != nil {
		return nil, err
	}
	for _, f := range core {
		if strings.HasSuffix(f, ".c") || strings.HasSuffix(f, ".h") {
			pairs = append(pairs, Pair{Git: join(d.Git, "py", f), Hg: join(d.Lib, "py", f)})
		}
	}
	for _, f := range extmodFiles {
		pairs = append(pairs, Pair{Git: join(d.Git, "extmod", f), Hg: join(d.Lib, "extmod", f)})
	}
	for _, f := range libFiles {
		pairs = append(pairs, Pair{Git: join(d.Git, "lib", f), Hg: join(d.Lib, "lib", f)})
	}
	for _, f := range portLibFiles {
		pairs = append(pairs, Pair{Git: join(d.Git, "mbed", f), Hg: join(d.Lib, f)})
	}
	for _, f := range renamedLibFiles {
		pairs = append(pairs, Pair{Git: join(d.Git, "mbed", f[0]), Hg: join(d.Lib, f[1])})
	}
	for _, f := range portReplFiles {
		pairs = append(pairs, Pair{Git: join(d.Git, "mbed", f), Hg: join(d.Repl, f)})
	}
	for _, f := range generatedFiles {
		pairs = append(pairs, Pair{Git: join(d.Git, "mbed", f[0]), Hg: join(d.Lib, f[1]), GitMaster: true})
	}
	return pairs, nil
}

// BranchPrefix marks git branches that each have their own hg repository.
const BranchPrefix = "mbed-"

// DirsForBranch derives the hg repositories under hgParent. A branch named
// mbed-<x> uses micropython-<x> with its library in a micropython/
// subdirectory; any other branch uses micropython-dev and micropython-repl.
func DirsForBranch(gitDir, hgParent, branch string) Dirs {
	if sub, ok := strings.CutPrefix(branch, BranchPrefix); ok {
		repl := filepath.Join(hgParent, "micropython-"+sub)
		return Dirs{Git: gitDir, Lib: filepath.Join(repl, "micropython"), Repl: repl}
	}
	return Dirs{
		Git:  gitDir,
		Lib:  filepath.Join(hgParent, "micropython-dev"),
		Repl: filepath.Join(hgParent, "micropython-repl"),
	}
}

// CurrentBranch asks git for the branch checked out in gitDir.
func CurrentBranch(gitDir string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "--abbrev-ref", "HEAD")
	cmd.Dir = gitDir
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
