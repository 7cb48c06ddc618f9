package reposync

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestFilesEqual(t *testing.T) {
	dir := t.TempDir()
	a, b, c := filepath.Join(dir, "a"), filepath.Join(dir, "b"), filepath.Join(dir, "c")
	write(t, a, "same\n")
	write(t, b, "same\n")
	write(t, c, "diff\n")

	tests := []struct {
		x, y string
		want bool
	}{
		{a, b, true},
		{a, c, false},
		{a, filepath.Join(dir, "missing"), false},
		{filepath.Join(dir, "missing"), filepath.Join(dir, "missing"), false},
	}
	for _, tt := range tests {
		got, err := FilesEqual(tt.x, tt.y)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s vs %s", tt.x, tt.y)
	}

	write(t, filepath.Join(dir, "long"), "a\nb\n")
	got, err := FilesEqual(a, filepath.Join(dir, "long"))
	require.NoError(t, err)
	assert.False(t, got)
}

func TestSourceFiles(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "obj.c"), "")
	write(t, filepath.Join(dir, "obj.c~"), "")
	write(t, filepath.Join(dir, "asm.S"), "")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	got, err := SourceFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"asm.S", "obj.c"}, got)

	_, err = SourceFiles(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestPairs(t *testing.T) {
	root := t.TempDir()
	d := Dirs{Git: filepath.Join(root, "git"), Lib: filepath.Join(root, "lib"), Repl: filepath.Join(root, "repl")}
	write(t, filepath.Join(d.Git, "py", "obj.c"), "")
	write(t, filepath.Join(d.Git, "py", "obj.h"), "")
	write(t, filepath.Join(d.Git, "py", "nlr.S"), "")

	pairs, err := Pairs(d)
	require.NoError(t, err)

	byGit := map[string]Pair{}
	for _, p := range pairs {
		byGit[p.Git] = p
	}
	assert.Equal(t, filepath.Join(d.Lib, "py", "obj.c"), byGit[filepath.Join(d.Git, "py", "obj.c")].Hg)
	assert.NotContains(t, byGit, filepath.Join(d.Git, "py", "nlr.S"))
	assert.Equal(t, filepath.Join(d.Lib, "lib", "utils", "pyexec.c"), byGit[filepath.Join(d.Git, "lib", "utils", "pyexec.c")].Hg)
	assert.Equal(t, filepath.Join(d.Lib, "modmbed.c"), byGit[filepath.Join(d.Git, "mbed", "modmbed.c")].Hg)
	assert.Equal(t, filepath.Join(d.Lib, "README.md"), byGit[filepath.Join(d.Git, "mbed", "README-mbed.md")].Hg)
	assert.Equal(t, filepath.Join(d.Repl, "main.cpp"), byGit[filepath.Join(d.Git, "mbed", "main.cpp")].Hg)

	gen := byGit[filepath.Join(d.Git, "mbed", "qstrdefscond.h")]
	assert.True(t, gen.GitMaster)
	assert.Equal(t, filepath.Join(d.Lib, "genhdr", "qstrdefs.generated.h"), gen.Hg)
	assert.True(t, byGit[filepath.Join(d.Git, "mbed", "build", "genhdr", "mpversion.h")].GitMaster)

	_, err = Pairs(Dirs{Git: filepath.Join(root, "nowhere")})
	assert.Error(t, err)
}

func TestDirsForBranch(t *testing.T) {
	assert.Equal(t, Dirs{Git: "g", Lib: filepath.Join("hg", "micropython-k64f", "micropython"), Repl: filepath.Join("hg", "micropython-k64f")},
		DirsForBranch("g", "hg", "mbed-k64f"))
	assert.Equal(t, Dirs{Git: "g", Lib: filepath.Join("hg", "micropython-dev"), Repl: filepath.Join("hg", "micropython-repl")},
		DirsForBranch("g", "hg", "master"))
}

func TestParseAction(t *testing.T) {
	for _, a := range []Action{Diff, Rdiff, Pull, Push} {
		got, err := ParseAction(a.String())
		require.NoError(t, err)
		assert.Equal(t, a, got)
	}
	_, err := ParseAction("merge")
	assert.Error(t, err)
}

func TestUnifiedDiff(t *testing.T) {
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a.c"), filepath.Join(dir, "b.c")
	write(t, a, "one\ntwo\nthree\n")
	write(t, b, "one\n2\nthree\n")

	got, err := UnifiedDiff(a, b)
	require.NoError(t, err)
	want := "--- " + a + "\n+++ " + b + "\n@@ -1,3 +1,3 @@\n one\n-two\n+2\n three\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("diff mismatch (-want +got):\n%s", diff)
	}

	got, err = UnifiedDiff(filepath.Join(dir, "missing"), b)
	require.NoError(t, err)
	assert.Equal(t, "--- /dev/null\n+++ "+b+"\n@@ -0,0 +1,3 @@\n+one\n+2\n+three\n", got)

	got, err = UnifiedDiff(a, a)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestColorizer(t *testing.T) {
	diff := "--- a\n+++ b\n@@ -1 +1 @@\n-x\n+y\n"

	var plain bytes.Buffer
	require.NoError(t, NewColorizer(false).Write(&plain, diff))
	assert.Equal(t, diff, plain.String())

	var colored bytes.Buffer
	require.NoError(t, NewColorizer(true).Write(&colored, diff))
	assert.Contains(t, colored.String(), "\x1b[31m-x")
	assert.Contains(t, colored.String(), "\x1b[32m+y")
}

type fixture struct {
	dirs  Dirs
	pairs []Pair
}

// newFixture maps one core file that differs, one that matches, one that is
// missing on the hg side and one generated header.
func newFixture(t *testing.T) fixture {
	t.Helper()
	root := t.TempDir()
	d := Dirs{Git: filepath.Join(root, "git"), Lib: filepath.Join(root, "lib"), Repl: filepath.Join(root, "repl")}
	write(t, filepath.Join(d.Git, "py", "diff.c"), "git\n")
	write(t, filepath.Join(d.Lib, "py", "diff.c"), "hg\n")
	write(t, filepath.Join(d.Git, "py", "same.c"), "same\n")
	write(t, filepath.Join(d.Lib, "py", "same.c"), "same\n")
	write(t, filepath.Join(d.Git, "py", "new.h"), "new\n")
	write(t, filepath.Join(d.Git, "mbed", "qstrdefscond.h"), "gen git\n")
	write(t, filepath.Join(d.Lib, "genhdr", "qstrdefs.generated.h"), "gen hg\n")

	pairs := []Pair{
		{Git: filepath.Join(d.Git, "py", "diff.c"), Hg: filepath.Join(d.Lib, "py", "diff.c")},
		{Git: filepath.Join(d.Git, "py", "same.c"), Hg: filepath.Join(d.Lib, "py", "same.c")},
		{Git: filepath.Join(d.Git, "py", "new.h"), Hg: filepath.Join(d.Lib, "py", "new.h")},
		{Git: filepath.Join(d.Git, "mbed", "qstrdefscond.h"), Hg: filepath.Join(d.Lib, "genhdr", "qstrdefs.generated.h"), GitMaster: true},
	}
	return fixture{dirs: d, pairs: pairs}
}

func TestRunDiff(t *testing.T) {
	f := newFixture(t)
	var out bytes.Buffer
	s := &Syncer{Out: &out, Log: zerolog.Nop()}

	stats, err := s.Run(Diff, f.pairs)
	require.NoError(t, err)
	assert.Equal(t, Stats{Equal: 1, Differ: 3}, stats)

	got := out.String()
	assert.Contains(t, got, "--- "+f.pairs[0].Hg+"\n+++ "+f.pairs[0].Git+"\n")
	assert.Contains(t, got, "-hg\n+git\n")
	assert.Contains(t, got, "--- /dev/null\n+++ "+f.pairs[2].Git+"\n")
	assert.Contains(t, got, "-gen hg\n+gen git\n")

	out.Reset()
	_, err = s.Run(Rdiff, f.pairs)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "-git\n+hg\n")
	assert.Contains(t, out.String(), "+++ /dev/null\n")

	// Diffing never touches the trees.
	assert.Equal(t, "hg\n", read(t, f.pairs[0].Hg))
}

func TestRunPush(t *testing.T) {
	f := newFixture(t)
	stats, err := (&Syncer{Log: zerolog.Nop()}).Run(Push, f.pairs)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Copied)

	for _, p := range f.pairs {
		assert.Equal(t, read(t, p.Git), read(t, p.Hg), p.Hg)
	}
}

func TestRunPullSkipsGenerated(t *testing.T) {
	f := newFixture(t)
	stats, err := (&Syncer{Log: zerolog.Nop()}).Run(Pull, f.pairs)

	// new.h has no hg side to pull from.
	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 1)
	assert.Contains(t, err.Error(), "new.h")

	assert.Equal(t, Stats{Equal: 1, Differ: 2, Copied: 1, Skipped: 1}, stats)
	assert.Equal(t, "hg\n", read(t, f.pairs[0].Git))
	assert.Equal(t, "gen git\n", read(t, f.pairs[3].Git))
}

func TestRunSkipsFilesMissingEverywhere(t *testing.T) {
	dir := t.TempDir()
	pairs := []Pair{{Git: filepath.Join(dir, "git.c"), Hg: filepath.Join(dir, "hg.c")}}
	for _, a := range []Action{Diff, Pull, Push} {
		var out bytes.Buffer
		stats, err := (&Syncer{Out: &out, Log: zerolog.Nop()}).Run(a, pairs)
		require.NoError(t, err, a)
		assert.Equal(t, Stats{Missing: 1}, stats, a)
		assert.Empty(t, out.String())
	}
}

func TestRunLogsCopies(t *testing.T) {
	f := newFixture(t)
	var logs bytes.Buffer
	_, err := (&Syncer{Log: zerolog.New(&logs)}).Run(Push, f.pairs[:1])
	require.NoError(t, err)
	assert.Contains(t, logs.String(), `"message":"copied"`)
	assert.Contains(t, logs.String(), `"to":"`+f.pairs[0].Hg+`"`)
}

func TestCopyFileCreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.c")
	write(t, src, "x\n")
	dst := filepath.Join(dir, "a", "b", "dst.c")

	require.NoError(t, CopyFile(src, dst))
	assert.Equal(t, "x\n", read(t, dst))
}
