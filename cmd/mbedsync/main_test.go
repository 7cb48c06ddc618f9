package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type trees struct {
	git, lib, repl string
}

func setup(t *testing.T) trees {
	t.Helper()
	root := t.TempDir()
	tr := trees{filepath.Join(root, "git"), filepath.Join(root, "lib"), filepath.Join(root, "repl")}
	for path, content := range map[string]string{
		filepath.Join(tr.git, "py", "obj.c"):      "git\n",
		filepath.Join(tr.lib, "py", "obj.c"):      "hg\n",
		filepath.Join(tr.git, "mbed", "main.cpp"): "int main;\n",
	} {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return tr
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(viper.New(), &stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func (tr trees) flags() []string {
	return []string{"--git-dir", tr.git, "--lib-dir", tr.lib, "--repl-dir", tr.repl}
}

func TestDiff(t *testing.T) {
	tr := setup(t)
	stdout, _, err := execute(t, append([]string{"diff"}, tr.flags()...)...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "--- "+filepath.Join(tr.lib, "py", "obj.c")+"\n")
	assert.Contains(t, stdout, "-hg\n+git\n")
	assert.Contains(t, stdout, "--- /dev/null\n+++ "+filepath.Join(tr.git, "mbed", "main.cpp")+"\n")
	assert.NotContains(t, stdout, "\x1b[", "no color when not writing to a terminal")
}

func TestPush(t *testing.T) {
	tr := setup(t)
	_, stderr, err := execute(t, append([]string{"push", "-v"}, tr.flags()...)...)
	require.NoError(t, err)
	assert.Contains(t, stderr, "copied")

	data, err := os.ReadFile(filepath.Join(tr.repl, "main.cpp"))
	require.NoError(t, err)
	assert.Equal(t, "int main;\n", string(data))
	data, err = os.ReadFile(filepath.Join(tr.lib, "py", "obj.c"))
	require.NoError(t, err)
	assert.Equal(t, "git\n", string(data))
}

func TestPullReportsMissingFiles(t *testing.T) {
	tr := setup(t)
	_, _, err := execute(t, append([]string{"pull"}, tr.flags()...)...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "main.cpp")

	// The other files are still pulled.
	data, rerr := os.ReadFile(filepath.Join(tr.git, "py", "obj.c"))
	require.NoError(t, rerr)
	assert.Equal(t, "hg\n", string(data))
}

func TestEnvironment(t *testing.T) {
	tr := setup(t)
	t.Setenv("MBEDSYNC_LIB_DIR", tr.lib)
	t.Setenv("MBEDSYNC_REPL_DIR", tr.repl)
	stdout, _, err := execute(t, "rdiff", "--git-dir", tr.git)
	require.NoError(t, err)
	assert.Contains(t, stdout, "-git\n+hg\n")
}

func TestConfigFile(t *testing.T) {
	tr := setup(t)
	cfg := filepath.Join(t.TempDir(), "sync.yaml")
	content := "git-dir: " + tr.git + "\nlib-dir: " + tr.lib + "\nrepl-dir: " + tr.repl + "\n"
	require.NoError(t, os.WriteFile(cfg, []byte(content), 0o644))

	stdout, _, err := execute(t, "diff", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, stdout, "-hg\n+git\n")

	_, _, err = execute(t, "diff", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDerivedDirs(t *testing.T) {
	tr := setup(t)
	parent := t.TempDir()
	// The temp git dir is not a repository, so the default layout is used.
	_, _, err := execute(t, "push", "--git-dir", tr.git, "--hg-parent", parent)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(parent, "micropython-dev", "py", "obj.c"))
	assert.FileExists(t, filepath.Join(parent, "micropython-repl", "main.cpp"))
}

func TestUsageErrors(t *testing.T) {
	_, _, err := execute(t, "merge")
	assert.Error(t, err)
	_, _, err = execute(t, "diff", "extra")
	assert.Error(t, err)
	_, _, err = execute(t, "diff", "--git-dir", filepath.Join(t.TempDir(), "nowhere"))
	assert.Error(t, err)
}
