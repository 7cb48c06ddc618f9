package scan

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qstrgen/internal/model"
)

func lines(a ...string) string {
	return strings.Join(a, "\n") + "\n"
}

func scanStrings(t *testing.T, v model.Variant, files ...string) (*model.Table, error) {
	t.Helper()
	tab := model.NewTable()
	s := NewScanner(tab, TagsFor(v), zerolog.Nop())
	for i, content := range files {
		name := filepath.Join("src", string(rune('a'+i))+".c")
		if err := s.Scan(name, strings.NewReader(content)); err != nil {
			return tab, err
		}
	}
	return tab, nil
}

func nests(u *model.Use) []model.Nest {
	var out []model.Nest
	for _, s := range u.Snapshots {
		out = append(out, s.Nest)
	}
	return out
}

// The nesting example from the qstr generator documentation.
var nestedSource = lines(
	"#if A || B",
	"  MP_QSTR_ab",
	"#elif C",
	"  MP_QSTR_c",
	"  #if D",
	"    MP_QSTR_d",
	"  #elif E",
	"    MP_QSTR_e",
	"  #endif",
	"  #if F",
	"    #if G",
	"      MP_QSTR_e",
	"    #endif",
	"  #endif",
	"#endif",
	"#if F",
	"  MP_QSTR_e",
	"#endif",
)

func TestScanNested(t *testing.T) {
	tab, err := scanStrings(t, model.VariantBare, nestedSource)
	require.NoError(t, err)

	u, ok := tab.Lookup("e")
	require.True(t, ok)
	assert.False(t, u.Unconditional)
	assert.Equal(t, []model.Nest{
		{{"A || B", "C"}, {"D", "E"}},
		{{"A || B", "C"}, {"F"}, {"G"}},
		{{"F"}},
	}, nests(u))
	assert.Equal(t, []model.Site{
		{File: "src/a.c", Line: 8},
		{File: "src/a.c", Line: 12},
		{File: "src/a.c", Line: 17},
	}, u.Sites)

	u, _ = tab.Lookup("ab")
	assert.Equal(t, []model.Nest{{{"A || B"}}}, nests(u))

	u, _ = tab.Lookup("d")
	assert.Equal(t, []model.Nest{{{"A || B", "C"}, {"D"}}}, nests(u))

	assert.Equal(t, []string{"ab", "c", "d", "e"}, tab.Symbols())
}

func TestScanSnapshotKeepsBranchSeen(t *testing.T) {
	// x is referenced under B; the group later gains C. The snapshot must
	// still end at B.
	tab, err := scanStrings(t, model.VariantBare, lines(
		"#if A",
		"#elif B",
		"MP_QSTR_x",
		"#elif C",
		"MP_QSTR_y",
		"#endif",
	))
	require.NoError(t, err)

	u, _ := tab.Lookup("x")
	assert.Equal(t, []model.Nest{{{"A", "B"}}}, nests(u))
	u, _ = tab.Lookup("y")
	assert.Equal(t, []model.Nest{{{"A", "B", "C"}}}, nests(u))
}

func TestScanUnconditional(t *testing.T) {
	tab, err := scanStrings(t, model.VariantBare,
		lines("#if A", "MP_QSTR_x", "#endif", "MP_QSTR_x", "#if B", "MP_QSTR_x", "#endif"),
	)
	require.NoError(t, err)
	u, _ := tab.Lookup("x")
	assert.True(t, u.Unconditional)
	assert.Empty(t, u.Snapshots)
}

func TestScanStateThreadsAcrossFiles(t *testing.T) {
	a := lines("#ifdef X", "MP_QSTR_x MP_QSTR_y", "#endif")
	b := lines("MP_QSTR_x")

	for _, order := range [][]string{{a, b}, {b, a}} {
		tab, err := scanStrings(t, model.VariantBare, order...)
		require.NoError(t, err)

		x, _ := tab.Lookup("x")
		assert.True(t, x.Unconditional)
		y, _ := tab.Lookup("y")
		assert.False(t, y.Unconditional)
		assert.Equal(t, []model.Nest{{{"defined(X)"}}}, nests(y))
	}
}

func TestScanWrapperLines(t *testing.T) {
	tab, err := scanStrings(t, model.VariantSchema, lines(
		"Q(__name__)",
		"#if MICROPY_PY_BUILTINS_SET",
		"Q(set)",
		"#endif",
		"Q(+)",
	))
	require.NoError(t, err)
	assert.Equal(t, []string{"+", "__name__", "set"}, tab.Symbols())
	u, _ := tab.Lookup("set")
	assert.Equal(t, []model.Nest{{{"MICROPY_PY_BUILTINS_SET"}}}, nests(u))
}

func TestScanContinuedDirective(t *testing.T) {
	tab, err := scanStrings(t, model.VariantBare, lines(
		"#if defined(A) \\",
		"   || defined(B)",
		"MP_QSTR_x",
		"#endif",
	))
	require.NoError(t, err)
	u, _ := tab.Lookup("x")
	assert.Equal(t, []model.Nest{{{"defined(A)    || defined(B)"}}}, nests(u))
	assert.Equal(t, 3, u.Sites[0].Line)
}

func TestScanNestingErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		line   int
		kind   DirectiveKind
		unclos bool
		msg    string
	}{
		{
			"stray endif",
			lines("MP_QSTR_a", "", "#endif"),
			3, DirEndif, false,
			"src/a.c:3: Nesting error (#endif without #if)",
		},
		{
			"stray elif",
			lines("#elif X"),
			1, DirElif, false,
			"src/a.c:1: Nesting error (#elif without #if)",
		},
		{
			"one endif too many",
			lines("#if A", "#endif", "#endif"),
			3, DirEndif, false,
			"src/a.c:3: Nesting error (#endif without #if)",
		},
		{
			"unclosed if",
			lines("#if A", "#if B", "#endif"),
			1, DirIf, true,
			"src/a.c:1: Nesting error (unclosed #if)",
		},
		{
			"line numbers count physical lines",
			lines("#if A \\", "  && B", "#endif", "#endif"),
			4, DirEndif, false,
			"src/a.c:4: Nesting error (#endif without #if)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := scanStrings(t, model.VariantBare, tt.input)
			require.Error(t, err)
			var nerr *NestingError
			require.True(t, errors.As(err, &nerr))
			assert.Equal(t, "src/a.c", nerr.File)
			assert.Equal(t, tt.line, nerr.Line)
			assert.Equal(t, tt.kind, nerr.Directive)
			assert.Equal(t, tt.unclos, nerr.Unclosed)
			assert.Equal(t, tt.msg, err.Error())
		})
	}
}

func TestScanBalancedLeavesEmptyStack(t *testing.T) {
	tab := model.NewTable()
	s := NewScanner(tab, TagsFor(model.VariantBare), zerolog.Nop())
	require.NoError(t, s.Scan("a.c", strings.NewReader(nestedSource)))
	assert.Equal(t, 0, s.tracker.Depth())
	// A second file starts with a clean stack.
	require.NoError(t, s.Scan("b.c", strings.NewReader("MP_QSTR_z\n")))
	u, _ := tab.Lookup("z")
	assert.True(t, u.Unconditional)
	assert.Equal(t, []string{"a.c", "b.c"}, s.Files())
}

func TestScanVerboseTrace(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)
	s := NewScanner(model.NewTable(), TagsFor(model.VariantBare), log)
	require.NoError(t, s.Scan("a.c", strings.NewReader(lines("#if A", "MP_QSTR_x", "#endif"))))

	out := buf.String()
	assert.Contains(t, out, `"message":"#if A"`)
	assert.Contains(t, out, `"message":"@@ [[\"A\"]]"`)
	assert.Contains(t, out, `"use":"snapshot"`)
	assert.Contains(t, out, `"message":"Q(x)"`)
}

func TestScanFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.c")
	b := filepath.Join(dir, "b.c")
	require.NoError(t, os.WriteFile(a, []byte(lines("#if A", "MP_QSTR_x", "#endif")), 0644))
	require.NoError(t, os.WriteFile(b, []byte(lines("#endif")), 0644))

	s := NewScanner(model.NewTable(), TagsFor(model.VariantBare), zerolog.Nop())
	err := s.ScanFiles([]string{a, b})
	var nerr *NestingError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, b, nerr.File)

	err = s.ScanFiles([]string{filepath.Join(dir, "missing.c")})
	require.ErrorIs(t, err, os.ErrNotExist)
}
