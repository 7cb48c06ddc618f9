package reposync

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"
)

// DevNull names a missing side of a diff.
const DevNull = "/dev/null"

// FilesEqual reports whether both files exist and hold the same bytes.
func FilesEqual(a, b string) (bool, error) {
	ai, err := os.Stat(a)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	bi, err := os.Stat(b)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	if ai.Size() != bi.Size() {
		return false, nil
	}

	ad, err := os.ReadFile(a)
	if err != nil {
		return false, err
	}
	bd, err := os.ReadFile(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(ad, bd), nil
}

// readSide returns the lines of path, or no lines and DevNull as the label
// when it does not exist.
func readSide(path string) (string, []string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DevNull, nil, nil
	} else if err != nil {
		return "", nil, err
	}
	return path, splitLines(string(data)), nil
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if last := len(lines) - 1; lines[last] == "" {
		lines = lines[:last]
	} else {
		lines[last] += "\n"
	}
	return lines
}

// UnifiedDiff renders the changes from a to b with three lines of context.
// It is empty when the contents match.
func UnifiedDiff(a, b string) (string, error) {
	aName, aLines, err := readSide(a)
	if err != nil {
		return "", err
	}
	bName, bLines, err := readSide(b)
	if err != nil {
		return "", err
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        aLines,
		B:        bLines,
		FromFile: aName,
		ToFile:   bName,
		Context:  3,
	})
}

// Colorizer paints unified diff lines.
type Colorizer struct {
	header, hunk, del, add *color.Color
}

func NewColorizer(enabled bool) *Colorizer {
	c := &Colorizer{
		header: color.New(color.Bold),
		hunk:   color.New(color.FgCyan),
		del:    color.New(color.FgRed),
		add:    color.New(color.FgGreen),
	}
	for _, col := range []*color.Color{c.header, c.hunk, c.del, c.add} {
		if enabled {
			col.EnableColor()
		} else {
			col.DisableColor()
		}
	}
	return c
}

// Write copies diff to w, coloring each line by its prefix.
func (c *Colorizer) Write(w io.Writer, diff string) error {
	for _, line := range splitLines(diff) {
		text := strings.TrimSuffix(line, "\n")
		var col *color.Color
		switch {
		case strings.HasPrefix(text, "---"), strings.HasPrefix(text, "+++"):
			col = c.header
		case strings.HasPrefix(text, "@@"):
			col = c.hunk
		case strings.HasPrefix(text, "-"):
			col = c.del
		case strings.HasPrefix(text, "+"):
			col = c.add
		}
		if col != nil {
			text = col.Sprint(text)
		}
		if _, err := io.WriteString(w, text+"\n"); err != nil {
			return err
		}
	}
	return nil
}
