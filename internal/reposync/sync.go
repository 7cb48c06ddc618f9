package reposync

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
)

type Action int

const (
	// Diff shows what pulling would change in git (hg -> git).
	Diff Action = iota
	// Rdiff shows what pushing would change in hg (git -> hg).
	Rdiff
	// Pull copies differing hg files into git. Generated files are skipped.
	Pull
	// Push copies differing git files into hg, generated files included.
	Push
)

var actionNames = []string{"diff", "rdiff", "pull", "push"}

func (a Action) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// ParseAction maps a command name to its Action.
func ParseAction(s string) (Action, error) {
	for i, n := range actionNames {
		if n == s {
			return Action(i), nil
		}
	}
	return 0, fmt.Errorf("unknown action %q (want diff, rdiff, pull or push)", s)
}

// Stats counts what a run saw and did.
type Stats struct {
	Equal   int
	Differ  int
	Copied  int
	Skipped int
	Missing int // absent from both trees
}

// Syncer applies an action to a list of pairs.
type Syncer struct {
	Out   io.Writer // diff output
	Color bool
	Log   zerolog.Logger
}

// Run processes every pair. A failure on one file does not stop the others;
// all failures are returned together.
func (s *Syncer) Run(action Action, pairs []Pair) (Stats, error) {
	var (
		stats Stats
		errs  *multierror.Error
	)
	colorizer := NewColorizer(s.Color)

	for _, p := range pairs {
		if action == Pull && p.GitMaster {
			stats.Skipped++
			continue
		}

		if !exists(p.Git) && !exists(p.Hg) {
			stats.Missing++
			s.Log.Debug().Str("git", p.Git).Msg("missing on both sides")
			continue
		}

		equal, err := FilesEqual(p.Git, p.Hg)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		if equal {
			stats.Equal++
			continue
		}
		stats.Differ++

		switch action {
		case Diff, Rdiff:
			from, to := p.Hg, p.Git
			if action == Rdiff {
				from, to = p.Git, p.Hg
			}
			diff, err := UnifiedDiff(from, to)
			if err == nil {
				err = colorizer.Write(s.Out, diff)
			}
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("diff %s: %w", p.Git, err))
			}
		case Pull, Push:
			from, to := p.Hg, p.Git
			if action == Push {
				from, to = p.Git, p.Hg
			}
			if err := CopyFile(from, to); err != nil {
				errs = multierror.Append(errs, err)
				continue
			}
			stats.Copied++
			s.Log.Info().Str("from", from).Str("to", to).Msg("copied")
		}
	}

	s.Log.Debug().
		Str("action", action.String()).
		Int("equal", stats.Equal).
		Int("differ", stats.Differ).
		Int("copied", stats.Copied).
		Int("skipped", stats.Skipped).
		Int("missing", stats.Missing).
		Msg("done")
	return stats, errs.ErrorOrNil()
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// CopyFile replaces dst with the contents of src, creating dst's directory
// if needed. The file mode of src is kept.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	return out.Close()
}
