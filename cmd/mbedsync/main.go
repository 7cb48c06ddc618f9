// Command mbedsync views and synchronizes differences between the git tree
// of the mbed port and the Mercurial repositories it is published from.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"qstrgen/internal/model"
	"qstrgen/internal/reposync"
)

func main() {
	cmd := newRootCmd(viper.New(), os.Stdout, os.Stderr)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("mbedsync: %v", err))
		os.Exit(1)
	}
}

func newRootCmd(v *viper.Viper, stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "mbedsync",
		Short: "Manage differences between the git tree and the mbed hg repositories",
		Long: `mbedsync compares the files of the mbed port in a git working tree with
their copies in the hg library and REPL repositories, and copies them in
either direction.

Settings come from flags, MBEDSYNC_* environment variables (for example
MBEDSYNC_LIB_DIR) or an mbedsync.yaml file in the current directory.`,
		Version:       model.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(v)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringP("git-dir", "g", ".", "Git working tree")
	flags.StringP("lib-dir", "l", "", "hg library repository (default derived from the git branch)")
	flags.StringP("repl-dir", "r", "", "hg REPL repository (default derived from the git branch)")
	flags.String("hg-parent", "../mbed", "Directory holding the hg repositories")
	flags.String("config", "", "Config file (default ./mbedsync.yaml)")
	flags.Bool("no-color", false, "Disable colored diffs")
	flags.BoolP("verbose", "v", false, "Log every copied file")
	for _, name := range []string{"git-dir", "lib-dir", "repl-dir", "hg-parent", "config", "no-color", "verbose"} {
		_ = v.BindPFlag(name, flags.Lookup(name))
	}
	v.SetEnvPrefix("MBEDSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, sub := range []struct {
		action reposync.Action
		short  string
	}{
		{reposync.Diff, "Show differences (hg -> git)"},
		{reposync.Rdiff, "Show reverse differences (git -> hg)"},
		{reposync.Pull, "Pull from the hg repositories into git"},
		{reposync.Push, "Push from git to the hg repositories"},
	} {
		action := sub.action
		root.AddCommand(&cobra.Command{
			Use:   action.String(),
			Short: sub.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runAction(v, action, stdout, stderr)
			},
		})
	}
	return root
}

func loadConfig(v *viper.Viper) error {
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("mbedsync")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// resolveDirs fills in the hg repositories from the git branch when they
// are not configured.
func resolveDirs(v *viper.Viper) reposync.Dirs {
	gitDir := v.GetString("git-dir")
	dirs := reposync.Dirs{
		Git:  gitDir,
		Lib:  v.GetString("lib-dir"),
		Repl: v.GetString("repl-dir"),
	}
	if dirs.Lib != "" && dirs.Repl != "" {
		return dirs
	}
	branch, _ := reposync.CurrentBranch(gitDir)
	derived := reposync.DirsForBranch(gitDir, v.GetString("hg-parent"), branch)
	if dirs.Lib == "" {
		dirs.Lib = derived.Lib
	}
	if dirs.Repl == "" {
		dirs.Repl = derived.Repl
	}
	return dirs
}

func useColor(v *viper.Viper, w io.Writer) bool {
	if v.GetBool("no-color") {
		return false
	}
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

func runAction(v *viper.Viper, action reposync.Action, stdout, stderr io.Writer) error {
	level := zerolog.WarnLevel
	if v.GetBool("verbose") {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: stderr, NoColor: true, PartsExclude: []string{zerolog.TimestampFieldName}}).
		Level(level)

	dirs := resolveDirs(v)
	log.Debug().Str("git", dirs.Git).Str("lib", dirs.Lib).Str("repl", dirs.Repl).Msg("trees")

	pairs, err := reposync.Pairs(dirs)
	if err != nil {
		return err
	}
	s := &reposync.Syncer{Out: stdout, Color: useColor(v, stdout), Log: log}
	_, err = s.Run(action, pairs)
	return err
}
