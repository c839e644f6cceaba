package main

import (
	"github.com/simplewave/dart-git/internal/env"
	"github.com/simplewave/dart-git/internal/pathutil"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// globalFlags represents the flags and environment shared by every
// subcommand
type globalFlags struct {
	C pflag.Value // simpler version of git's -C: https://git-scm.com/docs/git#Documentation/git.txt--Cltpathgt

	GitDir   string
	WorkTree string
	Bare     bool

	env *env.Env
}

func newRootCmd(cwd string, e *env.Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "git-go",
		Short:         "git implementation in pure Go",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cfg := &globalFlags{
		env: e,
	}
	cfg.C = pathutil.NewDirPathFlagWithDefault(cwd)
	cmd.PersistentFlags().VarS(cfg.C, "C", "C", "Run as if git was started in the provided path instead of the current working directory.")
	cmd.PersistentFlags().StringVar(&cfg.GitDir, "git-dir", "", "Set the path to the repository (.git directory).")
	cmd.PersistentFlags().StringVar(&cfg.WorkTree, "work-tree", "", "Set the path to the working tree.")
	cmd.PersistentFlags().BoolVar(&cfg.Bare, "bare", false, "Treat the repository as a bare repository.")

	// porcelain
	cmd.AddCommand(newInitCmd(cfg))
	cmd.AddCommand(newSwitchCmd(cfg))

	// plumbing
	cmd.AddCommand(newCatFileCmd(cfg))
	cmd.AddCommand(newHashObjectCmd())
	cmd.AddCommand(newCommitCmd(cfg))

	return cmd
}
