package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	git "github.com/simplewave/dart-git"
	"github.com/simplewave/dart-git/ginternals/object"
	"github.com/simplewave/dart-git/internal/errutil"
	"github.com/spf13/cobra"
)

// commitCmdFlags represents the flags accepted by the commit command
//
// Reference: https://git-scm.com/docs/git-commit#_options
type commitCmdFlags struct {
	message     string
	all         bool
	authorName  string
	authorEmail string
}

func newCommitCmd(cfg *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Record changes to the repository",
		Long:  "Stores the current contents of the index in a new commit along with a log message from the user describing the changes.",
	}

	flags := commitCmdFlags{}
	cmd.Flags().StringVarP(&flags.message, "message", "m", "", "Use the given <msg> as the commit message.")
	cmd.Flags().BoolVarP(&flags.all, "all", "a", false, "Automatically stage every regular file of the work-tree before the commit. Entries of deleted files are not removed from the index.")
	cmd.Flags().StringVar(&flags.authorName, "author-name", "", "Override the author name. Defaults to GIT_AUTHOR_NAME.")
	cmd.Flags().StringVar(&flags.authorEmail, "author-email", "", "Override the author email. Defaults to GIT_AUTHOR_EMAIL.")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		return commitCmd(cmd.OutOrStdout(), cfg, flags)
	}

	return cmd
}

func commitCmd(out io.Writer, cfg *globalFlags, flags commitCmdFlags) (err error) {
	if flags.message == "" {
		return errors.New("aborting commit due to empty commit message")
	}

	r, err := loadRepository(cfg)
	if err != nil {
		return fmt.Errorf("could not create param: %w", err)
	}
	defer errutil.Close(r, &err)

	author := object.Signature{
		Name:  authorField(cfg, flags.authorName, "GIT_AUTHOR_NAME"),
		Email: authorField(cfg, flags.authorEmail, "GIT_AUTHOR_EMAIL"),
		Time:  time.Now(),
	}

	c, err := r.CreateCommit(git.CommitParams{
		Message:   flags.message,
		Author:    author,
		AutoStage: flags.all,
	})
	if err != nil {
		return fmt.Errorf("could not create commit: %w", err)
	}

	fmt.Fprintf(out, "[%s] %s\n", c.ID().String()[:7], flags.message)
	return nil
}

func authorField(cfg *globalFlags, flag, envKey string) string {
	if flag != "" {
		return flag
	}
	return cfg.env.Get(envKey)
}
