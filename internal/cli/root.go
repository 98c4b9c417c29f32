package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/input-output-hk/reposync/config"
	"github.com/input-output-hk/reposync/errors"
)

// Env is everything a command invocation takes from the process.
type Env struct {
	// Version is reported by --version.
	Version string

	// Stdout receives logs.
	Stdout io.Writer

	// Stderr receives the final error, if any.
	Stderr io.Writer

	// Lookup reads environment variables.
	Lookup config.LookupFunc

	// Builders construct the clients a run talks to.
	Builders Builders
}

// DefaultEnv returns an Env bound to the real process.
func DefaultEnv(version string) Env {
	return Env{
		Version:  version,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		Lookup:   os.LookupEnv,
		Builders: DefaultBuilders(),
	}
}

// NewRootCommand builds the reposync command tree.
func NewRootCommand(env Env) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "reposync",
		Short: "Mirror a GitHub branch into an S3 bucket",
		Long: `reposync mirrors the files of one GitHub branch into an S3 bucket.

Every run lists the branch and the bucket, uploads what the bucket is
missing and deletes what the branch no longer has. Object content is not
compared, so a changed file with an unchanged path is left alone.`,
		Version:       env.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          unknownCommand,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	rootCmd.SetOut(env.Stdout)
	rootCmd.SetErr(env.Stderr)
	rootCmd.SetVersionTemplate("reposync version {{.Version}}\n")
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return errors.Wrap(err, errors.CodeInvalidConfig, "parse flags")
	})

	rootCmd.AddCommand(newSyncCommand(env))

	return rootCmd
}

// unknownCommand rejects positional arguments on the root so that a mistyped
// subcommand is a configuration error, like a mistyped flag.
func unknownCommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return nil
	}
	msg := fmt.Sprintf("unknown command %q for %q", args[0], cmd.CommandPath())
	if suggestions := cmd.SuggestionsFor(args[0]); len(suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean %q?)", suggestions[0])
	}
	return errors.New(errors.CodeInvalidConfig, "parse command", msg)
}

// Execute runs the command tree with args and returns the process exit code.
func Execute(ctx context.Context, env Env, args []string) int {
	cmd := NewRootCommand(env)
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(env.Stderr, "Error:", err)
		return errors.ExitCode(err)
	}
	return errors.ExitOK
}
