package cli

import (
	"context"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/input-output-hk/reposync/config"
	"github.com/input-output-hk/reposync/errors"
	"github.com/input-output-hk/reposync/reconcile"
)

// newSyncCommand binds flags over the environment-derived configuration, so
// a flag given on the command line wins over its REPOSYNC_* variable.
func newSyncCommand(env Env) *cobra.Command {
	cfg, loadErr := config.FromEnv(config.Defaults(), env.Lookup)

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile the bucket with the branch",
		Long: `Reconcile the bucket with the branch.

Uploads every file of the branch that has no object under the same key and
deletes every object whose key is no longer a file of the branch. A file
whose content cannot be fetched is logged and skipped; the run still
succeeds. Listing failures and bucket write failures abort the run.

The GitHub token is read from the variable named by --token-env, then from
AWS Secrets Manager when --token-secret-id is set.`,
		Args: unknownCommand,
		RunE: func(cmd *cobra.Command, args []string) error {
			if loadErr != nil {
				return loadErr
			}
			return runSync(cmd.Context(), env, &cfg)
		},
	}

	flags := syncCmd.Flags()
	flags.StringVar(&cfg.Owner, "owner", cfg.Owner, "repository owner ("+config.EnvOwner+")")
	flags.StringVar(&cfg.Repo, "repo", cfg.Repo, "repository name ("+config.EnvRepo+")")
	flags.StringVar(&cfg.Branch, "branch", cfg.Branch, "branch to mirror ("+config.EnvBranch+")")
	flags.StringVar(&cfg.Bucket, "bucket", cfg.Bucket, "target bucket ("+config.EnvBucket+")")
	flags.StringVar(&cfg.Region, "region", cfg.Region, "bucket region ("+config.EnvRegion+")")
	flags.StringVar(&cfg.Endpoint, "endpoint", cfg.Endpoint, "S3-compatible endpoint URL ("+config.EnvEndpoint+")")
	flags.BoolVar(&cfg.PathStyle, "path-style", cfg.PathStyle, "use path-style bucket addressing ("+config.EnvPathStyle+")")
	flags.StringVar((*string)(&cfg.Source), "source", string(cfg.Source), "source backend: api or clone ("+config.EnvSource+")")
	flags.StringVar(&cfg.GitHubAPIURL, "github-api-url", cfg.GitHubAPIURL, "GitHub REST API base URL ("+config.EnvGitHubAPIURL+")")
	flags.StringVar(&cfg.GitHubRawURL, "github-raw-url", cfg.GitHubRawURL, "GitHub raw-content base URL ("+config.EnvGitHubRawURL+")")
	flags.StringVar(&cfg.GitHost, "git-host", cfg.GitHost, "host of clone URLs ("+config.EnvGitHost+")")
	flags.StringVar(&cfg.TokenEnv, "token-env", cfg.TokenEnv, "environment variable holding the GitHub token")
	flags.StringVar(&cfg.TokenSecretID, "token-secret-id", cfg.TokenSecretID, "Secrets Manager id holding the GitHub token ("+config.EnvTokenSecretID+")")
	flags.StringVar(&cfg.TokenSecretField, "token-secret-field", cfg.TokenSecretField, "JSON field of the secret holding the token ("+config.EnvTokenSecretField+")")
	flags.IntVar(&cfg.Concurrency, "concurrency", cfg.Concurrency, "per-file operations run at once ("+config.EnvConcurrency+")")
	flags.IntVar(&cfg.FetchRetries, "fetch-retries", cfg.FetchRetries, "retries of a failing content fetch ("+config.EnvFetchRetries+")")
	flags.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "per-request timeout, 0 for none ("+config.EnvTimeout+")")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error ("+config.EnvLogLevel+")")
	flags.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "text or json ("+config.EnvLogFormat+")")

	return syncCmd
}

func runSync(ctx context.Context, env Env, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(env.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return errors.Wrap(err, errors.CodeInvalidConfig, "configure logging")
	}
	logger = logger.With(
		"run_id", uuid.NewString(),
		"repo", cfg.RepoSlug(),
		"branch", cfg.Branch,
		"bucket", cfg.Bucket,
	)

	token, err := resolveToken(ctx, cfg, env)
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "starting sync", "source", cfg.Source, "concurrency", cfg.Concurrency)

	src, err := env.Builders.Source(ctx, cfg, token, logger)
	if err != nil {
		return err
	}

	target, err := env.Builders.Target(ctx, cfg)
	if err != nil {
		return errors.Wrap(err, errors.CodeInvalidConfig, "configure s3 client")
	}

	reconciler := reconcile.New(src, target, cfg.Bucket,
		reconcile.WithConcurrency(cfg.Concurrency),
		reconcile.WithLogger(logger),
	)

	summary, err := reconciler.Run(ctx)
	if err != nil {
		return err
	}

	for _, skipped := range summary.Skipped {
		logger.DebugContext(ctx, "skipped file", "path", skipped.Path, "reason", skipped.Reason)
	}

	return nil
}
