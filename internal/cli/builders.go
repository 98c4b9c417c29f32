package cli

import (
	"context"
	"log/slog"

	"github.com/input-output-hk/reposync/aws/s3"
	"github.com/input-output-hk/reposync/config"
	"github.com/input-output-hk/reposync/domain"
	"github.com/input-output-hk/reposync/reconcile"
	"github.com/input-output-hk/reposync/secrets"
	secretsaws "github.com/input-output-hk/reposync/secrets/providers/aws"
	"github.com/input-output-hk/reposync/source"
	"github.com/input-output-hk/reposync/source/gitclone"
	"github.com/input-output-hk/reposync/source/github"
)

// Builders construct the external clients of a run. Tests replace them
// with in-memory fakes.
type Builders struct {
	Source      func(ctx context.Context, cfg *config.Config, token string, logger *slog.Logger) (source.Source, error)
	Target      func(ctx context.Context, cfg *config.Config) (reconcile.Target, error)
	SecretStore func(ctx context.Context, cfg *config.Config) (secrets.Provider, error)
}

// DefaultBuilders returns builders for GitHub, S3 and Secrets Manager.
func DefaultBuilders() Builders {
	return Builders{
		Source:      buildSource,
		Target:      buildTarget,
		SecretStore: buildSecretStore,
	}
}

func buildSource(ctx context.Context, cfg *config.Config, token string, logger *slog.Logger) (source.Source, error) {
	if cfg.Source == domain.SourceModeClone {
		repo, err := gitclone.Clone(ctx, cfg.CloneURL(), cfg.Branch, token, gitclone.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return repo, nil
	}

	client, err := github.New(cfg.Owner, cfg.Repo, cfg.Branch, token,
		github.WithAPIURL(cfg.GitHubAPIURL),
		github.WithRawURL(cfg.GitHubRawURL),
		github.WithTimeout(cfg.Timeout),
		github.WithMaxRetries(cfg.FetchRetries),
		github.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func buildTarget(ctx context.Context, cfg *config.Config) (reconcile.Target, error) {
	client, err := s3.New(ctx,
		s3.WithRegion(cfg.Region),
		s3.WithEndpoint(cfg.Endpoint),
		s3.WithForcePathStyle(cfg.PathStyle),
		s3.WithTimeout(cfg.Timeout),
	)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func buildSecretStore(ctx context.Context, cfg *config.Config) (secrets.Provider, error) {
	opts := []secretsaws.Option{
		secretsaws.WithSecretID(cfg.TokenSecretID),
		secretsaws.WithRegion(cfg.Region),
	}
	if cfg.TokenSecretField != "" {
		opts = append(opts, secretsaws.WithJSONField(cfg.TokenSecretField))
	}

	provider, err := secretsaws.New(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return provider, nil
}
