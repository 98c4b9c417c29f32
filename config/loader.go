package config

import (
	"os"
	"strconv"
	"time"

	"github.com/input-output-hk/reposync/domain"
	"github.com/input-output-hk/reposync/errors"
)

// Environment variables read by Load.
const (
	EnvOwner            = "REPOSYNC_OWNER"
	EnvRepo             = "REPOSYNC_REPO"
	EnvBranch           = "REPOSYNC_BRANCH"
	EnvBucket           = "REPOSYNC_BUCKET"
	EnvRegion           = "REPOSYNC_REGION"
	EnvEndpoint         = "REPOSYNC_S3_ENDPOINT"
	EnvPathStyle        = "REPOSYNC_S3_PATH_STYLE"
	EnvSource           = "REPOSYNC_SOURCE"
	EnvGitHubAPIURL     = "REPOSYNC_GITHUB_API_URL"
	EnvGitHubRawURL     = "REPOSYNC_GITHUB_RAW_URL"
	EnvGitHost          = "REPOSYNC_GIT_HOST"
	EnvTokenSecretID    = "REPOSYNC_TOKEN_SECRET_ID"
	EnvTokenSecretField = "REPOSYNC_TOKEN_SECRET_FIELD"
	EnvConcurrency      = "REPOSYNC_CONCURRENCY"
	EnvFetchRetries     = "REPOSYNC_FETCH_RETRIES"
	EnvTimeout          = "REPOSYNC_TIMEOUT"
	EnvLogLevel         = "REPOSYNC_LOG_LEVEL"
	EnvLogFormat        = "REPOSYNC_LOG_FORMAT"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Load returns Defaults overlaid with the process environment.
func Load() (Config, error) {
	return FromEnv(Defaults(), os.LookupEnv)
}

// FromEnv overlays every set, non-empty variable onto base.
// Malformed numeric, boolean or duration values are configuration errors.
func FromEnv(base Config, lookup LookupFunc) (Config, error) {
	cfg := base

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str(EnvOwner, &cfg.Owner)
	str(EnvRepo, &cfg.Repo)
	str(EnvBranch, &cfg.Branch)
	str(EnvBucket, &cfg.Bucket)
	str(EnvRegion, &cfg.Region)
	str(EnvEndpoint, &cfg.Endpoint)
	str(EnvGitHubAPIURL, &cfg.GitHubAPIURL)
	str(EnvGitHubRawURL, &cfg.GitHubRawURL)
	str(EnvGitHost, &cfg.GitHost)
	str(EnvTokenSecretID, &cfg.TokenSecretID)
	str(EnvTokenSecretField, &cfg.TokenSecretField)
	str(EnvLogLevel, &cfg.LogLevel)
	str(EnvLogFormat, &cfg.LogFormat)

	if v, ok := lookup(EnvSource); ok && v != "" {
		cfg.Source = domain.SourceMode(v)
	}

	if v, ok := lookup(EnvPathStyle); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, errors.Newf(errors.CodeInvalidConfig, "load config", "%s: %q is not a boolean", EnvPathStyle, v)
		}
		cfg.PathStyle = b
	}

	ints := []struct {
		key string
		dst *int
	}{
		{EnvConcurrency, &cfg.Concurrency},
		{EnvFetchRetries, &cfg.FetchRetries},
	}
	for _, i := range ints {
		v, ok := lookup(i.key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, errors.Newf(errors.CodeInvalidConfig, "load config", "%s: %q is not an integer", i.key, v)
		}
		*i.dst = n
	}

	if v, ok := lookup(EnvTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, errors.Newf(errors.CodeInvalidConfig, "load config", "%s: %q is not a duration", EnvTimeout, v)
		}
		cfg.Timeout = d
	}

	return cfg, nil
}
