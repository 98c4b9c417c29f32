// Package config holds the run configuration for reposync.
//
// A Config starts from Defaults, is overlaid with REPOSYNC_* environment
// variables by Load, then with command-line flags by the CLI, and is checked
// by Validate before any network call is made. The source credential is not
// part of the Config: only the name of the variable (or secret id) that holds
// it is.
package config

import (
	"time"

	"github.com/input-output-hk/reposync/domain"
)

const (
	// DefaultBranch is mirrored when no branch is configured.
	DefaultBranch = "main"

	// DefaultTokenEnv names the environment variable holding the source credential.
	DefaultTokenEnv = "GITHUB_TOKEN"

	// DefaultGitHubAPIURL is the public GitHub REST endpoint.
	DefaultGitHubAPIURL = "https://api.github.com/"

	// DefaultGitHubRawURL is the public GitHub raw-content endpoint.
	DefaultGitHubRawURL = "https://raw.githubusercontent.com/"

	// DefaultGitHost is used to build clone URLs.
	DefaultGitHost = "github.com"

	// DefaultFetchRetries bounds retries of a single content fetch.
	DefaultFetchRetries = 2

	// MaxConcurrency caps parallel per-key operations.
	MaxConcurrency = 64
)

// Config is the complete configuration of one reconciliation run.
type Config struct {
	// Owner is the repository owner (user or organisation).
	Owner string

	// Repo is the repository name.
	Repo string

	// Branch is the branch whose tree is mirrored.
	Branch string

	// Bucket is the target bucket.
	Bucket string

	// Region is the bucket region. Empty defers to the AWS credential chain.
	Region string

	// Endpoint overrides the S3 endpoint for S3-compatible services.
	Endpoint string

	// PathStyle forces path-style bucket addressing.
	PathStyle bool

	// Source selects the source backend.
	Source domain.SourceMode

	// GitHubAPIURL is the REST API base URL.
	GitHubAPIURL string

	// GitHubRawURL is the raw-content base URL.
	GitHubRawURL string

	// GitHost is the host used for clone URLs.
	GitHost string

	// TokenEnv names the environment variable that holds the source credential.
	TokenEnv string

	// TokenSecretID, when set, is an AWS Secrets Manager id consulted after TokenEnv.
	TokenSecretID string

	// TokenSecretField selects a field when the secret is a JSON object.
	TokenSecretField string

	// Concurrency is the number of per-key operations run at once. 1 is sequential.
	Concurrency int

	// FetchRetries bounds retries of a transiently failing content fetch.
	FetchRetries int

	// Timeout applies to every HTTP request. Zero means no timeout.
	Timeout time.Duration

	// LogLevel is one of debug, info, warn, error.
	LogLevel string

	// LogFormat is text or json.
	LogFormat string
}

// Defaults returns a Config with every optional field set.
func Defaults() Config {
	return Config{
		Branch:       DefaultBranch,
		Source:       domain.SourceModeAPI,
		GitHubAPIURL: DefaultGitHubAPIURL,
		GitHubRawURL: DefaultGitHubRawURL,
		GitHost:      DefaultGitHost,
		TokenEnv:     DefaultTokenEnv,
		Concurrency:  1,
		FetchRetries: DefaultFetchRetries,
		LogLevel:     "info",
		LogFormat:    "text",
	}
}

// RepoSlug returns owner/repo.
func (c *Config) RepoSlug() string {
	return c.Owner + "/" + c.Repo
}

// CloneURL returns the HTTPS clone URL of the repository.
func (c *Config) CloneURL() string {
	return "https://" + c.GitHost + "/" + c.Owner + "/" + c.Repo + ".git"
}
