package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/input-output-hk/reposync/errors"
)

// Validate checks that every required field is present and every value is
// in range. All problems are reported together.
func (c *Config) Validate() error {
	var problems []string

	required := []struct {
		name  string
		value string
	}{
		{"owner", c.Owner},
		{"repo", c.Repo},
		{"branch", c.Branch},
		{"bucket", c.Bucket},
		{"token-env", c.TokenEnv},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			problems = append(problems, fmt.Sprintf("%s is required", r.name))
		}
	}

	if strings.Contains(c.Owner, "/") || strings.Contains(c.Repo, "/") {
		problems = append(problems, "owner and repo must not contain '/'")
	}

	if !c.Source.Valid() {
		problems = append(problems, fmt.Sprintf("source %q must be one of api, clone", c.Source))
	}

	// The source credential travels with every GitHub request.
	githubURLs := []struct {
		name  string
		value string
	}{
		{"github-api-url", c.GitHubAPIURL},
		{"github-raw-url", c.GitHubRawURL},
	}
	for _, u := range githubURLs {
		if err := validateBaseURL(u.value, true); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", u.name, err))
		}
	}

	if c.Endpoint != "" {
		if err := validateBaseURL(c.Endpoint, false); err != nil {
			problems = append(problems, fmt.Sprintf("endpoint: %v", err))
		}
	}

	if c.Concurrency < 1 || c.Concurrency > MaxConcurrency {
		problems = append(problems, fmt.Sprintf("concurrency must be between 1 and %d", MaxConcurrency))
	}
	if c.FetchRetries < 0 {
		problems = append(problems, "fetch-retries cannot be negative")
	}
	if c.Timeout < 0 {
		problems = append(problems, "timeout cannot be negative")
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("log-level %q must be one of debug, info, warn, error", c.LogLevel))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("log-format %q must be text or json", c.LogFormat))
	}

	if len(problems) > 0 {
		return errors.New(errors.CodeInvalidConfig, "invalid configuration", strings.Join(problems, "; "))
	}
	return nil
}

func validateBaseURL(raw string, httpsOnly bool) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	switch {
	case httpsOnly && u.Scheme != "https":
		return fmt.Errorf("%q must be an https URL", raw)
	case u.Scheme != "http" && u.Scheme != "https":
		return fmt.Errorf("%q must be an http(s) URL", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host", raw)
	}
	return nil
}
