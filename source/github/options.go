package github

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultAPIURL is the public GitHub REST endpoint.
	DefaultAPIURL = "https://api.github.com/"

	// DefaultRawURL is the public raw-content endpoint.
	DefaultRawURL = "https://raw.githubusercontent.com/"

	// DefaultMaxRetries bounds retries of one content fetch.
	DefaultMaxRetries = 2
)

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	apiURL     string
	rawURL     string
	baseClient *http.Client
	timeout    time.Duration
	maxRetries int
	newBackOff func() backoff.BackOff
	logger     *slog.Logger
}

func defaultConfig() *clientConfig {
	return &clientConfig{
		apiURL:     DefaultAPIURL,
		rawURL:     DefaultRawURL,
		maxRetries: DefaultMaxRetries,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxElapsedTime = 30 * time.Second
			return b
		},
		logger: slog.New(slog.DiscardHandler),
	}
}

// WithAPIURL sets the REST API base URL, e.g. for GitHub Enterprise.
func WithAPIURL(url string) Option {
	return func(c *clientConfig) {
		if url != "" {
			c.apiURL = url
		}
	}
}

// WithRawURL sets the raw-content base URL.
func WithRawURL(url string) Option {
	return func(c *clientConfig) {
		if url != "" {
			c.rawURL = url
		}
	}
}

// WithHTTPClient sets the client whose transport carries authenticated requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.baseClient = client
	}
}

// WithTimeout bounds every HTTP request. Zero means no timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = timeout
	}
}

// WithMaxRetries bounds retries of a transiently failing content fetch.
// Zero disables retries.
func WithMaxRetries(n int) Option {
	return func(c *clientConfig) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithBackOff replaces the retry schedule of content fetches.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(c *clientConfig) {
		if newBackOff != nil {
			c.newBackOff = newBackOff
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *clientConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}
