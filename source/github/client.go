// Package github lists a branch through the GitHub REST API and fetches
// blob content from the raw-content endpoint.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gogithub "github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"

	"github.com/input-output-hk/reposync/domain"
	"github.com/input-output-hk/reposync/errors"
	"github.com/input-output-hk/reposync/source"
)

// Client is a source backend for one owner/repo/branch.
// It is safe for concurrent use.
type Client struct {
	gh         *gogithub.Client
	httpClient *http.Client
	rawURL     *url.URL
	owner      string
	repo       string
	branch     string
	cfg        *clientConfig
}

var _ source.Source = (*Client)(nil)

// New creates a Client authenticated with token. The token is attached to
// every request as a bearer credential and is not retained elsewhere, so
// both base URLs must be https.
func New(owner, repo, branch, token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, errors.New(errors.CodeUnauthorized, "github client", "no access token provided")
	}
	if owner == "" || repo == "" || branch == "" {
		return nil, errors.New(errors.CodeInvalidInput, "github client", "owner, repo and branch are required")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	apiURL, err := parseBaseURL(cfg.apiURL)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidConfig, "github api url")
	}
	rawURL, err := parseBaseURL(cfg.rawURL)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidConfig, "github raw url")
	}
	for _, u := range []*url.URL{apiURL, rawURL} {
		if u.Scheme != "https" {
			return nil, errors.Newf(errors.CodeInvalidConfig, "github client",
				"%s: the access token is only sent over https", u.Redacted())
		}
	}

	base := http.DefaultTransport
	if cfg.baseClient != nil && cfg.baseClient.Transport != nil {
		base = cfg.baseClient.Transport
	}

	httpClient := &http.Client{
		Timeout: cfg.timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
			Base:   base,
		},
	}

	gh := gogithub.NewClient(httpClient)
	gh.BaseURL = apiURL

	return &Client{
		gh:         gh,
		httpClient: httpClient,
		rawURL:     rawURL,
		owner:      owner,
		repo:       repo,
		branch:     branch,
		cfg:        cfg,
	}, nil
}

// List resolves the branch to its head commit and returns every blob in
// that commit's tree. Any API failure is fatal to the run.
func (c *Client) List(ctx context.Context) (*domain.Snapshot, error) {
	revision, treeSHA, err := c.resolveBranch(ctx)
	if err != nil {
		return nil, err
	}

	files, err := c.listTree(ctx, treeSHA)
	if err != nil {
		return nil, err
	}

	c.cfg.logger.InfoContext(ctx, "listed source tree",
		"repo", c.slug(),
		"branch", c.branch,
		"revision", revision,
		"files", files.Len(),
	)

	return &domain.Snapshot{
		Revision: revision,
		Tree:     treeSHA,
		Files:    files,
	}, nil
}

func (c *Client) resolveBranch(ctx context.Context) (revision, tree string, err error) {
	const op = "resolve branch"

	branch, _, err := c.gh.Repositories.GetBranch(ctx, c.owner, c.repo, c.branch, 1)
	if err != nil {
		return "", "", errors.Wrap(
			fmt.Errorf("%s@%s: %w", c.slug(), c.branch, err), classify(err), op)
	}

	revision = branch.GetCommit().GetSHA()
	tree = branch.GetCommit().GetCommit().GetTree().GetSHA()
	if revision == "" || tree == "" {
		return "", "", errors.Newf(errors.CodeSourceFailed, op,
			"%s@%s: response carries no commit or tree", c.slug(), c.branch)
	}

	c.cfg.logger.DebugContext(ctx, "resolved branch",
		"branch", c.branch,
		"revision", revision,
		"tree", tree,
	)
	return revision, tree, nil
}

func (c *Client) listTree(ctx context.Context, treeSHA string) (domain.FileSet, error) {
	const op = "list tree"

	tree, _, err := c.gh.Git.GetTree(ctx, c.owner, c.repo, treeSHA, true)
	if err != nil {
		return nil, errors.Wrap(
			fmt.Errorf("%s tree %s: %w", c.slug(), treeSHA, err), classify(err), op)
	}

	if tree.GetTruncated() {
		c.cfg.logger.WarnContext(ctx, "tree listing truncated by the API, some files will not be mirrored",
			"repo", c.slug(),
			"tree", treeSHA,
			"entries", len(tree.Entries),
		)
	}

	files := domain.NewFileSet()
	for _, entry := range tree.Entries {
		if entry.GetType() != "blob" {
			continue
		}
		files.Add(entry.GetPath())
	}
	return files, nil
}

func (c *Client) slug() string {
	return c.owner + "/" + c.repo
}

// classify maps go-github failures onto error codes.
func classify(err error) errors.ErrorCode {
	var rateErr *gogithub.RateLimitError
	if errors.As(err, &rateErr) {
		return errors.CodeRateLimit
	}
	var abuseErr *gogithub.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return errors.CodeRateLimit
	}

	var respErr *gogithub.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		return codeForStatus(respErr.Response.StatusCode)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return errors.CodeTimeout
	}
	return errors.CodeNetwork
}

func codeForStatus(status int) errors.ErrorCode {
	switch {
	case status == http.StatusUnauthorized:
		return errors.CodeUnauthorized
	case status == http.StatusForbidden:
		return errors.CodeForbidden
	case status == http.StatusNotFound:
		return errors.CodeNotFound
	case status == http.StatusTooManyRequests:
		return errors.CodeRateLimit
	case status >= 500:
		return errors.CodeUnavailable
	default:
		return errors.CodeSourceFailed
	}
}

func parseBaseURL(raw string) (*url.URL, error) {
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%q is not an absolute URL", raw)
	}
	return u, nil
}
