package github

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/input-output-hk/reposync/domain"
	"github.com/input-output-hk/reposync/errors"
)

// Fetch downloads the raw content of path at revision. An empty revision
// falls back to the configured branch.
//
// Failures whose code is retryable (transport errors, 429 and 5xx) are
// retried with exponential backoff up to the configured limit; 404 maps to
// CodeNotFound and, like every other code, is returned at once. The
// returned errors are per file: callers skip the file and go on.
func (c *Client) Fetch(ctx context.Context, revision string, path domain.FilePath) ([]byte, error) {
	const op = "fetch content"

	if revision == "" {
		revision = c.branch
	}
	target := c.rawContentURL(revision, path)

	var body []byte
	attempt := func() error {
		data, err := c.fetchOnce(ctx, target, path)
		if err != nil {
			if ctx.Err() != nil || !errors.IsRetryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		body = data
		return nil
	}

	notify := func(err error, wait time.Duration) {
		c.cfg.logger.DebugContext(ctx, "retrying content fetch",
			"path", path,
			"wait", wait,
			"error", err,
		)
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(c.cfg.newBackOff(), uint64(c.cfg.maxRetries)), //nolint:gosec // non-negative by option
		ctx,
	)
	if err := backoff.RetryNotify(attempt, b, notify); err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(ctx.Err(), errors.CodeTimeout, op)
		}
		var coded *errors.Error
		if errors.As(err, &coded) {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.CodeNetwork, op)
	}

	return body, nil
}

// fetchOnce performs a single GET and codes any failure.
func (c *Client) fetchOnce(ctx context.Context, target string, path domain.FilePath) ([]byte, error) {
	const op = "fetch content"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, op)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Newf(errors.CodeNetwork, op, "%s: %v", path, stripURL(err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, errors.Newf(errors.CodeNetwork, op, "%s: reading body: %v", path, err)
		}
		return data, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.Newf(errors.CodeNotFound, op, "%s: %s", path, resp.Status)
	default:
		return nil, errors.Newf(codeForStatus(resp.StatusCode), op, "%s: %s", path, resp.Status)
	}
}

// rawContentURL builds {raw}/{owner}/{repo}/{revision}/{path} with every
// segment escaped.
func (c *Client) rawContentURL(revision string, path domain.FilePath) string {
	segments := []string{c.owner, c.repo}
	segments = append(segments, strings.Split(revision, "/")...)
	segments = append(segments, strings.Split(path, "/")...)
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return c.rawURL.String() + strings.Join(segments, "/")
}

// stripURL drops the request URL from transport errors so logs carry only
// the cause.
func stripURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
