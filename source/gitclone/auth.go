package gitclone

import (
	"fmt"
	"net/url"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

// tokenUsername is accepted by GitHub for token authentication over HTTPS.
const tokenUsername = "x-access-token"

// authMethod returns HTTP basic auth carrying token for https remotes.
// Other schemes get no credential so a token is never sent in clear text.
//
//nolint:ireturn // go-git requires returning transport.AuthMethod interface
func authMethod(remoteURL, token string) (transport.AuthMethod, error) {
	parsedURL, err := url.Parse(remoteURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	if parsedURL.Scheme != "https" || token == "" {
		return nil, nil
	}

	return &http.BasicAuth{
		Username: tokenUsername,
		Password: token,
	}, nil
}
