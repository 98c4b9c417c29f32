// Package source defines the read side of a mirror: listing the blobs of a
// branch and fetching their content.
//
// Two backends implement it. Package github talks to the GitHub REST API
// and the raw-content endpoint. Package gitclone performs a shallow
// in-memory clone and serves everything from the cloned objects.
package source

import (
	"context"

	"github.com/input-output-hk/reposync/domain"
)

// Lister produces the snapshot of a branch: the commit it resolved to and
// the full set of blob paths in that commit's tree.
type Lister interface {
	List(ctx context.Context) (*domain.Snapshot, error)
}

// Fetcher returns the content of one blob at revision. An empty revision
// means the configured branch head. Errors are per file and do not
// invalidate the snapshot.
type Fetcher interface {
	Fetch(ctx context.Context, revision string, path domain.FilePath) ([]byte, error)
}

// Source is a backend that can both list and fetch.
type Source interface {
	Lister
	Fetcher
}
