// Package gitclone is a source backend that performs a shallow, in-memory
// clone of one branch and serves both the file listing and the file
// content from the cloned objects.
package gitclone

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/storage/memory"

	"github.com/input-output-hk/reposync/domain"
	"github.com/input-output-hk/reposync/errors"
	"github.com/input-output-hk/reposync/source"
)

// Option configures a Repo.
type Option func(*Repo)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repo) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Repo serves one branch of a cloned repository.
// It is safe for concurrent use.
type Repo struct {
	repo   *git.Repository
	branch string
	logger *slog.Logger

	// mu guards the resolved commit and tree; go-git trees build their
	// entry index lazily and are not safe for concurrent lookups.
	mu     sync.Mutex
	commit *object.Commit
	tree   *object.Tree
}

var _ source.Source = (*Repo)(nil)

// Clone fetches the tip of branch from remoteURL into memory. Only the
// branch head is downloaded. token authenticates https remotes and may be
// empty for public repositories.
func Clone(ctx context.Context, remoteURL, branch, token string, opts ...Option) (*Repo, error) {
	const op = "clone"

	if remoteURL == "" || branch == "" {
		return nil, errors.New(errors.CodeInvalidInput, op, "remote URL and branch are required")
	}

	auth, err := authMethod(remoteURL, token)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidConfig, op)
	}

	repo, err := git.CloneContext(ctx, memory.NewStorage(), nil, &git.CloneOptions{
		URL:           remoteURL,
		Auth:          auth,
		ReferenceName: plumbing.NewBranchReferenceName(branch),
		SingleBranch:  true,
		Depth:         1,
		Tags:          git.NoTags,
	})
	if err != nil {
		return nil, errors.Wrap(fmt.Errorf("%s@%s: %w", remoteURL, branch, err), classify(err), op)
	}

	return NewFromRepository(repo, branch, opts...), nil
}

// NewFromRepository serves branch from an already opened repository.
func NewFromRepository(repo *git.Repository, branch string, opts ...Option) *Repo {
	r := &Repo{
		repo:   repo,
		branch: branch,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// List resolves the branch and returns every file in its head commit.
// Submodule entries are not files and are excluded.
func (r *Repo) List(ctx context.Context) (*domain.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.resolveLocked(); err != nil {
		return nil, err
	}

	files := domain.NewFileSet()
	err := r.tree.Files().ForEach(func(f *object.File) error {
		files.Add(f.Name)
		return ctx.Err()
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSourceFailed, "list tree")
	}

	r.logger.InfoContext(ctx, "listed source tree",
		"branch", r.branch,
		"revision", r.commit.Hash.String(),
		"files", files.Len(),
	)

	return &domain.Snapshot{
		Revision: r.commit.Hash.String(),
		Tree:     r.tree.Hash.String(),
		Files:    files,
	}, nil
}

// Fetch returns the content of path. revision must be empty or the commit
// returned by List: a shallow clone holds no other commits.
func (r *Repo) Fetch(ctx context.Context, revision string, path domain.FilePath) ([]byte, error) {
	const op = "fetch content"

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeTimeout, op)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.tree == nil {
		if err := r.resolveLocked(); err != nil {
			return nil, err
		}
	}

	tree := r.tree
	if revision != "" && revision != r.commit.Hash.String() {
		commit, err := r.repo.CommitObject(plumbing.NewHash(revision))
		if err != nil {
			return nil, errors.Newf(errors.CodeNotFound, op, "%s: revision %s not in clone", path, revision)
		}
		if tree, err = commit.Tree(); err != nil {
			return nil, errors.Wrap(err, errors.CodeSourceFailed, op)
		}
	}

	file, err := tree.File(path)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, errors.Newf(errors.CodeNotFound, op, "%s: not in tree", path)
		}
		return nil, errors.Wrap(fmt.Errorf("%s: %w", path, err), errors.CodeSourceFailed, op)
	}

	reader, err := file.Reader()
	if err != nil {
		return nil, errors.Wrap(fmt.Errorf("%s: %w", path, err), errors.CodeSourceFailed, op)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(fmt.Errorf("%s: %w", path, err), errors.CodeSourceFailed, op)
	}
	return data, nil
}

// resolveLocked resolves the branch to its commit and tree. r.mu must be held.
func (r *Repo) resolveLocked() error {
	const op = "resolve branch"

	ref, err := r.repo.Reference(plumbing.NewBranchReferenceName(r.branch), true)
	if err != nil {
		ref, err = r.repo.Reference(plumbing.NewRemoteReferenceName(git.DefaultRemoteName, r.branch), true)
	}
	if err != nil {
		return errors.Newf(errors.CodeNotFound, op, "branch %q not found", r.branch)
	}

	commit, err := r.repo.CommitObject(ref.Hash())
	if err != nil {
		return errors.Wrap(fmt.Errorf("commit %s: %w", ref.Hash(), err), errors.CodeSourceFailed, op)
	}

	tree, err := commit.Tree()
	if err != nil {
		return errors.Wrap(fmt.Errorf("tree of %s: %w", commit.Hash, err), errors.CodeSourceFailed, op)
	}

	r.commit = commit
	r.tree = tree
	return nil
}

// classify maps clone failures onto error codes.
func classify(err error) errors.ErrorCode {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return errors.CodeTimeout
	case errors.Is(err, transport.ErrAuthenticationRequired), errors.Is(err, transport.ErrAuthorizationFailed):
		return errors.CodeUnauthorized
	case errors.Is(err, transport.ErrRepositoryNotFound),
		errors.Is(err, plumbing.ErrReferenceNotFound),
		errors.Is(err, git.NoMatchingRefSpecError{}):
		return errors.CodeNotFound
	default:
		return errors.CodeSourceFailed
	}
}
