package reconcile

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/input-output-hk/reposync/aws/s3"
	s3errors "github.com/input-output-hk/reposync/aws/s3/errors"
	"github.com/input-output-hk/reposync/aws/s3/s3types"
	"github.com/input-output-hk/reposync/domain"
	"github.com/input-output-hk/reposync/errors"
	"github.com/input-output-hk/reposync/source"
)

// RevisionMetadataKey is the user-metadata key recording the source commit
// an object was written from.
const RevisionMetadataKey = "source-revision"

// Executor applies operations to the target.
type Executor struct {
	fetcher     source.Fetcher
	target      Target
	bucket      string
	concurrency int
	logger      *slog.Logger
}

// NewExecutor creates an executor. A concurrency below 2 runs operations
// one at a time.
func NewExecutor(fetcher source.Fetcher, target Target, bucket string, concurrency int, logger *slog.Logger) *Executor {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{
		fetcher:     fetcher,
		target:      target,
		bucket:      bucket,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Result contains the outcome of an execution.
type Result struct {
	uploaded atomic.Int64
	deleted  atomic.Int64

	mu      sync.Mutex
	skipped []domain.SkippedFile

	// Duration is how long the execution took
	Duration time.Duration
}

// Uploaded returns the number of objects written.
func (r *Result) Uploaded() int {
	return int(r.uploaded.Load())
}

// Deleted returns the number of objects removed.
func (r *Result) Deleted() int {
	return int(r.deleted.Load())
}

// Skipped returns the uploads that soft-failed.
func (r *Result) Skipped() []domain.SkippedFile {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.SkippedFile(nil), r.skipped...)
}

func (r *Result) skip(path domain.FilePath, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipped = append(r.skipped, domain.SkippedFile{Path: path, Reason: err.Error()})
}

// Execute runs ops against the target. Uploads read content at revision.
// The first storage failure stops the execution and is returned with the
// partial result.
func (e *Executor) Execute(ctx context.Context, revision string, ops []Operation) (*Result, error) {
	start := time.Now()
	result := &Result{}

	var err error
	if e.concurrency == 1 {
		err = e.executeSequential(ctx, revision, ops, result)
	} else {
		err = e.executeConcurrent(ctx, revision, ops, result)
	}

	result.Duration = time.Since(start)
	return result, err
}

func (e *Executor) executeSequential(ctx context.Context, revision string, ops []Operation, result *Result) error {
	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, errors.CodeTimeout, "execute")
		}
		if err := e.apply(ctx, revision, op, result); err != nil {
			return err
		}
	}
	return nil
}

func (e *Executor) executeConcurrent(ctx context.Context, revision string, ops []Operation, result *Result) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for _, op := range ops {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return e.apply(gctx, revision, op, result)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.CodeTimeout, "execute")
	}
	return nil
}

func (e *Executor) apply(ctx context.Context, revision string, op Operation, result *Result) error {
	switch op.Action {
	case domain.ActionUpload:
		return e.upload(ctx, revision, op.Path, result)
	case domain.ActionDelete:
		return e.delete(ctx, op.Path, result)
	default:
		return errors.Newf(errors.CodeInternal, "execute", "unknown action %q for %s", op.Action, op.Path)
	}
}

func (e *Executor) upload(ctx context.Context, revision string, path domain.FilePath, result *Result) error {
	data, err := e.fetcher.Fetch(ctx, revision, path)
	if err != nil {
		if ctx.Err() != nil {
			return errors.Wrap(ctx.Err(), errors.CodeTimeout, "upload")
		}
		e.logger.WarnContext(ctx, "failed to fetch file, skipping",
			"path", path,
			"code", string(errors.CodeOf(err)),
			"error", err,
		)
		result.skip(path, err)
		return nil
	}

	var opts []s3types.PutOption
	if revision != "" {
		opts = append(opts, s3.WithMetadata(map[string]string{RevisionMetadataKey: revision}))
	}

	if err := e.target.Put(ctx, e.bucket, path, data, opts...); err != nil {
		if errors.Is(err, s3errors.ErrInvalidObjectKey) {
			e.logger.WarnContext(ctx, "path is not a valid object key, skipping",
				"path", path,
				"error", err,
			)
			result.skip(path, err)
			return nil
		}
		return errors.Wrap(err, errors.CodeStorageFailed, "upload "+path)
	}

	result.uploaded.Add(1)
	e.logger.InfoContext(ctx, "uploaded", "path", path, "bytes", len(data))
	return nil
}

func (e *Executor) delete(ctx context.Context, path domain.FilePath, result *Result) error {
	if err := e.target.Delete(ctx, e.bucket, path); err != nil {
		return errors.Wrap(err, errors.CodeStorageFailed, "delete "+path)
	}

	result.deleted.Add(1)
	e.logger.InfoContext(ctx, "deleted", "path", path)
	return nil
}
