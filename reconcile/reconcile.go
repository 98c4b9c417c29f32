package reconcile

import (
	"context"
	"log/slog"
	"time"

	"github.com/input-output-hk/reposync/domain"
	"github.com/input-output-hk/reposync/errors"
	"github.com/input-output-hk/reposync/source"
)

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithConcurrency sets how many per-key operations run at once.
// 1, the default, is fully sequential.
func WithConcurrency(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Reconciler mirrors one source into one bucket.
type Reconciler struct {
	source      source.Source
	target      Target
	bucket      string
	planner     *Planner
	concurrency int
	logger      *slog.Logger
}

// New creates a Reconciler.
func New(src source.Source, target Target, bucket string, opts ...Option) *Reconciler {
	r := &Reconciler{
		source:      src,
		target:      target,
		bucket:      bucket,
		planner:     NewPlanner(),
		concurrency: 1,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run performs one reconciliation. Both listings complete before any
// mutation; a failure in either aborts the run with the target untouched.
// Skipped files are reported in the summary and do not fail the run.
func (r *Reconciler) Run(ctx context.Context) (*domain.RunSummary, error) {
	start := time.Now()

	snapshot, err := r.source.List(ctx)
	if err != nil {
		return nil, ensureCoded(err, errors.CodeSourceFailed, "list source")
	}

	existing, err := r.target.ListKeys(ctx, r.bucket, "")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageFailed, "list bucket")
	}

	plan := r.planner.Plan(snapshot.Files, existing)
	r.logger.InfoContext(ctx, "planned sync",
		"revision", snapshot.Revision,
		"source_files", snapshot.Files.Len(),
		"target_keys", existing.Len(),
		"to_upload", plan.ToUpload.Len(),
		"to_delete", plan.ToDelete.Len(),
	)

	executor := NewExecutor(r.source, r.target, r.bucket, r.concurrency, r.logger)
	result, err := executor.Execute(ctx, snapshot.Revision, r.planner.Operations(plan))
	if err != nil {
		r.logger.ErrorContext(ctx, "sync aborted",
			"uploaded", result.Uploaded(),
			"deleted", result.Deleted(),
			"error", err,
		)
		return nil, err
	}

	summary := &domain.RunSummary{
		Revision: snapshot.Revision,
		Uploaded: result.Uploaded(),
		Deleted:  result.Deleted(),
		Skipped:  result.Skipped(),
		Duration: time.Since(start),
	}

	r.logger.InfoContext(ctx, "sync complete",
		"revision", summary.Revision,
		"uploaded", summary.Uploaded,
		"deleted", summary.Deleted,
		"skipped", len(summary.Skipped),
		"duration", summary.Duration,
	)

	return summary, nil
}

// ensureCoded keeps coded errors as they are and wraps anything else.
func ensureCoded(err error, code errors.ErrorCode, op string) error {
	var coded *errors.Error
	if errors.As(err, &coded) {
		return err
	}
	return errors.Wrap(err, code, op)
}
