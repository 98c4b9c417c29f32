package reconcile

import (
	"context"

	"github.com/input-output-hk/reposync/aws/s3"
	"github.com/input-output-hk/reposync/aws/s3/s3types"
	"github.com/input-output-hk/reposync/domain"
)

// Target is the bucket store a run mutates.
type Target interface {
	ListKeys(ctx context.Context, bucket, prefix string) (domain.FileSet, error)
	Put(ctx context.Context, bucket, key string, data []byte, opts ...s3types.PutOption) error
	Delete(ctx context.Context, bucket, key string) error
}

var _ Target = (*s3.Client)(nil)
