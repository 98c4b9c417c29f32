package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/gabriel-vasile/mimetype"

	s3errors "github.com/input-output-hk/reposync/aws/s3/errors"
	"github.com/input-output-hk/reposync/aws/s3/internal/validation"
	"github.com/input-output-hk/reposync/aws/s3/s3types"
	"github.com/input-output-hk/reposync/domain"
)

// DefaultContentType is used when detection yields nothing.
const DefaultContentType = "application/octet-stream"

// listPageSize is the maximum number of keys S3 returns per page.
const listPageSize = 1000

// ListKeys returns every object key in bucket that starts with prefix,
// following continuation tokens until the listing is exhausted.
// An empty bucket yields an empty, non-nil set.
//
// Keys are requested URL-encoded, since control characters in a key cannot
// travel in the XML response, and are decoded before they are returned.
//
// Errors:
//   - ErrInvalidBucketName: If bucket is not a valid bucket name
//   - ErrBucketNotFound: If the bucket does not exist
//   - ErrAccessDenied: If the credentials lack permission to list
func (c *Client) ListKeys(ctx context.Context, bucket, prefix string) (domain.FileSet, error) {
	if err := validation.ValidateBucketName(bucket); err != nil {
		return nil, err
	}

	input := &s3.ListObjectsV2Input{
		Bucket:       aws.String(bucket),
		MaxKeys:      aws.Int32(listPageSize),
		EncodingType: types.EncodingTypeUrl,
	}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	keys := domain.NewFileSet()
	paginator := s3.NewListObjectsV2Paginator(c.s3Client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, s3errors.NewError("list", c.convertAWSError(err)).WithBucket(bucket)
		}
		for _, obj := range page.Contents {
			encoded := aws.ToString(obj.Key)
			if encoded == "" {
				continue
			}
			key, err := url.QueryUnescape(encoded)
			if err != nil {
				return nil, s3errors.NewObjectError("list", bucket, encoded,
					fmt.Errorf("decoding listed key: %w", err))
			}
			keys.Add(key)
		}
	}

	return keys, nil
}

// Put writes data to bucket/key in a single request, replacing any
// existing object. The content type is taken from the key's extension,
// falling back to sniffing data.
//
// Example:
//
//	err := client.Put(ctx, "my-bucket", "docs/index.html", data,
//	    s3.WithStorageClass(s3types.StorageClassStandardIA),
//	)
func (c *Client) Put(ctx context.Context, bucket, key string, data []byte, opts ...s3types.PutOption) error {
	if err := validation.ValidateBucketName(bucket); err != nil {
		return err
	}
	if err := validation.ValidateObjectKey(key); err != nil {
		return err
	}

	config := &s3types.PutConfig{
		StorageClass: s3types.StorageClassStandard,
	}
	for _, opt := range opts {
		opt(config)
	}

	if config.ContentType == "" {
		config.ContentType = DetectContentType(key, data)
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(config.ContentType),
		StorageClass:  types.StorageClass(config.StorageClass),
	}
	if len(config.Metadata) > 0 {
		input.Metadata = config.Metadata
	}

	if _, err := c.s3Client.PutObject(ctx, input); err != nil {
		return s3errors.NewObjectError("put", bucket, key, c.convertAWSError(err))
	}

	return nil
}

// Delete removes bucket/key.
//
// This operation is idempotent - deleting a non-existent object doesn't return an error.
//
// Errors:
//   - ErrInvalidBucketName: If bucket is not a valid bucket name
//   - ErrInvalidObjectKey: If key is empty or too long
//   - ErrAccessDenied: If the credentials lack permission to delete
//   - ErrBucketNotFound: If the specified bucket doesn't exist
func (c *Client) Delete(ctx context.Context, bucket, key string) error {
	if err := validation.ValidateBucketName(bucket); err != nil {
		return err
	}
	if err := validation.ValidateListedKey(key); err != nil {
		return err
	}

	input := &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}

	if _, err := c.s3Client.DeleteObject(ctx, input); err != nil {
		converted := c.convertAWSError(err)
		if s3errors.IsObjectNotFound(converted) {
			return nil
		}
		return s3errors.NewObjectError("delete", bucket, key, converted)
	}

	return nil
}

// convertAWSError converts AWS SDK errors to our sentinel errors,
// keeping the original error in the chain.
func (c *Client) convertAWSError(err error) error {
	if err == nil {
		return nil
	}

	var noSuchBucket *types.NoSuchBucket
	if errors.As(err, &noSuchBucket) {
		return fmt.Errorf("%w: %w", s3errors.ErrBucketNotFound, err)
	}

	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return fmt.Errorf("%w: %w", s3errors.ErrObjectNotFound, err)
	}

	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return fmt.Errorf("%w: %w", s3errors.ErrObjectNotFound, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchBucket":
			return fmt.Errorf("%w: %w", s3errors.ErrBucketNotFound, err)
		case "NoSuchKey", "NotFound":
			return fmt.Errorf("%w: %w", s3errors.ErrObjectNotFound, err)
		case "AccessDenied", "AllAccessDisabled", "Forbidden":
			return fmt.Errorf("%w: %w", s3errors.ErrAccessDenied, err)
		case "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken", "InvalidToken":
			return fmt.Errorf("%w: %w", s3errors.ErrInvalidCredentials, err)
		case "SlowDown", "TooManyRequests", "RequestLimitExceeded":
			return fmt.Errorf("%w: %w", s3errors.ErrTooManyRequests, err)
		}
	}

	return err
}

// DetectContentType picks a content type for key, preferring the
// extension and falling back to sniffing data with mimetype.
func DetectContentType(key string, data []byte) string {
	if ext := strings.ToLower(path.Ext(key)); ext != "" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			return byExt
		}
	}

	if len(data) > 0 {
		if mt := mimetype.Detect(data); mt != nil {
			return mt.String()
		}
	}

	return DefaultContentType
}
