// Package s3 is the target side of a mirror: a thin layer over AWS SDK v2
// that lists every key in a bucket, writes an object in a single request,
// and deletes an object idempotently.
//
// Example usage:
//
//	client, err := s3.New(ctx, s3.WithRegion("eu-west-1"))
//	if err != nil {
//	    return err
//	}
//
//	keys, err := client.ListKeys(ctx, "my-bucket", "")
//	if err != nil {
//	    return err
//	}
package s3
