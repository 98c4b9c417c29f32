// Package s3types provides shared type definitions for the S3 module.
package s3types

import (
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// StorageClass represents the S3 storage class for objects.
type StorageClass string

// Storage classes accepted for uploaded objects.
const (
	// StorageClassStandard is the default S3 storage class
	StorageClassStandard StorageClass = "STANDARD"

	// StorageClassStandardIA provides infrequent access storage
	StorageClassStandardIA StorageClass = "STANDARD_IA"

	// StorageClassIntelligentTiering provides intelligent tiering storage
	StorageClassIntelligentTiering StorageClass = "INTELLIGENT_TIERING"
)

// ClientConfig holds configuration options for the S3 client.
type ClientConfig struct {
	// Region is the AWS region
	Region string

	// MaxRetries is the maximum number of SDK retry attempts
	MaxRetries int

	// Timeout for individual HTTP requests
	Timeout time.Duration

	// ForcePathStyle uses path-style addressing
	ForcePathStyle bool

	// Endpoint overrides the S3 endpoint (S3-compatible services, LocalStack)
	Endpoint string

	// CustomAWSConfig replaces default credential-chain loading
	CustomAWSConfig *aws.Config
}

// Option configures a ClientConfig.
type Option func(*ClientConfig)

// PutConfig holds per-object options for Put.
type PutConfig struct {
	// ContentType overrides content-type detection
	ContentType string

	// StorageClass of the written object
	StorageClass StorageClass

	// Metadata is user metadata stored with the object
	Metadata map[string]string
}

// PutOption configures a PutConfig.
type PutOption func(*PutConfig)
