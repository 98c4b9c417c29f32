// Package aws provides an AWS Secrets Manager provider for the reposync
// secrets framework.
//
// Credentials for Secrets Manager itself come from the ambient AWS chain.
//
// # Basic Usage
//
//	provider, err := aws.New(ctx, aws.WithRegion("eu-west-1"))
//	if err != nil {
//	    return err
//	}
//	_ = manager.RegisterProvider(provider)
//
// Secrets stored as JSON objects can be narrowed to one field:
//
//	provider, err := aws.New(ctx, aws.WithJSONField("token"))
package aws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"

	"github.com/input-output-hk/reposync/secrets"
)

// SecretsManagerAPI defines the Secrets Manager operations used by the provider.
// This interface allows for mocking AWS SDK calls in unit tests.
type SecretsManagerAPI interface {
	GetSecretValue(
		ctx context.Context,
		params *secretsmanager.GetSecretValueInput,
		optFns ...func(*secretsmanager.Options),
	) (*secretsmanager.GetSecretValueOutput, error)
}

var _ SecretsManagerAPI = (*secretsmanager.Client)(nil)

// Provider implements secrets.Provider for AWS Secrets Manager.
// Provider is safe for concurrent use by multiple goroutines.
type Provider struct {
	client SecretsManagerAPI
	config *Config
}

// Config holds the configuration for the AWS Secrets Manager provider.
type Config struct {
	// Region specifies the AWS region for Secrets Manager operations.
	Region string
	// MaxRetries specifies the maximum number of SDK retry attempts.
	MaxRetries int
	// Endpoint overrides the AWS endpoint (useful for LocalStack testing).
	Endpoint string
	// JSONField, when set, treats the secret string as a JSON object and
	// returns only this field.
	JSONField string
	// SecretID, when set, is resolved in place of the reference path.
	SecretID string
}

// Option defines a functional option for configuring the provider.
type Option func(*Config)

// WithRegion sets the AWS region for the provider.
func WithRegion(region string) Option {
	return func(c *Config) {
		c.Region = region
	}
}

// WithMaxRetries sets the maximum number of SDK retry attempts.
func WithMaxRetries(maxRetries int) Option {
	return func(c *Config) {
		c.MaxRetries = maxRetries
	}
}

// WithEndpoint sets a custom Secrets Manager endpoint.
func WithEndpoint(endpoint string) Option {
	return func(c *Config) {
		c.Endpoint = endpoint
	}
}

// WithJSONField selects one field of a JSON secret.
func WithJSONField(field string) Option {
	return func(c *Config) {
		c.JSONField = field
	}
}

// WithSecretID pins the secret id. The provider then answers every
// reference with this one secret, which lets it sit in a chain behind
// providers that interpret the reference path differently.
func WithSecretID(id string) Option {
	return func(c *Config) {
		c.SecretID = id
	}
}

// New creates a provider using the default AWS credential chain.
func New(ctx context.Context, opts ...Option) (*Provider, error) {
	cfg := &Config{}
	for _, opt := range opts {
		opt(cfg)
	}

	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if cfg.Region != "" {
		awsCfg.Region = cfg.Region
	}
	if cfg.MaxRetries > 0 {
		awsCfg.RetryMaxAttempts = cfg.MaxRetries
	}

	client := secretsmanager.NewFromConfig(awsCfg, func(o *secretsmanager.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return &Provider{client: client, config: cfg}, nil
}

// NewWithClient creates a provider around an existing client.
// This is primarily used for testing with mocked clients.
func NewWithClient(client SecretsManagerAPI, opts ...Option) *Provider {
	cfg := &Config{}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Provider{client: client, config: cfg}
}

// Name returns "aws".
func (p *Provider) Name() string {
	return "aws"
}

// Close is a no-op; AWS SDK v2 clients hold no resources that need releasing.
func (p *Provider) Close() error {
	return nil
}

// Resolve fetches the secret identified by ref.Path. ref.Version may be a
// version id or a staging label such as AWSCURRENT.
func (p *Provider) Resolve(ctx context.Context, ref secrets.SecretRef) (*secrets.Secret, error) {
	if p.config.SecretID != "" {
		ref.Path = p.config.SecretID
	}
	if ref.Path == "" {
		return nil, fmt.Errorf("secret reference path cannot be empty: %w", secrets.ErrInvalidRef)
	}

	input := &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(ref.Path),
	}
	if ref.Version != "" {
		if strings.HasPrefix(ref.Version, "AWS") {
			input.VersionStage = aws.String(ref.Version)
		} else {
			input.VersionId = aws.String(ref.Version)
		}
	}

	output, err := p.client.GetSecretValue(ctx, input)
	if err != nil {
		return nil, p.mapAWSError(ref, err)
	}

	var value []byte
	switch {
	case output.SecretString != nil:
		value = []byte(*output.SecretString)
	case output.SecretBinary != nil:
		value = output.SecretBinary
	default:
		return nil, fmt.Errorf("secret %q has no value: %w", ref.Path, secrets.ErrProviderError)
	}

	if p.config.JSONField != "" {
		value, err = extractField(value, p.config.JSONField)
		if err != nil {
			return nil, fmt.Errorf("secret %q: %w", ref.Path, err)
		}
	}

	return &secrets.Secret{
		Value:     value,
		Version:   aws.ToString(output.VersionId),
		CreatedAt: aws.ToTime(output.CreatedDate),
	}, nil
}

// extractField returns one string field of a JSON object. The raw document
// is zeroed before returning.
func extractField(doc []byte, field string) ([]byte, error) {
	defer func() {
		for i := range doc {
			doc[i] = 0
		}
	}()

	var fields map[string]any
	if err := json.Unmarshal(doc, &fields); err != nil {
		return nil, fmt.Errorf("value is not a JSON object: %w", secrets.ErrProviderError)
	}
	raw, ok := fields[field]
	if !ok {
		return nil, fmt.Errorf("field %q: %w", field, secrets.ErrSecretNotFound)
	}
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("field %q is not a string: %w", field, secrets.ErrProviderError)
	}
	return []byte(s), nil
}

// mapAWSError maps AWS SDK errors to secrets error types.
func (p *Provider) mapAWSError(ref secrets.SecretRef, err error) error {
	var rnf *types.ResourceNotFoundException
	if errors.As(err, &rnf) {
		return fmt.Errorf("secret %q not found: %w", ref.Path, secrets.ErrSecretNotFound)
	}

	var ipe *types.InvalidParameterException
	if errors.As(err, &ipe) {
		if ipe.Message != nil && containsAccessDeniedMessage(*ipe.Message) {
			return fmt.Errorf("access denied for secret %q: %w", ref.Path, secrets.ErrAccessDenied)
		}
		return secrets.WrapProviderError(p.Name(), ref, err, "invalid parameter")
	}

	if containsAccessDeniedMessage(err.Error()) {
		return fmt.Errorf("access denied for secret %q: %w", ref.Path, secrets.ErrAccessDenied)
	}

	return secrets.WrapProviderError(p.Name(), ref, err, "failed to resolve secret")
}

func containsAccessDeniedMessage(msg string) bool {
	lowerMsg := strings.ToLower(msg)
	return strings.Contains(lowerMsg, "access") && strings.Contains(lowerMsg, "denied")
}
