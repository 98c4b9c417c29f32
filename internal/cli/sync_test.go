package cli

import (
	"bytes"
	"context"
	"log/slog"
	"sort"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/reposync/aws/s3/s3types"
	"github.com/input-output-hk/reposync/config"
	"github.com/input-output-hk/reposync/domain"
	"github.com/input-output-hk/reposync/errors"
	"github.com/input-output-hk/reposync/reconcile"
	"github.com/input-output-hk/reposync/secrets"
	secretsaws "github.com/input-output-hk/reposync/secrets/providers/aws"
	"github.com/input-output-hk/reposync/source"
)

const testToken = "ghp_cli_test_token_value"

func lookupFrom(vars map[string]string) config.LookupFunc {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func baseVars() map[string]string {
	return map[string]string{
		config.EnvOwner:  "octo",
		config.EnvRepo:   "docs",
		config.EnvBucket: "docs-mirror",
		"GITHUB_TOKEN":   testToken,
	}
}

type memorySource struct {
	files   map[string]string
	missing map[string]bool
}

func (s *memorySource) List(context.Context) (*domain.Snapshot, error) {
	set := domain.NewFileSet()
	for p := range s.files {
		set.Add(p)
	}
	return &domain.Snapshot{Revision: "abc123", Tree: "tree1", Files: set}, nil
}

func (s *memorySource) Fetch(_ context.Context, _ string, path domain.FilePath) ([]byte, error) {
	if s.missing[path] {
		return nil, errors.Newf(errors.CodeNotFound, "fetch content", "%s: 404 Not Found", path)
	}
	return []byte(s.files[path]), nil
}

type memoryBucket struct {
	mu      sync.Mutex
	objects map[string]string
}

func (b *memoryBucket) ListKeys(context.Context, string, string) (domain.FileSet, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	set := domain.NewFileSet()
	for k := range b.objects {
		set.Add(k)
	}
	return set, nil
}

func (b *memoryBucket) Put(_ context.Context, _, key string, data []byte, _ ...s3types.PutOption) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = string(data)
	return nil
}

func (b *memoryBucket) Delete(_ context.Context, _, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	return nil
}

func (b *memoryBucket) keys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	keys := make([]string, 0, len(b.objects))
	for k := range b.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// harness records what the builders were asked to construct.
type harness struct {
	src    *memorySource
	bucket *memoryBucket

	sourceCalls int
	gotToken    string
	gotConfig   config.Config
	sourceErr   error
}

func newHarness() *harness {
	return &harness{
		src: &memorySource{
			files:   map[string]string{"README.md": "# docs", "guide/intro.md": "intro"},
			missing: map[string]bool{},
		},
		bucket: &memoryBucket{objects: map[string]string{"README.md": "old", "stale.txt": "gone"}},
	}
}

func (h *harness) env(vars map[string]string, stdout, stderr *bytes.Buffer) Env {
	return Env{
		Version: "test",
		Stdout:  stdout,
		Stderr:  stderr,
		Lookup:  lookupFrom(vars),
		Builders: Builders{
			Source: func(_ context.Context, cfg *config.Config, token string, _ *slog.Logger) (source.Source, error) {
				h.sourceCalls++
				h.gotToken = token
				h.gotConfig = *cfg
				if h.sourceErr != nil {
					return nil, h.sourceErr
				}
				return h.src, nil
			},
			Target: func(context.Context, *config.Config) (reconcile.Target, error) {
				return h.bucket, nil
			},
			SecretStore: func(context.Context, *config.Config) (secrets.Provider, error) {
				return nil, errors.New(errors.CodeInternal, "open secret store", "not configured in test")
			},
		},
	}
}

func TestSync_Reconciles(t *testing.T) {
	h := newHarness()
	var stdout, stderr bytes.Buffer

	code := Execute(context.Background(), h.env(baseVars(), &stdout, &stderr), []string{"sync"})

	require.Equal(t, errors.ExitOK, code, stderr.String())
	assert.Equal(t, []string{"README.md", "guide/intro.md"}, h.bucket.keys())
	assert.Equal(t, "old", h.bucket.objects["README.md"], "existing keys are not rewritten")
	assert.Equal(t, testToken, h.gotToken)
	assert.Contains(t, stdout.String(), "run_id=")
	assert.Contains(t, stdout.String(), "sync complete")
	assert.NotContains(t, stdout.String(), testToken)
}

func TestSync_FetchFailureExitsZero(t *testing.T) {
	h := newHarness()
	h.src.missing["guide/intro.md"] = true
	var stdout, stderr bytes.Buffer

	code := Execute(context.Background(), h.env(baseVars(), &stdout, &stderr), []string{"sync"})

	require.Equal(t, errors.ExitOK, code, stderr.String())
	assert.Equal(t, []string{"README.md"}, h.bucket.keys())
	assert.Contains(t, stdout.String(), "failed to fetch file, skipping")
	assert.Empty(t, stderr.String())
}

func TestSync_MissingToken(t *testing.T) {
	h := newHarness()
	vars := baseVars()
	delete(vars, "GITHUB_TOKEN")
	var stdout, stderr bytes.Buffer

	code := Execute(context.Background(), h.env(vars, &stdout, &stderr), []string{"sync"})

	assert.Equal(t, errors.ExitConfig, code)
	assert.Contains(t, stderr.String(), "GITHUB_TOKEN")
	assert.Zero(t, h.sourceCalls)
	assert.Equal(t, []string{"README.md", "stale.txt"}, h.bucket.keys())
}

func TestSync_CustomTokenEnv(t *testing.T) {
	h := newHarness()
	vars := baseVars()
	vars["MIRROR_TOKEN"] = "ghp_other"
	var stdout, stderr bytes.Buffer

	code := Execute(context.Background(), h.env(vars, &stdout, &stderr), []string{"sync", "--token-env", "MIRROR_TOKEN"})

	require.Equal(t, errors.ExitOK, code, stderr.String())
	assert.Equal(t, "ghp_other", h.gotToken)
}

func TestSync_SourceFailureDoesNotEchoToken(t *testing.T) {
	h := newHarness()
	h.sourceErr = errors.New(errors.CodeUnauthorized, "resolve branch", "octo/docs@main: 401 Bad credentials")
	var stdout, stderr bytes.Buffer

	code := Execute(context.Background(), h.env(baseVars(), &stdout, &stderr), []string{"sync"})

	assert.Equal(t, errors.ExitFatal, code)
	assert.Contains(t, stderr.String(), "401 Bad credentials")
	assert.NotContains(t, stderr.String(), testToken)
	assert.NotContains(t, stdout.String(), testToken)
	assert.Equal(t, []string{"README.md", "stale.txt"}, h.bucket.keys())
}

func TestSync_InvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		vars    map[string]string
		args    []string
		wantErr string
	}{
		{
			name:    "missing bucket",
			vars:    map[string]string{config.EnvOwner: "octo", config.EnvRepo: "docs", "GITHUB_TOKEN": testToken},
			args:    []string{"sync"},
			wantErr: "bucket is required",
		},
		{
			name:    "bad concurrency flag",
			vars:    baseVars(),
			args:    []string{"sync", "--concurrency", "0"},
			wantErr: "concurrency",
		},
		{
			name:    "malformed env value",
			vars:    map[string]string{config.EnvOwner: "octo", config.EnvConcurrency: "many"},
			args:    []string{"sync"},
			wantErr: config.EnvConcurrency,
		},
		{
			name:    "unknown source",
			vars:    baseVars(),
			args:    []string{"sync", "--source", "ftp"},
			wantErr: "ftp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			var stdout, stderr bytes.Buffer

			code := Execute(context.Background(), h.env(tt.vars, &stdout, &stderr), tt.args)

			assert.Equal(t, errors.ExitConfig, code)
			assert.Contains(t, stderr.String(), tt.wantErr)
			assert.Zero(t, h.sourceCalls)
		})
	}
}

func TestSync_FlagsOverrideEnvironment(t *testing.T) {
	h := newHarness()
	vars := baseVars()
	vars[config.EnvBranch] = "develop"
	vars[config.EnvConcurrency] = "2"
	var stdout, stderr bytes.Buffer

	code := Execute(context.Background(), h.env(vars, &stdout, &stderr),
		[]string{"sync", "--branch", "release", "--log-format", "json"})

	require.Equal(t, errors.ExitOK, code, stderr.String())
	assert.Equal(t, "release", h.gotConfig.Branch)
	assert.Equal(t, 2, h.gotConfig.Concurrency)
	assert.Contains(t, stdout.String(), `"msg":"sync complete"`)
}

type stubSecretsManager struct {
	secretID string
	value    string
}

func (s *stubSecretsManager) GetSecretValue(_ context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	s.secretID = aws.ToString(in.SecretId)
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(s.value)}, nil
}

func TestSync_TokenFromSecretStore(t *testing.T) {
	h := newHarness()
	vars := baseVars()
	delete(vars, "GITHUB_TOKEN")
	vars[config.EnvTokenSecretID] = "reposync/github"
	vars[config.EnvTokenSecretField] = "token"

	stub := &stubSecretsManager{value: `{"token":"ghp_from_store"}`}
	var stdout, stderr bytes.Buffer
	env := h.env(vars, &stdout, &stderr)
	env.Builders.SecretStore = func(_ context.Context, cfg *config.Config) (secrets.Provider, error) {
		return secretsaws.NewWithClient(stub,
			secretsaws.WithSecretID(cfg.TokenSecretID),
			secretsaws.WithJSONField(cfg.TokenSecretField),
		), nil
	}

	code := Execute(context.Background(), env, []string{"sync"})

	require.Equal(t, errors.ExitOK, code, stderr.String())
	assert.Equal(t, "reposync/github", stub.secretID)
	assert.Equal(t, "ghp_from_store", h.gotToken)
	assert.NotContains(t, stdout.String(), "ghp_from_store")
}

func TestSync_EnvironmentTokenWinsOverSecretStore(t *testing.T) {
	h := newHarness()
	vars := baseVars()
	vars[config.EnvTokenSecretID] = "reposync/github"

	stub := &stubSecretsManager{value: "ghp_from_store"}
	var stdout, stderr bytes.Buffer
	env := h.env(vars, &stdout, &stderr)
	env.Builders.SecretStore = func(_ context.Context, cfg *config.Config) (secrets.Provider, error) {
		return secretsaws.NewWithClient(stub, secretsaws.WithSecretID(cfg.TokenSecretID)), nil
	}

	code := Execute(context.Background(), env, []string{"sync"})

	require.Equal(t, errors.ExitOK, code, stderr.String())
	assert.Equal(t, testToken, h.gotToken)
	assert.Empty(t, stub.secretID, "secret store consulted although the variable was set")
}
