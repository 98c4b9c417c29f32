package reconcile

import (
	"context"
	"sync"

	"github.com/input-output-hk/reposync/aws/s3/s3types"
	"github.com/input-output-hk/reposync/domain"
	"github.com/input-output-hk/reposync/errors"
)

// fakeSource serves a fixed snapshot from memory.
type fakeSource struct {
	revision string
	files    map[string]string
	failing  map[string]bool
	listErr  error

	mu         sync.Mutex
	listCalls  int
	fetchCalls []string
	revisions  []string
}

func newFakeSource(files map[string]string) *fakeSource {
	return &fakeSource{revision: "c0ffee", files: files, failing: map[string]bool{}}
}

func (f *fakeSource) List(context.Context) (*domain.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	set := domain.NewFileSet()
	for p := range f.files {
		set.Add(p)
	}
	return &domain.Snapshot{Revision: f.revision, Tree: "t1", Files: set}, nil
}

func (f *fakeSource) Fetch(_ context.Context, revision string, path domain.FilePath) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls = append(f.fetchCalls, path)
	f.revisions = append(f.revisions, revision)
	if f.failing[path] {
		return nil, errors.Newf(errors.CodeNotFound, "fetch content", "%s: 404 Not Found", path)
	}
	content, ok := f.files[path]
	if !ok {
		return nil, errors.Newf(errors.CodeNotFound, "fetch content", "%s: 404 Not Found", path)
	}
	return []byte(content), nil
}

// fakeTarget is an in-memory bucket recording every call.
type fakeTarget struct {
	mu       sync.Mutex
	objects  map[string]string
	metadata map[string]map[string]string
	calls    []string
	listErr  error
	putErr   map[string]error
	delErr   map[string]error
}

func newFakeTarget(keys ...string) *fakeTarget {
	t := &fakeTarget{
		objects:  map[string]string{},
		metadata: map[string]map[string]string{},
		putErr:   map[string]error{},
		delErr:   map[string]error{},
	}
	for _, k := range keys {
		t.objects[k] = "stale"
	}
	return t
}

func (t *fakeTarget) ListKeys(_ context.Context, _, _ string) (domain.FileSet, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, "list")
	if t.listErr != nil {
		return nil, t.listErr
	}
	set := domain.NewFileSet()
	for k := range t.objects {
		set.Add(k)
	}
	return set, nil
}

func (t *fakeTarget) Put(_ context.Context, _, key string, data []byte, opts ...s3types.PutOption) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, "put "+key)
	if err := t.putErr[key]; err != nil {
		return err
	}
	cfg := &s3types.PutConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	t.objects[key] = string(data)
	t.metadata[key] = cfg.Metadata
	return nil
}

func (t *fakeTarget) Delete(_ context.Context, _, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, "delete "+key)
	if err := t.delErr[key]; err != nil {
		return err
	}
	delete(t.objects, key)
	return nil
}

func (t *fakeTarget) keys() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	set := domain.NewFileSet()
	for k := range t.objects {
		set.Add(k)
	}
	return set.Sorted()
}

func (t *fakeTarget) mutations() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []string
	for _, c := range t.calls {
		if c != "list" {
			out = append(out, c)
		}
	}
	return out
}
