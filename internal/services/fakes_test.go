package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"resume-intake/internal/domain/submission"
	"resume-intake/internal/storage"
)

var errStoreDown = errors.New("object store unavailable")

type putCall struct {
	Key  string
	Data []byte
	Opts storage.PutOptions
}

// fakeBlobStore fails the first `failures` puts (or every put when
// alwaysFail is set) and records every call.
type fakeBlobStore struct {
	mu         sync.Mutex
	failures   int
	alwaysFail bool
	block      bool
	calls      []putCall
	objects    map[string][]byte
	baseURL    string
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: make(map[string][]byte), baseURL: "https://cdn.test/storage/v1/object/public/resumes"}
}

func (f *fakeBlobStore) Put(ctx context.Context, key string, data []byte, opts storage.PutOptions) error {
	f.mu.Lock()
	f.calls = append(f.calls, putCall{Key: key, Data: append([]byte(nil), data...), Opts: opts})
	block := f.block
	fail := f.alwaysFail || f.failures > 0
	if f.failures > 0 {
		f.failures--
	}
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	if fail {
		return errStoreDown
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = append([]byte(nil), data...)
	return nil
}

func (f *fakeBlobStore) PublicURL(key string) string {
	if f.baseURL == "" || key == "" {
		return ""
	}
	return f.baseURL + "/" + key
}

func (f *fakeBlobStore) HealthCheck(ctx context.Context) error {
	return nil
}

func (f *fakeBlobStore) Calls() []putCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]putCall(nil), f.calls...)
}

func (f *fakeBlobStore) Object(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	return data, ok
}

type fakeSubmissionRepository struct {
	mu        sync.Mutex
	records   []submission.Record
	inserts   int
	insertErr error
	listErr   error
}

func (r *fakeSubmissionRepository) Insert(ctx context.Context, rec *submission.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inserts++
	if r.insertErr != nil {
		return r.insertErr
	}
	r.records = append(r.records, *rec)
	return nil
}

func (r *fakeSubmissionRepository) ListAll(ctx context.Context) ([]submission.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := append([]submission.Record(nil), r.records...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *fakeSubmissionRepository) Inserts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inserts
}

func testOptimizerConfig() OptimizerConfig {
	cfg := DefaultOptimizerConfig()
	cfg.BackoffUnit = time.Millisecond
	cfg.AttemptTimeout = time.Second
	return cfg
}

// steppingClock returns base, base+step, base+2*step ... on each call.
func steppingClock(base time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	next := base
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := next
		next = next.Add(step)
		return t
	}
}
