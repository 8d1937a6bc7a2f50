package syncworker

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"railmap/internal/store"
)

type fakeSource struct {
	mu        sync.Mutex
	version   string
	versionFn func() (string, error)
	loadFn    func(ctx context.Context) (store.Snapshot, error)
	loads     int
}

func (f *fakeSource) Version(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.versionFn != nil {
		return f.versionFn()
	}
	return f.version, nil
}

func (f *fakeSource) Load(ctx context.Context) (store.Snapshot, error) {
	f.mu.Lock()
	f.loads++
	version := f.version
	f.mu.Unlock()
	if f.loadFn != nil {
		return f.loadFn(ctx)
	}
	return store.Snapshot{Version: version}, nil
}

func (f *fakeSource) setVersion(v string) {
	f.mu.Lock()
	f.version = v
	f.mu.Unlock()
}

func TestSyncNow_appliesOnlyOnChange(t *testing.T) {
	src := &fakeSource{version: "1"}
	var applied []string
	w := New(zerolog.New(io.Discard), src, func(_ context.Context, s store.Snapshot) error {
		applied = append(applied, s.Version)
		return nil
	}, Options{}, nil)

	ctx := context.Background()
	if ok, err := w.SyncNow(ctx); err != nil || !ok {
		t.Fatalf("expected first sync to apply, got %v %v", ok, err)
	}
	if ok, err := w.SyncNow(ctx); err != nil || ok {
		t.Fatalf("expected unchanged version to be skipped, got %v %v", ok, err)
	}
	src.setVersion("2")
	if ok, err := w.SyncNow(ctx); err != nil || !ok {
		t.Fatalf("expected new version to apply, got %v %v", ok, err)
	}
	if len(applied) != 2 || applied[1] != "2" {
		t.Fatalf("unexpected applies %v", applied)
	}
	if v, ok := w.Version(); !ok || v != "2" {
		t.Fatalf("expected version 2, got %q", v)
	}

	if err := w.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if len(applied) != 3 {
		t.Fatalf("expected Reload to force an apply, got %d", len(applied))
	}
}

func TestSyncNow_failuresDoNotAdvanceVersion(t *testing.T) {
	boom := errors.New("boom")
	src := &fakeSource{version: "1"}
	fail := true
	w := New(zerolog.New(io.Discard), src, func(context.Context, store.Snapshot) error {
		if fail {
			return boom
		}
		return nil
	}, Options{}, nil)

	if _, err := w.SyncNow(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, ok := w.Version(); ok {
		t.Fatalf("expected no version after a failed apply")
	}
	fail = false
	if ok, err := w.SyncNow(context.Background()); err != nil || !ok {
		t.Fatalf("expected retry to apply, got %v %v", ok, err)
	}
}

func TestRun_pollsUntilCancelled(t *testing.T) {
	src := &fakeSource{version: "1"}
	applied := make(chan string, 4)
	w := New(zerolog.New(io.Discard), src, func(_ context.Context, s store.Snapshot) error {
		applied <- s.Version
		return nil
	}, Options{PollInterval: 5 * time.Millisecond}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	select {
	case v := <-applied:
		if v != "1" {
			t.Fatalf("expected version 1, got %q", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for first apply")
	}

	src.setVersion("2")
	select {
	case v := <-applied:
		if v != "2" {
			t.Fatalf("expected version 2, got %q", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for second apply")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestBackoffDuration(t *testing.T) {
	base := 500 * time.Millisecond
	if got := backoffDuration(base, 0); got != base {
		t.Fatalf("expected %v, got %v", base, got)
	}
	if got := backoffDuration(base, 2); got != 2*time.Second {
		t.Fatalf("expected 2s, got %v", got)
	}
	if got := backoffDuration(base, 50); got != 10*time.Second {
		t.Fatalf("expected cap of 10s, got %v", got)
	}
}

func TestRun_nilWorkerReturns(t *testing.T) {
	var w *Worker
	w.Run(context.Background())
}
