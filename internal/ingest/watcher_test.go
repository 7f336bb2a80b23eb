package ingest

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joseph-ayodele/invoice-matcher/internal/core/async"
)

const eventWait = 5 * time.Second

// chanQueue hands enqueued jobs to the test goroutine.
type chanQueue struct{ jobs chan async.Job }

func newChanQueue() *chanQueue { return &chanQueue{jobs: make(chan async.Job, 16)} }

func (q *chanQueue) Enqueue(_ context.Context, j async.Job) error {
	q.jobs <- j
	return nil
}
func (q *chanQueue) Shutdown(context.Context) {}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func runService(t *testing.T, root string, debounce time.Duration) *chanQueue {
	t.Helper()
	q := newChanQueue()
	s := NewService(q, debounce, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, root) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Run: %v", err)
			}
		case <-time.After(eventWait):
			t.Error("Run did not stop after cancel")
		}
	})
	return q
}

func expectOneJob(t *testing.T, q *chanQueue, key string) {
	t.Helper()
	select {
	case j := <-q.jobs:
		if j.Key != key {
			t.Fatalf("job key = %q, want %q", j.Key, key)
		}
		if j.InvoicePath != key+"_invoice.pdf" || j.POPath != key+"_po.pdf" {
			t.Fatalf("job = %+v", j)
		}
	case <-time.After(eventWait):
		t.Fatal("no job enqueued")
	}
	select {
	case j := <-q.jobs:
		t.Fatalf("unexpected second job %+v", j)
	case <-time.After(500 * time.Millisecond):
	}
}

func waitEvent(t *testing.T, events <-chan Event, want Event) {
	t.Helper()
	deadline := time.After(eventWait)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatalf("events closed before %+v", want)
			}
			if filepath.Ext(ev.Path) == ".txt" || filepath.Base(ev.Path)[0] == '.' {
				t.Fatalf("event for filtered file %+v", ev)
			}
			if ev == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %+v", want)
		}
	}
}

func TestService_RunInitialScan(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "x_invoice.pdf"))
	touch(t, filepath.Join(root, "x_po.pdf"))
	touch(t, filepath.Join(root, "lonely_invoice.pdf"))
	touch(t, filepath.Join(root, ".hidden", "h_invoice.pdf"))
	touch(t, filepath.Join(root, ".hidden", "h_po.pdf"))

	q := runService(t, root, 100*time.Millisecond)
	expectOneJob(t, q, filepath.Join(root, "x"))
}

func TestService_RunDebouncedPair(t *testing.T) {
	root := t.TempDir()
	q := runService(t, root, 300*time.Millisecond)
	// give the watcher time to register the root
	time.Sleep(200 * time.Millisecond)

	touch(t, filepath.Join(root, "x_invoice.pdf"))
	touch(t, filepath.Join(root, "x_po.pdf"))
	expectOneJob(t, q, filepath.Join(root, "x"))
}

func TestStartWatcher_CoalescesWrites(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, Debounce: 200 * time.Millisecond, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("StartWatcher: %v", err)
	}
	path := filepath.Join(root, "a_invoice.pdf")
	for i := 0; i < 5; i++ {
		touch(t, path)
	}

	var got []Event
	timeout := time.After(time.Second)
collect:
	for {
		select {
		case ev := <-events:
			got = append(got, ev)
		case <-timeout:
			break collect
		}
	}
	if len(got) != 1 || got[0] != (Event{Path: path}) {
		t.Fatalf("events = %+v, want one write of %s", got, path)
	}
}

func TestStartWatcher_RemoveAndRename(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())

	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("StartWatcher: %v", err)
	}

	po := filepath.Join(root, "a_po.pdf")
	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, ".draft_po.pdf"))
	touch(t, po)
	waitEvent(t, events, Event{Path: po})

	if err := os.Remove(po); err != nil {
		t.Fatal(err)
	}
	waitEvent(t, events, Event{Path: po, Removed: true})

	from := filepath.Join(root, "b_invoice.pdf")
	to := filepath.Join(root, "c_invoice.pdf")
	touch(t, from)
	waitEvent(t, events, Event{Path: from})
	if err := os.Rename(from, to); err != nil {
		t.Fatal(err)
	}
	waitEvent(t, events, Event{Path: from, Removed: true})
	waitEvent(t, events, Event{Path: to})

	cancel()
	deadline := time.After(eventWait)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("events channel not closed after cancel")
		}
	}
}

func TestStartWatcher_NoRoots(t *testing.T) {
	if _, _, err := StartWatcher(context.Background(), WatchConfig{}); err == nil {
		t.Fatal("expected error for empty roots")
	}
}
