package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gqcore/gqcore/pkg/notify"
)

func TestWatcherPublishesRereadOnFileCreate(t *testing.T) {
	dir := t.TempDir()

	bus := notify.NewBus()
	events := make(chan interface{}, 4)
	bus.Subscribe(notify.PriorityNormal, nil, func(subject interface{}, kinds notify.EventKinds, data interface{}) {
		events <- subject
	})

	w, err := New(bus, nil, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "new.jpg"), []byte("x"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	select {
	case subject := <-events:
		normalized, _ := filepath.Abs(dir)
		if subject != normalized && subject != dir {
			t.Errorf("got subject %v, want %s", subject, dir)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a reread notification")
	}
}

func TestWatcherAddIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	w, err := New(notify.NewBus(), nil, time.Millisecond)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		t.Fatalf("first Add failed: %v", err)
	}
	if err := w.Add(dir); err != nil {
		t.Fatalf("second Add failed: %v", err)
	}
	if len(w.dirs) != 1 {
		t.Errorf("got %d watched directories, want 1", len(w.dirs))
	}
}

func TestWatcherRemoveStopsTracking(t *testing.T) {
	dir := t.TempDir()
	w, err := New(notify.NewBus(), nil, time.Millisecond)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := w.Remove(dir); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if len(w.dirs) != 0 {
		t.Errorf("got %d watched directories, want 0", len(w.dirs))
	}
	// Removing an already-removed directory is a no-op, not an error.
	if err := w.Remove(dir); err != nil {
		t.Errorf("second Remove returned an error: %v", err)
	}
}

func TestWatcherAddAfterCloseFails(t *testing.T) {
	w, err := New(notify.NewBus(), nil, time.Millisecond)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := w.Add(t.TempDir()); err == nil {
		t.Error("expected Add to fail after Close")
	}
}
