package filedata

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gqcore/gqcore/pkg/logging"
	"github.com/gqcore/gqcore/pkg/metastore"
	"github.com/gqcore/gqcore/pkg/notify"
)

func newTestRegistry() (*Registry, *notify.Bus) {
	bus := notify.NewBus()
	logger := logging.NewLogger(logging.LevelError, &bytes.Buffer{})
	return NewRegistry(bus, logger, nil), bus
}

func newTestRegistryWithMetaStore(metaStore metastore.Collaborator) (*Registry, *notify.Bus) {
	bus := notify.NewBus()
	logger := logging.NewLogger(logging.LevelError, &bytes.Buffer{})
	return NewRegistry(bus, logger, metaStore), bus
}

func TestAcquireReturnsSameRecordForSamePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.jpg")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	r, _ := newTestRegistry()

	fd1, err := r.Acquire(path)
	if err != nil {
		t.Fatal(err)
	}
	fd2, err := r.Acquire(path)
	if err != nil {
		t.Fatal(err)
	}
	if fd1 != fd2 {
		t.Error("expected the same FileData for the same path")
	}
	if fd1.Class != ClassImage {
		t.Errorf("expected ClassImage, got %v", fd1.Class)
	}
}

func TestAcquireMissingPathIsFlaggedUnknown(t *testing.T) {
	r, _ := newTestRegistry()
	fd, err := r.Acquire("/nonexistent/path/does-not-exist.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if !fd.Unknown {
		t.Error("expected Unknown to be true for a missing path")
	}
}

func TestReleaseRemovesAtZeroRefcount(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.jpg")
	os.WriteFile(path, []byte("x"), 0644)
	r, _ := newTestRegistry()

	fd, _ := r.Acquire(path)
	r.Release(fd)

	if r.Lookup(path) != nil {
		t.Error("expected record to be removed after release")
	}
}

func TestSidecarGroupingPicksNonSidecarPrimary(t *testing.T) {
	dir := t.TempDir()
	jpgPath := filepath.Join(dir, "img0001.jpg")
	xmpPath := filepath.Join(dir, "img0001.xmp")
	os.WriteFile(jpgPath, []byte("x"), 0644)
	os.WriteFile(xmpPath, []byte("x"), 0644)

	r, _ := newTestRegistry()
	jpg, _ := r.Acquire(jpgPath)
	xmp, _ := r.Acquire(xmpPath)

	if !jpg.IsSidecarPrimary() {
		t.Fatal("expected jpg to be the sidecar primary")
	}
	if len(jpg.Sidecars) != 1 || jpg.Sidecars[0] != xmp {
		t.Errorf("expected jpg.Sidecars == [xmp], got %v", jpg.Sidecars)
	}
	if xmp.Parent != jpg {
		t.Error("expected xmp.Parent == jpg")
	}
}

func TestReleaseKeepsNonEmptySidecarPrimaryAlive(t *testing.T) {
	dir := t.TempDir()
	jpgPath := filepath.Join(dir, "img0001.jpg")
	xmpPath := filepath.Join(dir, "img0001.xmp")
	os.WriteFile(jpgPath, []byte("x"), 0644)
	os.WriteFile(xmpPath, []byte("x"), 0644)

	r, _ := newTestRegistry()
	jpg, _ := r.Acquire(jpgPath)
	r.Acquire(xmpPath)

	r.Release(jpg) // refcount hits zero, but the group is non-empty.

	if r.Lookup(jpgPath) == nil {
		t.Error("expected sidecar primary to remain resident while its group is non-empty")
	}
}

func TestNotifyChangePropagatesRenameToSidecars(t *testing.T) {
	dir := t.TempDir()
	jpgPath := filepath.Join(dir, "img0001.jpg")
	xmpPath := filepath.Join(dir, "img0001.xmp")
	os.WriteFile(jpgPath, []byte("x"), 0644)
	os.WriteFile(xmpPath, []byte("x"), 0644)

	r, bus := newTestRegistry()
	jpg, _ := r.Acquire(jpgPath)
	r.Acquire(xmpPath)

	var seenRenames int
	bus.Subscribe(notify.PriorityNormal, nil, func(subject interface{}, kinds notify.EventKinds, data interface{}) {
		if kinds&notify.Change != 0 {
			seenRenames++
		}
	})

	newPath := filepath.Join(dir, "img0002.jpg")
	r.NotifyChange(jpg, ChangeRename, jpgPath, newPath)

	if seenRenames != 2 {
		t.Errorf("expected 2 change notifications (primary + sidecar), got %d", seenRenames)
	}
	if jpg.Change != nil {
		t.Error("expected change descriptor to be consumed after dispatch")
	}
}

func TestRatingSetPersistsThroughMetaStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.jpg")
	os.WriteFile(path, []byte("x"), 0644)

	store := metastore.NewStore(t.TempDir())
	r, _ := newTestRegistryWithMetaStore(store)
	fd, _ := r.Acquire(path)

	r.RatingSet(fd, 4)
	if fd.Rating != 4 {
		t.Fatalf("expected in-memory rating to update immediately, got %d", fd.Rating)
	}

	waitForMetadata(t, store, path, func(rec *metastore.Record) bool {
		return rec.HasRating && rec.Rating == 4
	})
}

func TestMarksSetPersistsThroughMetaStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.jpg")
	os.WriteFile(path, []byte("x"), 0644)

	store := metastore.NewStore(t.TempDir())
	r, _ := newTestRegistryWithMetaStore(store)
	fd, _ := r.Acquire(path)

	r.MarksSet(fd, 1<<3)
	waitForMetadata(t, store, path, func(rec *metastore.Record) bool {
		return rec.Marks == 1<<3
	})
}

func TestAcquireLoadsPersistedRatingAndMarks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.jpg")
	os.WriteFile(path, []byte("x"), 0644)

	store := metastore.NewStore(t.TempDir())
	store.Save(path, &metastore.Record{Rating: 2, HasRating: true, Marks: 1 << 1})

	r, _ := newTestRegistryWithMetaStore(store)
	fd, err := r.Acquire(path)
	if err != nil {
		t.Fatal(err)
	}
	if fd.Rating != 2 {
		t.Errorf("got rating %d, want 2", fd.Rating)
	}
	if fd.Marks != 1<<1 {
		t.Errorf("got marks %b, want %b", fd.Marks, 1<<1)
	}
}

// waitForMetadata polls store for path's persisted record until check
// passes or the deadline elapses, since RatingSet/MarksSet schedule their
// write asynchronously.
func waitForMetadata(t *testing.T, store metastore.Collaborator, path string, check func(*metastore.Record) bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		record, err := store.Load(path)
		if err == nil && check(record) {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timed out waiting for metadata to persist")
}
