package maintenance

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gqcore/gqcore/pkg/cache"
	"github.com/gqcore/gqcore/pkg/imageloader"
)

func TestPurgeOrphansRemovesFileWithNoSource(t *testing.T) {
	root := t.TempDir()
	sourceRoot := t.TempDir()

	layout := cache.Layout{ThumbRoot: root}
	store := cache.NewStore(layout)

	live := filepath.Join(sourceRoot, "live.jpg")
	os.WriteFile(live, []byte("x"), 0644)
	mtime := time.Now()
	store.Save(cache.Thumb, &cache.Entry{SourcePath: live, HasDims: true, Width: 1, Height: 1}, mtime)

	orphanSource := filepath.Join(sourceRoot, "gone.jpg") // never created
	store.Save(cache.Thumb, &cache.Entry{SourcePath: orphanSource, HasDims: true, Width: 1, Height: 1}, mtime)

	task := NewPurgeOrphans(store, cache.Thumb, root, nil)
	RunToCompletion(task, 100)

	if _, ok, _ := store.Find(cache.Thumb, live, mtime); !ok {
		t.Error("expected live source's cache entry to survive")
	}
	if _, ok, _ := store.Find(cache.Thumb, orphanSource, mtime); ok {
		t.Error("expected orphaned cache entry to be purged")
	}
}

func TestClearRemovesEverythingUnconditionally(t *testing.T) {
	root := t.TempDir()
	os.MkdirAll(filepath.Join(root, "sub"), 0755)
	os.WriteFile(filepath.Join(root, "sub", "a.bin"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(root, "b.bin"), []byte("y"), 0644)

	task := NewClear(root, nil)
	RunToCompletion(task, 100)

	entries, _ := os.ReadDir(root)
	if len(entries) != 0 {
		t.Errorf("expected an empty root after clear, got %v", entries)
	}
}

func TestRenderPopulatesThumbCacheViaLoader(t *testing.T) {
	sourceRoot := t.TempDir()
	imgPath := filepath.Join(sourceRoot, "a.jpg")
	os.WriteFile(imgPath, []byte("fake jpeg bytes"), 0644)

	cacheRoot := t.TempDir()
	store := cache.NewStore(cache.Layout{ThumbRoot: cacheRoot})

	loader := imageloader.NewFake()
	loader.Seed(imgPath, imageloader.Result{Width: 320, Height: 240})

	task := NewRender(store, loader, sourceRoot, nil, nil)
	result := RunToCompletion(task, 100)
	if result != Done {
		t.Fatalf("expected the task to finish, got %v", result)
	}

	info, _ := os.Stat(imgPath)
	entry, err := store.Load(cache.Thumb, imgPath, info.ModTime())
	if err != nil {
		t.Fatal(err)
	}
	if entry.Width != 320 || entry.Height != 240 {
		t.Errorf("got %dx%d, want 320x240", entry.Width, entry.Height)
	}
}

func TestTaskCancelStopsFurtherWork(t *testing.T) {
	sourceRoot := t.TempDir()
	os.WriteFile(filepath.Join(sourceRoot, "a.jpg"), []byte("x"), 0644)

	var notified bool
	task := NewClear(sourceRoot, nil)
	task.SetDoneNotifier(func() { notified = true })
	task.Cancel()

	result := task.Step()
	if result != Done {
		t.Errorf("got %v, want Done after cancel", result)
	}
	if !notified {
		t.Error("expected the done-notifier to run after cancellation")
	}
}

func TestWaitForProgressObservesUpdatesFromAnotherGoroutine(t *testing.T) {
	sourceRoot := t.TempDir()
	os.WriteFile(filepath.Join(sourceRoot, "a.jpg"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(sourceRoot, "b.jpg"), []byte("y"), 0644)

	store := cache.NewStore(cache.Layout{ThumbRoot: t.TempDir()})
	loader := imageloader.NewFake()
	loader.Seed(filepath.Join(sourceRoot, "a.jpg"), imageloader.Result{Width: 1, Height: 1})
	loader.Seed(filepath.Join(sourceRoot, "b.jpg"), imageloader.Result{Width: 1, Height: 1})

	task := NewRender(store, loader, sourceRoot, nil, nil)

	index, _, _, err := task.WaitForProgress(context.Background(), 0)
	if err != nil {
		t.Fatalf("immediate read failed: %v", err)
	}

	done := make(chan struct{})
	go func() {
		RunToCompletion(task, 100)
		close(done)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, _, status, err := task.WaitForProgress(ctx, index)
	if err != nil {
		t.Fatalf("expected a progress change, got error: %v", err)
	}
	if status == "" {
		t.Error("expected a non-empty status alongside the progress change")
	}

	<-done
}

func TestTaskCancelIsSafeFromAnotherGoroutine(t *testing.T) {
	sourceRoot := t.TempDir()
	for i := 0; i < 20; i++ {
		os.WriteFile(filepath.Join(sourceRoot, fmt.Sprintf("%d.jpg", i)), []byte("x"), 0644)
	}

	task := NewClear(sourceRoot, nil)
	done := make(chan struct{})
	go func() {
		RunToCompletion(task, 1<<20)
		close(done)
	}()

	task.Cancel()
	<-done
}

func TestFilterSkipsFilteredFilesDuringRender(t *testing.T) {
	sourceRoot := t.TempDir()
	imgPath := filepath.Join(sourceRoot, "a.txt")
	os.WriteFile(imgPath, []byte("not an image"), 0644)

	store := cache.NewStore(cache.Layout{ThumbRoot: t.TempDir()})
	loader := imageloader.NewFake()

	filter := func(path string) bool { return filepath.Ext(path) == ".jpg" }
	task := NewRender(store, loader, sourceRoot, filter, nil)
	result := RunToCompletion(task, 100)
	if result != Done {
		t.Fatalf("expected completion, got %v", result)
	}

	info, _ := os.Stat(imgPath)
	if _, ok, _ := store.Find(cache.Thumb, imgPath, info.ModTime()); ok {
		t.Error("expected a filtered-out file to never reach the loader")
	}
}
