package remote

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gqcore/gqcore/pkg/cache"
	"github.com/gqcore/gqcore/pkg/fsutil"
	"github.com/gqcore/gqcore/pkg/gqerrors"
	"github.com/gqcore/gqcore/pkg/maintenance"
	"github.com/gqcore/gqcore/pkg/similarity"
)

// imageFilter keeps render/sim passes from wasting a decode on sidecar
// and non-image files; it is intentionally permissive (extension-based)
// since format classification proper lives in pkg/filedata.
func imageFilter(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".tiff", ".tif", ".webp", ".cr2", ".nef", ".arw", ".heic":
		return true
	default:
		return false
	}
}

// --- file/collection operations ---

func handleOpen(req *request) error {
	return loadPathIntoWindow(req.server, req.window, req.arg)
}

func handleLoad(req *request) error {
	return loadPathIntoWindow(req.server, req.window, req.arg)
}

func handleViewInNewWindow(req *request) error {
	w := req.server.NewWindow()
	if err := loadPathIntoWindow(req.server, w, req.arg); err != nil {
		req.server.CloseWindow(w.ID)
		return err
	}
	return req.conn.writeLine(w.ID)
}

// loadPathIntoWindow lists arg's directory (arg itself, if it names one,
// or its parent, if it names a file) into w's file list, focusing the
// position on arg when it names a file. When the server carries a live
// directory watcher, the directory is added to it so a later write
// refreshes w automatically instead of going stale.
func loadPathIntoWindow(s *Server, w *WindowState, arg string) error {
	path, err := fsutil.Normalize(arg)
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return gqerrors.Wrap(gqerrors.NotFound, fmt.Sprintf("open '%s'", path), err)
	}

	dir := path
	focus := ""
	if !info.IsDir() {
		dir = filepath.Dir(path)
		focus = path
	}

	paths, position, err := listDirectoryFocused(dir, focus)
	if err != nil {
		return err
	}

	w.Dir = dir
	w.SetFileList(paths)
	w.Advance(position)

	if s != nil && s.Watcher != nil {
		s.Watcher.Add(dir)
	}
	return nil
}

// listDirectoryFocused lists dir's non-directory entries, reporting the
// index of focus within them (0 if focus is "" or not found).
func listDirectoryFocused(dir, focus string) ([]string, int, error) {
	entries, err := fsutil.DirectoryContents(dir)
	if err != nil {
		return nil, 0, gqerrors.Wrap(gqerrors.Io, fmt.Sprintf("read directory '%s'", dir), err)
	}

	var paths []string
	position := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		full := filepath.Join(dir, e.Name())
		if full == focus {
			position = len(paths)
		}
		paths = append(paths, full)
	}
	return paths, position, nil
}

// RefreshDirectory re-lists dir into every open window currently showing
// it, preserving each window's current file where it still exists. It is
// meant to be called when the watcher reports dir has changed.
func (s *Server) RefreshDirectory(dir string) {
	for _, w := range s.windowsIn(dir) {
		current := w.Current()
		paths, position, err := listDirectoryFocused(dir, current)
		if err != nil {
			continue
		}
		w.SetFileList(paths)
		w.Advance(position)
	}
}

// --- navigation ---

func handleNext(req *request) error {
	req.window.Advance(1)
	return nil
}

func handlePrev(req *request) error {
	req.window.Advance(-1)
	return nil
}

func handleFirst(req *request) error {
	req.window.First()
	return nil
}

func handleLast(req *request) error {
	req.window.Last()
	return nil
}

const pageSize = 10

func handlePageNext(req *request) error {
	req.window.Advance(pageSize)
	return nil
}

func handlePagePrev(req *request) error {
	req.window.Advance(-pageSize)
	return nil
}

// --- slideshow control ---

func handleSlideshowToggle(req *request) error {
	req.window.mu.Lock()
	req.window.SlideshowActive = !req.window.SlideshowActive
	req.window.mu.Unlock()
	return nil
}

func handleSlideshowStart(req *request) error {
	req.window.mu.Lock()
	req.window.SlideshowActive = true
	req.window.mu.Unlock()
	return nil
}

func handleSlideshowStop(req *request) error {
	req.window.mu.Lock()
	req.window.SlideshowActive = false
	req.window.mu.Unlock()
	return nil
}

// handleSlideshowDelay parses a "<[H:][M:][N][.M]>" duration spelling
// (hours and minutes optional, seconds may carry a fractional part) into
// a delay in seconds.
func handleSlideshowDelay(req *request) error {
	seconds, err := parseDelay(req.arg)
	if err != nil {
		return err
	}
	req.window.mu.Lock()
	req.window.SlideshowDelaySeconds = seconds
	req.window.mu.Unlock()
	return nil
}

func parseDelay(text string) (float64, error) {
	parts := strings.Split(text, ":")
	var total float64
	for _, part := range parts {
		value, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid delay '%s': %w", text, err)
		}
		total = total*60 + value
	}
	return total, nil
}

// --- cache operations ---

func handleThumbClear(req *request) error {
	dir, err := fsutil.Normalize(req.arg)
	if err != nil {
		return err
	}
	task := maintenance.NewClear(dir, req.server.Logger)
	maintenance.RunToCompletion(task, 1<<20)
	return nil
}

func handleThumbClean(req *request) error {
	dir, err := fsutil.Normalize(req.arg)
	if err != nil {
		return err
	}
	task := maintenance.NewPurgeOrphans(req.server.CacheStore, cache.Thumb, dir, req.server.Logger)
	maintenance.RunToCompletion(task, 1<<20)
	return nil
}

func handleMetadataClean(req *request) error {
	dir, err := fsutil.Normalize(req.arg)
	if err != nil {
		return err
	}
	task := maintenance.NewPurgeOrphans(req.server.CacheStore, cache.Metadata, dir, req.server.Logger)
	maintenance.RunToCompletion(task, 1<<20)
	return nil
}

func handleRender(req *request) error {
	dir, err := fsutil.Normalize(req.arg)
	if err != nil {
		return err
	}
	return renderDirectory(req.server, dir, cache.Thumb)
}

func handleRenderRecurse(req *request) error {
	dir, err := fsutil.Normalize(req.arg)
	if err != nil {
		return err
	}
	if req.server.Loader == nil {
		return gqerrors.New(gqerrors.Internal, "no image loader configured")
	}
	task := maintenance.NewRender(req.server.CacheStore, req.server.Loader, dir, imageFilter, req.server.Logger)
	req.server.trackTask(dir, task)
	defer req.server.untrackTask(dir)
	maintenance.RunToCompletion(task, 1<<20)
	return nil
}

// handleRenderProgress reports the current progress of an in-flight
// --render-recurse operation over dir, or "idle" if none is running.
// It never blocks: previousIndex 0 takes Tracker's immediate-read path,
// so a client polls by calling this repeatedly rather than the server
// holding the connection open across an update.
func handleRenderProgress(req *request) error {
	dir, err := fsutil.Normalize(req.arg)
	if err != nil {
		return err
	}
	task, ok := req.server.activeTask(dir)
	if !ok {
		return req.conn.writeLine("idle")
	}
	_, progress, status, err := task.WaitForProgress(context.Background(), 0)
	if err != nil {
		return req.conn.writeLine("idle")
	}
	return req.conn.writeLine(fmt.Sprintf("%.0f%% %s", progress*100, status))
}

// handleRenderCancel cancels the in-flight --render-recurse operation
// over dir, if any. It's a no-op if nothing is running there.
func handleRenderCancel(req *request) error {
	dir, err := fsutil.Normalize(req.arg)
	if err != nil {
		return err
	}
	if task, ok := req.server.activeTask(dir); ok {
		task.Cancel()
	}
	return nil
}

func handleSim(req *request) error {
	dir, err := fsutil.Normalize(req.arg)
	if err != nil {
		return err
	}
	return renderDirectory(req.server, dir, cache.Sim)
}

// renderDirectory decodes every image file directly under dir (no
// recursion) and populates the thumb or sim cache from the result. The
// "-recurse" verbs instead hand the whole subtree to a maintenance.Task;
// this one stays shallow since maintenance.Task always walks its full
// source tree and has no single-level mode.
func renderDirectory(s *Server, dir string, kind cache.Kind) error {
	if s.Loader == nil {
		return gqerrors.New(gqerrors.Internal, "no image loader configured")
	}
	entries, err := fsutil.DirectoryContents(dir)
	if err != nil {
		return gqerrors.Wrap(gqerrors.Io, fmt.Sprintf("read directory '%s'", dir), err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if !imageFilter(path) {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		result := <-s.Loader.Start(path).Done
		if result.Err != nil {
			continue
		}
		if kind == cache.Thumb {
			s.CacheStore.Save(cache.Thumb, &cache.Entry{
				SourcePath: path, HasDims: true, Width: result.Width, Height: result.Height,
			}, info.ModTime())
		} else {
			fp := similarity.FromGrayscale(result.Grayscale, result.Width, result.Height)
			s.CacheStore.Save(cache.Sim, &cache.Entry{
				SourcePath: path, HasFingerprint: true, Fingerprint: fp,
			}, info.ModTime())
		}
	}
	return nil
}

// --- selection operations ---

func handleGetSelection(req *request) error {
	return req.conn.writeEntries(pathEntries(req.window.SelectionList()))
}

func handleSelectionAdd(req *request) error {
	path, err := fsutil.Normalize(req.arg)
	if err != nil {
		return err
	}
	req.window.SelectionAdd(path)
	return nil
}

func handleSelectionRemove(req *request) error {
	path, err := fsutil.Normalize(req.arg)
	if err != nil {
		return err
	}
	req.window.SelectionRemove(path)
	return nil
}

func handleSelectionClear(req *request) error {
	req.window.SelectionClear()
	return nil
}

func pathEntries(paths []string) [][]string {
	entries := make([][]string, len(paths))
	for i, p := range paths {
		entries[i] = []string{p}
	}
	return entries
}

// --- query ---

func handleGetFilelist(req *request) error {
	req.window.mu.Lock()
	paths := append([]string(nil), req.window.FileList...)
	req.window.mu.Unlock()
	return req.conn.writeEntries(pathEntries(paths))
}

func handleGetFilelistRecurse(req *request) error {
	dir, err := fsutil.Normalize(req.arg)
	if err != nil {
		return err
	}
	var paths []string
	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return gqerrors.Wrap(gqerrors.Io, fmt.Sprintf("walk '%s'", dir), err)
	}
	return req.conn.writeEntries(pathEntries(paths))
}

func handleGetCollection(req *request) error {
	path, err := fsutil.Normalize(req.arg)
	if err != nil {
		return err
	}
	paths, err := readCollectionFile(path)
	if err != nil {
		return err
	}
	return req.conn.writeEntries(pathEntries(paths))
}

func handleGetCollectionList(req *request) error {
	return req.conn.writeEntries(nil)
}

func handleGetWindowList(req *request) error {
	return req.conn.writeEntries(pathEntries(req.server.WindowList()))
}

func handleGetSidecars(req *request) error {
	current := req.window.Current()
	if current == "" {
		return nil
	}
	fd := req.server.Registry.Lookup(current)
	if fd == nil {
		return nil
	}
	var entries [][]string
	for _, sidecar := range fd.Sidecars {
		entries = append(entries, []string{sidecar.Path})
	}
	return req.conn.writeEntries(entries)
}

func handleGetFileInfo(req *request) error {
	current := req.window.Current()
	if current == "" {
		return gqerrors.New(gqerrors.NotFound, "no current file")
	}
	fd := req.server.Registry.Lookup(current)
	if fd == nil {
		return gqerrors.New(gqerrors.NotFound, "file not registered")
	}
	return req.conn.writeLine(fmt.Sprintf("%s\t%d\t%s\t%s", fd.Path, fd.Size, fd.Class.String(), fd.Mtime.Format(time.RFC3339)))
}

func handleGetDestination(req *request) error {
	current := req.window.Current()
	return req.conn.writeLine(filepath.Dir(current))
}

func handleGetRectangle(req *request) error {
	req.window.mu.Lock()
	x, y := req.window.CursorX, req.window.CursorY
	req.window.mu.Unlock()
	return req.conn.writeLine(fmt.Sprintf("%d,%d", x, y))
}

func handleGetRenderIntent(req *request) error {
	return req.conn.writeLine("perceptual")
}

func handlePixelInfo(req *request) error {
	req.window.mu.Lock()
	x, y := req.window.CursorX, req.window.CursorY
	req.window.mu.Unlock()
	return req.conn.writeLine(fmt.Sprintf("%d,%d", x, y))
}

// --- config ---

func handleConfigLoad(req *request) error {
	path, err := fsutil.Normalize(req.arg)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return gqerrors.Wrap(gqerrors.NotFound, fmt.Sprintf("config file '%s'", path), err)
	}
	return nil
}

// --- window control ---

func handleNewWindow(req *request) error {
	w := req.server.NewWindow()
	if req.arg != "" {
		if err := loadPathIntoWindow(req.server, w, req.arg); err != nil {
			req.server.CloseWindow(w.ID)
			return err
		}
	}
	return req.conn.writeLine(w.ID)
}

func handleCloseWindow(req *request) error {
	req.server.CloseWindow(req.window.ID)
	return nil
}

func handleRaise(req *request) error {
	return nil
}

func handleGeometry(req *request) error {
	req.window.mu.Lock()
	req.window.Geometry = req.arg
	req.window.mu.Unlock()
	return nil
}

func handleFullscreenToggle(req *request) error {
	req.window.mu.Lock()
	req.window.Fullscreen = !req.window.Fullscreen
	req.window.mu.Unlock()
	return nil
}

// --- output mode and misc ---

func handlePrint0(req *request) error {
	req.conn.print0 = true
	return nil
}

func handleQuit(req *request) error {
	req.server.requestQuit()
	return nil
}

func handleAction(req *request) error {
	if req.server.Editors == nil {
		return gqerrors.New(gqerrors.NotFound, "no editor list configured")
	}
	current := req.window.Current()
	if current == "" {
		return gqerrors.New(gqerrors.NotFound, "no current file")
	}
	cmd, err := req.server.Editors.StartEditor(req.arg, []string{current})
	if err != nil {
		return err
	}
	return cmd.Start()
}

func handleActionList(req *request) error {
	if req.server.Editors == nil {
		return req.conn.writeEntries(nil)
	}
	var entries [][]string
	for _, action := range req.server.Editors.List() {
		entries = append(entries, []string{action.Key, action.Name})
	}
	return req.conn.writeEntries(entries)
}

// readCollectionFile reads a collection file: a plain-text, one-path-per-
// line list, matching the flat ordered collection scope a search can run
// against directly without folder traversal.
func readCollectionFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, gqerrors.Wrap(gqerrors.NotFound, fmt.Sprintf("collection file '%s'", path), err)
	}
	var paths []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			paths = append(paths, line)
		}
	}
	return paths, nil
}
