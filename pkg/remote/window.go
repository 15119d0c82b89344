package remote

import "sync"

// WindowState is the per-logical-window state a bound connection acts
// on: the current file list and position within it, the active
// selection, slideshow playback state, and the last known cursor
// position needed by get-rectangle/pixel-info. There is no real GUI
// window behind this in a headless server; it stands in for whatever
// view a --id-bound client is driving.
type WindowState struct {
	ID string

	mu sync.Mutex

	Dir       string
	FileList  []string
	Position  int
	Selection map[string]bool

	SlideshowActive       bool
	SlideshowDelaySeconds float64

	Fullscreen bool
	Geometry   string

	CursorX, CursorY int
}

func newWindowState(id string) *WindowState {
	return &WindowState{ID: id, Selection: make(map[string]bool)}
}

// Current returns the path at the window's current position, or "" if
// the file list is empty or the position is out of range.
func (w *WindowState) Current() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.Position < 0 || w.Position >= len(w.FileList) {
		return ""
	}
	return w.FileList[w.Position]
}

func (w *WindowState) SetFileList(paths []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.FileList = paths
	w.Position = 0
}

func (w *WindowState) Advance(delta int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.FileList) == 0 {
		return
	}
	w.Position += delta
	if w.Position < 0 {
		w.Position = 0
	}
	if w.Position >= len(w.FileList) {
		w.Position = len(w.FileList) - 1
	}
}

func (w *WindowState) First() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Position = 0
}

func (w *WindowState) Last() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.FileList) > 0 {
		w.Position = len(w.FileList) - 1
	}
}

func (w *WindowState) SelectionAdd(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Selection[path] = true
}

func (w *WindowState) SelectionRemove(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.Selection, path)
}

func (w *WindowState) SelectionClear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Selection = make(map[string]bool)
}

func (w *WindowState) SelectionList() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	paths := make([]string, 0, len(w.Selection))
	for path := range w.Selection {
		paths = append(paths, path)
	}
	return paths
}

func (w *WindowState) SetCursor(x, y int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.CursorX, w.CursorY = x, y
}
