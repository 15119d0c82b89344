package imageloader

import "context"

// Fake is an in-memory Loader for tests: results are pre-seeded by path,
// and Start delivers them synchronously (buffered channel, no goroutine),
// so tests don't need to coordinate on background completion.
type Fake struct {
	Results map[string]Result
}

// NewFake creates a Fake with no seeded results; Seed adds them.
func NewFake() *Fake {
	return &Fake{Results: make(map[string]Result)}
}

// Seed registers the Result Start should return for path.
func (f *Fake) Seed(path string, result Result) {
	f.Results[path] = result
}

// Start returns a Request whose Done channel already holds the seeded
// result for path, or a NotFound-flavored error Result if none was
// seeded.
func (f *Fake) Start(path string) *Request {
	_, ctxCancel := context.WithCancel(context.Background())

	result, ok := f.Results[path]
	if !ok {
		result = Result{Err: errNotSeeded{path}}
	}

	done := make(chan Result, 1)
	done <- result
	close(done)
	return &Request{Path: path, Done: done, cancel: ctxCancel}
}

// Cancel is a no-op on Fake: results are delivered synchronously, so
// there is never anything in flight to stop.
func (f *Fake) Cancel(req *Request) {
	if req != nil && req.cancel != nil {
		req.cancel()
	}
}

type errNotSeeded struct{ path string }

func (e errNotSeeded) Error() string {
	return "imageloader: no result seeded for '" + e.path + "'"
}
