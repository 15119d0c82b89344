package imageloader

import "testing"

func TestFakeStartDeliversSeededResult(t *testing.T) {
	f := NewFake()
	f.Seed("/a.jpg", Result{Width: 100, Height: 50})

	req := f.Start("/a.jpg")
	result := <-req.Done
	if result.Width != 100 || result.Height != 50 {
		t.Errorf("got %+v, want 100x50", result)
	}
}

func TestFakeStartUnseededPathReturnsError(t *testing.T) {
	f := NewFake()
	req := f.Start("/missing.jpg")
	result := <-req.Done
	if result.Err == nil {
		t.Error("expected an error for an unseeded path")
	}
}

func TestFakeCancelIsSafeOnCompletedRequest(t *testing.T) {
	f := NewFake()
	f.Seed("/a.jpg", Result{Width: 1, Height: 1})
	req := f.Start("/a.jpg")
	<-req.Done
	f.Cancel(req) // must not panic
}
