package similarity

import "testing"

func solidGrayscale(width, height int, value byte) []byte {
	pixels := make([]byte, width*height)
	for i := range pixels {
		pixels[i] = value
	}
	return pixels
}

func TestFromGrayscaleUniformImageIsUniformFingerprint(t *testing.T) {
	pixels := solidGrayscale(64, 64, 128)
	fp := FromGrayscale(pixels, 64, 64)
	for i, b := range fp {
		if b != 128 {
			t.Fatalf("cell %d: got %d, want 128", i, b)
		}
	}
}

func TestCompareIdenticalFingerprintsIsOne(t *testing.T) {
	fp := FromGrayscale(solidGrayscale(32, 32, 200), 32, 32)
	if score := Compare(fp, fp, 0); score != 1.0 {
		t.Errorf("got %f, want 1.0", score)
	}
}

func TestCompareOppositeFingerprintsIsZero(t *testing.T) {
	black := FromGrayscale(solidGrayscale(16, 16, 0), 16, 16)
	white := FromGrayscale(solidGrayscale(16, 16, 255), 16, 16)
	if score := Compare(black, white, 0); score != 0.0 {
		t.Errorf("got %f, want 0.0", score)
	}
}

func TestCompareEarlyExitMatchesFullCompareWhenBelowThreshold(t *testing.T) {
	black := FromGrayscale(solidGrayscale(16, 16, 0), 16, 16)
	white := FromGrayscale(solidGrayscale(16, 16, 255), 16, 16)
	full := Compare(black, white, 0)
	early := Compare(black, white, 0.5)
	if early >= 0.5 || full >= 0.5 {
		t.Errorf("early-exit score %f and full score %f should both fall below the 0.5 threshold", early, full)
	}
	if early < full {
		t.Errorf("early-exit score %f is the best still reachable, so it should never fall below the full score %f", early, full)
	}
}

func TestCompareIgnoreRotationFindsRotatedMatch(t *testing.T) {
	var fp Fingerprint
	for i := range fp {
		fp[i] = byte(i * 4)
	}
	rotated := rotate90(fp)
	if score := CompareIgnoreRotation(fp, rotated, 0); score != 1.0 {
		t.Errorf("got %f, want 1.0 for a pure rotation", score)
	}
}

func TestRotate90FourTimesIsIdentity(t *testing.T) {
	var fp Fingerprint
	for i := range fp {
		fp[i] = byte(i)
	}
	got := rotate90(rotate90(rotate90(rotate90(fp))))
	if got != fp {
		t.Errorf("four rotations should return to the original")
	}
}

func TestRankRoundsToNearestInteger(t *testing.T) {
	if r := Rank(0.995); r != 100 {
		t.Errorf("got %d, want 100", r)
	}
	if r := Rank(0.0); r != 0 {
		t.Errorf("got %d, want 0", r)
	}
}
