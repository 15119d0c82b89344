// Package similarity computes and compares perceptual fingerprints used to
// find visually similar images. A fingerprint is a small, fixed-size
// signature derived from a decoded image's grayscale intensity, cheap
// enough to store alongside a thumbnail and fast enough to compare by the
// thousands during a search.
package similarity

import "math"

// GridSize is the width and height, in cells, of the intensity grid a
// Fingerprint samples an image down to.
const GridSize = 8

// Size is the serialized length of a Fingerprint: one grid cell per byte.
const Size = GridSize * GridSize

// FormatVersion identifies the sampling scheme a Fingerprint was computed
// with. Only version 1 (the 8x8 average-intensity grid below) currently
// exists; a future revision would bump this rather than reinterpret the
// existing byte layout.
const FormatVersion = 1

// Fingerprint is a fixed-size perceptual signature: the average grayscale
// intensity of each cell in an 8x8 grid overlaid on the source image,
// read left-to-right, top-to-bottom.
type Fingerprint [Size]byte

// FromGrayscale computes a Fingerprint from a decoded grayscale image.
// pixels is row-major, width*height bytes, one intensity sample per
// pixel. The image is divided into an 8x8 grid of roughly equal cells and
// each cell's samples are averaged.
func FromGrayscale(pixels []byte, width, height int) Fingerprint {
	var fp Fingerprint
	if width <= 0 || height <= 0 || len(pixels) < width*height {
		return fp
	}

	for gy := 0; gy < GridSize; gy++ {
		y0 := gy * height / GridSize
		y1 := (gy + 1) * height / GridSize
		if y1 <= y0 {
			y1 = y0 + 1
		}
		for gx := 0; gx < GridSize; gx++ {
			x0 := gx * width / GridSize
			x1 := (gx + 1) * width / GridSize
			if x1 <= x0 {
				x1 = x0 + 1
			}

			var sum, count int
			for y := y0; y < y1 && y < height; y++ {
				row := y * width
				for x := x0; x < x1 && x < width; x++ {
					sum += int(pixels[row+x])
					count++
				}
			}
			var avg byte
			if count > 0 {
				avg = byte(sum / count)
			}
			fp[gy*GridSize+gx] = avg
		}
	}
	return fp
}

// Compare returns a similarity score in [0, 1] between two fingerprints
// (1.0 meaning identical), or early-exits once the partial sum of
// per-cell differences proves the final score cannot reach threshold.
// threshold should be in [0, 1]; pass 0 to disable the early exit.
func Compare(a, b Fingerprint, threshold float64) float64 {
	const maxDiff = 255.0 * Size

	var diffSum int
	for i := 0; i < Size; i++ {
		d := int(a[i]) - int(b[i])
		if d < 0 {
			d = -d
		}
		diffSum += d

		// The best possible final score, given the remaining cells could
		// all match exactly, is 1 - diffSum/maxDiff. If even that best
		// case already falls below threshold, no further work changes
		// the outcome.
		if threshold > 0 {
			bestPossible := 1.0 - float64(diffSum)/maxDiff
			if bestPossible < threshold {
				return bestPossible
			}
		}
	}
	return 1.0 - float64(diffSum)/maxDiff
}

// orientations enumerates the reorderings CompareIgnoreRotation checks:
// identity, three rotations, and their mirror images.
var orientations = []func(Fingerprint) Fingerprint{
	func(fp Fingerprint) Fingerprint { return fp },
	rotate90,
	func(fp Fingerprint) Fingerprint { return rotate90(rotate90(fp)) },
	func(fp Fingerprint) Fingerprint { return rotate90(rotate90(rotate90(fp))) },
	mirror,
	func(fp Fingerprint) Fingerprint { return rotate90(mirror(fp)) },
	func(fp Fingerprint) Fingerprint { return rotate90(rotate90(mirror(fp))) },
	func(fp Fingerprint) Fingerprint { return rotate90(rotate90(rotate90(mirror(fp)))) },
}

// CompareIgnoreRotation compares a against every 90-degree rotation and
// mirror of b and returns the maximum score, so a candidate rotated or
// flipped relative to the reference is still recognized as similar.
func CompareIgnoreRotation(a, b Fingerprint, threshold float64) float64 {
	best := 0.0
	for _, transform := range orientations {
		score := Compare(a, transform(b), threshold)
		if score > best {
			best = score
		}
	}
	return best
}

func rotate90(fp Fingerprint) Fingerprint {
	var out Fingerprint
	for y := 0; y < GridSize; y++ {
		for x := 0; x < GridSize; x++ {
			out[x*GridSize+(GridSize-1-y)] = fp[y*GridSize+x]
		}
	}
	return out
}

func mirror(fp Fingerprint) Fingerprint {
	var out Fingerprint
	for y := 0; y < GridSize; y++ {
		for x := 0; x < GridSize; x++ {
			out[y*GridSize+(GridSize-1-x)] = fp[y*GridSize+x]
		}
	}
	return out
}

// Rank converts a Compare score into the integer 0-100 rank reported on a
// MatchResult.
func Rank(score float64) int {
	return int(math.Round(score * 100))
}
