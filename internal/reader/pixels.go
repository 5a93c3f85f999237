package reader

// Canvas blankness heuristics. A placeholder canvas reads as "rendered" by
// dimension checks alone, so three interior points are sampled and a page
// only counts as rendered when at least one of them carries ink.

// Sample is one RGBA pixel.
type Sample struct {
	R, G, B, A uint8
}

const (
	// channel floor above which a pixel counts as near-white
	whiteFloor = 245
	// alpha ceiling below which a pixel counts as transparent
	alphaCeiling = 10
)

// SamplePoints returns the three interior probe coordinates for a canvas
// of the given pixel size: quartile, center, three-quartile.
func SamplePoints(width, height int) [3][2]int {
	return [3][2]int{
		{width / 4, height / 4},
		{width / 2, height / 2},
		{3 * width / 4, 3 * height / 4},
	}
}

// NearBlank reports whether a single pixel is near-white or transparent.
func NearBlank(s Sample) bool {
	if s.A <= alphaCeiling {
		return true
	}
	return s.R >= whiteFloor && s.G >= whiteFloor && s.B >= whiteFloor
}

// AllNearBlank reports whether every sample is near-white/transparent.
// No samples at all counts as blank; an unreadable canvas must not pass
// as rendered.
func AllNearBlank(samples []Sample) bool {
	if len(samples) == 0 {
		return true
	}
	for _, s := range samples {
		if !NearBlank(s) {
			return false
		}
	}
	return true
}

// SampleBuffer probes an RGBA byte buffer (4 bytes per pixel, row-major)
// at the interior sample points. Out-of-range reads yield no sample.
func SampleBuffer(buf []byte, width, height int) []Sample {
	if width <= 0 || height <= 0 {
		return nil
	}
	var out []Sample
	for _, pt := range SamplePoints(width, height) {
		idx := (pt[1]*width + pt[0]) * 4
		if idx < 0 || idx+3 >= len(buf) {
			continue
		}
		out = append(out, Sample{
			R: buf[idx],
			G: buf[idx+1],
			B: buf[idx+2],
			A: buf[idx+3],
		})
	}
	return out
}
