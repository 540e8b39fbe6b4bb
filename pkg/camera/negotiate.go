package camera

// ClosestSize picks the supported size nearest to width x height.
//
// Distance is |w-width| + |h-height|. Ties prefer the candidate whose width is
// closest to the requested width, then the earliest candidate.
func ClosestSize(sizes []Size, width, height int) (Size, bool) {
	if len(sizes) == 0 {
		return Size{}, false
	}

	best := sizes[0]
	bestDist := sizeDistance(best, width, height)
	for _, s := range sizes[1:] {
		d := sizeDistance(s, width, height)
		if d < bestDist || (d == bestDist && abs(s.Width-width) < abs(best.Width-width)) {
			best, bestDist = s, d
		}
	}
	return best, true
}

func sizeDistance(s Size, width, height int) int {
	return abs(s.Width-width) + abs(s.Height-height)
}

// ClosestFramerateRange picks the range whose midpoint is nearest to fps.
// Ranges are in milli-fps, fps is in frames per second.
//
// Equally distant ranges are resolved in favour of the narrower one, then the
// earliest.
func ClosestFramerateRange(ranges []FramerateRange, fps int) (FramerateRange, bool) {
	if len(ranges) == 0 {
		return FramerateRange{}, false
	}

	// Doubled units keep the midpoint integral.
	target := 2 * fps * 1000
	best := ranges[0]
	bestDist := abs(target - (best.Min + best.Max))
	for _, r := range ranges[1:] {
		d := abs(target - (r.Min + r.Max))
		if d < bestDist || (d == bestDist && r.Max-r.Min < best.Max-best.Min) {
			best, bestDist = r, d
		}
	}
	return best, true
}

// Negotiate returns the capture format closest to the target, or false when
// either supported set is empty.
func Negotiate(sizes []Size, ranges []FramerateRange, target Target) (CaptureFormat, bool) {
	size, ok := ClosestSize(sizes, target.Width, target.Height)
	if !ok {
		return CaptureFormat{}, false
	}
	fr, ok := ClosestFramerateRange(ranges, target.MinFps)
	if !ok {
		return CaptureFormat{}, false
	}
	return CaptureFormat{Width: size.Width, Height: size.Height, Framerate: fr}, true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
