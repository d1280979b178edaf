package skeleton

import (
	"math"

	"bvh-pose-renderer/internal/bvh"
)

// FrameState is the playback position derived from a timestamp: the frame to
// sample, the frame after it (wrapping to 0 past the last frame) and the
// fraction of the way between them.
type FrameState struct {
	Frame int
	Next  int
	T     float64 // in [0,1)
}

// State maps a timestamp in seconds onto the skeleton's frame table.
// The clip loops, so negative and past-the-end timestamps wrap.
func State(sk *bvh.Skeleton, ts float64) FrameState {
	n := sk.NumFrames()
	if math.IsNaN(ts) || math.IsInf(ts, 0) {
		ts = 0
	}

	q := ts / sk.FrameTime
	if math.IsInf(q, 0) {
		// A tiny frame time overflows the quotient; fold ts into one loop first.
		q = math.Mod(ts, sk.Duration()) / sk.FrameTime
		if math.IsInf(q, 0) || math.IsNaN(q) {
			q = 0
		}
	}
	f := math.Floor(q)
	t := q - f
	if t >= 1 {
		// q was a tiny negative number and the fraction rounded up.
		t = 0
		f++
	}

	frame := int(math.Mod(f, float64(n)))
	if frame < 0 {
		frame += n
	}
	return FrameState{Frame: frame, Next: (frame + 1) % n, T: t}
}

// FrameStart returns the earliest timestamp that selects frame with a zero
// fraction. Frame is wrapped into the clip first. frame*FrameTime alone can
// round just below the boundary and select the previous frame.
func FrameStart(sk *bvh.Skeleton, frame int) float64 {
	n := sk.NumFrames()
	frame %= n
	if frame < 0 {
		frame += n
	}
	ts := float64(frame) * sk.FrameTime
	for State(sk, ts).Frame != frame {
		ts = math.Nextafter(ts, math.Inf(1))
	}
	return ts
}

// FrameNumber returns floor(ts/frameTime) mod frameCount.
func FrameNumber(sk *bvh.Skeleton, ts float64) int {
	return State(sk, ts).Frame
}

// FrameIntervalTime returns the fraction of the current frame elapsed at ts.
func FrameIntervalTime(sk *bvh.Skeleton, ts float64) float64 {
	return State(sk, ts).T
}
