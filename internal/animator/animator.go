// Package animator holds caller-owned playback state over a parsed skeleton.
// The caller drives the clock through Advance; nothing here reads wall time.
package animator

import (
	"math"

	"bvh-pose-renderer/internal/bvh"
	"bvh-pose-renderer/internal/skeleton"
)

const (
	MinSpeed     = 0.01
	MaxSpeed     = 2.0
	DefaultSpeed = 1.0
)

// Options configures a new Animator. A zero Speed means DefaultSpeed.
type Options struct {
	Interpolate bool
	Speed       float64
	Playing     bool
}

// Animator tracks elapsed playback time for one skeleton. It is not safe for
// concurrent use; the skeleton it wraps is.
type Animator struct {
	sk          *bvh.Skeleton
	interpolate bool
	speed       float64
	playing     bool
	elapsed     float64
}

// New returns an animator positioned at time zero.
func New(sk *bvh.Skeleton, opts Options) *Animator {
	return &Animator{
		sk:          sk,
		interpolate: opts.Interpolate,
		speed:       ClampSpeed(opts.Speed),
		playing:     opts.Playing,
	}
}

// ClampSpeed limits s to [MinSpeed, MaxSpeed]. Zero and NaN map to DefaultSpeed.
func ClampSpeed(s float64) float64 {
	if s == 0 || math.IsNaN(s) {
		return DefaultSpeed
	}
	return math.Max(MinSpeed, math.Min(MaxSpeed, s))
}

func (a *Animator) Play()            { a.playing = true }
func (a *Animator) Pause()           { a.playing = false }
func (a *Animator) Playing() bool    { return a.playing }
func (a *Animator) Speed() float64   { return a.speed }
func (a *Animator) Elapsed() float64 { return a.elapsed }

// SetSpeed changes the playback rate, clamped like Options.Speed.
func (a *Animator) SetSpeed(s float64) { a.speed = ClampSpeed(s) }

// SetInterpolate toggles slerp between frames.
func (a *Animator) SetInterpolate(on bool) { a.interpolate = on }

// Advance moves the clock by dt seconds scaled by the speed. It does nothing
// while paused or for a non-finite dt.
func (a *Animator) Advance(dt float64) {
	if !a.playing || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return
	}
	a.elapsed += dt * a.speed
}

// Seek jumps to ts regardless of the play state.
func (a *Animator) Seek(ts float64) {
	if math.IsNaN(ts) || math.IsInf(ts, 0) {
		ts = 0
	}
	a.elapsed = ts
}

// State returns the frame position at the current time.
func (a *Animator) State() skeleton.FrameState {
	return skeleton.State(a.sk, a.elapsed)
}

// Evaluate returns the pose at the current time.
func (a *Animator) Evaluate() *skeleton.Pose {
	return skeleton.Evaluate(a.sk, a.elapsed, a.interpolate)
}

// Timeline returns n clip timestamps sampled at fps, starting from the current
// time. The animator is stepped through Advance, so speed and pause apply, and
// it is left at the time after the last sample.
func (a *Animator) Timeline(n int, fps float64) []float64 {
	if n <= 0 || fps <= 0 {
		return nil
	}
	dt := 1 / fps
	out := make([]float64, n)
	for i := range out {
		out[i] = a.elapsed
		a.Advance(dt)
	}
	return out
}

// FramesPerLoop returns how many samples at fps cover one pass of the clip at
// the current speed, never less than one.
func (a *Animator) FramesPerLoop(fps float64) int {
	if fps <= 0 {
		return 1
	}
	n := int(math.Ceil(a.sk.Duration() * fps / a.speed))
	return max(n, 1)
}
