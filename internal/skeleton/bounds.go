package skeleton

import (
	"math"

	"bvh-pose-renderer/internal/bvh"
	"bvh-pose-renderer/internal/mathutil"
)

// Bounds is an axis-aligned box in world space.
type Bounds struct {
	Min, Max mathutil.Vec3
}

func emptyBounds() Bounds {
	inf := math.Inf(1)
	return Bounds{
		Min: mathutil.Vec3{inf, inf, inf},
		Max: mathutil.Vec3{-inf, -inf, -inf},
	}
}

// Extend grows b to contain p.
func (b *Bounds) Extend(p mathutil.Vec3) {
	for k := 0; k < 3; k++ {
		b.Min[k] = math.Min(b.Min[k], p[k])
		b.Max[k] = math.Max(b.Max[k], p[k])
	}
}

// Center returns the midpoint of the box.
func (b Bounds) Center() mathutil.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the box extent per axis.
func (b Bounds) Size() mathutil.Vec3 {
	return b.Max.Sub(b.Min)
}

// PoseBounds returns the box around every joint position of p.
func PoseBounds(p *Pose) Bounds {
	b := emptyBounds()
	for _, j := range p.Joints {
		b.Extend(j.Position())
	}
	return b
}

// ClipBounds returns the box around every joint position over all frames,
// so a fixed camera can frame the whole clip.
func ClipBounds(sk *bvh.Skeleton) Bounds {
	b := emptyBounds()
	for i := 0; i < sk.NumFrames(); i++ {
		// Sample mid-frame so float error in i*FrameTime cannot land on the previous frame.
		p := Evaluate(sk, (float64(i)+0.5)*sk.FrameTime, false)
		for _, j := range p.Joints {
			b.Extend(j.Position())
		}
	}
	return b
}
