package viewmatrix

import (
	"math"

	"bvh-pose-renderer/internal/mathutil"
)

// DefaultYaw and DefaultPitch give a three-quarter view slightly from above.
const (
	DefaultYaw   = 30.0
	DefaultPitch = 15.0
)

// ViewMatrix builds the camera rotation for a turntable camera: the scene is
// turned yaw degrees about Y, then tilted pitch degrees about X.
func ViewMatrix(yawDeg, pitchDeg float64) mathutil.Mat3 {
	return mathutil.Mat3Mul(
		mathutil.RotX(mathutil.Deg2Rad(pitchDeg)),
		mathutil.RotY(mathutil.Deg2Rad(-yawDeg)),
	)
}

// Projection maps world points to pixel coordinates of a square target.
// Screen Y grows downward and larger Z is closer to the viewer.
type Projection struct {
	R      mathutil.Mat3
	Center mathutil.Vec3 // view-space point mapped to the image center
	Scale  float64       // pixels per world unit
	Size   int
}

// Fit returns a projection that frames the world box [min, max] inside a
// size×size image with margin pixels left free on each side.
func Fit(R mathutil.Mat3, min, max mathutil.Vec3, size, margin int) Projection {
	lo := mathutil.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := mathutil.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for i := 0; i < 8; i++ {
		corner := min
		if i&1 != 0 {
			corner[0] = max[0]
		}
		if i&2 != 0 {
			corner[1] = max[1]
		}
		if i&4 != 0 {
			corner[2] = max[2]
		}
		t := R.MulVec3(corner)
		for k := 0; k < 3; k++ {
			lo[k] = math.Min(lo[k], t[k])
			hi[k] = math.Max(hi[k], t[k])
		}
	}

	span := math.Max(hi[0]-lo[0], hi[1]-lo[1])
	if span < 0.001 || math.IsNaN(span) {
		span = 0.001
	}
	usable := size - 2*margin
	if usable < 1 {
		usable = 1
	}
	return Projection{
		R:      R,
		Center: lo.Add(hi).Scale(0.5),
		Scale:  float64(usable) / span,
		Size:   size,
	}
}

// Project maps one world point to screen x, y and depth.
func (p Projection) Project(v mathutil.Vec3) (x, y, z float64) {
	t := p.R.MulVec3(v)
	half := float64(p.Size) / 2
	return (t[0]-p.Center[0])*p.Scale + half, -(t[1]-p.Center[1])*p.Scale + half, t[2]
}

// ProjectVertices transforms vertices to screen space.
// Returns px, py, pz slices (screen X, screen Y, depth).
func (p Projection) ProjectVertices(verts []mathutil.Vec3) ([]float64, []float64, []float64) {
	n := len(verts)
	px := make([]float64, n)
	py := make([]float64, n)
	pz := make([]float64, n)
	for i, v := range verts {
		px[i], py[i], pz[i] = p.Project(v)
	}
	return px, py, pz
}
