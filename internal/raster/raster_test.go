package raster

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bvh-pose-renderer/internal/bvh"
	"bvh-pose-renderer/internal/mathutil"
	"bvh-pose-renderer/internal/skeleton"
	"bvh-pose-renderer/internal/viewmatrix"
)

func opaque(img *image.NRGBA) int {
	n := 0
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0 {
			n++
		}
	}
	return n
}

func TestRasterizeTriangleDepth(t *testing.T) {
	fb := NewFrameBuffer(8, 8)
	px := []float64{0, 8, 0, 0, 8, 0}
	py := []float64{0, 0, 8, 0, 0, 8}
	pz := []float64{1, 1, 1, 2, 2, 2}
	red := [4]uint8{255, 0, 0, 255}
	blue := [4]uint8{0, 0, 255, 255}

	// Near triangle first, far one must not overwrite it.
	RasterizeTriangle(fb, px, py, pz, [3]int{3, 4, 5}, blue)
	RasterizeTriangle(fb, px, py, pz, [3]int{0, 1, 2}, red)

	img := fb.Image()
	assert.Equal(t, []uint8{0, 0, 255, 255}, img.Pix[0:4])
	assert.Equal(t, 2.0, fb.ZBuf[0])

	// Bottom-right corner lies outside both triangles.
	assert.Equal(t, []uint8{0, 0, 0, 0}, img.Pix[img.PixOffset(7, 7):img.PixOffset(7, 7)+4])
}

func TestRasterizeTriangleSkipsBadInput(t *testing.T) {
	fb := NewFrameBuffer(4, 4)
	RasterizeTriangle(fb, []float64{0, 1}, []float64{0, 1}, []float64{0, 0}, [3]int{0, 1, 2}, [4]uint8{1, 1, 1, 1})
	RasterizeTriangle(fb, []float64{0, 1, 2}, []float64{0, 1, 2}, []float64{0, 0, 0}, [3]int{0, 1, 2}, [4]uint8{1, 1, 1, 1})
	assert.Zero(t, opaque(fb.Image()))
}

func TestLightApplyKeepsAlpha(t *testing.T) {
	l := DefaultLight()
	c := l.Apply([4]uint8{200, 100, 50, 77}, l.Intensity(mathutil.Vec3{0, 0, 1}))
	assert.Equal(t, uint8(77), c[3])
	assert.Greater(t, c[0], c[1])
	assert.Greater(t, c[1], c[2])
}

func TestLightIntensity(t *testing.T) {
	l := DefaultLight()
	facing := l.Intensity(l.Key)
	away := l.Intensity(l.Key.Scale(-1))
	assert.Greater(t, facing, away, "specular only on the lit side")
	assert.Greater(t, away, l.Ambient)

	black := l.Apply([4]uint8{0, 0, 0, 255}, facing)
	assert.Equal(t, [4]uint8{0, 0, 0, 255}, black)
	white := l.Apply([4]uint8{255, 255, 255, 255}, 100)
	assert.Equal(t, uint8(255), white[0])
}

func TestSceneParts(t *testing.T) {
	sk, err := bvh.ParseFile("testdata/figure.bvh")
	require.NoError(t, err)
	pose := skeleton.Evaluate(sk, 0, false)
	st := DefaultStyle().Fit(skeleton.ClipBounds(sk))

	parts := Scene(sk, pose, st)

	markers := 0
	for _, j := range sk.Joints {
		if !j.EndSite {
			markers++
		}
	}
	require.Len(t, parts, 1+markers)
	assert.Equal(t, (len(sk.Joints)-1)*12, parts[0].Mesh.NumTriangles())

	var head Part
	for _, p := range parts[1:] {
		if p.Color == st.HeadColor {
			head = p
		}
	}
	require.NotNil(t, head.Mesh)
	assert.Len(t, head.Mesh.Vertices, 24)
}

func TestRenderPose(t *testing.T) {
	sk, err := bvh.ParseFile("testdata/figure.bvh")
	require.NoError(t, err)
	b := skeleton.ClipBounds(sk)
	pose := skeleton.Evaluate(sk, 0, false)
	R := viewmatrix.ViewMatrix(viewmatrix.DefaultYaw, viewmatrix.DefaultPitch)

	img := RenderPose(sk, pose, R, b, 128, DefaultStyle())
	assert.Equal(t, image.Rect(0, 0, 128, 128), img.Bounds())
	assert.Greater(t, opaque(img), 0)
	assert.Equal(t, uint8(0), img.Pix[3], "corner stays transparent")

	small := DefaultStyle()
	small.HeadScale = 1
	assert.Less(t, opaque(RenderPose(sk, pose, R, b, 128, small)), opaque(img))
}

func TestRenderPoseBackground(t *testing.T) {
	sk, err := bvh.ParseFile("testdata/figure.bvh")
	require.NoError(t, err)
	st := DefaultStyle()
	st.Background = [4]uint8{10, 20, 30, 255}

	img := RenderPose(sk, skeleton.Evaluate(sk, 0, false), mathutil.Mat3Identity(), skeleton.ClipBounds(sk), 32, st)
	assert.Equal(t, []uint8{10, 20, 30, 255}, img.Pix[0:4])
}
