package raster

import (
	"image"

	"bvh-pose-renderer/internal/bvh"
	"bvh-pose-renderer/internal/mathutil"
	"bvh-pose-renderer/internal/mesh"
	"bvh-pose-renderer/internal/skeleton"
	"bvh-pose-renderer/internal/viewmatrix"
)

// Style controls how a pose is drawn. Sizes are in world units; zero sizes are
// derived from the clip bounds by Fit.
type Style struct {
	Background  [4]uint8
	BoneColor   [4]uint8
	JointColor  [4]uint8
	HeadColor   [4]uint8
	BoneWidth   float64
	JointRadius float64
	HeadJoint   string
	HeadScale   float64 // marker size multiplier for HeadJoint
	Margin      int     // pixels, at render resolution
}

// DefaultStyle draws light grey bones with orange joints on a transparent
// background.
func DefaultStyle() Style {
	return Style{
		BoneColor:  [4]uint8{200, 200, 210, 255},
		JointColor: [4]uint8{235, 140, 50, 255},
		HeadColor:  [4]uint8{235, 90, 70, 255},
		HeadJoint:  "Head",
		HeadScale:  4,
		Margin:     16,
	}
}

// Fit fills zero sizes relative to the largest extent of b.
func (st Style) Fit(b skeleton.Bounds) Style {
	s := b.Size()
	extent := max(s[0], s[1], s[2])
	if extent <= 0 {
		extent = 1
	}
	if st.BoneWidth <= 0 {
		st.BoneWidth = extent * 0.02
	}
	if st.JointRadius <= 0 {
		st.JointRadius = extent * 0.012
	}
	if st.HeadScale <= 0 {
		st.HeadScale = 1
	}
	return st
}

// Part is a world-space mesh with its base color.
type Part struct {
	Mesh  *mesh.Mesh
	Color [4]uint8
}

// Scene builds bone prisms between every joint and its parent plus an
// octahedron marker on every joint that is not an end site.
func Scene(sk *bvh.Skeleton, pose *skeleton.Pose, st Style) []Part {
	bones := &mesh.Mesh{}
	var parts []Part
	for i, jp := range pose.Joints {
		if jp.Parent >= 0 {
			bones.Append(mesh.Bone(pose.Joints[jp.Parent].Position(), jp.Position(), st.BoneWidth))
		}
		if sk.Joints[i].EndSite {
			continue
		}
		r, c := st.JointRadius, st.JointColor
		if st.HeadJoint != "" && jp.Name == st.HeadJoint {
			r, c = r*st.HeadScale, st.HeadColor
		}
		parts = append(parts, Part{Mesh: mesh.Octahedron(jp.Position(), r), Color: c})
	}
	return append([]Part{{Mesh: bones, Color: st.BoneColor}}, parts...)
}

// RenderPose draws pose as a shaded stick figure into a renderSize square.
// The camera rotation R and world bounds b fix the framing, so frames of one
// clip rendered with the same b line up.
func RenderPose(sk *bvh.Skeleton, pose *skeleton.Pose, R mathutil.Mat3, b skeleton.Bounds, renderSize int, st Style) *image.NRGBA {
	st = st.Fit(b)
	proj := viewmatrix.Fit(R, b.Min, b.Max, renderSize, st.Margin)

	fb := NewFrameBuffer(renderSize, renderSize)
	fb.Fill(st.Background)
	light := DefaultLight()

	for _, part := range Scene(sk, pose, st) {
		m := part.Mesh
		if m.NumTriangles() == 0 {
			continue
		}
		px, py, pz := proj.ProjectVertices(m.Vertices)
		for i := 0; i < m.NumTriangles(); i++ {
			tri := m.Triangle(i)
			n := R.MulVec3(m.Normals[tri[0]])
			color := light.Apply(part.Color, light.Intensity(n))
			RasterizeTriangle(fb, px, py, pz, tri, color)
		}
	}

	return fb.Image()
}
