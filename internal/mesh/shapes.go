package mesh

import (
	"math"

	"bvh-pose-renderer/internal/mathutil"
)

// Octahedron returns a flat-shaded octahedron centered on c whose vertices lie
// radius away along each axis.
func Octahedron(c mathutil.Vec3, radius float64) *Mesh {
	m := &Mesh{
		Vertices: []mathutil.Vec3{
			c.Add(mathutil.Vec3{radius, 0, 0}),
			c.Add(mathutil.Vec3{-radius, 0, 0}),
			c.Add(mathutil.Vec3{0, radius, 0}),
			c.Add(mathutil.Vec3{0, -radius, 0}),
			c.Add(mathutil.Vec3{0, 0, radius}),
			c.Add(mathutil.Vec3{0, 0, -radius}),
		},
		Triangles: []int{
			0, 2, 4, 4, 2, 1, 1, 2, 5, 5, 2, 0,
			4, 3, 0, 1, 3, 4, 5, 3, 1, 0, 3, 5,
		},
	}
	m.MakeFlatShaded()
	return m
}

// Bone returns a flat-shaded square prism of the given width running from a to
// b. A zero-length bone yields an empty mesh.
func Bone(a, b mathutil.Vec3, width float64) *Mesh {
	d := b.Sub(a)
	if d.LenSq() < mathutil.Epsilon {
		return &Mesh{}
	}
	d = d.Normalize()

	side := mathutil.Up
	if math.Abs(d.Dot(side)) > 0.99 {
		side = mathutil.AxisX.Unit()
	}
	u := d.Cross(side).Normalize().Scale(width / 2)
	v := d.Cross(u).Normalize().Scale(width / 2)

	corners := [4]mathutil.Vec3{u.Add(v), u.Sub(v), u.Scale(-1).Sub(v), v.Sub(u)}
	m := &Mesh{Vertices: make([]mathutil.Vec3, 0, 8)}
	for _, c := range corners {
		m.Vertices = append(m.Vertices, a.Add(c))
	}
	for _, c := range corners {
		m.Vertices = append(m.Vertices, b.Add(c))
	}
	for i := 0; i < 4; i++ {
		j := (i + 1) % 4
		m.Triangles = append(m.Triangles, i, 4+j, j, i, 4+i, 4+j)
	}
	m.Triangles = append(m.Triangles, 0, 1, 2, 0, 2, 3, 4, 6, 5, 4, 7, 6)
	m.MakeFlatShaded()
	return m
}
