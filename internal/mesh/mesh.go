// Package mesh holds indexed triangle meshes used to draw skeleton joints and
// bones, with vertex normal generation and flat shading.
package mesh

import "bvh-pose-renderer/internal/mathutil"

// Mesh is an indexed triangle list. Every three entries of Triangles form one
// counter-clockwise face. Normals is nil until CalculateNormals runs.
type Mesh struct {
	Vertices  []mathutil.Vec3
	Triangles []int
	Normals   []mathutil.Vec3
}

// NumTriangles returns len(Triangles)/3.
func (m *Mesh) NumTriangles() int {
	return len(m.Triangles) / 3
}

// Triangle returns the vertex indices of face i.
func (m *Mesh) Triangle(i int) [3]int {
	return [3]int{m.Triangles[3*i], m.Triangles[3*i+1], m.Triangles[3*i+2]}
}

// FaceNormal returns the unit normal of face i, or zero for a degenerate face.
func (m *Mesh) FaceNormal(i int) mathutil.Vec3 {
	return faceNormal(m, m.Triangle(i)).Normalize()
}

// faceNormal is the unnormalized cross product, so larger faces weigh more
// when accumulated into vertex normals.
func faceNormal(m *Mesh, t [3]int) mathutil.Vec3 {
	a, b, c := m.Vertices[t[0]], m.Vertices[t[1]], m.Vertices[t[2]]
	return b.Sub(a).Cross(c.Sub(a))
}

// CalculateNormals sets one normal per vertex: the normalized sum of the
// area-weighted normals of the faces sharing it. Unused vertices get zero.
func (m *Mesh) CalculateNormals() {
	m.Normals = make([]mathutil.Vec3, len(m.Vertices))
	for i := 0; i < m.NumTriangles(); i++ {
		t := m.Triangle(i)
		n := faceNormal(m, t)
		for _, v := range t {
			m.Normals[v] = m.Normals[v].Add(n)
		}
	}
	for i := range m.Normals {
		m.Normals[i] = m.Normals[i].Normalize()
	}
}

// MakeFlatShaded duplicates shared vertices so that no vertex is used by more
// than one face. The first face referencing a vertex keeps it. Normals are
// recalculated afterwards, giving every vertex its face's normal.
func (m *Mesh) MakeFlatShaded() {
	used := make([]bool, len(m.Vertices))
	for i, v := range m.Triangles {
		if !used[v] {
			used[v] = true
			continue
		}
		m.Vertices = append(m.Vertices, m.Vertices[v])
		m.Triangles[i] = len(m.Vertices) - 1
	}
	m.CalculateNormals()
}

// Append adds o's faces to m. Normals are dropped if either side lacks them.
func (m *Mesh) Append(o *Mesh) {
	base := len(m.Vertices)
	hadNormals := m.Normals != nil || len(m.Vertices) == 0
	m.Vertices = append(m.Vertices, o.Vertices...)
	for _, v := range o.Triangles {
		m.Triangles = append(m.Triangles, base+v)
	}
	if hadNormals && o.Normals != nil {
		m.Normals = append(m.Normals, o.Normals...)
	} else {
		m.Normals = nil
	}
}

// Transform returns a copy of m with vertices moved by t and normals rotated
// by its upper 3×3 part.
func (m *Mesh) Transform(t mathutil.Mat4) *Mesh {
	out := &Mesh{
		Vertices:  make([]mathutil.Vec3, len(m.Vertices)),
		Triangles: append([]int(nil), m.Triangles...),
	}
	for i, v := range m.Vertices {
		out.Vertices[i] = t.MulPoint(v)
	}
	if m.Normals != nil {
		r := t.Rotation()
		out.Normals = make([]mathutil.Vec3, len(m.Normals))
		for i, n := range m.Normals {
			out.Normals[i] = r.MulVec3(n).Normalize()
		}
	}
	return out
}
