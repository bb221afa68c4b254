package models

import "github.com/taigrr/wormhole/pkg/math3d"

// Front faces wind clockwise seen from the side they face, matching the
// winding produced by the glTF loader.

// addQuad appends a quad given its corners as seen from the front:
// bottom-left, top-left, top-right, bottom-right.
func (m *Mesh) addQuad(bl, tl, tr, br math3d.Vec3) {
	base := len(m.Vertices)
	n := tr.Sub(bl).Cross(tl.Sub(bl)).Normalize()
	m.Vertices = append(m.Vertices,
		MeshVertex{Position: bl, Normal: n, UV: math3d.V2(0, 0)},
		MeshVertex{Position: tl, Normal: n, UV: math3d.V2(0, 1)},
		MeshVertex{Position: tr, Normal: n, UV: math3d.V2(1, 1)},
		MeshVertex{Position: br, Normal: n, UV: math3d.V2(1, 0)},
	)
	m.Faces = append(m.Faces,
		Face{V: [3]int{base, base + 1, base + 2}, Material: -1},
		Face{V: [3]int{base, base + 2, base + 3}, Material: -1},
	)
}

// NewPlane creates a width x height rectangle in the XY plane, centered on
// the origin and facing +Z.
func NewPlane(width, height float64) *Mesh {
	m := NewMesh("plane")
	x, y := width/2, height/2
	m.addQuad(math3d.V3(-x, -y, 0), math3d.V3(-x, y, 0), math3d.V3(x, y, 0), math3d.V3(x, -y, 0))
	m.CalculateBounds()
	return m
}

// NewBox creates an axis-aligned box centered on the origin with faces
// pointing outwards.
func NewBox(width, height, depth float64) *Mesh {
	m := NewMesh("box")
	half := math3d.V3(width/2, height/2, depth/2)
	sides := [6]struct{ n, up math3d.Vec3 }{
		{math3d.V3(0, 0, 1), math3d.V3(0, 1, 0)},
		{math3d.V3(0, 0, -1), math3d.V3(0, 1, 0)},
		{math3d.V3(1, 0, 0), math3d.V3(0, 1, 0)},
		{math3d.V3(-1, 0, 0), math3d.V3(0, 1, 0)},
		{math3d.V3(0, 1, 0), math3d.V3(0, 0, -1)},
		{math3d.V3(0, -1, 0), math3d.V3(0, 0, 1)},
	}
	for _, s := range sides {
		right := s.up.Cross(s.n)
		c := s.n.Mul(half)
		r := right.Mul(half)
		u := s.up.Mul(half)
		m.addQuad(c.Sub(r).Sub(u), c.Sub(r).Add(u), c.Add(r).Add(u), c.Add(r).Sub(u))
	}
	m.CalculateBounds()
	return m
}

// NewRoom creates a box whose faces point inwards, for enclosing a space.
func NewRoom(width, height, depth float64) *Mesh {
	m := NewBox(width, height, depth)
	m.Name = "room"
	m.FlipWinding()
	return m
}

// FlipWinding reverses every face and negates the normals.
func (m *Mesh) FlipWinding() {
	for i := range m.Faces {
		f := &m.Faces[i]
		f.V[1], f.V[2] = f.V[2], f.V[1]
	}
	for i := range m.Vertices {
		m.Vertices[i].Normal = m.Vertices[i].Normal.Negate()
	}
}
