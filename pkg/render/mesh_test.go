package render

import "github.com/taigrr/wormhole/pkg/math3d"

// simpleMesh is a test implementation of BoundedMeshRenderer.
type simpleMesh struct {
	vertices []meshVertex
	faces    [][3]int
	bounds   AABB
}

type meshVertex struct {
	pos    math3d.Vec3
	normal math3d.Vec3
	uv     math3d.Vec2
}

func (m *simpleMesh) VertexCount() int   { return len(m.vertices) }
func (m *simpleMesh) TriangleCount() int { return len(m.faces) }

func (m *simpleMesh) GetVertex(i int) (pos, normal math3d.Vec3, uv math3d.Vec2) {
	v := m.vertices[i]
	return v.pos, v.normal, v.uv
}

func (m *simpleMesh) GetFace(i int) [3]int {
	return m.faces[i]
}

func (m *simpleMesh) GetBounds() (min, max math3d.Vec3) {
	return m.bounds.Min, m.bounds.Max
}

// unboundedMesh hides GetBounds so the rasterizer cannot cull it.
type unboundedMesh struct {
	MeshRenderer
}

// addQuad appends two clockwise triangles for corners given as seen from
// the front: bottom-left, top-left, top-right, bottom-right.
func (m *simpleMesh) addQuad(bl, tl, tr, br math3d.Vec3) {
	base := len(m.vertices)
	n := tr.Sub(bl).Cross(tl.Sub(bl)).Normalize()
	uvs := [4]math3d.Vec2{math3d.V2(0, 0), math3d.V2(0, 1), math3d.V2(1, 1), math3d.V2(1, 0)}
	for i, p := range [4]math3d.Vec3{bl, tl, tr, br} {
		m.vertices = append(m.vertices, meshVertex{pos: p, normal: n, uv: uvs[i]})
		m.bounds = m.bounds.ExpandByPoint(p)
	}
	m.faces = append(m.faces, [3]int{base, base + 1, base + 2}, [3]int{base, base + 2, base + 3})
}

func newSimpleMesh() *simpleMesh {
	inf := 1e300
	return &simpleMesh{bounds: AABB{Min: math3d.V3(inf, inf, inf), Max: math3d.V3(-inf, -inf, -inf)}}
}

// quadMesh is a w x h rectangle in the XY plane facing +Z.
func quadMesh(w, h float64) *simpleMesh {
	m := newSimpleMesh()
	x, y := w/2, h/2
	m.addQuad(math3d.V3(-x, -y, 0), math3d.V3(-x, y, 0), math3d.V3(x, y, 0), math3d.V3(x, -y, 0))
	return m
}

// cubeMesh is an axis-aligned cube of half-size h with outward faces.
func cubeMesh(h float64) *simpleMesh {
	m := newSimpleMesh()
	faces := []struct{ n, up math3d.Vec3 }{
		{math3d.V3(0, 0, 1), math3d.V3(0, 1, 0)},
		{math3d.V3(0, 0, -1), math3d.V3(0, 1, 0)},
		{math3d.V3(1, 0, 0), math3d.V3(0, 1, 0)},
		{math3d.V3(-1, 0, 0), math3d.V3(0, 1, 0)},
		{math3d.V3(0, 1, 0), math3d.V3(0, 0, -1)},
		{math3d.V3(0, -1, 0), math3d.V3(0, 0, 1)},
	}
	for _, f := range faces {
		right := f.up.Cross(f.n)
		c := f.n.Scale(h)
		r := right.Scale(h)
		u := f.up.Scale(h)
		m.addQuad(c.Sub(r).Sub(u), c.Sub(r).Add(u), c.Add(r).Add(u), c.Add(r).Sub(u))
	}
	return m
}
