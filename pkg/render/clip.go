package render

import "github.com/taigrr/wormhole/pkg/math3d"

// minClipW keeps the perspective divide finite. Oblique projections move the
// near plane off the w axis, so both planes are clipped.
const minClipW = 1e-6

// maxClipVerts bounds a triangle clipped against two planes.
const maxClipVerts = 8

type clipVertex struct {
	Pos math3d.Vec4
	UV  math3d.Vec2
}

type clipTriangle [3]clipVertex

func nearDistance(p math3d.Vec4) float64 { return p.Z + p.W }
func wDistance(p math3d.Vec4) float64    { return p.W - minClipW }

// clipNear clips a triangle in homogeneous clip space against the near plane
// (z >= -w) and w >= minClipW, returning a convex polygon.
func clipNear(tri clipTriangle) (poly [maxClipVerts]clipVertex, n int) {
	inside := true
	for _, v := range tri {
		if nearDistance(v.Pos) < 0 || wDistance(v.Pos) < 0 {
			inside = false
			break
		}
	}
	copy(poly[:], tri[:])
	if inside {
		return poly, 3
	}

	var tmp [maxClipVerts]clipVertex
	n = clipAgainst(poly[:3], &tmp, nearDistance)
	n = clipAgainst(tmp[:n], &poly, wDistance)
	return poly, n
}

// clipAgainst is one Sutherland-Hodgman pass keeping dist >= 0.
func clipAgainst(in []clipVertex, out *[maxClipVerts]clipVertex, dist func(math3d.Vec4) float64) int {
	n := 0
	if len(in) == 0 {
		return 0
	}
	prev := in[len(in)-1]
	prevD := dist(prev.Pos)
	for _, cur := range in {
		curD := dist(cur.Pos)
		switch {
		case curD >= 0 && prevD >= 0:
			out[n] = cur
			n++
		case curD >= 0:
			out[n] = intersect(prev, cur, prevD, curD)
			out[n+1] = cur
			n += 2
		case prevD >= 0:
			out[n] = intersect(prev, cur, prevD, curD)
			n++
		}
		prev, prevD = cur, curD
	}
	return n
}

// intersect finds where edge a-b crosses the plane. The endpoints are put in
// a canonical order first so both triangles sharing an edge get the exact
// same point and no pixel along the seam is covered twice.
func intersect(a, b clipVertex, da, db float64) clipVertex {
	if vertexLess(b.Pos, a.Pos) {
		a, b = b, a
		da, db = db, da
	}
	t := da / (da - db)
	return clipVertex{
		Pos: a.Pos.Lerp(b.Pos, t),
		UV:  math3d.V2(a.UV.X+(b.UV.X-a.UV.X)*t, a.UV.Y+(b.UV.Y-a.UV.Y)*t),
	}
}

func vertexLess(a, b math3d.Vec4) bool {
	switch {
	case a.X != b.X:
		return a.X < b.X
	case a.Y != b.Y:
		return a.Y < b.Y
	case a.Z != b.Z:
		return a.Z < b.Z
	default:
		return a.W < b.W
	}
}
