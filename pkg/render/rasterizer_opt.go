package render

import (
	"math"

	"github.com/taigrr/wormhole/pkg/math3d"
)

// screenVertex holds a vertex after the perspective divide.
type screenVertex struct {
	X, Y float64 // pixel coordinates, y down
	Z    float64 // NDC depth
	InvW float64 // 1/w for perspective-correct interpolation
	UV   math3d.Vec2
}

func (r *Rasterizer) toScreen(v clipVertex) screenVertex {
	invW := 1 / v.Pos.W
	return screenVertex{
		X:    (v.Pos.X*invW + 1) * 0.5 * float64(r.Width()),
		Y:    (1 - v.Pos.Y*invW) * 0.5 * float64(r.Height()),
		Z:    v.Pos.Z * invW,
		InvW: invW,
		UV:   v.UV,
	}
}

// edgeCoeffs returns A, B, C for edge(x, y) = A*x + B*y + C along x0,y0 -> x1,y1.
// Reversing the edge negates all three exactly, so two triangles sharing an
// edge always disagree on its sign.
func edgeCoeffs(x0, y0, x1, y1 float64) (A, B, C float64) {
	A = y0 - y1 // dy
	B = x1 - x0 // -dx
	C = x0*y1 - x1*y0
	return
}

// edgeFunc evaluates edge function at point (x, y)
func edgeFunc(A, B, C, x, y float64) float64 {
	return A*x + B*y + C
}

// covers applies the fill rule: pixels exactly on an edge belong to the
// triangle for which the edge points "down-right".
func covers(w, A, B float64) bool {
	return w > 0 || (w == 0 && (A > 0 || (A == 0 && B > 0)))
}

func min3(a, b, c float64) float64 {
	return math.Min(a, math.Min(b, c))
}

func max3(a, b, c float64) float64 {
	return math.Max(a, math.Max(b, c))
}

// rasterize fills a screen-space triangle with edge functions, running every
// covered pixel through the fragment tests.
func (r *Rasterizer) rasterize(sv [3]screenVertex, mat Material, normal, light math3d.Vec3) {
	area2 := (sv[1].X-sv[0].X)*(sv[2].Y-sv[0].Y) - (sv[1].Y-sv[0].Y)*(sv[2].X-sv[0].X)
	if area2 == 0 || math.IsNaN(area2) {
		return
	}

	// Back-facing (counter-clockwise on screen)
	if area2 < 0 {
		if !mat.DoubleSided {
			return
		}
		sv[1], sv[2] = sv[2], sv[1]
		area2 = -area2
		normal = normal.Negate()
	}

	// Bounding box (clamped to screen)
	minX := int(math.Max(0, math.Floor(min3(sv[0].X, sv[1].X, sv[2].X))))
	maxX := int(math.Min(float64(r.Width()-1), math.Ceil(max3(sv[0].X, sv[1].X, sv[2].X))))
	minY := int(math.Max(0, math.Floor(min3(sv[0].Y, sv[1].Y, sv[2].Y))))
	maxY := int(math.Min(float64(r.Height()-1), math.Ceil(max3(sv[0].Y, sv[1].Y, sv[2].Y))))
	if minX > maxX || minY > maxY {
		return
	}

	// Edge 0: v1 -> v2, Edge 1: v2 -> v0, Edge 2: v0 -> v1
	A0, B0, C0 := edgeCoeffs(sv[1].X, sv[1].Y, sv[2].X, sv[2].Y)
	A1, B1, C1 := edgeCoeffs(sv[2].X, sv[2].Y, sv[0].X, sv[0].Y)
	A2, B2, C2 := edgeCoeffs(sv[0].X, sv[0].Y, sv[1].X, sv[1].Y)
	invArea := 1.0 / area2

	intensity := r.shade(mat, normal, light)
	flat := MultiplyColor(mat.Color, intensity)
	tex := mat.Texture

	width := r.Width()
	pixels := r.fb.Pixels

	for y := minY; y <= maxY; y++ {
		py := float64(y) + 0.5
		rowOffset := y * width

		for x := minX; x <= maxX; x++ {
			px := float64(x) + 0.5

			// Evaluated directly rather than stepped so shared edges stay
			// bit-exact between neighbouring triangles.
			w0 := edgeFunc(A0, B0, C0, px, py)
			w1 := edgeFunc(A1, B1, C1, px, py)
			w2 := edgeFunc(A2, B2, C2, px, py)
			if !covers(w0, A0, B0) || !covers(w1, A1, B1) || !covers(w2, A2, B2) {
				continue
			}

			bc0 := w0 * invArea
			bc1 := w1 * invArea
			bc2 := w2 * invArea

			z := bc0*sv[0].Z + bc1*sv[1].Z + bc2*sv[2].Z

			idx := rowOffset + x
			if !r.fragment(idx, z) {
				continue
			}

			if tex == nil {
				pixels[idx] = flat
				continue
			}

			// Perspective-correct interpolation
			pw0 := bc0 * sv[0].InvW
			pw1 := bc1 * sv[1].InvW
			pw2 := bc2 * sv[2].InvW
			oneOverW := pw0 + pw1 + pw2
			if oneOverW == 0 {
				pixels[idx] = flat
				continue
			}
			inv := 1.0 / oneOverW
			u := (pw0*sv[0].UV.X + pw1*sv[1].UV.X + pw2*sv[2].UV.X) * inv
			v := (pw0*sv[0].UV.Y + pw1*sv[1].UV.Y + pw2*sv[2].UV.Y) * inv
			texel := tex.Sample(u, v)
			if mat.Color.A != 0 {
				texel = ModulateColor(texel, mat.Color)
			}
			pixels[idx] = MultiplyColor(texel, intensity)
		}
	}
}
