package render

import (
	"math"

	"github.com/taigrr/wormhole/pkg/math3d"
)

// Wireframe draws debug lines through a rasterizer's current view and
// projection. Lines ignore depth and stencil and are drawn on top.
type Wireframe struct {
	r *Rasterizer
}

// NewWireframe creates a wireframe overlay for r.
func NewWireframe(r *Rasterizer) *Wireframe {
	return &Wireframe{r: r}
}

// boxEdges indexes the corners produced by boxCorners.
var boxEdges = [12][2]int{
	{0, 1}, {1, 3}, {3, 2}, {2, 0}, // min Z
	{4, 5}, {5, 7}, {7, 6}, {6, 4}, // max Z
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

func boxCorners(b AABB) [8]math3d.Vec3 {
	var c [8]math3d.Vec3
	for i := range c {
		c[i] = math3d.V3(
			selectComponent(i&1 != 0, b.Max.X, b.Min.X),
			selectComponent(i&2 != 0, b.Max.Y, b.Min.Y),
			selectComponent(i&4 != 0, b.Max.Z, b.Min.Z),
		)
	}
	return c
}

// lineClipPlanes are the near, w and side planes in clip space. Lines are
// clipped to the view so Bresenham never walks off-screen.
var lineClipPlanes = [...]func(math3d.Vec4) float64{
	nearDistance,
	wDistance,
	func(p math3d.Vec4) float64 { return p.W + p.X },
	func(p math3d.Vec4) float64 { return p.W - p.X },
	func(p math3d.Vec4) float64 { return p.W + p.Y },
	func(p math3d.Vec4) float64 { return p.W - p.Y },
}

// DrawLine3D draws a world-space line.
func (w *Wireframe) DrawLine3D(p1, p2 math3d.Vec3, c Color) {
	fb := w.r.Framebuffer()
	if fb == nil {
		return
	}
	vp := w.r.ViewProjection()
	a := vp.MulVec4(math3d.V4FromV3(p1, 1))
	b := vp.MulVec4(math3d.V4FromV3(p2, 1))

	for _, dist := range lineClipPlanes {
		da, db := dist(a), dist(b)
		switch {
		case da < 0 && db < 0:
			return
		case da < 0:
			a = a.Lerp(b, da/(da-db))
		case db < 0:
			b = b.Lerp(a, db/(db-da))
		}
	}

	x1, y1 := w.toPixel(a)
	x2, y2 := w.toPixel(b)
	fb.DrawLine(x1, y1, x2, y2, c)
}

func (w *Wireframe) toPixel(p math3d.Vec4) (int, int) {
	invW := 1 / p.W
	x := (p.X*invW + 1) * 0.5 * float64(w.r.Width())
	y := (1 - p.Y*invW) * 0.5 * float64(w.r.Height())
	return min(int(math.Floor(x)), w.r.Width()-1), min(int(math.Floor(y)), w.r.Height()-1)
}

// DrawBox draws the twelve edges of box transformed by world. Unlike
// AABB.Transform the result stays an oriented box.
func (w *Wireframe) DrawBox(box AABB, world math3d.Mat4, c Color) {
	corners := boxCorners(box)
	for i := range corners {
		corners[i] = world.MulVec3(corners[i])
	}
	for _, e := range boxEdges {
		w.DrawLine3D(corners[e[0]], corners[e[1]], c)
	}
}
