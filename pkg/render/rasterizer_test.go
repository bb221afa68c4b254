package render

import (
	"math"
	"testing"

	"github.com/taigrr/wormhole/pkg/math3d"
)

var (
	red   = RGB(255, 0, 0)
	blue  = RGB(0, 0, 255)
	black = RGB(0, 0, 0)
)

// createTestRasterizer returns a rasterizer viewed by a camera at z=5
// looking at the origin.
func createTestRasterizer(width, height int) (*Rasterizer, *Framebuffer) {
	fb := NewFramebuffer(width, height)
	cam := NewCamera()
	cam.SetPosition(math3d.V3(0, 0, 5))
	cam.LookAt(math3d.Zero3())
	cam.SetAspectRatio(float64(width) / float64(height))
	cam.SetClipPlanes(0.1, 100)

	r := NewRasterizer(fb)
	r.SetCamera(cam)
	r.Clear(black)
	return r, fb
}

// gridMesh tiles a size x size square in the XY plane with n*n quads.
func gridMesh(size float64, n int) *simpleMesh {
	m := newSimpleMesh()
	step := size / float64(n)
	origin := -size / 2
	for j := range n {
		for i := range n {
			x0, y0 := origin+float64(i)*step, origin+float64(j)*step
			x1, y1 := x0+step, y0+step
			m.addQuad(math3d.V3(x0, y0, 0), math3d.V3(x0, y1, 0), math3d.V3(x1, y1, 0), math3d.V3(x1, y0, 0))
		}
	}
	return m
}

// countingState increments the stencil for every covered pixel.
func countingState() State {
	s := DefaultState()
	s.DepthTest = false
	s.DepthWrite = false
	s.StencilTest = true
	s.StencilFunc = CompareAlways
	s.StencilWriteMask = 0xff
	s.DepthPass = StencilIncr
	return s
}

func stencilStats(r *Rasterizer) (covered int, maxValue uint8) {
	for y := range r.Height() {
		for x := range r.Width() {
			v := r.StencilAt(x, y)
			if v > 0 {
				covered++
			}
			maxValue = max(maxValue, v)
		}
	}
	return covered, maxValue
}

func TestDrawMeshFrontFace(t *testing.T) {
	r, fb := createTestRasterizer(40, 40)
	r.DrawMesh(quadMesh(2, 2), math3d.Identity(), SolidMaterial(red))

	if fb.GetPixel(20, 20) == black {
		t.Fatal("center pixel should be covered by the quad")
	}
	if fb.GetPixel(0, 0) != black {
		t.Error("corner pixel should be untouched")
	}
	if d := r.DepthAt(20, 20); d >= 1 || d <= -1 {
		t.Errorf("depth at center = %v, want inside (-1, 1)", d)
	}
	if r.Stats().Fragments == 0 {
		t.Error("fragments should be counted")
	}
}

func TestBackfaceCulling(t *testing.T) {
	tests := []struct {
		name        string
		doubleSided bool
		wantDrawn   bool
	}{
		{"single sided", false, false},
		{"double sided", true, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, fb := createTestRasterizer(40, 40)
			mat := Material{Color: red, DoubleSided: tc.doubleSided, Unlit: true}
			r.DrawMesh(quadMesh(2, 2), math3d.RotateY(math.Pi), mat)

			drawn := fb.GetPixel(20, 20) != black
			if drawn != tc.wantDrawn {
				t.Errorf("drawn = %v, want %v", drawn, tc.wantDrawn)
			}
		})
	}
}

func TestDepthTestKeepsNearest(t *testing.T) {
	r, fb := createTestRasterizer(40, 40)
	near := Material{Color: red, Unlit: true}
	far := Material{Color: blue, Unlit: true}

	r.DrawMesh(quadMesh(2, 2), math3d.Translate(math3d.V3(0, 0, 1)), near)
	r.DrawMesh(quadMesh(2, 2), math3d.Translate(math3d.V3(0, 0, -1)), far)

	if got := fb.GetPixel(20, 20); got != red {
		t.Errorf("center = %v, want nearer red quad", got)
	}
}

func TestSharedEdgesCoveredOnce(t *testing.T) {
	angles := []float64{0, 0.3, 1.1, 2.5, -0.7}
	for _, a := range angles {
		r, _ := createTestRasterizer(64, 48)
		r.SetState(countingState())

		world := math3d.RotateZ(a).Mul(math3d.RotateX(a * 0.5)).Mul(math3d.RotateY(a * 0.25))
		r.DrawMesh(gridMesh(3, 5), world, Material{Color: red, DoubleSided: true})

		covered, maxValue := stencilStats(r)
		if covered == 0 {
			t.Errorf("angle %v: grid covered nothing", a)
		}
		if maxValue > 1 {
			t.Errorf("angle %v: a pixel was covered %d times", a, maxValue)
		}
	}
}

func TestNearPlaneClipping(t *testing.T) {
	fb := NewFramebuffer(64, 48)
	cam := NewCamera()
	cam.SetClipPlanes(0.05, 100)
	cam.SetAspectRatio(64.0 / 48.0)
	cam.SetPosition(math3d.V3(0, 1, 0))
	cam.LookAt(math3d.V3(0, 0, -5))

	r := NewRasterizer(fb)
	r.SetCamera(cam)
	r.Clear(black)
	r.SetState(countingState())

	// A floor that extends well behind the camera
	floor := math3d.RotateX(-math.Pi / 2)
	r.DrawMesh(gridMesh(40, 4), floor, Material{Color: red, DoubleSided: true})

	covered, maxValue := stencilStats(r)
	if covered == 0 {
		t.Fatal("floor should be visible")
	}
	if maxValue > 1 {
		t.Errorf("clipped floor covered a pixel %d times", maxValue)
	}
	if r.StencilAt(32, 47) == 0 {
		t.Error("bottom center should see the floor")
	}
	if r.StencilAt(32, 0) != 0 {
		t.Error("top center should be above the horizon")
	}
}

func TestStencilIncrDecrBalance(t *testing.T) {
	r, _ := createTestRasterizer(40, 40)
	mesh := gridMesh(2, 3)
	world := math3d.RotateZ(0.4)

	r.SetState(countingState())
	r.DrawMesh(mesh, world, SolidMaterial(red))

	s := countingState()
	s.DepthPass = StencilDecr
	r.SetState(s)
	r.DrawMesh(mesh, world, SolidMaterial(red))

	if covered, _ := stencilStats(r); covered != 0 {
		t.Errorf("%d pixels left non-zero after incr/decr", covered)
	}
}

func TestDrawFullscreenQuad(t *testing.T) {
	r, fb := createTestRasterizer(8, 8)

	r.DrawFullscreenQuad(0.5, red)
	if fb.GetPixel(3, 3) != red || r.DepthAt(3, 3) != 0.5 {
		t.Fatal("quad at 0.5 should pass a cleared depth buffer")
	}

	r.DrawFullscreenQuad(0.7, blue)
	if fb.GetPixel(3, 3) != red {
		t.Error("farther quad should fail LESS")
	}

	s := DefaultState()
	s.DepthFunc = CompareAlways
	r.SetState(s)
	r.DrawFullscreenQuad(1.5, blue)
	if fb.GetPixel(3, 3) != red {
		t.Error("depth outside [-1, 1] must be rejected")
	}
}

func TestFullscreenQuadStencilGated(t *testing.T) {
	r, fb := createTestRasterizer(40, 40)

	r.SetState(countingState())
	r.DrawMesh(quadMesh(1, 1), math3d.Identity(), SolidMaterial(red))

	s := DefaultState()
	s.DepthFunc = CompareAlways
	s.StencilTest = true
	s.StencilFunc = CompareEqual
	s.StencilRef = 1
	r.SetState(s)
	r.DrawFullscreenQuad(1, blue)

	for y := range 40 {
		for x := range 40 {
			painted := fb.GetPixel(x, y) == blue
			if painted != (r.StencilAt(x, y) == 1) {
				t.Fatalf("pixel (%d,%d): painted=%v stencil=%d", x, y, painted, r.StencilAt(x, y))
			}
		}
	}
}

func TestStencilWriteMask(t *testing.T) {
	r, _ := createTestRasterizer(4, 4)
	s := DefaultState()
	s.StencilTest = true
	s.StencilRef = 0xff
	s.StencilWriteMask = 0x0f
	s.DepthPass = StencilReplace
	r.SetState(s)
	r.DrawFullscreenQuad(0, red)

	if got := r.StencilAt(1, 1); got != 0x0f {
		t.Errorf("masked write = %#x, want 0x0f", got)
	}
}

func TestStencilFailAndDepthFailOps(t *testing.T) {
	r, _ := createTestRasterizer(4, 4)
	r.DrawFullscreenQuad(0, red) // depth now 0

	s := DefaultState()
	s.StencilTest = true
	s.StencilWriteMask = 0xff
	s.DepthFail = StencilIncr
	r.SetState(s)
	r.DrawFullscreenQuad(0.5, blue) // fails depth
	if got := r.StencilAt(0, 0); got != 1 {
		t.Fatalf("depth-fail op: stencil = %d, want 1", got)
	}

	s.StencilFunc = CompareNever
	s.StencilFail = StencilZero
	r.SetState(s)
	r.DrawFullscreenQuad(-0.5, blue)
	if got := r.StencilAt(0, 0); got != 0 {
		t.Errorf("stencil-fail op: stencil = %d, want 0", got)
	}
}

func TestStencilOpApply(t *testing.T) {
	tests := []struct {
		op   StencilOp
		v    uint8
		want uint8
	}{
		{StencilKeep, 7, 7},
		{StencilZero, 7, 0},
		{StencilReplace, 7, 3},
		{StencilIncr, 7, 8},
		{StencilIncr, 255, 255},
		{StencilDecr, 7, 6},
		{StencilDecr, 0, 0},
		{StencilInvert, 0x0f, 0xf0},
		{StencilIncrWrap, 255, 0},
		{StencilDecrWrap, 0, 255},
	}
	for _, tc := range tests {
		t.Run(tc.op.String(), func(t *testing.T) {
			if got := tc.op.apply(tc.v, 3); got != tc.want {
				t.Errorf("%s(%d) = %d, want %d", tc.op, tc.v, got, tc.want)
			}
		})
	}
}

func TestCompareFunc(t *testing.T) {
	tests := []struct {
		f          CompareFunc
		lt, eq, gt bool
	}{
		{CompareNever, false, false, false},
		{CompareLess, true, false, false},
		{CompareEqual, false, true, false},
		{CompareLessEqual, true, true, false},
		{CompareGreater, false, false, true},
		{CompareNotEqual, true, false, true},
		{CompareGreaterEqual, false, true, true},
		{CompareAlways, true, true, true},
	}
	for _, tc := range tests {
		t.Run(tc.f.String(), func(t *testing.T) {
			if tc.f.test(1, 2) != tc.lt || tc.f.test(2, 2) != tc.eq || tc.f.test(3, 2) != tc.gt {
				t.Errorf("%s: unexpected result", tc.f)
			}
		})
	}
}

func TestRasterizerCapabilities(t *testing.T) {
	fb := NewFramebuffer(4, 4)

	if caps := NewRasterizer(fb).Capabilities(); !caps.SupportsStencil() || caps.StencilBits != 8 {
		t.Errorf("default caps = %+v, want depth and 8 stencil bits", caps)
	}
	if caps := NewRasterizer(fb, WithStencilBits(16)).Capabilities(); caps.StencilBits != 8 {
		t.Errorf("stencil bits = %d, want clamp to 8", caps.StencilBits)
	}

	noStencil := NewRasterizer(fb, WithStencilBits(0))
	if noStencil.Capabilities().SupportsStencil() {
		t.Error("zero stencil bits should not support stencil")
	}
	if noStencil.StencilAt(0, 0) != 0 {
		t.Error("StencilAt without a buffer should be 0")
	}

	if NewRasterizer(fb, WithoutDepthBuffer()).Capabilities().SupportsStencil() {
		t.Error("stencil without depth should not be supported")
	}
}

func TestRasterizerClearDepth(t *testing.T) {
	r, _ := createTestRasterizer(10, 10)
	r.DrawFullscreenQuad(-0.25, red)
	if r.DepthAt(5, 5) != -0.25 {
		t.Fatal("fullscreen quad should write depth")
	}

	r.ClearDepth()
	if r.DepthAt(5, 5) != 1 {
		t.Error("ClearDepth should reset to 1")
	}
	if r.DepthAt(-1, 0) != 1 || r.DepthAt(100, 0) != 1 {
		t.Error("out of bounds DepthAt should report the far value")
	}
}

func TestResizeFollowsFramebuffer(t *testing.T) {
	r, _ := createTestRasterizer(10, 10)
	r.SetFramebuffer(NewFramebuffer(20, 6))

	if r.Width() != 20 || r.Height() != 6 {
		t.Fatalf("size = %dx%d, want 20x6", r.Width(), r.Height())
	}
	if r.DepthAt(19, 5) != 1 {
		t.Error("resized depth buffer should be cleared")
	}
}

func TestTexturedMaterial(t *testing.T) {
	r, fb := createTestRasterizer(40, 40)
	tex := NewCheckerTexture(2, 2, 1, RGB(255, 255, 255), RGB(0, 255, 0))
	r.DrawMesh(quadMesh(2, 2), math3d.Identity(), Material{Texture: tex, Unlit: true})

	seen := map[Color]bool{}
	for y := range 40 {
		for x := range 40 {
			seen[fb.GetPixel(x, y)] = true
		}
	}
	if !seen[RGB(255, 255, 255)] || !seen[RGB(0, 255, 0)] {
		t.Error("both checker colors should appear on the quad")
	}
}

func TestMin3Max3(t *testing.T) {
	if min3(1, 2, 3) != 1 || min3(3, 1, 2) != 1 || min3(2, 3, 1) != 1 {
		t.Error("min3 failed")
	}
	if max3(1, 2, 3) != 3 || max3(3, 1, 2) != 3 || max3(2, 3, 1) != 3 {
		t.Error("max3 failed")
	}
}

func BenchmarkDrawMesh(b *testing.B) {
	r, _ := createTestRasterizer(160, 120)
	mesh := cubeMesh(1)
	world := math3d.RotateY(0.5).Mul(math3d.RotateX(0.3))
	mat := SolidMaterial(RGB(100, 150, 200))

	for b.Loop() {
		r.Clear(black)
		r.DrawMesh(mesh, world, mat)
	}
}

func BenchmarkDrawFullscreenQuad(b *testing.B) {
	r, _ := createTestRasterizer(160, 120)
	s := DefaultState()
	s.DepthFunc = CompareAlways
	r.SetState(s)

	for b.Loop() {
		r.DrawFullscreenQuad(1, black)
	}
}
