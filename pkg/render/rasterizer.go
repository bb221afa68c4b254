// Package render provides the software rasterizer, camera and terminal output
// used by the wormhole portal engine.
package render

import (
	"math"

	"github.com/taigrr/wormhole/pkg/math3d"
)

// Rasterizer is a software triangle rasterizer with a color, depth and
// stencil buffer. Depth is stored as NDC z, cleared to 1.0 (far).
type Rasterizer struct {
	fb      *Framebuffer
	zbuffer []float64 // nil without a depth buffer
	stencil []uint8   // nil without a stencil buffer

	caps  Capabilities
	state State

	view     math3d.Mat4
	proj     math3d.Mat4
	viewProj math3d.Mat4

	frustum      Frustum
	frustumDirty bool

	// LightDir is the world-space direction towards the light.
	LightDir math3d.Vec3
	// Ambient is the minimum light intensity in [0, 1].
	Ambient float64

	CullingStats CullingStats
	stats        Stats
}

// CullingStats tracks frustum culling performance.
type CullingStats struct {
	MeshesTested int // Total meshes tested for culling
	MeshesCulled int // Meshes culled (not rendered)
	MeshesDrawn  int // Meshes that passed culling
}

// Stats counts work done since the last ResetStats.
type Stats struct {
	DrawCalls int
	Triangles int
	Fragments int // fragments that passed every test
}

// RasterizerOption configures a Rasterizer at construction.
type RasterizerOption func(*Rasterizer)

// WithStencilBits sets the stencil buffer depth. Zero disables the stencil
// buffer; stencil values are always stored in 8 bits, so larger requests are
// clamped to 8.
func WithStencilBits(bits int) RasterizerOption {
	return func(r *Rasterizer) {
		if bits > 0 {
			bits = 8
		}
		r.caps.StencilBits = max(bits, 0)
	}
}

// WithoutDepthBuffer creates the rasterizer without a depth buffer.
func WithoutDepthBuffer() RasterizerOption {
	return func(r *Rasterizer) {
		r.caps.DepthBuffer = false
	}
}

// NewRasterizer creates a rasterizer drawing into fb. By default it has a
// depth buffer and an 8-bit stencil buffer.
func NewRasterizer(fb *Framebuffer, opts ...RasterizerOption) *Rasterizer {
	r := &Rasterizer{
		fb:           fb,
		caps:         Capabilities{DepthBuffer: true, StencilBits: 8},
		state:        DefaultState(),
		view:         math3d.Identity(),
		proj:         math3d.Identity(),
		viewProj:     math3d.Identity(),
		frustumDirty: true,
		LightDir:     math3d.V3(0.4, 1, 0.6).Normalize(),
		Ambient:      0.3,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.Resize()
	r.ClearDepth()
	return r
}

// Resize resizes the rasterizer's buffers to match the framebuffer.
func (r *Rasterizer) Resize() {
	if r.fb == nil {
		r.zbuffer = nil
		r.stencil = nil
		return
	}
	n := r.fb.Width * r.fb.Height
	r.zbuffer = nil
	if r.caps.DepthBuffer {
		r.zbuffer = make([]float64, n)
	}
	r.stencil = nil
	if r.caps.StencilBits > 0 {
		r.stencil = make([]uint8, n)
	}
}

// SetFramebuffer swaps the render target and resizes the buffers.
func (r *Rasterizer) SetFramebuffer(fb *Framebuffer) {
	r.fb = fb
	r.Resize()
	r.ClearDepth()
}

// Framebuffer returns the current render target.
func (r *Rasterizer) Framebuffer() *Framebuffer {
	return r.fb
}

// Width returns the framebuffer width.
func (r *Rasterizer) Width() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Width
}

// Height returns the framebuffer height.
func (r *Rasterizer) Height() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Height
}

// Capabilities reports which buffers the rasterizer owns.
func (r *Rasterizer) Capabilities() Capabilities {
	return r.caps
}

// SetState replaces the whole fixed-function state.
func (r *Rasterizer) SetState(s State) {
	r.state = s
}

// State returns the current fixed-function state.
func (r *Rasterizer) State() State {
	return r.state
}

// Clear fills color with c, depth with the far value and stencil with 0.
func (r *Rasterizer) Clear(c Color) {
	if r.fb != nil {
		r.fb.Clear(c)
	}
	r.ClearDepth()
	r.ClearStencil()
}

// ClearDepth resets the depth buffer to the far plane (1.0).
func (r *Rasterizer) ClearDepth() {
	// Use copy-doubling for faster clearing
	n := len(r.zbuffer)
	if n == 0 {
		return
	}
	r.zbuffer[0] = 1
	for i := 1; i < n; i *= 2 {
		copy(r.zbuffer[i:], r.zbuffer[:i])
	}
}

// ClearStencil resets every stencil value to 0.
func (r *Rasterizer) ClearStencil() {
	clear(r.stencil)
}

// SetMatrices sets the view and projection used by subsequent draws.
func (r *Rasterizer) SetMatrices(view, proj math3d.Mat4) {
	r.view = view
	r.proj = proj
	r.viewProj = proj.Mul(view)
	r.frustumDirty = true
}

// SetCamera is a convenience for SetMatrices with a camera's matrices.
func (r *Rasterizer) SetCamera(c *Camera) {
	r.SetMatrices(c.ViewMatrix(), c.ProjectionMatrix())
}

// ViewProjection returns projection * view for the current matrices.
func (r *Rasterizer) ViewProjection() math3d.Mat4 {
	return r.viewProj
}

// GetFrustum returns the frustum of the current matrices.
func (r *Rasterizer) GetFrustum() Frustum {
	if r.frustumDirty {
		r.frustum = NewFrustumFromMatrix(r.viewProj)
		r.frustumDirty = false
	}
	return r.frustum
}

// ResetCullingStats resets the culling statistics (call once per frame).
func (r *Rasterizer) ResetCullingStats() {
	r.CullingStats = CullingStats{}
}

// Stats returns the draw statistics since the last reset.
func (r *Rasterizer) Stats() Stats {
	return r.stats
}

// ResetStats zeroes the draw statistics.
func (r *Rasterizer) ResetStats() {
	r.stats = Stats{}
}

// IsVisible tests if a world-space AABB is visible in the frustum.
func (r *Rasterizer) IsVisible(worldBounds AABB) bool {
	return r.GetFrustum().IntersectAABB(worldBounds)
}

// DepthAt returns the stored depth at (x, y), or 1 when out of range or
// there is no depth buffer.
func (r *Rasterizer) DepthAt(x, y int) float64 {
	if r.zbuffer == nil || x < 0 || x >= r.Width() || y < 0 || y >= r.Height() {
		return 1
	}
	return r.zbuffer[y*r.Width()+x]
}

// StencilAt returns the stencil value at (x, y), or 0 when out of range or
// there is no stencil buffer.
func (r *Rasterizer) StencilAt(x, y int) uint8 {
	if r.stencil == nil || x < 0 || x >= r.Width() || y < 0 || y >= r.Height() {
		return 0
	}
	return r.stencil[y*r.Width()+x]
}

// MeshRenderer is implemented by models.Mesh; declared here so render does
// not import models.
type MeshRenderer interface {
	VertexCount() int
	TriangleCount() int
	GetVertex(i int) (pos, normal math3d.Vec3, uv math3d.Vec2)
	GetFace(i int) [3]int
}

// BoundedMeshRenderer extends MeshRenderer with bounding box support for frustum culling.
type BoundedMeshRenderer interface {
	MeshRenderer
	GetBounds() (min, max math3d.Vec3)
}

// tryFrustumCull reports whether a mesh with bounds lies fully outside the
// current frustum.
func (r *Rasterizer) tryFrustumCull(mesh MeshRenderer, transform math3d.Mat4) bool {
	bounded, ok := mesh.(BoundedMeshRenderer)
	if !ok {
		return false
	}

	r.CullingStats.MeshesTested++

	minBounds, maxBounds := bounded.GetBounds()
	if !r.IsVisible(AABB{Min: minBounds, Max: maxBounds}.Transform(transform)) {
		r.CullingStats.MeshesCulled++
		return true
	}

	r.CullingStats.MeshesDrawn++
	return false
}

// DrawMesh renders a mesh with the given world transform and material,
// honoring the current State.
func (r *Rasterizer) DrawMesh(mesh MeshRenderer, world math3d.Mat4, mat Material) {
	r.stats.DrawCalls++
	if r.fb == nil || r.tryFrustumCull(mesh, world) {
		return
	}

	mvp := r.viewProj.Mul(world)
	light := r.LightDir.Normalize()

	for i := range mesh.TriangleCount() {
		face := mesh.GetFace(i)

		var tri clipTriangle
		var wp [3]math3d.Vec3
		for k := range 3 {
			p, _, uv := mesh.GetVertex(face[k])
			wp[k] = world.MulVec3(p)
			tri[k] = clipVertex{Pos: mvp.MulVec4(math3d.V4FromV3(p, 1)), UV: uv}
		}

		// Front faces wind clockwise seen from the side they face, so the
		// outward normal is the reversed cross product.
		normal := wp[2].Sub(wp[0]).Cross(wp[1].Sub(wp[0])).Normalize()
		r.drawClipped(tri, mat, normal, light)
	}
}

// DrawFullscreenQuad runs every pixel through the fragment tests at the
// given NDC depth, ignoring the view and projection.
func (r *Rasterizer) DrawFullscreenQuad(depth float64, c Color) {
	r.stats.DrawCalls++
	if r.fb == nil {
		return
	}
	for idx := range r.fb.Pixels {
		if r.fragment(idx, depth) {
			r.fb.Pixels[idx] = c
		}
	}
}

func (r *Rasterizer) drawClipped(tri clipTriangle, mat Material, normal, light math3d.Vec3) {
	poly, n := clipNear(tri)
	if n < 3 {
		return
	}

	var sv [maxClipVerts]screenVertex
	for i := range n {
		sv[i] = r.toScreen(poly[i])
	}

	for i := 1; i+1 < n; i++ {
		r.stats.Triangles++
		r.rasterize([3]screenVertex{sv[0], sv[i], sv[i+1]}, mat, normal, light)
	}
}

// shade computes the lit intensity for a face normal already oriented
// towards the viewer.
func (r *Rasterizer) shade(mat Material, normal, light math3d.Vec3) float64 {
	if mat.Unlit {
		return 1
	}
	diffuse := math.Max(0, normal.Dot(light))
	return r.Ambient + (1-r.Ambient)*diffuse
}

// fragment runs the stencil and depth tests for one pixel, applying the
// configured stencil operations and depth write, and reports whether the
// color should be written.
func (r *Rasterizer) fragment(idx int, z float64) bool {
	if z < -1 || z > 1 || math.IsNaN(z) {
		return false
	}

	s := &r.state
	stencilOn := s.StencilTest && r.stencil != nil

	if stencilOn {
		ref := float64(s.StencilRef & s.StencilReadMask)
		cur := float64(r.stencil[idx] & s.StencilReadMask)
		if !s.StencilFunc.test(ref, cur) {
			r.applyStencil(idx, s.StencilFail)
			return false
		}
	}

	if s.DepthTest && r.zbuffer != nil {
		if !s.DepthFunc.test(z, r.zbuffer[idx]) {
			if stencilOn {
				r.applyStencil(idx, s.DepthFail)
			}
			return false
		}
		if s.DepthWrite {
			r.zbuffer[idx] = z
		}
	}

	if stencilOn {
		r.applyStencil(idx, s.DepthPass)
	}

	r.stats.Fragments++
	return s.ColorWrite
}

func (r *Rasterizer) applyStencil(idx int, op StencilOp) {
	if op == StencilKeep || r.state.StencilWriteMask == 0 {
		return
	}
	mask := r.state.StencilWriteMask
	old := r.stencil[idx]
	val := op.apply(old, r.state.StencilRef)
	r.stencil[idx] = (old &^ mask) | (val & mask)
}
