package portal

import (
	"log/slog"

	"github.com/taigrr/wormhole/pkg/math3d"
	"github.com/taigrr/wormhole/pkg/render"
	"github.com/taigrr/wormhole/pkg/scene"
)

// Backend is the fixed-function target the renderer drives.
// *render.Rasterizer implements it.
type Backend interface {
	Capabilities() render.Capabilities
	Clear(c render.Color)
	SetState(s render.State)
	SetMatrices(view, proj math3d.Mat4)
	DrawMesh(mesh render.MeshRenderer, world math3d.Mat4, mat render.Material)
	DrawFullscreenQuad(depth float64, c render.Color)
}

// Camera is the view a frame is rendered from. *render.Camera implements it.
type Camera interface {
	WorldMatrix() math3d.Mat4
	ViewMatrix() math3d.Mat4
	ProjectionMatrix() math3d.Mat4
}

// Overlay draws debug geometry over a finished frame. *render.Wireframe
// implements it.
type Overlay interface {
	DrawBox(box render.AABB, world math3d.Mat4, c render.Color)
	DrawLine3D(p1, p2 math3d.Vec3, c render.Color)
}

// FrameStats describes the work done by the last Render.
type FrameStats struct {
	Levels          int // renderLevel invocations
	MaxLevel        int // deepest level reached
	PortalsRendered int
	PortalsCulled   int
}

// Renderer draws a scene with nested portal views using the stencil
// buffer to track, per pixel, how many portals the view ray went through.
type Renderer struct {
	backend  Backend
	registry *Registry
	overlay  Overlay

	// ColliderColor is used when drawPortalColliders is on.
	ColliderColor render.Color
	// CameraColor is used when drawPortalCameras is on.
	CameraColor render.Color

	stats FrameStats
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithOverlay sets the overlay used for portal colliders and cameras. When
// the backend is a *render.Rasterizer a wireframe overlay is created by
// default.
func WithOverlay(o Overlay) RendererOption {
	return func(r *Renderer) { r.overlay = o }
}

// NewRenderer returns ErrStencilUnsupported when backend lacks a depth or
// stencil buffer.
func NewRenderer(backend Backend, reg *Registry, opts ...RendererOption) (*Renderer, error) {
	if !backend.Capabilities().SupportsStencil() {
		return nil, ErrStencilUnsupported
	}
	r := &Renderer{
		backend:       backend,
		registry:      reg,
		ColliderColor: render.ColorGreen,
		CameraColor:   render.ColorYellow,
	}
	if rast, ok := backend.(*render.Rasterizer); ok {
		r.overlay = render.NewWireframe(rast)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Registry returns the portals and options the renderer draws with.
func (r *Renderer) Registry() *Registry { return r.registry }

// Stats returns the statistics of the last frame.
func (r *Renderer) Stats() FrameStats { return r.stats }

// Render clears the backend and draws s from cam. The backend is left in
// render.DefaultState.
func (r *Renderer) Render(s *scene.Scene, cam Camera) {
	r.stats = FrameStats{}
	opts := r.registry.Options()

	r.backend.SetState(render.DefaultState())
	r.backend.Clear(s.Background)

	if opts.RenderPortals {
		r.renderLevel(s, cam.WorldMatrix(), cam.ViewMatrix(), cam.ProjectionMatrix(), 0, nil, &opts)
	} else {
		r.backend.SetMatrices(cam.ViewMatrix(), cam.ProjectionMatrix())
		s.Draw(r.backend)
	}

	if r.overlay == nil {
		return
	}
	r.backend.SetMatrices(cam.ViewMatrix(), cam.ProjectionMatrix())
	if opts.DrawPortalCameras {
		r.drawPortalCameras(cam)
	}
	if opts.DrawPortalColliders {
		for _, p := range r.registry.Portals() {
			r.overlay.DrawBox(p.CollisionBox(), math3d.Identity(), r.ColliderColor)
		}
	}
}

// frustumEdges indexes NDC corners numbered with x in bit 0, y in bit 1 and
// z in bit 2.
var frustumEdges = [12][2]int{
	{0, 1}, {1, 3}, {3, 2}, {2, 0}, // near
	{4, 5}, {5, 7}, {7, 6}, {6, 4}, // far
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// drawPortalCameras outlines the view frustum of the virtual camera behind
// every active portal, as seen from cam.
func (r *Renderer) drawPortalCameras(cam Camera) {
	invProj, ok := cam.ProjectionMatrix().InverseChecked()
	if !ok {
		return
	}
	camWorld := cam.WorldMatrix()
	for _, p := range r.registry.Portals() {
		if !p.Active() {
			continue
		}
		// inverse(proj · inverse(world)) = world · inverse(proj)
		toWorld := p.ThroughTransform(camWorld).Mul(invProj)
		var corners [8]math3d.Vec3
		for i := range corners {
			ndc := math3d.V4(cornerSign(i&1), cornerSign(i&2), cornerSign(i&4), 1)
			corners[i] = toWorld.MulVec4(ndc).PerspectiveDivide()
		}
		for _, e := range frustumEdges {
			r.overlay.DrawLine3D(corners[e[0]], corners[e[1]], r.CameraColor)
		}
	}
}

func cornerSign(bit int) float64 {
	if bit != 0 {
		return 1
	}
	return -1
}

func (r *Renderer) renderLevel(s *scene.Scene, camWorld, view, proj math3d.Mat4, level int, skip *Portal, opts *Options) {
	defer r.backend.SetState(render.DefaultState())

	r.stats.Levels++
	r.stats.MaxLevel = max(r.stats.MaxLevel, level)
	portals := r.registry.Portals()

	r.backend.SetMatrices(view, proj)
	r.backend.SetState(passPrimeDepth.state(level))
	for _, p := range portals {
		if p != skip {
			r.drawSurface(p)
		}
	}

	r.backend.SetState(passScene.state(level))
	restore := r.hide(portals)
	s.Draw(r.backend)
	restore()

	if level >= opts.MaxPortalRecursion {
		return
	}

	frustum := render.NewFrustumFromMatrix(proj.Mul(view))
	for _, p := range portals {
		if p == skip || !p.Active() {
			continue
		}
		if opts.FrustumCullPortals && !frustum.IntersectAABB(p.Bounds()) {
			r.stats.PortalsCulled++
			continue
		}

		destWorld := p.ThroughTransform(camWorld)
		destView, ok := destWorld.InverseChecked()
		if !ok {
			slog.Warn("skipping portal with singular view", "portal", p.Name(), "level", level)
			continue
		}
		destProj := proj
		if opts.PortalObliqueViewFrustum {
			destProj = p.destination.AlignedProjection(destWorld, proj, opts.DestinationNearPlaneOffset, opts.DestinationObliqueCutoff)
		}
		r.stats.PortalsRendered++

		r.backend.SetState(passStamp.state(level))
		r.drawSurface(p)

		r.backend.SetState(passClearDepth.state(level))
		r.backend.DrawFullscreenQuad(1, s.Background)

		r.renderLevel(s, destWorld, destView, destProj, level+1, p.destination, opts)

		r.backend.SetMatrices(view, proj)
		r.backend.SetState(passUnstamp.state(level))
		r.drawSurface(p)
	}
}

func (r *Renderer) drawSurface(p *Portal) {
	n := p.surface
	r.backend.DrawMesh(n.Mesh, n.WorldMatrix(), n.Material)
}

// hide hides every portal surface for a scene draw and returns a function
// restoring their previous state.
func (r *Renderer) hide(portals []*Portal) func() {
	var hidden []*scene.Node
	for _, p := range portals {
		n := p.surface
		if n.Hidden {
			slog.Warn("portal surface already hidden", "portal", p.Name())
			continue
		}
		n.Hidden = true
		hidden = append(hidden, n)
	}
	return func() {
		for _, n := range hidden {
			n.Hidden = false
		}
	}
}
