package demo

import (
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/taigrr/wormhole/pkg/config"
	"github.com/taigrr/wormhole/pkg/math3d"
	"github.com/taigrr/wormhole/pkg/portal"
	"github.com/taigrr/wormhole/pkg/render"
	"github.com/taigrr/wormhole/pkg/scene"
)

// Manager owns a loaded scene and everything that acts on it each frame.
type Manager struct {
	Setup     Setup
	Scene     *scene.Scene
	Camera    *render.Camera
	Registry  *portal.Registry
	Renderer  *portal.Renderer
	Traveller *portal.Traveller
	Controls  *Controls

	// Teleporting enables the traveller. With it off the camera walks
	// through portals as if they were not there.
	Teleporting bool
	Teleports   int

	raster  *render.Rasterizer
	elapsed float64
}

// NewManager builds setup's scene, finds its portals and prepares a portal
// renderer drawing into r.
func NewManager(r *render.Rasterizer, cfg config.Config, setup Setup) (*Manager, error) {
	s, err := setup.Build()
	if err != nil {
		return nil, fmt.Errorf("build scene %q: %w", setup.Name, err)
	}
	s.Update()

	reg := portal.NewRegistry(cfg.Portal)
	found, err := portal.Discover(s, reg)
	if err != nil {
		slog.Warn("some portals were skipped", "scene", setup.Name, "err", err)
	}
	if err := reg.Update(); err != nil {
		return nil, fmt.Errorf("scene %q: %w", setup.Name, err)
	}

	renderer, err := portal.NewRenderer(r, reg)
	if err != nil {
		return nil, err
	}

	cam := render.NewCamera()
	cam.SetFOV(cfg.Scene.FOV * math.Pi / 180)
	cam.SetClipPlanes(cfg.Scene.CameraNear, cfg.Scene.CameraFar)
	m := &Manager{
		Setup:       setup,
		Scene:       s,
		Camera:      cam,
		Registry:    reg,
		Renderer:    renderer,
		Traveller:   portal.NewTraveller(cam),
		Controls:    NewControls(cfg.Window.FPS, cfg.Scene.MoveSpeed, cfg.Scene.TurnSpeed),
		Teleporting: cfg.Scene.Teleporting,
		raster:      r,
	}
	m.Resize(r.Width(), r.Height())
	m.Traveller.OnTeleport = func(from, to *portal.Portal) {
		m.Teleports++
	}
	m.Reset()

	slog.Info("scene loaded", "scene", setup.Name, "portals", len(found))
	return m, nil
}

// Reset puts the camera back at the scene's start and forgets traveller
// history.
func (m *Manager) Reset() {
	m.Camera.SetWorldMatrix(math3d.Identity())
	m.Camera.SetPosition(m.Setup.Eye)
	if m.Setup.Target != m.Setup.Eye {
		m.Camera.LookAt(m.Setup.Target)
	}
	m.Controls.Reset()
	m.Traveller.Clear()
}

// Resize matches the camera to a new framebuffer size.
func (m *Manager) Resize(width, height int) {
	if width > 0 && height > 0 {
		m.Camera.SetAspectRatio(float64(width) / float64(height))
	}
}

// Update advances the scene by dt seconds: animation, portal transforms,
// camera movement and finally teleports.
func (m *Manager) Update(dt float64, in Input) {
	m.elapsed += dt
	if m.Setup.Animate != nil {
		m.Setup.Animate(m.Scene, m.elapsed)
	}
	m.Scene.Update()
	if err := m.Registry.Update(); err != nil {
		slog.Error("portal update failed", "err", err)
	}

	m.Controls.Update(m.Camera, in, dt)

	if m.Teleporting {
		m.Traveller.Update(m.Registry.Portals())
	}
}

// Render draws the current frame.
func (m *Manager) Render() {
	m.raster.ResetStats()
	m.Renderer.Render(m.Scene, m.Camera)
}

// RasterStats returns the rasterizer's work for the last frame.
func (m *Manager) RasterStats() render.Stats {
	return m.raster.Stats()
}

// Stats returns the last frame's portal statistics.
func (m *Manager) Stats() portal.FrameStats {
	return m.Renderer.Stats()
}

// Set changes one renderer option.
func (m *Manager) Set(name string, value any) error {
	_, err := m.Registry.ApplyConfiguration(portal.Change{Name: name, Value: value})
	return err
}

// Toggle flips a boolean renderer option and returns its new value.
func (m *Manager) Toggle(name string) (bool, error) {
	cur, ok := boolOption(m.Registry.Options(), name)
	if !ok {
		return false, fmt.Errorf("%w: %s is not a boolean option", portal.ErrInvalidOption, name)
	}
	if err := m.Set(name, !cur); err != nil {
		return cur, err
	}
	return !cur, nil
}

// AdjustRecursion changes the recursion limit by delta, staying in range.
func (m *Manager) AdjustRecursion(delta int) int {
	n := max(0, m.Registry.Options().MaxPortalRecursion+delta)
	if err := m.Set(portal.OptMaxPortalRecursion, n); err != nil {
		return m.Registry.Options().MaxPortalRecursion
	}
	return n
}

func boolOption(o portal.Options, name string) (bool, bool) {
	switch name {
	case portal.OptRenderPortals:
		return o.RenderPortals, true
	case portal.OptPortalObliqueViewFrustum:
		return o.PortalObliqueViewFrustum, true
	case portal.OptFrustumCullPortals:
		return o.FrustumCullPortals, true
	case portal.OptDoubleSidedPortals:
		return o.DoubleSidedPortals, true
	case portal.OptDrawPortalColliders:
		return o.DrawPortalColliders, true
	case portal.OptDrawPortalCameras:
		return o.DrawPortalCameras, true
	}
	return false, false
}

// Next returns the built-in scene after name, wrapping around. Unknown
// names give the first scene.
func Next(name string) string {
	names := Names()
	if i := slices.Index(names, name); i >= 0 {
		return names[(i+1)%len(names)]
	}
	return names[0]
}

// Switch loads setup into a new Manager drawing into r. The current
// renderer options and teleport setting carry over.
func (m *Manager) Switch(r *render.Rasterizer, cfg config.Config, setup Setup) (*Manager, error) {
	cfg.Portal = m.Registry.Options()
	next, err := NewManager(r, cfg, setup)
	if err != nil {
		return nil, err
	}
	next.Teleporting = m.Teleporting
	return next, nil
}
