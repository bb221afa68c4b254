package render

import (
	"log/slog"
	"math"

	"github.com/taigrr/wormhole/pkg/math3d"
)

// maxPitch keeps the camera away from straight up and down, where yaw
// around world Y degenerates.
const maxPitch = math.Pi/2 - 0.01

// Camera is a perspective camera whose world matrix is authoritative.
// Portal traversal replaces the whole matrix, so orientation is never kept
// as separate Euler angles.
type Camera struct {
	world math3d.Mat4

	// Projection parameters
	FOV         float64 // Vertical field of view in radians
	AspectRatio float64 // Width / Height
	Near        float64 // Near clipping plane
	Far         float64 // Far clipping plane

	// Cached matrices (computed on demand)
	viewMatrix     math3d.Mat4
	projMatrix     math3d.Mat4
	viewProjMatrix math3d.Mat4
	viewDirty      bool
	projDirty      bool
	viewProjDirty  bool
}

// NewCamera creates a camera at the origin looking down -Z.
func NewCamera() *Camera {
	return &Camera{
		world:         math3d.Identity(),
		FOV:           math.Pi / 3, // 60 degrees
		AspectRatio:   16.0 / 9.0,
		Near:          0.1,
		Far:           1000,
		viewDirty:     true,
		projDirty:     true,
		viewProjDirty: true,
	}
}

func (c *Camera) invalidateView() {
	c.viewDirty = true
	c.viewProjDirty = true
}

func (c *Camera) invalidateProj() {
	c.projDirty = true
	c.viewProjDirty = true
}

// WorldMatrix returns the camera's world transform.
func (c *Camera) WorldMatrix() math3d.Mat4 {
	return c.world
}

// SetWorldMatrix replaces the camera's world transform. A singular matrix
// has no view matrix; it is logged and the current pose is kept.
func (c *Camera) SetWorldMatrix(m math3d.Mat4) {
	view, ok := m.InverseChecked()
	if !ok {
		slog.Warn("ignoring singular camera world matrix", "matrix", m)
		return
	}
	c.world = m
	c.viewMatrix = view
	c.viewDirty = false
	c.viewProjDirty = true
}

// Position returns the camera position in world space.
func (c *Camera) Position() math3d.Vec3 {
	return c.world.Translation()
}

// SetPosition moves the camera without changing its orientation.
func (c *Camera) SetPosition(pos math3d.Vec3) {
	c.world.SetTranslation(pos)
	c.invalidateView()
}

// SetFOV sets the field of view (in radians).
func (c *Camera) SetFOV(fov float64) {
	c.FOV = fov
	c.invalidateProj()
}

// SetAspectRatio sets the aspect ratio.
func (c *Camera) SetAspectRatio(aspect float64) {
	c.AspectRatio = aspect
	c.invalidateProj()
}

// SetClipPlanes sets the near and far clipping planes.
func (c *Camera) SetClipPlanes(near, far float64) {
	c.Near = near
	c.Far = far
	c.invalidateProj()
}

// Forward returns the unit view direction (-Z of the world matrix).
func (c *Camera) Forward() math3d.Vec3 {
	return c.world.Axis(2).Negate().Normalize()
}

// Right returns the unit right direction.
func (c *Camera) Right() math3d.Vec3 {
	return c.world.Axis(0).Normalize()
}

// Up returns the unit up direction.
func (c *Camera) Up() math3d.Vec3 {
	return c.world.Axis(1).Normalize()
}

// Pitch returns the elevation of the view direction in radians.
func (c *Camera) Pitch() float64 {
	return math.Asin(math.Max(-1, math.Min(1, c.Forward().Y)))
}

// ViewMatrix returns the inverse of the world matrix.
func (c *Camera) ViewMatrix() math3d.Mat4 {
	if c.viewDirty {
		c.viewMatrix = c.world.Inverse()
		c.viewDirty = false
	}
	return c.viewMatrix
}

// ProjectionMatrix returns the projection matrix.
func (c *Camera) ProjectionMatrix() math3d.Mat4 {
	if c.projDirty {
		c.projMatrix = math3d.Perspective(c.FOV, c.AspectRatio, c.Near, c.Far)
		c.projDirty = false
	}
	return c.projMatrix
}

// ViewProjectionMatrix returns the combined view-projection matrix.
func (c *Camera) ViewProjectionMatrix() math3d.Mat4 {
	if c.viewProjDirty {
		c.viewProjMatrix = c.ProjectionMatrix().Mul(c.ViewMatrix())
		c.viewProjDirty = false
	}
	return c.viewProjMatrix
}

// MoveForward moves the camera forward (or backward if negative).
func (c *Camera) MoveForward(distance float64) {
	c.SetPosition(c.Position().Add(c.Forward().Scale(distance)))
}

// MoveRight moves the camera right (or left if negative).
func (c *Camera) MoveRight(distance float64) {
	c.SetPosition(c.Position().Add(c.Right().Scale(distance)))
}

// MoveUp moves the camera along world up (or down if negative).
func (c *Camera) MoveUp(distance float64) {
	c.SetPosition(c.Position().Add(math3d.Up().Scale(distance)))
}

// Rotate turns the camera by deltaYaw around world Y and deltaPitch around
// its own X axis. Pitch is clamped short of vertical.
func (c *Camera) Rotate(deltaYaw, deltaPitch float64) {
	pos := c.Position()
	rot := c.world
	rot.SetTranslation(math3d.Zero3())

	if deltaYaw != 0 {
		rot = math3d.RotateY(deltaYaw).Mul(rot)
	}
	if deltaPitch != 0 {
		current := c.Pitch()
		target := math.Max(-maxPitch, math.Min(maxPitch, current+deltaPitch))
		rot = rot.Mul(math3d.RotateX(target - current))
	}

	rot.SetTranslation(pos)
	c.SetWorldMatrix(rot)
}

// LookAt orients the camera towards target, keeping world Y up.
func (c *Camera) LookAt(target math3d.Vec3) {
	pos := c.Position()
	dir := target.Sub(pos)
	if dir.LenSq() == 0 {
		return
	}
	up := math3d.Up()
	if math.Abs(dir.Normalize().Dot(up)) > 0.999 {
		up = math3d.V3(0, 0, -1)
	}
	c.SetWorldMatrix(math3d.LookAt(pos, target, up).Inverse())
}

// WorldToScreen transforms a world point to screen coordinates.
// Returns (screenX, screenY, depth, visible).
func (c *Camera) WorldToScreen(worldPos math3d.Vec3, screenWidth, screenHeight int) (x, y, depth float64, visible bool) {
	clipPos := c.ViewProjectionMatrix().MulVec4(math3d.V4FromV3(worldPos, 1))

	// Behind the camera
	if clipPos.W <= 0 {
		return 0, 0, 0, false
	}

	ndc := clipPos.PerspectiveDivide()
	if ndc.X < -1 || ndc.X > 1 || ndc.Y < -1 || ndc.Y > 1 || ndc.Z < -1 || ndc.Z > 1 {
		return 0, 0, 0, false
	}

	x = (ndc.X + 1) * 0.5 * float64(screenWidth)
	y = (1 - ndc.Y) * 0.5 * float64(screenHeight) // Y is flipped
	return x, y, ndc.Z, true
}
