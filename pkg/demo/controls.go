package demo

import (
	"github.com/charmbracelet/harmonica"
	"github.com/taigrr/wormhole/pkg/math3d"
	"github.com/taigrr/wormhole/pkg/render"
)

// Input is the set of movement keys held during a frame.
type Input struct {
	Forward, Back       bool
	Left, Right         bool
	Up, Down            bool
	TurnLeft, TurnRight bool
	LookUp, LookDown    bool
}

func axisOf(pos, neg bool) float64 {
	switch {
	case pos && !neg:
		return 1
	case neg && !pos:
		return -1
	}
	return 0
}

// axis eases a velocity towards its target with a critically damped spring.
type axis struct {
	Velocity float64
	accel    float64 // spring velocity of Velocity itself
	spring   harmonica.Spring
}

func newAxis(fps int) axis {
	return axis{spring: harmonica.NewSpring(harmonica.FPS(fps), 8.0, 1.0)}
}

func (a *axis) update(target float64) {
	a.Velocity, a.accel = a.spring.Update(a.Velocity, a.accel, target)
}

// Controls is a walking camera: movement stays level regardless of pitch.
type Controls struct {
	MoveSpeed float64 // units per second
	TurnSpeed float64 // radians per second

	fps                   int
	forward, strafe, lift axis
	yaw, pitch            axis
}

// NewControls creates controls whose springs step at fps.
func NewControls(fps int, moveSpeed, turnSpeed float64) *Controls {
	c := &Controls{MoveSpeed: moveSpeed, TurnSpeed: turnSpeed, fps: fps}
	c.Reset()
	return c
}

// Reset stops all motion.
func (c *Controls) Reset() {
	c.forward = newAxis(c.fps)
	c.strafe = newAxis(c.fps)
	c.lift = newAxis(c.fps)
	c.yaw = newAxis(c.fps)
	c.pitch = newAxis(c.fps)
}

// Moving reports whether any axis still has speed.
func (c *Controls) Moving() bool {
	const eps = 1e-4
	for _, a := range []*axis{&c.forward, &c.strafe, &c.lift, &c.yaw, &c.pitch} {
		if a.Velocity > eps || a.Velocity < -eps {
			return true
		}
	}
	return false
}

// Update steps the springs towards the held input and moves cam by dt
// seconds of the resulting velocity.
func (c *Controls) Update(cam *render.Camera, in Input, dt float64) {
	c.forward.update(axisOf(in.Forward, in.Back) * c.MoveSpeed)
	c.strafe.update(axisOf(in.Right, in.Left) * c.MoveSpeed)
	c.lift.update(axisOf(in.Up, in.Down) * c.MoveSpeed)
	c.yaw.update(axisOf(in.TurnLeft, in.TurnRight) * c.TurnSpeed)
	c.pitch.update(axisOf(in.LookUp, in.LookDown) * c.TurnSpeed)

	if !c.Moving() {
		return
	}

	forward := level(cam.Forward(), math3d.V3(0, 0, -1))
	right := level(cam.Right(), math3d.V3(1, 0, 0))
	step := forward.Scale(c.forward.Velocity).
		Add(right.Scale(c.strafe.Velocity)).
		Add(math3d.Up().Scale(c.lift.Velocity)).
		Scale(dt)
	cam.SetPosition(cam.Position().Add(step))
	cam.Rotate(c.yaw.Velocity*dt, c.pitch.Velocity*dt)
}

// level projects v onto the ground plane, falling back when v is vertical.
func level(v, fallback math3d.Vec3) math3d.Vec3 {
	v.Y = 0
	if v.LenSq() < 1e-12 {
		return fallback
	}
	return v.Normalize()
}
