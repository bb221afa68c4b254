package demo

import (
	"math"

	"github.com/taigrr/wormhole/pkg/math3d"
	"github.com/taigrr/wormhole/pkg/models"
	"github.com/taigrr/wormhole/pkg/portal"
	"github.com/taigrr/wormhole/pkg/render"
	"github.com/taigrr/wormhole/pkg/scene"
)

const (
	doorWidth  = 2.0
	doorHeight = 3.0
)

func init() {
	register(Setup{
		Name:        "basic",
		Description: "two linked doors in one room",
		Eye:         math3d.V3(0, 1.6, 8),
		Target:      math3d.V3(-4, 1.5, 0),
		Build:       buildBasic,
		Animate:     spin("spinner", math3d.V3(4, 0.75, 3)),
	})
	register(Setup{
		Name:        "recursive",
		Description: "two doors facing each other",
		Eye:         math3d.V3(0.5, 1.6, 2),
		Target:      math3d.V3(0, 1.5, -6),
		Build:       buildRecursive,
	})
	register(Setup{
		Name:        "dimensions",
		Description: "a small room opening into a large one",
		Eye:         math3d.V3(0, 1.6, 2.5),
		Target:      math3d.V3(0, 1.5, -2),
		Build:       buildDimensions,
	})
	register(Setup{
		Name:        "rotated",
		Description: "an exit door turned a quarter turn",
		Eye:         math3d.V3(-3, 1.6, 6),
		Target:      math3d.V3(-3, 1.5, 0),
		Build:       buildRotated,
	})
	register(Setup{
		Name:        "scale",
		Description: "an exit door twice the size of its entrance",
		Eye:         math3d.V3(-3, 1.6, 6),
		Target:      math3d.V3(-3, 1.5, 0),
		Build:       buildScale,
	})
}

func room(name string, size, at math3d.Vec3, tex *render.Texture) *scene.Node {
	n := scene.NewMeshNode(name, models.NewRoom(size.X, size.Y, size.Z), render.Material{Texture: tex})
	n.Transform = math3d.Translate(at.Add(math3d.V3(0, size.Y/2, 0)))
	return n
}

// door places a portal surface standing on the floor at "at", facing +Z
// turned by yaw, scaled uniformly by scale.
func door(name, destination string, at math3d.Vec3, yaw, scale float64) *scene.Node {
	n := scene.NewMeshNode(name, models.NewPlane(doorWidth, doorHeight), render.Material{})
	center := at.Add(math3d.V3(0, doorHeight*scale/2, 0))
	n.Transform = math3d.Compose(center, math3d.QuatFromAxisAngle(math3d.Up(), yaw), math3d.V3(scale, scale, scale))
	n.Extras = map[string]any{portal.ExtraDestination: destination}
	return n
}

func box(name string, size float64, at math3d.Vec3, c render.Color) *scene.Node {
	n := scene.NewMeshNode(name, models.NewBox(size, size, size), render.SolidMaterial(c))
	n.Transform = math3d.Translate(at.Add(math3d.V3(0, size/2, 0)))
	return n
}

func checker(a, b render.Color) *render.Texture {
	return render.NewCheckerTexture(8, 8, 1, a, b)
}

// spin turns the named node around Y in place.
func spin(name string, at math3d.Vec3) func(*scene.Scene, float64) {
	return func(s *scene.Scene, elapsed float64) {
		if n := s.Find(name); n != nil {
			n.Transform = math3d.Translate(at).Mul(math3d.RotateY(elapsed))
		}
	}
}

func buildBasic() (*scene.Scene, error) {
	s := scene.New()
	s.Add(
		room("room", math3d.V3(20, 6, 20), math3d.Zero3(), checker(render.RGB(170, 170, 180), render.RGB(110, 110, 120))),
		door("p_a", "p_b", math3d.V3(-4, 0, 0), 0, 1),
		door("p_b", "p_a", math3d.V3(4, 0, 0), 0, 1),
		box("spinner", 1.5, math3d.V3(4, 0, 3), render.RGB(200, 60, 60)),
		box("crate", 1, math3d.V3(-4, 0, -4), render.RGB(220, 200, 60)),
		box("marker", 0.5, math3d.V3(4, 0, -2), render.RGB(60, 120, 220)),
	)
	return s, nil
}

func buildRecursive() (*scene.Scene, error) {
	s := scene.New()
	s.Add(
		room("hall", math3d.V3(16, 6, 24), math3d.Zero3(), checker(render.RGB(160, 180, 160), render.RGB(90, 110, 90))),
		door("p_a", "p_b", math3d.V3(0, 0, -6), 0, 1),
		door("p_b", "p_a", math3d.V3(0, 0, 6), math.Pi, 1),
		box("crate", 0.8, math3d.V3(1.5, 0, 0), render.RGB(200, 120, 40)),
	)
	return s, nil
}

func buildDimensions() (*scene.Scene, error) {
	s := scene.New()
	far := math3d.V3(100, 0, 0)
	stripes := render.NewStripeTexture(16, 16, 2, render.RGB(80, 130, 200), render.RGB(40, 70, 140))
	s.Add(
		room("closet", math3d.V3(8, 4, 8), math3d.Zero3(), checker(render.RGB(200, 170, 130), render.RGB(150, 120, 90))),
		door("p_a", "p_b", math3d.V3(0, 0, -2), 0, 1),
		room("hangar", math3d.V3(30, 10, 30), far, stripes),
		door("p_b", "p_a", far, 0, 1),
		box("pillar", 2, far.Add(math3d.V3(-6, 0, -8)), render.RGB(230, 230, 230)),
		box("beacon", 1, far.Add(math3d.V3(5, 0, 5)), render.RGB(240, 80, 200)),
	)
	return s, nil
}

func buildRotated() (*scene.Scene, error) {
	s := scene.New()
	exit := door("p_b", "p_a", math3d.V3(3, 0, 0), math.Pi/2, 1)
	exit.Extras[portal.ExtraDoubleSided] = true
	s.Add(
		room("room", math3d.V3(20, 6, 20), math3d.Zero3(), checker(render.RGB(180, 170, 190), render.RGB(120, 110, 130))),
		door("p_a", "p_b", math3d.V3(-3, 0, 0), 0, 1),
		exit,
		box("east", 1, math3d.V3(6, 0, 0), render.RGB(220, 60, 60)),
		box("north", 1, math3d.V3(3, 0, -4), render.RGB(60, 200, 60)),
	)
	return s, nil
}

func buildScale() (*scene.Scene, error) {
	s := scene.New()
	s.Add(
		room("room", math3d.V3(24, 8, 20), math3d.Zero3(), checker(render.RGB(170, 180, 190), render.RGB(110, 120, 130))),
		door("p_a", "p_b", math3d.V3(-3, 0, 0), 0, 1),
		door("p_b", "p_a", math3d.V3(5, 0, 0), 0, 2),
		box("small", 0.5, math3d.V3(-3, 0, -3), render.RGB(60, 200, 200)),
		box("big", 2, math3d.V3(5, 0, 4), render.RGB(200, 200, 60)),
	)
	return s, nil
}
