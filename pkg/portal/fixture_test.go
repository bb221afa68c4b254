package portal

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/taigrr/wormhole/pkg/math3d"
	"github.com/taigrr/wormhole/pkg/models"
	"github.com/taigrr/wormhole/pkg/render"
	"github.com/taigrr/wormhole/pkg/scene"
)

const (
	testWidth  = 64
	testHeight = 48
)

func surfaceNode(name string, pos math3d.Vec3, yaw float64) *scene.Node {
	n := scene.NewMeshNode(name, models.NewPlane(2, 3), render.Material{})
	n.Transform = math3d.Translate(pos).Mul(math3d.RotateY(yaw))
	return n
}

func boxNode(name string, pos math3d.Vec3, size float64, c render.Color) *scene.Node {
	n := scene.NewMeshNode(name, models.NewBox(size, size, size), render.SolidMaterial(c))
	n.Transform = math3d.Translate(pos)
	return n
}

// world is a room holding portal A at the origin facing +Z and portal B ten
// units to the right with the same orientation. A green box sits in front
// of B and a blue one just behind it.
type world struct {
	scene *scene.Scene
	reg   *Registry
	a, b  *Portal
	cam   *render.Camera
}

func newWorld(t *testing.T, opts Options) *world {
	t.Helper()

	s := scene.New()
	room := scene.NewMeshNode("room", models.NewRoom(40, 6, 40), render.SolidMaterial(render.RGB(180, 180, 180)))
	room.Transform = math3d.Translate(math3d.V3(0, 3, 0))
	surfA := surfaceNode("p_a", math3d.V3(0, 1.5, 0), 0)
	surfB := surfaceNode("p_b", math3d.V3(10, 1.5, 0), 0)
	s.Add(room, surfA, surfB,
		boxNode("green", math3d.V3(10, 1.5, 3), 1, render.RGB(0, 200, 0)),
		boxNode("blue", math3d.V3(10, 1.5, -1), 0.5, render.RGB(0, 0, 200)),
	)
	s.Update()

	a, err := New(surfA, WithDoubleSided(opts.DoubleSidedPortals))
	require.NoError(t, err)
	b, err := New(surfB, WithDoubleSided(opts.DoubleSidedPortals))
	require.NoError(t, err)

	reg := NewRegistry(opts)
	reg.Add(a, b)
	require.NoError(t, reg.LinkPair(a.ID(), b.ID()))
	require.NoError(t, reg.Update())

	cam := render.NewCamera()
	cam.SetAspectRatio(float64(testWidth) / testHeight)
	cam.SetClipPlanes(0.05, 100)
	cam.SetPosition(math3d.V3(0, 1.5, 4))

	return &world{scene: s, reg: reg, a: a, b: b, cam: cam}
}

func newRasterizer() *render.Rasterizer {
	return render.NewRasterizer(render.NewFramebuffer(testWidth, testHeight))
}

func (w *world) render(t *testing.T, r *render.Rasterizer) *Renderer {
	t.Helper()
	pr, err := NewRenderer(r, w.reg)
	require.NoError(t, err)
	pr.Render(w.scene, w.cam)
	return pr
}

func requireStencilCleared(t *testing.T, r *render.Rasterizer) {
	t.Helper()
	for y := range r.Height() {
		for x := range r.Width() {
			if v := r.StencilAt(x, y); v != 0 {
				t.Fatalf("stencil at (%d, %d) = %d, want 0", x, y, v)
			}
		}
	}
}

func planeMesh(w, h float64) *models.Mesh {
	return models.NewPlane(w, h)
}
