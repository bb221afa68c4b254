package portal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taigrr/wormhole/pkg/math3d"
	"github.com/taigrr/wormhole/pkg/render"
	"github.com/taigrr/wormhole/pkg/scene"
)

// pair returns two 1x1 portals linked to each other: A at the origin and
// B at offset, both facing +Z.
func pair(t *testing.T, offset math3d.Vec3, doubleSided bool) (*Registry, *Portal, *Portal) {
	t.Helper()
	s := scene.New()
	na := scene.NewMeshNode("a", planeMesh(1, 1), render.Material{})
	nb := scene.NewMeshNode("b", planeMesh(1, 1), render.Material{})
	nb.Transform = math3d.Translate(offset)
	s.Add(na, nb)
	s.Update()

	a, err := New(na, WithDoubleSided(doubleSided))
	require.NoError(t, err)
	b, err := New(nb, WithDoubleSided(doubleSided))
	require.NoError(t, err)

	reg := NewRegistry(Defaults())
	reg.Add(a, b)
	require.NoError(t, reg.LinkPair(a.ID(), b.ID()))
	return reg, a, b
}

func walk(tr *Traveller, cam *render.Camera, portals []*Portal, path ...math3d.Vec3) int {
	n := 0
	for _, p := range path {
		cam.SetPosition(p)
		n += tr.Update(portals)
	}
	return n
}

func TestTravellerHysteresis(t *testing.T) {
	tests := []struct {
		name string
		path []math3d.Vec3
		want int
	}{
		{
			name: "front inside volume",
			path: []math3d.Vec3{{X: 0.1, Z: 0.5}, {X: 0.1, Z: 0.1}, {X: 0.1, Z: -0.1}},
			want: 1,
		},
		{
			name: "back inside volume",
			path: []math3d.Vec3{{X: 0.1, Z: -0.5}, {X: 0.1, Z: -0.1}, {X: 0.1, Z: 0.1}},
			want: 0,
		},
		{
			name: "back outside volume",
			path: []math3d.Vec3{{X: 3, Z: -0.5}, {X: 3, Z: 0.5}},
			want: 0,
		},
		{
			name: "front outside volume",
			path: []math3d.Vec3{{X: 3, Z: 0.5}, {X: 3, Z: -0.5}},
			want: 0,
		},
		{
			name: "leaving volume while crossing",
			path: []math3d.Vec3{{X: 0.4, Z: 0.5}, {X: 0.6, Z: -0.5}},
			want: 1,
		},
		{
			name: "single observation",
			path: []math3d.Vec3{{X: 0.1, Z: -0.1}},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, _, _ := pair(t, math3d.V3(10, 0, 0), false)
			cam := render.NewCamera()
			tr := NewTraveller(cam)
			assert.Equal(t, tt.want, walk(tr, cam, reg.Portals(), tt.path...))
		})
	}
}

func TestTravellerTeleportsOnceAndKeepsGoing(t *testing.T) {
	reg, _, b := pair(t, math3d.V3(10, 0, 0), false)
	cam := render.NewCamera()
	tr := NewTraveller(cam)

	var from, to *Portal
	tr.OnTeleport = func(f, d *Portal) { from, to = f, d }

	cam.SetPosition(math3d.V3(0.1, 0, 0.5))
	total := tr.Update(reg.Portals())
	for range 10 {
		cam.MoveForward(0.2)
		total += tr.Update(reg.Portals())
	}

	assert.Equal(t, 1, total)
	assert.Equal(t, b, to)
	assert.NotNil(t, from)
	// Out of B's front, facing away from it.
	assert.Greater(t, cam.Position().Z, 1.0)
	assert.InDelta(t, 9.9, cam.Position().X, 1e-9)
}

func TestTravellerIgnoresInactivePortals(t *testing.T) {
	reg, a, _ := pair(t, math3d.V3(10, 0, 0), true)
	reg.Unlink(a.ID())

	cam := render.NewCamera()
	tr := NewTraveller(cam)
	n := walk(tr, cam, []*Portal{a}, math3d.V3(0, 0, 0.5), math3d.V3(0, 0, -0.5), math3d.V3(0, 0, 0.5))
	assert.Zero(t, n)
	assert.Equal(t, math3d.V3(0, 0, 0.5), cam.Position())
}

func TestTravellerClear(t *testing.T) {
	reg, _, _ := pair(t, math3d.V3(10, 0, 0), false)
	cam := render.NewCamera()
	tr := NewTraveller(cam)

	walk(tr, cam, reg.Portals(), math3d.V3(0, 0, 0.5))
	tr.Clear()
	// Without the previous observation the crossing is not seen.
	assert.Zero(t, walk(tr, cam, reg.Portals(), math3d.V3(0, 0, -0.5)))
}

func TestTravellerThereAndBack(t *testing.T) {
	reg, a, b := pair(t, math3d.V3(2, 0, 0), true)
	portals := reg.Portals()

	cam := render.NewCamera()
	cam.SetPosition(math3d.V3(0.1, 0.2, 1))
	tr := NewTraveller(cam)
	require.Zero(t, tr.Update(portals))

	step := func() (math3d.Vec3, int) {
		cam.MoveForward(0.3)
		before := cam.Position()
		return before, tr.Update(portals)
	}

	// Through A: three steps stay in front, the fourth crosses.
	var before math3d.Vec3
	teleports := 0
	for teleports == 0 {
		var n int
		before, n = step()
		teleports += n
		require.Less(t, before.Z, 1.0)
		require.Greater(t, before.Z, -1.0, "missed the crossing")
	}
	offset := before.Sub(a.Position())
	want := b.Position().Add(math3d.V3(-offset.X, offset.Y, -offset.Z))
	assert.True(t, cam.Position().ApproxEqual(want, 1e-9), "got %v want %v", cam.Position(), want)

	// Turn around and walk back through B.
	cam.Rotate(math.Pi, 0)
	teleports = 0
	for teleports == 0 {
		var n int
		before, n = step()
		teleports += n
		require.Greater(t, before.Z, -1.0, "missed the crossing")
	}
	offset = before.Sub(b.Position())
	want = a.Position().Add(math3d.V3(-offset.X, offset.Y, -offset.Z))
	assert.True(t, cam.Position().ApproxEqual(want, 1e-9), "got %v want %v", cam.Position(), want)
	assert.InDelta(t, 0.1, cam.Position().X, 1e-9)
	assert.Greater(t, cam.Position().Z, 0.0, "back in front of A")
}
