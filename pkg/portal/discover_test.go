package portal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taigrr/wormhole/pkg/math3d"
	"github.com/taigrr/wormhole/pkg/models"
	"github.com/taigrr/wormhole/pkg/render"
	"github.com/taigrr/wormhole/pkg/scene"
)

func TestDiscover(t *testing.T) {
	s := scene.New()

	a := surfaceNode("p_a", math3d.V3(0, 1.5, 0), 0)
	a.Extras = map[string]any{ExtraDestination: "p_b"}
	b := surfaceNode("p_b", math3d.V3(6, 1.5, 0), 0)
	b.Extras = map[string]any{ExtraDestination: "p_a", ExtraDoubleSided: true}
	lonely := surfaceNode("p_lonely", math3d.V3(-6, 1.5, 0), 0)
	lonely.Extras = map[string]any{ExtraDestination: "p_nowhere"}
	bad := scene.NewMeshNode("p_bad", models.NewBox(1, 1, 1), render.Material{})
	group := scene.NewNode("doors")
	group.Add(a, b)
	s.Add(group, lonely, bad, surfaceNode("window", math3d.V3(0, 4, 0), 0))
	s.Update()

	reg := NewRegistry(Defaults())
	found, err := Discover(s, reg)
	assert.ErrorIs(t, err, ErrNotPlane)
	require.Len(t, found, 3)
	assert.Equal(t, 3, reg.Len())

	pa, pb, pl := reg.Find("p_a"), reg.Find("p_b"), reg.Find("p_lonely")
	require.NotNil(t, pa)
	require.NotNil(t, pb)
	require.NotNil(t, pl)

	assert.Same(t, pb, pa.Destination())
	assert.Same(t, pa, pb.Destination())
	assert.True(t, pa.Active())
	assert.False(t, pl.Active(), "missing destination leaves the portal inactive")

	assert.False(t, pa.DoubleSided())
	assert.True(t, pb.DoubleSided())
	assert.Nil(t, reg.Find("window"))
}

func TestDiscoverDefaultSidedness(t *testing.T) {
	s := scene.New()
	n := surfaceNode("p_x", math3d.Vec3{}, 0)
	n.Extras = map[string]any{ExtraDoubleSided: "yes"}
	s.Add(n)
	s.Update()

	opts := Defaults()
	opts.DoubleSidedPortals = true
	found, err := Discover(s, NewRegistry(opts))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.True(t, found[0].DoubleSided(), "bad extra falls back to the default")
}
