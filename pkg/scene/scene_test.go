package scene

import (
	"testing"

	"github.com/taigrr/wormhole/pkg/math3d"
	"github.com/taigrr/wormhole/pkg/models"
	"github.com/taigrr/wormhole/pkg/render"
)

type drawCall struct {
	mesh  render.MeshRenderer
	world math3d.Mat4
}

type recordingDrawer struct {
	calls []drawCall
}

func (d *recordingDrawer) DrawMesh(mesh render.MeshRenderer, world math3d.Mat4, _ render.Material) {
	d.calls = append(d.calls, drawCall{mesh, world})
}

func TestWorldMatrices(t *testing.T) {
	s := New()
	parent := NewNode("parent")
	parent.Transform = math3d.Translate(math3d.V3(1, 0, 0))
	child := NewNode("child")
	child.Transform = math3d.Translate(math3d.V3(0, 2, 0))
	parent.Add(child)
	s.Add(parent)
	s.Update()

	got := child.WorldMatrix().Translation()
	if !got.ApproxEqual(math3d.V3(1, 2, 0), 1e-12) {
		t.Errorf("child world position = %v, want (1, 2, 0)", got)
	}
	if child.Parent() != parent {
		t.Error("child.Parent() is not parent")
	}
}

func TestAddReparents(t *testing.T) {
	a, b, c := NewNode("a"), NewNode("b"), NewNode("c")
	a.Add(c)
	b.Add(c)

	if len(a.Children()) != 0 {
		t.Errorf("a still has %d children", len(a.Children()))
	}
	if c.Parent() != b {
		t.Error("c was not moved to b")
	}

	a.Add(a, nil)
	if len(a.Children()) != 0 {
		t.Error("a node must not become its own child")
	}
	if b.Remove(a) {
		t.Error("Remove reported a non-child as removed")
	}
}

func TestSetTRS(t *testing.T) {
	n := NewNode("n")
	n.SetTRS(math3d.V3(1, 2, 3), math3d.QuatFromAxisAngle(math3d.Up(), 0), math3d.V3(2, 2, 2))
	n.UpdateWorld()

	got := n.WorldMatrix().MulVec3(math3d.V3(1, 0, 0))
	if !got.ApproxEqual(math3d.V3(3, 2, 3), 1e-12) {
		t.Errorf("transformed point = %v, want (3, 2, 3)", got)
	}
}

func TestFind(t *testing.T) {
	s := New()
	group := NewNode("group")
	target := NewNode("target")
	group.Add(target)
	s.Add(NewNode("other"), group)

	if got := s.Find("target"); got != target {
		t.Errorf("Find(target) = %v", got)
	}
	if got := s.Find("missing"); got != nil {
		t.Errorf("Find(missing) = %v, want nil", got)
	}
}

func TestDrawSkipsHiddenSubtrees(t *testing.T) {
	s := New()
	visible := NewMeshNode("visible", models.NewPlane(1, 1), render.Material{})
	hidden := NewMeshNode("hidden", models.NewPlane(1, 1), render.Material{})
	hidden.Hidden = true
	hidden.Add(NewMeshNode("hidden-child", models.NewPlane(1, 1), render.Material{}))
	s.Add(visible, hidden, NewNode("empty"))
	s.Update()

	var d recordingDrawer
	s.Draw(&d)

	if len(d.calls) != 1 {
		t.Fatalf("got %d draw calls, want 1", len(d.calls))
	}
	if d.calls[0].mesh != visible.Mesh {
		t.Error("drew the wrong mesh")
	}
}

func TestNodeBounds(t *testing.T) {
	n := NewMeshNode("plane", models.NewPlane(2, 2), render.Material{})
	n.Transform = math3d.Translate(math3d.V3(0, 0, -5))
	n.UpdateWorld()

	b, ok := n.Bounds()
	if !ok {
		t.Fatal("plane mesh has no bounds")
	}
	if !b.ContainsPoint(math3d.V3(0.5, -0.5, -5)) || b.ContainsPoint(math3d.V3(0, 0, 0)) {
		t.Errorf("unexpected bounds %+v", b)
	}

	if _, ok := NewNode("empty").Bounds(); ok {
		t.Error("node without mesh reported bounds")
	}
}
