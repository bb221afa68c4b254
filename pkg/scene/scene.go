// Package scene is a small transform hierarchy of meshes: the world the
// portal engine renders and walks through.
package scene

import (
	"github.com/taigrr/wormhole/pkg/math3d"
	"github.com/taigrr/wormhole/pkg/render"
)

// Node is one element of the hierarchy. World matrices are cached and
// refreshed by UpdateWorld.
type Node struct {
	Name      string
	Transform math3d.Mat4 // local, relative to the parent
	Mesh      render.MeshRenderer
	Material  render.Material
	Hidden    bool // hides the node and its subtree
	Extras    map[string]any

	parent   *Node
	children []*Node
	world    math3d.Mat4
}

// NewNode creates a node with an identity transform.
func NewNode(name string) *Node {
	return &Node{
		Name:      name,
		Transform: math3d.Identity(),
		world:     math3d.Identity(),
	}
}

// NewMeshNode creates a node drawing mesh with mat.
func NewMeshNode(name string, mesh render.MeshRenderer, mat render.Material) *Node {
	n := NewNode(name)
	n.Mesh = mesh
	n.Material = mat
	return n
}

// Add attaches children to n, detaching them from any previous parent.
func (n *Node) Add(children ...*Node) {
	for _, c := range children {
		if c == nil || c == n {
			continue
		}
		if c.parent != nil {
			c.parent.Remove(c)
		}
		c.parent = n
		n.children = append(n.children, c)
	}
}

// Remove detaches child from n and reports whether it was a child.
func (n *Node) Remove(child *Node) bool {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return true
		}
	}
	return false
}

// Parent returns the parent node, or nil for a root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the direct children. The slice must not be modified.
func (n *Node) Children() []*Node { return n.children }

// WorldMatrix returns the world transform computed by the last UpdateWorld.
func (n *Node) WorldMatrix() math3d.Mat4 { return n.world }

// SetTRS sets the local transform from translation, rotation and scale.
func (n *Node) SetTRS(t math3d.Vec3, r math3d.Quat, s math3d.Vec3) {
	n.Transform = math3d.Compose(t, r, s)
}

// UpdateWorld recomputes the world matrices of n and its subtree.
func (n *Node) UpdateWorld() {
	if n.parent != nil {
		n.world = n.parent.world.Mul(n.Transform)
	} else {
		n.world = n.Transform
	}
	for _, c := range n.children {
		c.UpdateWorld()
	}
}

// Walk visits n and its subtree depth-first. Returning false from fn skips
// the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// Bounds returns the world-space bounding box of the node's own mesh.
func (n *Node) Bounds() (render.AABB, bool) {
	bounded, ok := n.Mesh.(render.BoundedMeshRenderer)
	if !ok {
		return render.AABB{}, false
	}
	lo, hi := bounded.GetBounds()
	return render.NewAABB(lo, hi).Transform(n.world), true
}

// Drawer receives the visible meshes of a scene.
type Drawer interface {
	DrawMesh(mesh render.MeshRenderer, world math3d.Mat4, mat render.Material)
}

// Scene is a root node plus the color the frame is cleared to.
type Scene struct {
	Root       *Node
	Background render.Color
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{
		Root:       NewNode("root"),
		Background: render.RGB(30, 30, 40),
	}
}

// Add attaches nodes to the scene root.
func (s *Scene) Add(nodes ...*Node) {
	s.Root.Add(nodes...)
}

// Update refreshes every world matrix.
func (s *Scene) Update() {
	s.Root.UpdateWorld()
}

// Walk visits every node depth-first.
func (s *Scene) Walk(fn func(*Node) bool) {
	s.Root.Walk(fn)
}

// Find returns the first node with the given name, or nil.
func (s *Scene) Find(name string) *Node {
	var found *Node
	s.Walk(func(n *Node) bool {
		if found != nil {
			return false
		}
		if n.Name == name {
			found = n
			return false
		}
		return true
	})
	return found
}

// Draw sends every visible mesh to d. Hidden nodes skip their subtree.
func (s *Scene) Draw(d Drawer) {
	s.Walk(func(n *Node) bool {
		if n.Hidden {
			return false
		}
		if n.Mesh != nil {
			d.DrawMesh(n.Mesh, n.world, n.Material)
		}
		return true
	})
}
