// Package portal implements recursive stencil portals: planar surfaces that
// show, and let an observer walk into, another place in the same scene.
//
// A frame is driven in three steps. The caller refreshes the scene's world
// matrices and calls Registry.Update, then Traveller.Update may teleport the
// camera, and finally Renderer.Render draws the nested views.
package portal

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/taigrr/wormhole/pkg/math3d"
	"github.com/taigrr/wormhole/pkg/render"
	"github.com/taigrr/wormhole/pkg/scene"
)

// CollisionDepth is how far the collision volume extends in front of and
// behind the surface, in local units.
const CollisionDepth = 2

// Default oblique projection tuning used by Portal.AlignedProjection.
const (
	DefaultObliqueOffset = 0.05
	DefaultObliqueCutoff = 0.008
)

// ID identifies a portal independently of where it is stored.
type ID uuid.UUID

func (id ID) String() string { return uuid.UUID(id).String() }

// halfTurn flips "through" to forward instead of mirrored.
var halfTurn = math3d.RotateY(math.Pi)

// Portal is one planar surface, optionally linked to a destination portal.
// The surface node belongs to the scene; the portal only references it.
type Portal struct {
	id          ID
	surface     *scene.Node
	mesh        render.BoundedMeshRenderer
	destination *Portal
	doubleSided bool
	sidedSet    bool // WithDoubleSided was given

	size           math3d.Vec2
	localBounds    render.AABB
	localCollision render.AABB

	globalBounds    render.AABB
	globalCollision render.AABB

	// exit * halfTurn * inverse(entry), valid when hasTransform is set
	destTransform math3d.Mat4
	hasTransform  bool
}

// PortalOption configures a portal at construction.
type PortalOption func(*Portal)

// WithDoubleSided makes the portal visible and enterable from its back.
// Without it the portal takes the doubleSidedPortals option of the registry
// it is added to.
func WithDoubleSided(doubleSided bool) PortalOption {
	return func(p *Portal) {
		p.doubleSided = doubleSided
		p.sidedSet = true
	}
}

// WithDestination links the portal at construction. Nil is ignored.
func WithDestination(dst *Portal) PortalOption {
	return func(p *Portal) { p.destination = dst }
}

// New wraps surface, which must carry a flat mesh in its local XY plane
// facing +Z. The surface material is replaced by the portal material.
func New(surface *scene.Node, opts ...PortalOption) (*Portal, error) {
	if surface == nil {
		return nil, fmt.Errorf("%w: nil surface", ErrNotPlane)
	}
	mesh, ok := surface.Mesh.(render.BoundedMeshRenderer)
	if !ok {
		return nil, fmt.Errorf("%w: node %q has no bounded mesh", ErrNotPlane, surface.Name)
	}
	lo, hi := mesh.GetBounds()
	size := hi.Sub(lo)
	if size.X <= 0 || size.Y <= 0 || math.Abs(size.Z) > 1e-9 || mesh.TriangleCount() == 0 {
		return nil, fmt.Errorf("%w: node %q has extents %.3g x %.3g x %.3g", ErrNotPlane, surface.Name, size.X, size.Y, size.Z)
	}

	p := &Portal{
		id:          ID(uuid.New()),
		surface:     surface,
		mesh:        mesh,
		size:        math3d.V2(size.X, size.Y),
		localBounds: render.NewAABB(lo, hi),
	}
	p.localCollision = p.localBounds.
		ExpandByPoint(math3d.V3(0, 0, -CollisionDepth)).
		ExpandByPoint(math3d.V3(0, 0, CollisionDepth))

	for _, opt := range opts {
		opt(p)
	}
	p.applyMaterial()
	if err := p.Update(); err != nil {
		return nil, err
	}
	return p, nil
}

// ID returns the portal's stable identity.
func (p *Portal) ID() ID { return p.id }

// Name returns the surface node's name.
func (p *Portal) Name() string { return p.surface.Name }

// Surface returns the scene node the portal is drawn with.
func (p *Portal) Surface() *scene.Node { return p.surface }

// Size returns the surface width and height in local units.
func (p *Portal) Size() math3d.Vec2 { return p.size }

// DoubleSided reports whether the back face is a valid entrance.
func (p *Portal) DoubleSided() bool { return p.doubleSided }

// SetDoubleSided changes the sidedness and the surface material with it.
func (p *Portal) SetDoubleSided(v bool) {
	p.doubleSided = v
	p.applyMaterial()
}

func (p *Portal) applyMaterial() {
	p.surface.Material = render.Material{
		Color:       render.ColorBlack,
		DoubleSided: p.doubleSided,
		Unlit:       true,
	}
}

// Destination returns the linked portal, or nil when inactive.
func (p *Portal) Destination() *Portal { return p.destination }

// SetDestination links p to dst. A nil destination is rejected and leaves p
// unchanged; use ClearDestination to unlink.
func (p *Portal) SetDestination(dst *Portal) error {
	if dst == nil {
		return ErrNotPortal
	}
	prev := p.destination
	p.destination = dst
	if err := p.updateTransform(); err != nil {
		p.destination = prev
		_ = p.updateTransform()
		return err
	}
	return nil
}

// ClearDestination makes the portal inactive.
func (p *Portal) ClearDestination() {
	p.destination = nil
	p.hasTransform = false
}

// Active reports whether the portal can be rendered through and entered.
func (p *Portal) Active() bool {
	return p.destination != nil && p.hasTransform
}

// WorldMatrix returns the surface's world transform.
func (p *Portal) WorldMatrix() math3d.Mat4 { return p.surface.WorldMatrix() }

// Position returns the surface origin in world space.
func (p *Portal) Position() math3d.Vec3 { return p.surface.WorldMatrix().Translation() }

// Normal returns the world-space front direction of the surface.
func (p *Portal) Normal() math3d.Vec3 { return p.surface.WorldMatrix().Axis(2).Normalize() }

// LocalCollisionBox returns the surface bounds extruded along the normal.
func (p *Portal) LocalCollisionBox() render.AABB { return p.localCollision }

// CollisionBox returns the world-space collision volume as of the last
// Update.
func (p *Portal) CollisionBox() render.AABB { return p.globalCollision }

// Bounds returns the world-space bounds of the surface as of the last
// Update.
func (p *Portal) Bounds() render.AABB { return p.globalBounds }

// DestinationTransform returns exit * RotateY(pi) * inverse(entry) as of the
// last Update, and false when the portal is inactive.
func (p *Portal) DestinationTransform() (math3d.Mat4, bool) {
	return p.destTransform, p.hasTransform
}

// Update refreshes the world-space volumes and the destination transform.
// Call it after the scene's world matrices change, once per frame for
// moving portals.
func (p *Portal) Update() error {
	world := p.surface.WorldMatrix()
	p.globalCollision = p.localCollision.Transform(world)
	p.globalBounds = p.localBounds.Transform(world)
	return p.updateTransform()
}

func (p *Portal) updateTransform() error {
	p.hasTransform = false
	if p.destination == nil {
		return nil
	}
	t, err := throughTransform(p.surface.WorldMatrix(), p.destination.surface.WorldMatrix())
	if err != nil {
		return fmt.Errorf("portal %q -> %q: %w", p.Name(), p.destination.Name(), err)
	}
	p.destTransform = t
	p.hasTransform = true
	return nil
}

// ThroughTransform maps an observer's world matrix through the portal to the
// destination side. It returns observer unchanged for an inactive portal.
func (p *Portal) ThroughTransform(observer math3d.Mat4) math3d.Mat4 {
	if !p.hasTransform {
		return observer
	}
	return p.destTransform.Mul(observer)
}

// AlignedProjection returns base with its near plane moved onto this
// portal's surface as seen from camWorld. offset and cutoff default to
// DefaultObliqueOffset and DefaultObliqueCutoff when negative.
func (p *Portal) AlignedProjection(camWorld, base math3d.Mat4, offset, cutoff float64) math3d.Mat4 {
	if offset < 0 {
		offset = DefaultObliqueOffset
	}
	if cutoff < 0 {
		cutoff = DefaultObliqueCutoff
	}
	return BuildAlignedProjection(p.surface.WorldMatrix(), p.globalCollision, camWorld, base, offset, cutoff)
}
