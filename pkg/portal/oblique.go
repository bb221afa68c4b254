package portal

import (
	"math"

	"github.com/taigrr/wormhole/pkg/math3d"
	"github.com/taigrr/wormhole/pkg/render"
)

// BuildAlignedProjection returns base with its near clip plane replaced by
// the plane of a portal surface, so nothing between the camera and the
// surface is drawn. The plane is moved offset units towards the camera,
// with offset limited to half the camera's distance to the surface. When the
// camera is inside collision and that limited offset drops below cutoff,
// base is returned unchanged.
//
// See Eric Lengyel, "Oblique View Frustum Depth Projection and Clipping".
func BuildAlignedProjection(surfaceWorld math3d.Mat4, collision render.AABB, camWorld, base math3d.Mat4, offset, cutoff float64) math3d.Mat4 {
	camPos := camWorld.Translation()
	portalPos := surfaceWorld.Translation()
	norm := surfaceWorld.Axis(2).Normalize()

	// Clip normal points away from the camera
	dot := norm.Dot(camPos.Sub(portalPos))
	side := 1.0
	if dot <= 0 {
		side = -1
	}
	norm = norm.Scale(-side)

	adjusted := math.Min(offset, math.Abs(dot)*0.5)
	if collision.ContainsPoint(camPos) && adjusted < cutoff {
		return base
	}

	point := portalPos.Sub(norm.Scale(adjusted))
	plane := math3d.Plane(point, norm)

	// World plane to view space: the view matrix is inverse(camWorld), so
	// planes transform by camWorld's columns.
	clip := math3d.V4(
		plane.Dot(camWorld.Column(0)),
		plane.Dot(camWorld.Column(1)),
		plane.Dot(camWorld.Column(2)),
		plane.Dot(camWorld.Column(3)),
	)

	q := math3d.V4(
		(math3d.Sign(clip.X)+base[8])/base[0],
		(math3d.Sign(clip.Y)+base[9])/base[5],
		-1,
		(1+base[10])/base[14],
	)
	d := clip.Dot(q)
	if d == 0 || math.IsNaN(d) {
		return base
	}
	m := clip.Scale(2 / d)

	proj := base
	proj[2] = m.X
	proj[6] = m.Y
	proj[10] = m.Z + 1
	proj[14] = m.W
	return proj
}
