package portal

import (
	"log/slog"

	"github.com/taigrr/wormhole/pkg/math3d"
)

// Observer is anything with a world pose that can be teleported.
// *render.Camera implements it.
type Observer interface {
	WorldMatrix() math3d.Mat4
	SetWorldMatrix(math3d.Mat4)
}

type tracking struct {
	prev        float64
	hasPrev     bool
	prevInRange bool
}

// Traveller teleports an observer that walks through a portal.
//
// It assumes portals do not move between frames. An observer fast enough to
// pass through the whole collision volume within one frame is not detected.
type Traveller struct {
	observer Observer
	records  map[ID]*tracking

	// OnTeleport, when set, is called after every teleport.
	OnTeleport func(from, to *Portal)
}

// NewTraveller tracks o.
func NewTraveller(o Observer) *Traveller {
	return &Traveller{
		observer: o,
		records:  make(map[ID]*tracking),
	}
}

// Observer returns the tracked observer.
func (t *Traveller) Observer() Observer { return t.observer }

// Clear forgets everything observed so far.
func (t *Traveller) Clear() {
	clear(t.records)
}

func (t *Traveller) record(id ID) *tracking {
	rec, ok := t.records[id]
	if !ok {
		rec = &tracking{}
		t.records[id] = rec
	}
	return rec
}

// Update checks every portal for a crossing since the previous call and
// teleports the observer through each one crossed. It returns the number of
// teleports.
func (t *Traveller) Update(portals []*Portal) int {
	teleports := 0
	pos := t.observer.WorldMatrix().Translation()

	for _, p := range portals {
		rec := t.record(p.id)

		dist := pos.Sub(p.Position()).Dot(p.Normal())
		sign := math3d.Sign(dist)
		inRange := p.CollisionBox().ContainsPoint(pos)

		crossed := rec.hasPrev &&
			sign != math3d.Sign(rec.prev) &&
			(p.doubleSided || sign < 0) &&
			(inRange || rec.prevInRange)

		if !crossed || !p.Active() {
			rec.prev = dist
			rec.hasPrev = true
			rec.prevInRange = inRange
			continue
		}

		dst := p.destination
		*rec = tracking{}

		// Mirrored so the exit does not immediately trigger again
		dstRec := t.record(dst.id)
		dstRec.prev = -dist
		if sign == 0 {
			dstRec.prev = dist
		}
		dstRec.hasPrev = true
		dstRec.prevInRange = inRange

		t.observer.SetWorldMatrix(p.ThroughTransform(t.observer.WorldMatrix()))
		pos = t.observer.WorldMatrix().Translation()

		for id, other := range t.records {
			if id != p.id && id != dst.id {
				other.hasPrev = false
			}
		}

		teleports++
		slog.Debug("portal teleport", "from", p.Name(), "to", dst.Name())
		if t.OnTeleport != nil {
			t.OnTeleport(p, dst)
		}
	}
	return teleports
}
