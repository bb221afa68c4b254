package portal

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
)

// Registry is the ordered set of portals in a scene together with the
// options that apply to all of them. Portals are rendered in insertion
// order.
type Registry struct {
	portals []*Portal
	byID    map[ID]*Portal
	options Options
}

// NewRegistry creates an empty registry with the given options.
func NewRegistry(opts Options) *Registry {
	return &Registry{
		byID:    make(map[ID]*Portal),
		options: opts,
	}
}

// Options returns a copy of the current options.
func (r *Registry) Options() Options { return r.options }

// Add registers portals. A portal already present is ignored. Portals built
// without WithDoubleSided take the doubleSidedPortals option.
func (r *Registry) Add(portals ...*Portal) {
	for _, p := range portals {
		if p == nil {
			continue
		}
		if _, ok := r.byID[p.id]; ok {
			continue
		}
		if !p.sidedSet {
			p.SetDoubleSided(r.options.DoubleSidedPortals)
		}
		r.byID[p.id] = p
		r.portals = append(r.portals, p)
	}
}

// Get returns the portal with the given id.
func (r *Registry) Get(id ID) (*Portal, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// Find returns the first portal whose surface has the given name.
func (r *Registry) Find(name string) *Portal {
	for _, p := range r.portals {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// Portals returns the registered portals in order. The slice must not be
// modified.
func (r *Registry) Portals() []*Portal { return r.portals }

// Len returns the number of registered portals.
func (r *Registry) Len() int { return len(r.portals) }

// Remove unregisters a portal and unlinks every portal pointing at it.
func (r *Registry) Remove(id ID) bool {
	p, ok := r.byID[id]
	if !ok {
		return false
	}
	delete(r.byID, id)
	r.portals = slices.DeleteFunc(r.portals, func(q *Portal) bool { return q == p })
	for _, q := range r.portals {
		if q.destination == p {
			q.ClearDestination()
		}
	}
	return true
}

// Link sets dst as the destination of src. Unknown ids are logged and
// rejected without changing anything.
func (r *Registry) Link(src, dst ID) error {
	from, ok := r.byID[src]
	if !ok {
		slog.Error("link from unknown portal", "src", src)
		return fmt.Errorf("%w: unknown source %s", ErrNotPortal, src)
	}
	to, ok := r.byID[dst]
	if !ok {
		slog.Error("invalid portal destination", "src", from.Name(), "dst", dst)
		return fmt.Errorf("%w: unknown destination %s", ErrNotPortal, dst)
	}
	return from.SetDestination(to)
}

// LinkPair links a and b to each other.
func (r *Registry) LinkPair(a, b ID) error {
	if err := r.Link(a, b); err != nil {
		return err
	}
	if err := r.Link(b, a); err != nil {
		r.Unlink(a)
		return err
	}
	return nil
}

// Unlink makes src inactive.
func (r *Registry) Unlink(src ID) {
	if p, ok := r.byID[src]; ok {
		p.ClearDestination()
	}
}

// Update refreshes every portal's world-space state. All portals are
// updated; the returned error joins the failures.
func (r *Registry) Update() error {
	var errs []error
	for _, p := range r.portals {
		if err := p.Update(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Change names one option assignment.
type Change struct {
	Name  string
	Value any
}

// ApplyConfiguration applies c and returns the portals it touched. Only
// doubleSidedPortals changes portals directly: every registered portal takes
// the new sidedness. Invalid changes leave all state untouched.
func (r *Registry) ApplyConfiguration(c Change) ([]ID, error) {
	if err := r.options.Set(c.Name, c.Value); err != nil {
		return nil, err
	}
	if c.Name != OptDoubleSidedPortals {
		return nil, nil
	}
	affected := make([]ID, 0, len(r.portals))
	for _, p := range r.portals {
		p.SetDoubleSided(r.options.DoubleSidedPortals)
		affected = append(affected, p.id)
	}
	return affected, nil
}
