package portal

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/taigrr/wormhole/pkg/scene"
)

// NamePrefix marks scene nodes that are portal surfaces.
const NamePrefix = "p_"

// Node extras read by Discover.
const (
	ExtraDestination = "destination"
	ExtraDoubleSided = "doubleSided"
)

// Discover turns every node named with NamePrefix into a portal, registers
// it with reg and links it to the node named by its "destination" extra.
// Portals whose destination is missing stay inactive. Nodes that cannot be
// portals are skipped; their errors are joined into the returned error.
// World matrices must be current, so call s.Update first.
func Discover(s *scene.Scene, reg *Registry) ([]*Portal, error) {
	var (
		found []*Portal
		errs  []error
	)
	defaultSided := reg.Options().DoubleSidedPortals

	s.Walk(func(n *scene.Node) bool {
		if !strings.HasPrefix(n.Name, NamePrefix) {
			return true
		}
		doubleSided := defaultSided
		if v, ok := n.Extras[ExtraDoubleSided]; ok {
			if b, ok := v.(bool); ok {
				doubleSided = b
			} else {
				slog.Warn("ignoring non-boolean doubleSided extra", "node", n.Name, "value", v)
			}
		}
		p, err := New(n, WithDoubleSided(doubleSided))
		if err != nil {
			slog.Warn("skipping portal node", "node", n.Name, "err", err)
			errs = append(errs, err)
			return true
		}
		reg.Add(p)
		found = append(found, p)
		return true
	})

	for _, p := range found {
		name, _ := p.surface.Extras[ExtraDestination].(string)
		if name == "" {
			slog.Warn("portal has no destination", "portal", p.Name())
			continue
		}
		dst := reg.Find(name)
		if dst == nil {
			slog.Warn("portal destination not found", "portal", p.Name(), "destination", name)
			continue
		}
		if err := p.SetDestination(dst); err != nil {
			errs = append(errs, fmt.Errorf("link %q: %w", p.Name(), err))
		}
	}
	return found, errors.Join(errs...)
}
