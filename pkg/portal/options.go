package portal

import (
	"fmt"
	"log/slog"
	"math"
)

// Option names accepted by Options.Set and Change.
const (
	OptMaxPortalRecursion         = "maxPortalRecursion"
	OptDestinationNearPlaneOffset = "destinationNearPlaneOffset"
	OptDestinationObliqueCutoff   = "destinationObliqueCutoff"
	OptRenderPortals              = "renderPortals"
	OptPortalObliqueViewFrustum   = "portalObliqueViewFrustum"
	OptFrustumCullPortals         = "frustumCullPortals"
	OptDoubleSidedPortals         = "doubleSidedPortals"
	OptDrawPortalColliders        = "drawPortalColliders"
	OptDrawPortalCameras          = "drawPortalCameras"
)

// Options are the tunables of the portal renderer.
type Options struct {
	// MaxPortalRecursion bounds how many portals a view ray may pass through.
	MaxPortalRecursion int `toml:"max_portal_recursion" yaml:"max_portal_recursion"`
	// DestinationNearPlaneOffset moves the oblique near plane off the
	// destination surface, towards the camera, to reduce z-fighting.
	DestinationNearPlaneOffset float64 `toml:"destination_near_plane_offset" yaml:"destination_near_plane_offset"`
	// DestinationObliqueCutoff is the shrunk offset below which the plain
	// projection is used instead.
	DestinationObliqueCutoff float64 `toml:"destination_oblique_cutoff" yaml:"destination_oblique_cutoff"`

	RenderPortals            bool `toml:"render_portals" yaml:"render_portals"`
	PortalObliqueViewFrustum bool `toml:"portal_oblique_view_frustum" yaml:"portal_oblique_view_frustum"`
	FrustumCullPortals       bool `toml:"frustum_cull_portals" yaml:"frustum_cull_portals"`
	DoubleSidedPortals       bool `toml:"double_sided_portals" yaml:"double_sided_portals"`
	DrawPortalColliders      bool `toml:"draw_portal_colliders" yaml:"draw_portal_colliders"`
	DrawPortalCameras        bool `toml:"draw_portal_cameras" yaml:"draw_portal_cameras"`
}

// Defaults returns the options the renderer starts with.
func Defaults() Options {
	return Options{
		MaxPortalRecursion:         2,
		DestinationNearPlaneOffset: 0.02,
		DestinationObliqueCutoff:   0.009,
		RenderPortals:              true,
		PortalObliqueViewFrustum:   true,
		FrustumCullPortals:         true,
		DoubleSidedPortals:         false,
		DrawPortalColliders:        false,
		DrawPortalCameras:          false,
	}
}

// Validate reports out-of-range values.
func (o Options) Validate() error {
	if o.MaxPortalRecursion < 0 || o.MaxPortalRecursion > 0xfe {
		return fmt.Errorf("%w: %s must be in [0, 254], got %d", ErrInvalidOption, OptMaxPortalRecursion, o.MaxPortalRecursion)
	}
	if o.DestinationNearPlaneOffset < 0 || math.IsNaN(o.DestinationNearPlaneOffset) {
		return fmt.Errorf("%w: %s must be >= 0", ErrInvalidOption, OptDestinationNearPlaneOffset)
	}
	if o.DestinationObliqueCutoff < 0 || math.IsNaN(o.DestinationObliqueCutoff) {
		return fmt.Errorf("%w: %s must be >= 0", ErrInvalidOption, OptDestinationObliqueCutoff)
	}
	return nil
}

// Set assigns the named option. Boolean options only accept bool values;
// a rejected change is logged and leaves o untouched.
func (o *Options) Set(name string, value any) error {
	next := *o
	var err error
	switch name {
	case OptMaxPortalRecursion:
		next.MaxPortalRecursion, err = toInt(value)
	case OptDestinationNearPlaneOffset:
		next.DestinationNearPlaneOffset, err = toFloat(value)
	case OptDestinationObliqueCutoff:
		next.DestinationObliqueCutoff, err = toFloat(value)
	case OptRenderPortals:
		next.RenderPortals, err = toBool(value)
	case OptPortalObliqueViewFrustum:
		next.PortalObliqueViewFrustum, err = toBool(value)
	case OptFrustumCullPortals:
		next.FrustumCullPortals, err = toBool(value)
	case OptDoubleSidedPortals:
		next.DoubleSidedPortals, err = toBool(value)
	case OptDrawPortalColliders:
		next.DrawPortalColliders, err = toBool(value)
	case OptDrawPortalCameras:
		next.DrawPortalCameras, err = toBool(value)
	default:
		err := fmt.Errorf("%w: unknown option %q", ErrInvalidOption, name)
		slog.Error("rejected portal option", "option", name, "err", err)
		return err
	}
	if err != nil {
		err = fmt.Errorf("%w: %s: %w", ErrInvalidOption, name, err)
	} else {
		err = next.Validate()
	}
	if err != nil {
		slog.Error("rejected portal option", "option", name, "value", value, "err", err)
		return err
	}
	*o = next
	return nil
}

func toBool(v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("want bool, got %T", v)
	}
	return b, nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case int32:
		return int(n), nil
	case uint8:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("want integer, got %v", n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("want integer, got %T", v)
	}
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("want number, got %T", v)
	}
}
