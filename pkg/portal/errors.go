package portal

import "errors"

var (
	// ErrNotPlane is returned when a portal surface is not a flat quad.
	ErrNotPlane = errors.New("portal surface must be a non-empty plane")
	// ErrNotPortal is returned when a destination does not name a portal.
	ErrNotPortal = errors.New("invalid portal destination")
	// ErrDegenerateTransform is returned for a singular surface transform.
	ErrDegenerateTransform = errors.New("portal transform is not invertible")
	// ErrStencilUnsupported is returned by NewRenderer when the backend has
	// no depth or stencil buffer.
	ErrStencilUnsupported = errors.New("rendering backend lacks a depth and stencil buffer")
	// ErrInvalidOption is returned for unknown options or mistyped values.
	ErrInvalidOption = errors.New("invalid portal option")
)
