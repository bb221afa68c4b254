package render

import "fmt"

// CompareFunc is a depth or stencil comparison, evaluated as
// "incoming FUNC stored" the way OpenGL does.
type CompareFunc uint8

const (
	CompareNever CompareFunc = iota
	CompareLess
	CompareEqual
	CompareLessEqual
	CompareGreater
	CompareNotEqual
	CompareGreaterEqual
	CompareAlways
)

var compareNames = [...]string{"NEVER", "LESS", "EQUAL", "LEQUAL", "GREATER", "NOTEQUAL", "GEQUAL", "ALWAYS"}

func (f CompareFunc) String() string {
	if int(f) < len(compareNames) {
		return compareNames[f]
	}
	return fmt.Sprintf("CompareFunc(%d)", f)
}

func (f CompareFunc) test(incoming, stored float64) bool {
	switch f {
	case CompareNever:
		return false
	case CompareLess:
		return incoming < stored
	case CompareEqual:
		return incoming == stored
	case CompareLessEqual:
		return incoming <= stored
	case CompareGreater:
		return incoming > stored
	case CompareNotEqual:
		return incoming != stored
	case CompareGreaterEqual:
		return incoming >= stored
	default:
		return true
	}
}

// StencilOp is the action applied to a stencil value after a test.
type StencilOp uint8

const (
	StencilKeep StencilOp = iota
	StencilZero
	StencilReplace
	StencilIncr // saturates at 255
	StencilDecr // saturates at 0
	StencilInvert
	StencilIncrWrap
	StencilDecrWrap
)

var stencilOpNames = [...]string{"KEEP", "ZERO", "REPLACE", "INCR", "DECR", "INVERT", "INCR_WRAP", "DECR_WRAP"}

func (op StencilOp) String() string {
	if int(op) < len(stencilOpNames) {
		return stencilOpNames[op]
	}
	return fmt.Sprintf("StencilOp(%d)", op)
}

func (op StencilOp) apply(v, ref uint8) uint8 {
	switch op {
	case StencilZero:
		return 0
	case StencilReplace:
		return ref
	case StencilIncr:
		if v == 0xff {
			return v
		}
		return v + 1
	case StencilDecr:
		if v == 0 {
			return v
		}
		return v - 1
	case StencilInvert:
		return ^v
	case StencilIncrWrap:
		return v + 1
	case StencilDecrWrap:
		return v - 1
	default:
		return v
	}
}

// State is the complete fixed-function configuration used for a draw.
// It is applied atomically with Rasterizer.SetState.
type State struct {
	ColorWrite bool

	DepthTest  bool
	DepthWrite bool
	DepthFunc  CompareFunc

	StencilTest      bool
	StencilWriteMask uint8
	StencilFunc      CompareFunc
	StencilRef       uint8
	StencilReadMask  uint8

	// Stencil operations for: stencil test failed, stencil passed but depth
	// failed, both passed (or depth test disabled).
	StencilFail StencilOp
	DepthFail   StencilOp
	DepthPass   StencilOp
}

// DefaultState returns the configuration every frame starts from and every
// portal render must restore: color and depth writes on, LESS depth test,
// stencil test off with a zero write mask.
func DefaultState() State {
	return State{
		ColorWrite:       true,
		DepthTest:        true,
		DepthWrite:       true,
		DepthFunc:        CompareLess,
		StencilTest:      false,
		StencilWriteMask: 0,
		StencilFunc:      CompareAlways,
		StencilRef:       0,
		StencilReadMask:  0xff,
		StencilFail:      StencilKeep,
		DepthFail:        StencilKeep,
		DepthPass:        StencilKeep,
	}
}

func (s State) String() string {
	return fmt.Sprintf("color=%t depth(test=%t write=%t %s) stencil(test=%t %s ref=%d mask=%#x ops=%s/%s/%s)",
		s.ColorWrite, s.DepthTest, s.DepthWrite, s.DepthFunc,
		s.StencilTest, s.StencilFunc, s.StencilRef, s.StencilWriteMask,
		s.StencilFail, s.DepthFail, s.DepthPass)
}

// Capabilities describes the buffers a backend was created with.
type Capabilities struct {
	DepthBuffer bool
	StencilBits int
}

// SupportsStencil reports whether both a depth and a stencil buffer exist.
func (c Capabilities) SupportsStencil() bool {
	return c.DepthBuffer && c.StencilBits > 0
}
