package portal

import (
	"fmt"

	"github.com/taigrr/wormhole/pkg/render"
)

// pass is one step of the per-level draw sequence.
type pass uint8

const (
	// portal surfaces into depth only
	passPrimeDepth pass = iota
	// scene color and depth, portals hidden
	passScene
	// stencil level -> level+1 where a portal is visible
	passStamp
	// depth back to far inside the stamped region
	passClearDepth
	// stencil level+1 -> level inside the portal
	passUnstamp
)

var passNames = [...]string{"prime-depth", "scene", "stamp", "clear-depth", "unstamp"}

func (p pass) String() string {
	if int(p) < len(passNames) {
		return passNames[p]
	}
	return fmt.Sprintf("pass(%d)", p)
}

// state returns the complete backend state for p at a recursion level.
// Every draw at a level is restricted to pixels whose stencil equals it.
func (p pass) state(level int) render.State {
	ref := uint8(level)
	s := render.State{
		StencilTest:     true,
		StencilFunc:     render.CompareEqual,
		StencilRef:      ref,
		StencilReadMask: 0xff,
		StencilFail:     render.StencilKeep,
		DepthFail:       render.StencilKeep,
		DepthPass:       render.StencilKeep,
	}

	switch p {
	case passPrimeDepth, passScene:
		s.ColorWrite = p == passScene
		s.DepthTest = true
		s.DepthWrite = true
		s.DepthFunc = render.CompareLess
	case passStamp:
		s.DepthTest = true
		s.DepthFunc = render.CompareEqual
		s.StencilWriteMask = 0xff
		s.DepthPass = render.StencilIncr
	case passClearDepth:
		s.DepthTest = true
		s.DepthWrite = true
		s.DepthFunc = render.CompareAlways
		s.StencilRef = ref + 1
	case passUnstamp:
		// Decrement where the stencil test fails, i.e. stencil == level+1,
		// regardless of depth.
		s.DepthFunc = render.CompareAlways
		s.StencilWriteMask = 0xff
		s.StencilFunc = render.CompareNotEqual
		s.StencilRef = ref + 1
		s.StencilFail = render.StencilDecr
	}
	return s
}
