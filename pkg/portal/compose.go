package portal

import "github.com/taigrr/wormhole/pkg/math3d"

// ComposeDestinationWorldTransform places an observer on the exit side:
// exit * RotateY(pi) * inverse(entry) * observer. The same product is cached
// per portal by Update, so virtual cameras and teleports agree bit for bit.
func ComposeDestinationWorldTransform(entry, exit, observer math3d.Mat4) (math3d.Mat4, error) {
	t, err := throughTransform(entry, exit)
	if err != nil {
		return math3d.Mat4{}, err
	}
	return t.Mul(observer), nil
}

func throughTransform(entry, exit math3d.Mat4) (math3d.Mat4, error) {
	inv, ok := entry.InverseChecked()
	if !ok {
		return math3d.Mat4{}, ErrDegenerateTransform
	}
	if _, ok := exit.InverseChecked(); !ok {
		return math3d.Mat4{}, ErrDegenerateTransform
	}
	return exit.Mul(halfTurn).Mul(inv), nil
}
