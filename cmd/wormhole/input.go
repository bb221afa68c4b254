package main

import (
	"time"

	"github.com/taigrr/wormhole/pkg/demo"
)

// holdFor is how long a key press counts as held. Terminals rarely report
// releases, so held keys are inferred from auto-repeat.
const holdFor = 250 * time.Millisecond

// Movement keys, in the spelling uv's MatchString uses.
var movement = map[string]func(*demo.Input){
	"w":     func(in *demo.Input) { in.Forward = true },
	"s":     func(in *demo.Input) { in.Back = true },
	"a":     func(in *demo.Input) { in.Left = true },
	"d":     func(in *demo.Input) { in.Right = true },
	"space": func(in *demo.Input) { in.Up = true },
	"c":     func(in *demo.Input) { in.Down = true },
	"left":  func(in *demo.Input) { in.TurnLeft = true },
	"right": func(in *demo.Input) { in.TurnRight = true },
	"up":    func(in *demo.Input) { in.LookUp = true },
	"down":  func(in *demo.Input) { in.LookDown = true },
}

// keyState tracks when each movement key was last pressed.
type keyState struct {
	pressed map[string]time.Time
}

func newKeyState() *keyState {
	return &keyState{pressed: make(map[string]time.Time)}
}

// press records key and reports whether it is a movement key.
func (k *keyState) press(key string, now time.Time) bool {
	if _, ok := movement[key]; !ok {
		return false
	}
	k.pressed[key] = now
	return true
}

func (k *keyState) release(key string) {
	delete(k.pressed, key)
}

// input returns the keys still considered held at now.
func (k *keyState) input(now time.Time) demo.Input {
	var in demo.Input
	for key, at := range k.pressed {
		if now.Sub(at) > holdFor {
			delete(k.pressed, key)
			continue
		}
		movement[key](&in)
	}
	return in
}
