package main

import (
	"testing"
	"time"

	"github.com/taigrr/wormhole/pkg/demo"
)

func TestKeyState(t *testing.T) {
	k := newKeyState()
	t0 := time.Unix(100, 0)

	if k.press("p", t0) {
		t.Error("p is not a movement key")
	}
	if !k.press("w", t0) || !k.press("left", t0) {
		t.Fatal("movement keys not recorded")
	}

	got := k.input(t0.Add(100 * time.Millisecond))
	want := demo.Input{Forward: true, TurnLeft: true}
	if got != want {
		t.Errorf("input = %+v, want %+v", got, want)
	}

	k.release("left")
	if got := k.input(t0.Add(200 * time.Millisecond)); got != (demo.Input{Forward: true}) {
		t.Errorf("after release input = %+v", got)
	}

	if got := k.input(t0.Add(time.Second)); got != (demo.Input{}) {
		t.Errorf("stale keys still held: %+v", got)
	}
	if len(k.pressed) != 0 {
		t.Errorf("stale keys not dropped: %v", k.pressed)
	}
}
