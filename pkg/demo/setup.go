// Package demo wires the portal engine into playable scenes: a scene
// catalogue, first-person controls, a HUD and the Manager that ties them to
// a rasterizer.
package demo

import (
	"fmt"
	"maps"
	"path/filepath"
	"slices"

	"github.com/taigrr/wormhole/pkg/config"
	"github.com/taigrr/wormhole/pkg/math3d"
	"github.com/taigrr/wormhole/pkg/scene"
)

// Setup describes one scene: how to build it and where the camera starts.
// Portals are found by name when the Manager loads it.
type Setup struct {
	Name        string
	Description string
	Eye         math3d.Vec3
	Target      math3d.Vec3
	Build       func() (*scene.Scene, error)
	// Animate, if set, moves scene nodes each frame. elapsed is in seconds.
	Animate func(s *scene.Scene, elapsed float64)
}

var catalogue = map[string]Setup{}

func register(s Setup) {
	catalogue[s.Name] = s
}

// Names lists the built-in scenes in alphabetical order.
func Names() []string {
	return slices.Sorted(maps.Keys(catalogue))
}

// Lookup returns the built-in scene called name.
func Lookup(name string) (Setup, error) {
	s, ok := catalogue[name]
	if !ok {
		return Setup{}, fmt.Errorf("unknown scene %q (have %v)", name, Names())
	}
	return s, nil
}

// FileSetup loads a glTF or GLB file as a scene. Nodes named with the portal
// prefix become portals.
func FileSetup(path string) Setup {
	return Setup{
		Name:        filepath.Base(path),
		Description: path,
		Eye:         math3d.V3(0, 1.6, 6),
		Target:      math3d.V3(0, 1.5, 0),
		Build: func() (*scene.Scene, error) {
			return scene.LoadGLTF(path)
		},
	}
}

// SetupFor picks the scene a config asks for. A path wins over a name.
func SetupFor(c config.SceneConfig) (Setup, error) {
	if c.Path != "" {
		return FileSetup(c.Path), nil
	}
	return Lookup(c.Name)
}
