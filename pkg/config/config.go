// Package config loads viewer settings from TOML or YAML files.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/taigrr/wormhole/pkg/portal"
	"gopkg.in/yaml.v3"
)

// Config is everything a viewer needs besides the scene itself.
type Config struct {
	Portal portal.Options `toml:"portal" yaml:"portal"`
	Scene  SceneConfig    `toml:"scene" yaml:"scene"`
	Window WindowConfig   `toml:"window" yaml:"window"`
}

// SceneConfig selects the scene and how the camera moves through it.
type SceneConfig struct {
	Name        string  `toml:"name" yaml:"name"` // built-in demo scene
	Path        string  `toml:"path" yaml:"path"` // glTF file, overrides Name
	CameraNear  float64 `toml:"camera_near" yaml:"camera_near"`
	CameraFar   float64 `toml:"camera_far" yaml:"camera_far"`
	FOV         float64 `toml:"fov" yaml:"fov"` // vertical, degrees
	Teleporting bool    `toml:"teleporting" yaml:"teleporting"`
	MoveSpeed   float64 `toml:"move_speed" yaml:"move_speed"` // units per second
	TurnSpeed   float64 `toml:"turn_speed" yaml:"turn_speed"` // radians per second
}

// WindowConfig sizes the output.
type WindowConfig struct {
	Title  string `toml:"title" yaml:"title"`
	Width  int    `toml:"width" yaml:"width"`
	Height int    `toml:"height" yaml:"height"`
	FPS    int    `toml:"fps" yaml:"fps"`
}

// FramebufferSize is the window size divided by scale, never below 1x1.
// A scale below 1 is treated as 1.
func (w WindowConfig) FramebufferSize(scale int) (int, int) {
	scale = max(1, scale)
	return max(1, w.Width/scale), max(1, w.Height/scale)
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		Portal: portal.Defaults(),
		Scene: SceneConfig{
			Name:        "basic",
			CameraNear:  0.005,
			CameraFar:   50,
			FOV:         75,
			Teleporting: true,
			MoveSpeed:   3,
			TurnSpeed:   2,
		},
		Window: WindowConfig{
			Title:  "wormhole",
			Width:  960,
			Height: 540,
			FPS:    30,
		},
	}
}

// Validate reports settings no viewer can run with.
func (c Config) Validate() error {
	var errs []error
	if err := c.Portal.Validate(); err != nil {
		errs = append(errs, err)
	}
	s := c.Scene
	if s.CameraNear <= 0 || s.CameraFar <= s.CameraNear {
		errs = append(errs, fmt.Errorf("camera clip planes %g..%g are invalid", s.CameraNear, s.CameraFar))
	}
	if s.FOV <= 0 || s.FOV >= 180 {
		errs = append(errs, fmt.Errorf("fov %g must be in (0, 180)", s.FOV))
	}
	if s.MoveSpeed < 0 || s.TurnSpeed < 0 {
		errs = append(errs, errors.New("move and turn speeds must be >= 0"))
	}
	w := c.Window
	if w.Width <= 0 || w.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d is invalid", w.Width, w.Height))
	}
	if w.FPS <= 0 {
		errs = append(errs, fmt.Errorf("fps %d must be positive", w.FPS))
	}
	return errors.Join(errs...)
}

// Format is a supported file encoding.
type Format string

const (
	TOML Format = "toml"
	YAML Format = "yaml"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return TOML, nil
	case ".yaml", ".yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("unsupported config extension %q", filepath.Ext(path))
	}
}

// Load reads path over the defaults. An empty path or a missing file yields
// the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	format, err := FormatOf(path)
	if err != nil {
		return Config{}, err
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	c, err := Read(bufio.NewReader(f), format)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Read decodes r over the defaults and validates the result. Unknown keys
// are errors.
func Read(r io.Reader, format Format) (Config, error) {
	c := Default()
	var err error
	switch format {
	case TOML:
		dec := toml.NewDecoder(r)
		dec.DisallowUnknownFields()
		err = dec.Decode(&c)
	case YAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		err = dec.Decode(&c)
		if errors.Is(err, io.EOF) {
			err = nil
		}
	default:
		err = fmt.Errorf("unsupported config format %q", format)
	}
	if err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

// Write encodes c in the given format.
func (c Config) Write(w io.Writer, format Format) error {
	switch format {
	case TOML:
		return toml.NewEncoder(w).Encode(c)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(c); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported config format %q", format)
	}
}

// Save writes c to path, choosing the format from the extension.
func (c Config) Save(path string) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := c.Write(f, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
