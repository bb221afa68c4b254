// wormhole - Terminal Portal Walker
// Walk through rooms joined by see-through portals, rendered in your terminal.
//
// Controls:
//
//	W/S         - Walk forward/back
//	A/D         - Strafe left/right
//	Left/Right  - Turn
//	Up/Down     - Look up/down
//	Space/C     - Rise/sink
//	P           - Toggle portal rendering
//	O           - Toggle oblique near plane
//	F           - Toggle portal frustum culling
//	B           - Toggle double-sided portals
//	X           - Toggle collider boxes
//	V           - Toggle portal camera frustums
//	T           - Toggle teleporting
//	[ / ]       - Less/more recursion
//	N           - Next scene
//	R           - Reset camera
//	?           - Toggle HUD overlay
//	Esc         - Quit
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/taigrr/wormhole/pkg/config"
	"github.com/taigrr/wormhole/pkg/demo"
	"github.com/taigrr/wormhole/pkg/logging"
	"github.com/taigrr/wormhole/pkg/portal"
	"github.com/taigrr/wormhole/pkg/render"
)

var (
	sceneName   = flag.String("scene", "", "Built-in scene ("+strings.Join(demo.Names(), ", ")+")")
	configPath  = flag.String("config", "", "Path to a TOML or YAML config file")
	targetFPS   = flag.Int("fps", 0, "Target FPS (overrides the config)")
	snapshot    = flag.String("snapshot", "", "Render one frame to this PNG and exit")
	writeConfig = flag.String("write-config", "", "Write the effective config to this .toml/.yaml file and exit")
	listScenes  = flag.Bool("list", false, "List built-in scenes and exit")
	logPath     = flag.String("log", logging.DefaultPath, "Log file")
	logLevel    = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "wormhole - Terminal Portal Walker\n\n")
		fmt.Fprintf(os.Stderr, "Usage: wormhole [options] [scene.gltf|scene.glb]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nControls:\n")
		fmt.Fprintf(os.Stderr, "  W/S/A/D     - Walk and strafe\n")
		fmt.Fprintf(os.Stderr, "  Arrows      - Turn and look\n")
		fmt.Fprintf(os.Stderr, "  Space/C     - Rise/sink\n")
		fmt.Fprintf(os.Stderr, "  P/O/F/B/X/V - Toggle portals, oblique, culling, sidedness, colliders, cameras\n")
		fmt.Fprintf(os.Stderr, "  T           - Toggle teleporting\n")
		fmt.Fprintf(os.Stderr, "  [ / ]       - Recursion depth\n")
		fmt.Fprintf(os.Stderr, "  N           - Next scene\n")
		fmt.Fprintf(os.Stderr, "  R           - Reset camera\n")
		fmt.Fprintf(os.Stderr, "  ?           - Toggle HUD overlay\n")
		fmt.Fprintf(os.Stderr, "  Esc         - Quit\n")
	}
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies command line overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return cfg, err
	}
	if *sceneName != "" {
		cfg.Scene.Name = *sceneName
		cfg.Scene.Path = ""
	}
	if flag.NArg() > 0 {
		cfg.Scene.Path = flag.Arg(0)
	}
	if *targetFPS > 0 {
		cfg.Window.FPS = *targetFPS
	}
	return cfg, cfg.Validate()
}

func run() error {
	if *listScenes {
		for _, name := range demo.Names() {
			s, _ := demo.Lookup(name)
			fmt.Printf("%-12s %s\n", name, s.Description)
		}
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if *writeConfig != "" {
		return cfg.Save(*writeConfig)
	}

	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		return err
	}
	logFile, err := logging.Open(*logPath, level)
	if err != nil {
		return err
	}
	defer logFile.Close()

	setup, err := demo.SetupFor(cfg.Scene)
	if err != nil {
		return err
	}

	if *snapshot != "" {
		return renderSnapshot(cfg, setup, *snapshot)
	}
	return runTerminal(cfg, setup)
}

// renderSnapshot draws the scene's first frame at the configured window
// size without touching the terminal.
func renderSnapshot(cfg config.Config, setup demo.Setup, path string) error {
	fb := render.NewFramebuffer(cfg.Window.Width, cfg.Window.Height)
	m, err := demo.NewManager(render.NewRasterizer(fb), cfg, setup)
	if err != nil {
		return err
	}
	m.Update(0, demo.Input{})
	m.Render()
	if err := fb.SavePNG(path); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	st := m.Stats()
	slog.Info("snapshot written", "path", path, "levels", st.Levels, "portals", st.PortalsRendered)
	fmt.Printf("Wrote %s (%dx%d, %d portal views)\n", path, fb.Width, fb.Height, st.PortalsRendered)
	return nil
}

// viewer is the state of an interactive terminal session.
type viewer struct {
	cfg     config.Config
	term    *uv.Terminal
	display *render.TerminalRenderer
	fb      *render.Framebuffer
	rast    *render.Rasterizer
	m       *demo.Manager
	hud     *demo.HUD
	keys    *keyState
}

func runTerminal(cfg config.Config, setup demo.Setup) error {
	term := uv.DefaultTerminal()

	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}

	display := render.NewTerminalRenderer(term, width, height)
	fbWidth, fbHeight := display.FramebufferSize()
	fb := render.NewFramebuffer(fbWidth, fbHeight)
	rast := render.NewRasterizer(fb)

	m, err := demo.NewManager(rast, cfg, setup)
	if err != nil {
		return err
	}

	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}
	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	hud := demo.NewHUD()
	hud.Visible = false

	v := &viewer{
		cfg:     cfg,
		term:    term,
		display: display,
		fb:      fb,
		rast:    rast,
		m:       m,
		hud:     hud,
		keys:    newKeyState(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	// Events are handed to the frame loop so all state stays on one goroutine.
	events := make(chan uv.Event, 64)
	go func() {
		for ev := range term.Events() {
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	cleanup := func() {
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}

	targetDuration := time.Second / time.Duration(cfg.Window.FPS)
	lastFrame := time.Now()

	for {
		now := time.Now()
	drain:
		for {
			select {
			case <-ctx.Done():
				cleanup()
				return nil
			case ev := <-events:
				if !v.handle(ev, now) {
					cancel()
				}
			default:
				break drain
			}
		}

		dt := now.Sub(lastFrame).Seconds()
		lastFrame = now
		if dt > 0.1 {
			dt = 0.1
		}

		v.m.Update(dt, v.keys.input(now))
		v.m.Render()
		v.hud.Tick(now)
		v.hud.Draw(v.fb, v.hud.Lines(v.m))

		v.display.Render(v.fb)
		if err := v.display.Flush(); err != nil {
			cleanup()
			return fmt.Errorf("flush: %w", err)
		}

		elapsed := time.Since(now)
		if elapsed < targetDuration {
			time.Sleep(targetDuration - elapsed)
		}
	}
}

// handle applies one terminal event and reports whether the session should
// keep running.
func (v *viewer) handle(ev uv.Event, now time.Time) bool {
	switch ev := ev.(type) {
	case uv.WindowSizeEvent:
		v.resize(ev.Width, ev.Height)

	case uv.KeyReleaseEvent:
		for key := range movement {
			if ev.MatchString(key) {
				v.keys.release(key)
			}
		}

	case uv.KeyPressEvent:
		for key := range movement {
			if ev.MatchString(key) && v.keys.press(key, now) {
				return true
			}
		}
		switch {
		case ev.MatchString("escape", "ctrl+c"):
			return false
		case ev.MatchString("p"):
			v.toggle(portal.OptRenderPortals)
		case ev.MatchString("o"):
			v.toggle(portal.OptPortalObliqueViewFrustum)
		case ev.MatchString("f"):
			v.toggle(portal.OptFrustumCullPortals)
		case ev.MatchString("b"):
			v.toggle(portal.OptDoubleSidedPortals)
		case ev.MatchString("x"):
			v.toggle(portal.OptDrawPortalColliders)
		case ev.MatchString("v"):
			v.toggle(portal.OptDrawPortalCameras)
		case ev.MatchString("t"):
			v.m.Teleporting = !v.m.Teleporting
			slog.Info("teleporting toggled", "on", v.m.Teleporting)
		case ev.MatchString("["):
			v.m.AdjustRecursion(-1)
		case ev.MatchString("]"):
			v.m.AdjustRecursion(1)
		case ev.MatchString("n"):
			v.nextScene()
		case ev.MatchString("r"):
			v.m.Reset()
		case ev.MatchString("?"), ev.MatchString("shift+/"):
			v.hud.Visible = !v.hud.Visible
		}
	}
	return true
}

func (v *viewer) toggle(name string) {
	on, err := v.m.Toggle(name)
	if err != nil {
		slog.Error("toggle failed", "option", name, "err", err)
		return
	}
	slog.Info("option toggled", "option", name, "on", on)
}

func (v *viewer) resize(width, height int) {
	v.term.Erase()
	v.term.Resize(width, height)
	v.display.Resize(width, height)
	fbWidth, fbHeight := v.display.FramebufferSize()
	v.fb = render.NewFramebuffer(fbWidth, fbHeight)
	v.rast.SetFramebuffer(v.fb)
	v.m.Resize(fbWidth, fbHeight)
}

// nextScene loads the built-in scene after the current one, keeping the
// current renderer options.
func (v *viewer) nextScene() {
	next := demo.Next(v.m.Setup.Name)
	setup, err := demo.Lookup(next)
	if err != nil {
		slog.Error("scene lookup failed", "scene", next, "err", err)
		return
	}
	m, err := v.m.Switch(v.rast, v.cfg, setup)
	if err != nil {
		slog.Error("scene switch failed", "scene", next, "err", err)
		return
	}
	v.m = m
}
