// wormhole-window - Desktop Portal Walker
// The same scenes as wormhole, shown in a desktop window instead of a
// terminal. Controls match wormhole; keys are read as held, not repeated.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/taigrr/wormhole/pkg/config"
	"github.com/taigrr/wormhole/pkg/demo"
	"github.com/taigrr/wormhole/pkg/logging"
	"github.com/taigrr/wormhole/pkg/portal"
	"github.com/taigrr/wormhole/pkg/render"
)

var (
	sceneName  = flag.String("scene", "", "Built-in scene")
	configPath = flag.String("config", "", "Path to a TOML or YAML config file")
	pixelScale = flag.Int("pixel-scale", 2, "Window pixels per rendered pixel")
	logPath    = flag.String("log", logging.DefaultPath, "Log file")
	logLevel   = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if *sceneName != "" {
		cfg.Scene.Name, cfg.Scene.Path = *sceneName, ""
	}
	if flag.NArg() > 0 {
		cfg.Scene.Path = flag.Arg(0)
	}
	if *pixelScale < 1 {
		return fmt.Errorf("pixel-scale %d must be at least 1", *pixelScale)
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

	fb := render.NewFramebuffer(cfg.Window.FramebufferSize(*pixelScale))
	rast := render.NewRasterizer(fb)
	m, err := demo.NewManager(rast, cfg, setup)
	if err != nil {
		return err
	}

	g := &game{cfg: cfg, fb: fb, rast: rast, m: m, hud: demo.NewHUD()}
	ebiten.SetWindowTitle(cfg.Window.Title)
	ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	ebiten.SetTPS(cfg.Window.FPS)

	err = ebiten.RunGame(g)
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

type game struct {
	cfg  config.Config
	fb   *render.Framebuffer
	rast *render.Rasterizer
	m    *demo.Manager
	hud  *demo.HUD

	img *ebiten.Image
	pix []byte
}

var toggles = map[ebiten.Key]string{
	ebiten.KeyP: portal.OptRenderPortals,
	ebiten.KeyO: portal.OptPortalObliqueViewFrustum,
	ebiten.KeyF: portal.OptFrustumCullPortals,
	ebiten.KeyB: portal.OptDoubleSidedPortals,
	ebiten.KeyX: portal.OptDrawPortalColliders,
	ebiten.KeyV: portal.OptDrawPortalCameras,
}

func held() demo.Input {
	down := ebiten.IsKeyPressed
	return demo.Input{
		Forward:   down(ebiten.KeyW),
		Back:      down(ebiten.KeyS),
		Left:      down(ebiten.KeyA),
		Right:     down(ebiten.KeyD),
		Up:        down(ebiten.KeySpace),
		Down:      down(ebiten.KeyC),
		TurnLeft:  down(ebiten.KeyArrowLeft),
		TurnRight: down(ebiten.KeyArrowRight),
		LookUp:    down(ebiten.KeyArrowUp),
		LookDown:  down(ebiten.KeyArrowDown),
	}
}

func (g *game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	for key, name := range toggles {
		if inpututil.IsKeyJustPressed(key) {
			on, err := g.m.Toggle(name)
			if err != nil {
				slog.Error("toggle failed", "option", name, "err", err)
				continue
			}
			slog.Info("option toggled", "option", name, "on", on)
		}
	}
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyT):
		g.m.Teleporting = !g.m.Teleporting
	case inpututil.IsKeyJustPressed(ebiten.KeyBracketLeft):
		g.m.AdjustRecursion(-1)
	case inpututil.IsKeyJustPressed(ebiten.KeyBracketRight):
		g.m.AdjustRecursion(1)
	case inpututil.IsKeyJustPressed(ebiten.KeyN):
		g.nextScene()
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		g.m.Reset()
	case inpututil.IsKeyJustPressed(ebiten.KeySlash):
		g.hud.Visible = !g.hud.Visible
	}

	g.m.Update(1/float64(ebiten.TPS()), held())
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	g.m.Render()
	g.hud.Tick(time.Now())
	g.hud.Draw(g.fb, g.hud.Lines(g.m))

	if g.img == nil {
		g.img = ebiten.NewImage(g.fb.Width, g.fb.Height)
		g.pix = make([]byte, 4*len(g.fb.Pixels))
	}
	for i, c := range g.fb.Pixels {
		j := i * 4
		g.pix[j+0] = c.R
		g.pix[j+1] = c.G
		g.pix[j+2] = c.B
		g.pix[j+3] = 0xff
	}
	g.img.WritePixels(g.pix)
	screen.DrawImage(g.img, nil)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.fb.Width, g.fb.Height
}

func (g *game) nextScene() {
	next := demo.Next(g.m.Setup.Name)
	setup, err := demo.Lookup(next)
	if err != nil {
		slog.Error("scene lookup failed", "scene", next, "err", err)
		return
	}
	m, err := g.m.Switch(g.rast, g.cfg, setup)
	if err != nil {
		slog.Error("scene switch failed", "scene", next, "err", err)
		return
	}
	g.m = m
}
