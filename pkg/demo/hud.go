package demo

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// HUD draws a few lines of status text into the top-left of a frame.
type HUD struct {
	Visible    bool
	Foreground color.Color
	Background color.Color

	face      font.Face
	fps       float64
	fpsFrames int
	fpsTime   time.Time
}

// NewHUD creates a visible HUD using the 7x13 bitmap font.
func NewHUD() *HUD {
	return &HUD{
		Visible:    true,
		Foreground: color.RGBA{R: 120, G: 255, B: 140, A: 255},
		Background: color.RGBA{A: 160},
		face:       basicfont.Face7x13,
		fpsTime:    time.Now(),
	}
}

// Tick counts a frame; the rate is refreshed about once a second.
func (h *HUD) Tick(now time.Time) {
	h.fpsFrames++
	elapsed := now.Sub(h.fpsTime)
	if elapsed >= time.Second {
		h.fps = float64(h.fpsFrames) / elapsed.Seconds()
		h.fpsFrames = 0
		h.fpsTime = now
	}
}

// FPS returns the last measured frame rate.
func (h *HUD) FPS() float64 { return h.fps }

// Lines describes m's current state.
func (h *HUD) Lines(m *Manager) []string {
	st := m.Stats()
	opts := m.Registry.Options()
	onOff := func(b bool) string {
		if b {
			return "on"
		}
		return "off"
	}
	return []string{
		fmt.Sprintf("%s  %.0f fps  %d tris", m.Setup.Name, h.fps, m.RasterStats().Triangles),
		fmt.Sprintf("depth %d/%d  drawn %d  culled %d", st.MaxLevel, opts.MaxPortalRecursion, st.PortalsRendered, st.PortalsCulled),
		fmt.Sprintf("teleports %d  travel %s  oblique %s", m.Teleports, onOff(m.Teleporting), onOff(opts.PortalObliqueViewFrustum)),
	}
}

// Draw writes lines onto dst over a translucent panel.
func (h *HUD) Draw(dst draw.Image, lines []string) {
	if !h.Visible || len(lines) == 0 {
		return
	}
	metrics := h.face.Metrics()
	lineHeight := metrics.Height.Ceil()
	ascent := metrics.Ascent.Ceil()

	width := 0
	for _, l := range lines {
		width = max(width, font.MeasureString(h.face, l).Ceil())
	}
	const pad = 2
	panel := image.Rect(0, 0, width+2*pad, len(lines)*lineHeight+2*pad).Intersect(dst.Bounds())
	draw.Draw(dst, panel, image.NewUniform(h.Background), image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(h.Foreground),
		Face: h.face,
	}
	for i, l := range lines {
		d.Dot = fixed.P(pad, pad+ascent+i*lineHeight)
		d.DrawString(l)
	}
}
