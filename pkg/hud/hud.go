// Package hud renders the on-screen status panel: tick counter, per-agent
// speed and the live navigation feature vector.
package hud

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/hajimehoshi/bitmapfont/v4"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"

	"github.com/drivesim/drivesim/pkg/sim"
)

// Panel draws simulation state as a text overlay.
type Panel struct {
	face text.Face
}

// NewPanel creates a HUD panel using the bundled bitmap font.
func NewPanel() *Panel {
	return &Panel{face: text.NewGoXFace(bitmapfont.Face)}
}

// Draw writes the overlay for every agent.
func (p *Panel) Draw(screen *ebiten.Image, env *sim.Env) {
	lines := []string{fmt.Sprintf("tick %d", env.Steps())}
	for _, id := range env.AgentOrder() {
		a := env.Agents()[id]
		i, j := a.Nav.Window()
		lines = append(lines, fmt.Sprintf("%s (%s) v=%.1f ckpt=[%d %d]%s",
			id, a.Vehicle.Name, a.Vehicle.Speed, i, j, offLaneTag(a)))
		lines = append(lines, "  navi "+formatVector(a.Nav.NaviInfo()))
	}

	y := 8.0
	for _, line := range lines {
		op := &text.DrawOptions{}
		op.GeoM.Translate(8, y)
		op.ColorScale.ScaleWithColor(color.RGBA{230, 230, 230, 255})
		text.Draw(screen, line, p.face, op)
		y += 16
	}
}

func offLaneTag(a *sim.Agent) string {
	if a.Vehicle.OnLane {
		return ""
	}
	return " OFF-LANE"
}

func formatVector(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = fmt.Sprintf("%.2f", x)
	}
	return strings.Join(parts, " ")
}
