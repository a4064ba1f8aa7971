// Package render draws the simulation with ebiten. It is a pure consumer of
// the navigation core: markers arrive through the MarkerSink callback as
// plain positions and headings.
package render

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/drivesim/drivesim/pkg/math2d"
	"github.com/drivesim/drivesim/pkg/navigation"
	"github.com/drivesim/drivesim/pkg/sim"
)

// Renderer draws the road network, vehicles and navigation markers.
type Renderer struct {
	// Scale is pixels per world length unit.
	Scale float64
	// ShowLineToDest toggles the dashed vehicle-to-destination line.
	ShowLineToDest bool

	marks      map[string]navigation.MarkerState
	background *ebiten.Image
}

// NewRenderer creates a renderer with the default scale.
func NewRenderer() *Renderer {
	return &Renderer{
		Scale:          4.0,
		ShowLineToDest: true,
		marks:          make(map[string]navigation.MarkerState),
	}
}

type agentSink struct {
	r  *Renderer
	id string
}

func (s agentSink) UpdateMarkers(state navigation.MarkerState) {
	s.r.marks[s.id] = state
}

// Sink returns a MarkerSink that stores the latest marker state for one
// agent.
func (r *Renderer) Sink(agentID string) navigation.MarkerSink {
	return agentSink{r: r, id: agentID}
}

// Draw renders one frame centered on the first agent.
func (r *Renderer) Draw(screen *ebiten.Image, env *sim.Env) {
	if r.background == nil {
		r.background = GenerateGrass(screen.Bounds().Dx(), screen.Bounds().Dy(), 1)
	}
	screen.DrawImage(r.background, &ebiten.DrawImageOptions{})

	if env.Map() == nil || len(env.AgentOrder()) == 0 {
		return
	}
	camera := env.Agents()[env.AgentOrder()[0]].Vehicle.Position

	r.drawLanes(screen, env, camera)
	for _, id := range env.AgentOrder() {
		if mark, ok := r.marks[id]; ok {
			r.drawMarkers(screen, mark, camera)
		}
	}
	for i, id := range env.AgentOrder() {
		a := env.Agents()[id]
		r.drawVehicle(screen, a.Vehicle.Position, a.Vehicle.Heading, agentColor(i), camera)
	}
	if mark, ok := r.marks[env.AgentOrder()[0]]; ok && mark.ShowArrow {
		r.drawTurnArrow(screen, mark.TurnLeft)
	}
}

func (r *Renderer) toScreen(p, camera math2d.Vec2, screen *ebiten.Image) (float64, float64) {
	cx := float64(screen.Bounds().Dx()) / 2
	cy := float64(screen.Bounds().Dy()) / 2
	return cx + (p.X-camera.X)*r.Scale, cy - (p.Y-camera.Y)*r.Scale
}

// drawLanes dots each lane centerline and its outer edges, dashed like the
// usual lane markings.
func (r *Renderer) drawLanes(screen *ebiten.Image, env *sim.Env, camera math2d.Vec2) {
	centerColor := color.RGBA{255, 255, 0, 255}
	edgeColor := color.RGBA{200, 200, 200, 255}
	surfaceColor := color.RGBA{60, 60, 60, 255}

	const step = 1.5
	for _, ends := range env.Map().Network.Graph {
		for _, lanes := range ends {
			for _, l := range lanes {
				half := l.Width() / 2
				for s := 0.0; s <= l.Length(); s += step {
					r.dot(screen, l.Position(s, 0), camera, surfaceColor, int(l.Width()*r.Scale))
				}
				dash := true
				for s := 0.0; s <= l.Length(); s += step {
					if dash {
						r.dot(screen, l.Position(s, 0), camera, centerColor, 2)
					}
					dash = !dash
					r.dot(screen, l.Position(s, -half), camera, edgeColor, 1)
					r.dot(screen, l.Position(s, half), camera, edgeColor, 1)
				}
			}
		}
	}
}

func (r *Renderer) dot(screen *ebiten.Image, p, camera math2d.Vec2, c color.Color, size int) {
	if size <= 0 {
		size = 1
	}
	x, y := r.toScreen(p, camera, screen)
	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	if x < -float64(size) || y < -float64(size) || x > float64(w) || y > float64(h) {
		return
	}
	rect := ebiten.NewImage(size, size)
	rect.Fill(c)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(x-float64(size)/2, y-float64(size)/2)
	screen.DrawImage(rect, op)
}

// drawVehicle renders a top-down car body rotated to its heading.
func (r *Renderer) drawVehicle(screen *ebiten.Image, position math2d.Vec2, heading float64, c color.Color, camera math2d.Vec2) {
	carLength := 4.5 * r.Scale
	carWidth := 2.0 * r.Scale

	body := ebiten.NewImage(int(carLength), int(carWidth))
	body.Fill(c)

	// windshield strip marks the front
	windshield := ebiten.NewImage(int(carLength*0.2), int(carWidth*0.8))
	windshield.Fill(color.RGBA{150, 200, 255, 200})
	wop := &ebiten.DrawImageOptions{}
	wop.GeoM.Translate(carLength*0.7, carWidth*0.1)
	body.DrawImage(windshield, wop)

	x, y := r.toScreen(position, camera, screen)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(-carLength/2, -carWidth/2)
	// screen y axis points down, so the rotation sign flips
	op.GeoM.Rotate(-heading)
	op.GeoM.Translate(x, y)
	screen.DrawImage(body, op)
}

func (r *Renderer) drawMarkers(screen *ebiten.Image, mark navigation.MarkerState, camera math2d.Vec2) {
	r.dot(screen, mark.Near.Position, camera, color.RGBA{100, 220, 120, 255}, 8)
	r.dot(screen, mark.Destination, camera, color.RGBA{100, 220, 120, 180}, 10)

	if !r.ShowLineToDest {
		return
	}
	delta := mark.Destination.Sub(mark.Vehicle)
	dist := delta.Norm()
	if dist < 1 {
		return
	}
	dir := delta.Scale(1 / dist)
	for s := 0.0; s < dist; s += 4 {
		r.dot(screen, mark.Vehicle.Add(dir.Scale(s)), camera, color.RGBA{100, 220, 120, 120}, 2)
	}
}

// drawTurnArrow shows a left or right wedge at the top of the screen.
func (r *Renderer) drawTurnArrow(screen *ebiten.Image, left bool) {
	w := screen.Bounds().Dx()
	arrowColor := color.RGBA{100, 220, 120, 255}
	cx := float64(w) / 2
	y := 24.0

	// rows of shrinking rects approximate a wedge
	for i := 0; i < 6; i++ {
		width := 24 - i*4
		rect := ebiten.NewImage(width, 3)
		rect.Fill(arrowColor)
		op := &ebiten.DrawImageOptions{}
		offset := float64(i) * 5
		if left {
			offset = -offset - float64(width)
		}
		op.GeoM.Translate(cx+offset, y+float64(i)*3)
		screen.DrawImage(rect, op)
	}
}

func agentColor(i int) color.Color {
	palette := []color.RGBA{
		{220, 60, 60, 255},
		{60, 120, 220, 255},
		{230, 180, 60, 255},
		{150, 80, 200, 255},
		{60, 200, 180, 255},
	}
	return palette[i%len(palette)]
}
