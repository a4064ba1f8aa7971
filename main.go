package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/drivesim/drivesim/pkg/hud"
	"github.com/drivesim/drivesim/pkg/logging"
	"github.com/drivesim/drivesim/pkg/render"
	"github.com/drivesim/drivesim/pkg/sim"
)

const cruiseSpeed = 10.0

// Game implements ebiten.Game interface.
type Game struct {
	env      *sim.Env
	renderer *render.Renderer
	panel    *hud.Panel
}

// Update proceeds the simulation by one tick (1/60 [s] by default).
func (g *Game) Update() error {
	actions := make(map[string]sim.Action)
	for _, id := range g.env.AgentOrder() {
		actions[id] = sim.Autopilot(g.env.Agents()[id], cruiseSpeed)
	}
	_, err := g.env.Step(actions)
	return err
}

// Draw draws the game screen.
func (g *Game) Draw(screen *ebiten.Image) {
	g.renderer.Draw(screen, g.env)
	g.panel.Draw(screen, g.env)
}

// Layout returns the fixed logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	return 1024, 600
}

func main() {
	logger := logging.NewSlogAdapter(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cfg := sim.DefaultConfig()
	cfg.NumAgents = 3
	cfg.Seed = 7

	renderer := render.NewRenderer()
	opts := []sim.EnvOption{sim.WithEnvLogger(logger)}
	for i := 0; i < cfg.NumAgents; i++ {
		id := fmt.Sprintf("agent%d", i)
		opts = append(opts, sim.WithMarkerSink(id, renderer.Sink(id)))
	}

	env := sim.NewEnv(cfg, opts...)
	if _, err := env.Reset(); err != nil {
		log.Fatal(err)
	}
	defer env.Close()

	game := &Game{env: env, renderer: renderer, panel: hud.NewPanel()}
	ebiten.SetWindowSize(1024, 600)
	ebiten.SetWindowTitle("Drivesim")
	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
