// Package sim runs the multi-agent environment: map generation, vehicle
// spawning, the per-tick localization cycle and observation assembly.
package sim

import (
	"fmt"
	"math/rand"

	"github.com/drivesim/drivesim/pkg/lane"
	"github.com/drivesim/drivesim/pkg/logging"
	"github.com/drivesim/drivesim/pkg/mapgen"
	"github.com/drivesim/drivesim/pkg/math2d"
	"github.com/drivesim/drivesim/pkg/navigation"
	"github.com/drivesim/drivesim/pkg/physics"
	"github.com/drivesim/drivesim/pkg/vehicle"
)

const (
	// TickSeconds is the fixed simulation step.
	TickSeconds = 1.0 / 60.0
	// arriveTolerance is how close to the end of the final lane counts as
	// reaching the destination.
	arriveTolerance = 5.0
	// spawnSpacing separates vehicles sharing a spawn lane.
	spawnSpacing = 8.0
)

// Config sets up an environment.
type Config struct {
	NumAgents   int
	Horizon     int
	AutoRespawn bool
	Map         mapgen.Config
	Nav         navigation.Config
	Seed        int64
}

// DefaultConfig returns a small two-agent setup.
func DefaultConfig() Config {
	return Config{
		NumAgents:   2,
		Horizon:     3000,
		AutoRespawn: true,
		Map:         mapgen.DefaultConfig(),
		Nav:         navigation.DefaultConfig(),
	}
}

// Action is one agent's control input for a tick.
type Action struct {
	Steering     float64
	Acceleration float64
}

// StepResult is the per-agent outcome of one tick.
type StepResult struct {
	Observation []float64
	Reward      float64
	Done        bool
	Arrived     bool
	OffLane     bool
}

// Env owns the map, the spatial world and all agents. Single-threaded:
// one Step call advances every agent exactly once.
type Env struct {
	cfg    Config
	log    logging.Logger
	m      *mapgen.Map
	world  *physics.World
	agents map[string]*Agent
	order  []string
	rng    *rand.Rand
	steps  int
	sinks  map[string]navigation.MarkerSink
}

// EnvOption customizes an Env at construction.
type EnvOption func(*Env)

// WithEnvLogger replaces the default no-op logger.
func WithEnvLogger(l logging.Logger) EnvOption {
	return func(e *Env) { e.log = l }
}

// WithMarkerSink registers a marker receiver for the named agent. Agents are
// named "agent0", "agent1", ...
func WithMarkerSink(agentID string, s navigation.MarkerSink) EnvOption {
	return func(e *Env) { e.sinks[agentID] = s }
}

// NewEnv creates an environment. Call Reset before stepping.
func NewEnv(cfg Config, opts ...EnvOption) *Env {
	e := &Env{
		cfg:   cfg,
		log:   logging.NoOpLogger{},
		sinks: make(map[string]navigation.MarkerSink),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reset regenerates the map, respawns every agent and plans their routes.
// Returns the initial observations keyed by agent ID.
func (e *Env) Reset() (map[string][]float64, error) {
	mapCfg := e.cfg.Map
	mapCfg.Seed = e.cfg.Seed
	m, err := mapgen.Generate(mapCfg)
	if err != nil {
		return nil, err
	}
	e.m = m
	e.world = physics.NewWorld(m.Network)
	e.rng = rand.New(rand.NewSource(e.cfg.Seed))
	e.steps = 0
	e.agents = make(map[string]*Agent, e.cfg.NumAgents)
	e.order = e.order[:0]

	for i := 0; i < e.cfg.NumAgents; i++ {
		id := fmt.Sprintf("agent%d", i)
		a, err := e.spawnAgent(id, i)
		if err != nil {
			return nil, fmt.Errorf("spawn %s: %w", id, err)
		}
		e.agents[id] = a
		e.order = append(e.order, id)
	}

	obs := make(map[string][]float64, len(e.agents))
	for id, a := range e.agents {
		if _, _, err := a.Nav.UpdateLocalization(a.Vehicle); err != nil {
			return nil, fmt.Errorf("initial localization %s: %w", id, err)
		}
		obs[id] = a.Observe()
	}
	e.log.Info("environment reset", "agents", len(e.agents), "blocks", len(m.Blocks))
	return obs, nil
}

func (e *Env) spawnAgent(id string, slot int) (*Agent, error) {
	spawn := e.m.SpawnRoad()
	lanes := spawn.Lanes(e.m.Network)
	laneIdx := slot % len(lanes)
	longitudinal := spawnSpacing * float64(slot/len(lanes))

	v := vehicle.New(PickName(e.rng), math2d.Vec2{}, 0)
	v.PlaceOn(lanes[laneIdx], lane.Index{From: spawn.Start, To: spawn.End, Lane: laneIdx}, longitudinal)

	nav := navigation.NewNavigator(e.world, e.cfg.Nav,
		navigation.WithLogger(e.log), e.sinkOption(id))
	if err := nav.Update(e.m, v.LaneIndex, "", e.cfg.Seed+int64(slot)); err != nil {
		return nil, err
	}
	return &Agent{ID: id, Vehicle: v, Nav: nav, slot: slot}, nil
}

func (e *Env) sinkOption(id string) navigation.Option {
	if s, ok := e.sinks[id]; ok {
		return navigation.WithMarkerSink(s)
	}
	return func(*navigation.Navigator) {}
}

// Step advances every agent by one tick. Missing actions default to coasting.
func (e *Env) Step(actions map[string]Action) (map[string]StepResult, error) {
	if e.m == nil {
		return nil, fmt.Errorf("sim: Step before Reset")
	}
	e.steps++
	results := make(map[string]StepResult, len(e.agents))

	for _, id := range e.order {
		a := e.agents[id]
		act := actions[id]
		res, err := e.stepAgent(a, act)
		if err != nil {
			return nil, fmt.Errorf("step %s: %w", id, err)
		}
		results[id] = res
	}
	return results, nil
}

func (e *Env) stepAgent(a *Agent, act Action) (StepResult, error) {
	prevLong := a.longitudinal()
	a.Vehicle.Step(act.Steering, act.Acceleration, TickSeconds)

	l, idx, err := a.Nav.UpdateLocalization(a.Vehicle)
	if err != nil {
		return StepResult{}, err
	}
	a.Vehicle.Lane = l
	a.Vehicle.LaneIndex = idx

	res := StepResult{
		Observation: a.Observe(),
		OffLane:     !a.Vehicle.OnLane,
	}
	res.Reward = a.longitudinal() - prevLong
	if res.OffLane {
		res.Reward -= 0.1
	}
	res.Arrived = a.arrived()
	res.Done = res.Arrived || e.steps >= e.cfg.Horizon

	if res.Arrived && e.cfg.AutoRespawn {
		if err := e.respawn(a); err != nil {
			return StepResult{}, err
		}
	}
	return res, nil
}

// respawn puts an agent back on the spawn road with a freshly sampled
// destination, mirroring an episode rejoin.
func (e *Env) respawn(a *Agent) error {
	spawn := e.m.SpawnRoad()
	lanes := spawn.Lanes(e.m.Network)
	laneIdx := a.slot % len(lanes)
	a.Vehicle.Speed = 0
	a.Vehicle.PlaceOn(lanes[laneIdx], lane.Index{From: spawn.Start, To: spawn.End, Lane: laneIdx},
		spawnSpacing*float64(a.slot/len(lanes)))
	if err := a.Nav.Update(e.m, a.Vehicle.LaneIndex, "", e.rng.Int63()); err != nil {
		return err
	}
	_, _, err := a.Nav.UpdateLocalization(a.Vehicle)
	return err
}

// Map returns the current generated map, nil before Reset.
func (e *Env) Map() *mapgen.Map {
	return e.m
}

// Agents returns the live agents keyed by ID.
func (e *Env) Agents() map[string]*Agent {
	return e.agents
}

// AgentOrder returns agent IDs in spawn order.
func (e *Env) AgentOrder() []string {
	return e.order
}

// Steps returns the tick count since the last Reset.
func (e *Env) Steps() int {
	return e.steps
}

// Close destroys all agents' navigation state.
func (e *Env) Close() {
	for _, a := range e.agents {
		a.Nav.Destroy()
	}
	e.agents = nil
}
