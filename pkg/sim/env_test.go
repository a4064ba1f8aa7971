package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.NumAgents = 3
	cfg.Seed = 11
	return cfg
}

func TestResetObservations(t *testing.T) {
	env := NewEnv(testConfig())
	obs, err := env.Reset()
	require.NoError(t, err)

	require.Len(t, obs, 3)
	assert.Equal(t, []string{"agent0", "agent1", "agent2"}, env.AgentOrder())
	assert.NotNil(t, env.Map())
	assert.Zero(t, env.Steps())

	for id, o := range obs {
		require.Lenf(t, o, ObservationDim, "agent %s", id)
		for k, x := range o {
			assert.GreaterOrEqualf(t, x, 0.0, "agent %s element %d", id, k)
			assert.LessOrEqualf(t, x, 1.0, "agent %s element %d", id, k)
		}
	}

	// agents sharing the spawn lane are spaced apart
	a0 := env.Agents()["agent0"]
	a2 := env.Agents()["agent2"]
	assert.Equal(t, a0.Vehicle.LaneIndex.Lane, a2.Vehicle.LaneIndex.Lane)
	assert.Greater(t, a2.Vehicle.Position.Sub(a0.Vehicle.Position).Norm(), 1.0)
}

func TestStepBeforeResetErrors(t *testing.T) {
	env := NewEnv(testConfig())
	_, err := env.Step(nil)
	assert.Error(t, err)
}

func TestStepCoastingByDefault(t *testing.T) {
	env := NewEnv(testConfig())
	_, err := env.Reset()
	require.NoError(t, err)

	before := env.Agents()["agent0"].Vehicle.Position
	results, err := env.Step(map[string]Action{})
	require.NoError(t, err)
	require.Len(t, results, 3)

	res := results["agent0"]
	assert.Equal(t, before, env.Agents()["agent0"].Vehicle.Position)
	assert.Zero(t, res.Reward)
	assert.False(t, res.Done)
	assert.False(t, res.OffLane)
	assert.Equal(t, 1, env.Steps())
}

func TestAutopilotMakesForwardProgress(t *testing.T) {
	env := NewEnv(testConfig())
	_, err := env.Reset()
	require.NoError(t, err)

	a := env.Agents()["agent0"]
	startX := a.Vehicle.Position.X
	prevI, prevJ := a.Nav.Window()
	totalReward := 0.0

	for tick := 0; tick < 300; tick++ {
		actions := make(map[string]Action, 3)
		for _, id := range env.AgentOrder() {
			actions[id] = Autopilot(env.Agents()[id], 10)
		}
		results, err := env.Step(actions)
		require.NoError(t, err)

		res := results["agent0"]
		assert.False(t, res.OffLane, "tick %d", tick)
		require.Len(t, res.Observation, ObservationDim)
		totalReward += res.Reward

		i, j := a.Nav.Window()
		assert.GreaterOrEqual(t, i, prevI, "tick %d", tick)
		assert.GreaterOrEqual(t, j, prevJ, "tick %d", tick)
		prevI, prevJ = i, j
	}

	assert.Greater(t, a.Vehicle.Position.X, startX+20)
	assert.Greater(t, totalReward, 0.0)
	assert.Greater(t, prevJ, 0)
}

func TestHorizonEndsEpisode(t *testing.T) {
	cfg := testConfig()
	cfg.Horizon = 2
	cfg.AutoRespawn = false
	env := NewEnv(cfg)
	_, err := env.Reset()
	require.NoError(t, err)

	results, err := env.Step(nil)
	require.NoError(t, err)
	for _, res := range results {
		assert.False(t, res.Done)
	}

	results, err = env.Step(nil)
	require.NoError(t, err)
	for _, res := range results {
		assert.True(t, res.Done)
		assert.False(t, res.Arrived)
	}
}

func TestResetDeterministic(t *testing.T) {
	env1 := NewEnv(testConfig())
	env2 := NewEnv(testConfig())
	_, err := env1.Reset()
	require.NoError(t, err)
	_, err = env2.Reset()
	require.NoError(t, err)

	require.Equal(t, len(env1.Map().Blocks), len(env2.Map().Blocks))
	for i, b := range env1.Map().Blocks {
		assert.Equal(t, b.ID(), env2.Map().Blocks[i].ID())
	}
	assert.Equal(t,
		env1.Agents()["agent0"].Nav.Checkpoints(),
		env2.Agents()["agent0"].Nav.Checkpoints())
}

func TestObserveBounds(t *testing.T) {
	env := NewEnv(testConfig())
	_, err := env.Reset()
	require.NoError(t, err)

	a := env.Agents()["agent1"]
	a.Vehicle.Speed = 50 // beyond MaxSpeed: observation must still clip
	obs := a.Observe()
	require.Len(t, obs, ObservationDim)
	assert.Equal(t, 1.0, obs[ObservationDim-2])
}

func TestClose(t *testing.T) {
	env := NewEnv(testConfig())
	_, err := env.Reset()
	require.NoError(t, err)

	env.Close()
	assert.Nil(t, env.Agents())
}

func TestPickName(t *testing.T) {
	env := NewEnv(testConfig())
	_, err := env.Reset()
	require.NoError(t, err)

	for _, a := range env.Agents() {
		assert.NotEmpty(t, a.Vehicle.Name)
		assert.NotEmpty(t, a.Vehicle.ID)
	}
}
