package sim

import "math/rand"

// callSigns label agents in logs and the HUD.
var callSigns = []string{
	"Falcon", "Viper", "Comet", "Drifter", "Nomad", "Pacer", "Ranger",
	"Scout", "Swift", "Talon", "Vector", "Zephyr", "Apex", "Bolt",
	"Cruiser", "Dash", "Echo", "Flare", "Glide", "Horizon",
}

// PickName returns a random call sign.
func PickName(rng *rand.Rand) string {
	return callSigns[rng.Intn(len(callSigns))]
}
