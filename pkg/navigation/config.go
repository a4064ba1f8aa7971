package navigation

import "github.com/drivesim/drivesim/pkg/mapgen"

// Defaults for navigation feature extraction. All distances are in world
// length units.
const (
	// InfoDim is the length of the navigation feature vector, split evenly
	// between the two tracked checkpoints.
	InfoDim = 10
	// NaviPointDist caps the magnitude of the vehicle-to-checkpoint vector.
	NaviPointDist = 50.0
	// PreNotifyDist is how far into the far checkpoint's lane its heading is
	// sampled, previewing the upcoming turn.
	PreNotifyDist = 40.0
	// CkptUpdateRange is the longitudinal tolerance for advancing the
	// checkpoint window.
	CkptUpdateRange = 5.0
)

// Config tunes a Navigator. The force-localize flag is explicit per-instance
// state rather than a shared toggle.
type Config struct {
	NaviPointDist   float64
	PreNotifyDist   float64
	CkptUpdateRange float64
	InfoDim         int

	// MaxCurveRadius and MaxCurveAngle normalize curvature features. They
	// match the generator's curve parameter ceiling.
	MaxCurveRadius float64
	MaxCurveAngle  float64

	// ForceLaneLocate enables the expensive full-graph nearest-lane search
	// when ray localization misses.
	ForceLaneLocate bool
}

// DefaultConfig returns the standard feature extraction parameters.
func DefaultConfig() Config {
	return Config{
		NaviPointDist:   NaviPointDist,
		PreNotifyDist:   PreNotifyDist,
		CkptUpdateRange: CkptUpdateRange,
		InfoDim:         InfoDim,
		MaxCurveRadius:  mapgen.CurveRadiusMax,
		MaxCurveAngle:   mapgen.CurveAngleMax,
	}
}
