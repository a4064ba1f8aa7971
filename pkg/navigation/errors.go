package navigation

import "errors"

var (
	// ErrNoRouteFound is returned when route planning fails: the shortest
	// path has fewer than 3 nodes, the graph is disconnected, or every
	// destination candidate was exhausted. Fatal to the current spawn; the
	// environment decides whether to respawn.
	ErrNoRouteFound = errors.New("navigation: no route found")

	// ErrInvalidRoute signals the route-length invariant was violated after
	// planning succeeded. This is a programming error, not a map condition.
	ErrInvalidRoute = errors.New("navigation: route must contain more than 2 checkpoints")

	// ErrNoLane is returned when a vehicle has no resolved lane and no
	// fallback is available.
	ErrNoLane = errors.New("navigation: vehicle has no lane")
)
