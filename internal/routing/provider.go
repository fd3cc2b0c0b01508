// Package routing defines the road-routing provider port and its Google
// Directions adapter. The sequencer depends only on the Provider interface,
// so tests and alternative providers plug in without touching the planner.
package routing

import (
	"context"

	"github.com/avirmani/fleet-manager/internal/domain"
)

// Leg is one driven segment between consecutive visited points.
type Leg struct {
	DistanceMeters  float64
	DurationSeconds float64
}

// OptimizeRequest asks the provider for the best visiting order of Waypoints
// between a fixed Origin and Destination. RoundTrip routes back to the
// Origin instead; Destination is ignored and the closing leg is included in
// the result.
type OptimizeRequest struct {
	Origin      domain.Point
	Destination domain.Point
	Waypoints   []domain.Point
	RoundTrip   bool
}

// OptimizeResult holds the provider's answer. WaypointOrder is a permutation
// of the request waypoint indexes in optimized visiting order. Legs has
// len(Waypoints)+1 entries: origin to first waypoint, between waypoints in
// optimized order, last waypoint to destination.
type OptimizeResult struct {
	WaypointOrder []int
	Legs          []Leg
}

// Provider computes optimized driving routes. Implementations return
// domain.ErrNoRoute when no viable route exists for the coordinates.
type Provider interface {
	Optimize(ctx context.Context, req OptimizeRequest) (OptimizeResult, error)
}
