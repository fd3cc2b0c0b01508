// Package sequence turns a clustered booking group into an ordered,
// time-annotated stop plan using a road-routing provider.
//
// IN shifts plan backwards: the office arrival deadline is the shift time
// minus a safety buffer, and each pickup time is derived by walking the
// optimized legs back from the office. OUT shifts plan forwards from the
// shift departure time; the provider is asked for a round trip so the legs
// stay anchored on the office, but the closing return leg carries no
// passenger and is excluded from stop ETAs and route totals.
package sequence

import (
	"context"
	"fmt"
	"math"

	"github.com/avirmani/fleet-manager/internal/domain"
	"github.com/avirmani/fleet-manager/internal/geo"
	"github.com/avirmani/fleet-manager/internal/routing"
)

const (
	// DefaultBufferMinutes is subtracted from an IN shift's deadline so the
	// vehicle reaches the office ahead of the shift start.
	DefaultBufferMinutes = 15

	// DefaultPerStopMinutes is the boarding/alighting handling time added
	// per intermediate stop.
	DefaultPerStopMinutes = 2

	// maxStopDistanceKm bounds how far a stop may be from the office anchor.
	// Anything beyond it is treated as a data entry error, not a long route.
	maxStopDistanceKm = 500
)

// Stop is one planned visit in booking order of travel.
type Stop struct {
	BookingID              int64
	Point                  domain.Point
	StopOrder              int
	EstimatedPickupTime    string
	EstimatedDropTime      string
	DistanceFromPreviousKm float64
	CumulativeDistanceKm   float64
}

// Plan is the full sequencing result for one vehicle group.
type Plan struct {
	Stops            []Stop
	TotalDistanceKm  float64
	TotalTimeMinutes float64
	BufferMinutes    int
}

// Sequencer plans stop orders and times through a routing provider.
type Sequencer struct {
	provider       routing.Provider
	bufferMinutes  int
	perStopMinutes int
}

// New builds a Sequencer with the default buffer and handling times.
func New(p routing.Provider) *Sequencer {
	return &Sequencer{
		provider:       p,
		bufferMinutes:  DefaultBufferMinutes,
		perStopMinutes: DefaultPerStopMinutes,
	}
}

// Plan sequences bookings for a shift. office is the shared office-side
// anchor; shift.TimeMinutes is the arrival deadline (IN) or the departure
// time (OUT). Every booking must carry a coordinate on the shift's anchor
// side.
func (s *Sequencer) Plan(ctx context.Context, shift domain.Shift, bookings []domain.Booking, office domain.Point) (Plan, error) {
	if len(bookings) == 0 {
		return Plan{}, fmt.Errorf("%w: no bookings to sequence", domain.ErrValidation)
	}

	points := make([]domain.Point, len(bookings))
	for i, b := range bookings {
		p, ok := b.CoordFor(shift.Direction)
		if !ok {
			return Plan{}, fmt.Errorf("%w: booking %d has no %s coordinate", domain.ErrValidation, b.ID, shift.Direction)
		}
		if d := geo.Haversine(p, office); d > maxStopDistanceKm {
			return Plan{}, fmt.Errorf("%w: booking %d is %.0f km from office", domain.ErrValidation, b.ID, d)
		}
		points[i] = p
	}

	if shift.Direction == domain.ShiftIn {
		return s.planPickups(ctx, shift, bookings, points, office)
	}
	return s.planDrops(ctx, shift, bookings, points, office)
}

// farthest returns the index of the point with the greatest haversine
// distance from office.
func farthest(points []domain.Point, office domain.Point) int {
	best, bestDist := 0, -1.0
	for i, p := range points {
		if d := geo.Haversine(p, office); d > bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func legMinutes(l routing.Leg) float64 {
	return math.Round(l.DurationSeconds / 60)
}

func legKm(l routing.Leg) float64 {
	return l.DistanceMeters / 1000
}

// planPickups handles IN shifts. The farthest pickup is the route origin
// and the office is the destination; times run backwards from the office
// arrival deadline.
func (s *Sequencer) planPickups(ctx context.Context, shift domain.Shift, bookings []domain.Booking, points []domain.Point, office domain.Point) (Plan, error) {
	origin := farthest(points, office)

	var waypoints []domain.Point
	var waypointIdx []int
	for i := range points {
		if i == origin {
			continue
		}
		waypoints = append(waypoints, points[i])
		waypointIdx = append(waypointIdx, i)
	}

	res, err := s.provider.Optimize(ctx, routing.OptimizeRequest{
		Origin:      points[origin],
		Destination: office,
		Waypoints:   waypoints,
	})
	if err != nil {
		return Plan{}, err
	}
	if len(res.WaypointOrder) != len(waypoints) || len(res.Legs) != len(waypoints)+1 {
		return Plan{}, fmt.Errorf("%w: provider returned %d order entries and %d legs for %d waypoints", domain.ErrNoRoute, len(res.WaypointOrder), len(res.Legs), len(waypoints))
	}

	// Booking indexes in travel order: origin first, then optimized waypoints.
	order := []int{origin}
	for _, wi := range res.WaypointOrder {
		order = append(order, waypointIdx[wi])
	}

	deadline := shift.TimeMinutes - s.bufferMinutes
	n := len(order)

	// Walk backwards from the office: the last pickup leaves just in time
	// for the final leg, each earlier pickup adds its leg plus handling.
	pickupAt := make([]int, n)
	pickupAt[n-1] = deadline - int(legMinutes(res.Legs[n-1]))
	for i := n - 2; i >= 0; i-- {
		pickupAt[i] = pickupAt[i+1] - s.perStopMinutes - int(legMinutes(res.Legs[i]))
	}

	plan := Plan{BufferMinutes: s.bufferMinutes}
	cumulative := 0.0
	for i, bi := range order {
		var fromPrev float64
		if i > 0 {
			fromPrev = legKm(res.Legs[i-1])
		}
		cumulative += fromPrev
		plan.Stops = append(plan.Stops, Stop{
			BookingID:              bookings[bi].ID,
			Point:                  points[bi],
			StopOrder:              i + 1,
			EstimatedPickupTime:    domain.FormatClock(pickupAt[i]),
			EstimatedDropTime:      domain.FormatClock(deadline),
			DistanceFromPreviousKm: fromPrev,
			CumulativeDistanceKm:   cumulative,
		})
	}

	for _, l := range res.Legs {
		plan.TotalDistanceKm += legKm(l)
	}
	plan.TotalTimeMinutes = float64(deadline - pickupAt[0])
	return plan, nil
}

// planDrops handles OUT shifts. The office is the origin and every drop is
// a waypoint on a round trip; times run forwards from the shift departure.
// The return-to-office leg closes the loop for the provider but is nobody's
// ride, so it contributes nothing to ETAs or totals.
func (s *Sequencer) planDrops(ctx context.Context, shift domain.Shift, bookings []domain.Booking, points []domain.Point, office domain.Point) (Plan, error) {
	res, err := s.provider.Optimize(ctx, routing.OptimizeRequest{
		Origin:    office,
		Waypoints: points,
		RoundTrip: true,
	})
	if err != nil {
		return Plan{}, err
	}
	if len(res.WaypointOrder) != len(points) || len(res.Legs) != len(points)+1 {
		return Plan{}, fmt.Errorf("%w: provider returned %d order entries and %d legs for %d waypoints", domain.ErrNoRoute, len(res.WaypointOrder), len(res.Legs), len(points))
	}

	order := append([]int(nil), res.WaypointOrder...)

	start := shift.TimeMinutes
	n := len(order)

	dropAt := make([]int, n)
	dropAt[0] = start + int(legMinutes(res.Legs[0]))
	for i := 1; i < n; i++ {
		dropAt[i] = dropAt[i-1] + s.perStopMinutes + int(legMinutes(res.Legs[i]))
	}

	plan := Plan{BufferMinutes: s.bufferMinutes}
	cumulative := 0.0
	for i, bi := range order {
		fromPrev := legKm(res.Legs[i])
		cumulative += fromPrev
		plan.Stops = append(plan.Stops, Stop{
			BookingID:              bookings[bi].ID,
			Point:                  points[bi],
			StopOrder:              i + 1,
			EstimatedPickupTime:    domain.FormatClock(start),
			EstimatedDropTime:      domain.FormatClock(dropAt[i]),
			DistanceFromPreviousKm: fromPrev,
			CumulativeDistanceKm:   cumulative,
		})
	}

	for _, l := range res.Legs[:n] {
		plan.TotalDistanceKm += legKm(l)
	}
	plan.TotalTimeMinutes = float64(dropAt[n-1] - start)
	return plan, nil
}
