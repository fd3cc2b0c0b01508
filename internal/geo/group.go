package geo

import "github.com/avirmani/fleet-manager/internal/domain"

// Grouping is the result of clustering a candidate booking set.
type Grouping struct {
	// Groups are the vehicle-sized clusters, each at most groupSize bookings.
	Groups [][]domain.Booking

	// Skipped holds bookings without a usable coordinate on the shift's
	// anchor side. They are never an error; callers surface them so the
	// dispatcher can fix the addresses.
	Skipped []domain.Booking

	// Discarded holds bookings dropped by strict grouping (remainder chunks
	// smaller than groupSize). Reported rather than silently lost.
	Discarded []domain.Booking
}

// GroupBookings partitions bookings into vehicle-sized groups: cluster by
// proximity on the shift's anchor-relevant coordinate, then chunk each
// cluster into groups of groupSize. With strict set, remainder chunks
// smaller than groupSize are discarded instead of returned as smaller
// groups.
//
// Zero bookings with valid coordinates is a non-error "nothing to cluster"
// result: Groups is empty and Skipped holds the input.
func GroupBookings(bookings []domain.Booking, dir domain.ShiftDirection, radiusKm float64, groupSize int, strict bool) Grouping {
	if groupSize < 1 {
		groupSize = 1
	}

	var g Grouping
	var points []domain.Point
	var valid []domain.Booking
	for _, b := range bookings {
		p, ok := b.CoordFor(dir)
		if !ok {
			g.Skipped = append(g.Skipped, b)
			continue
		}
		points = append(points, p)
		valid = append(valid, b)
	}
	if len(valid) == 0 {
		return g
	}

	for _, idx := range Clusters(points, radiusKm) {
		for start := 0; start < len(idx); start += groupSize {
			end := min(start+groupSize, len(idx))
			chunk := make([]domain.Booking, 0, end-start)
			for _, i := range idx[start:end] {
				chunk = append(chunk, valid[i])
			}
			if strict && len(chunk) < groupSize {
				g.Discarded = append(g.Discarded, chunk...)
				continue
			}
			g.Groups = append(g.Groups, chunk)
		}
	}
	return g
}
