package geo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avirmani/fleet-manager/internal/domain"
	"github.com/avirmani/fleet-manager/internal/geo"
)

// Bengaluru test coordinates: two dense neighborhoods ~8 km apart.
var (
	koramangala = []domain.Point{
		{Lat: 12.9352, Lon: 77.6245},
		{Lat: 12.9340, Lon: 77.6250},
		{Lat: 12.9339, Lon: 77.6240},
	}
	malleshwaram = []domain.Point{
		{Lat: 13.0037, Lon: 77.5744},
		{Lat: 13.0040, Lon: 77.5748},
	}
)

func TestHaversine_KnownDistance(t *testing.T) {
	// Bengaluru city center to Kempegowda airport is roughly 32 km
	// great-circle.
	city := domain.Point{Lat: 12.9716, Lon: 77.5946}
	airport := domain.Point{Lat: 13.1986, Lon: 77.7066}

	d := geo.Haversine(city, airport)

	assert.InDelta(t, 28.0, d, 3.0)
}

func TestHaversine_ZeroForSamePoint(t *testing.T) {
	p := domain.Point{Lat: 12.9716, Lon: 77.5946}
	assert.Equal(t, 0.0, geo.Haversine(p, p))
}

func TestClusters_SeparatesDistantNeighborhoods(t *testing.T) {
	points := append(append([]domain.Point{}, koramangala...), malleshwaram...)

	clusters := geo.Clusters(points, 1.0)

	require.Len(t, clusters, 2)
	assert.Equal(t, []int{0, 1, 2}, clusters[0])
	assert.Equal(t, []int{3, 4}, clusters[1])
}

func TestClusters_ChainLinkage(t *testing.T) {
	// Three points in a line, each ~0.9 km from the next; the ends are
	// ~1.8 km apart but still join through the middle point.
	points := []domain.Point{
		{Lat: 12.9000, Lon: 77.6000},
		{Lat: 12.9080, Lon: 77.6000},
		{Lat: 12.9160, Lon: 77.6000},
	}

	clusters := geo.Clusters(points, 1.0)

	require.Len(t, clusters, 1)
	assert.Len(t, clusters[0], 3)
}

func TestClusters_Empty(t *testing.T) {
	assert.Nil(t, geo.Clusters(nil, 1.0))
}

func booking(id int64, p domain.Point) domain.Booking {
	return domain.Booking{
		ID:     id,
		Pickup: &p,
		Drop:   &domain.Point{Lat: 12.9316, Lon: 77.5946},
		Status: domain.BookingRequest,
	}
}

func TestGroupBookings_CoversAllInputs(t *testing.T) {
	// Five bookings, radius 1 km, group size 2, non-strict: every booking
	// must land in exactly one group and at most one group may have size 1.
	bookings := []domain.Booking{
		booking(1, koramangala[0]),
		booking(2, koramangala[1]),
		booking(3, koramangala[2]),
		booking(4, malleshwaram[0]),
		booking(5, malleshwaram[1]),
	}

	g := geo.GroupBookings(bookings, domain.ShiftIn, 1.0, 2, false)

	seen := map[int64]int{}
	singles := 0
	for _, group := range g.Groups {
		require.LessOrEqual(t, len(group), 2)
		if len(group) == 1 {
			singles++
		}
		for _, b := range group {
			seen[b.ID]++
		}
	}
	assert.Len(t, seen, 5, "every booking clustered")
	for id, n := range seen {
		assert.Equalf(t, 1, n, "booking %d appears once", id)
	}
	assert.LessOrEqual(t, singles, 1)
	assert.Empty(t, g.Skipped)
	assert.Empty(t, g.Discarded)
}

func TestGroupBookings_StrictDiscardsRemainder(t *testing.T) {
	bookings := []domain.Booking{
		booking(1, koramangala[0]),
		booking(2, koramangala[1]),
		booking(3, koramangala[2]),
	}

	g := geo.GroupBookings(bookings, domain.ShiftIn, 1.0, 2, true)

	require.Len(t, g.Groups, 1)
	assert.Len(t, g.Groups[0], 2)
	require.Len(t, g.Discarded, 1)
	assert.Equal(t, int64(3), g.Discarded[0].ID)
}

func TestGroupBookings_SkipsMissingCoordinates(t *testing.T) {
	noCoord := domain.Booking{ID: 9, Status: domain.BookingRequest}
	bookings := []domain.Booking{booking(1, koramangala[0]), noCoord}

	g := geo.GroupBookings(bookings, domain.ShiftIn, 1.0, 2, false)

	require.Len(t, g.Groups, 1)
	require.Len(t, g.Skipped, 1)
	assert.Equal(t, int64(9), g.Skipped[0].ID)
}

func TestGroupBookings_NothingToCluster(t *testing.T) {
	g := geo.GroupBookings([]domain.Booking{{ID: 1}}, domain.ShiftOut, 1.0, 2, false)

	assert.Empty(t, g.Groups)
	assert.Len(t, g.Skipped, 1)
}

func TestGroupBookings_OutShiftUsesDropCoordinate(t *testing.T) {
	b := domain.Booking{ID: 1, Drop: &koramangala[0], Status: domain.BookingRequest}

	g := geo.GroupBookings([]domain.Booking{b}, domain.ShiftOut, 1.0, 2, false)

	require.Len(t, g.Groups, 1)
}
