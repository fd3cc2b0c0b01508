// Package geo implements the spatial primitives for route generation:
// haversine distance and radius-bounded clustering of bookings.
// It is pure computation with no I/O; the small per-shift candidate sets
// (tens of bookings) make the quadratic linkage scan a non-issue.
package geo

import (
	"math"

	"github.com/avirmani/fleet-manager/internal/domain"
)

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

// Haversine returns the great-circle distance between two points in km.
func Haversine(a, b domain.Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// Clusters partitions points into proximity clusters: two points share a
// cluster when they are connected through a chain of neighbors each within
// radiusKm of the next (single linkage, the behavior of a density scan with
// a minimum cluster size of 1). Returns index groups into points, each group
// preserving input order.
func Clusters(points []domain.Point, radiusKm float64) [][]int {
	n := len(points)
	if n == 0 {
		return nil
	}

	visited := make([]bool, n)
	var clusters [][]int

	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		// Breadth-first expansion over the radius neighborhood.
		visited[i] = true
		member := []int{i}
		for qi := 0; qi < len(member); qi++ {
			cur := member[qi]
			for j := 0; j < n; j++ {
				if visited[j] {
					continue
				}
				if Haversine(points[cur], points[j]) <= radiusKm {
					visited[j] = true
					member = append(member, j)
				}
			}
		}
		sortAscending(member)
		clusters = append(clusters, member)
	}
	return clusters
}

// sortAscending restores input order within a cluster; expansion order
// depends on chain shape, not on booking order.
func sortAscending(idx []int) {
	for i := 1; i < len(idx); i++ {
		for j := i; j > 0 && idx[j] < idx[j-1]; j-- {
			idx[j], idx[j-1] = idx[j-1], idx[j]
		}
	}
}
