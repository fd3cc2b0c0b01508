// Package service implements the business logic of the fleet routing
// engine. Services validate input, orchestrate repositories and the
// sequencing planner, and return domain errors for handlers to map.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/avirmani/fleet-manager/internal/domain"
	"github.com/avirmani/fleet-manager/internal/geo"
	"github.com/avirmani/fleet-manager/internal/repo"
)

// ClusterParams selects and shapes a clustering run.
type ClusterParams struct {
	TenantID    string
	ShiftID     int64
	BookingDate time.Time
	RadiusKm    float64
	GroupSize   int
	// Strict discards remainder groups smaller than GroupSize instead of
	// returning them as smaller vehicles.
	Strict bool
}

// ClusterResult is a clustering preview: vehicle-sized groups plus the
// bookings that could not be placed and why.
type ClusterResult struct {
	Shift               domain.Shift
	Groups              [][]domain.Booking
	SkippedBookingIDs   []int64
	DiscardedBookingIDs []int64
}

// ClusterService produces route suggestions by grouping unrouted bookings.
type ClusterService struct {
	store repo.Storer
}

// NewClusterService constructs a ClusterService backed by the provided store.
func NewClusterService(store repo.Storer) *ClusterService {
	return &ClusterService{store: store}
}

// Suggest groups the Request bookings of one tenant, shift and date into
// vehicle-sized clusters without persisting anything. Returns
// domain.ErrNotFound if the shift does not exist for the tenant.
func (s *ClusterService) Suggest(ctx context.Context, p ClusterParams) (ClusterResult, error) {
	if err := validateClusterParams(p); err != nil {
		return ClusterResult{}, err
	}

	store := s.store.Store()

	shift, err := store.Shifts.GetByID(ctx, p.TenantID, p.ShiftID)
	if err != nil {
		return ClusterResult{}, fmt.Errorf("service.ClusterService.Suggest: %w", err)
	}
	if !shift.Active {
		return ClusterResult{}, fmt.Errorf("%w: shift %s is inactive", domain.ErrValidation, shift.Code)
	}

	bookings, err := store.Bookings.ListRequests(ctx, p.TenantID, p.ShiftID, p.BookingDate)
	if err != nil {
		return ClusterResult{}, fmt.Errorf("service.ClusterService.Suggest: %w", err)
	}

	g := geo.GroupBookings(bookings, shift.Direction, p.RadiusKm, p.GroupSize, p.Strict)

	return ClusterResult{
		Shift:               shift,
		Groups:              g.Groups,
		SkippedBookingIDs:   bookingIDs(g.Skipped),
		DiscardedBookingIDs: bookingIDs(g.Discarded),
	}, nil
}

func validateClusterParams(p ClusterParams) error {
	if p.TenantID == "" {
		return fmt.Errorf("%w: tenant_id is required", domain.ErrValidation)
	}
	if p.ShiftID <= 0 {
		return fmt.Errorf("%w: shift_id is required", domain.ErrValidation)
	}
	if p.BookingDate.IsZero() {
		return fmt.Errorf("%w: booking_date is required", domain.ErrValidation)
	}
	if p.RadiusKm <= 0 {
		return fmt.Errorf("%w: radius_km must be positive", domain.ErrValidation)
	}
	if p.GroupSize < 1 {
		return fmt.Errorf("%w: group_size must be at least 1", domain.ErrValidation)
	}
	return nil
}

func bookingIDs(bookings []domain.Booking) []int64 {
	ids := make([]int64, 0, len(bookings))
	for _, b := range bookings {
		ids = append(ids, b.ID)
	}
	return ids
}
