package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avirmani/fleet-manager/internal/domain"
	"github.com/avirmani/fleet-manager/internal/geo"
	"github.com/avirmani/fleet-manager/internal/repo"
	"github.com/avirmani/fleet-manager/internal/sequence"
)

// planner is the slice of the sequencer this package needs. Declared here
// so services can be unit-tested with a fake planner.
type planner interface {
	Plan(ctx context.Context, shift domain.Shift, bookings []domain.Booking, office domain.Point) (sequence.Plan, error)
}

// officeAnchorTolerance is the maximum coordinate difference, in decimal
// degrees, under which two routes are considered anchored to the same
// office. Roughly 11 meters at the equator.
const officeAnchorTolerance = 1e-4

// FailedGroup reports one cluster that could not be turned into a route.
type FailedGroup struct {
	BookingIDs []int64
	Reason     string
}

// GenerateResult reports the outcome of a route generation run. Generation
// is per-group transactional: a group that fails to sequence is reported
// here and does not block the others.
type GenerateResult struct {
	Routes              []domain.RouteDetail
	SkippedBookingIDs   []int64
	DiscardedBookingIDs []int64
	Failed              []FailedGroup
}

// StopTimeOverride replaces the planner's estimated times for one booking
// with caller-supplied HH:MM values. StopOrder is only honored in manual
// mode, where the caller owns the visiting sequence.
type StopTimeOverride struct {
	BookingID  int64
	StopOrder  int
	PickupTime string
	DropTime   string
}

// UpdateBookingsParams describes a membership change on one route. With
// Optimize set the planner resequences the full booking set and the route
// aggregates are recomputed; without it the caller's stop orders and times
// are taken as-is and the aggregates stay untouched.
type UpdateBookingsParams struct {
	Add           []int64
	Remove        []int64
	Optimize      bool
	TimeOverrides []StopTimeOverride
}

// RouteService owns the route lifecycle: generation from clusters, reads,
// membership updates, merging, ad hoc creation and deletion.
type RouteService struct {
	store   repo.Storer
	planner planner
}

// NewRouteService constructs a RouteService.
func NewRouteService(store repo.Storer, planner planner) *RouteService {
	return &RouteService{store: store, planner: planner}
}

// newRouteCode mints an opaque route identifier shown to dispatchers and
// printed on manifests.
func newRouteCode() string {
	return "RT-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// officeAnchor returns the shared office-side coordinate of a booking
// group: the first booking that has one.
func officeAnchor(bookings []domain.Booking, dir domain.ShiftDirection) (domain.Point, error) {
	for _, b := range bookings {
		if p, ok := b.OfficeFor(dir); ok {
			return p, nil
		}
	}
	return domain.Point{}, fmt.Errorf("%w: no booking in the group has an office coordinate", domain.ErrValidation)
}

// Generate clusters the unrouted bookings of one tenant, shift and date and
// persists a route per cluster. Each cluster is committed independently so
// one unreachable group does not void the run.
func (s *RouteService) Generate(ctx context.Context, p ClusterParams) (GenerateResult, error) {
	if err := validateClusterParams(p); err != nil {
		return GenerateResult{}, err
	}

	store := s.store.Store()

	shift, err := store.Shifts.GetByID(ctx, p.TenantID, p.ShiftID)
	if err != nil {
		return GenerateResult{}, fmt.Errorf("service.RouteService.Generate: %w", err)
	}
	if !shift.Active {
		return GenerateResult{}, fmt.Errorf("%w: shift %s is inactive", domain.ErrValidation, shift.Code)
	}

	bookings, err := store.Bookings.ListRequests(ctx, p.TenantID, p.ShiftID, p.BookingDate)
	if err != nil {
		return GenerateResult{}, fmt.Errorf("service.RouteService.Generate: %w", err)
	}

	g := geo.GroupBookings(bookings, shift.Direction, p.RadiusKm, p.GroupSize, p.Strict)

	result := GenerateResult{
		SkippedBookingIDs:   bookingIDs(g.Skipped),
		DiscardedBookingIDs: bookingIDs(g.Discarded),
	}

	for _, group := range g.Groups {
		detail, err := s.createRouteForGroup(ctx, shift, p.BookingDate, group, nil, true)
		if err != nil {
			result.Failed = append(result.Failed, FailedGroup{
				BookingIDs: bookingIDs(group),
				Reason:     err.Error(),
			})
			continue
		}
		result.Routes = append(result.Routes, detail)
	}
	return result, nil
}

// createRouteForGroup persists one booking group as a new route, its stops
// and the booking status flips in a single transaction. With optimize the
// group is sequenced by the planner; without it the caller's booking order
// and override times are taken as-is and the aggregates stay zero.
func (s *RouteService) createRouteForGroup(ctx context.Context, shift domain.Shift, date time.Time, group []domain.Booking, overrides []StopTimeOverride, optimize bool) (domain.RouteDetail, error) {
	var plan sequence.Plan
	if optimize {
		office, err := officeAnchor(group, shift.Direction)
		if err != nil {
			return domain.RouteDetail{}, err
		}
		plan, err = s.planner.Plan(ctx, shift, group, office)
		if err != nil {
			return domain.RouteDetail{}, err
		}
	}

	var detail domain.RouteDetail
	err := s.store.WithTx(ctx, func(tx repo.Store) error {
		route, err := tx.Routes.Create(ctx, domain.Route{
			TenantID:             shift.TenantID,
			ShiftID:              shift.ID,
			Code:                 newRouteCode(),
			Status:               domain.RoutePlanned,
			BookingDate:          date,
			EstimatedDistanceKm:  plan.TotalDistanceKm,
			EstimatedTimeMinutes: plan.TotalTimeMinutes,
			BufferMinutes:        plan.BufferMinutes,
		})
		if err != nil {
			return err
		}

		var stops []domain.RouteStop
		if optimize {
			stops, err = planToStops(route.ID, plan, overrides)
		} else {
			stops, err = manualStops(route.ID, nil, bookingIDs(group), overrides)
		}
		if err != nil {
			return err
		}
		if err := tx.RouteStops.InsertAll(ctx, stops); err != nil {
			return err
		}

		if _, err := tx.Bookings.UpdateStatus(ctx, shift.TenantID, bookingIDs(group), domain.BookingScheduled); err != nil {
			return err
		}

		detail = domain.RouteDetail{Route: route, Stops: stops, Bookings: group}
		return nil
	})
	if err != nil {
		return domain.RouteDetail{}, err
	}
	for i := range detail.Bookings {
		detail.Bookings[i].Status = domain.BookingScheduled
	}
	return detail, nil
}

// overridesByBooking validates the clock times in a set of overrides and
// indexes them by booking id.
func overridesByBooking(overrides []StopTimeOverride) (map[int64]StopTimeOverride, error) {
	byBooking := map[int64]StopTimeOverride{}
	for _, o := range overrides {
		if o.PickupTime != "" {
			if _, err := domain.ParseClock(o.PickupTime); err != nil {
				return nil, err
			}
		}
		if o.DropTime != "" {
			if _, err := domain.ParseClock(o.DropTime); err != nil {
				return nil, err
			}
		}
		byBooking[o.BookingID] = o
	}
	return byBooking, nil
}

// planToStops converts a sequencing plan into persistable stop rows,
// applying any manual time overrides.
func planToStops(routeID int64, plan sequence.Plan, overrides []StopTimeOverride) ([]domain.RouteStop, error) {
	byBooking, err := overridesByBooking(overrides)
	if err != nil {
		return nil, err
	}

	stops := make([]domain.RouteStop, 0, len(plan.Stops))
	for _, ps := range plan.Stops {
		st := domain.RouteStop{
			RouteID:                routeID,
			BookingID:              ps.BookingID,
			StopOrder:              ps.StopOrder,
			EstimatedPickupTime:    ps.EstimatedPickupTime,
			EstimatedDropTime:      ps.EstimatedDropTime,
			DistanceFromPreviousKm: ps.DistanceFromPreviousKm,
			CumulativeDistanceKm:   ps.CumulativeDistanceKm,
		}
		if o, ok := byBooking[ps.BookingID]; ok {
			if o.PickupTime != "" {
				st.EstimatedPickupTime = o.PickupTime
			}
			if o.DropTime != "" {
				st.EstimatedDropTime = o.DropTime
			}
		}
		stops = append(stops, st)
	}
	return stops, nil
}

// manualStops builds the stop rows for a manual (unsequenced) change. The
// caller's StopOrder values win; bookings without one keep their current
// position and times, and new bookings append after the existing tail.
// Orders are renumbered contiguously from 1 after sorting.
func manualStops(routeID int64, current []domain.RouteStop, finalIDs []int64, overrides []StopTimeOverride) ([]domain.RouteStop, error) {
	byBooking, err := overridesByBooking(overrides)
	if err != nil {
		return nil, err
	}

	existing := map[int64]domain.RouteStop{}
	for _, st := range current {
		existing[st.BookingID] = st
	}

	stops := make([]domain.RouteStop, 0, len(finalIDs))
	for i, id := range finalIDs {
		st := domain.RouteStop{RouteID: routeID, BookingID: id, StopOrder: len(current) + i + 1}
		if prev, ok := existing[id]; ok {
			st.StopOrder = prev.StopOrder
			st.EstimatedPickupTime = prev.EstimatedPickupTime
			st.EstimatedDropTime = prev.EstimatedDropTime
			st.DistanceFromPreviousKm = prev.DistanceFromPreviousKm
			st.CumulativeDistanceKm = prev.CumulativeDistanceKm
		}
		if o, ok := byBooking[id]; ok {
			if o.StopOrder > 0 {
				st.StopOrder = o.StopOrder
			}
			if o.PickupTime != "" {
				st.EstimatedPickupTime = o.PickupTime
			}
			if o.DropTime != "" {
				st.EstimatedDropTime = o.DropTime
			}
		}
		stops = append(stops, st)
	}

	sort.SliceStable(stops, func(i, j int) bool { return stops[i].StopOrder < stops[j].StopOrder })
	for i := range stops {
		stops[i].StopOrder = i + 1
	}
	return stops, nil
}

// List returns the tenant's routes matching the filter. Always returns a
// non-nil slice so callers can safely range over it.
func (s *RouteService) List(ctx context.Context, tenantID string, f repo.RouteFilter) ([]domain.Route, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenant_id is required", domain.ErrValidation)
	}
	routes, err := s.store.Store().Routes.List(ctx, tenantID, f)
	if err != nil {
		return nil, fmt.Errorf("service.RouteService.List: %w", err)
	}
	if routes == nil {
		return []domain.Route{}, nil
	}
	return routes, nil
}

// Get returns one route with its ordered stops and bookings. A route whose
// shift no longer exists for the tenant is reported as
// domain.ErrDataIntegrity, not as a miss.
func (s *RouteService) Get(ctx context.Context, tenantID string, routeID int64) (domain.RouteDetail, error) {
	store := s.store.Store()

	route, err := store.Routes.GetByID(ctx, tenantID, routeID)
	if err != nil {
		return domain.RouteDetail{}, fmt.Errorf("service.RouteService.Get: %w", err)
	}

	if _, err := store.Shifts.GetByID(ctx, tenantID, route.ShiftID); err != nil {
		if isNotFound(err) {
			return domain.RouteDetail{}, fmt.Errorf("%w: route %s references missing shift %d", domain.ErrDataIntegrity, route.Code, route.ShiftID)
		}
		return domain.RouteDetail{}, fmt.Errorf("service.RouteService.Get: %w", err)
	}

	return s.loadDetail(ctx, store, route)
}

func (s *RouteService) loadDetail(ctx context.Context, store repo.Store, route domain.Route) (domain.RouteDetail, error) {
	stops, err := store.RouteStops.ListByRouteID(ctx, route.ID)
	if err != nil {
		return domain.RouteDetail{}, fmt.Errorf("service.RouteService: %w", err)
	}

	bookings, err := store.Bookings.GetByIDs(ctx, route.TenantID, stopBookingIDs(stops))
	if err != nil {
		return domain.RouteDetail{}, fmt.Errorf("service.RouteService: %w", err)
	}

	return domain.RouteDetail{Route: route, Stops: stops, Bookings: bookings}, nil
}

// UpdateBookings adds and removes bookings on a route, resequences the
// remaining stops (or applies the caller's manual ordering) and flips
// booking statuses. The whole change is one transaction.
func (s *RouteService) UpdateBookings(ctx context.Context, tenantID string, routeID int64, p UpdateBookingsParams) (domain.RouteDetail, error) {
	if len(p.Add) == 0 && len(p.Remove) == 0 && len(p.TimeOverrides) == 0 {
		return domain.RouteDetail{}, fmt.Errorf("%w: nothing to change", domain.ErrValidation)
	}

	var detail domain.RouteDetail
	err := s.store.WithTx(ctx, func(tx repo.Store) error {
		route, err := tx.Routes.GetByIDForUpdate(ctx, tenantID, routeID)
		if err != nil {
			return err
		}
		if !routeEditable(route.Status) {
			return fmt.Errorf("%w: route %s is %s", domain.ErrConflict, route.Code, route.Status)
		}

		shift, err := tx.Shifts.GetByID(ctx, tenantID, route.ShiftID)
		if err != nil {
			if isNotFound(err) {
				return fmt.Errorf("%w: route %s references missing shift %d", domain.ErrDataIntegrity, route.Code, route.ShiftID)
			}
			return err
		}

		stops, err := tx.RouteStops.ListByRouteID(ctx, route.ID)
		if err != nil {
			return err
		}
		current := stopBookingIDs(stops)

		finalIDs, removed, err := applyMembershipChange(current, p.Add, p.Remove)
		if err != nil {
			return err
		}

		moves, err := s.validateAdditions(ctx, tx, tenantID, route, shift, p.Add)
		if err != nil {
			return err
		}

		if len(finalIDs) == 0 {
			// Emptying a route keeps the row; the aggregates zero out and
			// every booking goes back to the pool.
			if err := tx.RouteStops.DeleteByRouteID(ctx, route.ID); err != nil {
				return err
			}
			if err := tx.Routes.UpdateEstimates(ctx, tenantID, route.ID, 0, 0, 0); err != nil {
				return err
			}
			if err := s.releaseBookings(ctx, tx, tenantID, route.ID, removed); err != nil {
				return err
			}
			route, err = tx.Routes.GetByID(ctx, tenantID, route.ID)
			if err != nil {
				return err
			}
			detail = domain.RouteDetail{Route: route, Stops: []domain.RouteStop{}, Bookings: []domain.Booking{}}
			return nil
		}

		// A booking moving in from another route loses its old link first,
		// so it never has two owners.
		for id, donor := range moves {
			if err := tx.RouteStops.RemoveBooking(ctx, donor, id); err != nil {
				return err
			}
		}

		bookings, err := tx.Bookings.GetByIDs(ctx, tenantID, finalIDs)
		if err != nil {
			return err
		}
		if len(bookings) != len(finalIDs) {
			return fmt.Errorf("%w: some bookings do not exist", domain.ErrNotFound)
		}

		var newStops []domain.RouteStop
		if p.Optimize {
			office, err := officeAnchor(bookings, shift.Direction)
			if err != nil {
				return err
			}
			plan, err := s.planner.Plan(ctx, shift, bookings, office)
			if err != nil {
				return err
			}
			newStops, err = planToStops(route.ID, plan, p.TimeOverrides)
			if err != nil {
				return err
			}
			if err := tx.Routes.UpdateEstimates(ctx, tenantID, route.ID, plan.TotalDistanceKm, plan.TotalTimeMinutes, plan.BufferMinutes); err != nil {
				return err
			}
		} else {
			// Manual mode: the caller owns orders and times, aggregates
			// stay as they were.
			newStops, err = manualStops(route.ID, stops, finalIDs, p.TimeOverrides)
			if err != nil {
				return err
			}
		}

		// Delete-then-reinsert keeps stop orders contiguous without a diff.
		if err := tx.RouteStops.DeleteByRouteID(ctx, route.ID); err != nil {
			return err
		}
		if err := tx.RouteStops.InsertAll(ctx, newStops); err != nil {
			return err
		}

		if _, err := tx.Bookings.UpdateStatus(ctx, tenantID, p.Add, domain.BookingScheduled); err != nil {
			return err
		}
		if err := s.releaseBookings(ctx, tx, tenantID, route.ID, removed); err != nil {
			return err
		}

		route, err = tx.Routes.GetByID(ctx, tenantID, route.ID)
		if err != nil {
			return err
		}
		for i := range bookings {
			bookings[i].Status = domain.BookingScheduled
		}
		detail = domain.RouteDetail{Route: route, Stops: newStops, Bookings: bookings}
		return nil
	})
	if err != nil {
		return domain.RouteDetail{}, err
	}
	return detail, nil
}

// validateAdditions checks that every booking being added is eligible:
// exists, matches the route's shift and date, and is either unscheduled or
// attached to another route it can move away from. The returned map holds
// the bookings that currently sit elsewhere, keyed to the donor route id.
func (s *RouteService) validateAdditions(ctx context.Context, tx repo.Store, tenantID string, route domain.Route, shift domain.Shift, add []int64) (map[int64]int64, error) {
	if len(add) == 0 {
		return nil, nil
	}

	bookings, err := tx.Bookings.GetByIDs(ctx, tenantID, add)
	if err != nil {
		return nil, err
	}
	if len(bookings) != len(add) {
		return nil, fmt.Errorf("%w: some bookings to add do not exist", domain.ErrNotFound)
	}

	routed, err := tx.RouteStops.RoutedBookingIDs(ctx, add, route.ID)
	if err != nil {
		return nil, err
	}

	for _, b := range bookings {
		if b.ShiftID != shift.ID {
			return nil, fmt.Errorf("%w: booking %d belongs to a different shift", domain.ErrValidation, b.ID)
		}
		if !sameDate(b.BookingDate, route.BookingDate) {
			return nil, fmt.Errorf("%w: booking %d is for a different date", domain.ErrValidation, b.ID)
		}
		if b.Status != domain.BookingRequest {
			if _, ok := routed[b.ID]; !ok {
				return nil, fmt.Errorf("%w: booking %d is already scheduled", domain.ErrConflict, b.ID)
			}
		}
	}
	return routed, nil
}

// releaseBookings reverts bookings removed from a route to Request and
// clears their OTPs, unless they still sit on another route.
func (s *RouteService) releaseBookings(ctx context.Context, tx repo.Store, tenantID string, routeID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	stillRouted, err := tx.RouteStops.RoutedBookingIDs(ctx, ids, routeID)
	if err != nil {
		return err
	}

	var free []int64
	for _, id := range ids {
		if _, ok := stillRouted[id]; !ok {
			free = append(free, id)
		}
	}
	if _, err := tx.Bookings.UpdateStatus(ctx, tenantID, free, domain.BookingRequest); err != nil {
		return err
	}
	return tx.Bookings.ClearOTPs(ctx, tenantID, free)
}

// Merge combines two or more routes of the same shift, date and office
// anchor into one new route, deleting the originals. Bookings keep their
// Scheduled status throughout.
func (s *RouteService) Merge(ctx context.Context, tenantID string, routeIDs []int64) (domain.RouteDetail, error) {
	ids := dedupIDs(routeIDs)
	if len(ids) < 2 {
		return domain.RouteDetail{}, fmt.Errorf("%w: merge needs at least two distinct routes", domain.ErrValidation)
	}

	var detail domain.RouteDetail
	err := s.store.WithTx(ctx, func(tx repo.Store) error {
		// Lock in id order so concurrent merges cannot deadlock.
		locked := append([]int64(nil), ids...)
		sort.Slice(locked, func(i, j int) bool { return locked[i] < locked[j] })

		routes := map[int64]domain.Route{}
		for _, id := range locked {
			route, err := tx.Routes.GetByIDForUpdate(ctx, tenantID, id)
			if err != nil {
				return err
			}
			if route.Status != domain.RoutePlanned {
				return fmt.Errorf("%w: route %s is %s, only planned routes can merge", domain.ErrConflict, route.Code, route.Status)
			}
			routes[id] = route
		}

		first := routes[ids[0]]
		for _, id := range ids[1:] {
			r := routes[id]
			if r.ShiftID != first.ShiftID {
				return fmt.Errorf("%w: routes span different shifts", domain.ErrConflict)
			}
			if !sameDate(r.BookingDate, first.BookingDate) {
				return fmt.Errorf("%w: routes span different dates", domain.ErrConflict)
			}
		}

		shift, err := tx.Shifts.GetByID(ctx, tenantID, first.ShiftID)
		if err != nil {
			if isNotFound(err) {
				return fmt.Errorf("%w: route %s references missing shift %d", domain.ErrDataIntegrity, first.Code, first.ShiftID)
			}
			return err
		}

		// Collect bookings in caller order, deduplicated, and check every
		// route is anchored to the same office.
		var merged []domain.Booking
		seen := map[int64]bool{}
		var anchor *domain.Point
		for _, id := range ids {
			stops, err := tx.RouteStops.ListByRouteID(ctx, id)
			if err != nil {
				return err
			}
			bookings, err := tx.Bookings.GetByIDs(ctx, tenantID, stopBookingIDs(stops))
			if err != nil {
				return err
			}

			office, err := officeAnchor(bookings, shift.Direction)
			if err != nil {
				return err
			}
			if anchor == nil {
				anchor = &office
			} else if math.Abs(anchor.Lat-office.Lat) > officeAnchorTolerance ||
				math.Abs(anchor.Lon-office.Lon) > officeAnchorTolerance {
				return fmt.Errorf("%w: routes are anchored to different offices", domain.ErrConflict)
			}

			for _, b := range bookings {
				if !seen[b.ID] {
					seen[b.ID] = true
					merged = append(merged, b)
				}
			}
		}

		plan, err := s.planner.Plan(ctx, shift, merged, *anchor)
		if err != nil {
			return err
		}

		for _, id := range locked {
			if err := tx.RouteStops.DeleteByRouteID(ctx, id); err != nil {
				return err
			}
			if err := tx.Routes.Delete(ctx, tenantID, id); err != nil {
				return err
			}
		}

		route, err := tx.Routes.Create(ctx, domain.Route{
			TenantID:             tenantID,
			ShiftID:              shift.ID,
			Code:                 newRouteCode(),
			Status:               domain.RoutePlanned,
			BookingDate:          first.BookingDate,
			EstimatedDistanceKm:  plan.TotalDistanceKm,
			EstimatedTimeMinutes: plan.TotalTimeMinutes,
			BufferMinutes:        plan.BufferMinutes,
		})
		if err != nil {
			return err
		}

		stops, err := planToStops(route.ID, plan, nil)
		if err != nil {
			return err
		}
		if err := tx.RouteStops.InsertAll(ctx, stops); err != nil {
			return err
		}

		detail = domain.RouteDetail{Route: route, Stops: stops, Bookings: merged}
		return nil
	})
	if err != nil {
		return domain.RouteDetail{}, err
	}
	return detail, nil
}

// CreateFromBookingsParams describes an ad hoc route built from explicit
// booking ids rather than a clustering run. Without Optimize the bookings
// are stopped in the order given, with times from TimeOverrides.
type CreateFromBookingsParams struct {
	ShiftID       int64
	BookingDate   time.Time
	BookingIDs    []int64
	Optimize      bool
	TimeOverrides []StopTimeOverride
}

// CreateFromBookings builds a route directly from the given bookings. The
// bookings must share the shift and date; bookings already on another route
// are left attached there as well.
func (s *RouteService) CreateFromBookings(ctx context.Context, tenantID string, p CreateFromBookingsParams) (domain.RouteDetail, error) {
	ids := dedupIDs(p.BookingIDs)
	if len(ids) == 0 {
		return domain.RouteDetail{}, fmt.Errorf("%w: booking_ids is required", domain.ErrValidation)
	}
	if p.ShiftID <= 0 {
		return domain.RouteDetail{}, fmt.Errorf("%w: shift_id is required", domain.ErrValidation)
	}
	if p.BookingDate.IsZero() {
		return domain.RouteDetail{}, fmt.Errorf("%w: booking_date is required", domain.ErrValidation)
	}

	store := s.store.Store()

	shift, err := store.Shifts.GetByID(ctx, tenantID, p.ShiftID)
	if err != nil {
		return domain.RouteDetail{}, fmt.Errorf("service.RouteService.CreateFromBookings: %w", err)
	}

	bookings, err := store.Bookings.GetByIDs(ctx, tenantID, ids)
	if err != nil {
		return domain.RouteDetail{}, fmt.Errorf("service.RouteService.CreateFromBookings: %w", err)
	}
	if len(bookings) != len(ids) {
		return domain.RouteDetail{}, fmt.Errorf("%w: some bookings do not exist", domain.ErrNotFound)
	}
	for _, b := range bookings {
		if b.ShiftID != p.ShiftID {
			return domain.RouteDetail{}, fmt.Errorf("%w: booking %d belongs to a different shift", domain.ErrValidation, b.ID)
		}
		if !sameDate(b.BookingDate, p.BookingDate) {
			return domain.RouteDetail{}, fmt.Errorf("%w: booking %d is for a different date", domain.ErrValidation, b.ID)
		}
	}

	// GetByIDs returns rows ordered by id; in manual mode the caller's
	// listing order is the stop order, so restore it.
	byID := map[int64]domain.Booking{}
	for _, b := range bookings {
		byID[b.ID] = b
	}
	ordered := make([]domain.Booking, 0, len(ids))
	for _, id := range ids {
		ordered = append(ordered, byID[id])
	}

	return s.createRouteForGroup(ctx, shift, p.BookingDate, ordered, p.TimeOverrides, p.Optimize)
}

// Delete removes a route, reverting its bookings to Request unless they
// also sit on another route. Routes that have started or finished cannot be
// deleted.
func (s *RouteService) Delete(ctx context.Context, tenantID string, routeID int64) error {
	err := s.store.WithTx(ctx, func(tx repo.Store) error {
		return s.deleteRoute(ctx, tx, tenantID, routeID)
	})
	if err != nil {
		return err
	}
	return nil
}

func (s *RouteService) deleteRoute(ctx context.Context, tx repo.Store, tenantID string, routeID int64) error {
	route, err := tx.Routes.GetByIDForUpdate(ctx, tenantID, routeID)
	if err != nil {
		return err
	}
	if !routeDeletable(route.Status) {
		return fmt.Errorf("%w: route %s is %s", domain.ErrConflict, route.Code, route.Status)
	}

	stops, err := tx.RouteStops.ListByRouteID(ctx, route.ID)
	if err != nil {
		return err
	}

	if err := tx.RouteStops.DeleteByRouteID(ctx, route.ID); err != nil {
		return err
	}
	if err := s.releaseBookings(ctx, tx, tenantID, route.ID, stopBookingIDs(stops)); err != nil {
		return err
	}
	if route.AssignedEscortID != nil {
		if err := tx.Escorts.SetAvailable(ctx, tenantID, *route.AssignedEscortID, true); err != nil {
			return err
		}
	}
	return tx.Routes.Delete(ctx, tenantID, route.ID)
}

// BulkDeleteResult reports which routes a bulk delete removed and which it
// left alone because of their lifecycle state.
type BulkDeleteResult struct {
	DeletedRouteIDs []int64
	SkippedRouteIDs []int64
}

// BulkDelete removes every deletable route for a tenant and date, optionally
// narrowed to one shift. Started and finished routes are skipped, not
// failed.
func (s *RouteService) BulkDelete(ctx context.Context, tenantID string, date time.Time, shiftID int64) (BulkDeleteResult, error) {
	if date.IsZero() {
		return BulkDeleteResult{}, fmt.Errorf("%w: booking_date is required", domain.ErrValidation)
	}

	var result BulkDeleteResult
	err := s.store.WithTx(ctx, func(tx repo.Store) error {
		routes, err := tx.Routes.List(ctx, tenantID, repo.RouteFilter{BookingDate: date, ShiftID: shiftID})
		if err != nil {
			return err
		}
		for _, route := range routes {
			if !routeDeletable(route.Status) {
				result.SkippedRouteIDs = append(result.SkippedRouteIDs, route.ID)
				continue
			}
			if err := s.deleteRoute(ctx, tx, tenantID, route.ID); err != nil {
				return err
			}
			result.DeletedRouteIDs = append(result.DeletedRouteIDs, route.ID)
		}
		return nil
	})
	if err != nil {
		return BulkDeleteResult{}, err
	}
	return result, nil
}

// routeEditable reports whether booking membership may still change.
func routeEditable(s domain.RouteStatus) bool {
	switch s {
	case domain.RoutePlanned, domain.RouteVendorAssigned, domain.RouteDriverAssigned:
		return true
	}
	return false
}

// routeDeletable matches routeEditable today; kept separate because the
// two rules evolve independently.
func routeDeletable(s domain.RouteStatus) bool {
	return routeEditable(s)
}

func applyMembershipChange(current, add, remove []int64) (final, removed []int64, err error) {
	inCurrent := map[int64]bool{}
	for _, id := range current {
		inCurrent[id] = true
	}

	toRemove := map[int64]bool{}
	for _, id := range remove {
		if !inCurrent[id] {
			return nil, nil, fmt.Errorf("%w: booking %d is not on this route", domain.ErrValidation, id)
		}
		toRemove[id] = true
		removed = append(removed, id)
	}

	for _, id := range add {
		if inCurrent[id] {
			return nil, nil, fmt.Errorf("%w: booking %d is already on this route", domain.ErrValidation, id)
		}
		if toRemove[id] {
			return nil, nil, fmt.Errorf("%w: booking %d appears in both add and remove", domain.ErrValidation, id)
		}
	}

	for _, id := range current {
		if !toRemove[id] {
			final = append(final, id)
		}
	}
	final = append(final, add...)
	return final, removed, nil
}

func stopBookingIDs(stops []domain.RouteStop) []int64 {
	ids := make([]int64, 0, len(stops))
	for _, st := range stops {
		ids = append(ids, st.BookingID)
	}
	return ids
}

func dedupIDs(ids []int64) []int64 {
	seen := map[int64]bool{}
	var out []int64
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func sameDate(a, b time.Time) bool {
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
