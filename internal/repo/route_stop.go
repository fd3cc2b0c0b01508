package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/avirmani/fleet-manager/internal/domain"
)

// RouteStopRepo defines the persistence operations for route membership rows.
type RouteStopRepo interface {
	// InsertAll inserts the given stops. Stop orders must already be
	// contiguous from 1; the unique constraints reject anything else.
	InsertAll(ctx context.Context, stops []domain.RouteStop) error

	// ListByRouteID returns a route's stops ordered by stop_order.
	ListByRouteID(ctx context.Context, routeID int64) ([]domain.RouteStop, error)

	// DeleteByRouteID removes every stop of a route. Used by the
	// delete-then-reinsert resequencing flow and by route deletion.
	DeleteByRouteID(ctx context.Context, routeID int64) error

	// RemoveBooking deletes one booking's stop from a route and closes the
	// gap so the remaining stop orders stay contiguous. Returns
	// domain.ErrNotFound if the booking is not on the route.
	RemoveBooking(ctx context.Context, routeID, bookingID int64) error

	// RoutedBookingIDs returns which of the given booking ids already sit on
	// any route, mapped to that route's id. Excluding excludeRouteID lets
	// update flows ignore the route being edited; pass 0 to exclude nothing.
	RoutedBookingIDs(ctx context.Context, bookingIDs []int64, excludeRouteID int64) (map[int64]int64, error)
}

type pgRouteStopRepo struct {
	db db
}

// NewRouteStopRepo constructs a RouteStopRepo backed by the provided db connection.
func NewRouteStopRepo(db db) RouteStopRepo {
	return &pgRouteStopRepo{db: db}
}

func (r *pgRouteStopRepo) InsertAll(ctx context.Context, stops []domain.RouteStop) error {
	const q = `
		INSERT INTO route_stops (
			route_id, booking_id, stop_order,
			estimated_pickup_time, estimated_drop_time,
			distance_from_previous_km, cumulative_distance_km
		)
		VALUES (
			@route_id, @booking_id, @stop_order,
			@estimated_pickup_time, @estimated_drop_time,
			@distance_from_previous_km, @cumulative_distance_km
		)`

	for _, st := range stops {
		args := pgx.NamedArgs{
			"route_id":                  st.RouteID,
			"booking_id":                st.BookingID,
			"stop_order":                st.StopOrder,
			"estimated_pickup_time":     st.EstimatedPickupTime,
			"estimated_drop_time":       st.EstimatedDropTime,
			"distance_from_previous_km": st.DistanceFromPreviousKm,
			"cumulative_distance_km":    st.CumulativeDistanceKm,
		}
		if _, err := r.db.Exec(ctx, q, args); err != nil {
			return fmt.Errorf("repo.RouteStopRepo.InsertAll: booking %d: %w", st.BookingID, err)
		}
	}
	return nil
}

func (r *pgRouteStopRepo) ListByRouteID(ctx context.Context, routeID int64) ([]domain.RouteStop, error) {
	const q = `
		SELECT id, route_id, booking_id, stop_order,
		       estimated_pickup_time, estimated_drop_time,
		       distance_from_previous_km, cumulative_distance_km,
		       actual_arrival_time, actual_departure_time, created_at
		FROM route_stops
		WHERE route_id = @route_id
		ORDER BY stop_order`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"route_id": routeID})
	if err != nil {
		return nil, fmt.Errorf("repo.RouteStopRepo.ListByRouteID: %w", err)
	}
	defer rows.Close()

	var stops []domain.RouteStop
	for rows.Next() {
		st, err := scanRouteStop(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.RouteStopRepo.ListByRouteID: scan: %w", err)
		}
		stops = append(stops, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.RouteStopRepo.ListByRouteID: rows: %w", err)
	}
	return stops, nil
}

func (r *pgRouteStopRepo) DeleteByRouteID(ctx context.Context, routeID int64) error {
	const q = `DELETE FROM route_stops WHERE route_id = @route_id`

	if _, err := r.db.Exec(ctx, q, pgx.NamedArgs{"route_id": routeID}); err != nil {
		return fmt.Errorf("repo.RouteStopRepo.DeleteByRouteID: %w", err)
	}
	return nil
}

func (r *pgRouteStopRepo) RemoveBooking(ctx context.Context, routeID, bookingID int64) error {
	const del = `
		DELETE FROM route_stops
		WHERE route_id = @route_id AND booking_id = @booking_id
		RETURNING stop_order`

	var gone int
	err := r.db.QueryRow(ctx, del, pgx.NamedArgs{"route_id": routeID, "booking_id": bookingID}).Scan(&gone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("repo.RouteStopRepo.RemoveBooking: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("repo.RouteStopRepo.RemoveBooking: %w", err)
	}

	// The unique (route_id, stop_order) constraint is checked per row, so
	// the shift passes through negative values instead of decrementing in
	// place.
	const closeGap = `
		UPDATE route_stops
		SET stop_order = -(stop_order - 1)
		WHERE route_id = @route_id AND stop_order > @gone`
	const flip = `
		UPDATE route_stops
		SET stop_order = -stop_order
		WHERE route_id = @route_id AND stop_order < 0`

	if _, err := r.db.Exec(ctx, closeGap, pgx.NamedArgs{"route_id": routeID, "gone": gone}); err != nil {
		return fmt.Errorf("repo.RouteStopRepo.RemoveBooking: close gap: %w", err)
	}
	if _, err := r.db.Exec(ctx, flip, pgx.NamedArgs{"route_id": routeID}); err != nil {
		return fmt.Errorf("repo.RouteStopRepo.RemoveBooking: close gap: %w", err)
	}
	return nil
}

func (r *pgRouteStopRepo) RoutedBookingIDs(ctx context.Context, bookingIDs []int64, excludeRouteID int64) (map[int64]int64, error) {
	if len(bookingIDs) == 0 {
		return map[int64]int64{}, nil
	}
	const q = `
		SELECT booking_id, route_id
		FROM route_stops
		WHERE booking_id = ANY(@booking_ids) AND route_id <> @exclude`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"booking_ids": bookingIDs, "exclude": excludeRouteID})
	if err != nil {
		return nil, fmt.Errorf("repo.RouteStopRepo.RoutedBookingIDs: %w", err)
	}
	defer rows.Close()

	routed := map[int64]int64{}
	for rows.Next() {
		var bookingID, routeID int64
		if err := rows.Scan(&bookingID, &routeID); err != nil {
			return nil, fmt.Errorf("repo.RouteStopRepo.RoutedBookingIDs: scan: %w", err)
		}
		routed[bookingID] = routeID
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.RouteStopRepo.RoutedBookingIDs: rows: %w", err)
	}
	return routed, nil
}

func scanRouteStop(s scanner) (domain.RouteStop, error) {
	var (
		st               domain.RouteStop
		pickup, drop     pgtype.Text
		arrival, departs pgtype.Timestamptz
	)

	err := s.Scan(
		&st.ID, &st.RouteID, &st.BookingID, &st.StopOrder,
		&pickup, &drop,
		&st.DistanceFromPreviousKm, &st.CumulativeDistanceKm,
		&arrival, &departs, &st.CreatedAt,
	)
	if err != nil {
		return domain.RouteStop{}, err
	}

	st.EstimatedPickupTime = pickup.String
	st.EstimatedDropTime = drop.String
	if arrival.Valid {
		st.ActualArrivalTime = &arrival.Time
	}
	if departs.Valid {
		st.ActualDepartureTime = &departs.Time
	}
	return st, nil
}
