package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/avirmani/fleet-manager/internal/domain"
)

// RouteFilter narrows List. Zero values mean "no filter on this field".
type RouteFilter struct {
	ShiftID     int64
	BookingDate time.Time
	Status      domain.RouteStatus
}

// RouteRepo defines the persistence operations for Routes. All operations
// are scoped by tenantID.
type RouteRepo interface {
	// Create inserts a new route and returns the persisted record.
	Create(ctx context.Context, route domain.Route) (domain.Route, error)

	// GetByID retrieves a route. Returns domain.ErrNotFound if no route with
	// that id exists for the tenant.
	GetByID(ctx context.Context, tenantID string, id int64) (domain.Route, error)

	// GetByIDForUpdate retrieves a route with a row lock, serializing
	// concurrent assignment attempts. Only meaningful inside a transaction.
	GetByIDForUpdate(ctx context.Context, tenantID string, id int64) (domain.Route, error)

	// List returns routes matching the filter, newest first.
	List(ctx context.Context, tenantID string, f RouteFilter) ([]domain.Route, error)

	// UpdateEstimates overwrites the sequencing outputs on a route.
	UpdateEstimates(ctx context.Context, tenantID string, id int64, distanceKm, timeMinutes float64, bufferMinutes int) error

	// SetVendor records the vendor assignment and status.
	SetVendor(ctx context.Context, tenantID string, id, vendorID int64, status domain.RouteStatus) error

	// SetVehicle records the vehicle and driver assignment and status.
	SetVehicle(ctx context.Context, tenantID string, id, vehicleID, driverID int64, status domain.RouteStatus) error

	// SetEscort records the escort assignment.
	SetEscort(ctx context.Context, tenantID string, id, escortID int64) error

	// Delete removes a route. Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, tenantID string, id int64) error
}

type pgRouteRepo struct {
	db db
}

// NewRouteRepo constructs a RouteRepo backed by the provided db connection.
func NewRouteRepo(db db) RouteRepo {
	return &pgRouteRepo{db: db}
}

const routeColumns = `
	id, tenant_id, shift_id, route_code, status, booking_date,
	estimated_distance_km, estimated_time_minutes, buffer_minutes,
	assigned_vendor_id, assigned_vehicle_id, assigned_driver_id, assigned_escort_id,
	created_at, updated_at`

func (r *pgRouteRepo) Create(ctx context.Context, route domain.Route) (domain.Route, error) {
	q := `
		INSERT INTO routes (
			tenant_id, shift_id, route_code, status, booking_date,
			estimated_distance_km, estimated_time_minutes, buffer_minutes
		)
		VALUES (
			@tenant_id, @shift_id, @route_code, @status, @booking_date,
			@estimated_distance_km, @estimated_time_minutes, @buffer_minutes
		)
		RETURNING ` + routeColumns

	args := pgx.NamedArgs{
		"tenant_id":              route.TenantID,
		"shift_id":               route.ShiftID,
		"route_code":             route.Code,
		"status":                 route.Status,
		"booking_date":           route.BookingDate,
		"estimated_distance_km":  route.EstimatedDistanceKm,
		"estimated_time_minutes": route.EstimatedTimeMinutes,
		"buffer_minutes":         route.BufferMinutes,
	}

	result, err := scanRoute(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Route{}, fmt.Errorf("repo.RouteRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgRouteRepo) GetByID(ctx context.Context, tenantID string, id int64) (domain.Route, error) {
	q := `SELECT ` + routeColumns + ` FROM routes WHERE tenant_id = @tenant_id AND id = @id`

	result, err := scanRoute(r.db.QueryRow(ctx, q, pgx.NamedArgs{"tenant_id": tenantID, "id": id}))
	if err != nil {
		return domain.Route{}, fmt.Errorf("repo.RouteRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgRouteRepo) GetByIDForUpdate(ctx context.Context, tenantID string, id int64) (domain.Route, error) {
	q := `SELECT ` + routeColumns + ` FROM routes WHERE tenant_id = @tenant_id AND id = @id FOR UPDATE`

	result, err := scanRoute(r.db.QueryRow(ctx, q, pgx.NamedArgs{"tenant_id": tenantID, "id": id}))
	if err != nil {
		return domain.Route{}, fmt.Errorf("repo.RouteRepo.GetByIDForUpdate: %w", err)
	}
	return result, nil
}

func (r *pgRouteRepo) List(ctx context.Context, tenantID string, f RouteFilter) ([]domain.Route, error) {
	q := `
		SELECT ` + routeColumns + `
		FROM routes
		WHERE tenant_id = @tenant_id
		  AND (@shift_id::bigint = 0 OR shift_id = @shift_id)
		  AND (@booking_date::date IS NULL OR booking_date = @booking_date)
		  AND (@status::text = '' OR status = @status)
		ORDER BY id DESC`

	var date *time.Time
	if !f.BookingDate.IsZero() {
		date = &f.BookingDate
	}
	args := pgx.NamedArgs{
		"tenant_id":    tenantID,
		"shift_id":     f.ShiftID,
		"booking_date": date,
		"status":       string(f.Status),
	}

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.RouteRepo.List: %w", err)
	}
	defer rows.Close()

	var routes []domain.Route
	for rows.Next() {
		rt, err := scanRoute(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.RouteRepo.List: scan: %w", err)
		}
		routes = append(routes, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.RouteRepo.List: rows: %w", err)
	}
	return routes, nil
}

func (r *pgRouteRepo) UpdateEstimates(ctx context.Context, tenantID string, id int64, distanceKm, timeMinutes float64, bufferMinutes int) error {
	const q = `
		UPDATE routes
		SET estimated_distance_km  = @distance,
		    estimated_time_minutes = @time,
		    buffer_minutes         = @buffer,
		    updated_at             = now()
		WHERE tenant_id = @tenant_id AND id = @id`

	args := pgx.NamedArgs{
		"tenant_id": tenantID,
		"id":        id,
		"distance":  distanceKm,
		"time":      timeMinutes,
		"buffer":    bufferMinutes,
	}

	tag, err := r.db.Exec(ctx, q, args)
	if err != nil {
		return fmt.Errorf("repo.RouteRepo.UpdateEstimates: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.RouteRepo.UpdateEstimates: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgRouteRepo) SetVendor(ctx context.Context, tenantID string, id, vendorID int64, status domain.RouteStatus) error {
	const q = `
		UPDATE routes
		SET assigned_vendor_id = @vendor_id, status = @status, updated_at = now()
		WHERE tenant_id = @tenant_id AND id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"tenant_id": tenantID, "id": id, "vendor_id": vendorID, "status": status})
	if err != nil {
		return fmt.Errorf("repo.RouteRepo.SetVendor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.RouteRepo.SetVendor: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgRouteRepo) SetVehicle(ctx context.Context, tenantID string, id, vehicleID, driverID int64, status domain.RouteStatus) error {
	const q = `
		UPDATE routes
		SET assigned_vehicle_id = @vehicle_id,
		    assigned_driver_id  = @driver_id,
		    status              = @status,
		    updated_at          = now()
		WHERE tenant_id = @tenant_id AND id = @id`

	args := pgx.NamedArgs{
		"tenant_id":  tenantID,
		"id":         id,
		"vehicle_id": vehicleID,
		"driver_id":  driverID,
		"status":     status,
	}

	tag, err := r.db.Exec(ctx, q, args)
	if err != nil {
		return fmt.Errorf("repo.RouteRepo.SetVehicle: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.RouteRepo.SetVehicle: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgRouteRepo) SetEscort(ctx context.Context, tenantID string, id, escortID int64) error {
	const q = `
		UPDATE routes
		SET assigned_escort_id = @escort_id, updated_at = now()
		WHERE tenant_id = @tenant_id AND id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"tenant_id": tenantID, "id": id, "escort_id": escortID})
	if err != nil {
		return fmt.Errorf("repo.RouteRepo.SetEscort: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.RouteRepo.SetEscort: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgRouteRepo) Delete(ctx context.Context, tenantID string, id int64) error {
	const q = `DELETE FROM routes WHERE tenant_id = @tenant_id AND id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"tenant_id": tenantID, "id": id})
	if err != nil {
		return fmt.Errorf("repo.RouteRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.RouteRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func scanRoute(s scanner) (domain.Route, error) {
	var (
		rt                             domain.Route
		date                           pgtype.Date
		vendor, vehicle, driver, guard pgtype.Int8
	)

	err := s.Scan(
		&rt.ID, &rt.TenantID, &rt.ShiftID, &rt.Code, &rt.Status, &date,
		&rt.EstimatedDistanceKm, &rt.EstimatedTimeMinutes, &rt.BufferMinutes,
		&vendor, &vehicle, &driver, &guard,
		&rt.CreatedAt, &rt.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Route{}, domain.ErrNotFound
		}
		return domain.Route{}, err
	}

	rt.BookingDate = date.Time
	if vendor.Valid {
		rt.AssignedVendorID = &vendor.Int64
	}
	if vehicle.Valid {
		rt.AssignedVehicleID = &vehicle.Int64
	}
	if driver.Valid {
		rt.AssignedDriverID = &driver.Int64
	}
	if guard.Valid {
		rt.AssignedEscortID = &guard.Int64
	}
	return rt, nil
}
