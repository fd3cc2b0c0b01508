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

// BookingRepo defines the persistence operations for Bookings. All reads and
// writes are scoped by tenantID.
type BookingRepo interface {
	// ListRequests returns the unrouted (Request status) bookings for a
	// tenant, shift and date, ordered by id.
	ListRequests(ctx context.Context, tenantID string, shiftID int64, date time.Time) ([]domain.Booking, error)

	// GetByIDs returns the bookings with the given ids, ordered by id.
	// Missing ids are simply absent from the result; callers compare lengths.
	GetByIDs(ctx context.Context, tenantID string, ids []int64) ([]domain.Booking, error)

	// UpdateStatus sets the status of the given bookings. Returns the number
	// of rows changed.
	UpdateStatus(ctx context.Context, tenantID string, ids []int64, status domain.BookingStatus) (int64, error)

	// SetOTPs stores the generated codes on one booking. Nil pointers leave
	// the corresponding slot untouched.
	SetOTPs(ctx context.Context, tenantID string, bookingID int64, boarding, deboarding, escort *string) error

	// ClearOTPs blanks all three OTP slots on the given bookings, used when a
	// booking reverts to Request.
	ClearOTPs(ctx context.Context, tenantID string, ids []int64) error
}

type pgBookingRepo struct {
	db db
}

// NewBookingRepo constructs a BookingRepo backed by the provided db connection.
func NewBookingRepo(db db) BookingRepo {
	return &pgBookingRepo{db: db}
}

const bookingColumns = `
	id, tenant_id, employee_id, employee_code, shift_id, booking_date,
	pickup_lat, pickup_lon, pickup_location, drop_lat, drop_lon, drop_location,
	status, reason, boarding_otp, deboarding_otp, escort_otp,
	created_at, updated_at`

func (r *pgBookingRepo) ListRequests(ctx context.Context, tenantID string, shiftID int64, date time.Time) ([]domain.Booking, error) {
	q := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE tenant_id = @tenant_id
		  AND shift_id = @shift_id
		  AND booking_date = @booking_date
		  AND status = @status
		ORDER BY id`

	args := pgx.NamedArgs{
		"tenant_id":    tenantID,
		"shift_id":     shiftID,
		"booking_date": date,
		"status":       domain.BookingRequest,
	}

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.BookingRepo.ListRequests: %w", err)
	}
	defer rows.Close()

	bookings, err := collectBookings(rows)
	if err != nil {
		return nil, fmt.Errorf("repo.BookingRepo.ListRequests: %w", err)
	}
	return bookings, nil
}

func (r *pgBookingRepo) GetByIDs(ctx context.Context, tenantID string, ids []int64) ([]domain.Booking, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE tenant_id = @tenant_id AND id = ANY(@ids)
		ORDER BY id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"tenant_id": tenantID, "ids": ids})
	if err != nil {
		return nil, fmt.Errorf("repo.BookingRepo.GetByIDs: %w", err)
	}
	defer rows.Close()

	bookings, err := collectBookings(rows)
	if err != nil {
		return nil, fmt.Errorf("repo.BookingRepo.GetByIDs: %w", err)
	}
	return bookings, nil
}

func (r *pgBookingRepo) UpdateStatus(ctx context.Context, tenantID string, ids []int64, status domain.BookingStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	const q = `
		UPDATE bookings
		SET status = @status, updated_at = now()
		WHERE tenant_id = @tenant_id AND id = ANY(@ids)`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"tenant_id": tenantID, "ids": ids, "status": status})
	if err != nil {
		return 0, fmt.Errorf("repo.BookingRepo.UpdateStatus: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *pgBookingRepo) SetOTPs(ctx context.Context, tenantID string, bookingID int64, boarding, deboarding, escort *string) error {
	const q = `
		UPDATE bookings
		SET boarding_otp   = COALESCE(@boarding, boarding_otp),
		    deboarding_otp = COALESCE(@deboarding, deboarding_otp),
		    escort_otp     = COALESCE(@escort, escort_otp),
		    updated_at     = now()
		WHERE tenant_id = @tenant_id AND id = @id`

	args := pgx.NamedArgs{
		"tenant_id":  tenantID,
		"id":         bookingID,
		"boarding":   boarding,
		"deboarding": deboarding,
		"escort":     escort,
	}

	tag, err := r.db.Exec(ctx, q, args)
	if err != nil {
		return fmt.Errorf("repo.BookingRepo.SetOTPs: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.BookingRepo.SetOTPs: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgBookingRepo) ClearOTPs(ctx context.Context, tenantID string, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	const q = `
		UPDATE bookings
		SET boarding_otp = NULL, deboarding_otp = NULL, escort_otp = NULL,
		    updated_at = now()
		WHERE tenant_id = @tenant_id AND id = ANY(@ids)`

	if _, err := r.db.Exec(ctx, q, pgx.NamedArgs{"tenant_id": tenantID, "ids": ids}); err != nil {
		return fmt.Errorf("repo.BookingRepo.ClearOTPs: %w", err)
	}
	return nil
}

func collectBookings(rows pgx.Rows) ([]domain.Booking, error) {
	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return bookings, nil
}

// scanBooking maps a row into a domain.Booking, folding the nullable
// coordinate pairs into *Point values.
func scanBooking(s scanner) (domain.Booking, error) {
	var (
		b                                domain.Booking
		pickupLat, pickupLon             pgtype.Float8
		dropLat, dropLon                 pgtype.Float8
		reason                           pgtype.Text
		boarding, deboarding, escortCode pgtype.Text
		date                             pgtype.Date
	)

	err := s.Scan(
		&b.ID, &b.TenantID, &b.EmployeeID, &b.EmployeeCode, &b.ShiftID, &date,
		&pickupLat, &pickupLon, &b.PickupAddr, &dropLat, &dropLon, &b.DropAddr,
		&b.Status, &reason, &boarding, &deboarding, &escortCode,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Booking{}, domain.ErrNotFound
		}
		return domain.Booking{}, err
	}

	b.BookingDate = date.Time
	if pickupLat.Valid && pickupLon.Valid {
		b.Pickup = &domain.Point{Lat: pickupLat.Float64, Lon: pickupLon.Float64}
	}
	if dropLat.Valid && dropLon.Valid {
		b.Drop = &domain.Point{Lat: dropLat.Float64, Lon: dropLon.Float64}
	}
	b.Reason = reason.String
	if boarding.Valid {
		b.BoardingOTP = &boarding.String
	}
	if deboarding.Valid {
		b.DeboardingOTP = &deboarding.String
	}
	if escortCode.Valid {
		b.EscortOTP = &escortCode.String
	}
	return b, nil
}
