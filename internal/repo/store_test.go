package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/avirmani/fleet-manager/internal/domain"
	"github.com/avirmani/fleet-manager/internal/repo"
	"github.com/avirmani/fleet-manager/testutil"
)

const testTenant = "acme"

// newTestStore opens a transaction against the test database and returns a
// Store bound to it. The transaction is rolled back when the test finishes,
// giving free per-test isolation.
func newTestStore(t *testing.T) (repo.Store, pgx.Tx) {
	t.Helper()
	pool := testutil.NewPool(t)

	tx, err := pool.Begin(context.Background())
	require.NoError(t, err, "begin transaction")

	t.Cleanup(func() {
		_ = tx.Rollback(context.Background())
	})

	return repo.NewStore(tx), tx
}

func seedTenant(t *testing.T, tx pgx.Tx) {
	t.Helper()
	_, err := tx.Exec(context.Background(),
		`INSERT INTO tenants (id, name) VALUES ($1, $1)`, testTenant)
	require.NoError(t, err)
}

func seedShift(t *testing.T, tx pgx.Tx, dir domain.ShiftDirection, timeMinutes int) int64 {
	t.Helper()
	var id int64
	err := tx.QueryRow(context.Background(),
		`INSERT INTO shifts (tenant_id, shift_code, log_type, time_minutes)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		testTenant, string(dir)+"-"+domain.FormatClock(timeMinutes), string(dir), timeMinutes).Scan(&id)
	require.NoError(t, err)
	return id
}

func seedBooking(t *testing.T, tx pgx.Tx, shiftID int64, date time.Time, lat, lon float64) int64 {
	t.Helper()
	var id int64
	err := tx.QueryRow(context.Background(),
		`INSERT INTO bookings (
			tenant_id, employee_id, employee_code, shift_id, booking_date,
			pickup_lat, pickup_lon, drop_lat, drop_lon
		) VALUES ($1, 100, 'EMP-100', $2, $3, $4, $5, 12.9716, 77.5946)
		RETURNING id`,
		testTenant, shiftID, date, lat, lon).Scan(&id)
	require.NoError(t, err)
	return id
}

func seedVendor(t *testing.T, tx pgx.Tx) int64 {
	t.Helper()
	var id int64
	err := tx.QueryRow(context.Background(),
		`INSERT INTO vendors (tenant_id, name, vendor_code)
		 VALUES ($1, 'Speedy Cabs', 'SPD') RETURNING id`, testTenant).Scan(&id)
	require.NoError(t, err)
	return id
}

func seedDriver(t *testing.T, tx pgx.Tx, vendorID int64) int64 {
	t.Helper()
	var id int64
	err := tx.QueryRow(context.Background(),
		`INSERT INTO drivers (vendor_id, name, phone)
		 VALUES ($1, 'Ravi', '9000000001') RETURNING id`, vendorID).Scan(&id)
	require.NoError(t, err)
	return id
}

func seedVehicle(t *testing.T, tx pgx.Tx, vendorID int64, driverID *int64) int64 {
	t.Helper()
	var id int64
	err := tx.QueryRow(context.Background(),
		`INSERT INTO vehicles (vendor_id, driver_id, rc_number)
		 VALUES ($1, $2, 'KA-01-AB-1234') RETURNING id`, vendorID, driverID).Scan(&id)
	require.NoError(t, err)
	return id
}

func seedEscort(t *testing.T, tx pgx.Tx, vendorID int64) int64 {
	t.Helper()
	var id int64
	err := tx.QueryRow(context.Background(),
		`INSERT INTO escorts (tenant_id, vendor_id, name, phone)
		 VALUES ($1, $2, 'Asha', '9000000002') RETURNING id`, testTenant, vendorID).Scan(&id)
	require.NoError(t, err)
	return id
}

func bookingDate() time.Time {
	return time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
}
