package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avirmani/fleet-manager/internal/domain"
	"github.com/avirmani/fleet-manager/internal/repo"
)

func routeFixture(shiftID int64) domain.Route {
	return domain.Route{
		TenantID:             testTenant,
		ShiftID:              shiftID,
		Code:                 "RT-TEST0001",
		Status:               domain.RoutePlanned,
		BookingDate:          bookingDate(),
		EstimatedDistanceKm:  8.5,
		EstimatedTimeMinutes: 26,
		BufferMinutes:        15,
	}
}

func TestRouteRepo_CreateAndGet(t *testing.T) {
	store, tx := newTestStore(t)
	ctx := context.Background()

	seedTenant(t, tx)
	shiftID := seedShift(t, tx, domain.ShiftIn, 9*60)

	created, err := store.Routes.Create(ctx, routeFixture(shiftID))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, domain.RoutePlanned, created.Status)
	assert.Equal(t, 8.5, created.EstimatedDistanceKm)
	assert.Nil(t, created.AssignedVendorID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := store.Routes.GetByID(ctx, testTenant, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Code, got.Code)
	assert.True(t, got.BookingDate.Equal(bookingDate()))
}

func TestRouteRepo_GetByID_NotFound(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Routes.GetByID(context.Background(), testTenant, 424242)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRouteRepo_List_Filters(t *testing.T) {
	store, tx := newTestStore(t)
	ctx := context.Background()

	seedTenant(t, tx)
	morning := seedShift(t, tx, domain.ShiftIn, 9*60)
	evening := seedShift(t, tx, domain.ShiftOut, 18*60)

	r1 := routeFixture(morning)
	r1.Code = "RT-AAAA0001"
	r2 := routeFixture(evening)
	r2.Code = "RT-BBBB0002"

	_, err := store.Routes.Create(ctx, r1)
	require.NoError(t, err)
	_, err = store.Routes.Create(ctx, r2)
	require.NoError(t, err)

	all, err := store.Routes.List(ctx, testTenant, repo.RouteFilter{BookingDate: bookingDate()})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyMorning, err := store.Routes.List(ctx, testTenant, repo.RouteFilter{ShiftID: morning})
	require.NoError(t, err)
	require.Len(t, onlyMorning, 1)
	assert.Equal(t, "RT-AAAA0001", onlyMorning[0].Code)

	planned, err := store.Routes.List(ctx, testTenant, repo.RouteFilter{Status: domain.RoutePlanned})
	require.NoError(t, err)
	assert.Len(t, planned, 2)

	none, err := store.Routes.List(ctx, testTenant, repo.RouteFilter{Status: domain.RouteCompleted})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRouteRepo_AssignmentColumns(t *testing.T) {
	store, tx := newTestStore(t)
	ctx := context.Background()

	seedTenant(t, tx)
	shiftID := seedShift(t, tx, domain.ShiftIn, 9*60)
	vendorID := seedVendor(t, tx)
	driverID := seedDriver(t, tx, vendorID)
	vehicleID := seedVehicle(t, tx, vendorID, &driverID)
	escortID := seedEscort(t, tx, vendorID)

	created, err := store.Routes.Create(ctx, routeFixture(shiftID))
	require.NoError(t, err)

	require.NoError(t, store.Routes.SetVendor(ctx, testTenant, created.ID, vendorID, domain.RouteVendorAssigned))
	require.NoError(t, store.Routes.SetVehicle(ctx, testTenant, created.ID, vehicleID, driverID, domain.RouteDriverAssigned))
	require.NoError(t, store.Routes.SetEscort(ctx, testTenant, created.ID, escortID))

	got, err := store.Routes.GetByID(ctx, testTenant, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RouteDriverAssigned, got.Status)
	require.NotNil(t, got.AssignedVendorID)
	assert.Equal(t, vendorID, *got.AssignedVendorID)
	require.NotNil(t, got.AssignedVehicleID)
	assert.Equal(t, vehicleID, *got.AssignedVehicleID)
	require.NotNil(t, got.AssignedDriverID)
	assert.Equal(t, driverID, *got.AssignedDriverID)
	require.NotNil(t, got.AssignedEscortID)
	assert.Equal(t, escortID, *got.AssignedEscortID)
}

func TestRouteRepo_Delete(t *testing.T) {
	store, tx := newTestStore(t)
	ctx := context.Background()

	seedTenant(t, tx)
	shiftID := seedShift(t, tx, domain.ShiftIn, 9*60)

	created, err := store.Routes.Create(ctx, routeFixture(shiftID))
	require.NoError(t, err)

	require.NoError(t, store.Routes.Delete(ctx, testTenant, created.ID))

	_, err = store.Routes.GetByID(ctx, testTenant, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, store.Routes.Delete(ctx, testTenant, created.ID), domain.ErrNotFound)
}

func TestRouteStopRepo_InsertListDelete(t *testing.T) {
	store, tx := newTestStore(t)
	ctx := context.Background()

	seedTenant(t, tx)
	shiftID := seedShift(t, tx, domain.ShiftIn, 9*60)
	b1 := seedBooking(t, tx, shiftID, bookingDate(), 12.9352, 77.6245)
	b2 := seedBooking(t, tx, shiftID, bookingDate(), 12.9340, 77.6250)

	route, err := store.Routes.Create(ctx, routeFixture(shiftID))
	require.NoError(t, err)

	stops := []domain.RouteStop{
		{RouteID: route.ID, BookingID: b1, StopOrder: 1, EstimatedPickupTime: "08:19", EstimatedDropTime: "08:45", DistanceFromPreviousKm: 0, CumulativeDistanceKm: 0},
		{RouteID: route.ID, BookingID: b2, StopOrder: 2, EstimatedPickupTime: "08:31", EstimatedDropTime: "08:45", DistanceFromPreviousKm: 4, CumulativeDistanceKm: 4},
	}
	require.NoError(t, store.RouteStops.InsertAll(ctx, stops))

	got, err := store.RouteStops.ListByRouteID(ctx, route.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, b1, got[0].BookingID)
	assert.Equal(t, 1, got[0].StopOrder)
	assert.Equal(t, "08:19", got[0].EstimatedPickupTime)
	assert.Equal(t, 4.0, got[1].CumulativeDistanceKm)
	assert.Nil(t, got[0].ActualArrivalTime)

	require.NoError(t, store.RouteStops.DeleteByRouteID(ctx, route.ID))

	got, err = store.RouteStops.ListByRouteID(ctx, route.ID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRouteStopRepo_DuplicateBookingOnRouteRejected(t *testing.T) {
	store, tx := newTestStore(t)
	ctx := context.Background()

	seedTenant(t, tx)
	shiftID := seedShift(t, tx, domain.ShiftIn, 9*60)
	b1 := seedBooking(t, tx, shiftID, bookingDate(), 12.9352, 77.6245)

	route, err := store.Routes.Create(ctx, routeFixture(shiftID))
	require.NoError(t, err)

	err = store.RouteStops.InsertAll(ctx, []domain.RouteStop{
		{RouteID: route.ID, BookingID: b1, StopOrder: 1},
		{RouteID: route.ID, BookingID: b1, StopOrder: 2},
	})

	assert.Error(t, err, "unique (route_id, booking_id) must reject the duplicate")
}

func TestRouteStopRepo_RemoveBookingCompactsOrders(t *testing.T) {
	store, tx := newTestStore(t)
	ctx := context.Background()

	seedTenant(t, tx)
	shiftID := seedShift(t, tx, domain.ShiftIn, 9*60)
	b1 := seedBooking(t, tx, shiftID, bookingDate(), 12.9352, 77.6245)
	b2 := seedBooking(t, tx, shiftID, bookingDate(), 12.9340, 77.6250)
	b3 := seedBooking(t, tx, shiftID, bookingDate(), 12.9330, 77.6260)

	route, err := store.Routes.Create(ctx, routeFixture(shiftID))
	require.NoError(t, err)

	require.NoError(t, store.RouteStops.InsertAll(ctx, []domain.RouteStop{
		{RouteID: route.ID, BookingID: b1, StopOrder: 1},
		{RouteID: route.ID, BookingID: b2, StopOrder: 2},
		{RouteID: route.ID, BookingID: b3, StopOrder: 3},
	}))

	require.NoError(t, store.RouteStops.RemoveBooking(ctx, route.ID, b2))

	got, err := store.RouteStops.ListByRouteID(ctx, route.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, b1, got[0].BookingID)
	assert.Equal(t, 1, got[0].StopOrder)
	assert.Equal(t, b3, got[1].BookingID)
	assert.Equal(t, 2, got[1].StopOrder, "the gap left by the removed stop closes")

	err = store.RouteStops.RemoveBooking(ctx, route.ID, b2)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRouteStopRepo_RoutedBookingIDs(t *testing.T) {
	store, tx := newTestStore(t)
	ctx := context.Background()

	seedTenant(t, tx)
	shiftID := seedShift(t, tx, domain.ShiftIn, 9*60)
	b1 := seedBooking(t, tx, shiftID, bookingDate(), 12.9352, 77.6245)
	b2 := seedBooking(t, tx, shiftID, bookingDate(), 12.9340, 77.6250)

	r1, err := store.Routes.Create(ctx, routeFixture(shiftID))
	require.NoError(t, err)
	other := routeFixture(shiftID)
	other.Code = "RT-CCCC0003"
	r2, err := store.Routes.Create(ctx, other)
	require.NoError(t, err)

	require.NoError(t, store.RouteStops.InsertAll(ctx, []domain.RouteStop{
		{RouteID: r1.ID, BookingID: b1, StopOrder: 1},
		{RouteID: r2.ID, BookingID: b2, StopOrder: 1},
	}))

	routed, err := store.RouteStops.RoutedBookingIDs(ctx, []int64{b1, b2}, 0)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int64{b1: r1.ID, b2: r2.ID}, routed)

	// Excluding r1 hides its membership, the update flow's own route.
	routed, err = store.RouteStops.RoutedBookingIDs(ctx, []int64{b1, b2}, r1.ID)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int64{b2: r2.ID}, routed)
}

func TestShiftRepo_GetByID(t *testing.T) {
	store, tx := newTestStore(t)
	ctx := context.Background()

	seedTenant(t, tx)
	shiftID := seedShift(t, tx, domain.ShiftOut, 18*60)

	got, err := store.Shifts.GetByID(ctx, testTenant, shiftID)
	require.NoError(t, err)
	assert.Equal(t, domain.ShiftOut, got.Direction)
	assert.Equal(t, 18*60, got.TimeMinutes)
	assert.Equal(t, "18:00", got.ClockTime())
	assert.True(t, got.Active)

	_, err = store.Shifts.GetByID(ctx, testTenant, 424242)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEscortRepo_Availability(t *testing.T) {
	store, tx := newTestStore(t)
	ctx := context.Background()

	seedTenant(t, tx)
	vendorID := seedVendor(t, tx)
	escortID := seedEscort(t, tx, vendorID)

	got, err := store.Escorts.GetByID(ctx, testTenant, escortID)
	require.NoError(t, err)
	assert.True(t, got.Available)

	require.NoError(t, store.Escorts.SetAvailable(ctx, testTenant, escortID, false))

	got, err = store.Escorts.GetByID(ctx, testTenant, escortID)
	require.NoError(t, err)
	assert.False(t, got.Available)
}

func TestTenantConfigRepo_MissingRowYieldsZeroPolicy(t *testing.T) {
	store, tx := newTestStore(t)
	ctx := context.Background()

	seedTenant(t, tx)

	cfg, err := store.TenantConfigs.GetConfig(ctx, testTenant)
	require.NoError(t, err)
	assert.Equal(t, testTenant, cfg.TenantID)
	assert.False(t, cfg.LoginBoardingOTP)

	_, err = tx.Exec(ctx,
		`INSERT INTO tenant_configs (tenant_id, login_boarding_otp, logout_deboarding_otp)
		 VALUES ($1, true, true)`, testTenant)
	require.NoError(t, err)

	cfg, err = store.TenantConfigs.GetConfig(ctx, testTenant)
	require.NoError(t, err)
	assert.True(t, cfg.LoginBoardingOTP)
	assert.True(t, cfg.LogoutDeboardingOTP)
	assert.False(t, cfg.LoginDeboardingOTP)
}
