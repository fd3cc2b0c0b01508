package service_test

import (
	"context"
	"time"

	"github.com/avirmani/fleet-manager/internal/domain"
	"github.com/avirmani/fleet-manager/internal/notify"
	"github.com/avirmani/fleet-manager/internal/repo"
	"github.com/avirmani/fleet-manager/internal/sequence"
)

// Hand-written test doubles for the repo interfaces. Function fields left
// nil return zero values, so each test only wires what it exercises.

type mockBookingRepo struct {
	listRequests func(ctx context.Context, tenantID string, shiftID int64, date time.Time) ([]domain.Booking, error)
	getByIDs     func(ctx context.Context, tenantID string, ids []int64) ([]domain.Booking, error)
	updateStatus func(ctx context.Context, tenantID string, ids []int64, status domain.BookingStatus) (int64, error)
	setOTPs      func(ctx context.Context, tenantID string, bookingID int64, boarding, deboarding, escort *string) error
	clearOTPs    func(ctx context.Context, tenantID string, ids []int64) error
}

var _ repo.BookingRepo = (*mockBookingRepo)(nil)

func (m *mockBookingRepo) ListRequests(ctx context.Context, tenantID string, shiftID int64, date time.Time) ([]domain.Booking, error) {
	if m.listRequests == nil {
		return nil, nil
	}
	return m.listRequests(ctx, tenantID, shiftID, date)
}

func (m *mockBookingRepo) GetByIDs(ctx context.Context, tenantID string, ids []int64) ([]domain.Booking, error) {
	if m.getByIDs == nil {
		return nil, nil
	}
	return m.getByIDs(ctx, tenantID, ids)
}

func (m *mockBookingRepo) UpdateStatus(ctx context.Context, tenantID string, ids []int64, status domain.BookingStatus) (int64, error) {
	if m.updateStatus == nil {
		return int64(len(ids)), nil
	}
	return m.updateStatus(ctx, tenantID, ids, status)
}

func (m *mockBookingRepo) SetOTPs(ctx context.Context, tenantID string, bookingID int64, boarding, deboarding, escort *string) error {
	if m.setOTPs == nil {
		return nil
	}
	return m.setOTPs(ctx, tenantID, bookingID, boarding, deboarding, escort)
}

func (m *mockBookingRepo) ClearOTPs(ctx context.Context, tenantID string, ids []int64) error {
	if m.clearOTPs == nil {
		return nil
	}
	return m.clearOTPs(ctx, tenantID, ids)
}

type mockRouteRepo struct {
	create           func(ctx context.Context, route domain.Route) (domain.Route, error)
	getByID          func(ctx context.Context, tenantID string, id int64) (domain.Route, error)
	getByIDForUpdate func(ctx context.Context, tenantID string, id int64) (domain.Route, error)
	list             func(ctx context.Context, tenantID string, f repo.RouteFilter) ([]domain.Route, error)
	updateEstimates  func(ctx context.Context, tenantID string, id int64, distanceKm, timeMinutes float64, bufferMinutes int) error
	setVendor        func(ctx context.Context, tenantID string, id, vendorID int64, status domain.RouteStatus) error
	setVehicle       func(ctx context.Context, tenantID string, id, vehicleID, driverID int64, status domain.RouteStatus) error
	setEscort        func(ctx context.Context, tenantID string, id, escortID int64) error
	deleteFn         func(ctx context.Context, tenantID string, id int64) error
}

var _ repo.RouteRepo = (*mockRouteRepo)(nil)

func (m *mockRouteRepo) Create(ctx context.Context, route domain.Route) (domain.Route, error) {
	if m.create == nil {
		route.ID = 1
		return route, nil
	}
	return m.create(ctx, route)
}

func (m *mockRouteRepo) GetByID(ctx context.Context, tenantID string, id int64) (domain.Route, error) {
	if m.getByID == nil {
		return domain.Route{ID: id, TenantID: tenantID}, nil
	}
	return m.getByID(ctx, tenantID, id)
}

func (m *mockRouteRepo) GetByIDForUpdate(ctx context.Context, tenantID string, id int64) (domain.Route, error) {
	if m.getByIDForUpdate == nil {
		return domain.Route{ID: id, TenantID: tenantID}, nil
	}
	return m.getByIDForUpdate(ctx, tenantID, id)
}

func (m *mockRouteRepo) List(ctx context.Context, tenantID string, f repo.RouteFilter) ([]domain.Route, error) {
	if m.list == nil {
		return nil, nil
	}
	return m.list(ctx, tenantID, f)
}

func (m *mockRouteRepo) UpdateEstimates(ctx context.Context, tenantID string, id int64, distanceKm, timeMinutes float64, bufferMinutes int) error {
	if m.updateEstimates == nil {
		return nil
	}
	return m.updateEstimates(ctx, tenantID, id, distanceKm, timeMinutes, bufferMinutes)
}

func (m *mockRouteRepo) SetVendor(ctx context.Context, tenantID string, id, vendorID int64, status domain.RouteStatus) error {
	if m.setVendor == nil {
		return nil
	}
	return m.setVendor(ctx, tenantID, id, vendorID, status)
}

func (m *mockRouteRepo) SetVehicle(ctx context.Context, tenantID string, id, vehicleID, driverID int64, status domain.RouteStatus) error {
	if m.setVehicle == nil {
		return nil
	}
	return m.setVehicle(ctx, tenantID, id, vehicleID, driverID, status)
}

func (m *mockRouteRepo) SetEscort(ctx context.Context, tenantID string, id, escortID int64) error {
	if m.setEscort == nil {
		return nil
	}
	return m.setEscort(ctx, tenantID, id, escortID)
}

func (m *mockRouteRepo) Delete(ctx context.Context, tenantID string, id int64) error {
	if m.deleteFn == nil {
		return nil
	}
	return m.deleteFn(ctx, tenantID, id)
}

type mockRouteStopRepo struct {
	insertAll        func(ctx context.Context, stops []domain.RouteStop) error
	listByRouteID    func(ctx context.Context, routeID int64) ([]domain.RouteStop, error)
	deleteByRouteID  func(ctx context.Context, routeID int64) error
	removeBooking    func(ctx context.Context, routeID, bookingID int64) error
	routedBookingIDs func(ctx context.Context, bookingIDs []int64, excludeRouteID int64) (map[int64]int64, error)
}

var _ repo.RouteStopRepo = (*mockRouteStopRepo)(nil)

func (m *mockRouteStopRepo) InsertAll(ctx context.Context, stops []domain.RouteStop) error {
	if m.insertAll == nil {
		return nil
	}
	return m.insertAll(ctx, stops)
}

func (m *mockRouteStopRepo) ListByRouteID(ctx context.Context, routeID int64) ([]domain.RouteStop, error) {
	if m.listByRouteID == nil {
		return nil, nil
	}
	return m.listByRouteID(ctx, routeID)
}

func (m *mockRouteStopRepo) DeleteByRouteID(ctx context.Context, routeID int64) error {
	if m.deleteByRouteID == nil {
		return nil
	}
	return m.deleteByRouteID(ctx, routeID)
}

func (m *mockRouteStopRepo) RemoveBooking(ctx context.Context, routeID, bookingID int64) error {
	if m.removeBooking == nil {
		return nil
	}
	return m.removeBooking(ctx, routeID, bookingID)
}

func (m *mockRouteStopRepo) RoutedBookingIDs(ctx context.Context, bookingIDs []int64, excludeRouteID int64) (map[int64]int64, error) {
	if m.routedBookingIDs == nil {
		return map[int64]int64{}, nil
	}
	return m.routedBookingIDs(ctx, bookingIDs, excludeRouteID)
}

type mockShiftRepo struct {
	getByID func(ctx context.Context, tenantID string, id int64) (domain.Shift, error)
}

var _ repo.ShiftRepo = (*mockShiftRepo)(nil)

func (m *mockShiftRepo) GetByID(ctx context.Context, tenantID string, id int64) (domain.Shift, error) {
	if m.getByID == nil {
		return domain.Shift{}, domain.ErrNotFound
	}
	return m.getByID(ctx, tenantID, id)
}

type mockVendorRepo struct {
	getByID func(ctx context.Context, tenantID string, id int64) (domain.Vendor, error)
}

var _ repo.VendorRepo = (*mockVendorRepo)(nil)

func (m *mockVendorRepo) GetByID(ctx context.Context, tenantID string, id int64) (domain.Vendor, error) {
	if m.getByID == nil {
		return domain.Vendor{}, domain.ErrNotFound
	}
	return m.getByID(ctx, tenantID, id)
}

type mockVehicleRepo struct {
	getByID          func(ctx context.Context, id int64) (domain.Vehicle, error)
	getByIDForUpdate func(ctx context.Context, id int64) (domain.Vehicle, error)
}

var _ repo.VehicleRepo = (*mockVehicleRepo)(nil)

func (m *mockVehicleRepo) GetByID(ctx context.Context, id int64) (domain.Vehicle, error) {
	if m.getByID == nil {
		return domain.Vehicle{}, domain.ErrNotFound
	}
	return m.getByID(ctx, id)
}

func (m *mockVehicleRepo) GetByIDForUpdate(ctx context.Context, id int64) (domain.Vehicle, error) {
	if m.getByIDForUpdate == nil {
		return domain.Vehicle{}, domain.ErrNotFound
	}
	return m.getByIDForUpdate(ctx, id)
}

type mockDriverRepo struct {
	getByID func(ctx context.Context, id int64) (domain.Driver, error)
}

var _ repo.DriverRepo = (*mockDriverRepo)(nil)

func (m *mockDriverRepo) GetByID(ctx context.Context, id int64) (domain.Driver, error) {
	if m.getByID == nil {
		return domain.Driver{}, domain.ErrNotFound
	}
	return m.getByID(ctx, id)
}

type mockEscortRepo struct {
	getByID      func(ctx context.Context, tenantID string, id int64) (domain.Escort, error)
	setAvailable func(ctx context.Context, tenantID string, id int64, available bool) error
}

var _ repo.EscortRepo = (*mockEscortRepo)(nil)

func (m *mockEscortRepo) GetByID(ctx context.Context, tenantID string, id int64) (domain.Escort, error) {
	if m.getByID == nil {
		return domain.Escort{}, domain.ErrNotFound
	}
	return m.getByID(ctx, tenantID, id)
}

func (m *mockEscortRepo) SetAvailable(ctx context.Context, tenantID string, id int64, available bool) error {
	if m.setAvailable == nil {
		return nil
	}
	return m.setAvailable(ctx, tenantID, id, available)
}

type mockTenantConfigRepo struct {
	getConfig func(ctx context.Context, tenantID string) (domain.TenantConfig, error)
}

var _ repo.TenantConfigRepo = (*mockTenantConfigRepo)(nil)

func (m *mockTenantConfigRepo) GetConfig(ctx context.Context, tenantID string) (domain.TenantConfig, error) {
	if m.getConfig == nil {
		return domain.TenantConfig{TenantID: tenantID}, nil
	}
	return m.getConfig(ctx, tenantID)
}

// fakeStorer hands every caller the same Store, and WithTx simply invokes
// fn with it. Transaction semantics are covered by the repo integration
// tests; service unit tests only care about orchestration.
type fakeStorer struct {
	store repo.Store
}

var _ repo.Storer = (*fakeStorer)(nil)

func (f *fakeStorer) Store() repo.Store { return f.store }

func (f *fakeStorer) WithTx(_ context.Context, fn func(repo.Store) error) error {
	return fn(f.store)
}

type mockPlanner struct {
	plan func(ctx context.Context, shift domain.Shift, bookings []domain.Booking, office domain.Point) (sequence.Plan, error)
}

func (m *mockPlanner) Plan(ctx context.Context, shift domain.Shift, bookings []domain.Booking, office domain.Point) (sequence.Plan, error) {
	if m.plan == nil {
		return naivePlan(bookings), nil
	}
	return m.plan(ctx, shift, bookings, office)
}

// naivePlan sequences bookings in input order with one km and five minutes
// between stops. Good enough for orchestration tests.
func naivePlan(bookings []domain.Booking) sequence.Plan {
	plan := sequence.Plan{BufferMinutes: sequence.DefaultBufferMinutes}
	for i, b := range bookings {
		plan.Stops = append(plan.Stops, sequence.Stop{
			BookingID:              b.ID,
			StopOrder:              i + 1,
			EstimatedPickupTime:    domain.FormatClock(8*60 + 5*i),
			EstimatedDropTime:      "09:00",
			DistanceFromPreviousKm: 1,
			CumulativeDistanceKm:   float64(i + 1),
		})
		plan.TotalDistanceKm += 1
		plan.TotalTimeMinutes += 5
	}
	return plan
}

type mockDispatcher struct {
	dispatched [][]notify.Message
}

var _ notify.Dispatcher = (*mockDispatcher)(nil)

func (m *mockDispatcher) Dispatch(msgs []notify.Message) {
	m.dispatched = append(m.dispatched, msgs)
}
