package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/avirmani/fleet-manager/internal/domain"
	"github.com/avirmani/fleet-manager/internal/notify"
	"github.com/avirmani/fleet-manager/internal/otp"
	"github.com/avirmani/fleet-manager/internal/repo"
)

// AssignService validates and records the vendor, vehicle/driver and escort
// assignments on a route, generating OTPs and firing notifications when the
// vehicle lands.
type AssignService struct {
	store    repo.Storer
	notifier notify.Dispatcher
}

// NewAssignService constructs an AssignService.
func NewAssignService(store repo.Storer, notifier notify.Dispatcher) *AssignService {
	return &AssignService{store: store, notifier: notifier}
}

// AssignVendor attaches a vendor to a planned route, advancing it to
// VendorAssigned. Re-assigning the same vendor is a no-op; a different
// vendor can replace it only while no vehicle is attached.
func (s *AssignService) AssignVendor(ctx context.Context, tenantID string, routeID, vendorID int64) (domain.Route, error) {
	var result domain.Route
	err := s.store.WithTx(ctx, func(tx repo.Store) error {
		route, err := tx.Routes.GetByIDForUpdate(ctx, tenantID, routeID)
		if err != nil {
			return err
		}

		if route.AssignedVendorID != nil && *route.AssignedVendorID == vendorID {
			result = route
			return nil
		}
		if route.AssignedVehicleID != nil {
			return fmt.Errorf("%w: route %s already has a vehicle, unassign it before changing vendor", domain.ErrConflict, route.Code)
		}
		if route.Status != domain.RoutePlanned && route.Status != domain.RouteVendorAssigned {
			return fmt.Errorf("%w: route %s is %s", domain.ErrConflict, route.Code, route.Status)
		}

		vendor, err := tx.Vendors.GetByID(ctx, tenantID, vendorID)
		if err != nil {
			return err
		}
		if !vendor.Active {
			return fmt.Errorf("%w: vendor %s is inactive", domain.ErrValidation, vendor.Code)
		}

		if err := tx.Routes.SetVendor(ctx, tenantID, route.ID, vendorID, domain.RouteVendorAssigned); err != nil {
			return err
		}

		result, err = tx.Routes.GetByID(ctx, tenantID, route.ID)
		return err
	})
	if err != nil {
		return domain.Route{}, err
	}
	return result, nil
}

// AssignVehicle attaches a vehicle (and its linked driver) to a route whose
// vendor is already set, advancing it to DriverAssigned. The attached
// bookings get their OTPs generated per tenant policy and the employees are
// notified. Re-assigning the identical vehicle and driver pair is a no-op
// and does not regenerate OTPs; the same vehicle with a swapped driver
// re-arms the route.
func (s *AssignService) AssignVehicle(ctx context.Context, tenantID string, routeID, vehicleID int64) (domain.Route, error) {
	var (
		result domain.Route
		msgs   []notify.Message
	)
	err := s.store.WithTx(ctx, func(tx repo.Store) error {
		route, err := tx.Routes.GetByIDForUpdate(ctx, tenantID, routeID)
		if err != nil {
			return err
		}

		if route.AssignedVendorID == nil {
			return fmt.Errorf("%w: route %s has no vendor, assign one first", domain.ErrConflict, route.Code)
		}
		if route.Status != domain.RouteVendorAssigned && route.Status != domain.RouteDriverAssigned {
			return fmt.Errorf("%w: route %s is %s", domain.ErrConflict, route.Code, route.Status)
		}

		vehicle, err := tx.Vehicles.GetByIDForUpdate(ctx, vehicleID)
		if err != nil {
			return err
		}

		if route.AssignedVehicleID != nil && *route.AssignedVehicleID == vehicleID &&
			route.AssignedDriverID != nil && vehicle.DriverID != nil &&
			*route.AssignedDriverID == *vehicle.DriverID {
			result = route
			return nil
		}

		if vehicle.VendorID != *route.AssignedVendorID {
			return fmt.Errorf("%w: vehicle %s belongs to a different vendor", domain.ErrConflict, vehicle.Registration)
		}
		if !vehicle.Active {
			return fmt.Errorf("%w: vehicle %s is inactive", domain.ErrValidation, vehicle.Registration)
		}
		if vehicle.DriverID == nil {
			return fmt.Errorf("%w: vehicle %s has no driver linked", domain.ErrConflict, vehicle.Registration)
		}

		driver, err := tx.Drivers.GetByID(ctx, *vehicle.DriverID)
		if err != nil {
			return err
		}
		if !driver.Active {
			return fmt.Errorf("%w: driver %s is inactive", domain.ErrValidation, driver.Name)
		}
		if driver.VendorID != *route.AssignedVendorID {
			return fmt.Errorf("%w: driver %s belongs to a different vendor", domain.ErrConflict, driver.Name)
		}

		if err := tx.Routes.SetVehicle(ctx, tenantID, route.ID, vehicle.ID, driver.ID, domain.RouteDriverAssigned); err != nil {
			return err
		}

		msgs, err = s.armBookings(ctx, tx, tenantID, route, vehicle, driver)
		if err != nil {
			return err
		}

		result, err = tx.Routes.GetByID(ctx, tenantID, route.ID)
		return err
	})
	if err != nil {
		return domain.Route{}, err
	}

	if len(msgs) > 0 {
		s.notifier.Dispatch(msgs)
	}
	return result, nil
}

// armBookings generates the OTP codes for every booking on the route per
// the tenant's policy and builds the notification batch.
func (s *AssignService) armBookings(ctx context.Context, tx repo.Store, tenantID string, route domain.Route, vehicle domain.Vehicle, driver domain.Driver) ([]notify.Message, error) {
	shift, err := tx.Shifts.GetByID(ctx, tenantID, route.ShiftID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: route %s references missing shift %d", domain.ErrDataIntegrity, route.Code, route.ShiftID)
		}
		return nil, err
	}

	cfg, err := tx.TenantConfigs.GetConfig(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	stops, err := tx.RouteStops.ListByRouteID(ctx, route.ID)
	if err != nil {
		return nil, err
	}
	bookings, err := tx.Bookings.GetByIDs(ctx, tenantID, stopBookingIDs(stops))
	if err != nil {
		return nil, err
	}

	escortAttached := route.AssignedEscortID != nil
	slots := otp.Required(shift.Direction, cfg, escortAttached)

	var msgs []notify.Message
	for _, b := range bookings {
		var boarding, deboarding, escortCode *string
		for _, slot := range slots {
			code := otp.Code()
			switch slot {
			case otp.SlotBoarding:
				boarding = &code
			case otp.SlotDeboarding:
				deboarding = &code
			case otp.SlotEscort:
				escortCode = &code
			}
		}
		if boarding != nil || deboarding != nil || escortCode != nil {
			if err := tx.Bookings.SetOTPs(ctx, tenantID, b.ID, boarding, deboarding, escortCode); err != nil {
				return nil, err
			}
		}

		msgs = append(msgs, notify.Message{
			TenantID:     tenantID,
			RouteCode:    route.Code,
			EmployeeID:   b.EmployeeID,
			EmployeeCode: b.EmployeeCode,
			Body: fmt.Sprintf("Route %s: vehicle %s with driver %s (%s) assigned for your %s shift",
				route.Code, vehicle.Registration, driver.Name, driver.Phone, shift.ClockTime()),
		})
	}
	return msgs, nil
}

// AssignEscort attaches a safety escort to a route and reserves them,
// independently of the vendor chain. A previously attached escort is
// released. If the route already has its vehicle, the escort OTPs are
// generated immediately.
func (s *AssignService) AssignEscort(ctx context.Context, tenantID string, routeID, escortID int64) (domain.Route, error) {
	var result domain.Route
	err := s.store.WithTx(ctx, func(tx repo.Store) error {
		route, err := tx.Routes.GetByIDForUpdate(ctx, tenantID, routeID)
		if err != nil {
			return err
		}

		if route.AssignedEscortID != nil && *route.AssignedEscortID == escortID {
			result = route
			return nil
		}
		if !routeEditable(route.Status) {
			return fmt.Errorf("%w: route %s is %s", domain.ErrConflict, route.Code, route.Status)
		}

		escort, err := tx.Escorts.GetByID(ctx, tenantID, escortID)
		if err != nil {
			return err
		}
		if !escort.Active {
			return fmt.Errorf("%w: escort %s is inactive", domain.ErrValidation, escort.Name)
		}
		if !escort.Available {
			return fmt.Errorf("%w: escort %s is already reserved", domain.ErrConflict, escort.Name)
		}

		previous := route.AssignedEscortID

		if err := tx.Routes.SetEscort(ctx, tenantID, route.ID, escortID); err != nil {
			return err
		}
		if err := tx.Escorts.SetAvailable(ctx, tenantID, escortID, false); err != nil {
			return err
		}
		if previous != nil {
			if err := tx.Escorts.SetAvailable(ctx, tenantID, *previous, true); err != nil {
				return err
			}
		}

		// If the vehicle already landed, the boarding codes exist but the
		// escort slot is empty; fill it now.
		if route.Status == domain.RouteDriverAssigned {
			stops, err := tx.RouteStops.ListByRouteID(ctx, route.ID)
			if err != nil {
				return err
			}
			for _, id := range stopBookingIDs(stops) {
				code := otp.Code()
				if err := tx.Bookings.SetOTPs(ctx, tenantID, id, nil, nil, &code); err != nil {
					return err
				}
			}
		}

		result, err = tx.Routes.GetByID(ctx, tenantID, route.ID)
		return err
	})
	if err != nil {
		return domain.Route{}, err
	}
	return result, nil
}
