// Package domain contains the core data types for the fleet routing engine.
// This package has zero external dependencies and is imported by every other
// internal package (geo, sequence, repo, service, handler).
package domain

import "time"

// BookingStatus tracks whether a booking is waiting for a route or already
// placed on one.
type BookingStatus string

const (
	// BookingRequest means the booking is unrouted and eligible for
	// clustering. A Request booking must not appear in any route.
	BookingRequest BookingStatus = "Request"

	// BookingScheduled means the booking is placed on exactly one route.
	BookingScheduled BookingStatus = "Scheduled"
)

// Booking is a single employee's transport request for one shift and date.
// Coordinates are nullable because employees can register without a mapped
// address; such bookings are skipped by the clusterer.
type Booking struct {
	ID           int64         `json:"booking_id"`
	TenantID     string        `json:"tenant_id"`
	EmployeeID   int64         `json:"employee_id"`
	EmployeeCode string        `json:"employee_code"`
	ShiftID      int64         `json:"shift_id"`
	BookingDate  time.Time     `json:"booking_date"`
	Pickup       *Point        `json:"pickup,omitempty"`
	PickupAddr   string        `json:"pickup_location,omitempty"`
	Drop         *Point        `json:"drop,omitempty"`
	DropAddr     string        `json:"drop_location,omitempty"`
	Status       BookingStatus `json:"status"`
	Reason       string        `json:"reason,omitempty"`

	// OTP slots, populated at vehicle-assignment time and cleared when the
	// booking reverts to Request.
	BoardingOTP   *string `json:"boarding_otp,omitempty"`
	DeboardingOTP *string `json:"deboarding_otp,omitempty"`
	EscortOTP     *string `json:"escort_otp,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Point is a geographic coordinate (decimal degrees).
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// CoordFor returns the anchor-relevant coordinate for a shift direction:
// pickup for IN shifts (employees converge on the office), drop for OUT.
// The second return is false when the booking has no coordinate on that side.
func (b Booking) CoordFor(dir ShiftDirection) (Point, bool) {
	var p *Point
	if dir == ShiftIn {
		p = b.Pickup
	} else {
		p = b.Drop
	}
	if p == nil {
		return Point{}, false
	}
	return *p, true
}

// OfficeFor returns the office-side coordinate for a shift direction: drop
// for IN shifts, pickup for OUT. Used to derive the office anchor and to
// check merge compatibility.
func (b Booking) OfficeFor(dir ShiftDirection) (Point, bool) {
	var p *Point
	if dir == ShiftIn {
		p = b.Drop
	} else {
		p = b.Pickup
	}
	if p == nil {
		return Point{}, false
	}
	return *p, true
}

// OfficeAddrFor returns the office-side address for a shift direction.
func (b Booking) OfficeAddrFor(dir ShiftDirection) string {
	if dir == ShiftIn {
		return b.DropAddr
	}
	return b.PickupAddr
}
