package domain

import "time"

// RouteStatus is the lifecycle state of a route. Assignment advances it
// monotonically; booking-membership changes never move it backwards.
type RouteStatus string

const (
	RoutePlanned        RouteStatus = "Planned"
	RouteVendorAssigned RouteStatus = "VendorAssigned"
	RouteDriverAssigned RouteStatus = "DriverAssigned"
	RouteOngoing        RouteStatus = "Ongoing"
	RouteCompleted      RouteStatus = "Completed"
	RouteCancelled      RouteStatus = "Cancelled"
)

// statusRank orders the forward-only portion of the route lifecycle.
var statusRank = map[RouteStatus]int{
	RoutePlanned:        0,
	RouteVendorAssigned: 1,
	RouteDriverAssigned: 2,
	RouteOngoing:        3,
	RouteCompleted:      4,
}

// AdvancesTo reports whether moving from s to next is a forward transition.
// Cancelled is reachable from any non-terminal state.
func (s RouteStatus) AdvancesTo(next RouteStatus) bool {
	if next == RouteCancelled {
		return s != RouteCompleted && s != RouteCancelled
	}
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	return to == from+1
}

// Route is a vehicle trip grouping one or more bookings for a shift/date.
// Assignment fields are filled progressively as the vendor, vehicle/driver
// and escort are attached.
type Route struct {
	ID       int64       `json:"route_id"`
	TenantID string      `json:"tenant_id"`
	ShiftID  int64       `json:"shift_id"`
	Code     string      `json:"route_code"`
	Status   RouteStatus `json:"status"`

	BookingDate time.Time `json:"booking_date"`

	EstimatedDistanceKm  float64 `json:"estimated_distance_km"`
	EstimatedTimeMinutes float64 `json:"estimated_time_minutes"`
	BufferMinutes        int     `json:"buffer_minutes"`

	AssignedVendorID  *int64 `json:"assigned_vendor_id,omitempty"`
	AssignedVehicleID *int64 `json:"assigned_vehicle_id,omitempty"`
	AssignedDriverID  *int64 `json:"assigned_driver_id,omitempty"`
	AssignedEscortID  *int64 `json:"assigned_escort_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RouteStop is the ordered membership row joining a route and a booking.
// StopOrder values within one route are unique and contiguous starting at 1.
type RouteStop struct {
	ID        int64 `json:"route_stop_id"`
	RouteID   int64 `json:"route_id"`
	BookingID int64 `json:"booking_id"`
	StopOrder int   `json:"stop_order"`

	// Estimated times are HH:MM clock strings produced by the sequencer
	// (or supplied by the caller on a manual update).
	EstimatedPickupTime string `json:"estimated_pickup_time,omitempty"`
	EstimatedDropTime   string `json:"estimated_drop_time,omitempty"`

	DistanceFromPreviousKm float64 `json:"distance_from_previous_km"`
	CumulativeDistanceKm   float64 `json:"cumulative_distance_km"`

	ActualArrivalTime   *time.Time `json:"actual_arrival_time,omitempty"`
	ActualDepartureTime *time.Time `json:"actual_departure_time,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// RouteDetail is a route with its ordered stops and resolved bookings, the
// shape returned by read operations.
type RouteDetail struct {
	Route    Route       `json:"route"`
	Stops    []RouteStop `json:"stops"`
	Bookings []Booking   `json:"bookings"`
}
