package domain

// ShiftDirection is the direction of travel for a shift.
type ShiftDirection string

const (
	// ShiftIn is a pickup-to-office (login) shift. The shift time is the
	// arrival deadline at the office.
	ShiftIn ShiftDirection = "IN"

	// ShiftOut is an office-to-drop (logout) shift. The shift time is the
	// departure time from the office.
	ShiftOut ShiftDirection = "OUT"
)

// Shift is the typed value object returned uniformly by the shift lookup
// collaborator. The engine treats shifts as read-only: they are owned by an
// external service and may be served from cache.
type Shift struct {
	ID        int64          `json:"shift_id"`
	TenantID  string         `json:"tenant_id"`
	Code      string         `json:"shift_code"`
	Direction ShiftDirection `json:"log_type"`
	// TimeMinutes is the shift clock time as minutes from midnight:
	// the office-arrival deadline for IN shifts, the departure time for OUT.
	TimeMinutes int  `json:"time_minutes"`
	Active      bool `json:"is_active"`
}

// ClockTime renders the shift time as HH:MM.
func (s Shift) ClockTime() string { return FormatClock(s.TimeMinutes) }
