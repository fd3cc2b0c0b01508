// Package otp decides which one-time passwords a booking needs and
// generates the codes. Which slots apply is tenant policy: four booleans
// select boarding/deboarding verification per shift direction, and the
// escort slot applies whenever an escort rides along.
package otp

import (
	"fmt"
	"math/rand"

	"github.com/avirmani/fleet-manager/internal/domain"
)

// Slot names one OTP position on a booking.
type Slot string

const (
	SlotBoarding   Slot = "boarding"
	SlotDeboarding Slot = "deboarding"
	SlotEscort     Slot = "escort"
)

// Required returns the OTP slots to populate for a booking on a shift in
// the given direction, in fixed order: boarding, deboarding, escort.
func Required(dir domain.ShiftDirection, cfg domain.TenantConfig, escortAttached bool) []Slot {
	var slots []Slot
	switch dir {
	case domain.ShiftIn:
		if cfg.LoginBoardingOTP {
			slots = append(slots, SlotBoarding)
		}
		if cfg.LoginDeboardingOTP {
			slots = append(slots, SlotDeboarding)
		}
	case domain.ShiftOut:
		if cfg.LogoutBoardingOTP {
			slots = append(slots, SlotBoarding)
		}
		if cfg.LogoutDeboardingOTP {
			slots = append(slots, SlotDeboarding)
		}
	}
	if escortAttached {
		slots = append(slots, SlotEscort)
	}
	return slots
}

// Code returns a random 4 digit numeric code, zero padded.
func Code() string {
	return fmt.Sprintf("%04d", rand.Intn(10000))
}
