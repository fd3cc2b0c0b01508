package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatClock renders minutes-from-midnight as an HH:MM clock string.
// Negative values (a deadline pushed before midnight) wrap into the
// previous day so "-30" renders as 23:30.
func FormatClock(minutes int) string {
	const day = 24 * 60
	m := ((minutes % day) + day) % day
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// ParseClock parses an HH:MM clock string into minutes from midnight.
// Returns ErrValidation for anything that is not a valid 24-hour time.
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: invalid clock time %q", ErrValidation, s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("%w: invalid clock time %q", ErrValidation, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("%w: invalid clock time %q", ErrValidation, s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: clock time %q out of range", ErrValidation, s)
	}
	return h*60 + m, nil
}
