package otp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/avirmani/fleet-manager/internal/domain"
	"github.com/avirmani/fleet-manager/internal/otp"
)

func TestRequired(t *testing.T) {
	tests := []struct {
		name   string
		dir    domain.ShiftDirection
		cfg    domain.TenantConfig
		escort bool
		want   []otp.Slot
	}{
		{
			name: "login both enabled",
			dir:  domain.ShiftIn,
			cfg:  domain.TenantConfig{LoginBoardingOTP: true, LoginDeboardingOTP: true},
			want: []otp.Slot{otp.SlotBoarding, otp.SlotDeboarding},
		},
		{
			name: "login ignores logout flags",
			dir:  domain.ShiftIn,
			cfg:  domain.TenantConfig{LogoutBoardingOTP: true, LogoutDeboardingOTP: true},
			want: nil,
		},
		{
			name: "logout boarding only",
			dir:  domain.ShiftOut,
			cfg:  domain.TenantConfig{LogoutBoardingOTP: true},
			want: []otp.Slot{otp.SlotBoarding},
		},
		{
			name:   "escort slot appended last",
			dir:    domain.ShiftOut,
			cfg:    domain.TenantConfig{LogoutDeboardingOTP: true},
			escort: true,
			want:   []otp.Slot{otp.SlotDeboarding, otp.SlotEscort},
		},
		{
			name:   "escort without any config flags",
			dir:    domain.ShiftIn,
			escort: true,
			want:   []otp.Slot{otp.SlotEscort},
		},
		{
			name: "nothing enabled",
			dir:  domain.ShiftOut,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := otp.Required(tt.dir, tt.cfg, tt.escort)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCode(t *testing.T) {
	for i := 0; i < 100; i++ {
		code := otp.Code()
		assert.Len(t, code, 4)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9')
		}
	}
}
