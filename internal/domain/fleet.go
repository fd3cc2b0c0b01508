package domain

import "time"

// Vendor is a transport supplier contracted by a tenant. Vehicles, drivers
// and escorts all hang off a vendor.
type Vendor struct {
	ID       int64  `json:"vendor_id"`
	TenantID string `json:"tenant_id"`
	Name     string `json:"name"`
	Code     string `json:"vendor_code"`
	Active   bool   `json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Vehicle belongs to a vendor and carries at most one linked driver.
// A vehicle without a driver cannot be assigned to a route.
type Vehicle struct {
	ID           int64  `json:"vehicle_id"`
	VendorID     int64  `json:"vendor_id"`
	DriverID     *int64 `json:"driver_id,omitempty"`
	Registration string `json:"rc_number"`
	Active       bool   `json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Driver belongs to a vendor.
type Driver struct {
	ID       int64  `json:"driver_id"`
	VendorID int64  `json:"vendor_id"`
	Name     string `json:"name"`
	Code     string `json:"code"`
	Phone    string `json:"phone"`
	Active   bool   `json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Escort is a safety escort attached to routes independently of the
// vendor/vehicle/driver chain.
type Escort struct {
	ID        int64  `json:"escort_id"`
	TenantID  string `json:"tenant_id"`
	VendorID  int64  `json:"vendor_id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Active    bool   `json:"is_active"`
	Available bool   `json:"is_available"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TenantConfig holds the per-tenant OTP policy. The four booleans select
// which boarding/deboarding codes apply per shift direction (login = IN,
// logout = OUT); the escort OTP applies whenever an escort is attached.
type TenantConfig struct {
	TenantID            string `json:"tenant_id"`
	LoginBoardingOTP    bool   `json:"login_boarding_otp"`
	LoginDeboardingOTP  bool   `json:"login_deboarding_otp"`
	LogoutBoardingOTP   bool   `json:"logout_boarding_otp"`
	LogoutDeboardingOTP bool   `json:"logout_deboarding_otp"`
}
