package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/avirmani/fleet-manager/internal/domain"
)

// TenantConfigRepo looks up per-tenant OTP policy.
type TenantConfigRepo interface {
	// GetConfig retrieves a tenant's OTP policy. A tenant without a config
	// row gets the zero policy (no OTPs) rather than an error.
	GetConfig(ctx context.Context, tenantID string) (domain.TenantConfig, error)
}

type pgTenantConfigRepo struct {
	db db
}

// NewTenantConfigRepo constructs a TenantConfigRepo backed by the provided db connection.
func NewTenantConfigRepo(db db) TenantConfigRepo {
	return &pgTenantConfigRepo{db: db}
}

func (r *pgTenantConfigRepo) GetConfig(ctx context.Context, tenantID string) (domain.TenantConfig, error) {
	const q = `
		SELECT tenant_id, login_boarding_otp, login_deboarding_otp,
		       logout_boarding_otp, logout_deboarding_otp
		FROM tenant_configs
		WHERE tenant_id = @tenant_id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"tenant_id": tenantID})

	var c domain.TenantConfig
	err := row.Scan(&c.TenantID, &c.LoginBoardingOTP, &c.LoginDeboardingOTP, &c.LogoutBoardingOTP, &c.LogoutDeboardingOTP)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.TenantConfig{TenantID: tenantID}, nil
		}
		return domain.TenantConfig{}, fmt.Errorf("repo.TenantConfigRepo.GetConfig: %w", err)
	}
	return c, nil
}
