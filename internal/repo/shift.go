package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/avirmani/fleet-manager/internal/domain"
)

// ShiftRepo looks up shift definitions. Shifts are owned by an upstream
// roster system and treated as read-only here.
type ShiftRepo interface {
	// GetByID retrieves a shift for a tenant. Returns domain.ErrNotFound if
	// no such shift exists.
	GetByID(ctx context.Context, tenantID string, id int64) (domain.Shift, error)
}

type pgShiftRepo struct {
	db db
}

// NewShiftRepo constructs a ShiftRepo backed by the provided db connection.
func NewShiftRepo(db db) ShiftRepo {
	return &pgShiftRepo{db: db}
}

func (r *pgShiftRepo) GetByID(ctx context.Context, tenantID string, id int64) (domain.Shift, error) {
	const q = `
		SELECT id, tenant_id, shift_code, log_type, time_minutes, is_active
		FROM shifts
		WHERE tenant_id = @tenant_id AND id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"tenant_id": tenantID, "id": id})

	var s domain.Shift
	err := row.Scan(&s.ID, &s.TenantID, &s.Code, &s.Direction, &s.TimeMinutes, &s.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Shift{}, fmt.Errorf("repo.ShiftRepo.GetByID: %w", domain.ErrNotFound)
		}
		return domain.Shift{}, fmt.Errorf("repo.ShiftRepo.GetByID: %w", err)
	}
	return s, nil
}
