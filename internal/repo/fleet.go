package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/avirmani/fleet-manager/internal/domain"
)

// VendorRepo looks up transport vendors.
type VendorRepo interface {
	// GetByID retrieves a vendor for a tenant. Returns domain.ErrNotFound if
	// no such vendor exists.
	GetByID(ctx context.Context, tenantID string, id int64) (domain.Vendor, error)
}

// VehicleRepo looks up vehicles.
type VehicleRepo interface {
	// GetByID retrieves a vehicle. Returns domain.ErrNotFound if no such
	// vehicle exists.
	GetByID(ctx context.Context, id int64) (domain.Vehicle, error)

	// GetByIDForUpdate retrieves a vehicle with a row lock, so its driver
	// link cannot change under an in-flight assignment.
	GetByIDForUpdate(ctx context.Context, id int64) (domain.Vehicle, error)
}

// DriverRepo looks up drivers.
type DriverRepo interface {
	// GetByID retrieves a driver. Returns domain.ErrNotFound if no such
	// driver exists.
	GetByID(ctx context.Context, id int64) (domain.Driver, error)
}

// EscortRepo looks up and reserves safety escorts.
type EscortRepo interface {
	// GetByID retrieves an escort for a tenant. Returns domain.ErrNotFound
	// if no such escort exists.
	GetByID(ctx context.Context, tenantID string, id int64) (domain.Escort, error)

	// SetAvailable flips the escort's availability flag.
	SetAvailable(ctx context.Context, tenantID string, id int64, available bool) error
}

type pgVendorRepo struct {
	db db
}

// NewVendorRepo constructs a VendorRepo backed by the provided db connection.
func NewVendorRepo(db db) VendorRepo {
	return &pgVendorRepo{db: db}
}

func (r *pgVendorRepo) GetByID(ctx context.Context, tenantID string, id int64) (domain.Vendor, error) {
	const q = `
		SELECT id, tenant_id, name, vendor_code, is_active, created_at, updated_at
		FROM vendors
		WHERE tenant_id = @tenant_id AND id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"tenant_id": tenantID, "id": id})

	var v domain.Vendor
	err := row.Scan(&v.ID, &v.TenantID, &v.Name, &v.Code, &v.Active, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Vendor{}, fmt.Errorf("repo.VendorRepo.GetByID: %w", domain.ErrNotFound)
		}
		return domain.Vendor{}, fmt.Errorf("repo.VendorRepo.GetByID: %w", err)
	}
	return v, nil
}

type pgVehicleRepo struct {
	db db
}

// NewVehicleRepo constructs a VehicleRepo backed by the provided db connection.
func NewVehicleRepo(db db) VehicleRepo {
	return &pgVehicleRepo{db: db}
}

func (r *pgVehicleRepo) GetByID(ctx context.Context, id int64) (domain.Vehicle, error) {
	return r.get(ctx, "GetByID", id, false)
}

func (r *pgVehicleRepo) GetByIDForUpdate(ctx context.Context, id int64) (domain.Vehicle, error) {
	return r.get(ctx, "GetByIDForUpdate", id, true)
}

func (r *pgVehicleRepo) get(ctx context.Context, op string, id int64, forUpdate bool) (domain.Vehicle, error) {
	q := `
		SELECT id, vendor_id, driver_id, rc_number, is_active, created_at, updated_at
		FROM vehicles
		WHERE id = @id`
	if forUpdate {
		q += `
		FOR UPDATE`
	}

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})

	var (
		v      domain.Vehicle
		driver pgtype.Int8
	)
	err := row.Scan(&v.ID, &v.VendorID, &driver, &v.Registration, &v.Active, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Vehicle{}, fmt.Errorf("repo.VehicleRepo.%s: %w", op, domain.ErrNotFound)
		}
		return domain.Vehicle{}, fmt.Errorf("repo.VehicleRepo.%s: %w", op, err)
	}
	if driver.Valid {
		v.DriverID = &driver.Int64
	}
	return v, nil
}

type pgDriverRepo struct {
	db db
}

// NewDriverRepo constructs a DriverRepo backed by the provided db connection.
func NewDriverRepo(db db) DriverRepo {
	return &pgDriverRepo{db: db}
}

func (r *pgDriverRepo) GetByID(ctx context.Context, id int64) (domain.Driver, error) {
	const q = `
		SELECT id, vendor_id, name, code, phone, is_active, created_at, updated_at
		FROM drivers
		WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})

	var d domain.Driver
	err := row.Scan(&d.ID, &d.VendorID, &d.Name, &d.Code, &d.Phone, &d.Active, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Driver{}, fmt.Errorf("repo.DriverRepo.GetByID: %w", domain.ErrNotFound)
		}
		return domain.Driver{}, fmt.Errorf("repo.DriverRepo.GetByID: %w", err)
	}
	return d, nil
}

type pgEscortRepo struct {
	db db
}

// NewEscortRepo constructs an EscortRepo backed by the provided db connection.
func NewEscortRepo(db db) EscortRepo {
	return &pgEscortRepo{db: db}
}

func (r *pgEscortRepo) GetByID(ctx context.Context, tenantID string, id int64) (domain.Escort, error) {
	const q = `
		SELECT id, tenant_id, vendor_id, name, phone, is_active, is_available, created_at, updated_at
		FROM escorts
		WHERE tenant_id = @tenant_id AND id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"tenant_id": tenantID, "id": id})

	var e domain.Escort
	err := row.Scan(&e.ID, &e.TenantID, &e.VendorID, &e.Name, &e.Phone, &e.Active, &e.Available, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Escort{}, fmt.Errorf("repo.EscortRepo.GetByID: %w", domain.ErrNotFound)
		}
		return domain.Escort{}, fmt.Errorf("repo.EscortRepo.GetByID: %w", err)
	}
	return e, nil
}

func (r *pgEscortRepo) SetAvailable(ctx context.Context, tenantID string, id int64, available bool) error {
	const q = `
		UPDATE escorts
		SET is_available = @available, updated_at = now()
		WHERE tenant_id = @tenant_id AND id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"tenant_id": tenantID, "id": id, "available": available})
	if err != nil {
		return fmt.Errorf("repo.EscortRepo.SetAvailable: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.EscortRepo.SetAvailable: %w", domain.ErrNotFound)
	}
	return nil
}
