package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Store bundles the repositories the service layer works through. All
// repositories in one Store share the same connection or transaction.
type Store struct {
	Bookings      BookingRepo
	Routes        RouteRepo
	RouteStops    RouteStopRepo
	Shifts        ShiftRepo
	Vendors       VendorRepo
	Vehicles      VehicleRepo
	Drivers       DriverRepo
	Escorts       EscortRepo
	TenantConfigs TenantConfigRepo
}

// NewStore builds a Store over one db handle. Used directly for plain reads
// and by WithTx to rebind every repository to a transaction.
func NewStore(db db) Store {
	return Store{
		Bookings:      NewBookingRepo(db),
		Routes:        NewRouteRepo(db),
		RouteStops:    NewRouteStopRepo(db),
		Shifts:        NewShiftRepo(db),
		Vendors:       NewVendorRepo(db),
		Vehicles:      NewVehicleRepo(db),
		Drivers:       NewDriverRepo(db),
		Escorts:       NewEscortRepo(db),
		TenantConfigs: NewTenantConfigRepo(db),
	}
}

// Storer gives services pool-backed repositories plus transactional
// execution. Multi-table writes (route creation, membership updates,
// assignment) run inside WithTx so partial state never persists.
type Storer interface {
	// Store returns the pool-backed repositories for single-statement work.
	Store() Store

	// WithTx runs fn with repositories bound to one transaction, committing
	// on nil return and rolling back on error.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// PgStore is the production Storer over a pgx connection pool.
type PgStore struct {
	pool  *pgxpool.Pool
	store Store
}

// NewPgStore builds a Storer over pool.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool, store: NewStore(pool)}
}

func (s *PgStore) Store() Store { return s.store }

// UseShiftCache routes pool-backed shift lookups through Redis. Lookups
// inside WithTx stay uncached so transactional reads always see the
// database.
func (s *PgStore) UseShiftCache(rdb *redis.Client) {
	s.store.Shifts = NewCachedShiftRepo(s.store.Shifts, rdb)
}

func (s *PgStore) WithTx(ctx context.Context, fn func(Store) error) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(NewStore(tx))
	})
	if err != nil {
		return fmt.Errorf("repo.PgStore.WithTx: %w", err)
	}
	return nil
}
