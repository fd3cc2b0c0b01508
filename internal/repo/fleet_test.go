package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avirmani/fleet-manager/internal/domain"
)

func TestVehicleRepo_GetByIDForUpdate(t *testing.T) {
	store, tx := newTestStore(t)
	ctx := context.Background()

	seedTenant(t, tx)
	vendorID := seedVendor(t, tx)
	driverID := seedDriver(t, tx, vendorID)
	vehicleID := seedVehicle(t, tx, vendorID, &driverID)

	got, err := store.Vehicles.GetByIDForUpdate(ctx, vehicleID)
	require.NoError(t, err)
	assert.Equal(t, vehicleID, got.ID)
	assert.Equal(t, vendorID, got.VendorID)
	require.NotNil(t, got.DriverID)
	assert.Equal(t, driverID, *got.DriverID)
	assert.Equal(t, "KA-01-AB-1234", got.Registration)

	_, err = store.Vehicles.GetByIDForUpdate(ctx, 424242)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
