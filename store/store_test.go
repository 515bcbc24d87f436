package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestratum/stratum/internal/profile"
)

type stubDriver struct {
	Driver
	initialized bool
	migrated    bool
}

func (d *stubDriver) IsInitialized(context.Context) (bool, error) {
	return d.initialized, nil
}

func (d *stubDriver) Migrate(context.Context) error {
	d.migrated = true
	return nil
}

func TestMigrateInitializesFreshDatabase(t *testing.T) {
	driver := &stubDriver{initialized: false}
	s := New(driver, &profile.Profile{Driver: "sqlite"})

	require.NoError(t, s.Migrate(context.Background()))
	assert.True(t, driver.migrated)
}

func TestMigrateSkipsInitializedDatabase(t *testing.T) {
	driver := &stubDriver{initialized: true}
	s := New(driver, &profile.Profile{Driver: "sqlite"})

	require.NoError(t, s.Migrate(context.Background()))
	assert.False(t, driver.migrated)
}
