package db

import (
	"github.com/pkg/errors"

	"github.com/usestratum/stratum/internal/profile"
	"github.com/usestratum/stratum/store"
	"github.com/usestratum/stratum/store/db/postgres"
	"github.com/usestratum/stratum/store/db/sqlite"
)

// NewDBDriver creates new db driver based on profile.
//
// PostgreSQL is the production driver with native vector and array support.
// SQLite is for development and testing; compound fields are stored as JSON.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.New("unknown db driver: only 'postgres' and 'sqlite' are supported")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
