package repository

import (
	"context"
	"fmt"
)

// Supported drivers for Open.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Open builds a Store for the named driver. path is used by the sqlite driver only.
func Open(ctx context.Context, driver, path string) (Store, error) {
	switch driver {
	case DriverMemory, "":
		return NewMemoryStore(), nil
	case DriverSQLite:
		return NewSQLiteStore(ctx, path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
