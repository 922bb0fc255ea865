package store

import (
	"errors"
	"fmt"

	"mdindex/internal/adapter/memstore"
	"mdindex/internal/port"
)

// Driver names accepted by Open.
const (
	DriverBolt   = "bolt"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// ErrUnknownDriver is returned by Open for an unsupported driver name.
var ErrUnknownDriver = errors.New("unknown store driver")

// Open returns the index store for driver at path. The memory driver
// ignores path.
func Open(driver, path string) (port.IndexStore, error) {
	switch driver {
	case DriverBolt, "":
		s, err := NewBoltStore(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverSQLite:
		s, err := NewSQLiteStore(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverMemory:
		return memstore.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

// Drivers lists the accepted driver names.
func Drivers() []string {
	return []string{DriverBolt, DriverSQLite, DriverMemory}
}
