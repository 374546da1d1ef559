package store

import (
	"fmt"

	"github.com/italogmoura/ControleGastosDomesticos/internal/rules"
)

const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

// Open returns the store for a configured driver and a function releasing it.
func Open(driver, path string) (rules.Store, func() error, error) {
	switch driver {
	case DriverJSON, "":
		return NewFileStore(path), func() error { return nil }, nil
	case DriverSQLite:
		db, err := OpenSQLite(path)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown rules driver %q", driver)
	}
}
