package store

import (
	"context"

	"github.com/rotisserie/eris"
)

// Checkpoint drivers.
const (
	DriverCSV      = "csv"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open returns the checkpoint backend for driver. For csv and sqlite, target
// is a file path; for postgres it is a connection string.
func Open(ctx context.Context, driver, target string, opts ...Option) (Store, error) {
	switch driver {
	case "", DriverCSV:
		if target == "" {
			return nil, eris.New("store: csv checkpoint path is empty")
		}
		return NewCSV(target), nil
	case DriverSQLite:
		if target == "" {
			return nil, eris.New("store: sqlite checkpoint path is empty")
		}
		return NewSQLite(target, opts...)
	case DriverPostgres:
		if target == "" {
			return nil, eris.New("store: postgres database url is empty")
		}
		return NewPostgres(ctx, target, opts...)
	default:
		return nil, eris.Errorf("store: unknown checkpoint driver %q (valid: csv, sqlite, postgres)", driver)
	}
}
