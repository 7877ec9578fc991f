package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/ghostbiz/internal/model"
)

// SQLiteStore keeps the checkpoint in a SQLite table using modernc.org/sqlite.
type SQLiteStore struct {
	index
	db    *sql.DB
	runID string
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string, opts ...Option) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=FULL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	o := applyOptions(opts)
	return &SQLiteStore{db: db, runID: o.runID}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS checkpoints (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	osm_name    TEXT NOT NULL UNIQUE,
	lat         REAL NOT NULL,
	lon         REAL NOT NULL,
	google_name TEXT,
	website     TEXT,
	status      TEXT,
	not_found   INTEGER NOT NULL DEFAULT 0,
	run_id      TEXT NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

// Migrate creates the checkpoint table.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// RunID returns the identifier stamped on rows written by this store.
func (s *SQLiteStore) RunID() string {
	return s.runID
}

// Load reads all checkpoint rows in insertion order.
func (s *SQLiteStore) Load(ctx context.Context) error {
	if err := s.Migrate(ctx); err != nil {
		return err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT osm_name, lat, lon, google_name, website, status, not_found FROM checkpoints ORDER BY seq`)
	if err != nil {
		return eris.Wrap(err, "sqlite: load checkpoints")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.VerificationOutcome
	for rows.Next() {
		o, err := scanOutcome(rows)
		if err != nil {
			return eris.Wrap(err, "sqlite: scan checkpoint")
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return eris.Wrap(err, "sqlite: iterate checkpoints")
	}
	s.reset(out)
	return nil
}

// Append inserts one outcome. The insert is committed before returning.
func (s *SQLiteStore) Append(ctx context.Context, o model.VerificationOutcome) error {
	if s.Contains(o.OSMName) {
		return eris.Wrapf(ErrAlreadyRecorded, "sqlite: %q", o.OSMName)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO checkpoints (osm_name, lat, lon, google_name, website, status, not_found, run_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT(osm_name) DO NOTHING`,
		o.OSMName, o.Lat, o.Lon, o.ExternalName, o.Website, nullable(o.Status), o.NotFound, s.runID, time.Now().UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert checkpoint %q", o.OSMName)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrAlreadyRecorded, "sqlite: %q", o.OSMName)
	}
	s.add(o)
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanOutcome(row scannable) (model.VerificationOutcome, error) {
	var (
		o      model.VerificationOutcome
		status *string
	)
	if err := row.Scan(&o.OSMName, &o.Lat, &o.Lon, &o.ExternalName, &o.Website, &status, &o.NotFound); err != nil {
		return model.VerificationOutcome{}, err
	}
	o.Status = model.Deref(status)
	return o, nil
}
