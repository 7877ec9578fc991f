package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/ghostbiz/internal/model"
)

// Pool is the subset of pgxpool.Pool used by PostgresStore.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// PostgresStore keeps the checkpoint in a Postgres table.
type PostgresStore struct {
	index
	pool  Pool
	runID string
}

// NewPostgres connects to Postgres and verifies the connection.
func NewPostgres(ctx context.Context, connString string, opts ...Option) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	// One writer, one connection.
	pgxCfg.MaxConns = 2
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return newPostgresWithPool(pool, opts...), nil
}

func newPostgresWithPool(pool Pool, opts ...Option) *PostgresStore {
	o := applyOptions(opts)
	return &PostgresStore{pool: pool, runID: o.runID}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS ghostbiz_checkpoints (
	seq         BIGSERIAL PRIMARY KEY,
	osm_name    TEXT NOT NULL UNIQUE,
	lat         DOUBLE PRECISION NOT NULL,
	lon         DOUBLE PRECISION NOT NULL,
	google_name TEXT,
	website     TEXT,
	status      TEXT,
	not_found   BOOLEAN NOT NULL DEFAULT false,
	run_id      TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Migrate creates the checkpoint table.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// RunID returns the identifier stamped on rows written by this store.
func (s *PostgresStore) RunID() string {
	return s.runID
}

// Load reads all checkpoint rows in insertion order.
func (s *PostgresStore) Load(ctx context.Context) error {
	if err := s.Migrate(ctx); err != nil {
		return err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT osm_name, lat, lon, google_name, website, status, not_found FROM ghostbiz_checkpoints ORDER BY seq`)
	if err != nil {
		return eris.Wrap(err, "postgres: load checkpoints")
	}
	defer rows.Close()

	var out []model.VerificationOutcome
	for rows.Next() {
		o, err := scanOutcome(rows)
		if err != nil {
			return eris.Wrap(err, "postgres: scan checkpoint")
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return eris.Wrap(err, "postgres: iterate checkpoints")
	}
	s.reset(out)
	return nil
}

// Append inserts one outcome.
func (s *PostgresStore) Append(ctx context.Context, o model.VerificationOutcome) error {
	if s.Contains(o.OSMName) {
		return eris.Wrapf(ErrAlreadyRecorded, "postgres: %q", o.OSMName)
	}
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO ghostbiz_checkpoints (osm_name, lat, lon, google_name, website, status, not_found, run_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) ON CONFLICT (osm_name) DO NOTHING`,
		o.OSMName, o.Lat, o.Lon, o.ExternalName, o.Website, nullable(o.Status), o.NotFound, s.runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert checkpoint %q", o.OSMName)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrAlreadyRecorded, "postgres: %q", o.OSMName)
	}
	s.add(o)
	return nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
