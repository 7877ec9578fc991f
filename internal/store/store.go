// Package store persists verification outcomes as an append-only checkpoint
// keyed by business name, so an interrupted verification run can resume
// without re-querying or duplicating completed work.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/sells-group/ghostbiz/internal/model"
)

// ErrAlreadyRecorded is returned by Append when the name already has an outcome.
var ErrAlreadyRecorded = errors.New("store: outcome already recorded")

// Store is a durable checkpoint of verification outcomes. Implementations
// are single-writer; two processes sharing one store are not supported.
type Store interface {
	// Load reads any existing checkpoint. A missing checkpoint is empty, not an error.
	Load(ctx context.Context) error
	// Contains reports whether name already has an outcome.
	Contains(name string) bool
	// Append records one outcome and persists it before returning.
	Append(ctx context.Context, o model.VerificationOutcome) error
	// Outcomes returns all outcomes in insertion order.
	Outcomes() []model.VerificationOutcome
	// Len returns the number of recorded outcomes.
	Len() int
	Close() error
}

// Option configures a database-backed store.
type Option func(*options)

type options struct {
	runID string
}

// WithRunID tags rows written by this store with id.
func WithRunID(id string) Option {
	return func(o *options) {
		o.runID = id
	}
}

func applyOptions(opts []Option) options {
	o := options{runID: uuid.New().String()}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// index is the in-memory view shared by all backends.
type index struct {
	names map[string]struct{}
	rows  []model.VerificationOutcome
}

func (ix *index) reset(rows []model.VerificationOutcome) {
	ix.names = make(map[string]struct{}, len(rows))
	ix.rows = rows
	for _, r := range rows {
		ix.names[r.OSMName] = struct{}{}
	}
}

func (ix *index) Contains(name string) bool {
	_, ok := ix.names[name]
	return ok
}

func (ix *index) Outcomes() []model.VerificationOutcome {
	out := make([]model.VerificationOutcome, len(ix.rows))
	copy(out, ix.rows)
	return out
}

func (ix *index) Len() int {
	return len(ix.rows)
}

func (ix *index) add(o model.VerificationOutcome) {
	if ix.names == nil {
		ix.names = make(map[string]struct{})
	}
	ix.names[o.OSMName] = struct{}{}
	ix.rows = append(ix.rows, o)
}

// removeLast undoes the most recent add after a failed persist.
func (ix *index) removeLast() {
	if len(ix.rows) == 0 {
		return
	}
	last := ix.rows[len(ix.rows)-1]
	ix.rows = ix.rows[:len(ix.rows)-1]
	for _, r := range ix.rows {
		if r.OSMName == last.OSMName {
			return
		}
	}
	delete(ix.names, last.OSMName)
}

// StatusCounts tallies outcomes by status token. Empty status counts as "".
func StatusCounts(outcomes []model.VerificationOutcome) map[string]int {
	counts := make(map[string]int)
	for _, o := range outcomes {
		counts[o.Status]++
	}
	return counts
}
