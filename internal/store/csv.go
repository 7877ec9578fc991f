package store

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/ghostbiz/internal/model"
)

// CSVStore keeps the checkpoint as a flat CSV file, rewritten in full on
// every append.
type CSVStore struct {
	index
	path string
}

// NewCSV creates a CSV-backed store at path. Nothing is read until Load.
func NewCSV(path string) *CSVStore {
	return &CSVStore{path: path}
}

// Path returns the checkpoint file path.
func (s *CSVStore) Path() string {
	return s.path
}

// Load reads the checkpoint file if it exists.
func (s *CSVStore) Load(_ context.Context) error {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.reset(nil)
		return nil
	}
	if err != nil {
		return eris.Wrapf(err, "store: open %s", s.path)
	}
	defer f.Close() //nolint:errcheck

	rows, err := ReadOutcomesCSV(f)
	if err != nil {
		return eris.Wrapf(err, "store: read %s", s.path)
	}
	s.reset(rows)
	return nil
}

// Append adds o and rewrites the checkpoint file.
func (s *CSVStore) Append(_ context.Context, o model.VerificationOutcome) error {
	if s.Contains(o.OSMName) {
		return eris.Wrapf(ErrAlreadyRecorded, "store: %q", o.OSMName)
	}
	s.add(o)
	if err := s.flush(); err != nil {
		s.removeLast()
		return err
	}
	return nil
}

// Close is a no-op; every append is already on disk.
func (s *CSVStore) Close() error {
	return nil
}

// flush writes the whole checkpoint to a temp file and renames it over the
// target so a crash mid-write never truncates existing rows.
func (s *CSVStore) flush() error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return eris.Wrap(err, "store: create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	if err := WriteOutcomesCSV(tmp, s.rows); err != nil {
		tmp.Close() //nolint:errcheck
		return err
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "store: close temp file")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return eris.Wrapf(err, "store: replace %s", s.path)
	}
	return nil
}

// WriteOutcomesCSV writes outcomes with the checkpoint header.
func WriteOutcomesCSV(w io.Writer, outcomes []model.VerificationOutcome) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(model.OutcomeColumns); err != nil {
		return eris.Wrap(err, "store: write header")
	}
	for _, o := range outcomes {
		if err := cw.Write(outcomeRow(o)); err != nil {
			return eris.Wrapf(err, "store: write row %q", o.OSMName)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "store: flush csv")
}

// ReadOutcomesCSV parses a checkpoint file. Columns are matched by header
// name; missing optional columns read as null.
func ReadOutcomesCSV(r io.Reader) ([]model.VerificationOutcome, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: read header")
	}

	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	if _, ok := col["osm_name"]; !ok {
		return nil, eris.New("store: checkpoint has no osm_name column")
	}

	var out []model.VerificationOutcome
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "store: line %d", line)
		}
		get := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return rec[i]
		}

		o := model.VerificationOutcome{
			OSMName:      get("osm_name"),
			ExternalName: nullable(get("google_name")),
			Website:      nullable(get("website")),
			Status:       get("status"),
			NotFound:     parseBool(get("not_found")),
		}
		if o.Lat, err = parseFloat(get("lat")); err != nil {
			return nil, eris.Wrapf(err, "store: line %d: lat", line)
		}
		if o.Lon, err = parseFloat(get("lon")); err != nil {
			return nil, eris.Wrapf(err, "store: line %d: lon", line)
		}
		out = append(out, o)
	}
	return out, nil
}

func outcomeRow(o model.VerificationOutcome) []string {
	return []string{
		o.OSMName,
		strconv.FormatFloat(o.Lat, 'f', -1, 64),
		strconv.FormatFloat(o.Lon, 'f', -1, 64),
		model.Deref(o.ExternalName),
		model.Deref(o.Website),
		o.Status,
		formatBool(o.NotFound),
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

// parseBool accepts the spellings written by this tool and by pandas.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true
	}
	return false
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
