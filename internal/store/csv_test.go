package store

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ghostbiz/internal/model"
)

func sampleOutcomes() []model.VerificationOutcome {
	return []model.VerificationOutcome{
		{
			OSMName: "Café Nord", Lat: 55.6794521, Lon: 12.5812345,
			Website: model.Str("http://cafenord.dk"), Status: model.StatusHasOSMWebsite,
		},
		{
			OSMName: "Bar, \"Quoted\"", Lat: 55.68, Lon: 12.58,
			ExternalName: model.Str("Bar Quoted ApS"), Website: model.Str("https://bar.dk"),
			Status: "OPERATIONAL",
		},
		{OSMName: "Ghost Shop", Lat: 55.1, Lon: 12.1, Status: model.StatusNotFound, NotFound: true},
		{OSMName: "Flaky", Lat: -33.8688, Lon: 151.2093, Status: model.StatusAPIError, NotFound: true},
	}
}

func TestCSVStore_LoadMissingFileIsEmpty(t *testing.T) {
	s := NewCSV(filepath.Join(t.TempDir(), "none.csv"))
	require.NoError(t, s.Load(context.Background()))
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Contains("anything"))
}

func TestCSVStore_AppendPersistsImmediately(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "results.csv")
	s := NewCSV(path)
	require.NoError(t, s.Load(ctx))

	for _, o := range sampleOutcomes() {
		require.NoError(t, s.Append(ctx, o))

		// Every append is visible to a fresh reader.
		reread := NewCSV(path)
		require.NoError(t, reread.Load(ctx))
		assert.Equal(t, s.Outcomes(), reread.Outcomes())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, "osm_name,lat,lon,google_name,website,status,not_found", lines[0])
	assert.Equal(t, "Café Nord,55.6794521,12.5812345,,http://cafenord.dk,HAS_OSM_WEBSITE,False", lines[1])
	assert.Len(t, lines, 5)

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestCSVStore_RoundTripIsLossless(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "results.csv")

	first := NewCSV(path)
	require.NoError(t, first.Load(ctx))
	for _, o := range sampleOutcomes()[:2] {
		require.NoError(t, first.Append(ctx, o))
	}

	second := NewCSV(path)
	require.NoError(t, second.Load(ctx))
	for _, o := range sampleOutcomes()[2:] {
		require.NoError(t, second.Append(ctx, o))
	}

	third := NewCSV(path)
	require.NoError(t, third.Load(ctx))
	assert.Equal(t, sampleOutcomes(), third.Outcomes())
	for _, o := range sampleOutcomes() {
		assert.True(t, third.Contains(o.OSMName))
	}
}

func TestCSVStore_DuplicateRejected(t *testing.T) {
	ctx := context.Background()
	s := NewCSV(filepath.Join(t.TempDir(), "results.csv"))
	require.NoError(t, s.Load(ctx))

	o := sampleOutcomes()[0]
	require.NoError(t, s.Append(ctx, o))
	err := s.Append(ctx, o)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAlreadyRecorded))
	assert.Equal(t, 1, s.Len())
}

func TestCSVStore_FailedWriteRollsBack(t *testing.T) {
	ctx := context.Background()
	s := NewCSV(filepath.Join(t.TempDir(), "missing-dir", "results.csv"))
	require.NoError(t, s.Load(ctx))

	err := s.Append(ctx, sampleOutcomes()[0])
	require.Error(t, err)
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Contains(sampleOutcomes()[0].OSMName))
}

func TestReadOutcomesCSV_ManualEdits(t *testing.T) {
	// Columns reordered, pandas-style booleans, empty status, missing google_name.
	in := "\ufeffstatus,osm_name,not_found,lat,lon,website\n" +
		",Old Row,True,55.1,12.1,\n" +
		"OPERATIONAL,Kept,false,55.2,12.2,https://kept.dk\n"
	rows, err := ReadOutcomesCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Old Row", rows[0].OSMName)
	assert.Equal(t, "", rows[0].Status)
	assert.True(t, rows[0].NotFound)
	assert.Nil(t, rows[0].Website)
	assert.Nil(t, rows[0].ExternalName)

	assert.Equal(t, "OPERATIONAL", rows[1].Status)
	assert.False(t, rows[1].NotFound)
	assert.Equal(t, model.Str("https://kept.dk"), rows[1].Website)
	assert.InDelta(t, 55.2, rows[1].Lat, 1e-12)
}

func TestReadOutcomesCSV_Errors(t *testing.T) {
	_, err := ReadOutcomesCSV(strings.NewReader("name,lat\nx,1\n"))
	assert.Error(t, err)

	_, err = ReadOutcomesCSV(strings.NewReader("osm_name,lat,lon\nx,north,1\n"))
	assert.Error(t, err)

	rows, err := ReadOutcomesCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestWriteOutcomesCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOutcomesCSV(&buf, nil))
	assert.Equal(t, "osm_name,lat,lon,google_name,website,status,not_found\n", buf.String())
}

func TestStatusCounts(t *testing.T) {
	counts := StatusCounts(sampleOutcomes())
	assert.Equal(t, 1, counts[model.StatusHasOSMWebsite])
	assert.Equal(t, 1, counts["OPERATIONAL"])
	assert.Equal(t, 1, counts[model.StatusNotFound])
	assert.Equal(t, 1, counts[model.StatusAPIError])
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, "", filepath.Join(t.TempDir(), "a.csv"))
	require.NoError(t, err)
	assert.IsType(t, &CSVStore{}, s)

	s, err = Open(ctx, DriverSQLite, filepath.Join(t.TempDir(), "a.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, "mongo", "x")
	assert.Error(t, err)

	_, err = Open(ctx, DriverCSV, "")
	assert.Error(t, err)

	_, err = Open(ctx, DriverPostgres, "")
	assert.Error(t, err)
}
