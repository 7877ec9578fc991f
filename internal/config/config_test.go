package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/ghostbiz/internal/geo"
	"github.com/sells-group/ghostbiz/internal/model"
	"github.com/sells-group/ghostbiz/internal/verify"
)

// chdirTemp moves into an empty directory so no config.yaml is found.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("GOOGLE_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "overpass", cfg.Source.Kind)
	assert.Equal(t, "København, Danmark", cfg.Source.Place)
	assert.Equal(t, 180, cfg.Source.TimeoutSecs)
	assert.Equal(t, verify.PlaceholderAPIKey, cfg.Google.Key)
	assert.InDelta(t, 200, cfg.Google.RadiusMeters, 0.001)
	assert.Equal(t, 1000, cfg.Google.DelayMs)
	assert.Equal(t, 10, cfg.Google.TimeoutSecs)
	assert.Equal(t, "csv", cfg.Checkpoint.Driver)
	assert.Equal(t, "ghostbiz_results.csv", cfg.Checkpoint.Path)
	assert.Equal(t, "osm_businesses.csv", cfg.Output.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	require.NoError(t, cfg.Validate())

	tags, err := cfg.TagFilter()
	require.NoError(t, err)
	assert.Equal(t, []string{"amenity", "craft", "office", "shop", "tourism"}, tags.Keys())
	assert.True(t, tags["shop"].Any)
	assert.Equal(t, []string{"hotel", "hostel", "guest_house"}, tags["tourism"].Values)

	assert.Equal(t, model.BBox{North: 55.68, South: 55.678, East: 12.585, West: 12.583},
		cfg.Source.BBoxOverrides["Copenhagen, Denmark"])

	kind, err := cfg.Projection()
	require.NoError(t, err)
	assert.Equal(t, geo.Kind(geo.KindEqualArea), kind)

	vc := cfg.Verify()
	assert.Equal(t, time.Second, vc.Delay)
	assert.True(t, verify.IsPlaceholderKey(vc.APIKey))
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
source:
  kind: geojson
  geojson_path: export.geojson
  tags:
    amenity: [cafe]
  bbox_overrides:
    Springfield:
      north: 40
      south: 39
      east: -89
      west: -90
google:
  key: file-key
  delay_ms: 250
checkpoint:
  driver: sqlite
  path: results.db
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(dir+"/config.yaml", []byte(yaml), 0o600))

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "geojson", cfg.Source.Kind)
	assert.Equal(t, "file-key", cfg.Google.Key)
	assert.Equal(t, 250*time.Millisecond, cfg.Verify().Delay)
	assert.Equal(t, "results.db", cfg.CheckpointTarget())
	assert.Equal(t, "debug", cfg.Log.Level)

	tags, err := cfg.TagFilter()
	require.NoError(t, err)
	assert.Equal(t, []string{"amenity"}, tags.Keys())
	assert.Equal(t, []string{"cafe"}, tags["amenity"].Values)

	// viper lower-cases map keys.
	assert.Len(t, cfg.Source.BBoxOverrides, 1)
	assert.InDelta(t, 40, cfg.Source.BBoxOverrides["springfield"].North, 0.001)
}

func TestLoadEnvOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("GHOSTBIZ_CHECKPOINT_DRIVER", "postgres")
	t.Setenv("GHOSTBIZ_CHECKPOINT_DATABASE_URL", "postgres://localhost/ghostbiz")
	t.Setenv("GHOSTBIZ_GOOGLE_RADIUS_METERS", "500")
	t.Setenv("GOOGLE_API_KEY", "env-key")

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "postgres://localhost/ghostbiz", cfg.CheckpointTarget())
	assert.InDelta(t, 500, cfg.Google.RadiusMeters, 0.001)
	assert.Equal(t, "env-key", cfg.Google.Key)
}

func TestPrefixedKeyWinsOverGoogleAPIKey(t *testing.T) {
	chdirTemp(t)
	t.Setenv("GHOSTBIZ_GOOGLE_KEY", "prefixed")
	t.Setenv("GOOGLE_API_KEY", "plain")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.Google.Key)
}

func TestValidate(t *testing.T) {
	chdirTemp(t)
	base, err := Load()
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown source", func(c *Config) { c.Source.Kind = "wfs" }},
		{"geojson without path", func(c *Config) { c.Source.Kind = "geojson" }},
		{"empty tags", func(c *Config) { c.Source.Tags = map[string]any{} }},
		{"false tag", func(c *Config) { c.Source.Tags = map[string]any{"shop": false} }},
		{"bad override", func(c *Config) {
			c.Source.BBoxOverrides = map[string]model.BBox{"x": {North: 1, South: 2, East: 1, West: 0}}
		}},
		{"bad projection", func(c *Config) { c.Geo.Projection = "utm" }},
		{"unknown driver", func(c *Config) { c.Checkpoint.Driver = "redis" }},
		{"postgres without url", func(c *Config) { c.Checkpoint.Driver = "postgres" }},
		{"csv without path", func(c *Config) { c.Checkpoint.Path = "" }},
		{"zero radius", func(c *Config) { c.Google.RadiusMeters = 0 }},
		{"negative delay", func(c *Config) { c.Google.DelayMs = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := *base
			c.Source.Tags = DefaultTags()
			c.Source.BBoxOverrides = DefaultBBoxOverrides()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestInitLogger(t *testing.T) {
	orig := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(orig) })

	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.True(t, zap.L().Core().Enabled(zap.DebugLevel))

	require.NoError(t, InitLogger(LogConfig{Level: "warn", Format: "json"}))
	assert.False(t, zap.L().Core().Enabled(zap.InfoLevel))

	assert.Error(t, InitLogger(LogConfig{Level: "loud"}))
}
