package config

import (
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/ghostbiz/internal/geo"
	"github.com/sells-group/ghostbiz/internal/model"
	"github.com/sells-group/ghostbiz/internal/store"
	"github.com/sells-group/ghostbiz/internal/verify"
)

// Config holds the full application configuration.
type Config struct {
	Source     SourceConfig     `yaml:"source" mapstructure:"source"`
	Google     GoogleConfig     `yaml:"google" mapstructure:"google"`
	Checkpoint CheckpointConfig `yaml:"checkpoint" mapstructure:"checkpoint"`
	Output     OutputConfig     `yaml:"output" mapstructure:"output"`
	Geo        GeoConfig        `yaml:"geo" mapstructure:"geo"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// SourceConfig configures where features come from.
type SourceConfig struct {
	Kind          string                `yaml:"kind" mapstructure:"kind"` // overpass or geojson
	Place         string                `yaml:"place" mapstructure:"place"`
	GeoJSONPath   string                `yaml:"geojson_path" mapstructure:"geojson_path"`
	OverpassURL   string                `yaml:"overpass_url" mapstructure:"overpass_url"`
	NominatimURL  string                `yaml:"nominatim_url" mapstructure:"nominatim_url"`
	TimeoutSecs   int                   `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RetryAttempts int                   `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	UserAgent     string                `yaml:"user_agent" mapstructure:"user_agent"`
	Tags          map[string]any        `yaml:"tags" mapstructure:"tags"`
	BBoxOverrides map[string]model.BBox `yaml:"bbox_overrides" mapstructure:"bbox_overrides"`
}

// GoogleConfig configures the Places API verification lookups.
type GoogleConfig struct {
	Key          string  `yaml:"key" mapstructure:"key"`
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	RadiusMeters float64 `yaml:"radius_meters" mapstructure:"radius_meters"`
	DelayMs      int     `yaml:"delay_ms" mapstructure:"delay_ms"`
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// CheckpointConfig selects the verification checkpoint backend.
type CheckpointConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // csv, sqlite or postgres
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// OutputConfig configures the extract output table.
type OutputConfig struct {
	Path   string `yaml:"path" mapstructure:"path"`
	Format string `yaml:"format" mapstructure:"format"` // csv, xlsx, shp; empty infers from path
}

// GeoConfig configures centroid computation.
type GeoConfig struct {
	Projection string `yaml:"projection" mapstructure:"projection"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultTags is the tag filter used when none is configured.
func DefaultTags() map[string]any {
	return map[string]any{
		"shop":    true,
		"amenity": []string{"restaurant", "cafe", "bar", "pub", "fast_food", "pharmacy", "bank"},
		"tourism": []string{"hotel", "hostel", "guest_house"},
		"craft":   true,
		"office":  true,
	}
}

// DefaultBBoxOverrides lists place names whose Nominatim lookup resolves
// to the wrong area, with the box to query instead.
func DefaultBBoxOverrides() map[string]model.BBox {
	return map[string]model.BBox{
		"Copenhagen, Denmark": {North: 55.6800, South: 55.6780, East: 12.5850, West: 12.5830},
	}
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GHOSTBIZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("source.kind", "overpass")
	v.SetDefault("source.place", "København, Danmark")
	v.SetDefault("source.geojson_path", "")
	v.SetDefault("source.overpass_url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("source.nominatim_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("source.timeout_secs", 180)
	v.SetDefault("source.retry_attempts", 4)
	v.SetDefault("source.user_agent", "ghostbiz/1.0 (+https://github.com/sells-group/ghostbiz)")
	v.SetDefault("google.key", verify.PlaceholderAPIKey)
	v.SetDefault("google.base_url", "https://places.googleapis.com/v1")
	v.SetDefault("google.radius_meters", 200)
	v.SetDefault("google.delay_ms", 1000)
	v.SetDefault("google.timeout_secs", 10)
	v.SetDefault("checkpoint.driver", store.DriverCSV)
	v.SetDefault("checkpoint.path", "ghostbiz_results.csv")
	v.SetDefault("checkpoint.database_url", "")
	v.SetDefault("output.path", "osm_businesses.csv")
	v.SetDefault("output.format", "")
	v.SetDefault("geo.projection", geo.KindEqualArea)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	// A configured map replaces the default map whole.
	if len(cfg.Source.Tags) == 0 {
		cfg.Source.Tags = DefaultTags()
	}
	if cfg.Source.BBoxOverrides == nil {
		cfg.Source.BBoxOverrides = DefaultBBoxOverrides()
	}

	// The conventional variable name wins over the prefixed key.
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" && verify.IsPlaceholderKey(cfg.Google.Key) {
		cfg.Google.Key = key
	}

	return &cfg, nil
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case "overpass":
	case "geojson":
		if c.Source.GeoJSONPath == "" {
			return eris.New("config: source.geojson_path is required for source.kind=geojson")
		}
	default:
		return eris.Errorf("config: unknown source.kind %q (valid: overpass, geojson)", c.Source.Kind)
	}
	if _, err := c.TagFilter(); err != nil {
		return eris.Wrap(err, "config: source.tags")
	}
	for name, b := range c.Source.BBoxOverrides {
		if err := b.Validate(); err != nil {
			return eris.Wrapf(err, "config: bbox override %q", name)
		}
	}
	if _, err := c.Projection(); err != nil {
		return eris.Wrap(err, "config: geo.projection")
	}
	switch c.Checkpoint.Driver {
	case store.DriverCSV, store.DriverSQLite:
		if c.Checkpoint.Path == "" {
			return eris.New("config: checkpoint.path is required")
		}
	case store.DriverPostgres:
		if c.Checkpoint.DatabaseURL == "" {
			return eris.New("config: checkpoint.database_url is required for the postgres driver")
		}
	default:
		return eris.Errorf("config: unknown checkpoint.driver %q", c.Checkpoint.Driver)
	}
	if c.Google.RadiusMeters <= 0 {
		return eris.New("config: google.radius_meters must be positive")
	}
	if c.Google.DelayMs < 0 {
		return eris.New("config: google.delay_ms must not be negative")
	}
	return nil
}

// TagFilter returns the configured tag filter.
func (c *Config) TagFilter() (model.TagFilter, error) {
	return model.ParseTagFilter(c.Source.Tags)
}

// Projection returns the configured centroid projection.
func (c *Config) Projection() (geo.Kind, error) {
	return geo.ParseKind(c.Geo.Projection)
}

// CheckpointTarget returns the path or connection string for the driver.
func (c *Config) CheckpointTarget() string {
	if c.Checkpoint.Driver == store.DriverPostgres {
		return c.Checkpoint.DatabaseURL
	}
	return c.Checkpoint.Path
}

// Verify returns the orchestrator settings.
func (c *Config) Verify() verify.Config {
	return verify.Config{
		APIKey:       c.Google.Key,
		RadiusMeters: c.Google.RadiusMeters,
		Delay:        time.Duration(c.Google.DelayMs) * time.Millisecond,
	}
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
