package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

// Config holds all application configuration.
type Config struct {
	Catalog CatalogConfig `mapstructure:"catalog"`
	Tiles   TilesConfig   `mapstructure:"tiles"`
	Basemap BasemapConfig `mapstructure:"basemap"`
	Map     MapConfig     `mapstructure:"map"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Log     LogConfig     `mapstructure:"log"`
	UI      UIConfig      `mapstructure:"ui"`
}

type CatalogConfig struct {
	Source string `mapstructure:"source"`
}

type TilesConfig struct {
	OutlineURL  string `mapstructure:"outline_url"`
	CountryURL  string `mapstructure:"country_url"`
	SourceLayer string `mapstructure:"source_layer"`
}

type BasemapConfig struct {
	Tiles       []string `mapstructure:"tiles"`
	Attribution string   `mapstructure:"attribution"`
}

type MapConfig struct {
	MaxZoom float64 `mapstructure:"max_zoom"`
}

type FetchConfig struct {
	Proxy   string        `mapstructure:"proxy"`
	Timeout time.Duration `mapstructure:"timeout"`
	Retries int           `mapstructure:"retries"`
}

type CacheConfig struct {
	Path string        `mapstructure:"path"`
	TTL  time.Duration `mapstructure:"ttl"`
}

type LogConfig struct {
	Dir      string `mapstructure:"dir"`
	Level    string `mapstructure:"level"`
	Terminal bool   `mapstructure:"terminal"`
}

type UIConfig struct {
	Locale string `mapstructure:"locale"`
}

// Load reads .env, an optional geobounds config file, and GEOBOUNDS_*
// environment variables, in increasing order of precedence. An explicit
// file path must exist.
func Load(file string) (*Config, error) {
	_ = godotenv.Load() // OK if missing

	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	} else {
		v.SetConfigName("geobounds")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		_ = v.ReadInConfig() // OK if missing
	}

	// GEOBOUNDS_TILES_COUNTRY_URL -> tiles.country_url
	v.SetEnvPrefix("GEOBOUNDS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("catalog.source", "data/countries_config.json")
	v.SetDefault("tiles.outline_url", "data/country_outlines.geojson")
	v.SetDefault("tiles.country_url", "data/countries/{feature_class}.geojson")
	v.SetDefault("tiles.source_layer", "admin_boundaries")
	v.SetDefault("basemap.tiles", []string{
		"https://a.tile.openstreetmap.org/{z}/{x}/{y}.png",
		"https://b.tile.openstreetmap.org/{z}/{x}/{y}.png",
		"https://c.tile.openstreetmap.org/{z}/{x}/{y}.png",
	})
	v.SetDefault("basemap.attribution", "© OpenStreetMap contributors")
	v.SetDefault("map.max_zoom", 14)
	v.SetDefault("fetch.proxy", "")
	v.SetDefault("fetch.timeout", 30*time.Second)
	v.SetDefault("fetch.retries", 3)
	v.SetDefault("cache.path", "geobounds-cache.db")
	v.SetDefault("cache.ttl", 7*24*time.Hour)
	v.SetDefault("log.dir", "logs")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.terminal", false)
	v.SetDefault("ui.locale", "en")
}

// Validate checks that required fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Catalog.Source == "" {
		errs = append(errs, "catalog.source is required")
	}
	if c.Tiles.OutlineURL == "" {
		errs = append(errs, "tiles.outline_url is required")
	}
	if !strings.Contains(c.Tiles.CountryURL, "{feature_class}") {
		errs = append(errs, fmt.Sprintf("tiles.country_url must contain {feature_class}, got %q", c.Tiles.CountryURL))
	}
	if c.Tiles.SourceLayer == "" {
		errs = append(errs, "tiles.source_layer is required")
	}
	if c.Map.MaxZoom <= 0 || c.Map.MaxZoom > 24 {
		errs = append(errs, fmt.Sprintf("map.max_zoom must be 1-24, got %v", c.Map.MaxZoom))
	}
	if c.Fetch.Timeout <= 0 {
		errs = append(errs, "fetch.timeout must be positive")
	}
	if c.Fetch.Retries < 0 {
		errs = append(errs, fmt.Sprintf("fetch.retries must be >= 0, got %d", c.Fetch.Retries))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, "cache.ttl must be >= 0")
	}
	if _, err := language.Parse(c.UI.Locale); err != nil {
		errs = append(errs, fmt.Sprintf("ui.locale %q: %v", c.UI.Locale, err))
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n  - " + strings.Join(errs, "\n  - "))
	}
	return nil
}
