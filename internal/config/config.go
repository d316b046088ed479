package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config carries the externally tunable settings. Values come from the
// environment, layered over an optional config file, with the documented
// defaults underneath.
type Config struct {
	ServerAddr  string `mapstructure:"SERVER_ADDR"`
	MetricsAddr string `mapstructure:"METRICS_ADDR"`

	WSPRLiveURL        string `mapstructure:"WSPRLIVE_URL"`
	WSPRLiveTimeoutSec int    `mapstructure:"WSPRLIVE_TIMEOUT_SEC"`

	GridCellDeg         float64 `mapstructure:"GRID_CELL_DEG"`
	TopCandidates       int     `mapstructure:"TOP_CANDIDATES"`
	RingToleranceKm     float64 `mapstructure:"RING_TOLERANCE_KM"`
	CorridorToleranceKm float64 `mapstructure:"CORRIDOR_TOLERANCE_KM"`
	HopDistanceKm       float64 `mapstructure:"HOP_DISTANCE_KM"`
	ZThreshold          float64 `mapstructure:"Z_THRESHOLD"`
	MinGroupCount       int     `mapstructure:"MIN_GROUP_COUNT"`
	UseEllipsoidal      bool    `mapstructure:"USE_ELLIPSOIDAL"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

// Load reads configuration. A missing file argument means environment and
// defaults only; a named but unreadable file is an error.
func Load(file string) (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_ADDR", ":8080")
	v.SetDefault("METRICS_ADDR", ":9090")
	v.SetDefault("WSPRLIVE_URL", "https://db1.wspr.live/")
	v.SetDefault("WSPRLIVE_TIMEOUT_SEC", 60)
	v.SetDefault("GRID_CELL_DEG", 1.0)
	v.SetDefault("TOP_CANDIDATES", 50)
	v.SetDefault("RING_TOLERANCE_KM", 250.0)
	v.SetDefault("CORRIDOR_TOLERANCE_KM", 50.0)
	v.SetDefault("HOP_DISTANCE_KM", 2000.0)
	v.SetDefault("Z_THRESHOLD", 3.5)
	v.SetDefault("MIN_GROUP_COUNT", 5)
	v.SetDefault("USE_ELLIPSOIDAL", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}

// WSPRLiveTimeout returns the fetch timeout as a duration.
func (c Config) WSPRLiveTimeout() time.Duration {
	return time.Duration(c.WSPRLiveTimeoutSec) * time.Second
}
