package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/cartridge/replay/pkg/per"
)

// EnvPrefix prefixes every environment override, e.g. REPLAY_CAPACITY.
const EnvPrefix = "REPLAY"

// Config holds all replay service configuration
type Config struct {
	// Listeners
	GRPCPort int    `mapstructure:"grpc_port"`
	HTTPAddr string `mapstructure:"http_addr"`

	// Buffer settings
	Capacity      int     `mapstructure:"capacity"`
	Alpha         float64 `mapstructure:"alpha"`
	Beta          float64 `mapstructure:"beta"`
	BetaIncrement float64 `mapstructure:"beta_increment"`
	Seed          int64   `mapstructure:"seed"`

	// Stats events
	NATSURL       string        `mapstructure:"nats_url"`
	NATSSubject   string        `mapstructure:"nats_subject"`
	StatsInterval time.Duration `mapstructure:"stats_interval"`

	// HTTP rate limiting
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// Logging
	LogLevel string `mapstructure:"log_level"`
}

// Default returns a config with sensible defaults
func Default() *Config {
	return &Config{
		GRPCPort:        8080,
		HTTPAddr:        ":8081",
		Capacity:        1 << 17,
		Alpha:           0.6,
		Beta:            0.4,
		BetaIncrement:   per.DefaultBetaIncrement,
		Seed:            0, // time-based
		NATSURL:         "", // events disabled
		NATSSubject:     "replay.stats",
		StatsInterval:   30 * time.Second,
		RateLimit:       200,
		RateBurst:       400,
		ShutdownTimeout: 30 * time.Second,
		LogLevel:        "info",
	}
}

// BindFlags registers every flag with v under its underscore key so that
// AutomaticEnv resolves REPLAY_<KEY> overrides.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		err = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})
	return err
}

// Load decodes v into a validated Config.
func Load(v *viper.Viper) (*Config, error) {
	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// PER returns the buffer parameters.
func (c *Config) PER() per.Config {
	return per.Config{
		Capacity:      c.Capacity,
		Alpha:         c.Alpha,
		Beta:          c.Beta,
		BetaIncrement: c.BetaIncrement,
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.GRPCPort <= 0 || c.GRPCPort > 65535 {
		return fmt.Errorf("grpc_port must be in (0, 65535]")
	}
	if c.HTTPAddr == "" {
		return fmt.Errorf("http_addr is required")
	}
	if err := c.PER().Validate(); err != nil {
		return fmt.Errorf("buffer config: %w", err)
	}
	if c.NATSURL != "" && c.NATSSubject == "" {
		return fmt.Errorf("nats_subject is required when nats_url is set")
	}
	if c.StatsInterval <= 0 {
		return fmt.Errorf("stats_interval must be positive")
	}
	if c.RateLimit <= 0 || c.RateBurst <= 0 {
		return fmt.Errorf("rate_limit and rate_burst must be positive")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// Logger builds the service logger at the configured level.
func (c *Config) Logger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", "replay").
		Logger()
}
