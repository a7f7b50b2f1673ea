package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/viper"

	"svcreg/internal/domain"
)

// Config holds the registry daemon's settings.
type Config struct {
	ListenAddress        string              `mapstructure:"listenAddress"`
	SweepIntervalSeconds int                 `mapstructure:"sweepIntervalSeconds"`
	StaleAfterSeconds    int                 `mapstructure:"staleAfterSeconds"`
	RateLimit            RateLimitConfig     `mapstructure:"rateLimit"`
	Observability        ObservabilityConfig `mapstructure:"observability"`
}

type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"`
	Burst   int     `mapstructure:"burst"`
}

type ObservabilityConfig struct {
	ListenAddress  string `mapstructure:"listenAddress"`
	MetricsEnabled bool   `mapstructure:"metricsEnabled"`
	HealthzEnabled bool   `mapstructure:"healthzEnabled"`
}

func newConfigViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listenAddress", domain.DefaultListenAddress)
	v.SetDefault("sweepIntervalSeconds", domain.DefaultSweepIntervalSeconds)
	v.SetDefault("staleAfterSeconds", domain.DefaultStaleAfterSeconds)
	v.SetDefault("rateLimit.enabled", false)
	v.SetDefault("rateLimit.rps", domain.DefaultRateLimitRPS)
	v.SetDefault("rateLimit.burst", domain.DefaultRateLimitBurst)
	v.SetDefault("observability.listenAddress", domain.DefaultObservabilityListenAddress)
	v.SetDefault("observability.metricsEnabled", true)
	v.SetDefault("observability.healthzEnabled", true)
}

// Load reads the config file at path (defaults only when path is empty),
// applies the PORT environment override, and validates the result.
func Load(path string) (Config, error) {
	v := newConfigViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	// PORT overrides the listen address, matching the registry's documented
	// environment contract.
	if port := os.Getenv("PORT"); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n <= 0 || n > 65535 {
			return Config{}, fmt.Errorf("invalid PORT value %q", port)
		}
		cfg.ListenAddress = fmt.Sprintf("0.0.0.0:%d", n)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.ListenAddress == "" {
		return fmt.Errorf("listenAddress is required")
	}
	if c.SweepIntervalSeconds <= 0 {
		return fmt.Errorf("sweepIntervalSeconds must be positive, got %d", c.SweepIntervalSeconds)
	}
	if c.StaleAfterSeconds <= 0 {
		return fmt.Errorf("staleAfterSeconds must be positive, got %d", c.StaleAfterSeconds)
	}
	if c.RateLimit.Enabled && c.RateLimit.RPS <= 0 {
		return fmt.Errorf("rateLimit.rps must be positive when rate limiting is enabled")
	}
	return nil
}
