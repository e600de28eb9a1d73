// Package config loads runtime configuration from an optional YAML file,
// a .env file, and environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every tunable of the simulator.
type Config struct {
	Seed            int64   `mapstructure:"seed"`
	DBPath          string  `mapstructure:"db_path"`
	APIPort         int     `mapstructure:"api_port"`
	AdminKey        string  `mapstructure:"admin_key"`
	AutosaveSeconds int     `mapstructure:"autosave_seconds"`
	TickMillis      int     `mapstructure:"tick_millis"`
	Speed           float64 `mapstructure:"speed"`
	JITCooking      bool    `mapstructure:"jit_cooking"`
}

// Load reads configuration with priority: environment variables, then the
// config file, then defaults. A missing config file is not an error.
func Load(configPath string) (*Config, error) {
	// Load .env if present (doesn't error if missing).
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	v.SetEnvPrefix("BAKERY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("seed", 0)
	v.SetDefault("db_path", "bakery.db")
	v.SetDefault("api_port", 8080)
	v.SetDefault("admin_key", "")
	v.SetDefault("autosave_seconds", 60)
	v.SetDefault("tick_millis", 1000)
	v.SetDefault("speed", 1.0)
	v.SetDefault("jit_cooking", false)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.APIPort <= 0 || cfg.APIPort > 65535 {
		return fmt.Errorf("api_port %d out of range", cfg.APIPort)
	}
	if cfg.TickMillis < 10 {
		return fmt.Errorf("tick_millis %d too small", cfg.TickMillis)
	}
	if cfg.AutosaveSeconds < 1 {
		return fmt.Errorf("autosave_seconds %d too small", cfg.AutosaveSeconds)
	}
	if cfg.Speed < 0 {
		return fmt.Errorf("speed must not be negative")
	}
	return nil
}
