// Package config provides configuration management for pitchflow
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ieee0824/pitchflow/internal/logging"
)

// Config holds all application configuration
type Config struct {
	Synth  SynthConfig    `mapstructure:"synth"`
	Cursor CursorConfig   `mapstructure:"cursor"`
	Server ServerConfig   `mapstructure:"server"`
	Log    logging.Config `mapstructure:"log"`
}

// SynthConfig configures the speech-synthesis service
type SynthConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Voice   string        `mapstructure:"voice"`
	Rate    float64       `mapstructure:"rate"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CursorConfig configures the playback cursor
type CursorConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// ServerConfig configures the websocket bridge
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() *Config {
	return &Config{
		Synth: SynthConfig{
			BaseURL: "http://localhost:8000",
			Voice:   "female1",
			Rate:    1.0,
			Timeout: 30 * time.Second,
		},
		Cursor: CursorConfig{
			PollInterval: 16 * time.Millisecond, // one animation frame
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: logging.DefaultConfig(),
	}
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("synth.base_url", cfg.Synth.BaseURL)
	v.SetDefault("synth.voice", cfg.Synth.Voice)
	v.SetDefault("synth.rate", cfg.Synth.Rate)
	v.SetDefault("synth.api_key", cfg.Synth.APIKey)
	v.SetDefault("synth.timeout", cfg.Synth.Timeout)
	v.SetDefault("cursor.poll_interval", cfg.Cursor.PollInterval)
	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
}

// Load reads configuration from defaults, an optional .env file, an
// optional YAML file and PITCHFLOW_* environment variables, in increasing
// precedence. A missing envFile is not an error; a missing configFile is.
func Load(configFile, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	cfg := DefaultConfig()
	v := viper.New()
	setDefaults(v, cfg)

	v.SetEnvPrefix("PITCHFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Cursor.PollInterval <= 0 {
		return nil, fmt.Errorf("cursor.poll_interval must be positive, got %v", cfg.Cursor.PollInterval)
	}
	return cfg, nil
}
