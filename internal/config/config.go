// Package config loads frontline configuration from a YAML file and FRONTLINE_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Timing   TimingConfig   `mapstructure:"timing"`
	Profiles ProfilesConfig `mapstructure:"profiles"`
	Opponent OpponentConfig `mapstructure:"opponent"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"` // memory | postgres
	DSN    string `mapstructure:"dsn"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json | console
}

type TimingConfig struct {
	SettleDelay       time.Duration `mapstructure:"settle_delay"`
	TacticSettleDelay time.Duration `mapstructure:"tactic_settle_delay"`
	CrateSettleDelay  time.Duration `mapstructure:"crate_settle_delay"`
	ReapDelay         time.Duration `mapstructure:"reap_delay"`
	TacticReapDelay   time.Duration `mapstructure:"tactic_reap_delay"`
	ThinkDelay        time.Duration `mapstructure:"think_delay"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	StaleAfter        time.Duration `mapstructure:"stale_after"`
	LobbyTTL          time.Duration `mapstructure:"lobby_ttl"`
	AutomatedTTL      time.Duration `mapstructure:"automated_ttl"`
	EffectWindow      time.Duration `mapstructure:"effect_window"`
	ReaperInterval    time.Duration `mapstructure:"reaper_interval"`
}

type ProfilesConfig struct {
	Driver string `mapstructure:"driver"` // memory | postgres
	Seed   string `mapstructure:"seed"`   // YAML seed file for the memory driver
	// Pools is a YAML pool file; Starter names the pool new profiles own.
	Pools   string `mapstructure:"pools"`
	Starter string `mapstructure:"starter"`
}

type OpponentConfig struct {
	Kind string `mapstructure:"kind"` // random | pass | mcp
	Seed uint64 `mapstructure:"seed"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "localhost:9999")
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.dsn", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("timing.settle_delay", time.Second)
	v.SetDefault("timing.tactic_settle_delay", 2*time.Second)
	v.SetDefault("timing.crate_settle_delay", 500*time.Millisecond)
	v.SetDefault("timing.reap_delay", time.Second)
	v.SetDefault("timing.tactic_reap_delay", 2500*time.Millisecond)
	v.SetDefault("timing.think_delay", 1500*time.Millisecond)
	v.SetDefault("timing.heartbeat_interval", 10*time.Second)
	v.SetDefault("timing.stale_after", 30*time.Second)
	v.SetDefault("timing.lobby_ttl", 24*time.Hour)
	v.SetDefault("timing.automated_ttl", time.Hour)
	v.SetDefault("timing.effect_window", 2*time.Second)
	v.SetDefault("timing.reaper_interval", time.Minute)
	v.SetDefault("profiles.driver", "memory")
	v.SetDefault("profiles.seed", "")
	v.SetDefault("profiles.pools", "")
	v.SetDefault("profiles.starter", "")
	v.SetDefault("opponent.kind", "random")
	v.SetDefault("opponent.seed", 0)
}

// Load reads path (optional) and the environment. A missing file is not an error
// when path is empty.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("FRONTLINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case "memory":
	case "postgres":
		if c.Store.DSN == "" {
			errs = append(errs, errors.New("store.dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.driver %q", c.Store.Driver))
	}
	switch c.Profiles.Driver {
	case "memory":
	case "postgres":
		if c.Store.Driver != "postgres" {
			errs = append(errs, errors.New("profiles.driver postgres needs store.driver postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown profiles.driver %q", c.Profiles.Driver))
	}
	if c.Profiles.Starter != "" && c.Profiles.Pools == "" {
		errs = append(errs, errors.New("profiles.starter needs profiles.pools"))
	}
	switch c.Opponent.Kind {
	case "random", "pass", "mcp":
	default:
		errs = append(errs, fmt.Errorf("unknown opponent.kind %q", c.Opponent.Kind))
	}
	if c.Timing.HeartbeatInterval <= 0 || c.Timing.StaleAfter <= c.Timing.HeartbeatInterval {
		errs = append(errs, errors.New("timing.stale_after must exceed timing.heartbeat_interval"))
	}
	return errors.Join(errs...)
}

// NewLogger builds the process logger from the logging section.
func NewLogger(cfg LoggingConfig) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Format == "json" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("logging.level: %w", err)
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	// Keep stdout free for protocol traffic such as MCP stdio.
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	return zcfg.Build()
}
