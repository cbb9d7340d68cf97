package server

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"

	"PrankTerminal/internal/dialogue"
)

// EnvPrefix prefixes every environment variable the app reads.
const EnvPrefix = "PRANK_"

// AppConfig is the resolved configuration of the process.
type AppConfig struct {
	Addr         string
	ConfigPath   string
	ScriptsPath  string // empty = built-in dialogue
	Pacing       dialogue.Pacing
	Instant      bool // skip animation delays
	OTelEndpoint string
}

func DefaultAppConfig() AppConfig {
	return AppConfig{
		Addr:       ":8080",
		ConfigPath: "configs/terminal.json",
		Pacing:     dialogue.DefaultPacing(),
	}
}

type pacingConfig struct {
	EraseRateMS      *int `json:"eraseRateMs"`
	ChoiceDurationMS *int `json:"choiceDurationMs"`
}

type fileConfig struct {
	Addr         *string       `json:"addr"`
	Scripts      *string       `json:"scripts"`
	Instant      *bool         `json:"instant"`
	OTelEndpoint *string       `json:"otelEndpoint"`
	Pacing       *pacingConfig `json:"pacing"`
}

type envConfig struct {
	Addr           string        `env:"ADDR"`
	Scripts        string        `env:"SCRIPTS"`
	Instant        bool          `env:"INSTANT"`
	EraseRate      time.Duration `env:"ERASE_RATE"`
	ChoiceDuration time.Duration `env:"CHOICE_DURATION"`
	OTelEndpoint   string        `env:"OTEL_ENDPOINT"`
}

// Overrides holds optional command-line overrides; nil fields are unset.
type Overrides struct {
	Addr           *string
	Scripts        *string
	Instant        *bool
	EraseRate      *time.Duration
	ChoiceDuration *time.Duration
	OTelEndpoint   *string
}

func (o Overrides) apply(base AppConfig) AppConfig {
	if o.Addr != nil {
		base.Addr = *o.Addr
	}
	if o.Scripts != nil {
		base.ScriptsPath = *o.Scripts
	}
	if o.Instant != nil {
		base.Instant = *o.Instant
	}
	if o.EraseRate != nil {
		base.Pacing.EraseRate = *o.EraseRate
	}
	if o.ChoiceDuration != nil {
		base.Pacing.ChoiceDuration = *o.ChoiceDuration
	}
	if o.OTelEndpoint != nil {
		base.OTelEndpoint = *o.OTelEndpoint
	}
	return sanitizeConfig(base)
}

func mergeFileConfig(base AppConfig, cfg fileConfig) AppConfig {
	if cfg.Addr != nil {
		base.Addr = *cfg.Addr
	}
	if cfg.Scripts != nil {
		base.ScriptsPath = *cfg.Scripts
	}
	if cfg.Instant != nil {
		base.Instant = *cfg.Instant
	}
	if cfg.OTelEndpoint != nil {
		base.OTelEndpoint = *cfg.OTelEndpoint
	}
	if cfg.Pacing != nil {
		if cfg.Pacing.EraseRateMS != nil {
			base.Pacing.EraseRate = time.Duration(*cfg.Pacing.EraseRateMS) * time.Millisecond
		}
		if cfg.Pacing.ChoiceDurationMS != nil {
			base.Pacing.ChoiceDuration = time.Duration(*cfg.Pacing.ChoiceDurationMS) * time.Millisecond
		}
	}
	return sanitizeConfig(base)
}

func loadConfigFile(path string, base AppConfig) (AppConfig, error) {
	if path == "" {
		return sanitizeConfig(base), nil
	}
	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		if os.IsNotExist(err) {
			return sanitizeConfig(base), nil
		}
		return sanitizeConfig(base), fmt.Errorf("read config %q: %w", cleanPath, err)
	}
	var cfg fileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return sanitizeConfig(base), fmt.Errorf("parse config %q: %w", cleanPath, err)
	}
	return mergeFileConfig(base, cfg), nil
}

// applyEnv overlays PRANK_* variables. A nil environ reads the process
// environment; unset variables leave base untouched.
func applyEnv(base AppConfig, environ map[string]string) (AppConfig, error) {
	cfg := envConfig{
		Addr:           base.Addr,
		Scripts:        base.ScriptsPath,
		Instant:        base.Instant,
		EraseRate:      base.Pacing.EraseRate,
		ChoiceDuration: base.Pacing.ChoiceDuration,
		OTelEndpoint:   base.OTelEndpoint,
	}
	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return base, fmt.Errorf("parse env: %w", err)
	}
	base.Addr = cfg.Addr
	base.ScriptsPath = cfg.Scripts
	base.Instant = cfg.Instant
	base.Pacing.EraseRate = cfg.EraseRate
	base.Pacing.ChoiceDuration = cfg.ChoiceDuration
	base.OTelEndpoint = cfg.OTelEndpoint
	return sanitizeConfig(base), nil
}

func sanitizeConfig(cfg AppConfig) AppConfig {
	defaults := dialogue.DefaultPacing()
	if cfg.Pacing.EraseRate < 0 {
		cfg.Pacing.EraseRate = defaults.EraseRate
	}
	if cfg.Pacing.ChoiceDuration < 0 {
		cfg.Pacing.ChoiceDuration = defaults.ChoiceDuration
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAppConfig().Addr
	}
	return cfg
}

// ResolveConfig layers the config file, then the environment, then the
// command-line overrides over cfg.
func ResolveConfig(cfg AppConfig, overrides Overrides, environ map[string]string) (AppConfig, error) {
	resolved, err := loadConfigFile(cfg.ConfigPath, cfg)
	if err != nil {
		return cfg, err
	}
	resolved, err = applyEnv(resolved, environ)
	if err != nil {
		return cfg, err
	}
	return overrides.apply(resolved), nil
}
