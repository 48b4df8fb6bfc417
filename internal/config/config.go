// Package config loads runtime settings from the environment.
//
// Values resolve in order: process environment, then a .env file in the
// working directory, then the defaults below. Every variable carries the
// WEATHERLINK_ prefix, e.g. WEATHERLINK_PIN_DISTANCE_KM.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is the environment variable prefix
const Prefix = "WEATHERLINK"

// Config holds every tunable setting
type Config struct {
	// ContentPaths are Open Rails content folders, each holding a ROUTES dir
	ContentPaths []string `envconfig:"CONTENT_PATHS"`

	CacheDB          string        `envconfig:"CACHE_DB" default:"data/weatherlink.db"`
	SoundsDir        string        `envconfig:"SOUNDS_DIR" default:"user_sounds" validate:"required"`
	SoundDefsPath    string        `envconfig:"SOUND_DEFINITIONS" default:"sounds.json" validate:"required"`
	PresetsPath      string        `envconfig:"PRESETS_PATH" default:"user_presets.json" validate:"required"`
	PinDistanceKM    float64       `envconfig:"PIN_DISTANCE_KM" default:"10" validate:"gt=0,lte=500"`
	TransitionSecs   int           `envconfig:"TRANSITION_SECS" default:"1800" validate:"gte=0,lte=3600"`
	ForecastTTL      time.Duration `envconfig:"FORECAST_TTL" default:"2h" validate:"gte=0"`
	HTTPTimeout      time.Duration `envconfig:"HTTP_TIMEOUT" default:"20s" validate:"gt=0"`
	FetchConcurrency int           `envconfig:"FETCH_CONCURRENCY" default:"4" validate:"gte=1,lte=16"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFile  string `envconfig:"LOG_FILE" default:"weatherlink.log"`
}

// ConfigErrorType classifies a ConfigError
type ConfigErrorType string

const (
	ErrParsing    ConfigErrorType = "parsing"
	ErrValidation ConfigErrorType = "validation"
)

// ConfigError is returned by Load
type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Load reads .env (if present) and the environment into a validated Config
func Load() (*Config, error) {
	_ = godotenv.Load()
	return load()
}

// LoadFile is Load with an explicit dotenv file, which must exist
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil {
		return nil, &ConfigError{Type: ErrParsing, Message: "failed to read " + path, Err: err}
	}
	return load()
}

func load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrParsing,
			Message: "failed to process environment configuration",
			Err:     err,
		}
	}
	cfg.ContentPaths = cleanPaths(cfg.ContentPaths)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrValidation,
			Message: "configuration validation failed",
			Err:     err,
		}
	}
	return &cfg, nil
}

func cleanPaths(paths []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

// PinDistanceMeters returns the weather pin spacing in meters
func (c *Config) PinDistanceMeters() float64 {
	return c.PinDistanceKM * 1000
}

// Level parses LogLevel
func (c *Config) Level() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// ValidContentPaths returns the content paths that contain a ROUTES folder
func (c *Config) ValidContentPaths() []string {
	var out []string
	for _, p := range c.ContentPaths {
		if info, err := os.Stat(filepath.Join(p, "ROUTES")); err == nil && info.IsDir() {
			out = append(out, p)
		}
	}
	return out
}

// IsValidation reports whether err is a validation ConfigError
func IsValidation(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce) && ce.Type == ErrValidation
}
