// Package config provides the command-line tools' configuration: defaults,
// an optional YAML file, then environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dacharyc/diffmerge"
)

// Config holds the engine tunables and the ambient settings of the tools.
type Config struct {
	Timeout              time.Duration `yaml:"timeout"`
	EditCost             int           `yaml:"edit_cost"`
	MatchThreshold       float64       `yaml:"match_threshold"`
	MatchDistance        int           `yaml:"match_distance"`
	PatchDeleteThreshold float64       `yaml:"patch_delete_threshold"`
	PatchMargin          int           `yaml:"patch_margin"`

	LogLevel    string `yaml:"log_level"`
	OTelEnabled bool   `yaml:"otel_enabled"` // OTEL_ENABLED feature flag
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Timeout:              time.Second,
		EditCost:             4,
		MatchThreshold:       0.5,
		MatchDistance:        1000,
		PatchDeleteThreshold: 0.5,
		PatchMargin:          4,
		LogLevel:             "info",
	}
}

// Load builds the configuration. path names a YAML file; when empty,
// DIFFMERGE_CONFIG is consulted, and with neither set only defaults and the
// environment apply.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("DIFFMERGE_CONFIG")
	}
	if path != "" {
		if err := loadFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	if err := loadEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

func loadEnv(cfg *Config) error {
	var err error
	if cfg.Timeout, err = parseDurationOrDefault("DIFFMERGE_TIMEOUT", cfg.Timeout); err != nil {
		return err
	}
	if cfg.EditCost, err = parseIntOrDefault("DIFFMERGE_EDIT_COST", cfg.EditCost); err != nil {
		return err
	}
	if cfg.MatchThreshold, err = parseFloatOrDefault("DIFFMERGE_MATCH_THRESHOLD", cfg.MatchThreshold); err != nil {
		return err
	}
	if cfg.MatchDistance, err = parseIntOrDefault("DIFFMERGE_MATCH_DISTANCE", cfg.MatchDistance); err != nil {
		return err
	}
	if cfg.PatchDeleteThreshold, err = parseFloatOrDefault("DIFFMERGE_PATCH_DELETE_THRESHOLD", cfg.PatchDeleteThreshold); err != nil {
		return err
	}
	if cfg.PatchMargin, err = parseIntOrDefault("DIFFMERGE_PATCH_MARGIN", cfg.PatchMargin); err != nil {
		return err
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("OTEL_ENABLED"); v != "" {
		cfg.OTelEnabled = v == "true"
	}
	return nil
}

// Validate reports the first setting that is out of range. The error wraps
// diffmerge.ErrInvalidArgument.
func (c Config) Validate() error {
	switch {
	case c.Timeout < 0:
		return invalid("timeout must not be negative, got %s", c.Timeout)
	case c.EditCost < 0:
		return invalid("edit_cost must not be negative, got %d", c.EditCost)
	case c.MatchThreshold < 0 || c.MatchThreshold > 1:
		return invalid("match_threshold must be within [0, 1], got %g", c.MatchThreshold)
	case c.MatchDistance < 0:
		return invalid("match_distance must not be negative, got %d", c.MatchDistance)
	case c.PatchDeleteThreshold < 0 || c.PatchDeleteThreshold > 1:
		return invalid("patch_delete_threshold must be within [0, 1], got %g", c.PatchDeleteThreshold)
	case c.PatchMargin < 0 || c.PatchMargin > diffmerge.MaxPatchMargin:
		return invalid("patch_margin must be within [0, %d], got %d", diffmerge.MaxPatchMargin, c.PatchMargin)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", diffmerge.ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// EngineOptions converts the engine tunables into options for
// diffmerge.New.
func (c Config) EngineOptions() []diffmerge.Option {
	return []diffmerge.Option{
		diffmerge.WithTimeout(c.Timeout),
		diffmerge.WithEditCost(c.EditCost),
		diffmerge.WithMatchThreshold(c.MatchThreshold),
		diffmerge.WithMatchDistance(c.MatchDistance),
		diffmerge.WithPatchDeleteThreshold(c.PatchDeleteThreshold),
		diffmerge.WithPatchMargin(c.PatchMargin),
	}
}

func parseDurationOrDefault(envKey string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(envKey)
	if v == "" {
		return defaultValue, nil
	}
	dur, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, v, err)
	}
	return dur, nil
}

func parseIntOrDefault(envKey string, defaultValue int) (int, error) {
	v := os.Getenv(envKey)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, v, err)
	}
	return n, nil
}

func parseFloatOrDefault(envKey string, defaultValue float64) (float64, error) {
	v := os.Getenv(envKey)
	if v == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, v, err)
	}
	return f, nil
}
