package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dacharyc/diffmerge"
)

var envKeys = []string{
	"DIFFMERGE_CONFIG",
	"DIFFMERGE_TIMEOUT",
	"DIFFMERGE_EDIT_COST",
	"DIFFMERGE_MATCH_THRESHOLD",
	"DIFFMERGE_MATCH_DISTANCE",
	"DIFFMERGE_PATCH_DELETE_THRESHOLD",
	"DIFFMERGE_PATCH_MARGIN",
	"LOG_LEVEL",
	"OTEL_ENABLED",
}

// clearEnv blanks every variable Load reads; an empty value counts as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "diffmerge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		file    string
		want    Config
		wantErr string
	}{
		{
			name: "defaults",
			want: Default(),
		},
		{
			name: "environment overrides",
			env: map[string]string{
				"DIFFMERGE_TIMEOUT":                "250ms",
				"DIFFMERGE_EDIT_COST":              "6",
				"DIFFMERGE_MATCH_THRESHOLD":        "0.8",
				"DIFFMERGE_MATCH_DISTANCE":         "0",
				"DIFFMERGE_PATCH_DELETE_THRESHOLD": "0.25",
				"DIFFMERGE_PATCH_MARGIN":           "8",
				"LOG_LEVEL":                        "debug",
				"OTEL_ENABLED":                     "true",
			},
			want: Config{
				Timeout:              250 * time.Millisecond,
				EditCost:             6,
				MatchThreshold:       0.8,
				MatchDistance:        0,
				PatchDeleteThreshold: 0.25,
				PatchMargin:          8,
				LogLevel:             "debug",
				OTelEnabled:          true,
			},
		},
		{
			name: "file then environment",
			file: "timeout: 2s\nedit_cost: 5\nlog_level: warn\n",
			env:  map[string]string{"DIFFMERGE_EDIT_COST": "7"},
			want: func() Config {
				c := Default()
				c.Timeout = 2 * time.Second
				c.EditCost = 7
				c.LogLevel = "warn"
				return c
			}(),
		},
		{
			name: "empty file keeps defaults",
			file: "",
			want: Default(),
		},
		{
			name:    "unknown file key",
			file:    "timeuot: 2s\n",
			wantErr: "timeuot",
		},
		{
			name:    "invalid duration",
			env:     map[string]string{"DIFFMERGE_TIMEOUT": "soon"},
			wantErr: "DIFFMERGE_TIMEOUT",
		},
		{
			name:    "invalid integer",
			env:     map[string]string{"DIFFMERGE_PATCH_MARGIN": "four"},
			wantErr: "DIFFMERGE_PATCH_MARGIN",
		},
		{
			name:    "threshold out of range",
			env:     map[string]string{"DIFFMERGE_MATCH_THRESHOLD": "1.5"},
			wantErr: "match_threshold",
		},
		{
			name:    "negative distance",
			env:     map[string]string{"DIFFMERGE_MATCH_DISTANCE": "-1"},
			wantErr: "match_distance",
		},
		{
			name:    "patch margin too wide",
			env:     map[string]string{"DIFFMERGE_PATCH_MARGIN": "16"},
			wantErr: "patch_margin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" || tt.name == "empty file keeps defaults" {
				path = writeConfig(t, tt.file)
			}

			got, err := Load(path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadFromEnvPath(t *testing.T) {
	clearEnv(t)
	t.Setenv("DIFFMERGE_CONFIG", writeConfig(t, "patch_margin: 2\n"))

	got, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 2, got.PatchMargin)
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")
}

func TestEngineOptions(t *testing.T) {
	opts := Default().EngineOptions()
	assert.Len(t, opts, 6)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "widest margin", mutate: func(c *Config) { c.PatchMargin = diffmerge.MaxPatchMargin }},
		{name: "no margin", mutate: func(c *Config) { c.PatchMargin = 0 }},
		{
			name:    "margin fills the pattern",
			mutate:  func(c *Config) { c.PatchMargin = diffmerge.MatchMaxBits / 2 },
			wantErr: "patch_margin must be within [0, 15], got 16",
		},
		{
			name:    "negative margin",
			mutate:  func(c *Config) { c.PatchMargin = -1 },
			wantErr: "patch_margin",
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.Timeout = -time.Second },
			wantErr: "timeout",
		},
		{
			name:    "edit cost",
			mutate:  func(c *Config) { c.EditCost = -2 },
			wantErr: "edit_cost",
		},
		{
			name:    "delete threshold",
			mutate:  func(c *Config) { c.PatchDeleteThreshold = 1.1 },
			wantErr: "patch_delete_threshold",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, errors.Is(err, diffmerge.ErrInvalidArgument))
		})
	}
}
