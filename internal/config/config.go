// Package config loads filmpick's settings in layers: built-in defaults,
// then an optional YAML file, then environment variables, then explicit
// overrides (command-line flags). Later layers win.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// PathEnvVar overrides the config file location.
const PathEnvVar = "FILMPICK_CONFIG"

// EnvPrefix namespaces every environment override, e.g.
// FILMPICK_API_BASE_URL -> api.base_url.
const EnvPrefix = "FILMPICK_"

// Config is the complete application configuration.
type Config struct {
	API      APIConfig      `koanf:"api"`
	Workflow WorkflowConfig `koanf:"workflow"`
	Log      LogConfig      `koanf:"log"`
}

// APIConfig describes how to reach the recommendation backend.
type APIConfig struct {
	BaseURL           string        `koanf:"base_url" validate:"omitempty,url"`
	Timeout           time.Duration `koanf:"timeout" validate:"gt=0"`
	CatalogPaths      []string      `koanf:"catalog_paths" validate:"min=1,dive,startswith=/"`
	RecommendPath     string        `koanf:"recommend_path" validate:"startswith=/"`
	RequestsPerSecond float64       `koanf:"requests_per_second" validate:"gt=0"`
	Burst             int           `koanf:"burst" validate:"gte=1"`
	BreakerFailures   uint32        `koanf:"breaker_failures" validate:"gte=1"`
	BreakerCooldown   time.Duration `koanf:"breaker_cooldown" validate:"gt=0"`
}

// WorkflowConfig bounds the selection workflow.
type WorkflowConfig struct {
	CatalogLimit int `koanf:"catalog_limit" validate:"gt=0"`
	MaxSelected  int `koanf:"max_selected" validate:"gt=0"`
	TopN         int `koanf:"top_n" validate:"gt=0"`
}

// LogConfig controls the log file and the JSONL event log.
type LogConfig struct {
	Dir        string `koanf:"dir"`
	Level      string `koanf:"level" validate:"oneof=debug info warn error"`
	Events     bool   `koanf:"events"`
	EventsPath string `koanf:"events_path"`
}

// DataDir returns ~/.filmpick, or .filmpick when the home directory is
// unknown.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".filmpick"
	}
	return filepath.Join(home, ".filmpick")
}

// Default returns the built-in configuration.
func Default() *Config {
	dataDir := DataDir()
	return &Config{
		API: APIConfig{
			BaseURL:           "",
			Timeout:           15 * time.Second,
			CatalogPaths:      []string{"/films/random", "/random_films"},
			RecommendPath:     "/recommend",
			RequestsPerSecond: 5,
			Burst:             4,
			BreakerFailures:   5,
			BreakerCooldown:   30 * time.Second,
		},
		Workflow: WorkflowConfig{
			CatalogLimit: 30,
			MaxSelected:  10,
			TopN:         10,
		},
		Log: LogConfig{
			Dir:        filepath.Join(dataDir, "logs"),
			Level:      "info",
			Events:     false,
			EventsPath: filepath.Join(dataDir, "events.jsonl"),
		},
	}
}

// LoadOptions selects the file layer and carries flag overrides.
type LoadOptions struct {
	// Path is an explicit config file. When empty, $FILMPICK_CONFIG and then
	// ~/.filmpick/config.yaml are tried; a missing default file is fine.
	Path string

	// Overrides are koanf keys ("api.base_url") applied last.
	Overrides map[string]any
}

// Load builds the effective configuration.
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	path, explicit := resolvePath(opts.Path)
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
			}
		} else if explicit {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	// Unprefixed API_BASE_URL is honoured for parity with the web front end;
	// the namespaced variable loads after it and wins.
	if err := k.Load(env.Provider("API_BASE_URL", ".", legacyEnvKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	for key, val := range opts.Overrides {
		if err := k.Set(key, val); err != nil {
			return nil, fmt.Errorf("failed to apply override %s: %w", key, err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.API.BaseURL = NormalizeBaseURL(cfg.API.BaseURL)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func resolvePath(flagPath string) (path string, explicit bool) {
	if flagPath != "" {
		return flagPath, true
	}
	if p := os.Getenv(PathEnvVar); p != "" {
		return p, true
	}
	return filepath.Join(DataDir(), "config.yaml"), false
}

// envKey maps FILMPICK_API_BASE_URL to api.base_url: the first segment after
// the prefix names the section, the remainder is the field.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if s == "config" {
		return ""
	}
	section, field, ok := strings.Cut(s, "_")
	if !ok || field == "" {
		return ""
	}
	return section + "." + field
}

func legacyEnvKey(s string) string {
	if s != "API_BASE_URL" {
		return ""
	}
	return "api.base_url"
}

// NormalizeBaseURL trims whitespace and every trailing slash.
func NormalizeBaseURL(u string) string {
	return strings.TrimRight(strings.TrimSpace(u), "/")
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}
