package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// Defaults applied by Load.
const (
	DefaultPort           = 8080
	DefaultCooldown       = 30 * time.Second
	DefaultRequestTimeout = 2 * time.Minute
	DefaultHeavyModel     = "gemini-1.5-pro"
	DefaultLightModel     = "gemini-2.0-flash"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML content, expanding ${ENV} references first.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (cfg *AppConfig) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	e := &cfg.Engine
	e.Credentials = SplitCredentials(e.Credentials)
	e.Models.Heavy = compact(e.Models.Heavy)
	e.Models.Light = compact(e.Models.Light)

	if e.FallbackModels.Heavy == "" {
		e.FallbackModels.Heavy = DefaultHeavyModel
	}
	if e.FallbackModels.Light == "" {
		e.FallbackModels.Light = DefaultLightModel
	}
	if len(e.Models.Heavy) == 0 {
		e.Models.Heavy = []string{e.FallbackModels.Heavy}
	}
	if len(e.Models.Light) == 0 {
		e.Models.Light = []string{e.FallbackModels.Light}
	}
	if e.Cooldown == 0 {
		e.Cooldown = DefaultCooldown
	}
	if e.RequestTimeout == 0 {
		e.RequestTimeout = DefaultRequestTimeout
	}
}

// Validate reports configuration errors.
func (cfg *AppConfig) Validate() error {
	var errs []error

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", cfg.Logging.Level))
	}
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server port %d out of range", cfg.Server.Port))
	}

	e := cfg.Engine
	if e.Cooldown < 0 {
		errs = append(errs, errors.New("engine.cooldown must not be negative"))
	}
	if e.RequestTimeout < 0 {
		errs = append(errs, errors.New("engine.request_timeout must not be negative"))
	}
	if e.ActivePool < 0 {
		errs = append(errs, errors.New("engine.active_pool must not be negative"))
	}
	if len(e.Credentials) > 0 && (len(e.Models.Heavy) == 0 || len(e.Models.Light) == 0) {
		errs = append(errs, errors.New("engine.models must list at least one heavy and one light model"))
	}
	if cfg.History.Retention < 0 {
		errs = append(errs, errors.New("history.retention must not be negative"))
	}
	switch cfg.Database.Driver {
	case "", "pgx", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q", cfg.Database.Driver))
	}

	return errors.Join(errs...)
}

// SplitCredentials flattens comma or newline separated entries and drops blanks.
func SplitCredentials(entries []string) []string {
	var out []string
	for _, entry := range entries {
		fields := strings.FieldsFunc(entry, func(r rune) bool {
			return r == ',' || r == '\n' || r == '\r'
		})
		for _, f := range fields {
			if f = strings.TrimSpace(f); f != "" {
				out = append(out, f)
			}
		}
	}
	return out
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
