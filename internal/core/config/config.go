package config

import (
	"time"

	redisclient "github.com/vietddude/scriptforge/internal/infra/redis"
	"github.com/vietddude/scriptforge/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Logging  LoggingConfig      `yaml:"logging"`
	Engine   EngineConfig       `yaml:"engine"`
	Redis    redisclient.Config `yaml:"redis"`
	Database postgres.Config    `yaml:"database"`
	History  HistoryConfig      `yaml:"history"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// HistoryConfig controls saved session retention.
type HistoryConfig struct {
	// Retention of zero keeps sessions forever.
	Retention time.Duration `yaml:"retention"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// EngineConfig holds dispatcher settings.
type EngineConfig struct {
	// Credentials entries may themselves be comma or newline separated lists.
	Credentials    StringList       `yaml:"credentials"`
	FallbackAPIKey string           `yaml:"fallback_api_key"`
	FallbackModels ModelsConfig     `yaml:"fallback_models"`
	Models         ModelListConfig  `yaml:"models"`
	Cooldown       time.Duration    `yaml:"cooldown"`
	RequestTimeout time.Duration    `yaml:"request_timeout"`
	ActivePool     int              `yaml:"active_pool"`
	Classifier     ClassifierConfig `yaml:"classifier"`
	PromptsFile    string           `yaml:"prompts_file"`
}

// ModelsConfig names one model per task category.
type ModelsConfig struct {
	Heavy string `yaml:"heavy"`
	Light string `yaml:"light"`
}

// ModelListConfig holds the ordered fallback chain per task category.
type ModelListConfig struct {
	Heavy []string `yaml:"heavy"`
	Light []string `yaml:"light"`
}

// ClassifierConfig adds error-message patterns to the built-in rules.
type ClassifierConfig struct {
	Overloaded []string `yaml:"overloaded"`
	Quota      []string `yaml:"quota"`
	Fatal      []string `yaml:"fatal"`
}

// StringList accepts either a YAML sequence or a single scalar.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var list []string
	if err := unmarshal(&list); err == nil {
		*l = list
		return nil
	}
	var single string
	if err := unmarshal(&single); err != nil {
		return err
	}
	*l = StringList{single}
	return nil
}
