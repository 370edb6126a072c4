package config

// Package config provides structures and utilities for managing application configuration.

import "gopkg.in/yaml.v3"

// EmbeddedConfig holds the content of the configuration file, typically passed from main.go.
// This is used when loading configuration from an embedded source (e.g., a compiled binary).
type EmbeddedConfig []byte

// LogLevel defines the logging level for the application.
type LogLevel string

const (
	LogLevelTrace LogLevel = "TRACE"
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
	LogLevelFatal LogLevel = "FATAL"
)

// LoaderMode selects which loader path writes the events.
type LoaderMode string

const (
	// LoaderModeBulk flattens entities to mappings and inserts them in chunks.
	LoaderModeBulk LoaderMode = "bulk"
	// LoaderModeEntity stages live entities and leaves the write to the flush.
	LoaderModeEntity LoaderMode = "entity"
)

// LoaderConfig holds settings for the response-event loader.
type LoaderConfig struct {
	// Mode is "bulk" or "entity".
	Mode LoaderMode `yaml:"mode"`
	// ChunkSize is the maximum number of mappings submitted per bulk-insert call.
	ChunkSize int `yaml:"chunk_size"`
	// ReturnDefaults requests that generated keys be written back onto the mappings.
	ReturnDefaults bool `yaml:"return_defaults"`
	// TableName is the target table of the bulk path.
	TableName string `yaml:"table_name"`
	// KeyColumn is the generated key column (usually "id").
	KeyColumn string `yaml:"key_column"`
	// SummaryMessage overrides the summary log template. It must contain a single integer verb.
	SummaryMessage string `yaml:"summary_message"`

	// returnDefaultsSet records whether ReturnDefaults was given explicitly, so that
	// "false" in YAML is not mistaken for "unset" during the merge.
	returnDefaultsSet bool
}

// UnmarshalYAML tracks whether return_defaults was present.
func (l *LoaderConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain LoaderConfig
	if err := value.Decode((*plain)(l)); err != nil {
		return err
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		if value.Content[i].Value == "return_defaults" {
			l.returnDefaultsSet = true
		}
	}
	return nil
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the logging level (e.g., "INFO", "DEBUG", "TRACE").
	Level string `yaml:"level"`
}

// SystemConfig holds system-wide settings.
type SystemConfig struct {
	// Timezone is the application timezone (e.g., "UTC", "Asia/Tokyo").
	Timezone string `yaml:"timezone"`
	// Logging is the logging configuration.
	Logging LoggingConfig `yaml:"logging"`
}

// InfrastructureConfig holds logical dependency settings for infrastructure components.
type InfrastructureConfig struct {
	// TargetDBRef is the name of the DBConnection the loader writes to (e.g., "workload").
	TargetDBRef string `yaml:"target_db_ref"`
	// MetricsEnabled switches the Prometheus recorder on. The no-op recorder is used otherwise.
	MetricsEnabled bool `yaml:"metrics_enabled"`
	// MetricsTextfile, when set with MetricsEnabled, receives the metrics in text format at shutdown.
	MetricsTextfile string `yaml:"metrics_textfile"`
	// Tracing configures OpenTelemetry span export.
	Tracing TracingConfig `yaml:"tracing"`
}

// TracingConfig holds OTLP trace exporter settings.
type TracingConfig struct {
	// Enabled switches span export on. Spans are dropped otherwise.
	Enabled bool `yaml:"enabled"`
	// Endpoint is the collector address (e.g., "localhost:4318").
	Endpoint string `yaml:"endpoint"`
	// Protocol is TracingProtocolHTTP (default) or TracingProtocolGRPC.
	Protocol string `yaml:"protocol"`
	// Insecure disables TLS towards the collector.
	Insecure bool `yaml:"insecure"`
}

const (
	TracingProtocolHTTP = "http"
	TracingProtocolGRPC = "grpc"
)

// SurfinConfig holds all configuration under the "surfin" top-level key.
type SurfinConfig struct {
	// System contains system-wide configurations.
	System SystemConfig `yaml:"system"`
	// Loader contains the response-event loader settings.
	Loader LoaderConfig `yaml:"loader"`
	// Infrastructure contains infrastructure-related configurations.
	Infrastructure InfrastructureConfig `yaml:"infrastructure"`
	// AdapterConfigs holds database connection settings keyed by connection name.
	AdapterConfigs map[string]interface{} `yaml:"database"`
}

// Config is the root structure for the entire application configuration.
type Config struct {
	// Surfin contains the top-level configuration.
	Surfin SurfinConfig `yaml:"surfin"`
	// EmbeddedConfig holds configuration loaded from an embedded source, not from YAML.
	EmbeddedConfig EmbeddedConfig `yaml:"-"`
}

// NewConfig returns a new instance of Config with default values.
func NewConfig() *Config {
	cfg := &Config{
		Surfin: SurfinConfig{
			System: SystemConfig{
				Timezone: "UTC",
				Logging:  LoggingConfig{Level: string(LogLevelInfo)},
			},
			Loader: LoaderConfig{
				Mode:           LoaderModeBulk,
				ChunkSize:      10,
				ReturnDefaults: true,
				TableName:      "response_events",
				KeyColumn:      "id",
			},
			Infrastructure: InfrastructureConfig{
				TargetDBRef: "workload",
			},
		},
	}

	// Populated by YAML or by mergeConfig.
	cfg.Surfin.AdapterConfigs = map[string]interface{}{}
	return cfg
}
