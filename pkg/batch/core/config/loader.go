package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tigerroll/surfin-etl/pkg/batch/support/util/exception"
	"github.com/tigerroll/surfin-etl/pkg/batch/support/util/logger"

	"go.uber.org/fx"
)

// Package config provides utilities for loading and managing application configuration
// from various sources, including YAML files and environment variables.

const moduleName = "config"

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigParams defines the dependencies for NewConfigProvider.
type ConfigParams struct {
	fx.In
	EmbeddedConfig EmbeddedConfig      // EmbeddedConfig contains the raw bytes of the configuration file.
	Expander       EnvironmentExpander `optional:"true"`
	EnvFilePath    string              `name:"envFilePath" optional:"true"` // EnvFilePath is the path to the .env file, if any.
}

// loadConfig loads configuration from the embedded YAML and environment variables.
//
// Order of precedence (last wins): NewConfig defaults, embedded YAML, environment.
// ${VAR} placeholders in the YAML are expanded by expander before parsing.
func loadConfig(envFilePath string, embeddedConfig EmbeddedConfig, expander EnvironmentExpander) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			logger.Warnf(".env file (%s) not found or could not be loaded: %v", envFilePath, err)
		}
	} else {
		if err := godotenv.Load(); err != nil {
			logger.Debugf(".env file not found or could not be loaded: %v", err)
		}
	}

	cfg := NewConfig()

	raw := []byte(embeddedConfig)
	if expander != nil {
		expanded, err := expander.Expand(raw)
		if err != nil {
			return nil, exception.NewBatchError(moduleName, "failed to expand environment placeholders", err)
		}
		raw = expanded
	}

	var yamlConfig Config
	if err := yaml.Unmarshal(raw, &yamlConfig); err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to unmarshal embedded config", err)
	}

	mergeConfig(cfg, &yamlConfig)

	// surfin.loader.chunk_size -> SURFIN_LOADER_CHUNK_SIZE
	if err := loadStructFromEnv(reflect.ValueOf(cfg).Elem(), ""); err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to load config from environment variables", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	cfg.EmbeddedConfig = embeddedConfig
	return cfg, nil
}

// NewConfigProvider is an Fx provider that loads and provides *Config.
// It also sets the global logger level.
func NewConfigProvider(params ConfigParams) (*Config, error) {
	cfg, err := loadConfig(params.EnvFilePath, params.EmbeddedConfig, params.Expander)
	if err != nil {
		return nil, err
	}

	logger.SetLogLevel(cfg.Surfin.System.Logging.Level)
	logger.Debugf("Log level set to: %s", cfg.Surfin.System.Logging.Level)

	return cfg, nil
}

// LoadConfig loads configuration from configuration files and environment variables.
// Placeholders in embeddedConfig are expanded from the process environment.
func LoadConfig(envFilePath string, embeddedConfig EmbeddedConfig) (*Config, error) {
	return loadConfig(envFilePath, embeddedConfig, NewOsEnvironmentExpander())
}

// validate checks the loader settings.
func validate(cfg *Config) error {
	l := cfg.Surfin.Loader
	if l.ChunkSize <= 0 {
		return exception.NewBatchErrorf(moduleName, "surfin.loader.chunk_size must be positive, got %d", l.ChunkSize, ErrInvalidConfig)
	}
	switch l.Mode {
	case LoaderModeBulk, LoaderModeEntity:
	default:
		return exception.NewBatchErrorf(moduleName, "surfin.loader.mode must be %q or %q, got %q", LoaderModeBulk, LoaderModeEntity, l.Mode, ErrInvalidConfig)
	}
	if cfg.Surfin.Infrastructure.TargetDBRef == "" {
		return exception.NewBatchErrorf(moduleName, "surfin.infrastructure.target_db_ref must not be empty", ErrInvalidConfig)
	}
	switch p := cfg.Surfin.Infrastructure.Tracing.Protocol; p {
	case "", TracingProtocolHTTP, TracingProtocolGRPC:
	default:
		return exception.NewBatchErrorf(moduleName, "surfin.infrastructure.tracing.protocol must be %q or %q, got %q", TracingProtocolHTTP, TracingProtocolGRPC, p, ErrInvalidConfig)
	}
	return nil
}

// mergeConfig performs a deep merge from sourceConfig into destConfig.
// Values in sourceConfig overwrite those in destConfig unless they are zero values.
func mergeConfig(destConfig, sourceConfig *Config) {
	mergeSurfinConfig(&destConfig.Surfin, &sourceConfig.Surfin)
}

func mergeSurfinConfig(dest, source *SurfinConfig) {
	mergeSystemConfig(&dest.System, &source.System)
	mergeLoaderConfig(&dest.Loader, &source.Loader)

	if source.Infrastructure.TargetDBRef != "" {
		dest.Infrastructure.TargetDBRef = source.Infrastructure.TargetDBRef
	}
	if source.Infrastructure.MetricsEnabled {
		dest.Infrastructure.MetricsEnabled = true
	}
	if source.Infrastructure.MetricsTextfile != "" {
		dest.Infrastructure.MetricsTextfile = source.Infrastructure.MetricsTextfile
	}
	mergeTracingConfig(&dest.Infrastructure.Tracing, &source.Infrastructure.Tracing)

	if source.AdapterConfigs != nil {
		if dest.AdapterConfigs == nil {
			dest.AdapterConfigs = make(map[string]interface{})
		}
		for key, value := range source.AdapterConfigs {
			dest.AdapterConfigs[key] = value
		}
	}
}

func mergeLoaderConfig(dest, source *LoaderConfig) {
	if source.Mode != "" {
		dest.Mode = source.Mode
	}
	// Zero and negative sizes are kept so validation can reject them.
	if source.ChunkSize != 0 {
		dest.ChunkSize = source.ChunkSize
	}
	if source.returnDefaultsSet {
		dest.ReturnDefaults = source.ReturnDefaults
	}
	if source.TableName != "" {
		dest.TableName = source.TableName
	}
	if source.KeyColumn != "" {
		dest.KeyColumn = source.KeyColumn
	}
	if source.SummaryMessage != "" {
		dest.SummaryMessage = source.SummaryMessage
	}
}

func mergeTracingConfig(dest, source *TracingConfig) {
	if source.Enabled {
		dest.Enabled = true
	}
	if source.Endpoint != "" {
		dest.Endpoint = source.Endpoint
	}
	if source.Protocol != "" {
		dest.Protocol = source.Protocol
	}
	if source.Insecure {
		dest.Insecure = true
	}
}

func mergeSystemConfig(dest, source *SystemConfig) {
	if source.Timezone != "" {
		dest.Timezone = source.Timezone
	}
	if source.Logging.Level != "" {
		dest.Logging.Level = source.Logging.Level
	}
}

// loadStructFromEnv recursively loads configuration values into a struct from environment variables.
// It uses the "yaml" tag to determine the environment variable name.
func loadStructFromEnv(val reflect.Value, prefix string) error {
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)
		yamlTag := fieldType.Tag.Get("yaml")
		if yamlTag == "" || yamlTag == "-" {
			continue
		}
		envVarName := strings.ToUpper(prefix + yamlTag)

		if field.Kind() == reflect.Struct {
			if err := loadStructFromEnv(field, envVarName+"_"); err != nil {
				return err
			}
			continue
		}

		if field.Kind() == reflect.Map && field.Type().Key().Kind() == reflect.String && field.Type().Elem().Kind() == reflect.Interface {
			// SURFIN_DATABASE_WORKLOAD_DATABASE=/tmp/x.db -> AdapterConfigs["workload"]["database"]
			loadAdapterMapFromEnv(field, envVarName+"_")
			continue
		}

		envValue, exists := os.LookupEnv(envVarName)
		if !exists {
			continue
		}
		if err := setField(field, envValue); err != nil {
			return fmt.Errorf("failed to set field '%s' from env var '%s': %w", fieldType.Name, envVarName, err)
		}
	}
	return nil
}

// loadAdapterMapFromEnv sets entries of a map[string]interface{} holding per-connection
// settings. The first segment after prefix is the connection name, the rest is the
// setting key in lower case. Values stay strings; the providers decode them weakly.
func loadAdapterMapFromEnv(mapField reflect.Value, prefix string) {
	if mapField.IsNil() {
		mapField.Set(reflect.MakeMap(mapField.Type()))
	}

	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, prefix) {
			continue
		}
		parts := strings.SplitN(strings.TrimPrefix(env, prefix), "=", 2)
		if len(parts) != 2 {
			continue
		}
		keyAndField := strings.SplitN(parts[0], "_", 2)
		if len(keyAndField) != 2 || keyAndField[1] == "" {
			continue
		}
		mapKey := strings.ToLower(keyAndField[0])
		settingKey := strings.ToLower(keyAndField[1])

		settings := map[string]interface{}{}
		if existing := mapField.MapIndex(reflect.ValueOf(mapKey)); existing.IsValid() {
			if m, ok := existing.Interface().(map[string]interface{}); ok {
				settings = m
			}
		}
		settings[settingKey] = parts[1]
		mapField.SetMapIndex(reflect.ValueOf(mapKey), reflect.ValueOf(settings))
	}
}

// setField sets the value of a reflect.Value field based on its kind.
// It handles string, int, float, and bool types.
func setField(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(intValue)
	case reflect.Float64, reflect.Float32:
		floatValue, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(floatValue)
	case reflect.Bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(boolValue)
	}
	return nil
}
