// Package config provides core configuration structures and utilities for the loader.
// This module defines Fx providers for configuration-related components.
package config

import "go.uber.org/fx"

// NewLoggingConfigProvider extracts and provides *LoggingConfig from *Config.
func NewLoggingConfigProvider(cfg *Config) *LoggingConfig {
	return &cfg.Surfin.System.Logging
}

// NewLoaderConfigProvider extracts and provides *LoaderConfig from *Config.
func NewLoaderConfigProvider(cfg *Config) *LoaderConfig {
	return &cfg.Surfin.Loader
}

// Module provides *Config and the sections components depend on.
// The application supplies EmbeddedConfig.
var Module = fx.Options(
	fx.Provide(func() EnvironmentExpander {
		return NewOsEnvironmentExpander()
	}),
	fx.Provide(NewConfigProvider),
	fx.Provide(NewLoggingConfigProvider),
	fx.Provide(NewLoaderConfigProvider),
)
