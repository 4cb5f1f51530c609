// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package config loads service configuration from a YAML file and
// command-line flags. Flags take precedence over the file, the file over
// built-in defaults.
package config

import (
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Defaults for optional settings. DatabaseURL has no default and must be
// provided by file or flag.
const (
	DefaultHTTPAddr    = ":8080"
	DefaultMetricsAddr = "127.0.0.1:9100"
	DefaultLogFormat   = "json"
	DefaultLogLevel    = "info"
	DefaultSessionTTL  = 24 * time.Hour
)

// Config holds all runtime settings for the gatehouse service.
type Config struct {
	DatabaseURL string        `koanf:"database_url"`
	HTTPAddr    string        `koanf:"http_addr"`
	MetricsAddr string        `koanf:"metrics_addr"`
	LogFormat   string        `koanf:"log_format"`
	LogLevel    string        `koanf:"log_level"`
	SessionTTL  time.Duration `koanf:"session_ttl"`
}

// Load reads configuration from path (optional; empty means no file) and
// merges the given flag set on top. Missing optional settings fall back to
// defaults.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if os.IsNotExist(err) {
				return nil, oops.Code("CONFIG_FILE_NOT_FOUND").With("path", path).Wrap(err)
			}
			return nil, oops.Code("CONFIG_FILE_INVALID").With("path", path).Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_INVALID").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_UNMARSHAL_FAILED").Wrap(err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTPAddr == "" {
		c.HTTPAddr = DefaultHTTPAddr
	}
	if c.MetricsAddr == "" {
		c.MetricsAddr = DefaultMetricsAddr
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = DefaultSessionTTL
	}
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return oops.Code("CONFIG_DATABASE_URL_MISSING").
			Errorf("database_url must be set via config file or --database_url flag")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return oops.Code("CONFIG_LOG_FORMAT_INVALID").
			With("log_format", c.LogFormat).
			Errorf("log_format must be json or text")
	}
	return nil
}

// Flags returns the flag set understood by Load. Callers register it on
// their cobra command so flag names and config keys stay in one place.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("gatehouse", pflag.ContinueOnError)
	fs.String("database_url", "", "PostgreSQL connection URL")
	fs.String("http_addr", "", "HTTP listen address")
	fs.String("metrics_addr", "", "observability listen address")
	fs.String("log_format", "", "log output format (json or text)")
	fs.String("log_level", "", "minimum log level (debug, info, warn, error)")
	fs.Duration("session_ttl", 0, "session lifetime")
	return fs
}
