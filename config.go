package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/hay-kot/criterio"
	"gopkg.in/yaml.v3"
)

const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
	SourceHTTP     = "http"
)

type Config struct {
	RecordID string       `yaml:"record_id"`
	Links    LinkConfig   `yaml:"links"`
	Source   SourceConfig `yaml:"source"`
	Server   ServerConfig `yaml:"server"`
	Log      LogConfig    `yaml:"log"`
}

// LinkConfig holds the base URLs of the two outbound pages. They are opaque
// strings and are used verbatim.
type LinkConfig struct {
	ScorecardBase string `yaml:"scorecard_base"`
	SummaryBase   string `yaml:"summary_base"`
}

type SourceConfig struct {
	Kind    string        `yaml:"kind"`
	File    string        `yaml:"file"`
	DSN     string        `yaml:"dsn"`
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

func DefaultConfig() Config {
	return Config{
		Source: SourceConfig{
			Kind:    SourceFile,
			File:    "data/dashboards.json",
			Timeout: 10 * time.Second,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads the YAML file at path on top of the defaults. A missing
// file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Source.Kind == "" {
		c.Source.Kind = defaults.Source.Kind
	}
	if c.Source.Timeout <= 0 {
		c.Source.Timeout = defaults.Source.Timeout
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
}

// Validate checks the settings needed to talk to the configured source.
// The record id is checked separately by commands that load a dashboard.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("source.kind", c.Source.Kind, isSourceKind),
		c.validateSource(),
		criterio.Run("log.level", c.Log.Level, isLogLevel),
	)
}

func (c *Config) validateSource() error {
	switch c.Source.Kind {
	case SourceFile:
		return criterio.Run("source.file", c.Source.File, required)
	case SourcePostgres:
		return criterio.Run("source.dsn", strings.TrimSpace(c.Source.DSN), required)
	case SourceHTTP:
		return criterio.Run("source.url", c.Source.URL, isAbsoluteURL)
	}
	return nil
}

func (c *Config) RequireRecordID() error {
	return criterio.ValidateStruct(
		criterio.Run("record_id", strings.TrimSpace(c.RecordID), required),
	)
}

func required(v string) error {
	if v == "" {
		return fmt.Errorf("is required")
	}
	return nil
}

func isSourceKind(v string) error {
	switch v {
	case SourceFile, SourcePostgres, SourceHTTP:
		return nil
	}
	return fmt.Errorf("must be one of %s, %s, %s", SourceFile, SourcePostgres, SourceHTTP)
}

func isLogLevel(v string) error {
	switch v {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
		return nil
	}
	return fmt.Errorf("unknown level %q", v)
}

func isAbsoluteURL(v string) error {
	if v == "" {
		return fmt.Errorf("is required")
	}
	u, err := url.Parse(v)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("must be an absolute url")
	}
	return nil
}
