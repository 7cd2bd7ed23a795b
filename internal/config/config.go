package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/law-makers/schoolsoft/internal/utils/headers"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string `yaml:"log_level"`
	JSONLog  bool   `yaml:"json_log"`

	// Account. Unset values fall back to the selected profile.
	Profile  string `yaml:"profile"`
	School   string `yaml:"school"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	UserType int    `yaml:"usertype"`
	BaseURL  string `yaml:"base_url"`

	// HTTP
	HTTPTimeout time.Duration     `yaml:"timeout"`
	UserAgent   string            `yaml:"user_agent"`
	Proxy       string            `yaml:"proxy"`
	Headers     map[string]string `yaml:"headers"`

	// path of the file that was loaded, if any
	File string `yaml:"-"`
	// NoProfile skips loading a saved profile, e.g. while creating one
	NoProfile bool `yaml:"-"`
}

// UserTypeOr returns the configured usertype, or fallback when none of the
// file, environment or flags set one.
func (c *Config) UserTypeOr(fallback int) int {
	if c.UserType == UserTypeUnset {
		return fallback
	}
	return c.UserType
}

// DefaultConfigPath is read when no --config flag is given. A missing file
// there is not an error.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".schoolsoft", "config.yaml")
}

// Load builds a Config by combining defaults, an optional config file, environment variables, and CLI flags.
// Caller should pass the root *cobra.Command so flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := &Config{
		LogLevel:    DefaultLogLevel,
		JSONLog:     DefaultJSONLog,
		UserType:    UserTypeUnset,
		UserAgent:   DefaultUserAgent,
		HTTPTimeout: DefaultHTTPTimeout,
	}

	path, explicit := flagValue(cmd, "config")
	if !explicit {
		path = DefaultConfigPath()
	}
	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		} else {
			cfg.File = path
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := applyFlags(cfg, cmd); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvSchool); v != "" {
		cfg.School = v
	}
	if v := os.Getenv(EnvUsername); v != "" {
		cfg.Username = v
	}
	if v := os.Getenv(EnvPassword); v != "" {
		cfg.Password = v
	}
	if v := os.Getenv(EnvUserType); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvUserType, err)
		}
		cfg.UserType = n
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv(EnvUserAgent); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv(EnvProxy); v != "" {
		cfg.Proxy = v
	}
	return nil
}

// applyFlags only applies flags the user actually set, so flag defaults never
// shadow values from the file or environment.
func applyFlags(cfg *Config, cmd *cobra.Command) error {
	if cmd == nil {
		return nil
	}

	strs := map[string]*string{
		"profile":    &cfg.Profile,
		"school":     &cfg.School,
		"username":   &cfg.Username,
		"base-url":   &cfg.BaseURL,
		"user-agent": &cfg.UserAgent,
		"proxy":      &cfg.Proxy,
	}
	for name, dst := range strs {
		if v, ok := flagValue(cmd, name); ok {
			*dst = v
		}
	}

	if v, ok := flagValue(cmd, "usertype"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("--usertype: %w", err)
		}
		cfg.UserType = n
	}
	if v, ok := flagValue(cmd, "timeout"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("--timeout: %w", err)
		}
		cfg.HTTPTimeout = d
	}
	if v, ok := flagValue(cmd, "json"); ok && v == "true" {
		cfg.JSONLog = true
	}
	if v, ok := flagValue(cmd, "verbose"); ok && v == "true" {
		cfg.LogLevel = "debug"
	}

	if _, ok := flagValue(cmd, "header"); ok {
		raw, err := cmd.Flags().GetStringArray("header")
		if err != nil {
			return err
		}
		parsed, err := headers.ParseHeaders(raw)
		if err != nil {
			return err
		}
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string, len(parsed))
		}
		for k, v := range parsed {
			cfg.Headers[k] = v
		}
	}

	return nil
}

// flagValue returns the flag's value and whether it was set on the command line
func flagValue(cmd *cobra.Command, name string) (string, bool) {
	if cmd == nil {
		return "", false
	}
	f := cmd.Flags().Lookup(name)
	if f == nil || !f.Changed {
		return "", false
	}
	return f.Value.String(), true
}
