package config

import (
	"fmt"
	"strings"

	urlutil "github.com/law-makers/schoolsoft/internal/utils/url"
)

func validate(c *Config) error {
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be > 0")
	}
	if c.UserType != UserTypeUnset && c.UserType != 0 && c.UserType != 1 {
		return fmt.Errorf("usertype must be 0 (teacher) or 1 (student), got %d", c.UserType)
	}
	if c.BaseURL != "" {
		if err := urlutil.ValidateURL(c.BaseURL); err != nil {
			return fmt.Errorf("base url: %w", err)
		}
	}
	if c.Proxy != "" {
		if err := urlutil.ValidateProxyURL(c.Proxy); err != nil {
			return fmt.Errorf("proxy: %w", err)
		}
	}
	if strings.ContainsAny(c.School, "/?#") {
		return fmt.Errorf("school %q must be a single path segment", c.School)
	}
	switch strings.ToLower(c.LogLevel) {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}
