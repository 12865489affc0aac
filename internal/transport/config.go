package transport

import (
	"strconv"
	"strings"
)

// Config is the read-only settings section of a single driver, e.g. the
// "services.mailjet" block holding "key" and "secret".
type Config map[string]string

// Get returns the value stored under key, or "" when the key or the whole
// section is absent.
func (c Config) Get(key string) string {
	if c == nil {
		return ""
	}
	return c[key]
}

// Bool parses the value stored under key. Missing or unparseable values
// are reported as false.
func (c Config) Bool(key string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(c.Get(key)))
	if err != nil {
		return false
	}
	return v
}

// Has reports whether key is present with a non-empty value.
func (c Config) Has(key string) bool {
	return c.Get(key) != ""
}

// Source supplies driver configuration sections to the Manager.
type Source interface {
	// Section returns the configuration for the named driver. A missing
	// section is returned as an empty Config, never as an error.
	Section(name string) Config
}

// StaticSource is a Source backed by an in-memory map of sections.
type StaticSource map[string]Config

// Section implements Source.
func (s StaticSource) Section(name string) Config {
	if s == nil {
		return Config{}
	}
	if c, ok := s[name]; ok && c != nil {
		return c
	}
	return Config{}
}
