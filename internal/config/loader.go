package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".linkauditor"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .linkauditor configuration file.
// Every field is optional; absent fields keep their CLI or built-in defaults.
type File struct {
	// MaxPages overrides the page budget per site.
	MaxPages int `yaml:"maxPages,omitempty"`

	// Delay overrides the spacing between requests ("500ms", "1s").
	Delay Duration `yaml:"delay,omitempty"`

	// Timeout overrides the per-request HTTP timeout.
	Timeout Duration `yaml:"timeout,omitempty"`

	// UserAgent overrides the User-Agent header.
	UserAgent string `yaml:"userAgent,omitempty"`

	// Authority overrides parts of the authority classification rules.
	Authority AuthorityRules `yaml:"authority,omitempty"`
}

// LoadConfigFile loads auditor settings from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound. Callers decide
// whether that is fatal based on whether the path was explicitly specified.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// Apply overlays the file's settings onto the given Config.
// Only fields the file actually sets are applied.
func (cf *File) Apply(c *Config) {
	if cf.MaxPages > 0 {
		c.MaxPages = cf.MaxPages
	}
	if !cf.Delay.IsZero() {
		c.Delay = cf.Delay.Duration
	}
	if !cf.Timeout.IsZero() {
		c.Timeout = cf.Timeout.Duration
	}
	if cf.UserAgent != "" {
		c.UserAgent = cf.UserAgent
	}
	c.Rules = c.Rules.Merge(cf.Authority)
}

// FindConfigFile searches for the configuration file in the following order:
//  1. If configPath is specified, use it directly
//  2. .linkauditor in the current directory
//  3. .linkauditor in the user's home directory
//  4. config.yaml in the XDG config directory
//
// Returns the path to the configuration file, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		candidate := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		candidate := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	candidate := filepath.Join(XDGConfigDir(), "config.yaml")
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}

	return ""
}
