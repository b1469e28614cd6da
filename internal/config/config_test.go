package config

import (
	"errors"
	"testing"
	"time"
)

// TestNewConfig tests default values.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	if cfg.MaxPages != DefaultMaxPages {
		t.Errorf("expected max pages %d, got %d", DefaultMaxPages, cfg.MaxPages)
	}
	if cfg.Delay != DefaultDelay {
		t.Errorf("expected delay %v, got %v", DefaultDelay, cfg.Delay)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("expected timeout %v, got %v", DefaultTimeout, cfg.Timeout)
	}
	if cfg.UserAgent != DefaultUserAgent {
		t.Errorf("unexpected user agent: %q", cfg.UserAgent)
	}
	if len(cfg.Rules.Suffixes) == 0 || len(cfg.Rules.Domains) == 0 {
		t.Error("expected default authority rules to be populated")
	}
}

// TestConfigValidate tests configuration validation.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		cfg := NewConfig()
		cfg.Targets = []string{"https://example.com"}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "valid config",
			mutate:  func(_ *Config) {},
			wantErr: nil,
		},
		{
			name:    "no targets",
			mutate:  func(c *Config) { c.Targets = nil },
			wantErr: ErrNoTarget,
		},
		{
			name:    "zero max pages",
			mutate:  func(c *Config) { c.MaxPages = 0 },
			wantErr: ErrInvalidMaxPages,
		},
		{
			name:    "negative delay",
			mutate:  func(c *Config) { c.Delay = -time.Second },
			wantErr: ErrInvalidDelay,
		},
		{
			name:    "zero delay is allowed",
			mutate:  func(c *Config) { c.Delay = 0 },
			wantErr: nil,
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Timeout = 0 },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "zero batch size",
			mutate:  func(c *Config) { c.BatchSize = 0 },
			wantErr: ErrInvalidBatchSize,
		},
		{
			name:    "negative max body size",
			mutate:  func(c *Config) { c.MaxBodySize = -1 },
			wantErr: ErrInvalidMaxBodySize,
		},
		{
			name:    "json and markdown conflict",
			mutate:  func(c *Config) { c.JSONReport = true; c.MarkdownReport = true },
			wantErr: ErrConflictingReportFormats,
		},
		{
			name:    "json and csv conflict",
			mutate:  func(c *Config) { c.JSONReport = true; c.CSVReport = CSVViewLinks },
			wantErr: ErrConflictingReportFormats,
		},
		{
			name:    "unknown csv view",
			mutate:  func(c *Config) { c.CSVReport = "everything" },
			wantErr: ErrInvalidCSVView,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestAuthorityRulesNormalized tests rule normalization.
func TestAuthorityRulesNormalized(t *testing.T) {
	t.Parallel()

	rules := AuthorityRules{
		Suffixes: []string{"GOV", " .edu ", ""},
		Domains:  []string{" IRS.gov", ".wikipedia.org"},
		Keywords: []string{" FDIC "},
	}.Normalized()

	if len(rules.Suffixes) != 2 || rules.Suffixes[0] != ".gov" || rules.Suffixes[1] != ".edu" {
		t.Errorf("unexpected suffixes: %v", rules.Suffixes)
	}
	if len(rules.Domains) != 2 || rules.Domains[0] != "irs.gov" || rules.Domains[1] != "wikipedia.org" {
		t.Errorf("unexpected domains: %v", rules.Domains)
	}
	if len(rules.Keywords) != 1 || rules.Keywords[0] != "fdic" {
		t.Errorf("unexpected keywords: %v", rules.Keywords)
	}
}

// TestAuthorityRulesMerge tests config-file overrides.
func TestAuthorityRulesMerge(t *testing.T) {
	t.Parallel()

	base := DefaultAuthorityRules()

	t.Run("empty override keeps defaults", func(t *testing.T) {
		t.Parallel()

		merged := base.Merge(AuthorityRules{})
		if len(merged.Suffixes) != len(base.Suffixes) || len(merged.Domains) != len(base.Domains) {
			t.Error("empty merge should not change rules")
		}
	})

	t.Run("override replaces lists", func(t *testing.T) {
		t.Parallel()

		merged := base.Merge(AuthorityRules{Domains: []string{"example.org"}})
		if len(merged.Domains) != 1 || merged.Domains[0] != "example.org" {
			t.Errorf("unexpected domains after merge: %v", merged.Domains)
		}
		if len(merged.Suffixes) != len(base.Suffixes) {
			t.Error("suffixes should be untouched by domain override")
		}
	})
}
