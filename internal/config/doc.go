// Package config provides configuration structures and utilities for LinkAuditor.
// It defines the crawl settings, the authority classification rules, and the
// report output preferences.
package config
