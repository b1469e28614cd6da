package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These match the behavior of a polite, low-impact audit of a typical
// public website.
const (
	// DefaultMaxPages caps the number of pages crawled per site.
	// This prevents runaway crawling on large or infinitely-generating sites.
	// Users can override this via the --max-pages CLI flag.
	DefaultMaxPages = 500

	// DefaultDelay is the minimum spacing between consecutive HTTP requests.
	// This is a politeness setting to avoid overwhelming the audited site.
	DefaultDelay = 300 * time.Millisecond

	// DefaultTimeout is the per-request HTTP timeout. Public websites should
	// answer well within this; slower responses are treated as failures.
	DefaultTimeout = 15 * time.Second

	// DefaultBatchSize is the number of sites audited concurrently when
	// multiple root URLs are given. Each individual crawl stays sequential.
	DefaultBatchSize = 4

	// DefaultUserAgent identifies LinkAuditor in HTTP requests.
	// Using a descriptive User-Agent is good practice and allows site
	// operators to identify auditor traffic in their logs.
	DefaultUserAgent = "Mozilla/5.0 (compatible; LinkAuditor/1.0; +https://github.com/linkauditor/linkauditor)"

	// DefaultMaxBodySize limits the response body size to read.
	// 5MB is sufficient for any reasonable HTML page while preventing
	// memory exhaustion from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024

	// AppName is the application name used for XDG directory paths.
	AppName = "linkauditor"
)

// CSV view names accepted by Config.CSVReport.
const (
	CSVViewPages   = "pages"
	CSVViewDomains = "domains"
	CSVViewLinks   = "links"
)

// Config holds all configuration options for LinkAuditor.
// This struct is populated from CLI flags and an optional config file and is
// passed through the application via dependency injection rather than global
// state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., CrawlConfig, ReportConfig) for simplicity. The number of options is
// manageable, and nesting would add complexity without significant benefit.
type Config struct {
	// Targets is the list of root website URLs to audit.
	// Must contain at least one entry. A missing scheme defaults to https.
	Targets []string

	// MaxPages is the page budget per site.
	MaxPages int

	// Delay is the minimum spacing between consecutive fetches of one crawl.
	Delay time.Duration

	// Timeout is the HTTP timeout for each request.
	Timeout time.Duration

	// BatchSize is the number of sites audited concurrently.
	BatchSize int

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// Rules are the authority classification rules applied to external
	// link destinations. Replaceable per run without code change.
	Rules AuthorityRules

	// StrictHost disables the www-prefix equivalence when deciding whether
	// a link is internal. By default www.example.com and example.com are
	// treated as the same site.
	StrictHost bool

	// IgnoreRobots disables the basic-courtesy robots.txt check.
	IgnoreRobots bool

	// NoSitemap skips sitemap.xml seeding and spiders from the root alone.
	NoSitemap bool

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .linkauditor in the current directory,
	// the user's home directory, and the XDG config directory.
	ConfigFilePath string

	// JSONReport enables JSON report output instead of human-readable text.
	// Mutually exclusive with MarkdownReport and CSVReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output.
	// Mutually exclusive with JSONReport and CSVReport.
	MarkdownReport bool

	// CSVReport selects a CSV export view ("pages", "domains", or "links").
	// Empty means no CSV output. Mutually exclusive with the other formats.
	CSVReport string

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	// Directories are created automatically if they don't exist.
	ReportFile string
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on zero
// values because many defaults are non-zero (delay, timeout, page budget).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		MaxPages:    DefaultMaxPages,
		Delay:       DefaultDelay,
		Timeout:     DefaultTimeout,
		BatchSize:   DefaultBatchSize,
		UserAgent:   DefaultUserAgent,
		MaxBodySize: DefaultMaxBodySize,
		Rules:       DefaultAuthorityRules(),
	}
}

// XDGConfigDir returns the XDG config directory for LinkAuditor.
// On Linux: ~/.config/linkauditor
// On macOS: ~/Library/Application Support/linkauditor
// On Windows: %APPDATA%\linkauditor
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each point
// of use to fail fast and provide clear error messages upfront. This is
// called once after CLI parsing, before any crawling begins. We return the
// first error found because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}

	if c.MaxPages <= 0 {
		return ErrInvalidMaxPages
	}

	// Zero delay is allowed for test fixtures; negative is never valid
	if c.Delay < 0 {
		return ErrInvalidDelay
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	formats := 0
	if c.JSONReport {
		formats++
	}
	if c.MarkdownReport {
		formats++
	}
	if c.CSVReport != "" {
		formats++
	}
	if formats > 1 {
		return ErrConflictingReportFormats
	}

	switch c.CSVReport {
	case "", CSVViewPages, CSVViewDomains, CSVViewLinks:
	default:
		return ErrInvalidCSVView
	}

	return nil
}
