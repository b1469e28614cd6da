package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/linkauditor/linkauditor/internal/config"
	"github.com/linkauditor/linkauditor/internal/crawler"
	"github.com/linkauditor/linkauditor/internal/log"
	"github.com/linkauditor/linkauditor/internal/model"
	"github.com/linkauditor/linkauditor/internal/pipeline"
	"github.com/linkauditor/linkauditor/internal/report"
	"github.com/spf13/cobra"
)

// NewAuditCmd creates the audit command.
func NewAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit [url]",
		Short: "Audit a website's external links",
		Long: `Audit crawls a website and collects every link pointing to an external
domain. Each destination domain is classified as authority or non-authority
based on configurable rules (.gov/.edu/.mil suffixes plus a curated list of
regulatory and reference sites by default).

The crawler seeds itself from sitemap.xml when one exists, honors robots.txt
rules and Crawl-delay, and never follows links off the audited site.

Examples:
  # Audit a single site
  linkauditor audit example.com

  # Audit multiple sites concurrently
  linkauditor audit example.com example.org example.net

  # Output JSON report to a file
  linkauditor audit --json -o report.json example.com

  # Export one row per external link as CSV
  linkauditor audit --csv links example.com

  # Use a custom configuration file
  linkauditor audit -c myconfig.yaml example.com

Configuration file (.linkauditor) example:
  maxPages: 200
  delay: 500ms
  authority:
    suffixes: [".gov", ".edu"]
    domains: ["who.int", "wikipedia.org"]`,
		Args: cobra.ArbitraryArgs,
		RunE: runAuditCmd,
	}

	// Crawl behavior flags
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to crawl per site")
	cmd.Flags().DurationP("delay", "d", config.DefaultDelay,
		"Minimum spacing between consecutive requests")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"HTTP timeout for each request")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with requests")
	cmd.Flags().Bool("ignore-robots", false,
		"Crawl pages disallowed by robots.txt")
	cmd.Flags().Bool("no-sitemap", false,
		"Skip sitemap.xml seeding and spider from the root page alone")
	cmd.Flags().Bool("strict-host", false,
		"Treat www.example.com and example.com as different sites")

	// Batch auditing flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent audits when multiple URLs are given")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .linkauditor in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown and --csv)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json and --csv)")
	cmd.Flags().String("csv", "",
		"Output CSV report: pages, domains, or links")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runAuditCmd executes the audit command.
func runAuditCmd(cmd *cobra.Command, args []string) error {
	// Build config from flags
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging
	cfg.Verbose = getVerboseFlag(cmd)
	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, finishing current pages...")
		cancel()
	}()

	return runAudit(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
// Flags always win over config file values, so the file is applied first
// and flags the user actually changed are read afterwards.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load settings from config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently skip when no file is found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cf, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cf.Apply(cfg)
	} else if explicitConfigPath {
		// User explicitly specified a config file that doesn't exist
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	if cmd.Flags().Changed("max-pages") || configPath == "" {
		cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
		if err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("delay") || configPath == "" {
		cfg.Delay, err = cmd.Flags().GetDuration("delay")
		if err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("timeout") || configPath == "" {
		cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
		if err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("user-agent") || configPath == "" {
		cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
		if err != nil {
			return nil, err
		}
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.IgnoreRobots, err = cmd.Flags().GetBool("ignore-robots")
	if err != nil {
		return nil, err
	}

	cfg.NoSitemap, err = cmd.Flags().GetBool("no-sitemap")
	if err != nil {
		return nil, err
	}

	cfg.StrictHost, err = cmd.Flags().GetBool("strict-host")
	if err != nil {
		return nil, err
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.CSVReport, err = cmd.Flags().GetString("csv")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	// Get positional arguments (root URLs)
	cfg.Targets = args

	return cfg, nil
}

// runAudit executes the audit.
func runAudit(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if len(cfg.Targets) == 0 {
		return errors.New("no targets provided (specify one or more website URLs as arguments)")
	}

	logger.Info("starting audit",
		"targets", cfg.Targets,
		"maxPages", cfg.MaxPages,
		"batchSize", cfg.BatchSize,
	)

	// One HTTP client shared by every audit. The crawler's politeness delay
	// is per-site, so connection reuse across sites is safe.
	client := &http.Client{
		Timeout: cfg.Timeout,
	}

	// Use batch processor for concurrent audits if multiple targets
	if len(cfg.Targets) > 1 && cfg.BatchSize > 1 {
		return runBatchAudit(ctx, cfg, client, logger)
	}

	// Single target or sequential auditing
	return runSequentialAudit(ctx, cfg, client, logger)
}

// createPipelineForSite creates the audit pipeline: robots.txt inspection,
// the crawl itself, then summarization.
func createPipelineForSite(client *http.Client, logger *slog.Logger, cfg *config.Config, progress crawler.ProgressFunc) *pipeline.Pipeline {
	p := pipeline.New(
		pipeline.WithLogger(logger),
	)

	crawlOpts := []pipeline.CrawlStepOption{
		pipeline.WithCrawlLogger(logger),
	}
	if progress != nil {
		crawlOpts = append(crawlOpts, pipeline.WithCrawlProgress(progress))
	}

	p.AddSteps(
		pipeline.NewRobotsStep(client,
			pipeline.WithRobotsUserAgent(cfg.UserAgent),
			pipeline.WithRobotsLogger(logger),
		),
		pipeline.NewCrawlStep(client, cfg, crawlOpts...),
		pipeline.NewSummarizeStep(
			pipeline.WithSummarizeLogger(logger),
		),
	)

	return p
}

// runSequentialAudit audits targets one at a time with progress on stderr.
func runSequentialAudit(ctx context.Context, cfg *config.Config, client *http.Client, logger *slog.Logger) error {
	for _, target := range cfg.Targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Progress goes to stderr so reports on stdout stay clean
		progress := func(page *model.PageRecord, visited, budget int) {
			fmt.Fprintf(os.Stderr, "  [%d/%d] %s\n", visited, budget, page.URL)
		}

		p := createPipelineForSite(client, logger, cfg, progress)

		auditReport := pipeline.NewSiteReport(target)

		fmt.Fprintf(os.Stderr, "Auditing %s...\n", auditReport.Site)
		startTime := time.Now()

		// Execute the pipeline
		if err := p.Execute(ctx, auditReport); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("audit failed", "target", target, "error", err)
			fmt.Fprintf(os.Stderr, "Audit error for %s: %v\n", target, err)
			continue
		}

		elapsed := time.Since(startTime)
		fmt.Fprintf(os.Stderr, "Audit completed in %s\n\n", elapsed.Round(time.Millisecond))

		// Generate and output report
		if err := outputReport(cfg, auditReport, len(cfg.Targets) > 1); err != nil {
			logger.Error("report failed", "target", target, "error", err)
		}
	}

	return nil
}

// runBatchAudit audits multiple targets concurrently using BatchProcessor.
func runBatchAudit(ctx context.Context, cfg *config.Config, client *http.Client, logger *slog.Logger) error {
	fmt.Fprintf(os.Stderr, "Starting batch audit of %d sites (concurrency: %d)...\n\n",
		len(cfg.Targets), cfg.BatchSize)

	startTime := time.Now()

	// Create batch processor with pipeline factory.
	// No per-page progress in batch mode; interleaved output from concurrent
	// crawls would be unreadable.
	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			return createPipelineForSite(client, logger, cfg, nil)
		},
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	// Process with callback for streaming output
	var mu sync.Mutex
	err := bp.ProcessBatchWithCallback(ctx, cfg.Targets, func(auditReport *model.AuditReport, index int) {
		mu.Lock()
		defer mu.Unlock()

		fmt.Fprintf(os.Stderr, "[%d/%d] Audit completed: %s\n", index+1, len(cfg.Targets), auditReport.Site)

		// Generate and output report
		if err := outputReport(cfg, auditReport, true); err != nil {
			logger.Error("report failed", "target", auditReport.Site, "error", err)
		}
	})

	elapsed := time.Since(startTime)
	fmt.Fprintf(os.Stderr, "\nBatch audit completed in %s\n", elapsed.Round(time.Millisecond))

	return err
}

// reportFileForSite returns the output path for one site's report.
// With a single target the configured path is used as-is. With several
// targets each site's host is spliced in before the extension, so the
// audits never overwrite one another's reports.
func reportFileForSite(reportFile string, auditReport *model.AuditReport, multi bool) string {
	if reportFile == "" || !multi {
		return reportFile
	}

	host := auditReport.BaseDomain
	if u, err := url.Parse(auditReport.Site); err == nil && u.Host != "" {
		host = u.Host
	}
	host = strings.ReplaceAll(host, ":", "_")

	ext := filepath.Ext(reportFile)
	return strings.TrimSuffix(reportFile, ext) + "-" + host + ext
}

// outputReport outputs the audit report in the requested format.
// multi indicates the run covers several sites, which switches file output
// to per-site paths.
func outputReport(cfg *config.Config, auditReport *model.AuditReport, multi bool) error {
	reportFile := reportFileForSite(cfg.ReportFile, auditReport, multi)

	// Determine output destination
	var output *os.File
	if reportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(reportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(reportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	writer := selectWriter(cfg, output)
	_, err := writer.Write(auditReport)
	return err
}

// selectWriter picks the report writer matching the configured format.
func selectWriter(cfg *config.Config, output *os.File) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	case cfg.CSVReport != "":
		return report.NewCSVWriter(output, cfg.CSVReport)
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}
}
