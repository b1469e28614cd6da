package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/linkauditor/linkauditor/internal/config"
	"github.com/linkauditor/linkauditor/internal/crawler"
	"github.com/linkauditor/linkauditor/internal/model"
)

// RobotsStep records the site's robots.txt crawl-delay on the report.
//
// Design decision: This is a separate step even though the crawl engine
// performs its own robots check, because the advertised crawl-delay is a
// reportable fact about the site: a reader comparing audit durations wants
// to see that the site itself asked for 10-second spacing.
type RobotsStep struct {
	// client is the shared HTTP client.
	client *http.Client

	// userAgent is matched against robots groups.
	userAgent string

	// logger for structured logging.
	logger *slog.Logger
}

// RobotsStepOption configures a RobotsStep.
type RobotsStepOption func(*RobotsStep)

// WithRobotsUserAgent sets the user agent matched against robots groups.
func WithRobotsUserAgent(ua string) RobotsStepOption {
	return func(s *RobotsStep) {
		s.userAgent = ua
	}
}

// WithRobotsLogger sets a custom logger for the robots step.
func WithRobotsLogger(logger *slog.Logger) RobotsStepOption {
	return func(s *RobotsStep) {
		s.logger = logger
	}
}

// NewRobotsStep creates a robots.txt inspection step.
func NewRobotsStep(client *http.Client, opts ...RobotsStepOption) *RobotsStep {
	s := &RobotsStep{
		client:    client,
		userAgent: config.DefaultUserAgent,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *RobotsStep) Name() string {
	return "robots"
}

// Do fetches robots.txt and records the advertised crawl-delay.
// A missing or unreadable robots.txt is not an error.
func (s *RobotsStep) Do(ctx context.Context, report *model.AuditReport) error {
	root, err := url.Parse(report.Site)
	if err != nil {
		return err
	}

	policy := crawler.FetchRobotsPolicy(ctx, s.client, root, s.userAgent)
	report.RobotsCrawlDelay = policy.CrawlDelay()

	if report.RobotsCrawlDelay > 0 {
		s.logger.Debug("robots.txt advertises a crawl delay",
			"site", report.Site,
			"delay", report.RobotsCrawlDelay,
		)
	}
	return nil
}

// CrawlStep runs the crawl engine over the site and attaches its result
// to the report. This is the audit's main step; everything after it only
// aggregates and formats what the crawl collected.
type CrawlStep struct {
	// client is the shared HTTP client.
	client *http.Client

	// cfg carries the crawl parameters and authority rules.
	cfg *config.Config

	// progress, when set, is forwarded to the crawl engine.
	progress crawler.ProgressFunc

	// logger for structured logging.
	logger *slog.Logger
}

// CrawlStepOption configures a CrawlStep.
type CrawlStepOption func(*CrawlStep)

// WithCrawlProgress sets a progress callback invoked after each page.
func WithCrawlProgress(fn crawler.ProgressFunc) CrawlStepOption {
	return func(s *CrawlStep) {
		s.progress = fn
	}
}

// WithCrawlLogger sets a custom logger for the crawl step.
func WithCrawlLogger(logger *slog.Logger) CrawlStepOption {
	return func(s *CrawlStep) {
		s.logger = logger
	}
}

// NewCrawlStep creates the crawl step from the audit configuration.
func NewCrawlStep(client *http.Client, cfg *config.Config, opts ...CrawlStepOption) *CrawlStep {
	s := &CrawlStep{
		client: client,
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do runs the crawl and attaches the result to the report.
//
// Cancellation is not treated as a step failure: the partial result is
// attached, summarized, and the report marked cancelled, so the audit still
// produces useful output. Later steps will not run after cancellation,
// which is why the summary is filled in here.
func (s *CrawlStep) Do(ctx context.Context, report *model.AuditReport) error {
	spider := crawler.NewSpider(s.client, s.cfg.Rules,
		crawler.WithMaxPages(s.cfg.MaxPages),
		crawler.WithDelay(s.cfg.Delay),
		crawler.WithSpiderUserAgent(s.cfg.UserAgent),
		crawler.WithSpiderMaxBodySize(s.cfg.MaxBodySize),
		crawler.WithStrictHostMatching(s.cfg.StrictHost),
		crawler.WithSitemapSeeding(!s.cfg.NoSitemap),
		crawler.WithRobotsPolicy(!s.cfg.IgnoreRobots),
		crawler.WithProgress(s.progress),
		crawler.WithSpiderLogger(s.logger),
	)

	result, err := spider.Crawl(ctx, report.Site)
	if result != nil {
		report.Crawl = result
	}

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			report.Cancelled = true
			if result != nil {
				report.Summary = result.Summarize()
				report.Domains = result.DomainStats()
			}
			s.logger.Warn("crawl cancelled, reporting partial result",
				"site", report.Site,
				"pagesVisited", report.Summary.PagesVisited,
			)
			return nil
		}
		return err
	}

	return nil
}

// SummarizeStep computes the aggregate counts and the per-domain view
// from the crawl result.
//
// Design decision: Aggregation is a separate step rather than part of the
// crawl so the crawl result stays a plain record of what was seen; every
// derived number is recomputed from it and the two can never disagree.
type SummarizeStep struct {
	// logger for structured logging.
	logger *slog.Logger
}

// SummarizeStepOption configures a SummarizeStep.
type SummarizeStepOption func(*SummarizeStep)

// WithSummarizeLogger sets a custom logger for the summarize step.
func WithSummarizeLogger(logger *slog.Logger) SummarizeStepOption {
	return func(s *SummarizeStep) {
		s.logger = logger
	}
}

// NewSummarizeStep creates the aggregation step.
func NewSummarizeStep(opts ...SummarizeStepOption) *SummarizeStep {
	s := &SummarizeStep{logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *SummarizeStep) Name() string {
	return "summarize"
}

// Do fills the report's summary and per-domain aggregation.
func (s *SummarizeStep) Do(_ context.Context, report *model.AuditReport) error {
	if report.Crawl == nil {
		return errors.New("no crawl result to summarize")
	}

	report.Summary = report.Crawl.Summarize()
	report.Domains = report.Crawl.DomainStats()

	s.logger.Debug("audit summarized",
		"site", report.Site,
		"pagesVisited", report.Summary.PagesVisited,
		"externalLinks", report.Summary.TotalExternalLinks,
		"authorityLinks", report.Summary.AuthorityLinks,
	)
	return nil
}
