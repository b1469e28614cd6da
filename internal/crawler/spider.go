package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/linkauditor/linkauditor/internal/config"
	"github.com/linkauditor/linkauditor/internal/model"
)

// ErrHostUnreachable is returned when not a single page of the site could
// be fetched. Individual page failures never produce this; it surfaces
// only the total inability to reach the host at all.
var ErrHostUnreachable = errors.New("host unreachable")

// skipExtensions are path suffixes that never hold HTML worth fetching.
// Filtering them before the fetch saves a request; the Content-Type check
// after the fetch still catches mislabeled resources.
var skipExtensions = map[string]struct{}{
	".pdf": {}, ".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".svg": {},
	".webp": {}, ".css": {}, ".js": {}, ".ico": {}, ".xml": {}, ".json": {},
	".zip": {}, ".gz": {}, ".mp3": {}, ".mp4": {}, ".avi": {}, ".mov": {},
	".woff": {}, ".woff2": {}, ".ttf": {}, ".eot": {}, ".otf": {},
}

// ProgressFunc is invoked after each page completes, successful or not.
// visited is the number of pages processed so far, budget the page cap.
// Callbacks run on the crawl goroutine; they must not block for long.
type ProgressFunc func(page *model.PageRecord, visited, budget int)

// Spider is the crawl engine. It owns the frontier, the visited set, and
// the result accumulation, and drives fetch, parse, normalize, and
// classify in a bounded breadth-first loop.
//
// A Spider runs one crawl at a time; the frontier and visited set have a
// single mutator, so no locking is needed. One fetch is in flight at any
// moment with the configured delay between fetches. The sequential pacing
// is a politeness constraint towards the audited site, not a performance
// limitation.
type Spider struct {
	// client is the HTTP client shared by page, sitemap, and robots fetches.
	client *http.Client

	// rules classify external link destinations.
	rules config.AuthorityRules

	// maxPages bounds the total number of pages processed per crawl.
	maxPages int

	// delay is the minimum spacing between consecutive fetches.
	delay time.Duration

	// userAgent is the User-Agent header for all requests.
	userAgent string

	// maxBodySize caps response body reads.
	maxBodySize int64

	// strictHost disables the www-prefix host equivalence.
	strictHost bool

	// useSitemap controls sitemap.xml frontier seeding.
	useSitemap bool

	// useRobots controls the basic-courtesy robots.txt check.
	useRobots bool

	// progress, when set, is invoked after each page completes.
	progress ProgressFunc

	// logger receives structured crawl progress logs.
	logger *slog.Logger
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithMaxPages sets the page budget per crawl.
func WithMaxPages(maxPages int) SpiderOption {
	return func(s *Spider) {
		if maxPages > 0 {
			s.maxPages = maxPages
		}
	}
}

// WithDelay sets the minimum spacing between consecutive fetches.
func WithDelay(d time.Duration) SpiderOption {
	return func(s *Spider) {
		s.delay = d
	}
}

// WithSpiderUserAgent sets a custom User-Agent header.
func WithSpiderUserAgent(ua string) SpiderOption {
	return func(s *Spider) {
		s.userAgent = ua
	}
}

// WithSpiderMaxBodySize sets the maximum response body size.
func WithSpiderMaxBodySize(size int64) SpiderOption {
	return func(s *Spider) {
		if size > 0 {
			s.maxBodySize = size
		}
	}
}

// WithStrictHostMatching requires exact host equality for the internal
// decision instead of treating "www." hosts as the same site.
func WithStrictHostMatching(strict bool) SpiderOption {
	return func(s *Spider) {
		s.strictHost = strict
	}
}

// WithSitemapSeeding toggles sitemap.xml frontier seeding.
func WithSitemapSeeding(enabled bool) SpiderOption {
	return func(s *Spider) {
		s.useSitemap = enabled
	}
}

// WithRobotsPolicy toggles the basic-courtesy robots.txt check.
func WithRobotsPolicy(enabled bool) SpiderOption {
	return func(s *Spider) {
		s.useRobots = enabled
	}
}

// WithProgress sets a callback invoked after each page completes.
func WithProgress(fn ProgressFunc) SpiderOption {
	return func(s *Spider) {
		s.progress = fn
	}
}

// WithSpiderLogger sets a custom logger.
func WithSpiderLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		s.logger = logger
	}
}

// NewSpider creates a Spider with the given HTTP client and authority rules.
//
// Design decision: We take the HTTP client from the caller because its
// timeout and transport are configuration concerns of the caller, and
// tests inject httptest-backed clients.
func NewSpider(client *http.Client, rules config.AuthorityRules, opts ...SpiderOption) *Spider {
	s := &Spider{
		client:      client,
		rules:       rules,
		maxPages:    config.DefaultMaxPages,
		delay:       config.DefaultDelay,
		userAgent:   config.DefaultUserAgent,
		maxBodySize: config.DefaultMaxBodySize,
		useSitemap:  true,
		useRobots:   true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Crawl audits the site rooted at rootURL and returns the crawl result.
//
// The frontier is seeded from sitemap.xml plus the root URL and processed
// in insertion order (breadth-first), which keeps the crawl order
// reproducible. Each URL is enqueued at most once across the crawl's
// lifetime; membership in the visited set is checked and recorded at
// enqueue time, not at fetch time. New links are enqueued only while
// visited plus frontier stays below the page budget, bounding memory even
// on sites far larger than the budget.
//
// A single page failure never halts the crawl. Crawl returns a non-nil
// error only for an unusable root URL, for total inability to reach the
// host, or for context cancellation; in the cancellation case the returned
// result holds everything processed so far and remains fully usable.
func (s *Spider) Crawl(ctx context.Context, rootURL string) (*model.CrawlResult, error) {
	root, err := parseRootURL(rootURL)
	if err != nil {
		return nil, err
	}

	norm := NewNormalizer(root.Host, WithStrictHost(s.strictHost))
	root = norm.Canonicalize(root)

	fetcher := NewFetcher(s.client,
		WithUserAgent(s.userAgent),
		WithMaxBodySize(s.maxBodySize),
	)
	rules := s.rules.Normalized()

	var robots *RobotsPolicy
	delay := s.delay
	if s.useRobots {
		robots = FetchRobotsPolicy(ctx, s.client, root, s.userAgent)
		if cd := robots.CrawlDelay(); cd > delay {
			s.logger.Debug("raising delay to robots crawl-delay", "delay", cd)
			delay = cd
		}
	}

	result := model.NewCrawlResult(root.String())

	// The visited set tracks everything ever enqueued, so membership is
	// decided exactly once per URL.
	var queue []*url.URL
	visited := make(map[string]struct{})
	enqueue := func(u *url.URL) bool {
		key := u.String()
		if _, seen := visited[key]; seen {
			return false
		}
		visited[key] = struct{}{}
		queue = append(queue, u)
		return true
	}

	// Frontier seeding: sitemap entries first, then the root itself.
	if s.useSitemap {
		seeder := NewSeeder(s.client, s.userAgent, norm)
		seeds, err := seeder.Seed(ctx, root)
		if err != nil {
			s.logger.Debug("sitemap unavailable, spidering from root", "error", err)
			result.SitemapUnavailable = true
		}
		for _, seed := range seeds {
			if len(queue) >= s.maxPages {
				result.BudgetExhausted = true
				break
			}
			if s.crawlable(seed, robots) {
				enqueue(seed)
			}
		}
		result.SitemapSeeds = len(queue)
	} else {
		result.SitemapUnavailable = true
	}
	enqueue(root)

	reachedHost := false
	for len(queue) > 0 && len(result.PageOrder) < s.maxPages {
		select {
		case <-ctx.Done():
			result.Cancelled = true
			result.FinishedAt = time.Now()
			return result, ctx.Err()
		default:
		}

		current := queue[0]
		queue = queue[1:]

		page, links, fetchErr := s.processPage(ctx, current, fetcher, norm, rules)
		result.AddPage(page)
		if fetchErr == nil || fetchErr.Reason == FailureHTTP || fetchErr.Reason == FailureUnsupportedContent {
			// An HTTP status or a Content-Type still proves the host answered.
			reachedHost = true
		}

		processed := len(result.PageOrder)
		for i, link := range links {
			if processed+len(queue) >= s.maxPages {
				// The budget is dropping links we would otherwise follow.
				for _, rest := range links[i:] {
					if _, seen := visited[rest.String()]; !seen && s.crawlable(rest, robots) {
						result.BudgetExhausted = true
						break
					}
				}
				break
			}
			if s.crawlable(link, robots) {
				enqueue(link)
			}
		}

		s.logger.Debug("page done",
			"url", page.URL,
			"status", page.Status,
			"externalLinks", len(page.ExternalLinks),
			"queued", len(queue),
		)
		if s.progress != nil {
			s.progress(page, processed, s.maxPages)
		}

		// Politeness delay before the next fetch.
		if delay > 0 && len(queue) > 0 && processed < s.maxPages {
			select {
			case <-ctx.Done():
				result.Cancelled = true
				result.FinishedAt = time.Now()
				return result, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	if len(queue) > 0 {
		result.BudgetExhausted = true
	}
	result.FinishedAt = time.Now()

	if !reachedHost {
		return result, fmt.Errorf("%w: no page of %s could be fetched", ErrHostUnreachable, root.Host)
	}
	return result, nil
}

// processPage fetches and parses one frontier URL. It returns the page
// record, the internal links discovered on the page, and the fetch error
// when the page could not be retrieved.
func (s *Spider) processPage(ctx context.Context, current *url.URL, fetcher *Fetcher, norm *Normalizer, rules config.AuthorityRules) (*model.PageRecord, []*url.URL, *FetchError) {
	page := &model.PageRecord{URL: current.String()}

	fetched, err := fetcher.Fetch(ctx, current.String())
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) && fe.Reason == FailureUnsupportedContent {
			page.Status = model.PageStatusSkipped
		} else {
			page.Status = model.PageStatusFailed
		}
		page.FetchError = err.Error()
		if fe == nil {
			fe = &FetchError{URL: page.URL, Reason: FailureConnection, Err: err}
		}
		return page, nil, fe
	}

	parser, err := NewParser(current.String(), norm, rules)
	if err != nil {
		page.Status = model.PageStatusFailed
		page.FetchError = err.Error()
		return page, nil, nil
	}

	parsed, err := parser.Parse(bytes.NewReader(fetched.Body))
	if err != nil {
		page.Status = model.PageStatusFailed
		page.FetchError = err.Error()
		return page, nil, nil
	}

	page.Status = model.PageStatusFetched
	page.Title = parsed.Title
	page.ExternalLinks = parsed.ExternalLinks
	return page, parsed.InternalLinks, nil
}

// crawlable reports whether an internal URL is worth fetching: an HTML-ish
// path not disallowed by robots.
func (s *Spider) crawlable(u *url.URL, robots *RobotsPolicy) bool {
	if ext := strings.ToLower(path.Ext(u.Path)); ext != "" {
		if _, skip := skipExtensions[ext]; skip {
			return false
		}
	}
	return robots.Allowed(u)
}

// parseRootURL validates the crawl target and defaults a missing scheme
// to https. A root without a usable host is rejected up front.
func parseRootURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty root URL", ErrInvalidURL)
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURL, raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host in %s", ErrInvalidURL, raw)
	}
	return u, nil
}
