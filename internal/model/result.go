package model

import (
	"sort"
	"time"
)

// CrawlResult is the crawl engine's complete output for one site.
//
// Design decision: Pages are keyed by canonical URL rather than stored as a
// completion-ordered slice because:
//  1. Per-page records must be addressable regardless of fetch order
//  2. Aggregate counts stay deterministic even if fetching is ever parallelized
//  3. PageOrder preserves the breadth-first visit order for reproducible reports
type CrawlResult struct {
	// RootURL is the canonical root URL the crawl started from.
	RootURL string `json:"root_url"`

	// StartedAt and FinishedAt bound the crawl run.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Pages maps canonical page URL to its record.
	Pages map[string]*PageRecord `json:"pages"`

	// PageOrder lists page URLs in the order they were visited.
	PageOrder []string `json:"page_order"`

	// SitemapSeeds is the number of frontier URLs seeded from sitemap.xml.
	SitemapSeeds int `json:"sitemap_seeds"`

	// SitemapUnavailable is true when sitemap.xml was absent or unreadable
	// and the crawl fell back to spidering from the root URL alone.
	// This is a soft condition, never a crawl failure.
	SitemapUnavailable bool `json:"sitemap_unavailable"`

	// BudgetExhausted is true when the crawl stopped because maxPages was
	// reached rather than because the frontier emptied. Both are normal,
	// successful termination.
	BudgetExhausted bool `json:"budget_exhausted"`

	// Cancelled is true when the crawl was stopped early by the caller's
	// context. The records collected so far remain a valid partial result.
	Cancelled bool `json:"cancelled,omitempty"`
}

// NewCrawlResult creates an empty CrawlResult for the given root URL.
func NewCrawlResult(rootURL string) *CrawlResult {
	return &CrawlResult{
		RootURL:   rootURL,
		StartedAt: time.Now(),
		Pages:     make(map[string]*PageRecord),
		PageOrder: make([]string, 0),
	}
}

// AddPage records a visited page. The record becomes immutable once added.
func (r *CrawlResult) AddPage(page *PageRecord) {
	if _, ok := r.Pages[page.URL]; ok {
		return
	}
	r.Pages[page.URL] = page
	r.PageOrder = append(r.PageOrder, page.URL)
}

// Summary holds the aggregate counts for one crawl run.
type Summary struct {
	// PagesVisited is the number of frontier URLs processed. Always <= maxPages.
	PagesVisited int `json:"pages_visited"`

	// PagesFailed is the number of pages whose fetch failed.
	PagesFailed int `json:"pages_failed"`

	// PagesSkipped is the number of non-HTML pages that were not parsed.
	PagesSkipped int `json:"pages_skipped"`

	// TotalExternalLinks is the number of external links across all pages.
	TotalExternalLinks int `json:"total_external_links"`

	// AuthorityLinks is the number of external links pointing at authority domains.
	AuthorityLinks int `json:"authority_links"`

	// DistinctDomains is the number of distinct external target domains.
	DistinctDomains int `json:"distinct_domains"`
}

// Summarize computes the aggregate counts from the per-page records.
func (r *CrawlResult) Summarize() Summary {
	s := Summary{PagesVisited: len(r.PageOrder)}
	domains := make(map[string]struct{})
	for _, url := range r.PageOrder {
		page := r.Pages[url]
		switch page.Status {
		case PageStatusFailed:
			s.PagesFailed++
		case PageStatusSkipped:
			s.PagesSkipped++
		case PageStatusFetched:
		}
		for _, link := range page.ExternalLinks {
			s.TotalExternalLinks++
			if link.IsAuthority {
				s.AuthorityLinks++
			}
			domains[link.TargetDomain] = struct{}{}
		}
	}
	s.DistinctDomains = len(domains)
	return s
}

// DomainStat aggregates all links pointing at one external domain.
// DomainStats are derived from LinkRecords on demand, never stored.
type DomainStat struct {
	// Domain is the external target domain.
	Domain string `json:"domain"`

	// Count is the total number of links to this domain.
	Count int `json:"count"`

	// IsAuthority reports the domain's authority classification.
	IsAuthority bool `json:"is_authority"`

	// Pages lists the internal pages linking to this domain, in visit order.
	Pages []string `json:"pages"`
}

// DomainStats aggregates LinkRecords per target domain, sorted by descending
// link count and then by domain name for a stable order.
func (r *CrawlResult) DomainStats() []DomainStat {
	index := make(map[string]*DomainStat)
	for _, url := range r.PageOrder {
		for _, link := range r.Pages[url].ExternalLinks {
			stat, ok := index[link.TargetDomain]
			if !ok {
				stat = &DomainStat{
					Domain:      link.TargetDomain,
					IsAuthority: link.IsAuthority,
				}
				index[link.TargetDomain] = stat
			}
			stat.Count++
			if len(stat.Pages) == 0 || stat.Pages[len(stat.Pages)-1] != url {
				stat.Pages = append(stat.Pages, url)
			}
		}
	}

	stats := make([]DomainStat, 0, len(index))
	for _, stat := range index {
		stats = append(stats, *stat)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Domain < stats[j].Domain
	})
	return stats
}

// Links flattens all external LinkRecords in visit order, document order
// within each page.
func (r *CrawlResult) Links() []LinkRecord {
	var links []LinkRecord
	for _, url := range r.PageOrder {
		links = append(links, r.Pages[url].ExternalLinks...)
	}
	return links
}
