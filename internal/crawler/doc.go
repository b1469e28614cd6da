// Package crawler provides the crawl engine that discovers a website's pages
// and extracts the external links found on them.
//
// # Architecture
//
// The package is designed around the Spider type, which coordinates the
// crawling process. It owns the frontier (discovered-but-not-yet-fetched
// URLs) and the visited set, and drives Fetcher -> Parser -> Normalizer ->
// classifier in a bounded breadth-first loop until the page budget or the
// frontier is exhausted.
//
// Design decision: We implement our own crawl loop rather than using a
// third-party crawling framework because:
//  1. We need tight control over request pacing to stay polite
//  2. The at-most-once-visit invariant must hold at enqueue time, not fetch time
//  3. Link extraction is custom (anchor text, rel tokens, authority class)
//
// # Components
//
//   - Spider: the crawl engine owning frontier, visited set, and results
//   - Fetcher: rate-limit-friendly HTTP GET with typed failures
//   - Parser: HTML parser producing internal links and external LinkRecords
//   - Normalizer: URL canonicalization and same-site decisions
//   - Seeder: sitemap.xml (and sitemap index) frontier seeding
//   - RobotsPolicy: basic-courtesy robots.txt check
//
// # Politeness
//
// The crawler fetches one page at a time with a configurable delay between
// requests, honors robots.txt disallow rules by default, and caps both the
// number of pages and the response body size.
//
// # Usage
//
//	spider := crawler.NewSpider(httpClient, rules, crawler.WithMaxPages(100))
//	result, err := spider.Crawl(ctx, "https://example.com")
package crawler
