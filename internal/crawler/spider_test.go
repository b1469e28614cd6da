package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/linkauditor/linkauditor/internal/config"
	"github.com/linkauditor/linkauditor/internal/model"
)

// fetchCounter records how many times each path was requested.
type fetchCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

func newFetchCounter() *fetchCounter {
	return &fetchCounter{counts: make(map[string]int)}
}

func (c *fetchCounter) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		c.counts[r.URL.Path]++
		c.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (c *fetchCounter) count(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[path]
}

// testSite serves a small site: the root page links to /a and /b, /a and /b
// link back to each other and to two external destinations.
func testSite() (*http.ServeMux, *fetchCounter) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head><title>Home</title></head><body>
			<a href="/a">Page A</a>
			<a href="/b">Page B</a>
		</body></html>`)
	})
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head><title>A</title></head><body>
			<a href="/b">Page B</a>
			<a href="/">Home</a>
			<a href="https://www.irs.gov/refunds">Tax refunds</a>
		</body></html>`)
	})
	mux.HandleFunc("/b", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head><title>B</title></head><body>
			<a href="/a">Page A</a>
			<a href="https://spamlink.com/offer" rel="nofollow">Click here</a>
		</body></html>`)
	})
	counter := newFetchCounter()
	return mux, counter
}

func newTestSpider(server *httptest.Server, opts ...SpiderOption) *Spider {
	base := []SpiderOption{
		WithDelay(0),
		WithSpiderUserAgent("auditor-test"),
	}
	return NewSpider(server.Client(), config.DefaultAuthorityRules(), append(base, opts...)...)
}

// TestSpiderCrawl tests the end-to-end crawl loop.
func TestSpiderCrawl(t *testing.T) {
	t.Parallel()

	t.Run("visits every page exactly once and classifies external links", func(t *testing.T) {
		t.Parallel()

		mux, counter := testSite()
		server := httptest.NewServer(counter.wrap(mux))
		defer server.Close()

		spider := newTestSpider(server, WithMaxPages(10))
		result, err := spider.Crawl(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("failed to crawl: %v", err)
		}

		summary := result.Summarize()
		if summary.PagesVisited != 3 {
			t.Errorf("expected 3 pages visited, got %d", summary.PagesVisited)
		}
		if summary.PagesFailed != 0 {
			t.Errorf("expected no failed pages, got %d", summary.PagesFailed)
		}
		for _, path := range []string{"/", "/a", "/b"} {
			if got := counter.count(path); got != 1 {
				t.Errorf("expected exactly 1 fetch of %s, got %d", path, got)
			}
		}

		if summary.TotalExternalLinks != 2 {
			t.Errorf("expected 2 external links, got %d", summary.TotalExternalLinks)
		}
		if summary.AuthorityLinks != 1 {
			t.Errorf("expected 1 authority link, got %d", summary.AuthorityLinks)
		}
		if summary.DistinctDomains != 2 {
			t.Errorf("expected 2 distinct domains, got %d", summary.DistinctDomains)
		}

		if !result.SitemapUnavailable {
			t.Error("expected sitemap marked unavailable on a site without one")
		}
		if result.BudgetExhausted {
			t.Error("expected budget not exhausted on a 3-page site")
		}
		if result.FinishedAt.IsZero() {
			t.Error("expected FinishedAt to be set")
		}

		links := result.Links()
		for _, link := range links {
			switch link.TargetDomain {
			case "irs.gov":
				if !link.IsAuthority {
					t.Error("expected irs.gov to classify as authority")
				}
			case "spamlink.com":
				if link.IsAuthority {
					t.Error("expected spamlink.com to classify as non-authority")
				}
				if len(link.RelAttributes) != 1 || link.RelAttributes[0] != "nofollow" {
					t.Errorf("expected rel [nofollow], got %v", link.RelAttributes)
				}
			default:
				t.Errorf("unexpected external domain %q", link.TargetDomain)
			}
		}
	})

	t.Run("seeds the frontier from sitemap.xml", func(t *testing.T) {
		t.Parallel()

		mux, counter := testSite()
		var server *httptest.Server
		mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/xml")
			fmt.Fprintf(w, `<?xml version="1.0"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
	<url><loc>%[1]s/b</loc></url>
</urlset>`, server.URL)
		})
		server = httptest.NewServer(counter.wrap(mux))
		defer server.Close()

		spider := newTestSpider(server, WithMaxPages(10))
		result, err := spider.Crawl(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("failed to crawl: %v", err)
		}

		if result.SitemapUnavailable {
			t.Error("expected sitemap to be available")
		}
		if result.SitemapSeeds != 1 {
			t.Errorf("expected 1 sitemap seed, got %d", result.SitemapSeeds)
		}
		// /b was seeded first, so it is the first page in visit order.
		if len(result.PageOrder) == 0 || result.Pages[result.PageOrder[0]].Title != "B" {
			t.Errorf("expected the seeded page first in visit order, got %v", result.PageOrder)
		}
		if got := counter.count("/b"); got != 1 {
			t.Errorf("expected exactly 1 fetch of /b, got %d", got)
		}
	})

	t.Run("stops at the page budget and flags exhaustion", func(t *testing.T) {
		t.Parallel()

		mux, counter := testSite()
		server := httptest.NewServer(counter.wrap(mux))
		defer server.Close()

		spider := newTestSpider(server, WithMaxPages(1), WithSitemapSeeding(false))
		result, err := spider.Crawl(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("failed to crawl: %v", err)
		}

		if got := result.Summarize().PagesVisited; got != 1 {
			t.Errorf("expected 1 page visited, got %d", got)
		}
		if !result.BudgetExhausted {
			t.Error("expected budget exhausted with links left in the frontier")
		}
		if counter.count("/a") != 0 || counter.count("/b") != 0 {
			t.Error("expected no fetches beyond the budget")
		}
	})

	t.Run("records a failed page and keeps crawling", func(t *testing.T) {
		t.Parallel()

		mux, counter := testSite()
		mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		})
		root := http.NewServeMux()
		root.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/" {
				w.Header().Set("Content-Type", "text/html")
				fmt.Fprint(w, `<html><body>
					<a href="/broken">Broken</a>
					<a href="/a">Page A</a>
				</body></html>`)
				return
			}
			mux.ServeHTTP(w, r)
		})
		server := httptest.NewServer(counter.wrap(root))
		defer server.Close()

		spider := newTestSpider(server, WithMaxPages(10))
		result, err := spider.Crawl(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("failed to crawl: %v", err)
		}

		summary := result.Summarize()
		if summary.PagesFailed != 1 {
			t.Errorf("expected 1 failed page, got %d", summary.PagesFailed)
		}

		broken := result.Pages[server.URL+"/broken"]
		if broken == nil {
			t.Fatal("expected a record for the broken page")
		}
		if broken.Status != model.PageStatusFailed {
			t.Errorf("expected status failed, got %q", broken.Status)
		}
		if broken.FetchError == "" {
			t.Error("expected the fetch error to be recorded")
		}

		// The crawl reached /a after the failure
		if counter.count("/a") != 1 {
			t.Error("expected the crawl to continue past the failed page")
		}
	})

	t.Run("skips non-HTML pages without aborting", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, `<html><body><a href="/feed">Feed</a></body></html>`)
		})
		mux.HandleFunc("/feed", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/rss+xml")
			fmt.Fprint(w, `<rss></rss>`)
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		spider := newTestSpider(server, WithMaxPages(10))
		result, err := spider.Crawl(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("failed to crawl: %v", err)
		}

		summary := result.Summarize()
		if summary.PagesSkipped != 1 {
			t.Errorf("expected 1 skipped page, got %d", summary.PagesSkipped)
		}
		feed := result.Pages[server.URL+"/feed"]
		if feed == nil || feed.Status != model.PageStatusSkipped {
			t.Errorf("expected a skipped record for /feed, got %+v", feed)
		}
	})

	t.Run("never enqueues binary asset links", func(t *testing.T) {
		t.Parallel()

		mux, counter := testSite()
		root := http.NewServeMux()
		root.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/" {
				w.Header().Set("Content-Type", "text/html")
				fmt.Fprint(w, `<html><body>
					<a href="/report.pdf">Report</a>
					<a href="/logo.png">Logo</a>
					<a href="/a">Page A</a>
				</body></html>`)
				return
			}
			mux.ServeHTTP(w, r)
		})
		server := httptest.NewServer(counter.wrap(root))
		defer server.Close()

		spider := newTestSpider(server, WithMaxPages(10))
		if _, err := spider.Crawl(context.Background(), server.URL); err != nil {
			t.Fatalf("failed to crawl: %v", err)
		}

		if counter.count("/report.pdf") != 0 || counter.count("/logo.png") != 0 {
			t.Error("expected asset URLs to be filtered before fetching")
		}
		if counter.count("/a") != 1 {
			t.Error("expected HTML links to still be followed")
		}
	})

	t.Run("honors robots.txt disallow rules", func(t *testing.T) {
		t.Parallel()

		counter := newFetchCounter()
		mux := http.NewServeMux()
		mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "User-agent: *\nDisallow: /private/\n")
		})
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, `<html><body>
				<a href="/private/admin">Admin</a>
				<a href="/public">Public</a>
			</body></html>`)
		})
		server := httptest.NewServer(counter.wrap(mux))
		defer server.Close()

		spider := newTestSpider(server, WithMaxPages(10))
		if _, err := spider.Crawl(context.Background(), server.URL); err != nil {
			t.Fatalf("failed to crawl: %v", err)
		}

		if counter.count("/private/admin") != 0 {
			t.Error("expected disallowed path not to be fetched")
		}
		if counter.count("/public") != 1 {
			t.Error("expected allowed path to be fetched")
		}
	})

	t.Run("cancellation returns the partial result", func(t *testing.T) {
		t.Parallel()

		mux, _ := testSite()
		server := httptest.NewServer(mux)
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		spider := newTestSpider(server,
			WithMaxPages(10),
			WithProgress(func(page *model.PageRecord, visited, budget int) {
				if visited == 1 {
					cancel()
				}
			}),
		)

		result, err := spider.Crawl(ctx, server.URL)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if result == nil {
			t.Fatal("expected a partial result on cancellation")
		}
		if !result.Cancelled {
			t.Error("expected the result to be marked cancelled")
		}
		if got := result.Summarize().PagesVisited; got != 1 {
			t.Errorf("expected 1 page in the partial result, got %d", got)
		}
	})

	t.Run("reports an unreachable host as a hard failure", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		deadURL := server.URL
		server.Close()

		client := &http.Client{Timeout: time.Second}
		spider := NewSpider(client, config.DefaultAuthorityRules(), WithDelay(0))
		result, err := spider.Crawl(context.Background(), deadURL)
		if !errors.Is(err, ErrHostUnreachable) {
			t.Errorf("expected ErrHostUnreachable, got %v", err)
		}
		if result == nil {
			t.Fatal("expected a result alongside the error")
		}
		if got := result.Summarize().PagesFailed; got != 1 {
			t.Errorf("expected 1 failed page record, got %d", got)
		}
	})

	t.Run("rejects an unusable root URL", func(t *testing.T) {
		t.Parallel()

		spider := NewSpider(&http.Client{}, config.DefaultAuthorityRules())
		tests := []struct {
			name string
			root string
		}{
			{"empty", ""},
			{"whitespace", "   "},
			{"unsupported scheme", "ftp://example.com"},
			{"missing host", "https:///path"},
		}
		for _, tt := range tests {
			if _, err := spider.Crawl(context.Background(), tt.root); err == nil {
				t.Errorf("expected error for %s root %q", tt.name, tt.root)
			}
		}
	})

	t.Run("defaults a bare hostname to https", func(t *testing.T) {
		t.Parallel()

		u, err := parseRootURL("example.com/docs")
		if err != nil {
			t.Fatalf("failed to parse root: %v", err)
		}
		if u.Scheme != "https" || u.Host != "example.com" {
			t.Errorf("expected https://example.com, got %s", u)
		}
	})
}
