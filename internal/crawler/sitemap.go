package crawler

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrSitemapUnavailable is returned when sitemap.xml is absent or unreadable.
// Callers soft-fail to spidering from the root URL alone; the error exists
// only so the condition can be recorded, never to abort a crawl.
var ErrSitemapUnavailable = errors.New("sitemap unavailable")

// maxSitemapDepth bounds recursion through nested sitemap indexes.
// Real sites rarely nest more than two levels; the bound prevents cycles.
const maxSitemapDepth = 3

// maxSitemapBody caps how much of a sitemap file is read.
const maxSitemapBody = 10 * 1024 * 1024

// sitemapTime parses the lastmod element, which appears in several date
// layouts in the wild.
type sitemapTime struct {
	time.Time
}

// UnmarshalXML tries the common lastmod layouts in order.
func (t *sitemapTime) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	layouts := []string{
		"2006-01-02",
		"2006-01-02T15:04Z07:00",
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01",
		"2006",
	}
	var s string
	if err := d.DecodeElement(&s, &start); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	var err error
	for _, layout := range layouts {
		if t.Time, err = time.Parse(layout, s); err == nil {
			return nil
		}
	}
	// Unparsable lastmod is not worth failing the whole sitemap over
	t.Time = time.Time{}
	return nil
}

// sitemapEntry is one <url> or <sitemap> element.
type sitemapEntry struct {
	Loc          string      `xml:"loc"`
	LastModified sitemapTime `xml:"lastmod"`
}

// sitemapDoc covers both urlset and sitemapindex documents; the root
// element name tells them apart.
type sitemapDoc struct {
	XMLName  xml.Name
	URLs     []sitemapEntry `xml:"url"`
	Sitemaps []sitemapEntry `xml:"sitemap"`
}

// Seeder reads sitemap.xml (and nested sitemap indexes) to seed the crawl
// frontier.
type Seeder struct {
	// client performs the sitemap fetches.
	client *http.Client

	// userAgent is the User-Agent header to send.
	userAgent string

	// norm filters discovered URLs down to internal, canonical ones.
	norm *Normalizer
}

// NewSeeder creates a Seeder sharing the crawl's HTTP client and normalizer.
func NewSeeder(client *http.Client, userAgent string, norm *Normalizer) *Seeder {
	return &Seeder{client: client, userAgent: userAgent, norm: norm}
}

// Seed fetches root's /sitemap.xml and returns the internal URLs it lists,
// in document order. Sitemap indexes are followed recursively up to
// maxSitemapDepth levels.
//
// Absence or unreadability of the sitemap yields (nil, ErrSitemapUnavailable);
// the caller falls back to spidering from the root alone.
func (s *Seeder) Seed(ctx context.Context, root *url.URL) ([]*url.URL, error) {
	sitemapURL := &url.URL{Scheme: root.Scheme, Host: root.Host, Path: "/sitemap.xml"}

	var seeds []*url.URL
	seen := make(map[string]struct{})
	if err := s.collect(ctx, sitemapURL.String(), 0, &seeds, seen); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSitemapUnavailable, err)
	}
	return seeds, nil
}

// collect fetches one sitemap document and appends its internal URLs,
// recursing into child sitemaps of an index.
func (s *Seeder) collect(ctx context.Context, sitemapURL string, depth int, seeds *[]*url.URL, seen map[string]struct{}) error {
	if depth >= maxSitemapDepth {
		return nil
	}

	doc, err := s.fetch(ctx, sitemapURL)
	if err != nil {
		// Only the top-level sitemap is load-bearing; a broken child
		// sitemap loses its entries but not the crawl.
		if depth == 0 {
			return err
		}
		return nil
	}

	if doc.XMLName.Local == "sitemapindex" {
		for _, child := range doc.Sitemaps {
			if child.Loc == "" {
				continue
			}
			if err := s.collect(ctx, child.Loc, depth+1, seeds, seen); err != nil {
				return err
			}
		}
		return nil
	}

	for _, entry := range doc.URLs {
		u, err := s.norm.Normalize(nil, entry.Loc)
		if err != nil || !s.norm.IsInternal(u) {
			continue
		}
		key := u.String()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		*seeds = append(*seeds, u)
	}
	return nil
}

// fetch retrieves and decodes one sitemap document.
func (s *Seeder) fetch(ctx context.Context, sitemapURL string) (*sitemapDoc, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sitemapURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "application/xml,text/xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSitemapBody))
	if err != nil {
		return nil, err
	}

	var doc sitemapDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
