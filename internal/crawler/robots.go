package crawler

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/temoto/robotstxt"
)

// maxRobotsBody caps how much of robots.txt is read.
const maxRobotsBody = 2 * 1024 * 1024

// RobotsPolicy is a basic-courtesy robots.txt check.
//
// Design decision: The policy fails open. A missing, unreachable, or
// malformed robots.txt allows everything, because the audit is read-only,
// low-volume traffic and the check exists as courtesy, not enforcement.
type RobotsPolicy struct {
	// rules is the parsed robots.txt; nil means allow everything.
	rules *robotstxt.RobotsData

	// agent is the user agent matched against robots groups.
	agent string
}

// FetchRobotsPolicy retrieves and parses root's /robots.txt.
// Any failure yields an allow-everything policy.
func FetchRobotsPolicy(ctx context.Context, client *http.Client, root *url.URL, userAgent string) *RobotsPolicy {
	policy := &RobotsPolicy{agent: userAgent}

	robotsURL := &url.URL{Scheme: root.Scheme, Host: root.Host, Path: "/robots.txt"}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL.String(), nil)
	if err != nil {
		return policy
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return policy
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return policy
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBody))
	if err != nil {
		return policy
	}

	rules, err := robotstxt.FromBytes(body)
	if err != nil {
		return policy
	}
	policy.rules = rules
	return policy
}

// Allowed reports whether u may be fetched under the robots rules.
func (p *RobotsPolicy) Allowed(u *url.URL) bool {
	if p == nil || p.rules == nil {
		return true
	}
	group := p.group()
	if group == nil {
		return true
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	return group.Test(path)
}

// CrawlDelay returns the Crawl-delay advertised for our agent, or zero.
// The crawl engine raises its configured delay to this value.
func (p *RobotsPolicy) CrawlDelay() time.Duration {
	if p == nil || p.rules == nil {
		return 0
	}
	group := p.group()
	if group == nil {
		return 0
	}
	return group.CrawlDelay
}

// group finds the robots group for our agent, falling back to the wildcard.
func (p *RobotsPolicy) group() *robotstxt.Group {
	if group := p.rules.FindGroup(p.agent); group != nil {
		return group
	}
	return p.rules.FindGroup("*")
}
