package crawler

import (
	"errors"
	"net/url"
	"strings"
)

// URL normalization errors.
// Invalid URLs are filtered silently by callers rather than surfaced as
// crawl errors; the sentinels exist so tests and callers can tell the cases
// apart with errors.Is.
var (
	// ErrUnsupportedScheme is returned for non-HTTP(S) references such as
	// mailto:, tel:, javascript:, and data: URLs.
	ErrUnsupportedScheme = errors.New("unsupported url scheme")

	// ErrInvalidURL is returned when a reference cannot be parsed at all
	// or resolves to a URL without a host.
	ErrInvalidURL = errors.New("invalid url")
)

// Normalizer canonicalizes URLs and decides whether a URL belongs to the
// audited site.
//
// Design decision: Normalization is centralized in one type because the same
// canonical form must be used everywhere a URL becomes a map key: the
// visited set, the frontier, and the result collection. Divergent
// normalization would break the at-most-once-visit invariant.
type Normalizer struct {
	// rootHost is the audited site's hostname, lowercased.
	rootHost string

	// strictHost disables the www-prefix equivalence. When false (default),
	// www.example.com and example.com are treated as the same site.
	strictHost bool
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithStrictHost requires exact host equality for the internal/external
// decision instead of treating "www." hosts as equivalent.
func WithStrictHost(strict bool) NormalizerOption {
	return func(n *Normalizer) {
		n.strictHost = strict
	}
}

// NewNormalizer creates a Normalizer for the site rooted at rootHost.
// rootHost is the canonical root URL's Host value, hostname plus any
// non-default port.
func NewNormalizer(rootHost string, opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{rootHost: strings.ToLower(rootHost)}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize resolves raw against base and returns the canonical URL.
//
// Canonical form: lowercase scheme and host, default port stripped, fragment
// stripped, trailing slash stripped except for the root path. Normalize is
// idempotent: feeding its output back in returns the same URL.
func (n *Normalizer) Normalize(base *url.URL, raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "#" {
		return nil, ErrInvalidURL
	}

	lower := strings.ToLower(raw)
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return nil, ErrUnsupportedScheme
		}
	}

	ref, err := url.Parse(raw)
	if err != nil {
		return nil, ErrInvalidURL
	}

	u := ref
	if base != nil {
		u = base.ResolveReference(ref)
	}

	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		return nil, ErrUnsupportedScheme
	}
	if u.Host == "" {
		return nil, ErrInvalidURL
	}

	return n.Canonicalize(u), nil
}

// Canonicalize returns a canonical copy of an absolute URL.
// Safe to call repeatedly; the result is a fixed point.
func (n *Normalizer) Canonicalize(u *url.URL) *url.URL {
	c := *u
	c.Scheme = strings.ToLower(c.Scheme)
	c.Host = strings.ToLower(c.Host)
	c.Fragment = ""
	c.RawFragment = ""

	// Strip default ports
	if (c.Scheme == "http" && strings.HasSuffix(c.Host, ":80")) ||
		(c.Scheme == "https" && strings.HasSuffix(c.Host, ":443")) {
		c.Host = c.Host[:strings.LastIndex(c.Host, ":")]
	}

	// Empty path and "/" are equivalent; keep the root slash, drop others
	switch {
	case c.Path == "":
		c.Path = "/"
	case c.Path != "/":
		c.Path = strings.TrimRight(c.Path, "/")
		if c.Path == "" {
			c.Path = "/"
		}
	}

	return &c
}

// IsInternal reports whether u belongs to the audited site.
// Hosts are compared including any non-default port, so distinct local
// servers on the same address are kept apart. Unless strict host matching is
// enabled, a leading "www." on either side is ignored, matching the common
// case where both serve the same content.
func (n *Normalizer) IsInternal(u *url.URL) bool {
	host := strings.ToLower(u.Host)
	if n.strictHost {
		return host == n.rootHost
	}
	return stripWWW(host) == stripWWW(n.rootHost)
}

// stripWWW removes a single leading "www." label.
func stripWWW(host string) string {
	return strings.TrimPrefix(host, "www.")
}
