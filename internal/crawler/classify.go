package crawler

import (
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/linkauditor/linkauditor/internal/config"
)

// IsAuthority reports whether hostname is an authority source under the
// given rules.
//
// A hostname is an authority when any of the following holds:
//   - it ends with one of the configured TLD suffixes, where the suffix
//     match requires a preceding dot or exact equality ("notgov.com" never
//     matches ".gov")
//   - it equals, or is a subdomain of, one of the configured authority domains
//   - the registrable part of the hostname (minus the public suffix)
//     contains one of the configured keywords
//
// Matching is case-insensitive. IsAuthority is a pure function of its
// inputs; rules are data and replaceable without code change. The rules
// must already be in Normalized() form — callers normalize once per crawl
// so the per-anchor classification stays cheap.
func IsAuthority(hostname string, rules config.AuthorityRules) bool {
	host := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(hostname), "."))
	if host == "" {
		return false
	}

	for _, suffix := range rules.Suffixes {
		// suffix carries its leading dot, so HasSuffix enforces the
		// label boundary; the bare form covers an exact TLD host
		if strings.HasSuffix(host, suffix) || host == strings.TrimPrefix(suffix, ".") {
			return true
		}
	}

	for _, domain := range rules.Domains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}

	if len(rules.Keywords) > 0 {
		name := registrableName(host)
		for _, keyword := range rules.Keywords {
			if strings.Contains(name, keyword) {
				return true
			}
		}
	}

	return false
}

// registrableName returns the first label of the registrable domain:
// "fdic" for "www.fdic.gov". Falls back to the full host when the public
// suffix cannot be determined (bare IPs, local hostnames).
func registrableName(host string) string {
	etld1, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	if i := strings.Index(etld1, "."); i > 0 {
		return etld1[:i]
	}
	return etld1
}
