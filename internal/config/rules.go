package config

import "strings"

// AuthorityRules defines how external link destinations are classified as
// authority or non-authority sources.
//
// Design decision: The rules are plain data passed into the classifier
// rather than process-wide state. This enables per-run customization via the
// config file and keeps classification testable without shared state.
type AuthorityRules struct {
	// Suffixes are TLD suffixes whose domains are always authorities.
	// Each entry must start with a dot (".gov"). Matching requires a
	// preceding dot or exact equality, so "notgov.com" never matches ".gov".
	Suffixes []string `yaml:"suffixes,omitempty"`

	// Domains are curated authority domains ("irs.gov", "wikipedia.org").
	// A hostname matches when it equals the entry or ends with "." + entry,
	// so subdomains are covered.
	Domains []string `yaml:"domains,omitempty"`

	// Keywords match against the registrable part of the hostname (minus
	// the public suffix). Useful for agency acronyms that appear under
	// several TLDs.
	Keywords []string `yaml:"keywords,omitempty"`
}

// DefaultAuthorityRules returns the built-in authority rule set:
// government/education/military TLDs plus well-known regulatory and
// reference sites.
func DefaultAuthorityRules() AuthorityRules {
	return AuthorityRules{
		Suffixes: []string{".gov", ".edu", ".mil"},
		Domains: []string{
			"who.int", "irs.gov", "consumerfinance.gov", "ftc.gov",
			"sec.gov", "federalreserve.gov", "treasury.gov",
			"ncua.gov", "fdic.gov", "cfpb.gov",
			"cdc.gov", "nih.gov", "fda.gov",
			"wikipedia.org", "britannica.com",
			"reuters.com", "apnews.com",
		},
	}
}

// Merge overlays non-empty rule lists from other onto r.
// Used when a config file overrides parts of the default rule set.
func (r AuthorityRules) Merge(other AuthorityRules) AuthorityRules {
	if len(other.Suffixes) > 0 {
		r.Suffixes = other.Suffixes
	}
	if len(other.Domains) > 0 {
		r.Domains = other.Domains
	}
	if len(other.Keywords) > 0 {
		r.Keywords = other.Keywords
	}
	return r
}

// Normalized returns a copy of the rules with entries lowercased, trimmed,
// and suffixes guaranteed to carry their leading dot. Classification is
// case-insensitive; normalizing once up front keeps the hot path simple.
func (r AuthorityRules) Normalized() AuthorityRules {
	out := AuthorityRules{
		Suffixes: make([]string, 0, len(r.Suffixes)),
		Domains:  make([]string, 0, len(r.Domains)),
		Keywords: make([]string, 0, len(r.Keywords)),
	}
	for _, s := range r.Suffixes {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if !strings.HasPrefix(s, ".") {
			s = "." + s
		}
		out.Suffixes = append(out.Suffixes, s)
	}
	for _, d := range r.Domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			out.Domains = append(out.Domains, strings.TrimPrefix(d, "."))
		}
	}
	for _, k := range r.Keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			out.Keywords = append(out.Keywords, k)
		}
	}
	return out
}
