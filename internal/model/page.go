package model

// PageStatus describes the terminal state of a frontier entry.
// Every dequeued URL ends in exactly one of these states and is never
// revisited afterwards.
type PageStatus string

const (
	// PageStatusFetched means the page was fetched and parsed successfully.
	PageStatusFetched PageStatus = "fetched"

	// PageStatusFailed means the fetch failed (timeout, connection error,
	// or a non-success HTTP status). The reason is kept in FetchError.
	PageStatusFailed PageStatus = "failed"

	// PageStatusSkipped means the page was fetched but not parsed because
	// the response was not HTML.
	PageStatusSkipped PageStatus = "skipped"
)

// PageRecord represents one crawled internal page and the external links
// discovered on it.
//
// A PageRecord is created when the crawl engine dequeues a frontier URL,
// populated once after fetch/parse, and never mutated afterwards. The crawl
// engine's result collection is the sole owner.
type PageRecord struct {
	// URL is the canonical URL of the page.
	URL string `json:"url"`

	// Title is the page title from the <title> tag. Empty when the fetch
	// failed or the page has no title.
	Title string `json:"title,omitempty"`

	// Status is the terminal state of this page.
	Status PageStatus `json:"status"`

	// FetchError is a human-readable failure reason.
	// Set only when Status is failed or skipped. Failed pages are always
	// visible in reports together with this reason.
	FetchError string `json:"fetch_error,omitempty"`

	// ExternalLinks are the external hyperlinks found on the page, in
	// document order.
	ExternalLinks []LinkRecord `json:"external_links,omitempty"`
}

// LinkRecord represents a single external hyperlink.
// LinkRecords are created during page parsing and never mutated.
type LinkRecord struct {
	// SourcePage is the canonical URL of the page the link was found on.
	// This is a back-reference by value, not ownership.
	SourcePage string `json:"source_page"`

	// TargetURL is the canonical destination URL.
	TargetURL string `json:"target_url"`

	// AnchorText is the trimmed visible text of the anchor element.
	// "[no anchor text]" when the anchor has no visible text.
	AnchorText string `json:"anchor_text"`

	// RelAttributes are the tokens of the anchor's rel attribute
	// (nofollow, sponsored, noopener, ...).
	RelAttributes []string `json:"rel_attributes,omitempty"`

	// TargetDomain is the destination hostname, lowercased and with any
	// leading "www." removed.
	TargetDomain string `json:"target_domain"`

	// IsAuthority reports whether TargetDomain was classified as an
	// authority source (gov/edu/mil or a curated reference list).
	IsAuthority bool `json:"is_authority"`
}

// HasExternalLinks reports whether any external links were found on the page.
func (p *PageRecord) HasExternalLinks() bool {
	return len(p.ExternalLinks) > 0
}
