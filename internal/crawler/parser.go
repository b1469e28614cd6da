package crawler

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/linkauditor/linkauditor/internal/config"
	"github.com/linkauditor/linkauditor/internal/model"
)

// maxAnchorTextLen caps stored anchor text so a single styled link cannot
// bloat the report.
const maxAnchorTextLen = 200

// noAnchorText is recorded for anchors without visible text (image links,
// icon-only buttons).
const noAnchorText = "[no anchor text]"

// Parser extracts links from one HTML document.
//
// Design decision: We use golang.org/x/net/html rather than regex because:
//  1. It correctly handles the malformed HTML common on the web
//  2. Parsing never fails outright; extraction is best-effort on whatever
//     the tokenizer recovers
//  3. Document order falls out of the tree walk for free, which keeps
//     reports and tests deterministic
type Parser struct {
	// pageURL is the URL of the page being parsed, used for resolving
	// relative references.
	pageURL *url.URL

	// norm canonicalizes hrefs and decides internal vs external.
	norm *Normalizer

	// rules classify external destinations as authority or not.
	rules config.AuthorityRules
}

// ParseResult contains everything extracted from one page.
type ParseResult struct {
	// Title is the page title from the <title> tag.
	Title string

	// InternalLinks are canonical same-site URLs for frontier expansion,
	// in document order, deduplicated.
	InternalLinks []*url.URL

	// ExternalLinks are the page's external LinkRecords in document order,
	// deduplicated by target URL.
	ExternalLinks []model.LinkRecord
}

// NewParser creates a Parser for the page at pageURL.
// The rules are normalized once here so per-anchor classification stays cheap.
func NewParser(pageURL string, norm *Normalizer, rules config.AuthorityRules) (*Parser, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}
	return &Parser{pageURL: u, norm: norm, rules: rules.Normalized()}, nil
}

// Parse walks the HTML document and extracts the title, the internal links,
// and the external LinkRecords.
//
// Each href passes through the Normalizer; invalid or unsupported references
// are dropped silently. Link order matches document order.
func (p *Parser) Parse(content io.Reader) (*ParseResult, error) {
	doc, err := html.Parse(content)
	if err != nil {
		// html.Parse only fails on reader errors; a broken document
		// still yields a tree.
		return nil, err
	}

	result := &ParseResult{
		InternalLinks: make([]*url.URL, 0),
		ExternalLinks: make([]model.LinkRecord, 0),
	}
	seenInternal := make(map[string]struct{})
	seenExternal := make(map[string]struct{})

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if result.Title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					result.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "a":
				if href := getAttr(n, "href"); href != "" {
					p.processAnchor(n, href, result, seenInternal, seenExternal)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return result, nil
}

// processAnchor normalizes one anchor's href and records it as an internal
// link or an external LinkRecord.
func (p *Parser) processAnchor(n *html.Node, href string, result *ParseResult, seenInternal, seenExternal map[string]struct{}) {
	target, err := p.norm.Normalize(p.pageURL, href)
	if err != nil {
		// mailto:, javascript:, bare fragments, unparsable garbage
		return
	}

	key := target.String()
	if p.norm.IsInternal(target) {
		if _, ok := seenInternal[key]; ok {
			return
		}
		seenInternal[key] = struct{}{}
		result.InternalLinks = append(result.InternalLinks, target)
		return
	}

	if _, ok := seenExternal[key]; ok {
		return
	}
	seenExternal[key] = struct{}{}

	domain := stripWWW(strings.ToLower(target.Hostname()))
	result.ExternalLinks = append(result.ExternalLinks, model.LinkRecord{
		SourcePage:    p.pageURL.String(),
		TargetURL:     key,
		AnchorText:    anchorText(n),
		RelAttributes: relTokens(n),
		TargetDomain:  domain,
		IsAuthority:   IsAuthority(domain, p.rules),
	})
}

// anchorText collects the anchor's visible text, trimmed and capped.
func anchorText(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)

	text := strings.Join(strings.Fields(sb.String()), " ")
	if text == "" {
		return noAnchorText
	}
	if runes := []rune(text); len(runes) > maxAnchorTextLen {
		text = string(runes[:maxAnchorTextLen])
	}
	return text
}

// relTokens splits the anchor's rel attribute into its tokens.
func relTokens(n *html.Node) []string {
	rel := getAttr(n, "rel")
	if rel == "" {
		return nil
	}
	return strings.Fields(strings.ToLower(rel))
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
