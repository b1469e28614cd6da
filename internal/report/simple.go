package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/linkauditor/linkauditor/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no content are shown.
	showEmpty bool

	// verbose enables the per-link listing in addition to the
	// per-domain aggregation.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables the per-link listing.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full report in human-readable format.
func (w *SimpleWriter) Write(report *model.AuditReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writeDomains(&sb, report)
	if w.verbose {
		w.writeLinks(&sb, report)
	}
	w.writeFailedPages(&sb, report)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with audit information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.AuditReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                    EXTERNAL LINK AUDIT REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Site:          %s\n", report.Site))
	sb.WriteString(fmt.Sprintf("Base Domain:   %s\n", report.BaseDomain))
	sb.WriteString(fmt.Sprintf("Audit Date:    %s\n", report.DateAudited.Format("2006-01-02 15:04:05 MST")))
	if report.RobotsCrawlDelay > 0 {
		sb.WriteString(fmt.Sprintf("Robots Delay:  %s\n", report.RobotsCrawlDelay))
	}

	switch {
	case report.Cancelled:
		sb.WriteString("Status:        CANCELLED (partial results)\n")
	case report.ErrorMessage != "":
		sb.WriteString(fmt.Sprintf("Status:        ERROR - %s\n", report.ErrorMessage))
	default:
		sb.WriteString("Status:        Complete\n")
	}

	if report.Crawl != nil {
		if report.Crawl.SitemapUnavailable {
			sb.WriteString("Sitemap:       not available, spidered from root\n")
		} else {
			sb.WriteString(fmt.Sprintf("Sitemap:       %d seed URLs\n", report.Crawl.SitemapSeeds))
		}
		if report.Crawl.BudgetExhausted {
			sb.WriteString("Note:          page budget exhausted, site only partially covered\n")
		}
	}

	sb.WriteString("\n")
}

// writeSummary writes the aggregate counts section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.AuditReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	s := report.Summary
	sb.WriteString(fmt.Sprintf("  Pages visited:        %d\n", s.PagesVisited))
	sb.WriteString(fmt.Sprintf("  Pages failed:         %d\n", s.PagesFailed))
	sb.WriteString(fmt.Sprintf("  Pages skipped:        %d\n", s.PagesSkipped))
	sb.WriteString(fmt.Sprintf("  External links:       %d\n", s.TotalExternalLinks))
	sb.WriteString(fmt.Sprintf("  Authority links:      %d\n", s.AuthorityLinks))
	sb.WriteString(fmt.Sprintf("  Non-authority links:  %d\n", s.TotalExternalLinks-s.AuthorityLinks))
	sb.WriteString(fmt.Sprintf("  Distinct domains:     %d\n", s.DistinctDomains))
	sb.WriteString("\n")
}

// writeDomains writes the per-domain aggregation, most-linked first.
func (w *SimpleWriter) writeDomains(sb *strings.Builder, report *model.AuditReport) {
	if len(report.Domains) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("EXTERNAL DOMAINS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(report.Domains) == 0 {
		sb.WriteString("  No external links found\n")
	}
	for _, d := range report.Domains {
		marker := " "
		if d.IsAuthority {
			marker = "A"
		}
		sb.WriteString(fmt.Sprintf("  [%s] %-40s %4d link(s) on %d page(s)\n",
			marker, d.Domain, d.Count, len(d.Pages)))
	}
	sb.WriteString("\n  [A] = authority domain\n\n")
}

// writeLinks writes every external link with its anchor text.
func (w *SimpleWriter) writeLinks(sb *strings.Builder, report *model.AuditReport) {
	if report.Crawl == nil {
		return
	}
	links := report.Crawl.Links()
	if len(links) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("ALL EXTERNAL LINKS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, link := range links {
		sb.WriteString(fmt.Sprintf("  * %s\n", link.TargetURL))
		sb.WriteString(fmt.Sprintf("    Anchor: %s\n", link.AnchorText))
		sb.WriteString(fmt.Sprintf("    Source: %s\n", link.SourcePage))
		if len(link.RelAttributes) > 0 {
			sb.WriteString(fmt.Sprintf("    Rel:    %s\n", strings.Join(link.RelAttributes, " ")))
		}
	}
	sb.WriteString("\n")
}

// writeFailedPages lists pages whose fetch failed or was skipped.
func (w *SimpleWriter) writeFailedPages(sb *strings.Builder, report *model.AuditReport) {
	if report.Crawl == nil {
		return
	}

	var problems []*model.PageRecord
	for _, url := range report.Crawl.PageOrder {
		page := report.Crawl.Pages[url]
		if page.Status != model.PageStatusFetched {
			problems = append(problems, page)
		}
	}
	if len(problems) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("PROBLEM PAGES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(problems) == 0 {
		sb.WriteString("  None\n")
	}
	for _, page := range problems {
		sb.WriteString(fmt.Sprintf("  [%s] %s\n", page.Status, page.URL))
		if page.FetchError != "" {
			sb.WriteString(fmt.Sprintf("           %s\n", page.FetchError))
		}
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by LinkAuditor\n")
	sb.WriteString("https://github.com/linkauditor/linkauditor\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
