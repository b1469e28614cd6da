package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/linkauditor/linkauditor/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.AuditReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeDomains(md, report)
	w.writeFailedPages(md, report)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with audit information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.AuditReport) {
	md.H1("External Link Audit: " + report.BaseDomain)
	md.PlainText("")

	rows := [][]string{
		{"Site", "`" + report.Site + "`"},
		{"Audit Date", report.DateAudited.Format("2006-01-02 15:04:05 MST")},
		{"Status", w.statusText(report)},
	}
	if report.RobotsCrawlDelay > 0 {
		rows = append(rows, []string{"Robots Crawl-delay", report.RobotsCrawlDelay.String()})
	}
	if report.Crawl != nil {
		if report.Crawl.SitemapUnavailable {
			rows = append(rows, []string{"Sitemap", "not available"})
		} else {
			rows = append(rows, []string{"Sitemap", strconv.Itoa(report.Crawl.SitemapSeeds) + " seed URLs"})
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// statusText returns the status text based on report state.
func (w *MarkdownWriter) statusText(report *model.AuditReport) string {
	if report.Cancelled {
		return "⚠️ Cancelled (partial results)"
	}
	if report.ErrorMessage != "" {
		return "❌ Error - " + report.ErrorMessage
	}
	return "✅ Complete"
}

// writeSummary writes the aggregate counts with an authority share chart.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.AuditReport) {
	md.H2("Summary")
	md.PlainText("")

	s := report.Summary
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Pages visited", strconv.Itoa(s.PagesVisited)},
			{"Pages failed", strconv.Itoa(s.PagesFailed)},
			{"Pages skipped", strconv.Itoa(s.PagesSkipped)},
			{"External links", strconv.Itoa(s.TotalExternalLinks)},
			{"Authority links", strconv.Itoa(s.AuthorityLinks)},
			{"Non-authority links", strconv.Itoa(s.TotalExternalLinks - s.AuthorityLinks)},
			{"Distinct domains", strconv.Itoa(s.DistinctDomains)},
		},
	})
	md.PlainText("")

	if s.TotalExternalLinks > 0 {
		w.writePieChart(md, s)
	}

	if report.Crawl != nil && report.Crawl.BudgetExhausted {
		md.Warning("The page budget was exhausted before the whole site was covered; the numbers above describe only the crawled portion.")
	}
}

// writePieChart writes a mermaid pie chart of the authority share.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("External Link Destinations"),
		piechart.WithShowData(true),
	)

	if s.AuthorityLinks > 0 {
		chart.LabelAndIntValue("Authority", uint64(s.AuthorityLinks))
	}
	if other := s.TotalExternalLinks - s.AuthorityLinks; other > 0 {
		chart.LabelAndIntValue("Non-authority", uint64(other))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeDomains writes the per-domain aggregation table.
func (w *MarkdownWriter) writeDomains(md *markdown.Markdown, report *model.AuditReport) {
	if len(report.Domains) == 0 {
		return
	}

	md.H2("External Domains")
	md.PlainText("")

	rows := make([][]string, 0, len(report.Domains))
	for _, d := range report.Domains {
		kind := "non-authority"
		if d.IsAuthority {
			kind = "**authority**"
		}
		rows = append(rows, []string{
			"`" + d.Domain + "`",
			strconv.Itoa(d.Count),
			strconv.Itoa(len(d.Pages)),
			kind,
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Domain", "Links", "Pages", "Classification"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFailedPages writes the problem page listing, if any.
func (w *MarkdownWriter) writeFailedPages(md *markdown.Markdown, report *model.AuditReport) {
	if report.Crawl == nil {
		return
	}

	var rows [][]string
	for _, url := range report.Crawl.PageOrder {
		page := report.Crawl.Pages[url]
		if page.Status == model.PageStatusFetched {
			continue
		}
		rows = append(rows, []string{
			"`" + page.URL + "`",
			string(page.Status),
			strings.ReplaceAll(page.FetchError, "|", "\\|"),
		})
	}
	if len(rows) == 0 {
		return
	}

	md.H2("Problem Pages")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Status", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}
