package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/linkauditor/linkauditor/internal/config"
	"github.com/linkauditor/linkauditor/internal/model"
)

// CSVWriter exports one view of the audit as CSV for spreadsheet work.
//
// Three views exist: "pages" (one row per crawled page), "domains" (one
// row per external domain), and "links" (one row per external link). The
// views are flat projections of the same report; a reader wanting all
// three runs the export three times.
//
// Design decision: We use encoding/csv rather than a table library
// because CSV is a wire format here, not a presentation concern: proper
// quoting and RFC 4180 line endings are all that matters.
type CSVWriter struct {
	baseWriter

	// view selects which projection to export.
	view string
}

// NewCSVWriter creates a CSVWriter for the given view
// ("pages", "domains", or "links").
func NewCSVWriter(output io.Writer, view string) *CSVWriter {
	return &CSVWriter{
		baseWriter: newBaseWriter(output),
		view:       view,
	}
}

// Write outputs the selected view as CSV.
func (w *CSVWriter) Write(report *model.AuditReport) (int, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	var err error
	switch w.view {
	case config.CSVViewPages:
		err = w.writePages(cw, report)
	case config.CSVViewDomains:
		err = w.writeDomains(cw, report)
	case config.CSVViewLinks:
		err = w.writeLinks(cw, report)
	default:
		return 0, fmt.Errorf("unknown csv view %q", w.view)
	}
	if err != nil {
		return 0, err
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, err
	}
	return w.output.Write(buf.Bytes())
}

// writePages exports one row per crawled page.
func (w *CSVWriter) writePages(cw *csv.Writer, report *model.AuditReport) error {
	if err := cw.Write([]string{"url", "title", "status", "external_links", "fetch_error"}); err != nil {
		return err
	}
	if report.Crawl == nil {
		return nil
	}
	for _, url := range report.Crawl.PageOrder {
		page := report.Crawl.Pages[url]
		row := []string{
			page.URL,
			page.Title,
			string(page.Status),
			strconv.Itoa(len(page.ExternalLinks)),
			page.FetchError,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// writeDomains exports one row per external domain.
func (w *CSVWriter) writeDomains(cw *csv.Writer, report *model.AuditReport) error {
	if err := cw.Write([]string{"domain", "links", "pages", "is_authority"}); err != nil {
		return err
	}
	for _, d := range report.Domains {
		row := []string{
			d.Domain,
			strconv.Itoa(d.Count),
			strconv.Itoa(len(d.Pages)),
			strconv.FormatBool(d.IsAuthority),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// writeLinks exports one row per external link.
func (w *CSVWriter) writeLinks(cw *csv.Writer, report *model.AuditReport) error {
	if err := cw.Write([]string{"source_page", "target_url", "target_domain", "anchor_text", "rel", "is_authority"}); err != nil {
		return err
	}
	if report.Crawl == nil {
		return nil
	}
	for _, link := range report.Crawl.Links() {
		row := []string{
			link.SourcePage,
			link.TargetURL,
			link.TargetDomain,
			link.AnchorText,
			strings.Join(link.RelAttributes, " "),
			strconv.FormatBool(link.IsAuthority),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return nil
}
