package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/linkauditor/linkauditor/internal/config"
	"github.com/linkauditor/linkauditor/internal/model"
)

// testReport builds a small but complete audit report fixture.
func testReport() *model.AuditReport {
	crawl := model.NewCrawlResult("https://example.com/")
	crawl.SitemapUnavailable = true
	crawl.FinishedAt = time.Now()

	crawl.AddPage(&model.PageRecord{
		URL:    "https://example.com/",
		Title:  "Home",
		Status: model.PageStatusFetched,
		ExternalLinks: []model.LinkRecord{
			{
				SourcePage:   "https://example.com/",
				TargetURL:    "https://irs.gov/refunds",
				AnchorText:   "Tax refunds",
				TargetDomain: "irs.gov",
				IsAuthority:  true,
			},
			{
				SourcePage:    "https://example.com/",
				TargetURL:     "https://spamlink.com/offer",
				AnchorText:    "Click here",
				RelAttributes: []string{"nofollow", "sponsored"},
				TargetDomain:  "spamlink.com",
			},
		},
	})
	crawl.AddPage(&model.PageRecord{
		URL:        "https://example.com/broken",
		Status:     model.PageStatusFailed,
		FetchError: "HTTP 500",
	})

	report := model.NewAuditReport("https://example.com", "example.com")
	report.Crawl = crawl
	report.Summary = crawl.Summarize()
	report.Domains = crawl.DomainStats()
	report.PerformedSteps = []string{"robots", "crawl", "summarize"}
	return report
}

// TestSimpleWriter tests the human-readable text format.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("renders summary, domains, and problem pages", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		n, err := w.Write(testReport())
		if err != nil {
			t.Fatalf("failed to write report: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("reported %d bytes written, buffer has %d", n, buf.Len())
		}

		out := buf.String()
		for _, want := range []string{
			"EXTERNAL LINK AUDIT REPORT",
			"example.com",
			"Pages visited:        2",
			"Pages failed:         1",
			"External links:       2",
			"Authority links:      1",
			"[A] irs.gov",
			"spamlink.com",
			"PROBLEM PAGES",
			"HTTP 500",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("verbose mode lists every link", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithVerbose(true))
		if _, err := w.Write(testReport()); err != nil {
			t.Fatalf("failed to write report: %v", err)
		}

		out := buf.String()
		if !strings.Contains(out, "ALL EXTERNAL LINKS") {
			t.Error("expected the link listing section")
		}
		if !strings.Contains(out, "Anchor: Tax refunds") {
			t.Error("expected anchor text in the verbose listing")
		}
		if !strings.Contains(out, "Rel:    nofollow sponsored") {
			t.Error("expected rel attributes in the verbose listing")
		}
	})

	t.Run("marks a cancelled audit", func(t *testing.T) {
		t.Parallel()

		report := testReport()
		report.Cancelled = true

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(report); err != nil {
			t.Fatalf("failed to write report: %v", err)
		}
		if !strings.Contains(buf.String(), "CANCELLED (partial results)") {
			t.Error("expected cancelled status in output")
		}
	})
}

// TestJSONWriter tests the JSON output format.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("produces valid JSON round-trippable to the report shape", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(testReport()); err != nil {
			t.Fatalf("failed to write report: %v", err)
		}

		var decoded map[string]any
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if decoded["site"] != "https://example.com" {
			t.Errorf("expected site field, got %v", decoded["site"])
		}
		summary, ok := decoded["summary"].(map[string]any)
		if !ok {
			t.Fatal("expected a summary object")
		}
		if summary["total_external_links"] != float64(2) {
			t.Errorf("expected 2 external links in summary, got %v", summary["total_external_links"])
		}
	})

	t.Run("pretty print indents the output", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(testReport()); err != nil {
			t.Fatalf("failed to write report: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"site\"") {
			t.Error("expected indented output")
		}
	})

	t.Run("full writer wraps the report with a version", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewFullJSONWriter(&buf, "1.2.3").Write(testReport()); err != nil {
			t.Fatalf("failed to write report: %v", err)
		}

		var wrapped JSONReport
		if err := json.Unmarshal(buf.Bytes(), &wrapped); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if wrapped.Version != "1.2.3" {
			t.Errorf("expected version 1.2.3, got %q", wrapped.Version)
		}
		if wrapped.Report == nil || wrapped.Report.Site != "https://example.com" {
			t.Error("expected the wrapped report")
		}
	})
}

// TestMarkdownWriter tests the Markdown output format.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(testReport()); err != nil {
		t.Fatalf("failed to write report: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"# External Link Audit: example.com",
		"## Summary",
		"## External Domains",
		"## Problem Pages",
		"```mermaid",
		"irs.gov",
		"**authority**",
		"HTTP 500",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected markdown output to contain %q", want)
		}
	}
}

// TestCSVWriter tests the three CSV export views.
func TestCSVWriter(t *testing.T) {
	t.Parallel()

	parse := func(t *testing.T, raw string) [][]string {
		t.Helper()
		records, err := csv.NewReader(strings.NewReader(raw)).ReadAll()
		if err != nil {
			t.Fatalf("output is not valid CSV: %v", err)
		}
		return records
	}

	t.Run("pages view", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewCSVWriter(&buf, config.CSVViewPages).Write(testReport()); err != nil {
			t.Fatalf("failed to write csv: %v", err)
		}

		records := parse(t, buf.String())
		if len(records) != 3 {
			t.Fatalf("expected header + 2 rows, got %d", len(records))
		}
		if records[0][0] != "url" {
			t.Errorf("expected url header, got %q", records[0][0])
		}
		if records[2][2] != "failed" || records[2][4] != "HTTP 500" {
			t.Errorf("expected failed page row, got %v", records[2])
		}
	})

	t.Run("domains view", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewCSVWriter(&buf, config.CSVViewDomains).Write(testReport()); err != nil {
			t.Fatalf("failed to write csv: %v", err)
		}

		records := parse(t, buf.String())
		if len(records) != 3 {
			t.Fatalf("expected header + 2 rows, got %d", len(records))
		}
		for _, row := range records[1:] {
			switch row[0] {
			case "irs.gov":
				if row[3] != "true" {
					t.Errorf("expected irs.gov to be authority, got %v", row)
				}
			case "spamlink.com":
				if row[3] != "false" {
					t.Errorf("expected spamlink.com non-authority, got %v", row)
				}
			default:
				t.Errorf("unexpected domain row %v", row)
			}
		}
	})

	t.Run("links view", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewCSVWriter(&buf, config.CSVViewLinks).Write(testReport()); err != nil {
			t.Fatalf("failed to write csv: %v", err)
		}

		records := parse(t, buf.String())
		if len(records) != 3 {
			t.Fatalf("expected header + 2 rows, got %d", len(records))
		}
		if records[1][3] != "Tax refunds" {
			t.Errorf("expected anchor text column, got %v", records[1])
		}
		if records[2][4] != "nofollow sponsored" {
			t.Errorf("expected rel column, got %v", records[2])
		}
	})

	t.Run("unknown view errors", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewCSVWriter(&buf, "bogus").Write(testReport()); err == nil {
			t.Error("expected an error for an unknown view")
		}
	})
}

// TestMultiWriter tests fan-out to several destinations.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to every destination", func(t *testing.T) {
		t.Parallel()

		var a, b bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(&a), NewJSONWriter(&b))

		total, err := mw.Write(testReport())
		if err != nil {
			t.Fatalf("failed to write report: %v", err)
		}
		if a.Len() == 0 || b.Len() == 0 {
			t.Error("expected output in both destinations")
		}
		if total != a.Len()+b.Len() {
			t.Errorf("expected total %d, got %d", a.Len()+b.Len(), total)
		}
	})

	t.Run("stops on the first error", func(t *testing.T) {
		t.Parallel()

		var after bytes.Buffer
		failing := NewCSVWriter(&bytes.Buffer{}, "bogus")
		mw := NewMultiWriter(failing, NewSimpleWriter(&after))

		if _, err := mw.Write(testReport()); err == nil {
			t.Fatal("expected an error from the failing writer")
		}
		if after.Len() != 0 {
			t.Error("expected later writers to be skipped after an error")
		}
	})
}

// errWriter always fails, for exercising io error paths.
type errWriter struct{}

func (errWriter) Write([]byte) (int, error) {
	return 0, errors.New("write failed")
}

// TestWriterIOErrors tests that destination errors surface.
func TestWriterIOErrors(t *testing.T) {
	t.Parallel()

	if _, err := NewSimpleWriter(errWriter{}).Write(testReport()); err == nil {
		t.Error("expected simple writer to surface the io error")
	}
	if _, err := NewJSONWriter(errWriter{}).Write(testReport()); err == nil {
		t.Error("expected json writer to surface the io error")
	}
	if _, err := NewCSVWriter(errWriter{}, config.CSVViewPages).Write(testReport()); err == nil {
		t.Error("expected csv writer to surface the io error")
	}
}
