package model

import "time"

// AuditReport is the main audit result structure.
// It contains everything collected while auditing one site and is the unit
// that pipeline steps mutate and report writers consume.
//
// Design decision: We use a single struct accumulated across pipeline steps
// rather than returning values step-to-step because it simplifies partial
// results: whatever was collected before a cancellation or step failure is
// still reportable.
type AuditReport struct {
	// Site is the root URL of the audited website.
	Site string `json:"site"`

	// BaseDomain is the site's hostname with any leading "www." removed.
	BaseDomain string `json:"base_domain"`

	// DateAudited is when the audit was performed.
	DateAudited time.Time `json:"date_audited"`

	// RobotsCrawlDelay is the Crawl-delay advertised by robots.txt, if any.
	RobotsCrawlDelay time.Duration `json:"robots_crawl_delay,omitempty"`

	// Crawl is the crawl engine's output. Nil until the crawl step ran.
	Crawl *CrawlResult `json:"crawl,omitempty"`

	// Summary holds the aggregate counts, filled by the summarize step.
	Summary Summary `json:"summary"`

	// Domains holds the per-domain aggregation, filled by the summarize step.
	Domains []DomainStat `json:"domains,omitempty"`

	// PerformedSteps lists the pipeline steps that ran, in order.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// Cancelled is true when the audit was stopped early by the caller.
	Cancelled bool `json:"cancelled,omitempty"`

	// Error holds the fatal error if the audit failed as a whole.
	// Per-page fetch failures are never fatal; they live in the PageRecords.
	Error error `json:"-"`

	// ErrorMessage is the string form of Error for serialization.
	ErrorMessage string `json:"error,omitempty"`
}

// NewAuditReport creates an AuditReport for the given site.
func NewAuditReport(site, baseDomain string) *AuditReport {
	return &AuditReport{
		Site:        site,
		BaseDomain:  baseDomain,
		DateAudited: time.Now(),
	}
}

// Failed reports whether the audit failed as a whole.
func (r *AuditReport) Failed() bool {
	return r.Error != nil
}
