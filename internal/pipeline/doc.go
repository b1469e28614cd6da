// Package pipeline orchestrates the audit steps for a site.
//
// An audit runs as an ordered sequence of steps over a shared AuditReport:
// the robots step records the site's advertised crawl-delay, the crawl step
// runs the crawl engine, and the summarize step derives the aggregate and
// per-domain views. Steps accumulate into the report, so a cancelled or
// partially failed audit still yields whatever was collected.
//
// BatchProcessor fans the same pipeline out over multiple sites with a
// concurrency limit; individual crawls stay sequential.
package pipeline
