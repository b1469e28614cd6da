// Package model defines the core data structures used throughout LinkAuditor.
//
// This package contains the following main types:
//   - PageRecord: A single crawled page and the external links found on it
//   - LinkRecord: One external hyperlink with its authority classification
//   - CrawlResult: The crawl engine's complete output for one site
//   - AuditReport: The full audit result consumed by report writers
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (crawler, pipeline, report) need to use these
// types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output.
package model
