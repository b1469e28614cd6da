// Package report renders audit results in the supported output formats.
//
// Every writer consumes the same AuditReport and differs only in
// presentation: human-readable text for the terminal, JSON for tool
// integration, Markdown for documentation, and CSV exports for
// spreadsheet work. MultiWriter fans one report out to several
// destinations, typically the terminal plus a file.
package report
