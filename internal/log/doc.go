// Package log provides structured logging with automatic redaction of
// sensitive data before it reaches any output.
//
// A crawl touches URLs the operator did not write: sitemap entries, hrefs
// on third-party pages, redirect targets. Any of them can carry session
// tokens, API keys, or credentials in the query string or userinfo, and a
// crawler that logs every URL it visits would otherwise persist them in
// plain text.
//
// The package wraps a standard slog.Handler, so redaction applies
// uniformly to text and JSON output and to any library that logs through
// the shared *slog.Logger.
package log
