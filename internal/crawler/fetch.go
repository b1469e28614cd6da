package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
)

// FailureReason classifies why a fetch did not produce a parsable page.
type FailureReason string

const (
	// FailureTimeout means the request exceeded the configured timeout.
	FailureTimeout FailureReason = "timeout"

	// FailureConnection means the host could not be reached (DNS failure,
	// refused connection, reset, TLS failure).
	FailureConnection FailureReason = "connection_error"

	// FailureHTTP means the server answered with a non-success status.
	FailureHTTP FailureReason = "http_error"

	// FailureUnsupportedContent means the response was not HTML.
	// Pages with this reason are skipped, not failed.
	FailureUnsupportedContent FailureReason = "unsupported_content"
)

// FetchError is the typed failure returned by Fetcher.Fetch.
// Network faults are always converted into a FetchError rather than
// propagated raw, so the crawl can continue past individual page failures.
type FetchError struct {
	// URL is the URL whose fetch failed.
	URL string

	// Reason classifies the failure.
	Reason FailureReason

	// StatusCode is set for http_error failures.
	StatusCode int

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	switch e.Reason {
	case FailureHTTP:
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	case FailureTimeout:
		return "timeout"
	case FailureConnection:
		if e.Err != nil {
			return "connection error: " + e.Err.Error()
		}
		return "connection error"
	case FailureUnsupportedContent:
		if e.Err != nil {
			return e.Err.Error()
		}
		return "unsupported content type"
	}
	return string(e.Reason)
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *FetchError) Unwrap() error { return e.Err }

// FetchResult is a successfully fetched HTML page.
type FetchResult struct {
	// StatusCode is the final HTTP status after redirects.
	StatusCode int

	// Body is the response body, decoded to UTF-8 and capped at the
	// configured maximum size.
	Body []byte

	// ContentType is the media type from the Content-Type header.
	ContentType string

	// Elapsed is how long the request took.
	Elapsed time.Duration
}

// Fetcher performs HTTP GETs with timeout handling and typed error capture.
//
// The Fetcher itself does not sleep: the crawl engine is responsible for
// pacing and must not invoke Fetch more often than once per configured
// delay on average.
type Fetcher struct {
	// client is the HTTP client; its Timeout bounds each request.
	client *http.Client

	// userAgent is the User-Agent header to send.
	userAgent string

	// maxBodySize caps how many body bytes are read.
	maxBodySize int64
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum response body size in bytes.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *Fetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// NewFetcher creates a Fetcher using the given HTTP client.
//
// Design decision: We require an external client rather than building one
// because the same client (timeout, redirect policy, transport) is shared by
// the sitemap seeder and the robots check, and tests can inject
// httptest-backed clients.
func NewFetcher(client *http.Client, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:      client,
		userAgent:   "LinkAuditor/1.0",
		maxBodySize: 5 * 1024 * 1024,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch performs a GET request for pageURL and returns the decoded HTML body.
//
// Failures come back as a *FetchError: timeouts and connection problems are
// classified by inspecting the transport error, non-2xx final statuses map
// to http_error, and non-HTML content types map to unsupported_content
// without reading the full body.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Reason: FailureConnection, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Reason: classifyTransportError(err), Err: err}
	}
	defer resp.Body.Close()

	elapsed := time.Since(start)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: pageURL, Reason: FailureHTTP, StatusCode: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if !isHTMLType(mediaType) {
		return nil, &FetchError{
			URL:    pageURL,
			Reason: FailureUnsupportedContent,
			Err:    fmt.Errorf("content type %q", contentType),
		}
	}

	// Decode to UTF-8 based on the declared charset and any <meta> hints.
	reader, err := charset.NewReader(io.LimitReader(resp.Body, f.maxBodySize), contentType)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Reason: FailureConnection, Err: err}
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Reason: classifyTransportError(err), Err: err}
	}

	return &FetchResult{
		StatusCode:  resp.StatusCode,
		Body:        body,
		ContentType: mediaType,
		Elapsed:     elapsed,
	}, nil
}

// isHTMLType reports whether a media type is parsable HTML.
func isHTMLType(mediaType string) bool {
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

// classifyTransportError maps a transport-level error to a failure reason.
func classifyTransportError(err error) FailureReason {
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}
	// http.Client wraps timeouts in url.Error with a recognizable message
	if strings.Contains(err.Error(), "Client.Timeout") {
		return FailureTimeout
	}
	return FailureConnection
}
