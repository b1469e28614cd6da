package log

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"strings"
)

// MaskValue is the string used to replace sensitive values.
const MaskValue = "***REDACTED***"

// sensitiveKeys are attribute keys whose values are always masked,
// whatever they contain.
var sensitiveKeys = map[string]bool{
	"authorization": true,
	"cookie":        true,
	"set-cookie":    true,
	"password":      true,
	"passwd":        true,
	"secret":        true,
	"token":         true,
	"api_key":       true,
	"apikey":        true,
	"api-key":       true,
	"access_token":  true,
	"session":       true,
	"session_id":    true,
	"sessionid":     true,
	"credentials":   true,
	"auth":          true,
}

// sensitiveParams are query parameter names scrubbed from logged URLs.
// Matched as a substring of the lowercased parameter name, so "auth_token"
// and "x-api-key" are covered without listing every variant.
var sensitiveParams = []string{
	"token", "key", "secret", "password", "passwd", "session", "auth", "credential",
}

// RedactHandler wraps an slog.Handler and scrubs sensitive data from
// records before the underlying handler sees them.
//
// Two kinds of attributes are rewritten: attributes whose key names a
// secret (password, token, cookie) have their whole value masked, and
// string values that parse as URLs have their userinfo and any sensitive
// query parameters masked while the rest of the URL stays readable. URL
// scrubbing matters more here than whole-value masking: crawl logs are
// mostly URLs, and the URL minus its token is still the part worth reading.
//
// Design decision: We use a handler wrapper rather than a custom logger
// because:
//  1. It integrates seamlessly with standard slog APIs
//  2. It works with any underlying handler (text, JSON, etc.)
//  3. Libraries handed the shared *slog.Logger get redaction for free
type RedactHandler struct {
	// handler is the underlying slog handler that receives scrubbed records.
	handler slog.Handler
}

// NewRedactHandler creates a RedactHandler wrapping the given handler.
// If handler is nil, slog.Default().Handler() is used.
func NewRedactHandler(handler slog.Handler) *RedactHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &RedactHandler{handler: handler}
}

// Enabled delegates to the underlying handler.
func (h *RedactHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle scrubs the record's attributes and passes it on.
func (h *RedactHandler) Handle(ctx context.Context, r slog.Record) error {
	scrubbed := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		scrubbed.AddAttrs(h.scrubAttr(a))
		return true
	})
	return h.handler.Handle(ctx, scrubbed)
}

// WithAttrs returns a new handler with the given attributes added,
// scrubbed first.
func (h *RedactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	scrubbed := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		scrubbed[i] = h.scrubAttr(a)
	}
	return &RedactHandler{handler: h.handler.WithAttrs(scrubbed)}
}

// WithGroup returns a new handler with the given group name.
func (h *RedactHandler) WithGroup(name string) slog.Handler {
	return &RedactHandler{handler: h.handler.WithGroup(name)}
}

// scrubAttr scrubs a single attribute, recursively handling groups.
func (h *RedactHandler) scrubAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		scrubbed := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			scrubbed[i] = h.scrubAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(scrubbed...)}
	}

	if sensitiveKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, MaskValue)
	}

	if a.Value.Kind() == slog.KindString {
		if scrubbed, changed := ScrubURL(a.Value.String()); changed {
			return slog.String(a.Key, scrubbed)
		}
	}

	return a
}

// ScrubURL masks the userinfo and sensitive query parameters of a URL
// string. The second return value reports whether anything was rewritten;
// values that are not absolute http(s) URLs come back unchanged.
func ScrubURL(raw string) (string, bool) {
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return raw, false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw, false
	}

	changed := false
	if u.User != nil {
		u.User = url.User(MaskValue)
		changed = true
	}

	if u.RawQuery != "" {
		query := u.Query()
		masked := false
		for name := range query {
			if sensitiveParam(name) {
				query.Set(name, MaskValue)
				masked = true
			}
		}
		if masked {
			// Encode percent-escapes the mask's asterisks; restore the
			// literal marker so logs show it verbatim.
			u.RawQuery = strings.ReplaceAll(query.Encode(), url.QueryEscape(MaskValue), MaskValue)
			changed = true
		}
	}

	if !changed {
		return raw, false
	}
	return u.String(), true
}

// sensitiveParam reports whether a query parameter name looks like it
// carries a secret.
func sensitiveParam(name string) bool {
	name = strings.ToLower(name)
	for _, keyword := range sensitiveParams {
		if strings.Contains(name, keyword) {
			return true
		}
	}
	return false
}

// NewLogger creates a *slog.Logger with redaction on a text handler.
// verbose selects Debug level, otherwise Warn; progress output goes
// through the reporting layer, not the logger.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(NewRedactHandler(handler))
}

// NewJSONLogger creates a *slog.Logger with redaction on a JSON handler,
// for structured log aggregation.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(NewRedactHandler(handler))
}
