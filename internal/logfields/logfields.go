package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyPage       = "page"
	KeyRoute      = "route"
	KeyPath       = "path"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyCount      = "count"
	KeyMarker     = "marker"
	KeyLocale     = "locale"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Page(p string) slog.Attr          { return slog.String(KeyPage, p) }
func Route(r string) slog.Attr         { return slog.String(KeyRoute, r) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func Marker(m string) slog.Attr        { return slog.String(KeyMarker, m) }
func Locale(l string) slog.Attr        { return slog.String(KeyLocale, l) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
