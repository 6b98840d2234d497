package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeySessionID  = "session_id"
	KeyOwner      = "owner"
	KeyRepo       = "repository"
	KeyPath       = "path"
	KeyOperation  = "operation"
	KeyService    = "service"
	KeyAttempt    = "attempt"
	KeyStatus     = "status"
	KeyDurationMS = "duration_ms"
	KeyModel      = "model"
	KeyLanguage   = "language"
	KeyMethod     = "method"
	KeyURL        = "url"
	KeyUserAgent  = "user_agent"
	KeyRemoteAddr = "remote_addr"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func SessionID(id string) slog.Attr     { return slog.String(KeySessionID, id) }
func Owner(o string) slog.Attr          { return slog.String(KeyOwner, o) }
func Repository(r string) slog.Attr     { return slog.String(KeyRepo, r) }
func Path(p string) slog.Attr           { return slog.String(KeyPath, p) }
func Operation(op string) slog.Attr     { return slog.String(KeyOperation, op) }
func Service(s string) slog.Attr        { return slog.String(KeyService, s) }
func Attempt(n int) slog.Attr           { return slog.Int(KeyAttempt, n) }
func Status(code int) slog.Attr         { return slog.Int(KeyStatus, code) }
func DurationMS(ms float64) slog.Attr   { return slog.Float64(KeyDurationMS, ms) }
func Model(m string) slog.Attr          { return slog.String(KeyModel, m) }
func Language(l string) slog.Attr       { return slog.String(KeyLanguage, l) }
func Method(m string) slog.Attr         { return slog.String(KeyMethod, m) }
func URL(u string) slog.Attr            { return slog.String(KeyURL, u) }
func UserAgent(ua string) slog.Attr     { return slog.String(KeyUserAgent, ua) }
func RemoteAddr(addr string) slog.Attr  { return slog.String(KeyRemoteAddr, addr) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
