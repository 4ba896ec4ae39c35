package httpapi

import (
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// zlog is the structured logger for request logging. Nil keeps the HTTP
// layer silent.
var zlog *zerolog.Logger

// SetLogger installs the logger used for invocation start/end lines.
func SetLogger(l zerolog.Logger) { zlog = &l }

// LogLevel gates per-request logging.
type LogLevel int

const (
	LevelOff LogLevel = iota
	LevelError
	LevelInfo
	LevelDebug
)

// parseLevel maps a level name to a LogLevel. Unknown names read as info so
// a typo surfaces logs rather than hiding them.
func parseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "off":
		return LevelOff
	case "error":
		return LevelError
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

var defaultLogLevel = parseLevel(os.Getenv("INFERD_LOG_LEVEL"))

// requestLogLevel resolves the level for one request: the log query param
// beats the X-Log-Level header beats the process default. log=1 means debug.
func requestLogLevel(r *http.Request) LogLevel {
	if v := r.URL.Query().Get("log"); v != "" {
		if v == "1" {
			return LevelDebug
		}
		return parseLevel(v)
	}
	if v := r.Header.Get("X-Log-Level"); v != "" {
		return parseLevel(v)
	}
	return defaultLogLevel
}
