package logger

import (
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

var (
	dsnPasswordPattern = regexp.MustCompile(`(postgres(?:ql)?://[^:\s]+:)([^@\s]+)(@)`)
	authTokenPattern   = regexp.MustCompile(`((?:APP_)?TWILIO_AUTH_TOKEN=)(\S+)`)
)

// New initializes a new slog.Logger writing JSON to stdout.
// Log level can be debug, info, warn, error.
func New(level string) *slog.Logger {
	return NewWithWriter(os.Stdout, level)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, level string) *slog.Logger {
	var logLevel slog.Level

	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:       logLevel,
		ReplaceAttr: redactAttr,
	}

	return slog.New(slog.NewJSONHandler(w, opts))
}

// Redact masks database passwords and provider auth tokens embedded in s.
func Redact(s string) string {
	s = dsnPasswordPattern.ReplaceAllString(s, "${1}***${3}")
	s = authTokenPattern.ReplaceAllString(s, "${1}***")
	return s
}

func redactAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		if v := a.Value.String(); v != "" {
			a.Value = slog.StringValue(Redact(v))
		}
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok && err != nil {
			a.Value = slog.StringValue(Redact(err.Error()))
		}
	}
	return a
}
