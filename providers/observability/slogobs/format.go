package slogobs

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Format selects the record encoding.
type Format string

const (
	// FormatCompact prints one line per record with attributes as a JSON object:
	// 2026-01-02 10:40:35 DEBUG stream started {"llm.provider":"openai"}
	FormatCompact Format = "compact"

	// FormatText uses slog's key=value text handler.
	FormatText Format = "text"

	// FormatJSON uses slog's JSON handler, for log aggregation.
	FormatJSON Format = "json"
)

// LevelTrace sits below slog.LevelDebug and carries wire-level detail.
const LevelTrace = slog.LevelDebug - 4

const (
	envLogFormat = "UNILLM_LOG_FORMAT"
	envLogLevel  = "UNILLM_LOG_LEVEL"
)

// ParseFormat maps a case-insensitive name to a Format. Unknown names fall
// back to FormatCompact.
func ParseFormat(s string) Format {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatText:
		return FormatText
	case FormatJSON:
		return FormatJSON
	default:
		return FormatCompact
	}
}

// ParseLevel maps TRACE, DEBUG, INFO, WARN/WARNING or ERROR (any case) to a
// slog.Level. Unknown values yield INFO and a warning on stderr.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "TRACE":
		return LevelTrace
	case "DEBUG":
		return slog.LevelDebug
	case "", "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		fmt.Fprintf(os.Stderr, "Warning: unknown log level %q, using INFO\n", level)
		return slog.LevelInfo
	}
}

// FormatFromEnv reads UNILLM_LOG_FORMAT.
func FormatFromEnv() Format {
	return ParseFormat(os.Getenv(envLogFormat))
}

// LevelFromEnv reads UNILLM_LOG_LEVEL.
func LevelFromEnv() slog.Level {
	return ParseLevel(os.Getenv(envLogLevel))
}

func levelName(level slog.Level) string {
	if level < slog.LevelDebug {
		return "TRACE"
	}
	return level.String()
}
