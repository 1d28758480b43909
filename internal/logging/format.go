package logging

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

const consoleTimeLayout = "2006-01-02 15:04:05"

// plainValue renders a value without quoting, for header fields.
func plainValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindTime:
		return consoleTime(v.Time())
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	default:
		return v.String()
	}
}

// fieldValue renders a value for a "- key: value" console line, quoting
// anything that would be ambiguous when read back.
func fieldValue(v slog.Value) string {
	s := plainValue(v)
	if v.Kind() == slog.KindTime || !needsQuotes(s) {
		return s
	}
	return strconv.Quote(s)
}

func needsQuotes(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if r <= ' ' || r == '=' || r == '"' {
			return true
		}
	}
	return false
}

func consoleTime(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Local().Format(consoleTimeLayout)
}
