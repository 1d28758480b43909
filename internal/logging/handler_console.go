package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// infoFieldLimit caps how many fields an info line prints before folding the rest.
const infoFieldLimit = 8

// consoleHandler prints one header line per record followed by indented
// "- key: value" fields. Component, job and stage move into the header.
type consoleHandler struct {
	mu        *sync.Mutex
	w         io.Writer
	level     *slog.LevelVar
	addSource bool
	preset    []field
	groups    []string
}

type field struct {
	key   string
	value slog.Value
}

func newConsoleHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) *consoleHandler {
	return &consoleHandler{mu: &sync.Mutex{}, w: w, level: lvl, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.preset = append([]field(nil), h.preset...)
	for _, attr := range attrs {
		next.preset = appendField(next.preset, h.groups, attr)
	}
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.groups = append(append([]string(nil), h.groups...), name)
	return &next
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	fields := append([]field(nil), h.preset...)
	record.Attrs(func(attr slog.Attr) bool {
		fields = appendField(fields, h.groups, attr)
		return true
	})
	fields = lastWins(fields)

	var component, jobID, stage string
	body := fields[:0:0]
	for _, f := range fields {
		switch f.key {
		case FieldComponent:
			component = plainValue(f.value)
		case FieldJobID:
			jobID = plainValue(f.value)
		case FieldStage:
			stage = plainValue(f.value)
		default:
			body = append(body, f)
		}
	}

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	message := strings.TrimSpace(record.Message)
	if message == "" {
		message = "(no message)"
	}

	var buf bytes.Buffer
	buf.WriteString(consoleTime(ts))
	buf.WriteString(" " + levelName(record.Level))
	if component != "" {
		buf.WriteString(" [" + component + "]")
	}
	if s := subject(jobID, stage); s != "" {
		buf.WriteString(" " + s)
	}
	buf.WriteString(" – " + message)
	if h.addSource && record.PC != 0 {
		if src := record.Source(); src != nil {
			buf.WriteString(" [" + filepath.Base(src.File) + ":" + strconv.Itoa(src.Line) + "]")
		}
	}
	buf.WriteByte('\n')

	shown := body
	if record.Level >= slog.LevelInfo && len(shown) > infoFieldLimit {
		shown = shown[:infoFieldLimit]
	}
	for _, f := range shown {
		buf.WriteString("    - " + f.key + ": " + fieldValue(f.value) + "\n")
	}
	if hidden := len(body) - len(shown); hidden == 1 {
		buf.WriteString("    + 1 more field hidden\n")
	} else if hidden > 1 {
		buf.WriteString("    + " + strconv.Itoa(hidden) + " more fields hidden\n")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

// subject renders "Job <short id> (stage)" for the console header.
func subject(jobID, stage string) string {
	jobID = strings.TrimSpace(jobID)
	stage = strings.TrimSpace(stage)
	if len(jobID) > 8 {
		jobID = jobID[:8]
	}
	switch {
	case jobID != "" && stage != "":
		return "Job " + jobID + " (" + stage + ")"
	case jobID != "":
		return "Job " + jobID
	default:
		return stage
	}
}

func appendField(dst []field, groups []string, attr slog.Attr) []field {
	if attr.Equal(slog.Attr{}) {
		return dst
	}
	value := attr.Value.Resolve()
	if value.Kind() == slog.KindGroup {
		if attr.Key != "" {
			groups = append(append([]string(nil), groups...), attr.Key)
		}
		for _, member := range value.Group() {
			dst = appendField(dst, groups, member)
		}
		return dst
	}
	key := attr.Key
	if len(groups) > 0 {
		key = strings.Join(append(append([]string(nil), groups...), key), ".")
	}
	return append(dst, field{key: key, value: value})
}

// lastWins keeps the first position of each key with its latest value.
func lastWins(fields []field) []field {
	index := make(map[string]int, len(fields))
	out := make([]field, 0, len(fields))
	for _, f := range fields {
		if f.key == "" {
			continue
		}
		if i, ok := index[f.key]; ok {
			out[i].value = f.value
			continue
		}
		index[f.key] = len(out)
		out = append(out, f)
	}
	return out
}

func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
