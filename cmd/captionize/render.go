package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"captionize/internal/captions"
	"captionize/internal/jobs"
)

// captionTextWidth wraps long cue text in preview tables.
const captionTextWidth = 60

type column struct {
	header string
	right  bool
	wrap   int
}

func renderTable(columns []column, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, col := range columns {
		header[i] = col.header
		configs[i] = table.ColumnConfig{Number: i + 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft}
		if col.right {
			configs[i].Align = text.AlignRight
		}
		if col.wrap > 0 {
			configs[i].WidthMax = col.wrap
			configs[i].WidthMaxEnforcer = text.WrapSoft
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render()
}

func renderCaptionTable(cues []captions.Caption) string {
	rows := make([][]string, 0, len(cues))
	for _, cue := range cues {
		rows = append(rows, []string{
			strconv.Itoa(cue.Index),
			captions.FormatTimestamp(cue.Start),
			captions.FormatTimestamp(cue.End),
			strconv.Itoa(captions.WordCount(cue)),
			cue.Text,
		})
	}
	return renderTable([]column{
		{header: "#", right: true},
		{header: "Start"},
		{header: "End"},
		{header: "Words", right: true},
		{header: "Text", wrap: captionTextWidth},
	}, rows)
}

func renderJobTable(list []*jobs.Job) string {
	rows := make([][]string, 0, len(list))
	for _, job := range list {
		rows = append(rows, []string{
			shortID(job.ID),
			job.Title,
			string(job.Status),
			strconv.Itoa(job.Progress) + "%",
			formatDuration(job.Duration),
			job.CreatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	return renderTable([]column{
		{header: "ID"},
		{header: "Title", wrap: 40},
		{header: "Status"},
		{header: "Progress", right: true},
		{header: "Duration", right: true},
		{header: "Created"},
	}, rows)
}

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

var statusKinds = map[statusKind]struct {
	label string
	color string
}{
	statusInfo:  {"INFO", "\x1b[34m"},
	statusOK:    {"OK", "\x1b[32m"},
	statusWarn:  {"WARN", "\x1b[33m"},
	statusError: {"ERROR", "\x1b[31m"},
}

const ansiReset = "\x1b[0m"

func jobStatusKind(status jobs.Status) statusKind {
	switch status {
	case jobs.StatusCompleted:
		return statusOK
	case jobs.StatusFailed:
		return statusError
	case jobs.StatusProcessing:
		return statusWarn
	default:
		return statusInfo
	}
}

// statusPrinter writes aligned "label: [KIND] message" lines, colored when
// the destination is a terminal.
type statusPrinter struct {
	out      io.Writer
	colorize bool
}

func newStatusPrinter(out io.Writer) *statusPrinter {
	p := &statusPrinter{out: out}
	if file, ok := out.(*os.File); ok {
		fd := file.Fd()
		p.colorize = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
	return p
}

func (p *statusPrinter) paint(kind statusKind, s string) string {
	if !p.colorize {
		return s
	}
	return statusKinds[kind].color + s + ansiReset
}

func (p *statusPrinter) header(title string) {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	fmt.Fprintln(p.out, p.paint(statusInfo, line))
	fmt.Fprintln(p.out, p.paint(statusInfo, strings.Repeat("-", len(line))))
}

func (p *statusPrinter) line(label string, kind statusKind, message string) {
	status := "[" + statusKinds[kind].label + "]"
	if message != "" {
		status += " " + message
	}
	fmt.Fprintln(p.out, p.paint(kind, fmt.Sprintf("  %-20s %s", label+":", status)))
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
