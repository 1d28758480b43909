package captions

import (
	"fmt"
	"strconv"
	"strings"
)

// Serialize renders captions as an SRT document. Each cue is written as
// "index\nstart --> end\ntext\n" and cues are separated by a blank line. An
// empty list produces an empty string.
func Serialize(cues []Caption) string {
	if len(cues) == 0 {
		return ""
	}
	blocks := make([]string, len(cues))
	for i, cue := range cues {
		blocks[i] = fmt.Sprintf("%d\n%s --> %s\n%s\n",
			cue.Index, FormatTimestamp(cue.Start), FormatTimestamp(cue.End), cue.Text)
	}
	return strings.Join(blocks, "\n")
}

// Render segments words and serializes the result in one call.
func Render(words []Word) ([]Caption, string, error) {
	cues, err := Segment(words)
	if err != nil {
		return nil, "", err
	}
	return cues, Serialize(cues), nil
}

// Parse reads an SRT document into captions. Blocks without a timing line are
// skipped; multi-line cue text is joined with newlines.
func Parse(content string) ([]Caption, error) {
	normalized := strings.ReplaceAll(content, "\r\n", "\n")
	normalized = strings.TrimSpace(normalized)
	if normalized == "" {
		return []Caption{}, nil
	}
	var cues []Caption
	for _, block := range strings.Split(normalized, "\n\n") {
		lines := strings.Split(strings.Trim(block, "\n"), "\n")
		timing := -1
		for i, line := range lines {
			if strings.Contains(line, "-->") {
				timing = i
				break
			}
		}
		if timing < 0 {
			continue
		}
		parts := strings.Split(lines[timing], "-->")
		if len(parts) != 2 {
			return nil, fmt.Errorf("cue %d: malformed timing line %q", len(cues)+1, lines[timing])
		}
		start, err := ParseTimestamp(parts[0])
		if err != nil {
			return nil, fmt.Errorf("cue %d: start: %w", len(cues)+1, err)
		}
		end, err := ParseTimestamp(parts[1])
		if err != nil {
			return nil, fmt.Errorf("cue %d: end: %w", len(cues)+1, err)
		}
		index := len(cues) + 1
		if timing > 0 {
			if n, err := strconv.Atoi(strings.TrimSpace(lines[timing-1])); err == nil {
				index = n
			}
		}
		cues = append(cues, Caption{
			Index: index,
			Start: start,
			End:   end,
			Text:  strings.Join(lines[timing+1:], "\n"),
		})
	}
	if cues == nil {
		cues = []Caption{}
	}
	return cues, nil
}
