package captions

// PreviewCue is the display form of a caption for interactive editors.
type PreviewCue struct {
	ID    int    `json:"id"`
	Start string `json:"start"`
	End   string `json:"end"`
	Text  string `json:"text"`
}

// Preview converts captions to display cues with HH:MM:SS boundaries.
func Preview(cues []Caption) []PreviewCue {
	out := make([]PreviewCue, len(cues))
	for i, cue := range cues {
		out[i] = PreviewCue{
			ID:    cue.Index,
			Start: FormatClock(cue.Start),
			End:   FormatClock(cue.End),
			Text:  cue.Text,
		}
	}
	return out
}

// WordCount reports how many whitespace-separated words each caption holds.
func WordCount(cue Caption) int {
	count := 0
	inWord := false
	for _, r := range cue.Text {
		if r == ' ' || r == '\n' || r == '\t' {
			inWord = false
			continue
		}
		if !inWord {
			count++
			inWord = true
		}
	}
	return count
}
