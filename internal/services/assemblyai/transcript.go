package assemblyai

import (
	"strings"

	"captionize/internal/captions"
)

// Provider transcript states.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

type uploadResponse struct {
	UploadURL string `json:"upload_url"`
}

type transcriptRequest struct {
	AudioURL string `json:"audio_url"`
}

// Word is a recognized word with millisecond timings as returned by the provider.
type Word struct {
	Text       string  `json:"text"`
	Start      int64   `json:"start"`
	End        int64   `json:"end"`
	Confidence float64 `json:"confidence"`
}

// Transcript is the subset of the provider transcript resource Captionize uses.
type Transcript struct {
	ID            string  `json:"id"`
	Status        string  `json:"status"`
	Text          string  `json:"text"`
	Error         string  `json:"error"`
	AudioDuration float64 `json:"audio_duration"`
	Words         []Word  `json:"words"`
}

// Failed reports whether the provider gave up on the transcript.
func (t *Transcript) Failed() bool {
	return t != nil && strings.EqualFold(t.Status, StatusError)
}

// Done reports whether the transcript reached a terminal state.
func (t *Transcript) Done() bool {
	if t == nil {
		return false
	}
	switch strings.ToLower(t.Status) {
	case StatusCompleted, StatusError:
		return true
	default:
		return false
	}
}

// Progress maps the provider state to a coarse completion percentage.
func (t *Transcript) Progress() int {
	if t == nil {
		return 0
	}
	switch strings.ToLower(t.Status) {
	case StatusQueued:
		return 10
	case StatusProcessing:
		return 50
	case StatusCompleted:
		return 100
	default:
		return 25
	}
}

// CaptionWords converts provider words to second-based caption words.
// Words with blank text are dropped.
func (t *Transcript) CaptionWords() []captions.Word {
	if t == nil {
		return nil
	}
	words := make([]captions.Word, 0, len(t.Words))
	for _, w := range t.Words {
		text := strings.TrimSpace(w.Text)
		if text == "" {
			continue
		}
		words = append(words, captions.Word{
			Text:       text,
			Start:      float64(w.Start) / 1000,
			End:        float64(w.End) / 1000,
			Confidence: w.Confidence,
		})
	}
	return words
}
