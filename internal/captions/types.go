package captions

import (
	"fmt"
	"math"
)

// Word is a single timestamped token produced by a speech-to-text provider.
// Start and End are seconds from the beginning of the audio.
type Word struct {
	Text       string  `json:"text"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
}

// Caption is one numbered subtitle cue.
type Caption struct {
	Index int     `json:"index"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// InvalidInputError reports a malformed word in a segmentation request.
type InvalidInputError struct {
	Index  int
	Field  string
	Value  float64
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid word %d: %s %v: %s", e.Index, e.Field, e.Value, e.Reason)
}

// ErrorKind classifies the error for job failure reporting.
func (e *InvalidInputError) ErrorKind() string {
	return "validation"
}

// Validate checks that every word carries finite, non-negative timestamps and
// that no word ends before it starts. Confidence is not inspected.
func Validate(words []Word) error {
	for i, w := range words {
		if err := checkSeconds(i, "start", w.Start); err != nil {
			return err
		}
		if err := checkSeconds(i, "end", w.End); err != nil {
			return err
		}
		if w.End < w.Start {
			return &InvalidInputError{Index: i, Field: "end", Value: w.End, Reason: fmt.Sprintf("before start %v", w.Start)}
		}
	}
	return nil
}

func checkSeconds(index int, field string, value float64) error {
	switch {
	case math.IsNaN(value) || math.IsInf(value, 0):
		return &InvalidInputError{Index: index, Field: field, Value: value, Reason: "not finite"}
	case value < 0:
		return &InvalidInputError{Index: index, Field: field, Value: value, Reason: "negative"}
	}
	return nil
}
