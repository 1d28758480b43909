package captions

import (
	"fmt"
	"math"
)

// TimingMismatch is a cue position where two caption lists disagree on
// timing. A nil side means that list has no cue at Position.
type TimingMismatch struct {
	Position int
	Want     *Caption
	Got      *Caption
}

func (m TimingMismatch) String() string {
	switch {
	case m.Want == nil:
		return fmt.Sprintf("cue %d: unexpected %s --> %s", m.Position,
			FormatTimestamp(m.Got.Start), FormatTimestamp(m.Got.End))
	case m.Got == nil:
		return fmt.Sprintf("cue %d: missing %s --> %s", m.Position,
			FormatTimestamp(m.Want.Start), FormatTimestamp(m.Want.End))
	}
	return fmt.Sprintf("cue %d: %s --> %s, got %s --> %s", m.Position,
		FormatTimestamp(m.Want.Start), FormatTimestamp(m.Want.End),
		FormatTimestamp(m.Got.Start), FormatTimestamp(m.Got.End))
}

// CompareTimings reports every position where got differs from want in start
// or end time at millisecond resolution. Extra or missing cues are reported
// too. Positions are 1-based.
func CompareTimings(want, got []Caption) []TimingMismatch {
	var out []TimingMismatch
	n := max(len(want), len(got))
	for i := 0; i < n; i++ {
		m := TimingMismatch{Position: i + 1}
		if i < len(want) {
			m.Want = &want[i]
		}
		if i < len(got) {
			m.Got = &got[i]
		}
		if m.Want != nil && m.Got != nil &&
			millis(m.Want.Start) == millis(m.Got.Start) &&
			millis(m.Want.End) == millis(m.Got.End) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// millis truncates seconds to whole milliseconds the way FormatTimestamp
// does, tolerating float error left over from parsing.
func millis(seconds float64) int64 {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return 0
	}
	whole := int64(math.Floor(seconds))
	frac := int64(math.Floor(math.Mod(seconds, 1)*1000 + 1e-6))
	return whole*1000 + frac
}
