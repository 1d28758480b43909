package captions

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatTimestamp renders seconds as an SRT timestamp (HH:MM:SS,mmm). Every
// component is truncated, so 1.9999 renders as 00:00:01,999. Hours count the
// true elapsed hours and widen past two digits after 99. Negative and
// non-finite values render as zero.
func FormatTimestamp(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	hours := int64(math.Floor(seconds / 3600))
	minutes := int64(math.Floor(math.Mod(seconds, 3600) / 60))
	secs := int64(math.Floor(math.Mod(seconds, 60)))
	millis := int64(math.Floor(math.Mod(seconds, 1) * 1000))
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

// FormatClock renders seconds as HH:MM:SS with the fractional part dropped.
// It is the display form used for caption previews.
func FormatClock(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	total := int64(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// ParseTimestamp converts an SRT timestamp back to seconds. A period is
// accepted in place of the comma.
func ParseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	secs, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60+secs) + float64(millis)/1000, nil
}
