package captions_test

import (
	"math"
	"testing"

	"captionize/internal/captions"
)

func TestFormatTimestamp(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00,000"},
		{3725.25, "01:02:05,250"},
		{2.5, "00:00:02,500"},
		{59.5, "00:00:59,500"},
		{1.9999, "00:00:01,999"},
		{3599.9995, "00:59:59,999"},
		{3600, "01:00:00,000"},
		{36000.125, "10:00:00,125"},
		{360000, "100:00:00,000"},
		{-4, "00:00:00,000"},
		{math.NaN(), "00:00:00,000"},
	}
	for _, tc := range cases {
		if got := captions.FormatTimestamp(tc.seconds); got != tc.want {
			t.Errorf("FormatTimestamp(%v) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestFormatClockTruncates(t *testing.T) {
	cases := map[float64]string{
		0:       "00:00:00",
		59.99:   "00:00:59",
		3725.25: "01:02:05",
	}
	for seconds, want := range cases {
		if got := captions.FormatClock(seconds); got != want {
			t.Errorf("FormatClock(%v) = %q, want %q", seconds, got, want)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	got, err := captions.ParseTimestamp("01:02:05,250")
	if err != nil {
		t.Fatalf("ParseTimestamp returned error: %v", err)
	}
	if got != 3725.25 {
		t.Fatalf("expected 3725.25, got %v", got)
	}
	if got, err := captions.ParseTimestamp("00:00:01.500"); err != nil || got != 1.5 {
		t.Fatalf("expected period separator to parse, got %v err %v", got, err)
	}
	for _, bad := range []string{"", "00:01,000", "aa:bb:cc,ddd", "00:00:01"} {
		if _, err := captions.ParseTimestamp(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
