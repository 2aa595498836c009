package engine

import (
	"errors"
	"testing"
	"time"
)

func TestParseRelativeTime(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		in   string
		want time.Duration // expected age relative to now
		ok   bool
	}{
		{"2 hours ago", 2 * time.Hour, true},
		{"1 hour ago", time.Hour, true},
		{"45 minutes ago", 45 * time.Minute, true},
		{"30 seconds ago", 30 * time.Second, true},
		{"1 day ago", 24 * time.Hour, true},
		{"3 weeks ago", 3 * 7 * 24 * time.Hour, true},
		{"2 months ago", 2 * 30 * 24 * time.Hour, true},
		{"1 year ago", 365 * 24 * time.Hour, true},
		{"Streamed 1 day ago", 24 * time.Hour, true},
		{"Premiered 2 hours ago", 2 * time.Hour, true},
		{"  2 hours ago  ", 2 * time.Hour, true},
		{"2 HOURS AGO", 2 * time.Hour, true},
		{"yesterday", 0, false},
		{"in 2 hours", 0, false},
		{"", 0, false},
		{"2 fortnights ago", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseRelativeTime(tt.in, now)
		if ok != tt.ok {
			t.Errorf("ParseRelativeTime(%q): ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if !ok {
			continue
		}
		if want := now.Add(-tt.want); !got.Equal(want) {
			t.Errorf("ParseRelativeTime(%q) = %v, want %v", tt.in, got, want)
		}
	}
}

func TestParseRelativeTimeOrdering(t *testing.T) {
	now := time.Now()
	newer, _ := ParseRelativeTime("2 hours ago", now)
	older, _ := ParseRelativeTime("1 day ago", now)
	if !newer.After(older) {
		t.Error("2 hours ago should be newer than 1 day ago")
	}
}

func TestSinceDate(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("window ends now", func(t *testing.T) {
		got, err := SinceDate(3, "", now)
		if err != nil {
			t.Fatal(err)
		}
		if want := now.AddDate(0, 0, -3); !got.Equal(want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("explicit end date", func(t *testing.T) {
		got, err := SinceDate(7, "2025-06-10", now)
		if err != nil {
			t.Fatal(err)
		}
		if want := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("malformed end date", func(t *testing.T) {
		_, err := SinceDate(3, "06/10/2025", now)
		var invalid *InvalidRequestError
		if !errors.As(err, &invalid) {
			t.Errorf("expected InvalidRequestError, got %v", err)
		}
	})
}
