package sources

import (
	"testing"
	"time"
)

func TestSearchParam(t *testing.T) {
	since := time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		q    ChannelQuery
		want string
	}{
		{
			name: "query with window",
			q:    ChannelQuery{Query: "election", Since: since, Until: "2025-06-15"},
			want: "election before:2025-06-15 after:2025-06-12",
		},
		{
			name: "no query",
			q:    ChannelQuery{Since: since},
			want: "after:2025-06-12",
		},
		{
			name: "no until",
			q:    ChannelQuery{Query: "gaza", Since: since},
			want: "gaza after:2025-06-12",
		},
		{
			name: "empty",
			q:    ChannelQuery{},
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := searchParam(tt.q); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"flat", `{"a":1};var x`, `{"a":1}`},
		{"nested", `{"a":{"b":{"c":3}}} trailing`, `{"a":{"b":{"c":3}}}`},
		{"braces in strings", `{"a":"}{","b":2};`, `{"a":"}{","b":2}`},
		{"escaped quotes", `{"a":"say \"}\" ok"};`, `{"a":"say \"}\" ok"}`},
		{"unterminated", `{"a":1`, ""},
		{"not an object", `[1,2,3]`, ""},
		{"empty", ``, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractJSON([]byte(tt.in))
			if string(got) != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

const channelSearchFixture = `<!DOCTYPE html><html><head><script>
var ytInitialData = {"contents":{"sectionList":{"items":[
{"videoRenderer":{
  "videoId":"abc123",
  "title":{"runs":[{"text":"Election special"}]},
  "descriptionSnippet":{"runs":[{"text":"Part one. "},{"text":"Part two."}]},
  "longBylineText":{"runs":[{"text":"Alpha News"}]},
  "lengthText":{"simpleText":"12:34"},
  "viewCountText":{"simpleText":"10,001 views"},
  "publishedTimeText":{"simpleText":"2 hours ago"},
  "navigationEndpoint":{"commandMetadata":{"webCommandMetadata":{"url":"/watch?v=abc123"}}}
}},
{"videoRenderer":{
  "videoId":"def456",
  "title":{"runs":[{"text":"Streamed town hall"}]},
  "ownerText":{"runs":[{"text":"Alpha News"}]},
  "publishedTimeText":{"simpleText":"Streamed 1 day ago"}
}},
{"videoRenderer":{
  "videoId":"ghi789",
  "title":{"runs":[{"text":"Third video"}]}
}}
]}}};</script></head><body></body></html>`

func TestParseChannelSearch(t *testing.T) {
	videos, err := parseChannelSearch([]byte(channelSearchFixture), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(videos) != 3 {
		t.Fatalf("expected 3 videos, got %d", len(videos))
	}

	v := videos[0]
	if v.ID != "abc123" {
		t.Errorf("id = %q", v.ID)
	}
	if v.Title != "Election special" {
		t.Errorf("title = %q", v.Title)
	}
	if v.ShortDesc != "Part one. Part two." {
		t.Errorf("short desc runs not joined: %q", v.ShortDesc)
	}
	if v.Channel != "Alpha News" {
		t.Errorf("channel = %q", v.Channel)
	}
	if v.Duration != "12:34" || v.Views != "10,001 views" {
		t.Errorf("duration/views = %q/%q", v.Duration, v.Views)
	}
	if v.PublishTime != "2 hours ago" {
		t.Errorf("publish time = %q", v.PublishTime)
	}
	if v.URLSuffix != "/watch?v=abc123" {
		t.Errorf("url suffix = %q", v.URLSuffix)
	}

	// ownerText is the fallback channel field.
	if videos[1].Channel != "Alpha News" {
		t.Errorf("ownerText fallback: %q", videos[1].Channel)
	}
}

func TestParseChannelSearchLimit(t *testing.T) {
	videos, err := parseChannelSearch([]byte(channelSearchFixture), 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(videos) != 2 {
		t.Errorf("limit not applied: %d videos", len(videos))
	}
	if videos[0].ID != "abc123" || videos[1].ID != "def456" {
		t.Errorf("document order lost: %s, %s", videos[0].ID, videos[1].ID)
	}
}

func TestParseChannelSearchNoMarker(t *testing.T) {
	if _, err := parseChannelSearch([]byte("<html>consent wall</html>"), 5); err == nil {
		t.Error("expected error for page without ytInitialData")
	}
}

func TestExtractLongDescription(t *testing.T) {
	data := []byte(`{"contents":[{"videoSecondaryInfoRenderer":{"attributedDescription":{"content":"Full description text."}}}]}`)
	got, err := extractLongDescription(data)
	if err != nil {
		t.Fatal(err)
	}
	if got != "Full description text." {
		t.Errorf("got %q", got)
	}

	if _, err := extractLongDescription([]byte(`{"contents":[]}`)); err == nil {
		t.Error("expected error when no description present")
	}
}

func TestPickBestTrack(t *testing.T) {
	manual := captionTrack{BaseURL: "https://yt/t1", LanguageCode: "en"}
	auto := captionTrack{BaseURL: "https://yt/t2", LanguageCode: "en", Kind: "asr"}
	german := captionTrack{BaseURL: "https://yt/t3", LanguageCode: "de"}
	gated := captionTrack{BaseURL: "https://yt/t4?a=1&exp=xpe", LanguageCode: "en"}

	t.Run("manual beats auto-generated", func(t *testing.T) {
		got := pickBestTrack([]captionTrack{auto, manual}, transcriptLangs)
		if got.BaseURL != manual.BaseURL {
			t.Errorf("got %q", got.BaseURL)
		}
	})

	t.Run("auto-generated beats other language", func(t *testing.T) {
		got := pickBestTrack([]captionTrack{german, auto}, transcriptLangs)
		if got.BaseURL != auto.BaseURL {
			t.Errorf("got %q", got.BaseURL)
		}
	})

	t.Run("gated track skipped when alternative exists", func(t *testing.T) {
		got := pickBestTrack([]captionTrack{gated, auto}, transcriptLangs)
		if got.BaseURL != auto.BaseURL {
			t.Errorf("got %q", got.BaseURL)
		}
	})

	t.Run("gated track used as last resort", func(t *testing.T) {
		got := pickBestTrack([]captionTrack{gated}, transcriptLangs)
		if got.BaseURL != gated.BaseURL {
			t.Errorf("got %q", got.BaseURL)
		}
	})

	t.Run("first track as fallback", func(t *testing.T) {
		got := pickBestTrack([]captionTrack{german}, transcriptLangs)
		if got.BaseURL != german.BaseURL {
			t.Errorf("got %q", got.BaseURL)
		}
	})
}

func TestRenderTimedText(t *testing.T) {
	xmlBody := []byte(`<?xml version="1.0" encoding="utf-8"?>
<transcript>
  <text start="0.08" dur="3.2">we begin tonight</text>
  <text start="3.36" dur="2.8">with &amp;quot;breaking&amp;quot; news</text>
  <text start="6.5" dur="1.0"> </text>
  <text start="12.9" dur="4.1">in the region</text>
</transcript>`)

	got, err := renderTimedText(xmlBody)
	if err != nil {
		t.Fatal(err)
	}
	want := `[0s] we begin tonight [3s] with &quot;breaking&quot; news [12s] in the region`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestWholeSeconds(t *testing.T) {
	tests := []struct{ in, want string }{
		{"12.345", "12"},
		{"0.08", "0"},
		{"7", "7"},
		{" 3.0 ", "3"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := wholeSeconds(tt.in); got != tt.want {
			t.Errorf("wholeSeconds(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
