package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"indiewatch/internal/engine"
)

// Channel-scoped YouTube search. Each channel's /search tab embeds its
// results as ytInitialData JSON in the page HTML; there is no public API for
// "search within channel", so the page is scraped directly.

// ChannelQuery is one channel fetch: optional free-text query, search window,
// per-channel cap, and enrichment flags.
type ChannelQuery struct {
	Query            string
	Since            time.Time
	Until            string // explicit end date YYYY-MM-DD, "" = window ends now
	MaxVideos        int
	WithDescriptions bool
	WithTranscripts  bool
}

// YouTube fetches videos and transcripts from youtube.com.
type YouTube struct{}

func NewYouTube() *YouTube { return &YouTube{} }

// searchParam builds the channel search box content. YouTube honors the
// before:/after: date operators inside the query string.
func searchParam(q ChannelQuery) string {
	var parts []string
	if q.Query != "" {
		parts = append(parts, q.Query)
	}
	if q.Until != "" {
		parts = append(parts, "before:"+q.Until)
	}
	if !q.Since.IsZero() {
		parts = append(parts, "after:"+q.Since.Format("2006-01-02"))
	}
	return strings.Join(parts, " ")
}

// ChannelVideos fetches up to q.MaxVideos videos from one channel's search
// tab, normalized and optionally enriched with long descriptions and
// transcripts. Enrichment failures degrade to absent payload, never to a
// fetch error.
func (y *YouTube) ChannelVideos(ctx context.Context, channel string, q ChannelQuery) ([]engine.Video, error) {
	engine.IncrVideoSearch()

	handle := "@" + strings.TrimPrefix(strings.ToLower(strings.TrimSpace(channel)), "@")
	pageURL := "https://www.youtube.com/" + handle + "/search?hl=en&query=" + url.QueryEscape(searchParam(q))

	body, err := fetchYouTubePage(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("channel %s: %w", handle, err)
	}

	videos, err := parseChannelSearch(body, q.MaxVideos)
	if err != nil {
		return nil, fmt.Errorf("channel %s: %w", handle, err)
	}
	for i := range videos {
		if videos[i].Channel == "" {
			videos[i].Channel = handle
		}
	}

	for i := range videos {
		if q.WithDescriptions {
			desc, err := y.longDescription(ctx, videos[i].ID)
			if err != nil {
				slog.Warn("youtube: long description failed",
					slog.String("id", videos[i].ID), slog.Any("err", err))
			} else {
				videos[i].LongDesc = desc
			}
		}
		if q.WithTranscripts {
			transcript, err := y.Transcript(ctx, videos[i].ID)
			if err != nil {
				slog.Debug("youtube: transcript failed",
					slog.String("id", videos[i].ID), slog.Any("err", err))
				continue
			}
			if max := engine.Cfg.MaxTranscriptChars; max > 0 {
				transcript = engine.TruncateRunes(transcript, max, "...")
			}
			videos[i].Transcript = transcript
		}
	}
	return videos, nil
}

// fetchYouTubePage GETs a youtube.com page with the consent cookie set,
// preferring the Chrome-fingerprint client when configured.
func fetchYouTubePage(ctx context.Context, pageURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, engine.Cfg.FetchTimeout)
	defer cancel()

	if engine.Cfg.BrowserClient != nil {
		headers := engine.ChromeHeaders()
		headers["accept-language"] = "en-US,en;q=0.9"
		headers["cookie"] = ytConsentCookie
		return engine.RetryDo(ctx, engine.DefaultRetryConfig, func() ([]byte, error) {
			data, _, status, err := engine.Cfg.BrowserClient.Do("GET", pageURL, headers, nil)
			if err != nil {
				return nil, err
			}
			if status != http.StatusOK {
				return nil, fmt.Errorf("status %d", status)
			}
			return data, nil
		})
	}

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.RandomUserAgent())
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		req.Header.Set("Cookie", ytConsentCookie)
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		engine.IncrFetchError()
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		engine.IncrFetchError()
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 6*1024*1024))
}

// --- ytInitialData parsing ---

type ytRuns struct {
	Runs []struct {
		Text string `json:"text"`
	} `json:"runs"`
}

func (r ytRuns) first() string {
	if len(r.Runs) == 0 {
		return ""
	}
	return r.Runs[0].Text
}

func (r ytRuns) join() string {
	var sb strings.Builder
	for _, run := range r.Runs {
		sb.WriteString(run.Text)
	}
	return sb.String()
}

type ytSimpleText struct {
	SimpleText string `json:"simpleText"`
}

type ytVideoRenderer struct {
	VideoID            string       `json:"videoId"`
	Title              ytRuns       `json:"title"`
	DescriptionSnippet ytRuns       `json:"descriptionSnippet"`
	LongBylineText     ytRuns       `json:"longBylineText"`
	OwnerText          ytRuns       `json:"ownerText"`
	LengthText         ytSimpleText `json:"lengthText"`
	ViewCountText      ytSimpleText `json:"viewCountText"`
	PublishedTimeText  ytSimpleText `json:"publishedTimeText"`
	NavigationEndpoint struct {
		CommandMetadata struct {
			WebCommandMetadata struct {
				URL string `json:"url"`
			} `json:"webCommandMetadata"`
		} `json:"commandMetadata"`
	} `json:"navigationEndpoint"`
}

// parseChannelSearch extracts up to max videos from a channel search page.
// The renderer walk is recursive rather than path-addressed: YouTube reshuffles
// the wrapping renderer hierarchy regularly, videoRenderer entries less so.
func parseChannelSearch(body []byte, max int) ([]engine.Video, error) {
	idx := strings.Index(string(body), ytInitialDataMarker)
	if idx < 0 {
		return nil, fmt.Errorf("ytInitialData not found in channel page")
	}
	data := extractJSON(body[idx+len(ytInitialDataMarker):])
	if data == nil {
		return nil, fmt.Errorf("failed to extract ytInitialData JSON")
	}
	return collectVideoRenderers(data, max), nil
}

// collectVideoRenderers walks arbitrary ytInitialData JSON for videoRenderer
// entries, in document order, stopping at limit.
func collectVideoRenderers(data []byte, limit int) []engine.Video {
	var results []engine.Video
	var walk func(v json.RawMessage)
	walk = func(v json.RawMessage) {
		if limit > 0 && len(results) >= limit {
			return
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(v, &obj); err == nil {
			if raw, ok := obj["videoRenderer"]; ok {
				var vr ytVideoRenderer
				if err := json.Unmarshal(raw, &vr); err == nil && vr.VideoID != "" {
					channel := vr.LongBylineText.first()
					if channel == "" {
						channel = vr.OwnerText.first()
					}
					results = append(results, engine.Video{
						ID:          vr.VideoID,
						Title:       vr.Title.first(),
						ShortDesc:   vr.DescriptionSnippet.join(),
						Channel:     channel,
						Duration:    vr.LengthText.SimpleText,
						Views:       vr.ViewCountText.SimpleText,
						PublishTime: vr.PublishedTimeText.SimpleText,
						URLSuffix:   vr.NavigationEndpoint.CommandMetadata.WebCommandMetadata.URL,
					})
					return
				}
			}
			for _, child := range obj {
				if limit > 0 && len(results) >= limit {
					return
				}
				walk(child)
			}
			return
		}
		var arr []json.RawMessage
		if err := json.Unmarshal(v, &arr); err == nil {
			for _, item := range arr {
				if limit > 0 && len(results) >= limit {
					return
				}
				walk(item)
			}
		}
	}
	walk(data)
	return results
}

// --- long description enrichment ---

type ytSecondaryInfo struct {
	AttributedDescription struct {
		Content string `json:"content"`
	} `json:"attributedDescription"`
}

// longDescription scrapes the watch page for the full video description.
func (y *YouTube) longDescription(ctx context.Context, videoID string) (string, error) {
	body, err := fetchYouTubePage(ctx, "https://www.youtube.com/watch?v="+videoID)
	if err != nil {
		return "", err
	}
	idx := strings.Index(string(body), ytInitialDataMarker)
	if idx < 0 {
		return "", fmt.Errorf("ytInitialData not found in watch page")
	}
	data := extractJSON(body[idx+len(ytInitialDataMarker):])
	if data == nil {
		return "", fmt.Errorf("failed to extract ytInitialData JSON")
	}
	return extractLongDescription(data)
}

// extractLongDescription walks watch-page JSON for the
// videoSecondaryInfoRenderer's attributed description.
func extractLongDescription(data []byte) (string, error) {
	var found string
	var walk func(v json.RawMessage)
	walk = func(v json.RawMessage) {
		if found != "" {
			return
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(v, &obj); err == nil {
			if raw, ok := obj["videoSecondaryInfoRenderer"]; ok {
				var si ytSecondaryInfo
				if err := json.Unmarshal(raw, &si); err == nil && si.AttributedDescription.Content != "" {
					found = si.AttributedDescription.Content
					return
				}
			}
			for _, child := range obj {
				if found != "" {
					return
				}
				walk(child)
			}
			return
		}
		var arr []json.RawMessage
		if err := json.Unmarshal(v, &arr); err == nil {
			for _, item := range arr {
				if found != "" {
					return
				}
				walk(item)
			}
		}
	}
	walk(data)
	if found == "" {
		return "", fmt.Errorf("description not present in watch page")
	}
	return found, nil
}
