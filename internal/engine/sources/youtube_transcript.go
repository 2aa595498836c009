package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"indiewatch/internal/engine"
)

// YouTube transcript fetching.
// Primary:  watch-page ytInitialPlayerResponse → caption track XML
// Fallback: ANDROID Innertube /player → captionTracks
// Both paths end at the same timedtext XML, which carries per-segment start
// offsets used for the "[12s] text" timestamp prefixes.

// transcriptLangs is the caption language preference order.
var transcriptLangs = []string{"en", "en-US", "en-GB"}

// Transcript fetches a video's transcript as a single timestamped string.
func (y *YouTube) Transcript(ctx context.Context, videoID string) (string, error) {
	engine.IncrTranscript()

	if text, err := y.transcriptViaWatchPage(ctx, videoID); err == nil {
		return text, nil
	} else {
		slog.Debug("youtube: watch page captions failed, trying player",
			slog.String("id", videoID), slog.Any("err", err))
	}

	return y.transcriptViaPlayer(ctx, videoID)
}

// transcriptViaWatchPage scrapes the watch page and extracts the caption
// track URL from ytInitialPlayerResponse.
func (y *YouTube) transcriptViaWatchPage(ctx context.Context, videoID string) (string, error) {
	body, err := fetchYouTubePage(ctx, "https://www.youtube.com/watch?v="+videoID)
	if err != nil {
		return "", fmt.Errorf("watch page: %w", err)
	}

	idx := strings.Index(string(body), ytPlayerRespMarker)
	if idx < 0 {
		return "", errors.New("ytInitialPlayerResponse not found in watch page")
	}
	jsonData := extractJSON(body[idx+len(ytPlayerRespMarker):])
	if jsonData == nil {
		return "", errors.New("failed to extract ytInitialPlayerResponse JSON")
	}

	var playerResp innertubePlayerResp
	if err := json.Unmarshal(jsonData, &playerResp); err != nil {
		return "", fmt.Errorf("decode ytInitialPlayerResponse: %w", err)
	}
	return captionsFromPlayerResp(ctx, playerResp)
}

// transcriptViaPlayer uses the ANDROID Innertube /player endpoint, which
// serves caption tracks to requests that the web player refuses.
func (y *YouTube) transcriptViaPlayer(ctx context.Context, videoID string) (string, error) {
	reqBody, err := json.Marshal(innertubeReq{
		VideoID: videoID,
		Context: innertubeCtx{
			Client: innertubeClient{
				ClientName:        "ANDROID",
				ClientVersion:     ytAndroidVersion,
				AndroidSdkVersion: 30,
				Hl:                "en",
				Gl:                "US",
			},
		},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	})
	if err != nil {
		return "", err
	}

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, ytPlayerURL+"?prettyPrint=false", bytes.NewReader(reqBody))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", ytAndroidUA)
		req.Header.Set("X-Youtube-Client-Name", "3")
		req.Header.Set("X-Youtube-Client-Version", ytAndroidVersion)
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return "", fmt.Errorf("android innertube: %w", err)
	}
	defer resp.Body.Close()

	var playerResp innertubePlayerResp
	if err := json.NewDecoder(resp.Body).Decode(&playerResp); err != nil {
		return "", fmt.Errorf("decode player: %w", err)
	}
	return captionsFromPlayerResp(ctx, playerResp)
}

// captionsFromPlayerResp picks the best caption track and fetches its XML.
func captionsFromPlayerResp(ctx context.Context, playerResp innertubePlayerResp) (string, error) {
	if playerResp.Captions == nil {
		if ps := playerResp.PlayabilityStatus; ps != nil && ps.Reason != "" {
			return "", fmt.Errorf("captions unavailable: %s", ps.Reason)
		}
		return "", errors.New("no captions in player response")
	}
	tracks := playerResp.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(tracks) == 0 {
		return "", errors.New("no caption tracks")
	}
	return fetchTimedText(ctx, pickBestTrack(tracks, transcriptLangs).BaseURL)
}

// pickBestTrack prefers a manual track in a preferred language, then an
// auto-generated one, then any English track, then the first track.
// Tracks gated behind a PoToken experiment ("&exp=xpe") 403 without an
// attestation token, so they are skipped when alternatives exist.
func pickBestTrack(all []captionTrack, langs []string) captionTrack {
	tracks := make([]captionTrack, 0, len(all))
	for _, t := range all {
		if !strings.Contains(t.BaseURL, "&exp=xpe") {
			tracks = append(tracks, t)
		}
	}
	if len(tracks) == 0 {
		tracks = all
	}
	for _, lang := range langs {
		for _, t := range tracks {
			if t.LanguageCode == lang && t.Kind != "asr" {
				return t
			}
		}
	}
	for _, lang := range langs {
		for _, t := range tracks {
			if t.LanguageCode == lang {
				return t
			}
		}
	}
	for _, t := range tracks {
		if strings.HasPrefix(t.LanguageCode, "en") {
			return t
		}
	}
	return tracks[0]
}

// fetchTimedText fetches and renders a YouTube timedtext XML caption URL.
func fetchTimedText(ctx context.Context, baseURL string) (string, error) {
	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.UserAgentBot)
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return "", fmt.Errorf("fetch timedtext: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return "", err
	}
	return renderTimedText(body)
}

// renderTimedText joins caption lines into one string, prefixing each segment
// with its whole-second start offset: "[12s] we begin tonight with".
func renderTimedText(body []byte) (string, error) {
	var tt ytTimedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return "", fmt.Errorf("parse timedtext XML: %w", err)
	}

	var sb strings.Builder
	for _, line := range tt.Lines {
		text := engine.CleanHTML(line.Text)
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		if start := wholeSeconds(line.Start); start != "" {
			sb.WriteString("[" + start + "s] ")
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}

// wholeSeconds truncates a "12.345" start attribute to "12".
func wholeSeconds(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	return s
}
