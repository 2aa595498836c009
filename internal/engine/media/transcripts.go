package media

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"indiewatch/internal/engine"
)

// Transcripts extracts transcripts for an explicit list of video IDs. A
// failed extraction yields an entry with empty text rather than dropping the
// ID, so output positions always line up with input positions.
func (p *Pipelines) Transcripts(ctx context.Context, ids []string) ([]engine.VideoTranscript, error) {
	if len(ids) == 0 {
		return nil, engine.InvalidRequestf("at least one video id must be provided")
	}

	key := engine.CacheKey("transcripts", strings.Join(ids, ","))
	return engine.GetOrCompute(ctx, p.Cache, key, engine.Cfg.CacheTTL,
		func(ctx context.Context) ([]engine.VideoTranscript, error) {
			out := make([]engine.VideoTranscript, len(ids))
			var wg sync.WaitGroup
			for i, id := range ids {
				wg.Add(1)
				go func(i int, id string) {
					defer wg.Done()
					text, err := p.Videos.Transcript(ctx, id)
					if err != nil {
						engine.IncrFetchError()
						slog.Warn("transcript extraction failed", slog.String("id", id), slog.Any("err", err))
						text = ""
					}
					max := engine.Cfg.MaxTranscriptChars
					if max > 0 {
						text = engine.TruncateRunes(text, max, "...")
					}
					out[i] = engine.VideoTranscript{ID: id, Text: text}
				}(i, id)
			}
			wg.Wait()
			return out, nil
		})
}
