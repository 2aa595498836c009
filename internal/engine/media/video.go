package media

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"indiewatch/internal/engine"
	"indiewatch/internal/engine/sources"
	"indiewatch/internal/registry"
)

// VideoSearch runs the video pipeline: resolve channels, fetch each
// channel's matching videos concurrently, merge in channel order, trim to
// the char budget. The merged result is cached as one unit.
func (p *Pipelines) VideoSearch(ctx context.Context, req SearchRequest) ([]engine.Video, error) {
	since, err := req.validateWindow(time.Now())
	if err != nil {
		return nil, err
	}

	return engine.GetOrCompute(ctx, p.Cache, req.cacheKey("video"), engine.Cfg.CacheTTL,
		func(ctx context.Context) ([]engine.Video, error) {
			return p.fetchVideos(ctx, req, since)
		})
}

func (p *Pipelines) fetchVideos(ctx context.Context, req SearchRequest, since time.Time) ([]engine.Video, error) {
	channels, err := p.resolve(ctx, registry.PlatformVideo, req)
	if err != nil {
		return nil, err
	}
	if len(channels) == 0 {
		slog.Info("video search: no channels resolved", slog.Any("identifiers", req.Identifiers))
		return []engine.Video{}, nil
	}

	q := sources.ChannelQuery{
		Query:            req.Query,
		Since:            since,
		Until:            req.EndDate,
		MaxVideos:        req.MaxPerIdentifier,
		WithDescriptions: req.WithDescriptions,
		WithTranscripts:  req.WithTranscripts,
	}

	lists := make([][]engine.Video, len(channels))
	errs := make([]error, len(channels))
	var wg sync.WaitGroup
	for i, channel := range channels {
		wg.Add(1)
		go func(i int, channel string) {
			defer wg.Done()
			lists[i], errs[i] = p.Videos.ChannelVideos(ctx, channel, q)
		}(i, channel)
	}
	wg.Wait()

	var out []engine.Video
	for i, list := range lists {
		if err := errs[i]; err != nil {
			var authErr *engine.UpstreamAuthError
			if errors.As(err, &authErr) {
				return nil, err
			}
			engine.IncrFetchError()
			slog.Warn("video search: channel fetch failed",
				slog.String("channel", channels[i]), slog.Any("err", err))
			continue
		}
		if req.Query == "" {
			sortByFreshness(list)
		}
		out = append(out, list...)
	}
	return engine.TrimToBudget(out, req.CharBudget), nil
}

// sortByFreshness orders one channel's videos newest-first by their relative
// publish time. Used only in query-less mode: a queried search already
// carries upstream relevance order, which is preserved.
func sortByFreshness(videos []engine.Video) {
	now := time.Now()
	sort.SliceStable(videos, func(i, j int) bool {
		ti, _ := engine.ParseRelativeTime(videos[i].PublishTime, now)
		tj, _ := engine.ParseRelativeTime(videos[j].PublishTime, now)
		return ti.After(tj)
	})
}
