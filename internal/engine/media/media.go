// Package media implements the search pipelines that turn a validated
// request into normalized content items: resolve identifiers against the
// source registry, fan out one fetch per identifier, merge in identifier
// order, and cache the merged result as one unit.
package media

import (
	"context"

	"indiewatch/internal/engine"
	"indiewatch/internal/engine/sources"
	"indiewatch/internal/registry"
)

// VideoFetcher fetches channel videos and transcripts.
type VideoFetcher interface {
	ChannelVideos(ctx context.Context, channel string, q sources.ChannelQuery) ([]engine.Video, error)
	Transcript(ctx context.Context, videoID string) (string, error)
}

// PostFetcher runs microblog timeline searches.
type PostFetcher interface {
	SearchLatest(ctx context.Context, query string, limit int) ([]engine.Post, error)
}

// ArticleFetcher fetches newsletter publication posts.
type ArticleFetcher interface {
	Posts(ctx context.Context, publication string, q sources.PublicationQuery) ([]engine.Article, error)
}

// Pipelines binds the registry, the shared cache and the upstream fetchers.
type Pipelines struct {
	Registry *registry.Registry
	Cache    *engine.Cache
	Videos   VideoFetcher
	Posts    PostFetcher
	Articles ArticleFetcher
}

// resolve maps a request's identifiers to canonical platform handles, or
// ranks registry sources by topic when no identifiers were given. A short or
// empty result is partial resolution, never an error by itself.
func (p *Pipelines) resolve(ctx context.Context, platform registry.Platform, req SearchRequest) ([]string, error) {
	if len(req.Identifiers) > 0 {
		return p.Registry.Resolve(platform, req.Identifiers), nil
	}

	matched, err := p.Registry.ResolveByTopic(ctx, req.Query, platform, req.MaxSources)
	if err != nil {
		return nil, err
	}
	handles := make([]string, 0, len(matched))
	for _, s := range matched {
		handles = append(handles, s.Handle(platform))
	}
	return handles, nil
}
