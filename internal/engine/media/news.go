package media

import (
	"context"

	"indiewatch/internal/engine"
)

// NewsRequest parameterizes a combined posts+videos search under one shared
// char budget.
type NewsRequest struct {
	Channels []string
	Users    []string
	Query    string

	PeriodDays int
	EndDate    string

	MaxChannels int
	MaxUsers    int

	MaxVideosPerChannel int
	MaxPostsPerUser     int

	CharBudget int
}

// NewsResult is the combined output: microblog posts first, then videos.
type NewsResult struct {
	Posts  []engine.Post  `json:"posts"`
	Videos []engine.Video `json:"videos"`
}

// NewsSearch fetches posts and videos in one call. The budget is allocated
// sequentially: posts are serialized first, and whatever remains bounds the
// video pipeline's trim. Videos carry transcripts so they dominate response
// size; posts never shrink to make room for them.
func (p *Pipelines) NewsSearch(ctx context.Context, req NewsRequest) (NewsResult, error) {
	if len(req.Channels) == 0 && len(req.Users) == 0 && req.Query == "" {
		return NewsResult{}, engine.InvalidRequestf("either channels, users or query must be provided")
	}

	posts := []engine.Post{}
	if len(req.Users) > 0 || req.Query != "" {
		var err error
		posts, err = p.PostSearch(ctx, SearchRequest{
			Identifiers:      req.Users,
			Query:            req.Query,
			PeriodDays:       req.PeriodDays,
			EndDate:          req.EndDate,
			MaxSources:       req.MaxUsers,
			MaxPerIdentifier: req.MaxPostsPerUser,
		})
		if err != nil {
			return NewsResult{}, err
		}
	}

	videoBudget := req.CharBudget
	if videoBudget > 0 {
		videoBudget -= engine.SerializedLen(posts)
		if videoBudget < 1 {
			// Posts alone exceed the budget: leave only payload-free videos.
			videoBudget = 1
		}
	}

	videos := []engine.Video{}
	if len(req.Channels) > 0 || req.Query != "" {
		var err error
		videos, err = p.VideoSearch(ctx, SearchRequest{
			Identifiers:      req.Channels,
			Query:            req.Query,
			PeriodDays:       req.PeriodDays,
			EndDate:          req.EndDate,
			MaxSources:       req.MaxChannels,
			MaxPerIdentifier: req.MaxVideosPerChannel,
			WithTranscripts:  true,
			CharBudget:       videoBudget,
		})
		if err != nil {
			return NewsResult{}, err
		}
	}

	return NewsResult{Posts: posts, Videos: videos}, nil
}
