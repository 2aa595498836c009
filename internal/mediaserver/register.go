// Package mediaserver exposes the search pipelines as MCP tools for use by
// agent clients, alongside the HTTP query surface.
package mediaserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"indiewatch/internal/engine"
	"indiewatch/internal/engine/media"
	"indiewatch/internal/registry"
)

// MediaSearchInput selects curated sources by topic.
type MediaSearchInput struct {
	Query string `json:"query" jsonschema:"Free-text topic used to rank curated independent-media sources (e.g. middle east, climate)"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of sources to return (default 5)"`
}

type MediaSearchOutput struct {
	Sources []registry.Source `json:"sources"`
}

// VideoSearchInput runs a channel-scoped video search.
type VideoSearchInput struct {
	Channels        string `json:"channels,omitempty" jsonschema:"Comma-separated YouTube channel handles (e.g. @DemocracyNow,@aljazeeraenglish); empty = pick channels by query"`
	Query           string `json:"query,omitempty" jsonschema:"Free-text search query within the channels"`
	PeriodDays      int    `json:"period_days,omitempty" jsonschema:"Search window in days before end_date or now (default 3)"`
	EndDate         string `json:"end_date,omitempty" jsonschema:"Window end date in YYYY-MM-DD format, empty = today"`
	MaxPerChannel   int    `json:"max_videos_per_channel,omitempty" jsonschema:"Maximum videos per channel (default 3)"`
	GetTranscripts  bool   `json:"get_transcripts,omitempty" jsonschema:"Fetch full transcripts for each video"`
	GetDescriptions bool   `json:"get_descriptions,omitempty" jsonschema:"Fetch long descriptions for each video"`
	CharCap         int    `json:"char_cap,omitempty" jsonschema:"Total character budget for the response, 0 = unlimited"`
}

type VideoSearchOutput struct {
	Videos []engine.Video `json:"videos"`
}

// PostSearchInput runs a microblog timeline search.
type PostSearchInput struct {
	Users      string `json:"users,omitempty" jsonschema:"Comma-separated X user handles; empty = pick users by query"`
	Query      string `json:"query,omitempty" jsonschema:"Free-text search query"`
	PeriodDays int    `json:"period_days,omitempty" jsonschema:"Search window in days before end_date or now (default 3)"`
	EndDate    string `json:"end_date,omitempty" jsonschema:"Window end date in YYYY-MM-DD format, empty = today"`
	MaxPerUser int    `json:"max_tweets_per_user,omitempty" jsonschema:"Maximum posts per user (default 20)"`
	MaxUsers   int    `json:"max_users,omitempty" jsonschema:"Maximum users to pick when resolving by query (default 20)"`
}

type PostSearchOutput struct {
	Posts []engine.Post `json:"posts"`
}

// ArticleSearchInput fetches newsletter posts.
type ArticleSearchInput struct {
	Publications string `json:"publications,omitempty" jsonschema:"Comma-separated Substack publication slugs; empty = pick publications by query"`
	Query        string `json:"query,omitempty" jsonschema:"Free-text search query within the publications"`
	MaxPerPub    int    `json:"max_posts_per_publication,omitempty" jsonschema:"Maximum posts per publication (default 10)"`
	GetContent   bool   `json:"get_content,omitempty" jsonschema:"Fetch full article bodies as markdown"`
	CharCap      int    `json:"char_cap,omitempty" jsonschema:"Total character budget for the response, 0 = unlimited"`
}

type ArticleSearchOutput struct {
	Articles []engine.Article `json:"articles"`
}

// RegisterTools registers the media search tools on the given MCP server:
// media_search, video_search, post_search, article_search.
func RegisterTools(server *mcp.Server, p *media.Pipelines, reg *registry.Registry) {
	registerMediaSearch(server, reg)
	registerVideoSearch(server, p)
	registerPostSearch(server, p)
	registerArticleSearch(server, p)
}

func registerMediaSearch(server *mcp.Server, reg *registry.Registry) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "media_search",
		Description: "Rank curated independent-media sources against a free-text topic. Returns source records with platform handles (YouTube, X, Substack), bias and credibility ratings.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input MediaSearchInput) (*mcp.CallToolResult, MediaSearchOutput, error) {
		if input.Query == "" {
			return nil, MediaSearchOutput{}, engine.InvalidRequestf("query is required")
		}
		limit := input.Limit
		if limit <= 0 {
			limit = 5
		}
		sources, err := reg.TopicSources(ctx, input.Query, limit)
		if err != nil {
			return nil, MediaSearchOutput{}, err
		}
		return nil, MediaSearchOutput{Sources: sources}, nil
	})
}

func registerVideoSearch(server *mcp.Server, p *media.Pipelines) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_search",
		Description: "Search recent videos within curated independent-media YouTube channels, optionally with full transcripts. Channels may be named explicitly or picked by topic.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input VideoSearchInput) (*mcp.CallToolResult, VideoSearchOutput, error) {
		videos, err := p.VideoSearch(ctx, media.SearchRequest{
			Identifiers:      media.SplitList(input.Channels),
			Query:            input.Query,
			PeriodDays:       orDefault(input.PeriodDays, 3),
			EndDate:          input.EndDate,
			MaxSources:       5,
			MaxPerIdentifier: orDefault(input.MaxPerChannel, 3),
			WithDescriptions: input.GetDescriptions,
			WithTranscripts:  input.GetTranscripts,
			CharBudget:       input.CharCap,
		})
		if err != nil {
			return nil, VideoSearchOutput{}, err
		}
		return nil, VideoSearchOutput{Videos: videos}, nil
	})
}

func registerPostSearch(server *mcp.Server, p *media.Pipelines) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "post_search",
		Description: "Search recent X posts from curated independent-media accounts, newest first. Users may be named explicitly or picked by topic.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input PostSearchInput) (*mcp.CallToolResult, PostSearchOutput, error) {
		posts, err := p.PostSearch(ctx, media.SearchRequest{
			Identifiers:      media.SplitList(input.Users),
			Query:            input.Query,
			PeriodDays:       orDefault(input.PeriodDays, 3),
			EndDate:          input.EndDate,
			MaxSources:       orDefault(input.MaxUsers, 20),
			MaxPerIdentifier: orDefault(input.MaxPerUser, 20),
		})
		if err != nil {
			return nil, PostSearchOutput{}, err
		}
		return nil, PostSearchOutput{Posts: posts}, nil
	})
}

func registerArticleSearch(server *mcp.Server, p *media.Pipelines) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "article_search",
		Description: "Fetch recent posts from curated independent Substack publications, optionally with full article bodies as markdown.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input ArticleSearchInput) (*mcp.CallToolResult, ArticleSearchOutput, error) {
		articles, err := p.ArticleSearch(ctx, media.SearchRequest{
			Identifiers:      media.SplitList(input.Publications),
			Query:            input.Query,
			MaxSources:       5,
			MaxPerIdentifier: orDefault(input.MaxPerPub, 10),
			WithContent:      input.GetContent,
			CharBudget:       input.CharCap,
		})
		if err != nil {
			return nil, ArticleSearchOutput{}, err
		}
		return nil, ArticleSearchOutput{Articles: articles}, nil
	})
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
