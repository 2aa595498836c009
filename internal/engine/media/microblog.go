package media

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"indiewatch/internal/engine"
	"indiewatch/internal/registry"
)

// PostSearch runs the microblog pipeline. Unlike video and newsletter
// searches, all resolved users go into one combined upstream query
// (`since:... until:... (from:a OR from:b) terms`), so the per-user cap is
// applied after the fetch by grouping results in arrival order.
func (p *Pipelines) PostSearch(ctx context.Context, req SearchRequest) ([]engine.Post, error) {
	since, err := req.validateWindow(time.Now())
	if err != nil {
		return nil, err
	}

	return engine.GetOrCompute(ctx, p.Cache, req.cacheKey("microblog"), engine.Cfg.CacheTTL,
		func(ctx context.Context) ([]engine.Post, error) {
			return p.fetchPosts(ctx, req, since)
		})
}

func (p *Pipelines) fetchPosts(ctx context.Context, req SearchRequest, since time.Time) ([]engine.Post, error) {
	engine.IncrMicroblogSearch()

	users, err := p.resolve(ctx, registry.PlatformMicroblog, req)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 && req.Query == "" {
		slog.Info("microblog search: no users resolved", slog.Any("identifiers", req.Identifiers))
		return []engine.Post{}, nil
	}

	query := buildTimelineQuery(users, req.Query, since, req.EndDate)
	count := req.MaxPerIdentifier
	if len(users) > 0 {
		count = len(users) * req.MaxPerIdentifier
	}

	posts, err := p.Posts.SearchLatest(ctx, query, count)
	if err != nil {
		var authErr *engine.UpstreamAuthError
		if errors.As(err, &authErr) {
			return nil, err
		}
		engine.IncrFetchError()
		slog.Warn("microblog search failed", slog.String("query", query), slog.Any("err", err))
		return []engine.Post{}, nil
	}
	return capPerAuthor(posts, req.MaxPerIdentifier), nil
}

// buildTimelineQuery assembles the combined search string using the
// platform's since:/until:/from: operators.
func buildTimelineQuery(users []string, query string, since time.Time, endDate string) string {
	var parts []string
	parts = append(parts, "since:"+since.Format("2006-01-02"))
	if endDate != "" {
		parts = append(parts, "until:"+endDate)
	}
	if len(users) > 0 {
		froms := make([]string, len(users))
		for i, u := range users {
			froms[i] = "from:" + u
		}
		parts = append(parts, "("+strings.Join(froms, " OR ")+")")
	}
	if query != "" {
		parts = append(parts, query)
	}
	return strings.Join(parts, " ")
}

// capPerAuthor keeps at most max posts per author. Grouping preserves
// arrival order within each author; authors appear in first-seen order.
func capPerAuthor(posts []engine.Post, max int) []engine.Post {
	if max <= 0 {
		return posts
	}
	byAuthor := make(map[string][]engine.Post)
	var order []string
	for _, post := range posts {
		if _, ok := byAuthor[post.Author]; !ok {
			order = append(order, post.Author)
		}
		if len(byAuthor[post.Author]) >= max {
			continue
		}
		byAuthor[post.Author] = append(byAuthor[post.Author], post)
	}

	out := make([]engine.Post, 0, len(posts))
	for _, author := range order {
		out = append(out, byAuthor[author]...)
	}
	return out
}
