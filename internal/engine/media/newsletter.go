package media

import (
	"context"
	"log/slog"
	"sync"

	"indiewatch/internal/engine"
	"indiewatch/internal/engine/sources"
	"indiewatch/internal/registry"
)

// ArticleSearch runs the newsletter pipeline. Publications change slowly, so
// results are cached under the longer newsletter TTL. There is no time
// window: the archive is walked newest-first up to the per-publication cap.
func (p *Pipelines) ArticleSearch(ctx context.Context, req SearchRequest) ([]engine.Article, error) {
	if err := req.validateTargets(); err != nil {
		return nil, err
	}

	return engine.GetOrCompute(ctx, p.Cache, req.cacheKey("newsletter"), engine.Cfg.NewsletterCacheTTL,
		func(ctx context.Context) ([]engine.Article, error) {
			return p.fetchArticles(ctx, req)
		})
}

func (p *Pipelines) fetchArticles(ctx context.Context, req SearchRequest) ([]engine.Article, error) {
	engine.IncrNewsletterSearch()

	publications, err := p.resolve(ctx, registry.PlatformNewsletter, req)
	if err != nil {
		return nil, err
	}
	if len(publications) == 0 {
		slog.Info("newsletter search: no publications resolved", slog.Any("identifiers", req.Identifiers))
		return []engine.Article{}, nil
	}

	q := sources.PublicationQuery{
		Query:       req.Query,
		MaxPosts:    req.MaxPerIdentifier,
		WithContent: req.WithContent,
	}

	lists := make([][]engine.Article, len(publications))
	errs := make([]error, len(publications))
	var wg sync.WaitGroup
	for i, pub := range publications {
		wg.Add(1)
		go func(i int, pub string) {
			defer wg.Done()
			lists[i], errs[i] = p.Articles.Posts(ctx, pub, q)
		}(i, pub)
	}
	wg.Wait()

	var out []engine.Article
	for i, list := range lists {
		if errs[i] != nil {
			engine.IncrFetchError()
			slog.Warn("newsletter search: publication fetch failed",
				slog.String("publication", publications[i]), slog.Any("err", errs[i]))
			continue
		}
		out = append(out, list...)
	}
	return engine.TrimToBudget(out, req.CharBudget), nil
}
