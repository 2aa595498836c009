package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"indiewatch/internal/engine"
)

// Substack fetches posts from publication archives via the undocumented
// JSON API that powers the web reader. No auth; paid-only posts are skipped.
type Substack struct {
	limiter *rate.Limiter
}

// NewSubstack creates a Substack source with request pacing suitable for
// paginated archive walks.
func NewSubstack() *Substack {
	return &Substack{limiter: rate.NewLimiter(rate.Limit(2), 4)}
}

// PublicationQuery narrows a publication fetch.
type PublicationQuery struct {
	Query       string // empty = newest posts
	MaxPosts    int
	WithContent bool // fetch full post bodies
}

// archivePageSize matches the reader UI page size; the API caps limit at 50.
const archivePageSize = 12

// substackPost is the wire shape shared by the archive and search endpoints.
type substackPost struct {
	ID           int64  `json:"id"`
	Slug         string `json:"slug"`
	Title        string `json:"title"`
	Subtitle     string `json:"subtitle"`
	CanonicalURL string `json:"canonical_url"`
	PostDate     string `json:"post_date"`
	Audience     string `json:"audience"`
	Description  string `json:"description"`
	BodyHTML     string `json:"body_html"`
}

// Posts fetches posts from one publication, newest first or matching a query.
func (s *Substack) Posts(ctx context.Context, publication string, q PublicationQuery) ([]engine.Article, error) {
	publication = strings.TrimSpace(publication)
	if q.MaxPosts <= 0 {
		q.MaxPosts = 10
	}
	base := "https://" + publication + ".substack.com"

	var raw []substackPost
	var err error
	if q.Query != "" {
		raw, err = s.searchPosts(ctx, base, q.Query, q.MaxPosts)
	} else {
		raw, err = s.archivePosts(ctx, base, q.MaxPosts)
	}
	if err != nil {
		return nil, err
	}

	articles := make([]engine.Article, 0, len(raw))
	for _, p := range raw {
		if p.Audience == "only_paid" {
			continue
		}
		published, err := time.Parse(time.RFC3339, p.PostDate)
		if err != nil {
			slog.Warn("substack: bad post date, skipping",
				slog.String("publication", publication),
				slog.String("slug", p.Slug), slog.Any("err", err))
			continue
		}

		a := engine.Article{
			ID:          p.ID,
			Slug:        p.Slug,
			Title:       p.Title,
			Subtitle:    p.Subtitle,
			URL:         p.CanonicalURL,
			PublishedAt: published,
			Publication: publication,
			Preview:     p.Description,
		}
		if q.WithContent {
			bodyHTML := p.BodyHTML
			if bodyHTML == "" {
				bodyHTML, err = s.postBody(ctx, base, p.Slug)
				if err != nil {
					slog.Warn("substack: post body fetch failed",
						slog.String("publication", publication),
						slog.String("slug", p.Slug), slog.Any("err", err))
				}
			}
			if bodyHTML != "" {
				if md, err := htmltomarkdown.ConvertString(bodyHTML); err == nil {
					a.Content = md
				} else {
					slog.Warn("substack: markdown conversion failed",
						slog.String("slug", p.Slug), slog.Any("err", err))
				}
				if a.Preview == "" {
					a.Preview = htmlPreview(bodyHTML, 300)
				}
			}
		}
		articles = append(articles, a)
	}
	return articles, nil
}

// archivePosts walks the archive endpoint newest-first until max posts are
// collected or the archive runs out.
func (s *Substack) archivePosts(ctx context.Context, base string, max int) ([]substackPost, error) {
	var posts []substackPost
	for offset := 0; len(posts) < max; offset += archivePageSize {
		limit := archivePageSize
		if remaining := max - len(posts); remaining < limit {
			limit = remaining
		}
		u := fmt.Sprintf("%s/api/v1/archive?sort=new&offset=%d&limit=%d", base, offset, limit)

		var page []substackPost
		if err := s.getJSON(ctx, u, &page); err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		posts = append(posts, page...)
	}
	if len(posts) > max {
		posts = posts[:max]
	}
	return posts, nil
}

// searchPosts queries the publication search endpoint.
func (s *Substack) searchPosts(ctx context.Context, base, query string, max int) ([]substackPost, error) {
	u := fmt.Sprintf("%s/api/v1/publication/search?query=%s&limit=%d", base, url.QueryEscape(query), max)

	var resp struct {
		Results []substackPost `json:"results"`
	}
	if err := s.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// postBody fetches one post's full HTML body by slug.
func (s *Substack) postBody(ctx context.Context, base, slug string) (string, error) {
	var post substackPost
	if err := s.getJSON(ctx, base+"/api/v1/posts/"+url.PathEscape(slug), &post); err != nil {
		return "", err
	}
	return post.BodyHTML, nil
}

func (s *Substack) getJSON(ctx context.Context, rawURL string, out any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.UserAgentChrome)
		req.Header.Set("Accept", "application/json")
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return fmt.Errorf("substack fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return nil
}

// htmlPreview extracts plain text from an HTML fragment, capped at n runes.
func htmlPreview(html string, n int) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("script, style").Remove()
	text := strings.Join(strings.Fields(doc.Text()), " ")
	return engine.TruncateRunes(text, n, "...")
}
