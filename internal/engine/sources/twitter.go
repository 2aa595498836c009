package sources

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	twitter "github.com/anatolykoptev/go-twitter"
	"golang.org/x/time/rate"

	"indiewatch/internal/credstore"
	"indiewatch/internal/engine"
)

// Microblog searches X timelines through an account-pool client. Session
// blobs live in a credstore so a webhook can refresh them without a restart;
// the client is rebuilt whenever the stored blob changes.
type Microblog struct {
	creds   *credstore.Store
	limiter *rate.Limiter

	mu     sync.Mutex
	client *twitter.Client
	blob   string
}

// NewMicroblog creates a Microblog source backed by the given credential store.
func NewMicroblog(creds *credstore.Store) *Microblog {
	return &Microblog{
		creds:   creds,
		limiter: rate.NewLimiter(rate.Limit(1), 2),
	}
}

// clientFor returns a search client for the current credential blob,
// rebuilding the account pool if the blob changed since last use.
func (m *Microblog) clientFor(ctx context.Context) (*twitter.Client, error) {
	blob, err := m.creds.Current()
	if err != nil {
		return nil, fmt.Errorf("read session store: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil && m.blob == blob {
		return m.client, nil
	}

	accounts := twitter.ParseAccounts(blob)
	openCount := 0
	if len(accounts) == 0 {
		openCount = engine.Cfg.TwitterOpenAccounts
	}
	tw, err := twitter.NewClient(twitter.ClientConfig{
		Accounts:         accounts,
		OpenAccountCount: openCount,
	})
	if err != nil {
		return nil, &engine.UpstreamAuthError{Platform: "x", Err: err}
	}
	slog.Info("microblog client ready",
		slog.Int("accounts", len(accounts)),
		slog.Int("pool_size", tw.Pool().Size()))
	m.client = tw
	m.blob = blob
	return tw, nil
}

// SearchLatest runs a timeline search ordered newest-first and normalizes
// the results.
func (m *Microblog) SearchLatest(ctx context.Context, query string, limit int) ([]engine.Post, error) {
	if limit <= 0 {
		limit = 20
	}

	tw, err := m.clientFor(ctx)
	if err != nil {
		return nil, err
	}
	if err := m.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	tweets, err := tw.SearchTimeline(ctx, query, limit)
	if err != nil {
		if isAuthError(err) {
			return nil, &engine.UpstreamAuthError{Platform: "x", Err: err}
		}
		return nil, fmt.Errorf("x search: %w", err)
	}

	slog.Debug("microblog search", slog.Int("tweets", len(tweets)), slog.String("query", query))

	posts := make([]engine.Post, 0, len(tweets))
	for _, t := range tweets {
		posts = append(posts, engine.Post{
			ID:        t.ID,
			Author:    t.AuthorID,
			Text:      t.Text,
			URL:       "https://x.com/i/status/" + t.ID,
			Likes:     t.Likes,
			Reposts:   t.Retweets,
			CreatedAt: t.CreatedAt,
		})
	}
	return posts, nil
}

// isAuthError reports whether a search failure looks like a dead session or
// an exhausted account pool rather than a transient network problem.
func isAuthError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"unauthorized", "forbidden", "401", "403", "suspended", "locked", "no accounts"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
