package apiserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"indiewatch/internal/credstore"
	"indiewatch/internal/engine"
	"indiewatch/internal/engine/media"
	"indiewatch/internal/engine/sources"
	"indiewatch/internal/registry"
)

const testAPIKey = "test-key"

func TestMain(m *testing.M) {
	engine.Init(engine.Config{
		APIKey:             testAPIKey,
		CacheTTL:           time.Minute,
		NewsletterCacheTTL: time.Minute,
		CacheMaxEntries:    100,
	})
	os.Exit(m.Run())
}

type fakeVideos struct {
	videos []engine.Video
	err    error
}

func (f *fakeVideos) ChannelVideos(_ context.Context, _ string, _ sources.ChannelQuery) ([]engine.Video, error) {
	return f.videos, f.err
}

func (f *fakeVideos) Transcript(_ context.Context, id string) (string, error) {
	return "transcript of " + id, nil
}

type fakePosts struct {
	posts []engine.Post
	err   error
}

func (f *fakePosts) SearchLatest(_ context.Context, _ string, _ int) ([]engine.Post, error) {
	return f.posts, f.err
}

type fakeArticles struct {
	articles []engine.Article
}

func (f *fakeArticles) Posts(_ context.Context, _ string, _ sources.PublicationQuery) ([]engine.Article, error) {
	return f.articles, nil
}

func testSources() []registry.Source {
	return []registry.Source{
		{
			Name:     "Alpha News",
			YouTube:  "@alpha",
			X:        "alpha_news",
			Substack: "alphaletter",
			About:    "Independent politics coverage.",
			Topics:   "politics, elections",
		},
		{
			Name:     "Beta Media",
			YouTube:  "@beta",
			X:        "beta_media",
			Substack: "betaletter",
			About:    "Climate reporting.",
			Topics:   "climate",
		},
	}
}

func newTestServer(t *testing.T) (*Server, *fakeVideos, *fakePosts) {
	t.Helper()
	videos := &fakeVideos{}
	posts := &fakePosts{}
	reg := registry.NewFromSources(testSources(), nil)
	p := &media.Pipelines{
		Registry: reg,
		Cache:    engine.NewCache(100),
		Videos:   videos,
		Posts:    posts,
		Articles: &fakeArticles{},
	}
	creds, err := credstore.New(filepath.Join(t.TempDir(), "cookies.txt"))
	require.NoError(t, err)
	return New(p, reg, creds), videos, posts
}

func do(t *testing.T, s *Server, method, target, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("X-API-Key", testAPIKey)
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestHealthAndPrivacyUnauthenticated(t *testing.T) {
	s, _, _ := newTestServer(t)

	w := do(t, s, http.MethodGet, "/healthz", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"sources":2`)

	w = do(t, s, http.MethodGet, "/privacy", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "You are ok", w.Body.String())
}

func TestAPIKeyRequired(t *testing.T) {
	s, _, _ := newTestServer(t)

	t.Run("missing key", func(t *testing.T) {
		w := do(t, s, http.MethodGet, "/sources", "", false)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/sources", nil)
		req.Header.Set("X-API-Key", "nope")
		w := httptest.NewRecorder()
		s.Router().ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("key in query parameter", func(t *testing.T) {
		w := do(t, s, http.MethodGet, "/sources?api_key="+testAPIKey, "", false)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestAPIKeyUnconfiguredRejectsAll(t *testing.T) {
	s, _, _ := newTestServer(t)
	engine.Cfg.APIKey = ""
	defer func() { engine.Cfg.APIKey = testAPIKey }()

	w := do(t, s, http.MethodGet, "/sources", "", true)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSourcesFilter(t *testing.T) {
	s, _, _ := newTestServer(t)

	w := do(t, s, http.MethodGet, "/sources?name=alpha", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Alpha News")
	assert.NotContains(t, w.Body.String(), "Beta Media")
}

func TestMediaRequiresQuery(t *testing.T) {
	s, _, _ := newTestServer(t)

	w := do(t, s, http.MethodGet, "/media", "", true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodGet, "/media?query=climate", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Beta Media")
}

func TestParameterValidation(t *testing.T) {
	s, _, _ := newTestServer(t)

	tests := []struct {
		name   string
		target string
	}{
		{"bad int", "/youtube?channels=alpha&period_days=soon"},
		{"bad bool", "/youtube?channels=alpha&get_transcripts=si"},
		{"zero period", "/youtube?channels=alpha&period_days=0"},
		{"bad end date", "/youtube?channels=alpha&end_date=15-06-2025"},
		{"no targets", "/youtube"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodGet, tt.target, "", true)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestYouTubeSearch(t *testing.T) {
	s, videos, _ := newTestServer(t)
	videos.videos = []engine.Video{{ID: "v1", Title: "Election special", Channel: "@alpha"}}

	w := do(t, s, http.MethodGet, "/youtube?channels=alpha&get_transcripts=false", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Election special")
}

func TestXSearchUpstreamAuthMapsToBadGateway(t *testing.T) {
	s, _, posts := newTestServer(t)
	posts.err = &engine.UpstreamAuthError{Platform: "x", Err: context.DeadlineExceeded}

	w := do(t, s, http.MethodGet, "/x?users=alpha_news", "", true)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestTranscriptsRequireIDs(t *testing.T) {
	s, _, _ := newTestServer(t)

	w := do(t, s, http.MethodGet, "/youtube-transcripts", "", true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodGet, "/youtube-transcripts?ids=v1,v2", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "transcript of v1")
	assert.Contains(t, w.Body.String(), "transcript of v2")
}

func TestCookiesWebhook(t *testing.T) {
	s, _, _ := newTestServer(t)

	t.Run("rejects malformed body", func(t *testing.T) {
		w := do(t, s, http.MethodPost, "/cookies", "{not json", true)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects unsuccessful payload", func(t *testing.T) {
		w := do(t, s, http.MethodPost, "/cookies", `{"success":false,"cookies":"a=1"}`, true)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects empty blob", func(t *testing.T) {
		w := do(t, s, http.MethodPost, "/cookies", `{"success":true,"cookies":""}`, true)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("persists blob", func(t *testing.T) {
		w := do(t, s, http.MethodPost, "/cookies", `{"success":true,"cookies":"auth_token=abc; ct0=def"}`, true)
		require.Equal(t, http.StatusOK, w.Code)

		blob, err := s.creds.Current()
		require.NoError(t, err)
		assert.Equal(t, "auth_token=abc; ct0=def", blob)
	})
}
