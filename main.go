// indiewatch — independent-media aggregation service.
//
// Searches curated independent news sources across YouTube (channel-scoped
// video search with transcripts), X (timeline search) and Substack
// (newsletter archives), behind a shared TTL cache with single-flight
// computation. Runs as an HTTP API, optionally alongside an MCP tool server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-mcpserver"
	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"indiewatch/internal/apiserver"
	"indiewatch/internal/credstore"
	"indiewatch/internal/engine"
	"indiewatch/internal/engine/media"
	"indiewatch/internal/engine/sources"
	"indiewatch/internal/mediaserver"
	"indiewatch/internal/registry"
)

var (
	version  = "dev"
	httpPort = env.Str("PORT", "8088")
	mcpPort  = env.Str("MCP_PORT", "") // empty = MCP server disabled
)

func main() {
	initEngine()

	slog.Info("starting indiewatch",
		slog.String("version", version),
		slog.String("port", httpPort),
	)

	creds, err := credstore.New(env.Str("COOKIES_FILE", "cache/cookies.txt"))
	if err != nil {
		slog.Error("credential store init failed", slog.Any("error", err))
		os.Exit(1)
	}
	if blob := env.Str("SVC_COOKIES", ""); blob != "" {
		if err := creds.Seed(blob); err != nil {
			slog.Warn("credential seed failed", slog.Any("error", err))
		}
	}

	reg, err := newRegistry()
	if err != nil {
		slog.Error("registry load failed", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("registry loaded", slog.Int("sources", reg.Len()))

	pipelines := &media.Pipelines{
		Registry: reg,
		Cache:    engine.NewCache(engine.Cfg.CacheMaxEntries),
		Videos:   sources.NewYouTube(),
		Posts:    sources.NewMicroblog(creds),
		Articles: sources.NewSubstack(),
	}

	api := apiserver.New(pipelines, reg, creds)
	srv := &http.Server{
		Addr:              ":" + httpPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
	}

	if mcpPort != "" {
		go runMCP(pipelines, reg)
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	slog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown failed", slog.Any("error", err))
	}
}

func initEngine() {
	c := engine.Config{
		APIKey:              env.Str("API_KEY", ""),
		RegistryCSV:         env.Str("REGISTRY_CSV", "data/sources.csv"),
		RegistryFacts:       env.Str("REGISTRY_FACTS", "data/facts.json"),
		CacheTTL:            env.Duration("CACHE_TTL", time.Hour),
		NewsletterCacheTTL:  env.Duration("NEWSLETTER_CACHE_TTL", 24*time.Hour),
		CacheMaxEntries:     env.Int("CACHE_MAX_ENTRIES", 1000),
		FetchTimeout:        env.Duration("FETCH_TIMEOUT", 30*time.Second),
		MaxTranscriptChars:  env.Int("MAX_TRANSCRIPT_CHARS", 0),
		TwitterOpenAccounts: env.Int("TWITTER_OPEN_ACCOUNTS", 2),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}

	bc, err := stealth.NewClient(stealth.WithTimeout(15))
	if err != nil {
		slog.Error("stealth client init failed", slog.Any("error", err))
	} else {
		c.BrowserClient = bc
		slog.Info("stealth browser client initialized")
	}

	engine.Init(c)
}

// newRegistry loads the curated source registry. Topic resolution uses
// embedding similarity when an Ollama model is configured, with a lexical
// scorer as the fallback.
func newRegistry() (*registry.Registry, error) {
	var ranker registry.Ranker
	if model := env.Str("OLLAMA_EMBED_MODEL", ""); model != "" {
		sr, err := registry.NewSemanticRanker(model)
		if err != nil {
			slog.Warn("semantic ranker init failed, using lexical ranking", slog.Any("error", err))
		} else {
			ranker = sr
			slog.Info("semantic ranker ready", slog.String("model", model))
		}
	}
	return registry.New(engine.Cfg.RegistryCSV, engine.Cfg.RegistryFacts, ranker)
}

func runMCP(pipelines *media.Pipelines, reg *registry.Registry) {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "indiewatch",
		Version: version,
	}, nil)

	mediaserver.RegisterTools(server, pipelines, reg)
	slog.Info("mcp tools registered", slog.String("port", mcpPort))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "indiewatch",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 600 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("mcp server failed", slog.Any("error", err))
	}
}
