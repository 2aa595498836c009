package engine

import (
	"net/http"
	"time"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	APIKey string // shared secret for the query surface

	RegistryCSV   string // curated source registry CSV
	RegistryFacts string // credibility facts JSON merged into the registry

	CacheTTL           time.Duration // video + microblog search results
	NewsletterCacheTTL time.Duration // newsletter results change slowly
	CacheMaxEntries    int

	FetchTimeout       time.Duration
	MaxTranscriptChars int // cap on transcript payload per video, 0 = no cap

	TwitterOpenAccounts int // guest sessions to open when no accounts configured

	HTTPClient    *http.Client
	BrowserClient *BrowserClient // nil = Chrome-fingerprint fetches disabled
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages (sources, media).
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
func Init(c Config) {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	cfg = c
	Cfg = &cfg
}
