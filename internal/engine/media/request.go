package media

import (
	"strconv"
	"strings"
	"time"

	"indiewatch/internal/engine"
)

// SearchRequest is the full parameter set of one pipeline invocation. The
// cache key is derived from every field, so two requests differing in any
// parameter never share a cache entry.
type SearchRequest struct {
	Identifiers []string // raw handles; empty = resolve by topic from Query
	Query       string   // free-text query; empty = "latest" mode

	PeriodDays int    // search window length, counted back from EndDate
	EndDate    string // YYYY-MM-DD, "" = window ends now

	MaxSources       int // topic-resolution cap when no identifiers given
	MaxPerIdentifier int // per-identifier item cap

	WithDescriptions bool // fetch long video descriptions
	WithTranscripts  bool // fetch video transcripts
	WithContent      bool // fetch full article bodies

	CharBudget int // serialized-size budget, 0 = unlimited
}

// validateTargets checks that the request names something to search for.
// Violations surface before any network call.
func (r SearchRequest) validateTargets() error {
	if len(r.Identifiers) == 0 && strings.TrimSpace(r.Query) == "" {
		return engine.InvalidRequestf("either identifiers or query must be provided")
	}
	return nil
}

// validateWindow checks the time-window parameters and returns the window
// start. A non-positive period or malformed end date is a caller error.
func (r SearchRequest) validateWindow(now time.Time) (time.Time, error) {
	if err := r.validateTargets(); err != nil {
		return time.Time{}, err
	}
	if r.PeriodDays <= 0 {
		return time.Time{}, engine.InvalidRequestf("period_days must be positive, got %d", r.PeriodDays)
	}
	return engine.SinceDate(r.PeriodDays, r.EndDate, now)
}

// cacheKey derives a deterministic key from the full parameter set.
func (r SearchRequest) cacheKey(kind string) string {
	return engine.CacheKey(
		kind,
		strings.Join(r.Identifiers, ","),
		r.Query,
		strconv.Itoa(r.PeriodDays),
		r.EndDate,
		strconv.Itoa(r.MaxSources),
		strconv.Itoa(r.MaxPerIdentifier),
		strconv.FormatBool(r.WithDescriptions),
		strconv.FormatBool(r.WithTranscripts),
		strconv.FormatBool(r.WithContent),
		strconv.Itoa(r.CharBudget),
	)
}

// SplitList splits a comma-separated identifier list, dropping empties.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
