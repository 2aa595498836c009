package engine

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	VideoSearchRequests      atomic.Int64
	TranscriptRequests       atomic.Int64
	MicroblogSearchRequests  atomic.Int64
	NewsletterSearchRequests atomic.Int64
	RegistryRefreshes        atomic.Int64
	FetchErrors              atomic.Int64
}

func IncrVideoSearch()      { metrics.VideoSearchRequests.Add(1) }
func IncrTranscript()       { metrics.TranscriptRequests.Add(1) }
func IncrMicroblogSearch()  { metrics.MicroblogSearchRequests.Add(1) }
func IncrNewsletterSearch() { metrics.NewsletterSearchRequests.Add(1) }
func IncrRegistryRefresh()  { metrics.RegistryRefreshes.Add(1) }
func IncrFetchError()       { metrics.FetchErrors.Add(1) }

// GetMetrics returns a snapshot of all counters including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"video_search_requests":      metrics.VideoSearchRequests.Load(),
		"transcript_requests":        metrics.TranscriptRequests.Load(),
		"microblog_search_requests":  metrics.MicroblogSearchRequests.Load(),
		"newsletter_search_requests": metrics.NewsletterSearchRequests.Load(),
		"registry_refreshes":         metrics.RegistryRefreshes.Load(),
		"fetch_errors":               metrics.FetchErrors.Load(),
		"cache_hits":                 hits,
		"cache_misses":               misses,
	}
}

// FormatMetrics returns counters in a simple text format for the /metrics endpoint.
func FormatMetrics() string {
	snapshot := GetMetrics()
	keys := make([]string, 0, len(snapshot))
	for k := range snapshot {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, snapshot[k])
	}
	return sb.String()
}
