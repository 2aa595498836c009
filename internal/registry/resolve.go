package registry

import (
	"context"
	"strings"
)

// Platform selects which handle column of the registry an identifier is
// resolved against.
type Platform int

const (
	PlatformVideo Platform = iota
	PlatformMicroblog
	PlatformNewsletter
)

func (p Platform) String() string {
	switch p {
	case PlatformVideo:
		return "video"
	case PlatformMicroblog:
		return "microblog"
	case PlatformNewsletter:
		return "newsletter"
	}
	return "unknown"
}

// Handle returns the source's handle for the given platform, or "" when the
// source has none there. The "n/a" sentinel counts as none.
func (s Source) Handle(p Platform) string {
	var h string
	switch p {
	case PlatformVideo:
		h = s.YouTube
	case PlatformMicroblog:
		h = s.X
	case PlatformNewsletter:
		h = s.Substack
	}
	if h == "" || strings.EqualFold(h, notApplicable) {
		return ""
	}
	return h
}

// Resolve maps raw identifiers to canonical registry handles for a platform.
// Matching is a case-insensitive substring search against the platform column;
// the registry's canonical handle is substituted on the first match. Unmatched
// identifiers are dropped silently — a shorter output means partial
// resolution, not failure. Duplicate resolutions collapse to one handle.
func (r *Registry) Resolve(platform Platform, identifiers []string) []string {
	sources := r.Sources()
	seen := make(map[string]bool)
	var resolved []string

	for _, raw := range identifiers {
		id := strings.ToLower(strings.TrimSpace(raw))
		id = strings.TrimPrefix(id, "@")
		if id == "" {
			continue
		}
		for _, s := range sources {
			h := s.Handle(platform)
			if h == "" {
				continue
			}
			if strings.Contains(strings.ToLower(h), id) {
				if !seen[h] {
					seen[h] = true
					resolved = append(resolved, h)
				}
				break
			}
		}
	}
	return resolved
}

// ResolveByTopic ranks sources against a free-text topic and returns up to
// limit of them, most relevant first. Sources without a usable handle for the
// platform are skipped, so the result may be shorter than limit.
func (r *Registry) ResolveByTopic(ctx context.Context, query string, platform Platform, limit int) ([]Source, error) {
	if limit <= 0 {
		return nil, nil
	}
	sources := r.Sources()
	docs := make([]string, len(sources))
	for i, s := range sources {
		docs[i] = s.Name + "\n" + s.About + "\n" + s.Topics
	}

	order, err := r.ranker.Rank(ctx, query, docs)
	if err != nil {
		return nil, err
	}

	var out []Source
	for _, idx := range order {
		s := sources[idx]
		if s.Handle(platform) == "" {
			continue
		}
		out = append(out, s)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// TopicSources is ResolveByTopic without a platform constraint: every ranked
// source qualifies. Used by the /media endpoint.
func (r *Registry) TopicSources(ctx context.Context, query string, limit int) ([]Source, error) {
	if limit <= 0 {
		return nil, nil
	}
	sources := r.Sources()
	docs := make([]string, len(sources))
	for i, s := range sources {
		docs[i] = s.Name + "\n" + s.About + "\n" + s.Topics
	}
	order, err := r.ranker.Rank(ctx, query, docs)
	if err != nil {
		return nil, err
	}
	if len(order) > limit {
		order = order[:limit]
	}
	out := make([]Source, 0, len(order))
	for _, idx := range order {
		out = append(out, sources[idx])
	}
	return out, nil
}

// FilterByName returns sources whose name contains query, case-insensitively.
// With credibleOnly set, enriched sources outside the accepted credibility and
// factual-reporting bands are excluded; unenriched sources always pass.
func (r *Registry) FilterByName(query string, limit, offset int, credibleOnly bool) []Source {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []Source
	for _, s := range r.Sources() {
		if q != "" && !strings.Contains(strings.ToLower(s.Name), q) {
			continue
		}
		if credibleOnly && !credible(s) {
			continue
		}
		out = append(out, s)
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(out) {
		return nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// credible reports whether an enriched source falls in the accepted
// credibility or factual-reporting bands. Sources without enrichment pass.
func credible(s Source) bool {
	if s.Credibility == "" && s.Factual == "" {
		return true
	}
	switch strings.ToLower(s.Credibility) {
	case "high credibility", "medium credibility":
		return true
	}
	switch strings.ToLower(s.Factual) {
	case "factual", "mostly", "mixed":
		return true
	}
	return false
}
