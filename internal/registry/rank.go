package registry

import (
	"context"
	"regexp"
	"sort"
	"strings"
)

// Ranker orders documents by relevance to a free-text query. Rank returns
// indices into docs, most relevant first; documents with no relevance at all
// are omitted, so the result may be shorter than docs.
type Ranker interface {
	Rank(ctx context.Context, query string, docs []string) ([]int, error)
}

var tokenRE = regexp.MustCompile(`[a-z0-9]+`)

func tokenize(s string) []string {
	return tokenRE.FindAllString(strings.ToLower(s), -1)
}

// LexicalRanker scores documents by weighted term overlap. The first line of
// each document (the source name) weighs heaviest, mirroring how the curated
// registry is queried by outlet name more often than by topic prose.
type LexicalRanker struct{}

func NewLexicalRanker() *LexicalRanker { return &LexicalRanker{} }

func (lr *LexicalRanker) Rank(_ context.Context, query string, docs []string) ([]int, error) {
	terms := tokenize(query)
	if len(terms) == 0 {
		return nil, nil
	}

	type scored struct {
		idx   int
		score float64
	}
	var ranked []scored

	for i, doc := range docs {
		lines := strings.SplitN(doc, "\n", 2)
		name := strings.ToLower(lines[0])
		rest := ""
		if len(lines) > 1 {
			rest = strings.ToLower(lines[1])
		}

		var score float64
		for _, t := range terms {
			if strings.Contains(name, t) {
				score += 3
			}
			score += float64(strings.Count(rest, t))
		}
		if score > 0 {
			ranked = append(ranked, scored{idx: i, score: score})
		}
	}

	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })

	out := make([]int, len(ranked))
	for i, s := range ranked {
		out[i] = s.idx
	}
	return out, nil
}
