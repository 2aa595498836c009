package registry

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sort"
	"sync"

	"github.com/ollama/ollama/api"
	"github.com/viterin/vek/vek32"
)

// SemanticRanker ranks documents by cosine similarity of Ollama embeddings.
// Document embeddings are computed once per registry snapshot and reused
// until the document set changes.
type SemanticRanker struct {
	client *api.Client
	model  string

	mu      sync.Mutex
	docsSum [32]byte
	docEmb  [][]float32
}

// NewSemanticRanker creates a ranker using the Ollama server from the
// environment (OLLAMA_HOST).
func NewSemanticRanker(model string) (*SemanticRanker, error) {
	if model == "" {
		return nil, fmt.Errorf("semantic ranker: model must not be empty")
	}
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return nil, fmt.Errorf("semantic ranker: %w", err)
	}
	return &SemanticRanker{client: client, model: model}, nil
}

func (sr *SemanticRanker) Rank(ctx context.Context, query string, docs []string) ([]int, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	docEmb, err := sr.documentEmbeddings(ctx, docs)
	if err != nil {
		return nil, err
	}

	resp, err := sr.client.Embed(ctx, &api.EmbedRequest{Model: sr.model, Input: query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("embed query: empty response")
	}
	q := resp.Embeddings[0]

	type scored struct {
		idx   int
		score float32
	}
	ranked := make([]scored, 0, len(docs))
	for i, d := range docEmb {
		if len(d) != len(q) {
			continue
		}
		ranked = append(ranked, scored{idx: i, score: vek32.CosineSimilarity(q, d)})
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })

	out := make([]int, len(ranked))
	for i, s := range ranked {
		out[i] = s.idx
	}
	return out, nil
}

// documentEmbeddings returns cached embeddings when the document set is
// unchanged, recomputing them in one batched call otherwise.
func (sr *SemanticRanker) documentEmbeddings(ctx context.Context, docs []string) ([][]float32, error) {
	h := sha256.New()
	for _, d := range docs {
		h.Write([]byte(d))
		h.Write([]byte{0})
	}
	var sum [32]byte
	copy(sum[:], h.Sum(nil))

	sr.mu.Lock()
	defer sr.mu.Unlock()
	if sum == sr.docsSum && len(sr.docEmb) == len(docs) {
		return sr.docEmb, nil
	}

	resp, err := sr.client.Embed(ctx, &api.EmbedRequest{Model: sr.model, Input: docs})
	if err != nil {
		return nil, fmt.Errorf("embed documents: %w", err)
	}
	if len(resp.Embeddings) != len(docs) {
		return nil, fmt.Errorf("embed documents: got %d embeddings for %d documents", len(resp.Embeddings), len(docs))
	}
	sr.docsSum = sum
	sr.docEmb = resp.Embeddings
	return sr.docEmb, nil
}
