// Package registry holds the curated independent-media source list: loading,
// wholesale refresh, identifier resolution and topic-based selection.
package registry

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"indiewatch/internal/engine"
)

// notApplicable is the registry sentinel for "this source has no handle on
// that platform".
const notApplicable = "n/a"

// Source is one curated media outlet. Immutable after load; a refresh
// replaces the whole snapshot, never a row in place.
type Source struct {
	Name         string `json:"name"`
	Website      string `json:"website"`
	YouTube      string `json:"youtube"`
	X            string `json:"x"`
	Substack     string `json:"substack"`
	About        string `json:"about"`
	TrustFactors string `json:"trust_factors"`
	Topics       string `json:"topics"`
	Wikipedia    string `json:"wikipedia"`

	// Enrichment merged from the facts file; empty when the source is not
	// covered there.
	Bias        string `json:"bias,omitempty"`
	Profile     string `json:"profile,omitempty"`
	Factual     string `json:"factual,omitempty"`
	Credibility string `json:"credibility,omitempty"`
}

// fact is one entry of the credibility facts file.
type fact struct {
	Name        string `json:"name"`
	Bias        string `json:"bias"`
	Profile     string `json:"profile"`
	Factual     string `json:"factual"`
	Credibility string `json:"credibility"`
}

// Registry is the in-memory source registry. Reads see a consistent snapshot;
// Refresh swaps the snapshot atomically.
type Registry struct {
	csvPath   string
	factsPath string
	ranker    Ranker

	snap atomic.Pointer[snapshot]
}

type snapshot struct {
	sources []Source
	gen     uint64
}

var gen atomic.Uint64

// New creates a registry backed by a CSV source list and an optional facts
// JSON file, and loads the initial snapshot.
func New(csvPath, factsPath string, ranker Ranker) (*Registry, error) {
	if ranker == nil {
		ranker = NewLexicalRanker()
	}
	r := &Registry{csvPath: csvPath, factsPath: factsPath, ranker: ranker}
	if err := r.Refresh(); err != nil {
		return nil, err
	}
	return r, nil
}

// NewFromSources creates a registry with a fixed source list. Used by tests
// and by callers that assemble sources elsewhere.
func NewFromSources(sources []Source, ranker Ranker) *Registry {
	if ranker == nil {
		ranker = NewLexicalRanker()
	}
	r := &Registry{ranker: ranker}
	r.swap(sources)
	return r
}

// Refresh reloads the registry wholesale from its backing files and swaps the
// snapshot. Readers concurrent with a refresh see either the old or the new
// list, never a mix.
func (r *Registry) Refresh() error {
	if r.csvPath == "" {
		return fmt.Errorf("registry: no source file configured")
	}
	f, err := os.Open(r.csvPath)
	if err != nil {
		return fmt.Errorf("registry: open sources: %w", err)
	}
	defer f.Close()

	var facts io.Reader
	if r.factsPath != "" {
		ff, err := os.Open(r.factsPath)
		if err != nil {
			slog.Warn("registry: facts file unavailable, loading without enrichment",
				slog.String("path", r.factsPath), slog.Any("error", err))
		} else {
			defer ff.Close()
			facts = ff
		}
	}

	sources, err := Parse(f, facts)
	if err != nil {
		return err
	}
	r.swap(sources)
	engine.IncrRegistryRefresh()
	slog.Info("registry: loaded", slog.Int("sources", len(sources)))
	return nil
}

func (r *Registry) swap(sources []Source) {
	r.snap.Store(&snapshot{sources: sources, gen: gen.Add(1)})
}

// Sources returns the current snapshot. The returned slice must not be
// mutated.
func (r *Registry) Sources() []Source {
	s := r.snap.Load()
	if s == nil {
		return nil
	}
	return s.sources
}

// Len returns the number of sources in the current snapshot.
func (r *Registry) Len() int { return len(r.Sources()) }

// Parse reads the registry CSV and merges the optional facts JSON. The CSV
// must carry a header row; columns are matched by name so column order in the
// curated file does not matter.
func Parse(csvSrc io.Reader, factsSrc io.Reader) ([]Source, error) {
	rd := csv.NewReader(csvSrc)
	rd.FieldsPerRecord = -1

	header, err := rd.Read()
	if err != nil {
		return nil, fmt.Errorf("registry: read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var sources []Source
	for {
		rec, err := rd.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("registry: read row: %w", err)
		}
		s := Source{
			Name:         field(rec, "name"),
			Website:      field(rec, "website"),
			YouTube:      field(rec, "youtube"),
			X:            field(rec, "x"),
			Substack:     field(rec, "substack"),
			About:        field(rec, "about"),
			TrustFactors: field(rec, "trustfactors"),
			Topics:       field(rec, "topics"),
			Wikipedia:    field(rec, "wikipedia"),
		}
		if s.Name == "" {
			continue
		}
		sources = append(sources, s)
	}

	if factsSrc != nil {
		if err := mergeFacts(sources, factsSrc); err != nil {
			return nil, err
		}
	}
	return sources, nil
}

// mergeFacts enriches sources in place with bias/credibility facts, matched
// case-insensitively by name.
func mergeFacts(sources []Source, src io.Reader) error {
	var facts []fact
	if err := json.NewDecoder(src).Decode(&facts); err != nil {
		return fmt.Errorf("registry: decode facts: %w", err)
	}
	byName := make(map[string]fact, len(facts))
	for _, f := range facts {
		byName[strings.ToLower(f.Name)] = f
	}
	for i := range sources {
		f, ok := byName[strings.ToLower(sources[i].Name)]
		if !ok {
			slog.Debug("registry: no facts for source", slog.String("name", sources[i].Name))
			continue
		}
		sources[i].Bias = f.Bias
		sources[i].Profile = f.Profile
		sources[i].Factual = f.Factual
		sources[i].Credibility = f.Credibility
	}
	return nil
}
