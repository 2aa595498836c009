package registry

import (
	"context"
	"strings"
	"testing"
)

var testSources = []Source{
	{Name: "Democracy Now!", YouTube: "@DemocracyNow", X: "democracynow", Substack: "n/a",
		About: "Independent daily news hour", Topics: "politics, war, climate"},
	{Name: "Al Jazeera English", YouTube: "@aljazeeraenglish", X: "AJEnglish", Substack: "n/a",
		About: "International news network", Topics: "middle east, world news"},
	{Name: "Breaking Points", YouTube: "@breakingpoints", X: "BreakingPoints", Substack: "breakingpoints",
		About: "Anti-establishment politics show", Topics: "politics, media"},
	{Name: "Heated", YouTube: "n/a", X: "emorwee", Substack: "heated",
		About: "Newsletter about the climate crisis", Topics: "climate, energy"},
}

const testCSV = `Name,Website,Youtube,X,Substack,About,TrustFactors,Topics,Wikipedia
Democracy Now!,https://democracynow.org,@DemocracyNow,democracynow,n/a,Independent daily news hour,listener funded,politics,https://en.wikipedia.org/wiki/Democracy_Now!
Heated,https://heated.world,n/a,emorwee,heated,Climate accountability journalism,reader funded,climate,
`

const testFacts = `[
  {"name": "democracy now!", "bias": "left", "profile": "tv", "factual": "mostly", "credibility": "high credibility"}
]`

func TestParse(t *testing.T) {
	sources, err := Parse(strings.NewReader(testCSV), strings.NewReader(testFacts))
	if err != nil {
		t.Fatal(err)
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(sources))
	}

	dn := sources[0]
	if dn.Name != "Democracy Now!" || dn.YouTube != "@DemocracyNow" || dn.Substack != "n/a" {
		t.Errorf("unexpected first source: %+v", dn)
	}
	// Facts are matched case-insensitively by name.
	if dn.Bias != "left" || dn.Credibility != "high credibility" {
		t.Errorf("facts not merged: %+v", dn)
	}
	if sources[1].Bias != "" {
		t.Errorf("facts leaked onto uncovered source: %+v", sources[1])
	}
}

func TestParseWithoutFacts(t *testing.T) {
	sources, err := Parse(strings.NewReader(testCSV), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(sources))
	}
	if sources[0].Bias != "" {
		t.Error("enrichment present without a facts file")
	}
}

func TestHandle(t *testing.T) {
	s := Source{YouTube: "@DemocracyNow", X: "democracynow", Substack: "n/a"}
	if got := s.Handle(PlatformVideo); got != "@DemocracyNow" {
		t.Errorf("video handle = %q", got)
	}
	if got := s.Handle(PlatformNewsletter); got != "" {
		t.Errorf("n/a sentinel leaked: %q", got)
	}
	if got := (Source{}).Handle(PlatformMicroblog); got != "" {
		t.Errorf("empty handle leaked: %q", got)
	}
}

func TestResolve(t *testing.T) {
	r := NewFromSources(testSources, nil)

	t.Run("substring and case insensitive", func(t *testing.T) {
		got := r.Resolve(PlatformVideo, []string{"democracynow", "ALJAZEERA"})
		want := []string{"@DemocracyNow", "@aljazeeraenglish"}
		if len(got) != len(want) {
			t.Fatalf("got %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("got %v, want %v", got, want)
			}
		}
	})

	t.Run("at prefix stripped", func(t *testing.T) {
		got := r.Resolve(PlatformVideo, []string{"@democracynow"})
		if len(got) != 1 || got[0] != "@DemocracyNow" {
			t.Errorf("got %v", got)
		}
	})

	t.Run("unmatched dropped silently", func(t *testing.T) {
		got := r.Resolve(PlatformVideo, []string{"democracynow", "nosuchchannel"})
		if len(got) != 1 {
			t.Errorf("expected partial resolution, got %v", got)
		}
	})

	t.Run("sentinel excluded", func(t *testing.T) {
		// Democracy Now's Substack column is "n/a".
		got := r.Resolve(PlatformNewsletter, []string{"democracynow"})
		if len(got) != 0 {
			t.Errorf("n/a handle resolved: %v", got)
		}
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		got := r.Resolve(PlatformVideo, []string{"democracynow", "DemocracyNow"})
		if len(got) != 1 {
			t.Errorf("duplicate resolution not collapsed: %v", got)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if got := r.Resolve(PlatformVideo, nil); len(got) != 0 {
			t.Errorf("got %v from empty input", got)
		}
	})
}

func TestResolveByTopic(t *testing.T) {
	r := NewFromSources(testSources, nil)
	ctx := context.Background()

	t.Run("ranks by topic", func(t *testing.T) {
		got, err := r.ResolveByTopic(ctx, "climate", PlatformNewsletter, 5)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0].Name != "Heated" {
			t.Errorf("got %v", got)
		}
	})

	t.Run("skips sources without platform handle", func(t *testing.T) {
		got, err := r.ResolveByTopic(ctx, "politics", PlatformNewsletter, 5)
		if err != nil {
			t.Fatal(err)
		}
		for _, s := range got {
			if s.Handle(PlatformNewsletter) == "" {
				t.Errorf("source without newsletter handle returned: %s", s.Name)
			}
		}
	})

	t.Run("limit honored", func(t *testing.T) {
		got, err := r.ResolveByTopic(ctx, "politics", PlatformVideo, 1)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) > 1 {
			t.Errorf("limit exceeded: %d", len(got))
		}
	})

	t.Run("irrelevant query yields nothing", func(t *testing.T) {
		got, err := r.ResolveByTopic(ctx, "quantum chromodynamics", PlatformVideo, 5)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 0 {
			t.Errorf("zero-score sources returned: %v", got)
		}
	})
}

func TestFilterByName(t *testing.T) {
	enriched := append([]Source{}, testSources...)
	enriched[0].Credibility = "high credibility"
	enriched[1].Credibility = "low credibility"
	enriched[1].Factual = "low"
	r := NewFromSources(enriched, nil)

	t.Run("partial name match", func(t *testing.T) {
		got := r.FilterByName("democracy", 10, 0, false)
		if len(got) != 1 || got[0].Name != "Democracy Now!" {
			t.Errorf("got %v", got)
		}
	})

	t.Run("credible only filters low bands", func(t *testing.T) {
		got := r.FilterByName("", 10, 0, true)
		for _, s := range got {
			if s.Name == "Al Jazeera English" {
				t.Error("low-credibility source passed the filter")
			}
		}
	})

	t.Run("unenriched sources always pass credibility", func(t *testing.T) {
		got := r.FilterByName("heated", 10, 0, true)
		if len(got) != 1 {
			t.Errorf("unenriched source filtered out: %v", got)
		}
	})

	t.Run("offset and limit", func(t *testing.T) {
		all := r.FilterByName("", 0, 0, false)
		paged := r.FilterByName("", 2, 1, false)
		if len(paged) != 2 || paged[0].Name != all[1].Name {
			t.Errorf("pagination wrong: %v", paged)
		}
		if got := r.FilterByName("", 10, 100, false); got != nil {
			t.Errorf("offset past end should be empty, got %v", got)
		}
	})
}

func TestLexicalRanker(t *testing.T) {
	lr := NewLexicalRanker()
	docs := []string{
		"Climate Watch\nDeep reporting on climate\nclimate, energy",
		"Politics Daily\nCovers elections\npolitics",
		"Mixed Review\nSome climate coverage\nmedia, climate",
	}

	order, err := lr.Rank(context.Background(), "climate", docs)
	if err != nil {
		t.Fatal(err)
	}
	if len(order) != 2 {
		t.Fatalf("expected 2 matches, got %v", order)
	}
	// Name-line matches outweigh body mentions.
	if order[0] != 0 {
		t.Errorf("expected doc 0 first, got %v", order)
	}

	empty, err := lr.Rank(context.Background(), "", docs)
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 0 {
		t.Errorf("empty query ranked documents: %v", empty)
	}
}
