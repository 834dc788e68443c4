package embedding

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// CosineSimilarity returns the cosine of the angle between a and b, or 0 when
// either is empty, zero, or the lengths differ.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := 0; i < len(a); i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Candidate is a named text to compare against.
type Candidate struct {
	Name string
	Text string
}

// Match is a scored candidate.
type Match struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Scorer compares texts by embedding similarity.
type Scorer struct {
	embedder  Embedder
	readiness *Readiness
}

// NewScorer creates a Scorer. A nil readiness is treated as always ready.
func NewScorer(e Embedder, r *Readiness) *Scorer {
	return &Scorer{embedder: e, readiness: r}
}

func (s *Scorer) ready() error {
	if s.readiness != nil && !s.readiness.Ready() {
		return fmt.Errorf("%w (state %s)", ErrNotReady, s.readiness.State())
	}
	return nil
}

// Similarity embeds both texts and returns their cosine similarity.
func (s *Scorer) Similarity(ctx context.Context, a, b string) (float64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	va, err := s.embedder.Embed(ctx, a)
	if err != nil {
		return 0, fmt.Errorf("embed first text: %w", err)
	}
	vb, err := s.embedder.Embed(ctx, b)
	if err != nil {
		return 0, fmt.Errorf("embed second text: %w", err)
	}
	return CosineSimilarity(va, vb), nil
}

// Rank scores every candidate against query and returns the best limit
// matches, highest first. Candidates that fail to embed are skipped.
func (s *Scorer) Rank(ctx context.Context, query string, candidates []Candidate, limit int) ([]Match, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	qv, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		cv, err := s.embedder.Embed(ctx, c.Text)
		if err != nil || len(cv) == 0 {
			continue
		}
		matches = append(matches, Match{Name: c.Name, Score: CosineSimilarity(qv, cv)})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}
