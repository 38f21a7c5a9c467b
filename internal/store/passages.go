package store

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/katakuxiko/faqbot/internal/model"
)

// PassageIndex ranks passages of the current document against a question.
// Reset replaces the whole index, mirroring DocumentStore.Replace.
type PassageIndex interface {
	Reset(ctx context.Context, chunks []model.Chunk) error
	Search(ctx context.Context, query string, k int) ([]model.Chunk, error)
}

// KeywordIndex is an in-memory PassageIndex scored by tf-idf term overlap.
type KeywordIndex struct {
	mu     sync.RWMutex
	chunks []model.Chunk
	terms  []map[string]int
	df     map[string]int
}

func NewKeywordIndex() *KeywordIndex {
	return &KeywordIndex{df: map[string]int{}}
}

func (ix *KeywordIndex) Reset(_ context.Context, chunks []model.Chunk) error {
	terms := make([]map[string]int, len(chunks))
	df := map[string]int{}
	for i, c := range chunks {
		tf := map[string]int{}
		for _, w := range tokenize(c.Text) {
			tf[w]++
		}
		for w := range tf {
			df[w]++
		}
		terms[i] = tf
	}

	ix.mu.Lock()
	ix.chunks = append([]model.Chunk(nil), chunks...)
	ix.terms = terms
	ix.df = df
	ix.mu.Unlock()
	return nil
}

// Search returns up to k passages sharing at least one term with query,
// best first. Ties keep document order.
func (ix *KeywordIndex) Search(_ context.Context, query string, k int) ([]model.Chunk, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if k <= 0 || len(ix.chunks) == 0 {
		return nil, nil
	}

	type scored struct {
		idx   int
		score float64
	}
	n := float64(len(ix.chunks))
	q := tokenize(query)
	var hits []scored
	for i, tf := range ix.terms {
		var s float64
		for _, w := range q {
			if c := tf[w]; c > 0 {
				s += float64(c) * math.Log(1+n/float64(ix.df[w]))
			}
		}
		if s > 0 {
			hits = append(hits, scored{i, s})
		}
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].score > hits[b].score })

	if len(hits) > k {
		hits = hits[:k]
	}
	out := make([]model.Chunk, len(hits))
	for i, h := range hits {
		out[i] = ix.chunks[h.idx]
	}
	return out, nil
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
