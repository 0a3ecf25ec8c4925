package indexing

import (
	"sort"

	"github.com/docdex-io/docdex/internal/domain"
	"github.com/docdex-io/docdex/internal/embedding"
)

// vectorIndex embeds every chunk at add time and ranks by cosine
// similarity against the embedded query.
type vectorIndex struct {
	entries []vectorEntry
}

type vectorEntry struct {
	vec  embedding.Vector
	text string
	meta domain.ChunkMetadata
}

func (s *vectorIndex) Strategy() Strategy { return Vector }

func (s *vectorIndex) Reset() error {
	s.entries = nil
	return nil
}

func (s *vectorIndex) Add(chunks []string, metas []domain.ChunkMetadata) error {
	for _, d := range store(chunks, metas) {
		s.entries = append(s.entries, vectorEntry{
			vec:  embedding.Embed(d.text),
			text: d.text,
			meta: d.meta,
		})
	}
	return nil
}

func (s *vectorIndex) Len() int { return len(s.entries) }

func (s *vectorIndex) Close() error {
	s.entries = nil
	return nil
}

// Search keeps chunks with positive similarity, sorted by descending
// score. The sort is stable so equal scores keep insertion order.
func (s *vectorIndex) Search(query string, topK int) ([]domain.SearchHit, error) {
	if query == "" || len(s.entries) == 0 {
		return nil, nil
	}

	queryVec := embedding.Embed(query)
	var hits []domain.SearchHit
	for _, e := range s.entries {
		score := embedding.Cosine(queryVec, e.vec)
		if score > 0 {
			hits = append(hits, domain.SearchHit{Chunk: e.text, Score: score, Meta: e.meta.Clone()})
		}
	}
	if len(hits) == 0 {
		return nil, nil
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	return stampSectionScores(hits, topK), nil
}
