package indexing

import (
	"strings"

	"github.com/docdex-io/docdex/internal/domain"
)

// linearIndex keeps chunks in a flat list and scans them on demand.
// It is the baseline the other strategies are measured against.
type linearIndex struct {
	docs []storedChunk
}

func (s *linearIndex) Strategy() Strategy { return Linear }

func (s *linearIndex) Reset() error {
	s.docs = nil
	return nil
}

func (s *linearIndex) Add(chunks []string, metas []domain.ChunkMetadata) error {
	s.docs = append(s.docs, store(chunks, metas)...)
	return nil
}

func (s *linearIndex) Len() int { return len(s.docs) }

func (s *linearIndex) Close() error {
	s.docs = nil
	return nil
}

// Search matches chunks containing the query as a case-insensitive
// substring. Every match scores 1.0 and keeps insertion order.
func (s *linearIndex) Search(query string, topK int) ([]domain.SearchHit, error) {
	if query == "" || len(s.docs) == 0 {
		return nil, nil
	}

	needle := strings.ToLower(query)
	var hits []domain.SearchHit
	for _, d := range s.docs {
		if strings.Contains(strings.ToLower(d.text), needle) {
			hits = append(hits, domain.SearchHit{Chunk: d.text, Score: 1.0, Meta: d.meta.Clone()})
		}
	}
	return stampSectionScores(hits, topK), nil
}
