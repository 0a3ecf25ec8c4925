package indexing

import (
	"fmt"
	"strconv"

	"github.com/blevesearch/bleve/v2"

	"github.com/docdex-io/docdex/internal/domain"
)

// keywordIndex adapts a memory-only bleve index to the Index contract.
// Chunks are indexed under their ordinal position; hits map back to the
// stored chunk list for text and metadata.
type keywordIndex struct {
	idx  bleve.Index
	docs []storedChunk
}

func newKeywordIndex() (*keywordIndex, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create keyword index: %w", err)
	}
	return &keywordIndex{idx: idx}, nil
}

func (s *keywordIndex) Strategy() Strategy { return Keyword }

func (s *keywordIndex) Reset() error {
	if err := s.idx.Close(); err != nil {
		return fmt.Errorf("close keyword index: %w", err)
	}
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return fmt.Errorf("recreate keyword index: %w", err)
	}
	s.idx = idx
	s.docs = nil
	return nil
}

func (s *keywordIndex) Add(chunks []string, metas []domain.ChunkMetadata) error {
	if len(chunks) == 0 {
		return nil
	}

	stored := store(chunks, metas)
	base := len(s.docs)
	batch := s.idx.NewBatch()
	for i, d := range stored {
		if err := batch.Index(strconv.Itoa(base+i), map[string]any{"chunk": d.text}); err != nil {
			return fmt.Errorf("index chunk %d: %w", base+i, err)
		}
	}
	if err := s.idx.Batch(batch); err != nil {
		return fmt.Errorf("flush keyword batch: %w", err)
	}
	s.docs = append(s.docs, stored...)
	return nil
}

func (s *keywordIndex) Len() int { return len(s.docs) }

func (s *keywordIndex) Close() error {
	s.docs = nil
	if s.idx == nil {
		return nil
	}
	err := s.idx.Close()
	s.idx = nil
	return err
}

// Search runs a match query against the chunk field. The request asks
// for the full match set so section scores see every match before the
// topK cutoff applies.
func (s *keywordIndex) Search(query string, topK int) ([]domain.SearchHit, error) {
	if query == "" || len(s.docs) == 0 {
		return nil, nil
	}

	q := bleve.NewMatchQuery(query)
	q.SetField("chunk")
	req := bleve.NewSearchRequestOptions(q, len(s.docs), 0, false)
	res, err := s.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}

	var hits []domain.SearchHit
	for _, match := range res.Hits {
		ord, err := strconv.Atoi(match.ID)
		if err != nil || ord < 0 || ord >= len(s.docs) {
			continue
		}
		d := s.docs[ord]
		hits = append(hits, domain.SearchHit{Chunk: d.text, Score: match.Score, Meta: d.meta.Clone()})
	}
	return stampSectionScores(hits, topK), nil
}
