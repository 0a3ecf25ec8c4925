// Package indexing provides the pluggable retrieval indexes. Four
// strategies are registered: linear substring scanning, cosine search
// over bag-of-words vectors, a two-stage document/section hierarchy and
// a bleve-backed keyword index.
//
// All indexes share one contract: empty queries and empty indexes yield
// no hits, hits carry cloned metadata, and every hit's SectionScore is
// the best score any matching chunk of the same section achieved.
package indexing

import (
	"strings"

	"github.com/docdex-io/docdex/internal/domain"
)

// Strategy identifies an indexing strategy.
type Strategy string

const (
	Linear       Strategy = "linear"
	Vector       Strategy = "vector"
	Hierarchical Strategy = "hierarchical"
	Keyword      Strategy = "keyword"
)

// IsValid reports whether the strategy is one of the registered keys.
func (s Strategy) IsValid() bool {
	switch s {
	case Linear, Vector, Hierarchical, Keyword:
		return true
	}
	return false
}

// Keys lists the registered strategy keys in catalog order.
func Keys() []string {
	return []string{string(Linear), string(Vector), string(Hierarchical), string(Keyword)}
}

// Parse validates a strategy key from user input.
func Parse(key string) (Strategy, error) {
	s := Strategy(key)
	if !s.IsValid() {
		return "", domain.NewUnknownStrategy("indexing", key, Keys()...)
	}
	return s, nil
}

// Index stores chunks with their metadata and retrieves them by query.
// Implementations are not safe for concurrent mutation; the session
// serializes access.
type Index interface {
	Strategy() Strategy
	// Reset drops all indexed chunks.
	Reset() error
	// Add indexes chunks in order. A missing or short metas slice is
	// padded with zero metadata.
	Add(chunks []string, metas []domain.ChunkMetadata) error
	// Search returns up to topK hits sorted by descending score.
	Search(query string, topK int) ([]domain.SearchHit, error)
	// Len is the number of indexed chunks.
	Len() int
	// Close releases the index. A closed index must not be reused.
	Close() error
}

// New builds an empty index for a strategy.
func New(s Strategy) (Index, error) {
	switch s {
	case Linear:
		return &linearIndex{}, nil
	case Vector:
		return &vectorIndex{}, nil
	case Hierarchical:
		return newHierarchicalIndex(), nil
	case Keyword:
		return newKeywordIndex()
	default:
		return nil, domain.NewUnknownStrategy("indexing", string(s), Keys()...)
	}
}

// Descriptor describes a strategy for catalog listings.
type Descriptor struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Descriptors lists the registered strategies in catalog order.
func Descriptors() []Descriptor {
	return []Descriptor{
		{Key: string(Linear), Name: "Linear scan", Description: "No index structure; substring scan over all chunks."},
		{Key: string(Vector), Name: "Flat vector", Description: "Cosine similarity search with bag-of-words embeddings."},
		{Key: string(Hierarchical), Name: "Hierarchical", Description: "Document and section tree with two-stage cosine scoring."},
		{Key: string(Keyword), Name: "Keyword", Description: "Full-text keyword search backed by an in-memory bleve index."},
	}
}

type storedChunk struct {
	text string
	meta domain.ChunkMetadata
}

// store pairs chunks with metadata, padding missing entries.
func store(chunks []string, metas []domain.ChunkMetadata) []storedChunk {
	out := make([]storedChunk, len(chunks))
	for i, text := range chunks {
		out[i].text = text
		if i < len(metas) {
			out[i].meta = metas[i].Clone()
		}
	}
	return out
}

// sectionRank returns the grouping key for section scoring, deriving it
// from the path or heading when the fold did not set one, and records
// the derived value on the metadata so hits expose it.
func sectionRank(meta *domain.ChunkMetadata) string {
	if meta.SectionRank != "" {
		return meta.SectionRank
	}
	rank := "General"
	if len(meta.SectionPath) > 0 {
		rank = strings.Join(meta.SectionPath, " > ")
	} else if meta.SectionHeading != "" {
		rank = meta.SectionHeading
	}
	meta.SectionRank = rank
	return rank
}

// stampSectionScores computes the best score per section over the full
// hit set and writes it to every hit, then truncates to topK. Scoring
// over all matches keeps the stamp independent of the cutoff.
func stampSectionScores(hits []domain.SearchHit, topK int) []domain.SearchHit {
	best := make(map[string]float64, len(hits))
	for i := range hits {
		rank := sectionRank(&hits[i].Meta)
		if hits[i].Score > best[rank] {
			best[rank] = hits[i].Score
		}
	}
	for i := range hits {
		hits[i].Meta.SectionScore = best[sectionRank(&hits[i].Meta)]
	}
	return truncate(hits, topK)
}

func truncate(hits []domain.SearchHit, topK int) []domain.SearchHit {
	if topK < 0 {
		topK = 0
	}
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}
