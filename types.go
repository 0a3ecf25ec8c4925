package docdex

import "time"

// ChunkingStrategy selects how attachment text is split into chunks.
type ChunkingStrategy string

const (
	// ChunkingWhole keeps each document as a single chunk.
	ChunkingWhole ChunkingStrategy = "whole"
	// ChunkingFixed slides a fixed-size rune window over the text.
	ChunkingFixed ChunkingStrategy = "fixed"
	// ChunkingSemantic splits on structural boundaries such as
	// headings and blank lines, merging undersized segments.
	ChunkingSemantic ChunkingStrategy = "semantic"
)

// IndexingStrategy selects how chunks are stored and searched.
type IndexingStrategy string

const (
	// IndexingLinear scans every chunk with lexical overlap scoring.
	IndexingLinear IndexingStrategy = "linear"
	// IndexingVector ranks chunks by hashed embedding similarity.
	IndexingVector IndexingStrategy = "vector"
	// IndexingHierarchical routes queries through section summaries
	// before scoring chunks.
	IndexingHierarchical IndexingStrategy = "hierarchical"
	// IndexingKeyword searches a BM25 full-text index.
	IndexingKeyword IndexingStrategy = "keyword"
)

// StrategyDescriptor names one strategy for capability listings.
type StrategyDescriptor struct {
	Key         string
	Name        string
	Description string
}

// ChunkMetadata carries the provenance of one indexed chunk.
type ChunkMetadata struct {
	DocumentID        string
	DocumentLabel     string
	Filename          string
	ChunkID           string
	ChunkIndex        int
	ChunkCount        int
	SectionHeading    string
	SectionTitle      string
	SectionIdentifier string
	SectionLabel      string
	SectionPath       []string
	SectionRank       string
	SectionLevel      int
	SectionScore      float64
}

// SearchHit is one scored retrieval result.
type SearchHit struct {
	Chunk    string
	Score    float64
	Metadata ChunkMetadata
}

// SectionGroup aggregates the hits that fall inside one detected
// section, ordered by combined relevance.
type SectionGroup struct {
	SectionRank       string
	SectionHeading    string
	SectionTitle      string
	SectionIdentifier string
	SectionPath       []string
	DocumentID        string
	DocumentLabel     string
	BestChunk         string
	BestChunkScore    float64
	Score             float64
	ChunkCount        int
	Matches           int
}

// AttachmentInfo summarises one attachment without its raw bytes.
type AttachmentInfo struct {
	ID          string
	Filename    string
	ContentType string
	Size        int
	WordCount   int
	AddedAt     time.Time
	Preview     string
	Metadata    map[string]string
	ChunkCounts map[string]int
}

// SessionSummary is a point-in-time snapshot of one session.
type SessionSummary struct {
	SessionID        string
	ChunkingStrategy ChunkingStrategy
	IndexingStrategy IndexingStrategy
	IndexSize        int
	Attachments      []AttachmentInfo
}

// EvaluationQuery is one labelled query for retrieval scoring. A chunk
// counts as relevant when it contains any of the Relevant substrings.
// TopK falls back to the evaluation default when zero.
type EvaluationQuery struct {
	Query    string
	Relevant []string
	TopK     int
}

// EvaluationResult scores one query.
type EvaluationResult struct {
	Query     string
	TopK      int
	Precision float64
	Recall    float64
	MRR       float64
	NDCG      float64
	Retrieved int
	Relevant  int
}

// EvaluationReport aggregates retrieval quality over a query suite.
type EvaluationReport struct {
	Precision float64
	Recall    float64
	MRR       float64
	NDCG      float64
	PerQuery  []EvaluationResult
}

// Answer is an assistant reply grounded in retrieved chunks.
type Answer struct {
	Answer  string
	Sources []SearchHit
}
