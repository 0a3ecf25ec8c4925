package api

import (
	"github.com/docdex-io/docdex/internal/chunking"
	"github.com/docdex-io/docdex/internal/domain"
	"github.com/docdex-io/docdex/internal/evaluation"
	"github.com/docdex-io/docdex/internal/indexing"
	"github.com/docdex-io/docdex/internal/session"
)

// ErrorResponse is the error payload for every failed request.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// SessionCreateResponse answers POST /sessions.
type SessionCreateResponse struct {
	SessionID string `json:"session_id"`
}

// StrategyCatalogResponse lists the available strategies on both axes.
type StrategyCatalogResponse struct {
	Chunking []chunking.Descriptor `json:"chunking"`
	Indexing []indexing.Descriptor `json:"indexing"`
}

// StrategyUpdateRequest switches a session's chunking or indexing
// strategy.
type StrategyUpdateRequest struct {
	Strategy string `json:"strategy"`
}

// AttachmentListResponse answers attachment uploads and listings.
type AttachmentListResponse struct {
	Attachments []session.Info `json:"attachments"`
}

// ChunkPreviewRequest splits text without storing it.
type ChunkPreviewRequest struct {
	Text string `json:"text"`
}

// ChunkPreviewResponse carries the chunks the active strategy produced.
type ChunkPreviewResponse struct {
	Strategy   string   `json:"strategy"`
	ChunkCount int      `json:"chunk_count"`
	Chunks     []string `json:"chunks"`
}

// RebuildResponse answers POST /rebuild.
type RebuildResponse struct {
	IndexSize int `json:"index_size"`
}

// SearchRequest queries the session index.
type SearchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// SearchResult is one retrieved chunk with its provenance metadata.
type SearchResult struct {
	Chunk    string         `json:"chunk"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata"`
}

// SearchResponse answers POST /search.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// SectionsResponse answers POST /sections.
type SectionsResponse struct {
	Sections []session.SectionGroup `json:"sections"`
}

// EvaluationQuery is one labelled query in an evaluation request.
type EvaluationQuery struct {
	Query          string   `json:"query"`
	RelevantChunks []string `json:"relevant_chunks"`
	TopK           int      `json:"top_k"`
}

// EvaluationRequest scores retrieval quality over labelled queries,
// optionally folding in caller-measured efficiency samples.
type EvaluationRequest struct {
	Queries          []EvaluationQuery `json:"queries"`
	LatencySamplesMS []float64         `json:"latency_samples_ms"`
	IndexBuildMS     *float64          `json:"index_build_ms"`
	ThroughputQPS    *float64          `json:"throughput_qps"`
}

// EvaluationPerQueryResult is one query's scores.
type EvaluationPerQueryResult struct {
	Query        string  `json:"query"`
	TopK         int     `json:"top_k"`
	PrecisionAtK float64 `json:"precision_at_k"`
	RecallAtK    float64 `json:"recall_at_k"`
	MRR          float64 `json:"mrr"`
	NDCGAtK      float64 `json:"ndcg_at_k"`
}

// EvaluationResponse answers POST /evaluate.
type EvaluationResponse struct {
	PrecisionAtK float64                    `json:"precision_at_k"`
	RecallAtK    float64                    `json:"recall_at_k"`
	MRR          float64                    `json:"mrr"`
	NDCGAtK      float64                    `json:"ndcg_at_k"`
	Efficiency   *evaluation.Efficiency     `json:"efficiency,omitempty"`
	PerQuery     []EvaluationPerQueryResult `json:"per_query"`
}

// AssistRequest asks a question about the session's documents.
type AssistRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

// AssistResponse answers POST /assist.
type AssistResponse struct {
	Answer  string         `json:"answer"`
	Sources []SearchResult `json:"sources"`
}

// TranscriptResponse answers GET /transcript.
type TranscriptResponse struct {
	Messages []session.Message `json:"messages"`
}

// HealthResponse answers GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func searchResultsToDTO(hits []domain.SearchHit) []SearchResult {
	results := make([]SearchResult, len(hits))
	for i, hit := range hits {
		results[i] = SearchResult{
			Chunk:    hit.Chunk,
			Score:    hit.Score,
			Metadata: metadataToMap(hit.Meta),
		}
	}
	return results
}

// metadataToMap renders chunk metadata with the wire keys clients key
// on. "section" and "attachment_id" ride along as aliases of
// "section_heading" and "document_id".
func metadataToMap(meta domain.ChunkMetadata) map[string]any {
	m := map[string]any{
		"document_id":     meta.DocumentID,
		"attachment_id":   meta.DocumentID,
		"document_label":  meta.DocumentLabel,
		"filename":        meta.Filename,
		"chunk_id":        meta.ChunkID,
		"chunk_index":     meta.ChunkIndex,
		"chunk_count":     meta.ChunkCount,
		"section":         meta.SectionHeading,
		"section_heading": meta.SectionHeading,
		"section_title":   meta.SectionTitle,
		"section_label":   meta.SectionLabel,
		"section_path":    meta.SectionPath,
		"section_rank":    meta.SectionRank,
		"section_level":   meta.SectionLevel,
		"section_score":   meta.SectionScore,
	}
	if meta.SectionIdentifier != "" {
		m["section_identifier"] = meta.SectionIdentifier
	}
	return m
}

func evaluationQueriesToDomain(queries []EvaluationQuery) []evaluation.Query {
	out := make([]evaluation.Query, len(queries))
	for i, q := range queries {
		out[i] = evaluation.Query{
			Query:    q.Query,
			Relevant: q.RelevantChunks,
			TopK:     q.TopK,
		}
	}
	return out
}

func evaluationReportToDTO(report evaluation.Report) EvaluationResponse {
	perQuery := make([]EvaluationPerQueryResult, len(report.PerQuery))
	for i, q := range report.PerQuery {
		perQuery[i] = EvaluationPerQueryResult{
			Query:        q.Query,
			TopK:         q.TopK,
			PrecisionAtK: q.Precision,
			RecallAtK:    q.Recall,
			MRR:          q.MRR,
			NDCGAtK:      q.NDCG,
		}
	}
	return EvaluationResponse{
		PrecisionAtK: report.Precision,
		RecallAtK:    report.Recall,
		MRR:          report.MRR,
		NDCGAtK:      report.NDCG,
		Efficiency:   report.Efficiency,
		PerQuery:     perQuery,
	}
}
