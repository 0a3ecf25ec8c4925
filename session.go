package docdex

import (
	"context"
	"fmt"

	"github.com/docdex-io/docdex/internal/assist"
	"github.com/docdex-io/docdex/internal/chunking"
	"github.com/docdex-io/docdex/internal/domain"
	"github.com/docdex-io/docdex/internal/evaluation"
	"github.com/docdex-io/docdex/internal/indexing"
	"github.com/docdex-io/docdex/internal/session"
)

// Session is one isolated retrieval workspace: its attachments, its
// chunking and indexing strategies, and the index built from them.
// Safe for concurrent use.
type Session struct {
	inner  *session.Session
	assist *assist.Service
}

// ID returns the session id used with Client.Session.
func (s *Session) ID() string {
	return s.inner.ID()
}

// ChunkingStrategy reports the active chunking strategy.
func (s *Session) ChunkingStrategy() ChunkingStrategy {
	return ChunkingStrategy(s.inner.ChunkingStrategy())
}

// IndexingStrategy reports the active indexing strategy.
func (s *Session) IndexingStrategy() IndexingStrategy {
	return IndexingStrategy(s.inner.IndexingStrategy())
}

// IndexSize reports the number of chunks in the live index.
func (s *Session) IndexSize() int {
	return s.inner.IndexSize()
}

// AddAttachment extracts text from the payload, chunks it and indexes
// the chunks. The content type may be empty; the filename extension
// decides the parser first.
func (s *Session) AddAttachment(filename, contentType string, data []byte) (AttachmentInfo, error) {
	info, err := s.inner.AddAttachment(filename, contentType, data)
	if err != nil {
		return AttachmentInfo{}, fmt.Errorf("add attachment: %w", err)
	}
	return fromAttachmentInfo(info), nil
}

// RemoveAttachment drops an attachment and rebuilds the index without
// it. Returns ErrAttachmentNotFound for unknown ids.
func (s *Session) RemoveAttachment(id string) error {
	if err := s.inner.RemoveAttachment(id); err != nil {
		return fmt.Errorf("remove attachment: %w", err)
	}
	return nil
}

// Attachments lists the session's attachments in insertion order.
func (s *Session) Attachments() []AttachmentInfo {
	return fromAttachmentInfos(s.inner.Attachments())
}

// Attachment returns one attachment by id.
func (s *Session) Attachment(id string) (AttachmentInfo, error) {
	info, err := s.inner.Attachment(id)
	if err != nil {
		return AttachmentInfo{}, fmt.Errorf("attachment: %w", err)
	}
	return fromAttachmentInfo(info), nil
}

// SetChunking switches the chunking strategy and rebuilds the index
// from the stored attachments.
func (s *Session) SetChunking(strategy ChunkingStrategy) error {
	parsed, err := chunking.Parse(string(strategy))
	if err != nil {
		return fmt.Errorf("set chunking: %w", err)
	}
	if err := s.inner.SetChunkingStrategy(parsed); err != nil {
		return fmt.Errorf("set chunking: %w", err)
	}
	return nil
}

// SetIndexing switches the indexing strategy and rebuilds the index
// from the stored attachments.
func (s *Session) SetIndexing(strategy IndexingStrategy) error {
	parsed, err := indexing.Parse(string(strategy))
	if err != nil {
		return fmt.Errorf("set indexing: %w", err)
	}
	if err := s.inner.SetIndexingStrategy(parsed); err != nil {
		return fmt.Errorf("set indexing: %w", err)
	}
	return nil
}

// ChunkText splits arbitrary text with the session's active chunking
// strategy without touching the index. Useful for previewing how a
// document would be cut.
func (s *Session) ChunkText(text string) ([]string, error) {
	chunks, err := s.inner.ChunkText(text)
	if err != nil {
		return nil, fmt.Errorf("chunk text: %w", err)
	}
	return chunks, nil
}

// Rebuild re-chunks and re-indexes every attachment with the current
// strategies.
func (s *Session) Rebuild() error {
	if err := s.inner.Rebuild(); err != nil {
		return fmt.Errorf("rebuild: %w", err)
	}
	return nil
}

// Search returns up to topK chunks ranked by the active index.
func (s *Session) Search(query string, topK int) ([]SearchHit, error) {
	hits, err := s.inner.Search(query, topK)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return fromSearchHits(hits), nil
}

// Sections searches like Search but folds the hits into their detected
// sections, ranked by combined relevance.
func (s *Session) Sections(query string, topK int) ([]SectionGroup, error) {
	groups, err := s.inner.SectionRanking(query, topK)
	if err != nil {
		return nil, fmt.Errorf("sections: %w", err)
	}
	return fromSectionGroups(groups), nil
}

// Evaluate scores the active configuration against labelled queries.
// Queries without a TopK use defaultTopK, and a zero defaultTopK falls
// back to the evaluation default of 5.
func (s *Session) Evaluate(queries []EvaluationQuery, defaultTopK int) (EvaluationReport, error) {
	report, err := s.inner.Evaluate(toEvaluationQueries(queries), defaultTopK, nil)
	if err != nil {
		return EvaluationReport{}, fmt.Errorf("evaluate: %w", err)
	}
	return fromEvaluationReport(report), nil
}

// Ask retrieves the chunks most relevant to the question and has the
// configured Completer answer from them. Without a Completer the
// answer is an offline digest of the sources.
func (s *Session) Ask(ctx context.Context, question string, topK int) (Answer, error) {
	answer, err := s.assist.Ask(ctx, s.inner, question, topK)
	if err != nil {
		return Answer{}, fmt.Errorf("ask: %w", err)
	}
	return Answer{
		Answer:  answer.Answer,
		Sources: fromSearchHits(answer.Sources),
	}, nil
}

// Summary snapshots the session state.
func (s *Session) Summary() SessionSummary {
	sum := s.inner.Summary()
	return SessionSummary{
		SessionID:        sum.SessionID,
		ChunkingStrategy: ChunkingStrategy(sum.ChunkingStrategy),
		IndexingStrategy: IndexingStrategy(sum.IndexingStrategy),
		IndexSize:        sum.IndexSize,
		Attachments:      fromAttachmentInfos(sum.Attachments),
	}
}

// Digest renders a compact overview of the session's attachments,
// capped at charLimit runes. A non-positive limit uses the built-in
// default. Useful as prompt context for a Completer.
func (s *Session) Digest(charLimit int) string {
	return s.inner.Digest(charLimit)
}

func fromChunkMetadata(meta domain.ChunkMetadata) ChunkMetadata {
	var path []string
	if len(meta.SectionPath) > 0 {
		path = append(path, meta.SectionPath...)
	}
	return ChunkMetadata{
		DocumentID:        meta.DocumentID,
		DocumentLabel:     meta.DocumentLabel,
		Filename:          meta.Filename,
		ChunkID:           meta.ChunkID,
		ChunkIndex:        meta.ChunkIndex,
		ChunkCount:        meta.ChunkCount,
		SectionHeading:    meta.SectionHeading,
		SectionTitle:      meta.SectionTitle,
		SectionIdentifier: meta.SectionIdentifier,
		SectionLabel:      meta.SectionLabel,
		SectionPath:       path,
		SectionRank:       meta.SectionRank,
		SectionLevel:      meta.SectionLevel,
		SectionScore:      meta.SectionScore,
	}
}

func fromSearchHits(hits []domain.SearchHit) []SearchHit {
	out := make([]SearchHit, len(hits))
	for i, hit := range hits {
		out[i] = SearchHit{
			Chunk:    hit.Chunk,
			Score:    hit.Score,
			Metadata: fromChunkMetadata(hit.Meta),
		}
	}
	return out
}

func fromSectionGroups(groups []session.SectionGroup) []SectionGroup {
	out := make([]SectionGroup, len(groups))
	for i, g := range groups {
		var path []string
		if len(g.SectionPath) > 0 {
			path = append(path, g.SectionPath...)
		}
		out[i] = SectionGroup{
			SectionRank:       g.SectionRank,
			SectionHeading:    g.SectionHeading,
			SectionTitle:      g.SectionTitle,
			SectionIdentifier: g.SectionIdentifier,
			SectionPath:       path,
			DocumentID:        g.DocumentID,
			DocumentLabel:     g.DocumentLabel,
			BestChunk:         g.BestChunk,
			BestChunkScore:    g.BestChunkScore,
			Score:             g.Score,
			ChunkCount:        g.ChunkCount,
			Matches:           g.Matches,
		}
	}
	return out
}

func fromAttachmentInfo(info session.Info) AttachmentInfo {
	out := AttachmentInfo{
		ID:          info.ID,
		Filename:    info.Filename,
		ContentType: info.ContentType,
		Size:        info.Size,
		WordCount:   info.WordCount,
		AddedAt:     info.AddedAt,
		Preview:     info.Preview,
	}
	if len(info.Metadata) > 0 {
		out.Metadata = make(map[string]string, len(info.Metadata))
		for k, v := range info.Metadata {
			out.Metadata[k] = v
		}
	}
	if len(info.ChunkCounts) > 0 {
		out.ChunkCounts = make(map[string]int, len(info.ChunkCounts))
		for k, v := range info.ChunkCounts {
			out.ChunkCounts[k] = v
		}
	}
	return out
}

func fromAttachmentInfos(infos []session.Info) []AttachmentInfo {
	out := make([]AttachmentInfo, len(infos))
	for i, info := range infos {
		out[i] = fromAttachmentInfo(info)
	}
	return out
}

func toEvaluationQueries(queries []EvaluationQuery) []evaluation.Query {
	out := make([]evaluation.Query, len(queries))
	for i, q := range queries {
		out[i] = evaluation.Query{
			Query:    q.Query,
			Relevant: append([]string(nil), q.Relevant...),
			TopK:     q.TopK,
		}
	}
	return out
}

func fromEvaluationReport(report evaluation.Report) EvaluationReport {
	out := EvaluationReport{
		Precision: report.Precision,
		Recall:    report.Recall,
		MRR:       report.MRR,
		NDCG:      report.NDCG,
	}
	if len(report.PerQuery) > 0 {
		out.PerQuery = make([]EvaluationResult, len(report.PerQuery))
		for i, qr := range report.PerQuery {
			out.PerQuery[i] = EvaluationResult{
				Query:     qr.Query,
				TopK:      qr.TopK,
				Precision: qr.Precision,
				Recall:    qr.Recall,
				MRR:       qr.MRR,
				NDCG:      qr.NDCG,
				Retrieved: qr.Retrieved,
				Relevant:  qr.Relevant,
			}
		}
	}
	return out
}
