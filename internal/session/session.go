// Package session ties the retrieval pipeline together: attachments go
// through extraction and chunking into a rebuildable index, and every
// retrieval operation runs against the session's live index.
package session

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/docdex-io/docdex/internal/chunking"
	"github.com/docdex-io/docdex/internal/domain"
	"github.com/docdex-io/docdex/internal/evaluation"
	"github.com/docdex-io/docdex/internal/extract"
	"github.com/docdex-io/docdex/internal/indexing"
	"github.com/docdex-io/docdex/internal/metrics"
)

const (
	// DefaultChunking and DefaultIndexing are the strategies a fresh
	// session starts with.
	DefaultChunking = chunking.Fixed
	DefaultIndexing = indexing.Linear

	// DigestChars caps the attachment digest handed to the assistant.
	DigestChars = 2000

	digestPreviewChars  = 320
	summaryPreviewChars = 160
)

// Config carries the collaborators and initial strategies for a session.
// Zero values fall back to defaults.
type Config struct {
	Chunking    chunking.Strategy
	ChunkConfig chunking.Config
	Indexing    indexing.Strategy
	Extractor   extract.Extractor
	Logger      *zap.Logger
}

func (c Config) withDefaults() Config {
	if c.Chunking == "" {
		c.Chunking = DefaultChunking
	}
	if (c.ChunkConfig == chunking.Config{}) {
		c.ChunkConfig = chunking.DefaultConfig()
	}
	if c.Indexing == "" {
		c.Indexing = DefaultIndexing
	}
	if c.Extractor == nil {
		c.Extractor = extract.New()
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}

// Session is a per-client workspace. All operations are safe for
// concurrent use; rebuilds swap in a fully built index so readers never
// observe a partial one.
type Session struct {
	id        string
	extractor extract.Extractor
	log       *zap.Logger

	mu          sync.RWMutex
	chunking    chunking.Strategy
	chunkConfig chunking.Config
	indexing    indexing.Strategy
	attachments []*Attachment
	byID        map[string]*Attachment
	index       indexing.Index
	indexSize   int

	transcript *Transcript
}

// New creates a session with the given id, validating the configured
// strategies.
func New(id string, cfg Config) (*Session, error) {
	cfg = cfg.withDefaults()
	if !cfg.Chunking.IsValid() {
		return nil, domain.NewUnknownStrategy("chunking", string(cfg.Chunking), chunking.Keys()...)
	}
	if !cfg.Indexing.IsValid() {
		return nil, domain.NewUnknownStrategy("indexing", string(cfg.Indexing), indexing.Keys()...)
	}
	if _, err := chunking.New(cfg.Chunking, cfg.ChunkConfig); err != nil {
		return nil, err
	}
	index, err := indexing.New(cfg.Indexing)
	if err != nil {
		return nil, err
	}
	return &Session{
		id:          id,
		extractor:   cfg.Extractor,
		log:         cfg.Logger.With(zap.String("session_id", id)),
		chunking:    cfg.Chunking,
		chunkConfig: cfg.ChunkConfig,
		indexing:    cfg.Indexing,
		byID:        map[string]*Attachment{},
		index:       index,
		transcript:  &Transcript{},
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Transcript returns the session's conversation log.
func (s *Session) Transcript() *Transcript { return s.transcript }

// ChunkingStrategy returns the active chunking strategy.
func (s *Session) ChunkingStrategy() chunking.Strategy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chunking
}

// IndexingStrategy returns the active indexing strategy.
func (s *Session) IndexingStrategy() indexing.Strategy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexing
}

// IndexSize returns the number of chunks in the live index.
func (s *Session) IndexSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexSize
}

// AddAttachment extracts text from the upload, stores the attachment
// and rebuilds the index. On any failure the session is unchanged.
func (s *Session) AddAttachment(filename, contentType string, data []byte) (Info, error) {
	res, err := s.extractor.Extract(filename, contentType, data)
	if err != nil {
		metrics.AttachmentsIngestedTotal.WithLabelValues("unknown", "error").Inc()
		return Info{}, err
	}
	metrics.AttachmentsIngestedTotal.WithLabelValues(string(res.Format), "success").Inc()
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	att := &Attachment{
		ID:          uuid.NewString(),
		Filename:    filename,
		ContentType: contentType,
		Size:        len(data),
		Text:        res.Text,
		AddedAt:     time.Now().UTC(),
		Metadata:    res.Metadata,
		chunks:      map[chunking.Strategy][]string{},
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachments = append(s.attachments, att)
	s.byID[att.ID] = att
	if err := s.rebuildLocked(); err != nil {
		s.attachments = s.attachments[:len(s.attachments)-1]
		delete(s.byID, att.ID)
		return Info{}, err
	}
	s.log.Debug("attachment added",
		zap.String("attachment_id", att.ID),
		zap.String("filename", att.Filename),
		zap.Int("size", att.Size),
		zap.Int("index_size", s.indexSize))
	return att.info(PreviewChars), nil
}

// RemoveAttachment drops the attachment and rebuilds the index.
func (s *Session) RemoveAttachment(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos := -1
	for i, att := range s.attachments {
		if att.ID == id {
			pos = i
			break
		}
	}
	if pos < 0 {
		return fmt.Errorf("attachment %q: %w", id, domain.ErrAttachmentNotFound)
	}
	removed := s.attachments[pos]
	s.attachments = append(s.attachments[:pos], s.attachments[pos+1:]...)
	delete(s.byID, id)
	if err := s.rebuildLocked(); err != nil {
		s.attachments = append(s.attachments[:pos], append([]*Attachment{removed}, s.attachments[pos:]...)...)
		s.byID[id] = removed
		return err
	}
	return nil
}

// Attachments lists attachment summaries in upload order.
func (s *Session) Attachments() []Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	infos := make([]Info, len(s.attachments))
	for i, att := range s.attachments {
		infos[i] = att.info(PreviewChars)
	}
	return infos
}

// Attachment returns one attachment summary.
func (s *Session) Attachment(id string) (Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	att, ok := s.byID[id]
	if !ok {
		return Info{}, fmt.Errorf("attachment %q: %w", id, domain.ErrAttachmentNotFound)
	}
	return att.info(PreviewChars), nil
}

// ChunkText splits text under the session's active chunking strategy
// without storing anything.
func (s *Session) ChunkText(text string) ([]string, error) {
	s.mu.RLock()
	strategy, cfg := s.chunking, s.chunkConfig
	s.mu.RUnlock()
	chunker, err := chunking.New(strategy, cfg)
	if err != nil {
		return nil, err
	}
	return chunker.Chunk(text), nil
}

// SetChunkingStrategy switches the chunking strategy and rebuilds the
// index. Switching to the current strategy is a no-op. Chunk caches for
// strategies already computed are kept.
func (s *Session) SetChunkingStrategy(strategy chunking.Strategy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strategy == s.chunking {
		return nil
	}
	if !strategy.IsValid() {
		return domain.NewUnknownStrategy("chunking", string(strategy), chunking.Keys()...)
	}
	previous := s.chunking
	s.chunking = strategy
	if err := s.rebuildLocked(); err != nil {
		s.chunking = previous
		return err
	}
	s.log.Info("chunking strategy changed", zap.String("strategy", string(strategy)))
	return nil
}

// SetIndexingStrategy switches the indexing strategy and rebuilds the
// index. Switching to the current strategy is a no-op.
func (s *Session) SetIndexingStrategy(strategy indexing.Strategy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strategy == s.indexing {
		return nil
	}
	if !strategy.IsValid() {
		return domain.NewUnknownStrategy("indexing", string(strategy), indexing.Keys()...)
	}
	previous := s.indexing
	s.indexing = strategy
	if err := s.rebuildLocked(); err != nil {
		s.indexing = previous
		return err
	}
	s.log.Info("indexing strategy changed", zap.String("strategy", string(strategy)))
	return nil
}

// Rebuild rebuilds the index from the stored attachments.
func (s *Session) Rebuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rebuildLocked()
}

// rebuildLocked builds a fresh index from every attachment's chunks
// under the active strategies and swaps it in. The old index is closed
// after the swap. Callers hold the write lock.
func (s *Session) rebuildLocked() error {
	start := time.Now()
	fresh, err := indexing.New(s.indexing)
	if err != nil {
		return err
	}
	var chunks []string
	var metas []domain.ChunkMetadata
	for _, att := range s.attachments {
		attChunks, err := s.chunksLocked(att)
		if err != nil {
			return err
		}
		chunks = append(chunks, attChunks...)
		metas = append(metas, FoldMetadata(att.ID, att.Filename, attChunks)...)
	}
	if len(chunks) > 0 {
		if err := fresh.Add(chunks, metas); err != nil {
			return err
		}
	}
	old := s.index
	s.index = fresh
	s.indexSize = len(chunks)
	if old != nil {
		_ = old.Close()
	}
	metrics.IndexBuildDuration.WithLabelValues(string(s.indexing)).Observe(time.Since(start).Seconds())
	metrics.IndexedChunks.WithLabelValues(string(s.indexing)).Set(float64(len(chunks)))
	return nil
}

// chunksLocked returns the attachment's chunks under the active
// strategy, computing and caching them on first use.
func (s *Session) chunksLocked(att *Attachment) ([]string, error) {
	if cached, ok := att.chunks[s.chunking]; ok {
		return cached, nil
	}
	chunker, err := chunking.New(s.chunking, s.chunkConfig)
	if err != nil {
		return nil, err
	}
	out := chunker.Chunk(att.Text)
	att.chunks[s.chunking] = out
	return out, nil
}

// Search returns the top chunks for the query from the live index.
// A closed session yields no hits.
func (s *Session) Search(query string, topK int) ([]domain.SearchHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.index == nil {
		return nil, nil
	}
	start := time.Now()
	hits, err := s.index.Search(query, topK)
	if err != nil {
		metrics.SearchesTotal.WithLabelValues(string(s.indexing), "error").Inc()
		return nil, err
	}
	metrics.SearchesTotal.WithLabelValues(string(s.indexing), "success").Inc()
	metrics.SearchDuration.WithLabelValues(string(s.indexing)).Observe(time.Since(start).Seconds())
	return hits, nil
}

// SectionGroup is one section's aggregate in a section ranking.
type SectionGroup struct {
	SectionRank       string   `json:"section_rank"`
	SectionHeading    string   `json:"section_heading"`
	SectionTitle      string   `json:"section_title"`
	SectionIdentifier string   `json:"section_identifier,omitempty"`
	SectionPath       []string `json:"section_path"`
	DocumentID        string   `json:"document_id"`
	DocumentLabel     string   `json:"document_label"`
	BestChunk         string   `json:"best_chunk"`
	BestChunkScore    float64  `json:"best_chunk_score"`
	Score             float64  `json:"score"`
	ChunkCount        int      `json:"chunk_count"`
	Matches           int      `json:"matches"`
}

// SectionRanking searches with a widened cutoff, groups the hits by
// section rank and orders the groups by their best section score.
func (s *Session) SectionRanking(query string, topK int) ([]SectionGroup, error) {
	wide := topK * 3
	if wide < topK {
		wide = topK
	}
	hits, err := s.Search(query, wide)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, nil
	}

	groups := map[string]*SectionGroup{}
	var order []*SectionGroup
	for _, hit := range hits {
		meta := hit.Meta
		rank := meta.SectionRank
		if rank == "" {
			rank = meta.SectionHeading
		}
		if rank == "" {
			rank = "General"
		}
		heading := meta.SectionHeading
		if heading == "" {
			heading = "General"
		}
		sectionScore := meta.SectionScore
		if sectionScore == 0 {
			sectionScore = hit.Score
		}

		group, ok := groups[rank]
		if !ok {
			title := meta.SectionTitle
			if title == "" {
				title = heading
			}
			label := meta.DocumentLabel
			if label == "" {
				label = meta.Filename
			}
			group = &SectionGroup{
				SectionRank:       rank,
				SectionHeading:    heading,
				SectionTitle:      title,
				SectionIdentifier: meta.SectionIdentifier,
				SectionPath:       append([]string(nil), meta.SectionPath...),
				DocumentID:        meta.DocumentID,
				DocumentLabel:     label,
				BestChunk:         hit.Chunk,
				BestChunkScore:    hit.Score,
				Score:             sectionScore,
				ChunkCount:        meta.ChunkCount,
			}
			groups[rank] = group
			order = append(order, group)
		}
		group.Matches++
		if sectionScore > group.Score {
			group.Score = sectionScore
		}
		if hit.Score > group.BestChunkScore {
			group.BestChunkScore = hit.Score
			group.BestChunk = hit.Chunk
		}
	}

	sort.SliceStable(order, func(i, j int) bool { return order[i].Score > order[j].Score })
	if len(order) > topK {
		order = order[:topK]
	}
	out := make([]SectionGroup, len(order))
	for i, g := range order {
		out[i] = *g
	}
	return out, nil
}

// Evaluate scores the session's retrieval quality against labelled
// queries.
func (s *Session) Evaluate(queries []evaluation.Query, defaultTopK int, eff *evaluation.EfficiencyInput) (evaluation.Report, error) {
	return evaluation.Evaluate(s, queries, defaultTopK, eff)
}

// Digest renders a compact multi-attachment summary for prompt context.
// The result stays within charLimit runes.
func (s *Session) Digest(charLimit int) string {
	if charLimit <= 0 {
		charLimit = DigestChars
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.attachments) == 0 {
		return ""
	}
	var pieces []string
	remaining := charLimit
	for _, att := range s.attachments {
		if remaining <= 0 {
			break
		}
		previewLimit := digestPreviewChars
		if remaining < previewLimit {
			previewLimit = remaining
		}
		chunkCount := len(att.chunks[s.chunking])
		entry := fmt.Sprintf("%s (chunks: %d, added %s):\n%s",
			att.Filename, chunkCount, att.AddedAt.Format("2006-01-02"), att.Preview(previewLimit))
		pieces = append(pieces, entry)
		remaining -= len([]rune(entry))
	}
	digest := []rune(strings.Join(pieces, "\n\n"))
	if len(digest) > charLimit {
		digest = digest[:charLimit]
	}
	return string(digest)
}

// Summary reports the session's configuration and contents.
type Summary struct {
	SessionID        string `json:"session_id"`
	ChunkingStrategy string `json:"chunking_strategy"`
	IndexingStrategy string `json:"indexing_strategy"`
	IndexSize        int    `json:"index_size"`
	Attachments      []Info `json:"attachments"`
}

// Summary returns the session state snapshot.
func (s *Session) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	infos := make([]Info, len(s.attachments))
	for i, att := range s.attachments {
		infos[i] = att.info(summaryPreviewChars)
	}
	return Summary{
		SessionID:        s.id,
		ChunkingStrategy: string(s.chunking),
		IndexingStrategy: string(s.indexing),
		IndexSize:        s.indexSize,
		Attachments:      infos,
	}
}

// Close releases the session's index.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == nil {
		return nil
	}
	err := s.index.Close()
	s.index = nil
	return err
}
