package session

import (
	"errors"
	"strings"
	"testing"

	"github.com/docdex-io/docdex/internal/chunking"
	"github.com/docdex-io/docdex/internal/domain"
	"github.com/docdex-io/docdex/internal/evaluation"
	"github.com/docdex-io/docdex/internal/indexing"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	sess, err := New("test-session", Config{})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return sess
}

func addText(t *testing.T, sess *Session, filename, text string) Info {
	t.Helper()
	info, err := sess.AddAttachment(filename, "text/plain", []byte(text))
	if err != nil {
		t.Fatalf("AddAttachment(%q) returned error: %v", filename, err)
	}
	return info
}

func TestNew_Defaults(t *testing.T) {
	sess := newTestSession(t)
	if sess.ChunkingStrategy() != chunking.Fixed {
		t.Errorf("chunking = %q, want %q", sess.ChunkingStrategy(), chunking.Fixed)
	}
	if sess.IndexingStrategy() != indexing.Linear {
		t.Errorf("indexing = %q, want %q", sess.IndexingStrategy(), indexing.Linear)
	}
	if sess.IndexSize() != 0 {
		t.Errorf("index size = %d, want 0", sess.IndexSize())
	}
	summary := sess.Summary()
	if summary.SessionID != "test-session" || len(summary.Attachments) != 0 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestNew_InvalidStrategy(t *testing.T) {
	if _, err := New("s", Config{Chunking: "bogus"}); !errors.Is(err, domain.ErrUnknownStrategy) {
		t.Errorf("chunking error = %v, want ErrUnknownStrategy", err)
	}
	if _, err := New("s", Config{Indexing: "bogus"}); !errors.Is(err, domain.ErrUnknownStrategy) {
		t.Errorf("indexing error = %v, want ErrUnknownStrategy", err)
	}
	cfg := Config{ChunkConfig: chunking.Config{WindowSize: 10, WindowOverlap: 10, SemanticMinSize: 1}}
	if _, err := New("s", cfg); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Errorf("config error = %v, want ErrInvalidConfig", err)
	}
}

func TestSession_AddAttachmentIndexesChunks(t *testing.T) {
	sess := newTestSession(t)
	info := addText(t, sess, "billing.txt", "2. Billing\nInvoices are issued monthly with payment terms.")

	if info.ID == "" {
		t.Fatal("attachment id is empty")
	}
	if info.WordCount == 0 || info.Size == 0 {
		t.Errorf("info = %+v, want populated counts", info)
	}
	if sess.IndexSize() == 0 {
		t.Fatal("index size = 0 after attachment")
	}

	hits, err := sess.Search("invoices", 5)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("hit count = %d, want 1", len(hits))
	}
	if hits[0].Meta.DocumentID != info.ID {
		t.Errorf("hit document = %q, want %q", hits[0].Meta.DocumentID, info.ID)
	}
	if hits[0].Meta.SectionRank != "2 > Billing" {
		t.Errorf("hit section rank = %q", hits[0].Meta.SectionRank)
	}
}

func TestSession_AddAttachmentExtractionFailure(t *testing.T) {
	sess := newTestSession(t)
	_, err := sess.AddAttachment("broken.docx", "", []byte("not a zip archive"))
	if !errors.Is(err, domain.ErrExtraction) {
		t.Fatalf("error = %v, want ErrExtraction", err)
	}
	if len(sess.Attachments()) != 0 {
		t.Errorf("attachments = %d, want 0 after failed upload", len(sess.Attachments()))
	}
	if sess.IndexSize() != 0 {
		t.Errorf("index size = %d, want 0 after failed upload", sess.IndexSize())
	}
}

func TestSession_RemoveAttachment(t *testing.T) {
	sess := newTestSession(t)
	first := addText(t, sess, "pricing.txt", "1. Pricing\nPlans start at ten dollars per seat.")
	second := addText(t, sess, "support.txt", "2. Support\nEmail support responds within one day.")

	if err := sess.RemoveAttachment(first.ID); err != nil {
		t.Fatalf("RemoveAttachment returned error: %v", err)
	}
	infos := sess.Attachments()
	if len(infos) != 1 || infos[0].ID != second.ID {
		t.Fatalf("attachments = %+v, want only the second", infos)
	}
	hits, err := sess.Search("pricing", 5)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("hits = %d, removed document still indexed", len(hits))
	}

	if err := sess.RemoveAttachment("missing"); !errors.Is(err, domain.ErrAttachmentNotFound) {
		t.Errorf("error = %v, want ErrAttachmentNotFound", err)
	}
}

func TestSession_SetChunkingStrategy(t *testing.T) {
	sess := newTestSession(t)
	addText(t, sess, "doc.txt", "1. Intro\nSome text about the product.")

	if err := sess.SetChunkingStrategy(chunking.Whole); err != nil {
		t.Fatalf("SetChunkingStrategy returned error: %v", err)
	}
	if sess.ChunkingStrategy() != chunking.Whole {
		t.Errorf("chunking = %q, want %q", sess.ChunkingStrategy(), chunking.Whole)
	}

	// Caches for both computed strategies survive the switch.
	info := sess.Attachments()[0]
	if _, ok := info.ChunkCounts[string(chunking.Fixed)]; !ok {
		t.Errorf("chunk counts = %v, fixed cache dropped", info.ChunkCounts)
	}
	if _, ok := info.ChunkCounts[string(chunking.Whole)]; !ok {
		t.Errorf("chunk counts = %v, whole cache missing", info.ChunkCounts)
	}

	if err := sess.SetChunkingStrategy(chunking.Whole); err != nil {
		t.Errorf("same-strategy switch returned error: %v", err)
	}
	if err := sess.SetChunkingStrategy("bogus"); !errors.Is(err, domain.ErrUnknownStrategy) {
		t.Errorf("error = %v, want ErrUnknownStrategy", err)
	}
}

func TestSession_SetIndexingStrategy(t *testing.T) {
	sess := newTestSession(t)
	addText(t, sess, "pricing.txt", "1. Pricing\nPlans start at ten dollars per seat.")

	if err := sess.SetIndexingStrategy(indexing.Vector); err != nil {
		t.Fatalf("SetIndexingStrategy returned error: %v", err)
	}
	if sess.IndexingStrategy() != indexing.Vector {
		t.Errorf("indexing = %q, want %q", sess.IndexingStrategy(), indexing.Vector)
	}
	hits, err := sess.Search("pricing plans dollars", 5)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(hits) != 1 || hits[0].Score <= 0 {
		t.Fatalf("hits = %+v, want one scored hit", hits)
	}

	if err := sess.SetIndexingStrategy(indexing.Vector); err != nil {
		t.Errorf("same-strategy switch returned error: %v", err)
	}
	if err := sess.SetIndexingStrategy("bogus"); !errors.Is(err, domain.ErrUnknownStrategy) {
		t.Errorf("error = %v, want ErrUnknownStrategy", err)
	}
}

func TestSession_SearchBlankQuery(t *testing.T) {
	sess := newTestSession(t)
	addText(t, sess, "doc.txt", "content here")
	hits, err := sess.Search("", 5)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("hits = %d, want 0 for blank query", len(hits))
	}
}

func TestSession_SectionRanking(t *testing.T) {
	sess := newTestSession(t)
	pricing := addText(t, sess, "pricing.txt", "1. Pricing\nPlans start at ten dollars per month per seat.")
	addText(t, sess, "support.txt", "2. Support\nEmail support responds within one business day.")
	if err := sess.SetIndexingStrategy(indexing.Vector); err != nil {
		t.Fatalf("SetIndexingStrategy returned error: %v", err)
	}

	groups, err := sess.SectionRanking("pricing plans dollars", 5)
	if err != nil {
		t.Fatalf("SectionRanking returned error: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("group count = %d, want 1 (%+v)", len(groups), groups)
	}
	g := groups[0]
	if g.SectionRank != "1 > Pricing" || g.SectionHeading != "1. Pricing" {
		t.Errorf("group section = (%q, %q)", g.SectionRank, g.SectionHeading)
	}
	if g.DocumentID != pricing.ID || g.DocumentLabel != "pricing.txt" {
		t.Errorf("group document = (%q, %q)", g.DocumentID, g.DocumentLabel)
	}
	if g.Matches != 1 || g.ChunkCount != 1 {
		t.Errorf("group counts = (matches %d, chunks %d)", g.Matches, g.ChunkCount)
	}
	if g.Score <= 0 || g.Score != g.BestChunkScore {
		t.Errorf("group scores = (%v, %v)", g.Score, g.BestChunkScore)
	}
	if !strings.Contains(g.BestChunk, "Plans start") {
		t.Errorf("best chunk = %q", g.BestChunk)
	}

	empty, err := sess.SectionRanking("", 5)
	if err != nil {
		t.Fatalf("SectionRanking returned error: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("groups = %d for blank query, want 0", len(empty))
	}
}

func TestSession_Evaluate(t *testing.T) {
	sess := newTestSession(t)
	addText(t, sess, "pricing.txt", "1. Pricing\nPlans start at ten dollars per seat.")

	report, err := sess.Evaluate([]evaluation.Query{
		{Query: "pricing", Relevant: []string{"Plans start at ten dollars"}},
	}, evaluation.DefaultTopK, nil)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if len(report.PerQuery) != 1 {
		t.Fatalf("per-query count = %d, want 1", len(report.PerQuery))
	}
	if report.Precision != 1 || report.Recall != 1 || report.MRR != 1 || report.NDCG != 1 {
		t.Errorf("report = %+v, want perfect scores", report)
	}
}

func TestSession_ChunkText(t *testing.T) {
	sess := newTestSession(t)
	chunks, err := sess.ChunkText("hello world")
	if err != nil {
		t.Fatalf("ChunkText returned error: %v", err)
	}
	if len(chunks) != 1 || chunks[0] != "hello world" {
		t.Errorf("chunks = %v", chunks)
	}
}

func TestSession_Digest(t *testing.T) {
	sess := newTestSession(t)
	if sess.Digest(0) != "" {
		t.Errorf("digest for empty session = %q, want empty", sess.Digest(0))
	}
	addText(t, sess, "a.txt", "1. Alpha\nAlpha body text.")
	addText(t, sess, "b.txt", "2. Beta\nBeta body text.")

	digest := sess.Digest(0)
	if !strings.Contains(digest, "a.txt") || !strings.Contains(digest, "b.txt") {
		t.Errorf("digest = %q, want both filenames", digest)
	}
	if !strings.Contains(digest, "chunks: 1") {
		t.Errorf("digest = %q, want chunk counts", digest)
	}
	if len([]rune(digest)) > DigestChars {
		t.Errorf("digest length = %d, exceeds cap", len([]rune(digest)))
	}
}

func TestSession_RebuildIdempotent(t *testing.T) {
	sess := newTestSession(t)
	addText(t, sess, "doc.txt", "some indexed text")
	before := sess.IndexSize()
	if err := sess.Rebuild(); err != nil {
		t.Fatalf("Rebuild returned error: %v", err)
	}
	if sess.IndexSize() != before {
		t.Errorf("index size = %d after rebuild, want %d", sess.IndexSize(), before)
	}
}

func TestSession_CloseStopsSearch(t *testing.T) {
	sess := newTestSession(t)
	addText(t, sess, "doc.txt", "some indexed text")
	if err := sess.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	hits, err := sess.Search("indexed", 5)
	if err != nil {
		t.Fatalf("Search after close returned error: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("hits = %d after close, want 0", len(hits))
	}
}
