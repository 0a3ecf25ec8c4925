package indexing

import (
	"strings"
	"testing"

	"github.com/docdex-io/docdex/internal/domain"
)

func newKeywordForTest(t *testing.T) *keywordIndex {
	t.Helper()
	idx, err := newKeywordIndex()
	if err != nil {
		t.Fatalf("newKeywordIndex: %v", err)
	}
	return idx
}

func TestKeywordSearch_MatchesTerms(t *testing.T) {
	idx := newKeywordForTest(t)
	err := idx.Add(
		[]string{"Billing invoices are sent monthly", "Shipping updates arrive by email"},
		[]domain.ChunkMetadata{billingMeta(0), billingMeta(1)},
	)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	hits, err := idx.Search("billing", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d: %v", len(hits), hits)
	}
	if !strings.Contains(hits[0].Chunk, "Billing") {
		t.Errorf("hit chunk = %q", hits[0].Chunk)
	}
	if hits[0].Score <= 0 {
		t.Errorf("hit score = %v, want > 0", hits[0].Score)
	}
	if hits[0].Meta.SectionRank != "2 > Billing" {
		t.Errorf("hit metadata lost: %+v", hits[0].Meta)
	}
	if hits[0].Meta.SectionScore <= 0 {
		t.Errorf("section score not stamped: %+v", hits[0].Meta)
	}
}

func TestKeywordSearch_MissReturnsEmpty(t *testing.T) {
	idx := newKeywordForTest(t)
	if err := idx.Add([]string{"alpha content", "beta content"}, nil); err != nil {
		t.Fatalf("Add: %v", err)
	}
	hits, err := idx.Search("zebra", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits, got %v", hits)
	}
}

func TestKeywordSearch_TopKTruncates(t *testing.T) {
	idx := newKeywordForTest(t)
	err := idx.Add([]string{
		"invoice alpha details",
		"invoice beta details",
		"invoice gamma details",
	}, nil)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	hits, err := idx.Search("invoice", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	for i := 1; i < len(hits); i++ {
		if hits[i-1].Score < hits[i].Score {
			t.Errorf("hits not sorted by score: %v then %v", hits[i-1].Score, hits[i].Score)
		}
	}
}

func TestKeywordSearch_EmptyQueryAndEmptyIndex(t *testing.T) {
	idx := newKeywordForTest(t)
	if hits, _ := idx.Search("query", 5); len(hits) != 0 {
		t.Errorf("empty index should yield no hits, got %v", hits)
	}
	if err := idx.Add([]string{"content"}, nil); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if hits, _ := idx.Search("", 5); len(hits) != 0 {
		t.Errorf("empty query should yield no hits, got %v", hits)
	}
}

func TestKeywordSearch_SectionScoreIsSectionMax(t *testing.T) {
	idx := newKeywordForTest(t)
	billing := domain.ChunkMetadata{SectionRank: "Billing"}
	err := idx.Add([]string{
		"invoice numbers and invoice totals for the quarter",
		"a single invoice reference inside much longer filler text about unrelated matters",
	}, []domain.ChunkMetadata{billing, billing})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	hits, err := idx.Search("invoice", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}

	max := hits[0].Score
	if hits[1].Score > max {
		max = hits[1].Score
	}
	for _, h := range hits {
		if h.Meta.SectionScore != max {
			t.Errorf("SectionScore = %v, want section max %v", h.Meta.SectionScore, max)
		}
	}
}

func TestKeywordReset_IndexIsReusable(t *testing.T) {
	idx := newKeywordForTest(t)
	if err := idx.Add([]string{"first generation chunk"}, nil); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := idx.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if idx.Len() != 0 {
		t.Errorf("Len after reset = %d, want 0", idx.Len())
	}
	if hits, _ := idx.Search("generation", 5); len(hits) != 0 {
		t.Errorf("reset index should yield no hits, got %v", hits)
	}

	if err := idx.Add([]string{"second generation chunk"}, nil); err != nil {
		t.Fatalf("Add after reset: %v", err)
	}
	hits, err := idx.Search("generation", 5)
	if err != nil {
		t.Fatalf("Search after reset: %v", err)
	}
	if len(hits) != 1 || !strings.Contains(hits[0].Chunk, "second") {
		t.Errorf("unexpected hits after reset: %v", hits)
	}
}
