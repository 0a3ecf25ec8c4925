package evaluation

import (
	"errors"
	"testing"

	"github.com/docdex-io/docdex/internal/domain"
)

type stubSearcher struct {
	hits map[string][]domain.SearchHit
	err  error
}

func (s *stubSearcher) Search(query string, topK int) ([]domain.SearchHit, error) {
	if s.err != nil {
		return nil, s.err
	}
	hits := s.hits[query]
	if topK >= 0 && topK < len(hits) {
		hits = hits[:topK]
	}
	return hits, nil
}

func hitsFor(chunks ...string) []domain.SearchHit {
	hits := make([]domain.SearchHit, len(chunks))
	for i, c := range chunks {
		hits[i] = domain.SearchHit{Chunk: c, Score: 1}
	}
	return hits
}

func TestEvaluate_NoQueries(t *testing.T) {
	eff := &EfficiencyInput{LatenciesMS: []float64{1, 2, 3}}
	report, err := Evaluate(&stubSearcher{}, nil, DefaultTopK, eff)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if report.Precision != 0 || report.Recall != 0 || report.MRR != 0 || report.NDCG != 0 {
		t.Errorf("empty evaluation scored non-zero: %+v", report)
	}
	if report.PerQuery == nil || len(report.PerQuery) != 0 {
		t.Errorf("PerQuery = %v, want empty slice", report.PerQuery)
	}
	if report.Efficiency != nil {
		t.Errorf("Efficiency = %+v, want nil without any queries", report.Efficiency)
	}
}

func TestEvaluate_PerfectSingleQuery(t *testing.T) {
	searcher := &stubSearcher{hits: map[string][]domain.SearchHit{
		"payment retries": hitsFor("Payment retries use exponential backoff."),
	}}
	queries := []Query{{Query: "payment retries", Relevant: []string{"payment retries"}}}

	report, err := Evaluate(searcher, queries, DefaultTopK, nil)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if len(report.PerQuery) != 1 {
		t.Fatalf("PerQuery count = %d, want 1", len(report.PerQuery))
	}
	got := report.PerQuery[0]
	if !almostEqual(got.Precision, 1) || !almostEqual(got.Recall, 1) || !almostEqual(got.MRR, 1) || !almostEqual(got.NDCG, 1) {
		t.Errorf("perfect retrieval scored %+v", got)
	}
	if got.TopK != DefaultTopK {
		t.Errorf("TopK = %d, want default %d", got.TopK, DefaultTopK)
	}
	if got.Retrieved != 1 || got.Relevant != 1 {
		t.Errorf("counts = (%d, %d), want (1, 1)", got.Retrieved, got.Relevant)
	}
	if !almostEqual(report.Precision, 1) || !almostEqual(report.Recall, 1) {
		t.Errorf("aggregates = (%v, %v), want (1, 1)", report.Precision, report.Recall)
	}
}

func TestEvaluate_SkipsBlankQueries(t *testing.T) {
	searcher := &stubSearcher{hits: map[string][]domain.SearchHit{
		"alpha": hitsFor("alpha text"),
	}}
	queries := []Query{
		{Query: "   "},
		{Query: "alpha", Relevant: []string{"alpha text"}},
	}

	report, err := Evaluate(searcher, queries, DefaultTopK, nil)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if len(report.PerQuery) != 1 {
		t.Fatalf("PerQuery count = %d, want 1", len(report.PerQuery))
	}
	if report.PerQuery[0].Query != "alpha" {
		t.Errorf("kept query = %q, want %q", report.PerQuery[0].Query, "alpha")
	}
}

func TestEvaluate_AllBlankQueriesStillZeroSafe(t *testing.T) {
	report, err := Evaluate(&stubSearcher{}, []Query{{Query: ""}, {Query: "\t"}}, DefaultTopK, &EfficiencyInput{LatenciesMS: []float64{4, 8}})
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if report.Precision != 0 || report.NDCG != 0 {
		t.Errorf("all-blank evaluation scored non-zero: %+v", report)
	}
	if len(report.PerQuery) != 0 {
		t.Errorf("PerQuery = %v, want empty", report.PerQuery)
	}
	if report.Efficiency == nil {
		t.Fatal("Efficiency missing despite latency samples")
	}
	if !almostEqual(report.Efficiency.MedianLatencyMS, 6) {
		t.Errorf("median latency = %v, want 6", report.Efficiency.MedianLatencyMS)
	}
}

func TestEvaluate_TopKOverride(t *testing.T) {
	searcher := &stubSearcher{hits: map[string][]domain.SearchHit{
		"beta": hitsFor("beta one", "beta two", "beta three"),
	}}
	queries := []Query{{Query: "beta", Relevant: []string{"beta one"}, TopK: 2}}

	report, err := Evaluate(searcher, queries, DefaultTopK, nil)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	got := report.PerQuery[0]
	if got.TopK != 2 {
		t.Errorf("TopK = %d, want override 2", got.TopK)
	}
	if got.Retrieved != 2 {
		t.Errorf("Retrieved = %d, want 2", got.Retrieved)
	}
	if !almostEqual(got.Precision, 0.5) {
		t.Errorf("Precision = %v, want 0.5", got.Precision)
	}
}

func TestEvaluate_EfficiencyBlock(t *testing.T) {
	build := 12.25
	qps := 80.0
	eff := &EfficiencyInput{LatenciesMS: []float64{10, 20, 30, 40, 50}, IndexBuildMS: &build, ThroughputQPS: &qps}
	searcher := &stubSearcher{hits: map[string][]domain.SearchHit{"q": hitsFor("q text")}}

	report, err := Evaluate(searcher, []Query{{Query: "q", Relevant: []string{"q text"}}}, DefaultTopK, eff)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if report.Efficiency == nil {
		t.Fatal("Efficiency missing")
	}
	if !almostEqual(report.Efficiency.MedianLatencyMS, 30) || !almostEqual(report.Efficiency.P95LatencyMS, 48) {
		t.Errorf("latency summary = (%v, %v), want (30, 48)", report.Efficiency.MedianLatencyMS, report.Efficiency.P95LatencyMS)
	}
	if report.Efficiency.IndexBuildMS == nil || !almostEqual(*report.Efficiency.IndexBuildMS, 12.25) {
		t.Errorf("IndexBuildMS = %v, want 12.25", report.Efficiency.IndexBuildMS)
	}
	if report.Efficiency.ThroughputQPS == nil || !almostEqual(*report.Efficiency.ThroughputQPS, 80) {
		t.Errorf("ThroughputQPS = %v, want 80", report.Efficiency.ThroughputQPS)
	}
}

func TestEvaluate_NoEfficiencyWithoutSamples(t *testing.T) {
	searcher := &stubSearcher{hits: map[string][]domain.SearchHit{"q": hitsFor("q text")}}
	report, err := Evaluate(searcher, []Query{{Query: "q"}}, DefaultTopK, &EfficiencyInput{})
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if report.Efficiency != nil {
		t.Errorf("Efficiency = %+v, want nil for empty input", report.Efficiency)
	}
}

func TestEvaluate_SearchErrorPropagates(t *testing.T) {
	wantErr := errors.New("index unavailable")
	_, err := Evaluate(&stubSearcher{err: wantErr}, []Query{{Query: "q"}}, DefaultTopK, nil)
	if !errors.Is(err, wantErr) {
		t.Fatalf("Evaluate error = %v, want %v", err, wantErr)
	}
}
