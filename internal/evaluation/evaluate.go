package evaluation

import (
	"strings"

	"github.com/docdex-io/docdex/internal/domain"
)

// DefaultTopK is the retrieval cutoff used when a query does not set
// its own.
const DefaultTopK = 5

// Searcher is the retrieval surface an evaluation runs against.
type Searcher interface {
	Search(query string, topK int) ([]domain.SearchHit, error)
}

// Query is one labelled evaluation query. Relevant holds the snippets
// the retrieval should surface; TopK overrides the default cutoff when
// positive.
type Query struct {
	Query    string
	Relevant []string
	TopK     int
}

// QueryResult carries the per-query metric breakdown.
type QueryResult struct {
	Query     string  `json:"query"`
	TopK      int     `json:"top_k"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	MRR       float64 `json:"mrr"`
	NDCG      float64 `json:"ndcg"`
	Retrieved int     `json:"retrieved"`
	Relevant  int     `json:"relevant"`
}

// Efficiency summarizes the latency profile of an evaluated index.
// IndexBuildMS and ThroughputQPS are optional.
type Efficiency struct {
	MedianLatencyMS float64  `json:"median_latency_ms"`
	P95LatencyMS    float64  `json:"p95_latency_ms"`
	IndexBuildMS    *float64 `json:"index_build_ms,omitempty"`
	ThroughputQPS   *float64 `json:"throughput_qps,omitempty"`
}

// EfficiencyInput feeds raw timing samples into a report.
type EfficiencyInput struct {
	LatenciesMS   []float64
	IndexBuildMS  *float64
	ThroughputQPS *float64
}

func (in *EfficiencyInput) empty() bool {
	return in == nil || (len(in.LatenciesMS) == 0 && in.IndexBuildMS == nil && in.ThroughputQPS == nil)
}

// Report aggregates per-query metrics into macro averages. Efficiency
// is nil unless timing samples were supplied.
type Report struct {
	Precision  float64       `json:"precision"`
	Recall     float64       `json:"recall"`
	MRR        float64       `json:"mrr"`
	NDCG       float64       `json:"ndcg"`
	PerQuery   []QueryResult `json:"per_query"`
	Efficiency *Efficiency   `json:"efficiency"`
}

// Evaluate runs each query through the searcher and scores the ranked
// chunks against the query's relevant snippets. Blank queries are
// skipped; with no queries at all the report is zeroed and carries no
// efficiency block regardless of input.
func Evaluate(searcher Searcher, queries []Query, defaultTopK int, eff *EfficiencyInput) (Report, error) {
	report := Report{PerQuery: []QueryResult{}}
	if len(queries) == 0 {
		return report, nil
	}
	if defaultTopK <= 0 {
		defaultTopK = DefaultTopK
	}

	var precisionSum, recallSum, mrrSum, ndcgSum float64
	for _, entry := range queries {
		query := strings.TrimSpace(entry.Query)
		if query == "" {
			continue
		}
		topK := entry.TopK
		if topK <= 0 {
			topK = defaultTopK
		}
		hits, err := searcher.Search(query, topK)
		if err != nil {
			return Report{}, err
		}
		retrieved := make([]string, len(hits))
		for i, hit := range hits {
			retrieved[i] = hit.Chunk
		}
		flags := RelevanceFlags(retrieved, entry.Relevant)
		gains := make([]float64, len(flags))
		for i, f := range flags {
			gains[i] = float64(f)
		}
		result := QueryResult{
			Query:     query,
			TopK:      topK,
			Precision: PrecisionAtK(flags, topK),
			Recall:    RecallAtK(flags, len(entry.Relevant), topK),
			MRR:       MeanReciprocalRank(flags),
			NDCG:      NDCGAtK(gains, topK),
			Retrieved: len(retrieved),
			Relevant:  len(entry.Relevant),
		}
		precisionSum += result.Precision
		recallSum += result.Recall
		mrrSum += result.MRR
		ndcgSum += result.NDCG
		report.PerQuery = append(report.PerQuery, result)
	}

	count := len(report.PerQuery)
	if count == 0 {
		count = 1
	}
	report.Precision = precisionSum / float64(count)
	report.Recall = recallSum / float64(count)
	report.MRR = mrrSum / float64(count)
	report.NDCG = ndcgSum / float64(count)

	if !eff.empty() {
		median, p95 := SummarizeLatency(eff.LatenciesMS)
		payload := &Efficiency{MedianLatencyMS: median, P95LatencyMS: p95}
		if eff.IndexBuildMS != nil {
			v := *eff.IndexBuildMS
			payload.IndexBuildMS = &v
		}
		if eff.ThroughputQPS != nil {
			v := *eff.ThroughputQPS
			payload.ThroughputQPS = &v
		}
		report.Efficiency = payload
	}
	return report, nil
}
