package cli

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/docdex-io/docdex/internal/chunking"
	"github.com/docdex-io/docdex/internal/domain"
	"github.com/docdex-io/docdex/internal/evaluation"
	"github.com/docdex-io/docdex/internal/extract"
	"github.com/docdex-io/docdex/internal/indexing"
	"github.com/docdex-io/docdex/internal/session"
)

const (
	// snippetChars and queryWords shape the default queries derived from
	// each document's opening text.
	snippetChars = 240
	queryWords   = 8
)

var (
	evalDocumentsDir string
	evalQueriesPath  string
	evalChunkers     []string
	evalIndexers     []string
	evalTopK         int
	evalLimitDocs    int
	evalSaveJSON     string
)

var (
	headingText  = color.New(color.FgCyan, color.Bold).SprintFunc()
	strategyText = color.New(color.FgYellow).SprintFunc()
	metricText   = color.New(color.FgGreen).SprintFunc()
	warnText     = color.New(color.FgRed).SprintFunc()
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Compare chunking and indexing strategies over local documents",
	Long: `evaluate extracts every supported document under --documents, chunks
and indexes the corpus once per strategy combination and scores each
combination against a query suite. Without --queries a default suite is
derived from the opening text of each document.`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return runEvaluation()
	},
}

func init() {
	evaluateCmd.Flags().StringVar(&evalDocumentsDir, "documents", "./documents", "directory or file with sample documents")
	evaluateCmd.Flags().StringVar(&evalQueriesPath, "queries", "", "JSON file with labelled evaluation queries")
	evaluateCmd.Flags().StringSliceVar(&evalChunkers, "chunkers", nil, "subset of chunking strategy keys to evaluate")
	evaluateCmd.Flags().StringSliceVar(&evalIndexers, "indexers", nil, "subset of indexing strategy keys to evaluate")
	evaluateCmd.Flags().IntVar(&evalTopK, "top-k", evaluation.DefaultTopK, "default number of results per query")
	evaluateCmd.Flags().IntVar(&evalLimitDocs, "limit-documents", 0, "cap on the number of documents to load (0 = all)")
	evaluateCmd.Flags().StringVar(&evalSaveJSON, "save-json", "", "path to save the aggregated results as JSON")
	rootCmd.AddCommand(evaluateCmd)
}

// corpusDocument is one extracted evaluation document.
type corpusDocument struct {
	ID   string
	Name string
	Text string
}

// comboResult pairs a strategy combination with its evaluation report.
type comboResult struct {
	Chunking string `json:"chunking"`
	Indexing string `json:"indexing"`
	evaluation.Report
}

// evaluationArtifact is the --save-json payload.
type evaluationArtifact struct {
	Documents []string      `json:"documents"`
	Results   []comboResult `json:"results"`
}

func runEvaluation() error {
	docs, err := discoverDocuments(evalDocumentsDir, evalLimitDocs)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no supported documents under %s (txt, md, html, docx, pdf)", evalDocumentsDir)
	}

	chunkerKeys, err := resolveChunkers(evalChunkers)
	if err != nil {
		return err
	}
	indexerKeys, err := resolveIndexers(evalIndexers)
	if err != nil {
		return err
	}

	queries, err := loadQueries(evalQueriesPath, docs, evalTopK)
	if err != nil {
		return err
	}
	if len(queries) == 0 {
		return fmt.Errorf("no queries available")
	}

	fmt.Println(headingText("Loaded documents:"))
	for _, doc := range docs {
		fmt.Printf(" - %s\n", doc.Name)
	}
	fmt.Println()
	fmt.Println(headingText("Chunking strategies:"))
	for _, d := range chunking.Descriptors() {
		if containsChunker(chunkerKeys, chunking.Strategy(d.Key)) {
			fmt.Printf(" - %s: %s\n", strategyText(d.Key), d.Description)
		}
	}
	fmt.Println()
	fmt.Println(headingText("Indexing strategies:"))
	for _, d := range indexing.Descriptors() {
		if containsIndexer(indexerKeys, indexing.Strategy(d.Key)) {
			fmt.Printf(" - %s: %s\n", strategyText(d.Key), d.Description)
		}
	}

	fmt.Printf("\nEvaluating %d combinations across %d queries...\n", len(chunkerKeys)*len(indexerKeys), len(queries))

	results, err := evaluateCombinations(docs, queries, chunkerKeys, indexerKeys, evalTopK)
	if err != nil {
		return err
	}

	if evalSaveJSON != "" {
		if err := saveResults(evalSaveJSON, docs, results); err != nil {
			return err
		}
	}
	return nil
}

// discoverDocuments extracts every supported file under source. A file
// that fails extraction is skipped with a warning instead of aborting
// the run; documents with no extractable text are dropped silently.
func discoverDocuments(source string, limit int) ([]corpusDocument, error) {
	info, err := os.Stat(source)
	if err != nil {
		return nil, fmt.Errorf("stat documents path: %w", err)
	}

	var paths []string
	if !info.IsDir() {
		paths = []string{source}
	} else {
		walkErr := filepath.WalkDir(source, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				paths = append(paths, path)
			}
			return nil
		})
		if walkErr != nil {
			return nil, fmt.Errorf("walk documents dir: %w", walkErr)
		}
		sort.Strings(paths)
	}

	extractor := extract.New()
	var docs []corpusDocument
	for _, path := range paths {
		name := filepath.Base(path)
		if !extract.IsSupportedExtension(name) {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		contentType := mime.TypeByExtension(filepath.Ext(name))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		res, err := extractor.Extract(name, contentType, data)
		if err != nil {
			fmt.Printf("%s skipping %s: %v\n", warnText("[warn]"), name, err)
			continue
		}
		if strings.TrimSpace(res.Text) == "" {
			continue
		}
		docs = append(docs, corpusDocument{
			ID:   strings.TrimSuffix(name, filepath.Ext(name)),
			Name: name,
			Text: res.Text,
		})
		if limit > 0 && len(docs) >= limit {
			break
		}
	}
	return docs, nil
}

// loadQueries reads the suite file, or derives a default suite from the
// documents when no file is given or the file holds no queries.
func loadQueries(path string, docs []corpusDocument, topK int) ([]evaluation.Query, error) {
	if path == "" {
		return defaultQueries(docs, topK), nil
	}
	queries, err := evaluation.LoadSuite(path)
	if err != nil {
		return nil, err
	}
	if len(queries) == 0 {
		return defaultQueries(docs, topK), nil
	}
	return queries, nil
}

// defaultQueries builds one query per document from its opening
// snippet, with the snippet itself as the relevant chunk.
func defaultQueries(docs []corpusDocument, topK int) []evaluation.Query {
	queries := make([]evaluation.Query, 0, len(docs))
	for _, doc := range docs {
		snippet := firstSnippet(doc.Text, snippetChars)
		if snippet == "" {
			continue
		}
		queries = append(queries, evaluation.Query{
			Query:    queryFromSnippet(snippet, queryWords),
			Relevant: []string{snippet},
			TopK:     topK,
		})
	}
	return queries
}

// firstSnippet collapses whitespace and keeps the first maxChars runes.
func firstSnippet(text string, maxChars int) string {
	cleaned := strings.Join(strings.Fields(text), " ")
	runes := []rune(cleaned)
	if len(runes) > maxChars {
		runes = runes[:maxChars]
	}
	return string(runes)
}

// queryFromSnippet keeps the first maxWords words longer than two
// runes, falling back to the whole snippet when none qualify.
func queryFromSnippet(snippet string, maxWords int) string {
	var words []string
	for _, word := range strings.Fields(snippet) {
		if utf8.RuneCountInString(word) <= 2 {
			continue
		}
		words = append(words, word)
		if len(words) == maxWords {
			break
		}
	}
	if len(words) == 0 {
		return snippet
	}
	return strings.Join(words, " ")
}

func resolveChunkers(keys []string) ([]chunking.Strategy, error) {
	if len(keys) == 0 {
		all := chunking.Descriptors()
		out := make([]chunking.Strategy, len(all))
		for i, d := range all {
			out[i] = chunking.Strategy(d.Key)
		}
		return out, nil
	}
	out := make([]chunking.Strategy, 0, len(keys))
	for _, key := range keys {
		s, err := chunking.Parse(key)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func resolveIndexers(keys []string) ([]indexing.Strategy, error) {
	if len(keys) == 0 {
		all := indexing.Descriptors()
		out := make([]indexing.Strategy, len(all))
		for i, d := range all {
			out[i] = indexing.Strategy(d.Key)
		}
		return out, nil
	}
	out := make([]indexing.Strategy, 0, len(keys))
	for _, key := range keys {
		s, err := indexing.Parse(key)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func containsChunker(keys []chunking.Strategy, key chunking.Strategy) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

func containsIndexer(keys []indexing.Strategy, key indexing.Strategy) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

// timedSearcher records the latency of every search it forwards.
type timedSearcher struct {
	index     indexing.Index
	latencies []float64
}

func (t *timedSearcher) Search(query string, topK int) ([]domain.SearchHit, error) {
	start := time.Now()
	hits, err := t.index.Search(query, topK)
	t.latencies = append(t.latencies, float64(time.Since(start).Nanoseconds())/1e6)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return hits, nil
}

// evaluateCombinations chunks the corpus once per chunker, then builds
// and scores an index per indexer. The corpus is chunked up front so
// every indexer of a combination row sees identical chunks.
func evaluateCombinations(
	docs []corpusDocument,
	queries []evaluation.Query,
	chunkerKeys []chunking.Strategy,
	indexerKeys []indexing.Strategy,
	topK int,
) ([]comboResult, error) {
	results := make([]comboResult, 0, len(chunkerKeys)*len(indexerKeys))
	for _, chunkKey := range chunkerKeys {
		chunker, err := chunking.New(chunkKey, chunking.DefaultConfig())
		if err != nil {
			return nil, err
		}
		fmt.Printf("\n%s %s\n", headingText("[chunking]"), strategyText(string(chunkKey)))

		var allChunks []string
		var allMetas []domain.ChunkMetadata
		for _, doc := range docs {
			chunks := chunker.Chunk(doc.Text)
			allChunks = append(allChunks, chunks...)
			allMetas = append(allMetas, session.FoldMetadata(doc.ID, doc.Name, chunks)...)
		}

		for _, indexKey := range indexerKeys {
			fmt.Printf("  %s %s\n", headingText("[indexing]"), strategyText(string(indexKey)))
			result, err := evaluateCombination(allChunks, allMetas, queries, chunkKey, indexKey, topK)
			if err != nil {
				return nil, err
			}
			results = append(results, result)
			printSummary(result)
		}
	}
	return results, nil
}

func evaluateCombination(
	chunks []string,
	metas []domain.ChunkMetadata,
	queries []evaluation.Query,
	chunkKey chunking.Strategy,
	indexKey indexing.Strategy,
	topK int,
) (comboResult, error) {
	idx, err := indexing.New(indexKey)
	if err != nil {
		return comboResult{}, err
	}
	defer func() { _ = idx.Close() }()

	start := time.Now()
	if err := idx.Reset(); err != nil {
		return comboResult{}, fmt.Errorf("reset index: %w", err)
	}
	if len(chunks) > 0 {
		if err := idx.Add(chunks, metas); err != nil {
			return comboResult{}, fmt.Errorf("build index: %w", err)
		}
	}
	buildMS := float64(time.Since(start).Nanoseconds()) / 1e6

	searcher := &timedSearcher{index: idx}
	report, err := evaluation.Evaluate(searcher, queries, topK, nil)
	if err != nil {
		return comboResult{}, err
	}

	median, p95 := evaluation.SummarizeLatency(searcher.latencies)
	report.Efficiency = &evaluation.Efficiency{
		MedianLatencyMS: median,
		P95LatencyMS:    p95,
		IndexBuildMS:    &buildMS,
	}

	return comboResult{
		Chunking: string(chunkKey),
		Indexing: string(indexKey),
		Report:   report,
	}, nil
}

func printSummary(result comboResult) {
	eff := result.Efficiency
	fmt.Printf("    %s P@k=%.2f R@k=%.2f MRR=%.2f NDCG@k=%.2f median=%.1fms p95=%.1fms build=%.1fms\n",
		metricText("metrics:"),
		result.Precision, result.Recall, result.MRR, result.NDCG,
		eff.MedianLatencyMS, eff.P95LatencyMS, *eff.IndexBuildMS,
	)
}

func saveResults(path string, docs []corpusDocument, results []comboResult) error {
	names := make([]string, len(docs))
	for i, doc := range docs {
		names[i] = doc.Name
	}
	payload, err := json.MarshalIndent(evaluationArtifact{Documents: names, Results: results}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	fmt.Printf("\nSaved detailed metrics to %s\n", path)
	return nil
}
