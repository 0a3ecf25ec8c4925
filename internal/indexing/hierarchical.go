package indexing

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/docdex-io/docdex/internal/domain"
	"github.com/docdex-io/docdex/internal/embedding"
)

// hierarchicalIndex groups chunks into a document and section tree at
// add time. Search scores whole sections first, then re-scores the
// chunks of the winning sections, so hits from strong sections surface
// together. Documents and sections live in insertion-ordered slices to
// keep results deterministic.
type hierarchicalIndex struct {
	docs []*documentNode
	byID map[string]*documentNode
	size int
}

type documentNode struct {
	id       string
	sections []*sectionNode
}

type sectionNode struct {
	heading string
	path    []string
	rank    string
	chunks  []storedChunk
}

func newHierarchicalIndex() *hierarchicalIndex {
	return &hierarchicalIndex{byID: make(map[string]*documentNode)}
}

func (s *hierarchicalIndex) Strategy() Strategy { return Hierarchical }

func (s *hierarchicalIndex) Reset() error {
	s.docs = nil
	s.byID = make(map[string]*documentNode)
	s.size = 0
	return nil
}

func (s *hierarchicalIndex) Add(chunks []string, metas []domain.ChunkMetadata) error {
	for i, d := range store(chunks, metas) {
		key := d.meta.DocumentID
		if key == "" {
			key = fmt.Sprintf("doc_%d", i)
		}
		heading := d.meta.SectionHeading
		if heading == "" {
			heading = "General"
		}
		path := d.meta.SectionPath
		if len(path) == 0 {
			path = splitRank(d.meta.SectionRank)
		}
		if len(path) == 0 {
			path = []string{heading}
		}

		doc := s.byID[key]
		if doc == nil {
			doc = &documentNode{id: key}
			s.byID[key] = doc
			s.docs = append(s.docs, doc)
		}
		sec := doc.section(path)
		if sec == nil {
			sec = &sectionNode{heading: heading, path: path, rank: strings.Join(path, " > ")}
			doc.sections = append(doc.sections, sec)
		}
		sec.chunks = append(sec.chunks, d)
		s.size++
	}
	return nil
}

func (d *documentNode) section(path []string) *sectionNode {
	for _, sec := range d.sections {
		if slices.Equal(sec.path, path) {
			return sec
		}
	}
	return nil
}

func splitRank(rank string) []string {
	if rank == "" {
		return nil
	}
	var parts []string
	for _, part := range strings.Split(rank, ">") {
		if p := strings.TrimSpace(part); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func (s *hierarchicalIndex) Len() int { return s.size }

func (s *hierarchicalIndex) Close() error {
	return s.Reset()
}

// Search runs two stages. Stage one scores each section's combined text
// against the query and keeps the topK sections. Stage two re-scores
// the surviving sections' chunks individually; each hit keeps its own
// chunk score while SectionScore carries the stage-one section score.
func (s *hierarchicalIndex) Search(query string, topK int) ([]domain.SearchHit, error) {
	if query == "" || len(s.docs) == 0 {
		return nil, nil
	}
	queryVec := embedding.Embed(query)

	type scoredSection struct {
		doc   *documentNode
		sec   *sectionNode
		score float64
	}
	var ranked []scoredSection
	for _, doc := range s.docs {
		for _, sec := range doc.sections {
			texts := make([]string, len(sec.chunks))
			for i, c := range sec.chunks {
				texts[i] = c.text
			}
			score := embedding.Cosine(queryVec, embedding.Embed(strings.Join(texts, "\n")))
			if score <= 0 {
				continue
			}
			ranked = append(ranked, scoredSection{doc: doc, sec: sec, score: score})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if topK < 0 {
		topK = 0
	}
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}

	var hits []domain.SearchHit
	for _, rs := range ranked {
		for _, c := range rs.sec.chunks {
			score := embedding.Cosine(queryVec, embedding.Embed(c.text))
			if score <= 0 {
				continue
			}
			meta := c.meta.Clone()
			if meta.DocumentID == "" {
				meta.DocumentID = rs.doc.id
			}
			if meta.SectionHeading == "" {
				meta.SectionHeading = rs.sec.heading
			}
			if len(meta.SectionPath) == 0 {
				meta.SectionPath = append([]string(nil), rs.sec.path...)
			}
			if meta.SectionRank == "" {
				meta.SectionRank = rs.sec.rank
			}
			meta.ChunkCount = len(rs.sec.chunks)
			meta.SectionScore = rs.score
			hits = append(hits, domain.SearchHit{Chunk: c.text, Score: score, Meta: meta})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	return truncate(hits, topK), nil
}
