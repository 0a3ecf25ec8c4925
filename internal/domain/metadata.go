package domain

// ChunkMetadata describes one indexed chunk: the attachment it came from,
// its position within that attachment, and the section context the fold
// assigned to it. Indexes hand out clones so callers can annotate hits
// without mutating stored state.
type ChunkMetadata struct {
	DocumentID    string
	DocumentLabel string
	Filename      string
	ChunkID       string
	ChunkIndex    int
	ChunkCount    int

	SectionHeading    string
	SectionTitle      string
	SectionIdentifier string
	SectionLabel      string
	SectionPath       []string
	SectionRank       string
	SectionLevel      int

	// SectionScore is stamped at search time: the best score any chunk of
	// the same section achieved for the query. Zero until a search sets it.
	SectionScore float64
}

// Clone returns a deep copy. The path slice is duplicated so hits never
// alias the stored metadata.
func (m ChunkMetadata) Clone() ChunkMetadata {
	out := m
	out.SectionPath = cloneStrings(m.SectionPath)
	return out
}

// SearchHit is one retrieval result: the chunk text, its score for the
// query, and a cloned copy of the chunk metadata.
type SearchHit struct {
	Chunk string
	Score float64
	Meta  ChunkMetadata
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
