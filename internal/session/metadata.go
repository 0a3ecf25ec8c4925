package session

import (
	"strconv"
	"strings"

	"github.com/docdex-io/docdex/internal/domain"
	"github.com/docdex-io/docdex/internal/section"
)

// FoldMetadata derives per-chunk metadata for one document. It walks
// the chunks in order, opening a new section context whenever a chunk
// starts with a detectable heading and carrying the previous context
// forward otherwise. Chunks before the first heading fall under the
// General section.
func FoldMetadata(docID, label string, chunks []string) []domain.ChunkMetadata {
	metas := make([]domain.ChunkMetadata, 0, len(chunks))
	ctx := section.General()
	for i, chunk := range chunks {
		if h := section.Detect(chunk); h != nil {
			ctx = h.Context()
		}
		metas = append(metas, chunkMetadata(docID, label, i, len(chunks), ctx))
	}
	return metas
}

func chunkMetadata(docID, label string, index, total int, ctx section.Context) domain.ChunkMetadata {
	heading := ctx.Heading
	if heading == "" {
		heading = "General"
	}
	title := ctx.Title
	if title == "" {
		title = heading
	}
	sectionLabel := strings.TrimSpace(strings.Join([]string{ctx.Identifier, title}, " "))
	if sectionLabel == "" {
		sectionLabel = heading
	}
	return domain.ChunkMetadata{
		DocumentID:        docID,
		DocumentLabel:     label,
		Filename:          label,
		ChunkID:           docID + ":" + strconv.Itoa(index),
		ChunkIndex:        index,
		ChunkCount:        total,
		SectionHeading:    heading,
		SectionTitle:      title,
		SectionIdentifier: ctx.Identifier,
		SectionLabel:      sectionLabel,
		SectionPath:       append([]string(nil), ctx.Path...),
		SectionRank:       ctx.Rank(),
		SectionLevel:      ctx.Level(),
	}
}
