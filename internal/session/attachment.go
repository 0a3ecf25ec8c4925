package session

import (
	"strings"
	"time"
	"unicode"

	"github.com/docdex-io/docdex/internal/chunking"
)

// PreviewChars is the default attachment preview length in runes.
const PreviewChars = 240

// Attachment is a document uploaded into a session. Text and the
// identity fields are immutable after creation; the chunk cache is
// filled per strategy under the session lock.
type Attachment struct {
	ID          string
	Filename    string
	ContentType string
	Size        int
	Text        string
	AddedAt     time.Time
	Metadata    map[string]string

	chunks map[chunking.Strategy][]string
}

// Preview returns up to limit runes of the normalized text, ellipsized
// when truncated.
func (a *Attachment) Preview(limit int) string {
	snippet := strings.TrimSpace(a.Text)
	snippet = strings.ReplaceAll(snippet, "\r\n", "\n")
	snippet = strings.ReplaceAll(snippet, "\r", "\n")
	runes := []rune(snippet)
	if len(runes) <= limit {
		return snippet
	}
	if limit < 1 {
		return "…"
	}
	head := strings.TrimRightFunc(string(runes[:limit-1]), unicode.IsSpace)
	return head + "…"
}

// WordCount is the number of whitespace-separated words in the text.
func (a *Attachment) WordCount() int {
	return len(strings.Fields(a.Text))
}

// Info is the read-only attachment summary handed to callers. Maps are
// copies; mutating them does not touch the session.
type Info struct {
	ID          string            `json:"attachment_id"`
	Filename    string            `json:"filename"`
	ContentType string            `json:"content_type"`
	Size        int               `json:"size"`
	WordCount   int               `json:"word_count"`
	AddedAt     time.Time         `json:"added_at"`
	Preview     string            `json:"preview"`
	Metadata    map[string]string `json:"metadata"`
	ChunkCounts map[string]int    `json:"chunk_counts"`
}

func (a *Attachment) info(previewChars int) Info {
	metadata := make(map[string]string, len(a.Metadata))
	for k, v := range a.Metadata {
		metadata[k] = v
	}
	counts := make(map[string]int, len(a.chunks))
	for strategy, chunks := range a.chunks {
		counts[string(strategy)] = len(chunks)
	}
	return Info{
		ID:          a.ID,
		Filename:    a.Filename,
		ContentType: a.ContentType,
		Size:        a.Size,
		WordCount:   a.WordCount(),
		AddedAt:     a.AddedAt,
		Preview:     a.Preview(previewChars),
		Metadata:    metadata,
		ChunkCounts: counts,
	}
}
