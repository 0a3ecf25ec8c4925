package chunking

import (
	"strings"
	"unicode/utf8"

	"github.com/docdex-io/docdex/internal/section"
)

type wholeChunker struct{}

func (wholeChunker) Strategy() Strategy { return Whole }

func (wholeChunker) Chunk(text string) []string {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return nil
	}
	return []string{cleaned}
}

type fixedChunker struct {
	size    int
	overlap int
}

func (c fixedChunker) Strategy() Strategy { return Fixed }

// Chunk cuts overlapping windows out of the blank-line-stripped text.
// Windows are measured in runes so multibyte text does not split
// mid-character.
func (c fixedChunker) Chunk(text string) []string {
	runes := []rune(normalizeText(text))
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= c.size {
		return []string{string(runes)}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end >= len(runes) {
			break
		}
		// The step is at least one rune even when overlap would rewind
		// past the current window start.
		next := end - c.overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return chunks
}

type semanticChunker struct {
	minSize int
}

func (c semanticChunker) Strategy() Strategy { return Semantic }

// Chunk buffers non-blank lines and cuts a segment when a new heading
// starts or the buffer reaches minSize. Undersized neighbours are merged
// afterwards so no tiny fragment survives.
func (c semanticChunker) Chunk(text string) []string {
	var segments []string
	var buffer []string

	flush := func() {
		if len(buffer) == 0 {
			return
		}
		combined := strings.TrimSpace(strings.Join(buffer, "\n"))
		if combined != "" {
			segments = append(segments, combined)
		}
		buffer = nil
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if section.MatchLine(line) != nil && len(buffer) > 0 {
			flush()
		}
		buffer = append(buffer, line)
		if utf8.RuneCountInString(strings.Join(buffer, "\n")) >= c.minSize {
			flush()
		}
	}
	flush()

	if len(segments) == 0 {
		cleaned := strings.TrimSpace(text)
		if cleaned == "" {
			return nil
		}
		return []string{cleaned}
	}

	merged := make([]string, 0, len(segments))
	for _, chunk := range segments {
		last := len(merged) - 1
		if last >= 0 && utf8.RuneCountInString(merged[last])+utf8.RuneCountInString(chunk) < c.minSize {
			merged[last] = merged[last] + "\n" + chunk
		} else {
			merged = append(merged, chunk)
		}
	}
	return merged
}

// normalizeText strips every line and drops blank ones so window offsets
// are stable across documents with different blank spacing.
func normalizeText(text string) string {
	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		if line := strings.TrimSpace(raw); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
