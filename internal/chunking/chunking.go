// Package chunking splits extracted document text into indexable chunks.
// Three strategies are registered: whole keeps the document as a single
// chunk, fixed cuts overlapping windows, semantic groups lines under
// detected headings.
package chunking

import "github.com/docdex-io/docdex/internal/domain"

// Strategy identifies a chunking strategy.
type Strategy string

const (
	Whole    Strategy = "whole"
	Fixed    Strategy = "fixed"
	Semantic Strategy = "semantic"
)

// IsValid reports whether the strategy is one of the registered keys.
func (s Strategy) IsValid() bool {
	switch s {
	case Whole, Fixed, Semantic:
		return true
	}
	return false
}

// Keys lists the registered strategy keys in catalog order.
func Keys() []string {
	return []string{string(Whole), string(Fixed), string(Semantic)}
}

// Parse validates a strategy key from user input.
func Parse(key string) (Strategy, error) {
	s := Strategy(key)
	if !s.IsValid() {
		return "", domain.NewUnknownStrategy("chunking", key, Keys()...)
	}
	return s, nil
}

// Chunker splits document text into ordered chunks. Implementations are
// pure: same text in, same chunks out.
type Chunker interface {
	Strategy() Strategy
	Chunk(text string) []string
}

// Config carries the tunables shared by all strategies.
type Config struct {
	// WindowSize and WindowOverlap apply to the fixed strategy, in runes.
	WindowSize    int
	WindowOverlap int
	// SemanticMinSize is the minimum rune length a semantic segment
	// grows to before it is cut.
	SemanticMinSize int
}

// DefaultConfig returns the tuning the strategies were calibrated with.
func DefaultConfig() Config {
	return Config{WindowSize: 1200, WindowOverlap: 200, SemanticMinSize: 400}
}

// New builds the chunker for a strategy, validating the config up front.
func New(s Strategy, cfg Config) (Chunker, error) {
	switch s {
	case Whole:
		return wholeChunker{}, nil
	case Fixed:
		if cfg.WindowSize <= 0 {
			return nil, domain.NewConfiguration("window_size", "must be positive")
		}
		if cfg.WindowOverlap < 0 {
			return nil, domain.NewConfiguration("window_overlap", "must not be negative")
		}
		if cfg.WindowOverlap >= cfg.WindowSize {
			return nil, domain.NewConfiguration("window_overlap", "must be smaller than window_size")
		}
		return fixedChunker{size: cfg.WindowSize, overlap: cfg.WindowOverlap}, nil
	case Semantic:
		if cfg.SemanticMinSize <= 0 {
			return nil, domain.NewConfiguration("semantic_min_size", "must be positive")
		}
		return semanticChunker{minSize: cfg.SemanticMinSize}, nil
	default:
		return nil, domain.NewUnknownStrategy("chunking", string(s), Keys()...)
	}
}

// Descriptor describes a strategy for catalog listings.
type Descriptor struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Descriptors lists the registered strategies in catalog order.
func Descriptors() []Descriptor {
	return []Descriptor{
		{Key: string(Whole), Name: "Whole document", Description: "Single chunk containing the entire document."},
		{Key: string(Fixed), Name: "Fixed windows", Description: "Fixed-length windows with configurable overlap."},
		{Key: string(Semantic), Name: "Semantic heuristic", Description: "Heading-aware segmentation that grows chunks to a minimum size."},
	}
}
