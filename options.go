package docdex

import (
	"go.uber.org/zap"
)

// Option configures a Client.
type Option interface {
	apply(*clientConfig)
}

type optionFunc func(*clientConfig)

func (f optionFunc) apply(cfg *clientConfig) { f(cfg) }

type clientConfig struct {
	chunking ChunkingStrategy
	indexing IndexingStrategy

	windowSize      int
	windowOverlap   int
	semanticMinSize int

	completer Completer
	logger    *zap.Logger
}

// WithChunking sets the chunking strategy new sessions start with.
// Defaults to ChunkingFixed.
func WithChunking(strategy ChunkingStrategy) Option {
	return optionFunc(func(cfg *clientConfig) {
		cfg.chunking = strategy
	})
}

// WithIndexing sets the indexing strategy new sessions start with.
// Defaults to IndexingLinear.
func WithIndexing(strategy IndexingStrategy) Option {
	return optionFunc(func(cfg *clientConfig) {
		cfg.indexing = strategy
	})
}

// WithWindow sets the fixed-window geometry in runes. The overlap must
// stay smaller than the size. Defaults to 1200 runes with 200 overlap.
func WithWindow(size, overlap int) Option {
	return optionFunc(func(cfg *clientConfig) {
		cfg.windowSize = size
		cfg.windowOverlap = overlap
	})
}

// WithSemanticMinSize sets the minimum segment length, in runes, below
// which the semantic strategy merges neighbouring segments. Defaults
// to 400.
func WithSemanticMinSize(size int) Option {
	return optionFunc(func(cfg *clientConfig) {
		cfg.semanticMinSize = size
	})
}

// WithCompleter sets the chat provider behind Session.Ask. Without one
// answers come from an offline fallback that quotes the retrieved
// chunks.
func WithCompleter(completer Completer) Option {
	return optionFunc(func(cfg *clientConfig) {
		cfg.completer = completer
	})
}

// WithLogger enables structured logging inside the pipeline. Logging
// is off by default.
func WithLogger(logger *zap.Logger) Option {
	return optionFunc(func(cfg *clientConfig) {
		cfg.logger = logger
	})
}
