package docdex

import (
	"fmt"

	"github.com/docdex-io/docdex/internal/assist"
	"github.com/docdex-io/docdex/internal/chunking"
	"github.com/docdex-io/docdex/internal/indexing"
	"github.com/docdex-io/docdex/internal/session"
)

// Client is the embedded entry point. It owns a session registry and
// hands out Sessions; construct one per process and share it freely,
// all methods are safe for concurrent use.
type Client struct {
	manager *session.Manager
	assist  *assist.Service
}

// New creates a Client. Options pick the strategies and chunking
// geometry new sessions start with; the zero option set matches the
// server defaults (fixed windows over a linear index).
func New(opts ...Option) (*Client, error) {
	defaults := chunking.DefaultConfig()
	cfg := &clientConfig{
		chunking:        ChunkingStrategy(session.DefaultChunking),
		indexing:        IndexingStrategy(session.DefaultIndexing),
		windowSize:      defaults.WindowSize,
		windowOverlap:   defaults.WindowOverlap,
		semanticMinSize: defaults.SemanticMinSize,
	}
	for _, opt := range opts {
		opt.apply(cfg)
	}

	chunkStrategy, err := chunking.Parse(string(cfg.chunking))
	if err != nil {
		return nil, fmt.Errorf("new client: %w", err)
	}
	indexStrategy, err := indexing.Parse(string(cfg.indexing))
	if err != nil {
		return nil, fmt.Errorf("new client: %w", err)
	}
	chunkCfg := chunking.Config{
		WindowSize:      cfg.windowSize,
		WindowOverlap:   cfg.windowOverlap,
		SemanticMinSize: cfg.semanticMinSize,
	}
	// Surface bad geometry here instead of on the first NewSession.
	if _, err := chunking.New(chunkStrategy, chunkCfg); err != nil {
		return nil, fmt.Errorf("new client: %w", err)
	}

	var completer assist.Completer
	if cfg.completer != nil {
		completer = &completerAdapter{inner: cfg.completer}
	}

	manager := session.NewManager(session.Config{
		Chunking:    chunkStrategy,
		ChunkConfig: chunkCfg,
		Indexing:    indexStrategy,
	}, cfg.logger)

	return &Client{
		manager: manager,
		assist:  assist.New(completer, cfg.logger),
	}, nil
}

// NewSession creates an empty session with the client defaults.
func (c *Client) NewSession() (*Session, error) {
	inner, err := c.manager.Create()
	if err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}
	return &Session{inner: inner, assist: c.assist}, nil
}

// Session returns the live session with the given id. Returns
// ErrSessionNotFound for unknown or deleted ids.
func (c *Client) Session(id string) (*Session, error) {
	inner, err := c.manager.Get(id)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	return &Session{inner: inner, assist: c.assist}, nil
}

// DeleteSession removes a session and releases its index resources.
// Deleting an unknown id is a no-op.
func (c *Client) DeleteSession(id string) {
	c.manager.Delete(id)
}

// Sessions reports the number of live sessions.
func (c *Client) Sessions() int {
	return c.manager.Len()
}

// Close releases every live session. The Client must not be used
// afterwards.
func (c *Client) Close() {
	c.manager.Clear()
}

// ChunkingStrategies lists the available chunking strategies.
func ChunkingStrategies() []StrategyDescriptor {
	return fromChunkingDescriptors(chunking.Descriptors())
}

// IndexingStrategies lists the available indexing strategies.
func IndexingStrategies() []StrategyDescriptor {
	return fromIndexingDescriptors(indexing.Descriptors())
}

func fromChunkingDescriptors(in []chunking.Descriptor) []StrategyDescriptor {
	out := make([]StrategyDescriptor, len(in))
	for i, d := range in {
		out[i] = StrategyDescriptor{Key: d.Key, Name: d.Name, Description: d.Description}
	}
	return out
}

func fromIndexingDescriptors(in []indexing.Descriptor) []StrategyDescriptor {
	out := make([]StrategyDescriptor, len(in))
	for i, d := range in {
		out[i] = StrategyDescriptor{Key: d.Key, Name: d.Name, Description: d.Description}
	}
	return out
}
