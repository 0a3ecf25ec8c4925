package docdex

import "github.com/docdex-io/docdex/internal/domain"

// Sentinel errors returned by Client and Session operations. Match
// them with errors.Is; returned errors carry operation context around
// these values.
var (
	// ErrSessionNotFound marks lookups of unknown session ids.
	ErrSessionNotFound = domain.ErrSessionNotFound
	// ErrAttachmentNotFound marks lookups of unknown attachment ids.
	ErrAttachmentNotFound = domain.ErrAttachmentNotFound
	// ErrUnknownStrategy marks chunking or indexing keys outside the
	// catalog.
	ErrUnknownStrategy = domain.ErrUnknownStrategy
	// ErrInvalidConfig marks rejected configuration values, such as a
	// window overlap at or above the window size.
	ErrInvalidConfig = domain.ErrInvalidConfig
	// ErrExtraction marks attachment payloads whose text could not be
	// extracted.
	ErrExtraction = domain.ErrExtraction
	// ErrAssistUnavailable marks Ask calls whose completion provider
	// failed.
	ErrAssistUnavailable = domain.ErrAssistUnavailable
)
