package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSessionNotFound signals a missing session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrAttachmentNotFound signals a missing attachment.
	ErrAttachmentNotFound = errors.New("attachment not found")
	// ErrUnknownStrategy signals an unregistered strategy key.
	ErrUnknownStrategy = errors.New("unknown strategy")
	// ErrInvalidConfig signals a strategy configuration that cannot work.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrExtraction signals a failure to pull text out of an uploaded file.
	ErrExtraction = errors.New("extraction failed")
	// ErrAssistUnavailable signals that the assistant backend cannot be reached.
	ErrAssistUnavailable = errors.New("assistant unavailable")
)

// UnknownStrategyError wraps ErrUnknownStrategy with the strategy kind
// (chunking or indexing), the rejected key and the registered keys.
type UnknownStrategyError struct {
	Kind  string
	Key   string
	Valid []string
}

func (e *UnknownStrategyError) Error() string {
	msg := fmt.Sprintf("%s: unsupported %s strategy %q", ErrUnknownStrategy.Error(), e.Kind, e.Key)
	if len(e.Valid) > 0 {
		msg += fmt.Sprintf(" (valid: %s)", strings.Join(e.Valid, ", "))
	}
	return msg
}

func (e *UnknownStrategyError) Unwrap() error { return ErrUnknownStrategy }

// NewUnknownStrategy creates an unknown strategy error.
func NewUnknownStrategy(kind, key string, valid ...string) error {
	return &UnknownStrategyError{Kind: kind, Key: key, Valid: valid}
}

// ConfigurationError wraps ErrInvalidConfig with the offending field and reason.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidConfig.Error(), e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrInvalidConfig }

// NewConfiguration creates a configuration error.
func NewConfiguration(field, reason string) error {
	return &ConfigurationError{Field: field, Reason: reason}
}

// ExtractionError wraps ErrExtraction with the source filename and cause.
type ExtractionError struct {
	Filename string
	Cause    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrExtraction.Error(), e.Filename, e.Cause)
}

func (e *ExtractionError) Unwrap() []error { return []error{ErrExtraction, e.Cause} }

// NewExtraction creates an extraction error.
func NewExtraction(filename string, cause error) error {
	return &ExtractionError{Filename: filename, Cause: cause}
}
