package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks malformed upstream artifacts. Fatal, never retried.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks invalid configuration detected before any phase runs.
	ErrConfiguration = errors.New("configuration error")
	// ErrSegmentation marks a reasoning service that never produced a
	// structurally valid segmentation within the retry budget.
	ErrSegmentation = errors.New("segmentation error")
	// ErrCacheCorruption marks a stored artifact that is unreadable or fails
	// its fingerprint check. Callers treat it as a cache miss.
	ErrCacheCorruption = errors.New("cache corruption")
	// ErrProviderExhausted marks a capability whose configured provider chain
	// has been fully exhausted.
	ErrProviderExhausted = errors.New("provider chain exhausted")
	// ErrTransient marks recoverable failures worth advancing a provider chain for.
	ErrTransient = errors.New("transient failure")
	// ErrTimeout marks deadline-style failures from external services.
	ErrTimeout = errors.New("timeout")
)

// Wrap builds an error message that includes phase context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, phase, operation, message string, err error) error {
	detail := buildDetail(phase, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ProviderError reports a capability whose configured providers were all
// attempted without success.
type ProviderError struct {
	Capability string
	Attempted  []string
	Last       error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s: all providers exhausted (attempted %s)", e.Capability, strings.Join(e.Attempted, ", "))
	if e.Last != nil {
		return fmt.Sprintf("%s: last error: %v", msg, e.Last)
	}
	return msg
}

func (e *ProviderError) Unwrap() error { return ErrProviderExhausted }

// NewProviderError constructs a ProviderError for the given capability and the
// providers attempted, in order.
func NewProviderError(capability string, attempted []string, last error) *ProviderError {
	return &ProviderError{Capability: capability, Attempted: append([]string(nil), attempted...), Last: last}
}

// Recoverable reports whether an error should advance a provider fallback
// chain rather than abort the request outright.
func Recoverable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrConfiguration) {
		return false
	}
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrTimeout)
}

func buildDetail(phase, operation, message string) string {
	parts := make([]string, 0, 3)
	if phase = strings.TrimSpace(phase); phase != "" {
		parts = append(parts, phase)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
