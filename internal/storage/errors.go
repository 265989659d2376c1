package storage

import (
	"errors"
	"fmt"
	"strings"
)

// Failure kinds surfaced by the gateway. Handlers map these onto HTTP status
// codes with errors.Is, so everything returned from this package wraps exactly
// one of them.
var (
	ErrInvalidMediaType   = errors.New("invalid media type")
	ErrPayloadTooLarge    = errors.New("payload too large")
	ErrObjectNotFound     = errors.New("object not found")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrStorageWriteFailed = errors.New("storage write failed")
	ErrSigningFailed      = errors.New("signing failed")
)

// classifyWriteError reclassifies provider-side quota failures as
// ErrPayloadTooLarge by pattern-matching the provider message. Everything else
// is a generic write failure.
func classifyWriteError(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "exceeded") || strings.Contains(msg, "413") {
		return fmt.Errorf("%w: %v", ErrPayloadTooLarge, err)
	}
	return fmt.Errorf("%w: %v", ErrStorageWriteFailed, err)
}
