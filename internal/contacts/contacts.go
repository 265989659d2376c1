// Package contacts implements the append-only contact log on top of the kv
// table.
package contacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"quantumelodic/internal/kv"
)

// KeyPrefix is the record-type prefix for contact keys.
const KeyPrefix = "contact_"

// ErrInvalidEmail rejects submissions without a plausible address.
var ErrInvalidEmail = errors.New("valid email is required")

// Record is one inbound inquiry. Records are written once and never updated
// or deleted by the application.
type Record struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	Message     string `json:"message"`
	Timestamp   int64  `json:"timestamp"`
	SubmittedAt string `json:"submittedAt"`
	Status      string `json:"status"`
}

// Log stores and lists contact records.
type Log struct {
	store kv.Store
}

// NewLog constructs a Log over the kv store.
func NewLog(store kv.Store) *Log {
	return &Log{store: store}
}

// Record validates the email and appends a new record keyed by
// contact_<unixMilli>_<sanitizedEmail>.
func (l *Log) Record(ctx context.Context, email, name, message string) (string, error) {
	if !strings.Contains(email, "@") {
		return "", ErrInvalidEmail
	}
	now := time.Now()
	rec := Record{
		Email:       email,
		Name:        name,
		Message:     message,
		Timestamp:   now.UnixMilli(),
		SubmittedAt: now.UTC().Format(time.RFC3339),
		Status:      "new",
	}
	key := Key(rec.Timestamp, email)
	value, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal contact: %w", err)
	}
	if err := l.store.Set(ctx, key, value); err != nil {
		return "", fmt.Errorf("store contact: %w", err)
	}
	return key, nil
}

// All returns every contact record, ordered by key (and therefore by
// submission time).
func (l *Log) All(ctx context.Context) ([]Record, error) {
	entries, err := l.store.GetByPrefix(ctx, KeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	records := make([]Record, 0, len(entries))
	for _, entry := range entries {
		var rec Record
		if err := json.Unmarshal(entry.Value, &rec); err != nil {
			return nil, fmt.Errorf("decode contact %s: %w", entry.Key, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Key builds the storage key for a submission.
func Key(timestampMilli int64, email string) string {
	return fmt.Sprintf("%s%d_%s", KeyPrefix, timestampMilli, sanitizeEmail(email))
}

// sanitizeEmail replaces every non-alphanumeric rune with an underscore so the
// address can be embedded in a flat key.
func sanitizeEmail(email string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, email)
}
