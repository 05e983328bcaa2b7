// Package repository persists append-only competition histories.
//
// Every backend serializes writes per competition and makes each write
// atomic for readers. Reads take no lock and may observe a stale history,
// never a partial one.
package repository

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/okian/palmares/internal/domain/model"
	"go.opentelemetry.io/otel"
)

// Journals for raw records that are persisted but never aggregated.
const (
	JournalStats  = "stats"
	JournalAwards = "awards"
)

var tracer = otel.Tracer("github.com/okian/palmares/internal/adapters/repository")

// Store provides read/write access to competition histories.
type Store interface {
	// ReadAll returns the history of competition in append order. A
	// competition without history yields an empty slice and no error.
	// Returns ErrCorruptStore if the stored history cannot be parsed.
	ReadAll(ctx context.Context, competition string) ([]model.Snapshot, error)

	// Append adds snap as the new last element of competition's history.
	Append(ctx context.Context, competition string, snap model.Snapshot) error

	// Replace overwrites competition's whole history.
	Replace(ctx context.Context, competition string, history []model.Snapshot) error

	// Competitions lists every competition with a stored history.
	Competitions(ctx context.Context) ([]string, error)

	// AppendRecord appends a raw record to a named journal.
	AppendRecord(ctx context.Context, journal string, raw json.RawMessage) error

	// Close releases backend resources.
	Close() error
}

// SafeName maps a competition name to the identifier used for storage:
// every rune outside [A-Za-z0-9] becomes an underscore.
func SafeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidCompetition
	}
	return name, nil
}

// keyedMutex hands out one mutex per key. Keys are never evicted; the set
// of competitions is small.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
