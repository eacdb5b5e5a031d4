// Package store keeps match documents and pushes their changes to watchers.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/peterkuimelis/frontline/internal/game"
)

var (
	ErrNotFound = errors.New("match not found")
	ErrConflict = errors.New("match changed since it was read")
	ErrExists   = errors.New("match already exists")
)

// Change is delivered to watchers after every write, touch or delete of a match.
type Change struct {
	State   *game.MatchState // nil when Deleted
	Deleted bool
	Err     error // watch failure; the channel closes after it
}

// Filter selects matches for List.
type Filter struct {
	Status      game.Status
	ActiveSince time.Time // zero means no heartbeat filter
}

// Store is the shared match document store. Writes replace the whole document and
// succeed only if the stored version still equals the version the writer read.
type Store interface {
	Create(ctx context.Context, m *game.MatchState) error
	Get(ctx context.Context, id string) (*game.MatchState, error)
	// Write stores next if the current version equals expect and bumps next.Version.
	Write(ctx context.Context, next *game.MatchState, expect int64) error
	// Touch refreshes heartbeat fields without bumping the version.
	Touch(ctx context.Context, id string, lastActive, expireAt time.Time) error
	Delete(ctx context.Context, id string) error
	// Watch streams the current document and every later change until ctx is done.
	Watch(ctx context.Context, id string) (<-chan Change, error)
	List(ctx context.Context, f Filter) ([]*game.MatchState, error)
	// ReapExpired deletes documents whose ExpireAt is before now.
	ReapExpired(ctx context.Context, now time.Time) (int, error)
	Close() error
}

func encode(m *game.MatchState) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode match %s: %w", m.ID, err)
	}
	return data, nil
}

func decode(data []byte) (*game.MatchState, error) {
	var m game.MatchState
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode match: %w", err)
	}
	return &m, nil
}

func matches(m *game.MatchState, f Filter) bool {
	if f.Status != "" && m.Status != f.Status {
		return false
	}
	if !f.ActiveSince.IsZero() && m.LastActive.Before(f.ActiveSince) {
		return false
	}
	return true
}
