package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/peterkuimelis/frontline/internal/game"
)

// watchBuffer bounds how far a slow watcher may fall behind before older
// snapshots are dropped in favour of newer ones.
const watchBuffer = 16

// Memory is an in-process Store. Documents are kept encoded so readers never share
// memory with writers.
type Memory struct {
	mu       sync.Mutex
	docs     map[string][]byte
	watchers map[string]map[*watcher]struct{}
	logger   *zap.Logger
}

type watcher struct {
	ch chan Change
}

func NewMemory(logger *zap.Logger) *Memory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Memory{
		docs:     make(map[string][]byte),
		watchers: make(map[string]map[*watcher]struct{}),
		logger:   logger,
	}
}

func (s *Memory) Create(_ context.Context, m *game.MatchState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[m.ID]; ok {
		return ErrExists
	}
	m.Version = 1
	data, err := encode(m)
	if err != nil {
		return err
	}
	s.docs[m.ID] = data
	s.publishLocked(m.ID, data)
	return nil
}

func (s *Memory) Get(_ context.Context, id string) (*game.MatchState, error) {
	s.mu.Lock()
	data, ok := s.docs[id]
	s.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decode(data)
}

func (s *Memory) Write(_ context.Context, next *game.MatchState, expect int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.docs[next.ID]
	if !ok {
		return ErrNotFound
	}
	stored, err := decode(cur)
	if err != nil {
		return err
	}
	if stored.Version != expect {
		return ErrConflict
	}
	next.Version = expect + 1
	// Heartbeat fields are owned by Touch.
	next.LastActive = stored.LastActive
	next.ExpireAt = stored.ExpireAt
	data, err := encode(next)
	if err != nil {
		return err
	}
	s.docs[next.ID] = data
	s.publishLocked(next.ID, data)
	return nil
}

func (s *Memory) Touch(_ context.Context, id string, lastActive, expireAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.docs[id]
	if !ok {
		return ErrNotFound
	}
	m, err := decode(cur)
	if err != nil {
		return err
	}
	m.LastActive = lastActive
	m.ExpireAt = expireAt
	data, err := encode(m)
	if err != nil {
		return err
	}
	s.docs[id] = data
	return nil
}

func (s *Memory) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return ErrNotFound
	}
	s.deleteLocked(id)
	return nil
}

func (s *Memory) deleteLocked(id string) {
	delete(s.docs, id)
	for w := range s.watchers[id] {
		send(w.ch, Change{Deleted: true})
	}
}

func (s *Memory) Watch(ctx context.Context, id string) (<-chan Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	first, err := decode(data)
	if err != nil {
		return nil, err
	}

	w := &watcher{ch: make(chan Change, watchBuffer)}
	if s.watchers[id] == nil {
		s.watchers[id] = make(map[*watcher]struct{})
	}
	s.watchers[id][w] = struct{}{}
	w.ch <- Change{State: first}

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.watchers[id], w)
		if len(s.watchers[id]) == 0 {
			delete(s.watchers, id)
		}
		close(w.ch)
		s.mu.Unlock()
	}()
	return w.ch, nil
}

func (s *Memory) List(_ context.Context, f Filter) ([]*game.MatchState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*game.MatchState
	for _, data := range s.docs {
		m, err := decode(data)
		if err != nil {
			return nil, err
		}
		if matches(m, f) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Memory) ReapExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, data := range s.docs {
		m, err := decode(data)
		if err != nil {
			return n, err
		}
		if !m.ExpireAt.IsZero() && m.ExpireAt.Before(now) {
			s.deleteLocked(id)
			n++
		}
	}
	if n > 0 {
		s.logger.Info("reaped expired matches", zap.Int("count", n))
	}
	return n, nil
}

func (s *Memory) Close() error {
	return nil
}

func (s *Memory) publishLocked(id string, data []byte) {
	for w := range s.watchers[id] {
		m, err := decode(data)
		if err != nil {
			s.logger.Error("decode for watcher", zap.String("match", id), zap.Error(err))
			continue
		}
		send(w.ch, Change{State: m})
	}
}

// send delivers c without blocking; when the buffer is full the oldest pending
// change is dropped since every change carries a full snapshot.
func send(ch chan Change, c Change) {
	for {
		select {
		case ch <- c:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
