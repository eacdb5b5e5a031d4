package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/peterkuimelis/frontline/internal/game"
)

const notifyChannel = "match_changes"

// Schema creates the matches table. Applied by Migrate.
const Schema = `
CREATE TABLE IF NOT EXISTS matches (
	id          TEXT PRIMARY KEY,
	version     BIGINT NOT NULL,
	status      TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	last_active TIMESTAMPTZ NOT NULL,
	expire_at   TIMESTAMPTZ,
	doc         JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS matches_status_idx ON matches (status, last_active);
CREATE INDEX IF NOT EXISTS matches_expire_idx ON matches (expire_at);
`

// Postgres is a Store backed by a single table. Every change is announced with
// pg_notify so watchers in other processes see it.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres connects to dsn and verifies the connection.
func NewPostgres(ctx context.Context, dsn string, logger *zap.Logger) (*Postgres, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Postgres{pool: pool, logger: logger}, nil
}

// Pool exposes the connection pool for stores that share the database.
func (s *Postgres) Pool() *pgxpool.Pool {
	return s.pool
}

// Migrate applies Schema.
func (s *Postgres) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *Postgres) Create(ctx context.Context, m *game.MatchState) error {
	m.Version = 1
	doc, err := encode(m)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO matches (id, version, status, created_at, last_active, expire_at, doc)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`,
		m.ID, m.Version, string(m.Status), m.CreatedAt, m.LastActive, nullTime(m.ExpireAt), doc)
	if err != nil {
		return fmt.Errorf("create match %s: %w", m.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrExists
	}
	return s.notify(ctx, m.ID)
}

func (s *Postgres) Get(ctx context.Context, id string) (*game.MatchState, error) {
	var (
		doc        []byte
		version    int64
		lastActive time.Time
		expireAt   *time.Time
	)
	err := s.pool.QueryRow(ctx,
		`SELECT doc, version, last_active, expire_at FROM matches WHERE id = $1`, id,
	).Scan(&doc, &version, &lastActive, &expireAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get match %s: %w", id, err)
	}
	return hydrate(doc, version, lastActive, expireAt)
}

func (s *Postgres) Write(ctx context.Context, next *game.MatchState, expect int64) error {
	next.Version = expect + 1
	doc, err := encode(next)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE matches SET doc = $1, version = $2, status = $3
		WHERE id = $4 AND version = $5`,
		doc, next.Version, string(next.Status), next.ID, expect)
	if err != nil {
		next.Version = expect
		return fmt.Errorf("write match %s: %w", next.ID, err)
	}
	if tag.RowsAffected() == 0 {
		next.Version = expect
		if _, err := s.Get(ctx, next.ID); errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return ErrConflict
	}
	return s.notify(ctx, next.ID)
}

func (s *Postgres) Touch(ctx context.Context, id string, lastActive, expireAt time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE matches SET last_active = $1, expire_at = $2 WHERE id = $3`,
		lastActive, nullTime(expireAt), id)
	if err != nil {
		return fmt.Errorf("touch match %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete match %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return s.notify(ctx, id)
}

// Watch listens on a dedicated connection and re-reads the document whenever a
// notification for id arrives.
func (s *Postgres) Watch(ctx context.Context, id string) (<-chan Change, error) {
	first, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire listener: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("listen: %w", err)
	}

	ch := make(chan Change, watchBuffer)
	ch <- Change{State: first}

	go func() {
		defer close(ch)
		defer func() {
			// The listener session must not return to the pool still subscribed.
			_, _ = conn.Exec(context.Background(), "UNLISTEN "+notifyChannel)
			conn.Release()
		}()
		lastVersion := first.Version
		for {
			n, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() == nil {
					send(ch, Change{Err: fmt.Errorf("watch %s: %w", id, err)})
				}
				return
			}
			if n.Payload != id {
				continue
			}
			m, err := s.Get(ctx, id)
			switch {
			case errors.Is(err, ErrNotFound):
				send(ch, Change{Deleted: true})
				return
			case err != nil:
				if ctx.Err() == nil {
					send(ch, Change{Err: err})
				}
				return
			case m.Version == lastVersion:
				continue
			}
			lastVersion = m.Version
			send(ch, Change{State: m})
		}
	}()
	return ch, nil
}

func (s *Postgres) List(ctx context.Context, f Filter) ([]*game.MatchState, error) {
	query := `SELECT doc, version, last_active, expire_at FROM matches WHERE ($1 = '' OR status = $1)`
	args := []any{string(f.Status)}
	if !f.ActiveSince.IsZero() {
		query += ` AND last_active >= $2`
		args = append(args, f.ActiveSince)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	var out []*game.MatchState
	for rows.Next() {
		var (
			doc        []byte
			version    int64
			lastActive time.Time
			expireAt   *time.Time
		)
		if err := rows.Scan(&doc, &version, &lastActive, &expireAt); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		m, err := hydrate(doc, version, lastActive, expireAt)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Postgres) ReapExpired(ctx context.Context, now time.Time) (int, error) {
	rows, err := s.pool.Query(ctx,
		`DELETE FROM matches WHERE expire_at IS NOT NULL AND expire_at < $1 RETURNING id`, now)
	if err != nil {
		return 0, fmt.Errorf("reap expired: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return 0, fmt.Errorf("reap expired: %w", err)
	}
	for _, id := range ids {
		if err := s.notify(ctx, id); err != nil {
			s.logger.Warn("notify reaped match", zap.String("match", id), zap.Error(err))
		}
	}
	if len(ids) > 0 {
		s.logger.Info("reaped expired matches", zap.Int("count", len(ids)))
	}
	return len(ids), nil
}

func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}

func (s *Postgres) notify(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, id); err != nil {
		return fmt.Errorf("notify %s: %w", id, err)
	}
	return nil
}

// hydrate decodes doc and overlays the columns that are written outside the document.
func hydrate(doc []byte, version int64, lastActive time.Time, expireAt *time.Time) (*game.MatchState, error) {
	m, err := decode(doc)
	if err != nil {
		return nil, err
	}
	m.Version = version
	m.LastActive = lastActive
	if expireAt != nil {
		m.ExpireAt = *expireAt
	}
	return m, nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
