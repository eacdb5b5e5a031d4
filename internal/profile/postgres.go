package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/peterkuimelis/frontline/internal/game"
)

// Schema creates the profiles table.
const Schema = `
CREATE TABLE IF NOT EXISTS profiles (
	id         TEXT PRIMARY KEY,
	username   TEXT NOT NULL,
	credits    INTEGER NOT NULL,
	wins       INTEGER NOT NULL DEFAULT 0,
	losses     INTEGER NOT NULL DEFAULT 0,
	collection TEXT[] NOT NULL
);
`

// Postgres is a Store backed by the profiles table. It shares the pool with the
// match store when both live in the same database.
type Postgres struct {
	// Starter replaces StarterCollection for profiles created from now on.
	Starter []string

	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("migrate profiles: %w", err)
	}
	return nil
}

func (s *Postgres) Profile(ctx context.Context, userID, username string) (*Profile, error) {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO profiles (id, username, credits, collection)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING`,
		userID, username, StartingCredits, starterOr(s.Starter))
	if err != nil {
		return nil, fmt.Errorf("ensure profile %s: %w", userID, err)
	}

	var p Profile
	err = s.pool.QueryRow(ctx,
		`SELECT id, username, credits, wins, losses, collection FROM profiles WHERE id = $1`, userID,
	).Scan(&p.UserID, &p.Username, &p.Credits, &p.Wins, &p.Losses, &p.Collection)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", userID, err)
	}
	return &p, nil
}

func (s *Postgres) GrantWin(ctx context.Context, userID string, reward game.Reward) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE profiles
		SET credits = credits + $1,
		    wins = wins + 1,
		    collection = CASE WHEN $2 = '' THEN collection ELSE array_append(collection, $2) END
		WHERE id = $3`,
		reward.Credits, reward.CardID, userID)
	if err != nil {
		return fmt.Errorf("grant win %s: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
