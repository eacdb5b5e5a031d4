// Package app assembles the collaborators of a frontline process from config.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/peterkuimelis/frontline/internal/config"
	"github.com/peterkuimelis/frontline/internal/game"
	"github.com/peterkuimelis/frontline/internal/log"
	"github.com/peterkuimelis/frontline/internal/opponent"
	"github.com/peterkuimelis/frontline/internal/profile"
	"github.com/peterkuimelis/frontline/internal/session"
	"github.com/peterkuimelis/frontline/internal/store"
)

// Build wires the engine, stores, opponent driver and scheduler. events receives
// match events; nil logs them through logger. policy overrides opponent.kind.
// The returned func stops the scheduler and closes the stores.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger, events log.EventLogger, policy opponent.Policy) (session.Deps, func(), error) {
	if events == nil {
		events = log.NewZapLogger(logger)
	}
	cat := game.NewCatalog()
	engine := game.NewEngine(cat,
		game.WithLogger(logger),
		game.WithEventLogger(events),
	)

	var (
		st       store.Store
		profiles profile.Store
	)
	switch cfg.Store.Driver {
	case "postgres":
		pg, err := store.NewPostgres(ctx, cfg.Store.DSN, logger)
		if err != nil {
			return session.Deps{}, nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return session.Deps{}, nil, err
		}
		st = pg
		if cfg.Profiles.Driver == "postgres" {
			pp := profile.NewPostgres(pg.Pool())
			if err := pp.Migrate(ctx); err != nil {
				pg.Close()
				return session.Deps{}, nil, err
			}
			profiles = pp
		}
	default:
		st = store.NewMemory(logger)
	}
	if profiles == nil {
		mem, err := memoryProfiles(cat, cfg.Profiles.Seed)
		if err != nil {
			st.Close()
			return session.Deps{}, nil, err
		}
		profiles = mem
	}
	if err := applyStarter(cat, cfg.Profiles, profiles); err != nil {
		st.Close()
		return session.Deps{}, nil, err
	}

	if policy == nil {
		var err error
		if policy, err = PolicyFor(cfg.Opponent); err != nil {
			st.Close()
			return session.Deps{}, nil, err
		}
	}
	driver := opponent.NewDriver(engine, policy, cfg.Timing.ThinkDelay, logger).WithEvents(events)

	sched, err := gocron.NewScheduler()
	if err != nil {
		st.Close()
		return session.Deps{}, nil, fmt.Errorf("scheduler: %w", err)
	}
	if _, err := session.StartReaper(sched, st, cfg.Timing.ReaperInterval, engine.Now, logger); err != nil {
		_ = sched.Shutdown()
		st.Close()
		return session.Deps{}, nil, fmt.Errorf("schedule reaper: %w", err)
	}
	sched.Start()

	deps := session.Deps{
		Store:     st,
		Engine:    engine,
		Profiles:  profiles,
		Opponent:  driver,
		Scheduler: sched,
		Timing:    session.TimingFromConfig(cfg.Timing),
		Logger:    logger,
	}
	release := func() {
		if err := sched.Shutdown(); err != nil {
			logger.Warn("scheduler shutdown", zap.Error(err))
		}
		if err := st.Close(); err != nil {
			logger.Warn("close store", zap.Error(err))
		}
	}
	return deps, release, nil
}

func memoryProfiles(cat *game.Catalog, seed string) (*profile.Memory, error) {
	if seed == "" {
		return profile.NewMemory(), nil
	}
	return profile.LoadMemory(cat, seed)
}

// applyStarter replaces the default starter collection with a named pool.
func applyStarter(cat *game.Catalog, cfg config.ProfilesConfig, profiles profile.Store) error {
	if cfg.Pools == "" || cfg.Starter == "" {
		return nil
	}
	pools, err := game.ParsePoolFile(cat, cfg.Pools)
	if err != nil {
		return err
	}
	pool, ok := pools[cfg.Starter]
	if !ok {
		return fmt.Errorf("profiles.starter: no pool named %q in %s", cfg.Starter, cfg.Pools)
	}
	switch p := profiles.(type) {
	case *profile.Memory:
		p.Starter = pool
	case *profile.Postgres:
		p.Starter = pool
	}
	return nil
}

// PolicyFor returns the configured automated opponent policy.
func PolicyFor(cfg config.OpponentConfig) (opponent.Policy, error) {
	switch cfg.Kind {
	case "random":
		seed := cfg.Seed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		return opponent.NewRandomPolicy(seed), nil
	case "pass":
		return opponent.PassPolicy{}, nil
	case "mcp":
		return nil, errors.New("opponent.kind mcp is only available from frontline-mcp")
	}
	return nil, fmt.Errorf("unknown opponent.kind %q", cfg.Kind)
}
