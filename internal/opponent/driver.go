package opponent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/peterkuimelis/frontline/internal/game"
	"github.com/peterkuimelis/frontline/internal/log"
)

// Driver plays one move at a time for the automated side.
type Driver struct {
	engine *game.Engine
	policy Policy
	think  time.Duration
	events log.EventLogger
	logger *zap.Logger
}

func NewDriver(engine *game.Engine, policy Policy, think time.Duration, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{
		engine: engine,
		policy: policy,
		think:  think,
		events: log.Discard{},
		logger: logger,
	}
}

// WithEvents records forced passes to l.
func (d *Driver) WithEvents(l log.EventLogger) *Driver {
	d.events = l
	return d
}

// Take waits the thinking delay, asks the policy for a move and applies it to state.
// A failing or illegal move is replaced by END_TURN so the match never stalls.
// The returned action is the one actually applied.
func (d *Driver) Take(ctx context.Context, state *game.MatchState, side game.Side) (*game.MatchState, game.Action, error) {
	if d.think > 0 {
		t := time.NewTimer(d.think)
		select {
		case <-ctx.Done():
			t.Stop()
			return state, game.Action{}, ctx.Err()
		case <-t.C:
		}
	}

	action, err := d.decide(ctx, state, side)
	if err == nil {
		next, applyErr := d.engine.Apply(state, action)
		if applyErr == nil {
			return next, action, nil
		}
		err = applyErr
	}
	if ctx.Err() != nil {
		return state, game.Action{}, ctx.Err()
	}

	d.logger.Warn("opponent move failed, passing turn",
		zap.String("match", state.ID),
		zap.String("side", string(side)),
		zap.Error(err))
	d.events.Log(log.NewForcedPassEvent(state.ID, state.TurnCount, string(side), err.Error()))

	pass := game.EndTurn(side)
	next, passErr := d.engine.Apply(state, pass)
	if passErr != nil {
		return state, pass, errors.Join(err, passErr)
	}
	return next, pass, nil
}

// decide asks the policy for a move. A panicking policy is reported as an error.
func (d *Driver) decide(ctx context.Context, state *game.MatchState, side game.Side) (action game.Action, err error) {
	defer func() {
		if r := recover(); r != nil {
			action, err = game.Action{}, fmt.Errorf("policy panic: %v", r)
		}
	}()
	view := game.NewView(d.engine.Catalog(), state, side)
	move, err := d.policy.ChooseMove(ctx, view)
	if err != nil {
		return game.Action{}, fmt.Errorf("policy: %w", err)
	}
	d.logger.Debug("opponent move", zap.String("match", state.ID), zap.Stringer("move", move))
	return move.ToAction(d.engine.Catalog(), state, side)
}
