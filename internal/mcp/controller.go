package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/peterkuimelis/frontline/internal/game"
	"github.com/peterkuimelis/frontline/internal/opponent"
)

// DefaultMoveTimeout bounds how long the seat waits for the MCP client before the
// driver passes the turn on its behalf.
const DefaultMoveTimeout = 5 * time.Minute

// Policy implements opponent.Policy by sending decisions to the MCP session's
// pending channel and blocking on a response channel.
type Policy struct {
	session    *GameSession
	responseCh chan opponent.Move
	Timeout    time.Duration
}

// ChooseMove implements opponent.Policy.
func (p *Policy) ChooseMove(ctx context.Context, view game.View) (opponent.Move, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultMoveTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	p.session.bind(view.MatchID)
	pending := &PendingDecision{
		Type:  DecisionChooseMove,
		View:  &view,
		Moves: opponent.LegalMoves(view),
	}
	select {
	case p.session.pendingCh <- pending:
	case <-ctx.Done():
		return opponent.Move{}, fmt.Errorf("deliver decision: %w", ctx.Err())
	}

	select {
	case mv := <-p.responseCh:
		return mv, nil
	case <-ctx.Done():
		p.session.withdraw(pending)
		return opponent.Move{}, fmt.Errorf("await move: %w", ctx.Err())
	}
}
