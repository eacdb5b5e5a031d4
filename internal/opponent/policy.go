package opponent

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/peterkuimelis/frontline/internal/game"
)

// Policy chooses the automated side's next move. It may take arbitrarily long and
// may fail; the Driver turns any failure into an end of turn.
type Policy interface {
	ChooseMove(ctx context.Context, view game.View) (Move, error)
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc func(ctx context.Context, view game.View) (Move, error)

func (f PolicyFunc) ChooseMove(ctx context.Context, view game.View) (Move, error) {
	return f(ctx, view)
}

// PassPolicy always ends the turn.
type PassPolicy struct{}

func (PassPolicy) ChooseMove(context.Context, game.View) (Move, error) {
	return EndTurnMove(), nil
}

// LegalMoves lists the moves that pass the obvious preconditions visible in view.
// END_TURN is always last.
func LegalMoves(view game.View) []Move {
	var moves []Move
	if !view.IsYourTurn {
		return moves
	}
	for _, c := range view.Hand {
		if c.Cost <= view.Supply {
			moves = append(moves, PlayCardMove(c.ID, c.Index))
		}
	}
	for _, u := range view.Board {
		if u.Destroyed {
			continue
		}
		if u.CanAttack {
			moves = append(moves, AttackMove(u.Index, game.TargetHQ))
			for _, t := range view.OpponentBoard {
				if !t.Destroyed && !t.Invulnerable {
					moves = append(moves, AttackMove(u.Index, t.Index))
				}
			}
		}
		if u.Depleted || u.Category != game.CategorySupport {
			continue
		}
		if u.Ability != "" {
			moves = append(moves, AbilityMove(u.Index, -1))
		}
		if u.Support != "" {
			for _, t := range view.Board {
				if !t.Destroyed && t.Category != game.CategorySupport {
					moves = append(moves, AbilityMove(u.Index, t.Index))
				}
			}
		}
	}
	return append(moves, EndTurnMove())
}

// RandomPolicy picks uniformly among the legal moves, ending the turn once nothing
// else is available or with probability PassChance.
type RandomPolicy struct {
	PassChance float64

	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomPolicy(seed uint64) *RandomPolicy {
	return &RandomPolicy{PassChance: 0.1, rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (p *RandomPolicy) ChooseMove(_ context.Context, view game.View) (Move, error) {
	moves := LegalMoves(view)
	if len(moves) <= 1 {
		return EndTurnMove(), nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rng.Float64() < p.PassChance {
		return EndTurnMove(), nil
	}
	return moves[p.rng.IntN(len(moves)-1)], nil
}
