// Package opponent drives the automated side of a match.
package opponent

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/peterkuimelis/frontline/internal/game"
)

// Move names accepted from a policy.
const (
	MovePlayCard   = "PLAY_CARD"
	MoveAttack     = "ATTACK"
	MoveUseAbility = "USE_ABILITY"
	MoveSurrender  = "SURRENDER"
	MoveEndTurn    = "END_TURN"
)

// ErrBadMove is returned for moves that cannot be mapped onto the board.
var ErrBadMove = errors.New("bad move")

// Move is a policy decision expressed in board indices.
type Move struct {
	Action        string `json:"action"`
	CardID        string `json:"cardId,omitempty"`
	HandIndex     *int   `json:"index,omitempty"`
	AttackerIndex *int   `json:"attackerIndex,omitempty"`
	UnitIndex     *int   `json:"unitIndex,omitempty"`
	TargetIndex   *int   `json:"targetIndex,omitempty"`
}

func intp(i int) *int { return &i }

func PlayCardMove(cardID string, handIndex int) Move {
	return Move{Action: MovePlayCard, CardID: cardID, HandIndex: intp(handIndex)}
}

func AttackMove(attackerIndex, targetIndex int) Move {
	return Move{Action: MoveAttack, AttackerIndex: intp(attackerIndex), TargetIndex: intp(targetIndex)}
}

// AbilityMove uses a unit's support or active ability. targetIndex < 0 means no target.
func AbilityMove(unitIndex, targetIndex int) Move {
	m := Move{Action: MoveUseAbility, UnitIndex: intp(unitIndex)}
	if targetIndex >= 0 {
		m.TargetIndex = intp(targetIndex)
	}
	return m
}

func EndTurnMove() Move {
	return Move{Action: MoveEndTurn}
}

func (m Move) String() string {
	data, _ := json.Marshal(m)
	return string(data)
}

// ParseMove decodes a move from policy output, tolerating Markdown code fences.
func ParseMove(raw string) (Move, error) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	s = strings.TrimSpace(s)

	var m Move
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return Move{}, fmt.Errorf("%w: %v", ErrBadMove, err)
	}
	m.Action = strings.ToUpper(strings.TrimSpace(m.Action))
	return m, nil
}

// ToAction maps a move onto instance ids of state for side.
func (m Move) ToAction(cat *game.Catalog, state *game.MatchState, side game.Side) (game.Action, error) {
	mine := state.Side(side).Board
	switch m.Action {
	case MovePlayCard:
		hand := state.Side(side).Hand
		idx := -1
		if m.HandIndex != nil {
			idx = *m.HandIndex
		}
		// Fall back to the first copy when the index does not match the card.
		if idx < 0 || idx >= len(hand) || (m.CardID != "" && hand[idx] != m.CardID) {
			idx = slices.Index(hand, m.CardID)
		}
		if idx < 0 {
			return game.Action{}, fmt.Errorf("%w: card %q not in hand", ErrBadMove, m.CardID)
		}
		return game.PlayCard(side, hand[idx], idx), nil

	case MoveAttack:
		attacker, err := unitAt(mine, m.AttackerIndex)
		if err != nil {
			return game.Action{}, err
		}
		target := game.TargetHQ
		if m.TargetIndex != nil {
			target = *m.TargetIndex
		}
		return game.Attack(side, attacker.InstanceID, target), nil

	case MoveUseAbility:
		unit, err := unitAt(mine, m.UnitIndex)
		if err != nil {
			return game.Action{}, err
		}
		card, ok := cat.Lookup(unit.CardID)
		if !ok {
			return game.Action{}, fmt.Errorf("%w: unknown card %q", ErrBadMove, unit.CardID)
		}
		var targetID string
		if m.TargetIndex != nil && *m.TargetIndex >= 0 {
			target, err := unitAt(mine, m.TargetIndex)
			if err != nil {
				return game.Action{}, err
			}
			targetID = target.InstanceID
		}
		if card.Support != nil && targetID != "" {
			return game.Support(side, unit.InstanceID, targetID), nil
		}
		return game.UseAbility(side, unit.InstanceID, targetID), nil

	case MoveSurrender:
		return game.Surrender(side), nil

	case MoveEndTurn:
		return game.EndTurn(side), nil
	}
	return game.Action{}, fmt.Errorf("%w: unknown action %q", ErrBadMove, m.Action)
}

func unitAt(board []game.Unit, idx *int) (game.Unit, error) {
	if idx == nil || *idx < 0 || *idx >= len(board) {
		return game.Unit{}, fmt.Errorf("%w: no unit at board index", ErrBadMove)
	}
	return board[*idx], nil
}
