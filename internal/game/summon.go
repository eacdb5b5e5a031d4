package game

import (
	"fmt"
	"slices"

	"github.com/peterkuimelis/frontline/internal/log"
)

// playCard spends supply to deploy a unit or resolve a tactic.
func (e *Engine) playCard(m *MatchState, a Action) error {
	mine := m.Side(a.Side)
	if a.HandIndex < 0 || a.HandIndex >= len(mine.Hand) || mine.Hand[a.HandIndex] != a.CardID {
		return fmt.Errorf("%w: %q at %d", ErrHandMismatch, a.CardID, a.HandIndex)
	}
	card, ok := e.catalog.Lookup(a.CardID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCard, a.CardID)
	}
	if mine.Supply < card.Cost {
		return fmt.Errorf("%w: need %d, have %d", ErrInsufficientSupply, card.Cost, mine.Supply)
	}

	mine.Hand = slices.Delete(mine.Hand, a.HandIndex, a.HandIndex+1)
	mine.Supply -= card.Cost

	if card.Category.Deploys() {
		mine.Board = append(mine.Board, Unit{
			InstanceID: e.newID(),
			CardID:     card.ID,
			Attack:     card.Attack,
			Defense:    card.Defense,
			HP:         card.Defense,
		})
		m.LastAction = fmt.Sprintf("%s deployed %s", a.Side.Title(), card.Name)
		e.log(log.NewDeployEvent(m.ID, m.TurnCount, string(a.Side), card.Name, card.Cost))
		return nil
	}

	e.log(log.NewTacticEvent(m.ID, m.TurnCount, string(a.Side), card.Name))
	switch t := card.Tactic.(type) {
	case AreaStrike:
		e.areaStrike(m, a.Side, card, t)
	case Resupply:
		old := mine.Supply
		mine.Supply += t.Amount
		m.LastAction = fmt.Sprintf("%s used %s!", a.Side.Title(), card.Name)
		e.log(log.NewResupplyEvent(m.ID, m.TurnCount, string(a.Side), old, mine.Supply))
	default:
		m.LastAction = fmt.Sprintf("%s played %s", a.Side.Title(), card.Name)
	}
	return nil
}

func (e *Engine) areaStrike(m *MatchState, side Side, card *Card, t AreaStrike) {
	enemySide := side.Opponent()
	enemy := m.Side(enemySide)
	if ii := firstWithTrait(e.catalog, enemy.Board, TraitInterceptor); ii >= 0 {
		interceptor := e.catalog.Name(enemy.Board[ii].CardID)
		m.LastAction = fmt.Sprintf("%s %s negated by %s!", side.Title(), card.Name, interceptor)
		e.log(log.NewInterceptEvent(m.ID, m.TurnCount, string(side), card.Name, interceptor))
		return
	}
	for i := range enemy.Board {
		u := &enemy.Board[i]
		if !u.Alive() {
			continue
		}
		u.HP -= t.Damage
		e.fx(m, u.InstanceID, FxDamage)
		e.log(log.NewDamageEvent(m.ID, m.TurnCount, string(enemySide), e.catalog.Name(u.CardID), t.Damage, u.HP))
	}
	m.LastAction = fmt.Sprintf("%s launched %s!", side.Title(), card.Name)
}
