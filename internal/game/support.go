package game

import (
	"fmt"

	"github.com/peterkuimelis/frontline/internal/log"
)

// useAbility triggers a unit's once-per-match active ability.
func (e *Engine) useAbility(m *MatchState, a Action) error {
	mine := m.Side(a.Side)
	ui, err := liveUnit(mine.Board, a.UnitID)
	if err != nil {
		return err
	}
	unit := &mine.Board[ui]
	card, err := e.cardOf(unit)
	if err != nil {
		return err
	}
	if card.Ability == nil {
		return ErrNoAbility
	}
	if unit.AbilityConsumed {
		return ErrAbilityConsumed
	}
	if !unit.CanAct {
		return ErrUnitAsleep
	}
	if a.TargetID != "" {
		if _, err := liveUnit(mine.Board, a.TargetID); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidTarget, a.TargetID)
		}
	}

	switch card.Ability.(type) {
	case RestoreSupplyFull:
		old := mine.Supply
		mine.Supply = m.SupplyCap
		m.LastAction = fmt.Sprintf("%s fully resupplied forces!", card.Name)
		e.log(log.NewResupplyEvent(m.ID, m.TurnCount, string(a.Side), old, mine.Supply))
	}

	unit.AbilityConsumed = true
	unit.CanAct = false
	e.fx(m, unit.InstanceID, FxActionBuff)
	e.log(log.NewAbilityEvent(m.ID, m.TurnCount, string(a.Side), card.Name, card.Ability.String()))
	return nil
}

// support applies a support unit's effect to a friendly combat unit.
func (e *Engine) support(m *MatchState, a Action) error {
	mine := m.Side(a.Side)
	ui, err := liveUnit(mine.Board, a.UnitID)
	if err != nil {
		return err
	}
	card, err := e.cardOf(&mine.Board[ui])
	if err != nil {
		return err
	}
	if card.Support == nil {
		return ErrNotSupport
	}
	if mine.Board[ui].AbilityConsumed {
		return ErrAbilityConsumed
	}
	if !mine.Board[ui].CanAct {
		return ErrUnitAsleep
	}

	ti, err := liveUnit(mine.Board, a.TargetID)
	if err != nil || ti == ui {
		return fmt.Errorf("%w: %q", ErrInvalidTarget, a.TargetID)
	}
	targetCard, err := e.cardOf(&mine.Board[ti])
	if err != nil {
		return err
	}
	if targetCard.IsSupport() {
		return fmt.Errorf("%w: cannot support another support unit", ErrInvalidTarget)
	}
	if card.Traits.Has(TraitInfantryOnly) && targetCard.Category != CategoryInfantry {
		return fmt.Errorf("%w: %s can only fortify infantry", ErrInvalidTarget, card.Name)
	}

	applySupport(card.Support, &mine.Board[ti])
	mine.Board[ui].AbilityConsumed = true
	mine.Board[ui].CanAct = false

	e.fx(m, mine.Board[ti].InstanceID, card.Support.Fx())
	e.fx(m, mine.Board[ui].InstanceID, FxActionBuff)
	m.LastAction = fmt.Sprintf("%s supported %s", card.Name, targetCard.Name)
	e.log(log.NewSupportEvent(m.ID, m.TurnCount, string(a.Side), card.Name, targetCard.Name, card.Support.String()))
	return nil
}
