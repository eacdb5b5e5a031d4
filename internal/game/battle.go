package game

import (
	"fmt"

	"github.com/peterkuimelis/frontline/internal/log"
)

// attack resolves a combat unit's attack on the enemy HQ or on the unit targetID.
// Damage always uses buffed stats; casualties are tagged by Apply afterwards.
func (e *Engine) attack(m *MatchState, a Action, targetID string) error {
	if a.UnitID == "" {
		return ErrNoAttacker
	}
	mine := m.Side(a.Side)
	enemySide := a.Side.Opponent()
	enemy := m.Side(enemySide)

	ai, err := liveUnit(mine.Board, a.UnitID)
	if err != nil {
		return err
	}
	card, err := e.cardOf(&mine.Board[ai])
	if err != nil {
		return err
	}
	if card.IsSupport() {
		return ErrNotCombat
	}
	if !mine.Board[ai].CanAct {
		return ErrUnitAsleep
	}

	attacker := buffedUnit(e.catalog, mine.Board, ai)
	mine.Board[ai].CanAct = false
	e.fx(m, attacker.InstanceID, FxActionAttack)

	if a.TargetIndex == TargetHQ {
		e.attackHQ(m, a.Side, card, attacker.Attack)
		return nil
	}

	ti := findUnit(enemy.Board, targetID)
	if ti < 0 {
		return fmt.Errorf("%w: %q", ErrInvalidTarget, targetID)
	}
	targetCard, err := e.cardOf(&enemy.Board[ti])
	if err != nil {
		return err
	}
	e.log(log.NewAttackDeclareEvent(m.ID, m.TurnCount, string(a.Side), card.Name, targetCard.Name))

	if targetCard.Invulnerable {
		e.fx(m, targetID, FxBuffDef)
		m.LastAction = fmt.Sprintf("%s is INVULNERABLE!", targetCard.Name)
		e.log(log.NewAbsorbEvent(m.ID, m.TurnCount, string(enemySide), card.Name, targetCard.Name))
		return nil
	}

	defender := buffedUnit(e.catalog, enemy.Board, ti)
	enemy.Board[ti].HP -= attacker.Attack
	e.fx(m, targetID, FxDamage)
	e.log(log.NewDamageEvent(m.ID, m.TurnCount, string(enemySide), targetCard.Name, attacker.Attack, defender.HP-attacker.Attack))

	if survived := buffedUnit(e.catalog, enemy.Board, ti); survived.HP > 0 && defender.Attack > 0 {
		mine.Board[ai].HP -= defender.Attack
		e.fx(m, attacker.InstanceID, FxDamage)
		e.log(log.NewRecoilEvent(m.ID, m.TurnCount, string(a.Side), card.Name, defender.Attack, attacker.HP-defender.Attack))
	}

	m.LastAction = fmt.Sprintf("%s engaged %s", card.Name, targetCard.Name)
	return nil
}

// attackHQ hits the enemy headquarters unless a guard stands in the way.
func (e *Engine) attackHQ(m *MatchState, side Side, card *Card, damage int) {
	enemySide := side.Opponent()
	enemy := m.Side(enemySide)

	if gi := firstWithTrait(e.catalog, enemy.Board, TraitGuard); gi >= 0 {
		guard := &enemy.Board[gi]
		guardName := e.catalog.Name(guard.CardID)
		guard.HP -= damage
		e.fx(m, guard.InstanceID, FxDamage)
		m.LastAction = fmt.Sprintf("%s hit %s (Guard)!", card.Name, guardName)
		e.log(log.NewGuardRedirectEvent(m.ID, m.TurnCount, string(enemySide), card.Name, guardName))
		e.log(log.NewDamageEvent(m.ID, m.TurnCount, string(enemySide), guardName, damage, guard.HP))
		return
	}

	e.log(log.NewAttackDeclareEvent(m.ID, m.TurnCount, string(side), card.Name, "HQ"))
	old := enemy.HP
	enemy.HP -= damage
	m.LastAction = fmt.Sprintf("%s attacked Command Post!", card.Name)
	e.log(log.NewHQDamageEvent(m.ID, m.TurnCount, string(enemySide), old, enemy.HP))
	if enemy.HP <= 0 {
		e.finish(m, side, "HQ destroyed")
	}
}
