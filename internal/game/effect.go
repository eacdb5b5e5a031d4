package game

import "fmt"

// SupportEffect is the one-shot effect a support unit applies to a friendly unit.
// The set of variants is closed: Heal, FortifyDefense, ArmAttack and Rally.
type SupportEffect interface {
	supportEffect()
	// Fx is the visual hint attached to the supported unit.
	Fx() FxKind
	String() string
}

// Heal restores hit points up to the target's effective maximum.
type Heal struct{ Amount int }

// FortifyDefense raises both maximum and current hit points.
type FortifyDefense struct{ Amount int }

// ArmAttack raises the target's attack.
type ArmAttack struct{ Amount int }

// Rally raises attack, maximum and current hit points together.
type Rally struct{ Amount int }

func (Heal) supportEffect()           {}
func (FortifyDefense) supportEffect() {}
func (ArmAttack) supportEffect()      {}
func (Rally) supportEffect()          {}

func (Heal) Fx() FxKind           { return FxHeal }
func (FortifyDefense) Fx() FxKind { return FxBuffDef }
func (ArmAttack) Fx() FxKind      { return FxBuffAtk }
func (Rally) Fx() FxKind          { return FxBuffDef }

func (e Heal) String() string           { return fmt.Sprintf("heal %d", e.Amount) }
func (e FortifyDefense) String() string { return fmt.Sprintf("+%d DEF", e.Amount) }
func (e ArmAttack) String() string      { return fmt.Sprintf("+%d ATK", e.Amount) }
func (e Rally) String() string          { return fmt.Sprintf("+%d/+%d", e.Amount, e.Amount) }

// applySupport mutates the target unit according to the effect.
func applySupport(effect SupportEffect, target *Unit) {
	switch e := effect.(type) {
	case Heal:
		target.HP = min(target.HP+e.Amount, target.Defense)
	case FortifyDefense:
		target.Defense += e.Amount
		target.HP += e.Amount
	case ArmAttack:
		target.Attack += e.Amount
	case Rally:
		target.Attack += e.Amount
		target.Defense += e.Amount
		target.HP += e.Amount
	default:
		panic(fmt.Sprintf("game: unhandled support effect %T", effect))
	}
}

// TacticEffect is the immediate effect of a tactic card. Variants: AreaStrike, Resupply.
type TacticEffect interface {
	tacticEffect()
	String() string
}

// AreaStrike damages every live unit on the opposing board unless an interceptor is present.
type AreaStrike struct{ Damage int }

// Resupply credits supply to the player's pool.
type Resupply struct{ Amount int }

func (AreaStrike) tacticEffect() {}
func (Resupply) tacticEffect()   {}

func (e AreaStrike) String() string { return fmt.Sprintf("%d damage to all enemy units", e.Damage) }
func (e Resupply) String() string   { return fmt.Sprintf("+%d supply", e.Amount) }

// ActiveAbility is a once-per-match ability a unit can trigger. Variants: RestoreSupplyFull.
type ActiveAbility interface {
	activeAbility()
	String() string
}

// RestoreSupplyFull refills the player's supply to the current cap.
type RestoreSupplyFull struct{}

func (RestoreSupplyFull) activeAbility() {}
func (RestoreSupplyFull) String() string { return "restore supply to full" }
