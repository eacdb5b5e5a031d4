package game

import "fmt"

// --- Enums ---

// Side identifies one of the two seats in a match.
type Side string

const (
	SideHost  Side = "host"
	SideGuest Side = "guest"
)

// Opponent returns the other seat.
func (s Side) Opponent() Side {
	if s == SideHost {
		return SideGuest
	}
	return SideHost
}

func (s Side) Valid() bool {
	return s == SideHost || s == SideGuest
}

// Title returns the capitalised seat name used in narration.
func (s Side) Title() string {
	if s == SideHost {
		return "Host"
	}
	return "Guest"
}

type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusActive   Status = "active"
	StatusFinished Status = "finished"
)

type Category string

const (
	CategoryInfantry  Category = "infantry"
	CategoryTank      Category = "tank"
	CategoryAir       Category = "air"
	CategoryTactic    Category = "tactic"
	CategoryCommander Category = "commander"
	CategorySupport   Category = "support"
)

// Deploys reports whether cards of this category become board units.
func (c Category) Deploys() bool {
	return c != CategoryTactic
}

type Rarity string

const (
	RarityCommon   Rarity = "common"
	RarityUncommon Rarity = "uncommon"
	RarityRare     Rarity = "rare"
	RarityLimited  Rarity = "limited"
)

// Trait is a bit set of passive behaviours a card carries onto the board.
type Trait int

const (
	// TraitGuard redirects attacks aimed at its side's HQ.
	TraitGuard Trait = 1 << iota
	// TraitInterceptor negates enemy area strikes.
	TraitInterceptor
	// TraitInfantryOnly restricts the support effect to infantry targets.
	TraitInfantryOnly
)

func (t Trait) Has(flag Trait) bool {
	return t&flag != 0
}

// FxKind names a visual effect hint attached to a snapshot.
type FxKind string

const (
	FxDamage       FxKind = "damage"
	FxHeal         FxKind = "heal"
	FxBuffDef      FxKind = "buff_def"
	FxBuffAtk      FxKind = "buff_atk"
	FxActionAttack FxKind = "action_attack"
	FxActionBuff   FxKind = "action_buff"
)

type ActionType int

const (
	ActionPlayCard ActionType = iota
	ActionUseAbility
	ActionSupport
	ActionAttack
	ActionEndTurn
	ActionSurrender
)

func (a ActionType) String() string {
	switch a {
	case ActionPlayCard:
		return "Play Card"
	case ActionUseAbility:
		return "Use Ability"
	case ActionSupport:
		return "Support"
	case ActionAttack:
		return "Attack"
	case ActionEndTurn:
		return "End Turn"
	case ActionSurrender:
		return "Surrender"
	default:
		return "Unknown"
	}
}

// TargetHQ is the attack target index meaning the opposing headquarters.
const TargetHQ = -1

// Action is a candidate move submitted by a human client or the opponent policy.
type Action struct {
	Type ActionType
	Side Side

	// PlayCard
	CardID    string
	HandIndex int

	// UseAbility / Support / Attack
	UnitID   string // acting unit instance (attacker for Attack)
	TargetID string // friendly target instance for UseAbility / Support

	// Attack: index into the opposing board, or TargetHQ.
	TargetIndex int
}

func (a Action) String() string {
	switch a.Type {
	case ActionPlayCard:
		return fmt.Sprintf("%s: %s %s (hand %d)", a.Side, a.Type, a.CardID, a.HandIndex)
	case ActionUseAbility, ActionSupport:
		if a.TargetID != "" {
			return fmt.Sprintf("%s: %s %s -> %s", a.Side, a.Type, a.UnitID, a.TargetID)
		}
		return fmt.Sprintf("%s: %s %s", a.Side, a.Type, a.UnitID)
	case ActionAttack:
		if a.TargetIndex == TargetHQ {
			return fmt.Sprintf("%s: %s %s -> HQ", a.Side, a.Type, a.UnitID)
		}
		return fmt.Sprintf("%s: %s %s -> #%d", a.Side, a.Type, a.UnitID, a.TargetIndex)
	default:
		return fmt.Sprintf("%s: %s", a.Side, a.Type)
	}
}

// Convenience constructors.

func PlayCard(side Side, cardID string, handIndex int) Action {
	return Action{Type: ActionPlayCard, Side: side, CardID: cardID, HandIndex: handIndex}
}

func UseAbility(side Side, unitID, targetID string) Action {
	return Action{Type: ActionUseAbility, Side: side, UnitID: unitID, TargetID: targetID}
}

func Support(side Side, unitID, targetID string) Action {
	return Action{Type: ActionSupport, Side: side, UnitID: unitID, TargetID: targetID}
}

func Attack(side Side, attackerID string, targetIndex int) Action {
	return Action{Type: ActionAttack, Side: side, UnitID: attackerID, TargetIndex: targetIndex}
}

func EndTurn(side Side) Action {
	return Action{Type: ActionEndTurn, Side: side}
}

func Surrender(side Side) Action {
	return Action{Type: ActionSurrender, Side: side}
}
