package log

import "fmt"

// --- Helper constructors for common events ---

func NewMatchOpenEvent(match, host string) GameEvent {
	return GameEvent{
		Match:   match,
		Side:    "host",
		Type:    EventMatchOpen,
		Details: fmt.Sprintf("%s opened match %s", host, match),
	}
}

func NewJoinEvent(match, guest, starting string) GameEvent {
	return GameEvent{
		Match:   match,
		Turn:    1,
		Side:    "guest",
		Type:    EventJoin,
		Details: fmt.Sprintf("%s joined; %s moves first", guest, starting),
	}
}

func NewTurnEvent(match string, turn int, side string, supplyCap int) GameEvent {
	return GameEvent{
		Match:   match,
		Turn:    turn,
		Side:    side,
		Type:    EventNewTurn,
		Amount:  supplyCap,
		Details: fmt.Sprintf("=== Turn %d (%s, supply %d) ===", turn, side, supplyCap),
	}
}

func NewDeployEvent(match string, turn int, side, card string, cost int) GameEvent {
	return GameEvent{
		Match:   match,
		Turn:    turn,
		Side:    side,
		Type:    EventDeploy,
		Card:    card,
		Amount:  cost,
		Details: fmt.Sprintf("%s deploys %s (cost %d)", side, card, cost),
	}
}

func NewTacticEvent(match string, turn int, side, card string) GameEvent {
	return GameEvent{
		Match:   match,
		Turn:    turn,
		Side:    side,
		Type:    EventTactic,
		Card:    card,
		Details: fmt.Sprintf("%s launches %s", side, card),
	}
}

func NewInterceptEvent(match string, turn int, side, card, interceptor string) GameEvent {
	return GameEvent{
		Match:   match,
		Turn:    turn,
		Side:    side,
		Type:    EventIntercept,
		Card:    card,
		Details: fmt.Sprintf("%s intercepted by %s", card, interceptor),
	}
}

func NewResupplyEvent(match string, turn int, side string, oldSupply, newSupply int) GameEvent {
	return GameEvent{
		Match:   match,
		Turn:    turn,
		Side:    side,
		Type:    EventResupply,
		Amount:  newSupply - oldSupply,
		Details: fmt.Sprintf("%s supply: %d → %d", side, oldSupply, newSupply),
	}
}

func NewAbilityEvent(match string, turn int, side, card, ability string) GameEvent {
	return GameEvent{
		Match:   match,
		Turn:    turn,
		Side:    side,
		Type:    EventAbility,
		Card:    card,
		Details: fmt.Sprintf("%s uses %s: %s", side, card, ability),
	}
}

func NewSupportEvent(match string, turn int, side, card, target, effect string) GameEvent {
	return GameEvent{
		Match:   match,
		Turn:    turn,
		Side:    side,
		Type:    EventSupport,
		Card:    card,
		Details: fmt.Sprintf("%s supports %s (%s)", card, target, effect),
	}
}

func NewAttackDeclareEvent(match string, turn int, side, attacker, defender string) GameEvent {
	return GameEvent{
		Match:   match,
		Turn:    turn,
		Side:    side,
		Type:    EventAttackDeclare,
		Card:    attacker,
		Details: fmt.Sprintf("%s declares attack: %s → %s", side, attacker, defender),
	}
}

func NewGuardRedirectEvent(match string, turn int, side, attacker, guard string) GameEvent {
	return GameEvent{
		Match:   match,
		Turn:    turn,
		Side:    side,
		Type:    EventGuardRedirect,
		Card:    guard,
		Details: fmt.Sprintf("%s absorbs the attack of %s on the HQ", guard, attacker),
	}
}

func NewAbsorbEvent(match string, turn int, side, attacker, target string) GameEvent {
	return GameEvent{
		Match:   match,
		Turn:    turn,
		Side:    side,
		Type:    EventAbsorb,
		Card:    target,
		Details: fmt.Sprintf("%s is invulnerable; %s's attack has no effect", target, attacker),
	}
}

func NewDamageEvent(match string, turn int, side, card string, amount, hp int) GameEvent {
	return GameEvent{
		Match:   match,
		Turn:    turn,
		Side:    side,
		Type:    EventDamage,
		Card:    card,
		Amount:  amount,
		Details: fmt.Sprintf("%s takes %d damage (HP %d)", card, amount, hp),
	}
}

func NewRecoilEvent(match string, turn int, side, card string, amount, hp int) GameEvent {
	return GameEvent{
		Match:   match,
		Turn:    turn,
		Side:    side,
		Type:    EventRecoil,
		Card:    card,
		Amount:  amount,
		Details: fmt.Sprintf("%s takes %d recoil (HP %d)", card, amount, hp),
	}
}

func NewHQDamageEvent(match string, turn int, side string, oldHP, newHP int) GameEvent {
	return GameEvent{
		Match:   match,
		Turn:    turn,
		Side:    side,
		Type:    EventHQDamage,
		Amount:  oldHP - newHP,
		Details: fmt.Sprintf("%s HQ: %d → %d", side, oldHP, newHP),
	}
}

func NewHQHealEvent(match string, turn int, side string, oldHP, newHP int) GameEvent {
	return GameEvent{
		Match:   match,
		Turn:    turn,
		Side:    side,
		Type:    EventHQHeal,
		Amount:  newHP - oldHP,
		Details: fmt.Sprintf("Field Hospital restores %s HQ: %d → %d", side, oldHP, newHP),
	}
}

func NewDestroyEvent(match string, turn int, side, card string) GameEvent {
	return GameEvent{
		Match:   match,
		Turn:    turn,
		Side:    side,
		Type:    EventDestroy,
		Card:    card,
		Details: fmt.Sprintf("%s is destroyed", card),
	}
}

func NewRemoveEvent(match string, turn int, side, card string) GameEvent {
	return GameEvent{
		Match:   match,
		Turn:    turn,
		Side:    side,
		Type:    EventRemove,
		Card:    card,
		Details: fmt.Sprintf("%s is cleared from %s's board", card, side),
	}
}

func NewWinEvent(match string, turn int, winner, reason string) GameEvent {
	return GameEvent{
		Match:   match,
		Turn:    turn,
		Side:    winner,
		Type:    EventWin,
		Details: fmt.Sprintf("%s wins! (%s)", winner, reason),
	}
}

func NewSurrenderEvent(match string, turn int, side string) GameEvent {
	return GameEvent{
		Match:   match,
		Turn:    turn,
		Side:    side,
		Type:    EventSurrender,
		Details: fmt.Sprintf("%s surrenders", side),
	}
}

func NewForcedPassEvent(match string, turn int, side, reason string) GameEvent {
	return GameEvent{
		Match:   match,
		Turn:    turn,
		Side:    side,
		Type:    EventForcedPass,
		Details: fmt.Sprintf("%s passes the turn (%s)", side, reason),
	}
}
