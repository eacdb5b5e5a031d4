package log

// EventType enumerates all observable match events.
type EventType int

const (
	EventMatchOpen EventType = iota
	EventJoin
	EventNewTurn
	EventDeploy
	EventTactic
	EventIntercept
	EventResupply
	EventAbility
	EventSupport
	EventAttackDeclare
	EventGuardRedirect
	EventAbsorb
	EventDamage
	EventRecoil
	EventHQDamage
	EventHQHeal
	EventDestroy
	EventRemove // tagged casualty swept from the board
	EventWin
	EventSurrender
	EventForcedPass // opponent policy failed; turn passed on its behalf
)

func (e EventType) String() string {
	switch e {
	case EventMatchOpen:
		return "MatchOpen"
	case EventJoin:
		return "Join"
	case EventNewTurn:
		return "NewTurn"
	case EventDeploy:
		return "Deploy"
	case EventTactic:
		return "Tactic"
	case EventIntercept:
		return "Intercept"
	case EventResupply:
		return "Resupply"
	case EventAbility:
		return "Ability"
	case EventSupport:
		return "Support"
	case EventAttackDeclare:
		return "AttackDeclare"
	case EventGuardRedirect:
		return "GuardRedirect"
	case EventAbsorb:
		return "Absorb"
	case EventDamage:
		return "Damage"
	case EventRecoil:
		return "Recoil"
	case EventHQDamage:
		return "HQDamage"
	case EventHQHeal:
		return "HQHeal"
	case EventDestroy:
		return "Destroy"
	case EventRemove:
		return "Remove"
	case EventWin:
		return "Win"
	case EventSurrender:
		return "Surrender"
	case EventForcedPass:
		return "ForcedPass"
	default:
		return "Unknown"
	}
}

// GameEvent represents a single observable event in a match.
type GameEvent struct {
	Seq     int       // monotonic sequence number
	Match   string    // match id
	Turn    int       // turn count (1-based)
	Side    string    // acting side ("host" or "guest")
	Type    EventType // event type
	Card    string    // card name (if applicable)
	Amount  int       // damage, healing or supply delta (if applicable)
	Details string    // human-readable detail string
}
