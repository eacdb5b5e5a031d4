package game

import "errors"

// Rejections. An action that fails a precondition leaves the match untouched.
var (
	ErrMatchNotActive     = errors.New("match is not active")
	ErrNotYourTurn        = errors.New("not your turn")
	ErrUnknownCard        = errors.New("unknown card")
	ErrHandMismatch       = errors.New("card not in hand")
	ErrInsufficientSupply = errors.New("not enough supplies")
	ErrNoAttacker         = errors.New("no attacker selected")
	ErrInvalidUnit        = errors.New("unit not found")
	ErrInvalidTarget      = errors.New("invalid target")
	ErrUnitAsleep         = errors.New("unit is recovering")
	ErrNotCombat          = errors.New("support units cannot attack")
	ErrNotSupport         = errors.New("unit has no support action")
	ErrNoAbility          = errors.New("unit has no active ability")
	ErrAbilityConsumed    = errors.New("ability already used")
	ErrUnknownAction      = errors.New("unknown action")

	ErrNotWaiting = errors.New("match is not open")
	ErrSelfJoin   = errors.New("cannot join your own match")
	ErrMatchFull  = errors.New("match full")
)

var rejections = []error{
	ErrMatchNotActive, ErrNotYourTurn, ErrUnknownCard, ErrHandMismatch,
	ErrInsufficientSupply, ErrNoAttacker, ErrInvalidUnit, ErrInvalidTarget,
	ErrUnitAsleep, ErrNotCombat, ErrNotSupport, ErrNoAbility, ErrAbilityConsumed,
	ErrUnknownAction, ErrNotWaiting, ErrSelfJoin, ErrMatchFull,
}

// IsRejection reports whether err is a rule precondition failure rather than an
// infrastructure error.
func IsRejection(err error) bool {
	for _, r := range rejections {
		if errors.Is(err, r) {
			return true
		}
	}
	return false
}
