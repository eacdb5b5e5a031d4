package opponent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/peterkuimelis/frontline/internal/game"
	"github.com/peterkuimelis/frontline/internal/log"
)

func guestTurn() *game.MatchState {
	return &game.MatchState{
		ID:        "m1",
		Status:    game.StatusActive,
		HostID:    "alice",
		GuestID:   game.AutomatedPlayerID,
		Automated: true,
		Turn:      game.SideGuest,
		TurnCount: 4,
		SupplyCap: 2,
		Host: game.SideState{HP: 20, Supply: 2, Board: []game.Unit{
			{InstanceID: "h1", CardID: "inf_rifle", Attack: 1, Defense: 2, HP: 2},
		}},
		Guest: game.SideState{HP: 20, Supply: 2, Hand: []string{"tank_tiger", "inf_rifle"}, Board: []game.Unit{
			{InstanceID: "g1", CardID: "inf_sniper", Attack: 3, Defense: 1, HP: 1, CanAct: true},
			{InstanceID: "g2", CardID: "supp_medic", Defense: 4, HP: 4, CanAct: true},
		}},
	}
}

func TestParseMove(t *testing.T) {
	m, err := ParseMove("```json\n{ \"action\": \"attack\", \"attackerIndex\": 0, \"targetIndex\": -1 }\n```")
	require.NoError(t, err)
	assert.Equal(t, MoveAttack, m.Action)
	require.NotNil(t, m.AttackerIndex)
	assert.Equal(t, 0, *m.AttackerIndex)
	assert.Equal(t, -1, *m.TargetIndex)

	_, err = ParseMove("I think I will attack")
	assert.ErrorIs(t, err, ErrBadMove)
}

func TestMoveToAction(t *testing.T) {
	cat := game.NewCatalog()
	state := guestTurn()

	a, err := PlayCardMove("inf_rifle", 0).ToAction(cat, state, game.SideGuest)
	require.NoError(t, err)
	assert.Equal(t, game.PlayCard(game.SideGuest, "inf_rifle", 1), a, "mismatched index falls back to the first copy")

	a, err = AttackMove(0, 0).ToAction(cat, state, game.SideGuest)
	require.NoError(t, err)
	assert.Equal(t, game.Attack(game.SideGuest, "g1", 0), a)

	a, err = Move{Action: MoveAttack, AttackerIndex: intp(0)}.ToAction(cat, state, game.SideGuest)
	require.NoError(t, err)
	assert.Equal(t, game.TargetHQ, a.TargetIndex)

	a, err = AbilityMove(1, 0).ToAction(cat, state, game.SideGuest)
	require.NoError(t, err)
	assert.Equal(t, game.Support(game.SideGuest, "g2", "g1"), a)

	a, err = AbilityMove(1, -1).ToAction(cat, state, game.SideGuest)
	require.NoError(t, err)
	assert.Equal(t, game.ActionUseAbility, a.Type)

	_, err = AttackMove(5, -1).ToAction(cat, state, game.SideGuest)
	assert.ErrorIs(t, err, ErrBadMove)
	_, err = Move{Action: "DANCE"}.ToAction(cat, state, game.SideGuest)
	assert.ErrorIs(t, err, ErrBadMove)
}

func TestLegalMoves(t *testing.T) {
	view := game.NewView(game.NewCatalog(), guestTurn(), game.SideGuest)
	moves := LegalMoves(view)

	assert.Equal(t, MoveEndTurn, moves[len(moves)-1].Action)
	assert.Contains(t, moves, PlayCardMove("inf_rifle", 1))
	assert.NotContains(t, moves, PlayCardMove("tank_tiger", 0), "tiger is too expensive")
	assert.Contains(t, moves, AttackMove(0, game.TargetHQ))
	assert.Contains(t, moves, AttackMove(0, 0))
	assert.Contains(t, moves, AbilityMove(1, 0))

	view.IsYourTurn = false
	assert.Empty(t, LegalMoves(view))
}

func newDriver(t *testing.T, p Policy) (*Driver, *log.MemoryLogger) {
	events := log.NewMemoryLogger()
	engine := game.NewEngine(game.NewCatalog(), game.WithLogger(zaptest.NewLogger(t)))
	return NewDriver(engine, p, 0, zaptest.NewLogger(t)).WithEvents(events), events
}

func TestDriverAppliesMove(t *testing.T) {
	d, events := newDriver(t, PolicyFunc(func(context.Context, game.View) (Move, error) {
		return AttackMove(0, game.TargetHQ), nil
	}))

	next, action, err := d.Take(context.Background(), guestTurn(), game.SideGuest)
	require.NoError(t, err)
	assert.Equal(t, game.ActionAttack, action.Type)
	assert.Equal(t, 17, next.Host.HP)
	assert.Empty(t, events.EventsOfType(log.EventForcedPass))
}

func TestDriverPassesOnPolicyError(t *testing.T) {
	d, events := newDriver(t, PolicyFunc(func(context.Context, game.View) (Move, error) {
		return Move{}, errors.New("quota exceeded")
	}))

	state := guestTurn()
	next, action, err := d.Take(context.Background(), state, game.SideGuest)
	require.NoError(t, err)
	assert.Equal(t, game.ActionEndTurn, action.Type)
	assert.Equal(t, game.SideHost, next.Turn)
	assert.Len(t, events.EventsOfType(log.EventForcedPass), 1)
}

func TestDriverPassesOnPolicyPanic(t *testing.T) {
	d, events := newDriver(t, PolicyFunc(func(context.Context, game.View) (Move, error) {
		var seen map[string]int
		seen["inf_rifle"]++
		return EndTurnMove(), nil
	}))

	var (
		next   *game.MatchState
		action game.Action
		err    error
	)
	require.NotPanics(t, func() {
		next, action, err = d.Take(context.Background(), guestTurn(), game.SideGuest)
	})
	require.NoError(t, err)
	assert.Equal(t, game.ActionEndTurn, action.Type)
	assert.Equal(t, game.SideHost, next.Turn)
	forced := events.EventsOfType(log.EventForcedPass)
	require.Len(t, forced, 1)
	assert.Contains(t, forced[0].Details, "policy panic")
}

func TestDriverPassesOnIllegalMove(t *testing.T) {
	d, _ := newDriver(t, PolicyFunc(func(context.Context, game.View) (Move, error) {
		return PlayCardMove("tank_tiger", 0), nil
	}))

	next, action, err := d.Take(context.Background(), guestTurn(), game.SideGuest)
	require.NoError(t, err)
	assert.Equal(t, game.ActionEndTurn, action.Type)
	assert.Equal(t, 5, next.TurnCount)
}

func TestDriverHonoursCancellation(t *testing.T) {
	engine := game.NewEngine(game.NewCatalog())
	d := NewDriver(engine, PassPolicy{}, 1e9, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	state := guestTurn()
	got, _, err := d.Take(ctx, state, game.SideGuest)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Same(t, state, got)
}

func TestRandomPolicyNeverStalls(t *testing.T) {
	d, _ := newDriver(t, NewRandomPolicy(11))
	state := guestTurn()
	for i := 0; i < 30 && state.Status == game.StatusActive && state.Turn == game.SideGuest; i++ {
		next, _, err := d.Take(context.Background(), state, game.SideGuest)
		require.NoError(t, err)
		state = next
	}
	assert.True(t, state.Turn == game.SideHost || state.Status == game.StatusFinished)
}
