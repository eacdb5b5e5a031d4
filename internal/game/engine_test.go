package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterkuimelis/frontline/internal/log"
)

func TestSupplyCapFor(t *testing.T) {
	cases := map[int]int{1: 1, 2: 1, 3: 2, 4: 2, 19: 10, 20: 10, 21: 10, 40: 10}
	for turn, want := range cases {
		assert.Equal(t, want, SupplyCapFor(turn), "turn %d", turn)
	}
}

func TestRecentEffectsWindow(t *testing.T) {
	now := time.Date(2024, 6, 6, 6, 30, 0, 0, time.UTC)
	window := 2 * time.Second
	fx := func(id string, at time.Time) VisualEffect {
		return VisualEffect{UnitID: id, Kind: FxDamage, At: at}
	}

	cases := []struct {
		name    string
		effects []VisualEffect
		want    []string
	}{
		{"nil", nil, nil},
		{"fresh", []VisualEffect{fx("a", now)}, []string{"a"}},
		{"at the edge", []VisualEffect{fx("a", now.Add(-window))}, []string{"a"}},
		{"expired", []VisualEffect{fx("a", now.Add(-window-time.Nanosecond))}, nil},
		{"mixed", []VisualEffect{
			fx("old", now.Add(-5*time.Second)),
			fx("edge", now.Add(-window)),
			fx("new", now.Add(-time.Millisecond)),
		}, []string{"edge", "new"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := &MatchState{Effects: tc.effects}
			var got []string
			for _, e := range m.RecentEffects(now, window) {
				got = append(got, e.UnitID)
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEndTurnRefillsSupply(t *testing.T) {
	e, _ := newTestEngine(t)
	for _, turnCount := range []int{1, 2, 3, 20, 21} {
		m := activeMatch()
		m.TurnCount = turnCount
		m.Host.Supply = 0
		m.Guest.Supply = 0

		next, err := e.Apply(m, EndTurn(SideHost))
		require.NoError(t, err)

		want := min((turnCount+2)/2, 10)
		assert.Equal(t, turnCount+1, next.TurnCount)
		assert.Equal(t, want, next.SupplyCap, "turn %d", turnCount)
		assert.Equal(t, want, next.Host.Supply)
		assert.Equal(t, want, next.Guest.Supply)
		assert.Equal(t, SideGuest, next.Turn)
	}
}

func TestEndTurnWakesIncomingSide(t *testing.T) {
	e, _ := newTestEngine(t)
	m := activeMatch()
	sleeper := unitOf("inf_rifle", "g1")
	sleeper.CanAct = false
	m.Guest.Board = []Unit{sleeper}
	spent := unitOf("inf_rifle", "h1")
	spent.CanAct = false
	m.Host.Board = []Unit{spent}

	next, err := e.Apply(m, EndTurn(SideHost))
	require.NoError(t, err)
	assert.True(t, next.Guest.Board[0].CanAct)
	assert.False(t, next.Host.Board[0].CanAct)
	assert.Equal(t, "Turn pass to guest", next.LastAction)
}

func TestFieldHospitalHealsPassingHQ(t *testing.T) {
	e, events := newTestEngine(t)
	m := activeMatch()
	m.Host.HP = 15
	m.Host.Board = []Unit{unitOf("supp_medic", "h1"), unitOf("supp_medic", "h2")}
	m.Guest.HP = 15
	m.Guest.Board = []Unit{unitOf("supp_medic", "g1")}

	next, err := e.Apply(m, EndTurn(SideHost))
	require.NoError(t, err)
	assert.Equal(t, 17, next.Host.HP)
	assert.Equal(t, 15, next.Guest.HP)
	require.Len(t, events.EventsOfType(log.EventHQHeal), 1)

	m = activeMatch()
	m.Host.HP = 20
	m.Host.Board = []Unit{unitOf("supp_medic", "h1")}
	next, err = e.Apply(m, EndTurn(SideHost))
	require.NoError(t, err)
	assert.Equal(t, MaxHQ, next.Host.HP)
}

func TestAttackHQLethal(t *testing.T) {
	e, events := newTestEngine(t)
	m := activeMatch()
	m.Host.Board = []Unit{withStats(unitOf("inf_sniper", "h1"), 3, 1, 1)}
	m.Guest.HP = 3

	next, err := e.Apply(m, Attack(SideHost, "h1", TargetHQ))
	require.NoError(t, err)
	assert.Equal(t, 0, next.Guest.HP)
	assert.Equal(t, StatusFinished, next.Status)
	assert.Equal(t, "alice", next.Winner)
	assert.Equal(t, SideHost, next.WinnerSide)
	assert.Len(t, events.EventsOfType(log.EventWin), 1)

	_, err = e.Apply(next, EndTurn(SideHost))
	assert.ErrorIs(t, err, ErrMatchNotActive)
}

func TestAttackUnitRecoil(t *testing.T) {
	e, _ := newTestEngine(t)
	m := activeMatch()
	m.Host.Board = []Unit{withStats(unitOf("inf_rifle", "h1"), 2, 5, 5)}
	m.Guest.Board = []Unit{withStats(unitOf("tank_sherman", "g1"), 3, 4, 4)}

	next, err := e.Apply(m, Attack(SideHost, "h1", 0))
	require.NoError(t, err)
	assert.Equal(t, 2, next.Guest.Board[0].HP)
	assert.Equal(t, 2, next.Host.Board[0].HP)
	assert.False(t, next.Host.Board[0].CanAct)
	assert.Equal(t, "Rifle Squad engaged M4 Sherman", next.LastAction)

	// The input snapshot is untouched.
	assert.Equal(t, 4, m.Guest.Board[0].HP)
	assert.True(t, m.Host.Board[0].CanAct)
}

func TestRecoilUsesBuffedAttack(t *testing.T) {
	e, _ := newTestEngine(t)
	m := activeMatch()
	m.Host.Board = []Unit{withStats(unitOf("inf_rifle", "h1"), 1, 9, 9)}
	m.Guest.Board = []Unit{
		withStats(unitOf("tank_sherman", "g1"), 3, 4, 4),
		unitOf("supp_supply", "g2"),
	}

	next, err := e.Apply(m, Attack(SideHost, "h1", 0))
	require.NoError(t, err)
	assert.Equal(t, 5, next.Host.Board[0].HP, "recoil is 3 ATK + 1 aura")
}

func TestNoRecoilFromZeroAttack(t *testing.T) {
	e, events := newTestEngine(t)
	m := activeMatch()
	m.Host.Board = []Unit{unitOf("inf_rifle", "h1")}
	m.Guest.Board = []Unit{unitOf("supp_medic", "g1")}

	next, err := e.Apply(m, Attack(SideHost, "h1", 0))
	require.NoError(t, err)
	assert.Equal(t, 3, next.Guest.Board[0].HP)
	assert.Equal(t, 2, next.Host.Board[0].HP)
	assert.Empty(t, events.EventsOfType(log.EventRecoil))
}

func TestNoRecoilWhenTargetDies(t *testing.T) {
	e, _ := newTestEngine(t)
	m := activeMatch()
	m.Host.Board = []Unit{withStats(unitOf("tank_tiger", "h1"), 6, 6, 6)}
	m.Guest.Board = []Unit{unitOf("inf_sniper", "g1")}

	next, err := e.Apply(m, Attack(SideHost, "h1", 0))
	require.NoError(t, err)
	assert.Equal(t, 6, next.Host.Board[0].HP)
	assert.True(t, next.Guest.Board[0].PendingRemoval)
}

func TestAttackRequiresExplicitAttacker(t *testing.T) {
	e, _ := newTestEngine(t)
	m := activeMatch()
	m.Host.Board = []Unit{unitOf("inf_rifle", "h1")}

	got, err := e.Apply(m, Attack(SideHost, "", TargetHQ))
	assert.ErrorIs(t, err, ErrNoAttacker)
	assert.Same(t, m, got)
}

func TestAttackRejections(t *testing.T) {
	e, _ := newTestEngine(t)
	m := activeMatch()
	asleep := unitOf("inf_rifle", "h2")
	asleep.CanAct = false
	m.Host.Board = []Unit{unitOf("supp_medic", "h1"), asleep, unitOf("inf_rifle", "h3")}
	m.Guest.Board = []Unit{unitOf("inf_rifle", "g1")}

	_, err := e.Apply(m, Attack(SideHost, "h1", TargetHQ))
	assert.ErrorIs(t, err, ErrNotCombat)
	_, err = e.Apply(m, Attack(SideHost, "h2", TargetHQ))
	assert.ErrorIs(t, err, ErrUnitAsleep)
	_, err = e.Apply(m, Attack(SideHost, "h3", 4))
	assert.ErrorIs(t, err, ErrInvalidTarget)
	_, err = e.Apply(m, Attack(SideHost, "nope", TargetHQ))
	assert.ErrorIs(t, err, ErrInvalidUnit)
	_, err = e.Apply(m, Attack(SideGuest, "g1", TargetHQ))
	assert.ErrorIs(t, err, ErrNotYourTurn)
	assert.True(t, IsRejection(err))
}

func TestInvulnerableAbsorbsAttack(t *testing.T) {
	e, events := newTestEngine(t)
	m := activeMatch()
	m.Host.Board = []Unit{unitOf("tank_tiger", "h1")}
	m.Guest.Board = []Unit{unitOf("supp_hq", "g1")}

	next, err := e.Apply(m, Attack(SideHost, "h1", 0))
	require.NoError(t, err)
	assert.Equal(t, 10, next.Guest.Board[0].HP)
	assert.Equal(t, 6, next.Host.Board[0].HP)
	assert.False(t, next.Host.Board[0].CanAct)
	assert.Len(t, events.EventsOfType(log.EventAbsorb), 1)
}

func TestBunkerRedirectsHQAttack(t *testing.T) {
	e, _ := newTestEngine(t)
	m := activeMatch()
	m.Host.Board = []Unit{withStats(unitOf("tank_panzer", "h1"), 4, 3, 3)}
	m.Guest.Board = []Unit{unitOf("supp_bunker", "g1")}

	next, err := e.Apply(m, Attack(SideHost, "h1", TargetHQ))
	require.NoError(t, err)
	assert.Equal(t, MaxHQ, next.Guest.HP)
	assert.Equal(t, 4, next.Guest.Board[0].HP)
	assert.Equal(t, 3, next.Host.Board[0].HP, "no recoil from a guard redirect")
	assert.Equal(t, "Panzer IV hit Concrete Bunker (Guard)!", next.LastAction)
}

func TestFirstBunkerByBoardOrderGuards(t *testing.T) {
	e, _ := newTestEngine(t)
	m := activeMatch()
	m.Host.Board = []Unit{unitOf("inf_rifle", "h1")}
	m.Guest.Board = []Unit{unitOf("inf_rifle", "g0"), unitOf("supp_bunker", "g1"), unitOf("supp_bunker", "g2")}

	next, err := e.Apply(m, Attack(SideHost, "h1", TargetHQ))
	require.NoError(t, err)
	assert.Equal(t, 7, unitByID(next.Guest.Board, "g1").HP)
	assert.Equal(t, 8, unitByID(next.Guest.Board, "g2").HP)
}

func TestAirStrikeInterceptedByRadar(t *testing.T) {
	e, events := newTestEngine(t)
	m := activeMatch()
	m.Host.Hand = []string{"event_airstrike"}
	m.Host.Supply = 5
	m.Guest.Board = []Unit{unitOf("inf_rifle", "g1"), unitOf("supp_radar", "g2")}

	next, err := e.Apply(m, PlayCard(SideHost, "event_airstrike", 0))
	require.NoError(t, err)
	assert.Equal(t, 2, next.Host.Supply)
	assert.Empty(t, next.Host.Hand)
	assert.Equal(t, m.Guest.Board, next.Guest.Board)
	assert.Contains(t, next.LastAction, "negated by Radar Station")
	assert.Len(t, events.EventsOfType(log.EventIntercept), 1)
}

func TestAirStrikeDamagesEveryEnemyUnit(t *testing.T) {
	e, _ := newTestEngine(t)
	m := activeMatch()
	m.Host.Hand = []string{"event_airstrike"}
	m.Guest.Board = []Unit{unitOf("inf_rifle", "g1"), unitOf("tank_tiger", "g2"), unitOf("supp_hq", "g3")}

	next, err := e.Apply(m, PlayCard(SideHost, "event_airstrike", 0))
	require.NoError(t, err)
	require.Len(t, next.Guest.Board, 3)
	assert.Equal(t, 0, next.Guest.Board[0].HP)
	assert.False(t, next.Guest.Board[0].PendingRemoval, "Forward HQ keeps the rifle at 1 buffed HP")
	assert.Equal(t, 4, next.Guest.Board[1].HP)
	assert.Equal(t, 8, next.Guest.Board[2].HP)
	assert.Len(t, next.Effects, 3)
	assert.Equal(t, "Host launched Air Strike!", next.LastAction)
}

func TestDeferredRemoval(t *testing.T) {
	e, events := newTestEngine(t)
	m := activeMatch()
	m.Host.Board = []Unit{unitOf("tank_tiger", "h1"), unitOf("tank_tiger", "h2")}
	m.Guest.Board = []Unit{unitOf("inf_rifle", "g1"), unitOf("inf_sniper", "g2")}

	next, err := e.Apply(m, Attack(SideHost, "h1", 0))
	require.NoError(t, err)
	require.Len(t, next.Guest.Board, 2, "casualty stays on the board until reaped")
	assert.True(t, next.Guest.Board[0].PendingRemoval)
	assert.True(t, next.HasPendingRemovals())
	assert.Len(t, events.EventsOfType(log.EventDestroy), 1)

	// Tagged units can no longer be targeted.
	_, err = e.Apply(next, Attack(SideHost, "h2", 0))
	assert.ErrorIs(t, err, ErrInvalidTarget)

	// Indices still refer to the board as submitted.
	after, err := e.Apply(next, Attack(SideHost, "h2", 1))
	require.NoError(t, err)
	require.Len(t, after.Guest.Board, 1)
	assert.Equal(t, "g2", after.Guest.Board[0].InstanceID)
	assert.True(t, after.Guest.Board[0].PendingRemoval)

	reaped := e.Reap(after)
	assert.Empty(t, reaped.Guest.Board)
	assert.False(t, reaped.HasPendingRemovals())
	assert.Len(t, after.Guest.Board, 1, "reap does not mutate its input")
}

func TestAuraLossCascades(t *testing.T) {
	e, _ := newTestEngine(t)
	m := activeMatch()
	m.Host.Hand = []string{"event_airstrike"}
	m.Guest.Board = []Unit{withStats(unitOf("supp_hq", "g1"), 0, 10, 1), unitOf("inf_rifle", "g2")}

	next, err := e.Apply(m, PlayCard(SideHost, "event_airstrike", 0))
	require.NoError(t, err)
	assert.True(t, next.Guest.Board[0].PendingRemoval)
	assert.True(t, next.Guest.Board[1].PendingRemoval)

	reaped := e.Reap(next)
	assert.Empty(t, reaped.Guest.Board)
}

func TestPlayCardDeploysAsleep(t *testing.T) {
	e, events := newTestEngine(t)
	m := activeMatch()
	m.Host.Hand = []string{"inf_rifle", "tank_sherman"}
	m.Host.Supply = 4

	next, err := e.Apply(m, PlayCard(SideHost, "tank_sherman", 1))
	require.NoError(t, err)
	assert.Equal(t, []string{"inf_rifle"}, next.Host.Hand)
	assert.Equal(t, 0, next.Host.Supply)
	require.Len(t, next.Host.Board, 1)
	u := next.Host.Board[0]
	assert.Equal(t, "id-1", u.InstanceID)
	assert.Equal(t, 4, u.HP)
	assert.False(t, u.CanAct)
	assert.Equal(t, "Host deployed M4 Sherman", next.LastAction)
	assert.Len(t, events.EventsOfType(log.EventDeploy), 1)
}

func TestPlayCardRejections(t *testing.T) {
	e, _ := newTestEngine(t)
	m := activeMatch()
	m.Host.Hand = []string{"tank_tiger", "inf_rifle"}
	m.Host.Supply = 2

	got, err := e.Apply(m, PlayCard(SideHost, "tank_tiger", 0))
	assert.ErrorIs(t, err, ErrInsufficientSupply)
	assert.Same(t, m, got)

	_, err = e.Apply(m, PlayCard(SideHost, "tank_tiger", 1))
	assert.ErrorIs(t, err, ErrHandMismatch)
	_, err = e.Apply(m, PlayCard(SideHost, "inf_rifle", 7))
	assert.ErrorIs(t, err, ErrHandMismatch)
	_, err = e.Apply(m, PlayCard(SideGuest, "inf_rifle", 1))
	assert.ErrorIs(t, err, ErrNotYourTurn)
}

func TestSupplyCrate(t *testing.T) {
	e, _ := newTestEngine(t)
	m := activeMatch()
	m.Host.Hand = []string{CardSupplyCrate}
	m.Host.Supply = 1

	next, err := e.Apply(m, PlayCard(SideHost, CardSupplyCrate, 0))
	require.NoError(t, err)
	assert.Equal(t, 2, next.Host.Supply)
	assert.Empty(t, next.Host.Hand)
	assert.Empty(t, next.Host.Board)
}

func TestSupportEffects(t *testing.T) {
	e, _ := newTestEngine(t)

	t.Run("heal clamps to max", func(t *testing.T) {
		m := activeMatch()
		m.Host.Board = []Unit{unitOf("supp_medic", "s"), withStats(unitOf("tank_sherman", "t"), 3, 4, 1)}
		next, err := e.Apply(m, Support(SideHost, "s", "t"))
		require.NoError(t, err)
		assert.Equal(t, 4, next.Host.Board[1].HP)
		assert.True(t, next.Host.Board[0].AbilityConsumed)
		assert.False(t, next.Host.Board[0].CanAct)
		assert.Equal(t, "Field Hospital supported M4 Sherman", next.LastAction)

		_, err = e.Apply(next, Support(SideHost, "s", "t"))
		assert.ErrorIs(t, err, ErrAbilityConsumed)
	})

	t.Run("fortify raises max and current", func(t *testing.T) {
		m := activeMatch()
		m.Host.Board = []Unit{unitOf("supp_bunker", "s"), withStats(unitOf("inf_rifle", "t"), 1, 2, 1)}
		next, err := e.Apply(m, Support(SideHost, "s", "t"))
		require.NoError(t, err)
		assert.Equal(t, 5, next.Host.Board[1].Defense)
		assert.Equal(t, 4, next.Host.Board[1].HP)
	})

	t.Run("bunker fortifies infantry only", func(t *testing.T) {
		m := activeMatch()
		m.Host.Board = []Unit{unitOf("supp_bunker", "s"), unitOf("tank_sherman", "t")}
		_, err := e.Apply(m, Support(SideHost, "s", "t"))
		assert.ErrorIs(t, err, ErrInvalidTarget)
	})

	t.Run("arm and rally", func(t *testing.T) {
		m := activeMatch()
		m.Host.Board = []Unit{unitOf("supp_supply", "s1"), unitOf("supp_hq", "s2"), unitOf("inf_rifle", "t")}
		next, err := e.Apply(m, Support(SideHost, "s1", "t"))
		require.NoError(t, err)
		next, err = e.Apply(next, Support(SideHost, "s2", "t"))
		require.NoError(t, err)
		u := next.Host.Board[2]
		assert.Equal(t, 4, u.Attack)
		assert.Equal(t, 3, u.Defense)
		assert.Equal(t, 3, u.HP)
	})

	t.Run("supports cannot target supports", func(t *testing.T) {
		m := activeMatch()
		m.Host.Board = []Unit{unitOf("supp_medic", "s"), unitOf("supp_radar", "t")}
		_, err := e.Apply(m, Support(SideHost, "s", "t"))
		assert.ErrorIs(t, err, ErrInvalidTarget)
	})

	t.Run("asleep support cannot act", func(t *testing.T) {
		m := activeMatch()
		s := unitOf("supp_medic", "s")
		s.CanAct = false
		m.Host.Board = []Unit{s, unitOf("inf_rifle", "t")}
		_, err := e.Apply(m, Support(SideHost, "s", "t"))
		assert.ErrorIs(t, err, ErrUnitAsleep)
	})

	t.Run("passive-only unit has no support", func(t *testing.T) {
		m := activeMatch()
		m.Host.Board = []Unit{unitOf("supp_quartermaster", "s"), unitOf("inf_rifle", "t")}
		_, err := e.Apply(m, Support(SideHost, "s", "t"))
		assert.ErrorIs(t, err, ErrNotSupport)
	})
}

func TestUseAbilityRestoresSupply(t *testing.T) {
	e, events := newTestEngine(t)
	m := activeMatch()
	m.Host.Supply = 0
	m.Host.Board = []Unit{unitOf("supp_quartermaster", "q"), unitOf("inf_rifle", "r")}

	next, err := e.Apply(m, UseAbility(SideHost, "q", ""))
	require.NoError(t, err)
	assert.Equal(t, m.SupplyCap, next.Host.Supply)
	assert.True(t, next.Host.Board[0].AbilityConsumed)
	assert.False(t, next.Host.Board[0].CanAct)
	assert.Len(t, events.EventsOfType(log.EventAbility), 1)

	_, err = e.Apply(next, UseAbility(SideHost, "q", ""))
	assert.ErrorIs(t, err, ErrAbilityConsumed)
	_, err = e.Apply(m, UseAbility(SideHost, "r", ""))
	assert.ErrorIs(t, err, ErrNoAbility)
	_, err = e.Apply(m, UseAbility(SideHost, "q", "missing"))
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func TestSurrenderOutOfTurn(t *testing.T) {
	e, events := newTestEngine(t)
	m := activeMatch()

	next, err := e.Apply(m, Surrender(SideGuest))
	require.NoError(t, err)
	assert.Equal(t, StatusFinished, next.Status)
	assert.Equal(t, "alice", next.Winner)
	assert.Len(t, events.EventsOfType(log.EventSurrender), 1)
}

func TestJoin(t *testing.T) {
	e, _ := newTestEngine(t)
	lobby := e.OpenLobby("alice", "Alice")
	assert.Equal(t, StatusWaiting, lobby.Status)
	assert.Equal(t, "id-1", lobby.ID)

	_, err := e.Join(lobby, "alice", "Alice")
	assert.ErrorIs(t, err, ErrSelfJoin)

	m, err := e.Join(lobby, "bob", "Bob")
	require.NoError(t, err)
	assert.Equal(t, StatusActive, m.Status)
	assert.Equal(t, 1, m.TurnCount)
	assert.Equal(t, 1, m.SupplyCap)
	assert.Equal(t, MaxHQ, m.Host.HP)
	assert.Equal(t, MaxHQ, m.Guest.HP)
	assert.Equal(t, 1, m.Host.Supply)
	assert.Equal(t, 1, m.Guest.Supply)
	assert.True(t, m.StartingSide.Valid())
	assert.Equal(t, m.StartingSide, m.Turn)
	assert.Empty(t, m.Host.Hand)
	assert.Empty(t, m.Guest.Board)
	assert.Equal(t, StatusWaiting, lobby.Status, "join does not mutate its input")

	_, err = e.Join(m, "carol", "Carol")
	assert.ErrorIs(t, err, ErrMatchFull)
}

func TestOpenAutomated(t *testing.T) {
	e, _ := newTestEngine(t)
	m := e.OpenAutomated("alice", "Alice")
	assert.Equal(t, StatusActive, m.Status)
	assert.True(t, m.Automated)
	assert.Equal(t, AutomatedPlayerID, m.GuestID)

	want := HandSupports + HandCombat
	if m.StartingSide == SideHost {
		want++
		assert.Equal(t, CardSupplyCrate, m.Guest.Hand[len(m.Guest.Hand)-1])
	}
	assert.Len(t, m.Guest.Hand, want)
	assert.Empty(t, m.Host.Hand)
}
