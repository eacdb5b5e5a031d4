package game

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/peterkuimelis/frontline/internal/log"
)

var testEpoch = time.Date(2024, 6, 6, 6, 30, 0, 0, time.UTC)

// newTestEngine returns an engine with deterministic ids, clock and randomness.
func newTestEngine(t *testing.T) (*Engine, *log.MemoryLogger) {
	t.Helper()
	events := log.NewMemoryLogger()
	n := 0
	e := NewEngine(NewCatalog(),
		WithEventLogger(events),
		WithLogger(zaptest.NewLogger(t)),
		WithClock(func() time.Time { return testEpoch }),
		WithRand(rand.New(rand.NewPCG(1, 2))),
		WithIDs(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
	return e, events
}

// activeMatch returns a running match on the host's turn with plenty of supply.
func activeMatch() *MatchState {
	return &MatchState{
		ID:           "m1",
		Status:       StatusActive,
		HostID:       "alice",
		HostName:     "Alice",
		GuestID:      "bob",
		GuestName:    "Bob",
		StartingSide: SideHost,
		Turn:         SideHost,
		TurnCount:    5,
		SupplyCap:    3,
		Host:         SideState{HP: MaxHQ, Supply: 10},
		Guest:        SideState{HP: MaxHQ, Supply: 10},
	}
}

// unitOf builds an awake unit with catalog stats.
func unitOf(cardID, instanceID string) Unit {
	card := NewCatalog().MustLookup(cardID)
	return Unit{
		InstanceID: instanceID,
		CardID:     cardID,
		Attack:     card.Attack,
		Defense:    card.Defense,
		HP:         card.Defense,
		CanAct:     true,
	}
}

// withStats overrides a unit's raw stats.
func withStats(u Unit, atk, def, hp int) Unit {
	u.Attack, u.Defense, u.HP = atk, def, hp
	return u
}

func unitByID(board []Unit, id string) *Unit {
	if i := findUnit(board, id); i >= 0 {
		return &board[i]
	}
	return nil
}
