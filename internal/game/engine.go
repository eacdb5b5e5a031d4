package game

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/peterkuimelis/frontline/internal/log"
)

// Seat values for the automated opponent.
const (
	AutomatedPlayerID   = "automated-opponent"
	AutomatedPlayerName = "AI Commander"
)

// Engine is the match state machine. It validates actions against a snapshot and
// computes the complete next snapshot; it never mutates its inputs.
type Engine struct {
	catalog *Catalog
	events  log.EventLogger
	logger  *zap.Logger
	now     func() time.Time
	newID   func() string

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

type Option func(*Engine)

// WithEventLogger sets the match event log.
func WithEventLogger(l log.EventLogger) Option {
	return func(e *Engine) { e.events = l }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock overrides the time source used for effect timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRand seeds coin flips, hand shuffles and reward rolls.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithIDs overrides instance and match id generation.
func WithIDs(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

func NewEngine(cat *Catalog, opts ...Option) *Engine {
	e := &Engine{
		catalog: cat,
		events:  log.Discard{},
		logger:  zap.NewNop(),
		now:     time.Now,
		newID:   uuid.NewString,
		rng:     rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

func (e *Engine) Now() time.Time {
	return e.now()
}

func (e *Engine) log(ev log.GameEvent) {
	e.events.Log(ev)
}

// withRand runs fn while holding the rng.
func (e *Engine) withRand(fn func(r *rand.Rand)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.rng)
}

func (e *Engine) coinFlip() Side {
	var s Side
	e.withRand(func(r *rand.Rand) {
		if r.IntN(2) == 0 {
			s = SideHost
		} else {
			s = SideGuest
		}
	})
	return s
}

// --- Match creation ---

// OpenLobby creates a waiting match hosted by hostID.
func (e *Engine) OpenLobby(hostID, hostName string) *MatchState {
	now := e.now()
	m := &MatchState{
		ID:         e.newID(),
		Status:     StatusWaiting,
		HostID:     hostID,
		HostName:   hostName,
		CreatedAt:  now,
		LastActive: now,
		LastAction: fmt.Sprintf("%s is waiting for an opponent", hostName),
	}
	e.log(log.NewMatchOpenEvent(m.ID, hostName))
	return m
}

// OpenAutomated creates an already-active match against the automated opponent.
// The opponent's hand is built here; the host's hand is built by the session.
func (e *Engine) OpenAutomated(hostID, hostName string) *MatchState {
	m := e.OpenLobby(hostID, hostName)
	m.GuestID = AutomatedPlayerID
	m.GuestName = AutomatedPlayerName
	m.Automated = true
	e.activate(m)
	e.withRand(func(r *rand.Rand) {
		m.Guest.Hand = BuildAutomatedHand(e.catalog, m.StartingSide == SideHost, r)
	})
	e.log(log.NewJoinEvent(m.ID, m.GuestName, string(m.StartingSide)))
	return m
}

// Join seats guestID in a waiting match and starts it.
func (e *Engine) Join(state *MatchState, guestID, guestName string) (*MatchState, error) {
	if guestID == state.HostID {
		return state, ErrSelfJoin
	}
	if state.GuestID != "" {
		return state, ErrMatchFull
	}
	if state.Status != StatusWaiting {
		return state, fmt.Errorf("%w: %s", ErrNotWaiting, state.Status)
	}
	next := state.Clone()
	next.GuestID = guestID
	next.GuestName = guestName
	e.activate(next)
	e.log(log.NewJoinEvent(next.ID, guestName, string(next.StartingSide)))
	return next, nil
}

func (e *Engine) activate(m *MatchState) {
	m.Status = StatusActive
	m.Host = SideState{HP: MaxHQ, Supply: StartSupply}
	m.Guest = SideState{HP: MaxHQ, Supply: StartSupply}
	m.SupplyCap = StartSupply
	m.TurnCount = 1
	m.StartingSide = e.coinFlip()
	m.Turn = m.StartingSide
	m.LastAction = fmt.Sprintf("%s joined the battle! %s moves first.", m.GuestName, m.PlayerName(m.StartingSide))
	m.Effects = nil
}

// BuildHand deals an opening hand from an owned pool.
func (e *Engine) BuildHand(pool []string, movesSecond bool) []string {
	var hand []string
	e.withRand(func(r *rand.Rand) {
		hand = BuildHand(e.catalog, pool, movesSecond, r)
	})
	return hand
}

// RollReward rolls the win reward.
func (e *Engine) RollReward() Reward {
	var rw Reward
	e.withRand(func(r *rand.Rand) {
		rw = RollReward(e.catalog, r)
	})
	return rw
}

// --- Transitions ---

// Apply validates action against state and returns the next snapshot. On rejection
// it returns state unchanged together with the error.
func (e *Engine) Apply(state *MatchState, a Action) (*MatchState, error) {
	if state.Status != StatusActive {
		return state, fmt.Errorf("%w: %s", ErrMatchNotActive, state.Status)
	}
	if !a.Side.Valid() {
		return state, fmt.Errorf("%w: unknown side %q", ErrNotYourTurn, a.Side)
	}
	if a.Type != ActionSurrender && a.Side != state.Turn {
		return state, ErrNotYourTurn
	}

	// Board indices refer to the snapshot the client saw, so resolve them before
	// any tagged casualties are swept away.
	var targetID string
	if a.Type == ActionAttack && a.TargetIndex != TargetHQ {
		enemy := state.Side(a.Side.Opponent()).Board
		if a.TargetIndex < 0 || a.TargetIndex >= len(enemy) || !enemy[a.TargetIndex].Alive() {
			return state, fmt.Errorf("%w: board index %d", ErrInvalidTarget, a.TargetIndex)
		}
		targetID = enemy[a.TargetIndex].InstanceID
	}

	next := state.Clone()
	next.Effects = nil
	e.sweep(next)

	var err error
	switch a.Type {
	case ActionPlayCard:
		err = e.playCard(next, a)
	case ActionUseAbility:
		err = e.useAbility(next, a)
	case ActionSupport:
		err = e.support(next, a)
	case ActionAttack:
		err = e.attack(next, a, targetID)
	case ActionEndTurn:
		e.endTurn(next, a.Side)
	case ActionSurrender:
		e.log(log.NewSurrenderEvent(next.ID, next.TurnCount, string(a.Side)))
		next.LastAction = fmt.Sprintf("%s surrendered", next.PlayerName(a.Side))
		e.finish(next, a.Side.Opponent(), "surrender")
	default:
		err = fmt.Errorf("%w: %d", ErrUnknownAction, a.Type)
	}
	if err != nil {
		e.logger.Debug("action rejected",
			zap.String("match", state.ID),
			zap.Stringer("action", a),
			zap.Error(err))
		return state, err
	}

	e.tagCasualties(next, SideHost)
	e.tagCasualties(next, SideGuest)
	return next, nil
}

// Reap returns a copy of state with every tagged casualty removed. It is the second
// phase of destruction and is safe to call at any time.
func (e *Engine) Reap(state *MatchState) *MatchState {
	next := state.Clone()
	e.tagCasualties(next, SideHost)
	e.tagCasualties(next, SideGuest)
	e.sweep(next)
	return next
}

func (e *Engine) sweep(m *MatchState) {
	for _, s := range []Side{SideHost, SideGuest} {
		side := m.Side(s)
		for i := range side.Board {
			if side.Board[i].PendingRemoval {
				e.log(log.NewRemoveEvent(m.ID, m.TurnCount, string(s), e.catalog.Name(side.Board[i].CardID)))
			}
		}
		side.Board = reapBoard(side.Board)
	}
}

func (e *Engine) tagCasualties(m *MatchState, s Side) {
	side := m.Side(s)
	for _, id := range markCasualties(e.catalog, side.Board) {
		idx := findUnit(side.Board, id)
		e.log(log.NewDestroyEvent(m.ID, m.TurnCount, string(s), e.catalog.Name(side.Board[idx].CardID)))
	}
}

func (e *Engine) endTurn(m *MatchState, passing Side) {
	incoming := passing.Opponent()

	// Field Hospitals heal the HQ of the side passing the turn.
	mine := m.Side(passing)
	regen := 0
	for i := range mine.Board {
		if !mine.Board[i].Alive() {
			continue
		}
		if card, ok := e.catalog.Lookup(mine.Board[i].CardID); ok {
			regen += card.HQRegen
		}
	}
	if regen > 0 && mine.HP < MaxHQ {
		old := mine.HP
		mine.HP = min(mine.HP+regen, MaxHQ)
		e.log(log.NewHQHealEvent(m.ID, m.TurnCount, string(passing), old, mine.HP))
	}

	m.Turn = incoming
	m.TurnCount++
	m.SupplyCap = SupplyCapFor(m.TurnCount)
	m.Host.Supply = m.SupplyCap
	m.Guest.Supply = m.SupplyCap

	for _, s := range []Side{SideHost, SideGuest} {
		e.tagCasualties(m, s)
	}
	e.sweep(m)

	next := m.Side(incoming)
	for i := range next.Board {
		next.Board[i].CanAct = true
	}

	m.LastAction = fmt.Sprintf("Turn pass to %s", incoming)
	m.Effects = nil
	e.log(log.NewTurnEvent(m.ID, m.TurnCount, string(incoming), m.SupplyCap))
}

func (e *Engine) finish(m *MatchState, winner Side, reason string) {
	m.Status = StatusFinished
	m.WinnerSide = winner
	m.Winner = m.UserID(winner)
	e.log(log.NewWinEvent(m.ID, m.TurnCount, string(winner), reason))
	e.logger.Info("match finished",
		zap.String("match", m.ID),
		zap.String("winner", string(winner)),
		zap.String("reason", reason))
}

func (e *Engine) fx(m *MatchState, unitID string, kind FxKind) {
	m.Effects = append(m.Effects, VisualEffect{UnitID: unitID, Kind: kind, At: e.now()})
}

// liveUnit returns the index of a live unit on board or an error wrapping ErrInvalidUnit.
func liveUnit(board []Unit, instanceID string) (int, error) {
	idx := findUnit(board, instanceID)
	if idx < 0 || !board[idx].Alive() {
		return -1, fmt.Errorf("%w: %q", ErrInvalidUnit, instanceID)
	}
	return idx, nil
}

func (e *Engine) cardOf(u *Unit) (*Card, error) {
	card, ok := e.catalog.Lookup(u.CardID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCard, u.CardID)
	}
	return card, nil
}
