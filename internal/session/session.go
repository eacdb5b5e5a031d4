// Package session drives one participant's view of a match: it watches the shared
// document, submits that participant's actions with optimistic concurrency, and runs
// the follow-up writes (hand dealing, casualty sweeps, rewards, automated turns) that
// the rules engine leaves to the client.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/peterkuimelis/frontline/internal/game"
	"github.com/peterkuimelis/frontline/internal/opponent"
	"github.com/peterkuimelis/frontline/internal/profile"
	"github.com/peterkuimelis/frontline/internal/store"
)

var (
	ErrBusy     = errors.New("previous order still settling")
	ErrNoMatch  = errors.New("not in a match")
	ErrNotHost  = errors.New("only the host can cancel a waiting match")
	ErrNoDriver = errors.New("no automated opponent configured")
)

// updateRetries bounds read-modify-write loops that lose CAS races.
const updateRetries = 5

type NoticeKind string

const (
	NoticeInfo       NoticeKind = "info"
	NoticeRejected   NoticeKind = "rejected"
	NoticeConnection NoticeKind = "connection"
)

// Notice is a message for the participant. Terminal notices mean the session has
// left the match and the client should return to the lobby.
type Notice struct {
	Kind     NoticeKind `json:"kind"`
	Message  string     `json:"message"`
	Terminal bool       `json:"terminal,omitempty"`
}

// Update is pushed to the client for every snapshot and notice.
type Update struct {
	State   *game.MatchState
	Side    game.Side
	Effects []game.VisualEffect
	Notice  *Notice
}

// Deps are the collaborators shared by every session of a process.
type Deps struct {
	Store     store.Store
	Engine    *game.Engine
	Profiles  profile.Store
	Opponent  *opponent.Driver // nil disables automated matches
	Scheduler gocron.Scheduler // runs lobby heartbeats; nil disables them
	Timing    Timing
	Logger    *zap.Logger
}

type Session struct {
	deps     Deps
	logger   *zap.Logger
	userID   string
	userName string
	updates  chan Update

	mu  sync.Mutex
	att *attachment
}

// attachment is the per-match part of a session. Callbacks compare against s.att
// so work started for an abandoned match never touches the next one.
type attachment struct {
	ctx        context.Context
	cancel     context.CancelFunc
	matchID    string
	joinIntent bool
	ttl        time.Duration

	side            game.Side
	state           *game.MatchState
	joining         bool
	busy            bool
	handDealt       bool
	rewardClaimed   bool // a claim is in flight or done; MatchState.RewardClaimed is durable
	outcomeShown    bool
	opponentBusy    bool
	opponentVersion int64
	heartbeat       gocron.Job
}

func New(deps Deps, userID, userName string) *Session {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Session{
		deps:     deps,
		logger:   deps.Logger.With(zap.String("user", userID)),
		userID:   userID,
		userName: userName,
		updates:  make(chan Update, 64),
	}
}

func (s *Session) UserID() string   { return s.userID }
func (s *Session) UserName() string { return s.userName }

// Updates streams snapshots and notices for the current match.
func (s *Session) Updates() <-chan Update {
	return s.updates
}

// Current returns the last snapshot seen and the participant's side.
func (s *Session) Current() (*game.MatchState, game.Side, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.att == nil || s.att.state == nil {
		return nil, "", false
	}
	return s.att.state, s.att.side, true
}

// View renders the current match from the participant's side.
func (s *Session) View() (game.View, bool) {
	m, side, ok := s.Current()
	if !ok {
		return game.View{}, false
	}
	return game.NewView(s.deps.Engine.Catalog(), m, side), true
}

// --- Entering and leaving matches ---

// Host opens a waiting match and keeps it alive with heartbeats until it ends or
// the session leaves.
func (s *Session) Host(ctx context.Context) (string, error) {
	m := s.deps.Engine.OpenLobby(s.userID, s.userName)
	m.ExpireAt = m.CreatedAt.Add(s.deps.Timing.LobbyTTL)
	if err := s.deps.Store.Create(ctx, m); err != nil {
		return "", fmt.Errorf("host: %w", err)
	}
	att, err := s.attach(ctx, m.ID, false, s.deps.Timing.LobbyTTL)
	if err != nil {
		return "", err
	}
	s.startHeartbeat(att)
	s.logger.Info("hosting match", zap.String("match", m.ID))
	return m.ID, nil
}

// HostAutomated opens an active match against the automated opponent.
func (s *Session) HostAutomated(ctx context.Context) (string, error) {
	if s.deps.Opponent == nil {
		return "", ErrNoDriver
	}
	m := s.deps.Engine.OpenAutomated(s.userID, s.userName)
	m.ExpireAt = m.CreatedAt.Add(s.deps.Timing.AutomatedTTL)
	if err := s.deps.Store.Create(ctx, m); err != nil {
		return "", fmt.Errorf("host automated: %w", err)
	}
	att, err := s.attach(ctx, m.ID, false, s.deps.Timing.AutomatedTTL)
	if err != nil {
		return "", err
	}
	s.startHeartbeat(att)
	s.logger.Info("hosting automated match", zap.String("match", m.ID))
	return m.ID, nil
}

// Join watches matchID and takes the guest seat on the first waiting snapshot.
// Rejections (own match, match full) arrive as terminal notices.
func (s *Session) Join(ctx context.Context, matchID string) error {
	_, err := s.attach(ctx, matchID, true, 0)
	return err
}

// Cancel deletes the match the session is hosting while it is still waiting.
func (s *Session) Cancel(ctx context.Context) error {
	s.mu.Lock()
	att := s.att
	if att == nil {
		s.mu.Unlock()
		return ErrNoMatch
	}
	if att.joinIntent || (att.state != nil && att.state.Status != game.StatusWaiting) {
		s.mu.Unlock()
		return ErrNotHost
	}
	s.mu.Unlock()

	s.detach(att)
	if err := s.deps.Store.Delete(ctx, att.matchID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("cancel: %w", err)
	}
	s.logger.Info("cancelled match", zap.String("match", att.matchID))
	return nil
}

// Leave stops watching the current match without changing it.
func (s *Session) Leave() {
	s.mu.Lock()
	att := s.att
	s.mu.Unlock()
	if att != nil {
		s.detach(att)
	}
}

func (s *Session) Close() {
	s.Leave()
}

func (s *Session) attach(ctx context.Context, matchID string, joinIntent bool, ttl time.Duration) (*attachment, error) {
	s.Leave()

	actx, cancel := context.WithCancel(ctx)
	ch, err := s.deps.Store.Watch(actx, matchID)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("watch %s: %w", matchID, err)
	}
	att := &attachment{
		ctx:        actx,
		cancel:     cancel,
		matchID:    matchID,
		joinIntent: joinIntent,
		ttl:        ttl,
	}
	s.mu.Lock()
	s.att = att
	s.mu.Unlock()

	go s.watch(att, ch)
	return att, nil
}

func (s *Session) detach(att *attachment) {
	s.mu.Lock()
	if s.att == att {
		s.att = nil
	}
	job := att.heartbeat
	att.heartbeat = nil
	s.mu.Unlock()

	att.cancel()
	if job != nil && s.deps.Scheduler != nil {
		if err := s.deps.Scheduler.RemoveJob(job.ID()); err != nil {
			s.logger.Debug("remove heartbeat", zap.Error(err))
		}
	}
}

func (s *Session) current(att *attachment) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.att == att
}

// fail reports a terminal notice and leaves the match.
func (s *Session) fail(att *attachment, kind NoticeKind, msg string) {
	if !s.current(att) {
		return
	}
	s.publish(att, Update{Notice: &Notice{Kind: kind, Message: msg, Terminal: true}})
	s.detach(att)
}

func (s *Session) notify(att *attachment, kind NoticeKind, msg string) {
	s.publish(att, Update{Notice: &Notice{Kind: kind, Message: msg}})
}

func (s *Session) publish(att *attachment, u Update) {
	select {
	case s.updates <- u:
	case <-att.ctx.Done():
	}
}

// --- Watching ---

func (s *Session) watch(att *attachment, ch <-chan store.Change) {
	for c := range ch {
		switch {
		case c.Err != nil:
			s.logger.Warn("watch failed", zap.String("match", att.matchID), zap.Error(c.Err))
			s.fail(att, NoticeConnection, "Connection to the match was lost")
			return
		case c.Deleted:
			s.fail(att, NoticeConnection, "The match was closed")
			return
		default:
			s.onSnapshot(att, c.State)
		}
	}
}

func (s *Session) onSnapshot(att *attachment, m *game.MatchState) {
	s.mu.Lock()
	if s.att != att {
		s.mu.Unlock()
		return
	}
	if att.joinIntent && m.HostID == s.userID {
		s.mu.Unlock()
		s.fail(att, NoticeRejected, "You cannot join your own match")
		return
	}
	side, seated := m.SideOf(s.userID)
	if !seated {
		if m.Status == game.StatusWaiting && m.GuestID == "" {
			if !att.joining {
				att.joining = true
				go s.join(att, m)
			}
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
		s.fail(att, NoticeRejected, "Match is full")
		return
	}

	att.side = side
	if att.state == nil || m.Version >= att.state.Version {
		att.state = m
	}

	var tasks []func()
	if s.needsHand(att, m) {
		att.handDealt = true
		tasks = append(tasks, func() { s.dealHand(att) })
	}
	var outcome string
	if m.Status == game.StatusFinished && !att.outcomeShown {
		att.outcomeShown = true
		if m.WinnerSide == side {
			outcome = "Victory!"
		} else {
			outcome = "Defeat."
		}
		if m.WinnerSide == side && !m.RewardClaimed && !att.rewardClaimed {
			att.rewardClaimed = true
			tasks = append(tasks, func() { s.claimReward(att) })
		}
	}
	if s.opponentDue(att, m) {
		tasks = append(tasks, func() { s.runOpponent(att, m) })
	}
	s.mu.Unlock()

	s.publish(att, Update{
		State:   m,
		Side:    side,
		Effects: m.RecentEffects(s.deps.Engine.Now(), s.deps.Timing.EffectWindow),
	})
	if outcome != "" {
		s.notify(att, NoticeInfo, outcome)
	}
	for _, t := range tasks {
		go t()
	}
}

func (s *Session) join(att *attachment, m *game.MatchState) {
	next, err := s.deps.Engine.Join(m, s.userID, s.userName)
	if err != nil {
		s.fail(att, NoticeRejected, capitalize(err.Error()))
		return
	}
	if err := s.deps.Store.Write(att.ctx, next, m.Version); err != nil {
		if errors.Is(err, store.ErrConflict) {
			// Someone else changed the match first; the next snapshot decides.
			s.mu.Lock()
			att.joining = false
			s.mu.Unlock()
			return
		}
		s.logger.Warn("join write failed", zap.String("match", m.ID), zap.Error(err))
		s.fail(att, NoticeConnection, "Could not join the match")
		return
	}
	s.logger.Info("joined match", zap.String("match", m.ID))
}

// --- Follow-up writes ---

// needsHand reports whether this side still has to be dealt its opening hand.
// Called with s.mu held.
func (s *Session) needsHand(att *attachment, m *game.MatchState) bool {
	if att.handDealt || m.Status != game.StatusActive {
		return false
	}
	own := m.Side(att.side)
	return len(own.Hand) == 0 && len(own.Board) == 0 && m.TurnCount <= 2
}

func (s *Session) dealHand(att *attachment) {
	p, err := s.deps.Profiles.Profile(att.ctx, s.userID, s.userName)
	if err != nil {
		s.logger.Error("load profile", zap.Error(err))
		s.mu.Lock()
		att.handDealt = false
		s.mu.Unlock()
		s.notify(att, NoticeConnection, "Could not load your collection")
		return
	}
	side := att.side
	err = s.update(att, func(m *game.MatchState) *game.MatchState {
		own := m.Side(side)
		if m.Status != game.StatusActive || len(own.Hand) > 0 {
			return nil
		}
		next := m.Clone()
		next.Side(side).Hand = s.deps.Engine.BuildHand(p.Collection, m.StartingSide != side)
		return next
	})
	if err != nil {
		s.logger.Warn("deal hand", zap.String("match", att.matchID), zap.Error(err))
	}
}

// claimReward marks the match as rewarded with a CAS write and only then pays out,
// so a match pays its winner once no matter how often it is reopened.
func (s *Session) claimReward(att *attachment) {
	var claimed bool
	err := s.update(att, func(m *game.MatchState) *game.MatchState {
		claimed = false
		if m.Status != game.StatusFinished || m.RewardClaimed || m.Winner != s.userID {
			return nil
		}
		next := m.Clone()
		next.RewardClaimed = true
		claimed = true
		return next
	})
	if err != nil {
		s.logger.Warn("mark reward claimed", zap.String("match", att.matchID), zap.Error(err))
		s.notify(att, NoticeConnection, "Could not record your reward")
		return
	}
	if !claimed {
		return
	}

	reward := s.deps.Engine.RollReward()
	if err := s.deps.Profiles.GrantWin(att.ctx, s.userID, reward); err != nil {
		s.logger.Error("grant reward", zap.Error(err))
		s.notify(att, NoticeConnection, "Could not record your reward")
		return
	}
	msg := fmt.Sprintf("+%d credits", reward.Credits)
	if reward.CardID != "" {
		msg += " and " + s.deps.Engine.Catalog().Name(reward.CardID) + " joined your collection!"
	}
	s.notify(att, NoticeInfo, msg)
}

// update re-reads the match, applies fn and writes the result, retrying when
// another writer got there first. fn returning nil means nothing to do.
func (s *Session) update(att *attachment, fn func(*game.MatchState) *game.MatchState) error {
	for range updateRetries {
		m, err := s.deps.Store.Get(att.ctx, att.matchID)
		if err != nil {
			return err
		}
		next := fn(m)
		if next == nil {
			return nil
		}
		err = s.deps.Store.Write(att.ctx, next, m.Version)
		if errors.Is(err, store.ErrConflict) {
			continue
		}
		return err
	}
	return store.ErrConflict
}

func (s *Session) scheduleReap(att *attachment, d time.Duration) {
	time.AfterFunc(d, func() {
		if att.ctx.Err() != nil {
			return
		}
		err := s.update(att, func(m *game.MatchState) *game.MatchState {
			if !m.HasPendingRemovals() {
				return nil
			}
			return s.deps.Engine.Reap(m)
		})
		if err != nil && att.ctx.Err() == nil {
			s.logger.Warn("reap casualties", zap.String("match", att.matchID), zap.Error(err))
		}
	})
}

// --- Actions ---

// Submit applies the participant's action and writes the result. Only one action
// may be in flight; the latch is held for a settle delay after the write lands.
func (s *Session) Submit(ctx context.Context, a game.Action) error {
	s.mu.Lock()
	att := s.att
	if att == nil || att.state == nil {
		s.mu.Unlock()
		return ErrNoMatch
	}
	if att.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	cur := att.state
	a.Side = att.side
	att.busy = true
	s.mu.Unlock()

	next, err := s.deps.Engine.Apply(cur, a)
	if err != nil {
		s.release(att, 0)
		if game.IsRejection(err) {
			s.notify(att, NoticeRejected, capitalize(err.Error()))
		}
		return err
	}
	if err := s.deps.Store.Write(ctx, next, cur.Version); err != nil {
		s.release(att, 0)
		if errors.Is(err, store.ErrConflict) {
			s.notify(att, NoticeRejected, "The battlefield changed, try again")
			return err
		}
		s.logger.Error("write action", zap.String("match", cur.ID), zap.Stringer("action", a), zap.Error(err))
		s.fail(att, NoticeConnection, "Could not reach the match")
		return err
	}

	s.mu.Lock()
	if s.att == att && next.Version > att.state.Version {
		att.state = next
	}
	s.mu.Unlock()

	s.release(att, s.settleDelay(a))
	if next.HasPendingRemovals() {
		s.scheduleReap(att, s.reapDelay(a))
	}
	return nil
}

// Play maps a move in board indices onto the current snapshot and submits it.
func (s *Session) Play(ctx context.Context, mv opponent.Move) error {
	m, side, ok := s.Current()
	if !ok {
		return ErrNoMatch
	}
	a, err := mv.ToAction(s.deps.Engine.Catalog(), m, side)
	if err != nil {
		return err
	}
	return s.Submit(ctx, a)
}

// Profile loads the participant's account, creating it on first use.
func (s *Session) Profile(ctx context.Context) (*profile.Profile, error) {
	return s.deps.Profiles.Profile(ctx, s.userID, s.userName)
}

func (s *Session) release(att *attachment, after time.Duration) {
	unlatch := func() {
		s.mu.Lock()
		att.busy = false
		s.mu.Unlock()
	}
	if after <= 0 {
		unlatch()
		return
	}
	time.AfterFunc(after, unlatch)
}

func (s *Session) settleDelay(a game.Action) time.Duration {
	t := s.deps.Timing
	if a.Type != game.ActionPlayCard {
		return t.Settle
	}
	card, ok := s.deps.Engine.Catalog().Lookup(a.CardID)
	if !ok || card.Tactic == nil {
		return t.Settle
	}
	if _, crate := card.Tactic.(game.Resupply); crate {
		return t.CrateSettle
	}
	return t.TacticSettle
}

func (s *Session) reapDelay(a game.Action) time.Duration {
	if a.Type == game.ActionPlayCard {
		if card, ok := s.deps.Engine.Catalog().Lookup(a.CardID); ok {
			if _, strike := card.Tactic.(game.AreaStrike); strike {
				return s.deps.Timing.TacticReap
			}
		}
	}
	return s.deps.Timing.Reap
}

// --- Automated opponent ---

// opponentDue reports whether the host's session should play the automated side.
// Called with s.mu held; claims the turn when it returns true.
func (s *Session) opponentDue(att *attachment, m *game.MatchState) bool {
	if s.deps.Opponent == nil || !m.Automated || att.side != game.SideHost {
		return false
	}
	if m.Status != game.StatusActive || m.Turn != game.SideGuest {
		return false
	}
	if att.opponentBusy || m.Version <= att.opponentVersion {
		return false
	}
	att.opponentBusy = true
	att.opponentVersion = m.Version
	return true
}

func (s *Session) runOpponent(att *attachment, m *game.MatchState) {
	defer func() {
		s.mu.Lock()
		att.opponentBusy = false
		latest := att.state
		again := s.att == att && latest != nil && s.opponentDue(att, latest)
		s.mu.Unlock()
		if again {
			go s.runOpponent(att, latest)
		}
	}()

	next, action, err := s.deps.Opponent.Take(att.ctx, m, game.SideGuest)
	if err != nil {
		if att.ctx.Err() == nil {
			s.logger.Warn("automated turn", zap.String("match", m.ID), zap.Error(err))
		}
		return
	}
	if err := s.deps.Store.Write(att.ctx, next, m.Version); err != nil {
		s.logger.Debug("automated write lost", zap.String("match", m.ID), zap.Error(err))
		return
	}
	if next.HasPendingRemovals() {
		s.scheduleReap(att, s.reapDelay(action))
	}
}

func capitalize(msg string) string {
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
