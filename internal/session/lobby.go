package session

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/peterkuimelis/frontline/internal/game"
	"github.com/peterkuimelis/frontline/internal/store"
)

// LobbyEntry is a joinable match as shown in the lobby.
type LobbyEntry struct {
	MatchID    string    `json:"match_id"`
	HostID     string    `json:"host_id"`
	HostName   string    `json:"host_name"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
}

// Lobby lists waiting matches whose host has sent a heartbeat recently.
func Lobby(ctx context.Context, st store.Store, now time.Time, staleAfter time.Duration) ([]LobbyEntry, error) {
	ms, err := st.List(ctx, store.Filter{
		Status:      game.StatusWaiting,
		ActiveSince: now.Add(-staleAfter),
	})
	if err != nil {
		return nil, fmt.Errorf("list lobby: %w", err)
	}
	out := make([]LobbyEntry, 0, len(ms))
	for _, m := range ms {
		out = append(out, LobbyEntry{
			MatchID:    m.ID,
			HostID:     m.HostID,
			HostName:   m.HostName,
			CreatedAt:  m.CreatedAt,
			LastActive: m.LastActive,
		})
	}
	return out, nil
}

// Lobby lists joinable matches, hiding the session's own.
func (s *Session) Lobby(ctx context.Context) ([]LobbyEntry, error) {
	all, err := Lobby(ctx, s.deps.Store, s.deps.Engine.Now(), s.deps.Timing.StaleAfter)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, e := range all {
		if e.HostID == s.userID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// startHeartbeat refreshes LastActive and ExpireAt of the hosted match on every
// interval until the attachment ends.
func (s *Session) startHeartbeat(att *attachment) {
	if s.deps.Scheduler == nil || s.deps.Timing.HeartbeatInterval <= 0 {
		return
	}
	job, err := s.deps.Scheduler.NewJob(
		gocron.DurationJob(s.deps.Timing.HeartbeatInterval),
		gocron.NewTask(func() { s.beat(att) }),
		gocron.WithName("heartbeat:"+att.matchID),
	)
	if err != nil {
		s.logger.Warn("schedule heartbeat", zap.String("match", att.matchID), zap.Error(err))
		return
	}
	s.mu.Lock()
	if att.ctx.Err() != nil {
		s.mu.Unlock()
		_ = s.deps.Scheduler.RemoveJob(job.ID())
		return
	}
	att.heartbeat = job
	s.mu.Unlock()
}

func (s *Session) beat(att *attachment) {
	if att.ctx.Err() != nil {
		return
	}
	now := s.deps.Engine.Now()
	if err := s.deps.Store.Touch(att.ctx, att.matchID, now, now.Add(att.ttl)); err != nil {
		s.logger.Debug("heartbeat", zap.String("match", att.matchID), zap.Error(err))
	}
}

// StartReaper schedules periodic deletion of expired matches on sched.
func StartReaper(sched gocron.Scheduler, st store.Store, every time.Duration, now func() time.Time, logger *zap.Logger) (gocron.Job, error) {
	return sched.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), every)
			defer cancel()
			n, err := st.ReapExpired(ctx, now())
			if err != nil {
				logger.Warn("reap expired matches", zap.Error(err))
				return
			}
			if n > 0 {
				logger.Debug("reaper pass", zap.Int("deleted", n))
			}
		}),
		gocron.WithName("match-reaper"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
}
