package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/peterkuimelis/frontline/internal/game"
	"github.com/peterkuimelis/frontline/internal/log"
	"github.com/peterkuimelis/frontline/internal/opponent"
)

var errNotPending = errors.New("no move is pending; call wait_for_turn")

// DecisionType identifies what the automated side is waiting for.
type DecisionType string

const (
	DecisionChooseMove DecisionType = "choose_move"
	DecisionGameOver   DecisionType = "game_over"
)

// PendingDecision is a decision handed from the match to the MCP client.
type PendingDecision struct {
	Type   DecisionType    `json:"type"`
	View   *game.View      `json:"view,omitempty"`
	Moves  []opponent.Move `json:"moves,omitempty"`
	Winner string          `json:"winner,omitempty"`
	Result string          `json:"result,omitempty"`
}

// EventView is a simplified match event for the client.
type EventView struct {
	Turn    int    `json:"turn"`
	Side    string `json:"side,omitempty"`
	Type    string `json:"type"`
	Card    string `json:"card,omitempty"`
	Details string `json:"details"`
}

// ToolResponse is the JSON envelope returned by all MCP tools.
type ToolResponse struct {
	Events   []EventView  `json:"events"`
	View     *game.View   `json:"view,omitempty"`
	Pending  *PendingView `json:"pending,omitempty"`
	GameOver bool         `json:"game_over"`
	Winner   string       `json:"winner,omitempty"`
	Result   string       `json:"result,omitempty"`
	Address  string       `json:"address,omitempty"`
}

// PendingView is the pending decision as presented in the tool response JSON.
type PendingView struct {
	Type  DecisionType    `json:"type"`
	Moves []opponent.Move `json:"moves,omitempty"`
}

// GameSession connects one automated seat to an MCP client. It is the event
// logger of the match engine and the home of the Policy that answers for the seat.
type GameSession struct {
	policy *Policy

	pendingCh      chan *PendingDecision
	currentPending *PendingDecision
	lastView       *game.View

	mu       sync.Mutex
	matchID  string
	events   []EventView
	gameOver bool
	winner   string
	result   string
	history  *log.MemoryLogger
}

func NewGameSession() *GameSession {
	s := &GameSession{
		pendingCh: make(chan *PendingDecision, 1),
		history:   log.NewBoundedMemoryLogger(log.StreamRetention),
	}
	s.policy = &Policy{session: s, responseCh: make(chan opponent.Move)}
	return s
}

// Policy returns the opponent policy answered through this session.
func (s *GameSession) Policy() *Policy {
	return s.policy
}

// Log implements log.EventLogger. Only events of the match the seat plays in
// are kept once that match is known.
func (s *GameSession) Log(ev log.GameEvent) {
	s.history.Log(ev)
	s.mu.Lock()
	if s.matchID != "" && ev.Match != s.matchID {
		s.mu.Unlock()
		return
	}
	s.events = append(s.events, EventView{
		Turn:    ev.Turn,
		Side:    ev.Side,
		Type:    ev.Type.String(),
		Card:    ev.Card,
		Details: ev.Details,
	})
	if len(s.events) > log.StreamRetention {
		s.events = slices.Delete(s.events, 0, len(s.events)-log.StreamRetention)
	}
	over := ev.Type == log.EventWin && s.matchID != "" && !s.gameOver
	if over {
		s.gameOver = true
		s.winner = ev.Side
		s.result = ev.Details
	}
	s.mu.Unlock()

	if over {
		// Wake a client blocked in wait_for_turn without stalling the engine.
		go func() {
			s.pendingCh <- &PendingDecision{Type: DecisionGameOver, Winner: ev.Side, Result: ev.Details}
		}()
	}
}

// Events implements log.EventLogger.
func (s *GameSession) Events() []log.GameEvent {
	return s.history.Events()
}

func (s *GameSession) bind(matchID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.matchID == matchID {
		return
	}
	s.matchID = matchID
	s.gameOver, s.winner, s.result = false, "", ""
	// Events gathered before the seat was known may belong to other matches.
	s.events = nil
}

// drainEvents returns all accumulated events and clears the buffer.
func (s *GameSession) drainEvents() []EventView {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := s.events
	s.events = nil
	if events == nil {
		events = []EventView{}
	}
	return events
}

// waitForPending blocks until the next decision arrives, then builds a
// ToolResponse with accumulated events and the pending decision.
func (s *GameSession) waitForPending(ctx context.Context) (*ToolResponse, error) {
	var pending *PendingDecision
	select {
	case pending = <-s.pendingCh:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	s.mu.Lock()
	s.currentPending = pending
	if pending.View != nil {
		s.lastView = pending.View
	}
	s.mu.Unlock()

	resp := &ToolResponse{Events: s.drainEvents(), View: pending.View}
	if pending.Type == DecisionGameOver {
		resp.GameOver = true
		resp.Winner = pending.Winner
		resp.Result = pending.Result
		return resp, nil
	}
	resp.Pending = &PendingView{Type: pending.Type, Moves: pending.Moves}
	return resp, nil
}

// snapshot reports the current decision without consuming anything.
func (s *GameSession) snapshot() *ToolResponse {
	resp := &ToolResponse{Events: s.drainEvents()}
	s.mu.Lock()
	defer s.mu.Unlock()
	resp.GameOver = s.gameOver
	resp.Winner = s.winner
	resp.Result = s.result
	resp.View = s.lastView
	if p := s.currentPending; p != nil && p.Type == DecisionChooseMove && !s.gameOver {
		resp.Pending = &PendingView{Type: p.Type, Moves: p.Moves}
	}
	return resp
}

// withdraw retracts an unanswered decision so a late response cannot be applied
// to a later turn.
func (s *GameSession) withdraw(p *PendingDecision) {
	select {
	case queued := <-s.pendingCh:
		if queued != p {
			// Not ours; put it back for the client.
			go func() { s.pendingCh <- queued }()
		}
	default:
	}
	s.mu.Lock()
	if s.currentPending == p {
		s.currentPending = nil
	}
	s.mu.Unlock()
}

// respond hands mv to the waiting policy.
func (s *GameSession) respond(ctx context.Context, mv opponent.Move) error {
	s.mu.Lock()
	pending := s.currentPending
	if pending == nil || pending.Type != DecisionChooseMove {
		s.mu.Unlock()
		return errNotPending
	}
	s.currentPending = nil
	s.mu.Unlock()

	select {
	case s.policy.responseCh <- mv:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// respondJSON marshals a ToolResponse to a JSON string.
func respondJSON(resp *ToolResponse) string {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Sprintf(`{"error": "marshal error: %v"}`, err)
	}
	return string(data)
}
