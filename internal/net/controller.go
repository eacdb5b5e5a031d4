package net

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"github.com/peterkuimelis/frontline/internal/game"
	"github.com/peterkuimelis/frontline/internal/session"
)

// Controller serves one websocket client: it forwards commands to a session and
// streams the session's snapshots back as views.
type Controller struct {
	conn    *websocket.Conn
	session *session.Session
	catalog *game.Catalog
	logger  *zap.Logger
	mu      sync.Mutex // serialises writes
}

func NewController(conn *websocket.Conn, s *session.Session, cat *game.Catalog, logger *zap.Logger) *Controller {
	return &Controller{
		conn:    conn,
		session: s,
		catalog: cat,
		logger:  logger.With(zap.String("user", s.UserID())),
	}
}

func (c *Controller) send(ctx context.Context, msg ServerMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return wsjson.Write(ctx, c.conn, msg)
}

// Run pumps updates and commands until the connection closes or ctx is done.
func (c *Controller) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer c.session.Close()

	go c.pump(ctx)

	for {
		var msg ClientMessage
		if err := wsjson.Read(ctx, c.conn, &msg); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("read command: %w", err)
		}
		if err := c.handle(ctx, msg); err != nil {
			if sendErr := c.send(ctx, ServerMessage{Type: MsgError, Error: err.Error()}); sendErr != nil {
				return sendErr
			}
		}
	}
}

func (c *Controller) pump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case u := <-c.session.Updates():
			if err := c.send(ctx, c.render(u)); err != nil {
				c.logger.Debug("write update", zap.Error(err))
				return
			}
		}
	}
}

func (c *Controller) render(u session.Update) ServerMessage {
	if u.Notice != nil {
		return ServerMessage{Type: MsgNotice, Notice: u.Notice}
	}
	view := game.NewView(c.catalog, u.State, u.Side)
	return ServerMessage{Type: MsgState, View: &view, Effects: u.Effects}
}

func (c *Controller) handle(ctx context.Context, msg ClientMessage) error {
	s := c.session
	switch msg.Type {
	case MsgHost:
		id, err := s.Host(ctx)
		if err != nil {
			return err
		}
		return c.send(ctx, ServerMessage{Type: MsgHosted, MatchID: id})

	case MsgHostAI:
		id, err := s.HostAutomated(ctx)
		if err != nil {
			return err
		}
		return c.send(ctx, ServerMessage{Type: MsgHosted, MatchID: id})

	case MsgJoin:
		if msg.MatchID == "" {
			return errors.New("join needs a match_id")
		}
		return s.Join(ctx, msg.MatchID)

	case MsgCancel:
		return s.Cancel(ctx)

	case MsgLeave:
		s.Leave()
		return nil

	case MsgLobby:
		entries, err := s.Lobby(ctx)
		if err != nil {
			return err
		}
		return c.send(ctx, ServerMessage{Type: MsgLobby, Lobby: entries})

	case MsgProfile:
		p, err := s.Profile(ctx)
		if err != nil {
			return err
		}
		return c.send(ctx, ServerMessage{Type: MsgProfile, Profile: p})

	case MsgAction:
		if msg.Move == nil {
			return errors.New("action needs a move")
		}
		err := s.Play(ctx, *msg.Move)
		// Rule rejections already reached the client as notices.
		if game.IsRejection(err) {
			return nil
		}
		return err
	}
	return fmt.Errorf("unknown message type %q", msg.Type)
}
