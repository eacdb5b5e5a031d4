// Package net serves frontline matches to websocket clients and provides the
// terminal client that talks to it.
package net

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	stdnet "net"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"github.com/peterkuimelis/frontline/internal/session"
)

// Server is the frontline HTTP and websocket server.
type Server struct {
	deps   session.Deps
	logger *zap.Logger
	mux    *http.ServeMux
}

func NewServer(deps session.Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		deps:   deps,
		logger: logger,
		mux:    http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET /api/cards", s.handleCards)
	s.mux.HandleFunc("GET /api/lobby", s.handleLobby)
	s.mux.HandleFunc("GET /ws", s.handleWebSocket)
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleCards(w http.ResponseWriter, r *http.Request) {
	cat := s.deps.Engine.Catalog()
	cards := make([]CardInfo, 0, len(cat.IDs()))
	for _, c := range cat.Cards() {
		cards = append(cards, cardInfo(c))
	}
	writeJSON(w, cards)
}

func (s *Server) handleLobby(w http.ResponseWriter, r *http.Request) {
	entries, err := session.Lobby(r.Context(), s.deps.Store, s.deps.Engine.Now(), s.deps.Timing.StaleAfter)
	if err != nil {
		s.logger.Error("list lobby", zap.Error(err))
		http.Error(w, "could not list lobby", http.StatusInternalServerError)
		return
	}
	writeJSON(w, entries)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Allow connections from any origin
	})
	if err != nil {
		s.logger.Warn("websocket accept", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()

	// The first message names the player.
	var hello ClientMessage
	if err := wsjson.Read(ctx, conn, &hello); err != nil {
		s.logger.Debug("read hello", zap.Error(err))
		return
	}
	hello.UserID = strings.TrimSpace(hello.UserID)
	if hello.Type != MsgHello || hello.UserID == "" {
		conn.Close(websocket.StatusPolicyViolation, "expected hello with user_id")
		return
	}
	if hello.Name == "" {
		hello.Name = hello.UserID
	}

	sess := session.New(s.deps, hello.UserID, hello.Name)
	ctrl := NewController(conn, sess, s.deps.Engine.Catalog(), s.logger)

	welcome := ServerMessage{Type: MsgWelcome}
	if p, err := sess.Profile(ctx); err == nil {
		welcome.Profile = p
	} else {
		s.logger.Warn("load profile", zap.String("user", hello.UserID), zap.Error(err))
	}
	if err := ctrl.send(ctx, welcome); err != nil {
		return
	}

	s.logger.Info("player connected", zap.String("user", hello.UserID), zap.String("remote", r.RemoteAddr))
	if err := ctrl.Run(ctx); err != nil {
		s.logger.Debug("connection closed", zap.String("user", hello.UserID), zap.Error(err))
	}
	conn.Close(websocket.StatusNormalClosure, "bye")
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
		// Hijacked websocket connections outlive Shutdown; tie them to ctx instead.
		BaseContext: func(stdnet.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
