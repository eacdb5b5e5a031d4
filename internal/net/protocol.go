package net

import (
	"github.com/peterkuimelis/frontline/internal/game"
	"github.com/peterkuimelis/frontline/internal/opponent"
	"github.com/peterkuimelis/frontline/internal/profile"
	"github.com/peterkuimelis/frontline/internal/session"
)

// Message types for the JSON protocol over a websocket.

// Client → server.
const (
	MsgHello   = "hello"
	MsgHost    = "host"
	MsgHostAI  = "host_ai"
	MsgJoin    = "join"
	MsgCancel  = "cancel"
	MsgLeave   = "leave"
	MsgLobby   = "lobby"
	MsgAction  = "action"
	MsgProfile = "profile"
)

// Server → client.
const (
	MsgWelcome = "welcome"
	MsgState   = "state"
	MsgNotice  = "notice"
	MsgHosted  = "hosted"
	MsgError   = "error"
)

// ClientMessage is the envelope for all client-to-server messages.
type ClientMessage struct {
	Type string `json:"type"`

	// For "hello" (initial handshake)
	UserID string `json:"user_id,omitempty"`
	Name   string `json:"name,omitempty"`

	// For "join"
	MatchID string `json:"match_id,omitempty"`

	// For "action"
	Move *opponent.Move `json:"move,omitempty"`
}

// ServerMessage is the envelope for all server-to-client messages.
type ServerMessage struct {
	Type string `json:"type"`

	// For "state"
	View    *game.View          `json:"view,omitempty"`
	Effects []game.VisualEffect `json:"effects,omitempty"`

	// For "notice"
	Notice *session.Notice `json:"notice,omitempty"`

	// For "lobby"
	Lobby []session.LobbyEntry `json:"lobby,omitempty"`

	// For "hosted"
	MatchID string `json:"match_id,omitempty"`

	// For "profile" and "welcome"
	Profile *profile.Profile `json:"profile,omitempty"`

	// For "error"
	Error string `json:"error,omitempty"`
}

// CardInfo is the JSON representation of a card for the /api/cards endpoint.
type CardInfo struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Category    game.Category `json:"category"`
	Rarity      game.Rarity   `json:"rarity"`
	Cost        int           `json:"cost"`
	Attack      int           `json:"atk,omitempty"`
	Defense     int           `json:"def,omitempty"`
	Description string        `json:"desc"`
	Token       bool          `json:"token,omitempty"`
}

func cardInfo(c *game.Card) CardInfo {
	return CardInfo{
		ID:          c.ID,
		Name:        c.Name,
		Category:    c.Category,
		Rarity:      c.Rarity,
		Cost:        c.Cost,
		Attack:      c.Attack,
		Defense:     c.Defense,
		Description: c.Description,
		Token:       c.Token,
	}
}
