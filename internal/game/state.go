package game

import (
	"slices"
	"time"
)

const (
	MaxHQ         = 20
	MaxSupplyCap  = 10
	StartSupply   = 1
	HandSupports  = 2
	HandCombat    = 5
	RewardCredits = 50
)

// SupplyCapFor returns the supply cap for a turn count: min(ceil(turnCount/2), 10).
func SupplyCapFor(turnCount int) int {
	if turnCount < 1 {
		return StartSupply
	}
	return min((turnCount+1)/2, MaxSupplyCap)
}

// Unit is a deployed card instance. Attack and Defense are raw values including
// permanent support buffs; auras are applied on top by BuffBoard.
type Unit struct {
	InstanceID      string `json:"instanceId"`
	CardID          string `json:"cardId"`
	Attack          int    `json:"attack"`
	Defense         int    `json:"defense"`
	HP              int    `json:"hp"`
	CanAct          bool   `json:"canAct"`
	AbilityConsumed bool   `json:"abilityConsumed"`
	PendingRemoval  bool   `json:"pendingRemoval,omitempty"`
}

// Alive reports whether the unit still takes part in game logic.
func (u *Unit) Alive() bool {
	return !u.PendingRemoval
}

// SideState is one seat's half of the match.
type SideState struct {
	Board  []Unit   `json:"board"`
	Hand   []string `json:"hand"`
	HP     int      `json:"hp"`
	Supply int      `json:"supply"`
}

// VisualEffect is an animation hint. Clients ignore hints older than the effect window.
type VisualEffect struct {
	UnitID string    `json:"unitId"`
	Kind   FxKind    `json:"kind"`
	At     time.Time `json:"at"`
}

// MatchState is the full match document. Each write replaces it as a whole.
type MatchState struct {
	ID      string `json:"id"`
	Version int64  `json:"version"`
	Status  Status `json:"status"`

	HostID    string `json:"hostId"`
	HostName  string `json:"hostName"`
	GuestID   string `json:"guestId,omitempty"`
	GuestName string `json:"guestName,omitempty"`
	Automated bool   `json:"automated,omitempty"`

	StartingSide Side `json:"startingSide,omitempty"`
	Turn         Side `json:"turn,omitempty"`
	TurnCount    int  `json:"turnCount"`
	SupplyCap    int  `json:"supplyCap"`

	Host  SideState `json:"host"`
	Guest SideState `json:"guest"`

	Winner     string `json:"winner,omitempty"`
	WinnerSide Side   `json:"winnerSide,omitempty"`
	LastAction string `json:"lastAction,omitempty"`
	// RewardClaimed is set by the winner's session before the reward is granted.
	RewardClaimed bool `json:"rewardClaimed,omitempty"`

	Effects []VisualEffect `json:"effects,omitempty"`

	CreatedAt  time.Time `json:"createdAt"`
	LastActive time.Time `json:"lastActive"`
	ExpireAt   time.Time `json:"expireAt"`
}

// Side returns a pointer to the given seat's state.
func (m *MatchState) Side(s Side) *SideState {
	if s == SideHost {
		return &m.Host
	}
	return &m.Guest
}

// UserID returns the player id seated at s.
func (m *MatchState) UserID(s Side) string {
	if s == SideHost {
		return m.HostID
	}
	return m.GuestID
}

// PlayerName returns the display name seated at s.
func (m *MatchState) PlayerName(s Side) string {
	if s == SideHost {
		return m.HostName
	}
	return m.GuestName
}

// SideOf returns the seat held by userID, if any.
func (m *MatchState) SideOf(userID string) (Side, bool) {
	switch userID {
	case "":
		return "", false
	case m.HostID:
		return SideHost, true
	case m.GuestID:
		return SideGuest, true
	}
	return "", false
}

// HasPendingRemovals reports whether either board still carries tagged casualties.
func (m *MatchState) HasPendingRemovals() bool {
	for _, b := range [][]Unit{m.Host.Board, m.Guest.Board} {
		for i := range b {
			if b[i].PendingRemoval {
				return true
			}
		}
	}
	return false
}

// RecentEffects returns the effects stamped within window of now.
func (m *MatchState) RecentEffects(now time.Time, window time.Duration) []VisualEffect {
	var out []VisualEffect
	for _, fx := range m.Effects {
		if now.Sub(fx.At) <= window {
			out = append(out, fx)
		}
	}
	return out
}

// Clone returns a deep copy.
func (m *MatchState) Clone() *MatchState {
	c := *m
	c.Host = m.Host.clone()
	c.Guest = m.Guest.clone()
	c.Effects = slices.Clone(m.Effects)
	return &c
}

func (s SideState) clone() SideState {
	s.Board = slices.Clone(s.Board)
	s.Hand = slices.Clone(s.Hand)
	return s
}

// findUnit returns the index of the unit with the given instance id, or -1.
func findUnit(board []Unit, instanceID string) int {
	for i := range board {
		if board[i].InstanceID == instanceID {
			return i
		}
	}
	return -1
}
