// Package profile keeps player accounts: owned cards, credits and wins.
package profile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/peterkuimelis/frontline/internal/game"
)

const StartingCredits = 100

var ErrNotFound = errors.New("profile not found")

// Profile is a player's account.
type Profile struct {
	UserID     string   `yaml:"id" json:"id"`
	Username   string   `yaml:"username" json:"username"`
	Credits    int      `yaml:"credits" json:"credits"`
	Wins       int      `yaml:"wins" json:"wins"`
	Losses     int      `yaml:"losses" json:"losses"`
	Collection []string `yaml:"collection" json:"collection"`
}

// Store is the profile collaborator used by match sessions.
type Store interface {
	// Profile returns the profile for userID, creating a starter profile when absent.
	Profile(ctx context.Context, userID, username string) (*Profile, error)
	// GrantWin adds the reward credits and card and increments the win count.
	GrantWin(ctx context.Context, userID string, reward game.Reward) error
}

// StarterCollection is the owned pool of a new account.
func StarterCollection() []string {
	return []string{
		"inf_rifle", "inf_rifle", "inf_rifle",
		"inf_sniper", "tank_sherman", "air_spitfire",
		"supp_bunker", "supp_medic", "supp_supply", "supp_radar",
	}
}

// starterOr returns a copy of pool, or the default starter collection when pool is empty.
func starterOr(pool []string) []string {
	if len(pool) == 0 {
		return StarterCollection()
	}
	return append([]string(nil), pool...)
}

// Memory is an in-process Store, optionally seeded from YAML.
type Memory struct {
	// Starter replaces StarterCollection for profiles created from now on.
	Starter []string

	mu       sync.Mutex
	profiles map[string]*Profile
}

func NewMemory() *Memory {
	return &Memory{profiles: make(map[string]*Profile)}
}

// seedFile is the YAML layout accepted by LoadMemory.
type seedFile struct {
	Profiles []Profile `yaml:"profiles"`
}

// LoadMemory reads profiles from a YAML file. Unknown card ids are an error.
func LoadMemory(cat *game.Catalog, path string) (*Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse profile YAML: %w", err)
	}
	m := NewMemory()
	for i := range sf.Profiles {
		p := sf.Profiles[i]
		for _, id := range p.Collection {
			if _, ok := cat.Lookup(id); !ok {
				return nil, fmt.Errorf("profile %q: %w: %q", p.UserID, game.ErrUnknownCard, id)
			}
		}
		m.profiles[p.UserID] = &p
	}
	return m, nil
}

func (m *Memory) Profile(_ context.Context, userID, username string) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		p = &Profile{
			UserID:     userID,
			Username:   username,
			Credits:    StartingCredits,
			Collection: starterOr(m.Starter),
		}
		m.profiles[userID] = p
	}
	cp := *p
	cp.Collection = append([]string(nil), p.Collection...)
	return &cp, nil
}

func (m *Memory) GrantWin(_ context.Context, userID string, reward game.Reward) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return ErrNotFound
	}
	p.Credits += reward.Credits
	p.Wins++
	if reward.CardID != "" {
		p.Collection = append(p.Collection, reward.CardID)
	}
	return nil
}
