package game

import (
	"fmt"
	"math/rand/v2"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// PoolFile represents the top-level YAML structure of an owned-pool file.
type PoolFile struct {
	Pools []PoolEntry `yaml:"pools"`
}

// PoolEntry represents a single named pool in the YAML file.
type PoolEntry struct {
	Name  string      `yaml:"name"`
	Cards []CardEntry `yaml:"cards"`
}

// CardEntry represents a card id and its count in a pool.
type CardEntry struct {
	ID    string `yaml:"id"`
	Count int    `yaml:"count"`
}

// ParsePoolFile parses a YAML pool file and returns a map of pool name → card ids.
// Unknown ids are an error.
func ParsePoolFile(cat *Catalog, path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePools(cat, data)
}

// ParsePools parses pool YAML from memory.
func ParsePools(cat *Catalog, data []byte) (map[string][]string, error) {
	var pf PoolFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse pool YAML: %w", err)
	}

	pools := make(map[string][]string, len(pf.Pools))
	for _, pool := range pf.Pools {
		var ids []string
		for _, entry := range pool.Cards {
			if _, ok := cat.Lookup(entry.ID); !ok {
				return nil, fmt.Errorf("pool %q: %w: %q", pool.Name, ErrUnknownCard, entry.ID)
			}
			count := entry.Count
			if count == 0 {
				count = 1
			}
			for i := 0; i < count; i++ {
				ids = append(ids, entry.ID)
			}
		}
		pools[pool.Name] = ids
	}
	return pools, nil
}

// BuildHand deals an opening hand from an owned pool: up to two unique supports and
// up to five other cards, each group shuffled, backfilled from pool ids not yet in the
// hand. A player who moves second also gets a Supply Crate.
func BuildHand(cat *Catalog, pool []string, movesSecond bool, r *rand.Rand) []string {
	var supports, combat []string
	for _, id := range pool {
		card, ok := cat.Lookup(id)
		if !ok || card.Token {
			continue
		}
		if card.IsSupport() {
			if !slices.Contains(supports, id) {
				supports = append(supports, id)
			}
		} else {
			combat = append(combat, id)
		}
	}
	shuffle(r, supports)
	shuffle(r, combat)

	hand := make([]string, 0, HandSupports+HandCombat+1)
	hand = append(hand, supports[:min(HandSupports, len(supports))]...)
	hand = append(hand, combat[:min(HandCombat, len(combat))]...)

	if need := HandSupports + HandCombat - len(hand); need > 0 {
		var remaining []string
		for _, id := range pool {
			card, ok := cat.Lookup(id)
			if ok && !card.Token && !slices.Contains(hand, id) {
				remaining = append(remaining, id)
			}
		}
		shuffle(r, remaining)
		hand = append(hand, remaining[:min(need, len(remaining))]...)
	}

	if movesSecond {
		hand = append(hand, CardSupplyCrate)
	}
	return hand
}

// BuildAutomatedHand deals the automated opponent's hand straight from the catalog:
// two unique supports and five other cards drawn with replacement, shuffled together.
func BuildAutomatedHand(cat *Catalog, movesSecond bool, r *rand.Rand) []string {
	supports := cat.Filter((*Card).IsSupport)
	combat := cat.Filter(func(c *Card) bool { return !c.IsSupport() })

	shuffle(r, supports)
	hand := slices.Clone(supports[:min(HandSupports, len(supports))])
	for i := 0; i < HandCombat && len(combat) > 0; i++ {
		hand = append(hand, combat[r.IntN(len(combat))])
	}
	shuffle(r, hand)

	if movesSecond {
		hand = append(hand, CardSupplyCrate)
	}
	return hand
}

func shuffle(r *rand.Rand, ids []string) {
	r.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
}
