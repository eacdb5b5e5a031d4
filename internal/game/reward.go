package game

import "math/rand/v2"

// PattonChance is the probability that a win reward is upgraded to Gen. Patton.
const PattonChance = 0.05

// Reward is what a human player receives for winning a match.
type Reward struct {
	Credits int    `json:"credits"`
	CardID  string `json:"cardId"`
}

// RollReward picks a random collectible card, upgraded to Gen. Patton with
// probability PattonChance.
func RollReward(cat *Catalog, r *rand.Rand) Reward {
	pool := cat.Collectible()
	rw := Reward{Credits: RewardCredits}
	if len(pool) > 0 {
		rw.CardID = pool[r.IntN(len(pool))]
	}
	if _, ok := cat.Lookup(CardPatton); ok && r.Float64() < PattonChance {
		rw.CardID = CardPatton
	}
	return rw
}
