package game

import "slices"

// BoardAura sums the auras of every live unit on a board.
func BoardAura(cat *Catalog, board []Unit) Aura {
	var total Aura
	for i := range board {
		if !board[i].Alive() {
			continue
		}
		card, ok := cat.Lookup(board[i].CardID)
		if !ok {
			continue
		}
		total.Attack += card.Aura.Attack
		total.Defense += card.Aura.Defense
	}
	return total
}

// BuffBoard returns a copy of board with side-wide auras applied. Support units never
// receive the attack bonus; defense bonuses raise both maximum and current hit points.
// The input is not modified and the result depends only on the input.
func BuffBoard(cat *Catalog, board []Unit) []Unit {
	out := slices.Clone(board)
	aura := BoardAura(cat, board)
	if aura == (Aura{}) {
		return out
	}
	for i := range out {
		card, ok := cat.Lookup(out[i].CardID)
		if !ok || !card.IsSupport() {
			out[i].Attack += aura.Attack
		}
		out[i].Defense += aura.Defense
		out[i].HP += aura.Defense
	}
	return out
}

// buffedUnit returns the buffed view of board[idx].
func buffedUnit(cat *Catalog, board []Unit, idx int) Unit {
	return BuffBoard(cat, board)[idx]
}

// markCasualties tags every live unit whose buffed HP is at or below zero. Tagging an
// aura source can drop others below zero, so it repeats until nothing changes.
// Returns the instance ids tagged in this call.
func markCasualties(cat *Catalog, board []Unit) []string {
	var tagged []string
	for {
		buffed := BuffBoard(cat, board)
		changed := false
		for i := range board {
			if board[i].Alive() && buffed[i].HP <= 0 {
				board[i].PendingRemoval = true
				tagged = append(tagged, board[i].InstanceID)
				changed = true
			}
		}
		if !changed {
			return tagged
		}
	}
}

// reapBoard drops tagged units, keeping order.
func reapBoard(board []Unit) []Unit {
	return slices.DeleteFunc(board, func(u Unit) bool { return u.PendingRemoval })
}

// firstWithTrait returns the index of the first live unit carrying trait, or -1.
func firstWithTrait(cat *Catalog, board []Unit, trait Trait) int {
	for i := range board {
		if !board[i].Alive() {
			continue
		}
		if card, ok := cat.Lookup(board[i].CardID); ok && card.Traits.Has(trait) {
			return i
		}
	}
	return -1
}
