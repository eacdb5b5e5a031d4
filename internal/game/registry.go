package game

import (
	"fmt"
	"slices"
)

// Aura is a passive side-wide stat bonus granted while the source unit is alive.
type Aura struct {
	Attack  int
	Defense int
}

// Card is an immutable catalog entry.
type Card struct {
	ID          string
	Name        string
	Category    Category
	Cost        int
	Attack      int
	Defense     int
	Rarity      Rarity
	Description string

	Support SupportEffect // nil when the card has no support action
	Ability ActiveAbility // nil when the card has no active ability
	Tactic  TacticEffect  // set for tactic cards only

	Invulnerable bool
	Token        bool // never granted as a reward and never part of an owned pool
	Aura         Aura
	Traits       Trait
	HQRegen      int // HQ health restored per copy when the owner passes the turn
}

func (c *Card) IsSupport() bool {
	return c.Category == CategorySupport
}

func (c *Card) String() string {
	if c.Category == CategoryTactic {
		return fmt.Sprintf("%s [%d] (%s)", c.Name, c.Cost, c.Description)
	}
	return fmt.Sprintf("%s [%d] %d/%d", c.Name, c.Cost, c.Attack, c.Defense)
}

// Catalog is the read-only card database, built once and passed explicitly.
type Catalog struct {
	cards map[string]*Card
	order []string
}

// NewCatalog builds the standard catalog.
func NewCatalog() *Catalog {
	return NewCatalogFrom(allCards...)
}

// NewCatalogFrom builds a catalog from card constructors. Later duplicates replace earlier ones.
func NewCatalogFrom(ctors ...func() *Card) *Catalog {
	c := &Catalog{cards: make(map[string]*Card, len(ctors))}
	for _, ctor := range ctors {
		card := ctor()
		if _, dup := c.cards[card.ID]; !dup {
			c.order = append(c.order, card.ID)
		}
		c.cards[card.ID] = card
	}
	return c
}

// Lookup returns the card for an id.
func (c *Catalog) Lookup(id string) (*Card, bool) {
	card, ok := c.cards[id]
	return card, ok
}

// MustLookup returns the card for an id or panics. For ids known to be in the catalog.
func (c *Catalog) MustLookup(id string) *Card {
	card, ok := c.cards[id]
	if !ok {
		panic(fmt.Sprintf("unknown card: %q", id))
	}
	return card
}

// Name returns the display name of a card id, falling back to the id itself.
func (c *Catalog) Name(id string) string {
	if card, ok := c.cards[id]; ok {
		return card.Name
	}
	return id
}

// IDs returns every card id in catalog order.
func (c *Catalog) IDs() []string {
	return slices.Clone(c.order)
}

// Cards returns every card in catalog order.
func (c *Catalog) Cards() []*Card {
	out := make([]*Card, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.cards[id])
	}
	return out
}

// Collectible returns the ids of all non-token cards, in catalog order.
func (c *Catalog) Collectible() []string {
	var out []string
	for _, id := range c.order {
		if !c.cards[id].Token {
			out = append(out, id)
		}
	}
	return out
}

// Filter returns the ids of collectible cards matching pred, in catalog order.
func (c *Catalog) Filter(pred func(*Card) bool) []string {
	var out []string
	for _, id := range c.order {
		card := c.cards[id]
		if !card.Token && pred(card) {
			out = append(out, id)
		}
	}
	return out
}
