package game

// CardView describes a card in hand.
type CardView struct {
	Index       int      `json:"index"`
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Category    Category `json:"category"`
	Cost        int      `json:"cost"`
	Attack      int      `json:"atk"`
	Defense     int      `json:"def"`
	Description string   `json:"desc"`
	Ability     string   `json:"activeAbility,omitempty"`
	Support     string   `json:"supportEffect,omitempty"`
}

// UnitView describes a deployed unit with auras applied.
type UnitView struct {
	Index        int      `json:"index"`
	InstanceID   string   `json:"instanceId"`
	CardID       string   `json:"id"`
	Name         string   `json:"name"`
	Category     Category `json:"category"`
	Attack       int      `json:"atk"`
	HP           int      `json:"currentHp"`
	MaxHP        int      `json:"maxHp"`
	CanAttack    bool     `json:"canAttack"`
	Depleted     bool     `json:"isDepleted,omitempty"`
	Ability      string   `json:"activeAbility,omitempty"`
	Support      string   `json:"supportEffect,omitempty"`
	Guard        bool     `json:"isTaunt,omitempty"`
	Invulnerable bool     `json:"invulnerable,omitempty"`
	Destroyed    bool     `json:"destroyed,omitempty"`
}

// View is a match snapshot seen from one seat. Opponent hand contents are hidden.
type View struct {
	MatchID           string     `json:"matchId"`
	Side              Side       `json:"side"`
	Status            Status     `json:"status"`
	IsYourTurn        bool       `json:"isYourTurn"`
	TurnCount         int        `json:"turnCount"`
	SupplyCap         int        `json:"supplyCap"`
	HP                int        `json:"hp"`
	Supply            int        `json:"supply"`
	OpponentName      string     `json:"opponentName"`
	OpponentHP        int        `json:"opponentHp"`
	OpponentSupply    int        `json:"opponentSupply"`
	OpponentHandCount int        `json:"opponentHandCount"`
	Hand              []CardView `json:"hand"`
	Board             []UnitView `json:"board"`
	OpponentBoard     []UnitView `json:"opponentBoard"`
	LastAction        string     `json:"lastAction,omitempty"`
	Winner            Side       `json:"winner,omitempty"`
}

// NewView builds the perspective of side over m.
func NewView(cat *Catalog, m *MatchState, side Side) View {
	mine := m.Side(side)
	theirs := m.Side(side.Opponent())
	v := View{
		MatchID:           m.ID,
		Side:              side,
		Status:            m.Status,
		IsYourTurn:        m.Status == StatusActive && m.Turn == side,
		TurnCount:         m.TurnCount,
		SupplyCap:         m.SupplyCap,
		HP:                mine.HP,
		Supply:            mine.Supply,
		OpponentName:      m.PlayerName(side.Opponent()),
		OpponentHP:        theirs.HP,
		OpponentSupply:    theirs.Supply,
		OpponentHandCount: len(theirs.Hand),
		LastAction:        m.LastAction,
		Winner:            m.WinnerSide,
	}
	for i, id := range mine.Hand {
		v.Hand = append(v.Hand, newCardView(cat, i, id))
	}
	v.Board = unitViews(cat, mine.Board)
	v.OpponentBoard = unitViews(cat, theirs.Board)
	return v
}

func newCardView(cat *Catalog, idx int, id string) CardView {
	cv := CardView{Index: idx, ID: id, Name: id}
	card, ok := cat.Lookup(id)
	if !ok {
		return cv
	}
	cv.Name = card.Name
	cv.Category = card.Category
	cv.Cost = card.Cost
	cv.Attack = card.Attack
	cv.Defense = card.Defense
	cv.Description = card.Description
	if card.Ability != nil {
		cv.Ability = card.Ability.String()
	}
	if card.Support != nil {
		cv.Support = card.Support.String()
	}
	return cv
}

func unitViews(cat *Catalog, board []Unit) []UnitView {
	buffed := BuffBoard(cat, board)
	out := make([]UnitView, 0, len(board))
	for i, u := range buffed {
		uv := UnitView{
			Index:      i,
			InstanceID: u.InstanceID,
			CardID:     u.CardID,
			Name:       u.CardID,
			Attack:     u.Attack,
			HP:         u.HP,
			MaxHP:      u.Defense,
			CanAttack:  u.CanAct && u.Alive(),
			Destroyed:  !u.Alive(),
		}
		if card, ok := cat.Lookup(u.CardID); ok {
			uv.Name = card.Name
			uv.Category = card.Category
			uv.Guard = card.Traits.Has(TraitGuard)
			uv.Invulnerable = card.Invulnerable
			if card.Ability != nil {
				uv.Ability = card.Ability.String()
			}
			if card.Support != nil {
				uv.Support = card.Support.String()
			}
			if card.IsSupport() {
				uv.CanAttack = false
				uv.Depleted = u.AbilityConsumed || !u.CanAct
			}
		}
		out = append(out, uv)
	}
	return out
}
