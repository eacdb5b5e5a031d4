package game

// Card ids referenced by the rules.
const (
	CardSupplyCrate = "item_coin"
	CardPatton      = "legend_patton"
)

// --- Combat units ---

func RifleSquad() *Card {
	return &Card{
		ID: "inf_rifle", Name: "Rifle Squad", Category: CategoryInfantry,
		Cost: 1, Attack: 1, Defense: 2, Rarity: RarityCommon,
		Description: "Basic infantry unit.",
	}
}

func SniperElite() *Card {
	return &Card{
		ID: "inf_sniper", Name: "Sniper Elite", Category: CategoryInfantry,
		Cost: 2, Attack: 3, Defense: 1, Rarity: RarityUncommon,
		Description: "High damage, low defense.",
	}
}

func M4Sherman() *Card {
	return &Card{
		ID: "tank_sherman", Name: "M4 Sherman", Category: CategoryTank,
		Cost: 4, Attack: 3, Defense: 4, Rarity: RarityCommon,
		Description: "Reliable medium tank.",
	}
}

func PanzerIV() *Card {
	return &Card{
		ID: "tank_panzer", Name: "Panzer IV", Category: CategoryTank,
		Cost: 4, Attack: 4, Defense: 3, Rarity: RarityUncommon,
		Description: "Balanced german armor.",
	}
}

func TigerI() *Card {
	return &Card{
		ID: "tank_tiger", Name: "Tiger I", Category: CategoryTank,
		Cost: 6, Attack: 6, Defense: 6, Rarity: RarityRare,
		Description: "Heavy armor beast.",
	}
}

func Spitfire() *Card {
	return &Card{
		ID: "air_spitfire", Name: "Spitfire", Category: CategoryAir,
		Cost: 3, Attack: 4, Defense: 2, Rarity: RarityCommon,
		Description: "Fast interceptor.",
	}
}

func Mustang() *Card {
	return &Card{
		ID: "air_mustang", Name: "P-51 Mustang", Category: CategoryAir,
		Cost: 5, Attack: 5, Defense: 3, Rarity: RarityRare,
		Description: "Long range escort.",
	}
}

func GenPatton() *Card {
	return &Card{
		ID: CardPatton, Name: "Gen. Patton", Category: CategoryCommander,
		Cost: 7, Attack: 5, Defense: 8, Rarity: RarityLimited,
		Description: "LIMITED EDITION. Legendary commander.",
	}
}

func DesertFox() *Card {
	return &Card{
		ID: "legend_rommel", Name: "Desert Fox", Category: CategoryCommander,
		Cost: 7, Attack: 6, Defense: 7, Rarity: RarityLimited,
		Description: "LIMITED EDITION. Master tactician.",
	}
}

// --- Tactics ---

// AirStrike deals 2 damage to every enemy unit. Negated by an enemy Radar Station.
func AirStrike() *Card {
	return &Card{
		ID: "event_airstrike", Name: "Air Strike", Category: CategoryTactic,
		Cost: 3, Rarity: RarityUncommon,
		Description: "Deal 2 dmg to all enemy units.",
		Tactic:      AreaStrike{Damage: 2},
	}
}

// SupplyCrate is the token handed to the player who moves second.
func SupplyCrate() *Card {
	return &Card{
		ID: CardSupplyCrate, Name: "Supply Crate", Category: CategoryTactic,
		Cost: 0, Rarity: RarityCommon,
		Description: "+1 supply this turn.",
		Tactic:      Resupply{Amount: 1},
		Token:       true,
	}
}

// --- Supports ---

// ConcreteBunker guards its HQ and fortifies infantry.
func ConcreteBunker() *Card {
	return &Card{
		ID: "supp_bunker", Name: "Concrete Bunker", Category: CategorySupport,
		Cost: 3, Defense: 8, Rarity: RarityCommon,
		Description: "Fortifies a unit (+3 Max HP & Heal). Guards the HQ.",
		Support:     FortifyDefense{Amount: 3},
		Traits:      TraitGuard | TraitInfantryOnly,
	}
}

// FieldHospital heals a unit and restores 1 HQ health each time its owner passes the turn.
func FieldHospital() *Card {
	return &Card{
		ID: "supp_medic", Name: "Field Hospital", Category: CategorySupport,
		Cost: 2, Defense: 4, Rarity: RarityCommon,
		Description: "Heals a unit (+4 HP up to Max). Restores 1 HQ health per turn.",
		Support:     Heal{Amount: 4},
		HQRegen:     1,
	}
}

// SupplyTruck arms a unit and gives every friendly combat unit +1 ATK while deployed.
func SupplyTruck() *Card {
	return &Card{
		ID: "supp_supply", Name: "Supply Truck", Category: CategorySupport,
		Cost: 2, Defense: 3, Rarity: RarityUncommon,
		Description: "Resupplies ammo (+2 ATK). Friendly units +1 ATK.",
		Support:     ArmAttack{Amount: 2},
		Aura:        Aura{Attack: 1},
	}
}

// RadarStation sharpens a unit and intercepts enemy air strikes.
func RadarStation() *Card {
	return &Card{
		ID: "supp_radar", Name: "Radar Station", Category: CategorySupport,
		Cost: 4, Defense: 5, Rarity: RarityRare,
		Description: "Precision targeting (+1 ATK). Intercepts Air Strikes.",
		Support:     ArmAttack{Amount: 1},
		Traits:      TraitInterceptor,
	}
}

// ForwardHQ commands the whole side (+1/+1) and cannot be damaged by attacks.
func ForwardHQ() *Card {
	return &Card{
		ID: "supp_hq", Name: "Forward HQ", Category: CategorySupport,
		Cost: 6, Defense: 10, Rarity: RarityLimited,
		Description:  "Invulnerable. Commands (+1/+1).",
		Support:      Rally{Amount: 1},
		Aura:         Aura{Attack: 1, Defense: 1},
		Invulnerable: true,
	}
}

// QuartermasterCorps refills supply to the cap once per match.
func QuartermasterCorps() *Card {
	return &Card{
		ID: "supp_quartermaster", Name: "Quartermaster Corps", Category: CategorySupport,
		Cost: 3, Defense: 4, Rarity: RarityRare,
		Description: "Once per match: restore supplies to full.",
		Ability:     RestoreSupplyFull{},
	}
}

// allCards lists the constructors in catalog order.
var allCards = []func() *Card{
	RifleSquad,
	SniperElite,
	M4Sherman,
	PanzerIV,
	TigerI,
	Spitfire,
	Mustang,
	AirStrike,
	GenPatton,
	DesertFox,
	ConcreteBunker,
	FieldHospital,
	SupplyTruck,
	RadarStation,
	ForwardHQ,
	QuartermasterCorps,
	SupplyCrate,
}
