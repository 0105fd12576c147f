package rewards

// RewardKind drives what redeeming an item actually does.
type RewardKind string

const (
	KindCardPack  RewardKind = "card_pack"
	KindDateIdeas RewardKind = "date_ideas"
	KindTitle     RewardKind = "title"
	KindBadge     RewardKind = "badge"
	KindPerk      RewardKind = "perk"
)

// CatalogItem is one redeemable entry in the rewards store.
type CatalogItem struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Kind        RewardKind `json:"kind"`
	Cost        int        `json:"cost"`
	// Value carries the kind-specific payload: the title text, badge id or
	// unlocked content key.
	Value string `json:"value,omitempty"`
}

// Catalog is the fixed rewards store, cheapest first within each kind.
var Catalog = []CatalogItem{
	{
		ID:          "flame_badge",
		Name:        "Flame Badge",
		Description: "Show off your spark on your couple profile",
		Kind:        KindBadge,
		Cost:        100,
		Value:       "flame",
	},
	{
		ID:          "romantic_date_ideas",
		Name:        "Romantic Date Ideas",
		Description: "A curated pack of 20 romantic date night ideas",
		Kind:        KindDateIdeas,
		Cost:        150,
		Value:       "romantic",
	},
	{
		ID:          "beach_date_ideas",
		Name:        "Beach Date Ideas",
		Description: "Sun, sand and 15 beach date plans",
		Kind:        KindDateIdeas,
		Cost:        175,
		Value:       "beach",
	},
	{
		ID:          "spicy_card_pack",
		Name:        "Spicy Card Pack",
		Description: "Unlock the extra-spicy truth and dare deck",
		Kind:        KindCardPack,
		Cost:        200,
		Value:       "spicy_extra",
	},
	{
		ID:          "premium_escape_hints",
		Name:        "Premium Escape Hints",
		Description: "Detailed hints for every escape adventure stop",
		Kind:        KindPerk,
		Cost:        250,
		Value:       "premium_hints",
	},
	{
		ID:          "adventure_lovers_title",
		Name:        "Adventure Lovers",
		Description: "Wear the Adventure Lovers title",
		Kind:        KindTitle,
		Cost:        300,
		Value:       "Adventure Lovers",
	},
	{
		ID:          "midnight_card_pack",
		Name:        "Midnight Card Pack",
		Description: "After-dark deck for the bold",
		Kind:        KindCardPack,
		Cost:        350,
		Value:       "midnight",
	},
	{
		ID:          "diamond_badge",
		Name:        "Diamond Badge",
		Description: "The rarest badge in the store",
		Kind:        KindBadge,
		Cost:        500,
		Value:       "diamond",
	},
	{
		ID:          "soulmates_title",
		Name:        "Soulmates",
		Description: "The ultimate couple title",
		Kind:        KindTitle,
		Cost:        750,
		Value:       "Soulmates",
	},
}

// FindCatalogItem looks an item up by id.
func FindCatalogItem(id string) (CatalogItem, bool) {
	for _, item := range Catalog {
		if item.ID == id {
			return item, true
		}
	}
	return CatalogItem{}, false
}

// ActionPoints maps earnable actions to their base point values.
var ActionPoints = map[string]int{
	"adventure_complete": 100,
	"photo_upload":       25,
	"stop_complete":      20,
	"challenge_complete": 30,
}
