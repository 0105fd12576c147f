package models

import (
	"time"

	"github.com/uptrace/bun"
)

type IntensityLevel string

const (
	IntensityMild  IntensityLevel = "mild"
	IntensitySpicy IntensityLevel = "spicy"
	IntensityXXX   IntensityLevel = "xxx"
)

// Adventure is a fixed itinerary of ordered stops. Content rows are seeded at
// startup and never user-owned.
type Adventure struct {
	bun.BaseModel `bun:"table:adventures,alias:a"`

	ID          string         `bun:"id,pk"`
	Name        string         `bun:"name,notnull"`
	Description string         `bun:"description"`
	Intensity   IntensityLevel `bun:"intensity,notnull"`
	Duration    string         `bun:"duration"`
	Reward      string         `bun:"reward"`
	CreatedAt   time.Time      `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt   time.Time      `bun:"updated_at,notnull"`

	Stops []*AdventureStop `bun:"rel:has-many,join:id=adventure_id"`
}

// AdventureStop is one location in an adventure. Per-user revealed/completed
// state lives in GameProgress, not here.
type AdventureStop struct {
	bun.BaseModel `bun:"table:adventure_stops,alias:ast"`

	ID          string    `bun:"id,pk"`
	AdventureID string    `bun:"adventure_id,notnull"`
	StopNumber  int       `bun:"stop_number,notnull"`
	Name        string    `bun:"name,notnull"`
	Address     string    `bun:"address"`
	Clue        string    `bun:"clue"`
	Hint        string    `bun:"hint"`
	Challenge   string    `bun:"challenge"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,notnull"`
}

type GameCardType string

const (
	CardTruth GameCardType = "truth"
	CardDare  GameCardType = "dare"
	CardNever GameCardType = "never"
)

// GameCard is one prompt card for the party-game decks.
type GameCard struct {
	bun.BaseModel `bun:"table:game_cards,alias:gc"`

	ID        string         `bun:"id,pk"`
	CardType  GameCardType   `bun:"card_type,notnull"`
	Content   string         `bun:"content,notnull"`
	Intensity IntensityLevel `bun:"intensity,notnull"`
	Category  string         `bun:"category"`
	CreatedAt time.Time      `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time      `bun:"updated_at,notnull"`
}
