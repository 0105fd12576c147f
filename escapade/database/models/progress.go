package models

import (
	"time"

	"github.com/uptrace/bun"
)

// GameProgress is the per-user progression snapshot. The client always sends
// its complete current state, so the upsert is a full-row last-write-wins
// merge keyed by user_id.
type GameProgress struct {
	bun.BaseModel `bun:"table:game_progress,alias:gp"`

	ID                   int64     `bun:"id,pk,autoincrement"`
	UserID               string    `bun:"user_id,notnull,unique"`
	CompletedLocations   []string  `bun:"completed_locations,type:jsonb"`
	RevealedLocations    []string  `bun:"revealed_locations,type:jsonb"`
	TruthOrDarePlayed    int       `bun:"truth_or_dare_played,notnull,default:0"`
	NeverHaveIEverPlayed int       `bun:"never_have_i_ever_played,notnull,default:0"`
	EscapesCompleted     int       `bun:"escapes_completed,notnull,default:0"`
	TotalScore           int       `bun:"total_score,notnull,default:0"`
	LastPlayedAt         time.Time `bun:"last_played_at"`
	CreatedAt            time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt            time.Time `bun:"updated_at,notnull"`
}

// Favorite marks a single card saved by a user.
type Favorite struct {
	bun.BaseModel `bun:"table:favorites,alias:f"`

	ID        int64     `bun:"id,pk,autoincrement"`
	UserID    string    `bun:"user_id,notnull"`
	CardID    string    `bun:"card_id,notnull"`
	CardType  string    `bun:"card_type"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// Achievement is an unlocked achievement row. The (user_id, achievement_id)
// pair is unique so re-awarding is a conflict-ignored no-op.
type Achievement struct {
	bun.BaseModel `bun:"table:achievements,alias:ach"`

	ID            int64     `bun:"id,pk,autoincrement"`
	UserID        string    `bun:"user_id,notnull"`
	AchievementID string    `bun:"achievement_id,notnull"`
	UnlockedAt    time.Time `bun:"unlocked_at,notnull,default:current_timestamp"`
}

// PhotoMemory records one uploaded photo for a completed stop.
type PhotoMemory struct {
	bun.BaseModel `bun:"table:photo_memories,alias:pm"`

	ID            string    `bun:"id,pk"`
	UserID        string    `bun:"user_id,notnull"`
	AdventureID   string    `bun:"adventure_id,notnull"`
	AdventureName string    `bun:"adventure_name"`
	StopID        string    `bun:"stop_id,notnull"`
	StopName      string    `bun:"stop_name"`
	StorageKey    string    `bun:"storage_key,notnull"`
	Caption       string    `bun:"caption"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
