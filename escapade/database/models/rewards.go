package models

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"
)

// CoupleRewards is the per-user points ledger. TotalPoints is the spendable
// balance; LifetimePoints never decreases.
type CoupleRewards struct {
	bun.BaseModel `bun:"table:couple_rewards,alias:cr"`

	ID             int64     `bun:"id,pk,autoincrement"`
	UserID         string    `bun:"user_id,notnull,unique"`
	TotalPoints    int       `bun:"total_points,notnull,default:0"`
	LifetimePoints int       `bun:"lifetime_points,notnull,default:0"`
	CoupleTitle    string    `bun:"couple_title"`
	CoupleBadge    string    `bun:"couple_badge"`
	CreatedAt      time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt      time.Time `bun:"updated_at,notnull"`
}

// PointsHistoryEntry is append-only; the client never mutates or deletes
// rows.
type PointsHistoryEntry struct {
	bun.BaseModel `bun:"table:points_history,alias:ph"`

	ID          int64     `bun:"id,pk,autoincrement"`
	UserID      string    `bun:"user_id,notnull"`
	Points      int       `bun:"points,notnull"`
	ActionType  string    `bun:"action_type,notnull"`
	Description string    `bun:"description"`
	Multiplier  float64   `bun:"multiplier,notnull,default:1"`
	AdventureID string    `bun:"adventure_id"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

type SpecialDateType string

const (
	DateAnniversary SpecialDateType = "anniversary"
	DateBirthday    SpecialDateType = "birthday"
	DateCustom      SpecialDateType = "custom"
)

// Multiplier returns the point multiplier granted when playing on the
// configured date.
func (t SpecialDateType) Multiplier() float64 {
	switch t {
	case DateAnniversary:
		return 3.0
	case DateBirthday:
		return 2.0
	default:
		return 1.5
	}
}

// SpecialDate is a user-configured bonus date. One row per date type.
type SpecialDate struct {
	bun.BaseModel `bun:"table:special_dates,alias:sd"`

	ID        int64           `bun:"id,pk,autoincrement"`
	UserID    string          `bun:"user_id,notnull"`
	DateType  SpecialDateType `bun:"date_type,notnull"`
	DateValue time.Time       `bun:"date_value,notnull"`
	Label     string          `bun:"label"`
	CreatedAt time.Time       `bun:"created_at,notnull,default:current_timestamp"`
}

// RedeemedReward records a store redemption and the points spent on it.
type RedeemedReward struct {
	bun.BaseModel `bun:"table:redeemed_rewards,alias:rr"`

	ID          int64           `bun:"id,pk,autoincrement"`
	UserID      string          `bun:"user_id,notnull"`
	RewardID    string          `bun:"reward_id,notnull"`
	RewardName  string          `bun:"reward_name"`
	PointsSpent int             `bun:"points_spent,notnull"`
	RewardData  json.RawMessage `bun:"reward_data,type:jsonb"`
	RedeemedAt  time.Time       `bun:"redeemed_at,notnull,default:current_timestamp"`
}

type GiftStatus string

const (
	GiftPending  GiftStatus = "pending"
	GiftPaid     GiftStatus = "paid"
	GiftRedeemed GiftStatus = "redeemed"
)

// GiftPass is a purchasable gift entitlement redeemed by code. The code is
// single-use; redemption creates a real Pass for the redeemer.
type GiftPass struct {
	bun.BaseModel `bun:"table:gift_passes,alias:gpp"`

	ID              string     `bun:"id,pk"`
	GiftCode        string     `bun:"gift_code,notnull,unique"`
	PassType        PassType   `bun:"pass_type,notnull"`
	PurchaserEmail  string     `bun:"purchaser_email"`
	RecipientName   string     `bun:"recipient_name"`
	Message         string     `bun:"message"`
	Status          GiftStatus `bun:"status,notnull,default:'pending'"`
	PaymentIntentID string     `bun:"payment_intent_id"`
	RedeemedBy      string     `bun:"redeemed_by"`
	RedeemedAt      *time.Time `bun:"redeemed_at"`
	CreatedAt       time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt       time.Time  `bun:"updated_at,notnull"`
}
