package models

import (
	"time"

	"github.com/uptrace/bun"
)

type PassType string

const (
	PassEscape1to3  PassType = "escape_1_3"
	PassEscape4to6  PassType = "escape_4_6"
	PassEscape7to10 PassType = "escape_7_10"
	PassGame24h     PassType = "game_24h"
	PassGame14d     PassType = "game_14d"
	PassGame30dFree PassType = "game_30d_free"
	PassLegacyDay   PassType = "day"
	PassLegacyWknd  PassType = "weekend"
	PassLegacyYear  PassType = "annual"
)

type PassCategory string

const (
	CategoryEscape PassCategory = "escape"
	CategoryGame   PassCategory = "game"
	CategoryLegacy PassCategory = "legacy"
)

// UnlimitedEscapes is the display sentinel for legacy passes that never
// decrement an escape counter.
const UnlimitedEscapes = 999

type Pass struct {
	bun.BaseModel `bun:"table:user_passes,alias:up"`

	ID               string       `bun:"id,pk"`
	UserID           string       `bun:"user_id,notnull"`
	PassType         PassType     `bun:"pass_type,notnull"`
	PassCategory     PassCategory `bun:"pass_category,notnull"`
	PurchasedAt      time.Time    `bun:"purchased_at,notnull"`
	ActivatedAt      *time.Time   `bun:"activated_at"`
	ExpiresAt        time.Time    `bun:"expires_at,notnull"`
	IsActive         bool         `bun:"is_active,notnull,default:true"`
	EscapesRemaining int          `bun:"escapes_remaining,notnull,default:0"`
	EscapesTotal     int          `bun:"escapes_total,notnull,default:0"`
	PaymentIntentID  string       `bun:"payment_intent_id"`
	CreatedAt        time.Time    `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt        time.Time    `bun:"updated_at,notnull"`
}

// Category returns the category a pass type belongs to. The stored
// pass_category column is authoritative for legacy rows; this is the lookup
// used when creating new passes.
func (t PassType) Category() PassCategory {
	switch t {
	case PassEscape1to3, PassEscape4to6, PassEscape7to10:
		return CategoryEscape
	case PassGame24h, PassGame14d, PassGame30dFree:
		return CategoryGame
	default:
		return CategoryLegacy
	}
}

// Duration returns the entitlement window that starts at activation.
func (t PassType) Duration() time.Duration {
	days := 30
	switch t {
	case PassGame24h, PassLegacyDay:
		days = 1
	case PassLegacyWknd:
		days = 2
	case PassGame14d:
		days = 14
	case PassLegacyYear:
		days = 365
	}
	return time.Duration(days) * 24 * time.Hour
}

// EscapeCount returns the min/max escape units granted by an escape-bundle
// pass type. Non-escape types grant none.
func (t PassType) EscapeCount() (min, max int) {
	switch t {
	case PassEscape1to3:
		return 1, 3
	case PassEscape4to6:
		return 4, 6
	case PassEscape7to10:
		return 7, 10
	default:
		return 0, 0
	}
}

// PriceUSD is the list price charged at checkout.
func (t PassType) PriceUSD() float64 {
	switch t {
	case PassEscape1to3:
		return 20
	case PassEscape4to6:
		return 40
	case PassEscape7to10:
		return 60
	case PassGame24h:
		return 10
	case PassGame14d:
		return 20
	default:
		return 0
	}
}

// IsUnlimited reports whether the pass never consumes escape units.
func (p *Pass) IsUnlimited() bool {
	switch p.PassType {
	case PassLegacyDay, PassLegacyWknd, PassLegacyYear:
		return true
	}
	return false
}

// IsCurrent reports whether the pass is active and unexpired at now.
func (p *Pass) IsCurrent(now time.Time) bool {
	return p.IsActive && p.ExpiresAt.After(now)
}
