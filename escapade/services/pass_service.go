package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/escapadeapp/escapade/escapade/database/models"
	"github.com/escapadeapp/escapade/escapade/database/repositories"
	"github.com/escapadeapp/escapade/escapade/entitlement"
	"github.com/google/uuid"
)

var ErrUnknownPassType = errors.New("unknown pass type")

// PassService handles pass purchases, gift codes and access checks.
type PassService struct {
	passes repositories.PassRepository
	gifts  repositories.GiftRepository
}

func NewPassService(passes repositories.PassRepository, gifts repositories.GiftRepository) *PassService {
	return &PassService{passes: passes, gifts: gifts}
}

func validPassType(t models.PassType) bool {
	switch t {
	case models.PassEscape1to3, models.PassEscape4to6, models.PassEscape7to10,
		models.PassGame24h, models.PassGame14d, models.PassGame30dFree,
		models.PassLegacyDay, models.PassLegacyWknd, models.PassLegacyYear:
		return true
	}
	return false
}

// ActivatePass turns a completed payment into a pass. Replayed webhooks for
// the same payment intent return the already-created pass.
func (s *PassService) ActivatePass(ctx context.Context, userID string, passType models.PassType, paymentIntentID string) (*models.Pass, error) {
	if !validPassType(passType) {
		return nil, ErrUnknownPassType
	}

	if paymentIntentID != "" {
		existing, err := s.passes.GetByPaymentIntent(ctx, paymentIntentID)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, repositories.ErrPassNotFound) {
			return nil, err
		}
	}

	now := time.Now()
	_, maxEscapes := passType.EscapeCount()

	pass := &models.Pass{
		ID:               uuid.NewString(),
		UserID:           userID,
		PassType:         passType,
		PassCategory:     passType.Category(),
		PurchasedAt:      now,
		ExpiresAt:        now.Add(passType.Duration()),
		IsActive:         true,
		EscapesRemaining: maxEscapes,
		EscapesTotal:     maxEscapes,
		PaymentIntentID:  paymentIntentID,
	}

	// Game and legacy passes have nothing to anchor later, their window
	// starts at purchase. Escape bundles stay unactivated until first use.
	if passType.Category() != models.CategoryEscape {
		pass.ActivatedAt = &now
	}

	if err := s.passes.Create(ctx, pass); err != nil {
		return nil, fmt.Errorf("failed to create pass: %w", err)
	}

	slog.Info("Pass activated",
		slog.String("type", "system"),
		slog.String("user_id", userID),
		slog.String("pass_type", string(passType)),
		slog.String("payment_intent", paymentIntentID))

	return pass, nil
}

// PassCatalogEntry describes a purchasable pass type.
type PassCatalogEntry struct {
	PassType     models.PassType     `json:"passType"`
	Category     models.PassCategory `json:"category"`
	PriceUSD     float64             `json:"priceUsd"`
	DurationDays int                 `json:"durationDays"`
	MinEscapes   int                 `json:"minEscapes,omitempty"`
	MaxEscapes   int                 `json:"maxEscapes,omitempty"`
}

// Catalog lists the purchasable pass types. Legacy types are still honored
// but no longer sold, so they are omitted.
func (s *PassService) Catalog() []PassCatalogEntry {
	types := []models.PassType{
		models.PassEscape1to3, models.PassEscape4to6, models.PassEscape7to10,
		models.PassGame24h, models.PassGame14d, models.PassGame30dFree,
	}

	entries := make([]PassCatalogEntry, 0, len(types))
	for _, t := range types {
		minEscapes, maxEscapes := t.EscapeCount()
		entries = append(entries, PassCatalogEntry{
			PassType:     t,
			Category:     t.Category(),
			PriceUSD:     t.PriceUSD(),
			DurationDays: int(t.Duration().Hours() / 24),
			MinEscapes:   minEscapes,
			MaxEscapes:   maxEscapes,
		})
	}
	return entries
}

// CurrentPasses lists the user's active, unexpired passes.
func (s *PassService) CurrentPasses(ctx context.Context, userID string) ([]*models.Pass, error) {
	return s.passes.GetCurrentPasses(ctx, userID, time.Now())
}

// GetAccess resolves the user's current entitlements.
func (s *PassService) GetAccess(ctx context.Context, userID string) (entitlement.Access, []*models.Pass, error) {
	passes, err := s.passes.GetUserPasses(ctx, userID)
	if err != nil {
		return entitlement.Access{}, nil, err
	}
	return entitlement.Resolve(passes, time.Now()), passes, nil
}

// CreateGift creates a pending gift purchase and returns its code.
func (s *PassService) CreateGift(ctx context.Context, passType models.PassType, purchaserEmail, recipientName, message string) (*models.GiftPass, error) {
	if !validPassType(passType) {
		return nil, ErrUnknownPassType
	}

	gift := &models.GiftPass{
		ID:             uuid.NewString(),
		GiftCode:       newGiftCode(),
		PassType:       passType,
		PurchaserEmail: purchaserEmail,
		RecipientName:  recipientName,
		Message:        message,
		Status:         models.GiftPending,
	}

	if err := s.gifts.Create(ctx, gift); err != nil {
		return nil, fmt.Errorf("failed to create gift: %w", err)
	}
	return gift, nil
}

// MarkGiftPaid is called from the payment webhook.
func (s *PassService) MarkGiftPaid(ctx context.Context, code, paymentIntentID string) error {
	return s.gifts.MarkPaid(ctx, code, paymentIntentID)
}

// CheckGiftCode reports whether a code exists and can still be redeemed.
func (s *PassService) CheckGiftCode(ctx context.Context, code string) (*models.GiftPass, error) {
	return s.gifts.GetByCode(ctx, normalizeGiftCode(code))
}

// RedeemGift claims a paid gift code and issues the pass to the redeemer.
func (s *PassService) RedeemGift(ctx context.Context, code, userID string) (*models.Pass, error) {
	now := time.Now()

	gift, err := s.gifts.Redeem(ctx, normalizeGiftCode(code), userID, now)
	if err != nil {
		return nil, err
	}

	_, maxEscapes := gift.PassType.EscapeCount()
	pass := &models.Pass{
		ID:               uuid.NewString(),
		UserID:           userID,
		PassType:         gift.PassType,
		PassCategory:     gift.PassType.Category(),
		PurchasedAt:      now,
		ExpiresAt:        now.Add(gift.PassType.Duration()),
		IsActive:         true,
		EscapesRemaining: maxEscapes,
		EscapesTotal:     maxEscapes,
		PaymentIntentID:  gift.PaymentIntentID,
	}
	if gift.PassType.Category() != models.CategoryEscape {
		pass.ActivatedAt = &now
	}

	if err := s.passes.Create(ctx, pass); err != nil {
		return nil, fmt.Errorf("failed to issue gifted pass: %w", err)
	}

	slog.Info("Gift redeemed",
		slog.String("type", "system"),
		slog.String("user_id", userID),
		slog.String("pass_type", string(gift.PassType)))

	return pass, nil
}

// newGiftCode generates a short human-typable code like LOVE-7F3A-9B2C.
func newGiftCode() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("LOVE-%s-%s", raw[:4], raw[4:8])
}

func normalizeGiftCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
