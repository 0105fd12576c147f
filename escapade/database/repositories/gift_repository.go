package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/escapadeapp/escapade/escapade/database/models"
	"github.com/uptrace/bun"
)

var (
	ErrGiftNotFound        = errors.New("gift code not found")
	ErrGiftNotPaid         = errors.New("gift has not been paid for")
	ErrGiftAlreadyRedeemed = errors.New("gift already redeemed")
)

type GiftRepository interface {
	Create(ctx context.Context, gift *models.GiftPass) error
	GetByCode(ctx context.Context, code string) (*models.GiftPass, error)
	MarkPaid(ctx context.Context, code, paymentIntentID string) error
	Redeem(ctx context.Context, code, userID string, now time.Time) (*models.GiftPass, error)
}

type giftRepository struct {
	db *bun.DB
}

func NewGiftRepository(db *bun.DB) GiftRepository {
	return &giftRepository{db: db}
}

func (r *giftRepository) Create(ctx context.Context, gift *models.GiftPass) error {
	gift.CreatedAt = time.Now()
	gift.UpdatedAt = time.Now()
	if gift.Status == "" {
		gift.Status = models.GiftPending
	}
	_, err := r.db.NewInsert().Model(gift).Exec(ctx)
	return err
}

func (r *giftRepository) GetByCode(ctx context.Context, code string) (*models.GiftPass, error) {
	gift := new(models.GiftPass)
	err := r.db.NewSelect().
		Model(gift).
		Where("gift_code = ?", code).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGiftNotFound
	}
	if err != nil {
		return nil, err
	}
	return gift, nil
}

func (r *giftRepository) MarkPaid(ctx context.Context, code, paymentIntentID string) error {
	result, err := r.db.NewUpdate().
		Model((*models.GiftPass)(nil)).
		Set("status = ?", models.GiftPaid).
		Set("payment_intent_id = ?", paymentIntentID).
		Set("updated_at = ?", time.Now()).
		Where("gift_code = ?", code).
		Where("status = ?", models.GiftPending).
		Exec(ctx)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		// Distinguish a missing code from a repeated webhook
		gift, lookupErr := r.GetByCode(ctx, code)
		if lookupErr != nil {
			return lookupErr
		}
		if gift.Status == models.GiftPaid && gift.PaymentIntentID == paymentIntentID {
			return nil
		}
		return ErrGiftAlreadyRedeemed
	}
	return nil
}

// Redeem claims the gift for userID. The status transition is guarded so a
// code shared between two people can only be claimed once.
func (r *giftRepository) Redeem(ctx context.Context, code, userID string, now time.Time) (*models.GiftPass, error) {
	result, err := r.db.NewUpdate().
		Model((*models.GiftPass)(nil)).
		Set("status = ?", models.GiftRedeemed).
		Set("redeemed_by = ?", userID).
		Set("redeemed_at = ?", now).
		Set("updated_at = ?", now).
		Where("gift_code = ?", code).
		Where("status = ?", models.GiftPaid).
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	if rowsAffected == 0 {
		gift, lookupErr := r.GetByCode(ctx, code)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if gift.Status == models.GiftRedeemed {
			return nil, ErrGiftAlreadyRedeemed
		}
		return nil, ErrGiftNotPaid
	}

	return r.GetByCode(ctx, code)
}
