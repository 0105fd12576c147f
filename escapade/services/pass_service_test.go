package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/escapadeapp/escapade/escapade/database/models"
	"github.com/escapadeapp/escapade/escapade/database/repositories"
)

type memPassRepo struct {
	passes map[string]*models.Pass
}

func newMemPassRepo() *memPassRepo {
	return &memPassRepo{passes: make(map[string]*models.Pass)}
}

func (r *memPassRepo) Create(_ context.Context, pass *models.Pass) error {
	r.passes[pass.ID] = pass
	return nil
}

func (r *memPassRepo) GetByID(_ context.Context, id string) (*models.Pass, error) {
	pass, ok := r.passes[id]
	if !ok {
		return nil, repositories.ErrPassNotFound
	}
	return pass, nil
}

func (r *memPassRepo) GetByPaymentIntent(_ context.Context, paymentIntentID string) (*models.Pass, error) {
	for _, pass := range r.passes {
		if pass.PaymentIntentID == paymentIntentID {
			return pass, nil
		}
	}
	return nil, repositories.ErrPassNotFound
}

func (r *memPassRepo) GetUserPasses(_ context.Context, userID string) ([]*models.Pass, error) {
	var out []*models.Pass
	for _, pass := range r.passes {
		if pass.UserID == userID {
			out = append(out, pass)
		}
	}
	return out, nil
}

func (r *memPassRepo) GetCurrentPasses(ctx context.Context, userID string, now time.Time) ([]*models.Pass, error) {
	all, _ := r.GetUserPasses(ctx, userID)
	var out []*models.Pass
	for _, pass := range all {
		if pass.IsCurrent(now) {
			out = append(out, pass)
		}
	}
	return out, nil
}

func (r *memPassRepo) ConsumeEscapeUnit(_ context.Context, passID string, _ time.Time) (*models.Pass, error) {
	pass, ok := r.passes[passID]
	if !ok {
		return nil, repositories.ErrPassNotFound
	}
	if !pass.IsUnlimited() {
		if pass.EscapesRemaining <= 0 {
			return nil, repositories.ErrNoEscapesRemaining
		}
		pass.EscapesRemaining--
	}
	return pass, nil
}

func (r *memPassRepo) DeactivateExpired(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func (r *memPassRepo) StartCleanupRoutine(_ context.Context) {}

type memGiftRepo struct {
	gifts map[string]*models.GiftPass
}

func newMemGiftRepo() *memGiftRepo {
	return &memGiftRepo{gifts: make(map[string]*models.GiftPass)}
}

func (r *memGiftRepo) Create(_ context.Context, gift *models.GiftPass) error {
	if gift.Status == "" {
		gift.Status = models.GiftPending
	}
	r.gifts[gift.GiftCode] = gift
	return nil
}

func (r *memGiftRepo) GetByCode(_ context.Context, code string) (*models.GiftPass, error) {
	gift, ok := r.gifts[code]
	if !ok {
		return nil, repositories.ErrGiftNotFound
	}
	return gift, nil
}

func (r *memGiftRepo) MarkPaid(_ context.Context, code, paymentIntentID string) error {
	gift, ok := r.gifts[code]
	if !ok {
		return repositories.ErrGiftNotFound
	}
	if gift.Status == models.GiftPaid && gift.PaymentIntentID == paymentIntentID {
		return nil
	}
	if gift.Status != models.GiftPending {
		return repositories.ErrGiftAlreadyRedeemed
	}
	gift.Status = models.GiftPaid
	gift.PaymentIntentID = paymentIntentID
	return nil
}

func (r *memGiftRepo) Redeem(_ context.Context, code, userID string, now time.Time) (*models.GiftPass, error) {
	gift, ok := r.gifts[code]
	if !ok {
		return nil, repositories.ErrGiftNotFound
	}
	switch gift.Status {
	case models.GiftRedeemed:
		return nil, repositories.ErrGiftAlreadyRedeemed
	case models.GiftPending:
		return nil, repositories.ErrGiftNotPaid
	}
	gift.Status = models.GiftRedeemed
	gift.RedeemedBy = userID
	gift.RedeemedAt = &now
	return gift, nil
}

func TestPassService_ActivatePass(t *testing.T) {
	ctx := context.Background()
	svc := NewPassService(newMemPassRepo(), newMemGiftRepo())

	t.Run("unknown pass type", func(t *testing.T) {
		if _, err := svc.ActivatePass(ctx, "user-1", "mystery", "pi_1"); !errors.Is(err, ErrUnknownPassType) {
			t.Errorf("ActivatePass() error = %v, want ErrUnknownPassType", err)
		}
	})

	t.Run("escape bundle stays unactivated", func(t *testing.T) {
		pass, err := svc.ActivatePass(ctx, "user-1", models.PassEscape4to6, "pi_2")
		if err != nil {
			t.Fatalf("ActivatePass() error = %v", err)
		}
		if pass.ActivatedAt != nil {
			t.Error("ActivatePass() escape bundle should not be activated at purchase")
		}
		if pass.EscapesRemaining != 6 || pass.EscapesTotal != 6 {
			t.Errorf("ActivatePass() escapes = %d/%d, want 6/6", pass.EscapesRemaining, pass.EscapesTotal)
		}
	})

	t.Run("game pass activates at purchase", func(t *testing.T) {
		pass, err := svc.ActivatePass(ctx, "user-1", models.PassGame24h, "pi_3")
		if err != nil {
			t.Fatalf("ActivatePass() error = %v", err)
		}
		if pass.ActivatedAt == nil {
			t.Error("ActivatePass() game pass should activate at purchase")
		}
	})

	t.Run("replayed webhook returns existing pass", func(t *testing.T) {
		first, err := svc.ActivatePass(ctx, "user-1", models.PassEscape1to3, "pi_4")
		if err != nil {
			t.Fatalf("ActivatePass() error = %v", err)
		}
		second, err := svc.ActivatePass(ctx, "user-1", models.PassEscape1to3, "pi_4")
		if err != nil {
			t.Fatalf("ActivatePass() replay error = %v", err)
		}
		if second.ID != first.ID {
			t.Errorf("ActivatePass() replay created a new pass %s, want %s", second.ID, first.ID)
		}
	})
}

func TestPassService_GiftLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := NewPassService(newMemPassRepo(), newMemGiftRepo())

	gift, err := svc.CreateGift(ctx, models.PassEscape7to10, "buyer@example.com", "Sam", "Happy anniversary!")
	if err != nil {
		t.Fatalf("CreateGift() error = %v", err)
	}
	if gift.Status != models.GiftPending {
		t.Errorf("CreateGift() status = %s, want pending", gift.Status)
	}
	if len(gift.GiftCode) != 14 || gift.GiftCode[:5] != "LOVE-" {
		t.Errorf("CreateGift() code = %q, want LOVE-XXXX-XXXX", gift.GiftCode)
	}

	// Cannot redeem before payment
	if _, err := svc.RedeemGift(ctx, gift.GiftCode, "user-2"); !errors.Is(err, repositories.ErrGiftNotPaid) {
		t.Errorf("RedeemGift() before payment error = %v, want ErrGiftNotPaid", err)
	}

	if err := svc.MarkGiftPaid(ctx, gift.GiftCode, "pi_gift"); err != nil {
		t.Fatalf("MarkGiftPaid() error = %v", err)
	}

	// Lookup is case-insensitive
	checked, err := svc.CheckGiftCode(ctx, "  "+strings.ToLower(gift.GiftCode)+" ")
	if err != nil {
		t.Fatalf("CheckGiftCode() error = %v", err)
	}
	if checked.Status != models.GiftPaid {
		t.Errorf("CheckGiftCode() status = %s, want paid", checked.Status)
	}

	pass, err := svc.RedeemGift(ctx, gift.GiftCode, "user-2")
	if err != nil {
		t.Fatalf("RedeemGift() error = %v", err)
	}
	if pass.UserID != "user-2" || pass.PassType != models.PassEscape7to10 {
		t.Errorf("RedeemGift() issued pass for %s type %s", pass.UserID, pass.PassType)
	}
	if pass.EscapesRemaining != 10 {
		t.Errorf("RedeemGift() escapes = %d, want 10", pass.EscapesRemaining)
	}
	if pass.ActivatedAt != nil {
		t.Error("RedeemGift() gifted escape bundle should stay unactivated until first use")
	}

	if _, err := svc.RedeemGift(ctx, gift.GiftCode, "user-3"); !errors.Is(err, repositories.ErrGiftAlreadyRedeemed) {
		t.Errorf("RedeemGift() second redeem error = %v, want ErrGiftAlreadyRedeemed", err)
	}
}
