package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/escapadeapp/escapade/escapade/database/models"
	"github.com/uptrace/bun"
)

var (
	ErrPassNotFound       = errors.New("pass not found")
	ErrNoEscapesRemaining = errors.New("no escapes remaining")
)

type PassRepository interface {
	Create(ctx context.Context, pass *models.Pass) error
	GetByID(ctx context.Context, id string) (*models.Pass, error)
	GetByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.Pass, error)
	GetUserPasses(ctx context.Context, userID string) ([]*models.Pass, error)
	GetCurrentPasses(ctx context.Context, userID string, now time.Time) ([]*models.Pass, error)
	ConsumeEscapeUnit(ctx context.Context, passID string, now time.Time) (*models.Pass, error)
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
	StartCleanupRoutine(ctx context.Context)
}

type passRepository struct {
	db *bun.DB
}

func NewPassRepository(db *bun.DB) PassRepository {
	return &passRepository{db: db}
}

func (r *passRepository) Create(ctx context.Context, pass *models.Pass) error {
	pass.CreatedAt = time.Now()
	pass.UpdatedAt = time.Now()
	_, err := r.db.NewInsert().Model(pass).Exec(ctx)
	return err
}

func (r *passRepository) GetByID(ctx context.Context, id string) (*models.Pass, error) {
	pass := new(models.Pass)
	err := r.db.NewSelect().
		Model(pass).
		Where("id = ?", id).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPassNotFound
	}
	if err != nil {
		return nil, err
	}
	return pass, nil
}

func (r *passRepository) GetByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.Pass, error) {
	pass := new(models.Pass)
	err := r.db.NewSelect().
		Model(pass).
		Where("payment_intent_id = ?", paymentIntentID).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPassNotFound
	}
	if err != nil {
		return nil, err
	}
	return pass, nil
}

func (r *passRepository) GetUserPasses(ctx context.Context, userID string) ([]*models.Pass, error) {
	var passes []*models.Pass
	err := r.db.NewSelect().
		Model(&passes).
		Where("user_id = ?", userID).
		Order("expires_at DESC").
		Scan(ctx)
	return passes, err
}

func (r *passRepository) GetCurrentPasses(ctx context.Context, userID string, now time.Time) ([]*models.Pass, error) {
	slog.Debug("PassRepository.GetCurrentPasses called",
		slog.String("type", "db"),
		slog.String("operation", "GetCurrentPasses"),
		slog.String("user_id", userID))

	var passes []*models.Pass
	err := r.db.NewSelect().
		Model(&passes).
		Where("user_id = ?", userID).
		Where("is_active = true").
		Where("expires_at > ?", now).
		Order("expires_at DESC").
		Scan(ctx)

	if err != nil {
		slog.Error("Database error when getting current passes",
			slog.String("type", "db"),
			slog.String("operation", "GetCurrentPasses"),
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		return nil, err
	}

	return passes, nil
}

// ConsumeEscapeUnit decrements one escape unit from the given pass. The
// decrement is guarded so two concurrent starts can never spend the same
// unit. The first consumption also anchors the 30-day entitlement window at
// now.
func (r *passRepository) ConsumeEscapeUnit(ctx context.Context, passID string, now time.Time) (*models.Pass, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	pass := new(models.Pass)
	err = tx.NewSelect().
		Model(pass).
		Where("id = ?", passID).
		For("UPDATE").
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPassNotFound
	}
	if err != nil {
		return nil, err
	}

	update := tx.NewUpdate().
		Model((*models.Pass)(nil)).
		Set("updated_at = ?", now).
		Where("id = ?", passID)

	if !pass.IsUnlimited() {
		update = update.
			Set("escapes_remaining = escapes_remaining - 1").
			Where("escapes_remaining > 0")
	}

	if pass.ActivatedAt == nil {
		update = update.
			Set("activated_at = ?", now).
			Set("expires_at = ?", now.Add(pass.PassType.Duration()))
	}

	result, err := update.Exec(ctx)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, ErrNoEscapesRemaining
	}

	if err := tx.NewSelect().Model(pass).Where("id = ?", passID).Scan(ctx); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	slog.Info("Escape unit consumed",
		slog.String("type", "db"),
		slog.String("user_id", pass.UserID),
		slog.String("pass_type", string(pass.PassType)),
		slog.Int("escapes_remaining", pass.EscapesRemaining))

	return pass, nil
}

func (r *passRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.NewUpdate().
		Model((*models.Pass)(nil)).
		Set("is_active = false").
		Set("updated_at = ?", now).
		Where("is_active = true").
		Where("expires_at <= ?", now).
		Exec(ctx)

	if err != nil {
		return 0, fmt.Errorf("failed to deactivate expired passes: %w", err)
	}

	return result.RowsAffected()
}

func (r *passRepository) StartCleanupRoutine(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				count, err := r.DeactivateExpired(ctx, time.Now())
				if err != nil {
					slog.Error("Failed to deactivate expired passes",
						slog.String("type", "db"),
						slog.String("error", err.Error()))
					continue
				}
				if count > 0 {
					slog.Info("Deactivated expired passes",
						slog.String("type", "db"),
						slog.Int64("count", count))
				}
			}
		}
	}()
}
