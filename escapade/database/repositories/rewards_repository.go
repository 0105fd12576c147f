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
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrAlreadyRedeemed    = errors.New("reward already redeemed")
)

type RewardsRepository interface {
	GetRewards(ctx context.Context, userID string) (*models.CoupleRewards, error)
	EarnPoints(ctx context.Context, entry *models.PointsHistoryEntry) (*models.CoupleRewards, error)
	RedeemReward(ctx context.Context, redemption *models.RedeemedReward) (*models.CoupleRewards, error)
	GetHistory(ctx context.Context, userID string, limit int) ([]*models.PointsHistoryEntry, error)
	CountHistoryByAction(ctx context.Context, userID, actionType string) (int, error)
	CountHistoryForAdventure(ctx context.Context, userID, actionType, adventureID string) (int, error)
	GetRedeemedRewards(ctx context.Context, userID string) ([]*models.RedeemedReward, error)
	GetSpecialDates(ctx context.Context, userID string) ([]*models.SpecialDate, error)
	UpsertSpecialDate(ctx context.Context, date *models.SpecialDate) error
	DeleteSpecialDate(ctx context.Context, userID string, dateType models.SpecialDateType) error
	SetTitle(ctx context.Context, userID, title string) error
	SetBadge(ctx context.Context, userID, badge string) error
}

type rewardsRepository struct {
	db *bun.DB
}

func NewRewardsRepository(db *bun.DB) RewardsRepository {
	return &rewardsRepository{db: db}
}

// GetRewards returns the user's ledger, or an empty ledger if none exists
// yet.
func (r *rewardsRepository) GetRewards(ctx context.Context, userID string) (*models.CoupleRewards, error) {
	rewards := new(models.CoupleRewards)
	err := r.db.NewSelect().
		Model(rewards).
		Where("user_id = ?", userID).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return &models.CoupleRewards{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return rewards, nil
}

// EarnPoints credits the ledger and appends a history row in one
// transaction. entry.Points must already include any multiplier.
func (r *rewardsRepository) EarnPoints(ctx context.Context, entry *models.PointsHistoryEntry) (*models.CoupleRewards, error) {
	if entry.Points <= 0 {
		return nil, fmt.Errorf("points must be positive, got %d", entry.Points)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := time.Now()

	// First try to update an existing ledger row
	result, err := tx.NewUpdate().
		Model((*models.CoupleRewards)(nil)).
		Set("total_points = total_points + ?", entry.Points).
		Set("lifetime_points = lifetime_points + ?", entry.Points).
		Set("updated_at = ?", now).
		Where("user_id = ?", entry.UserID).
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	if rowsAffected == 0 {
		ledger := &models.CoupleRewards{
			UserID:         entry.UserID,
			TotalPoints:    entry.Points,
			LifetimePoints: entry.Points,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if _, err = tx.NewInsert().Model(ledger).Exec(ctx); err != nil {
			return nil, err
		}
	}

	entry.CreatedAt = now
	if _, err = tx.NewInsert().Model(entry).Exec(ctx); err != nil {
		return nil, err
	}

	rewards := new(models.CoupleRewards)
	if err = tx.NewSelect().Model(rewards).Where("user_id = ?", entry.UserID).Scan(ctx); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	slog.Info("Points earned",
		slog.String("type", "db"),
		slog.String("user_id", entry.UserID),
		slog.String("action", entry.ActionType),
		slog.Int("points", entry.Points),
		slog.Int("total", rewards.TotalPoints))

	return rewards, nil
}

// RedeemReward spends points and records the redemption. The balance check is
// part of the guarded update so a double-spend loses the race cleanly.
func (r *rewardsRepository) RedeemReward(ctx context.Context, redemption *models.RedeemedReward) (*models.CoupleRewards, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := time.Now()

	result, err := tx.NewUpdate().
		Model((*models.CoupleRewards)(nil)).
		Set("total_points = total_points - ?", redemption.PointsSpent).
		Set("updated_at = ?", now).
		Where("user_id = ?", redemption.UserID).
		Where("total_points >= ?", redemption.PointsSpent).
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, ErrInsufficientPoints
	}

	redemption.RedeemedAt = now
	insertResult, err := tx.NewInsert().
		Model(redemption).
		On("CONFLICT (user_id, reward_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	inserted, err := insertResult.RowsAffected()
	if err != nil {
		return nil, err
	}
	if inserted == 0 {
		return nil, ErrAlreadyRedeemed
	}

	rewards := new(models.CoupleRewards)
	if err = tx.NewSelect().Model(rewards).Where("user_id = ?", redemption.UserID).Scan(ctx); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return rewards, nil
}

func (r *rewardsRepository) GetHistory(ctx context.Context, userID string, limit int) ([]*models.PointsHistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	var history []*models.PointsHistoryEntry
	err := r.db.NewSelect().
		Model(&history).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	return history, err
}

func (r *rewardsRepository) CountHistoryByAction(ctx context.Context, userID, actionType string) (int, error) {
	return r.db.NewSelect().
		Model((*models.PointsHistoryEntry)(nil)).
		Where("user_id = ?", userID).
		Where("action_type = ?", actionType).
		Count(ctx)
}

func (r *rewardsRepository) CountHistoryForAdventure(ctx context.Context, userID, actionType, adventureID string) (int, error) {
	return r.db.NewSelect().
		Model((*models.PointsHistoryEntry)(nil)).
		Where("user_id = ?", userID).
		Where("action_type = ?", actionType).
		Where("adventure_id = ?", adventureID).
		Count(ctx)
}

func (r *rewardsRepository) GetRedeemedRewards(ctx context.Context, userID string) ([]*models.RedeemedReward, error) {
	var redeemed []*models.RedeemedReward
	err := r.db.NewSelect().
		Model(&redeemed).
		Where("user_id = ?", userID).
		Order("redeemed_at DESC").
		Scan(ctx)
	return redeemed, err
}

func (r *rewardsRepository) GetSpecialDates(ctx context.Context, userID string) ([]*models.SpecialDate, error) {
	var dates []*models.SpecialDate
	err := r.db.NewSelect().
		Model(&dates).
		Where("user_id = ?", userID).
		Scan(ctx)
	return dates, err
}

func (r *rewardsRepository) UpsertSpecialDate(ctx context.Context, date *models.SpecialDate) error {
	date.CreatedAt = time.Now()
	_, err := r.db.NewInsert().
		Model(date).
		On("CONFLICT (user_id, date_type) DO UPDATE").
		Set("date_value = EXCLUDED.date_value").
		Set("label = EXCLUDED.label").
		Exec(ctx)
	return err
}

func (r *rewardsRepository) DeleteSpecialDate(ctx context.Context, userID string, dateType models.SpecialDateType) error {
	_, err := r.db.NewDelete().
		Model((*models.SpecialDate)(nil)).
		Where("user_id = ?", userID).
		Where("date_type = ?", dateType).
		Exec(ctx)
	return err
}

func (r *rewardsRepository) SetTitle(ctx context.Context, userID, title string) error {
	return r.setLedgerField(ctx, userID, "couple_title", title)
}

func (r *rewardsRepository) SetBadge(ctx context.Context, userID, badge string) error {
	return r.setLedgerField(ctx, userID, "couple_badge", badge)
}

func (r *rewardsRepository) setLedgerField(ctx context.Context, userID, column, value string) error {
	result, err := r.db.NewUpdate().
		Model((*models.CoupleRewards)(nil)).
		Set(column+" = ?", value).
		Set("updated_at = ?", time.Now()).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		ledger := &models.CoupleRewards{
			UserID:    userID,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		switch column {
		case "couple_title":
			ledger.CoupleTitle = value
		case "couple_badge":
			ledger.CoupleBadge = value
		}
		_, err = r.db.NewInsert().Model(ledger).Exec(ctx)
	}
	return err
}
