package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/escapadeapp/escapade/escapade/database/models"
	"github.com/uptrace/bun"
)

type ProgressRepository interface {
	GetProgress(ctx context.Context, userID string) (*models.GameProgress, error)
	SaveProgress(ctx context.Context, progress *models.GameProgress) error
	AddFavorite(ctx context.Context, fav *models.Favorite) error
	RemoveFavorite(ctx context.Context, userID, cardID string) error
	GetFavorites(ctx context.Context, userID string) ([]*models.Favorite, error)
	CountFavorites(ctx context.Context, userID string) (int, error)
	UnlockAchievement(ctx context.Context, userID, achievementID string) (bool, error)
	GetAchievements(ctx context.Context, userID string) ([]*models.Achievement, error)
}

type progressRepository struct {
	db *bun.DB
}

func NewProgressRepository(db *bun.DB) ProgressRepository {
	return &progressRepository{db: db}
}

// GetProgress returns the stored snapshot, or a zeroed snapshot when the user
// has never saved.
func (r *progressRepository) GetProgress(ctx context.Context, userID string) (*models.GameProgress, error) {
	progress := new(models.GameProgress)
	err := r.db.NewSelect().
		Model(progress).
		Where("user_id = ?", userID).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return &models.GameProgress{
			UserID:             userID,
			CompletedLocations: []string{},
			RevealedLocations:  []string{},
		}, nil
	}
	if err != nil {
		return nil, err
	}

	if progress.CompletedLocations == nil {
		progress.CompletedLocations = []string{}
	}
	if progress.RevealedLocations == nil {
		progress.RevealedLocations = []string{}
	}
	return progress, nil
}

// SaveProgress writes the full client snapshot, last write wins per user.
func (r *progressRepository) SaveProgress(ctx context.Context, progress *models.GameProgress) error {
	progress.UpdatedAt = time.Now()
	if progress.LastPlayedAt.IsZero() {
		progress.LastPlayedAt = time.Now()
	}

	_, err := r.db.NewInsert().
		Model(progress).
		On("CONFLICT (user_id) DO UPDATE").
		Set("completed_locations = EXCLUDED.completed_locations").
		Set("revealed_locations = EXCLUDED.revealed_locations").
		Set("truth_or_dare_played = EXCLUDED.truth_or_dare_played").
		Set("never_have_i_ever_played = EXCLUDED.never_have_i_ever_played").
		Set("escapes_completed = EXCLUDED.escapes_completed").
		Set("total_score = EXCLUDED.total_score").
		Set("last_played_at = EXCLUDED.last_played_at").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	return nil
}

func (r *progressRepository) AddFavorite(ctx context.Context, fav *models.Favorite) error {
	fav.CreatedAt = time.Now()
	_, err := r.db.NewInsert().
		Model(fav).
		On("CONFLICT (user_id, card_id) DO NOTHING").
		Exec(ctx)
	return err
}

func (r *progressRepository) RemoveFavorite(ctx context.Context, userID, cardID string) error {
	_, err := r.db.NewDelete().
		Model((*models.Favorite)(nil)).
		Where("user_id = ? AND card_id = ?", userID, cardID).
		Exec(ctx)
	return err
}

func (r *progressRepository) GetFavorites(ctx context.Context, userID string) ([]*models.Favorite, error) {
	var favorites []*models.Favorite
	err := r.db.NewSelect().
		Model(&favorites).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	return favorites, err
}

func (r *progressRepository) CountFavorites(ctx context.Context, userID string) (int, error) {
	return r.db.NewSelect().
		Model((*models.Favorite)(nil)).
		Where("user_id = ?", userID).
		Count(ctx)
}

// UnlockAchievement records an unlock and reports whether it was newly
// earned. Re-awarding is a no-op.
func (r *progressRepository) UnlockAchievement(ctx context.Context, userID, achievementID string) (bool, error) {
	achievement := &models.Achievement{
		UserID:        userID,
		AchievementID: achievementID,
		UnlockedAt:    time.Now(),
	}

	result, err := r.db.NewInsert().
		Model(achievement).
		On("CONFLICT (user_id, achievement_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}

func (r *progressRepository) GetAchievements(ctx context.Context, userID string) ([]*models.Achievement, error) {
	var achievements []*models.Achievement
	err := r.db.NewSelect().
		Model(&achievements).
		Where("user_id = ?", userID).
		Order("unlocked_at ASC").
		Scan(ctx)
	return achievements, err
}
