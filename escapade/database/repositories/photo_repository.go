package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/escapadeapp/escapade/escapade/database/models"
	"github.com/uptrace/bun"
)

var ErrPhotoNotFound = errors.New("photo not found")

type PhotoRepository interface {
	Create(ctx context.Context, photo *models.PhotoMemory) error
	GetByID(ctx context.Context, id string) (*models.PhotoMemory, error)
	GetByUser(ctx context.Context, userID string) ([]*models.PhotoMemory, error)
	GetByAdventure(ctx context.Context, userID, adventureID string) ([]*models.PhotoMemory, error)
	Delete(ctx context.Context, userID, id string) error
	CountByUser(ctx context.Context, userID string) (int, error)
}

type photoRepository struct {
	db *bun.DB
}

func NewPhotoRepository(db *bun.DB) PhotoRepository {
	return &photoRepository{db: db}
}

func (r *photoRepository) Create(ctx context.Context, photo *models.PhotoMemory) error {
	photo.CreatedAt = time.Now()
	_, err := r.db.NewInsert().Model(photo).Exec(ctx)
	return err
}

func (r *photoRepository) GetByID(ctx context.Context, id string) (*models.PhotoMemory, error) {
	photo := new(models.PhotoMemory)
	err := r.db.NewSelect().
		Model(photo).
		Where("id = ?", id).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPhotoNotFound
	}
	if err != nil {
		return nil, err
	}
	return photo, nil
}

func (r *photoRepository) GetByUser(ctx context.Context, userID string) ([]*models.PhotoMemory, error) {
	var photos []*models.PhotoMemory
	err := r.db.NewSelect().
		Model(&photos).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	return photos, err
}

func (r *photoRepository) GetByAdventure(ctx context.Context, userID, adventureID string) ([]*models.PhotoMemory, error) {
	var photos []*models.PhotoMemory
	err := r.db.NewSelect().
		Model(&photos).
		Where("user_id = ? AND adventure_id = ?", userID, adventureID).
		Order("created_at ASC").
		Scan(ctx)
	return photos, err
}

func (r *photoRepository) Delete(ctx context.Context, userID, id string) error {
	result, err := r.db.NewDelete().
		Model((*models.PhotoMemory)(nil)).
		Where("id = ? AND user_id = ?", id, userID).
		Exec(ctx)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrPhotoNotFound
	}
	return nil
}

func (r *photoRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	return r.db.NewSelect().
		Model((*models.PhotoMemory)(nil)).
		Where("user_id = ?", userID).
		Count(ctx)
}
