package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/escapadeapp/escapade/escapade/database/models"
	lru "github.com/hashicorp/golang-lru"
	"github.com/uptrace/bun"
)

var (
	ErrAdventureNotFound = errors.New("adventure not found")
	ErrCardNotFound      = errors.New("card not found")
)

type AdventureRepository interface {
	GetAll(ctx context.Context) ([]*models.Adventure, error)
	GetByID(ctx context.Context, id string) (*models.Adventure, error)
	GetStops(ctx context.Context, adventureID string) ([]*models.AdventureStop, error)
	GetCards(ctx context.Context, cardType models.GameCardType, intensity models.IntensityLevel) ([]*models.GameCard, error)
	GetCardByID(ctx context.Context, id string) (*models.GameCard, error)
}

type adventureRepository struct {
	db    *bun.DB
	cache *lru.Cache
}

const (
	adventureCacheSize = 128
	allAdventuresKey   = "adventures:all"
)

func NewAdventureRepository(db *bun.DB) AdventureRepository {
	cache, _ := lru.New(adventureCacheSize)
	return &adventureRepository{db: db, cache: cache}
}

func (r *adventureRepository) GetAll(ctx context.Context) ([]*models.Adventure, error) {
	if cached, ok := r.cache.Get(allAdventuresKey); ok {
		return cached.([]*models.Adventure), nil
	}

	var adventures []*models.Adventure
	err := r.db.NewSelect().
		Model(&adventures).
		Relation("Stops", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("stop_number ASC")
		}).
		Order("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	r.cache.Add(allAdventuresKey, adventures)
	return adventures, nil
}

func (r *adventureRepository) GetByID(ctx context.Context, id string) (*models.Adventure, error) {
	if cached, ok := r.cache.Get("adventure:" + id); ok {
		return cached.(*models.Adventure), nil
	}

	adventure := new(models.Adventure)
	err := r.db.NewSelect().
		Model(adventure).
		Relation("Stops", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("stop_number ASC")
		}).
		Where("a.id = ?", id).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAdventureNotFound
	}
	if err != nil {
		return nil, err
	}

	r.cache.Add("adventure:"+id, adventure)
	return adventure, nil
}

func (r *adventureRepository) GetStops(ctx context.Context, adventureID string) ([]*models.AdventureStop, error) {
	var stops []*models.AdventureStop
	err := r.db.NewSelect().
		Model(&stops).
		Where("adventure_id = ?", adventureID).
		Order("stop_number ASC").
		Scan(ctx)
	return stops, err
}

func (r *adventureRepository) GetCards(ctx context.Context, cardType models.GameCardType, intensity models.IntensityLevel) ([]*models.GameCard, error) {
	var cards []*models.GameCard
	q := r.db.NewSelect().Model(&cards)
	if cardType != "" {
		q = q.Where("card_type = ?", cardType)
	}
	if intensity != "" {
		q = q.Where("intensity = ?", intensity)
	}
	err := q.Order("id ASC").Scan(ctx)
	return cards, err
}

func (r *adventureRepository) GetCardByID(ctx context.Context, id string) (*models.GameCard, error) {
	card := new(models.GameCard)
	err := r.db.NewSelect().
		Model(card).
		Where("id = ?", id).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCardNotFound
	}
	if err != nil {
		return nil, err
	}
	return card, nil
}
