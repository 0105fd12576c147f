package rewards

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/escapadeapp/escapade/escapade/database/models"
	"github.com/escapadeapp/escapade/escapade/database/repositories"
	"github.com/escapadeapp/escapade/escapade/escape"
	"golang.org/x/sync/errgroup"
)

var (
	ErrUnknownReward = errors.New("unknown reward")
	ErrUnknownAction = errors.New("unknown action type")
)

const (
	// Everyone plays with a boost on February 14th.
	valentineMultiplier = 2.5
	escapeActionType    = "adventure_complete"
)

// Service owns the points ledger: earning, multipliers, the store and the
// couple title/badge.
type Service struct {
	repo repositories.RewardsRepository
}

func NewService(repo repositories.RewardsRepository) *Service {
	return &Service{repo: repo}
}

// LedgerSnapshot aggregates everything the rewards screen shows.
type LedgerSnapshot struct {
	Rewards      *models.CoupleRewards        `json:"rewards"`
	History      []*models.PointsHistoryEntry `json:"history"`
	Redeemed     []*models.RedeemedReward     `json:"redeemed"`
	SpecialDates []*models.SpecialDate        `json:"specialDates"`
	Catalog      []CatalogItem                `json:"catalog"`
}

// Snapshot loads the four ledger views concurrently.
func (s *Service) Snapshot(ctx context.Context, userID string) (*LedgerSnapshot, error) {
	snapshot := &LedgerSnapshot{Catalog: Catalog}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snapshot.Rewards, err = s.repo.GetRewards(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		snapshot.History, err = s.repo.GetHistory(gctx, userID, 50)
		return err
	})
	g.Go(func() error {
		var err error
		snapshot.Redeemed, err = s.repo.GetRedeemedRewards(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		snapshot.SpecialDates, err = s.repo.GetSpecialDates(gctx, userID)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load rewards snapshot: %w", err)
	}
	return snapshot, nil
}

// MultiplierFor resolves the active points multiplier at now. Special dates
// match on month and day; when several apply the highest wins. Returns the
// multiplier and a human-readable reason, 1 and "" when nothing applies.
func (s *Service) MultiplierFor(ctx context.Context, userID string, now time.Time) (float64, string, error) {
	best := 1.0
	reason := ""

	if now.Month() == time.February && now.Day() == 14 {
		best = valentineMultiplier
		reason = "Valentine's Day"
	}

	dates, err := s.repo.GetSpecialDates(ctx, userID)
	if err != nil {
		return 0, "", err
	}

	for _, date := range dates {
		if date.DateValue.Month() != now.Month() || date.DateValue.Day() != now.Day() {
			continue
		}
		if m := date.DateType.Multiplier(); m > best {
			best = m
			reason = date.Label
			if reason == "" {
				reason = string(date.DateType)
			}
		}
	}

	return best, reason, nil
}

// IsFirstEscape reports whether the user has never completed an escape.
func (s *Service) IsFirstEscape(ctx context.Context, userID string) (bool, error) {
	count, err := s.repo.CountHistoryByAction(ctx, userID, escapeActionType)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

// HasCompletedAdventure reports whether the ledger already holds a
// completion credit for this adventure.
func (s *Service) HasCompletedAdventure(ctx context.Context, userID, adventureID string) (bool, error) {
	count, err := s.repo.CountHistoryForAdventure(ctx, userID, escapeActionType, adventureID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// RecordEscapeCompletion credits a completed escape's bonus points. The
// multiplier is already baked into result.TotalPoints.
func (s *Service) RecordEscapeCompletion(ctx context.Context, userID string, adventure *models.Adventure, result escape.BonusResult) error {
	_, err := s.repo.EarnPoints(ctx, &models.PointsHistoryEntry{
		UserID:      userID,
		Points:      result.TotalPoints,
		ActionType:  escapeActionType,
		Description: fmt.Sprintf("Completed %s", adventure.Name),
		Multiplier:  result.Multiplier,
		AdventureID: adventure.ID,
	})
	return err
}

// EarnAction credits a standard action, applying the user's current
// multiplier.
func (s *Service) EarnAction(ctx context.Context, userID, actionType, description, adventureID string, now time.Time) (*models.CoupleRewards, error) {
	base, ok := ActionPoints[actionType]
	if !ok {
		return nil, ErrUnknownAction
	}

	multiplier, _, err := s.MultiplierFor(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	return s.repo.EarnPoints(ctx, &models.PointsHistoryEntry{
		UserID:      userID,
		Points:      int(math.Round(float64(base) * multiplier)),
		ActionType:  actionType,
		Description: description,
		Multiplier:  multiplier,
		AdventureID: adventureID,
	})
}

// Redeem spends points on a catalog item. Titles and badges are applied to
// the couple profile immediately.
func (s *Service) Redeem(ctx context.Context, userID, rewardID string) (*models.CoupleRewards, CatalogItem, error) {
	item, ok := FindCatalogItem(rewardID)
	if !ok {
		return nil, CatalogItem{}, ErrUnknownReward
	}

	data, err := json.Marshal(map[string]string{"kind": string(item.Kind), "value": item.Value})
	if err != nil {
		return nil, CatalogItem{}, err
	}

	ledger, err := s.repo.RedeemReward(ctx, &models.RedeemedReward{
		UserID:      userID,
		RewardID:    item.ID,
		RewardName:  item.Name,
		PointsSpent: item.Cost,
		RewardData:  data,
	})
	if err != nil {
		return nil, CatalogItem{}, err
	}

	switch item.Kind {
	case KindTitle:
		err = s.repo.SetTitle(ctx, userID, item.Value)
	case KindBadge:
		err = s.repo.SetBadge(ctx, userID, item.Value)
	}
	if err != nil {
		// Points are already spent; the profile update can be retried
		slog.Error("Failed to apply redeemed cosmetic",
			slog.String("type", "error"),
			slog.String("user_id", userID),
			slog.String("reward_id", item.ID),
			slog.String("error", err.Error()))
	}

	return ledger, item, nil
}

// SetSpecialDate stores or replaces the user's bonus date of that type.
func (s *Service) SetSpecialDate(ctx context.Context, userID string, dateType models.SpecialDateType, value time.Time, label string) error {
	switch dateType {
	case models.DateAnniversary, models.DateBirthday, models.DateCustom:
	default:
		return fmt.Errorf("unknown date type: %s", dateType)
	}

	return s.repo.UpsertSpecialDate(ctx, &models.SpecialDate{
		UserID:    userID,
		DateType:  dateType,
		DateValue: value,
		Label:     label,
	})
}

// DeleteSpecialDate removes the user's bonus date of that type.
func (s *Service) DeleteSpecialDate(ctx context.Context, userID string, dateType models.SpecialDateType) error {
	return s.repo.DeleteSpecialDate(ctx, userID, dateType)
}

// UpdateTitleBadge sets the couple profile cosmetics directly. Empty values
// are left untouched.
func (s *Service) UpdateTitleBadge(ctx context.Context, userID, title, badge string) error {
	if title != "" {
		if err := s.repo.SetTitle(ctx, userID, title); err != nil {
			return err
		}
	}
	if badge != "" {
		if err := s.repo.SetBadge(ctx, userID, badge); err != nil {
			return err
		}
	}
	return nil
}
