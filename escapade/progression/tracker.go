package progression

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/escapadeapp/escapade/escapade/database/models"
	"github.com/escapadeapp/escapade/escapade/database/repositories"
)

// Tracker applies progression updates and awards achievements as thresholds
// are crossed.
type Tracker struct {
	progress   repositories.ProgressRepository
	adventures repositories.AdventureRepository
}

func NewTracker(progress repositories.ProgressRepository, adventures repositories.AdventureRepository) *Tracker {
	return &Tracker{progress: progress, adventures: adventures}
}

// GetProgress loads the user's snapshot.
func (t *Tracker) GetProgress(ctx context.Context, userID string) (*models.GameProgress, error) {
	return t.progress.GetProgress(ctx, userID)
}

// SaveSnapshot persists the client's full progress snapshot and returns any
// achievements newly unlocked by it.
func (t *Tracker) SaveSnapshot(ctx context.Context, snapshot *models.GameProgress) ([]AchievementDef, error) {
	snapshot.CompletedLocations = dedupe(snapshot.CompletedLocations)
	snapshot.RevealedLocations = dedupe(snapshot.RevealedLocations)
	snapshot.LastPlayedAt = time.Now()

	if err := t.progress.SaveProgress(ctx, snapshot); err != nil {
		return nil, err
	}

	return t.awardAchievements(ctx, snapshot.UserID, snapshot)
}

// RecordCardPlayed bumps the play counter for a deck.
func (t *Tracker) RecordCardPlayed(ctx context.Context, userID string, cardType models.GameCardType) ([]AchievementDef, error) {
	progress, err := t.progress.GetProgress(ctx, userID)
	if err != nil {
		return nil, err
	}

	switch cardType {
	case models.CardTruth, models.CardDare:
		progress.TruthOrDarePlayed++
	case models.CardNever:
		progress.NeverHaveIEverPlayed++
	default:
		return nil, fmt.Errorf("unknown card type: %s", cardType)
	}
	progress.LastPlayedAt = time.Now()

	if err := t.progress.SaveProgress(ctx, progress); err != nil {
		return nil, err
	}
	return t.awardAchievements(ctx, userID, progress)
}

// RecordEscapeCompleted increments the escape counter, credits the score and
// marks the adventure's stops completed in the snapshot.
func (t *Tracker) RecordEscapeCompleted(ctx context.Context, userID, adventureID string, points int) ([]AchievementDef, error) {
	progress, err := t.progress.GetProgress(ctx, userID)
	if err != nil {
		return nil, err
	}

	stops, err := t.adventures.GetStops(ctx, adventureID)
	if err != nil {
		return nil, err
	}

	progress.EscapesCompleted++
	progress.TotalScore += points
	progress.LastPlayedAt = time.Now()
	for _, stop := range stops {
		progress.CompletedLocations = append(progress.CompletedLocations, stop.ID)
	}
	progress.CompletedLocations = dedupe(progress.CompletedLocations)

	if err := t.progress.SaveProgress(ctx, progress); err != nil {
		return nil, err
	}
	return t.awardAchievements(ctx, userID, progress)
}

// RevealStop toggles a stop in the revealed set and reports whether it is
// revealed afterwards. Reveals carry no points, so there is no achievement
// pass here.
func (t *Tracker) RevealStop(ctx context.Context, userID, stopID string) (bool, error) {
	progress, err := t.progress.GetProgress(ctx, userID)
	if err != nil {
		return false, err
	}

	revealed := true
	kept := make([]string, 0, len(progress.RevealedLocations))
	for _, id := range progress.RevealedLocations {
		if id == stopID {
			revealed = false
			continue
		}
		kept = append(kept, id)
	}
	if revealed {
		kept = append(kept, stopID)
	}
	progress.RevealedLocations = kept
	progress.LastPlayedAt = time.Now()

	if err := t.progress.SaveProgress(ctx, progress); err != nil {
		return false, err
	}
	return revealed, nil
}

// ToggleFavorite adds or removes a favorite and reports the new state plus
// any achievement it unlocked.
func (t *Tracker) ToggleFavorite(ctx context.Context, userID, cardID, cardType string) (bool, []AchievementDef, error) {
	favorites, err := t.progress.GetFavorites(ctx, userID)
	if err != nil {
		return false, nil, err
	}

	for _, fav := range favorites {
		if fav.CardID == cardID {
			if err := t.progress.RemoveFavorite(ctx, userID, cardID); err != nil {
				return false, nil, err
			}
			return false, nil, nil
		}
	}

	if err := t.progress.AddFavorite(ctx, &models.Favorite{
		UserID:   userID,
		CardID:   cardID,
		CardType: cardType,
	}); err != nil {
		return false, nil, err
	}

	progress, err := t.progress.GetProgress(ctx, userID)
	if err != nil {
		return true, nil, err
	}
	unlocked, err := t.awardAchievements(ctx, userID, progress)
	return true, unlocked, err
}

// Favorites lists the user's saved cards, newest first.
func (t *Tracker) Favorites(ctx context.Context, userID string) ([]*models.Favorite, error) {
	return t.progress.GetFavorites(ctx, userID)
}

// GetAchievements returns the catalog annotated with the user's unlocks.
func (t *Tracker) GetAchievements(ctx context.Context, userID string) ([]AchievementDef, map[string]time.Time, error) {
	rows, err := t.progress.GetAchievements(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	unlockedAt := make(map[string]time.Time, len(rows))
	for _, row := range rows {
		unlockedAt[row.AchievementID] = row.UnlockedAt
	}
	return Achievements, unlockedAt, nil
}

func (t *Tracker) awardAchievements(ctx context.Context, userID string, progress *models.GameProgress) ([]AchievementDef, error) {
	favoriteCount, err := t.progress.CountFavorites(ctx, userID)
	if err != nil {
		return nil, err
	}

	adventures, err := t.adventures.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	snapshot := Snapshot{
		TruthOrDarePlayed:    progress.TruthOrDarePlayed,
		NeverHaveIEverPlayed: progress.NeverHaveIEverPlayed,
		EscapesCompleted:     progress.EscapesCompleted,
		TotalScore:           progress.TotalScore,
		FavoriteCount:        favoriteCount,
		AdventureCount:       len(adventures),
	}

	defs := make(map[string]AchievementDef, len(Achievements))
	for _, def := range Achievements {
		defs[def.ID] = def
	}

	var newlyUnlocked []AchievementDef
	for _, id := range Evaluate(snapshot) {
		isNew, err := t.progress.UnlockAchievement(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		if isNew {
			newlyUnlocked = append(newlyUnlocked, defs[id])
			slog.Info("Achievement unlocked",
				slog.String("type", "system"),
				slog.String("user_id", userID),
				slog.String("achievement", id))
		}
	}
	return newlyUnlocked, nil
}

func dedupe(values []string) []string {
	if values == nil {
		return []string{}
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
