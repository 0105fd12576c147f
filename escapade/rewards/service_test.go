package rewards

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/escapadeapp/escapade/escapade/database/models"
	"github.com/escapadeapp/escapade/escapade/database/repositories"
	"github.com/escapadeapp/escapade/escapade/escape"
)

type memRewardsRepo struct {
	ledgers  map[string]*models.CoupleRewards
	history  []*models.PointsHistoryEntry
	redeemed map[string]map[string]bool
	dates    map[string][]*models.SpecialDate
}

func newMemRewardsRepo() *memRewardsRepo {
	return &memRewardsRepo{
		ledgers:  map[string]*models.CoupleRewards{},
		redeemed: map[string]map[string]bool{},
		dates:    map[string][]*models.SpecialDate{},
	}
}

func (m *memRewardsRepo) ledger(userID string) *models.CoupleRewards {
	if l, ok := m.ledgers[userID]; ok {
		return l
	}
	l := &models.CoupleRewards{UserID: userID}
	m.ledgers[userID] = l
	return l
}

func (m *memRewardsRepo) GetRewards(ctx context.Context, userID string) (*models.CoupleRewards, error) {
	return m.ledger(userID), nil
}

func (m *memRewardsRepo) EarnPoints(ctx context.Context, entry *models.PointsHistoryEntry) (*models.CoupleRewards, error) {
	l := m.ledger(entry.UserID)
	l.TotalPoints += entry.Points
	l.LifetimePoints += entry.Points
	m.history = append(m.history, entry)
	return l, nil
}

func (m *memRewardsRepo) RedeemReward(ctx context.Context, redemption *models.RedeemedReward) (*models.CoupleRewards, error) {
	l := m.ledger(redemption.UserID)
	if l.TotalPoints < redemption.PointsSpent {
		return nil, repositories.ErrInsufficientPoints
	}
	if m.redeemed[redemption.UserID][redemption.RewardID] {
		return nil, repositories.ErrAlreadyRedeemed
	}
	if m.redeemed[redemption.UserID] == nil {
		m.redeemed[redemption.UserID] = map[string]bool{}
	}
	m.redeemed[redemption.UserID][redemption.RewardID] = true
	l.TotalPoints -= redemption.PointsSpent
	return l, nil
}

func (m *memRewardsRepo) GetHistory(ctx context.Context, userID string, limit int) ([]*models.PointsHistoryEntry, error) {
	var out []*models.PointsHistoryEntry
	for _, e := range m.history {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memRewardsRepo) CountHistoryByAction(ctx context.Context, userID, actionType string) (int, error) {
	count := 0
	for _, e := range m.history {
		if e.UserID == userID && e.ActionType == actionType {
			count++
		}
	}
	return count, nil
}

func (m *memRewardsRepo) CountHistoryForAdventure(ctx context.Context, userID, actionType, adventureID string) (int, error) {
	count := 0
	for _, e := range m.history {
		if e.UserID == userID && e.ActionType == actionType && e.AdventureID == adventureID {
			count++
		}
	}
	return count, nil
}

func (m *memRewardsRepo) GetRedeemedRewards(ctx context.Context, userID string) ([]*models.RedeemedReward, error) {
	return nil, nil
}

func (m *memRewardsRepo) GetSpecialDates(ctx context.Context, userID string) ([]*models.SpecialDate, error) {
	return m.dates[userID], nil
}

func (m *memRewardsRepo) UpsertSpecialDate(ctx context.Context, date *models.SpecialDate) error {
	kept := m.dates[date.UserID][:0]
	for _, d := range m.dates[date.UserID] {
		if d.DateType != date.DateType {
			kept = append(kept, d)
		}
	}
	m.dates[date.UserID] = append(kept, date)
	return nil
}

func (m *memRewardsRepo) DeleteSpecialDate(ctx context.Context, userID string, dateType models.SpecialDateType) error {
	kept := m.dates[userID][:0]
	for _, d := range m.dates[userID] {
		if d.DateType != dateType {
			kept = append(kept, d)
		}
	}
	m.dates[userID] = kept
	return nil
}

func (m *memRewardsRepo) SetTitle(ctx context.Context, userID, title string) error {
	m.ledger(userID).CoupleTitle = title
	return nil
}

func (m *memRewardsRepo) SetBadge(ctx context.Context, userID, badge string) error {
	m.ledger(userID).CoupleBadge = badge
	return nil
}

func day(month time.Month, day int) time.Time {
	return time.Date(2025, month, day, 12, 0, 0, 0, time.UTC)
}

func TestService_MultiplierFor(t *testing.T) {
	repo := newMemRewardsRepo()
	repo.dates["user-1"] = []*models.SpecialDate{
		{UserID: "user-1", DateType: models.DateAnniversary, DateValue: day(time.June, 20), Label: "Our anniversary"},
		{UserID: "user-1", DateType: models.DateCustom, DateValue: day(time.February, 14)},
	}
	s := NewService(repo)
	ctx := context.Background()

	tests := []struct {
		name       string
		now        time.Time
		want       float64
		wantReason string
	}{
		{name: "plain day", now: day(time.March, 3), want: 1, wantReason: ""},
		{name: "anniversary", now: day(time.June, 20), want: 3.0, wantReason: "Our anniversary"},
		{name: "anniversary matches across years", now: time.Date(2027, time.June, 20, 8, 0, 0, 0, time.UTC), want: 3.0, wantReason: "Our anniversary"},
		{name: "valentines beats custom date", now: day(time.February, 14), want: 2.5, wantReason: "Valentine's Day"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason, err := s.MultiplierFor(ctx, "user-1", tt.now)
			if err != nil {
				t.Fatalf("MultiplierFor() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("MultiplierFor() = %v, want %v", got, tt.want)
			}
			if reason != tt.wantReason {
				t.Errorf("MultiplierFor() reason = %q, want %q", reason, tt.wantReason)
			}
		})
	}
}

func TestService_MultiplierFor_ValentinesForEveryone(t *testing.T) {
	s := NewService(newMemRewardsRepo())

	got, reason, err := s.MultiplierFor(context.Background(), "nobody", day(time.February, 14))
	if err != nil {
		t.Fatalf("MultiplierFor() error = %v", err)
	}
	if got != 2.5 || reason != "Valentine's Day" {
		t.Errorf("MultiplierFor() = %v %q, want 2.5 \"Valentine's Day\"", got, reason)
	}
}

func TestService_EarnAction(t *testing.T) {
	repo := newMemRewardsRepo()
	repo.dates["user-1"] = []*models.SpecialDate{
		{UserID: "user-1", DateType: models.DateBirthday, DateValue: day(time.June, 20)},
	}
	s := NewService(repo)
	ctx := context.Background()

	if _, err := s.EarnAction(ctx, "user-1", "made_up", "", "", day(time.March, 3)); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("EarnAction() error = %v, want %v", err, ErrUnknownAction)
	}

	ledger, err := s.EarnAction(ctx, "user-1", "photo_upload", "Photo at the clocktower", "adv-1", day(time.March, 3))
	if err != nil {
		t.Fatalf("EarnAction() error = %v", err)
	}
	if ledger.TotalPoints != 25 {
		t.Errorf("EarnAction() TotalPoints = %v, want 25", ledger.TotalPoints)
	}

	// Birthday doubles the next earn
	ledger, err = s.EarnAction(ctx, "user-1", "stop_complete", "", "adv-1", day(time.June, 20))
	if err != nil {
		t.Fatalf("EarnAction() error = %v", err)
	}
	if ledger.TotalPoints != 25+40 {
		t.Errorf("EarnAction() TotalPoints = %v, want 65", ledger.TotalPoints)
	}
}

func TestService_IsFirstEscape(t *testing.T) {
	repo := newMemRewardsRepo()
	s := NewService(repo)
	ctx := context.Background()

	first, err := s.IsFirstEscape(ctx, "user-1")
	if err != nil {
		t.Fatalf("IsFirstEscape() error = %v", err)
	}
	if !first {
		t.Errorf("IsFirstEscape() = false, want true with empty history")
	}

	adventure := &models.Adventure{ID: "adv-1", Name: "Moonlit Downtown Escape"}
	result := escape.ComputeBonus(escape.CompletionStats{StopsCompleted: 3, TotalStops: 3, TimeMinutes: 50}, true, 1)
	if err := s.RecordEscapeCompletion(ctx, "user-1", adventure, result); err != nil {
		t.Fatalf("RecordEscapeCompletion() error = %v", err)
	}

	first, err = s.IsFirstEscape(ctx, "user-1")
	if err != nil {
		t.Fatalf("IsFirstEscape() error = %v", err)
	}
	if first {
		t.Errorf("IsFirstEscape() = true, want false after a completion")
	}
}

func TestService_HasCompletedAdventure(t *testing.T) {
	repo := newMemRewardsRepo()
	s := NewService(repo)
	ctx := context.Background()

	adventure := &models.Adventure{ID: "adv-1", Name: "Moonlit Downtown Escape"}
	result := escape.ComputeBonus(escape.CompletionStats{StopsCompleted: 3, TotalStops: 3, TimeMinutes: 50}, true, 1)
	if err := s.RecordEscapeCompletion(ctx, "user-1", adventure, result); err != nil {
		t.Fatalf("RecordEscapeCompletion() error = %v", err)
	}

	done, err := s.HasCompletedAdventure(ctx, "user-1", "adv-1")
	if err != nil {
		t.Fatalf("HasCompletedAdventure() error = %v", err)
	}
	if !done {
		t.Errorf("HasCompletedAdventure(adv-1) = false, want true after a completion")
	}

	done, err = s.HasCompletedAdventure(ctx, "user-1", "adv-2")
	if err != nil {
		t.Fatalf("HasCompletedAdventure() error = %v", err)
	}
	if done {
		t.Errorf("HasCompletedAdventure(adv-2) = true, want false for an uncredited adventure")
	}
}

func TestService_Redeem(t *testing.T) {
	repo := newMemRewardsRepo()
	s := NewService(repo)
	ctx := context.Background()

	if _, _, err := s.Redeem(ctx, "user-1", "does_not_exist"); !errors.Is(err, ErrUnknownReward) {
		t.Errorf("Redeem() error = %v, want %v", err, ErrUnknownReward)
	}

	if _, _, err := s.Redeem(ctx, "user-1", "soulmates_title"); !errors.Is(err, repositories.ErrInsufficientPoints) {
		t.Errorf("Redeem() error = %v, want %v", err, repositories.ErrInsufficientPoints)
	}

	repo.ledger("user-1").TotalPoints = 1000

	ledger, item, err := s.Redeem(ctx, "user-1", "soulmates_title")
	if err != nil {
		t.Fatalf("Redeem() error = %v", err)
	}
	if ledger.TotalPoints != 250 {
		t.Errorf("Redeem() TotalPoints = %v, want 250", ledger.TotalPoints)
	}
	if item.Kind != KindTitle {
		t.Errorf("Redeem() item kind = %v, want %v", item.Kind, KindTitle)
	}
	if repo.ledger("user-1").CoupleTitle != "Soulmates" {
		t.Errorf("CoupleTitle = %q, want %q", repo.ledger("user-1").CoupleTitle, "Soulmates")
	}

	if _, _, err := s.Redeem(ctx, "user-1", "soulmates_title"); !errors.Is(err, repositories.ErrAlreadyRedeemed) {
		t.Errorf("Redeem() repeat error = %v, want %v", err, repositories.ErrAlreadyRedeemed)
	}
}
