package escape

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/escapadeapp/escapade/escapade/database/models"
	"github.com/escapadeapp/escapade/escapade/database/repositories"
)

type fakePassStore struct {
	passes   []*models.Pass
	consumed []string
}

func (f *fakePassStore) GetUserPasses(ctx context.Context, userID string) ([]*models.Pass, error) {
	return f.passes, nil
}

func (f *fakePassStore) ConsumeEscapeUnit(ctx context.Context, passID string, now time.Time) (*models.Pass, error) {
	for _, p := range f.passes {
		if p.ID != passID {
			continue
		}
		if !p.IsUnlimited() {
			if p.EscapesRemaining <= 0 {
				return nil, repositories.ErrNoEscapesRemaining
			}
			p.EscapesRemaining--
		}
		if p.ActivatedAt == nil {
			activated := now
			p.ActivatedAt = &activated
			p.ExpiresAt = now.Add(p.PassType.Duration())
		}
		f.consumed = append(f.consumed, passID)
		return p, nil
	}
	return nil, repositories.ErrPassNotFound
}

type fakeAdventureStore struct {
	adventure *models.Adventure
}

func (f *fakeAdventureStore) GetByID(ctx context.Context, id string) (*models.Adventure, error) {
	if f.adventure == nil || f.adventure.ID != id {
		return nil, repositories.ErrAdventureNotFound
	}
	return f.adventure, nil
}

type fakeScorekeeper struct {
	multiplier  float64
	firstEscape bool
	recorded    []BonusResult
	completed   []string
}

func (f *fakeScorekeeper) MultiplierFor(ctx context.Context, userID string, now time.Time) (float64, string, error) {
	if f.multiplier == 0 {
		return 1, "", nil
	}
	return f.multiplier, "special date", nil
}

func (f *fakeScorekeeper) IsFirstEscape(ctx context.Context, userID string) (bool, error) {
	return f.firstEscape, nil
}

func (f *fakeScorekeeper) HasCompletedAdventure(ctx context.Context, userID, adventureID string) (bool, error) {
	for _, id := range f.completed {
		if id == adventureID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeScorekeeper) RecordEscapeCompletion(ctx context.Context, userID string, adventure *models.Adventure, result BonusResult) error {
	f.recorded = append(f.recorded, result)
	f.completed = append(f.completed, adventure.ID)
	return nil
}

func newTestCoordinator(passes *fakePassStore, scores *fakeScorekeeper) *Coordinator {
	c := NewCoordinator(passes, &fakeAdventureStore{adventure: testAdventure(3)}, scores, NewSessionManager())
	c.now = func() time.Time { return testClock }
	return c
}

var testClock = time.Date(2025, 6, 15, 19, 0, 0, 0, time.UTC)

func currentPass(passType models.PassType, remaining int) *models.Pass {
	return &models.Pass{
		ID:               "pass-" + string(passType),
		UserID:           "user-1",
		PassType:         passType,
		PassCategory:     passType.Category(),
		ExpiresAt:        testClock.Add(48 * time.Hour),
		IsActive:         true,
		EscapesRemaining: remaining,
	}
}

func TestCoordinator_Start(t *testing.T) {
	passes := &fakePassStore{passes: []*models.Pass{currentPass(models.PassEscape4to6, 4)}}
	c := newTestCoordinator(passes, &fakeScorekeeper{})

	result, err := c.Start(context.Background(), "user-1", "adv-1")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if result.EscapesRemaining != 3 {
		t.Errorf("Start() EscapesRemaining = %v, want 3", result.EscapesRemaining)
	}
	if !result.FirstUse {
		t.Errorf("Start() FirstUse = false, want true for unactivated pass")
	}
	if result.Run == nil || result.Run.State != RunInProgress {
		t.Fatalf("Start() run not in progress: %+v", result.Run)
	}
	if got, _ := c.ActiveRun("user-1"); got != result.Run {
		t.Errorf("ActiveRun() = %v, want started run", got)
	}
}

func TestCoordinator_Start_FirstUseAnchorsWindow(t *testing.T) {
	pass := currentPass(models.PassEscape1to3, 2)
	passes := &fakePassStore{passes: []*models.Pass{pass}}
	c := newTestCoordinator(passes, &fakeScorekeeper{})

	if _, err := c.Start(context.Background(), "user-1", "adv-1"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if pass.ActivatedAt == nil || !pass.ActivatedAt.Equal(testClock) {
		t.Errorf("ActivatedAt = %v, want %v", pass.ActivatedAt, testClock)
	}
	if want := testClock.Add(30 * 24 * time.Hour); !pass.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", pass.ExpiresAt, want)
	}
}

func TestCoordinator_Start_UnlimitedPassNeverDecrements(t *testing.T) {
	pass := currentPass(models.PassLegacyYear, 0)
	activated := testClock.Add(-time.Hour)
	pass.ActivatedAt = &activated
	passes := &fakePassStore{passes: []*models.Pass{pass}}
	c := newTestCoordinator(passes, &fakeScorekeeper{})

	result, err := c.Start(context.Background(), "user-1", "adv-1")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if result.EscapesRemaining != models.UnlimitedEscapes {
		t.Errorf("Start() EscapesRemaining = %v, want %v", result.EscapesRemaining, models.UnlimitedEscapes)
	}
}

func TestCoordinator_Start_DenialReasons(t *testing.T) {
	expired := currentPass(models.PassEscape1to3, 2)
	expired.ExpiresAt = testClock.Add(-time.Hour)
	drained := currentPass(models.PassEscape1to3, 0)

	tests := []struct {
		name    string
		passes  []*models.Pass
		wantErr error
	}{
		{name: "no passes at all", passes: nil, wantErr: ErrNoActivePass},
		{name: "only game pass", passes: []*models.Pass{currentPass(models.PassGame14d, 0)}, wantErr: ErrNoActivePass},
		{name: "escape pass expired", passes: []*models.Pass{expired}, wantErr: ErrPassExpired},
		{name: "escape pass drained", passes: []*models.Pass{drained}, wantErr: ErrNoEscapes},
		{name: "drained current beats expired", passes: []*models.Pass{expired, drained}, wantErr: ErrNoEscapes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCoordinator(&fakePassStore{passes: tt.passes}, &fakeScorekeeper{})
			_, err := c.Start(context.Background(), "user-1", "adv-1")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Start() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCoordinator_Start_InFlightLock(t *testing.T) {
	passes := &fakePassStore{passes: []*models.Pass{currentPass(models.PassEscape4to6, 4)}}
	c := newTestCoordinator(passes, &fakeScorekeeper{})

	if !c.sessions.TryLockStart("user-1") {
		t.Fatal("TryLockStart() = false, want true")
	}
	if _, err := c.Start(context.Background(), "user-1", "adv-1"); !errors.Is(err, ErrStartInFlight) {
		t.Errorf("Start() error = %v, want %v", err, ErrStartInFlight)
	}

	c.sessions.ReleaseStart("user-1")
	if _, err := c.Start(context.Background(), "user-1", "adv-1"); err != nil {
		t.Errorf("Start() after release error = %v", err)
	}
}

func TestCoordinator_Complete_UsesServerRunStats(t *testing.T) {
	passes := &fakePassStore{passes: []*models.Pass{currentPass(models.PassEscape4to6, 4)}}
	scores := &fakeScorekeeper{firstEscape: true}
	c := newTestCoordinator(passes, scores)

	result, err := c.Start(context.Background(), "user-1", "adv-1")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	for _, sp := range result.Run.Stops {
		if _, err := c.Reveal(context.Background(), "user-1", sp.StopID); err != nil {
			t.Fatalf("Reveal() error = %v", err)
		}
		if _, completedNow, err := c.CompleteStop(context.Background(), "user-1", sp.StopID); err != nil || !completedNow {
			t.Fatalf("CompleteStop() = (%v, %v), want a fresh completion", completedNow, err)
		}
		if _, completedNow, err := c.CompleteStop(context.Background(), "user-1", sp.StopID); err != nil || completedNow {
			t.Fatalf("CompleteStop() replay = (%v, %v), want a no-op", completedNow, err)
		}
	}

	// Client lies about its stats; the server run wins
	lied := CompletionStats{HintsUsed: 0, TimeMinutes: 1, StopsCompleted: 10, TotalStops: 10}
	bonus, err := c.Complete(context.Background(), "user-1", "adv-1", lied)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	// 100 base + 3*25 stops + 50 time + 50 hints + 100 perfect + 200 first
	if bonus.TotalPoints != 575 {
		t.Errorf("Complete() TotalPoints = %v, want 575", bonus.TotalPoints)
	}
	if len(scores.recorded) != 1 {
		t.Fatalf("RecordEscapeCompletion called %d times, want 1", len(scores.recorded))
	}
	if _, err := c.ActiveRun("user-1"); !errors.Is(err, ErrNoActiveRun) {
		t.Errorf("ActiveRun() after completion error = %v, want %v", err, ErrNoActiveRun)
	}
}

func TestCoordinator_Complete_RejectsUnfinishedRun(t *testing.T) {
	passes := &fakePassStore{passes: []*models.Pass{currentPass(models.PassEscape4to6, 4)}}
	scores := &fakeScorekeeper{}
	c := newTestCoordinator(passes, scores)

	result, err := c.Start(context.Background(), "user-1", "adv-1")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// Two of three stops done; the run is still in progress
	for _, sp := range result.Run.Stops[:2] {
		if _, err := c.Reveal(context.Background(), "user-1", sp.StopID); err != nil {
			t.Fatalf("Reveal() error = %v", err)
		}
		if _, _, err := c.CompleteStop(context.Background(), "user-1", sp.StopID); err != nil {
			t.Fatalf("CompleteStop() error = %v", err)
		}
	}

	claimed := CompletionStats{TimeMinutes: 1, StopsCompleted: 3, TotalStops: 3}
	if _, err := c.Complete(context.Background(), "user-1", "adv-1", claimed); !errors.Is(err, ErrRunNotComplete) {
		t.Fatalf("Complete() error = %v, want %v", err, ErrRunNotComplete)
	}
	if len(scores.recorded) != 0 {
		t.Errorf("RecordEscapeCompletion called %d times, want 0", len(scores.recorded))
	}
	if _, err := c.ActiveRun("user-1"); err != nil {
		t.Errorf("ActiveRun() after rejected completion error = %v, want the run kept", err)
	}
}

func TestCoordinator_Complete_RejectsRepeatCredit(t *testing.T) {
	passes := &fakePassStore{passes: []*models.Pass{currentPass(models.PassEscape4to6, 4)}}
	scores := &fakeScorekeeper{}
	c := newTestCoordinator(passes, scores)

	result, err := c.Start(context.Background(), "user-1", "adv-1")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	for _, sp := range result.Run.Stops {
		if _, err := c.Reveal(context.Background(), "user-1", sp.StopID); err != nil {
			t.Fatalf("Reveal() error = %v", err)
		}
		if _, _, err := c.CompleteStop(context.Background(), "user-1", sp.StopID); err != nil {
			t.Fatalf("CompleteStop() error = %v", err)
		}
	}

	stats := CompletionStats{TimeMinutes: 45, StopsCompleted: 3, TotalStops: 3}
	if _, err := c.Complete(context.Background(), "user-1", "adv-1", stats); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	// The run is gone, so the retry hits the ledger check
	if _, err := c.Complete(context.Background(), "user-1", "adv-1", stats); !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("Complete() retry error = %v, want %v", err, ErrAlreadyCompleted)
	}
	if len(scores.recorded) != 1 {
		t.Errorf("RecordEscapeCompletion called %d times, want 1", len(scores.recorded))
	}
}

func TestCoordinator_Complete_FallsBackToReportedStats(t *testing.T) {
	scores := &fakeScorekeeper{multiplier: 2.5}
	c := newTestCoordinator(&fakePassStore{}, scores)

	reported := CompletionStats{HintsUsed: 1, TimeMinutes: 70, StopsCompleted: 3, TotalStops: 3}
	bonus, err := c.Complete(context.Background(), "user-1", "adv-1", reported)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	// (100 + 75 + 25 + 25) * 2.5
	if bonus.TotalPoints != 563 {
		t.Errorf("Complete() TotalPoints = %v, want 563", bonus.TotalPoints)
	}
}
