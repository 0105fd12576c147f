package escape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/escapadeapp/escapade/escapade/database/models"
	"github.com/escapadeapp/escapade/escapade/database/repositories"
	"github.com/escapadeapp/escapade/escapade/entitlement"
)

var (
	ErrNoActivePass     = errors.New("no active pass")
	ErrPassExpired      = errors.New("pass expired")
	ErrNoEscapes        = errors.New("no escapes remaining")
	ErrStartInFlight    = errors.New("start already in progress")
	ErrNoActiveRun      = errors.New("no active run")
	ErrRunNotComplete   = errors.New("run has unfinished stops")
	ErrAlreadyCompleted = errors.New("escape already completed")
)

// PassStore is the slice of the pass repository the coordinator needs.
type PassStore interface {
	GetUserPasses(ctx context.Context, userID string) ([]*models.Pass, error)
	ConsumeEscapeUnit(ctx context.Context, passID string, now time.Time) (*models.Pass, error)
}

// AdventureStore loads catalog content for run construction.
type AdventureStore interface {
	GetByID(ctx context.Context, id string) (*models.Adventure, error)
}

// Scorekeeper resolves multipliers and records completed escapes in the
// rewards ledger.
type Scorekeeper interface {
	MultiplierFor(ctx context.Context, userID string, now time.Time) (float64, string, error)
	IsFirstEscape(ctx context.Context, userID string) (bool, error)
	HasCompletedAdventure(ctx context.Context, userID, adventureID string) (bool, error)
	RecordEscapeCompletion(ctx context.Context, userID string, adventure *models.Adventure, result BonusResult) error
}

// StartResult reports a successful escape start.
type StartResult struct {
	Run              *Run
	Pass             *models.Pass
	FirstUse         bool
	EscapesRemaining int
}

// Coordinator owns the escape lifecycle: entitlement check, unit
// consumption, run tracking and completion scoring.
type Coordinator struct {
	passes     PassStore
	adventures AdventureStore
	scores     Scorekeeper
	sessions   *SessionManager
	now        func() time.Time
}

func NewCoordinator(passes PassStore, adventures AdventureStore, scores Scorekeeper, sessions *SessionManager) *Coordinator {
	return &Coordinator{
		passes:     passes,
		adventures: adventures,
		scores:     scores,
		sessions:   sessions,
		now:        time.Now,
	}
}

// Start consumes one escape unit and opens a run for the adventure. Pass
// problems surface as sentinel errors so the transport can map them to
// stable wire codes.
func (c *Coordinator) Start(ctx context.Context, userID, adventureID string) (*StartResult, error) {
	if !c.sessions.TryLockStart(userID) {
		return nil, ErrStartInFlight
	}
	defer c.sessions.ReleaseStart(userID)

	adventure, err := c.adventures.GetByID(ctx, adventureID)
	if err != nil {
		return nil, err
	}

	now := c.now()
	passes, err := c.passes.GetUserPasses(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load passes: %w", err)
	}

	candidate := entitlement.ConsumablePass(passes, now)
	if candidate == nil {
		return nil, c.classifyDenial(passes, now)
	}

	firstUse := candidate.ActivatedAt == nil

	consumed, err := c.passes.ConsumeEscapeUnit(ctx, candidate.ID, now)
	if err != nil {
		if errors.Is(err, repositories.ErrNoEscapesRemaining) {
			// Lost a race with another device on the same account
			return nil, ErrNoEscapes
		}
		return nil, err
	}

	run := NewRun(userID, adventure, now)
	c.sessions.PutRun(run)

	remaining := consumed.EscapesRemaining
	if consumed.IsUnlimited() {
		remaining = models.UnlimitedEscapes
	}

	slog.Info("Escape started",
		slog.String("type", "system"),
		slog.String("user_id", userID),
		slog.String("adventure_id", adventureID),
		slog.String("pass_type", string(consumed.PassType)),
		slog.Bool("first_use", firstUse),
		slog.Int("escapes_remaining", remaining))

	return &StartResult{
		Run:              run,
		Pass:             consumed,
		FirstUse:         firstUse,
		EscapesRemaining: remaining,
	}, nil
}

// classifyDenial picks the most specific reason no pass could be consumed.
// Drained beats expired: a user holding a current-but-empty bundle should be
// told to buy escapes, not that their pass lapsed.
func (c *Coordinator) classifyDenial(passes []*models.Pass, now time.Time) error {
	hadEscapePass := false
	for _, pass := range passes {
		if pass.PassType.Category() == models.CategoryGame {
			continue
		}
		hadEscapePass = true
		if pass.IsCurrent(now) {
			return ErrNoEscapes
		}
	}
	if hadEscapePass {
		return ErrPassExpired
	}
	return ErrNoActivePass
}

// Reveal marks a stop revealed in the user's active run.
func (c *Coordinator) Reveal(ctx context.Context, userID, stopID string) (*Run, error) {
	return c.withActiveRun(userID, func(run *Run) error {
		return run.RevealStop(stopID, c.now())
	})
}

// UseHint consumes the hint for a revealed stop.
func (c *Coordinator) UseHint(ctx context.Context, userID, stopID string) (*Run, error) {
	return c.withActiveRun(userID, func(run *Run) error {
		return run.UseHint(stopID)
	})
}

// CompleteStop finishes a stop and unlocks the next one. The bool reports
// whether this call did the completing; replays return false so callers do
// not credit the same stop twice.
func (c *Coordinator) CompleteStop(ctx context.Context, userID, stopID string) (*Run, bool, error) {
	completedNow := false
	run, err := c.withActiveRun(userID, func(run *Run) error {
		before := run.CompletedStops()
		if err := run.CompleteStop(stopID, c.now()); err != nil {
			return err
		}
		completedNow = run.CompletedStops() > before
		return nil
	})
	return run, completedNow, err
}

func (c *Coordinator) withActiveRun(userID string, fn func(*Run) error) (*Run, error) {
	var snapshot *Run
	found, err := c.sessions.WithRun(userID, func(run *Run) error {
		if err := fn(run); err != nil {
			return err
		}
		snapshot = run
		return nil
	})
	if !found {
		return nil, ErrNoActiveRun
	}
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// ActiveRun returns the user's in-memory run, or ErrNoActiveRun.
func (c *Coordinator) ActiveRun(userID string) (*Run, error) {
	run := c.sessions.GetRun(userID)
	if run == nil {
		return nil, ErrNoActiveRun
	}
	return run, nil
}

// ActiveRunCount reports how many runs are currently tracked in memory.
func (c *Coordinator) ActiveRunCount() int {
	return c.sessions.ActiveRuns()
}

// Complete scores the escape and credits the ledger once per run. When a
// server-side run exists its stats override the client-reported ones, and
// the run must have every stop finished. Without a run (server restart mid
// escape) self-reported numbers are accepted only for an adventure the
// ledger has never credited.
func (c *Coordinator) Complete(ctx context.Context, userID, adventureID string, reported CompletionStats) (BonusResult, error) {
	now := c.now()

	adventure, err := c.adventures.GetByID(ctx, adventureID)
	if err != nil {
		return BonusResult{}, err
	}

	stats := reported
	if run := c.sessions.GetRun(userID); run != nil && run.AdventureID == adventureID {
		if run.State != RunComplete {
			return BonusResult{}, ErrRunNotComplete
		}
		stats = run.Stats(now)
	} else {
		done, err := c.scores.HasCompletedAdventure(ctx, userID, adventureID)
		if err != nil {
			return BonusResult{}, fmt.Errorf("failed to check completion history: %w", err)
		}
		if done {
			return BonusResult{}, ErrAlreadyCompleted
		}
	}

	firstEscape, err := c.scores.IsFirstEscape(ctx, userID)
	if err != nil {
		return BonusResult{}, fmt.Errorf("failed to check escape history: %w", err)
	}

	multiplier, reason, err := c.scores.MultiplierFor(ctx, userID, now)
	if err != nil {
		return BonusResult{}, fmt.Errorf("failed to resolve multiplier: %w", err)
	}

	result := ComputeBonus(stats, firstEscape, multiplier)

	if err := c.scores.RecordEscapeCompletion(ctx, userID, adventure, result); err != nil {
		return BonusResult{}, fmt.Errorf("failed to record completion: %w", err)
	}

	c.sessions.DropRun(userID)

	slog.Info("Escape completed",
		slog.String("type", "system"),
		slog.String("user_id", userID),
		slog.String("adventure_id", adventureID),
		slog.Int("points", result.TotalPoints),
		slog.String("multiplier_reason", reason),
		slog.Bool("first_escape", firstEscape))

	return result, nil
}
