package escape

import (
	"errors"
	"time"

	"github.com/escapadeapp/escapade/escapade/database/models"
)

var (
	ErrStopLocked      = errors.New("stop is locked")
	ErrStopNotRevealed = errors.New("stop has not been revealed")
	ErrRunNotActive    = errors.New("run is not active")
	ErrUnknownStop     = errors.New("unknown stop")
)

type RunState string

const (
	RunNotStarted RunState = "not_started"
	RunInProgress RunState = "in_progress"
	RunComplete   RunState = "complete"
)

type StopState string

const (
	StopLocked    StopState = "locked"
	StopUnlocked  StopState = "unlocked"
	StopRevealed  StopState = "revealed"
	StopCompleted StopState = "completed"
)

// StopProgress is per-stop state within one run.
type StopProgress struct {
	StopID      string     `json:"stopId"`
	State       StopState  `json:"state"`
	HintUsed    bool       `json:"hintUsed"`
	RevealedAt  *time.Time `json:"revealedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Run tracks one user's attempt at an adventure. Stops unlock strictly in
// order: the first stop starts unlocked, each later one unlocks when its
// predecessor completes. Run is not safe for concurrent use; the session
// manager serializes access.
type Run struct {
	UserID      string          `json:"userId"`
	AdventureID string          `json:"adventureId"`
	State       RunState        `json:"state"`
	Stops       []*StopProgress `json:"stops"`
	HintsUsed   int             `json:"hintsUsed"`
	StartedAt   time.Time       `json:"startedAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}

// NewRun builds an in-progress run over the adventure's stops.
func NewRun(userID string, adventure *models.Adventure, now time.Time) *Run {
	run := &Run{
		UserID:      userID,
		AdventureID: adventure.ID,
		State:       RunInProgress,
		StartedAt:   now,
		Stops:       make([]*StopProgress, 0, len(adventure.Stops)),
	}

	for i, stop := range adventure.Stops {
		state := StopLocked
		if i == 0 {
			state = StopUnlocked
		}
		run.Stops = append(run.Stops, &StopProgress{
			StopID: stop.ID,
			State:  state,
		})
	}

	return run
}

func (r *Run) findStop(stopID string) (int, *StopProgress) {
	for i, s := range r.Stops {
		if s.StopID == stopID {
			return i, s
		}
	}
	return -1, nil
}

// RevealStop moves an unlocked stop to revealed. Revealing an already
// revealed or completed stop is a no-op.
func (r *Run) RevealStop(stopID string, now time.Time) error {
	if r.State != RunInProgress {
		return ErrRunNotActive
	}

	_, stop := r.findStop(stopID)
	if stop == nil {
		return ErrUnknownStop
	}

	switch stop.State {
	case StopLocked:
		return ErrStopLocked
	case StopUnlocked:
		stop.State = StopRevealed
		stop.RevealedAt = &now
	}
	return nil
}

// UseHint marks the stop's hint as consumed. A hint counts once per stop no
// matter how often it is viewed.
func (r *Run) UseHint(stopID string) error {
	if r.State != RunInProgress {
		return ErrRunNotActive
	}

	_, stop := r.findStop(stopID)
	if stop == nil {
		return ErrUnknownStop
	}
	if stop.State == StopLocked {
		return ErrStopLocked
	}
	if stop.State == StopUnlocked {
		return ErrStopNotRevealed
	}

	if !stop.HintUsed {
		stop.HintUsed = true
		r.HintsUsed++
	}
	return nil
}

// CompleteStop finishes a revealed stop and unlocks the next one. Completing
// the last stop completes the run. Repeat completions are no-ops so a flaky
// client cannot double-count.
func (r *Run) CompleteStop(stopID string, now time.Time) error {
	if r.State != RunInProgress {
		return ErrRunNotActive
	}

	i, stop := r.findStop(stopID)
	if stop == nil {
		return ErrUnknownStop
	}

	switch stop.State {
	case StopLocked:
		return ErrStopLocked
	case StopUnlocked:
		return ErrStopNotRevealed
	case StopCompleted:
		return nil
	}

	stop.State = StopCompleted
	stop.CompletedAt = &now

	if i+1 < len(r.Stops) {
		r.Stops[i+1].State = StopUnlocked
		return nil
	}

	r.State = RunComplete
	r.CompletedAt = &now
	return nil
}

// CompletedStops counts stops finished so far.
func (r *Run) CompletedStops() int {
	count := 0
	for _, s := range r.Stops {
		if s.State == StopCompleted {
			count++
		}
	}
	return count
}

// ElapsedMinutes reports run duration at now, or at completion once done.
func (r *Run) ElapsedMinutes(now time.Time) int {
	end := now
	if r.CompletedAt != nil {
		end = *r.CompletedAt
	}
	return int(end.Sub(r.StartedAt).Minutes())
}

// Stats snapshots the run for bonus scoring.
func (r *Run) Stats(now time.Time) CompletionStats {
	return CompletionStats{
		HintsUsed:      r.HintsUsed,
		TimeMinutes:    r.ElapsedMinutes(now),
		StopsCompleted: r.CompletedStops(),
		TotalStops:     len(r.Stops),
	}
}
