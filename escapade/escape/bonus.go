package escape

import (
	"fmt"
	"math"
)

const (
	basePoints       = 100
	pointsPerStop    = 25
	fastTimeBonus    = 50
	goodTimeBonus    = 25
	fastTimeLimitMin = 60
	goodTimeLimitMin = 90
	noHintsBonus     = 50
	fewHintsBonus    = 25
	fewHintsLimit    = 2
	perfectRunBonus  = 100
	firstEscapeBonus = 200
)

// CompletionStats is what the client reports when an escape run finishes.
type CompletionStats struct {
	HintsUsed      int
	TimeMinutes    int
	StopsCompleted int
	TotalStops     int
}

// BonusResult is the scored outcome of a completed escape.
type BonusResult struct {
	BasePoints    int      `json:"basePoints"`
	StopPoints    int      `json:"stopPoints"`
	TimeBonus     int      `json:"timeBonus"`
	HintsBonus    int      `json:"hintsBonus"`
	PerfectBonus  int      `json:"perfectBonus"`
	FirstBonus    int      `json:"firstBonus"`
	Multiplier    float64  `json:"multiplier"`
	TotalPoints   int      `json:"totalPoints"`
	Breakdown     []string `json:"breakdown"`
	IsFirstEscape bool     `json:"isFirstEscape"`
}

// ComputeBonus scores a completed escape. firstEscape marks the user's first
// ever completion; multiplier < 1 is treated as 1.
func ComputeBonus(stats CompletionStats, firstEscape bool, multiplier float64) BonusResult {
	if multiplier < 1 {
		multiplier = 1
	}

	result := BonusResult{
		BasePoints:    basePoints,
		StopPoints:    stats.StopsCompleted * pointsPerStop,
		Multiplier:    multiplier,
		IsFirstEscape: firstEscape,
	}

	switch {
	case stats.TimeMinutes <= fastTimeLimitMin:
		result.TimeBonus = fastTimeBonus
	case stats.TimeMinutes <= goodTimeLimitMin:
		result.TimeBonus = goodTimeBonus
	}

	switch {
	case stats.HintsUsed == 0:
		result.HintsBonus = noHintsBonus
	case stats.HintsUsed <= fewHintsLimit:
		result.HintsBonus = fewHintsBonus
	}

	if stats.TimeMinutes <= fastTimeLimitMin && stats.HintsUsed == 0 {
		result.PerfectBonus = perfectRunBonus
	}

	if firstEscape {
		result.FirstBonus = firstEscapeBonus
	}

	subtotal := result.BasePoints + result.StopPoints + result.TimeBonus +
		result.HintsBonus + result.PerfectBonus + result.FirstBonus
	result.TotalPoints = int(math.Round(float64(subtotal) * multiplier))

	result.Breakdown = append(result.Breakdown, fmt.Sprintf("Escape completed: +%d", result.BasePoints))
	if result.StopPoints > 0 {
		result.Breakdown = append(result.Breakdown,
			fmt.Sprintf("%d stops completed: +%d", stats.StopsCompleted, result.StopPoints))
	}
	if result.TimeBonus > 0 {
		result.Breakdown = append(result.Breakdown, fmt.Sprintf("Speed bonus: +%d", result.TimeBonus))
	}
	if result.HintsBonus > 0 {
		result.Breakdown = append(result.Breakdown, fmt.Sprintf("Hints bonus: +%d", result.HintsBonus))
	}
	if result.PerfectBonus > 0 {
		result.Breakdown = append(result.Breakdown, fmt.Sprintf("Perfect run: +%d", result.PerfectBonus))
	}
	if result.FirstBonus > 0 {
		result.Breakdown = append(result.Breakdown, fmt.Sprintf("First escape: +%d", result.FirstBonus))
	}
	if multiplier > 1 {
		result.Breakdown = append(result.Breakdown, fmt.Sprintf("Multiplier x%.1f applied", multiplier))
	}

	return result
}
