package escape

import (
	"reflect"
	"testing"
)

func TestComputeBonus(t *testing.T) {
	tests := []struct {
		name        string
		stats       CompletionStats
		firstEscape bool
		multiplier  float64
		wantTotal   int
	}{
		{
			name:      "slow run with many hints scores base plus stops",
			stats:     CompletionStats{HintsUsed: 5, TimeMinutes: 120, StopsCompleted: 3, TotalStops: 3},
			wantTotal: 100 + 75,
		},
		{
			name:      "fast hintless run earns perfect bonus",
			stats:     CompletionStats{HintsUsed: 0, TimeMinutes: 45, StopsCompleted: 4, TotalStops: 4},
			wantTotal: 100 + 100 + 50 + 50 + 100,
		},
		{
			name:      "mid-tier time and hints",
			stats:     CompletionStats{HintsUsed: 2, TimeMinutes: 75, StopsCompleted: 3, TotalStops: 4},
			wantTotal: 100 + 75 + 25 + 25,
		},
		{
			name:      "no hints but slow is not perfect",
			stats:     CompletionStats{HintsUsed: 0, TimeMinutes: 80, StopsCompleted: 2, TotalStops: 3},
			wantTotal: 100 + 50 + 25 + 50,
		},
		{
			name:        "first escape adds flat bonus",
			stats:       CompletionStats{HintsUsed: 5, TimeMinutes: 120, StopsCompleted: 1, TotalStops: 3},
			firstEscape: true,
			wantTotal:   100 + 25 + 200,
		},
		{
			name:       "multiplier scales the whole total",
			stats:      CompletionStats{HintsUsed: 0, TimeMinutes: 45, StopsCompleted: 4, TotalStops: 4},
			multiplier: 2.5,
			wantTotal:  1000,
		},
		{
			name:       "multiplier below one is ignored",
			stats:      CompletionStats{HintsUsed: 5, TimeMinutes: 120, StopsCompleted: 0, TotalStops: 3},
			multiplier: 0.5,
			wantTotal:  100,
		},
		{
			name:       "fractional totals round to nearest",
			stats:      CompletionStats{HintsUsed: 5, TimeMinutes: 120, StopsCompleted: 1, TotalStops: 3},
			multiplier: 1.5,
			wantTotal:  188, // 125 * 1.5 = 187.5
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeBonus(tt.stats, tt.firstEscape, tt.multiplier)
			if got.TotalPoints != tt.wantTotal {
				t.Errorf("ComputeBonus() TotalPoints = %v, want %v", got.TotalPoints, tt.wantTotal)
			}
			if got.IsFirstEscape != tt.firstEscape {
				t.Errorf("ComputeBonus() IsFirstEscape = %v, want %v", got.IsFirstEscape, tt.firstEscape)
			}
		})
	}
}

func TestComputeBonus_Breakdown(t *testing.T) {
	got := ComputeBonus(CompletionStats{HintsUsed: 0, TimeMinutes: 45, StopsCompleted: 2, TotalStops: 2}, true, 2.0)

	want := []string{
		"Escape completed: +100",
		"2 stops completed: +50",
		"Speed bonus: +50",
		"Hints bonus: +50",
		"Perfect run: +100",
		"First escape: +200",
		"Multiplier x2.0 applied",
	}
	if !reflect.DeepEqual(got.Breakdown, want) {
		t.Errorf("ComputeBonus() Breakdown = %v, want %v", got.Breakdown, want)
	}

	if got.TotalPoints != 1100 {
		t.Errorf("ComputeBonus() TotalPoints = %v, want %v", got.TotalPoints, 1100)
	}
}
