package entitlement

import (
	"testing"
	"time"

	"github.com/escapadeapp/escapade/escapade/database/models"
)

var testNow = time.Date(2025, 6, 15, 20, 0, 0, 0, time.UTC)

func pass(passType models.PassType, remaining int, expiresIn time.Duration, active bool) *models.Pass {
	return &models.Pass{
		ID:               string(passType) + "-test",
		UserID:           "user-1",
		PassType:         passType,
		PassCategory:     passType.Category(),
		ExpiresAt:        testNow.Add(expiresIn),
		IsActive:         active,
		EscapesRemaining: remaining,
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name          string
		passes        []*models.Pass
		wantGame      bool
		wantEscape    bool
		wantRemaining int
	}{
		{
			name:   "no passes",
			passes: nil,
		},
		{
			name:   "expired escape pass",
			passes: []*models.Pass{pass(models.PassEscape4to6, 3, -time.Hour, true)},
		},
		{
			name:   "deactivated escape pass",
			passes: []*models.Pass{pass(models.PassEscape4to6, 3, time.Hour, false)},
		},
		{
			name:          "escape pass with units",
			passes:        []*models.Pass{pass(models.PassEscape1to3, 2, 24 * time.Hour, true)},
			wantEscape:    true,
			wantRemaining: 2,
		},
		{
			name:   "escape pass drained",
			passes: []*models.Pass{pass(models.PassEscape1to3, 0, 24 * time.Hour, true)},
		},
		{
			name:          "large escape bundle grants game access",
			passes:        []*models.Pass{pass(models.PassEscape7to10, 8, 24 * time.Hour, true)},
			wantGame:      true,
			wantEscape:    true,
			wantRemaining: 8,
		},
		{
			name:     "drained large bundle keeps game access",
			passes:   []*models.Pass{pass(models.PassEscape7to10, 0, 24 * time.Hour, true)},
			wantGame: true,
		},
		{
			name:     "game pass grants game only",
			passes:   []*models.Pass{pass(models.PassGame14d, 0, 24 * time.Hour, true)},
			wantGame: true,
		},
		{
			name:     "free trial grants game only",
			passes:   []*models.Pass{pass(models.PassGame30dFree, 0, 24 * time.Hour, true)},
			wantGame: true,
		},
		{
			name:          "annual pass grants everything unlimited",
			passes:        []*models.Pass{pass(models.PassLegacyYear, 0, 300 * 24 * time.Hour, true)},
			wantGame:      true,
			wantEscape:    true,
			wantRemaining: models.UnlimitedEscapes,
		},
		{
			name:          "day pass grants everything unlimited",
			passes:        []*models.Pass{pass(models.PassLegacyDay, 0, 12 * time.Hour, true)},
			wantGame:      true,
			wantEscape:    true,
			wantRemaining: models.UnlimitedEscapes,
		},
		{
			name: "two bundles report the later-expiring pass's count",
			passes: []*models.Pass{
				pass(models.PassEscape1to3, 1, 24 * time.Hour, true),
				pass(models.PassEscape4to6, 4, 48 * time.Hour, true),
			},
			wantEscape:    true,
			wantRemaining: 4,
		},
		{
			name: "unlimited wins over counted",
			passes: []*models.Pass{
				pass(models.PassEscape4to6, 4, 48 * time.Hour, true),
				pass(models.PassLegacyYear, 0, 300 * 24 * time.Hour, true),
			},
			wantGame:      true,
			wantEscape:    true,
			wantRemaining: models.UnlimitedEscapes,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.passes, testNow)
			if got.HasGameAccess != tt.wantGame {
				t.Errorf("Resolve() HasGameAccess = %v, want %v", got.HasGameAccess, tt.wantGame)
			}
			if got.HasEscapeAccess != tt.wantEscape {
				t.Errorf("Resolve() HasEscapeAccess = %v, want %v", got.HasEscapeAccess, tt.wantEscape)
			}
			if got.EscapesRemaining != tt.wantRemaining {
				t.Errorf("Resolve() EscapesRemaining = %v, want %v", got.EscapesRemaining, tt.wantRemaining)
			}
		})
	}
}

func TestResolve_ActivePassPrefersLatestExpiry(t *testing.T) {
	early := pass(models.PassEscape1to3, 1, 24*time.Hour, true)
	late := pass(models.PassEscape4to6, 4, 72*time.Hour, true)

	got := Resolve([]*models.Pass{early, late}, testNow)
	if got.ActivePass != late {
		t.Errorf("Resolve() ActivePass = %v, want the later-expiring pass", got.ActivePass)
	}
	if got.EscapesRemaining != 4 {
		t.Errorf("Resolve() EscapesRemaining = %v, want the active pass's 4", got.EscapesRemaining)
	}

	// Order independent
	got = Resolve([]*models.Pass{late, early}, testNow)
	if got.ActivePass != late {
		t.Errorf("Resolve() ActivePass = %v, want the later-expiring pass", got.ActivePass)
	}
	if got.EscapesRemaining != 4 {
		t.Errorf("Resolve() EscapesRemaining = %v, want the active pass's 4", got.EscapesRemaining)
	}
}

func TestConsumablePass(t *testing.T) {
	counted := pass(models.PassEscape4to6, 4, 48*time.Hour, true)
	drained := pass(models.PassEscape1to3, 0, 48*time.Hour, true)
	unlimited := pass(models.PassLegacyWknd, 0, 36*time.Hour, true)

	tests := []struct {
		name   string
		passes []*models.Pass
		want   *models.Pass
	}{
		{name: "nothing", passes: nil, want: nil},
		{name: "drained only", passes: []*models.Pass{drained}, want: nil},
		{name: "counted", passes: []*models.Pass{drained, counted}, want: counted},
		{name: "unlimited preferred over counted", passes: []*models.Pass{counted, unlimited}, want: unlimited},
		{name: "game pass never consumable", passes: []*models.Pass{pass(models.PassGame14d, 0, 48 * time.Hour, true)}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ConsumablePass(tt.passes, testNow); got != tt.want {
				t.Errorf("ConsumablePass() = %v, want %v", got, tt.want)
			}
		})
	}
}
