// Package entitlement decides what a set of purchased passes entitles a user
// to at a given instant. It is pure: callers load passes and supply the
// clock.
package entitlement

import (
	"time"

	"github.com/escapadeapp/escapade/escapade/database/models"
)

// Access is the resolved entitlement snapshot for one user.
type Access struct {
	HasGameAccess   bool
	HasEscapeAccess bool
	// EscapesRemaining is ActivePass's count, not a total across bundles.
	EscapesRemaining int
	// ActivePass is the pass that grants escape access, nil when none does.
	// With several granting passes the one expiring last wins.
	ActivePass *models.Pass
}

// Resolve computes access from the user's passes. Unknown pass types and
// expired or deactivated passes grant nothing, so a user with no rows gets
// the zero Access.
func Resolve(passes []*models.Pass, now time.Time) Access {
	var access Access

	for _, pass := range passes {
		if pass == nil || !pass.IsCurrent(now) {
			continue
		}

		switch pass.PassType {
		case models.PassLegacyYear, models.PassLegacyDay, models.PassLegacyWknd:
			access.HasGameAccess = true
			access.HasEscapeAccess = true
			access.ActivePass = betterEscapePass(access.ActivePass, pass)

		case models.PassEscape1to3, models.PassEscape4to6, models.PassEscape7to10:
			if pass.PassType == models.PassEscape7to10 {
				access.HasGameAccess = true
			}
			if pass.EscapesRemaining <= 0 {
				continue
			}
			access.HasEscapeAccess = true
			access.ActivePass = betterEscapePass(access.ActivePass, pass)

		case models.PassGame24h, models.PassGame14d, models.PassGame30dFree:
			access.HasGameAccess = true
		}
	}

	// The count shown is the representative pass's, not a sum over bundles
	if access.ActivePass != nil {
		if access.ActivePass.IsUnlimited() {
			access.EscapesRemaining = models.UnlimitedEscapes
		} else {
			access.EscapesRemaining = access.ActivePass.EscapesRemaining
		}
	}

	return access
}

// ConsumablePass returns the pass Resolve would spend an escape unit from,
// or nil when the user cannot start an escape. Unlimited passes are
// preferred since they cost nothing to spend from.
func ConsumablePass(passes []*models.Pass, now time.Time) *models.Pass {
	var unlimited, counted *models.Pass

	for _, pass := range passes {
		if pass == nil || !pass.IsCurrent(now) {
			continue
		}

		switch pass.PassType {
		case models.PassLegacyYear, models.PassLegacyDay, models.PassLegacyWknd:
			unlimited = betterEscapePass(unlimited, pass)
		case models.PassEscape1to3, models.PassEscape4to6, models.PassEscape7to10:
			if pass.EscapesRemaining > 0 {
				counted = betterEscapePass(counted, pass)
			}
		}
	}

	if unlimited != nil {
		return unlimited
	}
	return counted
}

func betterEscapePass(current, candidate *models.Pass) *models.Pass {
	if current == nil {
		return candidate
	}
	if candidate.ExpiresAt.After(current.ExpiresAt) {
		return candidate
	}
	return current
}
