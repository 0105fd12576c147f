package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/escapadeapp/escapade/escapade/database/repositories"
	"github.com/escapadeapp/escapade/escapade/escape"
)

type startEscapeRequest struct {
	AdventureID string `json:"adventureId"`
}

type completeEscapeRequest struct {
	AdventureID    string `json:"adventureId"`
	HintsUsed      int    `json:"hintsUsed"`
	TimeMinutes    int    `json:"timeMinutes"`
	StopsCompleted int    `json:"stopsCompleted"`
	TotalStops     int    `json:"totalStops"`
}

// sendEscapeError maps coordinator sentinels to the stable wire codes the
// client switches on.
func sendEscapeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, escape.ErrNoActivePass):
		return sendDomainError(c, fiber.StatusForbidden, "no_pass", "No active pass. Purchase a pass to start an escape.")
	case errors.Is(err, escape.ErrPassExpired):
		return sendDomainError(c, fiber.StatusForbidden, "pass_expired", "Your pass has expired.")
	case errors.Is(err, escape.ErrNoEscapes):
		return sendDomainError(c, fiber.StatusForbidden, "no_escapes", "No escapes remaining on your pass.")
	case errors.Is(err, escape.ErrStartInFlight):
		return sendDomainError(c, fiber.StatusConflict, "start_in_flight", "An escape start is already in progress.")
	case errors.Is(err, escape.ErrNoActiveRun):
		return sendDomainError(c, fiber.StatusNotFound, "no_active_run", "No escape in progress.")
	case errors.Is(err, escape.ErrRunNotActive):
		return sendDomainError(c, fiber.StatusConflict, "run_not_active", "This escape has already finished.")
	case errors.Is(err, escape.ErrStopLocked):
		return sendDomainError(c, fiber.StatusConflict, "stop_locked", "Complete the previous stop first.")
	case errors.Is(err, escape.ErrStopNotRevealed):
		return sendDomainError(c, fiber.StatusConflict, "stop_not_revealed", "Reveal the stop before acting on it.")
	case errors.Is(err, escape.ErrUnknownStop):
		return sendDomainError(c, fiber.StatusNotFound, "unknown_stop", "Stop does not belong to this adventure.")
	case errors.Is(err, escape.ErrRunNotComplete):
		return sendDomainError(c, fiber.StatusConflict, "run_not_complete", "Finish every stop before completing the escape.")
	case errors.Is(err, escape.ErrAlreadyCompleted):
		return sendDomainError(c, fiber.StatusConflict, "already_completed", "This escape has already been credited.")
	case errors.Is(err, repositories.ErrAdventureNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Adventure not found")
	default:
		return err
	}
}

func (s *Server) handleStartEscape(c *fiber.Ctx) error {
	var req startEscapeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.AdventureID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "adventureId is required")
	}

	result, err := s.coordinator.Start(c.Context(), UserID(c), req.AdventureID)
	if err != nil {
		return sendEscapeError(c, err)
	}

	return sendSuccess(c, fiber.Map{
		"run":              result.Run,
		"passType":         result.Pass.PassType,
		"firstUse":         result.FirstUse,
		"escapesRemaining": result.EscapesRemaining,
		"expiresAt":        result.Pass.ExpiresAt,
	})
}

func (s *Server) handleGetRun(c *fiber.Ctx) error {
	run, err := s.coordinator.ActiveRun(UserID(c))
	if err != nil {
		return sendEscapeError(c, err)
	}
	return sendSuccess(c, fiber.Map{"run": run})
}

func (s *Server) handleRevealStop(c *fiber.Ctx) error {
	run, err := s.coordinator.Reveal(c.Context(), UserID(c), c.Params("stopID"))
	if err != nil {
		return sendEscapeError(c, err)
	}
	return sendSuccess(c, fiber.Map{"run": run})
}

func (s *Server) handleUseHint(c *fiber.Ctx) error {
	run, err := s.coordinator.UseHint(c.Context(), UserID(c), c.Params("stopID"))
	if err != nil {
		return sendEscapeError(c, err)
	}
	return sendSuccess(c, fiber.Map{"run": run, "hintsUsed": run.HintsUsed})
}

func (s *Server) handleCompleteStop(c *fiber.Ctx) error {
	userID := UserID(c)
	run, completedNow, err := s.coordinator.CompleteStop(c.Context(), userID, c.Params("stopID"))
	if err != nil {
		return sendEscapeError(c, err)
	}

	// Stop completions earn a small credit right away; replays do not
	if completedNow {
		if _, err := s.rewards.EarnAction(c.Context(), userID, "stop_complete", "Completed a stop", run.AdventureID, nowUTC()); err != nil {
			return err
		}
	}

	return sendSuccess(c, fiber.Map{"run": run, "runComplete": run.State == escape.RunComplete})
}

func (s *Server) handleCompleteEscape(c *fiber.Ctx) error {
	var req completeEscapeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.AdventureID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "adventureId is required")
	}

	userID := UserID(c)
	stats := escape.CompletionStats{
		HintsUsed:      req.HintsUsed,
		TimeMinutes:    req.TimeMinutes,
		StopsCompleted: req.StopsCompleted,
		TotalStops:     req.TotalStops,
	}

	result, err := s.coordinator.Complete(c.Context(), userID, req.AdventureID, stats)
	if err != nil {
		return sendEscapeError(c, err)
	}

	unlocked, err := s.tracker.RecordEscapeCompleted(c.Context(), userID, req.AdventureID, result.TotalPoints)
	if err != nil {
		return err
	}

	return sendSuccess(c, fiber.Map{
		"bonusPoints":        result,
		"isFirstEscape":      result.IsFirstEscape,
		"achievementsEarned": unlocked,
	})
}
