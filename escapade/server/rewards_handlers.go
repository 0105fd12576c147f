package server

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/escapadeapp/escapade/escapade/database/models"
	"github.com/escapadeapp/escapade/escapade/database/repositories"
	"github.com/escapadeapp/escapade/escapade/rewards"
)

type earnPointsRequest struct {
	ActionType  string `json:"actionType"`
	Description string `json:"description"`
	AdventureID string `json:"adventureId"`
}

type redeemRewardRequest struct {
	RewardID string `json:"rewardId"`
}

type specialDateRequest struct {
	DateType  string `json:"dateType"`
	DateValue string `json:"dateValue"`
	Label     string `json:"label"`
}

func (s *Server) handleRewardsSnapshot(c *fiber.Ctx) error {
	snapshot, err := s.rewards.Snapshot(c.Context(), UserID(c))
	if err != nil {
		return err
	}
	return sendSuccess(c, fiber.Map{
		"rewards":      snapshot.Rewards,
		"history":      snapshot.History,
		"redeemed":     snapshot.Redeemed,
		"specialDates": snapshot.SpecialDates,
		"catalog":      snapshot.Catalog,
	})
}

func (s *Server) handleEarnPoints(c *fiber.Ctx) error {
	var req earnPointsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	ledger, err := s.rewards.EarnAction(c.Context(), UserID(c), req.ActionType, req.Description, req.AdventureID, nowUTC())
	if err != nil {
		if errors.Is(err, rewards.ErrUnknownAction) {
			return fiber.NewError(fiber.StatusBadRequest, "Unknown action type")
		}
		return err
	}

	return sendSuccess(c, fiber.Map{"rewards": ledger})
}

func (s *Server) handleRedeemReward(c *fiber.Ctx) error {
	var req redeemRewardRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	ledger, item, err := s.rewards.Redeem(c.Context(), UserID(c), req.RewardID)
	if err != nil {
		switch {
		case errors.Is(err, rewards.ErrUnknownReward):
			return fiber.NewError(fiber.StatusNotFound, "Unknown reward")
		case errors.Is(err, repositories.ErrInsufficientPoints):
			return sendDomainError(c, fiber.StatusConflict, "insufficient_points", "Not enough points for this reward.")
		case errors.Is(err, repositories.ErrAlreadyRedeemed):
			return sendDomainError(c, fiber.StatusConflict, "already_redeemed", "You already own this reward.")
		}
		return err
	}

	return sendSuccess(c, fiber.Map{
		"rewards": ledger,
		"item":    item,
	})
}

func (s *Server) handleSetSpecialDate(c *fiber.Ctx) error {
	var req specialDateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	value, err := time.Parse("2006-01-02", req.DateValue)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "dateValue must be YYYY-MM-DD")
	}

	if err := s.rewards.SetSpecialDate(c.Context(), UserID(c), models.SpecialDateType(req.DateType), value, req.Label); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return sendSuccess(c, fiber.Map{})
}

func (s *Server) handleDeleteSpecialDate(c *fiber.Ctx) error {
	dateType := models.SpecialDateType(c.Params("dateType"))
	if err := s.rewards.DeleteSpecialDate(c.Context(), UserID(c), dateType); err != nil {
		return err
	}
	return sendSuccess(c, fiber.Map{})
}

type titleBadgeRequest struct {
	Title string `json:"title"`
	Badge string `json:"badge"`
}

func (s *Server) handleUpdateTitleBadge(c *fiber.Ctx) error {
	var req titleBadgeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Title == "" && req.Badge == "" {
		return fiber.NewError(fiber.StatusBadRequest, "title or badge is required")
	}

	if err := s.rewards.UpdateTitleBadge(c.Context(), UserID(c), req.Title, req.Badge); err != nil {
		return err
	}
	return sendSuccess(c, fiber.Map{})
}
