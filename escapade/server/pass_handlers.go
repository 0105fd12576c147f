package server

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/escapadeapp/escapade/escapade/database/models"
	"github.com/escapadeapp/escapade/escapade/database/repositories"
	"github.com/escapadeapp/escapade/escapade/entitlement"
	"github.com/escapadeapp/escapade/escapade/services"
)

type activatePassRequest struct {
	PassType        string `json:"passType"`
	PaymentIntentID string `json:"paymentIntentId"`
}

type createGiftRequest struct {
	PassType       string `json:"passType"`
	PurchaserEmail string `json:"purchaserEmail"`
	RecipientName  string `json:"recipientName"`
	Message        string `json:"message"`
}

type giftCodeRequest struct {
	GiftCode        string `json:"giftCode"`
	PaymentIntentID string `json:"paymentIntentId"`
}

func sendGiftError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, repositories.ErrGiftNotFound):
		return sendDomainError(c, fiber.StatusNotFound, "gift_not_found", "Gift code not found.")
	case errors.Is(err, repositories.ErrGiftNotPaid):
		return sendDomainError(c, fiber.StatusConflict, "gift_not_paid", "This gift has not been paid for yet.")
	case errors.Is(err, repositories.ErrGiftAlreadyRedeemed):
		return sendDomainError(c, fiber.StatusConflict, "gift_already_redeemed", "This gift code has already been used.")
	case errors.Is(err, services.ErrUnknownPassType):
		return fiber.NewError(fiber.StatusBadRequest, "Unknown pass type")
	default:
		return err
	}
}

// handleGetAccess fails closed: when passes cannot be loaded the client gets
// zero access rather than an error it might interpret optimistically.
func (s *Server) handleGetAccess(c *fiber.Ctx) error {
	access, _, err := s.passes.GetAccess(c.Context(), UserID(c))
	if err != nil {
		slog.Error("Failed to resolve access",
			slog.String("type", "http"),
			slog.String("user_id", UserID(c)),
			slog.String("error", err.Error()))
		access = entitlement.Access{}
	}

	return sendSuccess(c, fiber.Map{
		"hasGameAccess":    access.HasGameAccess,
		"hasEscapeAccess":  access.HasEscapeAccess,
		"escapesRemaining": access.EscapesRemaining,
		"activePass":       access.ActivePass,
	})
}

func (s *Server) handlePassCatalog(c *fiber.Ctx) error {
	return sendSuccess(c, fiber.Map{"catalog": s.passes.Catalog()})
}

func (s *Server) handleListPasses(c *fiber.Ctx) error {
	if c.QueryBool("current") {
		passes, err := s.passes.CurrentPasses(c.Context(), UserID(c))
		if err != nil {
			return err
		}
		return sendSuccess(c, fiber.Map{"passes": passes})
	}

	_, passes, err := s.passes.GetAccess(c.Context(), UserID(c))
	if err != nil {
		return err
	}
	return sendSuccess(c, fiber.Map{"passes": passes})
}

func (s *Server) handleActivatePass(c *fiber.Ctx) error {
	var req activatePassRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	pass, err := s.passes.ActivatePass(c.Context(), UserID(c), models.PassType(req.PassType), req.PaymentIntentID)
	if err != nil {
		if errors.Is(err, services.ErrUnknownPassType) {
			return fiber.NewError(fiber.StatusBadRequest, "Unknown pass type")
		}
		return err
	}

	return sendSuccess(c, fiber.Map{"pass": pass})
}

func (s *Server) handleCreateGift(c *fiber.Ctx) error {
	var req createGiftRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	gift, err := s.passes.CreateGift(c.Context(), models.PassType(req.PassType), req.PurchaserEmail, req.RecipientName, req.Message)
	if err != nil {
		return sendGiftError(c, err)
	}

	return sendSuccess(c, fiber.Map{
		"giftCode": gift.GiftCode,
		"passType": gift.PassType,
		"status":   gift.Status,
	})
}

func (s *Server) handleCheckGiftCode(c *fiber.Ctx) error {
	var req giftCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	gift, err := s.passes.CheckGiftCode(c.Context(), req.GiftCode)
	if err != nil {
		return sendGiftError(c, err)
	}

	return sendSuccess(c, fiber.Map{
		"passType":      gift.PassType,
		"status":        gift.Status,
		"recipientName": gift.RecipientName,
		"message":       gift.Message,
		"redeemable":    gift.Status == models.GiftPaid,
	})
}

// handleGiftPaid is the payment webhook target for gift purchases.
func (s *Server) handleGiftPaid(c *fiber.Ctx) error {
	var req giftCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := s.passes.MarkGiftPaid(c.Context(), req.GiftCode, req.PaymentIntentID); err != nil {
		return sendGiftError(c, err)
	}
	return sendSuccess(c, fiber.Map{})
}

func (s *Server) handleRedeemGift(c *fiber.Ctx) error {
	var req giftCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	pass, err := s.passes.RedeemGift(c.Context(), req.GiftCode, UserID(c))
	if err != nil {
		return sendGiftError(c, err)
	}

	return sendSuccess(c, fiber.Map{"pass": pass})
}
