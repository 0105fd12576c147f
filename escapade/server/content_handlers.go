package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/escapadeapp/escapade/escapade/database/models"
	"github.com/escapadeapp/escapade/escapade/database/repositories"
)

func (s *Server) handleListAdventures(c *fiber.Ctx) error {
	query := c.Query("q")
	adventures, err := s.search.SearchAdventures(c.Context(), query)
	if err != nil {
		return err
	}
	return sendSuccess(c, fiber.Map{"adventures": adventures})
}

func (s *Server) handleGetAdventure(c *fiber.Ctx) error {
	adventure, err := s.adventures.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrAdventureNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Adventure not found")
		}
		return err
	}
	return sendSuccess(c, fiber.Map{"adventure": adventure})
}

func (s *Server) handleListCards(c *fiber.Ctx) error {
	cards, err := s.search.SearchCards(
		c.Context(),
		c.Query("q"),
		models.GameCardType(c.Query("type")),
		models.IntensityLevel(c.Query("intensity")),
	)
	if err != nil {
		return err
	}
	return sendSuccess(c, fiber.Map{"cards": cards})
}
