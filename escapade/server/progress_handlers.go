package server

import (
	"github.com/gofiber/fiber/v2"

	"github.com/escapadeapp/escapade/escapade/database/models"
)

type saveProgressRequest struct {
	CompletedLocations   []string `json:"completedLocations"`
	RevealedLocations    []string `json:"revealedLocations"`
	TruthOrDarePlayed    int      `json:"truthOrDarePlayed"`
	NeverHaveIEverPlayed int      `json:"neverHaveIEverPlayed"`
	EscapesCompleted     int      `json:"escapesCompleted"`
	TotalScore           int      `json:"totalScore"`
}

type toggleFavoriteRequest struct {
	CardID   string `json:"cardId"`
	CardType string `json:"cardType"`
}

type revealLocationRequest struct {
	StopID string `json:"stopId"`
}

func (s *Server) handleGetProgress(c *fiber.Ctx) error {
	progress, err := s.tracker.GetProgress(c.Context(), UserID(c))
	if err != nil {
		return err
	}
	return sendSuccess(c, fiber.Map{"progress": progress})
}

func (s *Server) handleSaveProgress(c *fiber.Ctx) error {
	var req saveProgressRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	unlocked, err := s.tracker.SaveSnapshot(c.Context(), &models.GameProgress{
		UserID:               UserID(c),
		CompletedLocations:   req.CompletedLocations,
		RevealedLocations:    req.RevealedLocations,
		TruthOrDarePlayed:    req.TruthOrDarePlayed,
		NeverHaveIEverPlayed: req.NeverHaveIEverPlayed,
		EscapesCompleted:     req.EscapesCompleted,
		TotalScore:           req.TotalScore,
	})
	if err != nil {
		return err
	}

	return sendSuccess(c, fiber.Map{"achievementsEarned": unlocked})
}

func (s *Server) handleRevealLocation(c *fiber.Ctx) error {
	var req revealLocationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.StopID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "stopId is required")
	}

	revealed, err := s.tracker.RevealStop(c.Context(), UserID(c), req.StopID)
	if err != nil {
		return err
	}

	return sendSuccess(c, fiber.Map{"revealed": revealed})
}

func (s *Server) handleCardPlayed(c *fiber.Ctx) error {
	card, err := s.adventures.GetCardByID(c.Context(), c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "Card not found")
	}

	unlocked, err := s.tracker.RecordCardPlayed(c.Context(), UserID(c), card.CardType)
	if err != nil {
		return err
	}

	return sendSuccess(c, fiber.Map{"achievementsEarned": unlocked})
}

func (s *Server) handleListFavorites(c *fiber.Ctx) error {
	favorites, err := s.tracker.Favorites(c.Context(), UserID(c))
	if err != nil {
		return err
	}
	return sendSuccess(c, fiber.Map{"favorites": favorites})
}

func (s *Server) handleToggleFavorite(c *fiber.Ctx) error {
	var req toggleFavoriteRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.CardID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "cardId is required")
	}

	added, unlocked, err := s.tracker.ToggleFavorite(c.Context(), UserID(c), req.CardID, req.CardType)
	if err != nil {
		return err
	}

	return sendSuccess(c, fiber.Map{
		"favorited":          added,
		"achievementsEarned": unlocked,
	})
}

func (s *Server) handleListAchievements(c *fiber.Ctx) error {
	catalog, unlockedAt, err := s.tracker.GetAchievements(c.Context(), UserID(c))
	if err != nil {
		return err
	}

	type achievementView struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Unlocked    bool   `json:"unlocked"`
		UnlockedAt  string `json:"unlockedAt,omitempty"`
	}

	views := make([]achievementView, 0, len(catalog))
	for _, def := range catalog {
		view := achievementView{
			ID:          def.ID,
			Name:        def.Name,
			Description: def.Description,
		}
		if at, ok := unlockedAt[def.ID]; ok {
			view.Unlocked = true
			view.UnlockedAt = at.UTC().Format("2006-01-02T15:04:05Z07:00")
		}
		views = append(views, view)
	}

	return sendSuccess(c, fiber.Map{"achievements": views})
}
