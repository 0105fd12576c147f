package server

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/escapadeapp/escapade/escapade/database/models"
	"github.com/escapadeapp/escapade/escapade/database/repositories"
)

func (s *Server) handleUploadPhoto(c *fiber.Ctx) error {
	userID := UserID(c)

	adventureID := c.FormValue("adventureId")
	stopID := c.FormValue("stopId")
	if adventureID == "" || stopID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "adventureId and stopId are required")
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "photo file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "failed to read photo")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "failed to read photo")
	}

	adventure, err := s.adventures.GetByID(c.Context(), adventureID)
	if err != nil {
		if errors.Is(err, repositories.ErrAdventureNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Adventure not found")
		}
		return err
	}

	var stopName string
	for _, stop := range adventure.Stops {
		if stop.ID == stopID {
			stopName = stop.Name
			break
		}
	}
	if stopName == "" {
		return fiber.NewError(fiber.StatusNotFound, "Stop not found in adventure")
	}

	photoID := uuid.NewString()
	key := s.spaces.PhotoKey(userID, adventureID, photoID)
	if _, err := s.spaces.UploadPhoto(c.Context(), key, data, fileHeader.Header.Get("Content-Type")); err != nil {
		return err
	}

	photo := &models.PhotoMemory{
		ID:            photoID,
		UserID:        userID,
		AdventureID:   adventureID,
		AdventureName: adventure.Name,
		StopID:        stopID,
		StopName:      stopName,
		StorageKey:    key,
		Caption:       c.FormValue("caption"),
	}
	if err := s.photos.Create(c.Context(), photo); err != nil {
		return err
	}

	// Photo uploads earn points too
	if _, err := s.rewards.EarnAction(c.Context(), userID, "photo_upload", "Photo at "+stopName, adventureID, nowUTC()); err != nil {
		return err
	}

	total, err := s.photos.CountByUser(c.Context(), userID)
	if err != nil {
		return err
	}

	return sendSuccess(c, fiber.Map{
		"photo":       photo,
		"url":         s.spaces.PhotoURL(key),
		"totalPhotos": total,
	})
}

func (s *Server) handleListPhotos(c *fiber.Ctx) error {
	userID := UserID(c)

	var (
		photos []*models.PhotoMemory
		err    error
	)
	if adventureID := c.Query("adventureId"); adventureID != "" {
		photos, err = s.photos.GetByAdventure(c.Context(), userID, adventureID)
	} else {
		photos, err = s.photos.GetByUser(c.Context(), userID)
	}
	if err != nil {
		return err
	}

	type photoView struct {
		*models.PhotoMemory
		URL string `json:"url"`
	}
	views := make([]photoView, 0, len(photos))
	for _, p := range photos {
		views = append(views, photoView{PhotoMemory: p, URL: s.spaces.PhotoURL(p.StorageKey)})
	}

	return sendSuccess(c, fiber.Map{"photos": views})
}

func (s *Server) handleDeletePhoto(c *fiber.Ctx) error {
	userID := UserID(c)
	photoID := c.Params("id")

	photo, err := s.photos.GetByID(c.Context(), photoID)
	if err != nil || photo.UserID != userID {
		return fiber.NewError(fiber.StatusNotFound, "Photo not found")
	}

	if err := s.spaces.DeletePhoto(c.Context(), photo.StorageKey); err != nil {
		return err
	}
	return s.photos.Delete(c.Context(), userID, photoID)
}
