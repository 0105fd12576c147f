package server

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/escapadeapp/escapade/escapade/database/repositories"
	"github.com/escapadeapp/escapade/escapade/escape"
	"github.com/escapadeapp/escapade/escapade/progression"
	"github.com/escapadeapp/escapade/escapade/rewards"
	"github.com/escapadeapp/escapade/escapade/services"
)

// Config is the HTTP listener configuration.
type Config struct {
	Host         string
	Port         int
	AllowOrigins string
}

// Server wires the domain services into the HTTP API.
type Server struct {
	app         *fiber.App
	cfg         Config
	coordinator *escape.Coordinator
	tracker     *progression.Tracker
	rewards     *rewards.Service
	passes      *services.PassService
	search      *services.SearchService
	spaces      *services.SpacesService
	adventures  repositories.AdventureRepository
	photos      repositories.PhotoRepository
}

func New(
	cfg Config,
	coordinator *escape.Coordinator,
	tracker *progression.Tracker,
	rewardsService *rewards.Service,
	passService *services.PassService,
	searchService *services.SearchService,
	spacesService *services.SpacesService,
	adventures repositories.AdventureRepository,
	photos repositories.PhotoRepository,
) *Server {
	s := &Server{
		cfg:         cfg,
		coordinator: coordinator,
		tracker:     tracker,
		rewards:     rewardsService,
		passes:      passService,
		search:      searchService,
		spaces:      spacesService,
		adventures:  adventures,
		photos:      photos,
	}

	app := fiber.New(fiber.Config{
		AppName:      "Escapade API",
		ServerHeader: "Escapade",
		BodyLimit:    10 * 1024 * 1024,
		ErrorHandler: CustomErrorHandler,
	})

	app.Use(recover.New())
	app.Use(SecurityHeaders())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Requested-With,X-User-ID",
	}))
	app.Use(LoggingMiddleware())

	s.app = app
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.app.Get("/health", s.handleHealth)

	api := s.app.Group("/api")

	// Public catalog
	api.Get("/adventures", s.handleListAdventures)
	api.Get("/adventures/:id", s.handleGetAdventure)
	api.Get("/cards", s.handleListCards)
	api.Get("/passes/catalog", s.handlePassCatalog)

	// Gift purchase and lookup are public: the buyer has no account and the
	// recipient checks the code before signing up.
	gifts := api.Group("/gifts")
	gifts.Post("/", s.handleCreateGift)
	gifts.Post("/check", s.handleCheckGiftCode)
	gifts.Post("/paid", s.handleGiftPaid)

	authed := api.Group("", UserRequired())

	authed.Get("/access", s.handleGetAccess)
	authed.Get("/passes", s.handleListPasses)
	authed.Post("/passes/activate", s.handleActivatePass)
	authed.Post("/gifts/redeem", s.handleRedeemGift)

	esc := authed.Group("/escape")
	esc.Post("/start", s.handleStartEscape)
	esc.Get("/run", s.handleGetRun)
	esc.Post("/stops/:stopID/reveal", s.handleRevealStop)
	esc.Post("/stops/:stopID/hint", s.handleUseHint)
	esc.Post("/stops/:stopID/complete", s.handleCompleteStop)
	esc.Post("/complete", s.handleCompleteEscape)

	authed.Get("/progress", s.handleGetProgress)
	authed.Post("/progress", s.handleSaveProgress)
	authed.Post("/progress/reveal", s.handleRevealLocation)
	authed.Post("/cards/:id/played", s.handleCardPlayed)
	authed.Get("/favorites", s.handleListFavorites)
	authed.Post("/favorites/toggle", s.handleToggleFavorite)
	authed.Get("/achievements", s.handleListAchievements)

	rw := authed.Group("/rewards")
	rw.Get("/", s.handleRewardsSnapshot)
	rw.Post("/earn", s.handleEarnPoints)
	rw.Post("/redeem", s.handleRedeemReward)
	rw.Post("/special-dates", s.handleSetSpecialDate)
	rw.Delete("/special-dates/:dateType", s.handleDeleteSpecialDate)
	rw.Post("/title-badge", s.handleUpdateTitleBadge)

	photos := authed.Group("/photos")
	photos.Post("/", s.handleUploadPhoto)
	photos.Get("/", s.handleListPhotos)
	photos.Delete("/:id", s.handleDeletePhoto)
}

func (s *Server) Listen() error {
	return s.app.Listen(fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":      "healthy",
		"active_runs": s.coordinator.ActiveRunCount(),
	})
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

func sendSuccess(c *fiber.Ctx, data fiber.Map) error {
	data["success"] = true
	return c.JSON(data)
}

// sendDomainError maps a stable wire code into the error envelope.
func sendDomainError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}
