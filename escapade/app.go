// Package escapade wires the configuration, database, repositories and
// domain services of the Escapade backend together.
package escapade

import (
	"context"
	"fmt"

	"github.com/escapadeapp/escapade/escapade/database"
	"github.com/escapadeapp/escapade/escapade/database/repositories"
	"github.com/escapadeapp/escapade/escapade/escape"
	"github.com/escapadeapp/escapade/escapade/progression"
	"github.com/escapadeapp/escapade/escapade/rewards"
	"github.com/escapadeapp/escapade/escapade/services"
)

// App holds every long-lived component of the service.
type App struct {
	Cfg     Config
	Version string
	Commit  string

	DB *database.DB

	PassRepository      repositories.PassRepository
	AdventureRepository repositories.AdventureRepository
	ProgressRepository  repositories.ProgressRepository
	RewardsRepository   repositories.RewardsRepository
	GiftRepository      repositories.GiftRepository
	PhotoRepository     repositories.PhotoRepository

	SpacesService  *services.SpacesService
	SearchService  *services.SearchService
	PassService    *services.PassService
	RewardsService *rewards.Service
	Tracker        *progression.Tracker
	Sessions       *escape.SessionManager
	Coordinator    *escape.Coordinator
}

func New(cfg Config, version, commit string) *App {
	return &App{
		Cfg:     cfg,
		Version: version,
		Commit:  commit,
	}
}

// Setup builds the repository and service graph. DB must be connected first.
func (a *App) Setup(ctx context.Context) error {
	if a.DB == nil {
		return fmt.Errorf("database is not connected")
	}

	bunDB := a.DB.BunDB()
	a.PassRepository = repositories.NewPassRepository(bunDB)
	a.AdventureRepository = repositories.NewAdventureRepository(bunDB)
	a.ProgressRepository = repositories.NewProgressRepository(bunDB)
	a.RewardsRepository = repositories.NewRewardsRepository(bunDB)
	a.GiftRepository = repositories.NewGiftRepository(bunDB)
	a.PhotoRepository = repositories.NewPhotoRepository(bunDB)

	spacesService, err := services.NewSpacesService(
		a.Cfg.Spaces.Key,
		a.Cfg.Spaces.Secret,
		a.Cfg.Spaces.Region,
		a.Cfg.Spaces.Bucket,
		a.Cfg.Spaces.PhotoRoot,
	)
	if err != nil {
		return fmt.Errorf("failed to set up Spaces: %w", err)
	}
	a.SpacesService = spacesService

	a.SearchService = services.NewSearchService(a.AdventureRepository)
	a.PassService = services.NewPassService(a.PassRepository, a.GiftRepository)
	a.RewardsService = rewards.NewService(a.RewardsRepository)
	a.Tracker = progression.NewTracker(a.ProgressRepository, a.AdventureRepository)
	a.Sessions = escape.NewSessionManager()
	a.Coordinator = escape.NewCoordinator(a.PassRepository, a.AdventureRepository, a.RewardsService, a.Sessions)

	return nil
}

// StartBackground launches the periodic maintenance routines.
func (a *App) StartBackground(ctx context.Context) {
	a.PassRepository.StartCleanupRoutine(ctx)
	a.Sessions.StartCleanupRoutine(ctx)
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}
