package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/locvowork/pawsheets/internal/blobstore"
	"github.com/locvowork/pawsheets/internal/config"
	"github.com/locvowork/pawsheets/internal/database"
	"github.com/locvowork/pawsheets/internal/domain"
	"github.com/locvowork/pawsheets/internal/editor"
	"github.com/locvowork/pawsheets/internal/handler"
	"github.com/locvowork/pawsheets/internal/logger"
	"github.com/locvowork/pawsheets/internal/realtime"
	"github.com/locvowork/pawsheets/internal/repository"
	"github.com/locvowork/pawsheets/internal/service"
	"github.com/locvowork/pawsheets/pkg/cardstyle"
	"github.com/locvowork/pawsheets/pkg/googlecloud"
)

const sessionSweepInterval = time.Minute

type App struct {
	Echo    *echo.Echo
	DB      *sql.DB
	GCP     *googlecloud.Client
	Manager *editor.Manager

	stopEviction context.CancelFunc
}

func NewApp() *App {
	e := echo.New()
	e.HideBanner = true
	return &App{Echo: e}
}

// LoadConfig reads the environment and sets up logging.
func LoadConfig(ctx context.Context) error {
	if err := config.LoadEnvConfig(); err != nil {
		return fmt.Errorf("failed to load env config: %w", err)
	}
	logger.InitLogging(config.DefaultEnvConfig.LOG_FILE_PATH)
	logger.SetLevel(config.DefaultEnvConfig.LOG_LEVEL)
	logger.InfoLog(ctx, "Environment variables loaded successfully")
	return nil
}

// OpenStore connects the configured backend. The returned App carries the
// underlying connections so Close can release them.
func (a *App) OpenStore(ctx context.Context) (domain.Repositories, error) {
	switch config.DefaultEnvConfig.STORE_BACKEND {
	case config.StorePostgres:
		dbConfig := database.Config{
			Host:            config.DefaultEnvConfig.DB_HOST,
			Port:            config.DefaultEnvConfig.DB_PORT,
			User:            config.DefaultEnvConfig.DB_USER,
			Password:        config.DefaultEnvConfig.DB_PASSWORD,
			DBName:          config.DefaultEnvConfig.DB_NAME,
			SSLMode:         config.DefaultEnvConfig.DB_SSL_MODE,
			MaxOpenConns:    config.DefaultEnvConfig.DB_MAX_OPEN_CONNS,
			MaxIdleConns:    config.DefaultEnvConfig.DB_MAX_IDLE_CONNS,
			ConnMaxLifetime: config.DefaultEnvConfig.DB_CONN_MAX_LIFETIME,
		}
		db, err := database.NewPostgresDB(ctx, dbConfig)
		if err != nil {
			return domain.Repositories{}, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return domain.Repositories{}, fmt.Errorf("failed to migrate database: %w", err)
		}
		a.DB = db
		logger.InfoLog(ctx, "using postgres store at %s:%s", dbConfig.Host, dbConfig.Port)
		return repository.NewPostgresRepositories(db), nil

	case config.StoreDatastore:
		gcpClient, err := googlecloud.NewClient(ctx, config.DefaultEnvConfig.GCP_PROJECT_ID)
		if err != nil {
			return domain.Repositories{}, fmt.Errorf("failed to initialize GCP client: %w", err)
		}
		a.GCP = gcpClient
		logger.InfoLog(ctx, "using datastore in project %s", config.DefaultEnvConfig.GCP_PROJECT_ID)
		return repository.NewDatastoreRepositories(gcpClient), nil
	}

	logger.WarnLog(ctx, "using in-memory store; worksheets are lost on restart")
	return repository.NewMemoryBackend().Repositories(), nil
}

func loadPresets(ctx context.Context) (*cardstyle.Presets, error) {
	path := config.DefaultEnvConfig.PRESETS_FILE
	if path == "" {
		return cardstyle.DefaultPresets(), nil
	}
	p, err := cardstyle.LoadPresetsFile(path)
	if err != nil {
		return nil, err
	}
	logger.InfoLog(ctx, "loaded %d size and %d theme presets from %s", len(p.Sizes), len(p.Themes), path)
	return p, nil
}

func (a *App) Initialize(ctx context.Context) error {
	if err := LoadConfig(ctx); err != nil {
		return err
	}

	repos, err := a.OpenStore(ctx)
	if err != nil {
		return err
	}
	presets, err := loadPresets(ctx)
	if err != nil {
		return fmt.Errorf("failed to load presets: %w", err)
	}

	origin := strings.TrimRight(config.DefaultEnvConfig.PUBLIC_ORIGIN, "/")
	blobs, err := blobstore.NewFileStore(config.DefaultEnvConfig.UPLOAD_DIR, origin+"/images")
	if err != nil {
		return err
	}

	// Initialize dependencies
	hub := realtime.NewHub()
	a.Manager = editor.NewManager(service.NewWorksheetStore(repos.Worksheets), hub, config.DefaultEnvConfig.AUTOSAVE_DELAY)
	evictCtx, cancel := context.WithCancel(context.Background())
	a.stopEviction = cancel
	a.Manager.StartEviction(evictCtx, sessionSweepInterval, config.DefaultEnvConfig.SESSION_IDLE_TIMEOUT)
	worksheetSvc := service.NewWorksheetService(service.WorksheetDeps{
		Repos:   repos,
		Manager: a.Manager,
		Hub:     hub,
		Blobs:   blobs,
		Presets: presets,
	})

	wsHandler := handler.NewWorksheetHandler(worksheetSvc, origin)
	cardsHandler := handler.NewCardsHandler(worksheetSvc, hub)
	themeHandler := handler.NewThemeHandler(service.NewThemeService(repos.Themes))
	feedbackHandler := handler.NewFeedbackHandler(service.NewFeedbackService(repos.Feedback))

	a.RegisterMiddlewares()
	a.RegisterRoutes(wsHandler, cardsHandler, themeHandler, feedbackHandler)
	a.Echo.Static("/images", blobs.Root())

	return nil
}

func (a *App) RegisterMiddlewares() {
	a.Echo.Use(middleware.RequestID())
	a.Echo.Use(requestContext)
	a.Echo.Use(middleware.Logger())
	a.Echo.Use(middleware.Recover())
	a.Echo.Use(middleware.CORS())
}

// requestContext copies the request id into the request context for logging.
func requestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Response().Header().Get(echo.HeaderXRequestID)
		if id != "" {
			req := c.Request()
			c.SetRequest(req.WithContext(logger.WithRequestID(req.Context(), id)))
		}
		return next(c)
	}
}

func (a *App) RegisterRoutes(wsHandler *handler.WorksheetHandler, cardsHandler *handler.CardsHandler, themeHandler *handler.ThemeHandler, feedbackHandler *handler.FeedbackHandler) {
	a.Echo.GET("/api/cards", cardsHandler.CardsHTMLHandler)
	a.Echo.GET("/embed/:id", cardsHandler.ViewerHandler)
	a.Echo.GET("/embed/:id/events", cardsHandler.EventsHandler)

	wsGroup := a.Echo.Group("/worksheets")
	owner := wsHandler.RequireOwner
	wsGroup.POST("", wsHandler.LoadOrCreateHandler)
	wsGroup.GET("", wsHandler.ListHandler)
	wsGroup.POST("/import", wsHandler.ImportXLSXHandler)
	wsGroup.GET("/:id", wsHandler.GetHandler, owner)
	wsGroup.PUT("/:id/name", wsHandler.RenameHandler, owner)
	wsGroup.DELETE("/:id", wsHandler.DeleteHandler, owner)
	wsGroup.POST("/:id/save", wsHandler.SaveHandler, owner)
	wsGroup.DELETE("/:id/session", wsHandler.CloseSessionHandler, owner)
	wsGroup.POST("/:id/rows", wsHandler.AddRowHandler, owner)
	wsGroup.DELETE("/:id/rows/:index", wsHandler.DeleteRowHandler, owner)
	wsGroup.POST("/:id/columns", wsHandler.AddColumnHandler, owner)
	wsGroup.DELETE("/:id/columns/:index", wsHandler.DeleteColumnHandler, owner)
	wsGroup.PUT("/:id/cells/:row/:col", wsHandler.SetCellHandler, owner)
	wsGroup.POST("/:id/cells/:row/:col/image", wsHandler.UploadImageHandler, owner)
	wsGroup.PUT("/:id/styles", wsHandler.UpdateStylesHandler, owner)
	wsGroup.POST("/:id/styles/size/:preset", wsHandler.SizePresetHandler, owner)
	wsGroup.POST("/:id/styles/theme/:name", wsHandler.ThemePresetHandler, owner)
	wsGroup.POST("/:id/styles/saved-theme/:themeId", wsHandler.SavedThemeHandler, owner)
	wsGroup.GET("/:id/preview", wsHandler.PreviewHandler, owner)
	wsGroup.GET("/:id/embed", wsHandler.EmbedHandler, owner)
	wsGroup.GET("/:id/xlsx", wsHandler.ExportXLSXHandler, owner)

	a.Echo.GET("/themes", themeHandler.ListHandler)
	a.Echo.POST("/themes", themeHandler.SaveHandler)

	a.Echo.POST("/feedback", feedbackHandler.SubmitHandler)
}

func (a *App) Run() error {
	return a.Echo.Start(":" + config.DefaultEnvConfig.APP_PORT)
}

// Shutdown stops the server, writes pending edits and closes the store.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.Echo.Shutdown(ctx)
	if a.stopEviction != nil {
		a.stopEviction()
	}
	if a.Manager != nil {
		a.Manager.Shutdown(ctx)
	}
	a.Close()
	return err
}

// Close releases store connections.
func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
	if a.GCP != nil {
		a.GCP.Close()
	}
}
