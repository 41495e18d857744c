package app

import (
	"context"
	"fmt"
	"net/http"

	"carbon-tracker-go/internal/config"
	"carbon-tracker-go/internal/db"
	analyticsdomain "carbon-tracker-go/internal/domain/analytics"
	catalogdomain "carbon-tracker-go/internal/domain/catalog"
	companydomain "carbon-tracker-go/internal/domain/company"
	consumptiondomain "carbon-tracker-go/internal/domain/consumption"
	userdomain "carbon-tracker-go/internal/domain/user"
	"carbon-tracker-go/internal/metrics"
	"carbon-tracker-go/internal/repository/inmemory"
	analyticsrepo "carbon-tracker-go/internal/repository/postgres/analytics"
	catalogrepo "carbon-tracker-go/internal/repository/postgres/catalog"
	companyrepo "carbon-tracker-go/internal/repository/postgres/company"
	consumptionrepo "carbon-tracker-go/internal/repository/postgres/consumption"
	userrepo "carbon-tracker-go/internal/repository/postgres/user"
	"carbon-tracker-go/internal/repository/rediscache"
	"carbon-tracker-go/internal/transport/httpserver"
	"carbon-tracker-go/internal/transport/httpserver/handler"
	"carbon-tracker-go/migrations"
	"carbon-tracker-go/pkg/logger"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

type App struct {
	cfg        config.Config
	log        logger.Logger
	httpServer *http.Server
	db         *gorm.DB
	redis      *redis.Client
	catalog    *catalogdomain.Service
}

// repositories is the storage backend selected by STORAGE_DRIVER.
type repositories struct {
	consumption consumptiondomain.Repository
	catalog     catalogdomain.Repository
	company     companydomain.Repository
	user        userdomain.Repository
	analytics   analyticsdomain.Repository
}

func New(ctx context.Context, log logger.Logger) (*App, error) {
	log.Info("app: loading config")
	cfg, err := config.Load(log)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	a := &App{cfg: cfg, log: log}

	repos, err := a.openStorage()
	if err != nil {
		a.Close()
		return nil, err
	}

	cache, err := a.openCatalogCache(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.catalog = catalogdomain.NewServiceWithCache(repos.catalog, cache, cfg.Redis.CatalogTTL, log.With("component", "catalog"))
	if cfg.Storage.Driver == config.StorageDriverMemory {
		if err := a.catalog.Seed(ctx, catalogdomain.DefaultSeed()); err != nil {
			a.Close()
			return nil, fmt.Errorf("seed memory catalog: %w", err)
		}
	}

	consumptionSvc := consumptiondomain.NewService(
		repos.consumption,
		a.catalog,
		log.With("component", "consumption"),
		consumptiondomain.WithDefaults(queryDefaults(cfg.Query)),
		consumptiondomain.WithExportLimit(cfg.Query.ExportLimit),
		consumptiondomain.WithObserver(metrics.ConsumptionObserver{}),
	)
	analyticsSvc := analyticsdomain.NewServiceWithTopActivitiesConfig(repos.analytics, analyticsdomain.TopActivitiesConfig{
		Enabled:       cfg.Analytics.TopActivitiesEnabled,
		LookbackDays:  cfg.Analytics.TopActivitiesLookbackDays,
		MinRecords:    cfg.Analytics.TopActivitiesMinRecords,
		ResponseCount: cfg.Analytics.TopActivitiesResponseCount,
		CacheTTL:      cfg.Analytics.TopActivitiesCacheTTL,
	})
	companySvc := companydomain.NewService(repos.company)
	userSvc := userdomain.NewService(repos.user)

	log.Info("app: initializing router")
	handlers := handler.New(consumptionSvc, a.catalog, analyticsSvc, companySvc, log)
	router := httpserver.NewRouter(cfg, handlers, userSvc, log)

	log.Info("app: initializing http server")
	a.httpServer = httpserver.New(cfg, router)

	return a, nil
}

func (a *App) openStorage() (repositories, error) {
	switch a.cfg.Storage.Driver {
	case config.StorageDriverMemory:
		a.log.Warn("app: using in-memory storage, data is lost on restart")
		catalogStore := inmemory.NewCatalogStore()
		consumptionStore := inmemory.NewConsumptionStore(catalogStore)
		return repositories{
			consumption: consumptionStore,
			catalog:     catalogStore,
			company:     inmemory.NewCompanyStore(),
			user:        inmemory.NewUserStore(),
			analytics:   inmemory.NewAnalyticsStore(consumptionStore),
		}, nil
	default:
		a.log.Info("app: initializing database")
		dbConn, err := db.NewPostgres(a.cfg.DB, a.log)
		if err != nil {
			return repositories{}, err
		}
		a.db = dbConn
		return repositories{
			consumption: consumptionrepo.NewPostgres(dbConn),
			catalog:     catalogrepo.NewPostgres(dbConn),
			company:     companyrepo.NewPostgres(dbConn),
			user:        userrepo.NewPostgres(dbConn),
			analytics:   analyticsrepo.NewPostgres(dbConn),
		}, nil
	}
}

func (a *App) openCatalogCache(ctx context.Context) (catalogdomain.Cache, error) {
	if !a.cfg.Redis.Enabled {
		return inmemory.NewCatalogCache(), nil
	}

	client, err := rediscache.Connect(ctx, a.cfg.Redis.URL)
	if err != nil {
		return nil, err
	}
	a.redis = client
	a.log.Info("app: redis catalog cache enabled", "ttl", a.cfg.Redis.CatalogTTL.String())
	return rediscache.NewCatalogCache(client), nil
}

func queryDefaults(cfg config.QueryConfig) consumptiondomain.QueryDefaults {
	std := consumptiondomain.DefaultQueryDefaults()
	return consumptiondomain.QueryDefaults{
		Page:     cfg.DefaultPage,
		Limit:    cfg.DefaultLimit,
		MaxLimit: cfg.MaxLimit,
		Sort:     consumptiondomain.ParseSortKey(cfg.DefaultSortBy, std.Sort),
		Order:    consumptiondomain.ParseSortOrder(cfg.DefaultSortOrder, std.Order),
	}
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

func (a *App) Close() error {
	var firstErr error
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			firstErr = err
		}
		a.redis = nil
	}
	if a.db == nil {
		return firstErr
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	a.db = nil
	if err := sqlDB.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Migrate opens the database, applies pending migrations and closes it again.
func Migrate(ctx context.Context, log logger.Logger) (int, error) {
	cfg, err := config.Load(log)
	if err != nil {
		return 0, fmt.Errorf("load config: %w", err)
	}
	dbConn, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		return 0, err
	}
	defer closeDB(dbConn, log)

	return db.Migrate(ctx, dbConn, migrations.FS, log)
}

// Seed loads the default activity catalog into the database.
func Seed(ctx context.Context, log logger.Logger) error {
	cfg, err := config.Load(log)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	dbConn, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		return err
	}
	defer closeDB(dbConn, log)

	svc := catalogdomain.NewService(catalogrepo.NewPostgres(dbConn), log)
	if err := svc.Seed(ctx, catalogdomain.DefaultSeed()); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	log.Info("app.seed: catalog loaded")
	return nil
}

func closeDB(dbConn *gorm.DB, log logger.Logger) {
	sqlDB, err := dbConn.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Error("db: close failed", "err", err)
	}
}
