// Package app assembles the rental engine from configuration. Every binary
// builds the same object graph through Build so that the server, the cron
// runner and the CLI always agree on storage layout.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"fleet-rental-backend/internal/catalog"
	"fleet-rental-backend/internal/config"
	"fleet-rental-backend/internal/events"
	"fleet-rental-backend/internal/logger"
	"fleet-rental-backend/internal/repository"
	"fleet-rental-backend/internal/repository/memory"
	"fleet-rental-backend/internal/repository/postgres"
	redisrepo "fleet-rental-backend/internal/repository/redis"
	"fleet-rental-backend/internal/service"
)

// App holds the wired engine and everything that must be closed with it.
type App struct {
	Config    *config.Config
	Catalog   *catalog.Catalog
	Rental    service.RentalService
	History   repository.HistoryRepository
	Publisher events.Publisher

	db    *sql.DB
	store *postgres.Store
	redis *goredis.Client
}

type repositories struct {
	availability repository.AvailabilityRepository
	assignments  repository.AssignmentRepository
	reservations repository.ReservationRepository
	history      repository.HistoryRepository
	cars         repository.CarRepository
}

// Build opens the configured stores, loads the fleet and constructs the
// rental service. The caller owns the returned App and must Close it.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	repos, err := a.openRepositories(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	if cfg.Redis.Enabled {
		client, err := redisrepo.NewClient(ctx, redisrepo.Options{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			KeyPrefix:   cfg.Redis.KeyPrefix,
			DialTimeout: cfg.Redis.DialTimeout,
			ReadTimeout: cfg.Redis.ReadTimeout,
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		a.redis = client
		repos.availability = redisrepo.NewAvailabilityRepository(client, cfg.Redis.KeyPrefix)
		repos.assignments = redisrepo.NewAssignmentRepository(client, cfg.Redis.KeyPrefix)
	}

	cat, err := loadCatalog(ctx, cfg, repos.cars)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Catalog = cat

	if cfg.Broker.Enabled {
		pub, err := events.NewAMQPPublisher(cfg.Broker.URL, cfg.Broker.Queue)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Publisher = pub
	} else {
		a.Publisher = events.NopPublisher{}
	}

	a.History = repos.history
	a.Rental = service.NewRentalService(
		cat,
		repos.availability,
		repos.assignments,
		repos.reservations,
		repos.history,
		a.Publisher,
		service.SystemClock{},
		cfg.Rental.WindowDays,
	)

	logger.Info("Rental engine ready",
		"driver", cfg.Database.Driver,
		"redis", cfg.Redis.Enabled,
		"broker", cfg.Broker.Enabled,
		"cars", len(cat.Cars()),
		"window_days", cfg.Rental.WindowDays,
	)
	return a, nil
}

func (a *App) openRepositories(ctx context.Context) (*repositories, error) {
	cfg := a.Config
	if cfg.Database.Driver == config.DriverMemory {
		logger.Info("Using in-memory store")
		s := memory.NewStore()
		return &repositories{
			availability: s.Availability,
			assignments:  s.Assignments,
			reservations: s.Reservations,
			history:      s.History,
			cars:         s.Cars,
		}, nil
	}

	logger.Info("Connecting to database...", "driver", cfg.Database.Driver, "host", cfg.Database.Host, "path", cfg.Database.Path)
	db, err := sql.Open(cfg.Database.Driver, cfg.GetDatabaseConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.db = db

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		return nil, err
	}
	logger.Info("Database connection established")

	store, err := postgres.NewStore(ctx, db, cfg.Database.Driver, postgres.WithQueryTimeout(cfg.Database.QueryTimeout))
	if err != nil {
		return nil, err
	}
	a.store = store
	return &repositories{
		availability: store.Availability,
		assignments:  store.Assignments,
		reservations: store.Reservations,
		history:      store.History,
		cars:         store.Cars,
	}, nil
}

// loadCatalog reads the fleet from the configured source. A file fleet is
// mirrored into the cars table; an empty cars table is seeded from the file.
func loadCatalog(ctx context.Context, cfg *config.Config, cars repository.CarRepository) (*catalog.Catalog, error) {
	if cfg.Fleet.Source == config.FleetSourceDatabase {
		list, err := cars.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load fleet from database: %w", err)
		}
		if len(list) > 0 {
			return catalog.New(list)
		}
		logger.Warn("Cars table is empty, seeding from fleet file", "file", cfg.Fleet.File)
	}

	cat, err := catalog.LoadFile(cfg.Fleet.File)
	if err != nil {
		return nil, err
	}
	for _, car := range cat.Cars() {
		if err := cars.Upsert(ctx, car); err != nil {
			return nil, fmt.Errorf("failed to store car %d: %w", car.ID, err)
		}
	}
	return cat, nil
}

// Health reports whether the backing stores are reachable.
func (a *App) Health(ctx context.Context) error {
	var errs []error
	if a.store != nil {
		if err := a.store.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Ping(ctx).Err(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Close releases the publisher, the prepared statements and the connections.
func (a *App) Close() error {
	var errs []error
	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
