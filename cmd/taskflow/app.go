package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskflow/taskflow-backend/internal/core/ports"
	"github.com/taskflow/taskflow-backend/internal/infrastructure/config"
	"github.com/taskflow/taskflow-backend/internal/infrastructure/db/memory"
	mongostore "github.com/taskflow/taskflow-backend/internal/infrastructure/db/mongo"
	pgstore "github.com/taskflow/taskflow-backend/internal/infrastructure/db/postgres"
	"github.com/taskflow/taskflow-backend/internal/infrastructure/http/handlers"
	"github.com/taskflow/taskflow-backend/pkg/logger"
)

// store is the repository set selected by STORE_DRIVER.
type store struct {
	name     string
	users    ports.UserRepository
	projects ports.ProjectRepository
	tasks    ports.TaskRepository
	pinger   handlers.Pinger
	close    func(ctx context.Context) error
}

func loadConfig(ctx context.Context) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "taskflow",
	})
	return cfg, log, nil
}

// openStore connects the configured backend. migrate applies the
// PostgreSQL schema or the Mongo indexes before returning.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger, migrate bool) (*store, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		s := mongostore.NewStore(db)
		if migrate {
			if err := s.EnsureIndexes(ctx); err != nil {
				_ = client.Disconnect(ctx)
				return nil, err
			}
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")
		return &store{
			name: "mongodb", users: s.Users(), projects: s.Projects(), tasks: s.Tasks(),
			pinger: s, close: client.Disconnect,
		}, nil

	case config.DriverPostgres:
		db, err := pgstore.Open(ctx, cfg.Postgres.DSN, pgstore.PoolConfig{})
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := pgstore.Migrate(ctx, db); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		s := pgstore.NewStore(db)
		log.Info().Msg("connected to postgres")
		return &store{
			name: "postgres", users: s.Users(), projects: s.Projects(), tasks: s.Tasks(),
			pinger: s, close: func(context.Context) error { return db.Close() },
		}, nil

	case config.DriverMemory:
		s := memory.NewStore()
		log.Warn().Msg("using in-memory store, data is lost on restart")
		return &store{
			name: "memory", users: s.Users(), projects: s.Projects(), tasks: s.Tasks(),
			pinger: s, close: func(context.Context) error { return nil },
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

func closeStore(s *store, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.close(ctx); err != nil {
		log.Error().Err(err).Str("store", s.name).Msg("close store")
	}
}
