package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskflow/taskflow-backend/internal/api"
	"github.com/taskflow/taskflow-backend/internal/core/ports"
	"github.com/taskflow/taskflow-backend/internal/core/service"
	"github.com/taskflow/taskflow-backend/internal/infrastructure/config"
	redisstore "github.com/taskflow/taskflow-backend/internal/infrastructure/db/redis"
	"github.com/taskflow/taskflow-backend/internal/infrastructure/http/handlers"
	"github.com/taskflow/taskflow-backend/internal/infrastructure/mail"
	"github.com/taskflow/taskflow-backend/internal/infrastructure/queue"
	"github.com/taskflow/taskflow-backend/internal/infrastructure/security"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API on PORT.

The configured store is migrated on start and an initial administrator is
created when no user exists yet.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, log, err := loadConfig(ctx)
			if err != nil {
				return err
			}
			return serve(ctx, cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	s, err := openStore(ctx, cfg, log, true)
	if err != nil {
		return err
	}
	defer closeStore(s, log)

	health := map[string]handlers.Pinger{s.name: s.pinger}

	codec, err := security.NewJWTCodec(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return err
	}
	hasher := security.NewBcryptHasher(bcrypt.DefaultCost)

	// --- Notifications ---
	var sender mail.Sender = mail.NewLogSender(log)
	if cfg.SMTP.Host != "" {
		sender = mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	}
	dispatcher := queue.NewDispatcher(cfg.SMTP.Workers, sender, log)
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher.Start(workerCtx)
	defer func() {
		stopWorkers()
		dispatcher.Wait()
	}()

	authOpts := []service.AuthOption{service.WithNotifier(mail.NewNotifier(dispatcher))}

	// --- Login throttling (optional) ---
	if cfg.Redis.Addr != "" {
		client, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, login throttling disabled")
		} else {
			defer client.Close()
			authOpts = append(authOpts, service.WithLoginThrottle(
				redisstore.NewLoginLimiter(client, cfg.Login.MaxAttempts, cfg.Login.Window),
			))
			health["redis"] = handlers.PingFunc(redisstore.Ping(client))
		}
	}

	authService := service.NewAuthService(s.users, hasher, codec, log, authOpts...)
	if _, err := authService.EnsureAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		return err
	}

	var (
		projects ports.ProjectService = service.NewProjectService(s.projects, s.users, log)
		tasks    ports.TaskService    = service.NewTaskService(s.tasks, s.projects, s.users, log)
		users    ports.UserService    = service.NewUserService(s.users, s.projects, log)
	)

	e, err := api.NewRouter(api.Deps{
		Auth:          authService,
		Projects:      projects,
		Tasks:         tasks,
		Users:         users,
		UserRepo:      s.users,
		Codec:         codec,
		Log:           log,
		CookieSecure:  cfg.CookieSecure,
		AuthRateLimit: cfg.Login.AuthRateLimit,
		Health:        health,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", s.name).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
