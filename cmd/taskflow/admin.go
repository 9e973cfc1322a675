package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskflow/taskflow-backend/internal/core/service"
	"github.com/taskflow/taskflow-backend/internal/infrastructure/config"
	"github.com/taskflow/taskflow-backend/internal/infrastructure/security"
)

func createAdminCmd() *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create the initial administrator",
		Long: `Create an active ADMIN account when the user store is empty.

Flags override ADMIN_NAME, ADMIN_EMAIL and ADMIN_PASSWORD.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, log, err := loadConfig(ctx)
			if err != nil {
				return err
			}
			if name != "" {
				cfg.Admin.Name = name
			}
			if email != "" {
				cfg.Admin.Email = email
			}
			if password != "" {
				cfg.Admin.Password = password
			}

			s, err := openStore(ctx, cfg, log, true)
			if err != nil {
				return err
			}
			defer closeStore(s, log)

			created, err := seedAdmin(ctx, cfg, s, log)
			if err != nil {
				return err
			}
			if !created {
				fmt.Println("users already exist, nothing to do")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Administrator name")
	cmd.Flags().StringVar(&email, "email", "", "Administrator email")
	cmd.Flags().StringVar(&password, "password", "", "Administrator password")

	return cmd
}

func seedAdmin(ctx context.Context, cfg *config.Config, s *store, log zerolog.Logger) (bool, error) {
	codec, err := security.NewJWTCodec(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return false, err
	}
	auth := service.NewAuthService(s.users, security.NewBcryptHasher(bcrypt.DefaultCost), codec, log)
	return auth.EnsureAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password)
}
