package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/frahmantamala/zhar/internal/auth"
	authPostgres "github.com/frahmantamala/zhar/internal/auth/postgres"
	"github.com/frahmantamala/zhar/internal/core/events"
	"github.com/frahmantamala/zhar/internal/profile"
	profilePostgres "github.com/frahmantamala/zhar/internal/profile/postgres"
	"github.com/frahmantamala/zhar/pkg/logger"
	"github.com/spf13/cobra"
)

var setupAdminCmd = &cobra.Command{
	Use:   "setup-admin",
	Short: "Create the bootstrap administrator",
	Long:  `Create the administrator configured under bootstrap.admin_email and bootstrap.admin_password. Safe to run repeatedly.`,
	RunE:  runSetupAdmin,
}

func runSetupAdmin(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.Bootstrap.AdminEmail == "" || cfg.Bootstrap.AdminPassword == "" {
		return errors.New("bootstrap.admin_email and bootstrap.admin_password are required")
	}

	logger.Init(cfg.Observability.Logging.Format, cfg.Observability.Logging.Level)
	lg := logger.LoggerWrapper()

	db, gdb, err := initDB(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	tokens := auth.NewJWTTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(authPostgres.NewRepository(gdb), tokens, cfg.Security.BCryptCost, lg)

	bus := events.NewEventBus(lg)
	defer bus.Wait()
	profiles := profile.NewService(profilePostgres.NewRepository(gdb), authService, bus, lg)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := profiles.EnsureAdmin(ctx, *bootstrapAdmin(cfg.Bootstrap))
	if err != nil {
		return fmt.Errorf("setup admin: %w", err)
	}
	fmt.Println(result.Message, result.Email)
	return nil
}
