package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/zhar/internal"
	"github.com/frahmantamala/zhar/internal/access"
	"github.com/frahmantamala/zhar/internal/assignment"
	assignmentPostgres "github.com/frahmantamala/zhar/internal/assignment/postgres"
	"github.com/frahmantamala/zhar/internal/auth"
	authPostgres "github.com/frahmantamala/zhar/internal/auth/postgres"
	"github.com/frahmantamala/zhar/internal/core/events"
	"github.com/frahmantamala/zhar/internal/creditrequest"
	creditrequestPostgres "github.com/frahmantamala/zhar/internal/creditrequest/postgres"
	"github.com/frahmantamala/zhar/internal/dashboard"
	"github.com/frahmantamala/zhar/internal/leaderboard"
	leaderboardPostgres "github.com/frahmantamala/zhar/internal/leaderboard/postgres"
	"github.com/frahmantamala/zhar/internal/mission"
	missionPostgres "github.com/frahmantamala/zhar/internal/mission/postgres"
	"github.com/frahmantamala/zhar/internal/profile"
	profilePostgres "github.com/frahmantamala/zhar/internal/profile/postgres"
	"github.com/frahmantamala/zhar/internal/project"
	projectPostgres "github.com/frahmantamala/zhar/internal/project/postgres"
	"github.com/frahmantamala/zhar/internal/scheduler"
	"github.com/frahmantamala/zhar/internal/session"
	"github.com/frahmantamala/zhar/internal/transport"
	"github.com/frahmantamala/zhar/internal/transport/openapi"
	"github.com/frahmantamala/zhar/internal/transport/rest"
	"github.com/frahmantamala/zhar/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle page and API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config    *internal.Config
	DB        *sqlx.DB
	Gorm      *gorm.DB
	Router    *chi.Mux
	Bus       *events.EventBus
	Sessions  *session.Provider
	Scheduler *scheduler.Manager
	Logger    *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	lg := deps.Logger

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	lg.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		lg.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			lg.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("Server failed to start", "error", err)
			deps.Close()
			os.Exit(1)
		}
	}

	deps.Close()
	lg.Info("Server stopped")
}

// Close stops background work before the database goes away.
func (d *Dependencies) Close() {
	if err := d.Scheduler.Stop(); err != nil {
		d.Logger.Error("Scheduler shutdown error", "error", err)
	}
	d.Sessions.Dispose()
	d.Bus.Wait()
	if err := d.DB.Close(); err != nil {
		d.Logger.Error("Database close error", "error", err)
	}
}

func initializeDependencies() (*Dependencies, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(cfg.Observability.Logging.Format, cfg.Observability.Logging.Level)
	lg := logger.LoggerWrapper()

	db, gdb, err := initDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	doc, err := openapi.Load(ctx, cfg.Server.OpenAPIPath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to load openapi document: %w", err)
	}
	lg.Info("Loaded API document", "title", doc.Title(), "version", doc.Version(), "operations", len(doc.Operations()))

	bus := events.NewEventBus(lg)
	base := transport.NewBaseHandler(lg)

	tokens := auth.NewJWTTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(authPostgres.NewRepository(gdb), tokens, cfg.Security.BCryptCost, lg)

	profileService := profile.NewService(profilePostgres.NewRepository(gdb), authService, bus, lg)
	projectService := project.NewService(projectPostgres.NewRepository(gdb), lg)
	assignmentService := assignment.NewService(assignmentPostgres.NewRepository(gdb), projectService, profileService, lg)
	creditService := creditrequest.NewService(creditrequestPostgres.NewRepository(gdb), assignmentService, projectService, bus, lg)
	missionService := mission.NewService(missionPostgres.NewMissionRepository(gdb), missionPostgres.NewRequestRepository(gdb), lg)
	leaderboardService := leaderboard.NewService(leaderboardPostgres.NewRepository(db), lg)
	dashboardService := dashboard.NewService(dashboard.Deps{
		Profiles:       profileService,
		Projects:       projectService,
		Assignments:    assignmentService,
		CreditRequests: creditService,
		Missions:       missionService,
		Leaderboard:    leaderboardService,
	}, cfg.Credits.MonthlyTarget, lg)

	bus.Subscribe(events.EventTypeCreditRequestApproved, assignmentService.HandleCreditApproved)

	provider := session.NewProvider(authService, profileService, bus, session.Config{
		RestoreWait:      cfg.Session.RestoreWait,
		NoProfileTimeout: cfg.Session.NoProfileTimeout,
	}, lg)
	if err := provider.Init(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to restore sessions: %w", err)
	}

	jobs, err := scheduler.NewManager(lg)
	if err != nil {
		provider.Dispose()
		_ = db.Close()
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	sweep := scheduler.NewSessionSweepJob(provider, authService, cfg.Scheduler.SessionSweepInterval, cfg.Scheduler.SessionRetention, lg)
	if err := jobs.Register(sweep); err != nil {
		provider.Dispose()
		_ = db.Close()
		return nil, fmt.Errorf("failed to register %s: %w", sweep.Name(), err)
	}
	jobs.Start()

	var bootstrap *profile.BootstrapAdmin
	if cfg.Bootstrap.Enabled {
		bootstrap = bootstrapAdmin(cfg.Bootstrap)
	}

	guard := access.NewGuard(base, provider, access.CookieConfig{
		Name:        cfg.Session.CookieName,
		RefreshName: cfg.Session.RefreshCookieName,
		Secure:      cfg.Session.CookieSecure,
		RefreshTTL:  cfg.Security.RefreshTokenDuration,
	})

	handlers := rest.Handlers{
		Guard: guard,
		Health: rest.NewHealthHandler(base, map[string]rest.Check{
			"postgres": db.PingContext,
		}),
		Session:       session.NewHandler(base, provider),
		Profile:       profile.NewHandler(base, profileService, bootstrap),
		Project:       project.NewHandler(base, projectService),
		Assignment:    assignment.NewHandler(base, assignmentService, creditService),
		CreditRequest: creditrequest.NewHandler(base, creditService),
		Mission:       mission.NewHandler(base, missionService),
		Leaderboard:   leaderboard.NewHandler(base, leaderboardService),
		Dashboard:     dashboard.NewHandler(base, dashboardService, leaderboardService),
		OpenAPI:       doc,
	}

	deps := &Dependencies{
		Config:    cfg,
		DB:        db,
		Gorm:      gdb,
		Router:    chi.NewRouter(),
		Bus:       bus,
		Sessions:  provider,
		Scheduler: jobs,
		Logger:    lg,
	}

	opts := rest.Options{
		AllowedOrigins: cfg.Server.Origins(),
		RequestTimeout: cfg.Server.RequestTimeout,
	}
	if err := rest.RegisterAllRoutes(deps.Router, handlers, opts, lg); err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to register routes: %w", err)
	}

	return deps, nil
}

func bootstrapAdmin(cfg internal.BootstrapConfig) *profile.BootstrapAdmin {
	return &profile.BootstrapAdmin{
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
		FullName: cfg.AdminName,
	}
}

// initDB opens one pgx pool shared by sqlx (read models) and gorm (repositories).
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, *gorm.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: dbConn.DB}), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		_ = dbConn.Close()
		return nil, nil, fmt.Errorf("failed to open gorm session: %w", err)
	}

	return dbConn, gdb, nil
}
