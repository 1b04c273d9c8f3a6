package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/rmedeiros-eng/scse/internal"
	"github.com/rmedeiros-eng/scse/internal/attachment"
	"github.com/rmedeiros-eng/scse/internal/audit"
	auditpostgres "github.com/rmedeiros-eng/scse/internal/audit/postgres"
	"github.com/rmedeiros-eng/scse/internal/auth"
	authpostgres "github.com/rmedeiros-eng/scse/internal/auth/postgres"
	"github.com/rmedeiros-eng/scse/internal/directory"
	"github.com/rmedeiros-eng/scse/internal/group"
	grouppostgres "github.com/rmedeiros-eng/scse/internal/group/postgres"
	"github.com/rmedeiros-eng/scse/internal/machineexit"
	machineexitpostgres "github.com/rmedeiros-eng/scse/internal/machineexit/postgres"
	"github.com/rmedeiros-eng/scse/internal/notification"
	"github.com/rmedeiros-eng/scse/internal/substitution"
	substitutionpostgres "github.com/rmedeiros-eng/scse/internal/substitution/postgres"
	"github.com/rmedeiros-eng/scse/internal/transfer"
	transferpostgres "github.com/rmedeiros-eng/scse/internal/transfer/postgres"
	"github.com/rmedeiros-eng/scse/internal/transport/rest"
	"github.com/rmedeiros-eng/scse/internal/user"
	userpostgres "github.com/rmedeiros-eng/scse/internal/user/postgres"
	"github.com/rmedeiros-eng/scse/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	Router   *chi.Mux
	Handlers rest.Handlers
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB, deps.Handlers, deps.Config.Server.AllowedOrigins, deps.Logger)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

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
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	cfg, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	lg := logger.LoggerWrapper()

	db, err := initDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gdb, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm over pgx: %w", err)
	}

	handlers, err := buildHandlers(cfg, gdb, lg)
	if err != nil {
		return nil, err
	}

	return &Dependencies{
		Config:   cfg,
		DB:       db,
		Router:   chi.NewRouter(),
		Handlers: handlers,
		Logger:   lg,
	}, nil
}

// buildHandlers wires every repository, service and handler. All domain
// services share the same gorm handle; each workflow transition commits
// in its own transaction and the audit row is written best-effort after
// it.
func buildHandlers(cfg *internal.Config, gdb *gorm.DB, lg *slog.Logger) (rest.Handlers, error) {
	auditRepo := auditpostgres.NewAuditRepository(gdb)
	auditLogger := audit.NewLogger(auditRepo, lg)
	auditService := audit.NewService(auditRepo, lg)

	var notifier notification.Notifier
	if cfg.Mailer.Host != "" {
		notifier = notification.NewSMTPNotifier(cfg.Mailer)
	}
	dispatcher := notification.NewDispatcher(notifier, lg)

	authRepo := authpostgres.NewRepository(gdb)
	resolver := auth.NewPermissionResolver(authRepo, lg)
	tokenGen := auth.NewJWTTokenGenerator(cfg.Security.JWTSecret, cfg.Security.SessionTTL)

	var dirAuth auth.DirectoryAuthenticator
	dirClient := directory.NewClient(cfg.Directory)
	if cfg.Directory.Enabled {
		dirAuth = dirClient
	}

	authService := auth.NewService(authRepo, resolver, dirAuth, cfg.Directory, tokenGen, lg)

	substitutionRepo := substitutionpostgres.NewSubstitutionRepository(gdb)
	delegates := substitution.NewResolver(substitutionRepo, lg)
	substitutionService := substitution.NewService(substitutionRepo, auditLogger, lg)

	userRepo := userpostgres.NewUserRepository(gdb)
	userService := user.NewService(userRepo, auditLogger, cfg.Security.BCryptCost, lg)

	groupRepo := grouppostgres.NewGroupRepository(gdb)
	groupService := group.NewService(groupRepo, auditLogger, lg)

	machineExitRepo := machineexitpostgres.NewMachineExitRepository(gdb)
	machineExitService := machineexit.NewService(machineExitRepo, delegates, auditLogger, dispatcher, cfg.Mailer.ApprovalURL, lg)

	transferRepo := transferpostgres.NewTransferRepository(gdb)
	transferService := transfer.NewService(transferRepo, auditLogger, lg)

	store, err := attachment.NewDiskStore(cfg.Uploads)
	if err != nil {
		return rest.Handlers{}, fmt.Errorf("failed to initialize upload store: %w", err)
	}

	handlers := rest.Handlers{
		Auth:         auth.NewHandler(authService),
		MachineExit:  machineexit.NewHandler(machineExitService),
		Transfer:     transfer.NewHandler(transferService),
		User:         user.NewHandler(userService),
		Group:        group.NewHandler(groupService),
		Substitution: substitution.NewHandler(substitutionService),
		Audit:        audit.NewHandler(auditService),
		Attachment:   attachment.NewHandler(store),
	}

	if cfg.Directory.Enabled {
		syncService := directory.NewSyncService(dirClient, userService, lg)
		handlers.Directory = directory.NewHandler(syncService)
	}

	return handlers, nil
}

// initDB opens the pgx stdlib connection pool.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
