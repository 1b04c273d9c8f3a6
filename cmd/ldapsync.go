package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/rmedeiros-eng/scse/internal/audit"
	auditpostgres "github.com/rmedeiros-eng/scse/internal/audit/postgres"
	"github.com/rmedeiros-eng/scse/internal/directory"
	"github.com/rmedeiros-eng/scse/internal/user"
	userpostgres "github.com/rmedeiros-eng/scse/internal/user/postgres"
	"github.com/rmedeiros-eng/scse/pkg/logger"
)

// defaultSyncSchedule runs hourly during the daytime window.
const defaultSyncSchedule = "0 6-20 * * *"

var ldapSyncOnce bool

var ldapSyncCmd = &cobra.Command{
	Use:   "ldap-sync",
	Short: "Import and refresh local users from the directory",
	Long:  `Runs the directory synchronization pass, either once or on the configured cron schedule.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		if !cfg.Directory.Enabled {
			log.Fatal("directory integration is disabled in config")
		}

		logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
		lg := logger.LoggerWrapper()

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlDB.Close()

		gdb, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to open gorm: %v", err)
		}

		auditLogger := audit.NewLogger(auditpostgres.NewAuditRepository(gdb), lg)
		userService := user.NewService(userpostgres.NewUserRepository(gdb), auditLogger, cfg.Security.BCryptCost, lg)
		syncService := directory.NewSyncService(directory.NewClient(cfg.Directory), userService, lg)

		runPass := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			result, err := syncService.Run(ctx)
			if err != nil {
				lg.Error("directory sync pass failed", "error", err)
				return
			}
			auditLogger.Record(audit.EntityUser, "-", audit.ActionDirectorySync, "system",
				fmt.Sprintf("criados=%d atualizados=%d falhas=%d", result.Created, result.Updated, result.Failed))
		}

		if ldapSyncOnce {
			runPass()
			return
		}

		schedule := cfg.Directory.SyncSchedule
		if schedule == "" {
			schedule = defaultSyncSchedule
		}

		c := cron.New()
		if _, err := c.AddFunc(schedule, runPass); err != nil {
			log.Fatalf("invalid sync schedule %q: %v", schedule, err)
		}

		lg.Info("directory sync scheduler started", "schedule", schedule)
		c.Start()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan

		lg.Info("received signal, stopping scheduler", "signal", sig)
		<-c.Stop().Done()
	},
}

func init() {
	ldapSyncCmd.Flags().BoolVar(&ldapSyncOnce, "once", false, "Run a single synchronization pass and exit")
}
