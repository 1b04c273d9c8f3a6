package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/rmedeiros-eng/scse/internal/auth"
	"github.com/rmedeiros-eng/scse/internal/group"
)

var seedAdminPassword string

// seedCmd bootstraps the protected admin group and one admin account so a
// fresh installation can log in and configure everything else.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the Administrators group and a bootstrap admin user",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlDB.Close()

		db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to open gorm: %v", err)
		}

		var groupID int64
		row := db.Raw(`SELECT id FROM permission_groups WHERE name = ?`, group.AdminGroupName).Row()
		if err := row.Scan(&groupID); err != nil {
			if err := db.Exec(`
				INSERT INTO permission_groups (
					name,
					can_access_admin_panel, can_manage_users, can_manage_groups, can_manage_config,
					can_perform_approvals, can_access_gate_control, can_create_machine_exit,
					can_create_transfer, can_view_audit_log,
					created_at, updated_at
				) VALUES (?, true, true, true, true, true, true, true, true, true, now(), now())
			`, group.AdminGroupName).Error; err != nil {
				log.Fatalf("failed to seed admin group: %v", err)
			}
			if err := db.Raw(`SELECT id FROM permission_groups WHERE name = ?`, group.AdminGroupName).Row().Scan(&groupID); err != nil {
				log.Fatalf("failed to read admin group id: %v", err)
			}
			fmt.Println("Seeded group:", group.AdminGroupName)
		} else {
			fmt.Println("Admin group already exists")
		}

		var userID int64
		row = db.Raw(`SELECT id FROM users WHERE username = ?`, "admin").Row()
		if err := row.Scan(&userID); err != nil {
			hash, err := auth.HashPassword(seedAdminPassword, cfg.Security.BCryptCost)
			if err != nil {
				log.Fatalf("failed to hash admin password: %v", err)
			}
			if err := db.Exec(`
				INSERT INTO users (username, display_name, email, department, password_hash, active, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, true, now(), now())
			`, "admin", "Administrador", "admin@localhost", "TI", hash).Error; err != nil {
				log.Fatalf("failed to seed admin user: %v", err)
			}
			if err := db.Raw(`SELECT id FROM users WHERE username = ?`, "admin").Row().Scan(&userID); err != nil {
				log.Fatalf("failed to read admin user id: %v", err)
			}
			fmt.Println("Seeded user: admin")
		} else {
			fmt.Println("Admin user already exists")
		}

		var linked int64
		if err := db.Raw(`SELECT COUNT(1) FROM user_groups WHERE user_id = ? AND group_id = ?`, userID, groupID).Row().Scan(&linked); err == nil && linked == 0 {
			if err := db.Exec(`INSERT INTO user_groups (user_id, group_id) VALUES (?, ?)`, userID, groupID).Error; err != nil {
				log.Fatalf("failed to link admin user to group: %v", err)
			}
			fmt.Println("Linked admin user to", group.AdminGroupName)
		}
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedAdminPassword, "admin-password", "mudar123", "Initial password for the bootstrap admin user")
}
