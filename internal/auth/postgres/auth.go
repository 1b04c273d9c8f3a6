package postgres

import (
	"database/sql"
	"errors"

	"gorm.io/gorm"

	"github.com/rmedeiros-eng/scse/internal/auth"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetByUsername(username string) (*auth.UserRecord, error) {
	var rec auth.UserRecord
	query := `SELECT u.id, u.username, u.display_name, COALESCE(u.email, ''), COALESCE(u.department, ''),
	                 u.password_hash, u.active,
	                 COALESCE(m.display_name, ''), COALESCE(m.email, '')
	          FROM users u
	          LEFT JOIN users m ON m.id = u.manager_id
	          WHERE u.username = ?`

	row := r.db.Raw(query, username).Row()
	err := row.Scan(&rec.ID, &rec.Username, &rec.DisplayName, &rec.Email, &rec.Department,
		&rec.PasswordHash, &rec.Active, &rec.ManagerName, &rec.ManagerEmail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (r *Repository) UpdateDirectoryProfile(userID int64, displayName, email, department string) error {
	return r.db.Exec(
		`UPDATE users SET display_name = ?, email = ?, department = ?, updated_at = now() WHERE id = ?`,
		displayName, email, department, userID,
	).Error
}

func (r *Repository) ActiveUserExists(userID int64) (bool, error) {
	var one int
	row := r.db.Raw(`SELECT 1 FROM users WHERE id = ? AND active = true`, userID).Row()
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GroupPermissionsForUser returns one capability set per group the user
// belongs to; the resolver ORs them together.
func (r *Repository) GroupPermissionsForUser(userID int64) ([]auth.PermissionSet, error) {
	query := `SELECT g.can_access_admin_panel, g.can_manage_users, g.can_manage_groups,
	                 g.can_manage_config, g.can_perform_approvals, g.can_access_gate_control,
	                 g.can_create_machine_exit, g.can_create_transfer, g.can_view_audit_log
	          FROM permission_groups g
	          JOIN user_groups ug ON ug.group_id = g.id
	          WHERE ug.user_id = ?`

	rows, err := r.db.Raw(query, userID).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sets []auth.PermissionSet
	for rows.Next() {
		var p auth.PermissionSet
		if err := rows.Scan(&p.CanAccessAdminPanel, &p.CanManageUsers, &p.CanManageGroups,
			&p.CanManageConfig, &p.CanPerformApprovals, &p.CanAccessGateControl,
			&p.CanCreateMachineExit, &p.CanCreateTransfer, &p.CanViewAuditLog); err != nil {
			return nil, err
		}
		sets = append(sets, p)
	}
	return sets, rows.Err()
}
