package group

import (
	"time"

	"github.com/rmedeiros-eng/scse/internal/auth"
)

// AdminGroupName is the protected bootstrap group. It cannot be deleted or
// renamed: the at-least-one-admin invariant hangs off it.
const AdminGroupName = "Administradores"

// Group is a named bundle of capability flags, linked to users through the
// user_groups table. A user's effective permissions are the OR across all
// groups they belong to.
type Group struct {
	ID                   int64     `json:"id" gorm:"primaryKey"`
	Name                 string    `json:"name" gorm:"uniqueIndex;not null"`
	CanAccessAdminPanel  bool      `json:"can_access_admin_panel" gorm:"column:can_access_admin_panel;not null;default:false"`
	CanManageUsers       bool      `json:"can_manage_users" gorm:"column:can_manage_users;not null;default:false"`
	CanManageGroups      bool      `json:"can_manage_groups" gorm:"column:can_manage_groups;not null;default:false"`
	CanManageConfig      bool      `json:"can_manage_config" gorm:"column:can_manage_config;not null;default:false"`
	CanPerformApprovals  bool      `json:"can_perform_approvals" gorm:"column:can_perform_approvals;not null;default:false"`
	CanAccessGateControl bool      `json:"can_access_gate_control" gorm:"column:can_access_gate_control;not null;default:false"`
	CanCreateMachineExit bool      `json:"can_create_machine_exit" gorm:"column:can_create_machine_exit;not null;default:false"`
	CanCreateTransfer    bool      `json:"can_create_transfer" gorm:"column:can_create_transfer;not null;default:false"`
	CanViewAuditLog      bool      `json:"can_view_audit_log" gorm:"column:can_view_audit_log;not null;default:false"`
	CreatedAt            time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt            time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (Group) TableName() string {
	return "permission_groups"
}

func (g *Group) Permissions() auth.PermissionSet {
	return auth.PermissionSet{
		CanAccessAdminPanel:  g.CanAccessAdminPanel,
		CanManageUsers:       g.CanManageUsers,
		CanManageGroups:      g.CanManageGroups,
		CanManageConfig:      g.CanManageConfig,
		CanPerformApprovals:  g.CanPerformApprovals,
		CanAccessGateControl: g.CanAccessGateControl,
		CanCreateMachineExit: g.CanCreateMachineExit,
		CanCreateTransfer:    g.CanCreateTransfer,
		CanViewAuditLog:      g.CanViewAuditLog,
	}
}

func (g *Group) SetPermissions(p auth.PermissionSet) {
	g.CanAccessAdminPanel = p.CanAccessAdminPanel
	g.CanManageUsers = p.CanManageUsers
	g.CanManageGroups = p.CanManageGroups
	g.CanManageConfig = p.CanManageConfig
	g.CanPerformApprovals = p.CanPerformApprovals
	g.CanAccessGateControl = p.CanAccessGateControl
	g.CanCreateMachineExit = p.CanCreateMachineExit
	g.CanCreateTransfer = p.CanCreateTransfer
	g.CanViewAuditLog = p.CanViewAuditLog
}

// IsProtected reports whether the group is shielded from delete/rename.
func (g *Group) IsProtected() bool {
	return g.Name == AdminGroupName
}

type Repository interface {
	Insert(g *Group) error
	GetByID(id int64) (*Group, error)
	GetByName(name string) (*Group, error)
	Update(g *Group) error
	Delete(id int64) error
	List() ([]*Group, error)
	CountMembers(id int64) (int64, error)
	// ReplaceMembers swaps the group's membership atomically.
	ReplaceMembers(groupID int64, userIDs []int64) error
	MemberIDs(groupID int64) ([]int64, error)
}
