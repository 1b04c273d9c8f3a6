package auth

import (
	"log/slog"
	"strings"
)

// PermissionSet is the effective capability set of a session. The flags are
// a fixed-width struct rather than a map so a missing capability is a
// compile error, not a silent false.
type PermissionSet struct {
	CanAccessAdminPanel  bool `json:"can_access_admin_panel"`
	CanManageUsers       bool `json:"can_manage_users"`
	CanManageGroups      bool `json:"can_manage_groups"`
	CanManageConfig      bool `json:"can_manage_config"`
	CanPerformApprovals  bool `json:"can_perform_approvals"`
	CanAccessGateControl bool `json:"can_access_gate_control"`
	CanCreateMachineExit bool `json:"can_create_machine_exit"`
	CanCreateTransfer    bool `json:"can_create_transfer"`
	CanViewAuditLog      bool `json:"can_view_audit_log"`
}

type Capability int

const (
	CapAccessAdminPanel Capability = iota
	CapManageUsers
	CapManageGroups
	CapManageConfig
	CapPerformApprovals
	CapAccessGateControl
	CapCreateMachineExit
	CapCreateTransfer
	CapViewAuditLog
)

func (c Capability) String() string {
	switch c {
	case CapAccessAdminPanel:
		return "can_access_admin_panel"
	case CapManageUsers:
		return "can_manage_users"
	case CapManageGroups:
		return "can_manage_groups"
	case CapManageConfig:
		return "can_manage_config"
	case CapPerformApprovals:
		return "can_perform_approvals"
	case CapAccessGateControl:
		return "can_access_gate_control"
	case CapCreateMachineExit:
		return "can_create_machine_exit"
	case CapCreateTransfer:
		return "can_create_transfer"
	case CapViewAuditLog:
		return "can_view_audit_log"
	}
	return "unknown"
}

func (p PermissionSet) Has(c Capability) bool {
	switch c {
	case CapAccessAdminPanel:
		return p.CanAccessAdminPanel
	case CapManageUsers:
		return p.CanManageUsers
	case CapManageGroups:
		return p.CanManageGroups
	case CapManageConfig:
		return p.CanManageConfig
	case CapPerformApprovals:
		return p.CanPerformApprovals
	case CapAccessGateControl:
		return p.CanAccessGateControl
	case CapCreateMachineExit:
		return p.CanCreateMachineExit
	case CapCreateTransfer:
		return p.CanCreateTransfer
	case CapViewAuditLog:
		return p.CanViewAuditLog
	}
	return false
}

func (p PermissionSet) HasAny(caps ...Capability) bool {
	for _, c := range caps {
		if p.Has(c) {
			return true
		}
	}
	return false
}

// Union ORs every flag across the given sets: a capability granted by any
// group is granted to the user.
func Union(sets ...PermissionSet) PermissionSet {
	var out PermissionSet
	for _, s := range sets {
		out.CanAccessAdminPanel = out.CanAccessAdminPanel || s.CanAccessAdminPanel
		out.CanManageUsers = out.CanManageUsers || s.CanManageUsers
		out.CanManageGroups = out.CanManageGroups || s.CanManageGroups
		out.CanManageConfig = out.CanManageConfig || s.CanManageConfig
		out.CanPerformApprovals = out.CanPerformApprovals || s.CanPerformApprovals
		out.CanAccessGateControl = out.CanAccessGateControl || s.CanAccessGateControl
		out.CanCreateMachineExit = out.CanCreateMachineExit || s.CanCreateMachineExit
		out.CanCreateTransfer = out.CanCreateTransfer || s.CanCreateTransfer
		out.CanViewAuditLog = out.CanViewAuditLog || s.CanViewAuditLog
	}
	return out
}

// PermissionSource is the slice of the record store needed to resolve
// effective permissions.
type PermissionSource interface {
	ActiveUserExists(userID int64) (bool, error)
	GroupPermissionsForUser(userID int64) ([]PermissionSet, error)
}

// PermissionResolver computes a user's effective capability set by
// unioning the flags of every group the user belongs to. It runs on every
// authorization-bearing login and re-reads the store each time: group
// edits take effect for the next resolution with no cache to invalidate.
type PermissionResolver struct {
	source PermissionSource
	logger *slog.Logger
}

func NewPermissionResolver(source PermissionSource, logger *slog.Logger) *PermissionResolver {
	return &PermissionResolver{source: source, logger: logger}
}

// Resolve never fails: a missing or inactive user, or any lookup error,
// degrades to the zero (all-false) set.
func (r *PermissionResolver) Resolve(userID int64) PermissionSet {
	if userID <= 0 {
		return PermissionSet{}
	}

	active, err := r.source.ActiveUserExists(userID)
	if err != nil {
		r.logger.Warn("permission resolution degraded to empty set", "user_id", userID, "error", err)
		return PermissionSet{}
	}
	if !active {
		return PermissionSet{}
	}

	sets, err := r.source.GroupPermissionsForUser(userID)
	if err != nil {
		r.logger.Warn("group permission lookup failed", "user_id", userID, "error", err)
		return PermissionSet{}
	}

	return Union(sets...)
}

// PermissionsFromDirectoryGroups maps directory group memberships onto
// capabilities for ad-hoc identities (directory login, no local record).
// Group name comparison is case-insensitive. Members of the gate group who
// are not also admins operate checkpoints only and cannot open processes.
func PermissionsFromDirectoryGroups(adminGroup, managerGroup, gateGroup string, memberOf []string) PermissionSet {
	inGroup := func(name string) bool {
		for _, g := range memberOf {
			if strings.EqualFold(g, name) {
				return true
			}
		}
		return false
	}

	isAdmin := inGroup(adminGroup)
	isManager := inGroup(managerGroup)
	isGate := inGroup(gateGroup)

	canCreate := !(isGate && !isAdmin)

	return PermissionSet{
		CanAccessAdminPanel:  isAdmin,
		CanManageUsers:       isAdmin,
		CanManageGroups:      isAdmin,
		CanManageConfig:      isAdmin,
		CanPerformApprovals:  isAdmin || isManager,
		CanAccessGateControl: isAdmin || isGate,
		CanCreateMachineExit: canCreate,
		CanCreateTransfer:    canCreate,
		CanViewAuditLog:      isAdmin,
	}
}
