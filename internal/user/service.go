package user

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"github.com/rmedeiros-eng/scse/internal"
	"github.com/rmedeiros-eng/scse/internal/audit"
	"github.com/rmedeiros-eng/scse/internal/auth"
)

type ServiceAPI interface {
	Create(dto CreateUserDTO, actor *auth.SessionClaims) (*User, error)
	Update(id int64, dto UpdateUserDTO, actor *auth.SessionClaims) (*User, error)
	Delete(id int64, actor *auth.SessionClaims) error
	Get(id int64) (*User, error)
	List() ([]*User, error)
	GroupIDs(userID int64) ([]int64, error)
}

type Service struct {
	repo       Repository
	audit      *audit.Logger
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo Repository, auditLogger *audit.Logger, bcryptCost int, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: auditLogger, bcryptCost: bcryptCost, logger: logger}
}

func (s *Service) Create(dto CreateUserDTO, actor *auth.SessionClaims) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(dto.Username)
	if existing, err := s.repo.GetByUsername(username); err != nil {
		return nil, internal.NewInternalError("failed to check username", err)
	} else if existing != nil {
		return nil, internal.NewReferentialConflictError("nome de usuário já cadastrado", internal.ErrCodeDuplicateUsername)
	}

	u := &User{
		Username:    username,
		DisplayName: strings.TrimSpace(dto.DisplayName),
		Email:       strings.TrimSpace(dto.Email),
		Department:  strings.TrimSpace(dto.Department),
		Active:      true,
		ManagerID:   dto.ManagerID,
	}
	if dto.Active != nil {
		u.Active = *dto.Active
	}

	if dto.Password != "" {
		hash, err := auth.HashPassword(dto.Password, s.bcryptCost)
		if err != nil {
			return nil, internal.NewInternalError("failed to hash password", err)
		}
		u.PasswordHash = &hash
	}

	if err := s.repo.Insert(u); err != nil {
		return nil, internal.NewInternalError("failed to create user", err)
	}

	if len(dto.GroupIDs) > 0 {
		if err := s.repo.ReplaceGroups(u.ID, dto.GroupIDs); err != nil {
			return nil, internal.NewInternalError("failed to link groups", err)
		}
	}

	s.audit.Record(audit.EntityUser, fmt.Sprintf("%d", u.ID), audit.ActionCreated, actor.Username,
		fmt.Sprintf("username=%s", u.Username))

	return u, nil
}

func (s *Service) Update(id int64, dto UpdateUserDTO, actor *auth.SessionClaims) (*User, error) {
	u, err := s.getOrNotFound(id)
	if err != nil {
		return nil, err
	}

	if dto.Active != nil && !*dto.Active && u.Active {
		if s.isSelf(actor, u) {
			return nil, internal.NewReferentialConflictError("você não pode desativar a própria conta", internal.ErrCodeSelfAction)
		}
		if err := s.guardLastAdmin(u); err != nil {
			return nil, err
		}
	}

	if dto.DisplayName != nil {
		u.DisplayName = strings.TrimSpace(*dto.DisplayName)
	}
	if dto.Email != nil {
		u.Email = strings.TrimSpace(*dto.Email)
	}
	if dto.Department != nil {
		u.Department = strings.TrimSpace(*dto.Department)
	}
	if dto.Active != nil {
		u.Active = *dto.Active
	}
	if dto.ClearManager {
		u.ManagerID = nil
	} else if dto.ManagerID != nil {
		u.ManagerID = dto.ManagerID
	}
	if dto.Password != nil && *dto.Password != "" {
		hash, err := auth.HashPassword(*dto.Password, s.bcryptCost)
		if err != nil {
			return nil, internal.NewInternalError("failed to hash password", err)
		}
		u.PasswordHash = &hash
	}

	if err := s.repo.Update(u); err != nil {
		return nil, internal.NewInternalError("failed to update user", err)
	}

	if dto.GroupIDs != nil {
		if err := s.repo.ReplaceGroups(u.ID, *dto.GroupIDs); err != nil {
			return nil, internal.NewInternalError("failed to replace group links", err)
		}
	}

	s.audit.Record(audit.EntityUser, fmt.Sprintf("%d", u.ID), audit.ActionUpdated, actor.Username, "")

	return u, nil
}

func (s *Service) Delete(id int64, actor *auth.SessionClaims) error {
	u, err := s.getOrNotFound(id)
	if err != nil {
		return err
	}

	if s.isSelf(actor, u) {
		return internal.NewReferentialConflictError("você não pode excluir a própria conta", internal.ErrCodeSelfAction)
	}

	subordinates, err := s.repo.CountSubordinates(id)
	if err != nil {
		return internal.NewInternalError("failed to count subordinates", err)
	}
	if subordinates > 0 {
		return internal.NewReferentialConflictError("usuário é gestor de outros usuários", internal.ErrCodeUserHasSubordinates)
	}

	links, err := s.repo.CountGroupLinks(id)
	if err != nil {
		return internal.NewInternalError("failed to count group links", err)
	}
	if links > 0 {
		return internal.NewReferentialConflictError("usuário ainda pertence a grupos de permissão", internal.ErrCodeUserHasGroups)
	}

	if err := s.guardLastAdmin(u); err != nil {
		return err
	}

	if err := s.repo.Delete(id); err != nil {
		return internal.NewInternalError("failed to delete user", err)
	}

	s.audit.Record(audit.EntityUser, fmt.Sprintf("%d", id), audit.ActionDeleted, actor.Username,
		fmt.Sprintf("username=%s", u.Username))

	return nil
}

func (s *Service) Get(id int64) (*User, error) {
	return s.getOrNotFound(id)
}

func (s *Service) List() ([]*User, error) {
	users, err := s.repo.List()
	if err != nil {
		return nil, internal.NewInternalError("failed to list users", err)
	}
	return users, nil
}

func (s *Service) GroupIDs(userID int64) ([]int64, error) {
	ids, err := s.repo.GroupIDs(userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load group links", err)
	}
	return ids, nil
}

// UpsertFromDirectory imports or refreshes a local record from a directory
// profile. Used by both the scheduled sync and the manual admin action.
func (s *Service) UpsertFromDirectory(username, displayName, email, department string) (bool, error) {
	existing, err := s.repo.GetByUsername(username)
	if err != nil {
		return false, err
	}

	if existing == nil {
		u := &User{
			Username:    username,
			DisplayName: displayName,
			Email:       email,
			Department:  department,
			Active:      true,
		}
		if err := s.repo.Insert(u); err != nil {
			return false, err
		}
		return true, nil
	}

	if existing.DisplayName == displayName && existing.Email == email && existing.Department == department {
		return false, nil
	}

	existing.DisplayName = displayName
	existing.Email = email
	existing.Department = department
	if err := s.repo.Update(existing); err != nil {
		return false, err
	}
	return false, nil
}

func (s *Service) getOrNotFound(id int64) (*User, error) {
	u, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.NewNotFoundError("usuário não encontrado", internal.ErrCodeUserNotFound)
		}
		return nil, internal.NewInternalError("failed to load user", err)
	}
	return u, nil
}

func (s *Service) isSelf(actor *auth.SessionClaims, target *User) bool {
	if actor.UserID != nil && *actor.UserID == target.ID {
		return true
	}
	return strings.EqualFold(actor.Username, target.Username)
}

// guardLastAdmin blocks disabling or deleting the only remaining active
// admin. At least one admin must always exist.
func (s *Service) guardLastAdmin(target *User) error {
	if !target.Active {
		return nil
	}

	isAdmin, err := s.repo.IsAdmin(target.ID)
	if err != nil {
		return internal.NewInternalError("failed to check admin membership", err)
	}
	if !isAdmin {
		return nil
	}

	others, err := s.repo.CountOtherActiveAdmins(target.ID)
	if err != nil {
		return internal.NewInternalError("failed to count admins", err)
	}
	if others == 0 {
		return internal.NewReferentialConflictError("não é possível remover o último administrador", internal.ErrCodeLastAdmin)
	}
	return nil
}
