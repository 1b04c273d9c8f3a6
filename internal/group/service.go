package group

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"github.com/rmedeiros-eng/scse/internal"
	"github.com/rmedeiros-eng/scse/internal/audit"
)

type ServiceAPI interface {
	Create(dto CreateGroupDTO, actorUsername string) (*Group, error)
	Update(id int64, dto UpdateGroupDTO, actorUsername string) (*Group, error)
	Delete(id int64, actorUsername string) error
	Get(id int64) (*Group, error)
	List() ([]*Group, error)
	MemberIDs(id int64) ([]int64, error)
}

type Service struct {
	repo   Repository
	audit  *audit.Logger
	logger *slog.Logger
}

func NewService(repo Repository, auditLogger *audit.Logger, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: auditLogger, logger: logger}
}

func (s *Service) Create(dto CreateGroupDTO, actorUsername string) (*Group, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(dto.Name)
	if existing, err := s.repo.GetByName(name); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, internal.NewInternalError("failed to check group name", err)
	} else if existing != nil {
		return nil, internal.NewReferentialConflictError("já existe um grupo com esse nome", internal.ErrCodeValidationFailed)
	}

	g := &Group{Name: name}
	g.SetPermissions(dto.Permissions)

	if err := s.repo.Insert(g); err != nil {
		return nil, internal.NewInternalError("failed to create group", err)
	}

	s.audit.Record(audit.EntityGroup, fmt.Sprintf("%d", g.ID), audit.ActionCreated, actorUsername,
		fmt.Sprintf("name=%s", g.Name))

	return g, nil
}

// Update edits name, flags and membership. Flag changes take effect on the
// next permission resolution; existing session tokens stay stale until
// expiry.
func (s *Service) Update(id int64, dto UpdateGroupDTO, actorUsername string) (*Group, error) {
	g, err := s.getOrNotFound(id)
	if err != nil {
		return nil, err
	}

	if dto.Name != nil {
		name := strings.TrimSpace(*dto.Name)
		if name == "" {
			return nil, internal.NewValidationError("nome do grupo é obrigatório", internal.ErrCodeValidationFailed)
		}
		if g.IsProtected() && name != AdminGroupName {
			return nil, internal.NewReferentialConflictError("o grupo de administradores não pode ser renomeado", internal.ErrCodeProtectedGroup)
		}
		g.Name = name
	}

	if dto.Permissions != nil {
		if g.IsProtected() && !dto.Permissions.CanAccessAdminPanel {
			return nil, internal.NewReferentialConflictError("o grupo de administradores não pode perder acesso ao painel", internal.ErrCodeProtectedGroup)
		}
		g.SetPermissions(*dto.Permissions)
	}

	if err := s.repo.Update(g); err != nil {
		return nil, internal.NewInternalError("failed to update group", err)
	}

	if dto.MemberIDs != nil {
		if err := s.repo.ReplaceMembers(g.ID, *dto.MemberIDs); err != nil {
			return nil, internal.NewInternalError("failed to replace group members", err)
		}
	}

	s.audit.Record(audit.EntityGroup, fmt.Sprintf("%d", g.ID), audit.ActionUpdated, actorUsername, "")

	return g, nil
}

func (s *Service) Delete(id int64, actorUsername string) error {
	g, err := s.getOrNotFound(id)
	if err != nil {
		return err
	}

	if g.IsProtected() {
		return internal.NewReferentialConflictError("o grupo de administradores não pode ser excluído", internal.ErrCodeProtectedGroup)
	}

	members, err := s.repo.CountMembers(id)
	if err != nil {
		return internal.NewInternalError("failed to count group members", err)
	}
	if members > 0 {
		return internal.NewReferentialConflictError("grupo ainda vinculado a usuários", internal.ErrCodeGroupInUse)
	}

	if err := s.repo.Delete(id); err != nil {
		return internal.NewInternalError("failed to delete group", err)
	}

	s.audit.Record(audit.EntityGroup, fmt.Sprintf("%d", id), audit.ActionDeleted, actorUsername,
		fmt.Sprintf("name=%s", g.Name))

	return nil
}

func (s *Service) Get(id int64) (*Group, error) {
	return s.getOrNotFound(id)
}

func (s *Service) List() ([]*Group, error) {
	groups, err := s.repo.List()
	if err != nil {
		return nil, internal.NewInternalError("failed to list groups", err)
	}
	return groups, nil
}

func (s *Service) MemberIDs(id int64) ([]int64, error) {
	ids, err := s.repo.MemberIDs(id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load group members", err)
	}
	return ids, nil
}

func (s *Service) getOrNotFound(id int64) (*Group, error) {
	g, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.NewNotFoundError("grupo não encontrado", internal.ErrCodeGroupNotFound)
		}
		return nil, internal.NewInternalError("failed to load group", err)
	}
	return g, nil
}
