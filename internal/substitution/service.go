package substitution

import (
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/rmedeiros-eng/scse/internal"
	"github.com/rmedeiros-eng/scse/internal/audit"
)

type ServiceAPI interface {
	Create(dto CreateSubstitutionDTO, actorUsername string) (*Substitution, error)
	Delete(id int64, actorUsername string) error
	List() ([]*View, error)
}

type Service struct {
	repo   Repository
	audit  *audit.Logger
	logger *slog.Logger
}

func NewService(repo Repository, auditLogger *audit.Logger, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: auditLogger, logger: logger}
}

func (s *Service) Create(dto CreateSubstitutionDTO, actorUsername string) (*Substitution, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	for _, id := range []int64{dto.OriginalManagerID, dto.SubstituteManagerID} {
		exists, active, err := s.repo.ManagerState(id)
		if err != nil {
			return nil, internal.NewInternalError("failed to verify manager", err)
		}
		if !exists {
			return nil, internal.NewNotFoundError("usuário não encontrado", internal.ErrCodeUserNotFound)
		}
		if id == dto.SubstituteManagerID && !active {
			return nil, internal.NewValidationError("o substituto precisa estar ativo", internal.ErrCodeValidationFailed)
		}
	}

	sub := &Substitution{
		OriginalManagerID:   dto.OriginalManagerID,
		SubstituteManagerID: dto.SubstituteManagerID,
		StartDate:           dto.StartDate,
		EndDate:             dto.EndDate,
	}

	if err := s.repo.Insert(sub); err != nil {
		return nil, internal.NewInternalError("failed to create substitution", err)
	}

	s.audit.Record(audit.EntitySubstitution, fmt.Sprintf("%d", sub.ID), audit.ActionCreated, actorUsername,
		fmt.Sprintf("titular=%d substituto=%d início=%s fim=%s",
			sub.OriginalManagerID, sub.SubstituteManagerID,
			sub.StartDate.Format("2006-01-02"), sub.EndDate.Format("2006-01-02")))

	return sub, nil
}

func (s *Service) Delete(id int64, actorUsername string) error {
	if _, err := s.repo.GetByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return internal.NewNotFoundError("substituição não encontrada", internal.ErrCodeSubstitutionNotFound)
		}
		return internal.NewInternalError("failed to load substitution", err)
	}

	if err := s.repo.Delete(id); err != nil {
		return internal.NewInternalError("failed to delete substitution", err)
	}

	s.audit.Record(audit.EntitySubstitution, fmt.Sprintf("%d", id), audit.ActionDeleted, actorUsername, "")
	return nil
}

func (s *Service) List() ([]*View, error) {
	views, err := s.repo.List()
	if err != nil {
		return nil, internal.NewInternalError("failed to list substitutions", err)
	}
	return views, nil
}
