package transfer

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/rmedeiros-eng/scse/internal"
	"github.com/rmedeiros-eng/scse/internal/audit"
	"github.com/rmedeiros-eng/scse/internal/auth"
)

type ServiceAPI interface {
	Create(dto CreateTransferDTO, actor *auth.SessionClaims) (*Process, error)
	RegisterExit(id int64, dto ExitDTO, operatingGate string, actor *auth.SessionClaims) (*Process, error)
	RegisterArrival(id int64, dto ArrivalDTO, operatingGate string, actor *auth.SessionClaims) (*Process, error)
	Update(id int64, dto UpdateTransferDTO, actor *auth.SessionClaims) (*Process, error)
	Delete(id int64, actor *auth.SessionClaims) error
	Get(id int64) (*Process, error)
	List() ([]*Process, error)
	CountByStatus() (map[Status]int64, error)
}

var errNoChange = errors.New("no fields changed")

type Service struct {
	repo   Repository
	audit  *audit.Logger
	logger *slog.Logger
}

func NewService(repo Repository, auditLogger *audit.Logger, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: auditLogger, logger: logger}
}

func (s *Service) Create(dto CreateTransferDTO, actor *auth.SessionClaims) (*Process, error) {
	if !actor.IsAdmin() && !actor.Permissions.Has(auth.CapCreateTransfer) {
		return nil, s.forbidden(actor, auth.CapCreateTransfer, "create transfer")
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	p := &Process{
		Status:          StatusInProgress,
		RequesterName:   strings.TrimSpace(dto.RequesterName),
		Sector:          strings.TrimSpace(dto.Sector),
		ManagerName:     strings.TrimSpace(dto.ManagerName),
		RequestedExitAt: dto.RequestedExitAt,
		InvoiceRef:      dto.InvoiceRef,
		AttachmentURL:   dto.AttachmentURL,
		TransportMode:   dto.TransportMode,
		VehicleType:     dto.VehicleType,
		Plate:           dto.Plate,
		CarrierName:     dto.CarrierName,
		OriginGate:      strings.TrimSpace(dto.OriginGate),
		DestinationGate: strings.TrimSpace(dto.DestinationGate),

		CreatedByUsername: actor.Username,
	}

	if err := s.repo.Insert(p); err != nil {
		return nil, internal.NewInternalError("failed to create transfer process", err)
	}

	s.audit.Record(audit.EntityTransfer, fmt.Sprintf("%d", p.ID), audit.ActionCreated, actor.Username,
		fmt.Sprintf("origem=%s destino=%s transporte=%s", p.OriginGate, p.DestinationGate, p.TransportMode))

	return p, nil
}

// RegisterExit confirms or refuses the transfer at the origin gate. An
// approved exit clears any previously recorded arrival fields so stale data
// from an earlier attempt cannot leak into the new transit leg.
func (s *Service) RegisterExit(id int64, dto ExitDTO, operatingGate string, actor *auth.SessionClaims) (*Process, error) {
	if !actor.IsAdmin() && !actor.Permissions.Has(auth.CapAccessGateControl) {
		return nil, s.forbidden(actor, auth.CapAccessGateControl, "register transfer exit")
	}
	if dto.Decision != ExitApproved && dto.Decision != ExitNotAuthorized {
		return nil, internal.NewValidationError("decisão inválida", internal.ErrCodeInvalidDecision)
	}

	p, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !strings.EqualFold(operatingGate, p.OriginGate) {
		return nil, internal.NewForbiddenError("a saída só pode ser registrada na portaria de origem", internal.ErrCodeWrongGate)
	}

	updated, err := s.repo.Transition(id, []Status{StatusInProgress}, func(p *Process) error {
		now := time.Now()
		p.ExitGuardUsername = actor.Username
		p.ActualExitAt = &now
		p.ExitDecision = dto.Decision
		p.ExitNotes = dto.Notes

		if dto.Decision == ExitApproved {
			p.Status = StatusInTransit
			p.ArrivalGuardUsername = ""
			p.ActualArrivalAt = nil
			p.ArrivalDecision = ""
			p.ArrivalNotes = ""
		} else {
			p.Status = StatusCancelled
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	action := audit.ActionExitConfirmed
	if dto.Decision == ExitNotAuthorized {
		action = audit.ActionExitRejected
	}
	s.audit.Record(audit.EntityTransfer, fmt.Sprintf("%d", id), action, actor.Username,
		fmt.Sprintf("portaria=%s decisão=%s", operatingGate, dto.Decision))

	return updated, nil
}

// RegisterArrival closes the transfer at the destination gate. A Problem
// decision still completes the process, it only flags it. Segregation of
// duties: the guard who registered the exit cannot register the arrival,
// admins excepted.
func (s *Service) RegisterArrival(id int64, dto ArrivalDTO, operatingGate string, actor *auth.SessionClaims) (*Process, error) {
	if !actor.IsAdmin() && !actor.Permissions.Has(auth.CapAccessGateControl) {
		return nil, s.forbidden(actor, auth.CapAccessGateControl, "register transfer arrival")
	}
	if dto.Decision != ArrivalApproved && dto.Decision != ArrivalProblem {
		return nil, internal.NewValidationError("decisão inválida", internal.ErrCodeInvalidDecision)
	}

	p, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !strings.EqualFold(operatingGate, p.DestinationGate) {
		return nil, internal.NewForbiddenError("a chegada só pode ser registrada na portaria de destino", internal.ErrCodeWrongGate)
	}
	if !actor.IsAdmin() && strings.EqualFold(actor.Username, p.ExitGuardUsername) {
		s.logger.Warn("segregation of duties violation attempted",
			"process_id", id,
			"guard", actor.Username)
		return nil, internal.NewForbiddenError("o conferente da saída não pode registrar a chegada", internal.ErrCodeSegregationOfDuties)
	}

	updated, err := s.repo.Transition(id, []Status{StatusInTransit}, func(p *Process) error {
		now := time.Now()
		p.Status = StatusCompleted
		p.ArrivalGuardUsername = actor.Username
		p.ActualArrivalAt = &now
		p.ArrivalDecision = dto.Decision
		p.ArrivalNotes = dto.Notes
		return nil
	})
	if err != nil {
		return nil, err
	}

	action := audit.ActionArrivalConfirmed
	if dto.Decision == ArrivalProblem {
		action = audit.ActionArrivalProblem
	}
	s.audit.Record(audit.EntityTransfer, fmt.Sprintf("%d", id), action, actor.Username,
		fmt.Sprintf("portaria=%s decisão=%s", operatingGate, dto.Decision))

	return updated, nil
}

func (s *Service) Update(id int64, dto UpdateTransferDTO, actor *auth.SessionClaims) (*Process, error) {
	current, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() && !strings.EqualFold(actor.Username, current.CreatedByUsername) {
		return nil, internal.NewForbiddenError("apenas o criador ou um administrador podem editar o processo", internal.ErrCodeNotProcessActor)
	}

	updated, err := s.repo.Transition(id, []Status{StatusInProgress}, func(p *Process) error {
		changed := applyTransferUpdate(p, dto)

		if err := validateGatesAndVehicle(p.OriginGate, p.DestinationGate, p.TransportMode, p.VehicleType, p.Plate); err != nil {
			return err
		}

		if !changed {
			return errNoChange
		}
		return nil
	})
	if errors.Is(err, errNoChange) {
		return current, nil
	}
	if err != nil {
		return nil, err
	}

	s.audit.Record(audit.EntityTransfer, fmt.Sprintf("%d", id), audit.ActionUpdated, actor.Username, "")
	return updated, nil
}

func applyTransferUpdate(p *Process, dto UpdateTransferDTO) bool {
	changed := false

	setString := func(target *string, value *string) {
		if value != nil && *target != *value {
			*target = *value
			changed = true
		}
	}

	setString(&p.RequesterName, dto.RequesterName)
	setString(&p.Sector, dto.Sector)
	setString(&p.ManagerName, dto.ManagerName)
	setString(&p.InvoiceRef, dto.InvoiceRef)
	setString(&p.AttachmentURL, dto.AttachmentURL)
	setString(&p.VehicleType, dto.VehicleType)
	setString(&p.Plate, dto.Plate)
	setString(&p.CarrierName, dto.CarrierName)
	setString(&p.OriginGate, dto.OriginGate)
	setString(&p.DestinationGate, dto.DestinationGate)

	if dto.TransportMode != nil && p.TransportMode != *dto.TransportMode {
		p.TransportMode = *dto.TransportMode
		changed = true
	}
	if dto.RequestedExitAt != nil && !p.RequestedExitAt.Equal(*dto.RequestedExitAt) {
		p.RequestedExitAt = *dto.RequestedExitAt
		changed = true
	}

	return changed
}

func (s *Service) Delete(id int64, actor *auth.SessionClaims) error {
	p, err := s.Get(id)
	if err != nil {
		return err
	}

	if !actor.IsAdmin() && !strings.EqualFold(actor.Username, p.CreatedByUsername) {
		return internal.NewForbiddenError("apenas o criador ou um administrador podem excluir o processo", internal.ErrCodeNotProcessActor)
	}
	if p.Status != StatusInProgress {
		return internal.NewStateConflictError(
			fmt.Sprintf("processo não pode ser excluído no status atual (%s)", p.Status),
			internal.ErrCodeInvalidStatus)
	}

	if err := s.repo.DeleteWithEvents(id); err != nil {
		return internal.NewInternalError("failed to delete transfer process", err)
	}

	s.audit.Record(audit.EntityTransfer, fmt.Sprintf("%d", id), audit.ActionDeleted, actor.Username,
		fmt.Sprintf("origem=%s destino=%s", p.OriginGate, p.DestinationGate))

	return nil
}

func (s *Service) Get(id int64) (*Process, error) {
	p, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.NewNotFoundError("processo não encontrado", internal.ErrCodeProcessNotFound)
		}
		return nil, internal.NewInternalError("failed to load transfer process", err)
	}
	return p, nil
}

func (s *Service) List() ([]*Process, error) {
	processes, err := s.repo.List()
	if err != nil {
		return nil, internal.NewInternalError("failed to list transfer processes", err)
	}
	return processes, nil
}

func (s *Service) CountByStatus() (map[Status]int64, error) {
	counts, err := s.repo.CountByStatus()
	if err != nil {
		return nil, internal.NewInternalError("failed to count transfer processes", err)
	}
	return counts, nil
}

func (s *Service) forbidden(actor *auth.SessionClaims, required auth.Capability, action string) error {
	s.logger.Warn("capability denied",
		"actor", actor.Username,
		"action", action,
		"required_capability", required.String())
	return internal.NewForbiddenError("você não tem permissão para esta ação", internal.ErrCodeMissingCapability)
}
