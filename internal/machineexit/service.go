package machineexit

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
	"github.com/rmedeiros-eng/scse/internal/notification"
	"github.com/rmedeiros-eng/scse/internal/substitution"
)

type ServiceAPI interface {
	Create(dto CreateMachineExitDTO, actor *auth.SessionClaims) (*Process, error)
	Approve(id int64, actor *auth.SessionClaims) (*Process, error)
	Reject(id int64, dto RejectDTO, actor *auth.SessionClaims) (*Process, error)
	RegisterGateExit(id int64, dto GateExitDTO, actor *auth.SessionClaims) (*Process, error)
	RegisterReturn(id int64, dto ReturnDTO, actor *auth.SessionClaims) (*Process, error)
	Update(id int64, dto UpdateMachineExitDTO, actor *auth.SessionClaims) (*Process, error)
	Delete(id int64, actor *auth.SessionClaims) error
	Get(id int64) (*Process, error)
	List() ([]*Process, error)
	CountByStatus() (map[Status]int64, error)
}

// errNoChange aborts a Transition without writing when an update payload
// matches the stored values.
var errNoChange = errors.New("no fields changed")

type Service struct {
	repo        Repository
	delegates   *substitution.Resolver
	audit       *audit.Logger
	mail        *notification.Dispatcher
	approvalURL string
	logger      *slog.Logger
}

func NewService(repo Repository, delegates *substitution.Resolver, auditLogger *audit.Logger,
	mail *notification.Dispatcher, approvalURL string, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		delegates:   delegates,
		audit:       auditLogger,
		mail:        mail,
		approvalURL: approvalURL,
		logger:      logger,
	}
}

func (s *Service) Create(dto CreateMachineExitDTO, actor *auth.SessionClaims) (*Process, error) {
	if !actor.IsAdmin() && !actor.Permissions.Has(auth.CapCreateMachineExit) {
		return nil, s.forbidden(actor, auth.CapCreateMachineExit, "create machine exit")
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	p := &Process{
		Kind:                 dto.Kind,
		Status:               StatusPendingApproval,
		RequesterName:        strings.TrimSpace(dto.RequesterName),
		ResponsibleArea:      strings.TrimSpace(dto.ResponsibleArea),
		ApproverManagerEmail: strings.TrimSpace(dto.ApproverManagerEmail),
		MaterialDescription:  strings.TrimSpace(dto.MaterialDescription),
		Quantity:             dto.Quantity,
		Reason:               strings.TrimSpace(dto.Reason),
		SubmittedAt:          time.Now(),
		GateName:             dto.GateName,
		InvoiceRef:           dto.InvoiceRef,
		AttachmentURL:        dto.AttachmentURL,
		CreatedByUsername:    actor.Username,
	}
	if dto.Kind == KindMaintenance {
		p.ExpectedReturnBy = dto.ExpectedReturnBy
	}

	if err := s.repo.Insert(p); err != nil {
		return nil, internal.NewInternalError("failed to create machine exit process", err)
	}

	s.audit.Record(audit.EntityMachineExit, fmt.Sprintf("%d", p.ID), audit.ActionCreated, actor.Username,
		fmt.Sprintf("tipo=%s material=%s quantidade=%d", p.Kind, p.MaterialDescription, p.Quantity))

	s.notifyApprover(p)

	return p, nil
}

// notifyApprover routes the approval request to the active delegate when
// one exists, otherwise to the original manager. Delivery is fire-and-forget.
func (s *Service) notifyApprover(p *Process) {
	recipient := p.ApproverManagerEmail
	recipientName := p.ApproverManagerEmail
	if delegate := s.delegates.FindActiveDelegate(p.ApproverManagerEmail, time.Now()); delegate != nil {
		recipient = delegate.Email
		recipientName = delegate.DisplayName
	}

	vars := map[string]string{
		notification.VarManagerName:   recipientName,
		notification.VarRequesterName: p.RequesterName,
		notification.VarArea:          p.ResponsibleArea,
		notification.VarProcessID:     fmt.Sprintf("%d", p.DisplayID),
		notification.VarDescription:   p.MaterialDescription,
		notification.VarReason:        p.Reason,
		notification.VarSubmittedAt:   p.SubmittedAt.Format("02/01/2006 15:04"),
		notification.VarApprovalLink:  s.approvalURL,
	}
	if p.ExpectedReturnBy != nil {
		vars[notification.VarExpectedReturn] = p.ExpectedReturnBy.Format("02/01/2006")
	}

	subject := notification.Render(notification.ApprovalRequestSubject, vars)
	body := notification.Render(notification.ApprovalRequestBody, vars)
	s.mail.Dispatch(subject, body, recipient)
}

func (s *Service) Approve(id int64, actor *auth.SessionClaims) (*Process, error) {
	if err := s.authorizeApprover(id, actor); err != nil {
		return nil, err
	}

	updated, err := s.repo.Transition(id, []Status{StatusPendingApproval}, func(p *Process) error {
		now := time.Now()
		p.Status = StatusPendingGate
		p.DecidedByUsername = actor.Username
		p.DecidedAt = &now
		p.RejectionReason = ""
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(audit.EntityMachineExit, fmt.Sprintf("%d", id), audit.ActionApproved, actor.Username, "")
	return updated, nil
}

func (s *Service) Reject(id int64, dto RejectDTO, actor *auth.SessionClaims) (*Process, error) {
	reason := strings.TrimSpace(dto.Reason)
	if reason == "" {
		return nil, internal.NewValidationError("motivo da recusa é obrigatório", internal.ErrCodeRejectionReasonMissing)
	}

	if err := s.authorizeApprover(id, actor); err != nil {
		return nil, err
	}

	updated, err := s.repo.Transition(id, []Status{StatusPendingApproval}, func(p *Process) error {
		now := time.Now()
		p.Status = StatusRejected
		p.DecidedByUsername = actor.Username
		p.DecidedAt = &now
		p.RejectionReason = reason
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(audit.EntityMachineExit, fmt.Sprintf("%d", id), audit.ActionRejected, actor.Username,
		fmt.Sprintf("motivo=%s", reason))
	return updated, nil
}

func (s *Service) RegisterGateExit(id int64, dto GateExitDTO, actor *auth.SessionClaims) (*Process, error) {
	if !actor.IsAdmin() && !actor.Permissions.Has(auth.CapAccessGateControl) {
		return nil, s.forbidden(actor, auth.CapAccessGateControl, "register gate exit")
	}

	updated, err := s.repo.Transition(id, []Status{StatusPendingGate}, func(p *Process) error {
		now := time.Now()
		if p.Kind == KindMaintenance {
			p.Status = StatusInMaintenance
		} else {
			p.Status = StatusCompleted
		}
		p.ExitGuardUsername = actor.Username
		p.ActualExitAt = &now
		if dto.GateName != "" {
			p.GateName = dto.GateName
		}
		if dto.InvoiceRef != "" {
			p.InvoiceRef = dto.InvoiceRef
		}
		if dto.AttachmentURL != "" {
			p.AttachmentURL = dto.AttachmentURL
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(audit.EntityMachineExit, fmt.Sprintf("%d", id), audit.ActionGateExit, actor.Username,
		fmt.Sprintf("portaria=%s", updated.GateName))
	return updated, nil
}

func (s *Service) RegisterReturn(id int64, dto ReturnDTO, actor *auth.SessionClaims) (*Process, error) {
	p, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() &&
		!strings.EqualFold(actor.Username, p.CreatedByUsername) &&
		!strings.EqualFold(actor.Email, p.ApproverManagerEmail) {
		return nil, internal.NewForbiddenError("apenas o solicitante, o gestor ou um administrador podem confirmar o retorno", internal.ErrCodeNotProcessActor)
	}

	if p.Kind != KindMaintenance {
		return nil, internal.NewStateConflictError("somente saídas para manutenção têm retorno", internal.ErrCodeInvalidStatus)
	}

	updated, err := s.repo.Transition(id, []Status{StatusInMaintenance}, func(p *Process) error {
		now := time.Now()
		p.Status = StatusCompleted
		p.ReturnConfirmedByUsername = actor.Username
		p.ActualReturnAt = &now
		p.ReturnInvoiceRef = dto.ReturnInvoiceRef
		p.ReturnNotes = dto.ReturnNotes
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(audit.EntityMachineExit, fmt.Sprintf("%d", id), audit.ActionReturnConfirmed, actor.Username, "")
	return updated, nil
}

func (s *Service) Update(id int64, dto UpdateMachineExitDTO, actor *auth.SessionClaims) (*Process, error) {
	current, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() && !strings.EqualFold(actor.Username, current.CreatedByUsername) {
		return nil, internal.NewForbiddenError("apenas o criador ou um administrador podem editar o processo", internal.ErrCodeNotProcessActor)
	}

	updated, err := s.repo.Transition(id, []Status{StatusPendingApproval, StatusRejected}, func(p *Process) error {
		changed := applyMachineExitUpdate(p, dto)

		if p.Kind == KindMaintenance && p.ExpectedReturnBy == nil {
			return internal.NewValidationError("prazo de retorno obrigatório", internal.ErrCodeReturnDateRequired)
		}
		if p.Quantity < 1 {
			return internal.NewValidationError("quantidade deve ser no mínimo 1", internal.ErrCodeInvalidQuantity)
		}

		if !changed {
			return errNoChange
		}
		return nil
	})
	if errors.Is(err, errNoChange) {
		// Idempotent no-op: nothing written, no audit event.
		return current, nil
	}
	if err != nil {
		return nil, err
	}

	s.audit.Record(audit.EntityMachineExit, fmt.Sprintf("%d", id), audit.ActionUpdated, actor.Username, "")
	return updated, nil
}

func applyMachineExitUpdate(p *Process, dto UpdateMachineExitDTO) bool {
	changed := false

	setString := func(target *string, value *string) {
		if value != nil && *target != *value {
			*target = *value
			changed = true
		}
	}

	setString(&p.RequesterName, dto.RequesterName)
	setString(&p.ResponsibleArea, dto.ResponsibleArea)
	setString(&p.ApproverManagerEmail, dto.ApproverManagerEmail)
	setString(&p.MaterialDescription, dto.MaterialDescription)
	setString(&p.Reason, dto.Reason)
	setString(&p.GateName, dto.GateName)
	setString(&p.InvoiceRef, dto.InvoiceRef)
	setString(&p.AttachmentURL, dto.AttachmentURL)

	if dto.Quantity != nil && p.Quantity != *dto.Quantity {
		p.Quantity = *dto.Quantity
		changed = true
	}
	// Loans complete at the gate, so a return date sent on a loan is
	// dropped here the same way Create drops it.
	if dto.ExpectedReturnBy != nil && p.Kind == KindMaintenance {
		if p.ExpectedReturnBy == nil || !p.ExpectedReturnBy.Equal(*dto.ExpectedReturnBy) {
			p.ExpectedReturnBy = dto.ExpectedReturnBy
			changed = true
		}
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
	if !p.Editable() {
		return internal.NewStateConflictError(
			fmt.Sprintf("processo não pode ser excluído no status atual (%s)", p.Status),
			internal.ErrCodeInvalidStatus)
	}

	if err := s.repo.DeleteWithEvents(id); err != nil {
		return internal.NewInternalError("failed to delete machine exit process", err)
	}

	// Recorded after the cascade so the DELETED event survives, logged
	// against the removed id.
	s.audit.Record(audit.EntityMachineExit, fmt.Sprintf("%d", id), audit.ActionDeleted, actor.Username,
		fmt.Sprintf("material=%s", p.MaterialDescription))

	return nil
}

func (s *Service) Get(id int64) (*Process, error) {
	p, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.NewNotFoundError("processo não encontrado", internal.ErrCodeProcessNotFound)
		}
		return nil, internal.NewInternalError("failed to load machine exit process", err)
	}
	return p, nil
}

func (s *Service) List() ([]*Process, error) {
	processes, err := s.repo.List()
	if err != nil {
		return nil, internal.NewInternalError("failed to list machine exit processes", err)
	}
	return processes, nil
}

func (s *Service) CountByStatus() (map[Status]int64, error) {
	counts, err := s.repo.CountByStatus()
	if err != nil {
		return nil, internal.NewInternalError("failed to count machine exit processes", err)
	}
	return counts, nil
}

// authorizeApprover allows the original manager (case-insensitive email
// match), the active delegate for that manager, or an admin.
func (s *Service) authorizeApprover(id int64, actor *auth.SessionClaims) error {
	if actor.IsAdmin() {
		return nil
	}

	p, err := s.Get(id)
	if err != nil {
		return err
	}

	if actor.Email != "" && strings.EqualFold(actor.Email, p.ApproverManagerEmail) {
		return nil
	}

	if delegate := s.delegates.FindActiveDelegate(p.ApproverManagerEmail, time.Now()); delegate != nil {
		if actor.Email != "" && strings.EqualFold(actor.Email, delegate.Email) {
			return nil
		}
	}

	s.logger.Warn("approval denied: actor is not the approver or delegate",
		"process_id", id,
		"actor", actor.Username,
		"approver_email", p.ApproverManagerEmail)

	return internal.NewForbiddenError("apenas o gestor aprovador, seu substituto ativo ou um administrador podem decidir", internal.ErrCodeNotProcessActor)
}

func (s *Service) forbidden(actor *auth.SessionClaims, required auth.Capability, action string) error {
	s.logger.Warn("capability denied",
		"actor", actor.Username,
		"action", action,
		"required_capability", required.String())
	return internal.NewForbiddenError("você não tem permissão para esta ação", internal.ErrCodeMissingCapability)
}
