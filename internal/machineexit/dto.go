package machineexit

import (
	"strings"
	"time"

	"github.com/rmedeiros-eng/scse/internal"
)

type CreateMachineExitDTO struct {
	Kind                 Kind       `json:"kind"`
	RequesterName        string     `json:"requester_name"`
	ResponsibleArea      string     `json:"responsible_area"`
	ApproverManagerEmail string     `json:"approver_manager_email"`
	MaterialDescription  string     `json:"material_description"`
	Quantity             int        `json:"quantity"`
	Reason               string     `json:"reason"`
	ExpectedReturnBy     *time.Time `json:"expected_return_by,omitempty"`
	GateName             string     `json:"gate_name,omitempty"`
	InvoiceRef           string     `json:"invoice_ref,omitempty"`
	AttachmentURL        string     `json:"attachment_url,omitempty"`
}

func (d CreateMachineExitDTO) Validate() error {
	if !d.Kind.Valid() {
		return internal.NewValidationError("tipo de saída inválido", internal.ErrCodeValidationFailed)
	}
	if strings.TrimSpace(d.RequesterName) == "" {
		return internal.NewValidationError("solicitante é obrigatório", internal.ErrCodeValidationFailed)
	}
	if strings.TrimSpace(d.ResponsibleArea) == "" {
		return internal.NewValidationError("área responsável é obrigatória", internal.ErrCodeValidationFailed)
	}
	if strings.TrimSpace(d.ApproverManagerEmail) == "" {
		return internal.NewValidationError("e-mail do gestor aprovador é obrigatório", internal.ErrCodeValidationFailed)
	}
	if strings.TrimSpace(d.MaterialDescription) == "" {
		return internal.NewValidationError("descrição do material é obrigatória", internal.ErrCodeValidationFailed)
	}
	if d.Quantity < 1 {
		return internal.NewValidationError("quantidade deve ser no mínimo 1", internal.ErrCodeInvalidQuantity)
	}
	if strings.TrimSpace(d.Reason) == "" {
		return internal.NewValidationError("motivo é obrigatório", internal.ErrCodeValidationFailed)
	}
	if d.Kind == KindMaintenance && d.ExpectedReturnBy == nil {
		return internal.NewValidationError("prazo de retorno obrigatório", internal.ErrCodeReturnDateRequired)
	}
	return nil
}

// UpdateMachineExitDTO carries the allow-listed editable fields. Pointer
// fields distinguish "leave unchanged" from "set".
type UpdateMachineExitDTO struct {
	RequesterName        *string    `json:"requester_name,omitempty"`
	ResponsibleArea      *string    `json:"responsible_area,omitempty"`
	ApproverManagerEmail *string    `json:"approver_manager_email,omitempty"`
	MaterialDescription  *string    `json:"material_description,omitempty"`
	Quantity             *int       `json:"quantity,omitempty"`
	Reason               *string    `json:"reason,omitempty"`
	ExpectedReturnBy     *time.Time `json:"expected_return_by,omitempty"`
	GateName             *string    `json:"gate_name,omitempty"`
	InvoiceRef           *string    `json:"invoice_ref,omitempty"`
	AttachmentURL        *string    `json:"attachment_url,omitempty"`
}

type RejectDTO struct {
	Reason string `json:"reason"`
}

type GateExitDTO struct {
	GateName      string `json:"gate_name,omitempty"`
	InvoiceRef    string `json:"invoice_ref,omitempty"`
	AttachmentURL string `json:"attachment_url,omitempty"`
}

type ReturnDTO struct {
	ReturnInvoiceRef string `json:"return_invoice_ref,omitempty"`
	ReturnNotes      string `json:"return_notes,omitempty"`
}
