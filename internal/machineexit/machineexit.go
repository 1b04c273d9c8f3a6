package machineexit

import "time"

type Kind string

const (
	KindMaintenance Kind = "maintenance"
	KindLoan        Kind = "loan"
)

func (k Kind) Valid() bool {
	return k == KindMaintenance || k == KindLoan
}

type Status string

const (
	StatusPendingApproval Status = "pending_approval"
	StatusPendingGate     Status = "pending_gate"
	StatusInMaintenance   Status = "in_maintenance"
	StatusCompleted       Status = "completed"
	StatusRejected        Status = "rejected"
)

// Process is one equipment-exit request walking the approval/gate state
// machine. Fields accumulate monotonically as it advances: approval fields
// are written at the approve/reject decision, transit fields at the gate,
// return fields at return confirmation. ApproverManagerEmail always names
// the original manager; delegation never overwrites it.
type Process struct {
	ID                   int64      `json:"id" gorm:"primaryKey"`
	DisplayID            int64      `json:"display_id" gorm:"column:display_id;not null"`
	Kind                 Kind       `json:"kind" gorm:"not null"`
	Status               Status     `json:"status" gorm:"not null"`
	RequesterName        string     `json:"requester_name" gorm:"column:requester_name;not null"`
	ResponsibleArea      string     `json:"responsible_area" gorm:"column:responsible_area;not null"`
	ApproverManagerEmail string     `json:"approver_manager_email" gorm:"column:approver_manager_email;not null"`
	MaterialDescription  string     `json:"material_description" gorm:"column:material_description;not null"`
	Quantity             int        `json:"quantity" gorm:"not null"`
	Reason               string     `json:"reason" gorm:"not null"`
	SubmittedAt          time.Time  `json:"submitted_at" gorm:"column:submitted_at;not null"`
	ExpectedReturnBy     *time.Time `json:"expected_return_by" gorm:"column:expected_return_by"`
	GateName             string     `json:"gate_name" gorm:"column:gate_name"`
	InvoiceRef           string     `json:"invoice_ref" gorm:"column:invoice_ref"`
	AttachmentURL        string     `json:"attachment_url" gorm:"column:attachment_url"`

	// Decision fields, shared by approve and reject.
	DecidedByUsername string     `json:"decided_by_username,omitempty" gorm:"column:decided_by_username"`
	DecidedAt         *time.Time `json:"decided_at,omitempty" gorm:"column:decided_at"`
	RejectionReason   string     `json:"rejection_reason,omitempty" gorm:"column:rejection_reason"`

	ExitGuardUsername string     `json:"exit_guard_username,omitempty" gorm:"column:exit_guard_username"`
	ActualExitAt      *time.Time `json:"actual_exit_at,omitempty" gorm:"column:actual_exit_at"`

	ReturnConfirmedByUsername string     `json:"return_confirmed_by_username,omitempty" gorm:"column:return_confirmed_by_username"`
	ActualReturnAt            *time.Time `json:"actual_return_at,omitempty" gorm:"column:actual_return_at"`
	ReturnInvoiceRef          string     `json:"return_invoice_ref,omitempty" gorm:"column:return_invoice_ref"`
	ReturnNotes               string     `json:"return_notes,omitempty" gorm:"column:return_notes"`

	CreatedByUsername string    `json:"created_by_username" gorm:"column:created_by_username;not null"`
	CreatedAt         time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt         time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (Process) TableName() string {
	return "machine_exit_processes"
}

// Editable reports whether the process is still in a state that allows
// edit/delete.
func (p *Process) Editable() bool {
	return p.Status == StatusPendingApproval || p.Status == StatusRejected
}

type Repository interface {
	// Insert stores the process and assigns the next sequential display id.
	Insert(p *Process) error
	GetByID(id int64) (*Process, error)
	List() ([]*Process, error)
	// Transition re-reads the row inside a transaction, verifies the status
	// is one of the expected prior states, applies mutate, and writes the
	// row back guarded by the status it read. A concurrent transition that
	// moved the status first surfaces as ErrStaleState.
	Transition(id int64, from []Status, mutate func(p *Process) error) (*Process, error)
	// DeleteWithEvents removes the process and its audit events in one
	// transaction.
	DeleteWithEvents(id int64) error
	CountByStatus() (map[Status]int64, error)
}
