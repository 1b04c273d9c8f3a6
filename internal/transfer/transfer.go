package transfer

import "time"

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusInTransit  Status = "in_transit"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

type TransportMode string

const (
	ModeCompanyVehicle TransportMode = "company_vehicle"
	ModeCarrier        TransportMode = "carrier"
	ModeOnFoot         TransportMode = "on_foot"
)

func (m TransportMode) Valid() bool {
	return m == ModeCompanyVehicle || m == ModeCarrier || m == ModeOnFoot
}

// RequiresVehicle reports whether the mode makes vehicle type and plate
// mandatory.
func (m TransportMode) RequiresVehicle() bool {
	return m == ModeCompanyVehicle || m == ModeCarrier
}

type ExitDecision string

const (
	ExitApproved      ExitDecision = "approved"
	ExitNotAuthorized ExitDecision = "not_authorized"
)

type ArrivalDecision string

const (
	ArrivalApproved ArrivalDecision = "approved"
	ArrivalProblem  ArrivalDecision = "problem"
)

// Process is one inter-factory transfer. ManagerName is free text, not an
// email tied to the user model: delegation deliberately does not apply to
// transfers. The segregation-of-duties invariant lives on the arrival side:
// the guard who registered the exit cannot also register the arrival.
type Process struct {
	ID              int64         `json:"id" gorm:"primaryKey"`
	DisplayID       int64         `json:"display_id" gorm:"column:display_id;not null"`
	Status          Status        `json:"status" gorm:"not null"`
	RequesterName   string        `json:"requester_name" gorm:"column:requester_name;not null"`
	Sector          string        `json:"sector" gorm:"not null"`
	ManagerName     string        `json:"manager_name" gorm:"column:manager_name;not null"`
	RequestedExitAt time.Time     `json:"requested_exit_at" gorm:"column:requested_exit_at;not null"`
	InvoiceRef      string        `json:"invoice_ref" gorm:"column:invoice_ref"`
	AttachmentURL   string        `json:"attachment_url" gorm:"column:attachment_url"`
	TransportMode   TransportMode `json:"transport_mode" gorm:"column:transport_mode;not null"`
	VehicleType     string        `json:"vehicle_type,omitempty" gorm:"column:vehicle_type"`
	Plate           string        `json:"plate,omitempty"`
	CarrierName     string        `json:"carrier_name,omitempty" gorm:"column:carrier_name"`
	OriginGate      string        `json:"origin_gate" gorm:"column:origin_gate;not null"`
	DestinationGate string        `json:"destination_gate" gorm:"column:destination_gate;not null"`

	ExitGuardUsername string       `json:"exit_guard_username,omitempty" gorm:"column:exit_guard_username"`
	ActualExitAt      *time.Time   `json:"actual_exit_at,omitempty" gorm:"column:actual_exit_at"`
	ExitDecision      ExitDecision `json:"exit_decision,omitempty" gorm:"column:exit_decision"`
	ExitNotes         string       `json:"exit_notes,omitempty" gorm:"column:exit_notes"`

	ArrivalGuardUsername string          `json:"arrival_guard_username,omitempty" gorm:"column:arrival_guard_username"`
	ActualArrivalAt      *time.Time      `json:"actual_arrival_at,omitempty" gorm:"column:actual_arrival_at"`
	ArrivalDecision      ArrivalDecision `json:"arrival_decision,omitempty" gorm:"column:arrival_decision"`
	ArrivalNotes         string          `json:"arrival_notes,omitempty" gorm:"column:arrival_notes"`

	CreatedByUsername string    `json:"created_by_username" gorm:"column:created_by_username;not null"`
	CreatedAt         time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt         time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (Process) TableName() string {
	return "transfer_processes"
}

type Repository interface {
	// Insert stores the process and assigns the next sequential display id.
	Insert(p *Process) error
	GetByID(id int64) (*Process, error)
	List() ([]*Process, error)
	// Transition applies the same optimistic status-guarded update as the
	// machine exit repository.
	Transition(id int64, from []Status, mutate func(p *Process) error) (*Process, error)
	DeleteWithEvents(id int64) error
	CountByStatus() (map[Status]int64, error)
}
