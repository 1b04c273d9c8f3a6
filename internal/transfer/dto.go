package transfer

import (
	"strings"
	"time"

	"github.com/rmedeiros-eng/scse/internal"
)

type CreateTransferDTO struct {
	RequesterName   string        `json:"requester_name"`
	Sector          string        `json:"sector"`
	ManagerName     string        `json:"manager_name"`
	RequestedExitAt time.Time     `json:"requested_exit_at"`
	InvoiceRef      string        `json:"invoice_ref,omitempty"`
	AttachmentURL   string        `json:"attachment_url,omitempty"`
	TransportMode   TransportMode `json:"transport_mode"`
	VehicleType     string        `json:"vehicle_type,omitempty"`
	Plate           string        `json:"plate,omitempty"`
	CarrierName     string        `json:"carrier_name,omitempty"`
	OriginGate      string        `json:"origin_gate"`
	DestinationGate string        `json:"destination_gate"`
}

func (d CreateTransferDTO) Validate() error {
	if strings.TrimSpace(d.RequesterName) == "" {
		return internal.NewValidationError("solicitante é obrigatório", internal.ErrCodeValidationFailed)
	}
	if strings.TrimSpace(d.Sector) == "" {
		return internal.NewValidationError("setor é obrigatório", internal.ErrCodeValidationFailed)
	}
	if strings.TrimSpace(d.ManagerName) == "" {
		return internal.NewValidationError("gestor é obrigatório", internal.ErrCodeValidationFailed)
	}
	if d.RequestedExitAt.IsZero() {
		return internal.NewValidationError("data prevista de saída é obrigatória", internal.ErrCodeValidationFailed)
	}
	if !d.TransportMode.Valid() {
		return internal.NewValidationError("modo de transporte inválido", internal.ErrCodeValidationFailed)
	}
	if strings.TrimSpace(d.OriginGate) == "" || strings.TrimSpace(d.DestinationGate) == "" {
		return internal.NewValidationError("portarias de origem e destino são obrigatórias", internal.ErrCodeValidationFailed)
	}
	return validateGatesAndVehicle(d.OriginGate, d.DestinationGate, d.TransportMode, d.VehicleType, d.Plate)
}

func validateGatesAndVehicle(origin, destination string, mode TransportMode, vehicleType, plate string) error {
	if strings.EqualFold(strings.TrimSpace(origin), strings.TrimSpace(destination)) {
		return internal.NewValidationError("portarias não podem ser iguais", internal.ErrCodeGatesMustDiffer)
	}
	if mode.RequiresVehicle() && (strings.TrimSpace(vehicleType) == "" || strings.TrimSpace(plate) == "") {
		return internal.NewValidationError("tipo de veículo e placa são obrigatórios para este modo de transporte", internal.ErrCodeVehicleFieldsRequired)
	}
	return nil
}

type UpdateTransferDTO struct {
	RequesterName   *string        `json:"requester_name,omitempty"`
	Sector          *string        `json:"sector,omitempty"`
	ManagerName     *string        `json:"manager_name,omitempty"`
	RequestedExitAt *time.Time     `json:"requested_exit_at,omitempty"`
	InvoiceRef      *string        `json:"invoice_ref,omitempty"`
	AttachmentURL   *string        `json:"attachment_url,omitempty"`
	TransportMode   *TransportMode `json:"transport_mode,omitempty"`
	VehicleType     *string        `json:"vehicle_type,omitempty"`
	Plate           *string        `json:"plate,omitempty"`
	CarrierName     *string        `json:"carrier_name,omitempty"`
	OriginGate      *string        `json:"origin_gate,omitempty"`
	DestinationGate *string        `json:"destination_gate,omitempty"`
}

type ExitDTO struct {
	Decision ExitDecision `json:"decision"`
	Notes    string       `json:"notes,omitempty"`
}

type ArrivalDTO struct {
	Decision ArrivalDecision `json:"decision"`
	Notes    string          `json:"notes,omitempty"`
}
