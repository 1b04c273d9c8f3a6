package user

import (
	"strings"

	"github.com/rmedeiros-eng/scse/internal"
)

type CreateUserDTO struct {
	Username    string  `json:"username"`
	DisplayName string  `json:"display_name"`
	Email       string  `json:"email"`
	Department  string  `json:"department"`
	Password    string  `json:"password,omitempty"`
	Active      *bool   `json:"active,omitempty"`
	ManagerID   *int64  `json:"manager_id,omitempty"`
	GroupIDs    []int64 `json:"group_ids,omitempty"`
}

func (d CreateUserDTO) Validate() error {
	if strings.TrimSpace(d.Username) == "" {
		return internal.NewValidationError("nome de usuário é obrigatório", internal.ErrCodeValidationFailed)
	}
	if strings.TrimSpace(d.DisplayName) == "" {
		return internal.NewValidationError("nome de exibição é obrigatório", internal.ErrCodeValidationFailed)
	}
	return nil
}

// UpdateUserDTO carries only the fields an admin may edit. Pointer fields
// distinguish "leave unchanged" from "set to zero value".
type UpdateUserDTO struct {
	DisplayName  *string  `json:"display_name,omitempty"`
	Email        *string  `json:"email,omitempty"`
	Department   *string  `json:"department,omitempty"`
	Password     *string  `json:"password,omitempty"`
	Active       *bool    `json:"active,omitempty"`
	ManagerID    *int64   `json:"manager_id,omitempty"`
	ClearManager bool     `json:"clear_manager,omitempty"`
	GroupIDs     *[]int64 `json:"group_ids,omitempty"`
}
