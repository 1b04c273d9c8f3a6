package group

import (
	"strings"

	"github.com/rmedeiros-eng/scse/internal"
	"github.com/rmedeiros-eng/scse/internal/auth"
)

type CreateGroupDTO struct {
	Name        string             `json:"name"`
	Permissions auth.PermissionSet `json:"permissions"`
}

func (d CreateGroupDTO) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return internal.NewValidationError("nome do grupo é obrigatório", internal.ErrCodeValidationFailed)
	}
	return nil
}

type UpdateGroupDTO struct {
	Name        *string             `json:"name,omitempty"`
	Permissions *auth.PermissionSet `json:"permissions,omitempty"`
	MemberIDs   *[]int64            `json:"member_ids,omitempty"`
}
