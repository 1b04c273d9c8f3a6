package substitution

import (
	"time"

	"github.com/rmedeiros-eng/scse/internal"
)

type CreateSubstitutionDTO struct {
	OriginalManagerID   int64     `json:"original_manager_id"`
	SubstituteManagerID int64     `json:"substitute_manager_id"`
	StartDate           time.Time `json:"start_date"`
	EndDate             time.Time `json:"end_date"`
}

func (d CreateSubstitutionDTO) Validate() error {
	if d.OriginalManagerID == 0 || d.SubstituteManagerID == 0 {
		return internal.NewValidationError("gestor titular e substituto são obrigatórios", internal.ErrCodeValidationFailed)
	}
	if d.OriginalManagerID == d.SubstituteManagerID {
		return internal.NewValidationError("titular e substituto não podem ser o mesmo gestor", internal.ErrCodeValidationFailed)
	}
	if d.StartDate.IsZero() || d.EndDate.IsZero() {
		return internal.NewValidationError("período da substituição é obrigatório", internal.ErrCodeValidationFailed)
	}
	if d.EndDate.Before(d.StartDate) {
		return internal.NewValidationError("data final não pode ser anterior à data inicial", internal.ErrCodeValidationFailed)
	}
	return nil
}
