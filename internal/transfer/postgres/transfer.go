package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/rmedeiros-eng/scse/internal"
	"github.com/rmedeiros-eng/scse/internal/audit"
	"github.com/rmedeiros-eng/scse/internal/transfer"
)

type TransferRepository struct {
	db *gorm.DB
}

func NewTransferRepository(db *gorm.DB) transfer.Repository {
	return &TransferRepository{db: db}
}

func (r *TransferRepository) Insert(p *transfer.Process) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var max int64
		if err := tx.Raw(`SELECT COALESCE(MAX(display_id), 0) FROM transfer_processes`).Scan(&max).Error; err != nil {
			return err
		}
		p.DisplayID = max + 1
		return tx.Create(p).Error
	})
}

func (r *TransferRepository) GetByID(id int64) (*transfer.Process, error) {
	var p transfer.Process
	if err := r.db.First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *TransferRepository) List() ([]*transfer.Process, error) {
	var processes []*transfer.Process
	err := r.db.Order("display_id DESC").Find(&processes).Error
	return processes, err
}

// Transition re-reads the status inside the transaction and guards the
// write with it; a concurrent transition surfaces as ErrStaleState.
func (r *TransferRepository) Transition(id int64, from []transfer.Status, mutate func(p *transfer.Process) error) (*transfer.Process, error) {
	var out transfer.Process

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var p transfer.Process
		if err := tx.First(&p, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return internal.NewNotFoundError("processo não encontrado", internal.ErrCodeProcessNotFound)
			}
			return err
		}

		prior := p.Status
		if !statusIn(prior, from) {
			return internal.NewStateConflictError(
				fmt.Sprintf("operação não permitida no status atual (%s)", prior),
				internal.ErrCodeInvalidStatus)
		}

		if err := mutate(&p); err != nil {
			return err
		}

		result := tx.Model(&transfer.Process{}).
			Where("id = ? AND status = ?", id, prior).
			Select("*").
			Omit("id", "created_at").
			Updates(&p)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return internal.ErrStaleState
		}

		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *TransferRepository) DeleteWithEvents(id int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("entity_type = ? AND entity_id = ?", audit.EntityTransfer, fmt.Sprintf("%d", id)).
			Delete(&audit.Event{}).Error; err != nil {
			return err
		}
		return tx.Delete(&transfer.Process{}, id).Error
	})
}

func (r *TransferRepository) CountByStatus() (map[transfer.Status]int64, error) {
	var rows []struct {
		Status transfer.Status
		Total  int64
	}
	err := r.db.Model(&transfer.Process{}).
		Select("status, COUNT(1) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[transfer.Status]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

func statusIn(s transfer.Status, set []transfer.Status) bool {
	for _, candidate := range set {
		if s == candidate {
			return true
		}
	}
	return false
}
