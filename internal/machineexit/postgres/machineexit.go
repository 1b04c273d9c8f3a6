package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/rmedeiros-eng/scse/internal"
	"github.com/rmedeiros-eng/scse/internal/audit"
	"github.com/rmedeiros-eng/scse/internal/machineexit"
)

type MachineExitRepository struct {
	db *gorm.DB
}

func NewMachineExitRepository(db *gorm.DB) machineexit.Repository {
	return &MachineExitRepository{db: db}
}

// Insert stores the process with the next sequential display id, assigned
// inside the same transaction as the insert.
func (r *MachineExitRepository) Insert(p *machineexit.Process) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var max int64
		if err := tx.Raw(`SELECT COALESCE(MAX(display_id), 0) FROM machine_exit_processes`).Scan(&max).Error; err != nil {
			return err
		}
		p.DisplayID = max + 1
		return tx.Create(p).Error
	})
}

func (r *MachineExitRepository) GetByID(id int64) (*machineexit.Process, error) {
	var p machineexit.Process
	if err := r.db.First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *MachineExitRepository) List() ([]*machineexit.Process, error) {
	var processes []*machineexit.Process
	err := r.db.Order("display_id DESC").Find(&processes).Error
	return processes, err
}

// Transition applies the optimistic concurrency rule from the workflow
// engine: status is re-read inside the transaction and the update is
// guarded by the status it read, so a concurrent transition surfaces as
// ErrStaleState instead of silently overwriting.
func (r *MachineExitRepository) Transition(id int64, from []machineexit.Status, mutate func(p *machineexit.Process) error) (*machineexit.Process, error) {
	var out machineexit.Process

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var p machineexit.Process
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

		result := tx.Model(&machineexit.Process{}).
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

// DeleteWithEvents removes the audit trail rows and the process in one
// transaction; the caller records the final DELETED event afterwards.
func (r *MachineExitRepository) DeleteWithEvents(id int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("entity_type = ? AND entity_id = ?", audit.EntityMachineExit, fmt.Sprintf("%d", id)).
			Delete(&audit.Event{}).Error; err != nil {
			return err
		}
		return tx.Delete(&machineexit.Process{}, id).Error
	})
}

func (r *MachineExitRepository) CountByStatus() (map[machineexit.Status]int64, error) {
	var rows []struct {
		Status machineexit.Status
		Total  int64
	}
	err := r.db.Model(&machineexit.Process{}).
		Select("status, COUNT(1) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[machineexit.Status]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

func statusIn(s machineexit.Status, set []machineexit.Status) bool {
	for _, candidate := range set {
		if s == candidate {
			return true
		}
	}
	return false
}
