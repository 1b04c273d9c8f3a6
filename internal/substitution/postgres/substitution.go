package postgres

import (
	"time"

	"gorm.io/gorm"

	"github.com/rmedeiros-eng/scse/internal/substitution"
)

type SubstitutionRepository struct {
	db *gorm.DB
}

func NewSubstitutionRepository(db *gorm.DB) substitution.Repository {
	return &SubstitutionRepository{db: db}
}

func (r *SubstitutionRepository) Insert(s *substitution.Substitution) error {
	return r.db.Create(s).Error
}

func (r *SubstitutionRepository) GetByID(id int64) (*substitution.Substitution, error) {
	var s substitution.Substitution
	if err := r.db.First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SubstitutionRepository) Delete(id int64) error {
	return r.db.Delete(&substitution.Substitution{}, id).Error
}

func (r *SubstitutionRepository) List() ([]*substitution.View, error) {
	var views []*substitution.View
	err := r.db.Raw(`
		SELECT s.id,
		       o.display_name AS original_name,
		       o.email AS original_email,
		       sub.display_name AS substitute_name,
		       sub.email AS substitute_email,
		       sub.active AS substitute_active,
		       s.start_date,
		       s.end_date
		FROM manager_substitutions s
		JOIN users o ON o.id = s.original_manager_id
		JOIN users sub ON sub.id = s.substitute_manager_id
		ORDER BY s.start_date DESC, s.id DESC
	`).Scan(&views).Error
	return views, err
}

// ActiveDelegate picks the newest window covering today, both endpoints
// inclusive. Overlapping windows resolve to the highest id.
func (r *SubstitutionRepository) ActiveDelegate(originalManagerEmail string, today time.Time) (*substitution.Delegate, error) {
	var delegate substitution.Delegate
	err := r.db.Raw(`
		SELECT sub.email, sub.display_name
		FROM manager_substitutions s
		JOIN users o ON o.id = s.original_manager_id
		JOIN users sub ON sub.id = s.substitute_manager_id
		WHERE LOWER(o.email) = LOWER(?)
		  AND s.start_date <= ?
		  AND s.end_date >= ?
		  AND sub.active
		ORDER BY s.id DESC
		LIMIT 1
	`, originalManagerEmail, today, today).Scan(&delegate).Error
	if err != nil {
		return nil, err
	}
	if delegate.Email == "" {
		return nil, nil
	}
	return &delegate, nil
}

func (r *SubstitutionRepository) ManagerState(userID int64) (bool, bool, error) {
	var rows []struct {
		Active bool
	}
	if err := r.db.Raw(`SELECT active FROM users WHERE id = ?`, userID).Scan(&rows).Error; err != nil {
		return false, false, err
	}
	if len(rows) == 0 {
		return false, false, nil
	}
	return true, rows[0].Active, nil
}
