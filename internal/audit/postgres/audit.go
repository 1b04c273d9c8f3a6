package postgres

import (
	"gorm.io/gorm"

	"github.com/rmedeiros-eng/scse/internal/audit"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) audit.Repository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Insert(e *audit.Event) error {
	return r.db.Create(e).Error
}

func (r *AuditRepository) List(filter audit.Filter, limit, offset int) ([]*audit.Event, error) {
	var events []*audit.Event
	err := r.applyFilter(filter).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&events).Error
	return events, err
}

func (r *AuditRepository) Count(filter audit.Filter) (int64, error) {
	var total int64
	err := r.applyFilter(filter).Model(&audit.Event{}).Count(&total).Error
	return total, err
}

func (r *AuditRepository) applyFilter(filter audit.Filter) *gorm.DB {
	q := r.db.Model(&audit.Event{})
	if filter.EntityType != "" {
		q = q.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != "" {
		q = q.Where("entity_id = ?", filter.EntityID)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	if filter.Actor != "" {
		q = q.Where("actor_username = ?", filter.Actor)
	}
	return q
}
