package audit

import (
	"log/slog"
	"time"
	"unicode/utf8"
)

// Event is one append-only row of the audit trail. Events are never
// mutated; the only deletion path is the cascade when a parent process is
// removed.
type Event struct {
	ID            int64     `json:"id" gorm:"primaryKey"`
	EntityType    string    `json:"entity_type" gorm:"column:entity_type;not null"`
	EntityID      string    `json:"entity_id" gorm:"column:entity_id;not null"`
	Action        string    `json:"action" gorm:"not null"`
	ActorUsername string    `json:"actor_username" gorm:"column:actor_username;not null"`
	Details       string    `json:"details"`
	CreatedAt     time.Time `json:"created_at" gorm:"column:created_at"`
}

func (Event) TableName() string {
	return "audit_events"
}

const (
	EntityMachineExit  = "machine_exit"
	EntityTransfer     = "transfer"
	EntityUser         = "user"
	EntityGroup        = "group"
	EntitySubstitution = "substitution"
)

const (
	ActionCreated          = "CREATED"
	ActionUpdated          = "UPDATED"
	ActionDeleted          = "DELETED"
	ActionApproved         = "APPROVED"
	ActionRejected         = "REJECTED"
	ActionGateExit         = "GATE_EXIT"
	ActionReturnConfirmed  = "RETURN_CONFIRMED"
	ActionExitConfirmed    = "EXIT_CONFIRMED"
	ActionExitRejected     = "EXIT_REJECTED"
	ActionArrivalConfirmed = "ARRIVAL_CONFIRMED"
	ActionArrivalProblem   = "ARRIVAL_PROBLEM"
	ActionDirectorySync    = "DIRECTORY_SYNC"
)

const (
	detailsMaxLen    = 500
	truncationMarker = "...[truncado]"
)

type Repository interface {
	Insert(e *Event) error
	List(filter Filter, limit, offset int) ([]*Event, error)
	Count(filter Filter) (int64, error)
}

type Filter struct {
	EntityType string
	EntityID   string
	Action     string
	Actor      string
}

// Logger records audit events best-effort: a failed write is logged and
// swallowed so auditing can never block a business transition.
type Logger struct {
	repo   Repository
	logger *slog.Logger
}

func NewLogger(repo Repository, logger *slog.Logger) *Logger {
	return &Logger{repo: repo, logger: logger}
}

func (l *Logger) Record(entityType, entityID, action, actorUsername, details string) {
	if len(details) > detailsMaxLen {
		// Cut on a rune boundary: details carry free text and a byte
		// slice mid-character would store invalid UTF-8.
		cut := detailsMaxLen - len(truncationMarker)
		for cut > 0 && !utf8.RuneStart(details[cut]) {
			cut--
		}
		details = details[:cut] + truncationMarker
	}

	event := &Event{
		EntityType:    entityType,
		EntityID:      entityID,
		Action:        action,
		ActorUsername: actorUsername,
		Details:       details,
		CreatedAt:     time.Now(),
	}

	if err := l.repo.Insert(event); err != nil {
		l.logger.Error("audit event write failed",
			"entity_type", entityType,
			"entity_id", entityID,
			"action", action,
			"error", err)
	}
}

// Service is the admin-facing query surface over the trail.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) List(filter Filter, limit, offset int) ([]*Event, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	events, err := s.repo.List(filter, limit, offset)
	if err != nil {
		s.logger.Error("audit query failed", "error", err)
		return nil, 0, err
	}

	total, err := s.repo.Count(filter)
	if err != nil {
		return nil, 0, err
	}

	return events, total, nil
}
