package substitution

import (
	"log/slog"
	"time"
)

// Substitution is one scheduled delegation window: while it is active,
// approvals routed to the original manager may also be taken by the
// substitute. The workflow engine only ever reads these rows.
type Substitution struct {
	ID                  int64     `json:"id" gorm:"primaryKey"`
	OriginalManagerID   int64     `json:"original_manager_id" gorm:"column:original_manager_id;not null"`
	SubstituteManagerID int64     `json:"substitute_manager_id" gorm:"column:substitute_manager_id;not null"`
	StartDate           time.Time `json:"start_date" gorm:"column:start_date;not null"`
	EndDate             time.Time `json:"end_date" gorm:"column:end_date;not null"`
	CreatedAt           time.Time `json:"created_at" gorm:"column:created_at"`
}

func (Substitution) TableName() string {
	return "manager_substitutions"
}

// View is the admin-screen projection with both managers joined in.
type View struct {
	ID               int64     `json:"id"`
	OriginalName     string    `json:"original_name"`
	OriginalEmail    string    `json:"original_email"`
	SubstituteName   string    `json:"substitute_name"`
	SubstituteEmail  string    `json:"substitute_email"`
	SubstituteActive bool      `json:"substitute_active"`
	StartDate        time.Time `json:"start_date"`
	EndDate          time.Time `json:"end_date"`
}

// Delegate identifies the substitute currently authorized to approve on the
// original manager's behalf.
type Delegate struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

type Repository interface {
	Insert(s *Substitution) error
	GetByID(id int64) (*Substitution, error)
	Delete(id int64) error
	List() ([]*View, error)
	// ActiveDelegate returns the substitute for the newest window covering
	// the given day, or nil when no window matches.
	ActiveDelegate(originalManagerEmail string, today time.Time) (*Delegate, error)
	// ManagerState reports whether a user row exists and is active.
	ManagerState(userID int64) (exists bool, active bool, err error)
}

// Resolver answers "who may approve for this manager today". Substitution
// is a best-effort convenience: lookup errors degrade to no delegate, they
// never fail the calling transition.
type Resolver struct {
	repo   Repository
	logger *slog.Logger
}

func NewResolver(repo Repository, logger *slog.Logger) *Resolver {
	return &Resolver{repo: repo, logger: logger}
}

// FindActiveDelegate matches the original manager by case-insensitive email
// against windows inclusive of both endpoints. When overlapping windows
// match, the most recently created one (highest id) wins.
func (r *Resolver) FindActiveDelegate(originalManagerEmail string, today time.Time) *Delegate {
	if originalManagerEmail == "" {
		return nil
	}

	delegate, err := r.repo.ActiveDelegate(originalManagerEmail, today)
	if err != nil {
		r.logger.Warn("delegate lookup failed, proceeding without substitution",
			"manager_email", originalManagerEmail,
			"error", err)
		return nil
	}

	return delegate
}
