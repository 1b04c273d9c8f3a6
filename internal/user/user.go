package user

import "time"

// User is a local identity. PasswordHash is nil for directory-only
// identities; ManagerID points at the user's immediate manager.
type User struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"uniqueIndex;not null"`
	DisplayName  string    `json:"display_name" gorm:"column:display_name;not null"`
	Email        string    `json:"email"`
	Department   string    `json:"department"`
	PasswordHash *string   `json:"-" gorm:"column:password_hash"`
	Active       bool      `json:"active" gorm:"not null;default:true"`
	ManagerID    *int64    `json:"manager_id" gorm:"column:manager_id"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (User) TableName() string {
	return "users"
}

// HasLocalCredential reports whether the user can log in with a password.
func (u *User) HasLocalCredential() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

type Repository interface {
	Insert(u *User) error
	GetByID(id int64) (*User, error)
	GetByUsername(username string) (*User, error)
	Update(u *User) error
	Delete(id int64) error
	List() ([]*User, error)
	// CountSubordinates counts users whose manager_id points at this user.
	CountSubordinates(id int64) (int64, error)
	// CountGroupLinks counts user_groups rows referencing this user.
	CountGroupLinks(id int64) (int64, error)
	// IsAdmin reports whether the user belongs to a group granting
	// admin-panel access.
	IsAdmin(id int64) (bool, error)
	// CountOtherActiveAdmins counts active users, other than the given one,
	// belonging to a group that grants admin-panel access.
	CountOtherActiveAdmins(excludeID int64) (int64, error)
	ReplaceGroups(userID int64, groupIDs []int64) error
	GroupIDs(userID int64) ([]int64, error)
}
