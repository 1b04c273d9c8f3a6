package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/rmedeiros-eng/scse/internal/user"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.Repository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Insert(u *user.User) error {
	return r.db.Create(u).Error
}

func (r *UserRepository) GetByID(id int64) (*user.User, error) {
	var u user.User
	if err := r.db.First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByUsername(username string) (*user.User, error) {
	var u user.User
	err := r.db.Where("username = ?", username).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Update(u *user.User) error {
	return r.db.Model(u).Select("*").Omit("id", "created_at").Updates(u).Error
}

func (r *UserRepository) Delete(id int64) error {
	return r.db.Delete(&user.User{}, id).Error
}

func (r *UserRepository) List() ([]*user.User, error) {
	var users []*user.User
	err := r.db.Order("display_name ASC").Find(&users).Error
	return users, err
}

func (r *UserRepository) CountSubordinates(id int64) (int64, error) {
	var count int64
	err := r.db.Model(&user.User{}).Where("manager_id = ?", id).Count(&count).Error
	return count, err
}

func (r *UserRepository) CountGroupLinks(id int64) (int64, error) {
	var count int64
	err := r.db.Raw(`SELECT COUNT(1) FROM user_groups WHERE user_id = ?`, id).Scan(&count).Error
	return count, err
}

func (r *UserRepository) IsAdmin(id int64) (bool, error) {
	var count int64
	err := r.db.Raw(`
		SELECT COUNT(1)
		FROM user_groups ug
		JOIN permission_groups g ON g.id = ug.group_id
		WHERE ug.user_id = ? AND g.can_access_admin_panel
	`, id).Scan(&count).Error
	return count > 0, err
}

func (r *UserRepository) CountOtherActiveAdmins(excludeID int64) (int64, error) {
	var count int64
	err := r.db.Raw(`
		SELECT COUNT(DISTINCT u.id)
		FROM users u
		JOIN user_groups ug ON ug.user_id = u.id
		JOIN permission_groups g ON g.id = ug.group_id
		WHERE u.active AND g.can_access_admin_panel AND u.id <> ?
	`, excludeID).Scan(&count).Error
	return count, err
}

// ReplaceGroups swaps the user's group links in one transaction.
func (r *UserRepository) ReplaceGroups(userID int64, groupIDs []int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM user_groups WHERE user_id = ?`, userID).Error; err != nil {
			return err
		}
		for _, groupID := range groupIDs {
			if err := tx.Exec(`INSERT INTO user_groups (user_id, group_id) VALUES (?, ?)`, userID, groupID).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *UserRepository) GroupIDs(userID int64) ([]int64, error) {
	var ids []int64
	err := r.db.Raw(`SELECT group_id FROM user_groups WHERE user_id = ? ORDER BY group_id`, userID).Scan(&ids).Error
	return ids, err
}
