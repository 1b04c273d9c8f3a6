package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/rmedeiros-eng/scse/internal/group"
)

type GroupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) group.Repository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) Insert(g *group.Group) error {
	return r.db.Create(g).Error
}

func (r *GroupRepository) GetByID(id int64) (*group.Group, error) {
	var g group.Group
	if err := r.db.First(&g, id).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *GroupRepository) GetByName(name string) (*group.Group, error) {
	var g group.Group
	err := r.db.Where("name = ?", name).First(&g).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

func (r *GroupRepository) Update(g *group.Group) error {
	return r.db.Model(g).Select("*").Omit("id", "created_at").Updates(g).Error
}

func (r *GroupRepository) Delete(id int64) error {
	return r.db.Delete(&group.Group{}, id).Error
}

func (r *GroupRepository) List() ([]*group.Group, error) {
	var groups []*group.Group
	err := r.db.Order("name ASC").Find(&groups).Error
	return groups, err
}

func (r *GroupRepository) CountMembers(id int64) (int64, error) {
	var count int64
	err := r.db.Raw(`SELECT COUNT(1) FROM user_groups WHERE group_id = ?`, id).Scan(&count).Error
	return count, err
}

func (r *GroupRepository) ReplaceMembers(groupID int64, userIDs []int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM user_groups WHERE group_id = ?`, groupID).Error; err != nil {
			return err
		}
		for _, userID := range userIDs {
			if err := tx.Exec(`INSERT INTO user_groups (user_id, group_id) VALUES (?, ?)`, userID, groupID).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *GroupRepository) MemberIDs(groupID int64) ([]int64, error) {
	var ids []int64
	err := r.db.Raw(`SELECT user_id FROM user_groups WHERE group_id = ? ORDER BY user_id`, groupID).Scan(&ids).Error
	return ids, err
}
