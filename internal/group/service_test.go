package group_test

import (
	"log/slog"
	"os"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/rmedeiros-eng/scse/internal"
	"github.com/rmedeiros-eng/scse/internal/audit"
	"github.com/rmedeiros-eng/scse/internal/auth"
	"github.com/rmedeiros-eng/scse/internal/group"
)

func TestGroupService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Group Service Suite")
}

type mockRepo struct {
	groups  map[int64]*group.Group
	nextID  int64
	members map[int64][]int64
	deleted []int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		groups:  make(map[int64]*group.Group),
		nextID:  1,
		members: make(map[int64][]int64),
	}
}

func (m *mockRepo) Insert(g *group.Group) error {
	g.ID = m.nextID
	m.nextID++
	cp := *g
	m.groups[g.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(id int64) (*group.Group, error) {
	g, ok := m.groups[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *g
	return &cp, nil
}

func (m *mockRepo) GetByName(name string) (*group.Group, error) {
	for _, g := range m.groups {
		if strings.EqualFold(g.Name, name) {
			cp := *g
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) Update(g *group.Group) error {
	cp := *g
	m.groups[g.ID] = &cp
	return nil
}

func (m *mockRepo) Delete(id int64) error {
	delete(m.groups, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockRepo) List() ([]*group.Group, error) {
	out := make([]*group.Group, 0, len(m.groups))
	for _, g := range m.groups {
		cp := *g
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockRepo) CountMembers(id int64) (int64, error) {
	return int64(len(m.members[id])), nil
}

func (m *mockRepo) ReplaceMembers(groupID int64, userIDs []int64) error {
	m.members[groupID] = userIDs
	return nil
}

func (m *mockRepo) MemberIDs(groupID int64) ([]int64, error) { return m.members[groupID], nil }

type mockAuditRepo struct {
	events []*audit.Event
}

func (m *mockAuditRepo) Insert(e *audit.Event) error { m.events = append(m.events, e); return nil }
func (m *mockAuditRepo) List(filter audit.Filter, limit, offset int) ([]*audit.Event, error) {
	return m.events, nil
}
func (m *mockAuditRepo) Count(filter audit.Filter) (int64, error) {
	return int64(len(m.events)), nil
}

var _ = Describe("GroupService", func() {
	var (
		service *group.Service
		repo    *mockRepo
	)

	BeforeEach(func() {
		repo = newMockRepo()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = group.NewService(repo, audit.NewLogger(&mockAuditRepo{}, logger), logger)
	})

	createAdminGroup := func() *group.Group {
		g, err := service.Create(group.CreateGroupDTO{
			Name: group.AdminGroupName,
			Permissions: auth.PermissionSet{
				CanAccessAdminPanel: true,
				CanManageUsers:      true,
				CanManageGroups:     true,
			},
		}, "admin")
		Expect(err).ToNot(HaveOccurred())
		return g
	}

	Describe("Create", func() {
		It("should create a group with its capability flags", func() {
			g, err := service.Create(group.CreateGroupDTO{
				Name:        "Portaria",
				Permissions: auth.PermissionSet{CanAccessGateControl: true},
			}, "admin")

			Expect(err).ToNot(HaveOccurred())
			Expect(g.CanAccessGateControl).To(BeTrue())
			Expect(g.CanAccessAdminPanel).To(BeFalse())
			Expect(g.Permissions().Has(auth.CapAccessGateControl)).To(BeTrue())
		})

		It("should reject a duplicate name", func() {
			_, err := service.Create(group.CreateGroupDTO{Name: "Portaria"}, "admin")
			Expect(err).ToNot(HaveOccurred())

			_, err = service.Create(group.CreateGroupDTO{Name: "portaria"}, "admin")

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("já existe um grupo com esse nome"))
		})
	})

	Describe("Update", func() {
		It("should replace flags and membership", func() {
			g, err := service.Create(group.CreateGroupDTO{Name: "Gestores"}, "admin")
			Expect(err).ToNot(HaveOccurred())

			perms := auth.PermissionSet{CanPerformApprovals: true}
			members := []int64{4, 5}
			updated, err := service.Update(g.ID, group.UpdateGroupDTO{
				Permissions: &perms,
				MemberIDs:   &members,
			}, "admin")

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.CanPerformApprovals).To(BeTrue())
			Expect(repo.members[g.ID]).To(Equal([]int64{4, 5}))
		})

		It("should refuse renaming the administrators group", func() {
			g := createAdminGroup()

			name := "Super Usuários"
			_, err := service.Update(g.ID, group.UpdateGroupDTO{Name: &name}, "admin")

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeProtectedGroup))
			Expect(appErr.Message).To(ContainSubstring("não pode ser renomeado"))
		})

		It("should refuse stripping admin-panel access from the administrators group", func() {
			g := createAdminGroup()

			perms := auth.PermissionSet{CanManageUsers: true}
			_, err := service.Update(g.ID, group.UpdateGroupDTO{Permissions: &perms}, "admin")

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeProtectedGroup))
			Expect(appErr.Message).To(ContainSubstring("não pode perder acesso ao painel"))
		})

		It("should allow tightening other flags on the administrators group", func() {
			g := createAdminGroup()

			perms := auth.PermissionSet{CanAccessAdminPanel: true}
			updated, err := service.Update(g.ID, group.UpdateGroupDTO{Permissions: &perms}, "admin")

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.CanManageUsers).To(BeFalse())
			Expect(updated.CanAccessAdminPanel).To(BeTrue())
		})
	})

	Describe("Delete", func() {
		It("should delete an empty ordinary group", func() {
			g, err := service.Create(group.CreateGroupDTO{Name: "Portaria"}, "admin")
			Expect(err).ToNot(HaveOccurred())

			Expect(service.Delete(g.ID, "admin")).To(Succeed())
			Expect(repo.deleted).To(ContainElement(g.ID))
		})

		It("should refuse deleting the administrators group", func() {
			g := createAdminGroup()

			err := service.Delete(g.ID, "admin")

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeProtectedGroup))
			Expect(appErr.Message).To(ContainSubstring("não pode ser excluído"))
		})

		It("should refuse deleting a group still linked to users", func() {
			g, err := service.Create(group.CreateGroupDTO{Name: "Portaria"}, "admin")
			Expect(err).ToNot(HaveOccurred())
			repo.members[g.ID] = []int64{7}

			err = service.Delete(g.ID, "admin")

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeGroupInUse))
			Expect(appErr.Message).To(ContainSubstring("grupo ainda vinculado a usuários"))
		})

		It("should report an unknown id", func() {
			err := service.Delete(404, "admin")

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeGroupNotFound))
		})
	})
})
