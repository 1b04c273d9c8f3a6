package postgres

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rmedeiros-eng/scse/internal/substitution"
	"github.com/rmedeiros-eng/scse/internal/user"
)

func TestSubstitutionRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "SubstitutionRepository Suite")
}

var _ = Describe("SubstitutionRepository", func() {
	var (
		db    *gorm.DB
		repo  substitution.Repository
		today time.Time
	)

	day := func(offset int) time.Time {
		return today.AddDate(0, 0, offset)
	}

	newUser := func(username, email string, active bool) *user.User {
		u := &user.User{
			Username:    username,
			DisplayName: username,
			Email:       email,
			Active:      true,
		}
		Expect(db.Create(u).Error).NotTo(HaveOccurred())
		if !active {
			// gorm skips false on create because of the default:true tag.
			Expect(db.Model(u).Update("active", false).Error).NotTo(HaveOccurred())
			u.Active = false
		}
		return u
	}

	addWindow := func(original, substitute *user.User, start, end time.Time) *substitution.Substitution {
		s := &substitution.Substitution{
			OriginalManagerID:   original.ID,
			SubstituteManagerID: substitute.ID,
			StartDate:           start,
			EndDate:             end,
		}
		Expect(repo.Insert(s)).NotTo(HaveOccurred())
		return s
	}

	BeforeEach(func() {
		var err error

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&user.User{}, &substitution.Substitution{})
		Expect(err).NotTo(HaveOccurred())

		repo = NewSubstitutionRepository(db)
		today = time.Date(2026, time.August, 28, 0, 0, 0, 0, time.UTC)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).NotTo(HaveOccurred())
	})

	Describe("ActiveDelegate", func() {
		var gestor, substituto *user.User

		BeforeEach(func() {
			gestor = newUser("gestor", "gestor@fabrica.example.com", true)
			substituto = newUser("substituto", "substituto@fabrica.example.com", true)
		})

		It("should return the substitute while the window covers today", func() {
			addWindow(gestor, substituto, day(-2), day(2))

			delegate, err := repo.ActiveDelegate("gestor@fabrica.example.com", today)

			Expect(err).NotTo(HaveOccurred())
			Expect(delegate).NotTo(BeNil())
			Expect(delegate.Email).To(Equal("substituto@fabrica.example.com"))
			Expect(delegate.DisplayName).To(Equal("substituto"))
		})

		It("should include both endpoint days", func() {
			addWindow(gestor, substituto, today, today)

			delegate, err := repo.ActiveDelegate("gestor@fabrica.example.com", today)

			Expect(err).NotTo(HaveOccurred())
			Expect(delegate).NotTo(BeNil())
		})

		It("should return nil one day before the window opens", func() {
			addWindow(gestor, substituto, day(1), day(5))

			delegate, err := repo.ActiveDelegate("gestor@fabrica.example.com", today)

			Expect(err).NotTo(HaveOccurred())
			Expect(delegate).To(BeNil())
		})

		It("should return nil one day after the window closes", func() {
			addWindow(gestor, substituto, day(-5), day(-1))

			delegate, err := repo.ActiveDelegate("gestor@fabrica.example.com", today)

			Expect(err).NotTo(HaveOccurred())
			Expect(delegate).To(BeNil())
		})

		It("should match the manager email case-insensitively", func() {
			addWindow(gestor, substituto, day(-1), day(1))

			delegate, err := repo.ActiveDelegate("GESTOR@FABRICA.EXAMPLE.COM", today)

			Expect(err).NotTo(HaveOccurred())
			Expect(delegate).NotTo(BeNil())
			Expect(delegate.Email).To(Equal("substituto@fabrica.example.com"))
		})

		It("should ignore an inactive substitute", func() {
			inativo := newUser("inativo", "inativo@fabrica.example.com", false)
			addWindow(gestor, inativo, day(-1), day(1))

			delegate, err := repo.ActiveDelegate("gestor@fabrica.example.com", today)

			Expect(err).NotTo(HaveOccurred())
			Expect(delegate).To(BeNil())
		})

		It("should resolve overlapping windows to the newest", func() {
			segundo := newUser("segundo", "segundo@fabrica.example.com", true)
			addWindow(gestor, substituto, day(-3), day(3))
			addWindow(gestor, segundo, day(-1), day(1))

			delegate, err := repo.ActiveDelegate("gestor@fabrica.example.com", today)

			Expect(err).NotTo(HaveOccurred())
			Expect(delegate).NotTo(BeNil())
			Expect(delegate.Email).To(Equal("segundo@fabrica.example.com"))
		})

		It("should return nil for an unknown manager", func() {
			addWindow(gestor, substituto, day(-1), day(1))

			delegate, err := repo.ActiveDelegate("desconhecido@fabrica.example.com", today)

			Expect(err).NotTo(HaveOccurred())
			Expect(delegate).To(BeNil())
		})
	})

	Describe("List", func() {
		It("should project both managers into the admin view", func() {
			gestor := newUser("gestor", "gestor@fabrica.example.com", true)
			substituto := newUser("substituto", "substituto@fabrica.example.com", true)
			addWindow(gestor, substituto, day(0), day(7))

			views, err := repo.List()

			Expect(err).NotTo(HaveOccurred())
			Expect(views).To(HaveLen(1))
			Expect(views[0].OriginalEmail).To(Equal("gestor@fabrica.example.com"))
			Expect(views[0].SubstituteEmail).To(Equal("substituto@fabrica.example.com"))
			Expect(views[0].SubstituteActive).To(BeTrue())
		})
	})

	Describe("ManagerState", func() {
		It("should report an active user", func() {
			u := newUser("gestor", "gestor@fabrica.example.com", true)

			exists, active, err := repo.ManagerState(u.ID)

			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeTrue())
			Expect(active).To(BeTrue())
		})

		It("should report an inactive user", func() {
			u := newUser("inativo", "inativo@fabrica.example.com", false)

			exists, active, err := repo.ManagerState(u.ID)

			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeTrue())
			Expect(active).To(BeFalse())
		})

		It("should report a missing user", func() {
			exists, _, err := repo.ManagerState(999)

			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeFalse())
		})
	})
})
