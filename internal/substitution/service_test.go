package substitution_test

import (
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/rmedeiros-eng/scse/internal"
	"github.com/rmedeiros-eng/scse/internal/audit"
	"github.com/rmedeiros-eng/scse/internal/substitution"
)

func TestSubstitution(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Substitution Suite")
}

type managerState struct {
	exists bool
	active bool
}

type mockRepo struct {
	subs        map[int64]*substitution.Substitution
	nextID      int64
	managers    map[int64]managerState
	delegate    *substitution.Delegate
	delegateErr error
	deleted     []int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		subs:     make(map[int64]*substitution.Substitution),
		nextID:   1,
		managers: make(map[int64]managerState),
	}
}

func (m *mockRepo) Insert(s *substitution.Substitution) error {
	s.ID = m.nextID
	m.nextID++
	cp := *s
	m.subs[s.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(id int64) (*substitution.Substitution, error) {
	s, ok := m.subs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (m *mockRepo) Delete(id int64) error {
	delete(m.subs, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockRepo) List() ([]*substitution.View, error) { return nil, nil }

func (m *mockRepo) ActiveDelegate(originalManagerEmail string, today time.Time) (*substitution.Delegate, error) {
	if m.delegateErr != nil {
		return nil, m.delegateErr
	}
	return m.delegate, nil
}

func (m *mockRepo) ManagerState(userID int64) (bool, bool, error) {
	s := m.managers[userID]
	return s.exists, s.active, nil
}

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

var _ = Describe("SubstitutionService", func() {
	var (
		service   *substitution.Service
		repo      *mockRepo
		auditRepo *mockAuditRepo
	)

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

	validDTO := func() substitution.CreateSubstitutionDTO {
		return substitution.CreateSubstitutionDTO{
			OriginalManagerID:   1,
			SubstituteManagerID: 2,
			StartDate:           start,
			EndDate:             end,
		}
	}

	BeforeEach(func() {
		repo = newMockRepo()
		auditRepo = &mockAuditRepo{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = substitution.NewService(repo, audit.NewLogger(auditRepo, logger), logger)

		repo.managers[1] = managerState{exists: true, active: true}
		repo.managers[2] = managerState{exists: true, active: true}
	})

	Describe("Create", func() {
		It("should schedule a window and audit it", func() {
			sub, err := service.Create(validDTO(), "admin")

			Expect(err).ToNot(HaveOccurred())
			Expect(sub.ID).To(BeNumerically(">", 0))
			Expect(auditRepo.events).To(HaveLen(1))
			Expect(auditRepo.events[0].Action).To(Equal(audit.ActionCreated))
			Expect(auditRepo.events[0].Details).To(ContainSubstring("titular=1 substituto=2"))
		})

		It("should reject the same user as original and substitute", func() {
			dto := validDTO()
			dto.SubstituteManagerID = dto.OriginalManagerID

			_, err := service.Create(dto, "admin")

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("titular e substituto não podem ser o mesmo gestor"))
		})

		It("should reject a window ending before it starts", func() {
			dto := validDTO()
			dto.EndDate = start.AddDate(0, 0, -1)

			_, err := service.Create(dto, "admin")

			Expect(err).To(HaveOccurred())
		})

		It("should accept a single-day window", func() {
			dto := validDTO()
			dto.EndDate = dto.StartDate

			_, err := service.Create(dto, "admin")

			Expect(err).ToNot(HaveOccurred())
		})

		It("should reject an unknown manager", func() {
			dto := validDTO()
			dto.OriginalManagerID = 99

			_, err := service.Create(dto, "admin")

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeUserNotFound))
		})

		It("should reject an inactive substitute", func() {
			repo.managers[2] = managerState{exists: true, active: false}

			_, err := service.Create(validDTO(), "admin")

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("o substituto precisa estar ativo"))
		})

		It("should allow an inactive original manager", func() {
			// Scheduling a substitution is exactly what covers a manager who
			// is away and disabled.
			repo.managers[1] = managerState{exists: true, active: false}

			_, err := service.Create(validDTO(), "admin")

			Expect(err).ToNot(HaveOccurred())
		})
	})

	Describe("Delete", func() {
		It("should remove an existing window", func() {
			sub, err := service.Create(validDTO(), "admin")
			Expect(err).ToNot(HaveOccurred())

			Expect(service.Delete(sub.ID, "admin")).To(Succeed())
			Expect(repo.deleted).To(ContainElement(sub.ID))
		})

		It("should report an unknown id", func() {
			err := service.Delete(404, "admin")

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeSubstitutionNotFound))
		})
	})
})

var _ = Describe("Resolver", func() {
	var (
		repo     *mockRepo
		resolver *substitution.Resolver
	)

	BeforeEach(func() {
		repo = newMockRepo()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		resolver = substitution.NewResolver(repo, logger)
	})

	It("should return the active delegate", func() {
		repo.delegate = &substitution.Delegate{
			Email:       "substituto@fabrica.example.com",
			DisplayName: "Gestor Substituto",
		}

		got := resolver.FindActiveDelegate("gestor@fabrica.example.com", time.Now())

		Expect(got).ToNot(BeNil())
		Expect(got.Email).To(Equal("substituto@fabrica.example.com"))
	})

	It("should return nil when no window covers today", func() {
		Expect(resolver.FindActiveDelegate("gestor@fabrica.example.com", time.Now())).To(BeNil())
	})

	It("should return nil for an empty manager email", func() {
		repo.delegate = &substitution.Delegate{Email: "substituto@fabrica.example.com"}

		Expect(resolver.FindActiveDelegate("", time.Now())).To(BeNil())
	})

	It("should degrade lookup errors to no delegate", func() {
		repo.delegateErr = errors.New("db down")

		Expect(resolver.FindActiveDelegate("gestor@fabrica.example.com", time.Now())).To(BeNil())
	})
})
