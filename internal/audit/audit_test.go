package audit_test

import (
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"unicode/utf8"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rmedeiros-eng/scse/internal/audit"
)

func TestAudit(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Audit Suite")
}

type mockRepo struct {
	events    []*audit.Event
	insertErr error
	lastLimit int
}

func (m *mockRepo) Insert(e *audit.Event) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.events = append(m.events, e)
	return nil
}

func (m *mockRepo) List(filter audit.Filter, limit, offset int) ([]*audit.Event, error) {
	m.lastLimit = limit
	return m.events, nil
}

func (m *mockRepo) Count(filter audit.Filter) (int64, error) {
	return int64(len(m.events)), nil
}

var _ = Describe("Audit", func() {
	var (
		repo   *mockRepo
		logger *slog.Logger
	)

	BeforeEach(func() {
		repo = &mockRepo{}
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	})

	Describe("Logger", func() {
		It("should persist the event fields", func() {
			audit.NewLogger(repo, logger).Record(audit.EntityMachineExit, "7", audit.ActionApproved, "gestor", "ok")

			Expect(repo.events).To(HaveLen(1))
			e := repo.events[0]
			Expect(e.EntityType).To(Equal(audit.EntityMachineExit))
			Expect(e.EntityID).To(Equal("7"))
			Expect(e.Action).To(Equal(audit.ActionApproved))
			Expect(e.ActorUsername).To(Equal("gestor"))
			Expect(e.CreatedAt).ToNot(BeZero())
		})

		It("should truncate oversized details", func() {
			audit.NewLogger(repo, logger).Record(audit.EntityTransfer, "1", audit.ActionCreated, "ana",
				strings.Repeat("x", 1000))

			Expect(repo.events).To(HaveLen(1))
			Expect(len(repo.events[0].Details)).To(Equal(500))
			Expect(repo.events[0].Details).To(HaveSuffix("...[truncado]"))
		})

		It("should keep truncated details valid UTF-8", func() {
			// 600 two-byte runes put the byte cap mid-character.
			audit.NewLogger(repo, logger).Record(audit.EntityMachineExit, "2", audit.ActionRejected, "gestor",
				strings.Repeat("ã", 600))

			Expect(repo.events).To(HaveLen(1))
			details := repo.events[0].Details
			Expect(utf8.ValidString(details)).To(BeTrue())
			Expect(len(details)).To(BeNumerically("<=", 500))
			Expect(details).To(HaveSuffix("...[truncado]"))
		})

		It("should swallow write failures", func() {
			repo.insertErr = errors.New("db down")

			Expect(func() {
				audit.NewLogger(repo, logger).Record(audit.EntityUser, "1", audit.ActionDeleted, "admin", "")
			}).ToNot(Panic())
			Expect(repo.events).To(BeEmpty())
		})
	})

	Describe("Service", func() {
		It("should return events with the total count", func() {
			repo.events = []*audit.Event{
				{Action: audit.ActionCreated},
				{Action: audit.ActionUpdated},
			}

			events, total, err := audit.NewService(repo, logger).List(audit.Filter{}, 50, 0)

			Expect(err).ToNot(HaveOccurred())
			Expect(events).To(HaveLen(2))
			Expect(total).To(Equal(int64(2)))
		})

		It("should clamp an unbounded limit", func() {
			_, _, err := audit.NewService(repo, logger).List(audit.Filter{}, 0, 0)

			Expect(err).ToNot(HaveOccurred())
			Expect(repo.lastLimit).To(Equal(50))
		})

		It("should clamp an excessive limit", func() {
			_, _, err := audit.NewService(repo, logger).List(audit.Filter{}, 10000, 0)

			Expect(err).ToNot(HaveOccurred())
			Expect(repo.lastLimit).To(Equal(50))
		})
	})
})
