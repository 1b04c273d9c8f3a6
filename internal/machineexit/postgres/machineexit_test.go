package postgres

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rmedeiros-eng/scse/internal"
	"github.com/rmedeiros-eng/scse/internal/audit"
	"github.com/rmedeiros-eng/scse/internal/machineexit"
)

func TestMachineExitRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "MachineExitRepository Suite")
}

var _ = Describe("MachineExitRepository", func() {
	var (
		db   *gorm.DB
		repo machineexit.Repository
	)

	newProcess := func() *machineexit.Process {
		returnBy := time.Now().AddDate(0, 0, 14)
		return &machineexit.Process{
			Kind:                 machineexit.KindMaintenance,
			Status:               machineexit.StatusPendingApproval,
			RequesterName:        "Pedro Alves",
			ResponsibleArea:      "Usinagem",
			ApproverManagerEmail: "gestor@fabrica.example.com",
			MaterialDescription:  "Torno CNC",
			Quantity:             1,
			Reason:               "Revisão preventiva",
			SubmittedAt:          time.Now(),
			ExpectedReturnBy:     &returnBy,
			CreatedByUsername:    "pedro.alves",
		}
	}

	BeforeEach(func() {
		var err error

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&machineexit.Process{}, &audit.Event{})
		Expect(err).NotTo(HaveOccurred())

		repo = NewMachineExitRepository(db)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).NotTo(HaveOccurred())
	})

	Describe("Insert", func() {
		It("should assign sequential display ids", func() {
			first := newProcess()
			Expect(repo.Insert(first)).NotTo(HaveOccurred())
			second := newProcess()
			Expect(repo.Insert(second)).NotTo(HaveOccurred())

			Expect(first.DisplayID).To(Equal(int64(1)))
			Expect(second.DisplayID).To(Equal(int64(2)))
		})
	})

	Describe("GetByID", func() {
		It("should return gorm.ErrRecordNotFound for a missing id", func() {
			_, err := repo.GetByID(999)
			Expect(err).To(Equal(gorm.ErrRecordNotFound))
		})

		It("should load a stored process", func() {
			p := newProcess()
			Expect(repo.Insert(p)).NotTo(HaveOccurred())

			got, err := repo.GetByID(p.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.MaterialDescription).To(Equal("Torno CNC"))
			Expect(got.Status).To(Equal(machineexit.StatusPendingApproval))
		})
	})

	Describe("Transition", func() {
		var p *machineexit.Process

		BeforeEach(func() {
			p = newProcess()
			Expect(repo.Insert(p)).NotTo(HaveOccurred())
		})

		It("should apply the mutation when the prior status matches", func() {
			updated, err := repo.Transition(p.ID, []machineexit.Status{machineexit.StatusPendingApproval},
				func(proc *machineexit.Process) error {
					proc.Status = machineexit.StatusPendingGate
					proc.DecidedByUsername = "gestor"
					return nil
				})

			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Status).To(Equal(machineexit.StatusPendingGate))

			persisted, err := repo.GetByID(p.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(persisted.Status).To(Equal(machineexit.StatusPendingGate))
			Expect(persisted.DecidedByUsername).To(Equal("gestor"))
		})

		It("should name the current status when the precondition fails", func() {
			_, err := repo.Transition(p.ID, []machineexit.Status{machineexit.StatusPendingGate},
				func(proc *machineexit.Process) error { return nil })

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidStatus))
			Expect(appErr.Message).To(ContainSubstring("pending_approval"))
		})

		It("should not write when the mutation fails", func() {
			_, err := repo.Transition(p.ID, []machineexit.Status{machineexit.StatusPendingApproval},
				func(proc *machineexit.Process) error {
					proc.Status = machineexit.StatusPendingGate
					return internal.NewValidationError("quantidade deve ser no mínimo 1", internal.ErrCodeInvalidQuantity)
				})
			Expect(err).To(HaveOccurred())

			persisted, err := repo.GetByID(p.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(persisted.Status).To(Equal(machineexit.StatusPendingApproval))
		})

		It("should report a missing process", func() {
			_, err := repo.Transition(999, []machineexit.Status{machineexit.StatusPendingApproval},
				func(proc *machineexit.Process) error { return nil })

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeProcessNotFound))
		})
	})

	Describe("DeleteWithEvents", func() {
		It("should remove the process together with its audit trail", func() {
			p := newProcess()
			Expect(repo.Insert(p)).NotTo(HaveOccurred())

			event := &audit.Event{
				EntityType:    audit.EntityMachineExit,
				EntityID:      "1",
				Action:        audit.ActionCreated,
				ActorUsername: "pedro.alves",
				CreatedAt:     time.Now(),
			}
			Expect(db.Create(event).Error).NotTo(HaveOccurred())

			Expect(repo.DeleteWithEvents(p.ID)).NotTo(HaveOccurred())

			_, err := repo.GetByID(p.ID)
			Expect(err).To(Equal(gorm.ErrRecordNotFound))

			var remaining int64
			Expect(db.Model(&audit.Event{}).Count(&remaining).Error).NotTo(HaveOccurred())
			Expect(remaining).To(BeZero())
		})
	})

	Describe("List", func() {
		It("should return newest display ids first", func() {
			first := newProcess()
			Expect(repo.Insert(first)).NotTo(HaveOccurred())
			second := newProcess()
			Expect(repo.Insert(second)).NotTo(HaveOccurred())

			got, err := repo.List()
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(2))
			Expect(got[0].DisplayID).To(Equal(int64(2)))
		})
	})

	Describe("CountByStatus", func() {
		It("should group totals per status", func() {
			first := newProcess()
			Expect(repo.Insert(first)).NotTo(HaveOccurred())
			second := newProcess()
			second.Status = machineexit.StatusCompleted
			Expect(repo.Insert(second)).NotTo(HaveOccurred())

			counts, err := repo.CountByStatus()
			Expect(err).NotTo(HaveOccurred())
			Expect(counts[machineexit.StatusPendingApproval]).To(Equal(int64(1)))
			Expect(counts[machineexit.StatusCompleted]).To(Equal(int64(1)))
		})
	})
})
