package auth_test

import (
	"errors"
	"log/slog"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rmedeiros-eng/scse/internal/auth"
)

var _ = Describe("Permissions", func() {
	Describe("Union", func() {
		It("should grant a capability held by any group", func() {
			got := auth.Union(
				auth.PermissionSet{CanCreateMachineExit: true},
				auth.PermissionSet{CanAccessGateControl: true},
				auth.PermissionSet{},
			)

			Expect(got.CanCreateMachineExit).To(BeTrue())
			Expect(got.CanAccessGateControl).To(BeTrue())
			Expect(got.CanAccessAdminPanel).To(BeFalse())
		})

		It("should return the zero set for no groups", func() {
			Expect(auth.Union()).To(Equal(auth.PermissionSet{}))
		})
	})

	Describe("PermissionSet", func() {
		It("should answer HasAny across alternatives", func() {
			p := auth.PermissionSet{CanViewAuditLog: true}

			Expect(p.HasAny(auth.CapManageUsers, auth.CapViewAuditLog)).To(BeTrue())
			Expect(p.HasAny(auth.CapManageUsers, auth.CapManageGroups)).To(BeFalse())
		})
	})

	Describe("PermissionResolver", func() {
		var (
			source   *mockPermissionSource
			resolver *auth.PermissionResolver
		)

		BeforeEach(func() {
			source = newMockPermissionSource()
			logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
			resolver = auth.NewPermissionResolver(source, logger)
		})

		It("should union the flags of every group the user belongs to", func() {
			source.active[3] = true
			source.sets[3] = []auth.PermissionSet{
				{CanCreateMachineExit: true, CanCreateTransfer: true},
				{CanPerformApprovals: true},
			}

			got := resolver.Resolve(3)

			Expect(got.CanCreateMachineExit).To(BeTrue())
			Expect(got.CanCreateTransfer).To(BeTrue())
			Expect(got.CanPerformApprovals).To(BeTrue())
			Expect(got.CanAccessAdminPanel).To(BeFalse())
		})

		It("should degrade to the empty set for an inactive user", func() {
			source.active[3] = false
			source.sets[3] = []auth.PermissionSet{{CanAccessAdminPanel: true}}

			Expect(resolver.Resolve(3)).To(Equal(auth.PermissionSet{}))
		})

		It("should degrade to the empty set on lookup errors", func() {
			source.err = errors.New("db down")

			Expect(resolver.Resolve(3)).To(Equal(auth.PermissionSet{}))
		})

		It("should return the empty set for a non-positive id", func() {
			Expect(resolver.Resolve(0)).To(Equal(auth.PermissionSet{}))
		})
	})

	Describe("PermissionsFromDirectoryGroups", func() {
		const (
			adminGroup   = "SCSE-Admins"
			managerGroup = "SCSE-Gestores"
			gateGroup    = "SCSE-Portaria"
		)

		It("should grant everything to directory admins", func() {
			got := auth.PermissionsFromDirectoryGroups(adminGroup, managerGroup, gateGroup,
				[]string{"SCSE-Admins"})

			Expect(got.CanAccessAdminPanel).To(BeTrue())
			Expect(got.CanManageUsers).To(BeTrue())
			Expect(got.CanPerformApprovals).To(BeTrue())
			Expect(got.CanAccessGateControl).To(BeTrue())
			Expect(got.CanCreateMachineExit).To(BeTrue())
		})

		It("should grant approvals plus creation to managers", func() {
			got := auth.PermissionsFromDirectoryGroups(adminGroup, managerGroup, gateGroup,
				[]string{"SCSE-Gestores"})

			Expect(got.CanPerformApprovals).To(BeTrue())
			Expect(got.CanCreateMachineExit).To(BeTrue())
			Expect(got.CanCreateTransfer).To(BeTrue())
			Expect(got.CanAccessAdminPanel).To(BeFalse())
			Expect(got.CanAccessGateControl).To(BeFalse())
		})

		It("should restrict gate-only members to checkpoint operations", func() {
			got := auth.PermissionsFromDirectoryGroups(adminGroup, managerGroup, gateGroup,
				[]string{"SCSE-Portaria"})

			Expect(got.CanAccessGateControl).To(BeTrue())
			Expect(got.CanCreateMachineExit).To(BeFalse())
			Expect(got.CanCreateTransfer).To(BeFalse())
		})

		It("should let a gate member who is also admin create processes", func() {
			got := auth.PermissionsFromDirectoryGroups(adminGroup, managerGroup, gateGroup,
				[]string{"SCSE-Portaria", "SCSE-Admins"})

			Expect(got.CanAccessGateControl).To(BeTrue())
			Expect(got.CanCreateMachineExit).To(BeTrue())
		})

		It("should match group names case-insensitively", func() {
			got := auth.PermissionsFromDirectoryGroups(adminGroup, managerGroup, gateGroup,
				[]string{"scse-gestores"})

			Expect(got.CanPerformApprovals).To(BeTrue())
		})

		It("should grant nothing for unmapped memberships", func() {
			got := auth.PermissionsFromDirectoryGroups(adminGroup, managerGroup, gateGroup,
				[]string{"Outro-Grupo"})

			Expect(got.CanCreateMachineExit).To(BeTrue())
			Expect(got.CanCreateTransfer).To(BeTrue())
			Expect(got.CanPerformApprovals).To(BeFalse())
			Expect(got.CanAccessAdminPanel).To(BeFalse())
		})
	})
})
