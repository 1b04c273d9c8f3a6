package notification_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rmedeiros-eng/scse/internal/notification"
)

func TestNotification(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Notification Suite")
}

var _ = Describe("Render", func() {
	It("should substitute known placeholders", func() {
		got := notification.Render("Olá {{MANAGER_NAME}}, processo {{PROCESS_ID}}", map[string]string{
			notification.VarManagerName: "Ricardo Nunes",
			notification.VarProcessID:   "42",
		})

		Expect(got).To(Equal("Olá Ricardo Nunes, processo 42"))
	})

	It("should pass unknown placeholders through unchanged", func() {
		got := notification.Render("retorno {{EXPECTED_RETURN}}", map[string]string{})

		Expect(got).To(Equal("retorno {{EXPECTED_RETURN}}"))
	})

	It("should leave lowercase braces alone", func() {
		got := notification.Render("{{nope}} e {{AREA}}", map[string]string{
			notification.VarArea: "Usinagem",
		})

		Expect(got).To(Equal("{{nope}} e Usinagem"))
	})

	It("should render the approval request subject with the display id", func() {
		got := notification.Render(notification.ApprovalRequestSubject, map[string]string{
			notification.VarProcessID: "17",
		})

		Expect(got).To(Equal("SCSE - Saída de máquina nº 17 aguardando aprovação"))
	})

	It("should fill every field of the approval request body", func() {
		vars := map[string]string{
			notification.VarManagerName:    "Ricardo Nunes",
			notification.VarRequesterName:  "Pedro Alves",
			notification.VarArea:           "Usinagem",
			notification.VarProcessID:      "17",
			notification.VarDescription:    "Torno CNC",
			notification.VarReason:         "Revisão preventiva",
			notification.VarSubmittedAt:    "01/09/2026 08:30",
			notification.VarExpectedReturn: "15/09/2026",
			notification.VarApprovalLink:   "https://scse.fabrica.example.com/aprovacoes",
		}

		got := notification.Render(notification.ApprovalRequestBody, vars)

		Expect(got).ToNot(ContainSubstring("{{"))
		Expect(got).To(ContainSubstring("Torno CNC"))
		Expect(got).To(ContainSubstring(`href="https://scse.fabrica.example.com/aprovacoes"`))
	})
})
