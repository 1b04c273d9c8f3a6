package main_test

import (
	"context"

	"github.com/getkin/kin-openapi/openapi3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("OpenAPI contract", func() {
	var doc *openapi3.T

	BeforeEach(func() {
		loader := openapi3.NewLoader()
		var err error
		doc, err = loader.LoadFromFile("api/openapi.yml")
		Expect(err).ToNot(HaveOccurred())
	})

	It("should be a valid OpenAPI 3 document", func() {
		Expect(doc.Validate(context.Background())).To(Succeed())
	})

	It("should document every workflow route", func() {
		for _, path := range []string{
			"/auth/login",
			"/machine-exits",
			"/machine-exits/{id}/approve",
			"/machine-exits/{id}/reject",
			"/machine-exits/{id}/gate-exit",
			"/machine-exits/{id}/return",
			"/transfers",
			"/transfers/{id}/exit",
			"/transfers/{id}/arrival",
			"/attachments",
			"/admin/users",
			"/admin/groups",
			"/admin/substitutions",
			"/admin/audit-events",
		} {
			Expect(doc.Paths.Value(path)).ToNot(BeNil(), "missing path %s", path)
		}
	})

	It("should require the operating gate header on transfer movements", func() {
		exit := doc.Paths.Value("/transfers/{id}/exit")
		Expect(exit).ToNot(BeNil())

		var found bool
		for _, ref := range exit.Post.Parameters {
			if ref.Value != nil && ref.Value.Name == "X-Operating-Gate" {
				found = true
			}
		}
		Expect(found).To(BeTrue())
	})
})
