package attachment_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rmedeiros-eng/scse/internal"
	"github.com/rmedeiros-eng/scse/internal/attachment"
)

func TestAttachment(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Attachment Suite")
}

var _ = Describe("DiskStore", func() {
	var store *attachment.DiskStore

	const maxSize = int64(1 << 20)

	BeforeEach(func() {
		var err error
		store, err = attachment.NewDiskStore(internal.UploadConfig{Dir: GinkgoT().TempDir(), MaxSizeBytes: maxSize})
		Expect(err).ToNot(HaveOccurred())
	})

	Describe("Save", func() {
		It("should store a PDF under a generated name", func() {
			content := bytes.NewReader([]byte("%PDF-1.7 fake"))

			url, err := store.Save("nota-fiscal.pdf", "application/pdf", 13, content)

			Expect(err).ToNot(HaveOccurred())
			Expect(url).To(HavePrefix("uploads/"))
			Expect(url).To(HaveSuffix(".pdf"))
			Expect(url).ToNot(ContainSubstring("nota-fiscal"))
		})

		It("should accept a .pdf extension when the content type is generic", func() {
			_, err := store.Save("nota.PDF", "application/octet-stream", 4, strings.NewReader("data"))

			Expect(err).ToNot(HaveOccurred())
		})

		It("should reject non-PDF uploads", func() {
			_, err := store.Save("foto.png", "image/png", 4, strings.NewReader("data"))

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeAttachmentNotPDF))
			Expect(appErr.Message).To(ContainSubstring("somente anexos PDF são aceitos"))
		})

		It("should reject uploads over the size cap", func() {
			_, err := store.Save("grande.pdf", "application/pdf", maxSize+1, strings.NewReader("x"))

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeAttachmentTooLarge))
		})

		It("should catch a declared size smaller than the actual content", func() {
			oversized := strings.NewReader(strings.Repeat("a", int(maxSize)+10))

			_, err := store.Save("mentiroso.pdf", "application/pdf", 10, oversized)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeAttachmentTooLarge))
		})
	})

	Describe("Open", func() {
		It("should read back stored content", func() {
			url, err := store.Save("nota.pdf", "application/pdf", 9, strings.NewReader("conteúdo"))
			Expect(err).ToNot(HaveOccurred())

			rc, err := store.Open(url)
			Expect(err).ToNot(HaveOccurred())
			defer rc.Close()

			data, err := io.ReadAll(rc)
			Expect(err).ToNot(HaveOccurred())
			Expect(string(data)).To(Equal("conteúdo"))
		})
	})
})
