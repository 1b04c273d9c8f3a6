package attachment

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/rmedeiros-eng/scse/internal"
)

// Store persists a single PDF attachment per request and returns a stable
// relative path used as the process attachment URL.
type Store interface {
	Save(filename, contentType string, size int64, content io.Reader) (string, error)
	Open(relativePath string) (io.ReadCloser, error)
}

type DiskStore struct {
	dir     string
	maxSize int64
}

func NewDiskStore(cfg internal.UploadConfig) (*DiskStore, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &DiskStore{dir: cfg.Dir, maxSize: cfg.MaxSizeBytes}, nil
}

// Save accepts only PDFs up to the configured cap. The stored name is a
// uuid so uploads can never collide or traverse paths.
func (s *DiskStore) Save(filename, contentType string, size int64, content io.Reader) (string, error) {
	if size > s.maxSize {
		return "", internal.NewValidationError("anexo excede o tamanho máximo de 10MB", internal.ErrCodeAttachmentTooLarge)
	}
	if !isPDF(filename, contentType) {
		return "", internal.NewValidationError("somente anexos PDF são aceitos", internal.ErrCodeAttachmentNotPDF)
	}

	name := uuid.New().String() + ".pdf"
	path := filepath.Join(s.dir, name)

	out, err := os.Create(path)
	if err != nil {
		return "", internal.NewInternalError("failed to store attachment", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, io.LimitReader(content, s.maxSize+1)); err != nil {
		os.Remove(path)
		return "", internal.NewInternalError("failed to write attachment", err)
	}

	info, err := out.Stat()
	if err == nil && info.Size() > s.maxSize {
		os.Remove(path)
		return "", internal.NewValidationError("anexo excede o tamanho máximo de 10MB", internal.ErrCodeAttachmentTooLarge)
	}

	return "uploads/" + name, nil
}

func (s *DiskStore) Open(relativePath string) (io.ReadCloser, error) {
	name := filepath.Base(relativePath)
	return os.Open(filepath.Join(s.dir, name))
}

func isPDF(filename, contentType string) bool {
	if strings.EqualFold(contentType, "application/pdf") {
		return true
	}
	return strings.EqualFold(filepath.Ext(filename), ".pdf")
}
