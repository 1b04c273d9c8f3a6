package attachment

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi"

	"github.com/rmedeiros-eng/scse/internal/transport"
	"github.com/rmedeiros-eng/scse/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Store Store
}

func NewHandler(store Store) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Store:       store,
	}
}

// Upload accepts a multipart form with a single "file" field.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "arquivo não enviado")
		return
	}
	defer file.Close()

	path, err := h.Store.Save(header.Filename, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, map[string]string{"attachment_url": path})
}

// Download streams a stored attachment back to the client.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" || strings.Contains(name, "/") {
		h.WriteError(w, http.StatusBadRequest, "invalid attachment name")
		return
	}

	f, err := h.Store.Open(name)
	if err != nil {
		h.WriteError(w, http.StatusNotFound, "anexo não encontrado")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/pdf")
	if _, err := io.Copy(w, f); err != nil {
		h.Logger.Error("failed to stream attachment", "name", name, "error", err)
	}
}
