package directory

import (
	"log/slog"
	"net/http"

	"github.com/rmedeiros-eng/scse/internal/transport"
	"github.com/rmedeiros-eng/scse/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Sync *SyncService
}

func NewHandler(sync *SyncService) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Sync:        sync,
	}
}

// SyncNow runs a directory synchronization pass on demand. It shares the
// code path with the scheduled sync, so repeating it is harmless.
func (h *Handler) SyncNow(w http.ResponseWriter, r *http.Request) {
	result, err := h.Sync.Run(r.Context())
	if err != nil {
		h.WriteError(w, http.StatusBadGateway, "falha ao sincronizar com o diretório")
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}
