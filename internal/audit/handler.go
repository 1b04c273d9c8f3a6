package audit

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/rmedeiros-eng/scse/internal/transport"
	"github.com/rmedeiros-eng/scse/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service *Service
}

func NewHandler(svc *Service) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// List serves the admin audit screen: filterable, newest first, paginated.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := Filter{
		EntityType: q.Get("entity_type"),
		EntityID:   q.Get("entity_id"),
		Action:     q.Get("action"),
		Actor:      q.Get("actor"),
	}

	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	if offset < 0 {
		offset = 0
	}

	events, total, err := h.Service.List(filter, limit, offset)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, "failed to query audit log")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"total":  total,
	})
}
