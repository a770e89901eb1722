package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/hongminglow/aparthus-be/internal/http/respond"
)

// HealthHandler returns uptime and basic status.
type HealthHandler struct {
	startedAt time.Time
}

// NewHealthHandler creates a health endpoint handler.
func NewHealthHandler(startedAt time.Time) *HealthHandler {
	return &HealthHandler{startedAt: startedAt}
}

// Register wires the handler into the public router.
func (h *HealthHandler) Register(r *mux.Router) {
	r.HandleFunc("/health", h.handle).Methods(http.MethodGet)
}

func (h *HealthHandler) handle(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, "ok", map[string]string{
		"status": "ok",
		"uptime": time.Since(h.startedAt).Truncate(time.Second).String(),
	})
}
