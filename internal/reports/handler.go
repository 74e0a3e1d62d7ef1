package reports

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lababil/lababil-pos/internal/platform/httpx"
	"github.com/lababil/lababil-pos/internal/pos"
	"github.com/lababil/lababil-pos/internal/shared"
)

// Handler serves the report endpoints off the live state snapshot.
type Handler struct {
	logger *slog.Logger
	state  *pos.State
	now    func() time.Time
}

func NewHandler(logger *slog.Logger, state *pos.State) *Handler {
	return &Handler{logger: logger, state: state, now: time.Now}
}

// MountRoutes registers all routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Get("/summary", h.summary)
		r.Get("/low-stock", h.lowStock)
	})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	if err := shared.IdentityFromContext(r.Context()).Require(shared.SectionReports); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, Build(h.state.Snapshot(), h.now()))
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	if err := shared.IdentityFromContext(r.Context()).Require(shared.SectionReports); err != nil {
		httpx.RespondError(w, err)
		return
	}
	low := LowStock(h.state.Products())
	if low == nil {
		low = []pos.Product{}
	}
	httpx.JSON(w, http.StatusOK, low)
}
