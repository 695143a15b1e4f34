package leaderboard

import (
	"context"
	"net/http"

	"github.com/frahmantamala/zhar/internal"
	"github.com/frahmantamala/zhar/internal/credit"
	"github.com/frahmantamala/zhar/internal/transport"
)

type ServiceAPI interface {
	Board(ctx context.Context, period credit.Period, sector string) (*Board, error)
	Standing(ctx context.Context, employeeID string) (*Standing, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// GetBoard handles GET /leaderboard?period=&sector=
func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	period, err := credit.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		h.HandleServiceError(w, ErrInvalidPeriod)
		return
	}

	board, err := h.Service.Board(r.Context(), period, r.URL.Query().Get("sector"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, board)
}

// GetMyStanding handles GET /leaderboard/me
func (h *Handler) GetMyStanding(w http.ResponseWriter, r *http.Request) {
	u, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	standing, err := h.Service.Standing(r.Context(), u.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, standing)
}
