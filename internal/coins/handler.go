package coins

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/lingopal-app/lingopal/internal/api"
	"github.com/lingopal-app/lingopal/internal/auth"
)

type Handler struct {
	svc      *Service
	validate *validator.Validate
}

func NewHandler(svc *Service) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(),
	}
}

// Award handles a coin claim for a completed quiz. Denied claims are 200
// responses with awarded=false and a reason; only store failures become 5xx.
func (h *Handler) Award(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	var req AwardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	result, err := h.svc.Award(r.Context(), userID, &req)
	if err != nil {
		slog.Error("awarding coins", "error", err, "attempt_id", req.AttemptID)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusOK, result)
}

// Stats returns the caller's coin balance.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	stats, err := h.svc.Stats(r.Context(), userID)
	if err != nil {
		slog.Error("getting coin stats", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusOK, stats)
}
