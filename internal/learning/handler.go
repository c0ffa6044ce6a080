package learning

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
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

func langPair(r *http.Request) (string, string) {
	return chi.URLParam(r, "primaryLang"), chi.URLParam(r, "targetLang")
}

// Eligibility returns the soft-gate snapshot for the client's button state.
func (h *Handler) Eligibility(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}
	primary, target := langPair(r)

	snap, err := h.svc.Eligibility(r.Context(), userID, primary, target)
	if err != nil {
		slog.Error("computing eligibility", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	api.JSON(w, http.StatusOK, snap)
}

func (h *Handler) GetSheet(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}
	primary, target := langPair(r)

	sheet, err := h.svc.GetSheet(r.Context(), userID, primary, target)
	if err != nil {
		slog.Error("getting sheet", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	if sheet == nil {
		api.HandleError(w, api.NewNotFoundError("no learning sheet for language pair"))
		return
	}
	api.JSON(w, http.StatusOK, sheet)
}

func (h *Handler) RegenerateSheet(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}
	primary, target := langPair(r)

	result, sheet, err := h.svc.RegenerateSheet(r.Context(), userID, primary, target)
	if err != nil {
		slog.Error("regenerating sheet", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	api.JSON(w, http.StatusOK, regenerateResponse{RegenerateResult: *result, Sheet: sheet})
}

func (h *Handler) GetWordBank(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}
	primary, target := langPair(r)

	bank, err := h.svc.GetWordBank(r.Context(), userID, primary, target)
	if err != nil {
		slog.Error("getting word bank", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	if bank == nil {
		api.HandleError(w, api.NewNotFoundError("no word bank for language pair"))
		return
	}
	api.JSON(w, http.StatusOK, bank)
}

func (h *Handler) RegenerateWordBank(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}
	primary, target := langPair(r)

	result, bank, err := h.svc.RegenerateWordBank(r.Context(), userID, primary, target)
	if err != nil {
		slog.Error("regenerating word bank", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	api.JSON(w, http.StatusOK, regenerateResponse{RegenerateResult: *result, WordBank: bank})
}

// GetQuiz returns the live quiz with answers stripped.
func (h *Handler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}
	primary, target := langPair(r)

	quiz, err := h.svc.GetQuiz(r.Context(), userID, primary, target)
	if err != nil {
		slog.Error("getting quiz", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	if quiz == nil {
		api.HandleError(w, api.NewNotFoundError("no quiz for language pair"))
		return
	}
	api.JSON(w, http.StatusOK, quizView(quiz))
}

func (h *Handler) RegenerateQuiz(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}
	primary, target := langPair(r)

	result, quiz, err := h.svc.RegenerateQuiz(r.Context(), userID, primary, target)
	if err != nil {
		slog.Error("regenerating quiz", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	resp := regenerateResponse{RegenerateResult: *result}
	if quiz != nil {
		resp.Quiz = quizView(quiz)
	}
	api.JSON(w, http.StatusOK, resp)
}

// SubmitAttempt grades a completed quiz run.
func (h *Handler) SubmitAttempt(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	var req SubmitAttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	attempt, err := h.svc.SubmitAttempt(r.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, ErrNoQuiz) {
			api.HandleError(w, api.NewNotFoundError("no quiz for language pair"))
			return
		}
		if errors.Is(err, ErrAnswerCount) {
			api.HandleError(w, api.NewBadRequestError(err.Error()))
			return
		}
		slog.Error("submitting attempt", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusCreated, attempt)
}

type regenerateResponse struct {
	RegenerateResult
	Sheet    *LearningSheet `json:"sheet,omitempty"`
	WordBank *WordBank      `json:"word_bank,omitempty"`
	Quiz     *quizResponse  `json:"quiz,omitempty"`
}

type quizResponse struct {
	PrimaryLang            string         `json:"primary_lang"`
	TargetLang             string         `json:"target_lang"`
	Questions              []QuestionView `json:"questions"`
	HistoryCountAtGenerate int            `json:"history_count_at_generate"`
}

func quizView(q *Quiz) *quizResponse {
	views := make([]QuestionView, len(q.Questions))
	for i, question := range q.Questions {
		views[i] = question.View()
	}
	return &quizResponse{
		PrimaryLang:            q.PrimaryLang,
		TargetLang:             q.TargetLang,
		Questions:              views,
		HistoryCountAtGenerate: q.HistoryCountAtGenerate,
	}
}
