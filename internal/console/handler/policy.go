package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/polis-console/internal/domain"
	"github.com/xela07ax/polis-console/internal/infra/auth"
	"github.com/xela07ax/polis-console/internal/repository/postgres"
)

// PolicyService Описываем, что нам нужно от сервиса
type PolicyService interface {
	Create(ctx context.Context, creatorID string, role domain.Role, in *domain.PolicyInput) (*domain.Policy, error)
	Get(ctx context.Context, id, userID string, role domain.Role) (*domain.Policy, error)
	List(ctx context.Context, userID string, role domain.Role) ([]domain.Policy, error)
	Update(ctx context.Context, id, userID string, role domain.Role, in *domain.PolicyInput) (*domain.Policy, error)
	Delete(ctx context.Context, id, userID string, role domain.Role) error
	Submit(ctx context.Context, id, userID string, role domain.Role) (*domain.Policy, error)
	Decide(ctx context.Context, id, userID string, role domain.Role, approved bool, comment string) (*domain.Policy, error)
	ApprovalLog(ctx context.Context, id, userID string, role domain.Role) ([]domain.ApprovalLogEntry, error)
}

type PolicyHandler struct {
	service PolicyService
}

func NewPolicyHandler(s PolicyService) *PolicyHandler {
	return &PolicyHandler{service: s}
}

// writeError маппит доменные ошибки в HTTP-коды.
// В исходной системе наружу уходили сырые ошибки хостинговой БД —
// здесь коды честные, а текст не раскрывает внутренностей.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, domain.ErrAlreadyFinal),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrNotDraft):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrCommentRequired),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrBadSignup):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, postgres.ErrEmailTaken):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// Create создает черновик полиса (с fraud-проверкой)
// POST /v1/policies
func (h *PolicyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.PolicyInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	p, err := h.service.Create(r.Context(), auth.UserID(r.Context()), auth.UserRole(r.Context()), &in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// Get возвращает полис по ID
// GET /v1/policies/{id}
func (h *PolicyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "policy id is required", http.StatusBadRequest)
		return
	}

	p, err := h.service.Get(r.Context(), id, auth.UserID(r.Context()), auth.UserRole(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// List возвращает полисы, видимые текущему пользователю
func (h *PolicyHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context(), auth.UserID(r.Context()), auth.UserRole(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Update правит поля полиса (черновик или своя pending-ступень)
// PUT /v1/policies/{id}
func (h *PolicyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var in domain.PolicyInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	p, err := h.service.Update(r.Context(), id, auth.UserID(r.Context()), auth.UserRole(r.Context()), &in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Delete удаляет черновик
// DELETE /v1/policies/{id}
func (h *PolicyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), id, auth.UserID(r.Context()), auth.UserRole(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Submit отправляет черновик на согласование
// POST /v1/policies/{id}/submit
func (h *PolicyHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := h.service.Submit(r.Context(), id, auth.UserID(r.Context()), auth.UserRole(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Decide фиксирует решение согласующего
// POST /v1/policies/{id}/decide
func (h *PolicyHandler) Decide(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req domain.DecideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	p, err := h.service.Decide(r.Context(), id, auth.UserID(r.Context()), auth.UserRole(r.Context()), req.Approved, req.Comment)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Log возвращает журнал согласования полиса
// GET /v1/policies/{id}/log
func (h *PolicyHandler) Log(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entries, err := h.service.ApprovalLog(r.Context(), id, auth.UserID(r.Context()), auth.UserRole(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
