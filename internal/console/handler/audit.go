package handler

import (
	"context"
	"net/http"

	"github.com/xela07ax/polis-console/internal/audit"
)

// AuditReader Описываем, что нам нужно от сервиса
type AuditReader interface {
	FetchEvents(ctx context.Context, actorID, policyID string) ([]audit.Event, error)
}

type AuditHandler struct {
	service AuditReader
}

func NewAuditHandler(s AuditReader) *AuditHandler {
	return &AuditHandler{service: s}
}

// GetEvents возвращает события операционного аудита с фильтрацией
// GET /v1/audit?actor_id=...&policy_id=...
func (h *AuditHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	actorID := r.URL.Query().Get("actor_id")
	policyID := r.URL.Query().Get("policy_id")

	events, err := h.service.FetchEvents(r.Context(), actorID, policyID)
	if err != nil {
		http.Error(w, "Failed to fetch audit events", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, events)
}
