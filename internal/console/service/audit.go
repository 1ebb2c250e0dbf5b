package service

import (
	"context"
	"fmt"

	"github.com/xela07ax/polis-console/internal/audit"
)

// AuditLogProvider описывает контракт для чтения операционного аудита.
// Используем структуру Event из пакета audit, чтобы сохранить единую модель.
type AuditLogProvider interface {
	FetchEvents(ctx context.Context, actorID, policyID string) ([]audit.Event, error)
}

type AuditService struct {
	repo AuditLogProvider
}

func NewAuditService(repo AuditLogProvider) *AuditService {
	return &AuditService{repo: repo}
}

// FetchEvents запрашивает события с фильтрацией.
// Логика фильтров (пустые строки или конкретные ID) инкапсулирована в репозитории.
func (s *AuditService) FetchEvents(ctx context.Context, actorID, policyID string) ([]audit.Event, error) {
	events, err := s.repo.FetchEvents(ctx, actorID, policyID)
	if err != nil {
		return nil, fmt.Errorf("audit_service: failed to fetch events: %w", err)
	}
	return events, nil
}
