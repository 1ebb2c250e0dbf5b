package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/polis-console/internal/console"
	"github.com/xela07ax/polis-console/internal/domain"
	"github.com/xela07ax/polis-console/internal/infra"
	"github.com/xela07ax/polis-console/internal/notify"
	"github.com/xela07ax/polis-console/internal/risk"
	"go.uber.org/zap"
)

// PolicyRepository описывает требования сервиса к хранилищу полисов
type PolicyRepository interface {
	CreatePolicy(ctx context.Context, p *domain.Policy) error
	GetPolicyByID(ctx context.Context, id string) (*domain.Policy, error)
	ListPolicies(ctx context.Context, userID string, role domain.Role) ([]domain.Policy, error)
	UpdatePolicy(ctx context.Context, id string, expected domain.PolicyStatus, in *domain.PolicyInput) (*domain.Policy, error)
	DeleteDraft(ctx context.Context, id, creatorID string) error
	TransitionStatus(ctx context.Context, entry *domain.ApprovalLogEntry) error
	ListApprovalLog(ctx context.Context, policyID string) ([]domain.ApprovalLogEntry, error)
}

type PolicyService struct {
	repo     PolicyRepository
	screener *risk.Screener
	rdb      *redis.Client
	notifier notify.Notifier
	metrics  *console.Metrics
	logger   *zap.Logger
}

func NewPolicyService(repo PolicyRepository, screener *risk.Screener, rdb *redis.Client, notifier notify.Notifier, metrics *console.Metrics, logger *zap.Logger) *PolicyService {
	if metrics == nil {
		metrics = console.NewMetrics(nil) // Null Object: метрики в никуда
	}
	return &PolicyService{
		repo:     repo,
		screener: screener,
		rdb:      rdb,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger.Named("policy-service"),
	}
}

// Create заводит черновик и прогоняет fraud-проверку.
// Результат проверки только аннотирует запись — создание не блокируется.
func (s *PolicyService) Create(ctx context.Context, creatorID string, role domain.Role, in *domain.PolicyInput) (*domain.Policy, error) {
	if role != domain.RoleCreator {
		return nil, domain.ErrForbidden
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	assessment := s.screener.Screen(in.CustomerName, in.Premium)

	p := &domain.Policy{
		ID:           uuid.New().String(),
		CustomerName: in.CustomerName,
		Premium:      in.Premium,
		ProductType:  in.ProductType,
		Status:       domain.StatusDraft,
		RiskScore:    assessment.Score,
		FraudFlagged: assessment.Flagged,
		FraudReason:  assessment.Reason,
		CreatedBy:    creatorID,
	}

	if err := s.repo.CreatePolicy(ctx, p); err != nil {
		return nil, fmt.Errorf("create policy failed: %w", err)
	}

	if p.FraudFlagged {
		s.metrics.FraudFlagged.Inc()
	}

	s.logger.Info("policy created",
		zap.String("policy_id", p.ID),
		zap.Bool("fraud_flagged", p.FraudFlagged),
		zap.Int("risk_score", p.RiskScore))
	return p, nil
}

// Get возвращает полис с проверкой видимости по роли
func (s *PolicyService) Get(ctx context.Context, id, userID string, role domain.Role) (*domain.Policy, error) {
	p, err := s.repo.GetPolicyByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !visible(p, userID, role) {
		// Не раскрываем существование чужих черновиков
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (s *PolicyService) List(ctx context.Context, userID string, role domain.Role) ([]domain.Policy, error) {
	return s.repo.ListPolicies(ctx, userID, role)
}

// Update правит поля полиса. Черновик — только создателем; на pending-ступени
// корректировки разрешены согласующему, чья роль совпадает со ступенью.
func (s *PolicyService) Update(ctx context.Context, id, userID string, role domain.Role, in *domain.PolicyInput) (*domain.Policy, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	p, err := s.repo.GetPolicyByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Editable(userID, role) {
		if p.Status != domain.StatusDraft {
			return nil, domain.ErrNotDraft
		}
		return nil, domain.ErrForbidden
	}

	// Передаем ожидаемый статус: если он сменился между чтением и записью,
	// репозиторий вернет конфликт вместо молчаливой правки
	return s.repo.UpdatePolicy(ctx, id, p.Status, in)
}

// Delete удаляет черновик создателя. Других путей удаления нет.
func (s *PolicyService) Delete(ctx context.Context, id, userID string, role domain.Role) error {
	if role != domain.RoleCreator {
		return domain.ErrForbidden
	}
	return s.repo.DeleteDraft(ctx, id, userID)
}

// Submit отправляет черновик на первую ступень согласования
func (s *PolicyService) Submit(ctx context.Context, id, userID string, role domain.Role) (*domain.Policy, error) {
	return s.transition(ctx, id, userID, role, domain.ActionSubmit, "")
}

// Decide фиксирует решение согласующего (approve/reject + комментарий)
func (s *PolicyService) Decide(ctx context.Context, id, userID string, role domain.Role, approved bool, comment string) (*domain.Policy, error) {
	action := domain.ActionReject
	if approved {
		action = domain.ActionApprove
	}
	return s.transition(ctx, id, userID, role, action, comment)
}

// transition — единая точка прохождения конечного автомата.
// Правило комментария проверяется до любых обращений к БД; сам переход
// и запись журнала происходят в одной транзакции репозитория.
func (s *PolicyService) transition(ctx context.Context, id, userID string, role domain.Role, action domain.Action, comment string) (*domain.Policy, error) {
	if err := domain.ValidateComment(action, comment); err != nil {
		return nil, err
	}

	p, err := s.repo.GetPolicyByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Создатель подает только собственные черновики
	if action == domain.ActionSubmit && p.CreatedBy != userID {
		return nil, domain.ErrForbidden
	}

	next, err := domain.Transition(p.Status, role, action)
	if err != nil {
		s.metrics.TransitionsTotal.WithLabelValues(string(action), "invalid").Inc()
		return nil, err
	}

	entry := &domain.ApprovalLogEntry{
		ID:         uuid.New().String(),
		PolicyID:   p.ID,
		ActorID:    userID,
		Role:       role,
		Action:     action,
		Comment:    comment,
		FromStatus: p.Status,
		ToStatus:   next,
	}

	if err := s.repo.TransitionStatus(ctx, entry); err != nil {
		s.metrics.TransitionsTotal.WithLabelValues(string(action), "conflict").Inc()
		s.logger.Warn("transition rejected by storage guard",
			zap.String("policy_id", id),
			zap.String("action", string(action)),
			zap.Error(err))
		return nil, err
	}
	s.metrics.TransitionsTotal.WithLabelValues(string(action), "ok").Inc()

	p.Status = next
	p.UpdatedAt = entry.CreatedAt

	event := domain.DecisionEvent{
		PolicyID:   p.ID,
		FromStatus: entry.FromStatus,
		ToStatus:   entry.ToStatus,
		Action:     action,
		ActorID:    userID,
		Role:       role,
		Comment:    comment,
		OccurredAt: entry.CreatedAt,
	}

	// Live-обновление очередей в UI. Redis может быть недоступен —
	// решение уже в БД, поэтому только предупреждаем.
	s.broadcast(ctx, event)

	// Терминальные решения уходят наружу через вебхук
	if next == domain.StatusApproved || next == domain.StatusRejected {
		s.notifier.DecisionFinalized(ctx, event)
	}

	s.logger.Info("policy transitioned",
		zap.String("policy_id", p.ID),
		zap.String("from", string(entry.FromStatus)),
		zap.String("to", string(entry.ToStatus)),
		zap.String("actor", userID))
	return p, nil
}

func (s *PolicyService) broadcast(ctx context.Context, event domain.DecisionEvent) {
	if s.rdb == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := s.rdb.Publish(ctx, infra.RedisChanPolicyStatus, payload).Err(); err != nil {
		s.logger.Warn("status broadcast failed", zap.Error(err))
	}
}

// ApprovalLog возвращает журнал согласования полиса
func (s *PolicyService) ApprovalLog(ctx context.Context, id, userID string, role domain.Role) ([]domain.ApprovalLogEntry, error) {
	p, err := s.repo.GetPolicyByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !visible(p, userID, role) {
		return nil, domain.ErrNotFound
	}
	return s.repo.ListApprovalLog(ctx, id)
}

// visible повторяет предикаты видимости ListPolicies для точечных выборок
func visible(p *domain.Policy, userID string, role domain.Role) bool {
	switch role {
	case domain.RoleCreator:
		return p.CreatedBy == userID
	case domain.RoleUnderwriter:
		return p.Status != domain.StatusDraft
	case domain.RoleManager:
		return p.Status == domain.StatusPendingManager ||
			p.Status == domain.StatusApproved ||
			p.Status == domain.StatusRejected
	}
	return false
}
