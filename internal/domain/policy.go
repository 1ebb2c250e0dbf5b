package domain

import (
	"errors"
	"strings"
	"time"
)

// Статусы State Machine полиса
type PolicyStatus string

const (
	StatusDraft              PolicyStatus = "draft"               // Черновик, редактируется создателем
	StatusPendingUnderwriter PolicyStatus = "pending_underwriter" // Первая ступень согласования
	StatusPendingManager     PolicyStatus = "pending_manager"     // Вторая ступень согласования
	StatusApproved           PolicyStatus = "approved"            // Терминальный статус
	StatusRejected           PolicyStatus = "rejected"            // Терминальный статус (из любой pending-ступени)
)

// Action — что именно делает пользователь с полисом
type Action string

const (
	ActionSubmit  Action = "submit"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

var (
	ErrInvalidTransition = errors.New("invalid policy status transition")
	ErrAlreadyFinal      = errors.New("policy already in terminal status")
	ErrCommentRequired   = errors.New("rejection requires a non-empty comment")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("operation not permitted for this role")
	ErrNotDraft          = errors.New("policy is not editable outside draft status")
	ErrValidation        = errors.New("invalid policy input")
)

// transitionKey — составной ключ таблицы переходов
type transitionKey struct {
	Status PolicyStatus
	Role   Role
	Action Action
}

// Таблица переходов. Всё, чего здесь нет — запрещено.
// Цепочка строго монотонная: стадии не перескакиваются и не откатываются,
// rejected достижим только из pending-ступеней и является поглощающим.
var transitions = map[transitionKey]PolicyStatus{
	{StatusDraft, RoleCreator, ActionSubmit}:                    StatusPendingUnderwriter,
	{StatusPendingUnderwriter, RoleUnderwriter, ActionApprove}: StatusPendingManager,
	{StatusPendingUnderwriter, RoleUnderwriter, ActionReject}:  StatusRejected,
	{StatusPendingManager, RoleManager, ActionApprove}:         StatusApproved,
	{StatusPendingManager, RoleManager, ActionReject}:          StatusRejected,
}

// Transition вычисляет следующий статус по таблице переходов.
// Для терминальных статусов возвращаем ErrAlreadyFinal, чтобы хендлер
// мог отличить «решение уже принято» от «вам сюда нельзя».
func Transition(status PolicyStatus, role Role, action Action) (PolicyStatus, error) {
	if status == StatusApproved || status == StatusRejected {
		return "", ErrAlreadyFinal
	}
	next, ok := transitions[transitionKey{status, role, action}]
	if !ok {
		return "", ErrInvalidTransition
	}
	return next, nil
}

// ValidateComment проверяет правило комментариев: при отклонении
// комментарий обязателен, при одобрении — опционален.
func ValidateComment(action Action, comment string) error {
	if action == ActionReject && strings.TrimSpace(comment) == "" {
		return ErrCommentRequired
	}
	return nil
}

// Policy — страховой полис, единица работы всего контура согласования
type Policy struct {
	ID           string       `json:"id"` // UUID
	CustomerName string       `json:"customer_name"`
	Premium      float64      `json:"premium"`
	ProductType  string       `json:"product_type"` // e.g. "auto", "property", "life"
	Status       PolicyStatus `json:"status"`

	// Результат fraud-проверки при создании. Только аннотация:
	// создание полиса не блокируется ни при каком скоре.
	RiskScore    int    `json:"risk_score"`
	FraudFlagged bool   `json:"fraud_flagged"`
	FraudReason  string `json:"fraud_reason,omitempty"`

	CreatedBy string    `json:"created_by"` // UUID создателя
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PolicyInput — входные данные для создания/редактирования черновика
type PolicyInput struct {
	CustomerName string  `json:"customer_name"`
	Premium      float64 `json:"premium"`
	ProductType  string  `json:"product_type"`
}

// Validate нормализует и проверяет входные данные полиса
func (in *PolicyInput) Validate() error {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.ProductType = strings.TrimSpace(in.ProductType)

	if in.CustomerName == "" {
		return errors.Join(ErrValidation, errors.New("customer_name is required"))
	}
	if in.Premium <= 0 {
		return errors.Join(ErrValidation, errors.New("premium must be positive"))
	}
	if in.ProductType == "" {
		return errors.Join(ErrValidation, errors.New("product_type is required"))
	}
	return nil
}

// Editable отвечает, может ли данный пользователь редактировать полис.
// Черновик правит только его создатель; на pending-ступени полис может
// корректировать согласующий, чья роль совпадает с текущей ступенью.
func (p *Policy) Editable(userID string, role Role) bool {
	switch p.Status {
	case StatusDraft:
		return role == RoleCreator && p.CreatedBy == userID
	case StatusPendingUnderwriter:
		return role == RoleUnderwriter
	case StatusPendingManager:
		return role == RoleManager
	default:
		return false
	}
}
