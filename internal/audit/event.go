package audit

import (
	"time"

	"github.com/xela07ax/polis-console/internal/domain"
)

// Event — операционная запись аудита одного API-запроса.
// Не путать с журналом согласования (approval_log): тот пишется
// транзакционно вместе со сменой статуса, этот — асинхронно.
type Event struct {
	ID      string      `json:"id"`       // UUID события
	TraceID string      `json:"trace_id"` // Сквозной ID запроса
	ActorID string      `json:"actor_id"` // Кто делал (пусто для публичных роутов)
	Role    domain.Role `json:"role"`

	Method   string `json:"method"`
	Route    string `json:"route"`
	PolicyID string `json:"policy_id,omitempty"` // Если запрос касался конкретного полиса

	Status     int       `json:"status"` // HTTP-код ответа
	DurationMs int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}
