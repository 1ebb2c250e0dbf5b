package domain

import "time"

// ApprovalLogEntry — неизменяемая запись журнала согласования.
// Append-only: каждая смена статуса порождает ровно одну запись,
// фиксирующую прежний и новый статус.
type ApprovalLogEntry struct {
	ID       string `json:"id"`
	PolicyID string `json:"policy_id"`

	ActorID string `json:"actor_id"` // Кто принял решение
	Role    Role   `json:"role"`     // В какой роли
	Action  Action `json:"action"`   // submitted/approved/rejected
	Comment string `json:"comment,omitempty"`

	FromStatus PolicyStatus `json:"from_status"`
	ToStatus   PolicyStatus `json:"to_status"`

	CreatedAt time.Time `json:"created_at"`
}

// DecideRequest — тело запроса решения согласующего
type DecideRequest struct {
	Approved bool   `json:"approved"`
	Comment  string `json:"comment"`
}

// DecisionEvent — то, что уходит наружу (redis broadcast + webhook)
// после фиксации решения в БД.
type DecisionEvent struct {
	PolicyID   string       `json:"policy_id"`
	FromStatus PolicyStatus `json:"from_status"`
	ToStatus   PolicyStatus `json:"to_status"`
	Action     Action       `json:"action"`
	ActorID    string       `json:"actor_id"`
	Role       Role         `json:"role"`
	Comment    string       `json:"comment,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}
