package postgres

import (
	"context"
	"fmt"

	"github.com/xela07ax/polis-console/internal/domain"
)

// ListApprovalLog возвращает журнал согласования полиса в хронологическом
// порядке. Запись журнала происходит только внутри TransitionStatus.
func (s *Store) ListApprovalLog(ctx context.Context, policyID string) ([]domain.ApprovalLogEntry, error) {
	query := `
		SELECT id, policy_id, actor_id, role, action, comment, from_status, to_status, created_at
		FROM approval_log
		WHERE policy_id = $1
		ORDER BY created_at ASC`

	rows, err := s.pool.Query(ctx, query, policyID)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query approval log: %w", err)
	}
	defer rows.Close()

	results := make([]domain.ApprovalLogEntry, 0)
	for rows.Next() {
		var e domain.ApprovalLogEntry
		if err := rows.Scan(
			&e.ID, &e.PolicyID, &e.ActorID, &e.Role, &e.Action,
			&e.Comment, &e.FromStatus, &e.ToStatus, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan approval log entry: %w", err)
		}
		results = append(results, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows iteration error: %w", err)
	}
	return results, nil
}
