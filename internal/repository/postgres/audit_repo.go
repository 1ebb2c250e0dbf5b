package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/xela07ax/polis-console/internal/audit"
)

// WriteBatch сохраняет пачку событий операционного аудита одним INSERT.
// Вызывается воркером audit.Trail, не хендлерами напрямую.
func (s *Store) WriteBatch(ctx context.Context, events []audit.Event) error {
	if len(events) == 0 {
		return nil
	}

	// Количество колонок в таблице audit_events
	numFields := 10
	placeholderStr := ""
	vals := make([]interface{}, 0, len(events)*numFields)

	// Динамически строим запрос для пакетной вставки
	for i, e := range events {
		p := i * numFields
		placeholderStr += fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d),",
			p+1, p+2, p+3, p+4, p+5, p+6, p+7, p+8, p+9, p+10)

		vals = append(vals,
			e.ID, e.TraceID, e.ActorID, e.Role,
			e.Method, e.Route, e.PolicyID, e.Status, e.DurationMs, e.Timestamp,
		)
	}

	query := fmt.Sprintf(
		"INSERT INTO audit_events (id, trace_id, actor_id, role, method, route, policy_id, status, duration_ms, timestamp) VALUES %s",
		strings.TrimSuffix(placeholderStr, ","),
	)

	_, err := s.pool.Exec(ctx, query, vals...)
	if err != nil {
		return fmt.Errorf("postgres: failed to write audit batch: %w", err)
	}
	return nil
}

// FetchEvents отдает события операционного аудита с фильтрацией.
// Пустые фильтры означают «все».
func (s *Store) FetchEvents(ctx context.Context, actorID, policyID string) ([]audit.Event, error) {
	query := `
		SELECT id, trace_id, actor_id, role, method, route, policy_id, status, duration_ms, timestamp
		FROM audit_events`

	var conds []string
	var args []interface{}
	if actorID != "" {
		args = append(args, actorID)
		conds = append(conds, fmt.Sprintf("actor_id = $%d", len(args)))
	}
	if policyID != "" {
		args = append(args, policyID)
		conds = append(conds, fmt.Sprintf("policy_id = $%d", len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY timestamp DESC LIMIT 200"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query audit events: %w", err)
	}
	defer rows.Close()

	results := make([]audit.Event, 0)
	for rows.Next() {
		var e audit.Event
		if err := rows.Scan(
			&e.ID, &e.TraceID, &e.ActorID, &e.Role,
			&e.Method, &e.Route, &e.PolicyID, &e.Status, &e.DurationMs, &e.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan audit event: %w", err)
		}
		results = append(results, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows iteration error: %w", err)
	}
	return results, nil
}
