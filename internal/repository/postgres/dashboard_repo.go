package postgres

import (
	"context"
	"fmt"

	"github.com/xela07ax/polis-console/internal/domain"
)

// GetDashboardStats собирает агрегаты для главного экрана консоли.
func (s *Store) GetDashboardStats(ctx context.Context) (*domain.DashboardStats, error) {
	d := &domain.DashboardStats{
		StatusCounts: make(map[string]int64),
	}

	// 1. Распределение полисов по статусам + доля fraud-пометок
	rows, err := s.pool.Query(ctx, `SELECT status, COUNT(*) FROM policies GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query status counts: %w", err)
	}
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("postgres: failed to scan status count: %w", err)
		}
		d.StatusCounts[status] = count
		d.TotalPolicies += count
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows iteration error: %w", err)
	}

	if d.TotalPolicies > 0 {
		var flagged int64
		if err := s.pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM policies WHERE fraud_flagged`).Scan(&flagged); err != nil {
			return nil, fmt.Errorf("postgres: failed to count flagged policies: %w", err)
		}
		d.FlaggedRatio = float64(flagged) / float64(d.TotalPolicies)
	}

	// 2. Активность по часам за сутки (из операционного аудита)
	rows, err = s.pool.Query(ctx, `
		SELECT to_char(date_trunc('hour', timestamp), 'HH24:00'), COUNT(*)
		FROM audit_events
		WHERE timestamp > NOW() - INTERVAL '24 hours'
		GROUP BY 1 ORDER BY 1`)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query hourly activity: %w", err)
	}
	d.HourlyActivity = make([]domain.ActivityPoint, 0)
	for rows.Next() {
		var p domain.ActivityPoint
		if err := rows.Scan(&p.Hour, &p.Count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("postgres: failed to scan activity point: %w", err)
		}
		d.HourlyActivity = append(d.HourlyActivity, p)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows iteration error: %w", err)
	}

	// 3. Честный P95 latency за последний час
	err = s.pool.QueryRow(ctx, `
		SELECT COALESCE(PERCENTILE_CONT(0.95) WITHIN GROUP (ORDER BY duration_ms), 0)
		FROM audit_events
		WHERE timestamp > NOW() - INTERVAL '60 minutes'`).Scan(&d.P95LatencyMs)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query p95 latency: %w", err)
	}

	return d, nil
}
