package postgres

/*
Файл policy_repo.go отвечает за хранение полисов и атомарные смены их статусов.
Предикаты видимости, которые в исходной системе выполняла RLS хостинговой БД,
здесь выражены явными WHERE-условиями по роли вызывающего.
*/

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/xela07ax/polis-console/internal/domain"
)

const policyColumns = `id, customer_name, premium, product_type, status,
	risk_score, fraud_flagged, fraud_reason, created_by, created_at, updated_at`

func scanPolicy(row pgx.Row) (*domain.Policy, error) {
	var p domain.Policy
	err := row.Scan(
		&p.ID, &p.CustomerName, &p.Premium, &p.ProductType, &p.Status,
		&p.RiskScore, &p.FraudFlagged, &p.FraudReason,
		&p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: failed to scan policy: %w", err)
	}
	return &p, nil
}

// CreatePolicy сохраняет новый черновик. Таймстемпы проставляет база.
func (s *Store) CreatePolicy(ctx context.Context, p *domain.Policy) error {
	query := `
		INSERT INTO policies (id, customer_name, premium, product_type, status,
		                      risk_score, fraud_flagged, fraud_reason, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	err := s.pool.QueryRow(ctx, query,
		p.ID, p.CustomerName, p.Premium, p.ProductType, p.Status,
		p.RiskScore, p.FraudFlagged, p.FraudReason, p.CreatedBy,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: failed to create policy: %w", err)
	}
	return nil
}

func (s *Store) GetPolicyByID(ctx context.Context, id string) (*domain.Policy, error) {
	query := `SELECT ` + policyColumns + ` FROM policies WHERE id = $1`
	return scanPolicy(s.pool.QueryRow(ctx, query, id))
}

// ListPolicies возвращает полисы, видимые данному пользователю.
// Создатель видит только свои; андеррайтер — свою очередь и всё, что дальше
// по цепочке; менеджер — свою очередь и терминальные статусы.
func (s *Store) ListPolicies(ctx context.Context, userID string, role domain.Role) ([]domain.Policy, error) {
	query := `SELECT ` + policyColumns + ` FROM policies`

	var args []interface{}
	switch role {
	case domain.RoleCreator:
		query += ` WHERE created_by = $1`
		args = append(args, userID)
	case domain.RoleUnderwriter:
		query += ` WHERE status IN ('pending_underwriter', 'pending_manager', 'approved', 'rejected')`
	case domain.RoleManager:
		query += ` WHERE status IN ('pending_manager', 'approved', 'rejected')`
	default:
		return nil, domain.ErrForbidden
	}

	query += ` ORDER BY created_at DESC LIMIT 200`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query policies: %w", err)
	}
	defer rows.Close()

	// Инициализируем пустой слайс, чтобы в JSON был [] вместо null
	results := make([]domain.Policy, 0)
	for rows.Next() {
		var p domain.Policy
		if err := rows.Scan(
			&p.ID, &p.CustomerName, &p.Premium, &p.ProductType, &p.Status,
			&p.RiskScore, &p.FraudFlagged, &p.FraudReason,
			&p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan policy: %w", err)
		}
		results = append(results, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows iteration error: %w", err)
	}
	return results, nil
}

// UpdatePolicy правит поля заявки с защитой от гонки: строка меняется только
// если статус всё еще тот, который видел вызывающий.
func (s *Store) UpdatePolicy(ctx context.Context, id string, expected domain.PolicyStatus, in *domain.PolicyInput) (*domain.Policy, error) {
	query := `
		UPDATE policies
		SET customer_name = $1, premium = $2, product_type = $3, updated_at = NOW()
		WHERE id = $4 AND status = $5
		RETURNING ` + policyColumns

	p, err := scanPolicy(s.pool.QueryRow(ctx, query, in.CustomerName, in.Premium, in.ProductType, id, expected))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Либо полиса нет, либо статус успел смениться
			return nil, s.explainMissedUpdate(ctx, id)
		}
		return nil, err
	}
	return p, nil
}

// DeleteDraft удаляет черновик. Не-черновики не удаляются никем.
func (s *Store) DeleteDraft(ctx context.Context, id, creatorID string) error {
	query := `DELETE FROM policies WHERE id = $1 AND created_by = $2 AND status = 'draft'`

	ct, err := s.pool.Exec(ctx, query, id, creatorID)
	if err != nil {
		return fmt.Errorf("postgres: failed to delete policy: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return s.explainMissedUpdate(ctx, id)
	}
	return nil
}

// TransitionStatus атомарно переводит полис в новый статус и пишет ровно одну
// запись журнала согласования — в одной транзакции.
// Guard WHERE status = $from предотвращает Double Decision при гонке двух
// согласующих: второй UPDATE не найдет строку и транзакция откатится.
func (s *Store) TransitionStatus(ctx context.Context, entry *domain.ApprovalLogEntry) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: failed to begin transition tx: %w", err)
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx,
		`UPDATE policies SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
		entry.ToStatus, entry.PolicyID, entry.FromStatus,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to update policy status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return s.explainMissedUpdate(ctx, entry.PolicyID)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO approval_log (id, policy_id, actor_id, role, action, comment, from_status, to_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		entry.ID, entry.PolicyID, entry.ActorID, entry.Role, entry.Action,
		entry.Comment, entry.FromStatus, entry.ToStatus,
	).Scan(&entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: failed to append approval log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: failed to commit transition: %w", err)
	}
	return nil
}

// explainMissedUpdate различает «строки нет» и «статус уже другой»,
// чтобы хендлер мог отдать честные 404 или 409.
func (s *Store) explainMissedUpdate(ctx context.Context, id string) error {
	var status domain.PolicyStatus
	err := s.pool.QueryRow(ctx, `SELECT status FROM policies WHERE id = $1`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("postgres: failed to inspect policy: %w", err)
	}
	if status == domain.StatusApproved || status == domain.StatusRejected {
		return domain.ErrAlreadyFinal
	}
	return domain.ErrInvalidTransition
}
