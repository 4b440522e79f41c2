package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"chatauth/internal/models"
)

type SessionRepository struct {
	DB *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

// CreateFromCode — атомарное потребление кода: блокируем непротухшую строку кода,
// создаём pending-сессию и удаляем код в одной транзакции.
// Возвращает (nil, nil), если подходящего кода нет.
func (r *SessionRepository) CreateFromCode(ctx context.Context, correlationID, code, clientContext string, now time.Time) (*models.VerificationSession, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("create session begin: %w", err)
	}
	defer tx.Rollback()

	var userID int64
	row := tx.QueryRowContext(ctx, `
		SELECT user_id
		FROM verification_codes
		WHERE code = $1 AND expires_at > $2
		FOR UPDATE
	`, code, now)
	if err := row.Scan(&userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("create session lock code: %w", err)
	}

	s := &models.VerificationSession{
		CorrelationID: correlationID,
		UserID:        userID,
		Code:          code,
		ClientContext: clientContext,
		Status:        models.SessionStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO verification_sessions (correlation_id, user_id, code, client_context, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, s.CorrelationID, s.UserID, s.Code, s.ClientContext, s.Status, s.CreatedAt, s.UpdatedAt); err != nil {
		return nil, fmt.Errorf("create session insert: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM verification_codes WHERE code = $1`, code); err != nil {
		return nil, fmt.Errorf("create session consume code: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("create session commit: %w", err)
	}
	return s, nil
}

func (r *SessionRepository) GetByCorrelationID(ctx context.Context, correlationID string) (*models.VerificationSession, error) {
	const q = `
		SELECT correlation_id, user_id, code, client_context, status, created_at, updated_at
		FROM verification_sessions
		WHERE correlation_id = $1
	`
	row := r.DB.QueryRowContext(ctx, q, correlationID)

	var s models.VerificationSession
	if err := row.Scan(&s.CorrelationID, &s.UserID, &s.Code, &s.ClientContext, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &s, nil
}

// UpdateStatusIfPending — условный переход, скоуп по id И текущему статусу.
// Терминальную сессию не трогает, возвращает false.
func (r *SessionRepository) UpdateStatusIfPending(ctx context.Context, correlationID, target string, now time.Time) (bool, error) {
	const q = `
		UPDATE verification_sessions
		SET status = $2, updated_at = $3
		WHERE correlation_id = $1 AND status = $4
	`
	res, err := r.DB.ExecContext(ctx, q, correlationID, target, now, models.SessionStatusPending)
	if err != nil {
		return false, fmt.Errorf("update session status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update session status rows: %w", err)
	}
	return n > 0, nil
}

func (r *SessionRepository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM verification_sessions WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete old sessions rows: %w", err)
	}
	return n, nil
}

func (r *SessionRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM verification_sessions GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count sessions by status: %w", err)
	}
	defer rows.Close()

	counts := map[string]int64{
		models.SessionStatusPending:   0,
		models.SessionStatusConfirmed: 0,
		models.SessionStatusRevoked:   0,
	}
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan session count: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count sessions by status: %w", err)
	}
	return counts, nil
}
