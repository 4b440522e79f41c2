package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"chatauth/internal/models"
)

// ErrDuplicateCode — живой дубликат значения кода (нарушение уникального индекса).
var ErrDuplicateCode = errors.New("duplicate code value")

type CodeRepository struct {
	DB *sql.DB
}

func NewCodeRepository(db *sql.DB) *CodeRepository {
	return &CodeRepository{DB: db}
}

func (r *CodeRepository) GetActiveByUserID(ctx context.Context, userID int64, now time.Time) (*models.VerificationCode, error) {
	const q = `
		SELECT code, user_id, created_at, expires_at
		FROM verification_codes
		WHERE user_id = $1 AND expires_at > $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	row := r.DB.QueryRowContext(ctx, q, userID, now)

	var c models.VerificationCode
	if err := row.Scan(&c.Code, &c.UserID, &c.CreatedAt, &c.ExpiresAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get active code by user: %w", err)
	}
	return &c, nil
}

func (r *CodeRepository) GetActiveByValue(ctx context.Context, code string, now time.Time) (*models.VerificationCode, error) {
	const q = `
		SELECT code, user_id, created_at, expires_at
		FROM verification_codes
		WHERE code = $1 AND expires_at > $2
	`
	row := r.DB.QueryRowContext(ctx, q, code, now)

	var c models.VerificationCode
	if err := row.Scan(&c.Code, &c.UserID, &c.CreatedAt, &c.ExpiresAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get active code by value: %w", err)
	}
	return &c, nil
}

// Insert — вставка нового кода. Уникальность значения гарантирует индекс,
// протухшую строку с тем же значением сначала освобождаем (значения переиспользуемы).
func (r *CodeRepository) Insert(ctx context.Context, code *models.VerificationCode) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert code begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM verification_codes WHERE code = $1 AND expires_at <= $2`,
		code.Code, code.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert code reclaim: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO verification_codes (code, user_id, created_at, expires_at) VALUES ($1, $2, $3, $4)`,
		code.Code, code.UserID, code.CreatedAt, code.ExpiresAt,
	); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateCode
		}
		return fmt.Errorf("insert code: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert code commit: %w", err)
	}
	return nil
}

func (r *CodeRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM verification_codes WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired codes: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired codes rows: %w", err)
	}
	return n, nil
}
