package services

import (
	"context"
	"time"

	"chatauth/internal/models"
)

// Интерфейсы хранилищ и внешних каналов. Реализации: internal/repositories
// (Postgres), internal/bus (Kafka), NotificationService (Telegram);
// в тестах — in-memory подмены.

type CodeStore interface {
	GetActiveByUserID(ctx context.Context, userID int64, now time.Time) (*models.VerificationCode, error)
	GetActiveByValue(ctx context.Context, code string, now time.Time) (*models.VerificationCode, error)
	Insert(ctx context.Context, code *models.VerificationCode) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type SessionStore interface {
	CreateFromCode(ctx context.Context, correlationID, code, clientContext string, now time.Time) (*models.VerificationSession, error)
	GetByCorrelationID(ctx context.Context, correlationID string) (*models.VerificationSession, error)
	UpdateStatusIfPending(ctx context.Context, correlationID, target string, now time.Time) (bool, error)
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

// Notifier — исходящая половина чат-интеграции (Sender). Входящая половина
// (слушатель апдейтов) живёт в internal/bot и на Notifier не завязана.
type Notifier interface {
	SendPrompt(ctx context.Context, userID int64, correlationID, clientContext string) error
	EditConfirmed(ctx context.Context, chatID int64, messageID int) error
	EditRevoking(ctx context.Context, chatID int64, messageID int) error
	SendRevokedNotice(ctx context.Context, userID int64) error
	AnswerInteraction(ctx context.Context, interactionID, text string) error
}

type BusProducer interface {
	ProduceVerifyResponse(ctx context.Context, resp *models.VerifyResponse) error
	ProduceRevokeRequest(ctx context.Context, req *models.RevokeRequest) error
}
