package models

import "time"

const (
	SessionStatusPending   = "pending"
	SessionStatusConfirmed = "confirmed"
	SessionStatusRevoked   = "revoked"
)

type VerificationSession struct {
	CorrelationID string    `json:"correlation_id"`
	UserID        int64     `json:"user_id"`
	Code          string    `json:"code"`
	ClientContext string    `json:"client_context"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}