package models

import "time"

// VerificationCode — одноразовый код привязки, живёт до expires_at
// либо до момента потребления сессией.
type VerificationCode struct {
	Code      string    `json:"code"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
