package models

import "time"

// Сообщения шины. Имена полей — формат провода, менять нельзя.

type VerifyRequest struct {
	CorrelationID string    `json:"correlationId"`
	Code          string    `json:"code"`
	Context       string    `json:"context"`
	Timestamp     time.Time `json:"ts"`
}

type VerifyResponse struct {
	CorrelationID string    `json:"correlationId"`
	Success       bool      `json:"success"`
	UserID        int64     `json:"userId,omitempty"`
	Message       string    `json:"message,omitempty"`
	Timestamp     time.Time `json:"ts"`
}

type RevokeRequest struct {
	CorrelationID         string    `json:"correlationId"`
	UserID                int64     `json:"userId"`
	OriginalCorrelationID string    `json:"originalCorrelationId"`
	Reason                string    `json:"reason"`
	Timestamp             time.Time `json:"ts"`
}

type RevokeResponse struct {
	CorrelationID         string    `json:"correlationId"`
	OriginalCorrelationID string    `json:"originalCorrelationId"`
	UserID                int64     `json:"userId"`
	Success               bool      `json:"success"`
	Message               string    `json:"message,omitempty"`
	Timestamp             time.Time `json:"ts"`
}
