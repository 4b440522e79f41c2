package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatauth/internal/models"
)

func TestSweepOnce(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	codes := NewCodeService(store, 5*time.Minute, 100)
	sessions := NewSessionService(store)
	sweeper := NewSweeper(codes, sessions, 5*time.Minute, 30*time.Minute)

	now := time.Now()
	store.seedCode("1111111", 1, now.Add(-10*time.Minute), 5*time.Minute)
	store.seedCode("2222222", 2, now, 5*time.Minute)
	store.sessions["old"] = &models.VerificationSession{
		CorrelationID: "old",
		Status:        models.SessionStatusConfirmed,
		CreatedAt:     now.Add(-31 * time.Minute),
	}
	store.sessions["fresh"] = &models.VerificationSession{
		CorrelationID: "fresh",
		Status:        models.SessionStatusPending,
		CreatedAt:     now,
	}

	sweeper.SweepOnce(ctx)

	_, err := sessions.FindByCorrelationID(ctx, "old")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = sessions.FindByCorrelationID(ctx, "fresh")
	assert.NoError(t, err)

	live, err := store.GetActiveByValue(ctx, "2222222", now)
	require.NoError(t, err)
	assert.NotNil(t, live)
	gone, err := store.GetActiveByValue(ctx, "1111111", now)
	require.NoError(t, err)
	assert.Nil(t, gone)
}
