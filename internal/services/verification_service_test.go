package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatauth/internal/models"
)

func newVerificationEnv() (*memoryStore, *fakeNotifier, *recordingProducer, *VerificationService) {
	store := newMemoryStore()
	notifier := &fakeNotifier{}
	producer := &recordingProducer{}
	svc := NewVerificationService(NewSessionService(store), notifier, producer)
	return store, notifier, producer, svc
}

func TestVerifyRequestSuccess(t *testing.T) {
	ctx := context.Background()
	store, notifier, producer, svc := newVerificationEnv()

	t0 := time.Now()
	store.seedCode("1234567", 42, t0.Add(-time.Minute), 5*time.Minute) // выдан минуту назад

	err := svc.ProcessVerifyRequest(ctx, &models.VerifyRequest{
		CorrelationID: "U1",
		Code:          "1234567",
		Context:       "Chrome on macOS",
		Timestamp:     t0,
	})
	require.NoError(t, err)

	require.Len(t, producer.verifyResponses, 1)
	resp := producer.verifyResponses[0]
	assert.True(t, resp.Success)
	assert.Equal(t, "U1", resp.CorrelationID)
	assert.Equal(t, int64(42), resp.UserID)

	sess, err := store.GetByCorrelationID(ctx, "U1")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, models.SessionStatusPending, sess.Status)
	assert.Equal(t, int64(42), sess.UserID)

	assert.Equal(t, []string{"U1"}, notifier.prompts)
}

func TestVerifyRequestUnknownCode(t *testing.T) {
	ctx := context.Background()
	store, notifier, producer, svc := newVerificationEnv()

	err := svc.ProcessVerifyRequest(ctx, &models.VerifyRequest{
		CorrelationID: "U1",
		Code:          "9999999",
	})
	require.NoError(t, err)

	require.Len(t, producer.verifyResponses, 1)
	resp := producer.verifyResponses[0]
	assert.False(t, resp.Success)
	assert.Equal(t, "code not found or expired", resp.Message)

	sess, err := store.GetByCorrelationID(ctx, "U1")
	require.NoError(t, err)
	assert.Nil(t, sess, "сессия не должна создаваться")
	assert.Empty(t, notifier.prompts)
}

func TestVerifyRequestNotificationFails(t *testing.T) {
	ctx := context.Background()
	store, notifier, producer, svc := newVerificationEnv()
	notifier.promptErr = fmt.Errorf("telegram is down")

	store.seedCode("1234567", 42, time.Now(), 5*time.Minute)

	err := svc.ProcessVerifyRequest(ctx, &models.VerifyRequest{CorrelationID: "U1", Code: "1234567"})
	require.NoError(t, err)

	require.Len(t, producer.verifyResponses, 1)
	resp := producer.verifyResponses[0]
	assert.False(t, resp.Success)
	assert.Equal(t, "notification failed", resp.Message)
}

func TestVerifyRequestPanicRecovered(t *testing.T) {
	ctx := context.Background()
	store, notifier, producer, svc := newVerificationEnv()
	notifier.promptPanics = true

	store.seedCode("1234567", 42, time.Now(), 5*time.Minute)

	err := svc.ProcessVerifyRequest(ctx, &models.VerifyRequest{CorrelationID: "U1", Code: "1234567"})
	require.NoError(t, err)

	require.Len(t, producer.verifyResponses, 1)
	resp := producer.verifyResponses[0]
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "internal error")
	assert.Zero(t, resp.UserID)
}

// Ровно один verify-response на запрос при любой комбинации исходов.
func TestVerifyRequestExactlyOneResponse(t *testing.T) {
	cases := []struct {
		name      string
		codeValid bool
		notifyErr bool
		panics    bool
	}{
		{"valid+ok", true, false, false},
		{"valid+notify-err", true, true, false},
		{"valid+panic", true, false, true},
		{"invalid+ok", false, false, false},
		{"invalid+notify-err", false, true, false},
		{"invalid+panic", false, false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			store, notifier, producer, svc := newVerificationEnv()
			if tc.codeValid {
				store.seedCode("1234567", 42, time.Now(), 5*time.Minute)
			}
			if tc.notifyErr {
				notifier.promptErr = fmt.Errorf("boom")
			}
			notifier.promptPanics = tc.panics

			_ = svc.ProcessVerifyRequest(ctx, &models.VerifyRequest{CorrelationID: "U1", Code: "1234567"})
			assert.Len(t, producer.verifyResponses, 1)
			assert.Equal(t, "U1", producer.verifyResponses[0].CorrelationID)
		})
	}
}

func TestRevokeResponseSuccessNotifiesUser(t *testing.T) {
	ctx := context.Background()
	_, notifier, _, svc := newVerificationEnv()

	err := svc.HandleRevokeResponse(ctx, &models.RevokeResponse{
		CorrelationID:         "R1",
		OriginalCorrelationID: "U1",
		UserID:                42,
		Success:               true,
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{42}, notifier.notices)
}

func TestRevokeResponseFailureOnlyLogged(t *testing.T) {
	ctx := context.Background()
	_, notifier, _, svc := newVerificationEnv()

	err := svc.HandleRevokeResponse(ctx, &models.RevokeResponse{
		CorrelationID:         "R1",
		OriginalCorrelationID: "U1",
		UserID:                42,
		Success:               false,
		Message:               "authority unavailable",
	})
	require.NoError(t, err)
	assert.Empty(t, notifier.notices, "компенсации и уведомления нет")
}
