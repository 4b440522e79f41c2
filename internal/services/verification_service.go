package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"chatauth/internal/models"
)

const (
	msgCodeNotFound       = "code not found or expired"
	msgNotificationFailed = "notification failed"
)

// VerificationService — обработка verify-request и revoke-response.
type VerificationService struct {
	Sessions *SessionService
	Notifier Notifier
	Producer BusProducer

	now func() time.Time
}

func NewVerificationService(sessions *SessionService, notifier Notifier, producer BusProducer) *VerificationService {
	return &VerificationService{
		Sessions: sessions,
		Notifier: notifier,
		Producer: producer,
		now:      time.Now,
	}
}

// ProcessVerifyRequest — на каждый запрос ровно один verify-response,
// каким бы ни был исход: ждущая сторона не должна зависнуть.
func (s *VerificationService) ProcessVerifyRequest(ctx context.Context, req *models.VerifyRequest) error {
	resp := s.buildVerifyResponse(ctx, req)
	if err := s.Producer.ProduceVerifyResponse(ctx, resp); err != nil {
		return fmt.Errorf("produce verify-response correlation_id=%s: %w", req.CorrelationID, err)
	}
	return nil
}

func (s *VerificationService) buildVerifyResponse(ctx context.Context, req *models.VerifyRequest) (resp *models.VerifyResponse) {
	resp = &models.VerifyResponse{
		CorrelationID: req.CorrelationID,
		Timestamp:     s.now(),
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[verify][panic] correlation_id=%s: %v", req.CorrelationID, r)
			resp.Success = false
			resp.UserID = 0
			resp.Message = fmt.Sprintf("internal error: %v", r)
		}
	}()

	sess, err := s.Sessions.CreateSession(ctx, req.CorrelationID, req.Code, req.Context)
	if err != nil {
		if errors.Is(err, ErrCodeNotFound) {
			log.Printf("[verify][reject] correlation_id=%s: %s", req.CorrelationID, msgCodeNotFound)
			resp.Message = msgCodeNotFound
			return
		}
		log.Printf("[verify][err] correlation_id=%s: %v", req.CorrelationID, err)
		resp.Message = err.Error()
		return
	}

	if err := s.Notifier.SendPrompt(ctx, sess.UserID, sess.CorrelationID, sess.ClientContext); err != nil {
		log.Printf("[verify][notify][err] correlation_id=%s: %v", req.CorrelationID, err)
		resp.Message = msgNotificationFailed
		return
	}

	resp.Success = true
	resp.UserID = sess.UserID
	return
}

// HandleRevokeResponse — финал внешнего рукопожатия отзыва. Локальная сессия
// уже revoked; при неуспехе только логируем, компенсации нет.
func (s *VerificationService) HandleRevokeResponse(ctx context.Context, resp *models.RevokeResponse) error {
	if !resp.Success {
		log.Printf("[revoke][response][failed] correlation_id=%s original_correlation_id=%s message=%q",
			resp.CorrelationID, resp.OriginalCorrelationID, resp.Message)
		return nil
	}
	if err := s.Notifier.SendRevokedNotice(ctx, resp.UserID); err != nil {
		return fmt.Errorf("revoked notice user_id=%d: %w", resp.UserID, err)
	}
	log.Printf("[revoke][response][ok] original_correlation_id=%s user_id=%d", resp.OriginalCorrelationID, resp.UserID)
	return nil
}
