package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"chatauth/internal/models"
)

const (
	actionConfirm = "confirm"
	actionRevoke  = "revoke"

	answerConfirmed = "Подтверждено"
	answerRevoking  = "Отзыв запрошен"
	answerExpired   = "Запрос истёк или уже обработан"
	answerMalformed = "Что-то пошло не так"
)

// Interaction — нажатие кнопки в чате, уже отвязанное от транспорта.
type Interaction struct {
	ID        string // id callback query, для ответа
	Data      string // "confirm_<correlationId>" | "revoke_<correlationId>"
	UserID    int64
	ChatID    int64
	MessageID int
}

// ConfirmationService — превращает нажатия кнопок в переходы состояния сессии.
type ConfirmationService struct {
	Sessions *SessionService
	Notifier Notifier
	Producer BusProducer

	now func() time.Time
}

func NewConfirmationService(sessions *SessionService, notifier Notifier, producer BusProducer) *ConfirmationService {
	return &ConfirmationService{
		Sessions: sessions,
		Notifier: notifier,
		Producer: producer,
		now:      time.Now,
	}
}

func (s *ConfirmationService) HandleInteraction(ctx context.Context, in *Interaction) error {
	action, correlationID, ok := parseInteractionData(in.Data)
	if !ok {
		// битый payload: никаких переходов и трафика в шину
		log.Printf("[gateway][reject] malformed payload %q user_id=%d", in.Data, in.UserID)
		return s.Notifier.AnswerInteraction(ctx, in.ID, answerMalformed)
	}

	switch action {
	case actionConfirm:
		return s.confirm(ctx, in, correlationID)
	case actionRevoke:
		return s.revoke(ctx, in, correlationID)
	}
	return nil
}

func (s *ConfirmationService) confirm(ctx context.Context, in *Interaction, correlationID string) error {
	_, err := s.Sessions.Transition(ctx, correlationID, models.SessionStatusConfirmed)
	if err != nil {
		return s.answerTransitionFailure(ctx, in, correlationID, err)
	}

	if err := s.Notifier.EditConfirmed(ctx, in.ChatID, in.MessageID); err != nil {
		log.Printf("[gateway][confirm] edit failed correlation_id=%s: %v", correlationID, err)
	}
	log.Printf("[gateway][confirm] correlation_id=%s user_id=%d", correlationID, in.UserID)
	return s.Notifier.AnswerInteraction(ctx, in.ID, answerConfirmed)
}

func (s *ConfirmationService) revoke(ctx context.Context, in *Interaction, correlationID string) error {
	sess, err := s.Sessions.Transition(ctx, correlationID, models.SessionStatusRevoked)
	if err != nil {
		return s.answerTransitionFailure(ctx, in, correlationID, err)
	}

	if err := s.Notifier.EditRevoking(ctx, in.ChatID, in.MessageID); err != nil {
		log.Printf("[gateway][revoke] edit failed correlation_id=%s: %v", correlationID, err)
	}

	// внешнее рукопожатие: свежий correlation id + ссылка на исходный
	req := &models.RevokeRequest{
		CorrelationID:         uuid.NewString(),
		UserID:                sess.UserID,
		OriginalCorrelationID: correlationID,
		Reason:                "revoked by user via chat",
		Timestamp:             s.now(),
	}
	if err := s.Producer.ProduceRevokeRequest(ctx, req); err != nil {
		log.Printf("[gateway][revoke] produce failed correlation_id=%s: %v", correlationID, err)
		return err
	}
	log.Printf("[gateway][revoke] correlation_id=%s revoke_correlation_id=%s user_id=%d",
		correlationID, req.CorrelationID, sess.UserID)
	return s.Notifier.AnswerInteraction(ctx, in.ID, answerRevoking)
}

// answerTransitionFailure — NotFound и уже финализированная сессия для
// пользователя неразличимы: запрос "истёк". Sweeper мог удалить сессию прямо
// под руками — это штатный сигнал, не внутренняя ошибка.
func (s *ConfirmationService) answerTransitionFailure(ctx context.Context, in *Interaction, correlationID string, err error) error {
	if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrAlreadyFinalized) {
		log.Printf("[gateway][expired] correlation_id=%s: %v", correlationID, err)
		return s.Notifier.AnswerInteraction(ctx, in.ID, answerExpired)
	}
	log.Printf("[gateway][err] correlation_id=%s: %v", correlationID, err)
	if ackErr := s.Notifier.AnswerInteraction(ctx, in.ID, answerMalformed); ackErr != nil {
		log.Printf("[gateway][err] answer failed correlation_id=%s: %v", correlationID, ackErr)
	}
	return err
}

// parseInteractionData — разбор по первому разделителю.
func parseInteractionData(data string) (action, correlationID string, ok bool) {
	parts := strings.SplitN(data, "_", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", "", false
	}
	if parts[0] != actionConfirm && parts[0] != actionRevoke {
		return "", "", false
	}
	return parts[0], parts[1], true
}
