package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"chatauth/internal/models"
)

var (
	ErrCodeNotFound     = errors.New("code not found or expired")
	ErrSessionNotFound  = errors.New("session not found")
	ErrAlreadyFinalized = errors.New("session already finalized")
)

// Допустимые переходы статусов сессии. Терминальные состояния не покидаем.
var SessionTransitions = map[string]map[string]bool{
	models.SessionStatusPending: {
		models.SessionStatusConfirmed: true,
		models.SessionStatusRevoked:   true,
	},
	models.SessionStatusConfirmed: {},
	models.SessionStatusRevoked:   {},
}

type SessionService struct {
	Repo SessionStore

	now func() time.Time
}

func NewSessionService(repo SessionStore) *SessionService {
	return &SessionService{Repo: repo, now: time.Now}
}

// CreateSession — потребляет непротухший код и заводит pending-сессию.
// ErrCodeNotFound — кода нет или он протух; повторять с тем же кодом нельзя.
func (s *SessionService) CreateSession(ctx context.Context, correlationID, code, clientContext string) (*models.VerificationSession, error) {
	sess, err := s.Repo.CreateFromCode(ctx, correlationID, code, clientContext, s.now())
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrCodeNotFound
	}
	log.Printf("[session][create] correlation_id=%s user_id=%d", sess.CorrelationID, sess.UserID)
	return sess, nil
}

// Transition — перевод pending-сессии в терминальный статус. Условный UPDATE
// (id + текущий статус) защищает от перезаписи терминального состояния
// конкурирующим писателем из другого процесса.
func (s *SessionService) Transition(ctx context.Context, correlationID, target string) (*models.VerificationSession, error) {
	if !SessionTransitions[models.SessionStatusPending][target] {
		return nil, fmt.Errorf("invalid target status %q", target)
	}

	updated, err := s.Repo.UpdateStatusIfPending(ctx, correlationID, target, s.now())
	if err != nil {
		return nil, err
	}

	sess, err := s.Repo.GetByCorrelationID(ctx, correlationID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	if !updated {
		// сессию уже финализировали; guarded no-op
		return sess, ErrAlreadyFinalized
	}
	log.Printf("[session][transition] correlation_id=%s status=%s", correlationID, target)
	return sess, nil
}

func (s *SessionService) FindByCorrelationID(ctx context.Context, correlationID string) (*models.VerificationSession, error) {
	sess, err := s.Repo.GetByCorrelationID(ctx, correlationID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// SweepExpired — удаляет все сессии старше cutoff независимо от статуса.
func (s *SessionService) SweepExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.Repo.DeleteCreatedBefore(ctx, cutoff)
}

func (s *SessionService) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return s.Repo.CountByStatus(ctx)
}
