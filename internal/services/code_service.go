package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"chatauth/internal/models"
	"chatauth/internal/repositories"
)

// ErrCodeSpaceExhausted — исчерпан лимит попыток генерации уникального кода.
// Это не ошибка запроса, а сигнал о здоровье хранилища/пространства кодов.
var ErrCodeSpaceExhausted = errors.New("code space exhausted")

const (
	defaultCodeTTL         = 5 * time.Minute
	defaultMaxCodeAttempts = 100

	codeMin  = 1_000_000
	codeSpan = 9_000_000 // [1000000, 9999999]
)

type CodeService struct {
	Repo        CodeStore
	CodeTTL     time.Duration
	MaxAttempts int

	rnd *rand.Rand
	now func() time.Time
}

func NewCodeService(repo CodeStore, ttl time.Duration, maxAttempts int) *CodeService {
	if ttl <= 0 {
		ttl = defaultCodeTTL
	}
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxCodeAttempts
	}
	return &CodeService{
		Repo:        repo,
		CodeTTL:     ttl,
		MaxAttempts: maxAttempts,
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
		now:         time.Now,
	}
}

// GetOrCreateCode — идемпотентна в пределах TTL: живой код пользователя
// возвращается как есть. Иначе рисуем новое значение, проверяем его среди
// непротухших и вставляем; коллизия (по предпроверке или по уникальному
// индексу) — ещё одна попытка, всего не больше MaxAttempts.
func (s *CodeService) GetOrCreateCode(ctx context.Context, userID int64) (*models.VerificationCode, bool, error) {
	now := s.now()

	existing, err := s.Repo.GetActiveByUserID(ctx, userID, now)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	for attempt := 1; attempt <= s.MaxAttempts; attempt++ {
		value := s.drawCode()

		taken, err := s.Repo.GetActiveByValue(ctx, value, now)
		if err != nil {
			return nil, false, err
		}
		if taken != nil {
			continue
		}

		code := &models.VerificationCode{
			Code:      value,
			UserID:    userID,
			CreatedAt: now,
			ExpiresAt: now.Add(s.CodeTTL),
		}
		if err := s.Repo.Insert(ctx, code); err != nil {
			if errors.Is(err, repositories.ErrDuplicateCode) {
				// гонка check-then-insert, закрыта индексом; перерисовываем
				log.Printf("[code][issue] collision on insert user_id=%d attempt=%d", userID, attempt)
				continue
			}
			return nil, false, err
		}
		return code, true, nil
	}

	return nil, false, fmt.Errorf("%w after %d attempts", ErrCodeSpaceExhausted, s.MaxAttempts)
}

func (s *CodeService) SweepExpired(ctx context.Context) (int64, error) {
	return s.Repo.DeleteExpired(ctx, s.now())
}

// drawCode — равномерный 7-значный код, первая цифра не ноль.
func (s *CodeService) drawCode() string {
	return fmt.Sprintf("%d", codeMin+s.rnd.Intn(codeSpan))
}
