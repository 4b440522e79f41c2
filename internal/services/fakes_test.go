package services

import (
	"context"
	"sync"
	"time"

	"chatauth/internal/models"
	"chatauth/internal/repositories"
)

// In-memory подмены хранилищ и внешних каналов для тестов.

type memoryStore struct {
	mu       sync.Mutex
	codes    map[string]*models.VerificationCode
	sessions map[string]*models.VerificationSession

	dupRemaining int  // столько Insert подряд вернут ErrDuplicateCode
	allTaken     bool // все значения "заняты" при предпроверке
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		codes:    make(map[string]*models.VerificationCode),
		sessions: make(map[string]*models.VerificationSession),
	}
}

func (m *memoryStore) GetActiveByUserID(_ context.Context, userID int64, now time.Time) (*models.VerificationCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.codes {
		if c.UserID == userID && c.ExpiresAt.After(now) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memoryStore) GetActiveByValue(_ context.Context, code string, now time.Time) (*models.VerificationCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.allTaken {
		return &models.VerificationCode{Code: code, ExpiresAt: now.Add(time.Hour)}, nil
	}
	if c, ok := m.codes[code]; ok && c.ExpiresAt.After(now) {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (m *memoryStore) Insert(_ context.Context, code *models.VerificationCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dupRemaining > 0 {
		m.dupRemaining--
		return repositories.ErrDuplicateCode
	}
	if old, ok := m.codes[code.Code]; ok {
		if old.ExpiresAt.After(code.CreatedAt) {
			return repositories.ErrDuplicateCode
		}
		delete(m.codes, code.Code) // протухшее значение переиспользуем
	}
	cp := *code
	m.codes[code.Code] = &cp
	return nil
}

func (m *memoryStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for v, c := range m.codes {
		if !c.ExpiresAt.After(now) {
			delete(m.codes, v)
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) CreateFromCode(_ context.Context, correlationID, code, clientContext string, now time.Time) (*models.VerificationSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.codes[code]
	if !ok || !c.ExpiresAt.After(now) {
		return nil, nil
	}
	s := &models.VerificationSession{
		CorrelationID: correlationID,
		UserID:        c.UserID,
		Code:          code,
		ClientContext: clientContext,
		Status:        models.SessionStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	m.sessions[correlationID] = s
	delete(m.codes, code)
	cp := *s
	return &cp, nil
}

func (m *memoryStore) GetByCorrelationID(_ context.Context, correlationID string) (*models.VerificationSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[correlationID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *memoryStore) UpdateStatusIfPending(_ context.Context, correlationID, target string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[correlationID]
	if !ok || s.Status != models.SessionStatusPending {
		return false, nil
	}
	s.Status = target
	s.UpdatedAt = now
	return true, nil
}

func (m *memoryStore) DeleteCreatedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.sessions {
		if s.CreatedAt.Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) CountByStatus(_ context.Context) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int64{
		models.SessionStatusPending:   0,
		models.SessionStatusConfirmed: 0,
		models.SessionStatusRevoked:   0,
	}
	for _, s := range m.sessions {
		counts[s.Status]++
	}
	return counts, nil
}

func (m *memoryStore) seedCode(code string, userID int64, createdAt time.Time, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[code] = &models.VerificationCode{
		Code:      code,
		UserID:    userID,
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(ttl),
	}
}

type fakeNotifier struct {
	mu sync.Mutex

	promptErr    error
	promptPanics bool

	prompts        []string // correlation ids
	confirmedEdits []int    // message ids
	revokingEdits  []int
	notices        []int64 // user ids
	answers        []string
}

func (f *fakeNotifier) SendPrompt(_ context.Context, userID int64, correlationID, _ string) error {
	if f.promptPanics {
		panic("notifier exploded")
	}
	if f.promptErr != nil {
		return f.promptErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, correlationID)
	return nil
}

func (f *fakeNotifier) EditConfirmed(_ context.Context, _ int64, messageID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmedEdits = append(f.confirmedEdits, messageID)
	return nil
}

func (f *fakeNotifier) EditRevoking(_ context.Context, _ int64, messageID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revokingEdits = append(f.revokingEdits, messageID)
	return nil
}

func (f *fakeNotifier) SendRevokedNotice(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, userID)
	return nil
}

func (f *fakeNotifier) AnswerInteraction(_ context.Context, _, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, text)
	return nil
}

type recordingProducer struct {
	mu sync.Mutex

	verifyResponses []*models.VerifyResponse
	revokeRequests  []*models.RevokeRequest
}

func (p *recordingProducer) ProduceVerifyResponse(_ context.Context, resp *models.VerifyResponse) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.verifyResponses = append(p.verifyResponses, resp)
	return nil
}

func (p *recordingProducer) ProduceRevokeRequest(_ context.Context, req *models.RevokeRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.revokeRequests = append(p.revokeRequests, req)
	return nil
}
