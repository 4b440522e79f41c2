package services

import (
	"context"
	"log"
	"time"
)

// Sweeper — фоновая уборка: протухшие коды и сессии старше окна хранения.
// Единственный ограничитель времени жизни сессий; явной отмены ожидания
// человека нет.
type Sweeper struct {
	Codes    *CodeService
	Sessions *SessionService

	Interval  time.Duration
	Retention time.Duration
}

func NewSweeper(codes *CodeService, sessions *SessionService, interval, retention time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if retention <= 0 {
		retention = 30 * time.Minute
	}
	return &Sweeper{Codes: codes, Sessions: sessions, Interval: interval, Retention: retention}
}

func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	log.Printf("[sweeper] started interval=%s retention=%s", s.Interval, s.Retention)
	for {
		select {
		case <-ctx.Done():
			log.Printf("[sweeper] stopped")
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

func (s *Sweeper) SweepOnce(ctx context.Context) {
	cutoff := time.Now().Add(-s.Retention)
	if n, err := s.Sessions.SweepExpired(ctx, cutoff); err != nil {
		log.Printf("[sweeper][sessions][err] %v", err)
	} else if n > 0 {
		log.Printf("[sweeper][sessions] removed=%d cutoff=%s", n, cutoff.Format(time.RFC3339))
	}

	if n, err := s.Codes.SweepExpired(ctx); err != nil {
		log.Printf("[sweeper][codes][err] %v", err)
	} else if n > 0 {
		log.Printf("[sweeper][codes] removed=%d", n)
	}
}
