package service

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultSessionTTL      = 30 * time.Minute
	defaultExpirerInterval = time.Minute
)

// SessionExpirer periodically closes sessions that have gone idle.
type SessionExpirer struct {
	sessions *SessionService
	logger   *zap.Logger

	ttl      time.Duration
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewSessionExpirer(sessions *SessionService, logger *zap.Logger) *SessionExpirer {
	return &SessionExpirer{
		sessions: sessions,
		logger:   logger,
		ttl:      defaultSessionTTL,
		interval: defaultExpirerInterval,
		stopCh:   make(chan struct{}),
	}
}

func (s *SessionExpirer) SetTTL(d time.Duration) {
	if d > 0 {
		s.ttl = d
	}
}

func (s *SessionExpirer) SetInterval(d time.Duration) {
	if d > 0 {
		s.interval = d
	}
}

// Start runs the expirer on a periodic schedule in a background goroutine.
func (s *SessionExpirer) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("session expirer started",
			zap.Duration("interval", s.interval),
			zap.Duration("ttl", s.ttl))

		for {
			select {
			case <-ticker.C:
				s.run()
			case <-s.stopCh:
				s.logger.Info("session expirer stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the expirer.
func (s *SessionExpirer) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

func (s *SessionExpirer) run() int {
	expired := s.sessions.ExpireIdle(s.ttl)
	if expired > 0 {
		s.logger.Info("expired idle sessions",
			zap.Int("count", expired),
			zap.Int("remaining", s.sessions.Count()))
	}
	return expired
}
