package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joeschweitzer/bayesian/internal/bayesnet"
	"github.com/joeschweitzer/bayesian/internal/domain"
	"go.uber.org/zap"
)

var ErrSessionNotFound = errors.New("session not found")

type sessionEntry struct {
	mu      sync.Mutex
	info    domain.Session
	beliefs *bayesnet.Session
}

// SessionService keeps evidence sessions in memory. Each session has its
// own evidence and belief cache over a shared compiled network; calls on
// one session are serialized.
type SessionService struct {
	networks *NetworkService
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[uuid.UUID]*sessionEntry
}

func NewSessionService(networks *NetworkService, logger *zap.Logger) *SessionService {
	return &SessionService{
		networks: networks,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[uuid.UUID]*sessionEntry),
	}
}

// SessionBeliefs is a session together with the beliefs of every variable.
type SessionBeliefs struct {
	Session             domain.Session          `json:"session"`
	EvidenceProbability float64                 `json:"evidence_probability"`
	Beliefs             []bayesnet.BeliefResult `json:"beliefs"`
}

func (s *SessionService) Open(ctx context.Context, networkID uuid.UUID) (*domain.Session, error) {
	net, err := s.networks.Compiled(ctx, networkID)
	if err != nil {
		return nil, err
	}
	bs, err := net.NewSession()
	if err != nil {
		return nil, err
	}

	now := s.now()
	e := &sessionEntry{
		info: domain.Session{
			ID:             uuid.New(),
			NetworkID:      networkID,
			Evidence:       map[string]string{},
			CreatedAt:      now,
			LastActivityAt: now,
		},
		beliefs: bs,
	}

	// The network may have been deleted, and its sessions swept, while this
	// one was being built.
	s.mu.Lock()
	if s.networks.isDeleted(networkID) {
		s.mu.Unlock()
		return nil, ErrNetworkNotFound
	}
	s.sessions[e.info.ID] = e
	s.mu.Unlock()
	sessionsActive.Inc()

	s.logger.Info("session opened",
		zap.String("session_id", e.info.ID.String()),
		zap.String("network_id", networkID.String()))

	info := e.snapshot()
	return &info, nil
}

func (s *SessionService) Get(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	var info domain.Session
	err := s.with(id, func(e *sessionEntry) error {
		info = e.snapshot()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (s *SessionService) Close(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	sessionsActive.Dec()
	s.logger.Info("session closed", zap.String("session_id", id.String()))
	return nil
}

// CloseForNetwork drops every session over the given network.
func (s *SessionService) CloseForNetwork(networkID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	closed := 0
	for id, e := range s.sessions {
		if e.info.NetworkID == networkID {
			delete(s.sessions, id)
			closed++
		}
	}
	sessionsActive.Sub(float64(closed))
	return closed
}

func (s *SessionService) EnterEvidence(ctx context.Context, id uuid.UUID, variable, state string) (*domain.Session, error) {
	return s.mutate(id, func(bs *bayesnet.Session) error {
		return bs.EnterEvidence(variable, state)
	})
}

func (s *SessionService) RetractEvidence(ctx context.Context, id uuid.UUID, variable string) (*domain.Session, error) {
	return s.mutate(id, func(bs *bayesnet.Session) error {
		return bs.RetractEvidence(variable)
	})
}

func (s *SessionService) ClearEvidence(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	return s.mutate(id, func(bs *bayesnet.Session) error {
		bs.ClearEvidence()
		return nil
	})
}

func (s *SessionService) Belief(ctx context.Context, id uuid.UUID, variable string) (result bayesnet.BeliefResult, err error) {
	defer func(start time.Time) { observeInference("belief", start, err) }(time.Now())

	err = s.with(id, func(e *sessionEntry) error {
		var err error
		result, err = e.beliefs.Belief(variable)
		return err
	})
	return result, err
}

func (s *SessionService) Beliefs(ctx context.Context, id uuid.UUID) (_ *SessionBeliefs, err error) {
	defer func(start time.Time) { observeInference("beliefs", start, err) }(time.Now())

	out := &SessionBeliefs{}
	err = s.with(id, func(e *sessionEntry) error {
		beliefs, err := e.beliefs.Beliefs()
		if err != nil {
			return err
		}
		mass, err := e.beliefs.EvidenceProbability()
		if err != nil {
			return err
		}
		out.Session = e.snapshot()
		out.Beliefs = beliefs
		out.EvidenceProbability = mass
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ExpireIdle closes sessions with no activity for longer than maxIdle.
func (s *SessionService) ExpireIdle(maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()

	expired := 0
	for id, e := range s.sessions {
		e.mu.Lock()
		idle := e.info.LastActivityAt.Before(cutoff)
		e.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			expired++
		}
	}
	sessionsActive.Sub(float64(expired))
	sessionsExpired.Add(float64(expired))
	return expired
}

func (s *SessionService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionService) mutate(id uuid.UUID, fn func(bs *bayesnet.Session) error) (*domain.Session, error) {
	var info domain.Session
	err := s.with(id, func(e *sessionEntry) error {
		if err := fn(e.beliefs); err != nil {
			return err
		}
		e.info.Evidence = e.beliefs.Evidence().Snapshot()
		info = e.snapshot()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// with runs fn with the session locked and records the activity.
func (s *SessionService) with(id uuid.UUID, fn func(e *sessionEntry) error) error {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.info.LastActivityAt = s.now()
	return fn(e)
}

func (e *sessionEntry) snapshot() domain.Session {
	info := e.info
	info.Evidence = make(map[string]string, len(e.info.Evidence))
	for k, v := range e.info.Evidence {
		info.Evidence[k] = v
	}
	return info
}
