package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joeschweitzer/bayesian/internal/bayesnet"
	"github.com/joeschweitzer/bayesian/internal/domain"
	"github.com/joeschweitzer/bayesian/internal/store"
	"go.uber.org/zap"
)

var (
	ErrNetworkNotFound   = errors.New("network not found")
	ErrNetworkConflict   = errors.New("network with this name already exists")
	ErrInvalidDefinition = errors.New("invalid network definition")
	ErrNameRequired      = errors.New("network name is required")
)

// NetworkService stores network definitions and keeps their compiled form.
// Compiled networks are read-only, so one instance serves every caller.
type NetworkService struct {
	store  domain.NetworkStore
	logger *zap.Logger

	mu       sync.RWMutex
	compiled map[uuid.UUID]*bayesnet.Network
	deleted  map[uuid.UUID]struct{} // ids are never reused
}

func NewNetworkService(s domain.NetworkStore, logger *zap.Logger) *NetworkService {
	return &NetworkService{
		store:    s,
		logger:   logger,
		compiled: make(map[uuid.UUID]*bayesnet.Network),
		deleted:  make(map[uuid.UUID]struct{}),
	}
}

// Create validates and compiles the definition before storing it.
func (s *NetworkService) Create(ctx context.Context, n *domain.Network) (*bayesnet.Network, error) {
	if n.Name == "" {
		return nil, ErrNameRequired
	}

	net, err := BuildNetwork(n.Name, n.Definition)
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, n); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrNetworkConflict
		}
		return nil, err
	}

	s.mu.Lock()
	s.compiled[n.ID] = net
	s.mu.Unlock()
	networksCompiled.Inc()

	s.logger.Info("network created",
		zap.String("network_id", n.ID.String()),
		zap.String("name", n.Name),
		zap.Int("variables", len(n.Definition.Variables)),
		zap.Strings("elimination_order", net.EliminationOrder()))

	return net, nil
}

func (s *NetworkService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Network, error) {
	n, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNetworkNotFound
		}
		return nil, err
	}
	return n, nil
}

func (s *NetworkService) GetByName(ctx context.Context, name string) (*domain.Network, error) {
	n, err := s.store.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNetworkNotFound
		}
		return nil, err
	}
	return n, nil
}

func (s *NetworkService) List(ctx context.Context, limit int) ([]domain.Network, error) {
	return s.store.List(ctx, limit)
}

func (s *NetworkService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNetworkNotFound
		}
		return err
	}

	s.mu.Lock()
	delete(s.compiled, id)
	s.deleted[id] = struct{}{}
	s.mu.Unlock()

	s.logger.Info("network deleted", zap.String("network_id", id.String()))
	return nil
}

// isDeleted reports whether id was deleted through this service.
func (s *NetworkService) isDeleted(id uuid.UUID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, gone := s.deleted[id]
	return gone
}

// Compiled returns the compiled network for id, building it from the stored
// definition on first use.
func (s *NetworkService) Compiled(ctx context.Context, id uuid.UUID) (*bayesnet.Network, error) {
	s.mu.RLock()
	net, ok := s.compiled[id]
	s.mu.RUnlock()
	if ok {
		return net, nil
	}

	n, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	net, err = BuildNetwork(n.Name, n.Definition)
	if err != nil {
		s.logger.Error("stored network failed to compile",
			zap.String("network_id", id.String()),
			zap.Error(err))
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, gone := s.deleted[id]; gone {
		return nil, ErrNetworkNotFound
	}
	if existing, ok := s.compiled[id]; ok {
		return existing, nil
	}
	s.compiled[id] = net
	networksCompiled.Inc()
	return net, nil
}

// QueryResult holds beliefs computed under one evidence assignment.
type QueryResult struct {
	NetworkID           uuid.UUID               `json:"network_id"`
	Evidence            map[string]string       `json:"evidence"`
	EvidenceProbability float64                 `json:"evidence_probability"`
	Beliefs             []bayesnet.BeliefResult `json:"beliefs"`
}

// Query computes beliefs for the named variables, or for every variable
// when none are named, without keeping a session.
func (s *NetworkService) Query(ctx context.Context, id uuid.UUID, variables []string, evidence map[string]string) (result *QueryResult, err error) {
	defer func(start time.Time) { observeInference("query", start, err) }(time.Now())

	net, err := s.Compiled(ctx, id)
	if err != nil {
		return nil, err
	}

	session, err := net.NewSession()
	if err != nil {
		return nil, err
	}
	for name, state := range evidence {
		if err := session.EnterEvidence(name, state); err != nil {
			return nil, err
		}
	}

	result = &QueryResult{NetworkID: id, Evidence: session.Evidence().Snapshot()}
	if len(variables) == 0 {
		result.Beliefs, err = session.Beliefs()
		if err != nil {
			return nil, err
		}
	} else {
		for _, name := range variables {
			b, err := session.Belief(name)
			if err != nil {
				return nil, err
			}
			result.Beliefs = append(result.Beliefs, b)
		}
	}
	result.EvidenceProbability, err = session.EvidenceProbability()
	if err != nil {
		return nil, err
	}

	s.logger.Debug("network queried",
		zap.String("network_id", id.String()),
		zap.Int("evidence", len(evidence)),
		zap.Int("variables", len(result.Beliefs)))

	return result, nil
}
