package bayesnet

// Session answers belief queries for one evidence scenario over a compiled
// network. Results are cached until the evidence changes. A Session is not
// safe for concurrent use; sessions over the same network are independent.
type Session struct {
	net      *Network
	evidence *Evidence

	version uint64
	beliefs map[int][]float64
	mass    float64
	hasMass bool
}

// NewSession opens a session with empty evidence.
func (n *Network) NewSession() (*Session, error) {
	return n.NewSessionWith(NewEvidence(n))
}

// NewSessionWith opens a session over existing evidence. The evidence must
// belong to n; later changes to it are picked up by the session.
func (n *Network) NewSessionWith(ev *Evidence) (*Session, error) {
	const op = "new session"
	if n.compiled == nil {
		return nil, newError(op, ErrNetworkNotCompiled, "", "network %q", n.name)
	}
	if ev == nil || ev.net != n {
		return nil, newError(op, ErrUnknownVariable, "", "evidence belongs to a different network")
	}
	return &Session{
		net:      n,
		evidence: ev,
		version:  ev.Version(),
		beliefs:  make(map[int][]float64),
	}, nil
}

func (s *Session) Network() *Network { return s.net }

func (s *Session) Evidence() *Evidence { return s.evidence }

func (s *Session) EnterEvidence(variable, state string) error {
	return s.evidence.Enter(variable, state)
}

func (s *Session) RetractEvidence(variable string) error {
	return s.evidence.Retract(variable)
}

func (s *Session) ClearEvidence() {
	s.evidence.Clear()
}

// Belief returns the marginal distribution of variable under the current
// evidence.
func (s *Session) Belief(variable string) (BeliefResult, error) {
	const op = "belief"
	v, err := s.net.lookup(op, variable)
	if err != nil {
		return BeliefResult{}, err
	}
	s.sync()
	dist, ok := s.beliefs[v.id]
	if !ok {
		var mass float64
		dist, mass, err = s.net.eliminate(op, v.id, s.evidence.observed)
		if err != nil {
			return BeliefResult{}, err
		}
		s.beliefs[v.id] = dist
		s.mass, s.hasMass = mass, true
	}
	return newBeliefResult(v, dist), nil
}

// BeliefOf returns the belief in one state of variable.
func (s *Session) BeliefOf(variable, state string) (float64, error) {
	b, err := s.Belief(variable)
	if err != nil {
		return 0, err
	}
	return b.Probability(state)
}

// Beliefs returns the belief of every variable in declaration order.
func (s *Session) Beliefs() ([]BeliefResult, error) {
	out := make([]BeliefResult, 0, len(s.net.variables))
	for _, v := range s.net.variables {
		b, err := s.Belief(v.name)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// EvidenceProbability returns the joint probability of the current
// observations, 1 when there are none.
func (s *Session) EvidenceProbability() (float64, error) {
	s.sync()
	if s.evidence.Len() == 0 {
		return 1, nil
	}
	if !s.hasMass {
		_, mass, err := s.net.eliminate("evidence probability", noTarget, s.evidence.observed)
		if err != nil {
			return 0, err
		}
		s.mass, s.hasMass = mass, true
	}
	return s.mass, nil
}

// sync drops cached results computed under older evidence.
func (s *Session) sync() {
	if s.version == s.evidence.Version() {
		return
	}
	s.version = s.evidence.Version()
	s.beliefs = make(map[int][]float64)
	s.hasMass = false
}
