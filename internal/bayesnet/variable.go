package bayesnet

// Variable is a discrete random variable with an ordered, finite set of
// states. Handles stay valid for the lifetime of the Network that defined
// them.
type Variable struct {
	id     int
	name   string
	states []string
	index  map[string]int
}

// ID is the variable's declaration position within its network.
func (v *Variable) ID() int { return v.id }

func (v *Variable) Name() string { return v.name }

// States returns a copy of the variable's state labels in declaration order.
func (v *Variable) States() []string {
	out := make([]string, len(v.states))
	copy(out, v.states)
	return out
}

func (v *Variable) NumStates() int { return len(v.states) }

// StateIndex returns the position of state in the variable's domain.
func (v *Variable) StateIndex(state string) (int, bool) {
	i, ok := v.index[state]
	return i, ok
}

func (v *Variable) state(op, state string) (int, error) {
	i, ok := v.index[state]
	if !ok {
		return 0, newError(op, ErrInvalidState, v.name, "%q is not one of %v", state, v.states)
	}
	return i, nil
}

func newVariable(id int, name string, states []string) (*Variable, error) {
	if name == "" {
		return nil, newError("define variable", ErrInvalidDomain, name, "name is required")
	}
	if len(states) < 2 {
		return nil, newError("define variable", ErrInvalidDomain, name, "need at least 2 states, got %d", len(states))
	}
	index := make(map[string]int, len(states))
	for i, s := range states {
		if s == "" {
			return nil, newError("define variable", ErrInvalidDomain, name, "state %d has an empty label", i)
		}
		if _, dup := index[s]; dup {
			return nil, newError("define variable", ErrInvalidDomain, name, "state %q listed twice", s)
		}
		index[s] = i
	}
	v := &Variable{id: id, name: name, index: index}
	v.states = make([]string, len(states))
	copy(v.states, states)
	return v, nil
}
