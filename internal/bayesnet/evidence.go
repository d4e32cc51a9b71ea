package bayesnet

import (
	"sort"
	"strings"
)

// Evidence is one scenario of observed states over a network. Each variable
// is observed at most once. Evidence is not safe for concurrent mutation.
type Evidence struct {
	net      *Network
	observed map[int]int
	version  uint64
}

func NewEvidence(n *Network) *Evidence {
	return &Evidence{net: n, observed: make(map[int]int)}
}

// Enter observes variable in state, replacing any earlier observation.
func (e *Evidence) Enter(variable, state string) error {
	const op = "enter evidence"
	v, err := e.net.lookup(op, variable)
	if err != nil {
		return err
	}
	s, err := v.state(op, state)
	if err != nil {
		return err
	}
	if prev, ok := e.observed[v.id]; ok && prev == s {
		return nil
	}
	e.observed[v.id] = s
	e.version++
	return nil
}

// Retract removes the observation of variable if there is one.
func (e *Evidence) Retract(variable string) error {
	v, err := e.net.lookup("retract evidence", variable)
	if err != nil {
		return err
	}
	if _, ok := e.observed[v.id]; ok {
		delete(e.observed, v.id)
		e.version++
	}
	return nil
}

// Clear removes every observation.
func (e *Evidence) Clear() {
	if len(e.observed) == 0 {
		return
	}
	e.observed = make(map[int]int)
	e.version++
}

// Observed returns the observed state of variable, if any.
func (e *Evidence) Observed(variable string) (string, bool) {
	v, ok := e.net.byName[variable]
	if !ok {
		return "", false
	}
	s, ok := e.observed[v.id]
	if !ok {
		return "", false
	}
	return v.states[s], true
}

func (e *Evidence) Len() int { return len(e.observed) }

// Version changes whenever the set of observations changes.
func (e *Evidence) Version() uint64 { return e.version }

// Snapshot returns the observations as variable -> state.
func (e *Evidence) Snapshot() map[string]string {
	out := make(map[string]string, len(e.observed))
	for id, s := range e.observed {
		v := e.net.variables[id]
		out[v.name] = v.states[s]
	}
	return out
}

func (e *Evidence) String() string {
	snap := e.Snapshot()
	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + snap[k]
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
