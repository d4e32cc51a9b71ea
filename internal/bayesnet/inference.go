package bayesnet

import (
	"math"
)

// BeliefTolerance bounds how far a reported probability may stray outside
// [0, 1].
const BeliefTolerance = 1e-9

// noTarget asks eliminate for the evidence mass only.
const noTarget = -1

// eliminate runs variable elimination for target under the observations in
// evidence (variable id -> state index). It returns the normalized
// distribution of target (nil for noTarget) and the probability of the
// evidence.
func (n *Network) eliminate(op string, target int, evidence map[int]int) ([]float64, float64, error) {
	c := n.compiled
	if c == nil {
		return nil, 0, newError(op, ErrNetworkNotCompiled, "", "network %q", n.name)
	}

	if target != noTarget {
		if s, observed := evidence[target]; observed {
			_, mass, err := n.eliminate(op, noTarget, evidence)
			if err != nil {
				return nil, 0, err
			}
			dist := make([]float64, n.variables[target].NumStates())
			dist[s] = 1
			return dist, mass, nil
		}
	}

	// Variables outside the ancestral set of the query and evidence sum
	// out to 1 and never change the result.
	roots := make([]int, 0, len(evidence)+1)
	for id := range evidence {
		roots = append(roots, id)
	}
	if target != noTarget {
		roots = append(roots, target)
	}
	relevant := n.ancestors(roots)

	var pool []*factor
	for id, f := range c.factors {
		if !relevant[id] {
			continue
		}
		for _, v := range f.vars {
			if s, ok := evidence[v]; ok {
				f = f.reduce(v, s)
			}
		}
		pool = append(pool, f)
	}

	for _, v := range c.order {
		if !relevant[v] || v == target {
			continue
		}
		if _, observed := evidence[v]; observed {
			continue
		}
		var touching, rest []*factor
		for _, f := range pool {
			if f.mentions(v) {
				touching = append(touching, f)
			} else {
				rest = append(rest, f)
			}
		}
		if len(touching) == 0 {
			continue
		}
		pool = append(rest, productAll(touching).marginalize(v))
	}

	joint := productAll(pool)
	mass := joint.sum()
	if mass <= 0 || math.IsNaN(mass) {
		return nil, 0, newError(op, ErrZeroProbabilityEvidence, "", "")
	}
	if target == noTarget {
		return nil, mass, nil
	}

	dist := make([]float64, len(joint.values))
	for i, x := range joint.values {
		p := x / mass
		if p < -BeliefTolerance || p > 1+BeliefTolerance || math.IsNaN(p) {
			return nil, 0, newError(op, ErrNumerical, n.variables[target].name, "probability %v out of range", p)
		}
		dist[i] = math.Min(math.Max(p, 0), 1)
	}
	return dist, mass, nil
}

// Query computes the belief of target under the given observations without
// keeping any state. The network must be compiled.
func (n *Network) Query(target string, evidence map[string]string) (BeliefResult, error) {
	const op = "query"
	v, err := n.lookup(op, target)
	if err != nil {
		return BeliefResult{}, err
	}
	ev := NewEvidence(n)
	for name, state := range evidence {
		if err := ev.Enter(name, state); err != nil {
			return BeliefResult{}, err
		}
	}
	dist, _, err := n.eliminate(op, v.id, ev.observed)
	if err != nil {
		return BeliefResult{}, err
	}
	return newBeliefResult(v, dist), nil
}
