package bayesnet

// StateBelief is the probability of one state.
type StateBelief struct {
	State       string  `json:"state"`
	Probability float64 `json:"probability"`
}

// BeliefResult is the marginal distribution of one variable given the
// current evidence, in the variable's state order.
type BeliefResult struct {
	Variable string        `json:"variable"`
	Beliefs  []StateBelief `json:"beliefs"`
}

// Probability returns the belief in a single state.
func (b BeliefResult) Probability(state string) (float64, error) {
	for _, sb := range b.Beliefs {
		if sb.State == state {
			return sb.Probability, nil
		}
	}
	return 0, newError("belief", ErrInvalidState, b.Variable, "%q", state)
}

// MostLikely returns the state with the highest belief; the first wins a tie.
func (b BeliefResult) MostLikely() StateBelief {
	var best StateBelief
	for i, sb := range b.Beliefs {
		if i == 0 || sb.Probability > best.Probability {
			best = sb
		}
	}
	return best
}

// Sum is the total probability mass, 1 within rounding.
func (b BeliefResult) Sum() float64 {
	total := 0.0
	for _, sb := range b.Beliefs {
		total += sb.Probability
	}
	return total
}

func newBeliefResult(v *Variable, dist []float64) BeliefResult {
	out := BeliefResult{Variable: v.name, Beliefs: make([]StateBelief, len(dist))}
	for i, p := range dist {
		out.Beliefs[i] = StateBelief{State: v.states[i], Probability: p}
	}
	return out
}
