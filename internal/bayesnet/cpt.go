package bayesnet

import (
	"math"
	"strings"
)

// DistributionTolerance bounds how far a distribution may sum from 1.
const DistributionTolerance = 1e-6

// ParentState selects one state of one parent.
type ParentState struct {
	Parent string
	State  string
}

// cpt holds one distribution per parent configuration. Configurations are
// flattened with a mixed-radix encoding over the parents' state counts in
// canonical order.
type cpt struct {
	radix []int
	rows  [][]float64 // nil until set
}

func newCPT(radix []int) *cpt {
	return &cpt{radix: radix, rows: make([][]float64, configurations(radix))}
}

// MaxTableEntries caps the probabilities one table may hold: parent
// configurations times the variable's own states.
const MaxTableEntries = 1 << 20

// configurations returns the number of configurations over radix, or -1 if
// the count overflows int.
func configurations(radix []int) int {
	size := 1
	for _, r := range radix {
		if r > 0 && size > math.MaxInt/r {
			return -1
		}
		size *= r
	}
	return size
}

// encodeConfig maps state indices (i1..ik) over state counts (n1..nk) to
// i1*n2*...*nk + i2*n3*...*nk + ... + ik.
func encodeConfig(radix, states []int) int {
	idx := 0
	for i, s := range states {
		idx = idx*radix[i] + s
	}
	return idx
}

// decodeConfig is the inverse of encodeConfig.
func decodeConfig(radix []int, idx int) []int {
	states := make([]int, len(radix))
	for i := len(radix) - 1; i >= 0; i-- {
		states[i] = idx % radix[i]
		idx /= radix[i]
	}
	return states
}

// SetCPT sets the distribution of variable for one configuration of its
// parents. The assignment must name every parent exactly once, in any order.
// A variable without parents takes a nil assignment. A failed call changes
// nothing.
func (n *Network) SetCPT(variable string, assignment []ParentState, distribution []float64) error {
	const op = "set cpt"
	if err := n.mutable(op); err != nil {
		return err
	}
	v, err := n.lookup(op, variable)
	if err != nil {
		return err
	}
	if err := validateDistribution(op, v, distribution); err != nil {
		return err
	}
	idx, err := n.configIndex(op, v, assignment)
	if err != nil {
		return err
	}
	row := make([]float64, len(distribution))
	copy(row, distribution)
	n.tables[v.id].rows[idx] = row
	return nil
}

// SetPrior sets the distribution of a variable that has no parents.
func (n *Network) SetPrior(variable string, distribution ...float64) error {
	return n.SetCPT(variable, nil, distribution)
}

// Distribution returns a copy of the distribution stored for one parent
// configuration of variable.
func (n *Network) Distribution(variable string, assignment []ParentState) ([]float64, error) {
	const op = "distribution"
	v, err := n.lookup(op, variable)
	if err != nil {
		return nil, err
	}
	idx, err := n.configIndex(op, v, assignment)
	if err != nil {
		return nil, err
	}
	row := n.tables[v.id].rows[idx]
	if row == nil {
		return nil, newError(op, ErrMissingParentConfiguration, variable, "%s", n.describeConfig(v.id, idx))
	}
	out := make([]float64, len(row))
	copy(out, row)
	return out, nil
}

func (n *Network) configIndex(op string, v *Variable, assignment []ParentState) (int, error) {
	parents := n.parents[v.id]
	states := make([]int, len(parents))
	for i := range states {
		states[i] = -1
	}
	for _, ps := range assignment {
		p, err := n.lookup(op, ps.Parent)
		if err != nil {
			return 0, err
		}
		pos := -1
		for i, id := range parents {
			if id == p.id {
				pos = i
				break
			}
		}
		if pos < 0 {
			return 0, &Error{Op: op, Kind: ErrInvalidParentAssignment, Variable: v.name,
				Detail: ps.Parent + " is not a parent"}
		}
		if states[pos] >= 0 {
			return 0, &Error{Op: op, Kind: ErrInvalidParentAssignment, Variable: v.name,
				Detail: ps.Parent + " assigned twice"}
		}
		s, err := p.state(op, ps.State)
		if err != nil {
			return 0, err
		}
		states[pos] = s
	}
	for i, s := range states {
		if s < 0 {
			return 0, &Error{Op: op, Kind: ErrInvalidParentAssignment, Variable: v.name,
				Detail: "no state given for parent " + n.variables[parents[i]].name}
		}
	}
	return encodeConfig(n.tables[v.id].radix, states), nil
}

func (n *Network) describeConfig(id, idx int) string {
	parents := n.parents[id]
	if len(parents) == 0 {
		return "prior"
	}
	states := decodeConfig(n.tables[id].radix, idx)
	parts := make([]string, len(parents))
	for i, p := range parents {
		pv := n.variables[p]
		parts[i] = pv.name + "=" + pv.states[states[i]]
	}
	return strings.Join(parts, ", ")
}

func validateDistribution(op string, v *Variable, distribution []float64) error {
	if len(distribution) != v.NumStates() {
		return newError(op, ErrInvalidDistribution, v.name,
			"got %d probabilities for %d states", len(distribution), v.NumStates())
	}
	sum := 0.0
	for i, p := range distribution {
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
			return newError(op, ErrInvalidDistribution, v.name, "probability %v for state %q", p, v.states[i])
		}
		sum += p
	}
	if math.Abs(sum-1) > DistributionTolerance {
		return newError(op, ErrInvalidDistribution, v.name, "probabilities sum to %v", sum)
	}
	return nil
}
