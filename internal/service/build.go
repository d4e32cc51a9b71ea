package service

import (
	"fmt"
	"sort"

	"github.com/joeschweitzer/bayesian/internal/bayesnet"
	"github.com/joeschweitzer/bayesian/internal/domain"
)

// BuildNetwork turns a definition into a compiled network.
func BuildNetwork(name string, def domain.NetworkDefinition) (*bayesnet.Network, error) {
	net := bayesnet.New(name)

	for _, v := range def.Variables {
		if _, err := net.DefineVariable(v.Name, v.States...); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
		}
	}
	for _, a := range def.Arcs {
		if err := net.AddArc(a.Parent, a.Child); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
		}
	}
	for i, t := range def.Tables {
		if err := net.SetCPT(t.Variable, parentStates(t.Given), t.Distribution); err != nil {
			return nil, fmt.Errorf("%w: table %d: %w", ErrInvalidDefinition, i, err)
		}
	}
	if err := net.Compile(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}
	return net, nil
}

// parentStates orders a Given map by parent name so errors are stable.
func parentStates(given map[string]string) []bayesnet.ParentState {
	if len(given) == 0 {
		return nil
	}
	out := make([]bayesnet.ParentState, 0, len(given))
	for parent, state := range given {
		out = append(out, bayesnet.ParentState{Parent: parent, State: state})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Parent < out[j].Parent })
	return out
}
