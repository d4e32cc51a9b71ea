package bayesnet

// compiled is the immutable artifact Compile produces.
type compiled struct {
	order   []int     // elimination order over all variables
	factors []*factor // table factor per variable, indexed by variable id
}

// Compile validates the network and prepares it for inference. Afterwards
// the network rejects structural changes.
//
// Every variable needs a distribution for each of its parent
// configurations; the first gap found is reported as ErrIncompleteNetwork
// wrapping ErrMissingParentConfiguration.
func (n *Network) Compile() error {
	const op = "compile"
	if err := n.mutable(op); err != nil {
		return err
	}
	if len(n.variables) == 0 {
		return newError(op, ErrIncompleteNetwork, "", "network %q has no variables", n.name)
	}
	if _, ok := n.topologicalOrder(); !ok {
		return newError(op, ErrCyclicGraph, "", "network %q", n.name)
	}
	for _, v := range n.variables {
		for idx, row := range n.tables[v.id].rows {
			if row == nil {
				return &Error{
					Op:       op,
					Kind:     ErrIncompleteNetwork,
					Variable: v.name,
					Detail:   "no distribution for " + n.describeConfig(v.id, idx),
					Err:      ErrMissingParentConfiguration,
				}
			}
		}
	}

	c := &compiled{
		order:   n.minDegreeOrder(),
		factors: make([]*factor, len(n.variables)),
	}
	for _, v := range n.variables {
		c.factors[v.id] = n.tableFactor(v)
	}
	n.compiled = c
	n.lifecycle = Compiled
	return nil
}

// tableFactor lays a variable's table out as a factor over (parents..., v).
func (n *Network) tableFactor(v *Variable) *factor {
	t := n.tables[v.id]
	vars := append(append([]int(nil), n.parents[v.id]...), v.id)
	cards := append(append([]int(nil), t.radix...), v.NumStates())
	f := newFactor(vars, cards)
	k := v.NumStates()
	for idx, row := range t.rows {
		copy(f.values[idx*k:(idx+1)*k], row)
	}
	return f
}

// minDegreeOrder greedily eliminates the variable with the fewest
// neighbours in the moral graph, breaking ties by declaration order, and
// connects the neighbours of each eliminated variable.
func (n *Network) minDegreeOrder() []int {
	adj := make([]map[int]bool, len(n.variables))
	for id := range adj {
		adj[id] = make(map[int]bool)
	}
	link := func(a, b int) {
		if a != b {
			adj[a][b] = true
			adj[b][a] = true
		}
	}
	for id, parents := range n.parents {
		for i, p := range parents {
			link(id, p)
			for _, q := range parents[i+1:] {
				link(p, q)
			}
		}
	}

	eliminated := make([]bool, len(n.variables))
	order := make([]int, 0, len(n.variables))
	for len(order) < len(n.variables) {
		best := -1
		for id := range n.variables {
			if eliminated[id] {
				continue
			}
			if best < 0 || len(adj[id]) < len(adj[best]) {
				best = id
			}
		}
		neighbours := make([]int, 0, len(adj[best]))
		for nb := range adj[best] {
			neighbours = append(neighbours, nb)
		}
		for i, a := range neighbours {
			delete(adj[a], best)
			for _, b := range neighbours[i+1:] {
				link(a, b)
			}
		}
		eliminated[best] = true
		order = append(order, best)
	}
	return order
}
