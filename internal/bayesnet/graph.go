package bayesnet

// AddArc connects parent -> child. The child's parent order, and so the
// layout of its table, follows the order arcs are added. Adding an arc
// discards any distributions already set for the child. An arc that would
// grow the child's table past MaxTableEntries is rejected.
func (n *Network) AddArc(parent, child string) error {
	const op = "add arc"
	if err := n.mutable(op); err != nil {
		return err
	}
	p, err := n.lookup(op, parent)
	if err != nil {
		return err
	}
	c, err := n.lookup(op, child)
	if err != nil {
		return err
	}
	for _, existing := range n.parents[c.id] {
		if existing == p.id {
			return newError(op, ErrDuplicateArc, "", "%s -> %s", parent, child)
		}
	}
	if p.id == c.id || n.reachable(c.id, p.id) {
		return newError(op, ErrCyclicGraph, "", "%s -> %s", parent, child)
	}

	radix := append(n.radix(n.parents[c.id]), p.NumStates())
	if rows := configurations(radix); rows < 0 || rows > MaxTableEntries/c.NumStates() {
		return newError(op, ErrTableTooLarge, child, "%d parents exceed %d table entries", len(radix), MaxTableEntries)
	}

	n.parents[c.id] = append(n.parents[c.id], p.id)
	n.children[p.id] = append(n.children[p.id], c.id)
	n.tables[c.id] = newCPT(radix)
	return nil
}

// reachable reports whether to can be reached from from along arcs.
func (n *Network) reachable(from, to int) bool {
	seen := make([]bool, len(n.variables))
	stack := []int{from}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if v == to {
			return true
		}
		if seen[v] {
			continue
		}
		seen[v] = true
		stack = append(stack, n.children[v]...)
	}
	return false
}

// topologicalOrder returns the variables parents-first, or false if the arcs
// contain a cycle.
func (n *Network) topologicalOrder() ([]int, bool) {
	indegree := make([]int, len(n.variables))
	for id := range n.variables {
		indegree[id] = len(n.parents[id])
	}
	var queue, order []int
	for id, d := range indegree {
		if d == 0 {
			queue = append(queue, id)
		}
	}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		order = append(order, v)
		for _, c := range n.children[v] {
			indegree[c]--
			if indegree[c] == 0 {
				queue = append(queue, c)
			}
		}
	}
	return order, len(order) == len(n.variables)
}

// ancestors marks the given variables and every variable with a directed
// path into one of them.
func (n *Network) ancestors(ids []int) []bool {
	marked := make([]bool, len(n.variables))
	stack := append([]int(nil), ids...)
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if marked[v] {
			continue
		}
		marked[v] = true
		stack = append(stack, n.parents[v]...)
	}
	return marked
}
