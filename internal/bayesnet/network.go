// Package bayesnet implements discrete Bayesian networks with exact inference.
//
// A Network is built in three steps: define variables, connect them with
// arcs (parent -> child), and fill each variable's conditional probability
// table. Compile validates the result and fixes an elimination order; after
// that the network is read-only and may be shared between goroutines.
//
// Beliefs are computed per Session. A Session owns one Evidence scenario and
// a belief cache, and must not be used from more than one goroutine at a
// time. Open one Session per scenario over the same compiled Network.
//
//	net := bayesnet.New("demo")
//	net.DefineVariable("rain", "yes", "no")
//	net.DefineVariable("wet", "yes", "no")
//	net.AddArc("rain", "wet")
//	net.SetPrior("rain", 0.2, 0.8)
//	net.SetCPT("wet", []bayesnet.ParentState{{"rain", "yes"}}, []float64{0.9, 0.1})
//	net.SetCPT("wet", []bayesnet.ParentState{{"rain", "no"}}, []float64{0.1, 0.9})
//	net.Compile()
//
//	s, _ := net.NewSession()
//	s.EnterEvidence("wet", "yes")
//	p, _ := s.BeliefOf("rain", "yes")
package bayesnet

// Lifecycle is the build state of a Network.
type Lifecycle int

const (
	Building Lifecycle = iota
	Compiled
)

func (l Lifecycle) String() string {
	switch l {
	case Building:
		return "building"
	case Compiled:
		return "compiled"
	}
	return "unknown"
}

// Network owns a set of variables, the arcs between them and their
// conditional probability tables.
type Network struct {
	name      string
	variables []*Variable
	byName    map[string]*Variable
	parents   [][]int // canonical parent order per variable: arc insertion order
	children  [][]int
	tables    []*cpt
	lifecycle Lifecycle
	compiled  *compiled
}

func New(name string) *Network {
	return &Network{
		name:   name,
		byName: make(map[string]*Variable),
	}
}

func (n *Network) Name() string { return n.name }

func (n *Network) Lifecycle() Lifecycle { return n.lifecycle }

// DefineVariable adds a variable with the given ordered states.
func (n *Network) DefineVariable(name string, states ...string) (*Variable, error) {
	if err := n.mutable("define variable"); err != nil {
		return nil, err
	}
	if _, exists := n.byName[name]; exists {
		return nil, newError("define variable", ErrDuplicateVariable, name, "")
	}
	v, err := newVariable(len(n.variables), name, states)
	if err != nil {
		return nil, err
	}
	n.variables = append(n.variables, v)
	n.byName[name] = v
	n.parents = append(n.parents, nil)
	n.children = append(n.children, nil)
	n.tables = append(n.tables, newCPT(nil))
	return v, nil
}

// Variable looks a variable up by name.
func (n *Network) Variable(name string) (*Variable, error) {
	return n.lookup("lookup", name)
}

// Variables returns every variable in declaration order.
func (n *Network) Variables() []*Variable {
	out := make([]*Variable, len(n.variables))
	copy(out, n.variables)
	return out
}

// Parents returns the names of a variable's parents in canonical order.
func (n *Network) Parents(name string) ([]string, error) {
	v, err := n.lookup("parents", name)
	if err != nil {
		return nil, err
	}
	return n.names(n.parents[v.id]), nil
}

// Children returns the names of a variable's children in arc insertion order.
func (n *Network) Children(name string) ([]string, error) {
	v, err := n.lookup("children", name)
	if err != nil {
		return nil, err
	}
	return n.names(n.children[v.id]), nil
}

// EliminationOrder returns the compiled elimination order, or nil before
// Compile.
func (n *Network) EliminationOrder() []string {
	if n.compiled == nil {
		return nil
	}
	return n.names(n.compiled.order)
}

func (n *Network) names(ids []int) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = n.variables[id].name
	}
	return out
}

func (n *Network) lookup(op, name string) (*Variable, error) {
	v, ok := n.byName[name]
	if !ok {
		return nil, newError(op, ErrUnknownVariable, name, "")
	}
	return v, nil
}

func (n *Network) mutable(op string) error {
	if n.lifecycle == Compiled {
		return newError(op, ErrNetworkAlreadyCompiled, "", "network %q", n.name)
	}
	return nil
}

func (n *Network) radix(ids []int) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = n.variables[id].NumStates()
	}
	return out
}
