package bayesnet

// factor maps every joint assignment over vars to a non-negative value.
// Values use the same mixed-radix layout as tables: the last variable
// varies fastest.
type factor struct {
	vars   []int
	cards  []int
	values []float64
}

func newFactor(vars, cards []int) *factor {
	return &factor{vars: vars, cards: cards, values: make([]float64, configurations(cards))}
}

// unit is the empty product.
func unit() *factor {
	return &factor{values: []float64{1}}
}

func (f *factor) position(v int) int {
	for i, id := range f.vars {
		if id == v {
			return i
		}
	}
	return -1
}

func (f *factor) mentions(v int) bool {
	return f.position(v) >= 0
}

func (f *factor) strides() []int {
	s := make([]int, len(f.vars))
	step := 1
	for i := len(f.vars) - 1; i >= 0; i-- {
		s[i] = step
		step *= f.cards[i]
	}
	return s
}

// stridesOver returns f's stride for each of vars, 0 where f does not
// mention the variable.
func (f *factor) stridesOver(vars []int) []int {
	own := f.strides()
	out := make([]int, len(vars))
	for i, v := range vars {
		if p := f.position(v); p >= 0 {
			out[i] = own[p]
		}
	}
	return out
}

func (f *factor) sum() float64 {
	total := 0.0
	for _, x := range f.values {
		total += x
	}
	return total
}

// walk visits every assignment over cards in layout order. offsets[k] tracks
// the flat index into the k-th factor described by strides[k].
func walk(cards []int, strides [][]int, offsets []int, visit func(i int)) {
	assignment := make([]int, len(cards))
	total := configurations(cards)
	for i := 0; i < total; i++ {
		visit(i)
		for d := len(cards) - 1; d >= 0; d-- {
			assignment[d]++
			for k := range strides {
				offsets[k] += strides[k][d]
			}
			if assignment[d] < cards[d] {
				break
			}
			for k := range strides {
				offsets[k] -= strides[k][d] * cards[d]
			}
			assignment[d] = 0
		}
	}
}

// without returns f's variables and cardinalities minus v.
func (f *factor) without(v int) ([]int, []int) {
	vars := make([]int, 0, len(f.vars))
	cards := make([]int, 0, len(f.vars))
	for i, id := range f.vars {
		if id != v {
			vars = append(vars, id)
			cards = append(cards, f.cards[i])
		}
	}
	return vars, cards
}

// reduce fixes v to state and drops the dimension.
func (f *factor) reduce(v, state int) *factor {
	p := f.position(v)
	if p < 0 {
		return f
	}
	vars, cards := f.without(v)
	out := newFactor(vars, cards)
	offsets := []int{state * f.strides()[p]}
	walk(cards, [][]int{f.stridesOver(vars)}, offsets, func(i int) {
		out.values[i] = f.values[offsets[0]]
	})
	return out
}

// marginalize sums v out of f.
func (f *factor) marginalize(v int) *factor {
	p := f.position(v)
	if p < 0 {
		return f
	}
	vars, cards := f.without(v)
	out := newFactor(vars, cards)
	step := f.strides()[p]
	offsets := []int{0}
	walk(cards, [][]int{f.stridesOver(vars)}, offsets, func(i int) {
		total := 0.0
		for s := 0; s < f.cards[p]; s++ {
			total += f.values[offsets[0]+s*step]
		}
		out.values[i] = total
	})
	return out
}

// product multiplies two factors over the union of their variables.
func product(a, b *factor) *factor {
	vars := append([]int(nil), a.vars...)
	cards := append([]int(nil), a.cards...)
	for i, v := range b.vars {
		if !a.mentions(v) {
			vars = append(vars, v)
			cards = append(cards, b.cards[i])
		}
	}
	out := newFactor(vars, cards)
	offsets := []int{0, 0}
	walk(cards, [][]int{a.stridesOver(vars), b.stridesOver(vars)}, offsets, func(i int) {
		out.values[i] = a.values[offsets[0]] * b.values[offsets[1]]
	})
	return out
}

func productAll(fs []*factor) *factor {
	out := unit()
	for _, f := range fs {
		out = product(out, f)
	}
	return out
}
