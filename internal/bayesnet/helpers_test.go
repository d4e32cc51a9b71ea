package bayesnet

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func given(pairs ...string) []ParentState {
	out := make([]ParentState, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, ParentState{Parent: pairs[i], State: pairs[i+1]})
	}
	return out
}

// dogProblem builds the family-out / dog-out network, uncompiled.
func dogProblem(t *testing.T) *Network {
	t.Helper()
	n := New("dog-problem")

	for _, def := range [][]string{
		{"hearBark", "hearBark", "quiet"},
		{"dogOut", "dogOut", "dogIn"},
		{"bowelProblem", "bowelProblem", "noBowelProblem"},
		{"familyOut", "familyOut", "familyIn"},
		{"lightOn", "lightOn", "lightOff"},
	} {
		_, err := n.DefineVariable(def[0], def[1:]...)
		require.NoError(t, err)
	}

	require.NoError(t, n.AddArc("familyOut", "lightOn"))
	require.NoError(t, n.AddArc("familyOut", "dogOut"))
	require.NoError(t, n.AddArc("bowelProblem", "dogOut"))
	require.NoError(t, n.AddArc("dogOut", "hearBark"))

	require.NoError(t, n.SetCPT("hearBark", given("dogOut", "dogOut"), []float64{.70, .30}))
	require.NoError(t, n.SetCPT("hearBark", given("dogOut", "dogIn"), []float64{.01, .99}))

	require.NoError(t, n.SetCPT("dogOut", given("familyOut", "familyOut", "bowelProblem", "bowelProblem"), []float64{.99, .01}))
	require.NoError(t, n.SetCPT("dogOut", given("familyOut", "familyOut", "bowelProblem", "noBowelProblem"), []float64{.90, .10}))
	require.NoError(t, n.SetCPT("dogOut", given("familyOut", "familyIn", "bowelProblem", "bowelProblem"), []float64{.97, .03}))
	require.NoError(t, n.SetCPT("dogOut", given("familyOut", "familyIn", "bowelProblem", "noBowelProblem"), []float64{.30, .70}))

	require.NoError(t, n.SetCPT("lightOn", given("familyOut", "familyOut"), []float64{.60, .40}))
	require.NoError(t, n.SetCPT("lightOn", given("familyOut", "familyIn"), []float64{.05, .95}))

	require.NoError(t, n.SetPrior("familyOut", .15, .85))
	require.NoError(t, n.SetPrior("bowelProblem", .01, .99))
	return n
}

func compiledDogProblem(t *testing.T) *Network {
	t.Helper()
	n := dogProblem(t)
	require.NoError(t, n.Compile())
	return n
}

// randomNetwork builds a compiled network whose arcs only run from lower to
// higher declaration index.
func randomNetwork(t *testing.T, rng *rand.Rand, size int) *Network {
	t.Helper()
	n := New("random")
	for i := 0; i < size; i++ {
		states := make([]string, 2+rng.Intn(2))
		for s := range states {
			states[s] = string(rune('a' + s))
		}
		_, err := n.DefineVariable(string(rune('A'+i)), states...)
		require.NoError(t, err)
	}
	for child := 1; child < size; child++ {
		for parent := 0; parent < child; parent++ {
			if len(n.parents[child]) < 3 && rng.Float64() < 0.4 {
				require.NoError(t, n.AddArc(n.variables[parent].name, n.variables[child].name))
			}
		}
	}
	for _, v := range n.variables {
		table := n.tables[v.id]
		for idx := range table.rows {
			row := make([]float64, v.NumStates())
			sum := 0.0
			for s := range row {
				row[s] = 0.05 + rng.Float64()
				sum += row[s]
			}
			for s := range row {
				row[s] /= sum
			}
			table.rows[idx] = row
		}
	}
	require.NoError(t, n.Compile())
	return n
}

// enumerate computes the posterior of target by summing the full joint.
func enumerate(n *Network, target int, evidence map[int]int) []float64 {
	cards := n.radix(idsOf(n))
	dist := make([]float64, n.variables[target].NumStates())
	for idx := 0; idx < configurations(cards); idx++ {
		assignment := decodeConfig(cards, idx)
		consistent := true
		for id, s := range evidence {
			if assignment[id] != s {
				consistent = false
				break
			}
		}
		if !consistent {
			continue
		}
		p := 1.0
		for _, v := range n.variables {
			parents := n.parents[v.id]
			states := make([]int, len(parents))
			for i, pid := range parents {
				states[i] = assignment[pid]
			}
			p *= n.tables[v.id].rows[encodeConfig(n.tables[v.id].radix, states)][assignment[v.id]]
		}
		dist[assignment[target]] += p
	}
	total := 0.0
	for _, p := range dist {
		total += p
	}
	for i := range dist {
		dist[i] /= total
	}
	return dist
}

func idsOf(n *Network) []int {
	ids := make([]int, len(n.variables))
	for i := range ids {
		ids[i] = i
	}
	return ids
}
