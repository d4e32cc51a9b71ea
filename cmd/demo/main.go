// Command demo builds a Bayesian network, enters evidence and prints the
// resulting beliefs.
//
//	go run ./cmd/demo
//	go run ./cmd/demo --evidence hearBark=quiet --query familyOut
//	go run ./cmd/demo --file network.yaml --query rain --evidence grassWet=wet
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joeschweitzer/bayesian/internal/bayesnet"
	"github.com/joeschweitzer/bayesian/internal/domain"
	"github.com/joeschweitzer/bayesian/internal/samples"
	"github.com/joeschweitzer/bayesian/internal/service"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	file       string
	evidence   []string
	noEvidence bool
	query      []string
}

type observation struct {
	variable string
	state    string
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Query a discrete Bayesian network from the command line",
		Long: `demo compiles a Bayesian network, reports prior beliefs for the query
variables, then enters the given evidence and reports the posteriors.
Without --file it uses the family-out dog problem, observing a bark and no
bowel problem unless --evidence or --no-evidence says otherwise.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "JSON or YAML network definition to load instead of the dog problem")
	cmd.Flags().StringArrayVarP(&opts.evidence, "evidence", "e", nil, "observation as variable=state (repeatable)")
	cmd.Flags().BoolVar(&opts.noEvidence, "no-evidence", false, "report prior beliefs only")
	cmd.Flags().StringSliceVarP(&opts.query, "query", "q", nil, "variables to report (default all)")

	return cmd
}

func run(out io.Writer, opts options) error {
	net, err := loadNetwork(opts.file)
	if err != nil {
		return err
	}
	evidence, err := parseEvidence(opts.evidence)
	if err != nil {
		return err
	}
	switch {
	case opts.noEvidence:
		evidence = nil
	case len(evidence) == 0 && opts.file == "":
		evidence = sortedObservations(samples.DogProblemEvidence())
	}

	query := opts.query
	if len(query) == 0 {
		for _, v := range net.Variables() {
			query = append(query, v.Name())
		}
	}

	fmt.Fprintf(out, "network %s: %d variables, elimination order %s\n",
		net.Name(), len(net.Variables()), strings.Join(net.EliminationOrder(), " -> "))

	session, err := net.NewSession()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "\nprior beliefs")
	if err := report(out, session, query); err != nil {
		return err
	}
	if len(evidence) == 0 {
		return nil
	}

	for _, obs := range evidence {
		if err := session.EnterEvidence(obs.variable, obs.state); err != nil {
			return err
		}
	}
	mass, err := session.EvidenceProbability()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\ngiven %s (P = %.6f)\n", session.Evidence(), mass)
	return report(out, session, query)
}

func report(out io.Writer, session *bayesnet.Session, query []string) error {
	for _, name := range query {
		b, err := session.Belief(name)
		if err != nil {
			return err
		}
		parts := make([]string, len(b.Beliefs))
		for i, sb := range b.Beliefs {
			parts[i] = fmt.Sprintf("%s=%.6f", sb.State, sb.Probability)
		}
		fmt.Fprintf(out, "  %-14s %s\n", name, strings.Join(parts, "  "))
	}
	return nil
}

// parseEvidence reads variable=state pairs in the order given.
func parseEvidence(raw []string) ([]observation, error) {
	out := make([]observation, 0, len(raw))
	for _, kv := range raw {
		name, state, ok := strings.Cut(kv, "=")
		if !ok || name == "" || state == "" {
			return nil, fmt.Errorf("evidence %q: want variable=state", kv)
		}
		out = append(out, observation{variable: name, state: state})
	}
	return out, nil
}

func sortedObservations(evidence map[string]string) []observation {
	out := make([]observation, 0, len(evidence))
	for name, state := range evidence {
		out = append(out, observation{variable: name, state: state})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].variable < out[j].variable })
	return out
}

func loadNetwork(path string) (*bayesnet.Network, error) {
	if path == "" {
		return dogProblem()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	def, err := domain.ParseDefinition(data, domain.FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return service.BuildNetwork(name, def)
}

// dogProblem builds the family-out network directly against the network API.
func dogProblem() (*bayesnet.Network, error) {
	net := bayesnet.New("dog-problem")

	for _, v := range []struct {
		name   string
		states []string
	}{
		{"hearBark", []string{"hearBark", "quiet"}},
		{"dogOut", []string{"dogOut", "dogIn"}},
		{"bowelProblem", []string{"bowelProblem", "noBowelProblem"}},
		{"familyOut", []string{"familyOut", "familyIn"}},
		{"lightOn", []string{"lightOn", "lightOff"}},
	} {
		if _, err := net.DefineVariable(v.name, v.states...); err != nil {
			return nil, err
		}
	}

	for _, arc := range [][2]string{
		{"familyOut", "lightOn"},
		{"familyOut", "dogOut"},
		{"bowelProblem", "dogOut"},
		{"dogOut", "hearBark"},
	} {
		if err := net.AddArc(arc[0], arc[1]); err != nil {
			return nil, err
		}
	}

	given := func(pairs ...string) []bayesnet.ParentState {
		out := make([]bayesnet.ParentState, 0, len(pairs)/2)
		for i := 0; i+1 < len(pairs); i += 2 {
			out = append(out, bayesnet.ParentState{Parent: pairs[i], State: pairs[i+1]})
		}
		return out
	}

	rows := []struct {
		variable string
		given    []bayesnet.ParentState
		dist     []float64
	}{
		{"hearBark", given("dogOut", "dogOut"), []float64{.70, .30}},
		{"hearBark", given("dogOut", "dogIn"), []float64{.01, .99}},
		{"dogOut", given("familyOut", "familyOut", "bowelProblem", "bowelProblem"), []float64{.99, .01}},
		{"dogOut", given("familyOut", "familyOut", "bowelProblem", "noBowelProblem"), []float64{.90, .10}},
		{"dogOut", given("familyOut", "familyIn", "bowelProblem", "bowelProblem"), []float64{.97, .03}},
		{"dogOut", given("familyOut", "familyIn", "bowelProblem", "noBowelProblem"), []float64{.30, .70}},
		{"lightOn", given("familyOut", "familyOut"), []float64{.60, .40}},
		{"lightOn", given("familyOut", "familyIn"), []float64{.05, .95}},
	}
	for _, row := range rows {
		if err := net.SetCPT(row.variable, row.given, row.dist); err != nil {
			return nil, err
		}
	}
	if err := net.SetPrior("familyOut", .15, .85); err != nil {
		return nil, err
	}
	if err := net.SetPrior("bowelProblem", .01, .99); err != nil {
		return nil, err
	}

	if err := net.Compile(); err != nil {
		return nil, err
	}
	return net, nil
}
