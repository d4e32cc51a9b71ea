// Package samples holds ready-made network definitions.
package samples

import "github.com/joeschweitzer/bayesian/internal/domain"

// DogProblemName is the name the dog problem network is stored under.
const DogProblemName = "dog-problem"

// DogProblem is Charniak's family-out network: whether the family is out
// explains the outside light and whether the dog is out, which in turn
// explains hearing a bark.
func DogProblem() domain.NetworkDefinition {
	return domain.NetworkDefinition{
		Variables: []domain.VariableDefinition{
			{Name: "hearBark", States: []string{"hearBark", "quiet"}},
			{Name: "dogOut", States: []string{"dogOut", "dogIn"}},
			{Name: "bowelProblem", States: []string{"bowelProblem", "noBowelProblem"}},
			{Name: "familyOut", States: []string{"familyOut", "familyIn"}},
			{Name: "lightOn", States: []string{"lightOn", "lightOff"}},
		},
		Arcs: []domain.ArcDefinition{
			{Parent: "familyOut", Child: "lightOn"},
			{Parent: "familyOut", Child: "dogOut"},
			{Parent: "bowelProblem", Child: "dogOut"},
			{Parent: "dogOut", Child: "hearBark"},
		},
		Tables: []domain.TableDefinition{
			{Variable: "hearBark", Given: map[string]string{"dogOut": "dogOut"}, Distribution: []float64{.70, .30}},
			{Variable: "hearBark", Given: map[string]string{"dogOut": "dogIn"}, Distribution: []float64{.01, .99}},

			{Variable: "dogOut", Given: map[string]string{"familyOut": "familyOut", "bowelProblem": "bowelProblem"}, Distribution: []float64{.99, .01}},
			{Variable: "dogOut", Given: map[string]string{"familyOut": "familyOut", "bowelProblem": "noBowelProblem"}, Distribution: []float64{.90, .10}},
			{Variable: "dogOut", Given: map[string]string{"familyOut": "familyIn", "bowelProblem": "bowelProblem"}, Distribution: []float64{.97, .03}},
			{Variable: "dogOut", Given: map[string]string{"familyOut": "familyIn", "bowelProblem": "noBowelProblem"}, Distribution: []float64{.30, .70}},

			{Variable: "lightOn", Given: map[string]string{"familyOut": "familyOut"}, Distribution: []float64{.60, .40}},
			{Variable: "lightOn", Given: map[string]string{"familyOut": "familyIn"}, Distribution: []float64{.05, .95}},

			{Variable: "familyOut", Distribution: []float64{.15, .85}},
			{Variable: "bowelProblem", Distribution: []float64{.01, .99}},
		},
	}
}

// DogProblemEvidence is the textbook query scenario: a bark is heard
// and the dog has no bowel problem.
func DogProblemEvidence() map[string]string {
	return map[string]string{
		"hearBark":     "hearBark",
		"bowelProblem": "noBowelProblem",
	}
}
