package export

import (
	"fmt"
	"sort"

	"github.com/san-kum/tmx/internal/metamodel"
	"github.com/san-kum/tmx/internal/symexpr"
)

const (
	petriSchemaVersion = "0.1"
	petriSchemaURL     = "https://raw.githubusercontent.com/DARPA-ASKEM/" +
		"Model-Representations/petrinet_v" + petriSchemaVersion +
		"/petrinet/petrinet_schema.json"
)

// PetriNetPayload is the schema Petri-net document: a header, the net
// itself and the ODE semantics attached to it.
type PetriNetPayload struct {
	Name         string     `json:"name"`
	Schema       string     `json:"schema"`
	Description  string     `json:"description,omitempty"`
	ModelVersion string     `json:"model_version"`
	Model        PetriModel `json:"model"`
	Semantics    *Semantics `json:"semantics,omitempty"`
}

// PetriModel lists the net's states and transitions.
type PetriModel struct {
	States      []PetriState      `json:"states"`
	Transitions []PetriTransition `json:"transitions"`
}

// PetriState is one place, identified by concept name.
type PetriState struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Grounding *Grounding `json:"grounding,omitempty"`
	Units     *UnitExpr  `json:"units,omitempty"`
}

// Grounding carries a concept's ontology identifiers and context.
type Grounding struct {
	Identifiers map[string]string `json:"identifiers"`
	Modifiers   map[string]string `json:"modifiers,omitempty"`
}

// PetriTransition is one transition with its input and output state
// ids. Controllers appear in both lists.
type PetriTransition struct {
	ID         string                `json:"id"`
	Input      []string              `json:"input"`
	Output     []string              `json:"output"`
	Properties *TransitionProperties `json:"properties,omitempty"`
}

// TransitionProperties carries the source-level transition name.
type TransitionProperties struct {
	Name string `json:"name"`
}

// Semantics attaches rate, initial and parameter semantics to a
// structural payload.
type Semantics struct {
	ODE ODESemantics `json:"ode"`
}

// ODESemantics lists the expressions giving the payload ODE meaning.
type ODESemantics struct {
	Rates      []RateEntry      `json:"rates"`
	Initials   []InitialEntry   `json:"initials"`
	Parameters []ParameterEntry `json:"parameters"`
}

// RateEntry binds a transition to its rate expression. Transitions
// without a rate law have no entry.
type RateEntry struct {
	Target           string `json:"target"`
	Expression       string `json:"expression"`
	ExpressionMathML string `json:"expression_mathml"`
}

// InitialEntry binds a state to its starting-value expression.
type InitialEntry struct {
	Target           string `json:"target"`
	Expression       string `json:"expression"`
	ExpressionMathML string `json:"expression_mathml"`
}

// ParameterEntry is one model parameter. A parameter without a
// distribution emits its point value only.
type ParameterEntry struct {
	ID           string                  `json:"id"`
	Value        float64                 `json:"value"`
	Description  string                  `json:"description,omitempty"`
	Units        *UnitExpr               `json:"units,omitempty"`
	Distribution *metamodel.Distribution `json:"distribution,omitempty"`
}

// UnitExpr is a unit expression in both textual and MathML form.
type UnitExpr struct {
	Expression       string `json:"expression"`
	ExpressionMathML string `json:"expression_mathml"`
}

// PetriNet renders the model as a schema Petri-net payload.
func PetriNet(m *metamodel.TemplateModel) PetriNetPayload {
	payload := PetriNetPayload{
		Name:         m.Annotations.Name,
		Schema:       petriSchemaURL,
		Description:  m.Annotations.Description,
		ModelVersion: petriSchemaVersion,
		Model: PetriModel{
			States:      []PetriState{},
			Transitions: []PetriTransition{},
		},
	}

	for _, c := range m.AllConcepts() {
		payload.Model.States = append(payload.Model.States, PetriState{
			ID:        c.Name,
			Name:      c.Name,
			Grounding: conceptGrounding(c),
			Units:     unitExpr(c.Units),
		})
	}

	semantics := &Semantics{ODE: ODESemantics{
		Rates:      []RateEntry{},
		Initials:   []InitialEntry{},
		Parameters: []ParameterEntry{},
	}}

	for i, tmpl := range m.Templates {
		id := fmt.Sprintf("t%d", i+1)
		transition := PetriTransition{
			ID:     id,
			Input:  []string{},
			Output: []string{},
		}
		for _, c := range tmpl.Controllers() {
			transition.Input = append(transition.Input, c.Name)
			transition.Output = append(transition.Output, c.Name)
		}
		if subject, ok := tmpl.Subject(); ok {
			transition.Input = append(transition.Input, subject.Name)
		}
		if outcome, ok := tmpl.Outcome(); ok {
			transition.Output = append(transition.Output, outcome.Name)
		}
		if tmpl.Name() != "" {
			transition.Properties = &TransitionProperties{Name: tmpl.Name()}
		}
		payload.Model.Transitions = append(payload.Model.Transitions, transition)

		if rate := tmpl.RateLaw(); rate != nil {
			semantics.ODE.Rates = append(semantics.ODE.Rates, RateEntry{
				Target:           id,
				Expression:       rate.String(),
				ExpressionMathML: rate.MathML(),
			})
		}
	}

	semantics.ODE.Initials = initialEntries(m)
	semantics.ODE.Parameters = parameterEntries(m)
	payload.Semantics = semantics
	return payload
}

func conceptGrounding(c metamodel.Concept) *Grounding {
	if !c.Grounded() {
		return nil
	}
	g := &Grounding{Identifiers: c.Identifiers}
	if g.Identifiers == nil {
		g.Identifiers = map[string]string{}
	}
	if len(c.Context) > 0 {
		g.Modifiers = c.Context
	}
	return g
}

func unitExpr(units *symexpr.Expr) *UnitExpr {
	if units == nil {
		return nil
	}
	return &UnitExpr{
		Expression:       units.String(),
		ExpressionMathML: units.MathML(),
	}
}

func initialEntries(m *metamodel.TemplateModel) []InitialEntry {
	names := make([]string, 0, len(m.Initials))
	for name := range m.Initials {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]InitialEntry, 0, len(names))
	for _, name := range names {
		expr := m.Initials[name].Expression
		if expr == nil {
			continue
		}
		entries = append(entries, InitialEntry{
			Target:           name,
			Expression:       expr.String(),
			ExpressionMathML: expr.MathML(),
		})
	}
	return entries
}

func parameterEntries(m *metamodel.TemplateModel) []ParameterEntry {
	names := make([]string, 0, len(m.Parameters))
	for name := range m.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]ParameterEntry, 0, len(names))
	for _, name := range names {
		p := m.Parameters[name]
		entries = append(entries, ParameterEntry{
			ID:           name,
			Value:        p.Value,
			Description:  p.Description,
			Units:        unitExpr(p.Units),
			Distribution: p.Distribution,
		})
	}
	return entries
}
