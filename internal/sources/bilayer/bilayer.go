// Package bilayer imports bilayer diagrams of mass-action models. A
// bilayer names its state variables (Qin) and wires each transition box
// to them with three 1-based index lists: consumption (Wn), production
// (Wa) and rate influence (Win).
package bilayer

import (
	"fmt"

	"github.com/san-kum/tmx/internal/grounding"
	"github.com/san-kum/tmx/internal/metamodel"
)

// Document is an already-parsed bilayer JSON structure.
type Document struct {
	Qin  []Variable `json:"Qin"`
	Qout []TanVar   `json:"Qout,omitempty"`
	Box  []BoxDef   `json:"Box"`
	Wn   []Wire     `json:"Wn"`
	Wa   []Wire     `json:"Wa"`
	Win  []Wire     `json:"Win"`
}

// Variable declares one state variable.
type Variable struct {
	Variable string `json:"variable"`
}

// TanVar names the derivative of a state variable; carried for
// completeness, the import does not use it.
type TanVar struct {
	TanVar string `json:"tanvar"`
}

// BoxDef declares one transition box with its rate-constant name.
type BoxDef struct {
	Parameter string `json:"parameter"`
}

// Wire connects a variable to a box. All indices are 1-based. Exactly
// one of each pair is set depending on which list the wire sits in:
// Wn uses efflux/effusion, Wa uses influx/infusion, Win uses call/arg.
type Wire struct {
	Efflux   int `json:"efflux,omitempty"`
	Effusion int `json:"effusion,omitempty"`
	Influx   int `json:"influx,omitempty"`
	Infusion int `json:"infusion,omitempty"`
	Call     int `json:"call,omitempty"`
	Arg      int `json:"arg,omitempty"`
}

type box struct {
	inputs      []metamodel.Concept
	outputs     []metamodel.Concept
	controllers []metamodel.Concept
}

// Import builds a template model from a bilayer document. Boxes whose
// wiring cannot be classified are skipped and reported.
func Import(doc Document, tables *grounding.Tables) (*metamodel.TemplateModel, metamodel.Diagnostics, error) {
	var diags metamodel.Diagnostics
	model := metamodel.New()

	concepts := make([]metamodel.Concept, len(doc.Qin))
	known := make(map[string]metamodel.Concept, len(doc.Qin))
	for i, v := range doc.Qin {
		c, err := tables.Normalize(metamodel.Concept{Name: v.Variable})
		if err != nil {
			diags.Addf("variable", v.Variable, "grounding normalization failed: %v", err)
			c = metamodel.Concept{Name: v.Variable}
		}
		concepts[i] = c
		known[c.Name] = c
	}

	variable := func(stage string, boxIdx, varIdx int) (metamodel.Concept, bool) {
		if varIdx < 1 || varIdx > len(concepts) {
			diags.Addf(stage, boxName(doc, boxIdx), "variable index %d out of range", varIdx)
			return metamodel.Concept{}, false
		}
		return concepts[varIdx-1], true
	}

	boxes := make([]box, len(doc.Box))
	for _, w := range doc.Wn {
		if w.Efflux < 1 || w.Efflux > len(boxes) {
			diags.Addf("consumption", "", "box index %d out of range", w.Efflux)
			continue
		}
		if c, ok := variable("consumption", w.Efflux, w.Effusion); ok {
			boxes[w.Efflux-1].inputs = append(boxes[w.Efflux-1].inputs, c)
		}
	}
	for _, w := range doc.Wa {
		if w.Influx < 1 || w.Influx > len(boxes) {
			diags.Addf("production", "", "box index %d out of range", w.Influx)
			continue
		}
		if c, ok := variable("production", w.Influx, w.Infusion); ok {
			boxes[w.Influx-1].outputs = append(boxes[w.Influx-1].outputs, c)
		}
	}
	for _, w := range doc.Win {
		if w.Call < 1 || w.Call > len(boxes) {
			diags.Addf("influence", "", "box index %d out of range", w.Call)
			continue
		}
		c, ok := variable("influence", w.Call, w.Arg)
		if !ok {
			continue
		}
		b := &boxes[w.Call-1]
		// a variable the box already consumes influences the rate by
		// construction; only extra influences become controllers
		if !containsConcept(b.inputs, c) {
			b.controllers = append(b.controllers, c)
		}
	}

	for i, b := range boxes {
		topo := metamodel.Topology{
			Subjects:    b.inputs,
			Outcomes:    b.outputs,
			Controllers: b.controllers,
		}
		tmpl, err := metamodel.Classify(topo, nil, known)
		if err != nil {
			diags.Addf("box", boxName(doc, i+1), "skipped: %v", err)
			continue
		}
		model.Templates = append(model.Templates, tmpl.WithName(boxName(doc, i+1)))
	}

	diags = append(diags, model.Validate()...)
	return model, diags, nil
}

// boxName identifies a box by its rate-constant name when one is
// declared, falling back to the 1-based index.
func boxName(doc Document, idx int) string {
	if idx >= 1 && idx <= len(doc.Box) && doc.Box[idx-1].Parameter != "" {
		return doc.Box[idx-1].Parameter
	}
	return fmt.Sprintf("box%d", idx)
}

func containsConcept(cs []metamodel.Concept, c metamodel.Concept) bool {
	for _, have := range cs {
		if have.Name == c.Name {
			return true
		}
	}
	return false
}
