package metamodel

import (
	"fmt"
	"sort"

	"github.com/san-kum/tmx/internal/symexpr"
)

// Variant is the closed set of template shapes, discriminated by which
// role slots are populated and by controller count.
type Variant string

const (
	NaturalProduction            Variant = "NaturalProduction"
	NaturalDegradation           Variant = "NaturalDegradation"
	NaturalConversion            Variant = "NaturalConversion"
	ControlledProduction         Variant = "ControlledProduction"
	ControlledDegradation        Variant = "ControlledDegradation"
	ControlledConversion         Variant = "ControlledConversion"
	GroupedControlledProduction  Variant = "GroupedControlledProduction"
	GroupedControlledDegradation Variant = "GroupedControlledDegradation"
	GroupedControlledConversion  Variant = "GroupedControlledConversion"
)

// Template is an immutable typed transition over concepts. Rewrites
// produce new instances via the With* methods.
type Template struct {
	variant     Variant
	subject     *Concept
	outcome     *Concept
	controllers []Concept
	rateLaw     *symexpr.Expr
	name        string
}

func (t Template) Variant() Variant { return t.variant }

// Subject returns the consumed concept, if the variant has one.
func (t Template) Subject() (Concept, bool) {
	if t.subject == nil {
		return Concept{}, false
	}
	return *t.subject, true
}

// Outcome returns the produced concept, if the variant has one.
func (t Template) Outcome() (Concept, bool) {
	if t.outcome == nil {
		return Concept{}, false
	}
	return *t.outcome, true
}

// Controllers returns the ordered controller list.
func (t Template) Controllers() []Concept {
	out := make([]Concept, len(t.controllers))
	copy(out, t.controllers)
	return out
}

// RateLaw returns the symbolic rate expression, or nil when the source
// supplied none.
func (t Template) RateLaw() *symexpr.Expr { return t.rateLaw }

// Name returns the source-level transition name (reaction id, flow
// name), when one was recorded.
func (t Template) Name() string { return t.name }

// WithRateLaw returns a copy carrying the given rate law.
func (t Template) WithRateLaw(rate *symexpr.Expr) Template {
	t.rateLaw = rate
	return t
}

// WithName returns a copy carrying the source transition name.
func (t Template) WithName(name string) Template {
	t.name = name
	return t
}

// ConceptsByRole maps role names to the concepts occupying them.
func (t Template) ConceptsByRole() map[string][]Concept {
	roles := map[string][]Concept{}
	if t.subject != nil {
		roles["subject"] = []Concept{*t.subject}
	}
	if t.outcome != nil {
		roles["outcome"] = []Concept{*t.outcome}
	}
	if len(t.controllers) > 0 {
		roles["controllers"] = t.Controllers()
	}
	return roles
}

// NewNaturalProduction returns a template producing outcome from nothing.
func NewNaturalProduction(outcome Concept) Template {
	return Template{variant: NaturalProduction, outcome: &outcome}
}

// NewNaturalDegradation returns a template consuming subject.
func NewNaturalDegradation(subject Concept) Template {
	return Template{variant: NaturalDegradation, subject: &subject}
}

// NewNaturalConversion returns a template converting subject into
// outcome. A conversion between the same grounded concept is
// degenerate and rejected.
func NewNaturalConversion(subject, outcome Concept) (Template, error) {
	if subject.SameEntity(outcome) {
		return Template{}, fmt.Errorf("%w: %s", ErrDegenerateTemplate, subject.Name)
	}
	return Template{variant: NaturalConversion, subject: &subject, outcome: &outcome}, nil
}

// NewControlledProduction returns a production modulated by one controller.
func NewControlledProduction(outcome, controller Concept) Template {
	return Template{variant: ControlledProduction, outcome: &outcome, controllers: []Concept{controller}}
}

// NewControlledDegradation returns a degradation modulated by one controller.
func NewControlledDegradation(subject, controller Concept) Template {
	return Template{variant: ControlledDegradation, subject: &subject, controllers: []Concept{controller}}
}

// NewControlledConversion returns a conversion modulated by one controller.
func NewControlledConversion(subject, outcome, controller Concept) (Template, error) {
	if subject.SameEntity(outcome) {
		return Template{}, fmt.Errorf("%w: %s", ErrDegenerateTemplate, subject.Name)
	}
	return Template{variant: ControlledConversion, subject: &subject, outcome: &outcome,
		controllers: []Concept{controller}}, nil
}

// NewGroupedControlledProduction returns a production modulated by two
// or more controllers.
func NewGroupedControlledProduction(outcome Concept, controllers []Concept) (Template, error) {
	if len(controllers) < 2 {
		return Template{}, fmt.Errorf("%w: grouped production needs at least 2 controllers, got %d",
			ErrMalformedTopology, len(controllers))
	}
	return Template{variant: GroupedControlledProduction, outcome: &outcome,
		controllers: cloneConcepts(controllers)}, nil
}

// NewGroupedControlledDegradation returns a degradation modulated by
// two or more controllers.
func NewGroupedControlledDegradation(subject Concept, controllers []Concept) (Template, error) {
	if len(controllers) < 2 {
		return Template{}, fmt.Errorf("%w: grouped degradation needs at least 2 controllers, got %d",
			ErrMalformedTopology, len(controllers))
	}
	return Template{variant: GroupedControlledDegradation, subject: &subject,
		controllers: cloneConcepts(controllers)}, nil
}

// NewGroupedControlledConversion returns a conversion modulated by two
// or more controllers.
func NewGroupedControlledConversion(subject, outcome Concept, controllers []Concept) (Template, error) {
	if len(controllers) < 2 {
		return Template{}, fmt.Errorf("%w: grouped conversion needs at least 2 controllers, got %d",
			ErrMalformedTopology, len(controllers))
	}
	if subject.SameEntity(outcome) {
		return Template{}, fmt.Errorf("%w: %s", ErrDegenerateTemplate, subject.Name)
	}
	return Template{variant: GroupedControlledConversion, subject: &subject, outcome: &outcome,
		controllers: cloneConcepts(controllers)}, nil
}

func cloneConcepts(cs []Concept) []Concept {
	out := make([]Concept, len(cs))
	copy(out, cs)
	return out
}

// Topology is one reaction/box/flow reduced to its role sets, before
// variant selection.
type Topology struct {
	Subjects    []Concept
	Outcomes    []Concept
	Controllers []Concept
}

// Classify selects the template variant for a topology.
//
// When a rate law is supplied, concept names appearing free in it that
// are neither the subject, the outcome nor a declared controller are
// folded into the controller list (implicit controllers), sorted by
// name after the declared ones so the ordering is deterministic.
// known maps every concept name of the source model.
func Classify(topo Topology, rate *symexpr.Expr, known map[string]Concept) (Template, error) {
	if len(topo.Subjects) > 1 || len(topo.Outcomes) > 1 {
		return Template{}, fmt.Errorf("%w: %d subjects, %d outcomes",
			ErrMalformedTopology, len(topo.Subjects), len(topo.Outcomes))
	}
	if len(topo.Subjects) == 0 && len(topo.Outcomes) == 0 {
		return Template{}, fmt.Errorf("%w: no subject and no outcome", ErrMalformedTopology)
	}

	controllers := cloneConcepts(topo.Controllers)
	if rate != nil {
		controllers = append(controllers, implicitControllers(topo, rate, known)...)
	}

	var t Template
	var err error
	switch {
	case len(topo.Subjects) == 0:
		outcome := topo.Outcomes[0]
		switch len(controllers) {
		case 0:
			t = NewNaturalProduction(outcome)
		case 1:
			t = NewControlledProduction(outcome, controllers[0])
		default:
			t, err = NewGroupedControlledProduction(outcome, controllers)
		}
	case len(topo.Outcomes) == 0:
		subject := topo.Subjects[0]
		switch len(controllers) {
		case 0:
			t = NewNaturalDegradation(subject)
		case 1:
			t = NewControlledDegradation(subject, controllers[0])
		default:
			t, err = NewGroupedControlledDegradation(subject, controllers)
		}
	default:
		subject, outcome := topo.Subjects[0], topo.Outcomes[0]
		switch len(controllers) {
		case 0:
			t, err = NewNaturalConversion(subject, outcome)
		case 1:
			t, err = NewControlledConversion(subject, outcome, controllers[0])
		default:
			t, err = NewGroupedControlledConversion(subject, outcome, controllers)
		}
	}
	if err != nil {
		return Template{}, err
	}
	if rate != nil {
		t = t.WithRateLaw(rate)
	}
	return t, nil
}

// implicitControllers finds concept names free in the rate law that
// occupy no declared role.
func implicitControllers(topo Topology, rate *symexpr.Expr, known map[string]Concept) []Concept {
	taken := map[string]bool{}
	for _, c := range topo.Subjects {
		taken[c.Name] = true
	}
	for _, c := range topo.Outcomes {
		taken[c.Name] = true
	}
	for _, c := range topo.Controllers {
		taken[c.Name] = true
	}

	var names []string
	for _, name := range rate.FreeSymbols() {
		if taken[name] {
			continue
		}
		if _, ok := known[name]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	implicit := make([]Concept, 0, len(names))
	for _, name := range names {
		implicit = append(implicit, known[name])
	}
	return implicit
}
