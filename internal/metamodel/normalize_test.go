package metamodel

import (
	"testing"

	"github.com/san-kum/tmx/internal/symexpr"
)

// sirWithConstantN builds an SIR-like model where N only ever controls.
func sirWithConstantN(t *testing.T) *TemplateModel {
	t.Helper()
	s, i, r, n := concept("S"), concept("I"), concept("R"), concept("N")

	infection, err := NewGroupedControlledConversion(s, i, []Concept{i, n})
	if err != nil {
		t.Fatal(err)
	}
	infection = infection.WithRateLaw(symexpr.MustParse("beta*S*I/N"))

	recovery, err := NewNaturalConversion(i, r)
	if err != nil {
		t.Fatal(err)
	}
	recovery = recovery.WithRateLaw(symexpr.MustParse("gamma*I"))

	m := New()
	m.Templates = []Template{infection, recovery}
	m.Parameters["beta"] = Parameter{Name: "beta", Value: 0.3}
	m.Parameters["gamma"] = Parameter{Name: "gamma", Value: 0.1}
	m.Initials["N"] = Initial{Concept: n, Expression: symexpr.Num(1000)}
	m.Initials["S"] = Initial{Concept: s, Expression: symexpr.Num(999)}
	m.Initials["I"] = Initial{Concept: i, Expression: symexpr.Num(1)}
	return m
}

func TestConstantConceptDetection(t *testing.T) {
	m := sirWithConstantN(t)
	constants := m.ConstantConcepts()
	if len(constants) != 1 || constants[0] != "N" {
		t.Fatalf("expected [N], got %v", constants)
	}
}

func TestEliminateConstantConcepts(t *testing.T) {
	m := sirWithConstantN(t)
	m.EliminateConstantConcepts()

	p, ok := m.Parameters["N"]
	if !ok {
		t.Fatal("N should have become a parameter")
	}
	if p.Value != 1000 {
		t.Errorf("expected N=1000 from its initial, got %f", p.Value)
	}
	if _, ok := m.Initials["N"]; ok {
		t.Error("N's initial should have been consumed")
	}

	infection := m.Templates[0]
	if infection.Variant() != ControlledConversion {
		t.Errorf("expected downgrade to ControlledConversion, got %s", infection.Variant())
	}
	controllers := infection.Controllers()
	if len(controllers) != 1 || controllers[0].Name != "I" {
		t.Errorf("expected controller I, got %v", controllers)
	}
	want := symexpr.MustParse("beta*S*I/1000")
	if !infection.RateLaw().Equal(want) {
		t.Errorf("expected rate %q, got %q", want.String(), infection.RateLaw().String())
	}
}

func TestEliminationDefaultsToOne(t *testing.T) {
	s, i, n := concept("S"), concept("I"), concept("N")
	conv, err := NewGroupedControlledConversion(s, i, []Concept{i, n})
	if err != nil {
		t.Fatal(err)
	}
	conv = conv.WithRateLaw(symexpr.MustParse("beta*S*I/N"))

	m := New()
	m.Templates = []Template{conv}
	m.EliminateConstantConcepts()

	if m.Parameters["N"].Value != 1.0 {
		t.Errorf("expected default 1.0 for N without an initial, got %f", m.Parameters["N"].Value)
	}
}

func TestEliminationIdempotent(t *testing.T) {
	m := sirWithConstantN(t)
	m.EliminateConstantConcepts()

	before := make([]Variant, len(m.Templates))
	counts := make([]int, len(m.Templates))
	for idx, tmpl := range m.Templates {
		before[idx] = tmpl.Variant()
		counts[idx] = len(tmpl.Controllers())
	}
	nValue := m.Parameters["N"].Value

	m.EliminateConstantConcepts()

	for idx, tmpl := range m.Templates {
		if tmpl.Variant() != before[idx] {
			t.Errorf("template %d variant changed on second run: %s -> %s", idx, before[idx], tmpl.Variant())
		}
		if len(tmpl.Controllers()) > counts[idx] {
			t.Errorf("template %d controller count grew on second run", idx)
		}
	}
	if m.Parameters["N"].Value != nValue {
		t.Error("second run changed the reclassified parameter value")
	}
}

func TestEliminationDowngradesToNatural(t *testing.T) {
	s, i, n := concept("S"), concept("I"), concept("N")
	conv, err := NewControlledConversion(s, i, n)
	if err != nil {
		t.Fatal(err)
	}
	conv = conv.WithRateLaw(symexpr.MustParse("k*S/N"))

	m := New()
	m.Templates = []Template{conv}
	m.Initials["N"] = Initial{Concept: n, Expression: symexpr.Num(100)}
	m.EliminateConstantConcepts()

	if m.Templates[0].Variant() != NaturalConversion {
		t.Errorf("expected NaturalConversion, got %s", m.Templates[0].Variant())
	}
	if !m.Templates[0].RateLaw().Equal(symexpr.MustParse("k*S/100")) {
		t.Errorf("rate law not substituted: %s", m.Templates[0].RateLaw().String())
	}
}

func TestValidateReportsDanglingInitial(t *testing.T) {
	m := New()
	conv, err := NewNaturalConversion(concept("S"), concept("I"))
	if err != nil {
		t.Fatal(err)
	}
	m.Templates = []Template{conv}
	m.Initials["ghost"] = Initial{Concept: concept("ghost"), Expression: symexpr.Num(1)}

	diags := m.Validate()
	found := false
	for _, d := range diags {
		if d.Stage == "initial" && d.Item == "ghost" {
			found = true
		}
	}
	if !found {
		t.Error("expected a diagnostic for the dangling initial")
	}
}

func TestValidateReportsUnresolvedSymbols(t *testing.T) {
	m := New()
	conv, err := NewNaturalConversion(concept("S"), concept("I"))
	if err != nil {
		t.Fatal(err)
	}
	m.Templates = []Template{conv.WithRateLaw(symexpr.MustParse("mystery*S"))}

	diags := m.Validate()
	found := false
	for _, d := range diags {
		if d.Stage == "rate-law" && d.Item == "mystery" {
			found = true
		}
	}
	if !found {
		t.Error("expected a diagnostic for the unresolved symbol")
	}
}

func TestMissingParametersIgnoresTimeSymbol(t *testing.T) {
	m := New()
	conv, err := NewNaturalConversion(concept("S"), concept("I"))
	if err != nil {
		t.Fatal(err)
	}
	m.Templates = []Template{conv.WithRateLaw(symexpr.MustParse("k*S*time"))}
	m.Parameters["k"] = Parameter{Name: "k", Value: 0.1}

	if missing := m.MissingParameters(); len(missing) != 0 {
		t.Errorf("time should not need a parameter definition, got %v", missing)
	}
	if diags := m.Validate(); len(diags) != 0 {
		t.Errorf("expected no diagnostics, got %v", diags)
	}
}
