package bilayer

import (
	"testing"

	"github.com/san-kum/tmx/internal/grounding"
	"github.com/san-kum/tmx/internal/metamodel"
)

func sirBilayer() Document {
	return Document{
		Qin: []Variable{{Variable: "S"}, {Variable: "I"}, {Variable: "R"}},
		Box: []BoxDef{{Parameter: "beta"}, {Parameter: "gamma"}},
		Wn: []Wire{
			{Efflux: 1, Effusion: 1},
			{Efflux: 2, Effusion: 2},
		},
		Wa: []Wire{
			{Influx: 1, Infusion: 2},
			{Influx: 2, Infusion: 3},
		},
		Win: []Wire{
			{Arg: 1, Call: 1},
			{Arg: 2, Call: 1},
			{Arg: 2, Call: 2},
		},
	}
}

func TestImportSIRBilayer(t *testing.T) {
	model, diags, err := Import(sirBilayer(), grounding.Default())
	if err != nil {
		t.Fatal(err)
	}
	if len(diags) != 0 {
		t.Errorf("unexpected diagnostics: %v", diags)
	}
	if len(model.Templates) != 2 {
		t.Fatalf("expected 2 templates, got %d", len(model.Templates))
	}

	infection := model.Templates[0]
	if infection.Variant() != metamodel.ControlledConversion {
		t.Errorf("expected ControlledConversion, got %s", infection.Variant())
	}
	subject, _ := infection.Subject()
	outcome, _ := infection.Outcome()
	if subject.Name != "S" || outcome.Name != "I" {
		t.Errorf("expected S -> I, got %s -> %s", subject.Name, outcome.Name)
	}
	if ctrls := infection.Controllers(); len(ctrls) != 1 || ctrls[0].Name != "I" {
		t.Errorf("expected controller I, got %v", ctrls)
	}
	if infection.Name() != "beta" {
		t.Errorf("expected box named beta, got %s", infection.Name())
	}

	recovery := model.Templates[1]
	if recovery.Variant() != metamodel.NaturalConversion {
		t.Errorf("expected NaturalConversion, got %s", recovery.Variant())
	}
}

func TestImportOneInOneOutBox(t *testing.T) {
	doc := Document{
		Qin: []Variable{{Variable: "A"}, {Variable: "B"}},
		Box: []BoxDef{{Parameter: "k"}},
		Wn:  []Wire{{Efflux: 1, Effusion: 1}},
		Wa:  []Wire{{Influx: 1, Infusion: 2}},
	}
	model, _, err := Import(doc, grounding.Default())
	if err != nil {
		t.Fatal(err)
	}
	if len(model.Templates) != 1 {
		t.Fatalf("expected 1 template, got %d", len(model.Templates))
	}
	if model.Templates[0].Variant() != metamodel.NaturalConversion {
		t.Errorf("expected NaturalConversion, got %s", model.Templates[0].Variant())
	}
}

func TestImportProductionAndDegradationBoxes(t *testing.T) {
	doc := Document{
		Qin: []Variable{{Variable: "X"}},
		Box: []BoxDef{{Parameter: "birth"}, {Parameter: "death"}},
		Wn:  []Wire{{Efflux: 2, Effusion: 1}},
		Wa:  []Wire{{Influx: 1, Infusion: 1}},
	}
	model, _, err := Import(doc, grounding.Default())
	if err != nil {
		t.Fatal(err)
	}
	if len(model.Templates) != 2 {
		t.Fatalf("expected 2 templates, got %d", len(model.Templates))
	}
	if model.Templates[0].Variant() != metamodel.NaturalProduction {
		t.Errorf("expected NaturalProduction, got %s", model.Templates[0].Variant())
	}
	if model.Templates[1].Variant() != metamodel.NaturalDegradation {
		t.Errorf("expected NaturalDegradation, got %s", model.Templates[1].Variant())
	}
}

func TestImportGroupedControllers(t *testing.T) {
	doc := Document{
		Qin: []Variable{{Variable: "A"}, {Variable: "B"}, {Variable: "C"}, {Variable: "D"}},
		Box: []BoxDef{{Parameter: "k"}},
		Wn:  []Wire{{Efflux: 1, Effusion: 1}},
		Wa:  []Wire{{Influx: 1, Infusion: 2}},
		Win: []Wire{
			{Arg: 3, Call: 1},
			{Arg: 4, Call: 1},
		},
	}
	model, _, err := Import(doc, grounding.Default())
	if err != nil {
		t.Fatal(err)
	}
	tmpl := model.Templates[0]
	if tmpl.Variant() != metamodel.GroupedControlledConversion {
		t.Fatalf("expected GroupedControlledConversion, got %s", tmpl.Variant())
	}
	ctrls := tmpl.Controllers()
	if len(ctrls) != 2 || ctrls[0].Name != "C" || ctrls[1].Name != "D" {
		t.Errorf("unexpected controllers %v", ctrls)
	}
}

func TestImportSkipsUnclassifiableBox(t *testing.T) {
	doc := Document{
		Qin: []Variable{{Variable: "A"}, {Variable: "B"}, {Variable: "C"}},
		Box: []BoxDef{{Parameter: "k"}},
		Wn: []Wire{
			{Efflux: 1, Effusion: 1},
			{Efflux: 1, Effusion: 2},
		},
		Wa: []Wire{{Influx: 1, Infusion: 3}},
	}
	model, diags, err := Import(doc, grounding.Default())
	if err != nil {
		t.Fatal(err)
	}
	if len(model.Templates) != 0 {
		t.Fatalf("two-input box must be skipped, got %d templates", len(model.Templates))
	}
	if !hasDiag(diags, "box", "k") {
		t.Error("skipped box must be reported")
	}
}

func TestImportReportsBadIndices(t *testing.T) {
	doc := Document{
		Qin: []Variable{{Variable: "A"}},
		Box: []BoxDef{{Parameter: "k"}},
		Wn:  []Wire{{Efflux: 5, Effusion: 1}},
		Wa:  []Wire{{Influx: 1, Infusion: 9}},
	}
	_, diags, err := Import(doc, grounding.Default())
	if err != nil {
		t.Fatal(err)
	}
	if len(diags) < 2 {
		t.Errorf("expected diagnostics for both bad indices, got %v", diags)
	}
}

func hasDiag(diags metamodel.Diagnostics, stage, item string) bool {
	for _, d := range diags {
		if d.Stage == stage && d.Item == item {
			return true
		}
	}
	return false
}
