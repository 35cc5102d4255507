package stockflow

import (
	"testing"

	"github.com/san-kum/tmx/internal/grounding"
	"github.com/san-kum/tmx/internal/metamodel"
	"github.com/san-kum/tmx/internal/symexpr"
)

func f(v float64) *float64 { return &v }

func teacupDocument() Document {
	return Document{
		Name: "Teacup",
		Variables: []Variable{
			{Name: "teacup_temperature", Kind: "stock",
				Expression: "-heat_loss_to_room", Initial: f(180), Units: "Degrees"},
			{Name: "heat_loss_to_room", Kind: "auxiliary",
				Expression: "(teacup_temperature - room_temperature)/characteristic_time"},
			{Name: "room_temperature", Kind: "auxiliary", Expression: "70"},
			{Name: "characteristic_time", Kind: "auxiliary", Expression: "10", Units: "Minutes"},
			{Name: "FINALTIME", Kind: "control", Expression: "30"},
		},
	}
}

func sirDocument() Document {
	return Document{
		Name: "SIR",
		Variables: []Variable{
			{Name: "susceptible", Kind: "stock", Expression: "-infection",
				Initial: f(1000), Units: "Person"},
			{Name: "infected", Kind: "stock", Expression: "infection - recovery",
				Initial: f(5), Units: "Person"},
			{Name: "recovered", Kind: "stock", Expression: "recovery",
				Initial: f(0), Units: "Person"},
			{Name: "infection", Kind: "auxiliary",
				Expression: "beta*susceptible*infected/total_population"},
			{Name: "recovery", Kind: "auxiliary", Expression: "infected/duration"},
			{Name: "beta", Kind: "auxiliary", Expression: "0.3"},
			{Name: "duration", Kind: "auxiliary", Expression: "5", Units: "Days"},
			{Name: "total_population", Kind: "auxiliary", Expression: "1005", Units: "Persons"},
		},
	}
}

func TestImportTeacup(t *testing.T) {
	model, _, err := Import(teacupDocument(), grounding.Default())
	if err != nil {
		t.Fatal(err)
	}
	if len(model.Templates) != 1 {
		t.Fatalf("expected 1 template, got %d", len(model.Templates))
	}
	tmpl := model.Templates[0]
	if tmpl.Variant() != metamodel.NaturalDegradation {
		t.Errorf("expected NaturalDegradation, got %s", tmpl.Variant())
	}
	subject, ok := tmpl.Subject()
	if !ok || subject.Name != "teacup_temperature" {
		t.Errorf("expected subject teacup_temperature, got %v", subject.Name)
	}
	if _, ok := tmpl.Outcome(); ok {
		t.Error("cooling has no outcome")
	}
	for _, name := range []string{"room_temperature", "characteristic_time"} {
		if _, ok := model.Parameters[name]; !ok {
			t.Errorf("expected parameter %s", name)
		}
	}
	if model.Parameters["room_temperature"].Value != 70 {
		t.Errorf("unexpected room_temperature value %v", model.Parameters["room_temperature"].Value)
	}
	want := symexpr.MustParse("(teacup_temperature-room_temperature)/characteristic_time")
	if !tmpl.RateLaw().Equal(want) {
		t.Errorf("unexpected rate law %s", tmpl.RateLaw().String())
	}
}

func TestImportSIR(t *testing.T) {
	model, diags, err := Import(sirDocument(), grounding.Default())
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
	if subject.Name != "susceptible" || outcome.Name != "infected" {
		t.Errorf("expected susceptible -> infected, got %s -> %s", subject.Name, outcome.Name)
	}
	if ctrls := infection.Controllers(); len(ctrls) != 1 || ctrls[0].Name != "infected" {
		t.Errorf("expected controller infected, got %v", ctrls)
	}

	recovery := model.Templates[1]
	if recovery.Variant() != metamodel.NaturalConversion {
		t.Errorf("expected NaturalConversion, got %s", recovery.Variant())
	}

	if len(model.Initials) != 3 {
		t.Errorf("expected 3 initials, got %d", len(model.Initials))
	}
	if got, _ := model.Initials["susceptible"].Expression.IsNumber(); got != 1000 {
		t.Errorf("unexpected susceptible initial %v", got)
	}
}

func TestImportNormalizesUnitSymbols(t *testing.T) {
	model, _, err := Import(sirDocument(), grounding.Default())
	if err != nil {
		t.Fatal(err)
	}
	units := model.Parameters["total_population"].Units
	if units == nil {
		t.Fatal("expected units on total_population")
	}
	if units.String() != "person" {
		t.Errorf("expected normalized unit person, got %s", units.String())
	}
	if got, _ := model.Initials["susceptible"].Concept.Units.IsSymbol(); got != "person" {
		t.Errorf("expected stock unit person, got %s", got)
	}
}

func TestImportUnwiredFlowReported(t *testing.T) {
	doc := Document{
		Variables: []Variable{
			{Name: "level", Kind: "stock", Expression: "-drain", Initial: f(10)},
			{Name: "drain", Kind: "auxiliary", Expression: "level/2"},
			{Name: "orphan", Kind: "auxiliary", Expression: "level*3"},
		},
	}
	model, diags, err := Import(doc, grounding.Default())
	if err != nil {
		t.Fatal(err)
	}
	if len(model.Templates) != 1 {
		t.Fatalf("expected 1 template, got %d", len(model.Templates))
	}
	if !hasDiag(diags, "flow", "orphan") {
		t.Error("unwired flow must be reported")
	}
}

func TestImportBadAccumulationReported(t *testing.T) {
	doc := Document{
		Variables: []Variable{
			{Name: "level", Kind: "stock", Expression: "2*fill", Initial: f(0)},
			{Name: "fill", Kind: "auxiliary", Expression: "4+1"},
		},
	}
	_, diags, err := Import(doc, grounding.Default())
	if err != nil {
		t.Fatal(err)
	}
	if !hasDiag(diags, "stock", "level") {
		t.Error("non-symbol accumulation term must be reported")
	}
}

func TestImportControlVariablesSkipped(t *testing.T) {
	model, _, err := Import(teacupDocument(), grounding.Default())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := model.Parameters["FINALTIME"]; ok {
		t.Error("control variables must not become parameters")
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
