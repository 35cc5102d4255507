package symexpr

import (
	"errors"
	"strings"
	"testing"
)

func TestParseRoundTrip(t *testing.T) {
	inputs := []string{
		"k*S*I",
		"(teacup_temperature - room_temperature)/characteristic_time",
		"beta*S*I/N",
		"a - b + c",
		"-heat_loss_to_room",
		"k*S^2",
		"k*S**2",
		"a/(b*c)",
		"exp(-r*t)",
		"2*(a+b)",
		"a - (b - c)",
		"1e-05*x",
		"-3",
		"k*(-3)",
	}

	for _, input := range inputs {
		e, err := Parse(input)
		if err != nil {
			t.Fatalf("parse %q: %v", input, err)
		}
		again, err := Parse(e.String())
		if err != nil {
			t.Fatalf("reparse %q (from %q): %v", e.String(), input, err)
		}
		if !e.Equal(again) {
			t.Errorf("round trip changed %q: got %q", input, again.String())
		}
	}
}

func TestParseBareNumeral(t *testing.T) {
	e, err := Parse("4.0")
	if err != nil {
		t.Fatal(err)
	}
	v, ok := e.IsNumber()
	if !ok {
		t.Fatal("expected a numeric literal, got a symbol")
	}
	if v != 4.0 {
		t.Errorf("expected 4.0, got %f", v)
	}
	if len(e.FreeSymbols()) != 0 {
		t.Errorf("numeral should have no free symbols, got %v", e.FreeSymbols())
	}

	again, err := Parse(e.String())
	if err != nil {
		t.Fatal(err)
	}
	if !e.Equal(again) {
		t.Errorf("numeral did not round trip: %q", e.String())
	}
}

func TestNegativeLiteralRoundTrip(t *testing.T) {
	n := Num(-3)
	v, ok := n.IsNumber()
	if !ok || v != -3 {
		t.Fatalf("Num(-3) should be the literal -3, got %v %v", v, ok)
	}
	if !n.Equal(MustParse(n.String())) {
		t.Errorf("Num(-3) did not round trip: %q", n.String())
	}

	e := MustParse("k*S").SubstituteValue("S", -3)
	again, err := Parse(e.String())
	if err != nil {
		t.Fatalf("reparse %q: %v", e.String(), err)
	}
	if !e.Equal(again) {
		t.Errorf("round trip changed %q: got %q", e.String(), again.String())
	}
	if !e.Equal(MustParse("k*(-3)")) {
		t.Errorf("substituting -3 gave %q", e.String())
	}
}

func TestParseErrors(t *testing.T) {
	inputs := []string{"", "a +", "(a", "a b", "exp(a", "1..2", "a ? b"}
	for _, input := range inputs {
		if _, err := Parse(input); err == nil {
			t.Errorf("expected error for %q", input)
		} else if !errors.Is(err, ErrParse) {
			t.Errorf("error for %q should wrap ErrParse, got %v", input, err)
		}
	}
}

func TestPowerBindsTighterThanMul(t *testing.T) {
	e := MustParse("k*S^2")
	want := MustParse("k*(S**2)")
	if !e.Equal(want) {
		t.Errorf("k*S^2 parsed as %q", e.String())
	}
}

func TestPowerRightAssociative(t *testing.T) {
	if !MustParse("a^b^c").Equal(MustParse("a^(b^c)")) {
		t.Error("power should associate to the right")
	}
}

func TestFreeSymbols(t *testing.T) {
	e := MustParse("beta*S*I/N + exp(-gamma*t)")
	got := e.FreeSymbols()
	want := []string{"I", "N", "S", "beta", "gamma", "t"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestSubstitute(t *testing.T) {
	e := MustParse("k*S*I")
	got := e.SubstituteValue("I", 5)
	if !got.Equal(MustParse("k*S*5")) {
		t.Errorf("substitution gave %q", got.String())
	}
	if e.String() != "k*S*I" {
		t.Error("substitution mutated the original expression")
	}
}

func TestSubstituteAbsentSymbolIsNoop(t *testing.T) {
	e := MustParse("k*S")
	got := e.SubstituteValue("missing", 1)
	if got != e {
		t.Error("substituting an absent symbol should return the same expression")
	}
}

func TestSubstituteExpression(t *testing.T) {
	e := MustParse("rate*S")
	got := e.Substitute("rate", MustParse("beta*I/N"))
	if !got.Equal(MustParse("(beta*I/N)*S")) {
		t.Errorf("got %q", got.String())
	}
}

func TestExpandCalls(t *testing.T) {
	defs := map[string]FuncDef{
		"mass_action": {Params: []string{"a", "b", "k"}, Body: MustParse("k*a*b")},
	}
	e := MustParse("mass_action(S, I, beta)")
	got := e.ExpandCalls(defs)
	if !got.Equal(MustParse("beta*S*I")) {
		t.Errorf("got %q", got.String())
	}

	// unknown call left intact
	e2 := MustParse("pulse(t)")
	if !e2.ExpandCalls(defs).Equal(e2) {
		t.Error("unknown function call should be preserved")
	}
}

func TestRemoveFactor(t *testing.T) {
	e := MustParse("k*S*I*V")
	got, ok := e.RemoveFactor("V")
	if !ok {
		t.Fatal("expected V to be removable")
	}
	if !got.Equal(MustParse("k*S*I")) {
		t.Errorf("got %q", got.String())
	}

	// V inside a power is not a plain factor
	e2 := MustParse("k*V^2")
	if _, ok := e2.RemoveFactor("V"); ok {
		t.Error("V^2 should not be removable as a linear factor")
	}
}

func TestTerms(t *testing.T) {
	e := MustParse("inflow - outflow + seed")
	terms := e.Terms()
	if len(terms) != 3 {
		t.Fatalf("expected 3 terms, got %d", len(terms))
	}
	if terms[0].Negative || terms[2].Negative {
		t.Error("inflow and seed should be positive terms")
	}
	if !terms[1].Negative {
		t.Error("outflow should be a negative term")
	}

	neg := MustParse("-heat_loss_to_room").Terms()
	if len(neg) != 1 || !neg[0].Negative {
		t.Fatalf("expected one negative term, got %+v", neg)
	}
	if name, _ := neg[0].Expr.IsSymbol(); name != "heat_loss_to_room" {
		t.Errorf("expected heat_loss_to_room, got %q", name)
	}
}

func TestMathMLNonEmpty(t *testing.T) {
	inputs := []string{"k*S*I", "4.0", "a/b", "exp(x)", "-x", "a^b"}
	for _, input := range inputs {
		m := MustParse(input).MathML()
		if m == "" {
			t.Errorf("empty MathML for %q", input)
		}
		if !strings.HasPrefix(m, "<") {
			t.Errorf("unexpected MathML for %q: %s", input, m)
		}
	}
	if MustParse("a*b").MathML() != "<apply><times/><ci>a</ci><ci>b</ci></apply>" {
		t.Errorf("unexpected product markup: %s", MustParse("a*b").MathML())
	}
}

func TestEqualIgnoresPresentation(t *testing.T) {
	pairs := [][2]string{
		{"a^b", "a**b"},
		{"(a*b)", "a*b"},
		{"a + (b)", "a+b"},
	}
	for _, pair := range pairs {
		if !MustParse(pair[0]).Equal(MustParse(pair[1])) {
			t.Errorf("%q and %q should be equal", pair[0], pair[1])
		}
	}
	if MustParse("a-b").Equal(MustParse("b-a")) {
		t.Error("a-b and b-a should differ")
	}
}
