// Package stockflow imports system-dynamics models. Stocks accumulate
// via named flows; each stock declares an accumulation expression whose
// signed terms name the flows draining or filling it, and each flow is
// an auxiliary variable carrying the rate expression.
package stockflow

import (
	"strings"

	"github.com/san-kum/tmx/internal/grounding"
	"github.com/san-kum/tmx/internal/metamodel"
	"github.com/san-kum/tmx/internal/symexpr"
)

// Document is an already-parsed stock/flow model, typically decoded
// from YAML.
type Document struct {
	Name        string     `yaml:"name" json:"name,omitempty"`
	Description string     `yaml:"description" json:"description,omitempty"`
	Variables   []Variable `yaml:"variables" json:"variables"`
}

// Variable is one model variable. Kind discriminates: a "stock"
// carries an accumulation expression over flow names plus an initial
// value; an "auxiliary" carries a formula, which is either a plain
// decimal constant (a parameter) or a flow rate; a "control" variable
// is simulation plumbing and ignored.
type Variable struct {
	Name        string   `yaml:"name" json:"name"`
	Kind        string   `yaml:"kind" json:"kind"`
	Expression  string   `yaml:"expression" json:"expression,omitempty"`
	Initial     *float64 `yaml:"initial" json:"initial,omitempty"`
	Units       string   `yaml:"units" json:"units,omitempty"`
	Description string   `yaml:"description" json:"description,omitempty"`
}

// control variables of upstream simulation tooling, skipped on sight
var controlNames = map[string]bool{
	"FINALTIME":   true,
	"INITIALTIME": true,
	"SAVEPER":     true,
	"TIMESTEP":    true,
}

// unit symbols are normalized to their canonical singular lowercase form
var unitAliases = map[string]string{
	"Person":  "person",
	"Persons": "person",
	"person":  "person",
	"people":  "person",
	"Day":     "day",
	"Days":    "day",
	"day":     "day",
	"Month":   "month",
	"Months":  "month",
	"Year":    "year",
	"Years":   "year",
}

type stockWiring struct {
	inflows  []string
	outflows []string
}

// Import builds a template model from a stock/flow document. Stocks
// with unreadable accumulation expressions and flows with unsupported
// wiring are skipped and reported.
func Import(doc Document, tables *grounding.Tables) (*metamodel.TemplateModel, metamodel.Diagnostics, error) {
	var diags metamodel.Diagnostics
	model := metamodel.New()
	model.Annotations = metamodel.Annotations{
		Name:        doc.Name,
		Description: doc.Description,
	}

	known := map[string]metamodel.Concept{}
	wiring := map[string]*stockWiring{}
	var stockOrder []string

	for _, v := range doc.Variables {
		if v.Kind != "stock" {
			continue
		}
		c, err := tables.Normalize(metamodel.Concept{
			Name:        v.Name,
			Units:       parseUnits(v.Units, &diags, v.Name),
			Description: v.Description,
		})
		if err != nil {
			diags.Addf("stock", v.Name, "grounding normalization failed: %v", err)
			c = metamodel.Concept{Name: v.Name}
		}
		known[c.Name] = c
		stockOrder = append(stockOrder, c.Name)

		w := &stockWiring{}
		wiring[c.Name] = w
		accum, err := symexpr.Parse(normalizeExpr(v.Expression))
		if err != nil {
			diags.Addf("stock", v.Name, "unparseable accumulation expression %q: %v", v.Expression, err)
			continue
		}
		for _, term := range accum.Terms() {
			flow, ok := term.Expr.IsSymbol()
			if !ok {
				diags.Addf("stock", v.Name, "accumulation term %q is not a flow name", term.Expr.String())
				continue
			}
			if term.Negative {
				w.outflows = append(w.outflows, flow)
			} else {
				w.inflows = append(w.inflows, flow)
			}
		}

		if v.Initial != nil {
			model.Initials[c.Name] = metamodel.Initial{
				Concept:    c,
				Expression: symexpr.Num(*v.Initial),
			}
		}
	}

	for _, v := range doc.Variables {
		if v.Kind == "stock" || v.Kind == "control" || controlNames[strings.ToUpper(v.Name)] {
			continue
		}
		if isDecimal(v.Expression) {
			value, err := parseDecimal(v.Expression)
			if err != nil {
				diags.Addf("auxiliary", v.Name, "bad constant %q: %v", v.Expression, err)
				continue
			}
			model.Parameters[v.Name] = metamodel.Parameter{
				Name:        v.Name,
				Value:       value,
				Units:       parseUnits(v.Units, &diags, v.Name),
				Description: v.Description,
			}
			continue
		}

		rate, err := symexpr.Parse(normalizeExpr(v.Expression))
		if err != nil {
			diags.Addf("flow", v.Name, "unparseable rate expression %q: %v", v.Expression, err)
			rate = nil
		}

		topo := flowTopology(v.Name, rate, stockOrder, wiring, known)
		if len(topo.Subjects) == 0 && len(topo.Outcomes) == 0 {
			diags.Addf("flow", v.Name, "no stock accumulates this flow")
			continue
		}
		tmpl, err := metamodel.Classify(topo, rate, known)
		if err != nil {
			diags.Addf("flow", v.Name, "skipped: %v", err)
			continue
		}
		model.Templates = append(model.Templates, tmpl.WithName(v.Name))
	}

	diags = append(diags, model.Validate()...)
	return model, diags, nil
}

// flowTopology wires one flow to the stocks whose accumulation names
// it. A stock that a flow fills becomes a controller too when its own
// level drives the rate without the flow draining it.
func flowTopology(flow string, rate *symexpr.Expr, stockOrder []string,
	wiring map[string]*stockWiring, known map[string]metamodel.Concept) metamodel.Topology {

	var topo metamodel.Topology
	for _, stock := range stockOrder {
		w := wiring[stock]
		drains := containsString(w.outflows, flow)
		fills := containsString(w.inflows, flow)
		if drains {
			topo.Subjects = append(topo.Subjects, known[stock])
		}
		if fills {
			topo.Outcomes = append(topo.Outcomes, known[stock])
			if rate != nil && rate.References(stock) && !drains {
				topo.Controllers = append(topo.Controllers, known[stock])
			}
		}
	}
	return topo
}

// normalizeExpr cleans the textual expression conventions of upstream
// system-dynamics tools: quoted names, embedded spaces in identifiers
// and mixed-case variable references.
func normalizeExpr(text string) string {
	text = strings.TrimSpace(text)
	for _, op := range []string{"*", "-", "/", "+"} {
		text = strings.ReplaceAll(text, " "+op+" ", op)
	}
	text = strings.ReplaceAll(text, " ", "_")
	text = strings.ReplaceAll(text, `"`, "")
	return strings.ToLower(text)
}

func parseUnits(text string, diags *metamodel.Diagnostics, item string) *symexpr.Expr {
	if text == "" {
		return nil
	}
	expr, err := symexpr.Parse(strings.ReplaceAll(text, " ", ""))
	if err != nil {
		diags.Addf("units", item, "unparseable unit expression %q: %v", text, err)
		return nil
	}
	for alias, canonical := range unitAliases {
		if alias == canonical {
			continue
		}
		expr = expr.Substitute(alias, symexpr.Sym(canonical))
	}
	return expr
}

func isDecimal(text string) bool {
	text = strings.ReplaceAll(strings.ReplaceAll(text, ".", ""), " ", "")
	if text == "" {
		return false
	}
	for _, r := range text {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func parseDecimal(text string) (float64, error) {
	expr, err := symexpr.Parse(strings.TrimSpace(text))
	if err != nil {
		return 0, err
	}
	value, _ := expr.IsNumber()
	return value, nil
}

func containsString(list []string, s string) bool {
	for _, have := range list {
		if have == s {
			return true
		}
	}
	return false
}
