package export

import (
	"fmt"
	"sort"

	"github.com/san-kum/tmx/internal/metamodel"
	"github.com/san-kum/tmx/internal/symexpr"
)

const (
	stockflowSchemaVersion = "0.1"
	stockflowSchemaURL     = "https://raw.githubusercontent.com/DARPA-ASKEM/" +
		"Model-Representations/stockflow_v" + stockflowSchemaVersion +
		"/stockflow/stockflow_schema.json"
)

// StockFlowPayload is the stock-and-flow document: stocks, the flows
// moving between them, parameter auxiliaries and dependency links.
type StockFlowPayload struct {
	Name         string         `json:"name"`
	Schema       string         `json:"schema"`
	Description  string         `json:"description,omitempty"`
	ModelVersion string         `json:"model_version"`
	Model        StockFlowModel `json:"model"`
	Semantics    *Semantics     `json:"semantics,omitempty"`
}

// StockFlowModel lists the structural elements of the diagram.
type StockFlowModel struct {
	Stocks      []Stock     `json:"stocks"`
	Flows       []Flow      `json:"flows"`
	Auxiliaries []Auxiliary `json:"auxiliaries"`
	Links       []Link      `json:"links"`
}

// Stock is one accumulating state, identified by concept name.
type Stock struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Grounding *Grounding `json:"grounding,omitempty"`
}

// Flow moves material between stocks. A missing endpoint is emitted as
// an explicit null: a production has no upstream stock, a degradation
// no downstream stock.
type Flow struct {
	ID                   string  `json:"id"`
	Name                 string  `json:"name,omitempty"`
	UpstreamStock        *string `json:"upstream_stock"`
	DownstreamStock      *string `json:"downstream_stock"`
	RateExpression       string  `json:"rate_expression,omitempty"`
	RateExpressionMathML string  `json:"rate_expression_mathml,omitempty"`
}

// Auxiliary is a named constant feeding flow rates.
type Auxiliary struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Expression       string `json:"expression"`
	ExpressionMathML string `json:"expression_mathml"`
}

// Link records that a flow's rate depends on a stock or auxiliary.
type Link struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// StockFlow renders the model as a stock-and-flow payload. Each
// template becomes one flow; every stock or auxiliary its rate law
// depends on yields one link.
func StockFlow(m *metamodel.TemplateModel) StockFlowPayload {
	payload := StockFlowPayload{
		Name:         m.Annotations.Name,
		Schema:       stockflowSchemaURL,
		Description:  m.Annotations.Description,
		ModelVersion: stockflowSchemaVersion,
		Model: StockFlowModel{
			Stocks:      []Stock{},
			Flows:       []Flow{},
			Auxiliaries: []Auxiliary{},
			Links:       []Link{},
		},
	}

	stocks := map[string]bool{}
	for _, c := range m.AllConcepts() {
		stocks[c.Name] = true
		payload.Model.Stocks = append(payload.Model.Stocks, Stock{
			ID:        c.Name,
			Name:      c.Name,
			Grounding: conceptGrounding(c),
		})
	}

	linkCount := 0
	for i, tmpl := range m.Templates {
		id := fmt.Sprintf("flow%d", i+1)
		flow := Flow{ID: id, Name: tmpl.Name()}
		if subject, ok := tmpl.Subject(); ok {
			flow.UpstreamStock = &subject.Name
		}
		if outcome, ok := tmpl.Outcome(); ok {
			flow.DownstreamStock = &outcome.Name
		}

		if rate := tmpl.RateLaw(); rate != nil {
			flow.RateExpression = rate.String()
			flow.RateExpressionMathML = rate.MathML()
			for _, name := range rate.FreeSymbols() {
				_, isParam := m.Parameters[name]
				if !stocks[name] && !isParam {
					continue
				}
				linkCount++
				payload.Model.Links = append(payload.Model.Links, Link{
					ID:     fmt.Sprintf("link%d", linkCount),
					Source: name,
					Target: id,
				})
			}
		} else {
			// no rate law: fall back to the structural dependencies
			for _, name := range structuralSources(tmpl) {
				linkCount++
				payload.Model.Links = append(payload.Model.Links, Link{
					ID:     fmt.Sprintf("link%d", linkCount),
					Source: name,
					Target: id,
				})
			}
		}
		payload.Model.Flows = append(payload.Model.Flows, flow)
	}

	names := make([]string, 0, len(m.Parameters))
	for name := range m.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		value := symexpr.Num(m.Parameters[name].Value)
		payload.Model.Auxiliaries = append(payload.Model.Auxiliaries, Auxiliary{
			ID:               name,
			Name:             name,
			Expression:       value.String(),
			ExpressionMathML: value.MathML(),
		})
	}

	payload.Semantics = &Semantics{ODE: ODESemantics{
		Rates:      []RateEntry{},
		Initials:   initialEntries(m),
		Parameters: parameterEntries(m),
	}}
	return payload
}

func structuralSources(tmpl metamodel.Template) []string {
	var names []string
	if subject, ok := tmpl.Subject(); ok {
		names = append(names, subject.Name)
	}
	for _, c := range tmpl.Controllers() {
		names = append(names, c.Name)
	}
	return names
}
