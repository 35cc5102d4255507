package reactionnet

import (
	"fmt"
	"strings"

	"github.com/san-kum/tmx/internal/grounding"
	"github.com/san-kum/tmx/internal/metamodel"
	"github.com/san-kum/tmx/internal/symexpr"
)

// Import builds a template model from a reaction-network document.
// Per-reaction and per-species failures are recovered locally and
// reported as diagnostics; only a structurally unusable document
// returns an error.
func Import(doc Document, tables *grounding.Tables) (*metamodel.TemplateModel, metamodel.Diagnostics, error) {
	var diags metamodel.Diagnostics
	model := metamodel.New()

	units := map[string]*symexpr.Expr{}
	for _, u := range doc.Units {
		expr, err := symexpr.Parse(u.Expression)
		if err != nil {
			diags.Addf("unit", u.ID, "unparseable unit expression %q: %v", u.Expression, err)
			continue
		}
		units[u.ID] = expr
	}

	// One consistent symbol namespace for parameters, compartments and
	// species; collisions make rate laws ambiguous and fail the import.
	symbolOwner := map[string]string{}
	claim := func(name, owner string) error {
		if prev, taken := symbolOwner[name]; taken && prev != owner {
			return fmt.Errorf("%w: %q declared as both %s and %s",
				metamodel.ErrDuplicateSymbol, name, prev, owner)
		}
		symbolOwner[name] = owner
		return nil
	}

	for _, p := range doc.Parameters {
		if err := claim(p.ID, "parameter"); err != nil {
			return nil, diags, err
		}
		param := metamodel.Parameter{
			Name:        p.ID,
			Value:       p.Value,
			Description: p.Description,
			Units:       units[p.Units],
		}
		if p.Distribution != nil {
			param.Distribution = &metamodel.Distribution{
				Type:       p.Distribution.Type,
				Parameters: p.Distribution.Parameters,
			}
		}
		model.Parameters[p.ID] = param
	}
	for _, comp := range doc.Compartments {
		if err := claim(comp.ID, "compartment"); err != nil {
			return nil, diags, err
		}
		model.Parameters[comp.ID] = metamodel.Parameter{
			Name:        comp.ID,
			Value:       comp.Volume,
			Description: comp.Name,
		}
	}

	concepts := map[string]metamodel.Concept{} // by species id
	known := map[string]metamodel.Concept{}    // by concept name
	for _, sp := range doc.Species {
		c, err := extractConcept(doc.ID, sp, units, tables, &diags)
		if err != nil {
			diags.Addf("species", sp.ID, "grounding normalization failed: %v", err)
			c = metamodel.Concept{Name: conceptName(sp), Units: units[sp.Units]}
		}
		if err := claim(c.Name, "species"); err != nil {
			return nil, diags, err
		}
		concepts[sp.ID] = c
		known[c.Name] = c
	}

	funcs := map[string]symexpr.FuncDef{}
	for _, fd := range doc.Functions {
		body, err := symexpr.Parse(fd.Body)
		if err != nil {
			diags.Addf("function", fd.ID, "unparseable body %q: %v", fd.Body, err)
			continue
		}
		funcs[fd.ID] = symexpr.FuncDef{Params: fd.Args, Body: body}
	}

	assignments := map[string]*symexpr.Expr{}
	var assignmentOrder []string
	for _, rule := range doc.Assignments {
		expr, err := symexpr.Parse(rule.Formula)
		if err != nil {
			diags.Addf("assignment", rule.Variable, "unparseable formula %q: %v", rule.Formula, err)
			continue
		}
		assignments[rule.Variable] = expr
		assignmentOrder = append(assignmentOrder, rule.Variable)
	}

	reporters := map[string]bool{}
	for _, id := range doc.Reporters {
		reporters[id] = true
	}
	// reporter and cumulative-count species never occupy roles
	roleConcepts := func(ids []string) []metamodel.Concept {
		var out []metamodel.Concept
		for _, id := range ids {
			if reporters[id] || strings.Contains(id, "cumulative") {
				continue
			}
			if c, ok := concepts[id]; ok {
				out = append(out, c)
			}
		}
		return out
	}

	for _, reaction := range doc.Reactions {
		rate := parseRateLaw(doc, reaction, funcs, assignments, assignmentOrder, concepts, &diags)
		if rate != nil {
			reportUnresolved(reaction.ID, rate, known, model.Parameters, &diags)
		}

		topo := metamodel.Topology{
			Subjects:    roleConcepts(reaction.Reactants),
			Outcomes:    roleConcepts(reaction.Products),
			Controllers: roleConcepts(reaction.Modifiers),
		}

		if len(topo.Subjects) > 1 || len(topo.Outcomes) > 1 {
			diags.Addf("reaction", reaction.ID,
				"unsupported topology with %d reactants and %d products: %v; reactants=%v products=%v",
				len(topo.Subjects), len(topo.Outcomes), metamodel.ErrMalformedTopology,
				names(topo.Subjects), names(topo.Outcomes))
			continue
		}
		if len(topo.Subjects) == 0 && len(topo.Outcomes) == 0 {
			diags.Addf("reaction", reaction.ID, "missing reactants and products")
			continue
		}

		tmpl, err := metamodel.Classify(topo, rate, known)
		if err != nil {
			diags.Addf("reaction", reaction.ID, "skipped: %v", err)
			continue
		}
		model.Templates = append(model.Templates, tmpl.WithName(reaction.ID))

		if reaction.Reversible {
			reverse := metamodel.Topology{
				Subjects:    topo.Outcomes,
				Outcomes:    topo.Subjects,
				Controllers: topo.Controllers,
			}
			// the kinetic law describes the net forward rate; the split
			// reverse direction carries none
			rtmpl, err := metamodel.Classify(reverse, nil, known)
			if err != nil {
				diags.Addf("reaction", reaction.ID, "reverse direction skipped: %v", err)
				continue
			}
			diags.Addf("reaction", reaction.ID, "reversible reaction split; reverse direction has no rate law")
			model.Templates = append(model.Templates, rtmpl.WithName(reaction.ID+"_rev"))
		}
	}

	for _, sp := range doc.Species {
		if sp.InitialConcentration == nil {
			continue
		}
		c := concepts[sp.ID]
		model.Initials[c.Name] = metamodel.Initial{
			Concept:    c,
			Expression: symexpr.Num(*sp.InitialConcentration),
		}
	}

	model.Annotations = metamodel.Annotations{
		Name:        doc.Name,
		Description: doc.Description,
		License:     doc.License,
		References:  doc.References,
		Diseases:    doc.Diseases,
		ModelTypes:  doc.ModelTypes,
	}
	for _, curie := range doc.Taxa {
		if curie == "ncbitaxon:9606" {
			model.Annotations.Hosts = append(model.Annotations.Hosts, curie)
		} else {
			model.Annotations.Pathogens = append(model.Annotations.Pathogens, curie)
		}
	}

	model.EliminateConstantConcepts()
	diags = append(diags, model.Validate()...)
	return model, diags, nil
}

// parseRateLaw turns the kinetic-law text into an expression over the
// model's symbol namespace: assignment rules inlined, user functions
// expanded, species ids rewritten to concept names and compartment
// volumes substituted. A parse failure is reported and yields nil.
func parseRateLaw(doc Document, reaction Reaction, funcs map[string]symexpr.FuncDef,
	assignments map[string]*symexpr.Expr, assignmentOrder []string,
	concepts map[string]metamodel.Concept, diags *metamodel.Diagnostics) *symexpr.Expr {

	if reaction.KineticLaw == "" {
		return nil
	}
	rate, err := symexpr.Parse(reaction.KineticLaw)
	if err != nil {
		diags.Addf("reaction", reaction.ID, "unparseable kinetic law %q: %v", reaction.KineticLaw, err)
		return nil
	}

	for _, variable := range assignmentOrder {
		rate = rate.Substitute(variable, assignments[variable])
	}
	rate = rate.ExpandCalls(funcs)

	// rate laws reference species ids; the model speaks concept names
	for id, c := range concepts {
		if id != c.Name {
			rate = rate.Substitute(id, symexpr.Sym(c.Name))
		}
	}

	for _, comp := range doc.Compartments {
		if !rate.References(comp.ID) {
			continue
		}
		// a unit-volume compartment that enters linearly is divided out
		// to avoid spurious factors; anything else is substituted
		if comp.Volume == 1.0 {
			if removed, ok := rate.RemoveFactor(comp.ID); ok {
				rate = removed
				continue
			}
		}
		rate = rate.SubstituteValue(comp.ID, comp.Volume)
	}
	return rate
}

func reportUnresolved(reactionID string, rate *symexpr.Expr,
	known map[string]metamodel.Concept, params map[string]metamodel.Parameter,
	diags *metamodel.Diagnostics) {

	for _, name := range rate.FreeSymbols() {
		if name == "time" {
			continue
		}
		if _, ok := known[name]; ok {
			continue
		}
		if _, ok := params[name]; ok {
			continue
		}
		diags.Addf("reaction", reactionID, "rate law symbol %q: %v", name, metamodel.ErrUnresolvedSymbol)
	}
}

// conceptName prefers the display name but falls back to the species
// id when the name carries formula punctuation.
func conceptName(sp Species) string {
	if sp.Name == "" || strings.ContainsAny(sp.Name, "(-+") {
		return sp.ID
	}
	return sp.Name
}

func extractConcept(modelID string, sp Species, units map[string]*symexpr.Expr,
	tables *grounding.Tables, diags *metamodel.Diagnostics) (metamodel.Concept, error) {

	name := conceptName(sp)

	// the curated table takes precedence over embedded annotations
	if entry, ok := tables.Lookup(modelID, name); ok {
		return metamodel.Concept{
			Name:        name,
			Identifiers: copyStringMap(entry.Identifiers),
			Context:     copyStringMap(entry.Context),
			Units:       units[sp.Units],
		}, nil
	}
	if modelID != "" {
		diags.Addf("species", sp.ID, "not found in curated grounding map")
	}

	identifiers := copyStringMap(sp.Identifiers)
	context := map[string]string{}
	for idx, prop := range sp.Properties {
		key := "property"
		if idx > 0 {
			key = fmt.Sprintf("property%d", idx)
		}
		context[key] = prop
	}
	if modelID != "" {
		if identifiers == nil {
			identifiers = map[string]string{}
		}
		identifiers["biomodels.species"] = fmt.Sprintf("%s:%s", modelID, sp.ID)
	}

	c := metamodel.Concept{
		Name:        name,
		Identifiers: identifiers,
		Context:     context,
		Units:       units[sp.Units],
	}
	return tables.Normalize(c)
}

func copyStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func names(cs []metamodel.Concept) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}
	return out
}
