// Package reactionnet imports reaction-network documents (species,
// reactions, kinetic laws) into the canonical template model.
package reactionnet

// Document is an already-parsed reaction-network model. Callers supply
// it directly; no file or network access happens here.
type Document struct {
	ID           string           `json:"id,omitempty"`
	Name         string           `json:"name,omitempty"`
	Description  string           `json:"description,omitempty"`
	License      string           `json:"license,omitempty"`
	References   []string         `json:"references,omitempty"`
	Taxa         []string         `json:"taxa,omitempty"`
	Diseases     []string         `json:"diseases,omitempty"`
	ModelTypes   []string         `json:"model_types,omitempty"`
	Reporters    []string         `json:"reporters,omitempty"`
	Units        []UnitDef        `json:"units,omitempty"`
	Compartments []Compartment    `json:"compartments,omitempty"`
	Parameters   []ParameterDef   `json:"parameters,omitempty"`
	Species      []Species        `json:"species"`
	Functions    []FunctionDef    `json:"functions,omitempty"`
	Assignments  []AssignmentRule `json:"assignments,omitempty"`
	Reactions    []Reaction       `json:"reactions"`
}

// UnitDef names a reusable unit expression, e.g. "1/(day*person)".
type UnitDef struct {
	ID         string `json:"id"`
	Expression string `json:"expression"`
}

// Compartment is a reaction volume; it becomes a model parameter.
type Compartment struct {
	ID     string  `json:"id"`
	Name   string  `json:"name,omitempty"`
	Volume float64 `json:"volume"`
}

// ParameterDef declares a kinetic parameter.
type ParameterDef struct {
	ID           string           `json:"id"`
	Value        float64          `json:"value"`
	Description  string           `json:"description,omitempty"`
	Units        string           `json:"units,omitempty"`
	Distribution *DistributionDef `json:"distribution,omitempty"`
}

// DistributionDef is an uncertainty annotation carried verbatim.
type DistributionDef struct {
	Type       string             `json:"type"`
	Parameters map[string]float64 `json:"parameters"`
}

// Species declares one entity, optionally with embedded structured
// annotations (ontology identifiers and context properties).
type Species struct {
	ID                   string            `json:"id"`
	Name                 string            `json:"name,omitempty"`
	Compartment          string            `json:"compartment,omitempty"`
	Units                string            `json:"units,omitempty"`
	InitialConcentration *float64          `json:"initial_concentration,omitempty"`
	Identifiers          map[string]string `json:"identifiers,omitempty"`
	Properties           []string          `json:"properties,omitempty"`
}

// FunctionDef is a user-defined kinetic function.
type FunctionDef struct {
	ID   string   `json:"id"`
	Args []string `json:"args"`
	Body string   `json:"body"`
}

// AssignmentRule defines a named intermediate expression inlined into
// kinetic laws.
type AssignmentRule struct {
	Variable string `json:"variable"`
	Formula  string `json:"formula"`
}

// Reaction is one state transition with reactant/product/modifier
// species ids and a raw kinetic-law expression.
type Reaction struct {
	ID         string   `json:"id"`
	Name       string   `json:"name,omitempty"`
	Reactants  []string `json:"reactants,omitempty"`
	Products   []string `json:"products,omitempty"`
	Modifiers  []string `json:"modifiers,omitempty"`
	KineticLaw string   `json:"kinetic_law,omitempty"`
	Reversible bool     `json:"reversible,omitempty"`
}
