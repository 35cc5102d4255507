package metamodel

import (
	"fmt"
	"sort"

	"github.com/san-kum/tmx/internal/symexpr"
)

// Distribution describes an uncertain parameter as a type tag plus a
// numeric-parameter mapping carried verbatim to exporters.
type Distribution struct {
	Type       string             `json:"type"`
	Parameters map[string]float64 `json:"parameters"`
}

// Parameter is a named real-valued quantity referenced by rate laws.
type Parameter struct {
	Name         string        `json:"name"`
	Value        float64       `json:"value"`
	Distribution *Distribution `json:"distribution,omitempty"`
	Units        *symexpr.Expr `json:"units,omitempty"`
	Description  string        `json:"description,omitempty"`
}

// Initial binds a concept to a symbolic starting-value expression,
// either a literal constant or a reference to a parameter.
type Initial struct {
	Concept    Concept       `json:"concept"`
	Expression *symexpr.Expr `json:"expression"`
}

// Annotations carry model-level metadata.
type Annotations struct {
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	License     string   `json:"license,omitempty"`
	References  []string `json:"references,omitempty"`
	Hosts       []string `json:"hosts,omitempty"`
	Pathogens   []string `json:"pathogens,omitempty"`
	Diseases    []string `json:"diseases,omitempty"`
	ModelTypes  []string `json:"model_types,omitempty"`
}

// TemplateModel is the canonical intermediate representation: an
// ordered sequence of templates plus parameters, initials and
// annotations.
type TemplateModel struct {
	Templates   []Template           `json:"templates"`
	Parameters  map[string]Parameter `json:"parameters"`
	Initials    map[string]Initial   `json:"initials"`
	Annotations Annotations          `json:"annotations"`
}

// New returns an empty model with allocated maps.
func New() *TemplateModel {
	return &TemplateModel{
		Parameters: map[string]Parameter{},
		Initials:   map[string]Initial{},
	}
}

// AllConcepts returns the model's concepts in template insertion
// order, deduplicated by name. Exporters use this ordering to assign
// stable handles.
func (m *TemplateModel) AllConcepts() []Concept {
	var out []Concept
	seen := map[string]bool{}
	add := func(c Concept) {
		if !seen[c.Name] {
			seen[c.Name] = true
			out = append(out, c)
		}
	}
	for _, t := range m.Templates {
		if s, ok := t.Subject(); ok {
			add(s)
		}
		if o, ok := t.Outcome(); ok {
			add(o)
		}
		for _, c := range t.Controllers() {
			add(c)
		}
	}
	return out
}

// RoleNames returns the set of concept names occupying any role.
func (m *TemplateModel) RoleNames() map[string]bool {
	names := map[string]bool{}
	for _, c := range m.AllConcepts() {
		names[c.Name] = true
	}
	return names
}

// MissingParameters returns rate-law symbols that are neither concepts
// nor parameters, sorted. A non-empty result means the model violates
// the export-time invariant that every referenced parameter exists.
func (m *TemplateModel) MissingParameters() []string {
	roles := m.RoleNames()
	missing := map[string]bool{}
	for _, t := range m.Templates {
		rate := t.RateLaw()
		if rate == nil {
			continue
		}
		for _, name := range rate.FreeSymbols() {
			// the time symbol is bound by the simulation clock, not by
			// a parameter
			if name == "time" {
				continue
			}
			if roles[name] {
				continue
			}
			if _, ok := m.Parameters[name]; ok {
				continue
			}
			missing[name] = true
		}
	}
	out := make([]string, 0, len(missing))
	for name := range missing {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Validate reports soft structural violations as diagnostics: initials
// bound to concepts that occupy no template role, and rate-law symbols
// with no definition. Neither is fatal.
func (m *TemplateModel) Validate() []Diagnostic {
	var diags []Diagnostic
	roles := m.RoleNames()

	initialNames := make([]string, 0, len(m.Initials))
	for name := range m.Initials {
		initialNames = append(initialNames, name)
	}
	sort.Strings(initialNames)
	for _, name := range initialNames {
		if !roles[name] {
			diags = append(diags, Diagnostic{
				Stage:   "initial",
				Item:    name,
				Message: "initial refers to a concept that appears in no template role",
			})
		}
	}

	for _, name := range m.MissingParameters() {
		diags = append(diags, Diagnostic{
			Stage:   "rate-law",
			Item:    name,
			Message: fmt.Sprintf("symbol %q is neither a concept nor a parameter: %v", name, ErrUnresolvedSymbol),
		})
	}
	return diags
}

// Diagnostic reports a recoverable per-item issue encountered while
// importing or validating a model. Skipped entities are always
// reported this way, never silently dropped.
type Diagnostic struct {
	Stage   string `json:"stage"`
	Item    string `json:"item"`
	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("[%s %s] %s", d.Stage, d.Item, d.Message)
}

// Diagnostics accumulates per-item issues during an import pass.
type Diagnostics []Diagnostic

// Addf appends a formatted diagnostic.
func (d *Diagnostics) Addf(stage, item, format string, args ...any) {
	*d = append(*d, Diagnostic{Stage: stage, Item: item, Message: fmt.Sprintf(format, args...)})
}
