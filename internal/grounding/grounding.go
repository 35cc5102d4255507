// Package grounding holds the process-wide, read-only curation tables:
// a curated grounding map keyed by (model id, entity name) and a fixed
// set of ontology-identifier correction rules. Tables are loaded once
// at startup and injected into importer calls.
package grounding

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/tmx/internal/metamodel"
)

// Entry is a curated grounding for one entity of one source model.
type Entry struct {
	Model       string            `yaml:"model"`
	Name        string            `yaml:"name"`
	Identifiers map[string]string `yaml:"identifiers"`
	Context     map[string]string `yaml:"context"`
}

// PrefixRule corrects a commonly swapped ontology prefix: an
// identifier filed under From whose local id starts with IDPrefix is
// re-filed under To.
type PrefixRule struct {
	From     string `yaml:"from"`
	IDPrefix string `yaml:"id_prefix"`
	To       string `yaml:"to"`
}

// RemapRule replaces one exact identifier with another, collapsing
// redundant terms into the primary one.
type RemapRule struct {
	FromPrefix string `yaml:"from_prefix"`
	FromID     string `yaml:"from_id"`
	ToPrefix   string `yaml:"to_prefix"`
	ToID       string `yaml:"to_id"`
}

// PropertyRule promotes a context property on an otherwise ungrounded
// concept into a primary identifier.
type PropertyRule struct {
	Property string            `yaml:"property"`
	Becomes  map[string]string `yaml:"becomes"`
}

// Tables bundles the curated map and correction rules.
type Tables struct {
	Curated    []Entry        `yaml:"curated"`
	Prefixes   []PrefixRule   `yaml:"prefix_rules"`
	Remaps     []RemapRule    `yaml:"remap_rules"`
	Properties []PropertyRule `yaml:"property_rules"`

	curatedIndex map[curatedKey]Entry
}

type curatedKey struct {
	model string
	name  string
}

// Default returns the built-in correction tables: the IDO/NCIT prefix
// swap common in curated reaction-network repositories, the redundant
// deceased-term collapse, and the acquired-immunity property
// promotion.
func Default() *Tables {
	t := &Tables{
		Prefixes: []PrefixRule{
			{From: "ncit", IDPrefix: "000", To: "ido"},
			{From: "ido", IDPrefix: "C", To: "ncit"},
		},
		Remaps: []RemapRule{
			{FromPrefix: "ncit", FromID: "C168970", ToPrefix: "ncit", ToID: "C28554"},
		},
		Properties: []PropertyRule{
			{Property: "ido:0000621", Becomes: map[string]string{"ido": "0000592"}},
		},
	}
	t.reindex()
	return t
}

// Load reads tables from a YAML file, merging the built-in rules with
// any curated entries and extra rules the file provides.
func Load(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var extra Tables
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("grounding: parse %s: %w", path, err)
	}
	t := Default()
	t.Curated = append(t.Curated, extra.Curated...)
	t.Prefixes = append(t.Prefixes, extra.Prefixes...)
	t.Remaps = append(t.Remaps, extra.Remaps...)
	t.Properties = append(t.Properties, extra.Properties...)
	t.reindex()
	return t, nil
}

func (t *Tables) reindex() {
	t.curatedIndex = make(map[curatedKey]Entry, len(t.Curated))
	for _, e := range t.Curated {
		t.curatedIndex[curatedKey{model: e.Model, name: e.Name}] = e
	}
}

// Lookup returns the curated grounding for an entity of a model. The
// curated table takes precedence over embedded annotations.
func (t *Tables) Lookup(modelID, name string) (Entry, bool) {
	e, ok := t.curatedIndex[curatedKey{model: modelID, name: name}]
	return e, ok
}

// Normalize applies the correction rules to a concept's identifiers
// and context, returning a rewritten copy. Unmatched groundings pass
// through unchanged. When two rules would rewrite the same identifier
// key to different values the concept is returned unmodified along
// with ErrGroundingConflict.
func (t *Tables) Normalize(c metamodel.Concept) (metamodel.Concept, error) {
	out := c.Clone()

	// planned rewrites per destination prefix, to detect conflicts
	planned := map[string]string{}
	var drops []string
	for prefix, id := range out.Identifiers {
		for _, rule := range t.Prefixes {
			if prefix != rule.From || !strings.HasPrefix(id, rule.IDPrefix) {
				continue
			}
			if prev, ok := planned[rule.To]; ok && prev != id {
				return c, fmt.Errorf("%w: %s would map to both %s:%s and %s:%s",
					metamodel.ErrGroundingConflict, c.Name, rule.To, prev, rule.To, id)
			}
			planned[rule.To] = id
			drops = append(drops, prefix)
		}
	}
	for _, prefix := range drops {
		delete(out.Identifiers, prefix)
	}
	for prefix, id := range planned {
		if existing, ok := out.Identifiers[prefix]; ok && existing != id {
			return c, fmt.Errorf("%w: %s already has %s:%s, rule adds %s:%s",
				metamodel.ErrGroundingConflict, c.Name, prefix, existing, prefix, id)
		}
		if out.Identifiers == nil {
			out.Identifiers = map[string]string{}
		}
		out.Identifiers[prefix] = id
	}

	for _, rule := range t.Remaps {
		if out.Identifiers[rule.FromPrefix] == rule.FromID {
			delete(out.Identifiers, rule.FromPrefix)
			if out.Identifiers == nil {
				out.Identifiers = map[string]string{}
			}
			out.Identifiers[rule.ToPrefix] = rule.ToID
		}
	}

	if len(out.Identifiers) == 0 {
		for _, rule := range t.Properties {
			if hasPropertyValue(out.Context, rule.Property) {
				out.Identifiers = map[string]string{}
				for p, id := range rule.Becomes {
					out.Identifiers[p] = id
				}
				out.Context = map[string]string{}
				break
			}
		}
	}

	return out, nil
}

func hasPropertyValue(context map[string]string, value string) bool {
	for key, v := range context {
		if strings.HasPrefix(key, "property") && v == value {
			return true
		}
	}
	return false
}
