package metamodel

import (
	"sort"

	"github.com/san-kum/tmx/internal/symexpr"
)

// Concept is a named entity participating in templates. Concepts are
// value-like: importers construct many independent copies that refer
// to the same real-world entity by name and grounding, never by
// identity.
type Concept struct {
	Name        string            `json:"name"`
	Identifiers map[string]string `json:"identifiers,omitempty"`
	Context     map[string]string `json:"context,omitempty"`
	Units       *symexpr.Expr     `json:"units,omitempty"`
	Description string            `json:"description,omitempty"`
}

// Grounded reports whether the concept carries any ontology identifier
// or disambiguating context. An ungrounded concept is still valid.
func (c Concept) Grounded() bool {
	return len(c.Identifiers) > 0 || len(c.Context) > 0
}

// Curie returns the primary ontology identifier as a prefix/id pair.
// The lexicographically smallest prefix wins so the choice is
// deterministic.
func (c Concept) Curie() (string, string) {
	if len(c.Identifiers) == 0 {
		return "", ""
	}
	prefixes := make([]string, 0, len(c.Identifiers))
	for p := range c.Identifiers {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)
	return prefixes[0], c.Identifiers[prefixes[0]]
}

// SameEntity reports whether two concepts denote the same real-world
// entity: equal names, identifiers and context.
func (c Concept) SameEntity(other Concept) bool {
	if c.Name != other.Name {
		return false
	}
	return mapsEqual(c.Identifiers, other.Identifiers) && mapsEqual(c.Context, other.Context)
}

func mapsEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Clone returns a deep copy of the concept's mutable fields.
func (c Concept) Clone() Concept {
	c.Identifiers = copyMap(c.Identifiers)
	c.Context = copyMap(c.Context)
	return c
}
