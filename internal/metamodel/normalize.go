package metamodel

import "sort"

// ConstantConcepts returns the names of concepts that never appear as
// a subject or outcome across all templates: they are only ever
// controllers, or hold an initial without occupying any role.
func (m *TemplateModel) ConstantConcepts() []string {
	all := map[string]bool{}
	changing := map[string]bool{}
	for _, t := range m.Templates {
		if s, ok := t.Subject(); ok {
			all[s.Name] = true
			changing[s.Name] = true
		}
		if o, ok := t.Outcome(); ok {
			all[o.Name] = true
			changing[o.Name] = true
		}
		for _, c := range t.Controllers() {
			all[c.Name] = true
		}
	}
	for name := range m.Initials {
		all[name] = true
	}

	var constants []string
	for name := range all {
		if !changing[name] {
			constants = append(constants, name)
		}
	}
	sort.Strings(constants)
	return constants
}

// EliminateConstantConcepts reclassifies constant concepts as
// parameters valued at their recorded initial (1.0 when none) and
// rewrites every template controlled by them to the
// next-lower-controller-count variant, substituting the concept's
// value into the rate law. The pass is idempotent: concepts already
// reclassified are skipped, and a second run leaves the model
// unchanged.
func (m *TemplateModel) EliminateConstantConcepts() {
	for _, name := range m.ConstantConcepts() {
		if _, exists := m.Parameters[name]; exists {
			continue
		}

		value := 1.0
		if initial, ok := m.Initials[name]; ok {
			if initial.Expression != nil {
				if v, isNum := initial.Expression.IsNumber(); isNum {
					value = v
				}
			}
			delete(m.Initials, name)
		}
		m.Parameters[name] = Parameter{Name: name, Value: value}

		rewritten := make([]Template, 0, len(m.Templates))
		for _, t := range m.Templates {
			rewritten = append(rewritten, dropController(t, name, value))
		}
		m.Templates = rewritten
	}
}

// dropController removes the named controller from a template,
// downgrading the variant and substituting the controller's value in
// the rate law. Templates not controlled by name pass through.
func dropController(t Template, name string, value float64) Template {
	idx := -1
	for i, c := range t.controllers {
		if c.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return t
	}

	remaining := make([]Concept, 0, len(t.controllers)-1)
	remaining = append(remaining, t.controllers[:idx]...)
	remaining = append(remaining, t.controllers[idx+1:]...)

	out := Template{
		subject:     t.subject,
		outcome:     t.outcome,
		controllers: remaining,
		name:        t.name,
	}
	switch {
	case t.subject != nil && t.outcome != nil:
		out.variant = conversionVariant(len(remaining))
	case t.outcome != nil:
		out.variant = productionVariant(len(remaining))
	default:
		out.variant = degradationVariant(len(remaining))
	}
	if t.rateLaw != nil {
		out.rateLaw = t.rateLaw.SubstituteValue(name, value)
	}
	return out
}

func conversionVariant(controllers int) Variant {
	switch controllers {
	case 0:
		return NaturalConversion
	case 1:
		return ControlledConversion
	default:
		return GroupedControlledConversion
	}
}

func productionVariant(controllers int) Variant {
	switch controllers {
	case 0:
		return NaturalProduction
	case 1:
		return ControlledProduction
	default:
		return GroupedControlledProduction
	}
}

func degradationVariant(controllers int) Variant {
	switch controllers {
	case 0:
		return NaturalDegradation
	case 1:
		return ControlledDegradation
	default:
		return GroupedControlledDegradation
	}
}
