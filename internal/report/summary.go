// Package report renders human-readable model summaries for the CLI.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/tmx/internal/metamodel"
)

// Summary renders a template model as a styled terminal summary:
// templates with their roles and rate laws, parameters, initials and
// any diagnostics collected during import.
func Summary(m *metamodel.TemplateModel, diags metamodel.Diagnostics) string {
	var b strings.Builder

	name := m.Annotations.Name
	if name == "" {
		name = "untitled model"
	}
	b.WriteString(TitleStyle.Render(name))
	b.WriteString("\n")
	if m.Annotations.Description != "" {
		b.WriteString(Subtle.Render(m.Annotations.Description))
		b.WriteString("\n")
	}
	b.WriteString(Separator(60))
	b.WriteString("\n")

	b.WriteString(HeaderStyle.Render(fmt.Sprintf("Templates (%d)", len(m.Templates))))
	b.WriteString("\n")
	for _, tmpl := range m.Templates {
		b.WriteString("  ")
		b.WriteString(VariantStyle.Render(string(tmpl.Variant())))
		b.WriteString("  ")
		b.WriteString(describeRoles(tmpl))
		if tmpl.Name() != "" {
			b.WriteString(Subtle.Render("  (" + tmpl.Name() + ")"))
		}
		b.WriteString("\n")
		if rate := tmpl.RateLaw(); rate != nil {
			b.WriteString(LabelStyle.Render("      rate: "))
			b.WriteString(rate.String())
			b.WriteString("\n")
		}
	}

	if concepts := m.AllConcepts(); len(concepts) > 0 {
		b.WriteString(HeaderStyle.Render(fmt.Sprintf("Concepts (%d)", len(concepts))))
		b.WriteString("\n")
		for _, c := range concepts {
			b.WriteString("  ")
			b.WriteString(c.Name)
			if prefix, id := c.Curie(); prefix != "" {
				b.WriteString(Subtle.Render("  " + prefix + ":" + id))
			}
			b.WriteString("\n")
		}
	}

	if len(m.Parameters) > 0 {
		b.WriteString(HeaderStyle.Render(fmt.Sprintf("Parameters (%d)", len(m.Parameters))))
		b.WriteString("\n")
		for _, name := range sortedKeys(m.Parameters) {
			p := m.Parameters[name]
			b.WriteString(fmt.Sprintf("  %s = %g", name, p.Value))
			if p.Distribution != nil {
				b.WriteString(Subtle.Render("  ~" + p.Distribution.Type))
			}
			b.WriteString("\n")
		}
	}

	if len(m.Initials) > 0 {
		b.WriteString(HeaderStyle.Render(fmt.Sprintf("Initials (%d)", len(m.Initials))))
		b.WriteString("\n")
		names := make([]string, 0, len(m.Initials))
		for name := range m.Initials {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			initial := m.Initials[name]
			if initial.Expression == nil {
				continue
			}
			b.WriteString(fmt.Sprintf("  %s(0) = %s\n", name, initial.Expression.String()))
		}
	}

	if len(diags) > 0 {
		b.WriteString(WarnStyle.Render(fmt.Sprintf("Diagnostics (%d)", len(diags))))
		b.WriteString("\n")
		for _, d := range diags {
			b.WriteString("  ")
			b.WriteString(d.String())
			b.WriteString("\n")
		}
	} else {
		b.WriteString(OkStyle.Render("No diagnostics"))
		b.WriteString("\n")
	}

	return b.String()
}

func describeRoles(tmpl metamodel.Template) string {
	subjectName, outcomeName := "∅", "∅"
	if subject, ok := tmpl.Subject(); ok {
		subjectName = subject.Name
	}
	if outcome, ok := tmpl.Outcome(); ok {
		outcomeName = outcome.Name
	}
	desc := subjectName + " → " + outcomeName

	if ctrls := tmpl.Controllers(); len(ctrls) > 0 {
		names := make([]string, len(ctrls))
		for i, c := range ctrls {
			names[i] = c.Name
		}
		desc += "  [" + strings.Join(names, ", ") + "]"
	}
	return desc
}

func sortedKeys(m map[string]metamodel.Parameter) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
