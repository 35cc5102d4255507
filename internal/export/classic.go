package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/san-kum/tmx/internal/metamodel"
)

// ClassicPetriNet is the S/T/I/O payload used by classic Petri-net
// tooling. States and transitions are referenced by 1-based index.
type ClassicPetriNet struct {
	S []ClassicState      `json:"S"`
	T []ClassicTransition `json:"T"`
	I []ClassicInput      `json:"I"`
	O []ClassicOutput     `json:"O"`
}

// ClassicState is one place of the net.
type ClassicState struct {
	Name         string   `json:"sname"`
	IDs          string   `json:"ids,omitempty"`
	Context      string   `json:"context,omitempty"`
	InitialValue *float64 `json:"initial_value,omitempty"`
}

// ClassicTransition is one transition of the net.
type ClassicTransition struct {
	Name          string `json:"tname"`
	TemplateType  string `json:"template_type"`
	RateLaw       string `json:"rate_law,omitempty"`
	RateLawMathML string `json:"rate_law_mathml,omitempty"`
}

// ClassicInput is an arc from a state into a transition.
type ClassicInput struct {
	Transition int `json:"it"`
	State      int `json:"is"`
}

// ClassicOutput is an arc from a transition into a state.
type ClassicOutput struct {
	Transition int `json:"ot"`
	State      int `json:"os"`
}

// Classic renders the model as a classic Petri net. A controller is
// wired into both directions of its transition: it is consumed and
// replenished, leaving its marking unchanged.
func Classic(m *metamodel.TemplateModel) ClassicPetriNet {
	net := ClassicPetriNet{
		S: []ClassicState{},
		T: []ClassicTransition{},
		I: []ClassicInput{},
		O: []ClassicOutput{},
	}

	concepts := m.AllConcepts()
	vmap := make(map[string]int, len(concepts))
	for i, c := range concepts {
		vmap[c.Name] = i + 1
		state := ClassicState{
			Name:    c.Name,
			IDs:     joinPairs(c.Identifiers, ":"),
			Context: joinPairs(c.Context, "="),
		}
		if initial, ok := m.Initials[c.Name]; ok && initial.Expression != nil {
			if v, isNum := initial.Expression.IsNumber(); isNum {
				state.InitialValue = &v
			}
		}
		net.S = append(net.S, state)
	}

	for i, tmpl := range m.Templates {
		handle := i + 1
		transition := ClassicTransition{
			Name:         fmt.Sprintf("t%d", handle),
			TemplateType: string(tmpl.Variant()),
		}
		if rate := tmpl.RateLaw(); rate != nil {
			transition.RateLaw = rate.String()
			transition.RateLawMathML = rate.MathML()
		}
		net.T = append(net.T, transition)

		for _, c := range tmpl.Controllers() {
			net.I = append(net.I, ClassicInput{Transition: handle, State: vmap[c.Name]})
			net.O = append(net.O, ClassicOutput{Transition: handle, State: vmap[c.Name]})
		}
		if subject, ok := tmpl.Subject(); ok {
			net.I = append(net.I, ClassicInput{Transition: handle, State: vmap[subject.Name]})
		}
		if outcome, ok := tmpl.Outcome(); ok {
			net.O = append(net.O, ClassicOutput{Transition: handle, State: vmap[outcome.Name]})
		}
	}
	return net
}

// joinPairs flattens a string map into a deterministic one-line form,
// e.g. "ido:0000514" or "property=immune".
func joinPairs(m map[string]string, sep string) string {
	if len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + sep + m[k]
	}
	return strings.Join(parts, ",")
}

// EncodeJSON writes any payload as indented JSON.
func EncodeJSON(w io.Writer, payload any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}

// WriteJSON writes any payload to a file as indented JSON.
func WriteJSON(path string, payload any) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return EncodeJSON(file, payload)
}
