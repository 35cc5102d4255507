package grounding

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/tmx/internal/metamodel"
)

func TestPrefixSwap(t *testing.T) {
	tables := Default()

	tests := []struct {
		name       string
		in         map[string]string
		wantPrefix string
		wantID     string
	}{
		{"ncit numeric id belongs to ido", map[string]string{"ncit": "0000511"}, "ido", "0000511"},
		{"ido C-id belongs to ncit", map[string]string{"ido": "C101887"}, "ncit", "C101887"},
		{"correct grounding untouched", map[string]string{"ido": "0000514"}, "ido", "0000514"},
	}

	for _, tt := range tests {
		c := metamodel.Concept{Name: "x", Identifiers: tt.in}
		got, err := tables.Normalize(c)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if got.Identifiers[tt.wantPrefix] != tt.wantID {
			t.Errorf("%s: expected %s:%s, got %v", tt.name, tt.wantPrefix, tt.wantID, got.Identifiers)
		}
	}
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	c := metamodel.Concept{Name: "x", Identifiers: map[string]string{"ncit": "0000511"}}
	if _, err := Default().Normalize(c); err != nil {
		t.Fatal(err)
	}
	if c.Identifiers["ncit"] != "0000511" {
		t.Error("input concept was mutated")
	}
}

func TestRemapRedundantTerm(t *testing.T) {
	c := metamodel.Concept{Name: "deceased", Identifiers: map[string]string{"ncit": "C168970"}}
	got, err := Default().Normalize(c)
	if err != nil {
		t.Fatal(err)
	}
	if got.Identifiers["ncit"] != "C28554" {
		t.Errorf("expected collapse to ncit:C28554, got %v", got.Identifiers)
	}
}

func TestPropertyPromotion(t *testing.T) {
	c := metamodel.Concept{
		Name:    "immune",
		Context: map[string]string{"property": "ido:0000621"},
	}
	got, err := Default().Normalize(c)
	if err != nil {
		t.Fatal(err)
	}
	if got.Identifiers["ido"] != "0000592" {
		t.Errorf("expected ido:0000592, got %v", got.Identifiers)
	}
	if len(got.Context) != 0 {
		t.Errorf("context should collapse into the identifier, got %v", got.Context)
	}
}

func TestUngroundedPassesThrough(t *testing.T) {
	c := metamodel.Concept{Name: "plain"}
	got, err := Default().Normalize(c)
	if err != nil {
		t.Fatal(err)
	}
	if got.Grounded() {
		t.Error("ungrounded concept should stay ungrounded")
	}
}

func TestConflictingRewrites(t *testing.T) {
	tables := Default()
	// both identifiers would land on the ido prefix
	tables.Prefixes = append(tables.Prefixes, PrefixRule{From: "efo", IDPrefix: "000", To: "ido"})

	c := metamodel.Concept{Name: "x", Identifiers: map[string]string{
		"ncit": "0000511",
		"efo":  "0000999",
	}}
	_, err := tables.Normalize(c)
	if !errors.Is(err, metamodel.ErrGroundingConflict) {
		t.Errorf("expected ErrGroundingConflict, got %v", err)
	}
}

func TestCuratedLookupFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	body := `curated:
  - model: BIOMD0000000955
    name: Infected
    identifiers:
      ido: "0000511"
    context:
      disease_severity: "ncit:C25269"
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	tables, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	entry, ok := tables.Lookup("BIOMD0000000955", "Infected")
	if !ok {
		t.Fatal("expected curated entry")
	}
	if entry.Identifiers["ido"] != "0000511" {
		t.Errorf("unexpected identifiers %v", entry.Identifiers)
	}
	if entry.Context["disease_severity"] != "ncit:C25269" {
		t.Errorf("unexpected context %v", entry.Context)
	}

	if _, ok := tables.Lookup("BIOMD0000000955", "Recovered"); ok {
		t.Error("lookup of an uncurated entity should miss")
	}
}
