package ows

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRulesIsSample(t *testing.T) {
	rules := DefaultRules()
	tests := []struct {
		name string
		want bool
	}{
		{"topp:states", true},
		{"sf:roads", true},
		{"ne:countries", true},
		{"tiger:poi", true},
		{"nurc:Arc_Sample", true},
		{"spearfish", true},
		{"tasmania_roads", true},
		{"tiger-ny", true},
		{"geonode:topp", false},
		{"TOPP:states", false},
		{"limites", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rules.IsSample(tt.name); got != tt.want {
				t.Errorf("IsSample(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestRulesDescription(t *testing.T) {
	rules := DefaultRules()
	for _, placeholder := range []string{
		"No abstract provided.",
		"No abstract provided",
		"REQUIRED: A brief narrative summary of the data set.",
		"No hay resumen proporcionado",
		"",
		"   ",
	} {
		if got := rules.Description(placeholder); got != nil {
			t.Errorf("Description(%q) = %q, want nil", placeholder, *got)
		}
	}
	for _, abstract := range []string{"Red vial", "  Red vial\n", "\tRed vial "} {
		if got := rules.Description(abstract); got == nil || *got != "Red vial" {
			t.Errorf("Description(%q) = %v, want Red vial", abstract, got)
		}
	}
}

func TestRulesLoaderLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `sample_prefixes:
  - "demo:"
  - "topp:"
placeholder_descriptions:
  - "Sin descripción"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write rules file: %v", err)
	}

	rules, err := NewRulesLoader(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !rules.IsSample("demo:layer") || !rules.IsSample("sf:roads") {
		t.Error("loaded rules should extend the defaults")
	}
	if got := len(rules.SamplePrefixes); got != len(DefaultRules().SamplePrefixes)+1 {
		t.Errorf("len(SamplePrefixes) = %d, duplicates were not removed", got)
	}
	if rules.Description("Sin descripción") != nil {
		t.Error("custom placeholder should normalize to nil")
	}
}

func TestRulesLoaderEmptyPath(t *testing.T) {
	rules, err := NewRulesLoader("").Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(rules.SamplePrefixes) != len(DefaultRules().SamplePrefixes) {
		t.Errorf("SamplePrefixes = %v", rules.SamplePrefixes)
	}
}

func TestRulesLoaderErrors(t *testing.T) {
	if _, err := NewRulesLoader("/nonexistent/rules.yaml").Load(); err == nil {
		t.Error("Load() with missing file should fail")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("sample_prefixes: [unclosed"), 0o644); err != nil {
		t.Fatalf("failed to write rules file: %v", err)
	}
	if _, err := NewRulesLoader(path).Load(); err == nil {
		t.Error("Load() with invalid yaml should fail")
	}
}
