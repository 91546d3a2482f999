package ows

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rules controls which advertised layers enter the inventory and how their
// descriptions are normalized.
type Rules struct {
	// SamplePrefixes marks the demo layers shipped with GeoServer installs.
	SamplePrefixes []string `yaml:"sample_prefixes"`
	// PlaceholderDescriptions are abstracts that mean "no description".
	PlaceholderDescriptions []string `yaml:"placeholder_descriptions"`
}

// DefaultRules returns the built-in sample denylist and placeholder table.
func DefaultRules() Rules {
	return Rules{
		SamplePrefixes: []string{
			"topp:", "sf:", "ne:", "tiger:", "nurc:",
			"spearfish", "tasmania", "tiger-ny",
		},
		PlaceholderDescriptions: []string{
			"No abstract provided.",
			"No abstract provided",
			"REQUIRED: A brief narrative summary of the data set.",
			"No hay resumen proporcionado",
		},
	}
}

// IsSample reports whether name looks like a bundled sample layer.
func (r Rules) IsSample(name string) bool {
	for _, p := range r.SamplePrefixes {
		if p != "" && strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// Description returns the trimmed abstract, or nil for empty or placeholder ones.
func (r Rules) Description(abstract string) *string {
	trimmed := strings.TrimSpace(abstract)
	if trimmed == "" {
		return nil
	}
	for _, p := range r.PlaceholderDescriptions {
		if trimmed == p {
			return nil
		}
	}
	return &trimmed
}

// merge appends the entries of extra not already present in r.
func (r Rules) merge(extra Rules) Rules {
	return Rules{
		SamplePrefixes:          appendUnique(r.SamplePrefixes, extra.SamplePrefixes),
		PlaceholderDescriptions: appendUnique(r.PlaceholderDescriptions, extra.PlaceholderDescriptions),
	}
}

func appendUnique(base, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	seen := make(map[string]bool, len(base)+len(extra))
	for _, v := range append(append([]string{}, base...), extra...) {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// RulesLoader reads additional rules from a YAML file.
type RulesLoader struct {
	filePath string
}

// NewRulesLoader creates a loader. An empty path yields the defaults.
func NewRulesLoader(filePath string) *RulesLoader {
	return &RulesLoader{filePath: filePath}
}

// Load returns the default rules extended with the entries of the file.
//
//	sample_prefixes: ["demo:"]
//	placeholder_descriptions: ["Sin descripción"]
func (l *RulesLoader) Load() (Rules, error) {
	rules := DefaultRules()
	if l.filePath == "" {
		return rules, nil
	}

	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return Rules{}, fmt.Errorf("failed to read rules file: %w", err)
	}

	var extra Rules
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return Rules{}, fmt.Errorf("failed to parse rules yaml: %w", err)
	}

	return rules.merge(extra), nil
}
