// Package reconcile collapses group records that are spelling variants of
// the same real group and rewrites event group references to match.
package reconcile

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rules is the data-cleaning configuration applied before and during
// merging. Corrections fix known misspellings of a display name; Overrides
// force the display name of a merged duplicate cluster.
type Rules struct {
	// Corrections maps a lookup form of a name (lowercase, apostrophes
	// folded, trimmed) to its corrected display name.
	Corrections map[string]string `yaml:"corrections"`
	// Overrides are checked in order against the normalization key of a
	// duplicate cluster; the first match wins.
	Overrides []NameOverride `yaml:"overrides"`
}

// NameOverride replaces the merged display name when the cluster key
// contains KeyContains.
type NameOverride struct {
	KeyContains string `yaml:"key_contains"`
	Name        string `yaml:"name"`
}

// DefaultRules returns the corrections for the records known to be
// misspelled in the church exports.
func DefaultRules() Rules {
	return Rules{
		Corrections: map[string]string{
			"a widows walk":  "A Widow's Walk",
			"a widow's walk": "A Widow's Walk",
			"a widows' walk": "A Widow's Walk",
		},
		Overrides: []NameOverride{
			{KeyContains: "widow", Name: "A Widow's Walk"},
		},
	}
}

// ParseRules decodes YAML rules. Correction keys are folded to lookup form
// so files may spell them with any case or apostrophe glyph.
func ParseRules(data []byte) (Rules, error) {
	var raw Rules
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Rules{}, fmt.Errorf("decode rules: %w", err)
	}
	rules := Rules{Corrections: make(map[string]string, len(raw.Corrections))}
	for k, v := range raw.Corrections {
		if strings.TrimSpace(v) == "" {
			return Rules{}, fmt.Errorf("correction for %q has an empty name", k)
		}
		rules.Corrections[lookupForm(k)] = v
	}
	for i, o := range raw.Overrides {
		if strings.TrimSpace(o.KeyContains) == "" || strings.TrimSpace(o.Name) == "" {
			return Rules{}, fmt.Errorf("override %d: key_contains and name are required", i)
		}
		rules.Overrides = append(rules.Overrides, o)
	}
	return rules, nil
}

// LoadRules reads rules from a YAML file. An empty path yields DefaultRules.
func LoadRules(path string) (Rules, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultRules(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules file: %w", err)
	}
	return ParseRules(data)
}

// Correct applies the correction dictionary to name, returning name
// unchanged when there is no entry.
func (r Rules) Correct(name string) string {
	if name == "" {
		return name
	}
	if fixed, ok := r.Corrections[lookupForm(name)]; ok {
		return fixed
	}
	return name
}

func (r Rules) overrideFor(key string) (string, bool) {
	for _, o := range r.Overrides {
		if strings.Contains(key, o.KeyContains) {
			return o.Name, true
		}
	}
	return "", false
}
