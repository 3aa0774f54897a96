// Package policy holds the static catalog policy: which categories are the
// recommended next steps at each reading level, and the category list served
// when the catalog source is unreachable.
package policy

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/literexia/assignment-engine/internal/model"
)

//go:embed default_policy.yaml
var defaultPolicyYAML []byte

// Policy is the parsed catalog policy.
type Policy struct {
	FallbackCategories []model.Category             `yaml:"fallback_categories"`
	Recommendations    map[model.ReadingLevel][]int `yaml:"recommendations"`
}

// Default returns the embedded policy. It panics only if the embedded file is
// malformed, which the package tests guard against.
func Default() *Policy {
	p, err := Parse(defaultPolicyYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog policy: %v", err))
	}
	return p
}

// Load reads a policy file from disk. An empty path yields the default policy.
func Load(path string) (*Policy, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a policy document.
func Parse(data []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse policy: %w", err)
	}
	if len(p.FallbackCategories) == 0 {
		return nil, fmt.Errorf("policy has no fallback categories")
	}
	seen := make(map[int]bool, len(p.FallbackCategories))
	for _, c := range p.FallbackCategories {
		if seen[c.CategoryID] {
			return nil, fmt.Errorf("duplicate fallback category %d", c.CategoryID)
		}
		seen[c.CategoryID] = true
	}
	for lvl := range p.Recommendations {
		if !lvl.Valid() {
			return nil, fmt.Errorf("recommendations: unknown reading level %q", lvl)
		}
	}
	return &p, nil
}

// IsRecommended reports whether categoryID is a recommended next step at level.
func (p *Policy) IsRecommended(level model.ReadingLevel, categoryID int) bool {
	for _, id := range p.Recommendations[level] {
		if id == categoryID {
			return true
		}
	}
	return false
}

// Fallback returns a copy of the fallback category list.
func (p *Policy) Fallback() []model.Category {
	out := make([]model.Category, len(p.FallbackCategories))
	for i, c := range p.FallbackCategories {
		c.QuestionTypes = append([]string(nil), c.QuestionTypes...)
		out[i] = c
	}
	return out
}
