package model

import (
	"fmt"
	"strings"
)

// ReadingLevel is a proficiency tier. Eligible categories and assessments are
// scoped to a single tier.
type ReadingLevel string

const (
	LevelLowEmerging   ReadingLevel = "Low Emerging"
	LevelHighEmerging  ReadingLevel = "High Emerging"
	LevelDeveloping    ReadingLevel = "Developing"
	LevelTransitioning ReadingLevel = "Transitioning"
	LevelAtGradeLevel  ReadingLevel = "At Grade Level"
)

// ReadingLevels lists the tiers from lowest to highest.
var ReadingLevels = []ReadingLevel{
	LevelLowEmerging,
	LevelHighEmerging,
	LevelDeveloping,
	LevelTransitioning,
	LevelAtGradeLevel,
}

// ParseReadingLevel accepts either the display name ("High Emerging") or its
// slug ("high_emerging"), case-insensitively.
func ParseReadingLevel(raw string) (ReadingLevel, error) {
	needle := strings.ToLower(strings.TrimSpace(raw))
	for _, lvl := range ReadingLevels {
		if needle == strings.ToLower(string(lvl)) || needle == lvl.Slug() {
			return lvl, nil
		}
	}
	return "", fmt.Errorf("unknown reading level %q", raw)
}

// Slug returns the snake_case form used in query strings.
func (l ReadingLevel) Slug() string {
	return strings.ReplaceAll(strings.ToLower(string(l)), " ", "_")
}

// Valid reports whether l is one of the known tiers.
func (l ReadingLevel) Valid() bool {
	for _, lvl := range ReadingLevels {
		if l == lvl {
			return true
		}
	}
	return false
}
