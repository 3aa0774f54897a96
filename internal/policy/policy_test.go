package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/literexia/assignment-engine/internal/model"
)

func TestDefaultPolicy(t *testing.T) {
	p := Default()

	fallback := p.Fallback()
	require.Len(t, fallback, 5)
	titles := make([]string, len(fallback))
	for i, c := range fallback {
		titles[i] = c.Title
	}
	assert.Equal(t, []string{
		"Alphabet Knowledge",
		"Phonological Awareness",
		"Decoding",
		"Word Recognition",
		"Reading Comprehension",
	}, titles)

	for _, lvl := range model.ReadingLevels {
		ids := p.Recommendations[lvl]
		assert.GreaterOrEqual(t, len(ids), 2, "level %s", lvl)
		assert.LessOrEqual(t, len(ids), 3, "level %s", lvl)
	}
}

func TestIsRecommended(t *testing.T) {
	p := Default()

	tests := []struct {
		level model.ReadingLevel
		id    int
		want  bool
	}{
		{model.LevelLowEmerging, 1, true},
		{model.LevelLowEmerging, 5, false},
		{model.LevelDeveloping, 3, true},
		{model.LevelDeveloping, 4, true},
		{model.LevelDeveloping, 5, true},
		{model.LevelDeveloping, 1, false},
		{model.LevelAtGradeLevel, 5, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.IsRecommended(tt.level, tt.id), "%s/%d", tt.level, tt.id)
	}
}

func TestFallbackReturnsCopy(t *testing.T) {
	p := Default()
	first := p.Fallback()
	first[0].Title = "mutated"
	first[0].QuestionTypes[0] = "mutated"

	second := p.Fallback()
	assert.Equal(t, "Alphabet Knowledge", second[0].Title)
	assert.NotEqual(t, "mutated", second[0].QuestionTypes[0])
}

func TestParseRejectsBadDocuments(t *testing.T) {
	_, err := Parse([]byte("recommendations: {}\n"))
	assert.Error(t, err, "missing fallback categories")

	_, err = Parse([]byte(`
fallback_categories:
  - {id: 1, title: A}
  - {id: 1, title: B}
`))
	assert.Error(t, err, "duplicate ids")

	_, err = Parse([]byte(`
fallback_categories:
  - {id: 1, title: A}
recommendations:
  Expert: [1]
`))
	assert.Error(t, err, "unknown level")
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
fallback_categories:
  - {id: 7, title: Fluency}
recommendations:
  Developing: [7]
`), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.True(t, p.IsRecommended(model.LevelDeveloping, 7))
	assert.Len(t, p.Fallback(), 1)

	p, err = Load("")
	require.NoError(t, err)
	assert.Len(t, p.Fallback(), 5)
}
