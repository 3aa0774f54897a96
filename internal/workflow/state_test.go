package workflow

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/literexia/assignment-engine/internal/model"
)

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func entry(id int, title string) model.CatalogEntry {
	return model.CatalogEntry{
		Category:                model.Category{CategoryID: id, Title: title},
		HasAvailableAssessments: true,
		AssessmentCount:         1,
	}
}

func decodingAssessment() *model.Assessment {
	return &model.Assessment{
		AssessmentID: "a-3",
		CategoryID:   3,
		Title:        "Decoding Check",
		TargetLevel:  model.LevelDeveloping,
		Questions: []model.Question{
			{QuestionID: "q1", Text: "Read the word", ContentReference: &model.ContentRef{Collection: "words", ContentID: "w1"}},
			{QuestionID: "q2", Text: "Pick the sound"},
		},
	}
}

func newTestState() *State {
	return NewState("wf-1", "stu-1", "t-1", model.LevelDeveloping, map[int]bool{2: true}, testNow)
}

func advancedState(t *testing.T) *State {
	t.Helper()
	st := newTestState()
	_, err := st.SelectCategory(entry(3, "Decoding"))
	require.NoError(t, err)
	require.NoError(t, st.AdvanceToQuestionStage(map[int]*model.Assessment{3: decodingAssessment()}, ""))
	return st
}

func TestSelectCategory_ToggleTwiceIsIdentity(t *testing.T) {
	st := newTestState()
	_, err := st.SelectCategory(entry(1, "Alphabet Knowledge"))
	require.NoError(t, err)
	before := append([]model.Category(nil), st.SelectedCategories...)

	changed, err := st.SelectCategory(entry(4, "Word Recognition"))
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = st.SelectCategory(entry(4, "Word Recognition"))
	require.NoError(t, err)
	assert.True(t, changed)

	assert.Equal(t, before, st.SelectedCategories)
}

func TestSelectCategory_IneligibleIsNoOp(t *testing.T) {
	st := newTestState()

	assigned := entry(2, "Phonological Awareness")
	changed, err := st.SelectCategory(assigned)
	require.NoError(t, err)
	assert.False(t, changed)

	empty := entry(5, "Reading Comprehension")
	empty.HasAvailableAssessments = false
	changed, err = st.SelectCategory(empty)
	require.NoError(t, err)
	assert.False(t, changed)

	assert.Empty(t, st.SelectedCategories)
	require.Len(t, st.Notices, 2)
	assert.Equal(t, NoticeCategoryIneligible, st.Notices[0].Code)
}

func TestSelectCategory_WrongStage(t *testing.T) {
	st := advancedState(t)
	_, err := st.SelectCategory(entry(1, "Alphabet Knowledge"))
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSetReadingLevel_ClearsSelection(t *testing.T) {
	st := advancedState(t)

	assert.False(t, st.SetReadingLevel(model.LevelDeveloping))
	assert.Len(t, st.SelectedAssessments, 1)

	assert.True(t, st.SetReadingLevel(model.LevelTransitioning))
	assert.Equal(t, StageSelectCategories, st.Stage)
	assert.Empty(t, st.SelectedCategories)
	assert.Empty(t, st.SelectedAssessments)
	assert.Empty(t, st.QuestionInclusion)
	assert.Empty(t, st.ContentOverrides)
	assert.Equal(t, "stu-1", st.StudentID)
	assert.True(t, st.AssignedCategories[2])
}

func TestAdvance_IncludesAllQuestions(t *testing.T) {
	st := advancedState(t)

	assert.Equal(t, StageCustomizeQuestions, st.Stage)
	require.Len(t, st.SelectedAssessments, 1)
	assert.Equal(t, "a-3", st.SelectedAssessments[0].AssessmentID)
	assert.True(t, st.QuestionInclusion[QuestionKey("a-3", "q1")])
	assert.True(t, st.QuestionInclusion[QuestionKey("a-3", "q2")])
	assert.Equal(t, 1, st.QuestionsByAssessment["a-3"][0].PointValue)
}

func TestAdvance_PlaceholderForMissingAssessment(t *testing.T) {
	st := newTestState()
	_, err := st.SelectCategory(entry(5, "Reading Comprehension"))
	require.NoError(t, err)

	require.NoError(t, st.AdvanceToQuestionStage(nil, "assessment"))

	require.Len(t, st.SelectedAssessments, 1)
	sel := st.SelectedAssessments[0]
	assert.Equal(t, "assessment-5-placeholder", sel.AssessmentID)
	assert.True(t, sel.Placeholder)
	assert.Empty(t, st.QuestionsByAssessment[sel.AssessmentID])
	require.NotEmpty(t, st.Notices)
	assert.Equal(t, NoticePlaceholderAssigned, st.Notices[len(st.Notices)-1].Code)
}

func TestAdvance_RequiresSelection(t *testing.T) {
	st := newTestState()
	err := st.AdvanceToQuestionStage(nil, "")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, StageSelectCategories, st.Stage)
}

func TestAdvance_ReAdvanceKeepsEdits(t *testing.T) {
	st := advancedState(t)
	_, err := st.ToggleQuestion("a-3", "q2")
	require.NoError(t, err)
	require.NoError(t, st.SetContentOverride("a-3", "q1", model.ContentRef{Collection: "words_collection", ContentID: "w9"}))

	st.Stage = StageSelectCategories
	_, err = st.SelectCategory(entry(4, "Word Recognition"))
	require.NoError(t, err)
	require.NoError(t, st.AdvanceToQuestionStage(nil, ""))

	require.Len(t, st.SelectedAssessments, 2)
	assert.False(t, st.QuestionInclusion[QuestionKey("a-3", "q2")])
	assert.Equal(t, "w9", st.ContentOverrides[QuestionKey("a-3", "q1")].ContentID)
}

func TestAdvance_DeselectedCategoryDropsItsData(t *testing.T) {
	st := advancedState(t)
	require.NoError(t, st.SetContentOverride("a-3", "q1", model.ContentRef{Collection: "words", ContentID: "w9"}))

	st.Stage = StageSelectCategories
	_, err := st.SelectCategory(entry(3, "Decoding"))
	require.NoError(t, err)
	_, err = st.SelectCategory(entry(1, "Alphabet Knowledge"))
	require.NoError(t, err)
	require.NoError(t, st.AdvanceToQuestionStage(nil, ""))

	for key := range st.QuestionInclusion {
		assert.False(t, strings.HasPrefix(key, "a-3-"), key)
	}
	assert.Empty(t, st.ContentOverrides)
	assert.NotContains(t, st.QuestionsByAssessment, "a-3")
}

func TestSelectCategory_DeselectAfterBackDropsAssessment(t *testing.T) {
	st := newTestState()
	_, err := st.SelectCategory(entry(3, "Decoding"))
	require.NoError(t, err)
	_, err = st.SelectCategory(entry(4, "Word Recognition"))
	require.NoError(t, err)
	require.NoError(t, st.AdvanceToQuestionStage(map[int]*model.Assessment{3: decodingAssessment()}, ""))
	_, err = st.ToggleQuestion("a-3", "q2")
	require.NoError(t, err)

	st.Stage = StageSelectCategories
	changed, err := st.SelectCategory(entry(4, "Word Recognition"))
	require.NoError(t, err)
	require.True(t, changed)

	require.Len(t, st.SelectedCategories, 1)
	require.Len(t, st.SelectedAssessments, 1)
	assert.Equal(t, 3, st.SelectedAssessments[0].CategoryID)
	assert.NotContains(t, st.QuestionsByAssessment, PlaceholderAssessmentID("", 4))
	assert.False(t, st.QuestionInclusion[QuestionKey("a-3", "q2")])

	payload, _, err := st.BuildAssignmentPayload(EmptyAssessmentDrop)
	require.NoError(t, err)
	require.Len(t, payload.Assignments, 1)
	assert.Equal(t, 3, payload.Assignments[0].CategoryID)
	assert.Equal(t, []string{"q1"}, payload.Assignments[0].SelectedQuestionIDs)
}

func TestToggleQuestion(t *testing.T) {
	st := advancedState(t)

	included, err := st.ToggleQuestion("a-3", "q1")
	require.NoError(t, err)
	assert.False(t, included)
	assert.Equal(t, []string{"q2"}, st.IncludedQuestionIDs("a-3"))

	_, err = st.ToggleQuestion("a-3", "nope")
	assert.ErrorIs(t, err, ErrUnknownQuestion)
	_, err = st.ToggleQuestion("a-9", "q1")
	assert.ErrorIs(t, err, ErrUnknownAssessment)
}

func TestInjectCustomQuestion(t *testing.T) {
	st := advancedState(t)
	tpl := model.Question{
		Text:    "Which letter makes /b/?",
		TypeID:  "letter_sound",
		Options: []model.Option{{ID: "o1", Text: "b", IsCorrect: true}, {ID: "o2", Text: "d"}},
	}

	first, err := st.InjectCustomQuestion("a-3", tpl, testNow)
	require.NoError(t, err)
	second, err := st.InjectCustomQuestion("a-3", tpl, testNow)
	require.NoError(t, err)

	assert.NotEqual(t, first.QuestionID, second.QuestionID)
	assert.True(t, strings.HasPrefix(first.QuestionID, "custom-"))
	assert.True(t, first.Custom)
	assert.Equal(t, 3, first.QuestionNumber)
	assert.Equal(t, 4, second.QuestionNumber)
	assert.True(t, st.QuestionInclusion[QuestionKey("a-3", first.QuestionID)])
	assert.Len(t, st.QuestionsByAssessment["a-3"], 4)
}

func TestInjectCustomQuestion_Rejects(t *testing.T) {
	st := advancedState(t)

	_, err := st.InjectCustomQuestion("a-3", model.Question{Text: " "}, testNow)
	assert.ErrorIs(t, err, ErrValidation)

	twoCorrect := model.Question{
		Text:    "Pick one",
		Options: []model.Option{{ID: "a", IsCorrect: true}, {ID: "b", IsCorrect: true}},
	}
	_, err = st.InjectCustomQuestion("a-3", twoCorrect, testNow)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = st.InjectCustomQuestion("a-404", model.Question{Text: "x"}, testNow)
	assert.ErrorIs(t, err, ErrUnknownAssessment)
}

func TestSetContentOverride(t *testing.T) {
	st := advancedState(t)
	key := QuestionKey("a-3", "q1")
	st.ResolvedContent[key] = &model.StoredContent{Item: &model.Word{ID: "w1", Text: "cat"}}

	require.NoError(t, st.SetContentOverride("a-3", "q1", model.ContentRef{Collection: "words_collection", ContentID: "w2"}))

	assert.Equal(t, model.ContentRef{Collection: "words", ContentID: "w2"}, st.ContentOverrides[key])
	assert.NotContains(t, st.ResolvedContent, key)
	assert.Equal(t, "w1", st.QuestionsByAssessment["a-3"][0].ContentReference.ContentID)
	assert.Equal(t, "w2", st.EffectiveContentRef("a-3", &st.QuestionsByAssessment["a-3"][0]).ContentID)

	err := st.SetContentOverride("a-3", "q1", model.ContentRef{Collection: "videos", ContentID: "v1"})
	assert.ErrorIs(t, err, ErrValidation)
	err = st.SetContentOverride("a-3", "q1", model.ContentRef{Collection: "words"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRandomizeContent(t *testing.T) {
	st := advancedState(t)
	pool := []model.ContentItem{
		&model.Word{ID: "w1", Text: "cat"},
		&model.Word{ID: "w2", Text: "dog"},
		&model.Word{ID: "w3", Text: "sun"},
	}

	ref, ok, err := st.RandomizeContent("a-3", "q1", pool, func(n int) int { return n - 1 })
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, model.ContentRef{Collection: "words", ContentID: "w3"}, ref)
	require.NotNil(t, st.ResolvedContent[QuestionKey("a-3", "q1")])
	assert.Equal(t, "w3", st.ResolvedContent[QuestionKey("a-3", "q1")].Item.ContentID())
}

func TestRandomizeContent_SoftNoOp(t *testing.T) {
	st := advancedState(t)

	_, ok, err := st.RandomizeContent("a-3", "q2", nil, func(int) int { return 0 })
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = st.RandomizeContent("a-3", "q1", nil, func(int) int { return 0 })
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Empty(t, st.ContentOverrides)
	require.Len(t, st.Notices, 2)
	assert.Equal(t, NoticeRandomizeSkipped, st.Notices[1].Code)
}

func TestRecordResolvedContent(t *testing.T) {
	st := advancedState(t)
	refs := st.UnresolvedContentRefs()
	require.Len(t, refs, 1)

	st.RecordResolvedContent(map[string]model.ContentItem{
		QuestionKey("a-3", "q1"): nil,
		"stale-key":              &model.Word{ID: "x"},
	})

	v, ok := st.ResolvedContent[QuestionKey("a-3", "q1")]
	assert.True(t, ok)
	assert.Nil(t, v)
	assert.NotContains(t, st.ResolvedContent, "stale-key")
	assert.Empty(t, st.UnresolvedContentRefs())
	assert.Equal(t, NoticeContentUnavailable, st.Notices[len(st.Notices)-1].Code)
}

func TestNoticesAreBounded(t *testing.T) {
	st := newTestState()
	for i := 0; i < maxNotices+10; i++ {
		st.addNotice(Notice{Code: NoticeCatalogUnavailable})
	}
	assert.Len(t, st.Notices, maxNotices)
}

func TestBuildAssignmentPayload_OnlyIncludedQuestions(t *testing.T) {
	st := advancedState(t)
	_, err := st.ToggleQuestion("a-3", "q2")
	require.NoError(t, err)
	require.NoError(t, st.SetContentOverride("a-3", "q1", model.ContentRef{Collection: "words", ContentID: "w7"}))

	payload, notices, err := st.BuildAssignmentPayload(EmptyAssessmentDrop)
	require.NoError(t, err)
	assert.Empty(t, notices)

	require.Len(t, payload.Assignments, 1)
	a := payload.Assignments[0]
	assert.Equal(t, []string{"q1"}, a.SelectedQuestionIDs)
	assert.Equal(t, "w7", a.ContentOverrides["q1"].ContentID)
	assert.Equal(t, "stu-1", payload.StudentID)
	assert.Equal(t, model.LevelDeveloping, payload.ReadingLevel)
	assert.Equal(t, 1, payload.QuestionCount())
}

func TestBuildAssignmentPayload_EmptyAssessmentPolicy(t *testing.T) {
	build := func(t *testing.T) *State {
		st := advancedState(t)
		st.Stage = StageSelectCategories
		_, err := st.SelectCategory(entry(4, "Word Recognition"))
		require.NoError(t, err)
		require.NoError(t, st.AdvanceToQuestionStage(nil, ""))
		return st
	}

	t.Run("drop", func(t *testing.T) {
		st := build(t)
		payload, notices, err := st.BuildAssignmentPayload(EmptyAssessmentDrop)
		require.NoError(t, err)
		require.Len(t, payload.Assignments, 1)
		assert.Equal(t, "a-3", payload.Assignments[0].AssessmentID)
		require.Len(t, notices, 1)
		assert.Equal(t, NoticeAssessmentDropped, notices[0].Code)
		for _, e := range payload.Assignments {
			assert.NotEmpty(t, e.SelectedQuestionIDs)
		}
	})

	t.Run("reject", func(t *testing.T) {
		st := build(t)
		_, _, err := st.BuildAssignmentPayload(EmptyAssessmentReject)
		assert.ErrorIs(t, err, ErrValidation)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "selectedQuestions", ve.Field)
	})

	t.Run("nothing left", func(t *testing.T) {
		st := advancedState(t)
		_, err := st.ToggleQuestion("a-3", "q1")
		require.NoError(t, err)
		_, err = st.ToggleQuestion("a-3", "q2")
		require.NoError(t, err)
		_, _, err = st.BuildAssignmentPayload(EmptyAssessmentDrop)
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestParseEmptyAssessmentPolicy(t *testing.T) {
	assert.Equal(t, EmptyAssessmentReject, ParseEmptyAssessmentPolicy(" Reject "))
	assert.Equal(t, EmptyAssessmentDrop, ParseEmptyAssessmentPolicy("drop"))
	assert.Equal(t, EmptyAssessmentDrop, ParseEmptyAssessmentPolicy(""))
}

func TestStateJSONRoundTrip(t *testing.T) {
	st := advancedState(t)
	st.ResolvedContent[QuestionKey("a-3", "q1")] = &model.StoredContent{Item: &model.Word{ID: "w1", Text: "cat"}}
	st.ResolvedContent[QuestionKey("a-3", "q2")] = nil

	raw, err := json.Marshal(st)
	require.NoError(t, err)

	var got State
	require.NoError(t, json.Unmarshal(raw, &got))
	got.EnsureMaps()

	word, ok := got.ResolvedContent[QuestionKey("a-3", "q1")].Item.(*model.Word)
	require.True(t, ok)
	assert.Equal(t, "cat", word.Text)
	assert.Nil(t, got.ResolvedContent[QuestionKey("a-3", "q2")])
	assert.Equal(t, st.QuestionInclusion, got.QuestionInclusion)
	assert.Equal(t, st.Stage, got.Stage)
}
