package workflow

import (
	"time"

	"github.com/literexia/assignment-engine/internal/model"
)

// Stage is a step of the assignment workflow.
type Stage string

const (
	StageSelectCategories   Stage = "select_categories"
	StageCustomizeQuestions Stage = "customize_questions"
	StageReview             Stage = "review"
	StageCommitted          Stage = "committed"
	StageFailed             Stage = "failed"
)

// NoticeCode classifies a non-blocking notice shown inline to the teacher.
type NoticeCode string

const (
	NoticeCatalogUnavailable  NoticeCode = "CATALOG_UNAVAILABLE"
	NoticeContentUnavailable  NoticeCode = "CONTENT_UNAVAILABLE"
	NoticeCategoryIneligible  NoticeCode = "CATEGORY_INELIGIBLE"
	NoticeRandomizeSkipped    NoticeCode = "RANDOMIZE_SKIPPED"
	NoticeAssessmentDropped   NoticeCode = "ASSESSMENT_DROPPED"
	NoticePlaceholderAssigned NoticeCode = "PLACEHOLDER_ASSESSMENT"
)

// maxNotices bounds the notice log kept on a state.
const maxNotices = 50

// Notice is a soft warning; it never blocks a transition.
type Notice struct {
	Code    NoticeCode `json:"code"`
	Message string     `json:"message"`
	Key     string     `json:"key,omitempty"`
}

// SelectedAssessment is the assessment chosen for one selected category. When
// no published assessment exists for the category at the current level it is
// a placeholder with an empty question list.
type SelectedAssessment struct {
	CategoryID      int    `json:"categoryId"`
	CategoryTitle   string `json:"categoryTitle"`
	AssessmentID    string `json:"assessmentId"`
	AssessmentTitle string `json:"assessmentTitle"`
	Placeholder     bool   `json:"placeholder,omitempty"`
}

// State is the mutable session object of one assignment workflow. It is
// changed only through the methods in this package.
//
// Invariant: a key in QuestionInclusion, ContentOverrides or ResolvedContent
// belongs to an assessment listed in SelectedAssessments.
type State struct {
	ID        string             `json:"id"`
	StudentID string             `json:"studentId"`
	TeacherID string             `json:"teacherId,omitempty"`
	Level     model.ReadingLevel `json:"readingLevel"`
	Stage     Stage              `json:"stage"`

	// AssignedCategories is the "already assigned" set captured from the
	// student's progress report when the workflow was created.
	AssignedCategories map[int]bool `json:"assignedCategories"`

	SelectedCategories    []model.Category                `json:"selectedCategories"`
	SelectedAssessments   []SelectedAssessment            `json:"selectedAssessments"`
	QuestionsByAssessment map[string][]model.Question     `json:"questionsByAssessment"`
	QuestionInclusion     map[string]bool                 `json:"questionInclusion"`
	ContentOverrides      map[string]model.ContentRef     `json:"contentOverrides"`
	ResolvedContent       map[string]*model.StoredContent `json:"resolvedContent"`

	Notices    []Notice                `json:"notices"`
	LastError  string                  `json:"lastError,omitempty"`
	LastResult *model.AssignmentResult `json:"lastResult,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	pendingEvents []Event
}

// NewState creates an empty workflow in the SelectCategories stage.
func NewState(id, studentID, teacherID string, level model.ReadingLevel, assigned map[int]bool, now time.Time) *State {
	if assigned == nil {
		assigned = make(map[int]bool)
	}
	st := &State{
		ID:                 id,
		StudentID:          studentID,
		TeacherID:          teacherID,
		Level:              level,
		Stage:              StageSelectCategories,
		AssignedCategories: assigned,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	st.clearSelection()
	return st
}

// QuestionKey builds the "<assessmentId>-<questionId>" key used by the
// per-question maps.
func QuestionKey(assessmentID, questionID string) string {
	return assessmentID + "-" + questionID
}

// clearSelection empties every selection structure. Identity, level and the
// assigned set are kept.
func (s *State) clearSelection() {
	s.SelectedCategories = []model.Category{}
	s.SelectedAssessments = []SelectedAssessment{}
	s.QuestionsByAssessment = make(map[string][]model.Question)
	s.QuestionInclusion = make(map[string]bool)
	s.ContentOverrides = make(map[string]model.ContentRef)
	s.ResolvedContent = make(map[string]*model.StoredContent)
}

// EnsureMaps fills nil maps on a state decoded from storage.
func (s *State) EnsureMaps() {
	if s.AssignedCategories == nil {
		s.AssignedCategories = make(map[int]bool)
	}
	if s.QuestionsByAssessment == nil {
		s.QuestionsByAssessment = make(map[string][]model.Question)
	}
	if s.QuestionInclusion == nil {
		s.QuestionInclusion = make(map[string]bool)
	}
	if s.ContentOverrides == nil {
		s.ContentOverrides = make(map[string]model.ContentRef)
	}
	if s.ResolvedContent == nil {
		s.ResolvedContent = make(map[string]*model.StoredContent)
	}
}

func (s *State) addNotice(n Notice) {
	s.Notices = append(s.Notices, n)
	if len(s.Notices) > maxNotices {
		s.Notices = s.Notices[len(s.Notices)-maxNotices:]
	}
}

// AddNotices appends notices raised outside the state, e.g. by catalog lookups.
func (s *State) AddNotices(ns ...Notice) {
	for _, n := range ns {
		s.addNotice(n)
	}
}

// TakeEvents returns the events queued by the last actions and clears them.
func (s *State) TakeEvents() []Event {
	events := s.pendingEvents
	s.pendingEvents = nil
	return events
}

// ClearNotices drops all accumulated notices.
func (s *State) ClearNotices() {
	s.Notices = nil
}

func (s *State) isCategorySelected(categoryID int) (int, bool) {
	for i, c := range s.SelectedCategories {
		if c.CategoryID == categoryID {
			return i, true
		}
	}
	return -1, false
}

func (s *State) selectedAssessment(assessmentID string) (*SelectedAssessment, bool) {
	for i := range s.SelectedAssessments {
		if s.SelectedAssessments[i].AssessmentID == assessmentID {
			return &s.SelectedAssessments[i], true
		}
	}
	return nil, false
}

func (s *State) assessmentForCategory(categoryID int) (SelectedAssessment, bool) {
	for _, a := range s.SelectedAssessments {
		if a.CategoryID == categoryID {
			return a, true
		}
	}
	return SelectedAssessment{}, false
}

func (s *State) findQuestion(assessmentID, questionID string) (*model.Question, error) {
	if _, ok := s.selectedAssessment(assessmentID); !ok {
		return nil, ErrUnknownAssessment
	}
	questions := s.QuestionsByAssessment[assessmentID]
	for i := range questions {
		if questions[i].QuestionID == questionID {
			return &questions[i], nil
		}
	}
	return nil, ErrUnknownQuestion
}

// EffectiveContentRef returns the override for a question if one is set,
// otherwise its default content reference.
func (s *State) EffectiveContentRef(assessmentID string, q *model.Question) *model.ContentRef {
	if ref, ok := s.ContentOverrides[QuestionKey(assessmentID, q.QuestionID)]; ok {
		return &ref
	}
	return q.ContentReference
}

// HasIncludedQuestion reports whether at least one question across all
// selected assessments is included.
func (s *State) HasIncludedQuestion() bool {
	for _, a := range s.SelectedAssessments {
		if len(s.IncludedQuestionIDs(a.AssessmentID)) > 0 {
			return true
		}
	}
	return false
}

// IncludedQuestionIDs returns the included question ids of one assessment in
// question order.
func (s *State) IncludedQuestionIDs(assessmentID string) []string {
	ids := []string{}
	for _, q := range s.QuestionsByAssessment[assessmentID] {
		if s.QuestionInclusion[QuestionKey(assessmentID, q.QuestionID)] {
			ids = append(ids, q.QuestionID)
		}
	}
	return ids
}

// PendingCategories returns selected categories that have no assessment
// chosen yet, i.e. the ones an advance must look up.
func (s *State) PendingCategories() []model.Category {
	var out []model.Category
	for _, c := range s.SelectedCategories {
		if _, ok := s.assessmentForCategory(c.CategoryID); !ok {
			out = append(out, c)
		}
	}
	return out
}

// UnresolvedContentRefs maps question keys to the content reference that
// still needs to be materialized.
func (s *State) UnresolvedContentRefs() map[string]model.ContentRef {
	out := make(map[string]model.ContentRef)
	for _, a := range s.SelectedAssessments {
		questions := s.QuestionsByAssessment[a.AssessmentID]
		for i := range questions {
			key := QuestionKey(a.AssessmentID, questions[i].QuestionID)
			if _, done := s.ResolvedContent[key]; done {
				continue
			}
			if ref := s.EffectiveContentRef(a.AssessmentID, &questions[i]); ref != nil {
				out[key] = *ref
			}
		}
	}
	return out
}

// RecordResolvedContent stores resolution results. A nil item records that
// no preview content is available for the key.
func (s *State) RecordResolvedContent(results map[string]model.ContentItem) {
	for key, item := range results {
		if !s.knownKey(key) {
			continue
		}
		if item == nil {
			s.ResolvedContent[key] = nil
			s.addNotice(Notice{
				Code:    NoticeContentUnavailable,
				Message: "content preview is unavailable for this question",
				Key:     key,
			})
			continue
		}
		s.ResolvedContent[key] = &model.StoredContent{Item: item}
	}
}

func (s *State) knownKey(key string) bool {
	for _, a := range s.SelectedAssessments {
		for _, q := range s.QuestionsByAssessment[a.AssessmentID] {
			if QuestionKey(a.AssessmentID, q.QuestionID) == key {
				return true
			}
		}
	}
	return false
}
