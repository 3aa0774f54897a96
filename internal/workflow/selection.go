package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/literexia/assignment-engine/internal/model"
)

// SelectCategory toggles a category's membership in the selection. Adding is
// a no-op (reported as false plus a notice) when the category is already
// assigned to the student or has no eligible assessment at the current level.
func (s *State) SelectCategory(entry model.CatalogEntry) (bool, error) {
	if s.Stage != StageSelectCategories {
		return false, invalidStage("category selection", s.Stage)
	}

	if i, ok := s.isCategorySelected(entry.CategoryID); ok {
		s.SelectedCategories = append(s.SelectedCategories[:i], s.SelectedCategories[i+1:]...)
		s.dropCategoryAssessment(entry.CategoryID)
		return true, nil
	}

	if s.AssignedCategories[entry.CategoryID] {
		entry.IsAssigned = true
	}
	if !entry.Selectable() {
		reason := fmt.Sprintf("%s has no assessments for %s", entry.Title, s.Level)
		if entry.IsAssigned {
			reason = fmt.Sprintf("%s is already assigned to this student", entry.Title)
		}
		s.addNotice(Notice{Code: NoticeCategoryIneligible, Message: reason})
		return false, nil
	}

	s.SelectedCategories = append(s.SelectedCategories, entry.Category)
	return true, nil
}

// SetReadingLevel replaces the level. A change clears the whole selection and
// returns the workflow to SelectCategories, since category eligibility is
// level-scoped. Setting the current level again changes nothing.
func (s *State) SetReadingLevel(level model.ReadingLevel) bool {
	if level == s.Level {
		return false
	}
	s.Level = level
	s.clearSelection()
	s.Stage = StageSelectCategories
	s.LastError = ""
	s.LastResult = nil
	return true
}

// AdvanceToQuestionStage picks an assessment for every selected category and
// pre-includes all of its questions. found maps a category id to the first
// published assessment at the current level; a category missing from found
// gets a placeholder "<prefix>-<categoryId>-placeholder" with no questions.
//
// Assessments chosen on an earlier advance are kept with their inclusion
// flags and overrides, so navigating back and forward loses no edits.
// Assessments of categories no longer selected are dropped.
func (s *State) AdvanceToQuestionStage(found map[int]*model.Assessment, placeholderPrefix string) error {
	if s.Stage != StageSelectCategories {
		return invalidStage("advance to questions", s.Stage)
	}
	if len(s.SelectedCategories) == 0 {
		return &ValidationError{Field: "categories", Reason: "select at least one category"}
	}

	next := make([]SelectedAssessment, 0, len(s.SelectedCategories))
	keep := make(map[string]bool, len(s.SelectedCategories))

	for _, c := range s.SelectedCategories {
		if existing, ok := s.assessmentForCategory(c.CategoryID); ok {
			next = append(next, existing)
			keep[existing.AssessmentID] = true
			continue
		}

		var sel SelectedAssessment
		var questions []model.Question
		if a := found[c.CategoryID]; a != nil {
			sel = SelectedAssessment{
				CategoryID:      c.CategoryID,
				CategoryTitle:   c.Title,
				AssessmentID:    a.AssessmentID,
				AssessmentTitle: a.Title,
			}
			questions = make([]model.Question, len(a.Questions))
			copy(questions, a.Questions)
			for i := range questions {
				questions[i].Normalize()
			}
		} else {
			sel = SelectedAssessment{
				CategoryID:      c.CategoryID,
				CategoryTitle:   c.Title,
				AssessmentID:    PlaceholderAssessmentID(placeholderPrefix, c.CategoryID),
				AssessmentTitle: c.Title,
				Placeholder:     true,
			}
			questions = []model.Question{}
			s.addNotice(Notice{
				Code:    NoticePlaceholderAssigned,
				Message: fmt.Sprintf("no published %s assessment for %s yet; add questions from the template library", c.Title, s.Level),
			})
		}

		next = append(next, sel)
		keep[sel.AssessmentID] = true
		s.QuestionsByAssessment[sel.AssessmentID] = questions
		for _, q := range questions {
			s.QuestionInclusion[QuestionKey(sel.AssessmentID, q.QuestionID)] = true
		}
	}

	for _, old := range s.SelectedAssessments {
		if !keep[old.AssessmentID] {
			s.dropAssessment(old.AssessmentID)
		}
	}

	s.SelectedAssessments = next
	s.Stage = StageCustomizeQuestions
	return nil
}

// PlaceholderAssessmentID builds the synthesized id for a category without a
// published assessment.
func PlaceholderAssessmentID(prefix string, categoryID int) string {
	if prefix == "" {
		prefix = "assessment"
	}
	return fmt.Sprintf("%s-%d-placeholder", prefix, categoryID)
}

// dropCategoryAssessment removes the assessment chosen for a category along
// with its questions, inclusion flags, overrides and resolved content.
func (s *State) dropCategoryAssessment(categoryID int) {
	kept := s.SelectedAssessments[:0]
	for _, a := range s.SelectedAssessments {
		if a.CategoryID == categoryID {
			s.dropAssessment(a.AssessmentID)
			continue
		}
		kept = append(kept, a)
	}
	s.SelectedAssessments = kept
}

func (s *State) dropAssessment(assessmentID string) {
	for _, q := range s.QuestionsByAssessment[assessmentID] {
		key := QuestionKey(assessmentID, q.QuestionID)
		delete(s.QuestionInclusion, key)
		delete(s.ContentOverrides, key)
		delete(s.ResolvedContent, key)
	}
	delete(s.QuestionsByAssessment, assessmentID)
}

// ToggleQuestion flips a question's inclusion flag and returns the new value.
// No minimum is enforced here; Review requires at least one inclusion overall.
func (s *State) ToggleQuestion(assessmentID, questionID string) (bool, error) {
	if s.Stage != StageCustomizeQuestions {
		return false, invalidStage("question toggle", s.Stage)
	}
	if _, err := s.findQuestion(assessmentID, questionID); err != nil {
		return false, err
	}
	key := QuestionKey(assessmentID, questionID)
	s.QuestionInclusion[key] = !s.QuestionInclusion[key]
	return s.QuestionInclusion[key], nil
}

// InjectCustomQuestion appends a question pulled from a template library to
// an assessment under a fresh id and includes it.
func (s *State) InjectCustomQuestion(assessmentID string, q model.Question, now time.Time) (model.Question, error) {
	if s.Stage != StageCustomizeQuestions {
		return model.Question{}, invalidStage("custom question", s.Stage)
	}
	if _, ok := s.selectedAssessment(assessmentID); !ok {
		return model.Question{}, ErrUnknownAssessment
	}
	if err := q.Validate(); err != nil {
		return model.Question{}, &ValidationError{Field: "question", Reason: err.Error()}
	}
	if q.ContentReference != nil {
		if _, err := q.ContentReference.Kind(); err != nil {
			return model.Question{}, &ValidationError{Field: "question.contentReference", Reason: err.Error()}
		}
	}

	existing := s.QuestionsByAssessment[assessmentID]
	id := customQuestionID(now)
	for s.hasQuestionID(existing, id) {
		id = customQuestionID(now)
	}

	q.QuestionID = id
	q.QuestionNumber = len(existing) + 1
	q.Custom = true
	q.Options = append([]model.Option(nil), q.Options...)
	q.Normalize()

	s.QuestionsByAssessment[assessmentID] = append(existing, q)
	s.QuestionInclusion[QuestionKey(assessmentID, id)] = true
	return q, nil
}

func (s *State) hasQuestionID(questions []model.Question, id string) bool {
	for _, q := range questions {
		if q.QuestionID == id {
			return true
		}
	}
	return false
}

// customQuestionID combines a millisecond timestamp with a random suffix.
func customQuestionID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("custom-%d-%s", now.UnixMilli(), suffix)
}

// SetContentOverride records a substitute content reference for one question.
// The question's own ContentReference is left untouched.
func (s *State) SetContentOverride(assessmentID, questionID string, ref model.ContentRef) error {
	if s.Stage != StageCustomizeQuestions {
		return invalidStage("content override", s.Stage)
	}
	if _, err := s.findQuestion(assessmentID, questionID); err != nil {
		return err
	}
	kind, err := ref.Kind()
	if err != nil {
		return &ValidationError{Field: "collection", Reason: err.Error()}
	}
	if strings.TrimSpace(ref.ContentID) == "" {
		return &ValidationError{Field: "content_id", Reason: "content id is required"}
	}
	ref.Collection = string(kind)

	key := QuestionKey(assessmentID, questionID)
	s.ContentOverrides[key] = ref
	delete(s.ResolvedContent, key)
	return nil
}

// RandomizeContent overrides a question's content with an item drawn
// uniformly from pool, using pick(n) to choose an index in [0, n). It is a
// soft no-op (false plus a notice) when the question has no content
// reference to randomize within or the pool is empty.
func (s *State) RandomizeContent(assessmentID, questionID string, pool []model.ContentItem, pick func(n int) int) (model.ContentRef, bool, error) {
	if s.Stage != StageCustomizeQuestions {
		return model.ContentRef{}, false, invalidStage("content randomize", s.Stage)
	}
	q, err := s.findQuestion(assessmentID, questionID)
	if err != nil {
		return model.ContentRef{}, false, err
	}
	key := QuestionKey(assessmentID, questionID)

	if q.ContentReference == nil {
		s.addNotice(Notice{
			Code:    NoticeRandomizeSkipped,
			Message: "question has no content type to randomize",
			Key:     key,
		})
		return model.ContentRef{}, false, nil
	}
	kind, err := q.ContentReference.Kind()
	if err != nil || len(pool) == 0 {
		s.addNotice(Notice{
			Code:    NoticeRandomizeSkipped,
			Message: "no content available to randomize from",
			Key:     key,
		})
		return model.ContentRef{}, false, nil
	}

	item := pool[pick(len(pool))]
	ref := model.ContentRef{Collection: string(kind), ContentID: item.ContentID()}
	if err := s.SetContentOverride(assessmentID, questionID, ref); err != nil {
		return model.ContentRef{}, false, err
	}
	s.ResolvedContent[key] = &model.StoredContent{Item: item}
	return ref, true, nil
}

// ResetSelection empties the selection after a successful commit. The
// student, teacher, level and assigned set survive.
func (s *State) ResetSelection() {
	s.clearSelection()
}
