package model

import (
	"errors"
	"strings"
)

// DefaultPassingThreshold is the passing percentage applied when an
// assessment does not carry its own.
const DefaultPassingThreshold = 75

// AssessmentStatus enumerates the publishing states of an assessment.
type AssessmentStatus string

const (
	AssessmentStatusDraft     AssessmentStatus = "draft"
	AssessmentStatusPending   AssessmentStatus = "pending"
	AssessmentStatusPublished AssessmentStatus = "published"
	AssessmentStatusArchived  AssessmentStatus = "archived"
)

// Assessment is a versioned bundle of questions for one category at one tier.
type Assessment struct {
	AssessmentID     string           `json:"assessmentId" bson:"assessmentId"`
	CategoryID       int              `json:"categoryId" bson:"categoryId"`
	Title            string           `json:"title" bson:"title"`
	TargetLevel      ReadingLevel     `json:"targetLevel" bson:"targetLevel"`
	Status           AssessmentStatus `json:"status" bson:"status"`
	Questions        []Question       `json:"questions" bson:"questions"`
	PassingThreshold int              `json:"passingThreshold" bson:"passingThreshold"`
}

// IsPublished treats a missing status as published; older documents predate
// the status field.
func (a *Assessment) IsPublished() bool {
	return a.Status == "" || a.Status == AssessmentStatusPublished
}

// Normalize fills defaults left empty by the source.
func (a *Assessment) Normalize() {
	if a.PassingThreshold <= 0 {
		a.PassingThreshold = DefaultPassingThreshold
	}
	for i := range a.Questions {
		a.Questions[i].Normalize()
	}
}

// ContentRef points at a content item in one of the content collections.
type ContentRef struct {
	Collection string `json:"collection" bson:"collection"`
	ContentID  string `json:"contentId" bson:"contentId"`
}

// Kind returns the content kind of the referenced collection.
func (r ContentRef) Kind() (ContentKind, error) {
	return ParseContentKind(r.Collection)
}

// Option is one answer choice.
type Option struct {
	ID        string `json:"id" bson:"id"`
	Text      string `json:"text" bson:"text"`
	IsCorrect bool   `json:"isCorrect" bson:"isCorrect"`
}

// Question is one assessment item.
type Question struct {
	QuestionID       string      `json:"questionId" bson:"questionId"`
	QuestionNumber   int         `json:"questionNumber" bson:"questionNumber"`
	Text             string      `json:"text" bson:"text"`
	TypeID           string      `json:"typeId" bson:"typeId"`
	ContentReference *ContentRef `json:"contentReference,omitempty" bson:"contentReference,omitempty"`
	Options          []Option    `json:"options" bson:"options"`
	PointValue       int         `json:"pointValue" bson:"pointValue"`
	// Custom marks questions injected from a template library during a
	// workflow rather than taken from the assessment's own bank.
	Custom bool `json:"custom,omitempty" bson:"custom,omitempty"`
}

var (
	ErrQuestionTextRequired = errors.New("question text is required")
	ErrMultipleCorrect      = errors.New("question has more than one correct option")
)

// Normalize applies the default point value.
func (q *Question) Normalize() {
	if q.PointValue <= 0 {
		q.PointValue = 1
	}
}

// Validate checks the single-answer invariant and that the question is not blank.
func (q *Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return ErrQuestionTextRequired
	}
	correct := 0
	for _, o := range q.Options {
		if o.IsCorrect {
			correct++
		}
	}
	if correct > 1 {
		return ErrMultipleCorrect
	}
	return nil
}
