package workflow

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"

	"github.com/literexia/assignment-engine/internal/model"
)

// AssessmentLister lists published assessments. Implementations are
// fail-soft and return an empty slice when the source is unavailable.
type AssessmentLister interface {
	ListPublishedAssessments(ctx context.Context, categoryID *int, level model.ReadingLevel) []model.Assessment
}

// ContentProvider lists and resolves content items, fail-soft.
type ContentProvider interface {
	ListContent(ctx context.Context, kind model.ContentKind) []model.ContentItem
	// ResolveMany resolves every reference; failed keys map to nil.
	ResolveMany(ctx context.Context, refs map[string]model.ContentRef) map[string]model.ContentItem
}

// Gateway submits a finished payload to the persistence boundary.
type Gateway interface {
	Submit(ctx context.Context, payload *model.AssignmentPayload) (*model.AssignmentResult, error)
}

// Publisher broadcasts workflow events. Delivery is best-effort.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// Options tunes a Controller.
type Options struct {
	PlaceholderPrefix     string
	EmptyAssessmentPolicy EmptyAssessmentPolicy
	// Now and Pick default to time.Now and rand.IntN; tests replace them.
	Now  func() time.Time
	Pick func(n int) int
}

// Controller drives the stage machine
//
//	SelectCategories -> CustomizeQuestions -> Review -> Committed | Failed
//
// over a State. It performs the I/O around each transition and leaves every
// data change to the State methods. A Controller holds no per-workflow data
// and may be shared; callers serialize actions on a single State.
type Controller struct {
	assessments AssessmentLister
	content     ContentProvider
	gateway     Gateway
	events      Publisher
	opts        Options
	log         zerolog.Logger
}

// NewController creates a new Controller.
func NewController(
	assessments AssessmentLister,
	content ContentProvider,
	gateway Gateway,
	events Publisher,
	opts Options,
	log zerolog.Logger,
) *Controller {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Pick == nil {
		opts.Pick = rand.IntN
	}
	if opts.EmptyAssessmentPolicy == "" {
		opts.EmptyAssessmentPolicy = EmptyAssessmentDrop
	}
	return &Controller{
		assessments: assessments,
		content:     content,
		gateway:     gateway,
		events:      events,
		opts:        opts,
		log:         log.With().Str("component", "workflow_controller").Logger(),
	}
}

// SetReadingLevel changes the level, clearing the selection when it differs.
func (c *Controller) SetReadingLevel(ctx context.Context, st *State, level model.ReadingLevel) error {
	if !level.Valid() {
		return &ValidationError{Field: "reading_level", Reason: fmt.Sprintf("unknown reading level %q", level)}
	}
	st.EnsureMaps()
	if st.SetReadingLevel(level) {
		c.touch(st)
		c.publish(ctx, st, EventSelectionReset, nil, "")
		c.log.Debug().Str("workflow_id", st.ID).Str("level", string(level)).Msg("Reading level changed, selection cleared")
	}
	return nil
}

// ToggleCategory adds or removes a catalog entry from the selection.
func (c *Controller) ToggleCategory(_ context.Context, st *State, entry model.CatalogEntry) (bool, error) {
	st.EnsureMaps()
	changed, err := st.SelectCategory(entry)
	if err != nil {
		return false, err
	}
	c.touch(st)
	return changed, nil
}

// Advance moves SelectCategories -> CustomizeQuestions. Each newly selected
// category gets its first published assessment at the current level, then
// content is resolved for every question. Resolution failures are recorded
// per question and never block the transition.
func (c *Controller) Advance(ctx context.Context, st *State) error {
	st.EnsureMaps()
	if st.Stage != StageSelectCategories {
		return invalidStage("advance", st.Stage)
	}
	if len(st.SelectedCategories) == 0 {
		return &ValidationError{Field: "categories", Reason: "select at least one category"}
	}

	found := make(map[int]*model.Assessment)
	for _, cat := range st.PendingCategories() {
		id := cat.CategoryID
		list := c.assessments.ListPublishedAssessments(ctx, &id, st.Level)
		if len(list) > 0 {
			a := list[0]
			found[id] = &a
		}
	}

	if err := st.AdvanceToQuestionStage(found, c.opts.PlaceholderPrefix); err != nil {
		return err
	}
	c.resolveContent(ctx, st)

	c.touch(st)
	c.publish(ctx, st, EventStageChanged, nil, "")
	c.log.Info().
		Str("workflow_id", st.ID).
		Int("assessments", len(st.SelectedAssessments)).
		Msg("Advanced to question customization")
	return nil
}

func (c *Controller) resolveContent(ctx context.Context, st *State) {
	refs := st.UnresolvedContentRefs()
	if len(refs) == 0 {
		return
	}
	results := c.content.ResolveMany(ctx, refs)
	for key := range refs {
		if _, ok := results[key]; !ok {
			results[key] = nil
		}
	}
	st.RecordResolvedContent(results)
}

// Review moves CustomizeQuestions -> Review when at least one question is included.
func (c *Controller) Review(ctx context.Context, st *State) error {
	st.EnsureMaps()
	if st.Stage != StageCustomizeQuestions {
		return invalidStage("review", st.Stage)
	}
	if !st.HasIncludedQuestion() {
		return &ValidationError{Field: "questions", Reason: "include at least one question"}
	}
	st.Stage = StageReview
	c.touch(st)
	c.publish(ctx, st, EventStageChanged, nil, "")
	return nil
}

// Commit builds the payload and submits it. On success the selection is
// reset and a completion event carries the server's assignment summary. On
// gateway failure the workflow moves to Failed with the error retained and
// the selection preserved; nothing is retried automatically. Commit is also
// accepted from Failed, which is how a teacher retries.
func (c *Controller) Commit(ctx context.Context, st *State) (*model.AssignmentResult, error) {
	st.EnsureMaps()
	if st.Stage != StageReview && st.Stage != StageFailed {
		return nil, invalidStage("commit", st.Stage)
	}

	payload, notices, err := st.BuildAssignmentPayload(c.opts.EmptyAssessmentPolicy)
	for _, n := range notices {
		st.addNotice(n)
	}
	if err != nil {
		c.touch(st)
		return nil, err
	}

	result, err := c.gateway.Submit(ctx, payload)
	if err == nil && (result == nil || !result.Success) {
		msg := "assignment was rejected"
		if result != nil && result.Message != "" {
			msg = result.Message
		}
		err = errors.New(msg)
	}
	if err != nil {
		st.Stage = StageFailed
		st.LastError = err.Error()
		c.touch(st)
		c.publish(ctx, st, EventFailed, nil, st.LastError)
		c.log.Warn().Err(err).Str("workflow_id", st.ID).Msg("Assignment submission failed")
		return nil, fmt.Errorf("%w: %w", ErrSubmission, err)
	}

	st.ResetSelection()
	st.Stage = StageCommitted
	st.LastError = ""
	st.LastResult = result
	c.touch(st)
	c.publish(ctx, st, EventCompleted, result, "")
	c.log.Info().
		Str("workflow_id", st.ID).
		Str("student_id", st.StudentID).
		Int("assignments", len(result.AssignmentIDs)).
		Msg("Assignment committed")
	return result, nil
}

// Back navigates one stage backwards without clearing downstream data.
func (c *Controller) Back(ctx context.Context, st *State) error {
	st.EnsureMaps()
	switch st.Stage {
	case StageReview:
		st.Stage = StageCustomizeQuestions
	case StageCustomizeQuestions:
		st.Stage = StageSelectCategories
	case StageFailed:
		st.Stage = StageReview
	default:
		return invalidStage("back", st.Stage)
	}
	c.touch(st)
	c.publish(ctx, st, EventStageChanged, nil, "")
	return nil
}

// Restart opens a new round after a commit, keeping student and level.
func (c *Controller) Restart(ctx context.Context, st *State) error {
	st.EnsureMaps()
	if st.Stage != StageCommitted {
		return invalidStage("restart", st.Stage)
	}
	st.Stage = StageSelectCategories
	st.LastResult = nil
	st.ClearNotices()
	c.touch(st)
	c.publish(ctx, st, EventStageChanged, nil, "")
	return nil
}

// ToggleQuestion flips one question's inclusion.
func (c *Controller) ToggleQuestion(_ context.Context, st *State, assessmentID, questionID string) (bool, error) {
	st.EnsureMaps()
	included, err := st.ToggleQuestion(assessmentID, questionID)
	if err != nil {
		return false, err
	}
	c.touch(st)
	return included, nil
}

// InjectCustomQuestion adds a template-library question and resolves its content.
func (c *Controller) InjectCustomQuestion(ctx context.Context, st *State, assessmentID string, q model.Question) (model.Question, error) {
	st.EnsureMaps()
	added, err := st.InjectCustomQuestion(assessmentID, q, c.opts.Now())
	if err != nil {
		return model.Question{}, err
	}
	c.resolveContent(ctx, st)
	c.touch(st)
	return added, nil
}

// SetContentOverride records a teacher-chosen content item and resolves it.
func (c *Controller) SetContentOverride(ctx context.Context, st *State, assessmentID, questionID string, ref model.ContentRef) error {
	st.EnsureMaps()
	if err := st.SetContentOverride(assessmentID, questionID, ref); err != nil {
		return err
	}
	c.resolveContent(ctx, st)
	c.touch(st)
	return nil
}

// RandomizeContent overrides a question's content with a random item of the
// same kind. It returns false when there was nothing to randomize.
func (c *Controller) RandomizeContent(ctx context.Context, st *State, assessmentID, questionID string) (model.ContentRef, bool, error) {
	st.EnsureMaps()
	q, err := st.findQuestion(assessmentID, questionID)
	if err != nil {
		return model.ContentRef{}, false, err
	}

	var pool []model.ContentItem
	if q.ContentReference != nil {
		if kind, err := q.ContentReference.Kind(); err == nil {
			pool = c.content.ListContent(ctx, kind)
		}
	}

	ref, ok, err := st.RandomizeContent(assessmentID, questionID, pool, c.opts.Pick)
	if err != nil {
		return model.ContentRef{}, false, err
	}
	c.touch(st)
	return ref, ok, nil
}

// PreviewPayload builds the payload the next commit would submit.
func (c *Controller) PreviewPayload(st *State) (*model.AssignmentPayload, []Notice, error) {
	st.EnsureMaps()
	return st.BuildAssignmentPayload(c.opts.EmptyAssessmentPolicy)
}

func (c *Controller) touch(st *State) {
	st.UpdatedAt = c.opts.Now()
}

// publish queues an event on the state. Nothing leaves the process until
// FlushEvents runs, which callers do once the state has been saved.
func (c *Controller) publish(_ context.Context, st *State, typ EventType, result *model.AssignmentResult, errMsg string) {
	st.pendingEvents = append(st.pendingEvents, Event{
		Type:       typ,
		WorkflowID: st.ID,
		Stage:      st.Stage,
		Result:     result,
		Error:      errMsg,
		At:         c.opts.Now(),
	})
}

// FlushEvents publishes the events queued on st in order and clears them.
func (c *Controller) FlushEvents(ctx context.Context, st *State) {
	events := st.TakeEvents()
	if c.events == nil {
		return
	}
	for _, ev := range events {
		c.events.Publish(ctx, ev)
	}
}
