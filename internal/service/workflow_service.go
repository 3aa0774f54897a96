package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/literexia/assignment-engine/internal/model"
	"github.com/literexia/assignment-engine/internal/workflow"
)

// WorkflowService owns workflow sessions. Each action loads the state from
// the store, applies one controller operation and saves the result. Actions
// on the same workflow id are serialized within this process.
type WorkflowService struct {
	store    workflow.Store
	ctrl     *workflow.Controller
	catalog  *CatalogService
	progress *ProgressService
	locks    sync.Map // workflow id -> *sync.Mutex
	now      func() time.Time
	log      zerolog.Logger
}

func NewWorkflowService(
	store workflow.Store,
	ctrl *workflow.Controller,
	catalog *CatalogService,
	progress *ProgressService,
	log zerolog.Logger,
) *WorkflowService {
	return &WorkflowService{
		store:    store,
		ctrl:     ctrl,
		catalog:  catalog,
		progress: progress,
		now:      time.Now,
		log:      log.With().Str("component", "workflow_service").Logger(),
	}
}

// Create opens a workflow for one student at one reading level. The set of
// already-assigned categories is captured now and used for the whole session.
func (s *WorkflowService) Create(ctx context.Context, studentID, teacherID string, level model.ReadingLevel) (*workflow.State, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, ErrStudentRequired
	}
	if !level.Valid() {
		return nil, &workflow.ValidationError{Field: "reading_level", Reason: "unknown reading level"}
	}

	assigned, notice := s.progress.AssignedCategories(ctx, studentID)
	st := workflow.NewState(uuid.NewString(), studentID, strings.TrimSpace(teacherID), level, assigned, s.now())
	if notice != nil {
		st.AddNotices(*notice)
	}

	if err := s.store.Save(ctx, st); err != nil {
		return nil, err
	}
	s.log.Info().Str("workflow_id", st.ID).Str("student_id", studentID).Str("level", string(level)).Msg("Workflow created")
	return st, nil
}

func (s *WorkflowService) Get(ctx context.Context, id string) (*workflow.State, error) {
	return s.store.Load(ctx, id)
}

func (s *WorkflowService) Delete(ctx context.Context, id string) error {
	mu := s.lock(id)
	mu.Lock()
	defer mu.Unlock()
	defer s.locks.Delete(id)

	return s.store.Delete(ctx, id)
}

// Catalog returns the annotated catalog for the workflow's student and level.
func (s *WorkflowService) Catalog(ctx context.Context, id string) ([]model.CatalogEntry, error) {
	st, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	entries, _ := s.catalog.Catalog(ctx, st.Level, "")
	for i := range entries {
		entries[i].IsAssigned = st.AssignedCategories[entries[i].CategoryID]
	}
	return entries, nil
}

func (s *WorkflowService) SetReadingLevel(ctx context.Context, id string, level model.ReadingLevel) (*workflow.State, error) {
	return s.do(ctx, id, func(st *workflow.State) error {
		return s.ctrl.SetReadingLevel(ctx, st, level)
	})
}

// ToggleCategory adds or removes a category, checking its eligibility
// against the current catalog.
func (s *WorkflowService) ToggleCategory(ctx context.Context, id string, categoryID int) (*workflow.State, bool, error) {
	var changed bool
	st, err := s.do(ctx, id, func(st *workflow.State) error {
		entry, notices, err := s.catalog.FindEntry(ctx, st.Level, "", categoryID)
		st.AddNotices(notices...)
		if err != nil {
			return err
		}
		entry.IsAssigned = st.AssignedCategories[categoryID]
		changed, err = s.ctrl.ToggleCategory(ctx, st, entry)
		return err
	})
	return st, changed, err
}

func (s *WorkflowService) Advance(ctx context.Context, id string) (*workflow.State, error) {
	return s.do(ctx, id, func(st *workflow.State) error {
		return s.ctrl.Advance(ctx, st)
	})
}

func (s *WorkflowService) Review(ctx context.Context, id string) (*workflow.State, error) {
	return s.do(ctx, id, func(st *workflow.State) error {
		return s.ctrl.Review(ctx, st)
	})
}

// Commit submits the workflow. The state is saved whatever the outcome so a
// failed submission stays visible and can be retried.
func (s *WorkflowService) Commit(ctx context.Context, id string) (*workflow.State, *model.AssignmentResult, error) {
	var result *model.AssignmentResult
	st, err := s.do(ctx, id, func(st *workflow.State) error {
		var err error
		result, err = s.ctrl.Commit(ctx, st)
		return err
	})
	return st, result, err
}

func (s *WorkflowService) Back(ctx context.Context, id string) (*workflow.State, error) {
	return s.do(ctx, id, func(st *workflow.State) error {
		return s.ctrl.Back(ctx, st)
	})
}

func (s *WorkflowService) Restart(ctx context.Context, id string) (*workflow.State, error) {
	return s.do(ctx, id, func(st *workflow.State) error {
		return s.ctrl.Restart(ctx, st)
	})
}

func (s *WorkflowService) ToggleQuestion(ctx context.Context, id, assessmentID, questionID string) (*workflow.State, bool, error) {
	var included bool
	st, err := s.do(ctx, id, func(st *workflow.State) error {
		var err error
		included, err = s.ctrl.ToggleQuestion(ctx, st, assessmentID, questionID)
		return err
	})
	return st, included, err
}

func (s *WorkflowService) InjectCustomQuestion(ctx context.Context, id, assessmentID string, q model.Question) (*workflow.State, model.Question, error) {
	var added model.Question
	st, err := s.do(ctx, id, func(st *workflow.State) error {
		var err error
		added, err = s.ctrl.InjectCustomQuestion(ctx, st, assessmentID, q)
		return err
	})
	return st, added, err
}

func (s *WorkflowService) SetContentOverride(ctx context.Context, id, assessmentID, questionID string, ref model.ContentRef) (*workflow.State, error) {
	return s.do(ctx, id, func(st *workflow.State) error {
		return s.ctrl.SetContentOverride(ctx, st, assessmentID, questionID, ref)
	})
}

func (s *WorkflowService) RandomizeContent(ctx context.Context, id, assessmentID, questionID string) (*workflow.State, *model.ContentRef, error) {
	var picked *model.ContentRef
	st, err := s.do(ctx, id, func(st *workflow.State) error {
		ref, ok, err := s.ctrl.RandomizeContent(ctx, st, assessmentID, questionID)
		if ok {
			picked = &ref
		}
		return err
	})
	return st, picked, err
}

// PreviewPayload returns what a commit would submit right now.
func (s *WorkflowService) PreviewPayload(ctx context.Context, id string) (*model.AssignmentPayload, []workflow.Notice, error) {
	st, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return s.ctrl.PreviewPayload(st)
}

// do runs fn against a freshly loaded state under the workflow's lock and
// saves the state afterwards, also when fn failed, since failed actions may
// still record notices or a Failed stage. Events raised by fn are published
// only once the save succeeded.
func (s *WorkflowService) do(ctx context.Context, id string, fn func(st *workflow.State) error) (*workflow.State, error) {
	mu := s.lock(id)
	mu.Lock()
	defer mu.Unlock()

	st, err := s.store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, workflow.ErrNotFound) {
			s.locks.Delete(id)
		}
		return nil, err
	}

	actionErr := fn(st)
	if err := s.store.Save(ctx, st); err != nil {
		st.TakeEvents()
		s.log.Error().Err(err).Str("workflow_id", id).Msg("Failed to save workflow state")
		return nil, err
	}
	s.ctrl.FlushEvents(ctx, st)
	return st, actionErr
}

func (s *WorkflowService) lock(id string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
