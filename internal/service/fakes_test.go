package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/literexia/assignment-engine/internal/model"
	"github.com/literexia/assignment-engine/internal/workflow"
)

var errDown = errors.New("backend unavailable")

type fakeCatalogSource struct {
	categories     []model.Category
	assessments    []model.Assessment
	categoriesErr  error
	assessmentsErr error
}

func (f *fakeCatalogSource) ListCategories(_ context.Context, _ model.ReadingLevel) ([]model.Category, error) {
	return f.categories, f.categoriesErr
}

func (f *fakeCatalogSource) ListAssessments(_ context.Context, categoryID *int, _ model.ReadingLevel) ([]model.Assessment, error) {
	if f.assessmentsErr != nil {
		return nil, f.assessmentsErr
	}
	var out []model.Assessment
	for _, a := range f.assessments {
		if categoryID == nil || a.CategoryID == *categoryID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeProgressSource struct {
	progress *model.StudentProgress
	err      error
}

func (f *fakeProgressSource) StudentProgress(_ context.Context, _ string) (*model.StudentProgress, error) {
	return f.progress, f.err
}

type fakeContentSource struct {
	mu       sync.Mutex
	items    map[model.ContentKind][]model.ContentItem
	failKind map[model.ContentKind]bool
	resolves int
}

func (f *fakeContentSource) ListContent(_ context.Context, kind model.ContentKind) ([]model.ContentItem, error) {
	if f.failKind[kind] {
		return nil, errDown
	}
	return f.items[kind], nil
}

func (f *fakeContentSource) ResolveContent(_ context.Context, ref model.ContentRef) (model.ContentItem, error) {
	f.mu.Lock()
	f.resolves++
	f.mu.Unlock()

	kind, err := ref.Kind()
	if err != nil {
		return nil, err
	}
	for _, item := range f.items[kind] {
		if item.ContentID() == ref.ContentID {
			return item, nil
		}
	}
	return nil, model.ErrContentNotFound
}

type memoryCache struct {
	mu    sync.Mutex
	items map[model.ContentRef]model.ContentItem
}

func (m *memoryCache) Get(_ context.Context, ref model.ContentRef) (model.ContentItem, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[ref]
	return item, ok, nil
}

func (m *memoryCache) Set(_ context.Context, ref model.ContentRef, item model.ContentItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items == nil {
		m.items = make(map[model.ContentRef]model.ContentItem)
	}
	m.items[ref] = item
	return nil
}

type fakeSink struct {
	result *model.AssignmentResult
	err    error
	calls  int
}

func (f *fakeSink) SubmitAssignment(_ context.Context, _ *model.AssignmentPayload) (*model.AssignmentResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeAuditQueue struct {
	records []model.AssignmentAudit
	err     error
}

func (f *fakeAuditQueue) Enqueue(_ context.Context, a model.AssignmentAudit) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, a)
	return nil
}

type memoryStore struct {
	mu      sync.Mutex
	states  map[string][]byte
	saveErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{states: make(map[string][]byte)}
}

func (m *memoryStore) Load(_ context.Context, id string) (*workflow.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.states[id]
	if !ok {
		return nil, workflow.ErrNotFound
	}
	var st workflow.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, err
	}
	st.EnsureMaps()
	return &st, nil
}

func (m *memoryStore) Save(_ context.Context, st *workflow.State) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[st.ID] = raw
	return nil
}

func (m *memoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, id)
	return nil
}

// savedStagePublisher records, for every event, the stage the store held at
// the moment the event was published.
type savedStagePublisher struct {
	store  *memoryStore
	events []workflow.Event
	stored []workflow.Stage
}

func (p *savedStagePublisher) Publish(ctx context.Context, ev workflow.Event) {
	p.events = append(p.events, ev)
	var stage workflow.Stage
	if st, err := p.store.Load(ctx, ev.WorkflowID); err == nil {
		stage = st.Stage
	}
	p.stored = append(p.stored, stage)
}
