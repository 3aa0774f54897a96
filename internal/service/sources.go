package service

import (
	"context"

	"github.com/literexia/assignment-engine/internal/model"
)

// The source interfaces below are implemented both by the REST client in
// internal/upstream and by the Mongo repositories; DATA_SOURCE picks one.

// CatalogSource lists categories and assessments.
type CatalogSource interface {
	ListCategories(ctx context.Context, level model.ReadingLevel) ([]model.Category, error)
	ListAssessments(ctx context.Context, categoryID *int, level model.ReadingLevel) ([]model.Assessment, error)
}

// ContentSource lists and resolves content items.
type ContentSource interface {
	ListContent(ctx context.Context, kind model.ContentKind) ([]model.ContentItem, error)
	ResolveContent(ctx context.Context, ref model.ContentRef) (model.ContentItem, error)
}

// ProgressSource reports a student's per-category status.
type ProgressSource interface {
	StudentProgress(ctx context.Context, studentID string) (*model.StudentProgress, error)
}

// AssignmentSink persists a committed assignment payload.
type AssignmentSink interface {
	SubmitAssignment(ctx context.Context, payload *model.AssignmentPayload) (*model.AssignmentResult, error)
}

// ContentCache memoizes resolved content items. Get reports a miss with ok=false.
type ContentCache interface {
	Get(ctx context.Context, ref model.ContentRef) (item model.ContentItem, ok bool, err error)
	Set(ctx context.Context, ref model.ContentRef, item model.ContentItem) error
}

// AuditQueue hands commit records to the background audit writer.
type AuditQueue interface {
	Enqueue(ctx context.Context, audit model.AssignmentAudit) error
}
